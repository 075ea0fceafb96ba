package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// CategoryStore implements store.CategoryStore on PostgreSQL.
type CategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCategoryStore creates a PostgreSQL implementation of store.CategoryStore.
func NewCategoryStore(db store.DBTX, log *slog.Logger) *CategoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &CategoryStore{
		db:     db,
		logger: log.With(slog.String("component", "category_store")),
	}
}

var _ store.CategoryStore = (*CategoryStore)(nil)

const categoryColumns = `id, name, short_name, description, created`

func scanCategory(row interface{ Scan(...any) error }) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.ShortName, &c.Description, &c.Created)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID returns the category with the given id, or store.ErrCategoryNotFound.
func (s *CategoryStore) GetByID(ctx context.Context, id int) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCategoryNotFound
	}
	return c, err
}

// GetByShortName returns the category with the given short name.
func (s *CategoryStore) GetByShortName(ctx context.Context, shortName string) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE short_name = $1`, shortName)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCategoryNotFound
	}
	return c, err
}

// Filter returns categories matching the query's attribute filters,
// ordered by id ascending.
func (s *CategoryStore) Filter(ctx context.Context, q store.ListQuery) ([]*domain.Category, error) {
	clause, args := listClause(q, 0)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories`+clause, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var categories []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Create inserts a new category and fills in its generated id.
func (s *CategoryStore) Create(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if category.Created.IsZero() {
		category.Created = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, short_name, description, created)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		category.Name, category.ShortName, category.Description, category.Created,
	).Scan(&category.ID)
	if err != nil {
		return translateError(err)
	}
	return nil
}

// Update persists changes to an existing category.
func (s *CategoryStore) Update(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $1, short_name = $2, description = $3
		WHERE id = $4`,
		category.Name, category.ShortName, category.Description, category.ID,
	)
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrCategoryNotFound
	}
	return nil
}

// Delete removes a category.
func (s *CategoryStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrCategoryNotFound
	}
	return nil
}
