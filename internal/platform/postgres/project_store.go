package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/platform/logger"
	"github.com/crowdlab/crowdlab/internal/store"
)

// ProjectStore implements store.ProjectStore on PostgreSQL.
type ProjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewProjectStore creates a PostgreSQL implementation of store.ProjectStore.
func NewProjectStore(db store.DBTX, log *slog.Logger) *ProjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ProjectStore{
		db:     db,
		logger: log.With(slog.String("component", "project_store")),
	}
}

var _ store.ProjectStore = (*ProjectStore)(nil)

const projectColumns = `id, name, short_name, description, owner_id, category_id,
	hidden, featured, allow_anonymous_contributors, webhook, info, created, updated`

func scanProject(row interface{ Scan(...any) error }) (*domain.Project, error) {
	var p domain.Project
	var category sql.NullInt64
	err := row.Scan(&p.ID, &p.Name, &p.ShortName, &p.Description, &p.OwnerID,
		&category, &p.Hidden, &p.Featured, &p.AllowAnonymous,
		&p.Webhook, &p.Info, &p.Created, &p.Updated)
	if err != nil {
		return nil, err
	}
	p.CategoryID = int(category.Int64)
	return &p, nil
}

// GetByID returns the project with the given id, or store.ErrProjectNotFound.
func (s *ProjectStore) GetByID(ctx context.Context, id int) (*domain.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProjectNotFound
	}
	return p, err
}

// GetByShortName returns the project with the given short name.
func (s *ProjectStore) GetByShortName(ctx context.Context, shortName string) (*domain.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE short_name = $1`, shortName)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProjectNotFound
	}
	return p, err
}

// Filter returns projects matching the query's attribute filters, ordered
// by id ascending.
func (s *ProjectStore) Filter(ctx context.Context, q store.ListQuery) ([]*domain.Project, error) {
	clause, args := listClause(q, 0)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects`+clause, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Create inserts a new project and fills in its generated id.
func (s *ProjectStore) Create(ctx context.Context, project *domain.Project) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := project.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	now := time.Now().UTC()
	if project.Created.IsZero() {
		project.Created = now
	}
	project.Updated = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (name, short_name, description, owner_id, category_id,
			hidden, featured, allow_anonymous_contributors, webhook, info, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		project.Name, project.ShortName, project.Description, project.OwnerID,
		nullInt(project.CategoryID), project.Hidden, project.Featured, project.AllowAnonymous,
		project.Webhook, project.Info, project.Created, project.Updated,
	).Scan(&project.ID)
	if err != nil {
		log.Warn("failed to create project",
			slog.String("short_name", project.ShortName),
			slog.String("error", err.Error()))
		return translateError(err)
	}

	log.Info("project created",
		slog.Int("project_id", project.ID),
		slog.String("short_name", project.ShortName))
	return nil
}

// Update persists changes to an existing project.
func (s *ProjectStore) Update(ctx context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	project.Updated = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = $1, short_name = $2, description = $3, owner_id = $4,
		    category_id = $5, hidden = $6, featured = $7,
		    allow_anonymous_contributors = $8, webhook = $9, info = $10, updated = $11
		WHERE id = $12`,
		project.Name, project.ShortName, project.Description, project.OwnerID,
		nullInt(project.CategoryID), project.Hidden, project.Featured, project.AllowAnonymous,
		project.Webhook, project.Info, project.Updated, project.ID,
	)
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrProjectNotFound
	}
	return nil
}

// Delete removes a project. Tasks and task runs cascade at the schema
// level.
func (s *ProjectStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrProjectNotFound
	}
	return nil
}

// nullInt maps the zero value onto SQL NULL for nullable foreign keys.
func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
