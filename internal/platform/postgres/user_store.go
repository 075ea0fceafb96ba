package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/platform/logger"
	"github.com/crowdlab/crowdlab/internal/store"
)

// UserStore implements store.UserStore on PostgreSQL.
type UserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewUserStore creates a PostgreSQL implementation of store.UserStore.
func NewUserStore(db store.DBTX, log *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &UserStore{
		db:     db,
		logger: log.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*UserStore)(nil)

const userColumns = `id, name, fullname, email_addr, passwd_hash, api_key, admin, pro, locale, created`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Fullname, &u.Email, &u.PasswordHash,
		&u.APIKey, &u.Admin, &u.Pro, &u.Locale, &u.Created)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user with the given id, or store.ErrUserNotFound.
func (s *UserStore) GetByID(ctx context.Context, id int) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	return u, err
}

// GetByName returns the user with the given login name.
func (s *UserStore) GetByName(ctx context.Context, name string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = $1`, name)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	return u, err
}

// GetByAPIKey resolves an API key to its user.
func (s *UserStore) GetByAPIKey(ctx context.Context, key string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE api_key = $1`, key)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	return u, err
}

// Filter returns users matching the query's attribute filters, ordered by
// id ascending.
func (s *UserStore) Filter(ctx context.Context, q store.ListQuery) ([]*domain.User, error) {
	clause, args := listClause(q, 0)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users`+clause, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts a new user and fills in its generated id.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, fullname, email_addr, passwd_hash, api_key, admin, pro, locale, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		user.Name, user.Fullname, user.Email, user.PasswordHash,
		user.APIKey, user.Admin, user.Pro, user.Locale, user.Created,
	).Scan(&user.ID)
	if err != nil {
		log.Warn("failed to create user",
			slog.String("name", user.Name),
			slog.String("error", err.Error()))
		return translateError(err)
	}

	log.Info("user created", slog.Int("user_id", user.ID))
	return nil
}

// Update persists changes to an existing user.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1, fullname = $2, email_addr = $3, passwd_hash = $4,
		    api_key = $5, admin = $6, pro = $7, locale = $8
		WHERE id = $9`,
		user.Name, user.Fullname, user.Email, user.PasswordHash,
		user.APIKey, user.Admin, user.Pro, user.Locale, user.ID,
	)
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}
