package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/globizora/api-service/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const publicColumns = `id, username, email, subscription, api_key, usage_count, created_at, updated_at`

// PostgresStore handles user rows in PostgreSQL. The schema lives in migrations/.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        models.NormalizeEmail(email),
		Subscription: models.TierFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, subscription, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)`,
		user.ID, user.Username, user.Email, passwordHash, string(user.Subscription), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+publicColumns+`, password_hash FROM users WHERE email = $1`,
		models.NormalizeEmail(email),
	)
	var user models.User
	var apiKey sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Subscription, &apiKey,
		&user.Usage, &user.CreatedAt, &user.UpdatedAt, &user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	user.APIKey = nullableKey(apiKey)
	return user, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.User, error) {
	return scanPublic(s.db.QueryRowContext(ctx, `SELECT `+publicColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) FindByAPIKey(ctx context.Context, apiKey string) (models.User, error) {
	if apiKey == "" {
		return models.User{}, ErrNotFound
	}
	return scanPublic(s.db.QueryRowContext(ctx, `SELECT `+publicColumns+` FROM users WHERE api_key = $1`, apiKey))
}

func (s *PostgresStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+publicColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanPublic(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// Update is a single UPDATE ... RETURNING, so concurrent increments never lose writes.
func (s *PostgresStore) Update(ctx context.Context, id string, update models.UserUpdate) (models.User, error) {
	if err := update.Validate(); err != nil {
		return models.User{}, err
	}

	var subscription, apiKey sql.NullString
	if update.Subscription != nil {
		subscription = sql.NullString{String: string(*update.Subscription), Valid: true}
	}
	if update.APIKey != nil {
		apiKey = sql.NullString{String: *update.APIKey, Valid: true}
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET subscription = COALESCE($2, subscription),
			api_key = COALESCE($3, api_key),
			usage_count = usage_count + $4,
			updated_at = $5
		WHERE id = $1
		RETURNING `+publicColumns,
		id, subscription, apiKey, update.UsageDelta, time.Now().UTC(),
	)

	user, err := scanPublic(row)
	if err != nil && isUniqueViolation(err) {
		return models.User{}, ErrConflict
	}
	return user, err
}

// EnsureSchema is a no-op; run `migrate up` to create the table.
func (s *PostgresStore) EnsureSchema(context.Context) error { return nil }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPublic(row rowScanner) (models.User, error) {
	var user models.User
	var apiKey sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Subscription, &apiKey,
		&user.Usage, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	user.APIKey = nullableKey(apiKey)
	return user, nil
}

func nullableKey(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	key := v.String
	return &key
}

func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
