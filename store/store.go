package store

import (
	"context"
	"errors"

	"github.com/globizora/api-service/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("already exists")
)

// UserStore persists user records. Reads other than FindByEmail never
// populate PasswordHash.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByAPIKey(ctx context.Context, apiKey string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, update models.UserUpdate) (models.User, error)
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
