package ports

import (
	"context"

	"github.com/photosync/photosync/internal/core/domain"
)

// UserRepository is the Credential Store.
type UserRepository interface {
	// Create inserts user and returns it with ID and timestamps set.
	// Returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByEmail looks up by the normalized email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// ListExcept returns every user other than excludeID, ordered by id.
	ListExcept(ctx context.Context, excludeID int64) ([]*domain.User, error)
	// Delete removes the user and, where the store can, its tokens in the
	// same transaction. Returns domain.ErrUserNotFound when absent.
	Delete(ctx context.Context, id int64) error
}
