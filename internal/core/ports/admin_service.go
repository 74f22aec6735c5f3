package ports

import (
	"context"

	"github.com/photosync/photosync/internal/core/domain"
)

type AdminService interface {
	ListUsers(ctx context.Context, caller *domain.User) ([]*domain.User, error)
	// DeleteUser removes the target and every token it owns.
	DeleteUser(ctx context.Context, caller *domain.User, id int64) error
	RecentEvents(ctx context.Context) ([]*domain.AuthEvent, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}
