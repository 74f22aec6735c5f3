package ports

import (
	"context"

	"github.com/photosync/photosync/internal/core/domain"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
	// Create returns domain.ErrCategoryExists on a name or slug collision.
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}
