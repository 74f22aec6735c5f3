package ports

import (
	"context"
	"time"

	"github.com/photosync/photosync/internal/core/domain"
)

// TokenRepository persists access token records keyed by token hash.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.AccessToken) error
	// FindByHash returns domain.ErrTokenNotFound when no record exists.
	FindByHash(ctx context.Context, hash string) (*domain.AccessToken, error)
	// DeleteByHash is idempotent: deleting an unknown hash is not an error.
	DeleteByHash(ctx context.Context, hash string) error
	DeleteByUser(ctx context.Context, userID int64) (int, error)
	// DeleteExpired removes records whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
