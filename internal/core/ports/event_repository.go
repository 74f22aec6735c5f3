package ports

import (
	"context"

	"github.com/photosync/photosync/internal/core/domain"
)

// AuditRepository stores the auth audit trail.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.AuthEvent, error)
}
