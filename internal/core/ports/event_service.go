package ports

import (
	"context"

	"github.com/photosync/photosync/internal/core/domain"
)

// EventService persists audit events pulled off the dispatcher.
type EventService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}

// EventPublisher is how services hand events to the dispatcher. It must not block.
type EventPublisher interface {
	Publish(event domain.AuthEvent)
}
