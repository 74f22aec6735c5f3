package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/photosync/photosync/internal/pkg/metrics"
	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

type eventService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewEventService returns the EventService that dispatcher workers call.
func NewEventService(repo ports.AuditRepository, log zerolog.Logger) ports.EventService {
	return &eventService{repo: repo, log: log}
}

// Process writes a single audit event to the audit trail.
func (s *eventService) Process(ctx context.Context, event domain.AuthEvent) error {
	kind := string(event.Kind)

	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues(kind, "failed").Inc()
		return fmt.Errorf("process audit event: %w", err)
	}
	metrics.AuditEventsTotal.WithLabelValues(kind, "stored").Inc()

	s.log.Debug().
		Str("kind", kind).
		Int64("user_id", event.UserID).
		Str("email", event.Email).
		Msg("audit event stored")

	return nil
}
