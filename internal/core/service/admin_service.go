package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/photosync/photosync/internal/pkg/metrics"
	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

const recentEventsLimit = 100

// AdminService backs the admin-only user endpoints.
type AdminService struct {
	users  ports.UserRepository
	tokens ports.TokenService
	audit  ports.AuditRepository
	events ports.EventPublisher
	log    zerolog.Logger
}

func NewAdminService(users ports.UserRepository, tokens ports.TokenService, audit ports.AuditRepository, events ports.EventPublisher, log zerolog.Logger) *AdminService {
	if events == nil {
		events = nopPublisher{}
	}
	return &AdminService{users: users, tokens: tokens, audit: audit, events: events, log: log}
}

// ListUsers returns every user except the caller.
func (s *AdminService) ListUsers(ctx context.Context, caller *domain.User) ([]*domain.User, error) {
	if err := domain.Authorize(caller, domain.RequireRole(domain.RoleAdmin)); err != nil {
		return nil, err
	}
	users, err := s.users.ListExcept(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes the target user and revokes all of its tokens.
func (s *AdminService) DeleteUser(ctx context.Context, caller *domain.User, id int64) error {
	if err := domain.Authorize(caller, domain.RequireRole(domain.RoleAdmin)); err != nil {
		return err
	}

	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	// SQL stores already dropped the rows in the delete transaction; this
	// covers token stores that live elsewhere.
	n, err := s.tokens.RevokeAllForUser(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", id).Msg("failed to revoke tokens of deleted user")
	} else if n > 0 {
		metrics.TokensRevokedTotal.WithLabelValues("user_deleted").Add(float64(n))
	}

	s.events.Publish(domain.AuthEvent{
		Kind:       domain.EventUserDeleted,
		UserID:     target.ID,
		Email:      target.Email,
		ActorID:    caller.ID,
		OccurredAt: time.Now().UTC(),
	})
	s.log.Info().Int64("user_id", id).Int64("actor_id", caller.ID).Msg("user deleted")
	return nil
}

// RecentEvents returns the newest audit events.
func (s *AdminService) RecentEvents(ctx context.Context) ([]*domain.AuthEvent, error) {
	events, err := s.audit.Recent(ctx, recentEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}
