package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/photosync/photosync/internal/core/domain"
)

func TestEventService_Process(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewEventService(repo, zerolog.Nop())

	err := svc.Process(context.Background(), domain.AuthEvent{
		Kind:       domain.EventLoginSucceeded,
		UserID:     7,
		Email:      "a@example.com",
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(repo.events) != 1 || repo.events[0].UserID != 7 {
		t.Fatalf("stored events = %+v", repo.events)
	}
}

func TestEventService_ProcessRepoError(t *testing.T) {
	boom := errors.New("db down")
	svc := NewEventService(&stubAuditRepo{err: boom}, zerolog.Nop())

	err := svc.Process(context.Background(), domain.AuthEvent{Kind: domain.EventLogout})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped repo error", err)
	}
}
