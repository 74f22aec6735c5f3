package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/photosync/photosync/internal/core/domain"
)

func newTokenFixture(ttl time.Duration) (*TokenService, *stubUserRepo, *stubTokenRepo, *time.Time) {
	users := newStubUserRepo()
	tokens := newStubTokenRepo()
	svc := NewTokenService(tokens, users, ttl, zerolog.Nop())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, users, tokens, &now
}

func TestTokenService_IssueStoresHashOnly(t *testing.T) {
	svc, users, tokens, _ := newTokenFixture(0)
	user := users.insert(&domain.User{Name: "A", Email: "a@example.com", Role: domain.RoleClient})

	plaintext, tok, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if len(plaintext) < 40 {
		t.Fatalf("token too short: %d chars", len(plaintext))
	}
	if tok.Hash == plaintext || tok.Hash != HashToken(plaintext) {
		t.Fatal("record must hold the digest, not the plaintext")
	}
	if tok.ExpiresAt != nil {
		t.Fatal("ttl 0 must issue tokens without expiry")
	}
	if tok.Name != domain.DefaultTokenName || tok.UserID != user.ID {
		t.Fatalf("unexpected token record %+v", tok)
	}
	if _, err := tokens.FindByHash(context.Background(), plaintext); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatal("plaintext must not be a lookup key")
	}
}

func TestTokenService_IssueIsUnique(t *testing.T) {
	svc, users, _, _ := newTokenFixture(0)
	user := users.insert(&domain.User{Email: "a@example.com", Role: domain.RoleClient})

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p, _, err := svc.Issue(context.Background(), user)
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		if seen[p] {
			t.Fatal("duplicate token issued")
		}
		seen[p] = true
	}
}

func TestTokenService_Resolve(t *testing.T) {
	svc, users, _, _ := newTokenFixture(0)
	user := users.insert(&domain.User{Email: "a@example.com", Role: domain.RoleAdmin})
	plaintext, _, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	got, tok, err := svc.Resolve(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.ID != user.ID || got.Role != domain.RoleAdmin || tok.UserID != user.ID {
		t.Fatalf("resolved %+v / %+v", got, tok)
	}

	for _, bad := range []string{"", "garbage", plaintext + "x"} {
		if _, _, err := svc.Resolve(context.Background(), bad); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("Resolve(%q) = %v, want ErrUnauthenticated", bad, err)
		}
	}
}

func TestTokenService_ResolveExpired(t *testing.T) {
	svc, users, tokens, now := newTokenFixture(time.Hour)
	user := users.insert(&domain.User{Email: "a@example.com", Role: domain.RoleClient})
	plaintext, _, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	*now = now.Add(59 * time.Minute)
	if _, _, err := svc.Resolve(context.Background(), plaintext); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	*now = now.Add(2 * time.Minute)
	if _, _, err := svc.Resolve(context.Background(), plaintext); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expired token resolved: %v", err)
	}
	if tokens.count() != 0 {
		t.Fatal("expired token record should be removed on resolve")
	}
}

func TestTokenService_ResolveDeletedOwner(t *testing.T) {
	svc, users, _, _ := newTokenFixture(0)
	user := users.insert(&domain.User{Email: "a@example.com", Role: domain.RoleClient})
	plaintext, _, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if err := users.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, _, err := svc.Resolve(context.Background(), plaintext); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("token of deleted user resolved: %v", err)
	}
}

func TestTokenService_RevokeIsIdempotent(t *testing.T) {
	svc, users, _, _ := newTokenFixture(0)
	user := users.insert(&domain.User{Email: "a@example.com", Role: domain.RoleClient})
	_, tok, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.Revoke(context.Background(), tok); err != nil {
			t.Fatalf("Revoke #%d returned error: %v", i+1, err)
		}
	}
	if err := svc.Revoke(context.Background(), nil); err != nil {
		t.Fatalf("Revoke(nil) returned error: %v", err)
	}
}

func TestTokenService_RevokeAllAndSweep(t *testing.T) {
	svc, users, tokens, now := newTokenFixture(time.Hour)
	alice := users.insert(&domain.User{Email: "a@example.com", Role: domain.RoleClient})
	bob := users.insert(&domain.User{Email: "b@example.com", Role: domain.RoleClient})

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Issue(context.Background(), alice); err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
	}
	if _, _, err := svc.Issue(context.Background(), bob); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	n, err := svc.RevokeAllForUser(context.Background(), alice.ID)
	if err != nil || n != 3 {
		t.Fatalf("RevokeAllForUser = (%d, %v), want (3, nil)", n, err)
	}
	if tokens.count() != 1 {
		t.Fatalf("token count = %d, want 1", tokens.count())
	}

	if n, _ := svc.SweepExpired(context.Background()); n != 0 {
		t.Fatalf("sweep removed %d live tokens", n)
	}
	*now = now.Add(2 * time.Hour)
	if n, _ := svc.SweepExpired(context.Background()); n != 1 {
		t.Fatalf("sweep removed %d, want 1", n)
	}
}
