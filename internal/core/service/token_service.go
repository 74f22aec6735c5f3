package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/photosync/photosync/internal/pkg/metrics"
	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

const tokenBytes = 40

// TokenService issues and resolves opaque bearer tokens. A token is valid
// while its record exists, its optional expiry has not passed and its owner
// still exists.
type TokenService struct {
	tokens ports.TokenRepository
	users  ports.UserRepository
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// NewTokenService returns a TokenService. ttl <= 0 issues tokens without expiry.
func NewTokenService(tokens ports.TokenRepository, users ports.UserRepository, ttl time.Duration, log zerolog.Logger) *TokenService {
	return &TokenService{
		tokens: tokens,
		users:  users,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log,
	}
}

// Issue mints a new token for user. Prior tokens are left untouched.
func (s *TokenService) Issue(ctx context.Context, user *domain.User) (string, *domain.AccessToken, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	plaintext := base64.RawURLEncoding.EncodeToString(raw)

	now := s.now()
	tok := &domain.AccessToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      domain.DefaultTokenName,
		Hash:      HashToken(plaintext),
		CreatedAt: now,
	}
	if s.ttl > 0 {
		exp := now.Add(s.ttl)
		tok.ExpiresAt = &exp
	}

	if err := s.tokens.Create(ctx, tok); err != nil {
		return "", nil, fmt.Errorf("store token: %w", err)
	}
	return plaintext, tok, nil
}

// Resolve maps a presented token back to its owner. Malformed and unknown
// tokens take the same path: hash, then one lookup.
func (s *TokenService) Resolve(ctx context.Context, plaintext string) (*domain.User, *domain.AccessToken, error) {
	tok, err := s.tokens.FindByHash(ctx, HashToken(plaintext))
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, nil, domain.ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("resolve token: %w", err)
	}

	if tok.Expired(s.now()) {
		if err := s.tokens.DeleteByHash(ctx, tok.Hash); err != nil {
			s.log.Warn().Err(err).Str("token_id", tok.ID).Msg("failed to delete expired token")
		} else {
			metrics.TokensRevokedTotal.WithLabelValues("expired").Inc()
		}
		return nil, nil, domain.ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("resolve token owner: %w", err)
	}
	return user, tok, nil
}

// Revoke deletes exactly the given token. Revoking twice is not an error.
func (s *TokenService) Revoke(ctx context.Context, token *domain.AccessToken) error {
	if token == nil {
		return nil
	}
	if err := s.tokens.DeleteByHash(ctx, token.Hash); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeAllForUser deletes every token owned by userID.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID int64) (int, error) {
	n, err := s.tokens.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}
	return n, nil
}

// SweepExpired deletes expired token records.
func (s *TokenService) SweepExpired(ctx context.Context) (int, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired tokens: %w", err)
	}
	if n > 0 {
		metrics.TokensRevokedTotal.WithLabelValues("expired").Add(float64(n))
	}
	return n, nil
}

// HashToken returns the hex SHA-256 digest stored in place of a plaintext token.
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
