package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

// TokenStore keeps access tokens in Redis.
// Key format: token:<sha256 hex>, with user_tokens:<user id> indexing each
// user's hashes. Tokens with an expiry get a matching key TTL.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore creates a TokenStore wrapping the given Redis client.
func NewTokenStore(client *redis.Client) ports.TokenRepository {
	return &TokenStore{client: client}
}

type storedToken struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s *TokenStore) Create(ctx context.Context, t *domain.AccessToken) error {
	payload, err := json.Marshal(storedToken{
		ID:        t.ID,
		UserID:    t.UserID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt.UTC(),
		ExpiresAt: t.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	var ttl time.Duration
	if t.ExpiresAt != nil {
		ttl = time.Until(*t.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, tokenKey(t.Hash), payload, ttl)
		p.SAdd(ctx, userKey(t.UserID), t.Hash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (s *TokenStore) FindByHash(ctx context.Context, hash string) (*domain.AccessToken, error) {
	raw, err := s.client.Get(ctx, tokenKey(hash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	var st storedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &domain.AccessToken{
		ID:        st.ID,
		UserID:    st.UserID,
		Name:      st.Name,
		Hash:      hash,
		CreatedAt: st.CreatedAt,
		ExpiresAt: st.ExpiresAt,
	}, nil
}

func (s *TokenStore) DeleteByHash(ctx context.Context, hash string) error {
	tok, err := s.FindByHash(ctx, hash)
	if errors.Is(err, domain.ErrTokenNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, tokenKey(hash))
		p.SRem(ctx, userKey(tok.UserID), hash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (s *TokenStore) DeleteByUser(ctx context.Context, userID int64) (int, error) {
	hashes, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list user tokens: %w", err)
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, tokenKey(h))
	}
	var removed int64
	if len(keys) > 0 {
		removed, err = s.client.Del(ctx, keys...).Result()
		if err != nil {
			return 0, fmt.Errorf("delete user tokens: %w", err)
		}
	}
	if err := s.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return 0, fmt.Errorf("delete user token index: %w", err)
	}
	return int(removed), nil
}

// DeleteExpired prunes index entries whose token key Redis has already
// expired and reports how many were pruned.
func (s *TokenStore) DeleteExpired(ctx context.Context, _ time.Time) (int, error) {
	pruned := 0
	iter := s.client.Scan(ctx, 0, "user_tokens:*", 100).Iterator()
	for iter.Next(ctx) {
		set := iter.Val()
		hashes, err := s.client.SMembers(ctx, set).Result()
		if err != nil {
			return pruned, fmt.Errorf("list %s: %w", set, err)
		}
		for _, h := range hashes {
			n, err := s.client.Exists(ctx, tokenKey(h)).Result()
			if err != nil {
				return pruned, fmt.Errorf("check token: %w", err)
			}
			if n == 0 {
				if err := s.client.SRem(ctx, set, h).Err(); err != nil {
					return pruned, fmt.Errorf("prune token index: %w", err)
				}
				pruned++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("scan token indexes: %w", err)
	}
	return pruned, nil
}

func tokenKey(hash string) string {
	return "token:" + hash
}

func userKey(userID int64) string {
	return "user_tokens:" + strconv.FormatInt(userID, 10)
}
