package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) ports.TokenRepository {
	return &TokenRepository{coll: db.Collection(collTokens)}
}

type mongoToken struct {
	ID        string     `bson:"_id"`
	UserID    int64      `bson:"user_id"`
	Name      string     `bson:"name"`
	Hash      string     `bson:"token_hash"`
	CreatedAt time.Time  `bson:"created_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

func (r *TokenRepository) Create(ctx context.Context, t *domain.AccessToken) error {
	doc := mongoToken{
		ID:        t.ID,
		UserID:    t.UserID,
		Name:      t.Name,
		Hash:      t.Hash,
		CreatedAt: t.CreatedAt.UTC(),
		ExpiresAt: t.ExpiresAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*domain.AccessToken, error) {
	var mt mongoToken
	if err := r.coll.FindOne(ctx, bson.M{"token_hash": hash}).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	t := &domain.AccessToken{
		ID:        mt.ID,
		UserID:    mt.UserID,
		Name:      mt.Name,
		Hash:      mt.Hash,
		CreatedAt: mt.CreatedAt.UTC(),
	}
	if mt.ExpiresAt != nil {
		exp := mt.ExpiresAt.UTC()
		t.ExpiresAt = &exp
	}
	return t, nil
}

func (r *TokenRepository) DeleteByHash(ctx context.Context, hash string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"token_hash": hash}); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *TokenRepository) DeleteByUser(ctx context.Context, userID int64) (int, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("delete user tokens: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return int(res.DeletedCount), nil
}
