package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/photosync/photosync/internal/core/domain"
)

// newTestDB connects to PHOTOSYNC_TEST_MONGO_URI and hands out a throwaway database.
func newTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("PHOTOSYNC_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("PHOTOSYNC_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, db, err := Connect(ctx, Config{
		URI:      uri,
		Database: fmt.Sprintf("photosync_test_%d", time.Now().UnixNano()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	require.NoError(t, EnsureIndexes(ctx, db))
	return db
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	ctx := context.Background()
	now := time.Now()

	a, err := users.Create(ctx, &domain.User{Name: "A", Email: "a@example.com", PasswordHash: "h", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	b, err := users.Create(ctx, &domain.User{Name: "B", Email: "b@example.com", PasswordHash: "h", Role: domain.RoleClient, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)

	_, err = users.Create(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleClient})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	got, err := users.FindByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	list, err := users.ListExcept(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	require.NoError(t, tokens.Create(ctx, &domain.AccessToken{ID: "t1", UserID: b.ID, Name: "auth_token", Hash: "hb", CreatedAt: now}))
	require.NoError(t, users.Delete(ctx, b.ID))
	_, err = tokens.FindByHash(ctx, "hb")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	assert.ErrorIs(t, users.Delete(ctx, b.ID), domain.ErrUserNotFound)
}

func TestTokenRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	require.NoError(t, repo.Create(ctx, &domain.AccessToken{ID: "old", UserID: 1, Name: "auth_token", Hash: "h-old", CreatedAt: now, ExpiresAt: &past}))
	require.NoError(t, repo.Create(ctx, &domain.AccessToken{ID: "new", UserID: 1, Name: "auth_token", Hash: "h-new", CreatedAt: now}))

	got, err := repo.FindByHash(ctx, "h-new")
	require.NoError(t, err)
	assert.Nil(t, got.ExpiresAt)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 1)
	_, err = repo.FindByHash(ctx, "h-old")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	require.NoError(t, repo.DeleteByHash(ctx, "h-new"))
	require.NoError(t, repo.DeleteByHash(ctx, "h-new"))
}

func TestCategoryAndAuditRepositories(t *testing.T) {
	db := newTestDB(t)
	cats := NewCategoryRepository(db)
	audit := NewAuditRepository(db)
	ctx := context.Background()
	now := time.Now()

	c, err := cats.Create(ctx, &domain.Category{Name: "Weddings", Slug: "weddings", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	_, err = cats.Create(ctx, &domain.Category{Name: "Other", Slug: "weddings", CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, domain.ErrCategoryExists)
	require.NoError(t, cats.Delete(ctx, c.ID))
	assert.ErrorIs(t, cats.Delete(ctx, c.ID), domain.ErrCategoryNotFound)

	for _, k := range []domain.AuthEventKind{domain.EventRegistered, domain.EventLogout} {
		require.NoError(t, audit.InsertEvent(ctx, &domain.AuthEvent{Kind: k, Email: "a@example.com", OccurredAt: now}))
	}
	events, err := audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventLogout, events[0].Kind)
}
