package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

type tokenRow struct {
	ID        string       `db:"id"`
	UserID    int64        `db:"user_id"`
	Name      string       `db:"name"`
	Hash      string       `db:"token_hash"`
	CreatedAt sql.NullTime `db:"created_at"`
	ExpiresAt sql.NullTime `db:"expires_at"`
}

func (r tokenRow) toDomain() *domain.AccessToken {
	t := &domain.AccessToken{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Hash:      r.Hash,
		CreatedAt: r.CreatedAt.Time,
	}
	if r.ExpiresAt.Valid {
		exp := r.ExpiresAt.Time
		t.ExpiresAt = &exp
	}
	return t
}

type tokenRepository struct {
	db *DB
}

func NewTokenRepository(db *DB) ports.TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, t *domain.AccessToken) error {
	var expires sql.NullTime
	if t.ExpiresAt != nil {
		expires = sql.NullTime{Time: dbTime(*t.ExpiresAt), Valid: true}
	}

	query := r.db.Rebind(`
		INSERT INTO access_tokens (id, user_id, name, token_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.UserID, t.Name, t.Hash, dbTime(t.CreatedAt), expires); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *tokenRepository) FindByHash(ctx context.Context, hash string) (*domain.AccessToken, error) {
	var row tokenRow
	query := r.db.Rebind(`
		SELECT id, user_id, name, token_hash, created_at, expires_at
		FROM access_tokens WHERE token_hash = ?`)
	if err := r.db.GetContext(ctx, &row, query, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return row.toDomain(), nil
}

func (r *tokenRepository) DeleteByHash(ctx context.Context, hash string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM access_tokens WHERE token_hash = ?`), hash); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *tokenRepository) DeleteByUser(ctx context.Context, userID int64) (int, error) {
	return r.deleteWhere(ctx, `DELETE FROM access_tokens WHERE user_id = ?`, userID)
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return r.deleteWhere(ctx, `DELETE FROM access_tokens WHERE expires_at IS NOT NULL AND expires_at <= ?`, dbTime(now))
}

func (r *tokenRepository) deleteWhere(ctx context.Context, query string, arg interface{}) (int, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), arg)
	if err != nil {
		return 0, fmt.Errorf("delete tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete tokens: %w", err)
	}
	return int(n), nil
}
