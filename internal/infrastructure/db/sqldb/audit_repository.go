package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

type auditRow struct {
	ID         int64     `db:"id"`
	Kind       string    `db:"kind"`
	UserID     int64     `db:"user_id"`
	Email      string    `db:"email"`
	ActorID    int64     `db:"actor_id"`
	RemoteIP   string    `db:"remote_ip"`
	OccurredAt time.Time `db:"occurred_at"`
}

type auditRepository struct {
	db *DB
}

func NewAuditRepository(db *DB) ports.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) InsertEvent(ctx context.Context, e *domain.AuthEvent) error {
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	query := r.db.Rebind(`
		INSERT INTO auth_events (kind, user_id, email, actor_id, remote_ip, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		string(e.Kind), e.UserID, e.Email, e.ActorID, e.RemoteIP, dbTime(occurred),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

func (r *auditRepository) Recent(ctx context.Context, limit int) ([]*domain.AuthEvent, error) {
	var rows []auditRow
	query := r.db.Rebind(`
		SELECT id, kind, user_id, email, actor_id, remote_ip, occurred_at
		FROM auth_events ORDER BY id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("recent auth events: %w", err)
	}

	events := make([]*domain.AuthEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, &domain.AuthEvent{
			ID:         row.ID,
			Kind:       domain.AuthEventKind(row.Kind),
			UserID:     row.UserID,
			Email:      row.Email,
			ActorID:    row.ActorID,
			RemoteIP:   row.RemoteIP,
			OccurredAt: row.OccurredAt,
		})
	}
	return events, nil
}
