package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/ports"
)

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{db: db, coll: db.Collection(collEvents)}
}

type mongoEvent struct {
	ID         int64     `bson:"_id"`
	Kind       string    `bson:"kind"`
	UserID     int64     `bson:"user_id"`
	Email      string    `bson:"email"`
	ActorID    int64     `bson:"actor_id"`
	RemoteIP   string    `bson:"remote_ip"`
	OccurredAt time.Time `bson:"occurred_at"`
}

// InsertEvent persists an auth event to the audit collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, e *domain.AuthEvent) error {
	id, err := nextSequence(ctx, r.db, collEvents)
	if err != nil {
		return err
	}
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	doc := mongoEvent{
		ID:         id,
		Kind:       string(e.Kind),
		UserID:     e.UserID,
		Email:      e.Email,
		ActorID:    e.ActorID,
		RemoteIP:   e.RemoteIP,
		OccurredAt: occurred.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	e.ID = id
	return nil
}

func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]*domain.AuthEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("recent auth events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoEvent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode auth events: %w", err)
	}

	events := make([]*domain.AuthEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, &domain.AuthEvent{
			ID:         d.ID,
			Kind:       domain.AuthEventKind(d.Kind),
			UserID:     d.UserID,
			Email:      d.Email,
			ActorID:    d.ActorID,
			RemoteIP:   d.RemoteIP,
			OccurredAt: d.OccurredAt.UTC(),
		})
	}
	return events, nil
}
