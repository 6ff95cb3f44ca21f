package mongo

import (
	"context"
	"time"

	"github.com/yoockh/prepwise/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepository interface {
	Insert(ctx context.Context, e *models.SessionEvent) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.SessionEvent, error)
}

type eventRepo struct {
	col *mongo.Collection
	ttl time.Duration
}

// NewEventRepo stores events in session_events. Each document expires ttl
// after its timestamp through the ttl_expires_at index.
func NewEventRepo(db *mongo.Database, ttl time.Duration) EventRepository {
	return &eventRepo{col: db.Collection("session_events"), ttl: ttl}
}

func (r *eventRepo) Insert(ctx context.Context, e *models.SessionEvent) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.ExpiresAt.IsZero() {
		e.ExpiresAt = e.Timestamp.Add(r.ttl)
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *eventRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.SessionEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SessionEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
