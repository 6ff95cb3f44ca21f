package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionEvent is one orchestration step outcome, kept in the session_events
// collection and fanned out to websocket subscribers.
type SessionEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"session_id"`
	Step      string             `bson:"step" json:"step"`       // create|parse_resume|generate_questions|submit_answer|generate_report
	Outcome   string             `bson:"outcome" json:"outcome"` // ok|degraded|noop|failed
	Policy    string             `bson:"policy" json:"policy"`   // fatal|degrade
	Degraded  bool               `bson:"degraded" json:"degraded"`
	Status    SessionStatus      `bson:"status,omitempty" json:"status,omitempty"`
	Detail    string             `bson:"detail,omitempty" json:"detail,omitempty"`
	LatencyMS int64              `bson:"latency_ms" json:"latency_ms"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	ExpiresAt time.Time `bson:"expires_at" json:"-"` // for TTL index
}
