package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Locker hands out short-lived exclusive locks. ok is false when another
// holder owns the key; release is then nil.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Publisher fans a payload out to live subscribers of a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

func QuestionsKey(sessionID string) string { return "session:" + sessionID + ":questions" }
func ReportKey(sessionID string) string    { return "session:" + sessionID + ":report" }
func LockKey(sessionID, step string) string {
	return "lock:session:" + sessionID + ":" + step
}
func StatusChannel(sessionID string) string { return "session:" + sessionID + ":status" }
