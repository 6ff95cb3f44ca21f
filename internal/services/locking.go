package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/prepwise/internal/cache"
	"github.com/yoockh/prepwise/internal/utils"
)

// acquire takes the per-session generation lock. When the lock store is
// unavailable the step proceeds, since the session status update remains
// the guard against duplicate rows.
func acquire(ctx context.Context, locker cache.Locker, ttl time.Duration, log *logrus.Entry, op, sessionID, step string) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	release, ok, err := locker.Acquire(ctx, cache.LockKey(sessionID, step), ttl)
	if err != nil {
		log.WithError(err).Warn("generation lock unavailable")
		return func() {}, nil
	}
	if !ok {
		return nil, utils.E(utils.CodeConflict, op, "Generation already in progress", utils.ErrConflict)
	}
	return release, nil
}
