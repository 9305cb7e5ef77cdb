package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/books_valuation/config"
)

// ErrLockNotObtained means another request holds the same lock.
var ErrLockNotObtained = errors.New("could not obtain lock, another request is in progress")

const lockTTL = 30 * time.Second

// LockKey builds "lock:<lockType>:<businessId>:<id>".
func LockKey(lockType string, businessId string, id int) string {
	return fmt.Sprintf("lock:%s:%s:%d", lockType, businessId, id)
}

// WithBusinessLock runs fn while holding the redis lock on key.
// When redis is not configured fn runs without a lock.
func WithBusinessLock(ctx context.Context, key string, moduleName string, functionName string, fn func(ctx context.Context) error) error {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		config.LogWarning(logger, moduleName, functionName, "redis lock not initialized, running unlocked", key)
		return fn(ctx)
	}

	lock, err := locker.Obtain(ctx, key, lockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock", key, err)
		return ErrLockNotObtained
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock", key, err)
		return err
	}
	defer func() {
		// the request context may already be cancelled here
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			config.LogWarning(logger, moduleName, functionName, "failed to release lock: "+releaseErr.Error(), key)
		}
	}()

	return fn(ctx)
}
