package cache

import (
	"context"
	"time"
)

// Cleaner is implemented by caches with expiring entries.
type Cleaner interface {
	CleanExpired() int
}

// RunCleanup calls CleanExpired on every cache each interval until ctx is
// done. onClean, when set, receives the number of entries dropped per tick.
func RunCleanup(ctx context.Context, interval time.Duration, onClean func(int), caches ...Cleaner) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			total := 0
			for _, c := range caches {
				total += c.CleanExpired()
			}
			if onClean != nil && total > 0 {
				onClean(total)
			}
		}
	}
}
