package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner is a long-lived loop such as the selection event bridge.
type Runner interface {
	Run(ctx context.Context, ready chan<- struct{}) error
}

// Purger deletes expired session state.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StartSelectionBridge keeps runner alive until ctx is cancelled, waiting
// retry between attempts. The returned channel is closed once the first
// subscription is confirmed.
func StartSelectionBridge(ctx context.Context, runner Runner, retry time.Duration, logger *zap.Logger) <-chan struct{} {
	ready := make(chan struct{})
	if runner == nil {
		close(ready)
		return ready
	}
	if retry <= 0 {
		retry = time.Second
	}

	var once sync.Once
	go func() {
		for {
			attempt := make(chan struct{})
			done := make(chan struct{})
			go func() {
				select {
				case <-attempt:
					once.Do(func() { close(ready) })
				case <-done:
				}
			}()

			err := runner.Run(ctx, attempt)
			close(done)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				logger.Warn("selection bridge stopped; retrying", zap.Error(err), zap.Duration("retry_in", retry))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(retry):
			}
		}
	}()
	return ready
}

// StartSessionPurge deletes expired session rows every interval until ctx
// is cancelled.
func StartSessionPurge(ctx context.Context, purger Purger, interval time.Duration, logger *zap.Logger) {
	if purger == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := purger.PurgeExpired(ctx)
				if err != nil {
					logger.Warn("session purge failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Debug("expired sessions purged", zap.Int64("rows", n))
				}
			}
		}
	}()
}
