// Package debounce delays keyed work and lets a newer call supersede an
// older one, cancelling it if it is already running.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned to a caller whose work was replaced by a newer
// call for the same key.
var ErrSuperseded = errors.New("superseded by a newer request")

type pending struct {
	seq        uint64
	cancel     context.CancelFunc
	superseded bool
}

// Debouncer runs at most the latest call per key.
type Debouncer struct {
	delay time.Duration

	mu   sync.Mutex
	seq  uint64
	keys map[string]*pending
}

// New creates a debouncer waiting delay before running work.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, keys: make(map[string]*pending)}
}

// Do waits for the debounce delay and then runs fn, unless another Do for
// the same key arrives first. The context handed to fn is cancelled when a
// newer call supersedes it, in which case Do returns ErrSuperseded.
func (d *Debouncer) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	d.seq++
	mine := &pending{seq: d.seq, cancel: cancel}
	if prev, ok := d.keys[key]; ok {
		prev.superseded = true
		prev.cancel()
	}
	d.keys[key] = mine
	d.mu.Unlock()
	defer d.release(key, mine)

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		if d.superseded(mine) {
			return ErrSuperseded
		}
		return ctx.Err()
	case <-timer.C:
	}

	err := fn(ctx)
	if ctx.Err() != nil && d.superseded(mine) {
		return ErrSuperseded
	}
	return err
}

func (d *Debouncer) superseded(mine *pending) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return mine.superseded
}

func (d *Debouncer) release(key string, mine *pending) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if current, ok := d.keys[key]; ok && current.seq == mine.seq {
		delete(d.keys, key)
	}
}
