// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"sync"

	"github.com/danielhkuo/classpoll/models"
)

// WatchState tracks a subscription-mirrored snapshot.
type WatchState int

const (
	WatchUninitialized WatchState = iota
	WatchSubscribed
	WatchDetached
)

// Watch mirrors the authoritative poll state from a store subscription.
// Applying an incoming snapshot is the only transition that updates the
// local read-state, so readers never diverge from the store between
// transactions. Snapshots are for display only; mutations always re-read
// inside their own transaction.
type Watch struct {
	mu       sync.Mutex
	state    WatchState
	snapshot *models.Poll
	updates  chan *models.Poll
	unsub    func()
}

// Watch attaches a subscription for the poll. buffer bounds the update
// channel; when a reader lags, intermediate snapshots are dropped in
// favor of newer ones.
func (c *Controller) Watch(pollID string, buffer int) *Watch {
	if buffer < 1 {
		buffer = 1
	}
	w := &Watch{updates: make(chan *models.Poll, buffer)}
	w.unsub = c.store.Subscribe(pollID, w.apply)
	return w
}

func (w *Watch) apply(p *models.Poll) {
	w.mu.Lock()
	if w.state == WatchDetached {
		w.mu.Unlock()
		return
	}
	w.state = WatchSubscribed
	w.snapshot = p
	w.mu.Unlock()

	for {
		select {
		case w.updates <- p:
			return
		default:
			// Full: evict the oldest queued snapshot and retry.
			select {
			case <-w.updates:
			default:
			}
		}
	}
}

func (w *Watch) State() WatchState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot returns the latest applied poll state, or nil before the
// first snapshot arrives.
func (w *Watch) Snapshot() *models.Poll {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot
}

// Updates streams applied snapshots in order of arrival.
func (w *Watch) Updates() <-chan *models.Poll {
	return w.updates
}

// Detach tears down the subscription. Idempotent.
func (w *Watch) Detach() {
	w.mu.Lock()
	already := w.state == WatchDetached
	w.state = WatchDetached
	w.mu.Unlock()
	if !already && w.unsub != nil {
		w.unsub()
	}
}
