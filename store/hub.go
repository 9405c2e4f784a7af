// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"sync"

	"github.com/danielhkuo/classpoll/models"
)

// hub fans committed changes out to in-process subscribers, keyed by
// poll id. Callbacks run synchronously on the committing goroutine and
// receive their own clone, so a subscriber can never corrupt another's
// snapshot.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func(*models.Poll)
}

func (h *hub) subscribe(pollID string, fn func(*models.Poll)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = map[string]map[int]func(*models.Poll){}
	}
	if h.subs[pollID] == nil {
		h.subs[pollID] = map[int]func(*models.Poll){}
	}
	id := h.next
	h.next++
	h.subs[pollID][id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[pollID], id)
	}
}

func (h *hub) publish(pollID string, p *models.Poll) {
	h.mu.Lock()
	fns := make([]func(*models.Poll), 0, len(h.subs[pollID]))
	for _, fn := range h.subs[pollID] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(p.Clone())
	}
}
