// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sync"

	"github.com/danielhkuo/classpoll/models"
)

// Memory is the in-process PollStore: a map of documents with one mutex
// per poll id, so transactions serialize per poll without cross-poll
// locking. Default backend and the canonical test double.
type Memory struct {
	mu    sync.Mutex
	polls map[string]*models.Poll
	locks map[string]*sync.Mutex
	hub   hub
}

func NewMemory() *Memory {
	return &Memory{
		polls: map[string]*models.Poll{},
		locks: map[string]*sync.Mutex{},
	}
}

func (m *Memory) lockFor(pollID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[pollID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[pollID] = l
	}
	return l
}

func (m *Memory) read(pollID string) *models.Poll {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls[pollID].Clone()
}

func (m *Memory) write(pollID string, p *models.Poll) {
	m.mu.Lock()
	m.polls[pollID] = p.Clone()
	m.mu.Unlock()
	m.hub.publish(pollID, p)
}

func (m *Memory) Get(_ context.Context, pollID string) (*models.Poll, error) {
	p := m.read(pollID)
	if p == nil {
		return nil, ErrNotFound
	}
	return models.Normalize(p), nil
}

func (m *Memory) Set(_ context.Context, pollID string, p *models.Poll) error {
	l := m.lockFor(pollID)
	l.Lock()
	defer l.Unlock()
	m.write(pollID, p)
	return nil
}

func (m *Memory) Patch(ctx context.Context, pollID string, fields map[string]any) error {
	_, err := m.Transact(ctx, pollID, patchTx(fields))
	return err
}

func (m *Memory) Transact(_ context.Context, pollID string, fn TxFunc) (bool, error) {
	l := m.lockFor(pollID)
	l.Lock()
	defer l.Unlock()

	current := m.read(pollID)
	if current != nil {
		current = models.Normalize(current)
	}
	next, err := fn(current)
	if err != nil {
		return false, err
	}
	if next == nil {
		return false, nil
	}
	m.write(pollID, next)
	return true, nil
}

func (m *Memory) Subscribe(pollID string, onChange func(*models.Poll)) func() {
	unsub := m.hub.subscribe(pollID, onChange)
	if p := m.read(pollID); p != nil {
		onChange(models.Normalize(p))
	}
	return unsub
}
