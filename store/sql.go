// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/danielhkuo/classpoll/models"
)

// maxTxAttempts bounds the optimistic-retry loop. Contention on a single
// classroom poll is short-lived; running out of attempts surfaces as
// ErrUnavailable, which is safe to retry end to end.
const maxTxAttempts = 8

// SQL stores each poll as one JSON document row with a version counter.
// Transact is an optimistic compare-and-swap on the version, which works
// identically on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).
type SQL struct {
	db  *sql.DB
	hub hub
}

func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) load(ctx context.Context, pollID string) (*models.Poll, int64, error) {
	var raw []byte
	var version int64
	err := s.db.QueryRowContext(ctx, `
		SELECT doc, version FROM poll_doc WHERE id = $1
	`, pollID).Scan(&raw, &version)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	p, err := decodePoll(raw)
	if err != nil {
		return nil, 0, err
	}
	return p, version, nil
}

func (s *SQL) Get(ctx context.Context, pollID string) (*models.Poll, error) {
	p, _, err := s.load(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *SQL) Set(ctx context.Context, pollID string, p *models.Poll) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode poll: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO poll_doc (id, doc, version)
		VALUES ($1, $2, 1)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, version = poll_doc.version + 1
	`, pollID, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.hub.publish(pollID, p)
	return nil
}

func (s *SQL) Patch(ctx context.Context, pollID string, fields map[string]any) error {
	_, err := s.Transact(ctx, pollID, patchTx(fields))
	return err
}

func (s *SQL) Transact(ctx context.Context, pollID string, fn TxFunc) (bool, error) {
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		current, version, err := s.load(ctx, pollID)
		if err != nil {
			return false, err
		}

		next, err := fn(current)
		if err != nil {
			return false, err
		}
		if next == nil {
			return false, nil
		}

		raw, err := json.Marshal(next)
		if err != nil {
			return false, fmt.Errorf("encode poll: %w", err)
		}

		var res sql.Result
		if current == nil {
			// First writer wins; a concurrent create makes this insert a
			// no-op and we re-read.
			res, err = s.db.ExecContext(ctx, `
				INSERT INTO poll_doc (id, doc, version)
				VALUES ($1, $2, 1)
				ON CONFLICT (id) DO NOTHING
			`, pollID, raw)
		} else {
			res, err = s.db.ExecContext(ctx, `
				UPDATE poll_doc SET doc = $1, version = version + 1
				WHERE id = $2 AND version = $3
			`, raw, pollID, version)
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if n == 1 {
			s.hub.publish(pollID, next)
			return true, nil
		}
		// Lost the race; re-read and re-apply fn against fresh state.
	}
	return false, fmt.Errorf("%w: transaction contention on poll %s", ErrUnavailable, pollID)
}

func (s *SQL) Subscribe(pollID string, onChange func(*models.Poll)) func() {
	unsub := s.hub.subscribe(pollID, onChange)
	if p, err := s.Get(context.Background(), pollID); err == nil {
		onChange(p)
	}
	return unsub
}
