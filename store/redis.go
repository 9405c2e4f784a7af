// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/classpoll/models"
)

// Redis stores each poll as one JSON document per key. Transact uses
// WATCH/MULTI/EXEC: the watched key aborts the EXEC if any writer
// touches it between read and write, and the loop re-runs fn against
// fresh state: the same optimistic-retry contract as the SQL backend.
type Redis struct {
	client *redis.Client
	hub    hub
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func pollKey(pollID string) string {
	return "poll:" + pollID
}

func (r *Redis) Get(ctx context.Context, pollID string) (*models.Poll, error) {
	raw, err := r.client.Get(ctx, pollKey(pollID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decodePoll(raw)
}

func (r *Redis) Set(ctx context.Context, pollID string, p *models.Poll) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode poll: %w", err)
	}
	if err := r.client.Set(ctx, pollKey(pollID), raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	r.hub.publish(pollID, p)
	return nil
}

func (r *Redis) Patch(ctx context.Context, pollID string, fields map[string]any) error {
	_, err := r.Transact(ctx, pollID, patchTx(fields))
	return err
}

func (r *Redis) Transact(ctx context.Context, pollID string, fn TxFunc) (bool, error) {
	key := pollKey(pollID)
	var committed *models.Poll

	txn := func(tx *redis.Tx) error {
		committed = nil
		var current *models.Poll
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		default:
			if current, err = decodePoll(raw); err != nil {
				return err
			}
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode poll: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		committed = next
		return nil
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := r.client.Watch(ctx, txn, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return false, err
		}
		if committed != nil {
			r.hub.publish(pollID, committed)
			return true, nil
		}
		return false, nil
	}
	return false, fmt.Errorf("%w: transaction contention on poll %s", ErrUnavailable, pollID)
}

func (r *Redis) Subscribe(pollID string, onChange func(*models.Poll)) func() {
	unsub := r.hub.subscribe(pollID, onChange)
	if p, err := r.Get(context.Background(), pollID); err == nil {
		onChange(p)
	}
	return unsub
}
