// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"testing"
)

func TestWatchLifecycle(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController()

	t.Run("uninitialized before the poll exists", func(t *testing.T) {
		w := ctrl.Watch("not-yet", 4)
		defer w.Detach()
		if w.State() != WatchUninitialized {
			t.Errorf("state = %v, want WatchUninitialized", w.State())
		}
		if w.Snapshot() != nil {
			t.Error("snapshot should be nil before the first update")
		}
	})

	t.Run("subscribed after attach to an existing poll", func(t *testing.T) {
		if _, _, err := ctrl.GetOrCreate(ctx, "room-1"); err != nil {
			t.Fatalf("setup: %v", err)
		}
		w := ctrl.Watch("room-1", 4)
		defer w.Detach()

		if w.State() != WatchSubscribed {
			t.Errorf("state = %v, want WatchSubscribed", w.State())
		}
		if w.Snapshot() == nil || w.Snapshot().ID != "room-1" {
			t.Error("snapshot missing after attach")
		}

		select {
		case p := <-w.Updates():
			if p.ID != "room-1" {
				t.Errorf("update for wrong poll: %q", p.ID)
			}
		default:
			t.Error("attach update not queued")
		}
	})
}

func TestWatchReceivesCommits(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController()
	p, _, _ := ctrl.GetOrCreate(ctx, "room-1")
	optA := p.Options[0].ID

	w := ctrl.Watch("room-1", 4)
	defer w.Detach()
	<-w.Updates() // drain the attach snapshot

	if _, err := ctrl.SubmitBallot(ctx, "room-1", "alice", []string{optA}, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case got := <-w.Updates():
		if len(got.Ballots) != 1 {
			t.Errorf("update missing the committed ballot: %+v", got)
		}
	default:
		t.Fatal("commit produced no update")
	}

	if len(w.Snapshot().Ballots) != 1 {
		t.Error("snapshot not advanced by the commit")
	}
}

// A slow reader keeps the newest snapshots: when the buffer overflows the
// oldest queued update is evicted, never the incoming one.
func TestWatchEvictsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController()
	p, _, _ := ctrl.GetOrCreate(ctx, "room-1")
	optA := p.Options[0].ID

	w := ctrl.Watch("room-1", 2)
	defer w.Detach()

	voters := []string{"a", "b", "c", "d", "e"}
	for _, v := range voters {
		if _, err := ctrl.SubmitBallot(ctx, "room-1", v, []string{optA}, ""); err != nil {
			t.Fatalf("submit %s: %v", v, err)
		}
	}

	// Buffer of 2 holds only the two newest states: 4 and 5 ballots.
	first := <-w.Updates()
	second := <-w.Updates()
	if len(first.Ballots) != 4 || len(second.Ballots) != 5 {
		t.Errorf("kept ballots %d then %d, want 4 then 5", len(first.Ballots), len(second.Ballots))
	}
	if len(w.Snapshot().Ballots) != 5 {
		t.Errorf("snapshot ballots = %d, want 5", len(w.Snapshot().Ballots))
	}
}

func TestWatchDetach(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController()
	p, _, _ := ctrl.GetOrCreate(ctx, "room-1")
	optA := p.Options[0].ID

	w := ctrl.Watch("room-1", 4)
	<-w.Updates()

	w.Detach()
	if w.State() != WatchDetached {
		t.Errorf("state = %v, want WatchDetached", w.State())
	}

	if _, err := ctrl.SubmitBallot(ctx, "room-1", "alice", []string{optA}, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case <-w.Updates():
		t.Error("detached watch still receives updates")
	default:
	}

	w.Detach() // second call is a safe no-op
}

func TestWatchSnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController()
	if _, _, err := ctrl.GetOrCreate(ctx, "room-1"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	w := ctrl.Watch("room-1", 4)
	defer w.Detach()

	fromUpdates := <-w.Updates()
	fromUpdates.Title = "mutated"

	stored, _ := ctrl.Get(ctx, "room-1")
	if stored.Title == "mutated" {
		t.Error("mutating a watch snapshot leaked into the store")
	}
}
