// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/danielhkuo/classpoll/models"
)

func newPoll(voteLimit int, labels ...string) *models.Poll {
	options := make([]models.Option, len(labels))
	ids := []string{"A", "B", "C", "D", "E"}
	for i, label := range labels {
		options[i] = models.Option{ID: ids[i], Label: label}
	}
	return models.Normalize(&models.Poll{
		ID:             "poll1",
		Title:          "Test Poll",
		VoteLimit:      voteLimit,
		Options:        options,
		Ballots:        map[string]models.Ballot{},
		VisibilityMode: models.VisibilityAlways,
		LockMode:       models.LockDevice,
	})
}

func votes(t *testing.T, p *models.Poll, optionID string) int {
	t.Helper()
	opt := p.OptionByID(optionID)
	if opt == nil {
		t.Fatalf("option %s not found", optionID)
	}
	return opt.Votes
}

// checkTallyInvariant verifies that every option's count matches the
// ledger, and that the total equals the ballot ids still referencing a
// current option.
func checkTallyInvariant(t *testing.T, p *models.Poll) {
	t.Helper()

	want := map[string]int{}
	ledgerTotal := 0
	for _, b := range p.Ballots {
		for _, id := range b.IDs {
			if p.HasOption(id) {
				want[id]++
				ledgerTotal++
			}
		}
	}
	for _, opt := range p.Options {
		if opt.Votes != want[opt.ID] {
			t.Errorf("option %s: votes=%d, ledger says %d", opt.ID, opt.Votes, want[opt.ID])
		}
	}
	if p.TotalVotes() != ledgerTotal {
		t.Errorf("total votes %d != ledger total %d", p.TotalVotes(), ledgerTotal)
	}
}

func TestSubmitBallot(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		setup     func() *models.Poll
		voterKey  string
		selection []string
		wantErr   error
		wantIDs   []string
	}{
		{
			name:      "single selection accepted",
			setup:     func() *models.Poll { return newPoll(1, "Go", "Rust") },
			voterKey:  "alice",
			selection: []string{"A"},
			wantIDs:   []string{"A"},
		},
		{
			name:      "two selections under limit 2",
			setup:     func() *models.Poll { return newPoll(2, "Go", "Rust", "Zig") },
			voterKey:  "alice",
			selection: []string{"A", "C"},
			wantIDs:   []string{"A", "C"},
		},
		{
			name:      "over-limit selection truncated not rejected",
			setup:     func() *models.Poll { return newPoll(2, "Go", "Rust", "Zig") },
			voterKey:  "alice",
			selection: []string{"A", "B", "C"},
			wantIDs:   []string{"A", "B"},
		},
		{
			name:      "duplicate ids collapse before truncation",
			setup:     func() *models.Poll { return newPoll(2, "Go", "Rust", "Zig") },
			voterKey:  "alice",
			selection: []string{"A", "A", "C"},
			wantIDs:   []string{"A", "C"},
		},
		{
			name:      "unknown option ids dropped",
			setup:     func() *models.Poll { return newPoll(2, "Go", "Rust") },
			voterKey:  "alice",
			selection: []string{"nope", "B"},
			wantIDs:   []string{"B"},
		},
		{
			name:      "only unknown ids rejects as no selection",
			setup:     func() *models.Poll { return newPoll(1, "Go", "Rust") },
			voterKey:  "alice",
			selection: []string{"nope"},
			wantErr:   ErrNoSelection,
		},
		{
			name:      "empty selection rejected",
			setup:     func() *models.Poll { return newPoll(1, "Go", "Rust") },
			voterKey:  "alice",
			selection: []string{},
			wantErr:   ErrNoSelection,
		},
		{
			name:      "blank voter key rejected",
			setup:     func() *models.Poll { return newPoll(1, "Go", "Rust") },
			voterKey:  "   ",
			selection: []string{"A"},
			wantErr:   ErrEmptyVoterKey,
		},
		{
			name: "manually closed poll rejects",
			setup: func() *models.Poll {
				p := newPoll(1, "Go", "Rust")
				p.ManualClosed = true
				return p
			},
			voterKey:  "alice",
			selection: []string{"A"},
			wantErr:   ErrAlreadyClosed,
		},
		{
			name: "duplicate voter key rejected",
			setup: func() *models.Poll {
				p := newPoll(1, "Go", "Rust")
				p, _ = SubmitBallot(p, "alice", []string{"A"}, "", now)
				return p
			},
			voterKey:  "alice",
			selection: []string{"B"},
			wantErr:   ErrDuplicateVote,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.setup()
			after, err := SubmitBallot(before, tt.voterKey, tt.selection, "", now)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if after != before {
					t.Error("rejection should return the input poll unchanged")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			b, ok := after.Ballots[tt.voterKey]
			if !ok {
				t.Fatal("ballot not recorded")
			}
			if !reflect.DeepEqual(b.IDs, tt.wantIDs) {
				t.Errorf("ballot ids = %v, want %v", b.IDs, tt.wantIDs)
			}
			checkTallyInvariant(t, after)
		})
	}
}

func TestSubmitBallotDoesNotMutateInput(t *testing.T) {
	p := newPoll(1, "Go", "Rust")
	_, err := SubmitBallot(p, "alice", []string{"A"}, "", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Ballots) != 0 {
		t.Error("input ledger grew")
	}
	if votes(t, p, "A") != 0 {
		t.Error("input counts changed")
	}
}

func TestSubmitBallotNameHandling(t *testing.T) {
	now := time.Now()

	t.Run("name recorded on non-anonymous poll", func(t *testing.T) {
		p := newPoll(1, "Go", "Rust")
		after, err := SubmitBallot(p, "alice", []string{"A"}, "Alice", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b := after.Ballots["alice"]
		if b.Name == nil || *b.Name != "Alice" {
			t.Errorf("expected name Alice, got %v", b.Name)
		}
	})

	t.Run("name dropped on anonymous poll", func(t *testing.T) {
		p := newPoll(1, "Go", "Rust")
		p.Anonymous = true
		after, err := SubmitBallot(p, "device-1", []string{"A"}, "Alice", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if after.Ballots["device-1"].Name != nil {
			t.Error("anonymous ballot should carry no name")
		}
	})
}

// Scenario: expected_voters=2 auto-closes after the second ballot and
// the third voter is rejected with state unchanged.
func TestAutoCloseScenario(t *testing.T) {
	now := time.Now()
	p := newPoll(1, "Go", "Rust")
	p.ExpectedVoters = 2

	p, err := SubmitBallot(p, "alice", []string{"A"}, "", now)
	if err != nil {
		t.Fatalf("alice: %v", err)
	}
	if votes(t, p, "A") != 1 || len(p.Ballots) != 1 {
		t.Fatalf("after alice: A=%d ballots=%d", votes(t, p, "A"), len(p.Ballots))
	}

	p, err = SubmitBallot(p, "bob", []string{"B"}, "", now)
	if err != nil {
		t.Fatalf("bob: %v", err)
	}
	if votes(t, p, "B") != 1 || len(p.Ballots) != 2 {
		t.Fatalf("after bob: B=%d ballots=%d", votes(t, p, "B"), len(p.Ballots))
	}

	after, err := SubmitBallot(p, "carol", []string{"A"}, "", now)
	if !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("carol: expected ErrAlreadyClosed, got %v", err)
	}
	if after != p {
		t.Error("rejected submission changed state")
	}
}

func TestRemoveBallot(t *testing.T) {
	now := time.Now()
	p := newPoll(2, "Go", "Rust", "Zig")
	p, _ = SubmitBallot(p, "alice", []string{"A", "C"}, "", now)
	p, _ = SubmitBallot(p, "bob", []string{"B"}, "", now)

	t.Run("removes ballot and decrements", func(t *testing.T) {
		after := RemoveBallot(p, "alice", now)
		if _, ok := after.Ballots["alice"]; ok {
			t.Error("ballot still present")
		}
		if votes(t, after, "A") != 0 || votes(t, after, "C") != 0 {
			t.Error("counts not decremented")
		}
		if votes(t, after, "B") != 1 {
			t.Error("unrelated count changed")
		}
		checkTallyInvariant(t, after)
	})

	t.Run("absent key is a no-op", func(t *testing.T) {
		after := RemoveBallot(p, "nobody", now)
		if after != p {
			t.Error("no-op removal should return the input poll")
		}
	})

	t.Run("counts floor at zero", func(t *testing.T) {
		corrupt := p.Clone()
		corrupt.OptionByID("A").Votes = 0 // simulate drift
		after := RemoveBallot(corrupt, "alice", now)
		if votes(t, after, "A") != 0 {
			t.Errorf("count went negative: %d", votes(t, after, "A"))
		}
	})
}

func TestAddOption(t *testing.T) {
	now := time.Now()
	p := newPoll(1, "Go", "Rust")

	t.Run("appends with label", func(t *testing.T) {
		after := AddOption(p, "X", "Zig", now)
		if len(after.Options) != 3 {
			t.Fatalf("expected 3 options, got %d", len(after.Options))
		}
		last := after.Options[2]
		if last.ID != "X" || last.Label != "Zig" || last.Votes != 0 {
			t.Errorf("unexpected option: %+v", last)
		}
	})

	t.Run("empty label defaults to positional placeholder", func(t *testing.T) {
		after := AddOption(p, "X", "", now)
		if after.Options[2].Label != "Option 3" {
			t.Errorf("expected Option 3, got %q", after.Options[2].Label)
		}
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		after := AddOption(AddOption(p, "X", "x", now), "Y", "y", now)
		gotIDs := []string{}
		for _, opt := range after.Options {
			gotIDs = append(gotIDs, opt.ID)
		}
		if !reflect.DeepEqual(gotIDs, []string{"A", "B", "X", "Y"}) {
			t.Errorf("order = %v", gotIDs)
		}
	})
}

// Scenario: removing option C purges it from alice's ballot and leaves
// counts consistent with the remaining ids.
func TestRemoveOptionScenario(t *testing.T) {
	now := time.Now()
	p := newPoll(2, "Go", "Rust", "Zig")
	p, _ = SubmitBallot(p, "alice", []string{"A", "C"}, "", now)
	p, _ = SubmitBallot(p, "bob", []string{"B"}, "", now)

	after := RemoveOption(p, "C", now)

	if after.HasOption("C") {
		t.Error("option C still present")
	}
	for key, b := range after.Ballots {
		for _, id := range b.IDs {
			if id == "C" {
				t.Errorf("ballot %s still references removed option", key)
			}
		}
	}
	if !reflect.DeepEqual(after.Ballots["alice"].IDs, []string{"A"}) {
		t.Errorf("alice's ballot = %v, want [A]", after.Ballots["alice"].IDs)
	}
	if votes(t, after, "A") != 1 || votes(t, after, "B") != 1 {
		t.Errorf("counts A=%d B=%d, want 1 1", votes(t, after, "A"), votes(t, after, "B"))
	}
	checkTallyInvariant(t, after)

	// Recount of the result must be a no-op.
	again := Recount(after)
	if !reflect.DeepEqual(again.Options, after.Options) {
		t.Error("recount after removal changed counts")
	}

	t.Run("unknown option id is a no-op", func(t *testing.T) {
		if RemoveOption(p, "nope", now) != p {
			t.Error("expected input poll back")
		}
	})
}

func TestRecount(t *testing.T) {
	now := time.Now()
	p := newPoll(2, "Go", "Rust", "Zig")
	p, _ = SubmitBallot(p, "alice", []string{"A", "B"}, "", now)
	p, _ = SubmitBallot(p, "bob", []string{"B"}, "", now)

	t.Run("repairs drifted counts", func(t *testing.T) {
		corrupt := p.Clone()
		corrupt.OptionByID("A").Votes = 7
		corrupt.OptionByID("C").Votes = 3

		fixed := Recount(corrupt)
		if votes(t, fixed, "A") != 1 || votes(t, fixed, "B") != 2 || votes(t, fixed, "C") != 0 {
			t.Errorf("counts A=%d B=%d C=%d", votes(t, fixed, "A"), votes(t, fixed, "B"), votes(t, fixed, "C"))
		}
		checkTallyInvariant(t, fixed)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := Recount(p)
		twice := Recount(once)
		if !reflect.DeepEqual(once.Options, twice.Options) {
			t.Error("recount(recount(p)) != recount(p)")
		}
	})

	t.Run("stale ballot ids do not count", func(t *testing.T) {
		stale := p.Clone()
		stale.Ballots["ghost"] = models.Ballot{IDs: []string{"gone"}, At: now}
		fixed := Recount(stale)
		if fixed.TotalVotes() != 3 {
			t.Errorf("total = %d, want 3", fixed.TotalVotes())
		}
	})
}

func TestResetToDefaults(t *testing.T) {
	now := time.Now()
	p := newPoll(2, "Go", "Rust", "Zig")
	p.Title = "Favorite language"
	p.ExpectedVoters = 10
	p.ManualClosed = true
	for i := 0; i < 5; i++ {
		p, _ = SubmitBallot(p, string(rune('a'+i)), []string{"A"}, "", now)
	}

	fresh := ResetToDefaults(p, [2]string{"n1", "n2"}, now)

	if fresh.ID != p.ID {
		t.Error("poll id must be preserved")
	}
	if fresh.Title != models.DefaultTitle {
		t.Errorf("title = %q", fresh.Title)
	}
	if len(fresh.Options) != 2 || fresh.Options[0].Votes != 0 || fresh.Options[1].Votes != 0 {
		t.Errorf("options = %+v", fresh.Options)
	}
	if len(fresh.Ballots) != 0 {
		t.Error("ledger not emptied")
	}
	if fresh.ManualClosed || fresh.ExpectedVoters != 0 {
		t.Error("closing configuration not reset")
	}
}

// Property: the tally invariant holds after every step of a mixed
// operation sequence.
func TestTallyConsistencyAcrossSequence(t *testing.T) {
	now := time.Now()
	p := newPoll(2, "Go", "Rust", "Zig", "C", "D")

	step := func(name string, next *models.Poll) *models.Poll {
		t.Helper()
		checkTallyInvariant(t, next)
		return next
	}

	var err error
	for i := 0; i < 8; i++ {
		p, err = SubmitBallot(p, string(rune('a'+i)), []string{"A", "C"}, "", now)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		p = step("submit", p)
	}
	p = step("remove ballot", RemoveBallot(p, "c", now))
	p = step("remove option", RemoveOption(p, "A", now))
	p = step("add option", AddOption(p, "X", "late entry", now))
	p, err = SubmitBallot(p, "newcomer", []string{"X", "C"}, "", now)
	if err != nil {
		t.Fatalf("newcomer: %v", err)
	}
	p = step("submit after add", p)
	p = step("recount", Recount(p))
	p = step("remove another option", RemoveOption(p, "C", now))
}
