// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"time"

	"github.com/danielhkuo/classpoll/models"
)

// IsClosed reports whether the poll accepts no further ballots: an
// explicit admin close, or the auto-close threshold being reached.
// Clearing ManualClosed does not undo a still-met threshold; reopening a
// full poll requires raising ExpectedVoters.
func IsClosed(p *models.Poll) bool {
	if p.ManualClosed {
		return true
	}
	return p.ExpectedVoters > 0 && len(p.Ballots) >= p.ExpectedVoters
}

// baseVisible is the audience-independent visibility decision.
func baseVisible(p *models.Poll, now time.Time) bool {
	switch p.VisibilityMode {
	case models.VisibilityAlways:
		return true
	case models.VisibilityHidden:
		return false
	case models.VisibilityDeadline:
		if p.DeadlineAt == nil {
			return false
		}
		return !now.Before(*p.DeadlineAt)
	default:
		return false
	}
}

// ResultsVisible reports whether computed results may be shown to the
// given audience at the given instant. "hidden" hides results from
// students only; the admin console still sees live counts in that mode.
// A pending deadline hides results from both audiences.
func ResultsVisible(p *models.Poll, audience string, now time.Time) bool {
	if audience == models.AudienceAdmin && p.VisibilityMode == models.VisibilityHidden {
		return true
	}
	return baseVisible(p, now)
}
