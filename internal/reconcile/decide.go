// Package reconcile turns the desired review content into the single
// outward mutation each run performs: create, update in place, or dismiss
// and recreate. The decision is pure; the executor performs it.
package reconcile

import (
	"strings"

	"github.com/critique-dev/critique/internal/anchor"
	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/summary"
)

// Desired is the review content the current run wants on the host.
type Desired struct {
	Decision domain.ReviewDecision
	Counts   domain.SeverityCounts
	Body     string
	Comments []anchor.Comment
}

// Outcome names the mutation chosen by the decision table.
type Outcome int

const (
	// OutcomeCreate posts a new review; no prior review of ours exists.
	OutcomeCreate Outcome = iota
	// OutcomeUpdateInPlace rewrites the existing review's body only.
	OutcomeUpdateInPlace
	// OutcomeDismissAndRecreate dismisses the existing review, then posts a
	// new one. Required whenever inline comments are present or the
	// decision changes, since neither can be applied via update.
	OutcomeDismissAndRecreate
	// OutcomeSkipUpdate leaves the existing review untouched: either the
	// update would replace a marker-bearing body with a marker-less one,
	// silently downgrading richer content, or the existing body's counts
	// block shows the findings have not changed since the last run.
	OutcomeSkipUpdate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreate:
		return "create"
	case OutcomeUpdateInPlace:
		return "update-in-place"
	case OutcomeDismissAndRecreate:
		return "dismiss-and-recreate"
	case OutcomeSkipUpdate:
		return "skip-update"
	default:
		return "unknown"
	}
}

// Decision is the table's output.
type Decision struct {
	Outcome Outcome
	Reason  string
}

// Decide applies the decision table to the existing review (nil when none
// of ours is present) and the desired content.
func Decide(existing *domain.ReviewState, desired Desired) Decision {
	if existing == nil {
		return Decision{OutcomeCreate, "no existing review"}
	}

	if len(desired.Comments) > 0 {
		return Decision{OutcomeDismissAndRecreate, "inline comments cannot be attached to an update"}
	}

	if existing.Decision != desired.Decision {
		return Decision{OutcomeDismissAndRecreate, "review decision changed"}
	}

	if summary.HasMarker(existing.Body) && !summary.HasMarker(desired.Body) {
		return Decision{OutcomeSkipUpdate, "existing body carries a marker the new body lacks"}
	}

	if prev, ok := summary.ParseCounts(existing.Body); ok && prev == desired.Counts {
		return Decision{OutcomeSkipUpdate, "finding counts unchanged since last run"}
	}

	return Decision{OutcomeUpdateInPlace, "same decision, no inline comments"}
}

// FindOwned scans the change request's reviews for the one this tool owns:
// authored by our bot identity, in a dismissible decision state, and
// carrying the body marker. Returns nil when none qualifies.
func FindOwned(reviews []domain.ReviewState, botLogin string) *domain.ReviewState {
	for i := range reviews {
		r := &reviews[i]
		if !ownedBy(r, botLogin) {
			continue
		}
		if !r.Decision.Dismissible() {
			continue
		}
		if !summary.HasMarker(r.Body) {
			continue
		}
		return r
	}
	return nil
}

func ownedBy(r *domain.ReviewState, botLogin string) bool {
	if !r.AuthorIsBot && !strings.HasSuffix(r.AuthorLogin, "[bot]") {
		return false
	}
	return strings.EqualFold(strings.TrimSuffix(r.AuthorLogin, "[bot]"), strings.TrimSuffix(botLogin, "[bot]"))
}
