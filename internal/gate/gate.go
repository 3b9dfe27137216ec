// Package gate decides whether a pipeline run should happen at all. The
// decision is a pure function of the trigger context, configuration, and
// the persisted run marker; it performs no side effects.
package gate

import (
	"fmt"

	"github.com/critique-dev/critique/internal/domain"
)

// Config holds the per-trigger enable flags and the suppression gates.
type Config struct {
	OnOpen           bool
	OnReadyForReview bool
	OnCommit         bool
	// OnPush is the legacy spelling of OnCommit; either flag satisfies the
	// commit trigger.
	OnPush           bool
	OnReviewRequest  bool
	OnMention        bool
	OnSlashCommand   bool
	OnLabel          bool

	RequiredLabel string
	SkipDrafts    bool
}

// DefaultConfig enables the common lifecycle triggers and review requests.
func DefaultConfig() Config {
	return Config{
		OnOpen:           true,
		OnReadyForReview: true,
		OnCommit:         true,
		OnReviewRequest:  true,
		SkipDrafts:       true,
	}
}

// Decision is the gate's output. SilenceComments is reserved: recognized,
// propagated, and currently never set.
type Decision struct {
	Enabled         bool
	SilenceComments bool
	Reason          string
}

func enabled(reason string) Decision  { return Decision{Enabled: true, Reason: reason} }
func suppress(reason string) Decision { return Decision{Reason: reason} }

// supportedEventKinds are the host event envelopes this tool understands.
var supportedEventKinds = map[string]bool{
	"pull_request":                true,
	"pull_request_target":         true,
	"pull_request_review":         true,
	"pull_request_review_comment": true,
	"issue_comment":               true,
	"push":                        true,
	"label":                       true,
	"workflow_dispatch":           true,
}

// Evaluate applies the gate. marker may be nil when no run has completed
// yet for this change request.
func Evaluate(trigger domain.TriggerContext, cfg Config, marker *domain.RunMarker, currentRevision string) Decision {
	if !supportedEventKinds[trigger.EventKind] {
		return suppress(fmt.Sprintf("unsupported event kind %q", trigger.EventKind))
	}

	if trigger.Type.CommentBased() && !trigger.IsCommentOnPR {
		return suppress("comment is not on a change request")
	}

	if !triggerEnabled(trigger.Type, cfg) {
		return suppress(fmt.Sprintf("trigger %q not enabled", trigger.Type))
	}

	// A review request is an explicit appeal: it bypasses deduplication
	// even on an already-analyzed revision.
	if trigger.Type != domain.TriggerReviewRequest &&
		marker != nil && marker.RevisionID == currentRevision {
		return suppress(fmt.Sprintf("revision %s already analyzed", currentRevision))
	}

	if cfg.RequiredLabel != "" && !trigger.HasLabel(cfg.RequiredLabel) {
		return suppress(fmt.Sprintf("required label %q missing", cfg.RequiredLabel))
	}

	if cfg.SkipDrafts && trigger.IsDraft {
		return suppress("change request is a draft")
	}

	return enabled(fmt.Sprintf("trigger %q enabled", trigger.Type))
}

// triggerEnabled dispatches a trigger type to its flag. Unknown types
// suppress the run rather than guessing.
func triggerEnabled(t domain.TriggerType, cfg Config) bool {
	switch t {
	case domain.TriggerOpen:
		return cfg.OnOpen
	case domain.TriggerReadyForReview:
		return cfg.OnReadyForReview
	case domain.TriggerCommit:
		return cfg.OnCommit || cfg.OnPush
	case domain.TriggerReviewRequest:
		return cfg.OnReviewRequest
	case domain.TriggerMention:
		return cfg.OnMention
	case domain.TriggerSlashCommand:
		return cfg.OnSlashCommand
	case domain.TriggerLabel:
		return cfg.OnLabel
	default:
		return false
	}
}
