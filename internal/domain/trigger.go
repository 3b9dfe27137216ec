package domain

// TriggerType names what caused this invocation.
type TriggerType string

const (
	TriggerOpen           TriggerType = "open"
	TriggerReadyForReview TriggerType = "ready_for_review"
	TriggerCommit         TriggerType = "commit"
	TriggerReviewRequest  TriggerType = "review_request"
	TriggerMention        TriggerType = "mention"
	TriggerSlashCommand   TriggerType = "slash_command"
	TriggerLabel          TriggerType = "label"
)

// CommentBased reports whether the trigger originates from a comment, in
// which case the comment's parent must be a change request.
func (t TriggerType) CommentBased() bool {
	return t == TriggerMention || t == TriggerSlashCommand
}

// TriggerContext carries the per-invocation facts the run gate decides on.
type TriggerContext struct {
	Type          TriggerType
	EventKind     string
	IsDraft       bool
	Labels        []string
	IsCommentOnPR bool
}

// HasLabel reports whether the change request carries the given label.
func (t TriggerContext) HasLabel(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// RunMarker records the most recently fully-analyzed changeset revision.
// Written only after a successful run; an aborted run leaves it untouched
// so the next trigger retries.
type RunMarker struct {
	RevisionID string
}
