package reconcile

import (
	"context"
	"fmt"

	"github.com/critique-dev/critique/internal/adapter/httpkit"
	"github.com/critique-dev/critique/internal/anchor"
	"github.com/critique-dev/critique/internal/domain"
)

// Host is the slice of the hosting platform the reconciler needs. The
// GitHub adapter satisfies it.
type Host interface {
	ListReviews(ctx context.Context) ([]domain.ReviewState, error)
	CreateReview(ctx context.Context, decision domain.ReviewDecision, body string, comments []anchor.Comment) (reviewID int64, err error)
	UpdateReviewBody(ctx context.Context, reviewID int64, body string) error
	DismissReview(ctx context.Context, reviewID int64, message string) error
	// CreateComment posts one standalone inline comment; the per-comment
	// fallback path when batch creation is rejected.
	CreateComment(ctx context.Context, comment anchor.Comment) (commentID int64, err error)
	ListReviewCommentIDs(ctx context.Context, reviewID int64) ([]int64, error)
	AddReaction(ctx context.Context, commentID int64, content string) error
	BotLogin() string
}

// dismissMessage is posted when an outdated review is replaced.
const dismissMessage = "Superseded by a newer automated review."

// acknowledgmentReactions are added to each new inline comment so reviewers
// can vote a finding up or down.
var acknowledgmentReactions = []string{"+1", "-1"}

// Executor performs the decided mutation against the host.
type Executor struct {
	host   Host
	logger httpkit.Logger
}

func NewExecutor(host Host, logger httpkit.Logger) *Executor {
	return &Executor{host: host, logger: logger}
}

// Reconcile looks up the existing review, decides, and performs exactly one
// mutation. A ListReviews failure aborts: without knowing the current state
// no mutation is safe.
func (e *Executor) Reconcile(ctx context.Context, desired Desired) (Decision, error) {
	reviews, err := e.host.ListReviews(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("listing reviews: %w", err)
	}

	existing := FindOwned(reviews, e.host.BotLogin())
	decision := Decide(existing, desired)

	e.logger.LogInfo(ctx, "review reconciliation decided", map[string]interface{}{
		"outcome": decision.Outcome.String(),
		"reason":  decision.Reason,
	})

	switch decision.Outcome {
	case OutcomeSkipUpdate:
		return decision, nil

	case OutcomeUpdateInPlace:
		if err := e.host.UpdateReviewBody(ctx, existing.ID, desired.Body); err != nil {
			return decision, fmt.Errorf("updating review %d: %w", existing.ID, err)
		}
		return decision, nil

	case OutcomeDismissAndRecreate:
		// Dismissal must complete before the create so the host never shows
		// two live reviews from this identity. A failed dismissal has not
		// completed, so the create is aborted.
		if err := e.host.DismissReview(ctx, existing.ID, dismissMessage); err != nil {
			return decision, fmt.Errorf("dismissing review %d: %w", existing.ID, err)
		}
		return decision, e.create(ctx, desired)

	default:
		return decision, e.create(ctx, desired)
	}
}

// create posts the review, falling back to per-comment posting when the
// batch is rejected (a locally valid anchor can still fail host-side
// validation).
func (e *Executor) create(ctx context.Context, desired Desired) error {
	reviewID, err := e.host.CreateReview(ctx, desired.Decision, desired.Body, desired.Comments)
	if err == nil {
		e.addReactions(ctx, reviewID)
		return nil
	}

	if len(desired.Comments) == 0 {
		return fmt.Errorf("creating review: %w", err)
	}

	e.logger.LogWarning(ctx, "batch review creation failed, posting comments individually", map[string]interface{}{
		"comments": len(desired.Comments),
		"error":    err.Error(),
	})

	reviewID, err = e.host.CreateReview(ctx, desired.Decision, desired.Body, nil)
	if err != nil {
		return fmt.Errorf("creating review without comments: %w", err)
	}

	for _, comment := range desired.Comments {
		commentID, err := e.host.CreateComment(ctx, comment)
		if err != nil {
			e.logger.LogWarning(ctx, "inline comment rejected, skipping", map[string]interface{}{
				"path":  comment.Path,
				"line":  comment.Line,
				"error": err.Error(),
			})
			continue
		}
		e.react(ctx, commentID)
	}

	return nil
}

// addReactions best-effort marks every comment of the new review. Failures
// are logged per comment and never abort the run.
func (e *Executor) addReactions(ctx context.Context, reviewID int64) {
	ids, err := e.host.ListReviewCommentIDs(ctx, reviewID)
	if err != nil {
		e.logger.LogWarning(ctx, "listing review comments for reactions failed", map[string]interface{}{
			"review_id": reviewID,
			"error":     err.Error(),
		})
		return
	}
	for _, id := range ids {
		e.react(ctx, id)
	}
}

func (e *Executor) react(ctx context.Context, commentID int64) {
	for _, content := range acknowledgmentReactions {
		if err := e.host.AddReaction(ctx, commentID, content); err != nil {
			e.logger.LogWarning(ctx, "adding reaction failed", map[string]interface{}{
				"comment_id": commentID,
				"reaction":   content,
				"error":      err.Error(),
			})
		}
	}
}
