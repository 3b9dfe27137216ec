package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/critique-dev/critique/internal/anchor"
	"github.com/critique-dev/critique/internal/domain"
)

// ListReviews fetches all reviews on the pull request, oldest first.
func (c *Client) ListReviews(ctx context.Context) ([]domain.ReviewState, error) {
	var all []domain.ReviewState
	for page := 1; ; page++ {
		url := c.prPath(fmt.Sprintf("/reviews?per_page=100&page=%d", page))

		var reviews []reviewPayload
		if err := c.do(ctx, "GET", url, nil, &reviews); err != nil {
			return nil, err
		}
		for _, r := range reviews {
			all = append(all, domain.ReviewState{
				ID:          r.ID,
				Decision:    domain.ReviewDecision(r.State),
				Body:        r.Body,
				AuthorLogin: r.User.Login,
				AuthorIsBot: strings.EqualFold(r.User.Type, "Bot"),
			})
		}
		if len(reviews) < 100 {
			return all, nil
		}
	}
}

// CreateReview posts a review with an optional batch of inline comments.
func (c *Client) CreateReview(ctx context.Context, decision domain.ReviewDecision, body string, comments []anchor.Comment) (int64, error) {
	req := createReviewRequest{
		CommitID: c.commitSHA,
		Event:    reviewEvent(decision),
		Body:     body,
		Comments: buildCommentInputs(comments),
	}

	var created reviewPayload
	if err := c.do(ctx, "POST", c.prPath("/reviews"), req, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// UpdateReviewBody rewrites an existing review's body, leaving its decision
// and comments untouched.
func (c *Client) UpdateReviewBody(ctx context.Context, reviewID int64, body string) error {
	url := c.prPath(fmt.Sprintf("/reviews/%d", reviewID))
	return c.do(ctx, "PUT", url, updateReviewRequest{Body: body}, nil)
}

// DismissReview dismisses a review with the given message.
func (c *Client) DismissReview(ctx context.Context, reviewID int64, message string) error {
	url := c.prPath(fmt.Sprintf("/reviews/%d/dismissals", reviewID))
	return c.do(ctx, "PUT", url, dismissReviewRequest{Message: message, Event: "DISMISS"}, nil)
}

// CreateComment posts one standalone inline comment outside any review.
// Used by the per-comment fallback when a batch is rejected.
func (c *Client) CreateComment(ctx context.Context, comment anchor.Comment) (int64, error) {
	req := standaloneCommentRequest{
		Body:     comment.Body,
		CommitID: c.commitSHA,
		Path:     comment.Path,
		Line:     comment.Line,
		Side:     "RIGHT",
	}
	if comment.Multiline() {
		req.StartLine = comment.StartLine
		req.StartSide = "RIGHT"
	}

	var created commentPayload
	if err := c.do(ctx, "POST", c.prPath("/comments"), req, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// ListReviewCommentIDs returns the comment IDs attached to one review.
func (c *Client) ListReviewCommentIDs(ctx context.Context, reviewID int64) ([]int64, error) {
	var ids []int64
	for page := 1; ; page++ {
		url := c.prPath(fmt.Sprintf("/reviews/%d/comments?per_page=100&page=%d", reviewID, page))

		var comments []commentPayload
		if err := c.do(ctx, "GET", url, nil, &comments); err != nil {
			return nil, err
		}
		for _, comment := range comments {
			ids = append(ids, comment.ID)
		}
		if len(comments) < 100 {
			return ids, nil
		}
	}
}

// AddReaction adds a reaction (e.g. "+1", "-1") to a review comment.
func (c *Client) AddReaction(ctx context.Context, commentID int64, content string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/comments/%d/reactions", c.baseURL, c.owner, c.repo, commentID)
	return c.do(ctx, "POST", url, reactionRequest{Content: content}, nil)
}

func reviewEvent(decision domain.ReviewDecision) string {
	if decision == domain.ReviewChangesRequested {
		return "REQUEST_CHANGES"
	}
	return "APPROVE"
}

func buildCommentInputs(comments []anchor.Comment) []reviewCommentInput {
	var inputs []reviewCommentInput
	for _, comment := range comments {
		input := reviewCommentInput{
			Path: comment.Path,
			Body: comment.Body,
			Line: comment.Line,
			Side: "RIGHT",
		}
		if comment.Multiline() {
			input.StartLine = comment.StartLine
			input.StartSide = "RIGHT"
		}
		inputs = append(inputs, input)
	}
	return inputs
}
