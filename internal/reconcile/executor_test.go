package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/critique-dev/critique/internal/adapter/httpkit"
	"github.com/critique-dev/critique/internal/anchor"
	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/reconcile"
)

type fakeHost struct {
	reviews    []domain.ReviewState
	listErr    error
	dismissErr error
	createErrs []error // popped per CreateReview call
	commentErr error

	calls       []string
	created     []reconcile.Desired
	updatedBody string
	dismissedID int64
	comments    []anchor.Comment
	reactions   map[int64][]string
}

func newFakeHost(reviews ...domain.ReviewState) *fakeHost {
	return &fakeHost{reviews: reviews, reactions: map[int64][]string{}}
}

func (h *fakeHost) ListReviews(ctx context.Context) ([]domain.ReviewState, error) {
	h.calls = append(h.calls, "list")
	return h.reviews, h.listErr
}

func (h *fakeHost) CreateReview(ctx context.Context, decision domain.ReviewDecision, body string, comments []anchor.Comment) (int64, error) {
	h.calls = append(h.calls, "create")
	if len(h.createErrs) > 0 {
		err := h.createErrs[0]
		h.createErrs = h.createErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	h.created = append(h.created, reconcile.Desired{Decision: decision, Body: body, Comments: comments})
	return 100, nil
}

func (h *fakeHost) UpdateReviewBody(ctx context.Context, reviewID int64, body string) error {
	h.calls = append(h.calls, "update")
	h.updatedBody = body
	return nil
}

func (h *fakeHost) DismissReview(ctx context.Context, reviewID int64, message string) error {
	h.calls = append(h.calls, "dismiss")
	if h.dismissErr != nil {
		return h.dismissErr
	}
	h.dismissedID = reviewID
	return nil
}

func (h *fakeHost) CreateComment(ctx context.Context, comment anchor.Comment) (int64, error) {
	h.calls = append(h.calls, "comment")
	if h.commentErr != nil && comment.Path == "bad.go" {
		return 0, h.commentErr
	}
	h.comments = append(h.comments, comment)
	return int64(200 + len(h.comments)), nil
}

func (h *fakeHost) ListReviewCommentIDs(ctx context.Context, reviewID int64) ([]int64, error) {
	ids := make([]int64, 0, len(h.created))
	if len(h.created) > 0 {
		for i := range h.created[len(h.created)-1].Comments {
			ids = append(ids, int64(300+i))
		}
	}
	return ids, nil
}

func (h *fakeHost) AddReaction(ctx context.Context, commentID int64, content string) error {
	h.reactions[commentID] = append(h.reactions[commentID], content)
	return nil
}

func (h *fakeHost) BotLogin() string { return "critique[bot]" }

func ownedReview(decision domain.ReviewDecision) domain.ReviewState {
	return domain.ReviewState{
		ID:          7,
		Decision:    decision,
		Body:        markerBody("previous"),
		AuthorLogin: "critique[bot]",
		AuthorIsBot: true,
	}
}

func TestReconcileCreatesWhenNoReview(t *testing.T) {
	host := newFakeHost()
	exec := reconcile.NewExecutor(host, httpkit.NopLogger{})

	desired := reconcile.Desired{
		Decision: domain.ReviewChangesRequested,
		Body:     markerBody("two findings"),
		Comments: []anchor.Comment{{Path: "a.go", Line: 3, Body: "b"}},
	}
	decision, err := exec.Reconcile(context.Background(), desired)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if decision.Outcome != reconcile.OutcomeCreate {
		t.Errorf("outcome = %v", decision.Outcome)
	}
	if len(host.created) != 1 || len(host.created[0].Comments) != 1 {
		t.Fatalf("created = %+v", host.created)
	}
	// Both acknowledgment reactions land on the new inline comment.
	if got := host.reactions[300]; len(got) != 2 {
		t.Errorf("reactions = %v, want +1 and -1", got)
	}
}

func TestReconcileUpdatesInPlace(t *testing.T) {
	host := newFakeHost(ownedReview(domain.ReviewApproved))
	exec := reconcile.NewExecutor(host, httpkit.NopLogger{})

	desired := reconcile.Desired{Decision: domain.ReviewApproved, Body: markerBody("fresh")}
	decision, err := exec.Reconcile(context.Background(), desired)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if decision.Outcome != reconcile.OutcomeUpdateInPlace {
		t.Errorf("outcome = %v", decision.Outcome)
	}
	if host.updatedBody != desired.Body {
		t.Errorf("updated body = %q", host.updatedBody)
	}
	if host.dismissedID != 0 || len(host.created) != 0 {
		t.Error("update in place must not dismiss or create")
	}
}

func TestReconcileDismissesBeforeCreate(t *testing.T) {
	host := newFakeHost(ownedReview(domain.ReviewApproved))
	exec := reconcile.NewExecutor(host, httpkit.NopLogger{})

	desired := reconcile.Desired{Decision: domain.ReviewChangesRequested, Body: markerBody("regression found")}
	if _, err := exec.Reconcile(context.Background(), desired); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if host.dismissedID != 7 {
		t.Errorf("dismissed = %d, want 7", host.dismissedID)
	}
	want := []string{"list", "dismiss", "create"}
	if len(host.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", host.calls, want)
	}
	for i := range want {
		if host.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v (dismissal must precede create)", host.calls, want)
		}
	}
}

func TestReconcileAbortsWhenDismissalFails(t *testing.T) {
	host := newFakeHost(ownedReview(domain.ReviewApproved))
	host.dismissErr = errors.New("403 forbidden")
	exec := reconcile.NewExecutor(host, httpkit.NopLogger{})

	desired := reconcile.Desired{Decision: domain.ReviewChangesRequested, Body: markerBody("regression found")}
	if _, err := exec.Reconcile(context.Background(), desired); err == nil {
		t.Fatal("expected error when dismissal fails")
	}

	// The old review is still live; creating another would leave two
	// reviews from the same identity.
	if len(host.created) != 0 {
		t.Errorf("created = %+v, want none after a failed dismissal", host.created)
	}
}

func TestReconcileSkipsMarkerDowngrade(t *testing.T) {
	host := newFakeHost(ownedReview(domain.ReviewApproved))
	exec := reconcile.NewExecutor(host, httpkit.NopLogger{})

	desired := reconcile.Desired{Decision: domain.ReviewApproved, Body: "marker-less"}
	decision, err := exec.Reconcile(context.Background(), desired)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if decision.Outcome != reconcile.OutcomeSkipUpdate {
		t.Errorf("outcome = %v", decision.Outcome)
	}
	if host.updatedBody != "" || len(host.created) != 0 || host.dismissedID != 0 {
		t.Error("skip must perform no mutation")
	}
}

func TestReconcileFallsBackToPerCommentPosting(t *testing.T) {
	host := newFakeHost()
	host.createErrs = []error{errors.New("422 unprocessable"), nil}
	host.commentErr = errors.New("line not in diff")
	exec := reconcile.NewExecutor(host, httpkit.NopLogger{})

	desired := reconcile.Desired{
		Decision: domain.ReviewChangesRequested,
		Body:     markerBody("x"),
		Comments: []anchor.Comment{
			{Path: "ok.go", Line: 1, Body: "b"},
			{Path: "bad.go", Line: 2, Body: "b"},
			{Path: "ok.go", Line: 3, Body: "b"},
		},
	}
	if _, err := exec.Reconcile(context.Background(), desired); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	// Second create carries no comments; survivors posted individually and
	// the bad anchor skipped without blocking the rest.
	if len(host.created) != 1 || len(host.created[0].Comments) != 0 {
		t.Errorf("created = %+v", host.created)
	}
	if len(host.comments) != 2 {
		t.Errorf("individual comments = %d, want 2", len(host.comments))
	}
}

func TestReconcileAbortsWhenListFails(t *testing.T) {
	host := newFakeHost()
	host.listErr = errors.New("503")
	exec := reconcile.NewExecutor(host, httpkit.NopLogger{})

	if _, err := exec.Reconcile(context.Background(), reconcile.Desired{Decision: domain.ReviewApproved, Body: markerBody("x")}); err == nil {
		t.Fatal("expected error when review listing fails")
	}
	if len(host.created) != 0 {
		t.Error("no mutation may happen when current state is unknown")
	}
}
