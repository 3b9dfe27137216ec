package engine

import (
	"context"

	"github.com/critique-dev/critique/internal/domain"
)

// Static is a canned engine for dry runs and tests: Analyze returns a fixed
// reply and ValidateFinding keeps everything.
type Static struct {
	Reply string
}

func (s Static) Analyze(ctx context.Context, changeset domain.Changeset, instructions string) (string, error) {
	return s.Reply, nil
}

func (s Static) ValidateFinding(ctx context.Context, finding domain.Finding) (bool, error) {
	return true, nil
}
