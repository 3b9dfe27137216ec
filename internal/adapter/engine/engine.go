// Package engine adapts AI analysis providers to the pipeline. The
// pipeline only ever sees raw text (to be run through the extractor) and
// per-finding keep/drop verdicts.
package engine

import (
	"context"

	"github.com/critique-dev/critique/internal/domain"
)

// Engine is the analysis provider contract. Analyze returns free-form text
// expected, but not guaranteed, to contain one findings payload.
// ValidateFinding is the narrow is-this-real question behind filter stage 4.
type Engine interface {
	Analyze(ctx context.Context, changeset domain.Changeset, instructions string) (string, error)
	ValidateFinding(ctx context.Context, finding domain.Finding) (keep bool, err error)
}
