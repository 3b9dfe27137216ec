package filter

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/critique-dev/critique/internal/domain"
)

// Validator asks the analysis engine whether one finding is a real,
// actionable issue. Implementations own prompt construction and reply
// parsing; the filter only consumes the verdict.
type Validator interface {
	ValidateFinding(ctx context.Context, finding domain.Finding) (keep bool, err error)
}

// applyValidation runs stage 4: a bounded fan-out of per-finding validation
// calls. Each call is independent; a failed or timed-out call keeps its
// finding (fail-open) so infrastructure trouble can never silently suppress
// a real issue. Output order matches input order.
func (e *Engine) applyValidation(ctx context.Context, findings []domain.Finding) []domain.Finding {
	verdicts := make([]bool, len(findings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ValidationConcurrency)

	for i, f := range findings {
		i, f := i, f
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, e.cfg.ValidationTimeout)
			defer cancel()

			keep, err := e.validator.ValidateFinding(callCtx, f)
			if err != nil {
				e.logger.LogWarning(gctx, "validation call failed, keeping finding", map[string]interface{}{
					"file":  f.File,
					"line":  f.Line,
					"error": err.Error(),
				})
				verdicts[i] = true
				return nil
			}
			if !keep {
				e.logger.LogInfo(gctx, "finding rejected by validation", map[string]interface{}{
					"file":  f.File,
					"line":  f.Line,
					"title": f.Title,
				})
			}
			verdicts[i] = keep
			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()

	kept := findings[:0:0]
	for i, f := range findings {
		if verdicts[i] {
			kept = append(kept, f)
		}
	}
	return kept
}
