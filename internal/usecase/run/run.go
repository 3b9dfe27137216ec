// Package run orchestrates one pipeline pass: artifacts in, exactly one
// review mutation out, marker written on success.
package run

import (
	"context"
	"fmt"

	"github.com/critique-dev/critique/internal/adapter/changeset"
	"github.com/critique-dev/critique/internal/adapter/engine"
	"github.com/critique-dev/critique/internal/adapter/httpkit"
	"github.com/critique-dev/critique/internal/anchor"
	"github.com/critique-dev/critique/internal/artifact"
	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/extract"
	"github.com/critique-dev/critique/internal/filter"
	"github.com/critique-dev/critique/internal/gate"
	"github.com/critique-dev/critique/internal/reconcile"
	"github.com/critique-dev/critique/internal/summary"
)

// MarkerStore reads the last-analyzed revision for the gate and persists it
// after a successful run.
type MarkerStore interface {
	Marker(ctx context.Context, repo string, pullNumber int) (*domain.RunMarker, error)
	SaveMarker(ctx context.Context, repo string, pullNumber int, revision string) error
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Changeset  changeset.Source
	Filter     *filter.Engine
	Reconciler *reconcile.Executor
	Markers    MarkerStore
	Gate       gate.Config
	Logger     httpkit.Logger
	// Engine is only consulted when no findings artifact is configured.
	Engine engine.Engine
}

// Params are the per-invocation inputs.
type Params struct {
	Repo       string
	PullNumber int

	// Trigger describes why this run was invoked; the gate evaluates it
	// before any host mutation.
	Trigger domain.TriggerContext

	// FindingsPath is the findings artifact. When empty, the engine is
	// asked to analyze the changeset directly.
	FindingsPath  string
	SummaryPath   string
	PRSummaryPath string

	// Instructions is custom analysis text appended to the built-in prompt.
	Instructions string
}

// Result reports what the run did.
type Result struct {
	Revision string

	// Suppressed is set when the gate decided against running; GateReason
	// explains why and no other field below it is meaningful.
	Suppressed bool
	GateReason string

	Outcome             reconcile.Outcome
	Decision            domain.ReviewDecision
	Counts              domain.SeverityCounts
	CommentsPosted      int
	DroppedUnanchorable int
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	deps Deps
}

func New(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = httpkit.NopLogger{}
	}
	return &Orchestrator{deps: deps}
}

// Execute performs one run. The gate is consulted first: a suppressed run
// returns a Result with the reason and touches neither the host nor the
// marker. Past the gate, the run aborts only when the summary artifact is
// unreadable or the host cannot be reached; every other failure degrades to
// fewer findings.
func (o *Orchestrator) Execute(ctx context.Context, params Params) (Result, error) {
	cs, err := o.deps.Changeset.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching changeset: %w", err)
	}

	marker, err := o.deps.Markers.Marker(ctx, params.Repo, params.PullNumber)
	if err != nil {
		// An unreadable marker must not block the run; it only weakens
		// deduplication for this one invocation.
		o.deps.Logger.LogWarning(ctx, "reading run marker failed, proceeding without it", map[string]interface{}{
			"error": err.Error(),
		})
		marker = nil
	}

	gateDecision := gate.Evaluate(params.Trigger, o.deps.Gate, marker, cs.Revision)
	if !gateDecision.Enabled {
		o.deps.Logger.LogInfo(ctx, "run suppressed by gate", map[string]interface{}{
			"reason":   gateDecision.Reason,
			"revision": cs.Revision,
		})
		return Result{Revision: cs.Revision, Suppressed: true, GateReason: gateDecision.Reason}, nil
	}

	analysisSummary, err := artifact.ReadSummary(params.SummaryPath)
	if err != nil {
		return Result{}, err
	}

	findings := o.dedupe(ctx, o.collectFindings(ctx, params, cs))

	filtered := o.deps.Filter.Apply(ctx, findings)
	counts := domain.CountBySeverity(filtered)
	categories := domain.CountByCategory(filtered)

	anchored := anchor.Resolve(ctx, filtered, cs, o.deps.Logger)
	if gateDecision.SilenceComments {
		anchored.Comments = nil
	}

	prSummary, err := artifact.ReadPRSummary(params.PRSummaryPath)
	if err != nil {
		o.deps.Logger.LogWarning(ctx, "PR summary artifact unreadable, omitting section", map[string]interface{}{
			"path":  params.PRSummaryPath,
			"error": err.Error(),
		})
	}

	desired := reconcile.Desired{
		Decision: domain.DesiredDecision(counts),
		Counts:   counts,
		Body: summary.BuildBody(summary.Input{
			Counts:              counts,
			Categories:          categories,
			FilesReviewed:       analysisSummary.FilesReviewed,
			DroppedUnanchorable: anchored.Dropped,
			PRSummary:           prSummary,
		}),
		Comments: anchored.Comments,
	}

	decision, err := o.deps.Reconciler.Reconcile(ctx, desired)
	if err != nil {
		return Result{}, err
	}

	// The marker is written only now, after the mutation succeeded. A
	// failed write just means the next trigger re-analyzes this revision.
	if err := o.deps.Markers.SaveMarker(ctx, params.Repo, params.PullNumber, cs.Revision); err != nil {
		o.deps.Logger.LogWarning(ctx, "saving run marker failed", map[string]interface{}{
			"revision": cs.Revision,
			"error":    err.Error(),
		})
	}

	return Result{
		Revision:            cs.Revision,
		Outcome:             decision.Outcome,
		Decision:            desired.Decision,
		Counts:              counts,
		CommentsPosted:      len(anchored.Comments),
		DroppedUnanchorable: anchored.Dropped,
	}, nil
}

// collectFindings reads the findings artifact, or runs the engine when no
// artifact is configured. Every failure here degrades to zero findings.
func (o *Orchestrator) collectFindings(ctx context.Context, params Params, cs domain.Changeset) []domain.Finding {
	if params.FindingsPath != "" {
		findings, dropped, err := artifact.ReadFindings(params.FindingsPath)
		if err != nil {
			o.deps.Logger.LogWarning(ctx, "findings artifact unusable, continuing with zero findings", map[string]interface{}{
				"path":  params.FindingsPath,
				"error": err.Error(),
			})
			return nil
		}
		if dropped > 0 {
			o.deps.Logger.LogWarning(ctx, "malformed finding records dropped", map[string]interface{}{
				"dropped": dropped,
			})
		}
		return findings
	}

	if o.deps.Engine == nil {
		o.deps.Logger.LogWarning(ctx, "no findings artifact and no engine configured", nil)
		return nil
	}

	raw, err := o.deps.Engine.Analyze(ctx, cs, params.Instructions)
	if err != nil {
		o.deps.Logger.LogWarning(ctx, "engine analysis failed, continuing with zero findings", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	result, err := extract.Findings(raw)
	if err != nil {
		o.deps.Logger.LogWarning(ctx, "engine output unparseable, continuing with zero findings", map[string]interface{}{
			"error": httpkit.TruncateForLogging(err.Error()),
		})
		return nil
	}
	if result.Dropped > 0 {
		o.deps.Logger.LogWarning(ctx, "malformed finding records dropped", map[string]interface{}{
			"dropped": result.Dropped,
		})
	}
	return result.Findings
}

// dedupe collapses findings sharing a fingerprint; engines occasionally
// report the same issue twice and a duplicate would double-count severity.
func (o *Orchestrator) dedupe(ctx context.Context, findings []domain.Finding) []domain.Finding {
	seen := make(map[string]bool, len(findings))
	kept := findings[:0:0]
	for _, f := range findings {
		fp := f.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		kept = append(kept, f)
	}
	if dropped := len(findings) - len(kept); dropped > 0 {
		o.deps.Logger.LogInfo(ctx, "duplicate findings collapsed", map[string]interface{}{
			"dropped": dropped,
		})
	}
	return kept
}
