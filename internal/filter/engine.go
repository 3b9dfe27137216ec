package filter

import (
	"context"
	"time"

	"github.com/critique-dev/critique/internal/adapter/httpkit"
	"github.com/critique-dev/critique/internal/domain"
)

// Config controls which stages run and how.
type Config struct {
	// HardExclusions toggles stage 1. On by default.
	HardExclusions bool
	// DisableBuiltinRules drops the built-in rule families, leaving only
	// CustomRules. Rarely what you want.
	DisableBuiltinRules bool
	// CustomRules are appended to the built-in families.
	CustomRules []Rule

	// DirectoryExclusions toggles stage 2. On by default.
	DirectoryExclusions bool
	// ExcludedDirs are appended to the built-in excluded directory set.
	ExcludedDirs []string

	// ConfidenceThreshold toggles stage 3. On by default.
	ConfidenceThreshold bool
	// MinConfidence drops findings scored below it. Zero means the default.
	MinConfidence float64

	// Validate toggles stage 4, the per-finding engine validation pass.
	Validate bool
	// ValidationConcurrency bounds the validation fan-out. Zero means the
	// default.
	ValidationConcurrency int
	// ValidationTimeout caps each individual validation call. Zero means
	// the default.
	ValidationTimeout time.Duration
}

// DefaultMinConfidence is the threshold applied when none is configured.
const DefaultMinConfidence = 0.7

const (
	defaultValidationConcurrency = 4
	defaultValidationTimeout     = 60 * time.Second
)

// DefaultConfig returns the stance used when no configuration is supplied:
// stages 1-3 on, validation off.
func DefaultConfig() Config {
	return Config{
		HardExclusions:      true,
		DirectoryExclusions: true,
		ConfidenceThreshold: true,
		MinConfidence:       DefaultMinConfidence,
	}
}

// Engine applies the configured stages in order.
type Engine struct {
	cfg       Config
	rules     []Rule
	dirs      []string
	validator Validator
	logger    httpkit.Logger
}

// New builds an engine. validator may be nil when stage 4 is disabled.
func New(cfg Config, validator Validator, logger httpkit.Logger) *Engine {
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.ValidationConcurrency == 0 {
		cfg.ValidationConcurrency = defaultValidationConcurrency
	}
	if cfg.ValidationTimeout == 0 {
		cfg.ValidationTimeout = defaultValidationTimeout
	}

	var rules []Rule
	if !cfg.DisableBuiltinRules {
		rules = BuiltinRules()
	}
	rules = append(rules, cfg.CustomRules...)

	dirs := BuiltinExcludedDirs()
	dirs = append(dirs, cfg.ExcludedDirs...)

	return &Engine{
		cfg:       cfg,
		rules:     rules,
		dirs:      dirs,
		validator: validator,
		logger:    logger,
	}
}

// Apply runs the stages and returns the surviving findings in input order.
// Severity and category counts must be recomputed from the returned slice;
// any counts computed upstream are stale after this call.
func (e *Engine) Apply(ctx context.Context, findings []domain.Finding) []domain.Finding {
	total := len(findings)

	if e.cfg.HardExclusions {
		findings = e.applyRules(ctx, findings)
	}
	if e.cfg.DirectoryExclusions {
		findings = e.applyDirectoryExclusion(ctx, findings)
	}
	if e.cfg.ConfidenceThreshold {
		findings = e.applyConfidenceThreshold(ctx, findings)
	}
	if e.cfg.Validate && e.validator != nil {
		findings = e.applyValidation(ctx, findings)
	}

	e.logger.LogInfo(ctx, "filtering complete", map[string]interface{}{
		"input":    total,
		"kept":     len(findings),
		"excluded": total - len(findings),
	})
	return findings
}

func (e *Engine) applyRules(ctx context.Context, findings []domain.Finding) []domain.Finding {
	kept := findings[:0:0]
	for _, f := range findings {
		if rule, matched := e.matchRule(f); matched {
			e.logger.LogInfo(ctx, "finding excluded by rule", map[string]interface{}{
				"rule":  rule,
				"file":  f.File,
				"line":  f.Line,
				"title": f.Title,
			})
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func (e *Engine) matchRule(f domain.Finding) (string, bool) {
	for _, rule := range e.rules {
		if rule.Matches(f) {
			return rule.Name, true
		}
	}
	return "", false
}

func (e *Engine) applyDirectoryExclusion(ctx context.Context, findings []domain.Finding) []domain.Finding {
	kept := findings[:0:0]
	for _, f := range findings {
		if UnderExcludedDir(f.File, e.dirs) {
			e.logger.LogInfo(ctx, "finding in excluded directory", map[string]interface{}{
				"file": f.File,
				"line": f.Line,
			})
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func (e *Engine) applyConfidenceThreshold(ctx context.Context, findings []domain.Finding) []domain.Finding {
	kept := findings[:0:0]
	for _, f := range findings {
		if f.Confidence < e.cfg.MinConfidence {
			e.logger.LogInfo(ctx, "finding below confidence threshold", map[string]interface{}{
				"file":       f.File,
				"line":       f.Line,
				"confidence": f.Confidence,
				"threshold":  e.cfg.MinConfidence,
			})
			continue
		}
		kept = append(kept, f)
	}
	return kept
}
