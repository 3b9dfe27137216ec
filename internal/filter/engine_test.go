package filter_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/critique-dev/critique/internal/adapter/httpkit"
	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/filter"
)

func finding(file string, line int, title, category string, confidence float64) domain.Finding {
	c := confidence
	f, err := domain.NewFinding(domain.FindingInput{
		File:        file,
		Line:        line,
		Title:       title,
		Description: title,
		Severity:    "HIGH",
		Category:    category,
		Confidence:  &c,
	})
	if err != nil {
		panic(err)
	}
	return f
}

func TestHardExclusionRules(t *testing.T) {
	tests := []struct {
		name    string
		finding domain.Finding
		kept    bool
	}{
		{
			"real bug survives",
			finding("a.go", 10, "nil pointer dereference on empty input", "correctness", 0.9),
			true,
		},
		{
			"style complaint excluded",
			finding("a.go", 10, "inconsistent formatting of struct fields", "style", 0.9),
			false,
		},
		{
			"documentation nit excluded",
			finding("a.go", 10, "missing doc comment on exported type", "docs", 0.9),
			false,
		},
		{
			"hypothetical phrasing excluded",
			finding("a.go", 10, "this could potentially race under load", "concurrency", 0.9),
			false,
		},
		{
			"security DOS boilerplate excluded",
			finding("a.go", 10, "possible denial of service via large payload", "security", 0.9),
			false,
		},
		{
			"DOS wording outside security category survives",
			finding("a.go", 10, "possible denial of service via large payload", "performance", 0.9),
			true,
		},
	}

	engine := filter.New(filter.DefaultConfig(), nil, httpkit.NopLogger{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Apply(context.Background(), []domain.Finding{tt.finding})
			if kept := len(got) == 1; kept != tt.kept {
				t.Errorf("kept = %v, want %v", kept, tt.kept)
			}
		})
	}
}

func TestHardExclusionsCanBeDisabled(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.HardExclusions = false
	engine := filter.New(cfg, nil, httpkit.NopLogger{})

	styleNit := finding("a.go", 1, "inconsistent formatting", "style", 0.9)
	if got := engine.Apply(context.Background(), []domain.Finding{styleNit}); len(got) != 1 {
		t.Error("stage 1 disabled: style finding should survive")
	}
}

func TestCustomRulesAppendToBuiltins(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.CustomRules = []filter.Rule{{Name: "no-logging-nits", Kind: filter.RuleText, Patterns: []string{"log level"}}}

	engine := filter.New(cfg, nil, httpkit.NopLogger{})

	custom := finding("a.go", 1, "wrong log level used", "observability", 0.9)
	builtin := finding("a.go", 2, "inconsistent formatting", "style", 0.9)
	real := finding("a.go", 3, "off-by-one in pagination", "correctness", 0.9)

	got := engine.Apply(context.Background(), []domain.Finding{custom, builtin, real})
	if len(got) != 1 || got[0].Line != 3 {
		t.Errorf("kept = %+v, want only the real finding", got)
	}
}

func TestDirectoryExclusion(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.ExcludedDirs = []string{"./generated"}
	engine := filter.New(cfg, nil, httpkit.NopLogger{})

	tests := []struct {
		file string
		kept bool
	}{
		{"src/app.go", true},
		{"node_modules/lib/index.js", false},
		{"web/dist/bundle.js", false},
		{"generated/api.go", false},
		{"distribute.go", true},
	}
	for _, tt := range tests {
		got := engine.Apply(context.Background(), []domain.Finding{
			finding(tt.file, 1, "nil pointer dereference", "correctness", 0.9),
		})
		if kept := len(got) == 1; kept != tt.kept {
			t.Errorf("file %q kept = %v, want %v", tt.file, kept, tt.kept)
		}
	}
}

func TestDirectoryExclusionCanBeDisabled(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.DirectoryExclusions = false
	engine := filter.New(cfg, nil, httpkit.NopLogger{})

	vendored := finding("node_modules/lib/index.js", 1, "nil pointer dereference", "correctness", 0.9)
	if got := engine.Apply(context.Background(), []domain.Finding{vendored}); len(got) != 1 {
		t.Error("stage 2 disabled: vendored-path finding should survive")
	}
}

func TestConfidenceThreshold(t *testing.T) {
	engine := filter.New(filter.DefaultConfig(), nil, httpkit.NopLogger{})

	low := finding("a.go", 1, "nil pointer dereference", "correctness", 0.5)
	high := finding("a.go", 2, "nil pointer dereference", "correctness", 0.9)

	got := engine.Apply(context.Background(), []domain.Finding{low, high})
	if len(got) != 1 || got[0].Line != 2 {
		t.Errorf("kept = %+v, want only the high-confidence finding", got)
	}
}

func TestUnscoredFindingPassesDefaultThreshold(t *testing.T) {
	f, err := domain.NewFinding(domain.FindingInput{
		File:        "a.go",
		Line:        1,
		Title:       "nil pointer dereference",
		Description: "d",
		Severity:    "HIGH",
		Category:    "correctness",
	})
	if err != nil {
		t.Fatal(err)
	}

	engine := filter.New(filter.DefaultConfig(), nil, httpkit.NopLogger{})
	if got := engine.Apply(context.Background(), []domain.Finding{f}); len(got) != 1 {
		t.Error("finding with defaulted confidence must pass the default threshold")
	}
}

func TestConfidenceThresholdCanBeDisabled(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.ConfidenceThreshold = false
	engine := filter.New(cfg, nil, httpkit.NopLogger{})

	low := finding("a.go", 1, "nil pointer dereference", "correctness", 0.1)
	if got := engine.Apply(context.Background(), []domain.Finding{low}); len(got) != 1 {
		t.Error("stage 3 disabled: low-confidence finding should survive")
	}
}

type stubValidator struct {
	mu      sync.Mutex
	calls   int
	verdict func(f domain.Finding) (bool, error)
}

func (v *stubValidator) ValidateFinding(ctx context.Context, f domain.Finding) (bool, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	return v.verdict(f)
}

func TestValidationDropsRejected(t *testing.T) {
	validator := &stubValidator{verdict: func(f domain.Finding) (bool, error) {
		return f.Line != 2, nil
	}}

	cfg := filter.DefaultConfig()
	cfg.Validate = true
	engine := filter.New(cfg, validator, httpkit.NopLogger{})

	in := []domain.Finding{
		finding("a.go", 1, "nil pointer dereference", "correctness", 0.9),
		finding("a.go", 2, "stale cache read", "correctness", 0.9),
		finding("a.go", 3, "unchecked error return", "correctness", 0.9),
	}
	got := engine.Apply(context.Background(), in)

	if len(got) != 2 {
		t.Fatalf("kept = %d, want 2", len(got))
	}
	// Order preserved despite concurrent validation.
	if got[0].Line != 1 || got[1].Line != 3 {
		t.Errorf("kept lines = %d,%d, want 1,3", got[0].Line, got[1].Line)
	}
	if validator.calls != 3 {
		t.Errorf("validator calls = %d, want 3", validator.calls)
	}
}

func TestValidationFailsOpen(t *testing.T) {
	validator := &stubValidator{verdict: func(f domain.Finding) (bool, error) {
		return false, errors.New("engine unavailable")
	}}

	cfg := filter.DefaultConfig()
	cfg.Validate = true
	engine := filter.New(cfg, validator, httpkit.NopLogger{})

	in := []domain.Finding{finding("a.go", 1, "nil pointer dereference", "correctness", 0.9)}
	if got := engine.Apply(context.Background(), in); len(got) != 1 {
		t.Error("a failed validation call must keep the finding")
	}
}

func TestValidationSkippedWhenDisabled(t *testing.T) {
	validator := &stubValidator{verdict: func(f domain.Finding) (bool, error) {
		return false, nil
	}}

	engine := filter.New(filter.DefaultConfig(), validator, httpkit.NopLogger{})
	in := []domain.Finding{finding("a.go", 1, "nil pointer dereference", "correctness", 0.9)}
	if got := engine.Apply(context.Background(), in); len(got) != 1 {
		t.Error("validation disabled: validator must not run")
	}
	if validator.calls != 0 {
		t.Errorf("validator calls = %d, want 0", validator.calls)
	}
}
