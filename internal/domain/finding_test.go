package domain_test

import (
	"testing"

	"github.com/critique-dev/critique/internal/domain"
)

func floatPtr(f float64) *float64 { return &f }

func TestNewFinding(t *testing.T) {
	tests := []struct {
		name    string
		input   domain.FindingInput
		wantErr bool
		check   func(t *testing.T, f domain.Finding)
	}{
		{
			name: "valid minimal finding",
			input: domain.FindingInput{
				File:     "a.py",
				Line:     10,
				Severity: "HIGH",
			},
			check: func(t *testing.T, f domain.Finding) {
				if f.Severity != domain.SeverityHigh {
					t.Errorf("Severity = %q, want HIGH", f.Severity)
				}
				if f.Confidence != domain.DefaultConfidence {
					t.Errorf("Confidence = %v, want default %v", f.Confidence, domain.DefaultConfidence)
				}
			},
		},
		{
			name: "missing file path rejected",
			input: domain.FindingInput{
				Line:     10,
				Severity: "HIGH",
			},
			wantErr: true,
		},
		{
			name: "whitespace file path rejected",
			input: domain.FindingInput{
				File:     "   ",
				Line:     3,
				Severity: "LOW",
			},
			wantErr: true,
		},
		{
			name: "zero line rejected",
			input: domain.FindingInput{
				File:     "a.py",
				Line:     0,
				Severity: "HIGH",
			},
			wantErr: true,
		},
		{
			name: "negative line rejected",
			input: domain.FindingInput{
				File:     "a.py",
				Line:     -4,
				Severity: "MEDIUM",
			},
			wantErr: true,
		},
		{
			name: "severity normalized case-insensitively",
			input: domain.FindingInput{
				File:     "a.py",
				Line:     1,
				Severity: "  medium ",
			},
			check: func(t *testing.T, f domain.Finding) {
				if f.Severity != domain.SeverityMedium {
					t.Errorf("Severity = %q, want MEDIUM", f.Severity)
				}
			},
		},
		{
			name: "unknown severity rejected",
			input: domain.FindingInput{
				File:     "a.py",
				Line:     1,
				Severity: "CRITICAL",
			},
			wantErr: true,
		},
		{
			name: "explicit confidence preserved",
			input: domain.FindingInput{
				File:       "a.py",
				Line:       1,
				Severity:   "LOW",
				Confidence: floatPtr(0.25),
			},
			check: func(t *testing.T, f domain.Finding) {
				if f.Confidence != 0.25 {
					t.Errorf("Confidence = %v, want 0.25", f.Confidence)
				}
			},
		},
		{
			name: "confidence outside range rejected",
			input: domain.FindingInput{
				File:       "a.py",
				Line:       1,
				Severity:   "LOW",
				Confidence: floatPtr(1.5),
			},
			wantErr: true,
		},
		{
			name: "multi-line suggestion kept when start <= end",
			input: domain.FindingInput{
				File:            "a.py",
				Line:            12,
				Severity:        "HIGH",
				Suggestion:      "return nil",
				SuggestionStart: 10,
				SuggestionEnd:   12,
			},
			check: func(t *testing.T, f domain.Finding) {
				if !f.MultiLineSuggestion() {
					t.Error("expected multi-line suggestion")
				}
			},
		},
		{
			name: "inverted suggestion range drops suggestion, keeps finding",
			input: domain.FindingInput{
				File:            "a.py",
				Line:            12,
				Severity:        "HIGH",
				Suggestion:      "return nil",
				SuggestionStart: 12,
				SuggestionEnd:   10,
			},
			check: func(t *testing.T, f domain.Finding) {
				if f.Suggestion != "" {
					t.Errorf("Suggestion = %q, want dropped", f.Suggestion)
				}
			},
		},
		{
			name: "single-line suggestion is not multi-line",
			input: domain.FindingInput{
				File:       "a.py",
				Line:       12,
				Severity:   "HIGH",
				Suggestion: "return nil",
			},
			check: func(t *testing.T, f domain.Finding) {
				if f.MultiLineSuggestion() {
					t.Error("expected single-line suggestion")
				}
				if f.Suggestion != "return nil" {
					t.Errorf("Suggestion = %q, want kept", f.Suggestion)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := domain.NewFinding(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFinding() error = %v", err)
			}
			if tt.check != nil {
				tt.check(t, f)
			}
		})
	}
}

func TestCountBySeverity(t *testing.T) {
	mk := func(sev string) domain.Finding {
		f, err := domain.NewFinding(domain.FindingInput{File: "x.go", Line: 1, Severity: sev})
		if err != nil {
			t.Fatalf("NewFinding: %v", err)
		}
		return f
	}

	findings := []domain.Finding{mk("HIGH"), mk("LOW"), mk("HIGH"), mk("MEDIUM")}
	counts := domain.CountBySeverity(findings)

	if counts.High != 2 || counts.Medium != 1 || counts.Low != 1 {
		t.Errorf("counts = %+v, want 2/1/1", counts)
	}
	if counts.Total() != 4 {
		t.Errorf("Total() = %d, want 4", counts.Total())
	}
}

func TestCountByCategory(t *testing.T) {
	mk := func(cat string) domain.Finding {
		f, err := domain.NewFinding(domain.FindingInput{File: "x.go", Line: 1, Severity: "LOW", Category: cat})
		if err != nil {
			t.Fatalf("NewFinding: %v", err)
		}
		return f
	}

	groups := domain.CountByCategory([]domain.Finding{mk("security"), mk("Security"), mk("")})
	if groups["security"] != 2 {
		t.Errorf("security count = %d, want 2", groups["security"])
	}
	if groups["general"] != 1 {
		t.Errorf("general count = %d, want 1", groups["general"])
	}
}

func TestFingerprintStable(t *testing.T) {
	in := domain.FindingInput{File: "a.go", Line: 7, Severity: "HIGH", Title: "nil deref", Category: "correctness"}
	a, _ := domain.NewFinding(in)
	b, _ := domain.NewFinding(in)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprints differ for identical findings")
	}

	in.Line = 8
	c, _ := domain.NewFinding(in)
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("fingerprints collide for different lines")
	}
}

func TestChangesetFileLookup(t *testing.T) {
	cs := domain.Changeset{
		Revision: "abc123",
		Files: []domain.ChangesetFile{
			{Filename: "a.py", Patch: "@@ -1,2 +1,3 @@"},
			{Filename: "img.png", Status: "added"},
		},
	}

	if _, ok := cs.File("a.py"); !ok {
		t.Error("expected a.py to be found")
	}
	if _, ok := cs.File("missing.py"); ok {
		t.Error("did not expect missing.py to be found")
	}
}
