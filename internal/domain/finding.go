package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// ParseSeverity normalizes a raw severity string.
// Returns false for anything outside {HIGH, MEDIUM, LOW}.
func ParseSeverity(raw string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HIGH":
		return SeverityHigh, true
	case "MEDIUM":
		return SeverityMedium, true
	case "LOW":
		return SeverityLow, true
	default:
		return "", false
	}
}

// DefaultConfidence is assigned to findings that arrive without an explicit
// confidence score. It sits above the default filter threshold so unscored
// findings are not silently dropped.
const DefaultConfidence = 0.8

// Finding is a single reported code issue. Instances are only constructed
// through NewFinding, which enforces the shape invariants; parsed records
// that fail validation are dropped, never surfaced as errors.
type Finding struct {
	File           string   `json:"file"`
	Line           int      `json:"line"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	Confidence     float64  `json:"confidence"`
	Impact         string   `json:"impact,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`

	// Suggestion is an optional replacement snippet. When SuggestionStart and
	// SuggestionEnd are both set the replacement spans that line range;
	// otherwise it applies to Line alone.
	Suggestion      string `json:"suggestion,omitempty"`
	SuggestionStart int    `json:"suggestion_start_line,omitempty"`
	SuggestionEnd   int    `json:"suggestion_end_line,omitempty"`
}

// FindingInput captures the raw, untrusted fields of a candidate finding.
type FindingInput struct {
	File            string
	Line            int
	Title           string
	Description     string
	Severity        string
	Category        string
	Confidence      *float64
	Impact          string
	Recommendation  string
	Suggestion      string
	SuggestionStart int
	SuggestionEnd   int
}

// NewFinding validates a candidate record and returns a Finding.
// A finding is meaningless without a file and a positive line; such records
// are rejected. A malformed suggestion range drops the suggestion but keeps
// the finding.
func NewFinding(input FindingInput) (Finding, error) {
	file := strings.TrimSpace(input.File)
	if file == "" {
		return Finding{}, fmt.Errorf("finding missing file path")
	}
	if input.Line < 1 {
		return Finding{}, fmt.Errorf("finding %s has non-positive line %d", file, input.Line)
	}

	severity, ok := ParseSeverity(input.Severity)
	if !ok {
		return Finding{}, fmt.Errorf("finding %s:%d has unrecognized severity %q", file, input.Line, input.Severity)
	}

	confidence := DefaultConfidence
	if input.Confidence != nil {
		confidence = *input.Confidence
		if confidence < 0 || confidence > 1 {
			return Finding{}, fmt.Errorf("finding %s:%d has confidence %v outside [0,1]", file, input.Line, confidence)
		}
	}

	f := Finding{
		File:           file,
		Line:           input.Line,
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		Severity:       severity,
		Category:       strings.ToLower(strings.TrimSpace(input.Category)),
		Confidence:     confidence,
		Impact:         input.Impact,
		Recommendation: input.Recommendation,
	}

	if input.Suggestion != "" {
		start, end := input.SuggestionStart, input.SuggestionEnd
		switch {
		case start == 0 && end == 0:
			f.Suggestion = input.Suggestion
		case start >= 1 && end >= start:
			f.Suggestion = input.Suggestion
			f.SuggestionStart = start
			f.SuggestionEnd = end
		default:
			// Invalid range: keep the finding, discard the suggestion.
		}
	}

	return f, nil
}

// MultiLineSuggestion reports whether the suggestion spans more than one line.
func (f Finding) MultiLineSuggestion() bool {
	return f.Suggestion != "" && f.SuggestionStart > 0 && f.SuggestionStart < f.SuggestionEnd
}

// Fingerprint returns a stable identity for deduplication across runs.
func (f Finding) Fingerprint() string {
	payload := fmt.Sprintf("%s|%d|%s|%s|%s", f.File, f.Line, f.Severity, f.Category, f.Title)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:8])
}

// SeverityCounts aggregates findings by severity.
type SeverityCounts struct {
	High   int
	Medium int
	Low    int
}

// Total returns the number of findings counted.
func (c SeverityCounts) Total() int {
	return c.High + c.Medium + c.Low
}

// CountBySeverity recomputes severity counts for a finding list. These
// recomputed numbers, not any upstream tallies, drive the review decision.
func CountBySeverity(findings []Finding) SeverityCounts {
	var counts SeverityCounts
	for _, f := range findings {
		switch f.Severity {
		case SeverityHigh:
			counts.High++
		case SeverityMedium:
			counts.Medium++
		case SeverityLow:
			counts.Low++
		}
	}
	return counts
}

// CountByCategory groups findings by their category tag.
// Findings without a category count under "general".
func CountByCategory(findings []Finding) map[string]int {
	groups := make(map[string]int)
	for _, f := range findings {
		category := f.Category
		if category == "" {
			category = "general"
		}
		groups[category]++
	}
	return groups
}
