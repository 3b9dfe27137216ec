// Package extract turns raw, untrusted engine output into validated
// findings. Engine replies routinely wrap the JSON payload in prose or
// markdown fences, truncate mid-structure, or smart-quote their way out of
// strict JSON; this package recovers what it can and reports the rest as a
// ParseFailure the caller downgrades to "zero findings, log and continue".
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/critique-dev/critique/internal/domain"
)

// ParseFailure reports that no parseable payload could be recovered from
// the engine output. It retains a bounded excerpt for diagnostics and is
// never fatal to the run.
type ParseFailure struct {
	Excerpt string
	Err     error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("no parseable payload in engine output (excerpt: %q): %v", e.Excerpt, e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// excerptLength bounds how much raw output a ParseFailure carries.
const excerptLength = 200

// fenceRegex strips a markdown code fence greedily, first fence to last,
// so nested fences inside suggestion strings stay intact.
var fenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*([\\s\\S]*)```")

// smartQuoteReplacer normalizes typographic quotes the engine sometimes
// emits inside otherwise-valid JSON.
var smartQuoteReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

// Result is the outcome of one extraction pass.
type Result struct {
	Findings []domain.Finding
	// Dropped counts records that were individually rejected by shape
	// validation. One bad record never fails the batch.
	Dropped int
}

// Findings extracts and validates the findings payload from raw engine
// output. Returns a *ParseFailure when no candidate payload parses; callers
// treat that as zero findings, not as a fatal error.
func Findings(raw string) (Result, error) {
	payload, err := Payload(raw)
	if err != nil {
		return Result{}, err
	}
	return decodeFindings(payload)
}

// Payload locates the most plausible self-contained JSON payload within
// free-form text. It scans for brace/bracket-balanced spans (quote and
// escape aware), preferring the longest candidate that parses strictly.
// If strict parsing fails everywhere, repair passes run: trim trailing
// text after the last balanced close, then normalize smart quotes.
func Payload(raw string) (string, error) {
	text := stripFence(raw)

	if payload, ok := bestCandidate(text); ok {
		return payload, nil
	}

	// Repair pass: the payload may have been cut off mid-structure; keep
	// everything up to the last position where nesting returned to zero.
	if trimmed, ok := trimToLastBalanced(text); ok {
		if payload, ok := bestCandidate(trimmed); ok {
			return payload, nil
		}
	}

	// Repair pass: smart quotes break both scanning and parsing.
	normalized := smartQuoteReplacer.Replace(text)
	if normalized != text {
		if payload, ok := bestCandidate(normalized); ok {
			return payload, nil
		}
	}

	return "", &ParseFailure{
		Excerpt: excerpt(raw),
		Err:     fmt.Errorf("no balanced JSON candidate parsed"),
	}
}

func stripFence(raw string) string {
	if matches := fenceRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return strings.TrimSpace(raw)
}

// bestCandidate returns the longest balanced span that json.Valid accepts.
func bestCandidate(text string) (string, bool) {
	var best string
	for _, candidate := range balancedSpans(text) {
		if len(candidate) > len(best) && json.Valid([]byte(candidate)) {
			best = candidate
		}
	}
	return best, best != ""
}

// balancedSpans walks the text once and collects every top-level span where
// brace/bracket nesting opens and returns to zero. Braces inside quoted
// strings are ignored; backslash escapes are honored.
func balancedSpans(text string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{', '[':
			if depth == 0 {
				start = i
			}
			depth++
		case '}', ']':
			if depth == 0 {
				continue // stray closer in surrounding prose
			}
			depth--
			if depth == 0 && start >= 0 {
				spans = append(spans, text[start:i+1])
				start = -1
			}
		}
	}

	return spans
}

// trimToLastBalanced cuts the text after the last closer that brought
// nesting back to its minimum, salvaging payloads followed by trailing
// commentary or truncated noise.
func trimToLastBalanced(text string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	lastClose := -1

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{', '[':
			depth++
		case '}', ']':
			if depth > 0 {
				depth--
				if depth == 0 {
					lastClose = i
				}
			}
		}
	}

	if lastClose < 0 {
		return "", false
	}
	return text[:lastClose+1], true
}

func excerpt(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) <= excerptLength {
		return trimmed
	}
	return trimmed[:excerptLength]
}

// rawFinding mirrors the untrusted wire shape of one finding record.
// Both "file" and "file_path" spellings are accepted.
type rawFinding struct {
	File            string   `json:"file"`
	FilePath        string   `json:"file_path"`
	Line            int      `json:"line"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Severity        string   `json:"severity"`
	Category        string   `json:"category"`
	Confidence      *float64 `json:"confidence"`
	Impact          string   `json:"impact"`
	Recommendation  string   `json:"recommendation"`
	Suggestion      string   `json:"suggestion"`
	SuggestionStart int      `json:"suggestion_start_line"`
	SuggestionEnd   int      `json:"suggestion_end_line"`
}

func decodeFindings(payload string) (Result, error) {
	var records []json.RawMessage

	// The payload is either {"findings": [...]} or a bare array.
	var wrapper struct {
		Findings []json.RawMessage `json:"findings"`
	}
	if err := json.Unmarshal([]byte(payload), &wrapper); err == nil && wrapper.Findings != nil {
		records = wrapper.Findings
	} else if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return Result{}, &ParseFailure{
			Excerpt: excerpt(payload),
			Err:     fmt.Errorf("payload is neither a findings object nor an array: %w", err),
		}
	}

	var result Result
	for _, record := range records {
		var raw rawFinding
		if err := json.Unmarshal(record, &raw); err != nil {
			result.Dropped++
			continue
		}

		file := raw.File
		if file == "" {
			file = raw.FilePath
		}

		finding, err := domain.NewFinding(domain.FindingInput{
			File:            file,
			Line:            raw.Line,
			Title:           raw.Title,
			Description:     raw.Description,
			Severity:        raw.Severity,
			Category:        raw.Category,
			Confidence:      raw.Confidence,
			Impact:          raw.Impact,
			Recommendation:  raw.Recommendation,
			Suggestion:      raw.Suggestion,
			SuggestionStart: raw.SuggestionStart,
			SuggestionEnd:   raw.SuggestionEnd,
		})
		if err != nil {
			result.Dropped++
			continue
		}
		result.Findings = append(result.Findings, finding)
	}

	return result, nil
}

// Verdict is the parsed reply of a per-finding validation call.
type Verdict struct {
	Keep            bool   `json:"keep_finding"`
	ConfidenceScore int    `json:"confidence_score"`
	ExclusionReason string `json:"exclusion_reason"`
	Justification   string `json:"justification"`
}

// ParseVerdict extracts the keep/drop verdict from a validation reply.
// Shares the same payload recovery as Findings.
func ParseVerdict(raw string) (Verdict, error) {
	payload, err := Payload(raw)
	if err != nil {
		return Verdict{}, err
	}

	var v Verdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return Verdict{}, &ParseFailure{
			Excerpt: excerpt(payload),
			Err:     fmt.Errorf("verdict payload malformed: %w", err),
		}
	}
	return v, nil
}
