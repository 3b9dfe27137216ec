package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/critique-dev/critique/internal/domain"
)

const analysisSystemPrompt = "You are a code review assistant. Analyze the diff and report findings in JSON."

const validationSystemPrompt = "You are reviewing the output of an automated code audit for false positives. Respond only with JSON."

const findingsFormatInstructions = `Respond with a JSON object of this shape:
{
  "findings": [
    {
      "file": "path/to/file.go",
      "line": 42,
      "title": "Short title",
      "description": "What is wrong and why it matters",
      "severity": "HIGH|MEDIUM|LOW",
      "category": "correctness|security|performance|...",
      "confidence": 0.9,
      "suggestion": "Exact replacement code (optional). Must replace lines from suggestion_start_line to suggestion_end_line.",
      "suggestion_start_line": 42,
      "suggestion_end_line": 44
    }
  ]
}
Report only concrete, actionable issues introduced by this change. Line numbers refer to the post-change file.`

// defaultValidationCriteria is the built-in filtering stance for the
// per-finding validation pass. Custom instruction text is appended to it,
// never substituted for it.
const defaultValidationCriteria = `HARD EXCLUSIONS - Automatically exclude findings matching these patterns:
1. Purely stylistic or formatting preferences (naming, spacing, comment wording) with no functional impact.
2. Documentation-only issues or typos that do not affect behavior or safety.
3. Refactor suggestions without a concrete bug, regression, or risk reduction.
4. Hypothetical issues without a clear failure mode or reproducible impact.

SECURITY-SPECIFIC EXCLUSIONS (apply ONLY if the category indicates security):
1. Denial of Service (DOS) or resource exhaustion concerns without concrete exploitability.
2. Rate limiting recommendations without a specific abuse path.
3. Memory safety issues in memory-safe languages.

SIGNAL QUALITY CRITERIA - For remaining findings, assess:
1. Is there a concrete failure mode or exploit path?
2. Is the impact meaningful (bug, regression, security risk, data loss)?
3. Are there specific code locations and reproduction steps?
4. Would this be actionable for the team?`

func analysisPrompt(changeset domain.Changeset, instructions string) string {
	var sb strings.Builder

	sb.WriteString("Review the following changes")
	if changeset.Revision != "" {
		sb.WriteString(fmt.Sprintf(" at revision %s", changeset.Revision))
	}
	sb.WriteString(".\n\n")

	if instructions != "" {
		sb.WriteString(instructions)
		sb.WriteString("\n\n")
	}

	for _, file := range changeset.Files {
		if file.Patch == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("--- %s (%s) ---\n%s\n\n", file.Filename, file.Status, file.Patch))
	}

	sb.WriteString(findingsFormatInstructions)
	return sb.String()
}

func validationPrompt(finding domain.Finding, customCriteria string) (string, error) {
	findingJSON, err := json.MarshalIndent(finding, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling finding: %w", err)
	}

	criteria := defaultValidationCriteria
	if strings.TrimSpace(customCriteria) != "" {
		criteria = criteria + "\n\nADDITIONAL CRITERIA -\n" + strings.TrimSpace(customCriteria)
	}

	return fmt.Sprintf(`I need you to analyze a code review finding from an automated audit and determine if it's a false positive.

%s

Assign a confidence score from 1-10:
- 1-3: Low confidence, likely false positive or noise
- 4-6: Medium confidence, needs investigation
- 7-10: High confidence, likely true issue

Finding to analyze:
%s

Respond with EXACTLY this JSON structure (no markdown, no code blocks):
{
  "confidence_score": 8,
  "keep_finding": true,
  "exclusion_reason": null,
  "justification": "Clear off-by-one error that causes data loss on edge cases"
}`, criteria, string(findingJSON)), nil
}
