// Package anchor maps filtered findings onto positions the host will accept
// for inline review comments. The host rejects comments outside the rendered
// diff, so unanchorable findings are dropped with a log line rather than
// risking a failed review creation.
package anchor

import (
	"context"
	"fmt"
	"strings"

	"github.com/critique-dev/critique/internal/adapter/httpkit"
	"github.com/critique-dev/critique/internal/diff"
	"github.com/critique-dev/critique/internal/domain"
)

// Comment is one inline review comment anchored to the after side of the
// diff. StartLine is zero for single-line comments; when set, the comment
// spans [StartLine, Line].
type Comment struct {
	Path      string
	Line      int
	StartLine int
	Body      string
}

// Multiline reports whether the comment spans a line range.
func (c Comment) Multiline() bool { return c.StartLine > 0 && c.StartLine < c.Line }

// Result carries the anchored comments and how many findings could not be
// placed.
type Result struct {
	Comments []Comment
	Dropped  int
}

// Resolve anchors each finding to its diff position. Findings whose file is
// not in the changeset, whose file has no patch (binary or oversized), or
// whose line is not visible on the after side are dropped and counted.
func Resolve(ctx context.Context, findings []domain.Finding, changeset domain.Changeset, logger httpkit.Logger) Result {
	patches := make(map[string]diff.Patch, len(changeset.Files))

	var result Result
	for _, f := range findings {
		patch, ok := patchFor(f.File, changeset, patches)
		if !ok {
			logger.LogInfo(ctx, "finding dropped: file not in visible diff", map[string]interface{}{
				"file": f.File,
				"line": f.Line,
			})
			result.Dropped++
			continue
		}

		if !patch.ContainsAfterLine(f.Line) {
			logger.LogInfo(ctx, "finding dropped: line outside diff context", map[string]interface{}{
				"file": f.File,
				"line": f.Line,
			})
			result.Dropped++
			continue
		}

		result.Comments = append(result.Comments, buildComment(f, patch))
	}

	return result
}

func patchFor(file string, changeset domain.Changeset, cache map[string]diff.Patch) (diff.Patch, bool) {
	if patch, ok := cache[file]; ok {
		return patch, len(patch.Hunks) > 0
	}

	entry, ok := changeset.File(file)
	if !ok || entry.Patch == "" {
		cache[file] = diff.Patch{}
		return diff.Patch{}, false
	}

	patch := diff.Parse(entry.Patch)
	cache[file] = patch
	return patch, len(patch.Hunks) > 0
}

// buildComment renders the comment body and picks its span. A multi-line
// suggestion whose range is not fully visible degrades to a single-line
// comment without the suggestion block, since the host would reject the
// span.
func buildComment(f domain.Finding, patch diff.Patch) Comment {
	comment := Comment{Path: f.File, Line: f.Line}

	withSuggestion := f.Suggestion != ""
	if f.MultiLineSuggestion() {
		// The comment spans from the suggestion's first line down to the
		// finding's line on the after side.
		if f.SuggestionStart < f.Line && patch.ContainsAfterRange(f.SuggestionStart, f.Line) {
			comment.StartLine = f.SuggestionStart
		} else {
			withSuggestion = false
		}
	}

	comment.Body = formatBody(f, withSuggestion)
	return comment
}

func formatBody(f domain.Finding, withSuggestion bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("**Severity:** %s", f.Severity))
	if f.Category != "" {
		sb.WriteString(fmt.Sprintf(" | **Category:** %s", f.Category))
	}
	sb.WriteString("\n\n")

	if f.Title != "" {
		sb.WriteString(fmt.Sprintf("**%s**\n\n", f.Title))
	}
	sb.WriteString(f.Description)
	sb.WriteString("\n")

	if f.Impact != "" {
		sb.WriteString(fmt.Sprintf("\n**Impact:** %s\n", f.Impact))
	}
	if f.Recommendation != "" {
		sb.WriteString(fmt.Sprintf("\n**Recommendation:** %s\n", f.Recommendation))
	}

	if withSuggestion {
		sb.WriteString("\n```suggestion\n")
		sb.WriteString(strings.TrimRight(f.Suggestion, "\n"))
		sb.WriteString("\n```\n")
	}

	return sb.String()
}
