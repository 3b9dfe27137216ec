// Package summary renders the review body posted with every run and the
// machine-detectable markers embedded in it. The markers are how a later
// run proves a review is ours and compares finding counts without parsing
// prose.
package summary

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/critique-dev/critique/internal/domain"
)

// ReviewMarker identifies a review body as produced by this tool. Bodies
// without it are never updated or dismissed.
const ReviewMarker = "<!-- CRITIQUE_REVIEW_V1 -->"

const countsFormat = "<!-- CRITIQUE_COUNTS high=%d medium=%d low=%d -->"

var countsRegex = regexp.MustCompile(`<!-- CRITIQUE_COUNTS high=(\d+) medium=(\d+) low=(\d+) -->`)

var titleCaser = cases.Title(language.English)

// Input is everything the body renders from. Counts and Categories must be
// the post-filter numbers.
type Input struct {
	Counts        domain.SeverityCounts
	Categories    map[string]int
	FilesReviewed int
	// DroppedUnanchorable is how many findings survived filtering but could
	// not be placed in the diff. Mentioned so reviewers know the inline
	// comments may undercount.
	DroppedUnanchorable int
	// PRSummary optionally adds a collapsible overview of the change itself.
	PRSummary *domain.PRSummary
}

// BuildBody renders the review body, markers included.
func BuildBody(in Input) string {
	var sb strings.Builder

	sb.WriteString("## Automated Review\n\n")

	if in.PRSummary != nil && in.PRSummary.Overview != "" {
		sb.WriteString(in.PRSummary.Overview)
		sb.WriteString("\n\n")
	}

	if in.Counts.Total() == 0 {
		sb.WriteString(fmt.Sprintf("✅ No issues found across %d reviewed file(s).\n", in.FilesReviewed))
	} else {
		sb.WriteString(fmt.Sprintf("Reviewed %d file(s). **Findings:** %d high, %d medium, %d low.\n",
			in.FilesReviewed, in.Counts.High, in.Counts.Medium, in.Counts.Low))
		writeCategories(&sb, in.Categories)
	}

	if in.DroppedUnanchorable > 0 {
		sb.WriteString(fmt.Sprintf("\n_%d finding(s) referenced code outside the visible diff and are not shown inline._\n", in.DroppedUnanchorable))
	}

	writeFileChanges(&sb, in.PRSummary)

	sb.WriteString("\n")
	sb.WriteString(ReviewMarker)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf(countsFormat, in.Counts.High, in.Counts.Medium, in.Counts.Low))
	sb.WriteString("\n")

	return sb.String()
}

func writeCategories(sb *strings.Builder, categories map[string]int) {
	if len(categories) == 0 {
		return
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("\n")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("- **%s:** %d\n", titleCaser.String(name), categories[name]))
	}
}

func writeFileChanges(sb *strings.Builder, pr *domain.PRSummary) {
	if pr == nil || len(pr.FileChanges) == 0 {
		return
	}

	sb.WriteString("\n<details>\n<summary>Changes overview</summary>\n\n")
	for _, group := range pr.FileChanges {
		sb.WriteString(fmt.Sprintf("**%s** (%s)\n\n%s\n\n", group.Label, group.Files, group.Changes))
	}
	sb.WriteString("</details>\n")
}

// HasMarker reports whether a body carries the ownership marker.
func HasMarker(body string) bool {
	return strings.Contains(body, ReviewMarker)
}

// ParseCounts extracts the counts block from a previously posted body.
// Returns false when the block is absent or mangled.
func ParseCounts(body string) (domain.SeverityCounts, bool) {
	m := countsRegex.FindStringSubmatch(body)
	if m == nil {
		return domain.SeverityCounts{}, false
	}

	var counts domain.SeverityCounts
	if _, err := fmt.Sscanf(m[0], countsFormat, &counts.High, &counts.Medium, &counts.Low); err != nil {
		return domain.SeverityCounts{}, false
	}
	return counts, true
}
