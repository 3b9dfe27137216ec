// Package diff parses the hunks-only unified patches the host API returns
// per changed file and answers which post-change line numbers are visible
// in the rendered diff. Inline review comments may only anchor to those
// lines; anything else is rejected by the host.
package diff

import (
	"strconv"
	"strings"
)

// LineType represents the type of a line in a diff hunk.
type LineType int

const (
	// LineContext represents an unchanged context line (starts with ' ').
	LineContext LineType = iota
	// LineAddition represents an added line (starts with '+').
	LineAddition
	// LineDeletion represents a deleted line (starts with '-').
	LineDeletion
)

// Line is a single line in a diff hunk.
type Line struct {
	Type    LineType
	Content string
	// AfterLine is the line number in the post-change file.
	// Zero for deletions, which exist only on the before side.
	AfterLine int
}

// Hunk is a single @@ section of a unified patch.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// Patch is a parsed per-file patch.
type Patch struct {
	Hunks []Hunk
}

// Parse parses a unified patch string as returned by the host's changed-files
// API: hunks only, no "diff --git" or index headers required (they are
// skipped if present). An empty patch parses to an empty Patch, which
// anchors nothing.
func Parse(patch string) Patch {
	if patch == "" {
		return Patch{}
	}

	var result Patch
	var current *Hunk
	afterLine := 0

	for _, raw := range strings.Split(patch, "\n") {
		if raw == "" {
			continue
		}

		// File headers appear when the patch came from plain `git diff`.
		if strings.HasPrefix(raw, "diff --git") ||
			strings.HasPrefix(raw, "index ") ||
			strings.HasPrefix(raw, "--- ") ||
			strings.HasPrefix(raw, "+++ ") ||
			strings.HasPrefix(raw, "\\ ") {
			continue
		}

		if strings.HasPrefix(raw, "@@") {
			if current != nil {
				result.Hunks = append(result.Hunks, *current)
			}
			hunk := parseHunkHeader(raw)
			current = &hunk
			afterLine = hunk.NewStart
			continue
		}

		if current == nil {
			continue
		}

		line := Line{Content: raw}
		switch raw[0] {
		case '+':
			line.Type = LineAddition
			line.Content = raw[1:]
			line.AfterLine = afterLine
			afterLine++
		case '-':
			line.Type = LineDeletion
			line.Content = raw[1:]
		case ' ':
			line.Type = LineContext
			line.Content = raw[1:]
			line.AfterLine = afterLine
			afterLine++
		default:
			// Tolerate missing prefixes from mangled patches.
			line.Type = LineContext
			line.AfterLine = afterLine
			afterLine++
		}
		current.Lines = append(current.Lines, line)
	}

	if current != nil {
		result.Hunks = append(result.Hunks, *current)
	}

	return result
}

// ContainsAfterLine reports whether the given post-change line number is
// visible in the patch, i.e. appears as an added or context line in some
// hunk. Only such lines can carry an inline comment.
func (p Patch) ContainsAfterLine(n int) bool {
	if n <= 0 {
		return false
	}
	for _, hunk := range p.Hunks {
		for _, line := range hunk.Lines {
			if line.AfterLine == n {
				return true
			}
		}
	}
	return false
}

// ContainsAfterRange reports whether every line of [start, end] is visible
// in the patch. Used for multi-line suggestion spans.
func (p Patch) ContainsAfterRange(start, end int) bool {
	if start <= 0 || end < start {
		return false
	}
	for n := start; n <= end; n++ {
		if !p.ContainsAfterLine(n) {
			return false
		}
	}
	return true
}

// AfterLines returns the sorted set of addressable post-change line numbers.
func (p Patch) AfterLines() []int {
	var lines []int
	for _, hunk := range p.Hunks {
		for _, line := range hunk.Lines {
			if line.AfterLine > 0 {
				lines = append(lines, line.AfterLine)
			}
		}
	}
	return lines
}

// parseHunkHeader parses "@@ -10,7 +10,8 @@ optional context".
// Malformed ranges parse to zeros, yielding a hunk that anchors nothing.
func parseHunkHeader(line string) Hunk {
	var hunk Hunk

	parts := strings.Split(line, "@@")
	if len(parts) < 2 {
		return hunk
	}

	for _, field := range strings.Fields(strings.TrimSpace(parts[1])) {
		switch {
		case strings.HasPrefix(field, "-"):
			hunk.OldStart, hunk.OldLines = parseRange(strings.TrimPrefix(field, "-"))
		case strings.HasPrefix(field, "+"):
			hunk.NewStart, hunk.NewLines = parseRange(strings.TrimPrefix(field, "+"))
		}
	}

	return hunk
}

// parseRange parses "start,count" or "start".
func parseRange(s string) (start, count int) {
	if idx := strings.Index(s, ","); idx >= 0 {
		start, _ = strconv.Atoi(s[:idx])
		count, _ = strconv.Atoi(s[idx+1:])
		return start, count
	}
	start, _ = strconv.Atoi(s)
	return start, 1
}
