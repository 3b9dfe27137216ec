// Package filter reduces a validated finding list to the set worth posting.
// Stages run in a fixed order and each is individually configurable; the
// output preserves input order.
package filter

import (
	"strings"

	"github.com/critique-dev/critique/internal/domain"
)

// RuleKind selects how a rule's patterns are matched.
type RuleKind int

const (
	// RuleText matches any pattern as a case-insensitive substring of the
	// finding's title or description.
	RuleText RuleKind = iota
	// RuleCategory matches when the finding's category equals any pattern.
	RuleCategory
)

// Rule is one named exclusion predicate. Rules are independent and
// unordered; a finding is excluded if any enabled rule matches.
type Rule struct {
	Name     string
	Kind     RuleKind
	Patterns []string
	// Categories restricts the rule to findings whose category is in the
	// set. Empty means the rule applies regardless of category.
	Categories []string
}

// Matches reports whether the rule excludes the given finding.
func (r Rule) Matches(f domain.Finding) bool {
	if len(r.Categories) > 0 && !containsFold(r.Categories, f.Category) {
		return false
	}

	switch r.Kind {
	case RuleCategory:
		return containsFold(r.Patterns, f.Category)
	default:
		text := strings.ToLower(f.Title + " " + f.Description)
		for _, p := range r.Patterns {
			if strings.Contains(text, strings.ToLower(p)) {
				return true
			}
		}
		return false
	}
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

// BuiltinRules are the always-available hard exclusion families. Custom
// rules are appended to these, never replace them, unless built-ins are
// globally disabled.
func BuiltinRules() []Rule {
	return []Rule{
		{
			Name: "style-only",
			Kind: RuleText,
			Patterns: []string{
				"naming convention",
				"formatting",
				"indentation",
				"whitespace",
				"code style",
				"stylistic",
				"spacing",
			},
		},
		{
			Name: "documentation-only",
			Kind: RuleText,
			Patterns: []string{
				"missing documentation",
				"missing docstring",
				"missing doc comment",
				"documentation typo",
				"comment wording",
				"typo in comment",
			},
		},
		{
			Name: "hypothetical",
			Kind: RuleText,
			Patterns: []string{
				"could potentially",
				"might theoretically",
				"hypothetical",
				"in theory",
				"consider adding",
				"may want to",
			},
		},
		{
			Name:       "security-boilerplate",
			Kind:       RuleText,
			Categories: []string{"security"},
			Patterns: []string{
				"denial of service",
				"resource exhaustion",
				"rate limit",
				"rate-limit",
			},
		},
	}
}

// excludedDirs are path segments that never carry reviewable findings.
// User-configured directories are appended to this set.
var excludedDirs = []string{
	"node_modules",
	"vendor",
	"dist",
	"build",
	".next",
	"__pycache__",
	".gradle",
	"Pods",
	"DerivedData",
}

// BuiltinExcludedDirs returns a copy of the always-excluded directory set.
func BuiltinExcludedDirs() []string {
	return append([]string(nil), excludedDirs...)
}

// UnderExcludedDir reports whether the path falls under any of the given
// directories. Matching is by path segment: "dist" excludes "dist/app.js"
// and "web/dist/app.js" but not "distribute.go".
func UnderExcludedDir(path string, dirs []string) bool {
	for _, dir := range dirs {
		normalized := strings.TrimPrefix(dir, "./")
		if normalized == "" {
			continue
		}
		if strings.HasPrefix(path, normalized+"/") {
			return true
		}
		if strings.Contains(path, "/"+normalized+"/") {
			return true
		}
	}
	return false
}
