// Package changeset provides the current diff to the pipeline, either from
// the host API or from a local clone. Both sources drop files nobody
// reviews: lock files, generated code, binaries.
package changeset

import (
	"context"
	"path"

	"github.com/critique-dev/critique/internal/domain"
)

// Source produces the changeset for the revision under review.
type Source interface {
	Fetch(ctx context.Context) (domain.Changeset, error)
}

// excludedPatterns are file names and globs that are never worth review
// attention. Matched against the base name of each path.
var excludedPatterns = []string{
	// Package manager lock files
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"Gemfile.lock",
	"Pipfile.lock",
	"poetry.lock",
	"composer.lock",
	"Cargo.lock",
	"go.sum",
	"pubspec.lock",
	"Podfile.lock",
	"packages.lock.json",
	// Generated/compiled files
	"*.min.js",
	"*.min.css",
	"*.bundle.js",
	"*.chunk.js",
	"*.map",
	"*.pb.go",
	"*.pb.swift",
	"*.generated.*",
	"*.g.dart",
	"*.freezed.dart",
	// Binary files
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.gif",
	"*.ico",
	"*.webp",
	"*.svg",
	"*.woff",
	"*.woff2",
	"*.ttf",
	"*.eot",
	"*.pdf",
	"*.zip",
	"*.tar.gz",
	"*.jar",
	"*.pyc",
	"*.so",
	"*.dylib",
	"*.dll",
	"*.exe",
}

// ExcludedFile reports whether a path matches the built-in exclusion
// patterns.
func ExcludedFile(filename string) bool {
	base := path.Base(filename)
	for _, pattern := range excludedPatterns {
		if ok, err := path.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func dropExcluded(files []domain.ChangesetFile) []domain.ChangesetFile {
	kept := files[:0:0]
	for _, f := range files {
		if ExcludedFile(f.Filename) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}
