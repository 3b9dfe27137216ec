package changeset

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/critique-dev/critique/internal/domain"
)

// LocalSource computes the changeset from a local clone by diffing a base
// revision against HEAD. Used when running outside the host's CI, where no
// changed-files API is available.
type LocalSource struct {
	path    string
	baseRef string
}

func NewLocalSource(path, baseRef string) *LocalSource {
	return &LocalSource{path: path, baseRef: baseRef}
}

func (s *LocalSource) Fetch(ctx context.Context) (domain.Changeset, error) {
	repo, err := git.PlainOpen(s.path)
	if err != nil {
		return domain.Changeset{}, fmt.Errorf("opening repository %s: %w", s.path, err)
	}

	headRef, err := repo.Head()
	if err != nil {
		return domain.Changeset{}, fmt.Errorf("resolving HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return domain.Changeset{}, fmt.Errorf("loading HEAD commit: %w", err)
	}

	baseHash, err := repo.ResolveRevision(plumbing.Revision(s.baseRef))
	if err != nil {
		return domain.Changeset{}, fmt.Errorf("resolving base %q: %w", s.baseRef, err)
	}
	baseCommit, err := repo.CommitObject(*baseHash)
	if err != nil {
		return domain.Changeset{}, fmt.Errorf("loading base commit: %w", err)
	}

	patch, err := baseCommit.PatchContext(ctx, headCommit)
	if err != nil {
		return domain.Changeset{}, fmt.Errorf("computing diff: %w", err)
	}

	files := dropExcluded(splitPerFile(patch.String()))
	return domain.Changeset{
		Revision: headRef.Hash().String(),
		Files:    files,
	}, nil
}

// splitPerFile cuts a multi-file unified diff into per-file entries. The
// per-file text keeps its headers; the hunk parser skips them.
func splitPerFile(diff string) []domain.ChangesetFile {
	var files []domain.ChangesetFile

	sections := strings.Split(diff, "diff --git ")
	for _, section := range sections {
		if strings.TrimSpace(section) == "" {
			continue
		}

		lines := strings.SplitN(section, "\n", 2)
		name := filenameFromHeader(lines[0], section)
		if name == "" {
			continue
		}

		files = append(files, domain.ChangesetFile{
			Filename: name,
			Status:   statusFromSection(section),
			Patch:    "diff --git " + section,
		})
	}

	return files
}

// filenameFromHeader extracts the path from "a/<from> b/<to>". Deleted
// files only exist on the a/ side.
func filenameFromHeader(header, section string) string {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return ""
	}

	if strings.Contains(section, "\ndeleted file mode") {
		return strings.TrimPrefix(fields[0], "a/")
	}
	return strings.TrimPrefix(fields[len(fields)-1], "b/")
}

func statusFromSection(section string) string {
	switch {
	case strings.Contains(section, "\nnew file mode"):
		return "added"
	case strings.Contains(section, "\ndeleted file mode"):
		return "removed"
	default:
		return "modified"
	}
}
