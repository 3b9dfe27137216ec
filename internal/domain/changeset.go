package domain

// ChangesetFile is one file in the diff under review.
type ChangesetFile struct {
	// Filename is the path on the after side of the change.
	Filename string

	// Status is the change kind as reported by the host
	// (added, modified, removed, renamed).
	Status string

	// Patch is the unified-diff hunk text for this file. Empty for binary
	// or oversized files, which therefore cannot anchor comments.
	Patch string
}

// Changeset is the full set of changed files for one revision.
type Changeset struct {
	Revision string
	Files    []ChangesetFile
}

// File returns the entry for an exact filename match.
func (c Changeset) File(name string) (ChangesetFile, bool) {
	for _, f := range c.Files {
		if f.Filename == name {
			return f, true
		}
	}
	return ChangesetFile{}, false
}
