package github

import (
	"context"
	"fmt"

	"github.com/critique-dev/critique/internal/domain"
)

// ListChangedFiles fetches every file in the pull request's diff, with its
// per-file patch. Binary and oversized files come back without a patch and
// stay that way; the anchoring resolver treats them as unanchorable.
func (c *Client) ListChangedFiles(ctx context.Context) ([]domain.ChangesetFile, error) {
	var all []domain.ChangesetFile
	for page := 1; ; page++ {
		url := c.prPath(fmt.Sprintf("/files?per_page=100&page=%d", page))

		var files []changedFilePayload
		if err := c.do(ctx, "GET", url, nil, &files); err != nil {
			return nil, err
		}
		for _, f := range files {
			all = append(all, domain.ChangesetFile{
				Filename: f.Filename,
				Status:   f.Status,
				Patch:    f.Patch,
			})
		}
		if len(files) < 100 {
			return all, nil
		}
	}
}
