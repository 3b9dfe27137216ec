package changeset

import (
	"context"

	"github.com/critique-dev/critique/internal/adapter/github"
	"github.com/critique-dev/critique/internal/domain"
)

// GitHubSource reads the changed files of the pull request from the host
// API. revision is the head commit under review.
type GitHubSource struct {
	client   *github.Client
	revision string
}

func NewGitHubSource(client *github.Client, revision string) *GitHubSource {
	return &GitHubSource{client: client, revision: revision}
}

func (s *GitHubSource) Fetch(ctx context.Context) (domain.Changeset, error) {
	files, err := s.client.ListChangedFiles(ctx)
	if err != nil {
		return domain.Changeset{}, err
	}
	return domain.Changeset{
		Revision: s.revision,
		Files:    dropExcluded(files),
	}, nil
}
