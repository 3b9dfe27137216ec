// Package artifact reads the files the upstream analysis step leaves
// behind: the findings list, the required analysis summary, and the
// optional PR summary.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/extract"
)

// ErrMissingSummary marks a missing or unreadable analysis summary. The
// run aborts on it: without severity counts the approve/request-changes
// decision cannot be made safely.
var ErrMissingSummary = errors.New("analysis summary artifact missing or unreadable")

// ReadFindings loads the findings artifact. The file is engine-adjacent
// output, so the tolerant extractor handles it; a missing file or an
// unparseable payload degrades to zero findings with the cause returned
// alongside for logging.
func ReadFindings(path string) ([]domain.Finding, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reading findings artifact: %w", err)
	}

	result, err := extract.Findings(string(data))
	if err != nil {
		return nil, 0, err
	}
	return result.Findings, result.Dropped, nil
}

// ReadSummary loads the required analysis summary artifact.
func ReadSummary(path string) (domain.AnalysisSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.AnalysisSummary{}, fmt.Errorf("%w: %v", ErrMissingSummary, err)
	}

	var summary domain.AnalysisSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.AnalysisSummary{}, fmt.Errorf("%w: %v", ErrMissingSummary, err)
	}
	if summary.FilesReviewed < 0 || summary.HighSeverity < 0 || summary.MediumSeverity < 0 {
		return domain.AnalysisSummary{}, fmt.Errorf("%w: negative counts", ErrMissingSummary)
	}
	return summary, nil
}

// ReadPRSummary loads the optional PR summary artifact. A missing file is
// not an error; the review body simply omits its section.
func ReadPRSummary(path string) (*domain.PRSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading PR summary artifact: %w", err)
	}

	var summary domain.PRSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parsing PR summary artifact: %w", err)
	}
	return &summary, nil
}
