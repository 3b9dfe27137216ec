package domain

// AnalysisSummary is the required per-run summary artifact written by the
// upstream analysis step. Without it the review decision cannot be made, so
// a run with a missing or unreadable summary aborts before any host mutation.
type AnalysisSummary struct {
	FilesReviewed   int  `json:"files_reviewed"`
	HighSeverity    int  `json:"high_severity"`
	MediumSeverity  int  `json:"medium_severity"`
	LowSeverity     int  `json:"low_severity"`
	ReviewCompleted bool `json:"review_completed"`
}

// FileChangeGroup is one labelled group of files in the optional PR summary.
type FileChangeGroup struct {
	Label   string `json:"label"`
	Files   string `json:"files"`
	Changes string `json:"changes"`
}

// PRSummary is the optional overview artifact rendered into the review
// body's collapsible detail section. Absence degrades to no section.
type PRSummary struct {
	Overview    string            `json:"overview"`
	FileChanges []FileChangeGroup `json:"file_changes"`
}
