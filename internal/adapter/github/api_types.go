package github

// Wire types for the Pull Request Reviews API. Field names follow the
// GitHub REST v3 payloads.

type userPayload struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

type reviewPayload struct {
	ID    int64       `json:"id"`
	State string      `json:"state"`
	Body  string      `json:"body"`
	User  userPayload `json:"user"`
}

type reviewCommentInput struct {
	Path      string `json:"path"`
	Body      string `json:"body"`
	Line      int    `json:"line"`
	Side      string `json:"side"`
	StartLine int    `json:"start_line,omitempty"`
	StartSide string `json:"start_side,omitempty"`
}

type createReviewRequest struct {
	CommitID string               `json:"commit_id,omitempty"`
	Event    string               `json:"event"`
	Body     string               `json:"body"`
	Comments []reviewCommentInput `json:"comments,omitempty"`
}

type updateReviewRequest struct {
	Body string `json:"body"`
}

type dismissReviewRequest struct {
	Message string `json:"message"`
	Event   string `json:"event"`
}

type standaloneCommentRequest struct {
	Body      string `json:"body"`
	CommitID  string `json:"commit_id"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Side      string `json:"side"`
	StartLine int    `json:"start_line,omitempty"`
	StartSide string `json:"start_side,omitempty"`
}

type commentPayload struct {
	ID int64 `json:"id"`
}

type reactionRequest struct {
	Content string `json:"content"`
}

type changedFilePayload struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Patch    string `json:"patch"`
}
