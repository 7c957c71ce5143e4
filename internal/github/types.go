package github

import "time"

// PostCommentResponse represents the response from posting a comment
type PostCommentResponse struct {
	ID        int64     `json:"id"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment statuses
const (
	StatusPosted = "posted"
	StatusError  = "error"
)

// CommentResult represents the result of posting a comment
type CommentResult struct {
	// Status: "posted" or "error"
	Status string `json:"status"`

	// Comment ID if successfully posted
	CommentID int64 `json:"comment_id,omitempty"`

	// Comment URL if successfully posted
	CommentURL string `json:"comment_url,omitempty"`

	// Error message if status is "error"
	Error string `json:"error,omitempty"`

	// Retries performed before the final outcome
	Retries int `json:"retries"`
}
