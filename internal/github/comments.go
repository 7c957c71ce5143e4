package github

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/epy0n0ff/bors-auth/internal/logger"
)

// maxCommentRetries bounds rate-limit retries when posting a comment
const maxCommentRetries = 3

// CommentSink posts bot replies as pull request comments
type CommentSink struct {
	client Client
	logger *zap.Logger
}

// NewCommentSink creates a CommentSink that posts through client
func NewCommentSink(client Client, log *zap.Logger) *CommentSink {
	return &CommentSink{
		client: client,
		logger: logger.OrNop(log),
	}
}

// AddComment posts body on the pull request, retrying on rate limits
func (s *CommentSink) AddComment(ctx context.Context, body string) error {
	result := PostIssueComment(ctx, s.client, body)

	if result.Status != StatusPosted {
		s.logger.Warn("failed to post comment",
			zap.Int("retries", result.Retries),
			zap.String("error", result.Error))
		return fmt.Errorf("failed to post comment: %s", result.Error)
	}

	s.logger.Debug("posted comment",
		zap.Int64("comment_id", result.CommentID),
		zap.String("url", result.CommentURL),
		zap.Int("retries", result.Retries))
	return nil
}

// PostIssueComment posts a single PR-level comment with rate-limit retries
func PostIssueComment(ctx context.Context, client Client, body string) CommentResult {
	var resp *PostCommentResponse
	retries, err := RetryWithBackoff(ctx, func() error {
		var err error
		resp, err = client.CreateIssueComment(ctx, body)
		return err
	}, maxCommentRetries)

	if err != nil {
		return CommentResult{
			Status:  StatusError,
			Error:   err.Error(),
			Retries: retries,
		}
	}

	return CommentResult{
		Status:     StatusPosted,
		CommentID:  resp.ID,
		CommentURL: resp.HTMLURL,
		Retries:    retries,
	}
}
