package github

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockClient is a mock implementation of the GitHub Client interface
type MockClient struct {
	IsCollaboratorFunc     func(ctx context.Context, username string) (bool, error)
	CreateIssueCommentFunc func(ctx context.Context, body string) (*PostCommentResponse, error)
}

func (m *MockClient) IsCollaborator(ctx context.Context, username string) (bool, error) {
	if m.IsCollaboratorFunc != nil {
		return m.IsCollaboratorFunc(ctx, username)
	}
	return false, nil
}

func (m *MockClient) CreateIssueComment(ctx context.Context, body string) (*PostCommentResponse, error) {
	if m.CreateIssueCommentFunc != nil {
		return m.CreateIssueCommentFunc(ctx, body)
	}
	return &PostCommentResponse{ID: 123, HTMLURL: "https://github.com/test"}, nil
}

func TestPostIssueComment_Success(t *testing.T) {
	var gotBody string
	mockClient := &MockClient{
		CreateIssueCommentFunc: func(ctx context.Context, body string) (*PostCommentResponse, error) {
			gotBody = body
			return &PostCommentResponse{ID: 7, HTMLURL: "https://github.com/rust-lang/rust/pull/1#issuecomment-7"}, nil
		},
	}

	result := PostIssueComment(context.Background(), mockClient, "hello")

	assert.Equal(t, "hello", gotBody)
	assert.Equal(t, StatusPosted, result.Status)
	assert.Equal(t, int64(7), result.CommentID)
	assert.Equal(t, "https://github.com/rust-lang/rust/pull/1#issuecomment-7", result.CommentURL)
	assert.Zero(t, result.Retries)
}

func TestPostIssueComment_RateLimitRetry(t *testing.T) {
	fastRetries(t)

	calls := 0
	mockClient := &MockClient{
		CreateIssueCommentFunc: func(ctx context.Context, body string) (*PostCommentResponse, error) {
			calls++
			if calls == 1 {
				return nil, rateLimitErr()
			}
			return &PostCommentResponse{ID: 8}, nil
		},
	}

	result := PostIssueComment(context.Background(), mockClient, "hello")

	assert.Equal(t, StatusPosted, result.Status)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, result.Retries)
}

func TestPostIssueComment_Error(t *testing.T) {
	mockClient := &MockClient{
		CreateIssueCommentFunc: func(ctx context.Context, body string) (*PostCommentResponse, error) {
			return nil, errors.New("issue is locked")
		},
	}

	result := PostIssueComment(context.Background(), mockClient, "hello")

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, "issue is locked", result.Error)
}

func TestCommentSink_AddComment(t *testing.T) {
	var posted []string
	mockClient := &MockClient{
		CreateIssueCommentFunc: func(ctx context.Context, body string) (*PostCommentResponse, error) {
			posted = append(posted, body)
			return &PostCommentResponse{ID: 1}, nil
		},
	}

	sink := NewCommentSink(mockClient, nil)
	require.NoError(t, sink.AddComment(context.Background(), "@dave: :key: Insufficient privileges: Not in reviewers"))

	assert.Equal(t, []string{"@dave: :key: Insufficient privileges: Not in reviewers"}, posted)
}

func TestCommentSink_AddCommentFailure(t *testing.T) {
	mockClient := &MockClient{
		CreateIssueCommentFunc: func(ctx context.Context, body string) (*PostCommentResponse, error) {
			return nil, errors.New("forbidden")
		},
	}

	core, logs := observer.New(zapcore.WarnLevel)
	sink := NewCommentSink(mockClient, zap.New(core))

	err := sink.AddComment(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Equal(t, 1, logs.FilterMessage("failed to post comment").Len())
}
