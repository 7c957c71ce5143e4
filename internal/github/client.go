package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Client defines the GitHub API operations the authorization core relies on
type Client interface {
	// IsCollaborator reports whether username has push access to the repository
	IsCollaborator(ctx context.Context, username string) (bool, error)

	// CreateIssueComment posts a comment on the pull request conversation
	CreateIssueComment(ctx context.Context, body string) (*PostCommentResponse, error)
}

// ClientImpl is the concrete implementation using go-github, bound to one
// repository and one pull request
type ClientImpl struct {
	client      *github.Client
	owner       string
	repo        string
	issueNumber int
}

// ClientOption customizes the underlying go-github client
type ClientOption func(*github.Client) error

// WithBaseURL points the client at an explicit REST API root, such as a proxy
func WithBaseURL(rawURL string) ClientOption {
	return func(c *github.Client) error {
		if !strings.HasSuffix(rawURL, "/") {
			rawURL += "/"
		}
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid GitHub API URL %q: %w", rawURL, err)
		}
		c.BaseURL = u
		return nil
	}
}

// NewClient creates a new GitHub API client
func NewClient(token, owner, repo string, issueNumber int, ghHost string, opts ...ClientOption) (*ClientImpl, error) {
	if token == "" {
		return nil, errors.New("GitHub token is required")
	}
	if owner == "" {
		return nil, errors.New("owner is required")
	}
	if repo == "" {
		return nil, errors.New("repo is required")
	}
	if issueNumber <= 0 {
		return nil, errors.New("PR number must be positive")
	}

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	var ghClient *github.Client
	var err error

	if ghHost != "" {
		// GitHub Enterprise Server
		baseURL := "https://" + ghHost
		uploadURL := "https://" + ghHost

		ghClient, err = github.NewClient(tc).WithEnterpriseURLs(baseURL, uploadURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub Enterprise client for %s: %w", ghHost, err)
		}
	} else {
		ghClient = github.NewClient(tc)
	}

	for _, opt := range opts {
		if err := opt(ghClient); err != nil {
			return nil, err
		}
	}

	return newClientImpl(ghClient, owner, repo, issueNumber), nil
}

func newClientImpl(ghClient *github.Client, owner, repo string, issueNumber int) *ClientImpl {
	return &ClientImpl{
		client:      ghClient,
		owner:       owner,
		repo:        repo,
		issueNumber: issueNumber,
	}
}

// IsCollaborator reports whether username is a collaborator on the repository.
// GitHub answers 204 for collaborators and 404 otherwise.
func (c *ClientImpl) IsCollaborator(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, nil
	}

	isCollab, resp, err := c.client.Repositories.IsCollaborator(ctx, c.owner, c.repo, username)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check collaborator %s on %s/%s: %w", username, c.owner, c.repo, err)
	}

	return isCollab, nil
}

// CreateIssueComment posts a PR-level comment
func (c *ClientImpl) CreateIssueComment(ctx context.Context, body string) (*PostCommentResponse, error) {
	comment := &github.IssueComment{
		Body: github.String(body),
	}

	created, _, err := c.client.Issues.CreateComment(ctx, c.owner, c.repo, c.issueNumber, comment)
	if err != nil {
		return nil, err
	}

	return &PostCommentResponse{
		ID:        created.GetID(),
		HTMLURL:   created.GetHTMLURL(),
		CreatedAt: created.GetCreatedAt().Time,
	}, nil
}
