package teams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/epy0n0ff/bors-auth/internal/logger"
	"github.com/epy0n0ff/bors-auth/internal/metrics"
)

const (
	// DefaultBaseURL is the public rust-lang team API
	DefaultBaseURL = "https://team-api.infra.rust-lang.org/v1/"

	// DefaultTimeout bounds a single team API request when none is configured
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrUnexpectedStatus is returned for any non-2xx response
	ErrUnexpectedStatus = errors.New("unexpected status from team API")

	// ErrMissingIDs is returned when a permission document has no github_ids
	ErrMissingIDs = errors.New("team API response has no github_ids")
)

// Config holds the team API settings
type Config struct {
	// BaseURL is the service root; permission paths are resolved against it
	BaseURL string `yaml:"base_url" env:"TEAM_API_BASE_URL" env-default:"https://team-api.infra.rust-lang.org/v1/"`

	// Timeout bounds a single HTTP request, not the whole lookup
	Timeout time.Duration `yaml:"timeout" env:"TEAM_API_TIMEOUT" env-default:"30s"`

	Retry RetryPolicy `yaml:"retry"`
}

// permissionDocument is the subset of the team API response we read
type permissionDocument struct {
	GitHubIDs *[]int64 `json:"github_ids"`
}

// Resolver looks up which GitHub user ids hold a bors permission on a repository
type Resolver struct {
	base       *url.URL
	httpClient *http.Client
	policy     RetryPolicy
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Option customizes a Resolver
type Option func(*Resolver)

// WithHTTPClient replaces the HTTP client used for requests
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = c
	}
}

// WithMetrics records fetch attempts on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New creates a Resolver for the configured team API
func New(cfg *Config, log *zap.Logger, opts ...Option) (*Resolver, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid team API base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("team API base URL must be http or https, got %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	policy := cfg.Retry
	if policy.Attempts == 0 {
		policy = DefaultRetryPolicy()
	}

	r := &Resolver{
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		logger:     logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// PermissionPath returns the escaped team API path for a repository and level.
// The team API names repositories with underscores where GitHub uses hyphens.
// Both parts are escaped so a label can never leave the permissions directory.
func PermissionPath(repoLabel, level string) string {
	repo := strings.ReplaceAll(repoLabel, "-", "_")
	return fmt.Sprintf("permissions/bors.%s.%s.json", url.PathEscape(repo), url.PathEscape(level))
}

// Members returns the GitHub ids allowed at level on repoLabel.
//
// Failed attempts are logged and retried according to the retry policy. When
// every attempt fails the result is an empty slice, so an unreachable team API
// can only deny access, never grant it.
func (r *Resolver) Members(ctx context.Context, repoLabel, level string) []int64 {
	if ctx == nil {
		ctx = context.Background()
	}

	ref, err := url.Parse(PermissionPath(repoLabel, level))
	if err != nil {
		r.logger.Error("invalid team permission path, treating roster as empty",
			zap.String("repo", repoLabel),
			zap.String("level", level),
			zap.Error(err))
		return []int64{}
	}
	endpoint := r.base.ResolveReference(ref).String()

	var ids []int64
	attempt := 0
	operation := func() error {
		got, err := r.fetch(ctx, endpoint)
		if err != nil {
			r.logger.Warn("error while fetching team permissions",
				zap.String("url", endpoint),
				zap.Int("attempt", attempt),
				zap.Error(err))
			r.metrics.ObserveTeamFetch(level, metrics.OutcomeFailure)
			attempt++
			return err
		}
		r.metrics.ObserveTeamFetch(level, metrics.OutcomeSuccess)
		ids = got
		return nil
	}

	if err := backoff.Retry(operation, r.policy.BackOff(ctx)); err != nil {
		r.logger.Error("team permissions unavailable, treating roster as empty",
			zap.String("repo", repoLabel),
			zap.String("level", level),
			zap.Int("attempts", attempt),
			zap.Error(err))
		r.metrics.ObserveTeamExhausted(level)
		return []int64{}
	}

	return ids
}

// fetch performs a single GET against the team API
func (r *Resolver) fetch(ctx context.Context, endpoint string) ([]int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	var doc permissionDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode team API response: %w", err)
	}
	if doc.GitHubIDs == nil {
		return nil, ErrMissingIDs
	}

	return *doc.GitHubIDs, nil
}
