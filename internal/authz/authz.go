package authz

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/epy0n0ff/bors-auth/internal/config"
	"github.com/epy0n0ff/bors-auth/internal/github"
	"github.com/epy0n0ff/bors-auth/internal/logger"
	"github.com/epy0n0ff/bors-auth/internal/metrics"
	"github.com/epy0n0ff/bors-auth/internal/teams"
)

// Authorizer decides whether a user may run a privileged bors command.
// It keeps no state between calls and is safe for concurrent use as long as
// the resolver and the Env handles are.
type Authorizer struct {
	resolver TeamResolver
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New creates an Authorizer. resolver is consulted only for repositories
// with team-based authorization enabled.
func New(resolver TeamResolver, log *zap.Logger, m *metrics.Metrics) *Authorizer {
	return &Authorizer{
		resolver: resolver,
		logger:   logger.OrNop(log),
		metrics:  m,
	}
}

// NewFromConfig wires an Authorizer and its team resolver from the bot
// configuration, registering metrics on reg when it is non-nil.
func NewFromConfig(cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*Authorizer, error) {
	m := metrics.New(reg)

	resolver, err := teams.New(&cfg.TeamAPI, log, teams.WithMetrics(m))
	if err != nil {
		return nil, fmt.Errorf("failed to create team resolver: %w", err)
	}

	return New(resolver, log, m), nil
}

// NewEnv builds the per-pull-request Env from the bot configuration. The
// GitHub client authenticates with cfg.GitHub.Token against github.com or
// cfg.GitHub.Host, and serves both as collaborator checker and comment sink.
func NewEnv(cfg *config.Config, owner, repo string, prNumber int, delegate string, log *zap.Logger, opts ...github.ClientOption) (Env, error) {
	client, err := github.NewClient(cfg.GitHub.Token, owner, repo, prNumber, cfg.GitHub.Host, opts...)
	if err != nil {
		return Env{}, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	return Env{
		BotUsername:   cfg.BotUsername,
		Delegate:      delegate,
		Collaborators: client,
		Notifier:      github.NewCommentSink(client, log),
	}, nil
}

// Decide evaluates req without side effects other than the lookups the
// rules perform.
func (a *Authorizer) Decide(ctx context.Context, env Env, req Request) Verdict {
	// the bot replays its own hidden comments to rebuild state after a restart
	if env.BotUsername != "" && req.Actor.Username == env.BotUsername {
		return Verdict{Allowed: true, Rule: RuleSelf}
	}

	for _, rule := range Rules(req.Config, req.Level, a.resolver, a.logger) {
		if rule.Allow(ctx, env, req) {
			return Verdict{Allowed: true, Rule: rule.Name()}
		}
	}

	return Verdict{Allowed: false, Rule: RuleNone, Denial: DenialReason(req.Config, req.Level)}
}

// Verify reports whether req is authorized. When it is not and the request
// is realtime, the denial is posted through env.Notifier. Errors never reach
// the caller: failures deny.
func (a *Authorizer) Verify(ctx context.Context, env Env, req Request) bool {
	verdict := a.Decide(ctx, env, req)
	a.metrics.ObserveDecision(req.Level.String(), verdict.Rule, verdict.Allowed)

	fields := []zap.Field{
		zap.String("user", req.Actor.Username),
		zap.Int64("user_id", req.Actor.UserID),
		zap.String("repo", req.RepoLabel),
		zap.Stringer("level", req.Level),
		zap.String("rule", verdict.Rule),
	}

	if verdict.Allowed {
		a.logger.Debug("command authorized", fields...)
		return true
	}

	a.logger.Info("command denied", append(fields, zap.Bool("realtime", req.Realtime))...)

	if req.Realtime && env.Notifier != nil {
		reply := DenialMessage(req.Actor.Username, verdict.Denial)
		if err := env.Notifier.AddComment(ctx, reply); err != nil {
			a.logger.Warn("failed to announce denial", append(fields, zap.Error(err))...)
		}
	}

	return false
}

// DenialReason explains why level was refused under cfg
func DenialReason(cfg RepoConfig, level Level) string {
	switch level {
	case LevelReviewer:
		if cfg.Bool(KeyAuthCollaborators) {
			return "Collaborator required"
		}
		return "Not in reviewers"
	case LevelTry:
		return "not in try users"
	default:
		return ""
	}
}

// DenialMessage formats the comment posted to a refused user
func DenialMessage(username, reason string) string {
	return fmt.Sprintf("@%s: :key: Insufficient privileges: %s", username, reason)
}
