package authz

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/epy0n0ff/bors-auth/internal/logger"
)

// Rule names as reported in verdicts, logs and metrics
const (
	RuleSelf         = "self"
	RuleCollaborator = "collaborator"
	RuleTeam         = "team"
	RuleDelegate     = "delegate"
	RuleNone         = "none"
)

// Rule is one way of being granted a level
type Rule interface {
	Name() string
	Allow(ctx context.Context, env Env, req Request) bool
}

// Rules returns the rules for level under cfg, in evaluation order. The first
// rule that allows wins.
//
// Team membership replaces the collaborator check when both are enabled, so a
// collaborator outside the team is not granted access by being a collaborator.
func Rules(cfg RepoConfig, level Level, resolver TeamResolver, log *zap.Logger) []Rule {
	if level.TeamLevel() == "" {
		return nil
	}

	var rules []Rule
	switch {
	case cfg.Bool(KeyRustTeam):
		rules = append(rules, teamRule{resolver: resolver})
	case cfg.Bool(KeyAuthCollaborators):
		rules = append(rules, collaboratorRule{logger: logger.OrNop(log)})
	}

	rules = append(rules, delegateRule{})

	for _, key := range level.AllowListKeys() {
		rules = append(rules, allowListRule{key: key})
	}

	return rules
}

// collaboratorRule grants repository collaborators
type collaboratorRule struct {
	logger *zap.Logger
}

func (collaboratorRule) Name() string { return RuleCollaborator }

func (r collaboratorRule) Allow(ctx context.Context, env Env, req Request) bool {
	if env.Collaborators == nil {
		return false
	}

	ok, err := env.Collaborators.IsCollaborator(ctx, req.Actor.Username)
	if err != nil {
		r.logger.Warn("collaborator lookup failed, not granting",
			zap.String("user", req.Actor.Username),
			zap.String("repo", req.RepoLabel),
			zap.Error(err))
		return false
	}
	return ok
}

// teamRule grants members of the team roster for the level
type teamRule struct {
	resolver TeamResolver
}

func (teamRule) Name() string { return RuleTeam }

func (r teamRule) Allow(ctx context.Context, _ Env, req Request) bool {
	if r.resolver == nil {
		return false
	}
	return slices.Contains(r.resolver.Members(ctx, req.RepoLabel, req.Level.TeamLevel()), req.Actor.UserID)
}

// delegateRule grants the repository's delegate, ignoring case
type delegateRule struct{}

func (delegateRule) Name() string { return RuleDelegate }

func (delegateRule) Allow(_ context.Context, env Env, req Request) bool {
	if env.Delegate == "" || req.Actor.Username == "" {
		return false
	}
	return strings.EqualFold(req.Actor.Username, env.Delegate)
}

// allowListRule grants users named in one configured list, matching case exactly
type allowListRule struct {
	key string
}

func (r allowListRule) Name() string { return "allow_list:" + r.key }

func (r allowListRule) Allow(_ context.Context, _ Env, req Request) bool {
	return slices.Contains(req.Config.List(r.key), req.Actor.Username)
}
