package authz

import "context"

// Level is the privilege a command asks for
type Level int

const (
	// LevelReviewer covers approvals (r+) and other reviewer-only commands
	LevelReviewer Level = iota + 1

	// LevelTry covers try builds
	LevelTry
)

// Repository configuration keys read by the decision
const (
	KeyAuthCollaborators = "auth_collaborators"
	KeyRustTeam          = "rust_team"
	KeyReviewers         = "reviewers"
	KeyTryUsers          = "try_users"
)

// String returns the level name used in logs and metrics
func (l Level) String() string {
	switch l {
	case LevelReviewer:
		return "reviewer"
	case LevelTry:
		return "try"
	default:
		return "unknown"
	}
}

// TeamLevel returns the permission name the team API uses for this level
func (l Level) TeamLevel() string {
	switch l {
	case LevelReviewer:
		return "review"
	case LevelTry:
		return "try"
	default:
		return ""
	}
}

// AllowListKeys returns the repository allow-lists consulted for this level, in order
func (l Level) AllowListKeys() []string {
	switch l {
	case LevelReviewer:
		return []string{KeyReviewers}
	case LevelTry:
		return []string{KeyReviewers, KeyTryUsers}
	default:
		return nil
	}
}

// RepoConfig is a repository's bors configuration as loaded by the bot.
// Missing or mistyped values read as disabled or empty.
type RepoConfig map[string]any

// Bool returns the boolean option key, false when absent
func (c RepoConfig) Bool(key string) bool {
	v, _ := c[key].(bool)
	return v
}

// List returns the string list option key, nil when absent.
// Decoders usually produce []any, so both shapes are accepted.
func (c RepoConfig) List(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Actor identifies the GitHub user issuing a command
type Actor struct {
	Username string
	UserID   int64
}

// CollaboratorChecker reports repository collaborators
type CollaboratorChecker interface {
	IsCollaborator(ctx context.Context, username string) (bool, error)
}

// Notifier posts a reply where the command was issued
type Notifier interface {
	AddComment(ctx context.Context, body string) error
}

// TeamResolver returns the GitHub ids holding a team permission on a repository
type TeamResolver interface {
	Members(ctx context.Context, repoLabel, level string) []int64
}

// Env is supplied by the bot for each decision. It carries the bot's own
// identity and the repository handles the decision may use.
type Env struct {
	// BotUsername is the bot's own login; its comments are always trusted
	BotUsername string

	// Delegate is the login the repository owner delegated approval to, if any
	Delegate string

	Collaborators CollaboratorChecker
	Notifier      Notifier
}

// Request describes the command being authorized
type Request struct {
	Actor     Actor
	RepoLabel string
	Config    RepoConfig
	Level     Level

	// Realtime is set when the command arrived live rather than during a
	// state resync; only then is a denial announced
	Realtime bool
}

// Verdict is the outcome of a decision
type Verdict struct {
	Allowed bool

	// Rule names the rule that granted access, or RuleNone
	Rule string

	// Denial is the explanation shown to the user when access is refused
	Denial string
}
