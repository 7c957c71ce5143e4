package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/epy0n0ff/bors-auth/internal/logger"
	"github.com/epy0n0ff/bors-auth/internal/teams"
)

// Config holds the settings the authorization core needs from the bot
type Config struct {
	GitHub GitHubConfig `yaml:"github"`

	// BotUsername is the bot's own GitHub login; its comments are always trusted
	BotUsername string `yaml:"bot_username" env:"BORS_BOT_USERNAME"`

	TeamAPI teams.Config `yaml:"team_api"`

	Logger logger.Config `yaml:"logger"`
}

// GitHubConfig holds the GitHub API credentials
type GitHubConfig struct {
	// Token is a GitHub API token able to read collaborators and post comments
	Token string `yaml:"token" env:"GITHUB_TOKEN"`

	// Host is a GitHub Enterprise Server hostname (optional, e.g. "github.company.com")
	Host string `yaml:"host" env:"GITHUB_HOST"`
}

// New loads configuration from the YAML file at path, then from the
// environment, which takes precedence. An empty path reads the environment only.
func New(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return errors.New("GitHub token is required (GITHUB_TOKEN)\n" +
			"  → Action: Set GITHUB_TOKEN or github.token in the config file\n" +
			"  → The token needs read access to collaborators and write access to issues")
	}
	if c.BotUsername == "" {
		return errors.New("bot username is required (BORS_BOT_USERNAME)\n" +
			"  → Action: Set it to the GitHub login the bot comments as\n" +
			"  → Example: BORS_BOT_USERNAME=bors")
	}
	if err := validateGHHost(c.GitHub.Host); err != nil {
		return err
	}
	if err := validateTeamAPI(&c.TeamAPI); err != nil {
		return err
	}
	return nil
}

// validateGHHost checks a GitHub Enterprise hostname, optionally with a port
func validateGHHost(host string) error {
	if host == "" {
		return nil
	}

	if i := strings.Index(host, "://"); i >= 0 {
		return fmt.Errorf("gh-host must not include protocol, got: %s\n"+
			"  → Action: Remove the protocol prefix\n"+
			"  → Use: %s", host, host[i+3:])
	}

	if i := strings.Index(host, "/"); i >= 0 {
		return fmt.Errorf("gh-host must not include path, got: %s\n"+
			"  → Action: Remove the path, the API prefix is added automatically\n"+
			"  → Use: %s", host, host[:i])
	}

	parts := strings.Split(host, ":")
	switch len(parts) {
	case 1:
		return nil
	case 2:
		port, err := strconv.Atoi(parts[1])
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port in gh-host: %s\n"+
				"  → Action: Use a port between 1 and 65535", host)
		}
		return nil
	default:
		return fmt.Errorf("invalid gh-host format with port: %s\n"+
			"  → Expected format: hostname or hostname:port", host)
	}
}

// validateTeamAPI checks the team API base URL and retry policy
func validateTeamAPI(c *teams.Config) error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("team API base URL must be an absolute http(s) URL, got: %s\n"+
				"  → Action: Set TEAM_API_BASE_URL\n"+
				"  → Example: %s", c.BaseURL, teams.DefaultBaseURL)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("team API timeout must not be negative, got: %s", c.Timeout)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("team API retry attempts must be at least 1, got: %d\n"+
			"  → Action: Set TEAM_API_RETRY_ATTEMPTS (default %d)", c.Retry.Attempts, teams.DefaultAttempts)
	}
	if c.Retry.Delay < 0 || c.Retry.MaxDelay < 0 {
		return errors.New("team API retry delays must not be negative\n" +
			"  → Action: Check TEAM_API_RETRY_DELAY and TEAM_API_RETRY_MAX_DELAY")
	}
	return nil
}
