// Package config binds the process environment into a Config struct via
// struct tags, grounded on the teacher's internal/config/env.go and
// config.go (caarlos0/env + a logrus setup step run once at startup).
package config

import (
	"fmt"

	"github.com/caarlos0/env"
)

// Config is the whole runtime configuration of the orgsync binary.
type Config struct {
	LogLevel  string `env:"ORGSYNC_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"ORGSYNC_LOG_FORMAT" envDefault:"text"` // text, json

	GithubServer       string `env:"ORGSYNC_GITHUB_SERVER" envDefault:"https://api.github.com"`
	GithubOrganization string `env:"ORGSYNC_GITHUB_ORGANIZATION" envDefault:""`

	// Exactly one of (GithubAppID, GithubAppPrivateKeyFile) or
	// GithubPATToken must be set; a non-empty GithubPATToken takes priority,
	// matching provider/github.Client's "if patToken != '' we use the PAT"
	// convention.
	GithubAppID             int64  `env:"ORGSYNC_GITHUB_APP_ID" envDefault:"0"`
	GithubAppPrivateKeyFile string `env:"ORGSYNC_GITHUB_APP_PRIVATE_KEY_FILE" envDefault:""`
	GithubPATToken          string `env:"ORGSYNC_GITHUB_PAT_TOKEN" envDefault:""`

	GithubRateLimitPerSec float64 `env:"ORGSYNC_GITHUB_RATE_LIMIT_PER_SEC" envDefault:"10"`
	GithubRateLimitBurst  int     `env:"ORGSYNC_GITHUB_RATE_LIMIT_BURST" envDefault:"20"`

	DeclarationRepository string `env:"ORGSYNC_DECLARATION_REPOSITORY" envDefault:""`
	DeclarationBranch     string `env:"ORGSYNC_DECLARATION_BRANCH" envDefault:"main"`

	// DeletionAllowedOrgs/ReservedBotTeams override diff.DeletionAllowedOrgs/
	// diff.ReservedBotTeams when non-empty, letting an installation of this
	// binary outside rust-lang's own org reconfigure invariant I6's scope
	// without a code change. Empty means "keep the package defaults".
	DeletionAllowedOrgs []string `env:"ORGSYNC_DELETION_ALLOWED_ORGS" envSeparator:","`
	ReservedBotTeams    []string `env:"ORGSYNC_RESERVED_BOT_TEAMS" envSeparator:","`
}

// Load parses Config from the process environment, grounded on the
// teacher's `env.Parse(&Config)` call in config.go's init.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}
	return cfg, nil
}
