package config

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// DefaultWarnSecretNames flags secret names that usually hold credentials.
const DefaultWarnSecretNames = `(?i)(KEY|TOKEN|PASSWORD|PASSWD|SECRET|CREDENTIAL)`

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect
	// audit behavior, keep these in sync:
	// - CLI flags in internal/cli/audit.go
	// - flag to key bindings in internal/flags/flags.go

	// Checks lists the checks to run, in order (see --checks).
	// Empty means every available check in table order.
	Checks []string `mapstructure:"checks" yaml:"checks"`

	// Fix enables the remediation path of checks that have one (see --fix).
	Fix bool `mapstructure:"fix" yaml:"fix"`

	RepositorySecrets          RepositorySecrets          `mapstructure:"repository_secrets" yaml:"repository_secrets"`
	DefaultWorkflowPermissions DefaultWorkflowPermissions `mapstructure:"default_workflow_permissions" yaml:"default_workflow_permissions"`
	Targeting                  Targeting                  `mapstructure:"targeting" yaml:"targeting"`
	Log                        Log                        `mapstructure:"log" yaml:"log"`
	Runtime                    Runtime                    `mapstructure:"runtime" yaml:"runtime"`
}

type RepositorySecrets struct {
	// WarnSecretNames is a regular expression; secrets whose name matches are
	// reported as warnings instead of informational findings
	// (see --repository-secrets-warn-secret-names).
	WarnSecretNames string `mapstructure:"warn_secret_names" yaml:"warn_secret_names"`

	warnPattern *regexp.Regexp
}

// WarnPattern returns the pattern compiled by Validate, or nil before that.
func (r RepositorySecrets) WarnPattern() *regexp.Regexp {
	return r.warnPattern
}

type DefaultWorkflowPermissions struct {
	// Permission is the desired default GITHUB_TOKEN permission for workflows.
	// Allowed values: read, write.
	Permission string `mapstructure:"permission" yaml:"permission"`

	// CanApprovePullRequestReviews is the desired value of the "Allow GitHub
	// Actions to create and approve pull requests" setting.
	CanApprovePullRequestReviews bool `mapstructure:"can_approve_pull_request_reviews" yaml:"can_approve_pull_request_reviews"`
}

type Targeting struct {
	// Include filters repositories by name using Go path.Match style (see --include).
	// If a pattern contains '/', it matches OWNER/REPO; otherwise it matches repo name.
	Include []string `mapstructure:"include" yaml:"include"`

	// Exclude filters repositories by name using Go path.Match style (see --exclude).
	// Same matching rules as Include.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`

	// Visibility filters repositories by visibility (see --visibility).
	// Allowed values: public, private, internal, all.
	Visibility string `mapstructure:"visibility" yaml:"visibility"`

	// Archived controls how archived repos are handled (see --archived).
	// Allowed values: include, exclude, only.
	Archived string `mapstructure:"archived" yaml:"archived"`

	// Forks controls how forked repos are handled (see --forks).
	// Allowed values: include, exclude, only.
	Forks string `mapstructure:"forks" yaml:"forks"`

	// MaxRepos limits how many repositories to audit (see --max-repos). 0 means unlimited.
	MaxRepos int `mapstructure:"max_repos" yaml:"max_repos"`
}

type Log struct {
	// Debug lowers the log level to debug (see --debug).
	Debug bool `mapstructure:"debug" yaml:"debug"`

	// JSON switches the log encoding from console to JSON (see --json).
	JSON bool `mapstructure:"json" yaml:"json"`
}

type Runtime struct {
	// Concurrency bounds how many repositories are audited at once (see --concurrency).
	// 0 means unbounded.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// Timeout is the global deadline for the run (see --timeout). Must be > 0.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// Verbose traces every GitHub API call at debug level (see --verbose).
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

func New() *Config {
	return &Config{
		RepositorySecrets: RepositorySecrets{
			WarnSecretNames: DefaultWarnSecretNames,
		},
		DefaultWorkflowPermissions: DefaultWorkflowPermissions{
			Permission: "read",
		},
		Targeting: Targeting{
			Visibility: "all",
			Archived:   "exclude",
			Forks:      "include",
		},
		Runtime: Runtime{
			Concurrency: 8,
			Timeout:     30 * time.Minute,
		},
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Checks = splitCommaList(c.Checks)
	for i, name := range c.Checks {
		c.Checks[i] = normalizeEnumValue(name)
	}
	c.Targeting.Include = splitCommaList(c.Targeting.Include)
	c.Targeting.Exclude = splitCommaList(c.Targeting.Exclude)

	// Checks validation
	seen := make(map[string]struct{}, len(c.Checks))
	for _, name := range c.Checks {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("--checks lists %q more than once", name)
		}
		seen[name] = struct{}{}
	}

	pattern, err := regexp.Compile(c.RepositorySecrets.WarnSecretNames)
	if err != nil {
		return fmt.Errorf("invalid --repository-secrets-warn-secret-names: %w", err)
	}
	c.RepositorySecrets.warnPattern = pattern

	c.DefaultWorkflowPermissions.Permission = normalizeEnumValue(c.DefaultWorkflowPermissions.Permission)
	if c.DefaultWorkflowPermissions.Permission == "" {
		return errors.New("--default-workflow-permissions must be one of: read, write")
	}
	if c.DefaultWorkflowPermissions.Permission != "read" && c.DefaultWorkflowPermissions.Permission != "write" {
		return fmt.Errorf("unsupported --default-workflow-permissions: %s (must be one of: read, write)", c.DefaultWorkflowPermissions.Permission)
	}

	// Targeting enum validation
	c.Targeting.Visibility = normalizeEnumValue(c.Targeting.Visibility)
	if c.Targeting.Visibility == "" {
		c.Targeting.Visibility = "all"
	}
	if c.Targeting.Visibility != "public" && c.Targeting.Visibility != "private" && c.Targeting.Visibility != "internal" && c.Targeting.Visibility != "all" {
		return fmt.Errorf("unsupported --visibility: %s (must be one of: public, private, internal, all)", c.Targeting.Visibility)
	}

	c.Targeting.Archived = normalizeEnumValue(c.Targeting.Archived)
	if c.Targeting.Archived == "" {
		c.Targeting.Archived = "exclude"
	}
	if c.Targeting.Archived != "include" && c.Targeting.Archived != "exclude" && c.Targeting.Archived != "only" {
		return fmt.Errorf("unsupported --archived: %s (must be one of: include, exclude, only)", c.Targeting.Archived)
	}

	c.Targeting.Forks = normalizeEnumValue(c.Targeting.Forks)
	if c.Targeting.Forks == "" {
		c.Targeting.Forks = "include"
	}
	if c.Targeting.Forks != "include" && c.Targeting.Forks != "exclude" && c.Targeting.Forks != "only" {
		return fmt.Errorf("unsupported --forks: %s (must be one of: include, exclude, only)", c.Targeting.Forks)
	}

	for _, p := range append(append([]string(nil), c.Targeting.Include...), c.Targeting.Exclude...) {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("invalid repository pattern %q: %w", p, err)
		}
	}

	// Runtime validation
	if c.Targeting.MaxRepos < 0 {
		return errors.New("--max-repos must be >= 0")
	}
	if c.Runtime.Concurrency < 0 {
		return errors.New("--concurrency must be >= 0")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
