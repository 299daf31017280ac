package flags

// Package flags defines canonical CLI flag names shared across the CLI and the
// configuration loader. Keeping these as constants helps avoid drift between
// Cobra flag wiring and the viper key bindings in ConfigKeys.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().Bool(flags.FlagFix, false, "...")
//	arg := "--" + flags.FlagFix
const (
	// Global
	FlagConfig  = "config"
	FlagDebug   = "debug"
	FlagJSON    = "json"
	FlagVerbose = "verbose"

	// Checks
	FlagChecks                               = "checks"
	FlagFix                                  = "fix"
	FlagRepositorySecretsWarnSecretNames     = "repository-secrets-warn-secret-names"
	FlagDefaultWorkflowPermissions           = "default-workflow-permissions"
	FlagDefaultWorkflowPermissionsCanApprove = "default-workflow-permissions-can-approve-prs"

	// Targeting
	FlagInclude    = "include"
	FlagExclude    = "exclude"
	FlagVisibility = "visibility"
	FlagArchived   = "archived"
	FlagForks      = "forks"
	FlagMaxRepos   = "max-repos"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
)

// ConfigKeys maps each flag that can also be set from a config file or the
// environment to its configuration key.
var ConfigKeys = map[string]string{
	FlagDebug:   "log.debug",
	FlagJSON:    "log.json",
	FlagVerbose: "runtime.verbose",

	FlagChecks:                               "checks",
	FlagFix:                                  "fix",
	FlagRepositorySecretsWarnSecretNames:     "repository_secrets.warn_secret_names",
	FlagDefaultWorkflowPermissions:           "default_workflow_permissions.permission",
	FlagDefaultWorkflowPermissionsCanApprove: "default_workflow_permissions.can_approve_pull_request_reviews",

	FlagInclude:    "targeting.include",
	FlagExclude:    "targeting.exclude",
	FlagVisibility: "targeting.visibility",
	FlagArchived:   "targeting.archived",
	FlagForks:      "targeting.forks",
	FlagMaxRepos:   "targeting.max_repos",

	FlagConcurrency: "runtime.concurrency",
	FlagTimeout:     "runtime.timeout",
}
