package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"ghsec/internal/checks"
	"ghsec/internal/config"
	"ghsec/internal/engine"
	"ghsec/internal/flags"
	gh "ghsec/internal/github"
	"ghsec/internal/report"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Test seams.
var (
	exitFunc         = os.Exit
	newLogger        = report.NewLogger
	resolveAuthToken = gh.ResolveAuthToken
	newAPIClient     = func(ctx context.Context, token string, opts ...gh.Option) (gh.API, error) {
		return gh.NewClient(ctx, token, opts...)
	}
)

const auditHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
  ghsec authenticates to GitHub using an access token.

  Sources (in order):
  1) GITHUB_TOKEN environment variable
  2) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

  Token guidance (brief):
  - PAT (classic): needs repo to read private repositories and their
    Actions secrets and workflow settings.
  - Fine-grained PAT: grant access to all owned repositories with
    Metadata: Read, Secrets: Read and Administration: Read
    (Administration: Read and write for --fix).

  Every flag can also be set in ghsec.yaml or through a GHSEC_ environment
  variable, e.g. GHSEC_FIX=true or GHSEC_RUNTIME_CONCURRENCY=4.
  Precedence: flags > environment > config file > defaults.

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "audit",
		Aliases: []string{"scan"},
		Short:   "Audit all repositories owned by the authenticated account",
		Long: `Audit every repository owned by the authenticated GitHub account.

Each repository runs the selected checks in order; a failing check stops the
remaining checks for that repository only. Repositories are audited
concurrently (see --concurrency).

Checks:
  default_workflow_permissions  compare (and with --fix, set) the default
                                GITHUB_TOKEN permission for workflows
  repository_secrets            report Actions secret names, warning on names
                                matching --repository-secrets-warn-secret-names

Exit codes:
  0 = clean run, no warning findings
  1 = warning findings present
  2 = partial failure (at least one repository failed)
  3 = fatal error (audit did not run to completion)

Examples:
  # Token via environment variable
  export GITHUB_TOKEN="<your_token>"
  ghsec audit

  # Only report secrets, as JSON
  ghsec audit --checks repository_secrets --json

  # Enforce read-only workflow tokens everywhere
  ghsec audit --checks default_workflow_permissions --fix
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := runAudit(cmd); code != 0 {
				exitFunc(code)
			}
			return nil
		},
	}
	cmd.SetHelpTemplate(auditHelpTemplate)
	addAuditFlags(cmd.Flags())
	return cmd
}

// addAuditFlags registers every audit-affecting flag with the defaults from
// config.New.
func addAuditFlags(fs *pflag.FlagSet) {
	// MAINTAINER NOTE: every flag registered here needs a key in
	// flags.ConfigKeys, or it will be ignored.
	def := config.New()

	// Checks
	fs.StringSlice(flags.FlagChecks, nil, "Checks to run, in order (repeatable; comma-separated accepted; empty = all, see 'ghsec checks list')")
	fs.Bool(flags.FlagFix, def.Fix, "Apply remediation for checks that support it")
	fs.String(flags.FlagRepositorySecretsWarnSecretNames, def.RepositorySecrets.WarnSecretNames, "Regular expression; secrets whose name matches are reported as warnings")
	fs.String(flags.FlagDefaultWorkflowPermissions, def.DefaultWorkflowPermissions.Permission, "Desired default workflow permission: read|write")
	fs.Bool(flags.FlagDefaultWorkflowPermissionsCanApprove, def.DefaultWorkflowPermissions.CanApprovePullRequestReviews, "Desired value of \"allow GitHub Actions to create and approve pull requests\"")

	// Targeting
	fs.StringSlice(flags.FlagInclude, nil, "Include pattern(s) (repeatable; comma-separated accepted). Go path.Match style; if pattern contains '/', matches OWNER/REPO, else matches repo name")
	fs.StringSlice(flags.FlagExclude, nil, "Exclude pattern(s) (repeatable; comma-separated accepted). Same matching rules as --include")
	fs.String(flags.FlagVisibility, def.Targeting.Visibility, "Visibility filter: public|private|internal|all")
	fs.String(flags.FlagArchived, def.Targeting.Archived, "Archived repos policy: include|exclude|only")
	fs.String(flags.FlagForks, def.Targeting.Forks, "Forks policy: include|exclude|only")
	fs.Int(flags.FlagMaxRepos, def.Targeting.MaxRepos, "Maximum number of repositories to audit (0 = unlimited)")

	// Runtime
	fs.Int(flags.FlagConcurrency, def.Runtime.Concurrency, "Repositories audited concurrently (0 = unbounded)")
	fs.Duration(flags.FlagTimeout, def.Runtime.Timeout, "Global timeout")
}

// loadConfig builds the effective configuration for cmd: defaults, then the
// config file, then GHSEC_* environment variables, then changed flags.
func loadConfig(cmd *cobra.Command) (*config.Config, config.Loaded, error) {
	cfg := config.New()
	configFile, _ := cmd.Flags().GetString(flags.FlagConfig)
	loaded, err := config.Load(configFile, cmd.Flags(), flags.ConfigKeys, cfg)
	if err != nil {
		return nil, loaded, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, loaded, err
	}
	if _, err := checks.Resolve(cfg.Checks); err != nil {
		return nil, loaded, fmt.Errorf("invalid --checks: %w", err)
	}
	return cfg, loaded, nil
}

func runAudit(cmd *cobra.Command) int {
	cfg, loaded, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 3
	}

	logger, err := newLogger(report.LevelFor(cfg.Log.Debug), report.FormatFor(cfg.Log.JSON))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: failed to create logger: %v\n", err)
		return 3
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	if loaded.ConfigFileUsed != "" {
		logger.Debug("loaded config file", zap.String("path", loaded.ConfigFileUsed))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	token, source, err := resolveAuthToken(ctx, "")
	if err != nil {
		logger.Error("failed to resolve GitHub auth token", zap.Error(err))
		return 3
	}
	if strings.TrimSpace(token) == "" {
		logger.Error("GitHub auth token is required (set GITHUB_TOKEN or run 'gh auth login')")
		return 3
	}
	logger.Debug("resolved GitHub auth token", zap.String("source", string(source)))

	api, err := newAPIClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, logger))
	if err != nil {
		logger.Error("failed to create GitHub client", zap.Error(err))
		return 3
	}

	return engine.NewEngine(api, report.New(logger)).Run(ctx, cfg)
}
