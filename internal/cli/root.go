package cli

import (
	"fmt"
	"os"

	"ghsec/internal/flags"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ghsec",
		Short: "Audit the security settings of your GitHub repositories",
		Long: `ghsec audits every repository owned by the authenticated GitHub account,
running a configurable set of security checks and reporting findings as a
stream of log records.

Examples:
	# Show available commands and global flags
	ghsec --help

	# Audit all owned repositories
	ghsec audit

	# Audit and apply the desired default workflow permissions
	ghsec audit --fix

	# List checks
	ghsec checks list

	# Print build info
	ghsec version

Output:
	Findings are written to stdout as log records: console format by default,
	JSON with --json.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String(flags.FlagConfig, "", "Path to a ghsec.yaml config file (default: ./ghsec.yaml, then the user config dir)")
	cmd.PersistentFlags().Bool(flags.FlagDebug, false, "Enable debug logging")
	cmd.PersistentFlags().Bool(flags.FlagJSON, false, "Write log records as JSON")
	cmd.PersistentFlags().Bool(flags.FlagVerbose, false, "Enable verbose logging (logs every GitHub API call at debug level)")

	cmd.AddCommand(
		newAuditCmd(),
		newChecksCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	cmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	cmd.SetVersionTemplate("{{.Version}}\n")
	return cmd
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
