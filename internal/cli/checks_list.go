package cli

import (
	"fmt"
	"io"

	"ghsec/internal/checks"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newChecksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List and describe checks",
		Long: `List and describe the security checks ghsec can run.

Checks are selected for an audit with --checks (see "ghsec audit --help").

Examples:
  # List all available checks
  ghsec checks list
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var quiet bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available checks",
		Long: `List all checks built into this binary, in the order an audit runs them
when --checks is not given.

Examples:
  ghsec checks list

Output:
  A vertical list of checks:
    ----------------------------------------
    CHECK: {NAME}
    ----------------------------------------
    {TITLE}
    {DESCRIPTION}
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range checks.Kinds() {
				if quiet {
					fmt.Fprintln(cmd.OutOrStdout(), k.String())
				} else {
					printCheck(cmd.OutOrStdout(), k)
				}
			}
			return nil
		},
	}
	listCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print check names")

	showCmd := &cobra.Command{
		Use:   "show [check-name]",
		Short: "Show details of a specific check",
		Long: `Show details of a specific check by its name.

Examples:
  ghsec checks show repository_secrets
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := checks.ParseKind(args[0])
			if err != nil {
				return err
			}
			printCheck(cmd.OutOrStdout(), k)
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func printCheck(w io.Writer, k checks.Kind) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "CHECK: %s\n", k)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, k.Title())
	fmt.Fprintln(w, k.Description())
	fmt.Fprintln(w)
}
