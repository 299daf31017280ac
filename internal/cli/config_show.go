package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration an audit would run with, after merging defaults,
the config file, GHSEC_* environment variables and flags.

Accepts the same flags as "ghsec audit". The output is a valid ghsec.yaml.

Examples:
  ghsec config show
  GHSEC_FIX=true ghsec config show --concurrency 2
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loaded, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}
			w := cmd.OutOrStdout()
			if loaded.ConfigFileUsed != "" {
				fmt.Fprintf(w, "# config file: %s\n", loaded.ConfigFileUsed)
			}
			_, err = w.Write(out)
			return err
		},
	}
	addAuditFlags(showCmd.Flags())

	cmd.AddCommand(showCmd)
	return cmd
}
