package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/ratecheck/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage ratecheck configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  ratecheck config init -o ratecheck.yaml
  ratecheck config validate -f ratecheck.yaml`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(cmd.OutOrStdout(), "\nEdit the file and run with:")
			fmt.Fprintf(cmd.OutOrStdout(), "  ratecheck --config %s reconcile --trades estoque.tsv\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "ratecheck.yaml", "output config file path")

	var path string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "  Market data: %s (max attempts %d)\n", cfg.MarketData.Source, cfg.MarketData.MaxAttempts)
			fmt.Fprintf(cmd.OutOrStdout(), "  Cache: %v\n", cfg.Cache.Enabled)
			fmt.Fprintf(cmd.OutOrStdout(), "  Report: %s\n", cfg.Report.Type)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("file")

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
