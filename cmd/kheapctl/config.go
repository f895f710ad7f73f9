package main

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective heap configuration",
		Long: `The config command validates the configuration given with --config
(or the built-in defaults) and prints it as TOML, ready to be edited and
passed back in.

Example:
  kheapctl config > heap.toml
  kheapctl config --config heap.toml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig()
		},
	}
}

func runConfig() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(cfg)
	}
	return cfg.Encode(os.Stdout)
}
