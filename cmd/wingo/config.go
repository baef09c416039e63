package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/wingo/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
}

var configDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in default config file",
	Long: `Print the built-in default configuration. Save it as
~/.wingo/config.yaml or ./configs/wingo.yaml and edit to taste.

Examples:
  wingo config default > ~/.wingo/config.yaml`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		os.Stdout.Write(config.DefaultYAML())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config after file and WINGO_* overrides",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	configCmd.AddCommand(configDefaultCmd)
	configCmd.AddCommand(configShowCmd)
}
