// wingo is a roguelite bingo battler for the terminal.
//
// Usage:
//
//	wingo play               - Play in this terminal
//	wingo serve              - Start the SSH server for remote play
//	wingo simulate           - Balance-test many seeded runs
//	wingo history            - Show the best finished runs
//	wingo content list       - List biomes, difficulties, items and events
//	wingo save export <file> - Write the current run to a file
//
// Global flags:
//
//	--config <path>     - Config file (default: ~/.wingo/config.yaml)
//	--seed <value>      - RNG seed for reproducible runs
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wingo/internal/config"
	"github.com/vovakirdan/wingo/internal/content"
	"github.com/vovakirdan/wingo/internal/game"
	"github.com/vovakirdan/wingo/internal/registry"
	"github.com/vovakirdan/wingo/internal/session"

	// Register storage backends
	_ "github.com/vovakirdan/wingo/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagSeed     uint32
	flagLogLevel string

	cfg    config.Config
	logger *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wingo",
	Short: "WINGO - a roguelite bingo battler for your terminal",
	Long: `WINGO is a roguelite bingo battler. Every number you call can hit the
boss; whiffs let it hit back. Clear each biome's floors to win the run.

Available commands:
  play      - Play in this terminal
  serve     - Start the SSH server for remote play
  simulate  - Balance-test many seeded runs
  history   - Show the best finished runs
  content   - Inspect and validate content tables
  save      - Export or import the current run

Examples:
  wingo play
  wingo play --biome crypt --difficulty hard --seed 42
  wingo serve --ssh :2222
  wingo simulate --runs 1000 --csv runs.csv`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().Uint32Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(configCmd)
}

// setup loads the configuration and builds the logger for every command.
func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	level, err := cfg.Log.ParsedLevel()
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: cfg.Log.Timestamps,
		Level:           level,
		Prefix:          "wingo",
	})
	return nil
}

// newService loads the content tables and builds the game service.
func newService() (*game.Service, error) {
	tables, err := content.Load(cfg.Content.Dir)
	if err != nil {
		return nil, err
	}
	return game.NewService(tables), nil
}

// openSession opens the configured store and the session over it.
// The caller must close the returned store.
func openSession(l *log.Logger) (*session.Session, registry.Store, error) {
	svc, err := newService()
	if err != nil {
		return nil, nil, err
	}
	store, err := registry.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.New(svc, store, l)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return sess, store, nil
}
