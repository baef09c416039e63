package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/wingo/internal/platform/tui"
	"github.com/vovakirdan/wingo/internal/registry"
	"github.com/vovakirdan/wingo/internal/storage"
)

var (
	flagBiome      string
	flagDifficulty string
	flagAutoplay   time.Duration
	flagLogFile    string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in this terminal",
	Long: `Open the start screen, pick a biome and difficulty, and play.
An unfinished run is resumed automatically.

Controls:
  Space/C    - Call the next number
  Enter      - Free-mark a cell, buy, use an item or choose an event option
  Tab        - Switch between board, shop, items and events
  X          - Use the bomb
  R / S / N  - Reroll the shop, skip it, go to the next floor
  A          - Toggle autoplay
  Shift+H    - Run history
  Q/Ctrl+C   - Quit

Examples:
  wingo play
  wingo play --biome crypt --difficulty hard
  wingo play --seed 42 --log-file wingo.log`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagBiome, "biome", "", "Preselected biome (default from config)")
	playCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Preselected difficulty (default from config)")
	playCmd.Flags().DurationVar(&flagAutoplay, "autoplay-interval", 0, "Delay between autoplay actions (default from config)")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (the screen has no room for them)")
}

func runPlay(_ *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("play needs an interactive terminal; try 'wingo simulate' for batch runs")
	}

	l, closeLog, err := playLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	sess, store, err := openSession(l)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := tui.Options{
		Biome:      firstNonEmpty(flagBiome, cfg.Game.Biome),
		Difficulty: firstNonEmpty(flagDifficulty, cfg.Game.Difficulty),
		Seed:       flagSeed,
		Autoplay:   cfg.Game.AutoplayInterval,
	}
	if flagAutoplay > 0 {
		opts.Autoplay = flagAutoplay
	}
	if hr, ok := store.(registry.HistoryReader); ok {
		opts.History = hr
	}
	return tui.Run(sess, opts)
}

// playLogger returns a logger that never writes to the terminal the game
// is drawn on.
func playLogger() (*log.Logger, func(), error) {
	if flagLogFile == "" {
		return log.New(io.Discard), func() {}, nil
	}
	path, err := storage.ExpandHome(flagLogFile)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	l := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Level:           logger.GetLevel(),
		Prefix:          "wingo",
	})
	return l, func() { f.Close() }, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
