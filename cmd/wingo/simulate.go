package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/sim"
)

var (
	flagSimRuns       int
	flagSimWorkers    int
	flagSimBiomes     []string
	flagSimDifficulty string
	flagSimMaxSteps   int
	flagSimCSV        string
	flagSimUnlockAll  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Balance-test many seeded runs",
	Long: `Play many runs with a greedy policy and report how they went.
Run i uses seed --seed + i, so a batch is reproducible and its results do
not depend on --workers.

The policy bombs when the bomb would finish the boss and calls otherwise;
between floors it buys the first affordable offer and moves on.

Examples:
  wingo simulate --runs 1000
  wingo simulate --biomes crypt,swamp --unlock-all --difficulty hard
  wingo simulate --seed 100 --csv runs.csv`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&flagSimRuns, "runs", 0, "Number of runs (default from config)")
	simulateCmd.Flags().IntVar(&flagSimWorkers, "workers", 0, "Parallel workers (default from config, 0 = all CPUs)")
	simulateCmd.Flags().StringSliceVar(&flagSimBiomes, "biomes", nil, "Biomes to cycle through (default: all unlocked)")
	simulateCmd.Flags().StringVar(&flagSimDifficulty, "difficulty", "", "Difficulty (default from config)")
	simulateCmd.Flags().IntVar(&flagSimMaxSteps, "max-steps", 0, "Action limit per run (default from config)")
	simulateCmd.Flags().StringVar(&flagSimCSV, "csv", "", "Write per-run results to this CSV file")
	simulateCmd.Flags().BoolVar(&flagSimUnlockAll, "unlock-all", false, "Simulate with every biome and item unlocked")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	base := meta.Default(svc.Tables().Balance.Progression)
	if flagSimUnlockAll {
		base.UnlockAll(svc.Tables())
	}

	opts := sim.Options{
		Runs:       cfg.Sim.Runs,
		BaseSeed:   flagSeed,
		Workers:    cfg.Sim.Workers,
		Biomes:     flagSimBiomes,
		Difficulty: firstNonEmpty(flagSimDifficulty, cfg.Sim.Difficulty),
		MaxSteps:   cfg.Sim.MaxSteps,
	}
	if flagSimRuns > 0 {
		opts.Runs = flagSimRuns
	}
	if flagSimWorkers > 0 {
		opts.Workers = flagSimWorkers
	}
	if flagSimMaxSteps > 0 {
		opts.MaxSteps = flagSimMaxSteps
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := sim.Run(ctx, svc, base, opts, logger)
	if err != nil {
		return err
	}

	if flagSimCSV != "" {
		if err := writeCSV(flagSimCSV, results); err != nil {
			return err
		}
		logger.Info("wrote results", "path", flagSimCSV, "runs", len(results))
	}

	printReport(sim.Summarize(results), opts)
	return nil
}

func writeCSV(path string, results []sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := sim.WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printReport(rep sim.Report, opts sim.Options) {
	fmt.Printf("Simulated %d runs on %s (seeds %d..%d)\n", rep.Runs, opts.Difficulty, opts.BaseSeed, opts.BaseSeed+uint32(max(rep.Runs-1, 0)))
	fmt.Println()
	fmt.Printf("  Win rate      %.1f%% (%d victories)\n", rep.WinRate*100, rep.Victories)
	fmt.Printf("  Avg floors    %.2f\n", rep.AvgFloors)
	fmt.Printf("  Avg damage    %.1f\n", rep.AvgDamage)
	fmt.Printf("  Avg calls     %.1f\n", rep.AvgCalls)
	if rep.Truncated > 0 {
		fmt.Printf("  Truncated     %d (hit --max-steps)\n", rep.Truncated)
	}
	if len(rep.Biomes) == 0 {
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("BIOME", "RUNS", "WINS", "AVG FLOORS")
	for _, b := range rep.Biomes {
		t.Row(b.BiomeID, strconv.Itoa(b.Runs), strconv.Itoa(b.Victories), strconv.FormatFloat(b.AvgFloors, 'f', 2, 64))
	}
	fmt.Println()
	fmt.Println(t)
}
