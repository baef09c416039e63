package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wingo/internal/registry"
)

var (
	flagHistoryBiome string
	flagHistoryLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the best finished runs",
	Long: `Display the best finished runs, ranked by floors cleared and then
damage dealt, plus lifetime totals. Needs a backend that keeps history
(sqlite).

Examples:
  wingo history
  wingo history --biome crypt --limit 5`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryBiome, "biome", "", "Only show runs in this biome")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of runs to show")
}

func runHistory(_ *cobra.Command, _ []string) error {
	store, err := registry.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	reader, ok := store.(registry.HistoryReader)
	if !ok {
		return fmt.Errorf("storage backend %q keeps no run history", cfg.Storage.Backend)
	}
	records, err := reader.TopRuns(flagHistoryBiome, flagHistoryLimit)
	if err != nil {
		return err
	}
	stats, err := reader.Stats()
	if err != nil {
		return err
	}

	title := "all biomes"
	if flagHistoryBiome != "" {
		title = flagHistoryBiome
	}
	fmt.Printf("Best runs - %s\n", title)
	fmt.Println()

	if len(records) == 0 {
		fmt.Println("No finished runs yet.")
		fmt.Println()
		fmt.Println("Play 'wingo play' to record the first one!")
		return nil
	}

	// Print header
	fmt.Printf("  %-4s  %-10s  %-10s  %-7s  %-6s  %-6s  %s\n", "Rank", "Biome", "Difficulty", "Result", "Floors", "Damage", "Date")
	fmt.Printf("  %-4s  %-10s  %-10s  %-7s  %-6s  %-6s  %s\n", "----", "-----", "----------", "------", "------", "------", "----")

	for i, r := range records {
		result := "defeat"
		if r.Victory {
			result = "victory"
		}
		fmt.Printf("  %-4d  %-10s  %-10s  %-7s  %-6d  %-6d  %s\n",
			i+1, r.BiomeID, r.DifficultyID, result, r.FloorsCleared, r.DamageDealt, r.CreatedAt.Format("2006-01-02 15:04"))
	}

	fmt.Println()
	fmt.Printf("Runs: %d  Victories: %d  Best floors: %d  Avg damage: %.1f\n",
		stats.Runs, stats.Victories, stats.BestFloors, stats.AvgDamage)
	return nil
}
