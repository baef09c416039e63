package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wingo/internal/content"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect and validate content tables",
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List biomes, difficulties, items and events",
	Long: `List the loaded content. Tables come from content.dir when set,
falling back to the built-in defaults for any file it lacks.

Examples:
  wingo content list
  WINGO_CONTENT_DIR=./mod wingo content list`,
	Args: cobra.NoArgs,
	RunE: runContentList,
}

var contentValidateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate content tables",
	Long: `Load and validate the tables in dir (default: content.dir, or the
built-in defaults) and report every problem found.

Examples:
  wingo content validate ./mod`,
	Args: cobra.MaximumNArgs(1),
	RunE: runContentValidate,
}

var contentUnlockAllCmd = &cobra.Command{
	Use:   "unlock-all",
	Short: "Unlock every biome and item in your progression",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		sess, store, err := openSession(logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := sess.UnlockAll(); err != nil {
			return err
		}
		fmt.Println("Every biome and item is unlocked.")
		return nil
	},
}

func init() {
	contentCmd.AddCommand(contentListCmd)
	contentCmd.AddCommand(contentValidateCmd)
	contentCmd.AddCommand(contentUnlockAllCmd)
}

func runContentList(_ *cobra.Command, _ []string) error {
	tables, err := content.Load(cfg.Content.Dir)
	if err != nil {
		return err
	}

	fmt.Println("Biomes:")
	for _, b := range tables.Biomes {
		bosses := make([]string, len(b.Floors))
		for i, f := range b.Floors {
			bosses[i] = f.Name
		}
		fmt.Printf("  %-12s %-16s %s\n", b.ID, b.Name, strings.Join(bosses, " > "))
	}

	fmt.Println("\nDifficulties:")
	for _, d := range tables.Difficulties {
		fmt.Printf("  %-12s %-12s %dx%d board, %d hearts, %d coins\n",
			d.ID, d.Label, d.BoardSize, d.BoardSize, d.StartingHearts, d.StartingCoins)
	}

	fmt.Println("\nItems:")
	for _, it := range tables.Items {
		fmt.Printf("  %-18s %-10s %-10s %3d  %s\n", it.ID, it.Type, it.Rarity, it.Cost, it.Effect)
	}

	fmt.Println("\nEvents:")
	for _, ev := range tables.Events {
		fmt.Printf("  %-18s %s (%d options)\n", ev.ID, ev.Name, len(ev.Options))
	}
	return nil
}

func runContentValidate(_ *cobra.Command, args []string) error {
	dir := cfg.Content.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	tables, err := content.Load(dir)
	if err != nil {
		var ve content.ValidationError
		if errors.As(err, &ve) {
			fmt.Println("Content is invalid:")
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Println("  " + line)
			}
			return errors.New("content validation failed")
		}
		return err
	}

	fmt.Printf("Content OK: %d biomes, %d difficulties, %d items, %d events\n",
		len(tables.Biomes), len(tables.Difficulties), len(tables.Items), len(tables.Events))
	return nil
}
