package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Export or import the current run",
}

var saveExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the current run to a file (or stdout)",
	Long: `Write the unfinished run as a portable JSON snapshot, including the
random generator state, so it continues exactly where it left off.

Examples:
  wingo save export run.json
  wingo save export > run.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSaveExport,
}

var saveImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the current run with a snapshot",
	Long: `Load a snapshot written by 'wingo save export' as the current run.
Any unfinished run is replaced.

Examples:
  wingo save import run.json
  cat run.json | wingo save import -`,
	Args: cobra.ExactArgs(1),
	RunE: runSaveImport,
}

func init() {
	saveCmd.AddCommand(saveExportCmd)
	saveCmd.AddCommand(saveImportCmd)
}

func runSaveExport(_ *cobra.Command, args []string) error {
	sess, store, err := openSession(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	data, err := sess.Export()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	fmt.Fprintf(os.Stderr, "Exported run to %s\n", args[0])
	return nil
}

func runSaveImport(_ *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	sess, store, err := openSession(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := sess.Import(data)
	if err != nil {
		return err
	}
	fmt.Printf("Imported run %s: %s floor %d, %d hearts\n", run.ID, run.BiomeID, run.FloorIndex+1, run.Player.Hearts)
	return nil
}
