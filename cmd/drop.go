package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/log"
)

var dropForce bool

// dropCmd deletes one stored demo, or the whole database.
var dropCmd = &cobra.Command{
	Use:   "drop [hash-prefix]",
	Short: "Delete a stored demo or the whole database",
	Long: `With a hash prefix, delete that demo and its player rows; training records are kept.
Without arguments, permanently delete the SQLite database. Re-parse your demos afterwards to rebuild.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return dropDemo(args[0])
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// WAL side files.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func dropDemo(prefix string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	demo, err := db.GetDemoByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query demo: %w", err)
	}
	if demo == nil {
		return fmt.Errorf("no demo found with hash prefix %q", prefix)
	}
	if err := db.DeleteDemo(demo.DemoHash); err != nil {
		return fmt.Errorf("delete demo: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted demo %s (%s, %s)\n", demo.DemoHash, demo.MapName, demo.MatchDate)
	return nil
}
