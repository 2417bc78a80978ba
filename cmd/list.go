package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored demos",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	demos, err := db.ListDemos()
	if err != nil {
		return fmt.Errorf("list demos: %w", err)
	}
	if len(demos) == 0 {
		fmt.Fprintln(os.Stdout, "No demos stored yet. Run 'cscoach parse <demo.dem>' to add one.")
		return nil
	}

	report.PrintDemoList(os.Stdout, demos)
	return nil
}
