package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/report"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about all demos stored in the database:
total match count, date range, map breakdown, most active players,
training data and predictor state, and match type distribution.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	ov, err := db.GetDBOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalMatches == 0 {
		fmt.Fprintln(os.Stdout, "No demos stored yet. Run 'cscoach parse <demo.dem>' to add one.")
		return nil
	}

	maps, err := db.GetMapStats()
	if err != nil {
		return fmt.Errorf("get map stats: %w", err)
	}
	players, err := db.GetTopPlayersByMatches(10)
	if err != nil {
		return fmt.Errorf("get top players: %w", err)
	}
	types, err := db.GetMatchTypeCounts()
	if err != nil {
		return fmt.Errorf("get match types: %w", err)
	}

	report.PrintOverview(os.Stdout, ov, maps, players, types)
	return nil
}
