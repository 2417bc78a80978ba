package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/report"
	"github.com/pable/cs-coach/internal/storage"
)

var (
	trendSince string
	trendLast  int
)

var trendCmd = &cobra.Command{
	Use:   "trend <player-id>",
	Short: "Chronological per-match rating trend for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().StringVar(&trendSince, "since", "", "only matches on or after this date (YYYY-MM-DD)")
	trendCmd.Flags().IntVar(&trendLast, "last", 0, "only the N most recent matches")
}

func runTrend(cmd *cobra.Command, args []string) error {
	id, err := parsePlayerID(args[0])
	if err != nil {
		return err
	}
	var since time.Time
	if trendSince != "" {
		if since, err = time.Parse("2006-01-02", trendSince); err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	return showTrend(db, id, since, trendLast)
}

// showTrend prints the match history of id on or after since, keeping only
// the last n matches when n is positive, followed by the aggregate totals.
func showTrend(db *storage.DB, id model.PlayerID, since time.Time, n int) error {
	stats, err := db.GetAllPlayerMatchStats(id)
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}
	demos, err := db.QualifyingDemos([]model.PlayerID{id}, since, 1)
	if err != nil {
		return fmt.Errorf("query demos: %w", err)
	}
	keep := make(map[string]bool, len(demos))
	for _, d := range demos {
		keep[d.Hash] = true
	}
	var hashes []string
	filtered := stats[:0]
	for _, s := range stats {
		if keep[s.DemoHash] {
			filtered = append(filtered, s)
		}
	}
	if n > 0 && len(filtered) > n {
		filtered = filtered[len(filtered)-n:]
	}
	if len(filtered) == 0 {
		fmt.Fprintln(os.Stdout, "no matches found")
		return nil
	}
	for _, s := range filtered {
		hashes = append(hashes, s.DemoHash)
	}

	totals, err := db.PlayerTotals([]model.PlayerID{id}, hashes)
	if err != nil {
		return fmt.Errorf("query totals: %w", err)
	}
	side, err := db.RoundSideStats([]model.PlayerID{id}, hashes)
	if err != nil {
		return fmt.Errorf("query side stats: %w", err)
	}
	maps, err := db.MapRatings(id)
	if err != nil {
		return fmt.Errorf("query map ratings: %w", err)
	}

	report.PrintTrendTable(os.Stdout, filtered)
	report.PrintTotals(os.Stdout, totals, side, maps)
	return nil
}
