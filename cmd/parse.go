package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/report"
)

var (
	parsePlayer    string
	parseMatchType string
	parseRecursive bool
	parseJobs      int
)

var parseCmd = &cobra.Command{
	Use:     "parse <demo.dem|dir>...",
	Aliases: []string{"rate"},
	Short:   "Parse CS2 demos, rate every player and store the results",
	Long: `Parse one or more CS2 demos (.dem, .dem.gz or .dem.zst) or directories of
demos. Every player is rated 0-100 and the match, player, round and weapon lines
are stored together with a training record for the predictor.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parsePlayer, "player", "", "focus player SteamID64 or name")
	parseCmd.Flags().StringVar(&parseMatchType, "type", "Competitive", "match type label")
	parseCmd.Flags().BoolVarP(&parseRecursive, "recursive", "r", false, "descend into subdirectories")
	parseCmd.Flags().IntVarP(&parseJobs, "jobs", "j", 0, "demos parsed concurrently (default from config)")
}

func runParse(cmd *cobra.Command, args []string) error {
	paths, err := collectDemos(args, parseRecursive)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no demo files found")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	jobs := cfg.Parse.Jobs
	if parseJobs > 0 {
		jobs = parseJobs
	}

	var failed int
	for _, pd := range parseAll(cmd.Context(), paths, jobs) {
		if pd.Err != nil {
			failed++
			slog.Error("Failed to parse demo", slog.String("path", pd.Path), slog.String("error", pd.Err.Error()))
			continue
		}
		res, stored, err := ingest(db, pd, parseMatchType)
		if err != nil {
			return fmt.Errorf("store %s: %w", pd.Path, err)
		}
		if !stored {
			fmt.Fprintf(os.Stdout, "Demo %s already stored, showing cached results.\n", report.ShortHash(pd.Hash))
			if err := showByHash(db, pd.Hash, parsePlayer); err != nil {
				return err
			}
			continue
		}

		focus, err := resolvePlayer(pd.Ledger, parsePlayer)
		if err != nil {
			return err
		}
		report.PrintMatchSummary(os.Stdout, res.Summary)
		report.PrintPlayerTable(os.Stdout, res.Players, focus)
		if focus != 0 {
			rec, _ := pd.Ledger.Player(focus)
			b, err := newEngine().Breakdown(pd.Ledger, focus)
			if err != nil {
				return err
			}
			report.PrintRatingBreakdown(os.Stdout, rec.DisplayName, b)
			report.PrintWeaponTable(os.Stdout, res.Weapons, res.Players, focus)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d demos failed to parse", failed, len(paths))
	}
	return nil
}
