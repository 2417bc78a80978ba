package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/report"
)

var (
	roundsClutch bool
	roundsSide   string
	roundsDeaths bool
)

// roundsCmd is the cobra command for per-round drill-down for one player in one match.
var roundsCmd = &cobra.Command{
	Use:   "rounds <hash-prefix> <player>",
	Short: "Per-round drill-down for one player in one match",
	Args:  cobra.ExactArgs(2),
	RunE:  runRounds,
}

func init() {
	roundsCmd.Flags().BoolVar(&roundsClutch, "clutch", false, "only show clutch rounds")
	roundsCmd.Flags().StringVar(&roundsSide, "side", "", "filter by side: CT or T")
	roundsCmd.Flags().BoolVar(&roundsDeaths, "deaths", false, "only show rounds the player died in")
}

// filterRounds applies --clutch, --side and --deaths filters.
func filterRounds(stats []model.PlayerRoundStats, clutch bool, side string, deaths bool) []model.PlayerRoundStats {
	side = strings.ToUpper(side)
	var out []model.PlayerRoundStats
	for _, s := range stats {
		if clutch && !s.Clutch {
			continue
		}
		if side != "" && s.Team.String() != side {
			continue
		}
		if deaths && s.Survived {
			continue
		}
		out = append(out, s)
	}
	return out
}

func runRounds(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	demo, err := db.GetDemoByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query demo: %w", err)
	}
	if demo == nil {
		return fmt.Errorf("no demo found with hash prefix %q", args[0])
	}
	stats, err := db.GetPlayerMatchStats(demo.DemoHash)
	if err != nil {
		return fmt.Errorf("get player stats: %w", err)
	}
	id := findStoredPlayer(stats, args[1])
	if id == 0 {
		return fmt.Errorf("player %q not found in demo %s", args[1], report.ShortHash(demo.DemoHash))
	}

	lines, err := db.GetPlayerRoundStats(demo.DemoHash, id)
	if err != nil {
		return fmt.Errorf("get round stats: %w", err)
	}
	lines = filterRounds(lines, roundsClutch, roundsSide, roundsDeaths)
	if len(lines) == 0 {
		fmt.Fprintln(os.Stdout, "no rounds match the filters")
		return nil
	}

	report.PrintMatchSummary(os.Stdout, *demo)
	report.PrintRoundTable(os.Stdout, lines)
	return nil
}
