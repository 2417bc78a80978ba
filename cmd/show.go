package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/report"
	"github.com/pable/cs-coach/internal/storage"
)

var showPlayer string

var showCmd = &cobra.Command{
	Use:   "show <hash-prefix>",
	Short: "Show stored match stats by hash prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayer, "player", "", "highlight player by id or name")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	return showByHash(db, args[0], showPlayer)
}

func showByHash(db *storage.DB, prefix, player string) error {
	demo, err := db.GetDemoByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query demo: %w", err)
	}
	if demo == nil {
		return fmt.Errorf("no demo found with hash prefix %q", prefix)
	}

	stats, err := db.GetPlayerMatchStats(demo.DemoHash)
	if err != nil {
		return fmt.Errorf("get player stats: %w", err)
	}
	weaponStats, err := db.GetPlayerWeaponStats(demo.DemoHash)
	if err != nil {
		return fmt.Errorf("get weapon stats: %w", err)
	}

	focus := findStoredPlayer(stats, player)
	report.PrintMatchSummary(os.Stdout, *demo)
	report.PrintPlayerTable(os.Stdout, stats, focus)
	report.PrintWeaponTable(os.Stdout, weaponStats, stats, focus)
	return nil
}

// findStoredPlayer matches a stored line by numeric id or case-insensitive name.
func findStoredPlayer(stats []model.PlayerMatchStats, query string) model.PlayerID {
	if query == "" {
		return 0
	}
	if v, err := strconv.ParseUint(query, 10, 64); err == nil {
		return model.PlayerID(v)
	}
	for _, s := range stats {
		if strings.EqualFold(s.Name, query) {
			return s.PlayerID
		}
	}
	return 0
}
