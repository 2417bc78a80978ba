package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the database",
	Long: `Run an arbitrary SQL query against the database and print results as a table.

Schema overview:
  demos(hash, map_name, match_date, match_type, tickrate, ct_score, t_score, rounds)
  player_match_stats(demo_hash, player_id TEXT, name, team, kills, assists, deaths,
    headshot_kills, flash_assists, total_damage, utility_damage, rounds_played,
    opening_kills, opening_deaths, trade_kills, traded_deaths, clutches_won,
    clutches_total, shots, hits, rating)
  player_round_stats(demo_hash, player_id TEXT, round_number, team, winner, kills,
    assists, damage, utility_damage, survived, is_opening_kill, is_opening_death,
    trade_kills, was_traded, flash_assists, is_clutch, clutch_won, clutch_vs,
    equipment_value)
  player_weapon_stats(demo_hash, player_id TEXT, weapon, kills, shots, hits)
  training_records(demo_hash, player_id TEXT, map_name, player_name, rating, metrics JSON, created_at)
  predictors(name, model JSON, samples, trained_at)

Note: player_id is stored as TEXT. Use quotes: WHERE player_id = '76561198031906602'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "(no rows)")
		return nil
	}
	report.PrintRaw(os.Stdout, cols, rows)
	return nil
}
