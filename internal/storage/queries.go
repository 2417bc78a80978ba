package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pable/cs-coach/internal/aggregator"
	"github.com/pable/cs-coach/internal/model"
)

// ErrNoPredictor is returned by LoadPredictor when nothing was saved under the name.
var ErrNoPredictor = errors.New("no predictor stored")

// DemoExists returns true if a demo with the given hash is already stored.
func (db *DB) DemoExists(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM demos WHERE hash = ?", hash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertDemo inserts a demo record. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertDemo(summary model.MatchSummary) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO demos(hash, map_name, match_date, match_type, tickrate, ct_score, t_score, rounds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.DemoHash, summary.MapName, summary.MatchDate, summary.MatchType,
		summary.Tickrate, summary.CTScore, summary.TScore, summary.Rounds,
	)
	return err
}

// SaveResult stores every row of an aggregated demo. The demo row is written
// first so the foreign keys of the player rows resolve.
func (db *DB) SaveResult(res *aggregator.Result) error {
	if err := db.InsertDemo(res.Summary); err != nil {
		return fmt.Errorf("insert demo: %w", err)
	}
	if err := db.InsertPlayerMatchStats(res.Players); err != nil {
		return fmt.Errorf("insert player stats: %w", err)
	}
	if err := db.InsertPlayerRoundStats(res.Rounds); err != nil {
		return fmt.Errorf("insert round stats: %w", err)
	}
	if err := db.InsertPlayerWeaponStats(res.Weapons); err != nil {
		return fmt.Errorf("insert weapon stats: %w", err)
	}
	if err := db.InsertTrainingRecords(res.Training); err != nil {
		return fmt.Errorf("insert training records: %w", err)
	}
	return nil
}

// InsertPlayerMatchStats bulk-inserts player match stats in a transaction.
func (db *DB) InsertPlayerMatchStats(stats []model.PlayerMatchStats) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_match_stats(
			demo_hash, player_id, name, team,
			kills, assists, deaths, headshot_kills, flash_assists,
			total_damage, utility_damage, rounds_played,
			opening_kills, opening_deaths, trade_kills, traded_deaths,
			clutches_won, clutches_total, shots, hits, rating
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err = stmt.Exec(
			s.DemoHash, formatID(s.PlayerID), s.Name, s.Team.String(),
			s.Kills, s.Assists, s.Deaths, s.HeadshotKills, s.FlashAssists,
			s.TotalDamage, s.UtilityDamage, s.RoundsPlayed,
			s.OpeningKills, s.OpeningDeaths, s.TradeKills, s.TradedDeaths,
			s.ClutchesWon, s.ClutchesTotal, s.Shots, s.Hits, s.Rating,
		)
		if err != nil {
			return fmt.Errorf("insert player_match_stats for %d: %w", s.PlayerID, err)
		}
	}
	return tx.Commit()
}

// InsertPlayerRoundStats bulk-inserts per-round stats in a transaction.
func (db *DB) InsertPlayerRoundStats(stats []model.PlayerRoundStats) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_round_stats(
			demo_hash, player_id, round_number, team, winner,
			kills, assists, damage, utility_damage, survived,
			is_opening_kill, is_opening_death, trade_kills, was_traded, flash_assists,
			is_clutch, clutch_won, clutch_vs, equipment_value
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err = stmt.Exec(
			s.DemoHash, formatID(s.PlayerID), s.RoundNumber, s.Team.String(), s.Winner.String(),
			s.Kills, s.Assists, s.Damage, s.UtilityDamage, boolInt(s.Survived),
			boolInt(s.OpeningKill), boolInt(s.OpeningDeath), s.TradeKills, boolInt(s.TradedDeath), s.FlashAssists,
			boolInt(s.Clutch), boolInt(s.ClutchWon), s.ClutchVs, s.EquipmentValue,
		)
		if err != nil {
			return fmt.Errorf("insert player_round_stats: %w", err)
		}
	}
	return tx.Commit()
}

// InsertPlayerWeaponStats bulk-inserts per-weapon stats in a transaction.
func (db *DB) InsertPlayerWeaponStats(stats []model.PlayerWeaponStats) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_weapon_stats(demo_hash, player_id, weapon, kills, shots, hits)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		if _, err = stmt.Exec(s.DemoHash, formatID(s.PlayerID), s.Weapon, s.Kills, s.Shots, s.Hits); err != nil {
			return fmt.Errorf("insert player_weapon_stats: %w", err)
		}
	}
	return tx.Commit()
}

// InsertTrainingRecords stores rated player-matches with their metric snapshot.
func (db *DB) InsertTrainingRecords(recs []model.TrainingRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO training_records(demo_hash, player_id, map_name, player_name, rating, metrics, created_at)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		metrics, err := json.Marshal(r.Metrics)
		if err != nil {
			return fmt.Errorf("encode metrics for %d: %w", r.PlayerID, err)
		}
		_, err = stmt.Exec(r.DemoHash, formatID(r.PlayerID), r.MapName, r.PlayerName, r.Rating,
			string(metrics), r.CreatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert training_records: %w", err)
		}
	}
	return tx.Commit()
}

// TrainingRecords returns every stored training record, oldest first.
func (db *DB) TrainingRecords() ([]model.TrainingRecord, error) {
	rows, err := db.conn.Query(`
		SELECT demo_hash, player_id, map_name, player_name, rating, metrics, created_at
		FROM training_records
		ORDER BY created_at, demo_hash, player_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TrainingRecord
	for rows.Next() {
		var (
			r                 model.TrainingRecord
			id, metrics, when string
		)
		if err := rows.Scan(&r.DemoHash, &id, &r.MapName, &r.PlayerName, &r.Rating, &metrics, &when); err != nil {
			return nil, err
		}
		if r.PlayerID, err = parseID(id); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics for %s: %w", id, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, when); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", when, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SavePredictor stores a serialized predictor under name, replacing any previous one.
func (db *DB) SavePredictor(name string, blob []byte, samples int, trainedAt time.Time) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO predictors(name, model, samples, trained_at) VALUES (?, ?, ?, ?)`,
		name, string(blob), samples, trainedAt.UTC().Format(time.RFC3339))
	return err
}

// LoadPredictor returns the serialized predictor stored under name.
func (db *DB) LoadPredictor(name string) ([]byte, error) {
	var raw string
	err := db.conn.QueryRow("SELECT model FROM predictors WHERE name = ?", name).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNoPredictor
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

// ListDemos returns all stored demos ordered by match date descending.
func (db *DB) ListDemos() ([]model.MatchSummary, error) {
	rows, err := db.conn.Query(`
		SELECT hash, map_name, match_date, match_type, tickrate, ct_score, t_score, rounds
		FROM demos
		ORDER BY match_date DESC, hash`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchSummary
	for rows.Next() {
		var s model.MatchSummary
		if err := rows.Scan(&s.DemoHash, &s.MapName, &s.MatchDate, &s.MatchType,
			&s.Tickrate, &s.CTScore, &s.TScore, &s.Rounds); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetDemoByPrefix returns the first demo whose hash starts with prefix, or nil.
func (db *DB) GetDemoByPrefix(prefix string) (*model.MatchSummary, error) {
	var s model.MatchSummary
	err := db.conn.QueryRow(`
		SELECT hash, map_name, match_date, match_type, tickrate, ct_score, t_score, rounds
		FROM demos WHERE hash LIKE ? ORDER BY hash LIMIT 1`, prefix+"%").Scan(
		&s.DemoHash, &s.MapName, &s.MatchDate, &s.MatchType,
		&s.Tickrate, &s.CTScore, &s.TScore, &s.Rounds)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteDemo removes a demo and all of its player rows. Training records are
// kept; they outlive the demos they came from.
func (db *DB) DeleteDemo(hash string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"player_match_stats", "player_round_stats", "player_weapon_stats"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE demo_hash = ?", hash); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	res, err := tx.Exec("DELETE FROM demos WHERE hash = ?", hash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("demo %s not found", hash)
	}
	return tx.Commit()
}

const playerMatchColumns = `
	p.demo_hash, d.map_name, p.player_id, p.name, p.team,
	p.kills, p.assists, p.deaths, p.headshot_kills, p.flash_assists,
	p.total_damage, p.utility_damage, p.rounds_played,
	p.opening_kills, p.opening_deaths, p.trade_kills, p.traded_deaths,
	p.clutches_won, p.clutches_total, p.shots, p.hits, p.rating`

// GetPlayerMatchStats returns all player stats for a given demo, best rating first.
func (db *DB) GetPlayerMatchStats(demoHash string) ([]model.PlayerMatchStats, error) {
	return db.queryPlayerMatchStats(`
		SELECT`+playerMatchColumns+`
		FROM player_match_stats p JOIN demos d ON d.hash = p.demo_hash
		WHERE p.demo_hash = ?
		ORDER BY p.rating DESC, p.player_id`, demoHash)
}

// GetAllPlayerMatchStats returns one player's lines across every stored demo,
// oldest match first.
func (db *DB) GetAllPlayerMatchStats(id model.PlayerID) ([]model.PlayerMatchStats, error) {
	return db.queryPlayerMatchStats(`
		SELECT`+playerMatchColumns+`
		FROM player_match_stats p JOIN demos d ON d.hash = p.demo_hash
		WHERE p.player_id = ?
		ORDER BY d.match_date, d.hash`, formatID(id))
}

func (db *DB) queryPlayerMatchStats(query string, args ...any) ([]model.PlayerMatchStats, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerMatchStats
	for rows.Next() {
		var (
			s        model.PlayerMatchStats
			id, team string
		)
		if err := rows.Scan(
			&s.DemoHash, &s.MapName, &id, &s.Name, &team,
			&s.Kills, &s.Assists, &s.Deaths, &s.HeadshotKills, &s.FlashAssists,
			&s.TotalDamage, &s.UtilityDamage, &s.RoundsPlayed,
			&s.OpeningKills, &s.OpeningDeaths, &s.TradeKills, &s.TradedDeaths,
			&s.ClutchesWon, &s.ClutchesTotal, &s.Shots, &s.Hits, &s.Rating,
		); err != nil {
			return nil, err
		}
		if s.PlayerID, err = parseID(id); err != nil {
			return nil, err
		}
		s.Team = model.ParseTeam(team)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetPlayerRoundStats returns one player's round lines for a demo in round order.
func (db *DB) GetPlayerRoundStats(demoHash string, id model.PlayerID) ([]model.PlayerRoundStats, error) {
	rows, err := db.conn.Query(`
		SELECT demo_hash, player_id, round_number, team, winner,
			kills, assists, damage, utility_damage, survived,
			is_opening_kill, is_opening_death, trade_kills, was_traded, flash_assists,
			is_clutch, clutch_won, clutch_vs, equipment_value
		FROM player_round_stats
		WHERE demo_hash = ? AND player_id = ?
		ORDER BY round_number`, demoHash, formatID(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerRoundStats
	for rows.Next() {
		var s model.PlayerRoundStats
		var pid, team, winner string
		var survived, openK, openD, traded, clutch, clutchWon int
		if err := rows.Scan(
			&s.DemoHash, &pid, &s.RoundNumber, &team, &winner,
			&s.Kills, &s.Assists, &s.Damage, &s.UtilityDamage, &survived,
			&openK, &openD, &s.TradeKills, &traded, &s.FlashAssists,
			&clutch, &clutchWon, &s.ClutchVs, &s.EquipmentValue,
		); err != nil {
			return nil, err
		}
		if s.PlayerID, err = parseID(pid); err != nil {
			return nil, err
		}
		s.Team = model.ParseTeam(team)
		s.Winner = model.ParseTeam(winner)
		s.Survived = survived != 0
		s.OpeningKill = openK != 0
		s.OpeningDeath = openD != 0
		s.TradedDeath = traded != 0
		s.Clutch = clutch != 0
		s.ClutchWon = clutchWon != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetPlayerWeaponStats returns all weapon lines for a demo, most kills first.
func (db *DB) GetPlayerWeaponStats(demoHash string) ([]model.PlayerWeaponStats, error) {
	rows, err := db.conn.Query(`
		SELECT demo_hash, player_id, weapon, kills, shots, hits
		FROM player_weapon_stats
		WHERE demo_hash = ?
		ORDER BY kills DESC, player_id, weapon`, demoHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerWeaponStats
	for rows.Next() {
		var (
			s  model.PlayerWeaponStats
			id string
		)
		if err := rows.Scan(&s.DemoHash, &id, &s.Weapon, &s.Kills, &s.Shots, &s.Hits); err != nil {
			return nil, err
		}
		if s.PlayerID, err = parseID(id); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns its column names and rows as strings.
// NULL values come back as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatID(id model.PlayerID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseID(s string) (model.PlayerID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse player id %q: %w", s, err)
	}
	return model.PlayerID(v), nil
}
