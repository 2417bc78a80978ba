package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/pable/cs-coach/internal/model"
)

// DemoRef holds a demo hash, map name, and match date.
type DemoRef struct {
	Hash      string
	MapName   string
	MatchDate string // "YYYY-MM-DD"
}

// SideStats holds CT and T round win counts.
type SideStats struct {
	CTWins  int
	CTTotal int
	TWins   int
	TTotal  int
}

// PlayerTotals holds summed stats for one player across multiple demos.
type PlayerTotals struct {
	PlayerID      model.PlayerID
	Name          string
	Demos         int
	Kills         int
	Deaths        int
	Assists       int
	RoundsPlayed  int
	TotalDamage   int
	ClutchesWon   int
	ClutchesTotal int
	AvgRating     float64
}

// MapRating holds a player's average rating on one map.
type MapRating struct {
	MapName   string
	Demos     int
	AvgRating float64
}

// QualifyingDemos returns demos on or after since where at least quorum of the
// given players appear, newest first.
func (db *DB) QualifyingDemos(ids []model.PlayerID, since time.Time, quorum int) ([]DemoRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := idArgs(ids)
	args = append(args, since.Format("2006-01-02"))

	query := fmt.Sprintf(`
		SELECT d.hash, d.map_name, d.match_date
		FROM demos d
		JOIN player_match_stats p ON p.demo_hash = d.hash
		WHERE p.player_id IN (%s)
		  AND d.match_date >= ?
		GROUP BY d.hash
		HAVING COUNT(DISTINCT p.player_id) >= %d
		ORDER BY d.match_date DESC, d.hash`,
		placeholders(len(ids)), quorum)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DemoRef
	for rows.Next() {
		var r DemoRef
		if err := rows.Scan(&r.Hash, &r.MapName, &r.MatchDate); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RoundSideStats returns CT/T round wins and totals for the given players.
// An empty demoHashes slice means every stored demo.
func (db *DB) RoundSideStats(ids []model.PlayerID, demoHashes []string) (SideStats, error) {
	var s SideStats
	if len(ids) == 0 {
		return s, nil
	}
	where, args := scopeFilter("player_id", ids, demoHashes)

	// COALESCE guards against NULL when no rows match.
	query := `
		SELECT
		  COALESCE(SUM(CASE WHEN team='CT' AND winner='CT' THEN 1 ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN team='CT'                 THEN 1 ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN team='T'  AND winner='T'  THEN 1 ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN team='T'                  THEN 1 ELSE 0 END), 0)
		FROM player_round_stats
		WHERE ` + where

	err := db.conn.QueryRow(query, args...).Scan(&s.CTWins, &s.CTTotal, &s.TWins, &s.TTotal)
	return s, err
}

// PlayerTotals returns per-player summed stats, most active players first.
// An empty demoHashes slice means every stored demo.
func (db *DB) PlayerTotals(ids []model.PlayerID, demoHashes []string) ([]PlayerTotals, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where, args := scopeFilter("player_id", ids, demoHashes)

	query := `
		SELECT player_id, MAX(name), COUNT(*),
		       SUM(kills), SUM(deaths), SUM(assists),
		       SUM(rounds_played), SUM(total_damage),
		       SUM(clutches_won), SUM(clutches_total), AVG(rating)
		FROM player_match_stats
		WHERE ` + where + `
		GROUP BY player_id
		ORDER BY SUM(rounds_played) DESC, player_id`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerTotals
	for rows.Next() {
		var (
			p  PlayerTotals
			id string
		)
		if err := rows.Scan(
			&id, &p.Name, &p.Demos,
			&p.Kills, &p.Deaths, &p.Assists,
			&p.RoundsPlayed, &p.TotalDamage,
			&p.ClutchesWon, &p.ClutchesTotal, &p.AvgRating,
		); err != nil {
			return nil, err
		}
		if p.PlayerID, err = parseID(id); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MapRatings returns one player's average rating per map, best map first.
func (db *DB) MapRatings(id model.PlayerID) ([]MapRating, error) {
	rows, err := db.conn.Query(`
		SELECT d.map_name, COUNT(*), AVG(p.rating)
		FROM player_match_stats p
		JOIN demos d ON d.hash = p.demo_hash
		WHERE p.player_id = ?
		GROUP BY d.map_name
		ORDER BY AVG(p.rating) DESC, d.map_name`, formatID(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MapRating
	for rows.Next() {
		var m MapRating
		if err := rows.Scan(&m.MapName, &m.Demos, &m.AvgRating); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scopeFilter(col string, ids []model.PlayerID, demoHashes []string) (string, []any) {
	args := idArgs(ids)
	where := fmt.Sprintf("%s IN (%s)", col, placeholders(len(ids)))
	if len(demoHashes) > 0 {
		where += fmt.Sprintf(" AND demo_hash IN (%s)", placeholders(len(demoHashes)))
		for _, h := range demoHashes {
			args = append(args, h)
		}
	}
	return where, args
}

func idArgs(ids []model.PlayerID) []any {
	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, formatID(id))
	}
	return args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
