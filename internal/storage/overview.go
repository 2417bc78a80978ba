package storage

import (
	"database/sql"
	"fmt"

	"github.com/pable/cs-coach/internal/model"
)

// DBOverview holds database-wide counters.
type DBOverview struct {
	TotalMatches    int
	EarliestMatch   string
	LatestMatch     string
	UniqueMaps      int
	UniquePlayers   int
	TotalRounds     int
	TrainingRecords int
	PredictorAt     string // empty when no predictor was trained
	PredictorN      int
}

// MapStats holds match and side win counts for one map.
type MapStats struct {
	MapName string
	Matches int
	CTWins  int
	TWins   int
}

// ActivePlayer is one row of the most-active-players table.
type ActivePlayer struct {
	PlayerID  model.PlayerID
	Name      string
	Matches   int
	AvgRating float64
	AvgKD     float64
}

// MatchTypeCount counts demos per match type.
type MatchTypeCount struct {
	MatchType string
	Matches   int
}

// GetDBOverview returns database-wide counters.
func (db *DB) GetDBOverview() (DBOverview, error) {
	var ov DBOverview
	var earliest, latest sql.NullString
	err := db.conn.QueryRow(`
		SELECT COUNT(*), MIN(match_date), MAX(match_date),
		       COUNT(DISTINCT map_name), COALESCE(SUM(rounds), 0)
		FROM demos`).Scan(&ov.TotalMatches, &earliest, &latest, &ov.UniqueMaps, &ov.TotalRounds)
	if err != nil {
		return ov, fmt.Errorf("demo counters: %w", err)
	}
	ov.EarliestMatch = earliest.String
	ov.LatestMatch = latest.String

	if err := db.conn.QueryRow(`SELECT COUNT(DISTINCT player_id) FROM player_match_stats`).Scan(&ov.UniquePlayers); err != nil {
		return ov, fmt.Errorf("player counter: %w", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM training_records`).Scan(&ov.TrainingRecords); err != nil {
		return ov, fmt.Errorf("training counter: %w", err)
	}

	err = db.conn.QueryRow(`SELECT trained_at, samples FROM predictors ORDER BY trained_at DESC LIMIT 1`).
		Scan(&ov.PredictorAt, &ov.PredictorN)
	if err != nil && err != sql.ErrNoRows {
		return ov, fmt.Errorf("predictor: %w", err)
	}
	return ov, nil
}

// GetMapStats returns per-map match counts and side wins, most played first.
// A demo counts as a CT win when its CT score is higher.
func (db *DB) GetMapStats() ([]MapStats, error) {
	rows, err := db.conn.Query(`
		SELECT map_name, COUNT(*),
		       SUM(CASE WHEN ct_score > t_score THEN 1 ELSE 0 END),
		       SUM(CASE WHEN t_score > ct_score THEN 1 ELSE 0 END)
		FROM demos
		GROUP BY map_name
		ORDER BY COUNT(*) DESC, map_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MapStats
	for rows.Next() {
		var m MapStats
		if err := rows.Scan(&m.MapName, &m.Matches, &m.CTWins, &m.TWins); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetTopPlayersByMatches returns up to limit players ordered by number of
// stored matches. The name is the one from the player's latest match.
func (db *DB) GetTopPlayersByMatches(limit int) ([]ActivePlayer, error) {
	rows, err := db.conn.Query(`
		SELECT p.player_id,
		       (SELECT p2.name FROM player_match_stats p2
		        JOIN demos d2 ON d2.hash = p2.demo_hash
		        WHERE p2.player_id = p.player_id
		        ORDER BY d2.match_date DESC LIMIT 1),
		       COUNT(*), AVG(p.rating),
		       CAST(SUM(p.kills) AS REAL) / MAX(1, SUM(p.deaths))
		FROM player_match_stats p
		GROUP BY p.player_id
		ORDER BY COUNT(*) DESC, AVG(p.rating) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivePlayer
	for rows.Next() {
		var (
			p  ActivePlayer
			id string
		)
		if err := rows.Scan(&id, &p.Name, &p.Matches, &p.AvgRating, &p.AvgKD); err != nil {
			return nil, err
		}
		if p.PlayerID, err = parseID(id); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetMatchTypeCounts returns the number of demos per match type.
func (db *DB) GetMatchTypeCounts() ([]MatchTypeCount, error) {
	rows, err := db.conn.Query(`
		SELECT match_type, COUNT(*) FROM demos
		GROUP BY match_type
		ORDER BY COUNT(*) DESC, match_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchTypeCount
	for rows.Next() {
		var t MatchTypeCount
		if err := rows.Scan(&t.MatchType, &t.Matches); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
