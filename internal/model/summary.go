package model

import "time"

// ---- Persisted summaries ----

// MatchSummary holds top-level metadata for a parsed demo.
type MatchSummary struct {
	DemoHash  string
	MapName   string
	MatchDate string // YYYY-MM-DD
	MatchType string
	Tickrate  float64
	CTScore   int
	TScore    int
	Rounds    int
}

// PlayerMatchStats is one player's aggregated line for one demo, together
// with the rating computed for it.
type PlayerMatchStats struct {
	DemoHash      string
	MapName       string // filled by cross-demo queries only
	PlayerID      PlayerID
	Name          string
	Team          Team
	Kills         int
	Assists       int
	Deaths        int
	HeadshotKills int
	FlashAssists  int
	TotalDamage   int
	UtilityDamage int
	RoundsPlayed  int
	OpeningKills  int
	OpeningDeaths int
	TradeKills    int
	TradedDeaths  int
	ClutchesWon   int
	ClutchesTotal int
	Shots         int
	Hits          int
	Rating        float64
}

// HSPercent returns the headshot percentage of kills.
func (p PlayerMatchStats) HSPercent() float64 {
	if p.Kills == 0 {
		return 0
	}
	return float64(p.HeadshotKills) / float64(p.Kills) * 100
}

// KDRatio returns kills/deaths, or kills when the player never died.
func (p PlayerMatchStats) KDRatio() float64 {
	if p.Deaths == 0 {
		return float64(p.Kills)
	}
	return float64(p.Kills) / float64(p.Deaths)
}

// ADR returns average damage per round.
func (p PlayerMatchStats) ADR() float64 {
	if p.RoundsPlayed == 0 {
		return 0
	}
	return float64(p.TotalDamage) / float64(p.RoundsPlayed)
}

// Accuracy returns pooled hits per shot as a percentage.
func (p PlayerMatchStats) Accuracy() float64 {
	if p.Shots == 0 {
		return 0
	}
	return float64(p.Hits) / float64(p.Shots) * 100
}

// PlayerRoundStats is one player's contribution to one round.
type PlayerRoundStats struct {
	DemoHash       string
	PlayerID       PlayerID
	RoundNumber    int
	Team           Team
	Winner         Team
	Kills          int
	Assists        int
	Damage         int
	UtilityDamage  int
	Survived       bool
	OpeningKill    bool
	OpeningDeath   bool
	TradeKills     int
	TradedDeath    bool
	FlashAssists   int
	Clutch         bool
	ClutchWon      bool
	ClutchVs       int
	EquipmentValue int // -1 when not sampled
}

// PlayerWeaponStats is one player's per-weapon line for one demo.
type PlayerWeaponStats struct {
	DemoHash string
	PlayerID PlayerID
	Weapon   string
	Kills    int
	Shots    int
	Hits     int
}

// Accuracy returns hits per shot as a percentage.
func (w PlayerWeaponStats) Accuracy() float64 {
	if w.Shots == 0 {
		return 0
	}
	return float64(w.Hits) / float64(w.Shots) * 100
}

// TrainingRecord is one rated player-match kept for fitting the predictor.
type TrainingRecord struct {
	DemoHash   string
	MapName    string
	PlayerID   PlayerID
	PlayerName string
	Rating     float64
	Metrics    map[string]float64
	CreatedAt  time.Time
}
