// Package rating turns a finalized match ledger into a 0-100 performance
// rating and a named-metric breakdown.
package rating

import (
	"errors"
	"fmt"

	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/rounds"
	"github.com/pable/cs-coach/internal/window"
)

// ErrPlayerNotFound is returned for a player id missing from the ledger.
var ErrPlayerNotFound = errors.New("player not found")

// Metric keys.
const (
	KDR                   = "KDR"
	KillsPerRound         = "KillsPerRound"
	HeadshotFraction      = "HeadshotFraction"
	OpeningDuelWinRate    = "OpeningDuelWinRate"
	ClutchSuccessRate     = "ClutchSuccessRate"
	TradeEffectiveness    = "TradeEffectiveness"
	FlashAssistsPerRound  = "FlashAssistsPerRound"
	UtilityDamagePerRound = "UtilityDamagePerRound"
	SupportScore          = "SupportScore"
	AverageAccuracy       = "AverageAccuracy"
	SurvivalRate          = "SurvivalRate"
	DeathsPerRound        = "DeathsPerRound"
	AverageEquipmentValue = "AverageEquipmentValue"
	Rounds                = "Rounds"
	CombatScore           = "CombatScore"
	ImpactScore           = "ImpactScore"
	UtilityScore          = "UtilityScore"
	EconomyScore          = "EconomyScore"
)

// Point budgets of the four sub-scores.
const (
	combatPoints  = 40.0
	impactPoints  = 25.0
	utilityPoints = 20.0
	economyPoints = 15.0
)

// Options configures the correlation windows used by the engine.
type Options struct {
	Window window.Options
}

// Engine computes ratings. It holds no per-match state, so one Engine may be
// shared by concurrent callers.
type Engine struct {
	opts Options
}

func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Breakdown is the rating split into its sub-scores, with the raw metrics.
type Breakdown struct {
	Combat  float64
	Impact  float64
	Utility float64
	Economy float64
	Total   float64
	Metrics map[string]float64

	// Whole-ledger event counts behind the per-round and per-death metrics.
	FlashAssists int
	TradeKills   int
	TradedDeaths int
}

// ScaleValue maps v from [lo, hi] onto [0, 1], clamping outside values.
func ScaleValue(v, lo, hi float64) float64 {
	return clamp((v-lo)/(hi-lo), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// match bundles the derived views of one ledger shared by the calculations.
type match struct {
	ledger   *model.MatchLedger
	rounds   []rounds.Round
	analyzer *window.Analyzer
	denom    float64
}

func (e *Engine) prepare(m *model.MatchLedger) *match {
	return &match{
		ledger:   m,
		rounds:   rounds.Segment(m.Events),
		analyzer: window.New(m.Events, e.opts.Window),
		denom:    float64(rounds.Denominator(m.Events)),
	}
}

func (mt *match) player(id model.PlayerID) (*model.PlayerRecord, error) {
	rec, ok := mt.ledger.Player(id)
	if !ok {
		return nil, fmt.Errorf("player %d: %w", id, ErrPlayerNotFound)
	}
	return rec, nil
}

// Score returns the player's rating in [0, 100].
func (e *Engine) Score(m *model.MatchLedger, id model.PlayerID) (float64, error) {
	b, err := e.Breakdown(m, id)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}

// Metrics returns the named metrics of the player, including the sub-scores.
func (e *Engine) Metrics(m *model.MatchLedger, id model.PlayerID) (map[string]float64, error) {
	b, err := e.Breakdown(m, id)
	if err != nil {
		return nil, err
	}
	return b.Metrics, nil
}

// Breakdown computes every metric and the weighted composite for the player.
func (e *Engine) Breakdown(m *model.MatchLedger, id model.PlayerID) (Breakdown, error) {
	mt := e.prepare(m)
	rec, err := mt.player(id)
	if err != nil {
		return Breakdown{}, err
	}

	trades := mt.analyzer.Trades(id)
	flashes := mt.analyzer.FlashAssists(id)
	met := map[string]float64{
		KDR:                   rec.KDRatio(),
		KillsPerRound:         float64(rec.Kills) / mt.denom,
		DeathsPerRound:        float64(rec.Deaths) / mt.denom,
		SurvivalRate:          max(0, 1-float64(rec.Deaths)/mt.denom),
		HeadshotFraction:      rec.HeadshotPercentage() / 100,
		AverageAccuracy:       averageAccuracy(rec),
		OpeningDuelWinRate:    mt.openingDuelWinRate(id),
		ClutchSuccessRate:     mt.clutchSuccessRate(id),
		TradeEffectiveness:    tradeEffectiveness(trades),
		FlashAssistsPerRound:  float64(flashes) / mt.denom,
		UtilityDamagePerRound: rec.AuxNumber(model.AuxUtilityDamage) / mt.denom,
		SupportScore:          float64(rec.Assists) / float64(max(1, rec.Kills)),
		Rounds:                mt.denom,
	}

	b := Breakdown{
		Metrics:      met,
		FlashAssists: flashes,
		TradeKills:   trades.TradeKills,
		TradedDeaths: trades.TradedDeaths,
	}
	b.Combat = ScaleValue(met[KDR], 0.5, 2.0)*15 +
		ScaleValue(met[KillsPerRound], 0.4, 1.2)*15 +
		ScaleValue(met[HeadshotFraction], 0.2, 0.7)*10
	b.Impact = ScaleValue(met[OpeningDuelWinRate], 0.3, 0.7)*10 +
		ScaleValue(met[ClutchSuccessRate], 0.2, 0.6)*10 +
		ScaleValue(met[TradeEffectiveness], 0.3, 0.7)*5
	b.Utility = ScaleValue(met[FlashAssistsPerRound], 0.1, 0.5)*7 +
		ScaleValue(met[UtilityDamagePerRound], 10, 30)*7 +
		ScaleValue(met[SupportScore], 0.2, 0.6)*6

	if avg, ok := mt.averageEquipmentValue(id); ok {
		met[AverageEquipmentValue] = avg
		b.Economy = ScaleValue(avg, 2000, 4500) * economyPoints
	} else {
		b.Economy = economyPoints / 2
	}

	b.Total = clamp(b.Combat+b.Impact+b.Utility+b.Economy, 0, combatPoints+impactPoints+utilityPoints+economyPoints)
	met[CombatScore] = b.Combat
	met[ImpactScore] = b.Impact
	met[UtilityScore] = b.Utility
	met[EconomyScore] = b.Economy
	return b, nil
}

// averageAccuracy pools hits over shots across all weapons, capped at 1 since
// one bullet can wallbang several players.
func averageAccuracy(rec *model.PlayerRecord) float64 {
	var hits, shots int
	for _, w := range rec.Weapons {
		hits += w.Hits
		shots += w.TotalShots
	}
	if shots == 0 {
		return 0
	}
	return clamp(float64(hits)/float64(shots), 0, 1)
}

// openingDeath returns the first death of the round with both sides known.
func openingDeath(r *rounds.Round) (model.PlayerDeath, bool) {
	for _, ev := range r.Deaths() {
		d, _ := ev.Death()
		if d.Killer.ID != 0 && d.Victim.ID != 0 && d.Killer.ID != d.Victim.ID {
			return d, true
		}
	}
	return model.PlayerDeath{}, false
}

func (mt *match) openingDuelWinRate(id model.PlayerID) float64 {
	var won, taken int
	for i := range mt.rounds {
		d, ok := openingDeath(&mt.rounds[i])
		if !ok {
			continue
		}
		switch id {
		case d.Killer.ID:
			won++
			taken++
		case d.Victim.ID:
			taken++
		}
	}
	if taken == 0 {
		return 0
	}
	return float64(won) / float64(taken)
}

func (mt *match) clutchSuccessRate(id model.PlayerID) float64 {
	clutches := mt.analyzer.Clutches(mt.rounds, id)
	if len(clutches) == 0 {
		return 0
	}
	won := 0
	for _, c := range clutches {
		if c.Won {
			won++
		}
	}
	return float64(won) / float64(len(clutches))
}

// tradeEffectiveness is successful trades in either direction per death. A
// player who never died had no trade opportunity and scores 0.
func tradeEffectiveness(s window.TradeStats) float64 {
	if s.Deaths == 0 {
		return 0
	}
	return float64(s.TradedDeaths+s.TradeKills) / float64(s.Deaths)
}
