// Package aggregator turns a finalized match ledger into the per-demo rows
// that get persisted: match summary, player lines, round lines, weapon lines
// and training records.
package aggregator

import (
	"fmt"
	"slices"
	"time"

	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/rating"
	"github.com/pable/cs-coach/internal/rounds"
)

// Result bundles everything stored for one demo.
type Result struct {
	Summary  model.MatchSummary
	Players  []model.PlayerMatchStats
	Rounds   []model.PlayerRoundStats
	Weapons  []model.PlayerWeaponStats
	Training []model.TrainingRecord
}

// Aggregate rates every player of m and builds the persisted rows. now stamps
// the match date and the training records.
func Aggregate(hash, matchType string, m *model.MatchLedger, eng *rating.Engine, now time.Time) (*Result, error) {
	if m == nil {
		return nil, fmt.Errorf("nil MatchLedger")
	}

	res := &Result{Summary: model.MatchSummary{
		DemoHash:  hash,
		MapName:   m.MapName,
		MatchDate: now.Format("2006-01-02"),
		MatchType: matchType,
		Tickrate:  m.TickRate,
		Rounds:    rounds.Count(m.Events),
	}}
	segs := rounds.Segment(m.Events)
	for i := range segs {
		switch segs[i].Winner() {
		case model.TeamCT:
			res.Summary.CTScore++
		case model.TeamT:
			res.Summary.TScore++
		}
	}

	ids := make([]model.PlayerID, 0, len(m.Players))
	for id := range m.Players {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		rec := m.Players[id]
		b, err := eng.Breakdown(m, id)
		if err != nil {
			return nil, fmt.Errorf("rate player %d: %w", id, err)
		}
		lines, err := eng.Rounds(m, id)
		if err != nil {
			return nil, fmt.Errorf("round lines for player %d: %w", id, err)
		}

		ps := model.PlayerMatchStats{
			DemoHash:      hash,
			PlayerID:      id,
			Name:          rec.DisplayName,
			Team:          model.ParseTeam(rec.Aux[model.AuxTeam].Text),
			Kills:         rec.Kills,
			Assists:       rec.Assists,
			Deaths:        rec.Deaths,
			HeadshotKills: rec.HeadshotKills,
			TotalDamage:   int(rec.AuxNumber(model.AuxDamage)),
			UtilityDamage: int(rec.AuxNumber(model.AuxUtilityDamage)),
			RoundsPlayed:  int(b.Metrics[rating.Rounds]),
			FlashAssists:  b.FlashAssists,
			TradeKills:    b.TradeKills,
			TradedDeaths:  b.TradedDeaths,
			Rating:        b.Total,
		}
		for _, w := range rec.Weapons {
			ps.Shots += w.TotalShots
			ps.Hits += w.Hits
			res.Weapons = append(res.Weapons, model.PlayerWeaponStats{
				DemoHash: hash,
				PlayerID: id,
				Weapon:   w.Weapon,
				Kills:    w.Kills,
				Shots:    w.TotalShots,
				Hits:     w.Hits,
			})
		}

		for _, l := range lines {
			if l.OpeningKill {
				ps.OpeningKills++
			}
			if l.OpeningDeath {
				ps.OpeningDeaths++
			}
			if l.Clutch && segs[l.Number-1].Resolved() {
				ps.ClutchesTotal++
				if l.ClutchWon {
					ps.ClutchesWon++
				}
			}
			res.Rounds = append(res.Rounds, model.PlayerRoundStats{
				DemoHash:       hash,
				PlayerID:       id,
				RoundNumber:    l.Number,
				Team:           l.Team,
				Winner:         l.Winner,
				Kills:          l.Kills,
				Assists:        l.Assists,
				Damage:         l.Damage,
				UtilityDamage:  l.UtilityDamage,
				Survived:       !l.Died,
				OpeningKill:    l.OpeningKill,
				OpeningDeath:   l.OpeningDeath,
				TradeKills:     l.TradeKills,
				TradedDeath:    l.TradedDeath,
				FlashAssists:   l.FlashAssists,
				Clutch:         l.Clutch,
				ClutchWon:      l.ClutchWon,
				ClutchVs:       l.ClutchVs,
				EquipmentValue: l.EquipmentValue,
			})
		}
		res.Players = append(res.Players, ps)

		res.Training = append(res.Training, model.TrainingRecord{
			DemoHash:   hash,
			MapName:    m.MapName,
			PlayerID:   id,
			PlayerName: rec.DisplayName,
			Rating:     b.Total,
			Metrics:    b.Metrics,
			CreatedAt:  now,
		})
	}

	slices.SortStableFunc(res.Players, func(a, b model.PlayerMatchStats) int {
		switch {
		case a.Rating > b.Rating:
			return -1
		case a.Rating < b.Rating:
			return 1
		}
		return 0
	})
	return res, nil
}
