package rating

import (
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/window"
)

// RoundLine is one player's contribution to one round.
type RoundLine struct {
	Number         int
	Winner         model.Team
	Team           model.Team
	Kills          int
	Assists        int
	Died           bool
	Damage         int
	UtilityDamage  int
	OpeningKill    bool
	OpeningDeath   bool
	TradeKills     int
	TradedDeath    bool
	FlashAssists   int
	Clutch         bool
	ClutchWon      bool
	ClutchVs       int
	EquipmentValue int // -1 when the round has no buy-phase sample
}

// Rounds returns the per-round drill-down of the player.
func (e *Engine) Rounds(m *model.MatchLedger, id model.PlayerID) ([]RoundLine, error) {
	mt := e.prepare(m)
	if _, err := mt.player(id); err != nil {
		return nil, err
	}
	samples := equipmentSamples(m.Events)

	lines := make([]RoundLine, 0, len(mt.rounds))
	for i := range mt.rounds {
		r := &mt.rounds[i]
		line := RoundLine{
			Number:         r.Number,
			Winner:         r.Winner(),
			Team:           window.RoundTeams(r)[id],
			EquipmentValue: roundEquipment(samples, r, id),
		}

		for _, ev := range r.Events {
			if !model.Involves(ev.Payload, id) {
				continue
			}
			switch p := ev.Payload.(type) {
			case model.PlayerDeath:
				if p.Killer.ID == id && p.Victim.ID != id {
					line.Kills++
					if mt.analyzer.IsTradeKill(ev) {
						line.TradeKills++
					}
					if mt.analyzer.IsFlashAssisted(ev) {
						line.FlashAssists++
					}
				}
				if p.Assister.ID == id {
					line.Assists++
				}
				if p.Victim.ID == id && !line.Died {
					line.Died = true
					line.TradedDeath = mt.analyzer.WasTraded(ev)
				}
			case model.PlayerHurt:
				if p.Attacker.ID == id && p.Victim.ID != id {
					line.Damage += p.Damage
					if model.IsUtilityDamage(p.Weapon) {
						line.UtilityDamage += p.Damage
					}
				}
			}
		}

		if d, ok := openingDeath(r); ok {
			line.OpeningKill = d.Killer.ID == id
			line.OpeningDeath = d.Victim.ID == id
		}
		if c, ok := mt.analyzer.Clutch(r, id); ok {
			line.Clutch = true
			line.ClutchWon = c.Resolved && c.Won
			line.ClutchVs = c.Opponents
		}
		lines = append(lines, line)
	}
	return lines, nil
}
