package window

import "github.com/pable/cs-coach/internal/model"

// TradeStats summarizes both trade directions for one player.
type TradeStats struct {
	Deaths       int // deaths suffered
	TradedDeaths int // deaths avenged by a teammate in the window
	Kills        int
	TradeKills   int // kills that avenged a teammate
}

// avenges reports whether death b trades death a: a's killer died in b to
// someone other than a's victim, on a's victim's side when both are known.
func avenges(a, b model.PlayerDeath) bool {
	if a.Killer.ID == 0 || a.Killer.ID == a.Victim.ID {
		return false
	}
	if b.Victim.ID != a.Killer.ID || b.Killer.ID == 0 || b.Killer.ID == b.Victim.ID {
		return false
	}
	if b.Killer.ID == a.Victim.ID {
		return false
	}
	if a.Victim.Team.Playing() && b.Killer.Team.Playing() && a.Victim.Team != b.Killer.Team {
		return false
	}
	return true
}

// WasTraded reports whether the killer of death was killed in return within
// the trade window.
func (a *Analyzer) WasTraded(death model.Event) bool {
	d, ok := death.Death()
	if !ok {
		return false
	}
	hits := a.Find(model.KindPlayerDeath, death.Pos(), a.opts.TradeWindowTicks, After, func(ev model.Event) bool {
		b, _ := ev.Death()
		return avenges(d, b)
	})
	return len(hits) > 0
}

// IsTradeKill reports whether death avenged an earlier death of a teammate
// within the trade window.
func (a *Analyzer) IsTradeKill(death model.Event) bool {
	b, ok := death.Death()
	if !ok {
		return false
	}
	hits := a.Find(model.KindPlayerDeath, death.Pos(), a.opts.TradeWindowTicks, Before, func(ev model.Event) bool {
		prev, _ := ev.Death()
		return avenges(prev, b)
	})
	return len(hits) > 0
}

// Trades computes both trade directions for player over the whole ledger.
func (a *Analyzer) Trades(player model.PlayerID) TradeStats {
	var s TradeStats
	for _, ev := range a.byKind[model.KindPlayerDeath] {
		d, _ := ev.Death()
		if d.Victim.ID == player {
			s.Deaths++
			if a.WasTraded(ev) {
				s.TradedDeaths++
			}
		}
		if d.Killer.ID == player && d.Victim.ID != player {
			s.Kills++
			if a.IsTradeKill(ev) {
				s.TradeKills++
			}
		}
	}
	return s
}
