package window

import "github.com/pable/cs-coach/internal/model"

// IsFlashAssisted reports whether the killer blinded the victim for at least
// MinBlindDuration within FlashWindowTicks before the kill.
func (a *Analyzer) IsFlashAssisted(kill model.Event) bool {
	d, ok := kill.Death()
	if !ok || d.Killer.ID == 0 || d.Victim.ID == 0 || d.Killer.ID == d.Victim.ID {
		return false
	}
	hits := a.Find(model.KindPlayerBlind, kill.Pos(), a.opts.FlashWindowTicks, Before, func(ev model.Event) bool {
		b, ok := ev.Payload.(model.PlayerBlind)
		return ok && b.Victim.ID == d.Victim.ID && b.Attacker.ID == d.Killer.ID && b.Duration >= a.opts.MinBlindDuration
	})
	return len(hits) > 0
}

// FlashAssists counts player's kills that were flash-assisted by themselves.
func (a *Analyzer) FlashAssists(player model.PlayerID) int {
	n := 0
	for _, ev := range a.byKind[model.KindPlayerDeath] {
		d, _ := ev.Death()
		if d.Killer.ID == player && a.IsFlashAssisted(ev) {
			n++
		}
	}
	return n
}
