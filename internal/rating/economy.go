package rating

import (
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/rounds"
)

// inventory replays held items per player from pickups, drops, deaths and
// disconnects.
type inventory map[model.PlayerID]map[string]int

func (inv inventory) apply(ev model.Event) {
	switch p := ev.Payload.(type) {
	case model.ItemPickup:
		if p.Player.ID == 0 {
			return
		}
		items := inv[p.Player.ID]
		if items == nil {
			items = make(map[string]int)
			inv[p.Player.ID] = items
		}
		items[model.NormalizeItem(p.Item)]++
	case model.ItemDrop:
		items := inv[p.Player.ID]
		key := model.NormalizeItem(p.Item)
		if items[key] > 0 {
			items[key]--
		}
	case model.PlayerDeath:
		delete(inv, p.Victim.ID)
	case model.PlayerDisconnect:
		delete(inv, p.Player.ID)
	}
}

func (inv inventory) value(id model.PlayerID) int {
	total := 0
	for item, n := range inv[id] {
		total += model.EquipmentValue(item) * n
	}
	return total
}

// equipmentSamples returns, per round, the held equipment value of every
// player present in that round at its buy cutoff. Rounds without a
// FreezetimeEnd produce no sample.
func equipmentSamples(events []model.Event) map[int]map[model.PlayerID]int {
	inv := make(inventory)
	out := make(map[int]map[model.PlayerID]int)

	round := 0
	var present map[model.PlayerID]bool
	sampled := false
	for _, ev := range events {
		if ev.Kind() == model.KindRoundStart {
			round++
			present = make(map[model.PlayerID]bool)
			sampled = false
		}
		inv.apply(ev)
		if round == 0 {
			continue
		}
		for _, ref := range model.Refs(ev.Payload) {
			if ref.ID != 0 {
				present[ref.ID] = true
			}
		}
		if ev.Kind() == model.KindFreezetimeEnd && !sampled {
			sampled = true
			values := make(map[model.PlayerID]int, len(present))
			for id := range present {
				values[id] = inv.value(id)
			}
			out[round] = values
		}
	}
	return out
}

// averageEquipmentValue is the mean held value over the rounds where the
// player was sampled. ok is false when no buy-phase data exists.
func (mt *match) averageEquipmentValue(id model.PlayerID) (float64, bool) {
	var sum, n int
	for _, values := range equipmentSamples(mt.ledger.Events) {
		if v, ok := values[id]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// roundEquipment returns the sampled value for round r, -1 when unsampled.
func roundEquipment(samples map[int]map[model.PlayerID]int, r *rounds.Round, id model.PlayerID) int {
	if v, ok := samples[r.Number][id]; ok {
		return v
	}
	return -1
}
