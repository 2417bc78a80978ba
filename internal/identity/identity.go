// Package identity assigns stable player ids and folds per-reference stat
// fragments into one canonical record per player.
package identity

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/pable/cs-coach/internal/model"
)

// ErrEmptyGroup is returned when asked to merge zero fragments.
var ErrEmptyGroup = errors.New("empty fragment group")

// Registry hands out stable ids at first sighting. Humans keep their SteamID64;
// bots have none, so they get a synthetic id keyed by their user id.
type Registry struct {
	bots   map[int]model.PlayerID
	nextID model.PlayerID
}

func NewRegistry() *Registry {
	return &Registry{bots: make(map[int]model.PlayerID), nextID: 1}
}

// Resolve returns the stable id for ref, 0 when ref names no participant.
func (r *Registry) Resolve(ref model.PlayerRef) model.PlayerID {
	if ref.SteamID64 != 0 && !ref.IsBot {
		return model.PlayerID(ref.SteamID64)
	}
	if ref.UserID == 0 {
		return 0
	}
	if id, ok := r.bots[ref.UserID]; ok {
		return id
	}
	id := r.nextID
	r.nextID++
	r.bots[ref.UserID] = id
	return id
}

// ResolveRef returns ref with its ID filled in.
func (r *Registry) ResolveRef(ref model.PlayerRef) model.PlayerRef {
	ref.ID = r.Resolve(ref)
	return ref
}

func chronological(a, b *model.PlayerFragment) int {
	if c := cmp.Compare(a.Pos.Tick, b.Pos.Tick); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Pos.Seq, b.Pos.Seq); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Raw.SteamID64, b.Raw.SteamID64); c != 0 {
		return c
	}
	return cmp.Compare(a.Raw.UserID, b.Raw.UserID)
}

// Merge folds a group of fragments belonging to one player. Counters are
// summed, headshot percentage follows from the summed counts, and the display
// name and stable id come from the chronologically last fragment.
func Merge(fragments []*model.PlayerFragment) (model.PlayerRecord, error) {
	if len(fragments) == 0 {
		return model.PlayerRecord{}, ErrEmptyGroup
	}
	group := slices.Clone(fragments)
	slices.SortFunc(group, chronological)

	var out model.PlayerRecord
	for _, f := range group {
		rec := &f.Record
		out.Kills += rec.Kills
		out.Deaths += rec.Deaths
		out.Assists += rec.Assists
		out.HeadshotKills += rec.HeadshotKills

		for _, w := range rec.Weapons {
			dst := out.Weapon(w.Weapon)
			dst.Kills += w.Kills
			dst.TotalShots += w.TotalShots
			dst.Hits += w.Hits
		}

		// Map iteration order is irrelevant: numeric values commute and text
		// values only compete across fragments, which are already ordered.
		for k, v := range rec.Aux {
			if v.IsText {
				out.SetAuxText(k, v.Text)
				continue
			}
			out.AddAux(k, v.Number)
		}

		if rec.DisplayName != "" {
			out.DisplayName = rec.DisplayName
		}
		out.StableID = rec.StableID
	}
	return out, nil
}

// Reconcile groups fragments by stable id and merges each group.
func Reconcile(fragments []*model.PlayerFragment) (map[model.PlayerID]*model.PlayerRecord, error) {
	groups := make(map[model.PlayerID][]*model.PlayerFragment)
	for _, f := range fragments {
		groups[f.Record.StableID] = append(groups[f.Record.StableID], f)
	}

	players := make(map[model.PlayerID]*model.PlayerRecord, len(groups))
	for id, group := range groups {
		rec, err := Merge(group)
		if err != nil {
			return nil, fmt.Errorf("merge player %d: %w", id, err)
		}
		players[id] = &rec
	}
	return players, nil
}
