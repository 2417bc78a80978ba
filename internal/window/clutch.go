package window

import (
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/rounds"
)

// Clutch describes a player left as the last one alive on their team.
type Clutch struct {
	Round     int
	Player    model.PlayerID
	Team      model.Team
	Start     model.Position // death of the last teammate
	Opponents int            // opponents alive at Start
	Resolved  bool
	Won       bool
}

// RoundTeams attributes each participant of a round to a side: the team
// recorded at their most recent death-event appearance in the round, falling
// back to their in-round spawn. Participants with neither are absent.
func RoundTeams(r *rounds.Round) map[model.PlayerID]model.Team {
	spawned := make(map[model.PlayerID]model.Team)
	died := make(map[model.PlayerID]model.Team)
	note := func(m map[model.PlayerID]model.Team, ref model.PlayerRef) {
		if ref.ID != 0 && ref.Team.Playing() {
			m[ref.ID] = ref.Team
		}
	}
	for _, ev := range r.Events {
		switch p := ev.Payload.(type) {
		case model.PlayerSpawn:
			note(spawned, p.Player)
		case model.PlayerDeath:
			note(died, p.Killer)
			note(died, p.Victim)
		}
	}
	for id, team := range spawned {
		if _, ok := died[id]; !ok {
			died[id] = team
		}
	}
	return died
}

// Clutch returns the clutch player entered in round r, if any. Unresolved
// rounds still report the situation, with Resolved false.
func (a *Analyzer) Clutch(r *rounds.Round, player model.PlayerID) (Clutch, bool) {
	teams := RoundTeams(r)
	team, ok := teams[player]
	if !ok {
		return Clutch{}, false
	}

	teammates, opponents := 0, 0
	for id, t := range teams {
		switch {
		case id == player:
		case t == team:
			teammates++
		default:
			opponents++
		}
	}
	if teammates == 0 || opponents == 0 {
		return Clutch{}, false
	}

	deaths := r.Deaths()
	dead := make(map[model.PlayerID]bool)
	deadMates, deadOpps := 0, 0
	for i, ev := range deaths {
		d, _ := ev.Death()
		v := d.Victim.ID
		if v == 0 || dead[v] {
			continue
		}
		dead[v] = true
		if v == player {
			return Clutch{}, false
		}
		vt, known := teams[v]
		if !known {
			continue
		}
		if vt == team {
			deadMates++
		} else {
			deadOpps++
		}
		if deadMates < teammates || deadOpps >= opponents {
			continue
		}

		c := Clutch{
			Round:     r.Number,
			Player:    player,
			Team:      team,
			Start:     ev.Pos(),
			Opponents: opponents - deadOpps,
			Resolved:  r.Resolved(),
		}
		if c.Resolved {
			c.Won = r.Winner() == team && !diedBefore(deaths[i+1:], player, r.End.Pos())
		}
		return c, true
	}
	return Clutch{}, false
}

func diedBefore(deaths []model.Event, player model.PlayerID, end model.Position) bool {
	for _, ev := range deaths {
		if !ev.Pos().Less(end) {
			return false
		}
		if d, _ := ev.Death(); d.Victim.ID == player {
			return true
		}
	}
	return false
}

// IsClutchSituation reports whether player was the last one alive on their
// team against at least one living opponent at some point of round r.
func (a *Analyzer) IsClutchSituation(r *rounds.Round, player model.PlayerID) bool {
	_, ok := a.Clutch(r, player)
	return ok
}

// DidWinClutch reports whether player won a clutch in r. Unresolved rounds
// never count.
func (a *Analyzer) DidWinClutch(r *rounds.Round, player model.PlayerID) bool {
	c, ok := a.Clutch(r, player)
	return ok && c.Resolved && c.Won
}

// Clutches returns player's clutches over resolved rounds.
func (a *Analyzer) Clutches(rs []rounds.Round, player model.PlayerID) []Clutch {
	var out []Clutch
	for i := range rs {
		if !rs[i].Resolved() {
			continue
		}
		if c, ok := a.Clutch(&rs[i], player); ok {
			out = append(out, c)
		}
	}
	return out
}
