// Package rounds partitions a ledger into round windows.
package rounds

import "github.com/pable/cs-coach/internal/model"

// Round is one round window: from its RoundStart up to, not including, the
// next RoundStart or the end of the ledger.
type Round struct {
	Number    int // 1-based
	StartTick float64
	Start     model.Event
	End       *model.Event // first RoundEnd inside the window; nil when truncated
	Events    []model.Event
}

// Resolved reports whether the round has a terminating RoundEnd.
func (r *Round) Resolved() bool {
	return r.End != nil
}

// Winner returns the recorded winner, TeamUnknown for unresolved rounds.
func (r *Round) Winner() model.Team {
	if r.End == nil {
		return model.TeamUnknown
	}
	if end, ok := r.End.Payload.(model.RoundEnd); ok {
		return end.Winner
	}
	return model.TeamUnknown
}

// Deaths returns the round's PlayerDeath events in ledger order.
func (r *Round) Deaths() []model.Event {
	var out []model.Event
	for _, ev := range r.Events {
		if ev.Kind() == model.KindPlayerDeath {
			out = append(out, ev)
		}
	}
	return out
}

// Contains reports whether pos falls inside the round window.
func (r *Round) Contains(pos model.Position) bool {
	if len(r.Events) == 0 {
		return false
	}
	first, last := r.Events[0].Pos(), r.Events[len(r.Events)-1].Pos()
	return !pos.Less(first) && !last.Less(pos)
}

// Segment splits events, which must be in ledger order, into rounds. Events
// before the first RoundStart belong to no round.
func Segment(events []model.Event) []Round {
	var out []Round
	cur := -1
	for _, ev := range events {
		if ev.Kind() == model.KindRoundStart {
			out = append(out, Round{
				Number:    len(out) + 1,
				StartTick: ev.Tick,
				Start:     ev,
			})
			cur = len(out) - 1
		}
		if cur < 0 {
			continue
		}
		r := &out[cur]
		r.Events = append(r.Events, ev)
		if r.End == nil && ev.Kind() == model.KindRoundEnd {
			end := ev
			r.End = &end
		}
	}
	return out
}

// Count returns the number of RoundStart events.
func Count(events []model.Event) int {
	n := 0
	for _, ev := range events {
		if ev.Kind() == model.KindRoundStart {
			n++
		}
	}
	return n
}

// Denominator is the rounds-played divisor: Count, but never below one.
func Denominator(events []model.Event) int {
	return max(1, Count(events))
}
