// Package ledger is the append-only, strictly ordered event log of one match.
package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pable/cs-coach/internal/model"
)

// ErrTickRegression is returned when an event is appended with a tick lower
// than the last appended one.
var ErrTickRegression = errors.New("tick regression")

// Ledger holds the events of one parse session. Sequence counters are scoped
// per tick and owned by the instance, so independent sessions never share them.
type Ledger struct {
	events   []model.Event
	seq      map[float64]int
	lastTick float64
}

// New returns an empty ledger.
func New() *Ledger {
	l := &Ledger{}
	l.Reset()
	return l
}

// Reset clears all events and per-tick counters.
func (l *Ledger) Reset() {
	l.events = nil
	l.seq = make(map[float64]int)
	l.lastTick = 0
}

// Append records p at tick and returns the stored event. Events sharing a tick
// get increasing sequence numbers in creation order.
func (l *Ledger) Append(tick float64, p model.Payload) (model.Event, error) {
	if p == nil {
		return model.Event{}, fmt.Errorf("append event at tick %v: nil payload", tick)
	}
	if len(l.events) > 0 && tick < l.lastTick {
		return model.Event{}, fmt.Errorf("append %s at tick %v after %v: %w", p.Kind(), tick, l.lastTick, ErrTickRegression)
	}
	seq := l.seq[tick]
	l.seq[tick] = seq + 1
	ev := model.Event{
		ID:      uuid.New(),
		Tick:    tick,
		Seq:     seq,
		Payload: p,
	}
	l.events = append(l.events, ev)
	l.lastTick = tick
	return ev, nil
}

// Events returns the ledger in order. The slice must not be modified.
func (l *Ledger) Events() []model.Event {
	return l.events
}

func (l *Ledger) Len() int {
	return len(l.events)
}

// Until returns the prefix of events with tick <= t.
func (l *Ledger) Until(t float64) []model.Event {
	n := 0
	for n < len(l.events) && l.events[n].Tick <= t {
		n++
	}
	return l.events[:n]
}

// CountKind returns how many events of kind k were appended.
func (l *Ledger) CountKind(k model.Kind) int {
	n := 0
	for _, ev := range l.events {
		if ev.Kind() == k {
			n++
		}
	}
	return n
}
