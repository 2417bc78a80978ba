// Package window answers "which events of kind K happened within N ticks
// before or after this point" over a finalized ledger, and builds the trade,
// clutch and flash-assist detectors on top of it.
package window

import (
	"sort"
	"time"

	"github.com/pable/cs-coach/internal/model"
)

// Direction selects which side of the reference position is searched.
type Direction int

const (
	Before Direction = iota
	After
	Around
)

// Options holds the detector windows.
type Options struct {
	TradeWindowTicks float64
	FlashWindowTicks float64
	MinBlindDuration time.Duration
}

// DefaultOptions returns 128 ticks for trades, 96 ticks for flash assists and
// a 0.7s minimum blind.
func DefaultOptions() Options {
	return Options{
		TradeWindowTicks: 128,
		FlashWindowTicks: 96,
		MinBlindDuration: 700 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TradeWindowTicks <= 0 {
		o.TradeWindowTicks = d.TradeWindowTicks
	}
	if o.FlashWindowTicks <= 0 {
		o.FlashWindowTicks = d.FlashWindowTicks
	}
	if o.MinBlindDuration <= 0 {
		o.MinBlindDuration = d.MinBlindDuration
	}
	return o
}

// Find returns the events of kind within windowTicks of ref, in ledger order.
// Before and After are strict in (tick, seq) order; the tick bound is
// inclusive. A nil pred accepts every event. events must be in ledger order.
func Find(events []model.Event, kind model.Kind, ref model.Position, windowTicks float64, dir Direction, pred func(model.Event) bool) []model.Event {
	var out []model.Event
	match := func(ev model.Event) {
		if ev.Kind() == kind && (pred == nil || pred(ev)) {
			out = append(out, ev)
		}
	}

	if dir == Before || dir == Around {
		lo := sort.Search(len(events), func(i int) bool {
			return events[i].Tick >= ref.Tick-windowTicks
		})
		for i := lo; i < len(events) && events[i].Pos().Less(ref); i++ {
			match(events[i])
		}
	}
	if dir == After || dir == Around {
		lo := sort.Search(len(events), func(i int) bool {
			return ref.Less(events[i].Pos())
		})
		for i := lo; i < len(events) && events[i].Tick-ref.Tick <= windowTicks; i++ {
			match(events[i])
		}
	}
	return out
}

// Analyzer runs windowed queries against one finalized ledger. Events are
// indexed by kind once, so detectors only scan the kind they ask for.
type Analyzer struct {
	opts   Options
	events []model.Event
	byKind map[model.Kind][]model.Event
}

// New indexes events, which must be in ledger order. Zero option fields fall
// back to DefaultOptions.
func New(events []model.Event, opts Options) *Analyzer {
	a := &Analyzer{
		opts:   opts.withDefaults(),
		events: events,
		byKind: make(map[model.Kind][]model.Event),
	}
	for _, ev := range events {
		a.byKind[ev.Kind()] = append(a.byKind[ev.Kind()], ev)
	}
	return a
}

func (a *Analyzer) Options() Options {
	return a.opts
}

// Events returns all events of kind, in ledger order.
func (a *Analyzer) Events(kind model.Kind) []model.Event {
	return a.byKind[kind]
}

// Find is the package-level Find restricted to the indexed events of kind.
func (a *Analyzer) Find(kind model.Kind, ref model.Position, windowTicks float64, dir Direction, pred func(model.Event) bool) []model.Event {
	return Find(a.byKind[kind], kind, ref, windowTicks, dir, pred)
}
