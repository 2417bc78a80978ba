package rounds_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pable/cs-coach/internal/ledger"
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/rounds"
)

type step struct {
	tick float64
	p    model.Payload
}

func build(t *testing.T, steps ...step) []model.Event {
	t.Helper()
	l := ledger.New()
	for _, s := range steps {
		_, err := l.Append(s.tick, s.p)
		require.NoError(t, err)
	}
	return l.Events()
}

func TestSegment(t *testing.T) {
	events := build(t,
		step{0, model.ServerInfo{MapName: "de_mirage", TickInterval: 1.0 / 64}},
		step{5, model.WeaponFire{Weapon: "glock"}},
		step{10, model.RoundStart{}},
		step{20, model.PlayerDeath{Weapon: "ak47"}},
		step{30, model.RoundEnd{Winner: model.TeamT}},
		step{35, model.WeaponFire{Weapon: "ak47"}},
		step{40, model.RoundStart{}},
		step{50, model.RoundEnd{Winner: model.TeamCT}},
		step{55, model.RoundEnd{Winner: model.TeamT}},
		step{60, model.RoundStart{}},
		step{70, model.PlayerDeath{Weapon: "awp"}},
	)

	rs := rounds.Segment(events)
	require.Len(t, rs, 3)

	require.Equal(t, 1, rs[0].Number)
	require.InDelta(t, 10.0, rs[0].StartTick, 0)
	require.Len(t, rs[0].Events, 4, "round runs until the next start, trailing events included")
	require.True(t, rs[0].Resolved())
	require.Equal(t, model.TeamT, rs[0].Winner())
	require.Len(t, rs[0].Deaths(), 1)

	require.Equal(t, model.TeamCT, rs[1].Winner(), "first RoundEnd wins")

	require.False(t, rs[2].Resolved())
	require.Equal(t, model.TeamUnknown, rs[2].Winner())
	require.Len(t, rs[2].Deaths(), 1)

	for _, r := range rs {
		for _, ev := range r.Events {
			require.NotEqual(t, model.KindServerInfo, ev.Kind(), "pre-round events are excluded")
		}
	}
}

func TestSegmentWithoutRounds(t *testing.T) {
	events := build(t, step{1, model.WeaponFire{}}, step{2, model.PlayerDeath{}})
	require.Empty(t, rounds.Segment(events))
	require.Zero(t, rounds.Count(events))
	require.Equal(t, 1, rounds.Denominator(events))
	require.Equal(t, 1, rounds.Denominator(nil))
}

func TestRoundContains(t *testing.T) {
	events := build(t,
		step{10, model.RoundStart{}},
		step{20, model.RoundEnd{}},
		step{30, model.RoundStart{}},
	)
	rs := rounds.Segment(events)
	require.True(t, rs[0].Contains(model.Position{Tick: 15}))
	require.False(t, rs[0].Contains(model.Position{Tick: 30}))
	require.True(t, rs[1].Contains(events[2].Pos()))
}
