package ledger_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pable/cs-coach/internal/ledger"
	"github.com/pable/cs-coach/internal/model"
)

func TestAppendSequencesPerTick(t *testing.T) {
	l := ledger.New()

	ticks := []float64{10, 10, 10, 11, 11, 12}
	var got []model.Event
	for _, tick := range ticks {
		ev, err := l.Append(tick, model.RoundStart{})
		require.NoError(t, err)
		got = append(got, ev)
	}

	require.Equal(t, []int{0, 1, 2, 0, 1, 0}, []int{got[0].Seq, got[1].Seq, got[2].Seq, got[3].Seq, got[4].Seq, got[5].Seq})

	// Ledger order is a total order equal to insertion order.
	events := l.Events()
	for i := 1; i < len(events); i++ {
		require.True(t, events[i-1].Before(events[i]), "event %d not before %d", i-1, i)
	}

	ids := make(map[string]bool)
	for _, ev := range events {
		ids[ev.ID.String()] = true
	}
	require.Len(t, ids, len(events))
}

func TestAppendRejectsTickRegression(t *testing.T) {
	l := ledger.New()
	_, err := l.Append(100, model.RoundStart{})
	require.NoError(t, err)

	_, err = l.Append(99, model.RoundEnd{})
	require.ErrorIs(t, err, ledger.ErrTickRegression)
	require.Equal(t, 1, l.Len())
}

func TestAppendRejectsNilPayload(t *testing.T) {
	l := ledger.New()
	_, err := l.Append(1, nil)
	require.Error(t, err)
	require.Zero(t, l.Len())
}

func TestResetClearsCounters(t *testing.T) {
	l := ledger.New()
	for range 3 {
		_, err := l.Append(5, model.RoundStart{})
		require.NoError(t, err)
	}
	l.Reset()
	require.Zero(t, l.Len())

	// Earlier ticks are accepted again and sequences restart at zero.
	ev, err := l.Append(5, model.RoundStart{})
	require.NoError(t, err)
	require.Equal(t, 0, ev.Seq)
}

func TestUntilAndCountKind(t *testing.T) {
	l := ledger.New()
	for _, step := range []struct {
		tick float64
		p    model.Payload
	}{
		{1, model.RoundStart{}},
		{2, model.WeaponFire{Weapon: "ak47"}},
		{2, model.WeaponFire{Weapon: "ak47"}},
		{3, model.RoundEnd{Winner: model.TeamT}},
		{4, model.RoundStart{}},
	} {
		_, err := l.Append(step.tick, step.p)
		require.NoError(t, err)
	}

	require.Len(t, l.Until(2), 3)
	require.Empty(t, l.Until(0))
	require.Len(t, l.Until(100), 5)
	require.Equal(t, 2, l.CountKind(model.KindRoundStart))
	require.Equal(t, 2, l.CountKind(model.KindWeaponFire))
	require.Zero(t, l.CountKind(model.KindPlayerDeath))
}

func TestIndependentLedgersDoNotShareCounters(t *testing.T) {
	var wg sync.WaitGroup
	results := make([][]int, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := ledger.New()
			for range 50 {
				ev, err := l.Append(7, model.RoundStart{})
				if err != nil {
					return
				}
				results[i] = append(results[i], ev.Seq)
			}
		}()
	}
	wg.Wait()

	for _, seqs := range results {
		require.Len(t, seqs, 50)
		for j, s := range seqs {
			require.Equal(t, j, s)
		}
	}
}
