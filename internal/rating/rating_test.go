package rating_test

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pable/cs-coach/internal/ledger"
	"github.com/pable/cs-coach/internal/model"
	"github.com/pable/cs-coach/internal/rating"
)

const (
	playerA model.PlayerID = 1001
	playerB model.PlayerID = 1002
	playerC model.PlayerID = 1003
	playerD model.PlayerID = 1004
)

func ref(id model.PlayerID, team model.Team) model.PlayerRef {
	return model.PlayerRef{ID: id, SteamID64: uint64(id), Team: team}
}

type step struct {
	tick float64
	p    model.Payload
}

func buildLedger(t *testing.T, players map[model.PlayerID]*model.PlayerRecord, steps ...step) *model.MatchLedger {
	t.Helper()
	l := ledger.New()
	for _, s := range steps {
		_, err := l.Append(s.tick, s.p)
		require.NoError(t, err)
	}
	return &model.MatchLedger{MapName: "de_inferno", TickRate: 64, Events: l.Events(), Players: players}
}

func TestScaleValue(t *testing.T) {
	require.InDelta(t, 0.0, rating.ScaleValue(0.1, 0.5, 2), 1e-9)
	require.InDelta(t, 0.5, rating.ScaleValue(1.25, 0.5, 2), 1e-9)
	require.InDelta(t, 1.0, rating.ScaleValue(10, 0.5, 2), 1e-9)
}

func TestUnknownPlayer(t *testing.T) {
	m := buildLedger(t, map[model.PlayerID]*model.PlayerRecord{})
	eng := rating.New(rating.Options{})

	_, err := eng.Score(m, 42)
	require.ErrorIs(t, err, rating.ErrPlayerNotFound)
	_, err = eng.Metrics(m, 42)
	require.ErrorIs(t, err, rating.ErrPlayerNotFound)
	_, err = eng.Rounds(m, 42)
	require.ErrorIs(t, err, rating.ErrPlayerNotFound)
}

func TestZeroRoundMatchIsFinite(t *testing.T) {
	players := map[model.PlayerID]*model.PlayerRecord{
		playerA: {DisplayName: "a", StableID: playerA},
	}
	m := buildLedger(t, players, step{10, model.WeaponFire{Player: ref(playerA, model.TeamT), Weapon: "ak47"}})

	b, err := rating.New(rating.Options{}).Breakdown(m, playerA)
	require.NoError(t, err)
	require.False(t, math.IsNaN(b.Total))
	require.InDelta(t, 7.5, b.Total, 1e-9, "only the neutral economy credit")
	require.Zero(t, b.Metrics[rating.KDR])
	require.InDelta(t, 1.0, b.Metrics[rating.Rounds], 0)
	_, hasEquip := b.Metrics[rating.AverageEquipmentValue]
	require.False(t, hasEquip)
}

func TestCombatScore(t *testing.T) {
	a, b := ref(playerA, model.TeamT), ref(playerB, model.TeamCT)
	players := map[model.PlayerID]*model.PlayerRecord{
		playerA: {StableID: playerA, Kills: 2, Deaths: 1, HeadshotKills: 1},
		playerB: {StableID: playerB, Kills: 1, Deaths: 2},
	}
	m := buildLedger(t, players,
		step{100, model.RoundStart{}},
		step{200, model.PlayerDeath{Killer: a, Victim: b, Headshot: true}},
		step{300, model.RoundEnd{Winner: model.TeamT}},
		step{400, model.RoundStart{}},
		step{500, model.PlayerDeath{Killer: b, Victim: a}},
		step{600, model.PlayerDeath{Killer: a, Victim: b}},
		step{700, model.RoundEnd{Winner: model.TeamT}},
	)

	bd, err := rating.New(rating.Options{}).Breakdown(m, playerA)
	require.NoError(t, err)
	// KDR 2 -> 15, KPR 1.0 -> 11.25, HS 0.5 -> 6.
	require.InDelta(t, 32.25, bd.Combat, 1e-9)
	// Opening duels 1 of 2 -> 0.5 -> 5 points.
	require.InDelta(t, 0.5, bd.Metrics[rating.OpeningDuelWinRate], 1e-9)
	require.InDelta(t, 0.5, bd.Metrics[rating.SurvivalRate], 1e-9)
	require.InDelta(t, bd.Combat+bd.Impact+bd.Utility+bd.Economy, bd.Total, 1e-9)
	require.InDelta(t, bd.Total, bd.Metrics[rating.CombatScore]+bd.Metrics[rating.ImpactScore]+bd.Metrics[rating.UtilityScore]+bd.Metrics[rating.EconomyScore], 1e-9)
}

func TestImpactScore(t *testing.T) {
	a, b := ref(playerA, model.TeamT), ref(playerB, model.TeamT)
	c, d := ref(playerC, model.TeamCT), ref(playerD, model.TeamCT)
	spawns := func(tick float64) []step {
		return []step{
			{tick, model.PlayerSpawn{Player: a}},
			{tick, model.PlayerSpawn{Player: b}},
			{tick, model.PlayerSpawn{Player: c}},
			{tick, model.PlayerSpawn{Player: d}},
		}
	}
	var steps []step
	// Round 1: b falls, a wins the 1v2. a's kills come too late to trade b.
	steps = append(steps, step{100, model.RoundStart{}})
	steps = append(steps, spawns(110)...)
	steps = append(steps,
		step{200, model.PlayerDeath{Killer: c, Victim: b}},
		step{400, model.PlayerDeath{Killer: a, Victim: c}},
		step{450, model.PlayerDeath{Killer: a, Victim: d}},
		step{500, model.RoundEnd{Winner: model.TeamT}},
	)
	// Round 2: b falls, a loses the 1v2 and is not traded.
	steps = append(steps, step{1000, model.RoundStart{}})
	steps = append(steps, spawns(1010)...)
	steps = append(steps,
		step{1100, model.PlayerDeath{Killer: c, Victim: b}},
		step{1150, model.PlayerDeath{Killer: d, Victim: a}},
		step{1300, model.RoundEnd{Winner: model.TeamCT}},
	)
	// Round 3: a loses the opening duel and b trades it.
	steps = append(steps, step{2000, model.RoundStart{}})
	steps = append(steps, spawns(2010)...)
	steps = append(steps,
		step{2100, model.PlayerDeath{Killer: c, Victim: a}},
		step{2150, model.PlayerDeath{Killer: b, Victim: c}},
		step{2300, model.RoundEnd{Winner: model.TeamT}},
	)

	players := map[model.PlayerID]*model.PlayerRecord{
		playerA: {StableID: playerA, Kills: 2, Deaths: 2},
		playerB: {StableID: playerB, Kills: 1, Deaths: 2},
		playerC: {StableID: playerC, Kills: 3, Deaths: 2},
		playerD: {StableID: playerD, Kills: 1, Deaths: 1},
	}
	m := buildLedger(t, players, steps...)

	bd, err := rating.New(rating.Options{}).Breakdown(m, playerA)
	require.NoError(t, err)
	require.InDelta(t, 0.5, bd.Metrics[rating.ClutchSuccessRate], 1e-9)
	// One of two deaths traded, no trade kills.
	require.InDelta(t, 0.5, bd.Metrics[rating.TradeEffectiveness], 1e-9)
	require.InDelta(t, 0.0, bd.Metrics[rating.OpeningDuelWinRate], 1e-9)
	// Opening 0 -> 0, clutch 0.5 over [0.2,0.6] -> 7.5, trades 0.5 over [0.3,0.7] -> 2.5.
	require.InDelta(t, 10.0, bd.Impact, 1e-9)
	require.InDelta(t, bd.Impact, bd.Metrics[rating.ImpactScore], 1e-9)

	// b died twice without being traded and traded once: (0+1)/2.
	bb, err := rating.New(rating.Options{}).Breakdown(m, playerB)
	require.NoError(t, err)
	require.InDelta(t, 0.5, bb.Metrics[rating.TradeEffectiveness], 1e-9)
}

func TestTradeEffectivenessWithoutDeaths(t *testing.T) {
	a, b, c := ref(playerA, model.TeamT), ref(playerB, model.TeamT), ref(playerC, model.TeamCT)
	players := map[model.PlayerID]*model.PlayerRecord{
		playerA: {StableID: playerA, Kills: 1},
		playerB: {StableID: playerB, Deaths: 1},
		playerC: {StableID: playerC, Kills: 1, Deaths: 1},
	}
	m := buildLedger(t, players,
		step{100, model.RoundStart{}},
		step{200, model.PlayerDeath{Killer: c, Victim: b}},
		step{250, model.PlayerDeath{Killer: a, Victim: c}},
		step{300, model.RoundEnd{Winner: model.TeamT}},
	)

	bd, err := rating.New(rating.Options{}).Breakdown(m, playerA)
	require.NoError(t, err)
	require.Zero(t, bd.Metrics[rating.TradeEffectiveness], "no deaths means no trade opportunity")
}

func TestAverageAccuracyIsCapped(t *testing.T) {
	rec := &model.PlayerRecord{StableID: playerA, Weapons: []model.WeaponRecord{
		{Weapon: "AWP", TotalShots: 1, Hits: 2},
	}}
	m := buildLedger(t, map[model.PlayerID]*model.PlayerRecord{playerA: rec},
		step{100, model.RoundStart{}},
		step{300, model.RoundEnd{Winner: model.TeamT}},
	)

	bd, err := rating.New(rating.Options{}).Breakdown(m, playerA)
	require.NoError(t, err)
	require.InDelta(t, 1.0, bd.Metrics[rating.AverageAccuracy], 1e-9)
}

func TestUtilityScore(t *testing.T) {
	a, b := ref(playerA, model.TeamT), ref(playerB, model.TeamCT)
	rec := &model.PlayerRecord{StableID: playerA, Kills: 1, Assists: 1}
	rec.AddAux(model.AuxUtilityDamage, 30)
	players := map[model.PlayerID]*model.PlayerRecord{playerA: rec, playerB: {StableID: playerB, Deaths: 1}}
	m := buildLedger(t, players,
		step{100, model.RoundStart{}},
		step{150, model.PlayerBlind{Victim: b, Attacker: a, Duration: time.Second}},
		step{200, model.PlayerDeath{Killer: a, Victim: b}},
		step{300, model.RoundEnd{Winner: model.TeamT}},
	)

	bd, err := rating.New(rating.Options{}).Breakdown(m, playerA)
	require.NoError(t, err)
	require.InDelta(t, 1.0, bd.Metrics[rating.FlashAssistsPerRound], 1e-9)
	require.InDelta(t, 30.0, bd.Metrics[rating.UtilityDamagePerRound], 1e-9)
	require.InDelta(t, 1.0, bd.Metrics[rating.SupportScore], 1e-9)
	require.InDelta(t, 20.0, bd.Utility, 1e-9)
}

func TestEconomyReplay(t *testing.T) {
	a, b := ref(playerA, model.TeamT), ref(playerB, model.TeamCT)
	players := map[model.PlayerID]*model.PlayerRecord{
		playerA: {StableID: playerA},
		playerB: {StableID: playerB},
	}
	m := buildLedger(t, players,
		step{100, model.RoundStart{}},
		step{110, model.PlayerSpawn{Player: a}},
		step{110, model.PlayerSpawn{Player: b}},
		step{120, model.ItemPickup{Player: a, Item: "AK-47"}},
		step{121, model.ItemPickup{Player: a, Item: "Kevlar + Helmet"}},
		step{122, model.ItemPickup{Player: a, Item: "Golden Banana"}},
		step{130, model.FreezetimeEnd{}},
		step{200, model.PlayerDeath{Killer: b, Victim: a}},
		step{300, model.RoundEnd{Winner: model.TeamCT}},
		step{400, model.RoundStart{}},
		step{410, model.PlayerSpawn{Player: a}},
		step{420, model.ItemPickup{Player: a, Item: "Glock-18"}},
		step{430, model.FreezetimeEnd{}},
	)
	eng := rating.New(rating.Options{})

	bd, err := eng.Breakdown(m, playerA)
	require.NoError(t, err)
	// Round 1: 2700 + 1000, round 2: 200 after the death emptied the inventory.
	require.InDelta(t, 1950.0, bd.Metrics[rating.AverageEquipmentValue], 1e-9)
	require.InDelta(t, 0.0, bd.Economy, 1e-9)

	lines, err := eng.Rounds(m, playerA)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, 3700, lines[0].EquipmentValue)
	require.Equal(t, 200, lines[1].EquipmentValue)

	// B was present in round 1 only, holding nothing.
	bb, err := eng.Breakdown(m, playerB)
	require.NoError(t, err)
	require.InDelta(t, 0.0, bb.Metrics[rating.AverageEquipmentValue], 1e-9)
	linesB, err := eng.Rounds(m, playerB)
	require.NoError(t, err)
	require.Equal(t, -1, linesB[1].EquipmentValue)
}

func TestRoundLines(t *testing.T) {
	a, b, c := ref(playerA, model.TeamT), ref(playerB, model.TeamCT), ref(playerC, model.TeamT)
	players := map[model.PlayerID]*model.PlayerRecord{
		playerA: {StableID: playerA}, playerB: {StableID: playerB}, playerC: {StableID: playerC},
	}
	m := buildLedger(t, players,
		step{100, model.RoundStart{}},
		step{150, model.PlayerHurt{Attacker: b, Victim: c, Weapon: "HE Grenade", Damage: 40}},
		step{200, model.PlayerDeath{Killer: b, Victim: c}},
		step{250, model.PlayerDeath{Killer: a, Victim: b, Assister: c}},
		step{300, model.RoundEnd{Winner: model.TeamT}},
	)
	eng := rating.New(rating.Options{})

	linesA, err := eng.Rounds(m, playerA)
	require.NoError(t, err)
	require.Len(t, linesA, 1)
	require.Equal(t, 1, linesA[0].Kills)
	require.Equal(t, 1, linesA[0].TradeKills)
	require.Equal(t, model.TeamT, linesA[0].Team)
	require.Equal(t, model.TeamT, linesA[0].Winner)

	linesB, err := eng.Rounds(m, playerB)
	require.NoError(t, err)
	require.True(t, linesB[0].OpeningKill)
	require.True(t, linesB[0].Died)
	require.Equal(t, 40, linesB[0].Damage)
	require.Equal(t, 40, linesB[0].UtilityDamage)

	linesC, err := eng.Rounds(m, playerC)
	require.NoError(t, err)
	require.True(t, linesC[0].OpeningDeath)
	require.True(t, linesC[0].TradedDeath)
	require.Equal(t, 1, linesC[0].Assists)
}

func TestMetricsIdempotent(t *testing.T) {
	a, b := ref(playerA, model.TeamT), ref(playerB, model.TeamCT)
	players := map[model.PlayerID]*model.PlayerRecord{
		playerA: {StableID: playerA, Kills: 1},
		playerB: {StableID: playerB, Deaths: 1},
	}
	m := buildLedger(t, players,
		step{100, model.RoundStart{}},
		step{120, model.FreezetimeEnd{}},
		step{200, model.PlayerDeath{Killer: a, Victim: b}},
		step{300, model.RoundEnd{Winner: model.TeamT}},
	)
	eng := rating.New(rating.Options{})

	first, err := eng.Metrics(m, playerA)
	require.NoError(t, err)
	second, err := eng.Metrics(m, playerA)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestScoreAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	ids := []model.PlayerID{playerA, playerB, playerC}
	teams := []model.Team{model.TeamT, model.TeamCT, model.TeamT}
	eng := rating.New(rating.Options{})

	for iter := range 200 {
		players := make(map[model.PlayerID]*model.PlayerRecord)
		for _, id := range ids {
			rec := &model.PlayerRecord{
				StableID: id,
				Kills:    rng.IntN(40),
				Deaths:   rng.IntN(40),
				Assists:  rng.IntN(20),
			}
			rec.HeadshotKills = rng.IntN(rec.Kills + 1)
			rec.AddAux(model.AuxUtilityDamage, float64(rng.IntN(2000)))
			w := rec.Weapon("ak47")
			w.TotalShots = rng.IntN(500)
			w.Hits = rng.IntN(w.TotalShots + 1)
			players[id] = rec
		}

		var steps []step
		tick := 0.0
		for range rng.IntN(80) {
			tick += float64(rng.IntN(100))
			i, j := rng.IntN(len(ids)), rng.IntN(len(ids))
			var p model.Payload
			switch rng.IntN(6) {
			case 0:
				p = model.RoundStart{}
			case 1:
				p = model.RoundEnd{Winner: teams[i]}
			case 2:
				p = model.FreezetimeEnd{}
			case 3:
				p = model.ItemPickup{Player: ref(ids[i], teams[i]), Item: "AWP"}
			case 4:
				p = model.PlayerBlind{Victim: ref(ids[j], teams[j]), Attacker: ref(ids[i], teams[i]), Duration: time.Second}
			default:
				p = model.PlayerDeath{Killer: ref(ids[i], teams[i]), Victim: ref(ids[j], teams[j])}
			}
			steps = append(steps, step{tick, p})
		}
		m := buildLedger(t, players, steps...)

		for _, id := range ids {
			score, err := eng.Score(m, id)
			require.NoError(t, err)
			require.False(t, math.IsNaN(score), "iteration %d", iter)
			require.GreaterOrEqual(t, score, 0.0)
			require.LessOrEqual(t, score, 100.0)
		}
	}
}
