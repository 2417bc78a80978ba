package model_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pable/cs-coach/internal/model"
)

func TestHeadshotPercentage(t *testing.T) {
	r := model.PlayerRecord{Kills: 4, HeadshotKills: 3}
	require.InDelta(t, 75.0, r.HeadshotPercentage(), 1e-9)

	r = model.PlayerRecord{}
	require.Zero(t, r.HeadshotPercentage())
}

func TestKDRatioWithoutDeaths(t *testing.T) {
	r := model.PlayerRecord{Kills: 7}
	require.InDelta(t, 7.0, r.KDRatio(), 1e-9)

	r.Deaths = 2
	require.InDelta(t, 3.5, r.KDRatio(), 1e-9)
}

func TestWeaponAccuracy(t *testing.T) {
	w := model.WeaponRecord{Weapon: "ak47"}
	require.Zero(t, w.Accuracy())

	w.TotalShots, w.Hits = 10, 4
	require.InDelta(t, 0.4, w.Accuracy(), 1e-9)
}

func TestWeaponFindOrCreate(t *testing.T) {
	var r model.PlayerRecord
	r.Weapon("ak47").Kills++
	r.Weapon("awp").TotalShots += 3
	r.Weapon("ak47").Kills++

	require.Len(t, r.Weapons, 2)
	require.Equal(t, 2, r.Weapons[0].Kills)
	require.Equal(t, 3, r.Weapons[1].TotalShots)
}

func TestEquipmentValue(t *testing.T) {
	cases := map[string]int{
		"AK-47":           2700,
		"weapon_ak47":     2700,
		"Kevlar + Helmet": 1000,
		"Desert Eagle":    700,
		"HE Grenade":      300,
		"Golden Banana":   0,
		"":                0,
	}
	for name, want := range cases {
		require.Equal(t, want, model.EquipmentValue(name), name)
	}
}

func TestIsUtilityDamage(t *testing.T) {
	require.True(t, model.IsUtilityDamage("HE Grenade"))
	require.True(t, model.IsUtilityDamage("Molotov"))
	require.True(t, model.IsUtilityDamage("Incendiary Grenade"))
	require.False(t, model.IsUtilityDamage("AK-47"))
	require.False(t, model.IsUtilityDamage("Flashbang"))
}

func TestPositionOrder(t *testing.T) {
	a := model.Position{Tick: 10, Seq: 1}
	b := model.Position{Tick: 10, Seq: 2}
	c := model.Position{Tick: 11, Seq: 0}

	require.True(t, a.Less(b))
	require.True(t, b.Less(c))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))
}

func TestTeamRoundTrip(t *testing.T) {
	for _, team := range []model.Team{model.TeamT, model.TeamCT, model.TeamSpectators} {
		require.Equal(t, team, model.ParseTeam(team.String()))
	}
	require.Equal(t, model.TeamUnknown, model.ParseTeam("?"))
}

func TestInvolves(t *testing.T) {
	killer := model.PlayerRef{ID: 1}
	victim := model.PlayerRef{ID: 2}
	assister := model.PlayerRef{ID: 3}
	death := model.PlayerDeath{Killer: killer, Victim: victim, Assister: assister}

	for _, id := range []model.PlayerID{1, 2, 3} {
		require.True(t, model.Involves(death, id), "player %d", id)
	}
	require.False(t, model.Involves(death, 4))
	require.True(t, model.Involves(model.PlayerBlind{Attacker: killer, Victim: victim}, 2))
	require.False(t, model.Involves(model.RoundStart{}, 1))
}
