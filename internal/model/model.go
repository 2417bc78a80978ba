package model

import "strings"

// Team represents which side a player is on.
type Team int

const (
	TeamUnknown    Team = 0
	TeamSpectators Team = 1
	TeamT          Team = 2
	TeamCT         Team = 3
)

func (t Team) String() string {
	switch t {
	case TeamT:
		return "T"
	case TeamCT:
		return "CT"
	case TeamSpectators:
		return "SPEC"
	default:
		return "?"
	}
}

// Playing reports whether t is one of the two competing sides.
func (t Team) Playing() bool {
	return t == TeamT || t == TeamCT
}

// ParseTeam is the inverse of Team.String.
func ParseTeam(s string) Team {
	switch strings.ToUpper(s) {
	case "T":
		return TeamT
	case "CT":
		return TeamCT
	case "SPEC":
		return TeamSpectators
	default:
		return TeamUnknown
	}
}

// PlayerID is the stable identifier of a player for one match. Humans use their
// SteamID64; bots get a small synthetic id assigned at first sighting.
type PlayerID uint64

// RawRef is a participant reference as captured by the decoder at one tick.
// The same player may be captured with different user ids over a match
// (reconnects), which is why stats accumulate in fragments first.
type RawRef struct {
	SteamID64 uint64
	UserID    int
}

// PlayerRef is the participant reference carried by event payloads.
// ID is zero until the parse session resolves it, and stays zero when the
// decoder had no participant for the slot.
type PlayerRef struct {
	ID        PlayerID
	SteamID64 uint64
	UserID    int
	Name      string
	IsBot     bool
	Team      Team
}

// Known reports whether the reference points at an actual participant.
func (r PlayerRef) Known() bool {
	return r.ID != 0 || r.SteamID64 != 0 || r.UserID != 0
}

// Raw returns the decoder-level key of the reference.
func (r PlayerRef) Raw() RawRef {
	return RawRef{SteamID64: r.SteamID64, UserID: r.UserID}
}

// ---- Per-player records ----

// WeaponRecord holds per-weapon counters for one player.
type WeaponRecord struct {
	Weapon     string
	Kills      int
	TotalShots int
	Hits       int
}

// Accuracy returns hits per shot, 0 when no shots were fired.
func (w *WeaponRecord) Accuracy() float64 {
	if w.TotalShots == 0 {
		return 0
	}
	return float64(w.Hits) / float64(w.TotalShots)
}

// AuxValue is an auxiliary per-player value: either a number that sums on
// merge, or a text value where the latest one wins.
type AuxValue struct {
	Number float64
	Text   string
	IsText bool
}

// Auxiliary counter keys written by the parse session.
const (
	AuxDamage         = "damage"
	AuxUtilityDamage  = "utility_damage"
	AuxSpawns         = "spawns"
	AuxTeam           = "team"
	AuxItemsPickedUp  = "items_picked_up"
	AuxFlashesThrown  = "flashes_thrown"
	AuxEnemiesFlashed = "enemies_flashed"
	AuxMoneyDelta     = "money_delta"
)

// PlayerRecord is the canonical per-match stat record of one player.
type PlayerRecord struct {
	DisplayName   string
	StableID      PlayerID
	Kills         int
	Deaths        int
	Assists       int
	HeadshotKills int
	Weapons       []WeaponRecord
	Aux           map[string]AuxValue
}

// HeadshotPercentage is 100 * headshot kills / kills, 0 without kills.
func (r *PlayerRecord) HeadshotPercentage() float64 {
	if r.Kills == 0 {
		return 0
	}
	return float64(r.HeadshotKills) / float64(r.Kills) * 100
}

// KDRatio returns kills/deaths, or kills when the player never died.
func (r *PlayerRecord) KDRatio() float64 {
	if r.Deaths == 0 {
		return float64(r.Kills)
	}
	return float64(r.Kills) / float64(r.Deaths)
}

// Weapon returns the record for name, creating it when missing.
func (r *PlayerRecord) Weapon(name string) *WeaponRecord {
	for i := range r.Weapons {
		if r.Weapons[i].Weapon == name {
			return &r.Weapons[i]
		}
	}
	r.Weapons = append(r.Weapons, WeaponRecord{Weapon: name})
	return &r.Weapons[len(r.Weapons)-1]
}

// AddAux adds delta to the numeric aux value under key.
func (r *PlayerRecord) AddAux(key string, delta float64) {
	if r.Aux == nil {
		r.Aux = make(map[string]AuxValue)
	}
	v := r.Aux[key]
	v.Number += delta
	r.Aux[key] = v
}

// SetAuxText sets a text aux value under key.
func (r *PlayerRecord) SetAuxText(key, text string) {
	if r.Aux == nil {
		r.Aux = make(map[string]AuxValue)
	}
	r.Aux[key] = AuxValue{Text: text, IsText: true}
}

// AuxNumber returns the numeric aux value under key, 0 when absent.
func (r *PlayerRecord) AuxNumber(key string) float64 {
	return r.Aux[key].Number
}

// PlayerFragment is a transient accumulator for one raw reference, created at
// the first stat-affecting event seen for it. Fragments are merged into
// PlayerRecords when the parse finishes and are not touched afterwards.
type PlayerFragment struct {
	Raw    RawRef
	Pos    Position
	Record PlayerRecord
}

// MatchLedger is the finalized output of one parse session.
type MatchLedger struct {
	MapName  string
	TickRate float64
	Events   []Event
	Players  map[PlayerID]*PlayerRecord
}

// Player returns the reconciled record for id.
func (m *MatchLedger) Player(id PlayerID) (*PlayerRecord, bool) {
	p, ok := m.Players[id]
	return p, ok
}

// FindPlayerByName looks a player up by case-insensitive display name.
func (m *MatchLedger) FindPlayerByName(name string) (*PlayerRecord, bool) {
	for _, p := range m.Players {
		if strings.EqualFold(p.DisplayName, name) {
			return p, true
		}
	}
	return nil, false
}
