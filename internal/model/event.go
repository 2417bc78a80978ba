package model

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the variant of an event payload.
type Kind int

const (
	KindUnknown Kind = iota
	KindServerInfo
	KindPlayerDeath
	KindWeaponFire
	KindPlayerHurt
	KindRoundStart
	KindRoundEnd
	KindFreezetimeEnd
	KindPlayerSpawn
	KindItemPickup
	KindItemEquip
	KindItemDrop
	KindFlashbangDetonate
	KindPlayerBlind
	KindPlayerTeam
	KindPlayerDisconnect
	KindMoneyAdjust
)

var kindNames = map[Kind]string{
	KindServerInfo:        "ServerInfo",
	KindPlayerDeath:       "PlayerDeath",
	KindWeaponFire:        "WeaponFire",
	KindPlayerHurt:        "PlayerHurt",
	KindRoundStart:        "RoundStart",
	KindRoundEnd:          "RoundEnd",
	KindFreezetimeEnd:     "FreezetimeEnd",
	KindPlayerSpawn:       "PlayerSpawn",
	KindItemPickup:        "ItemPickup",
	KindItemEquip:         "ItemEquip",
	KindItemDrop:          "ItemDrop",
	KindFlashbangDetonate: "FlashbangDetonate",
	KindPlayerBlind:       "PlayerBlind",
	KindPlayerTeam:        "PlayerTeam",
	KindPlayerDisconnect:  "PlayerDisconnect",
	KindMoneyAdjust:       "MoneyAdjust",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Payload is the typed body of an event. Each variant is a struct below.
type Payload interface {
	Kind() Kind
}

// Vec3 is a 3D world-space position in Hammer units.
type Vec3 struct{ X, Y, Z float64 }

type ServerInfo struct {
	MapName      string
	TickInterval float64 // seconds per tick
}

type PlayerDeath struct {
	Killer, Victim, Assister PlayerRef
	Weapon                   string
	Headshot                 bool
	AssistedFlash            bool
}

type WeaponFire struct {
	Player PlayerRef
	Weapon string
}

type PlayerHurt struct {
	Attacker, Victim PlayerRef
	Weapon           string
	Damage           int
	ArmorDamage      int
	HealthRemaining  int
}

type RoundStart struct{}

type RoundEnd struct {
	Winner Team
	Reason string
}

// FreezetimeEnd marks the buy cutoff of a round.
type FreezetimeEnd struct{}

type PlayerSpawn struct {
	Player PlayerRef
}

type ItemPickup struct {
	Player PlayerRef
	Item   string
}

type ItemEquip struct {
	Player PlayerRef
	Item   string
}

type ItemDrop struct {
	Player PlayerRef
	Item   string
}

type FlashbangDetonate struct {
	Thrower  PlayerRef
	Position Vec3
}

type PlayerBlind struct {
	Victim, Attacker PlayerRef
	Duration         time.Duration
}

type PlayerTeam struct {
	Player  PlayerRef
	NewTeam Team
}

type PlayerDisconnect struct {
	Player PlayerRef
}

type MoneyAdjust struct {
	Player PlayerRef
	Amount int
}

func (ServerInfo) Kind() Kind        { return KindServerInfo }
func (PlayerDeath) Kind() Kind       { return KindPlayerDeath }
func (WeaponFire) Kind() Kind        { return KindWeaponFire }
func (PlayerHurt) Kind() Kind        { return KindPlayerHurt }
func (RoundStart) Kind() Kind        { return KindRoundStart }
func (RoundEnd) Kind() Kind          { return KindRoundEnd }
func (FreezetimeEnd) Kind() Kind     { return KindFreezetimeEnd }
func (PlayerSpawn) Kind() Kind       { return KindPlayerSpawn }
func (ItemPickup) Kind() Kind        { return KindItemPickup }
func (ItemEquip) Kind() Kind         { return KindItemEquip }
func (ItemDrop) Kind() Kind          { return KindItemDrop }
func (FlashbangDetonate) Kind() Kind { return KindFlashbangDetonate }
func (PlayerBlind) Kind() Kind       { return KindPlayerBlind }
func (PlayerTeam) Kind() Kind        { return KindPlayerTeam }
func (PlayerDisconnect) Kind() Kind  { return KindPlayerDisconnect }
func (MoneyAdjust) Kind() Kind       { return KindMoneyAdjust }

// Position orders events: by tick, then by the per-tick sequence number.
type Position struct {
	Tick float64
	Seq  int
}

// Less reports whether p comes strictly before o.
func (p Position) Less(o Position) bool {
	if p.Tick != o.Tick {
		return p.Tick < o.Tick
	}
	return p.Seq < o.Seq
}

// Event is one entry of the match ledger.
type Event struct {
	ID      uuid.UUID
	Tick    float64
	Seq     int
	Payload Payload
}

// Kind returns the payload variant, KindUnknown for an empty event.
func (e Event) Kind() Kind {
	if e.Payload == nil {
		return KindUnknown
	}
	return e.Payload.Kind()
}

func (e Event) Pos() Position {
	return Position{Tick: e.Tick, Seq: e.Seq}
}

// Before reports whether e comes strictly before o in ledger order.
func (e Event) Before(o Event) bool {
	return e.Pos().Less(o.Pos())
}

// Death returns the payload as a PlayerDeath.
func (e Event) Death() (PlayerDeath, bool) {
	d, ok := e.Payload.(PlayerDeath)
	return d, ok
}

// Decoded is one event as produced by the decoding collaborator, before it is
// assigned an identity and sequence number by the ledger.
type Decoded struct {
	Tick    float64
	Payload Payload
}

// Refs returns every participant reference carried by p.
func Refs(p Payload) []PlayerRef {
	switch v := p.(type) {
	case PlayerDeath:
		return []PlayerRef{v.Killer, v.Victim, v.Assister}
	case WeaponFire:
		return []PlayerRef{v.Player}
	case PlayerHurt:
		return []PlayerRef{v.Attacker, v.Victim}
	case PlayerSpawn:
		return []PlayerRef{v.Player}
	case ItemPickup:
		return []PlayerRef{v.Player}
	case ItemEquip:
		return []PlayerRef{v.Player}
	case ItemDrop:
		return []PlayerRef{v.Player}
	case FlashbangDetonate:
		return []PlayerRef{v.Thrower}
	case PlayerBlind:
		return []PlayerRef{v.Victim, v.Attacker}
	case PlayerTeam:
		return []PlayerRef{v.Player}
	case PlayerDisconnect:
		return []PlayerRef{v.Player}
	case MoneyAdjust:
		return []PlayerRef{v.Player}
	default:
		return nil
	}
}

// Involves reports whether id appears in any reference of p.
func Involves(p Payload, id PlayerID) bool {
	for _, r := range Refs(p) {
		if r.ID == id {
			return true
		}
	}
	return false
}
