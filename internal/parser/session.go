// Package parser runs a parse session: it pulls decoded events from a Source,
// records them in the ledger, accumulates per-player fragments and finally
// reconciles them into a MatchLedger.
package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pable/cs-coach/internal/identity"
	"github.com/pable/cs-coach/internal/ledger"
	"github.com/pable/cs-coach/internal/model"
)

// Source yields decoded events in match order. io.EOF ends the stream; any
// other error aborts the parse.
type Source interface {
	Next() (model.Decoded, error)
}

// Session owns all state of one parse: its ledger, its id registry and its
// fragments. Sessions share nothing, so independent parses may run
// concurrently.
type Session struct {
	log      *slog.Logger
	ledger   *ledger.Ledger
	registry *identity.Registry

	open      map[model.RawRef]*model.PlayerFragment
	fragments []*model.PlayerFragment

	mapName  string
	tickRate float64
	dropped  map[model.Kind]int
}

// NewSession starts an empty session. A nil logger uses slog.Default.
func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		log:      logger,
		ledger:   ledger.New(),
		registry: identity.NewRegistry(),
	}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.ledger.Reset()
	s.open = make(map[model.RawRef]*model.PlayerFragment)
	s.fragments = nil
	s.dropped = make(map[model.Kind]int)
	s.mapName = ""
	s.tickRate = 0
}

// Parse drains src through a fresh session and returns the finalized ledger.
func Parse(src Source) (*model.MatchLedger, error) {
	return NewSession(nil).Run(src)
}

// Run drains src and finalizes the session. No ledger is returned when the
// source fails.
func (s *Session) Run(src Source) (*model.MatchLedger, error) {
	for {
		d, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read event: %w", err)
		}
		if err := s.Feed(d); err != nil {
			return nil, err
		}
	}
	return s.Finish()
}

// Feed records one decoded event. Events missing a required participant are
// dropped without error.
func (s *Session) Feed(d model.Decoded) error {
	p := s.resolve(d.Payload)
	if p == nil || !complete(p) {
		s.drop(d)
		return nil
	}
	ev, err := s.ledger.Append(d.Tick, p)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	s.apply(ev)
	return nil
}

func (s *Session) drop(d model.Decoded) {
	kind := model.KindUnknown
	if d.Payload != nil {
		kind = d.Payload.Kind()
	}
	s.dropped[kind]++
	s.log.Debug("Dropped event", slog.String("kind", kind.String()), slog.Float64("tick", d.Tick))
}

// Finish reconciles the fragments and hands out the ledger.
func (s *Session) Finish() (*model.MatchLedger, error) {
	players, err := identity.Reconcile(s.fragments)
	if err != nil {
		return nil, fmt.Errorf("reconcile players: %w", err)
	}
	dropped := 0
	for _, n := range s.dropped {
		dropped += n
	}
	s.log.Debug("Parse session finished",
		slog.Int("events", s.ledger.Len()),
		slog.Int("fragments", len(s.fragments)),
		slog.Int("players", len(players)),
		slog.Int("dropped", dropped))

	return &model.MatchLedger{
		MapName:  s.mapName,
		TickRate: s.tickRate,
		Events:   s.ledger.Events(),
		Players:  players,
	}, nil
}

// Dropped returns how many events of kind were dropped so far.
func (s *Session) Dropped(kind model.Kind) int {
	return s.dropped[kind]
}

// resolve fills in the stable ids of every participant reference.
func (s *Session) resolve(p model.Payload) model.Payload {
	r := s.registry.ResolveRef
	switch v := p.(type) {
	case model.PlayerDeath:
		v.Killer, v.Victim, v.Assister = r(v.Killer), r(v.Victim), r(v.Assister)
		return v
	case model.WeaponFire:
		v.Player = r(v.Player)
		return v
	case model.PlayerHurt:
		v.Attacker, v.Victim = r(v.Attacker), r(v.Victim)
		return v
	case model.PlayerSpawn:
		v.Player = r(v.Player)
		return v
	case model.ItemPickup:
		v.Player = r(v.Player)
		return v
	case model.ItemEquip:
		v.Player = r(v.Player)
		return v
	case model.ItemDrop:
		v.Player = r(v.Player)
		return v
	case model.FlashbangDetonate:
		v.Thrower = r(v.Thrower)
		return v
	case model.PlayerBlind:
		v.Victim, v.Attacker = r(v.Victim), r(v.Attacker)
		return v
	case model.PlayerTeam:
		v.Player = r(v.Player)
		return v
	case model.PlayerDisconnect:
		v.Player = r(v.Player)
		return v
	case model.MoneyAdjust:
		v.Player = r(v.Player)
		return v
	}
	return p
}

// complete reports whether every required participant of p is present.
func complete(p model.Payload) bool {
	switch v := p.(type) {
	case model.PlayerDeath:
		return v.Killer.ID != 0 && v.Victim.ID != 0
	case model.PlayerHurt:
		return v.Attacker.ID != 0 && v.Victim.ID != 0
	case model.PlayerBlind:
		return v.Attacker.ID != 0 && v.Victim.ID != 0
	case model.FlashbangDetonate:
		return v.Thrower.ID != 0
	}
	for _, ref := range model.Refs(p) {
		if ref.ID == 0 {
			return false
		}
	}
	return true
}

// fragment returns the open fragment of ref, opening one at ev when needed.
func (s *Session) fragment(ref model.PlayerRef, ev model.Event) *model.PlayerRecord {
	raw := ref.Raw()
	f, ok := s.open[raw]
	if !ok {
		f = &model.PlayerFragment{
			Raw:    raw,
			Pos:    ev.Pos(),
			Record: model.PlayerRecord{StableID: ref.ID},
		}
		s.open[raw] = f
		s.fragments = append(s.fragments, f)
	}
	if ref.Name != "" {
		f.Record.DisplayName = ref.Name
	}
	return &f.Record
}

func sameSide(a, b model.PlayerRef) bool {
	return a.Team.Playing() && a.Team == b.Team
}

// apply updates fragments for a recorded event.
func (s *Session) apply(ev model.Event) {
	switch p := ev.Payload.(type) {
	case model.ServerInfo:
		s.mapName = p.MapName
		if p.TickInterval > 0 {
			s.tickRate = 1 / p.TickInterval
		}

	case model.PlayerDeath:
		victim := s.fragment(p.Victim, ev)
		victim.Deaths++
		if p.Killer.ID != p.Victim.ID {
			killer := s.fragment(p.Killer, ev)
			killer.Kills++
			if p.Headshot {
				killer.HeadshotKills++
			}
			killer.Weapon(p.Weapon).Kills++
		}
		if p.Assister.ID != 0 && p.Assister.ID != p.Victim.ID {
			s.fragment(p.Assister, ev).Assists++
		}

	case model.WeaponFire:
		s.fragment(p.Player, ev).Weapon(p.Weapon).TotalShots++

	case model.PlayerHurt:
		if p.Attacker.ID == p.Victim.ID {
			return
		}
		attacker := s.fragment(p.Attacker, ev)
		utility := model.IsUtilityDamage(p.Weapon)
		// Fire burns and HE splash hurt many times per throw, so they are
		// not hits.
		if !utility {
			attacker.Weapon(p.Weapon).Hits++
		}
		if sameSide(p.Attacker, p.Victim) {
			return
		}
		attacker.AddAux(model.AuxDamage, float64(p.Damage))
		if utility {
			attacker.AddAux(model.AuxUtilityDamage, float64(p.Damage))
		}

	case model.PlayerSpawn:
		rec := s.fragment(p.Player, ev)
		rec.AddAux(model.AuxSpawns, 1)
		if p.Player.Team.Playing() {
			rec.SetAuxText(model.AuxTeam, p.Player.Team.String())
		}

	case model.PlayerTeam:
		s.fragment(p.Player, ev).SetAuxText(model.AuxTeam, p.NewTeam.String())

	case model.ItemPickup:
		s.fragment(p.Player, ev).AddAux(model.AuxItemsPickedUp, 1)

	case model.PlayerBlind:
		if p.Attacker.ID != p.Victim.ID && !sameSide(p.Attacker, p.Victim) {
			s.fragment(p.Attacker, ev).AddAux(model.AuxEnemiesFlashed, 1)
		}

	case model.FlashbangDetonate:
		s.fragment(p.Thrower, ev).AddAux(model.AuxFlashesThrown, 1)

	case model.MoneyAdjust:
		s.fragment(p.Player, ev).AddAux(model.AuxMoneyDelta, float64(p.Amount))

	case model.PlayerDisconnect:
		delete(s.open, p.Player.Raw())
	}
}
