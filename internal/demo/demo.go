// Package demo adapts demoinfocs-golang to the parser.Source pull interface.
package demo

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	demoinfocs "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs"
	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"
	"github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/events"

	"github.com/pable/cs-coach/internal/model"
)

// Stream decodes one demo frame by frame and yields the domain events each
// frame fired. It implements parser.Source.
type Stream struct {
	// Hash is the hex SHA-256 of the demo file, used as the match key.
	Hash string

	f       *os.File
	closers []func() error
	p       demoinfocs.Parser

	queue    []model.Decoded
	lastTick float64
	done     bool
	live     bool // set at the first RoundStart outside warmup

	held  map[model.RawRef]map[string]int
	money map[model.RawRef]int
}

// IsDemo reports whether path looks like a supported demo file.
func IsDemo(path string) bool {
	p := strings.ToLower(path)
	return strings.HasSuffix(p, ".dem") || strings.HasSuffix(p, ".dem.gz") || strings.HasSuffix(p, ".dem.zst")
}

// Open hashes the demo at path and prepares it for streaming. .dem.gz and
// .dem.zst inputs are decompressed on the fly.
func Open(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open demo: %w", err)
	}

	// Hash file for idempotency key.
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		f.Close()
		return nil, fmt.Errorf("hash demo: %w", err)
	}
	// Seek back to start for the parser.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek demo: %w", err)
	}

	s := &Stream{
		Hash:  fmt.Sprintf("%x", h.Sum(nil)),
		f:     f,
		held:  make(map[model.RawRef]map[string]int),
		money: make(map[model.RawRef]int),
	}

	var r io.Reader = f
	switch lower := strings.ToLower(path); {
	case strings.HasSuffix(lower, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip demo: %w", err)
		}
		s.closers = append(s.closers, gz.Close)
		r = gz
	case strings.HasSuffix(lower, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd demo: %w", err)
		}
		s.closers = append(s.closers, func() error { zr.Close(); return nil })
		r = zr
	}

	s.p = demoinfocs.NewParser(r)
	s.register()
	return s, nil
}

// Close releases the parser and the underlying file.
func (s *Stream) Close() error {
	s.p.Close()
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
	return s.f.Close()
}

// Next returns the next decoded event, parsing frames until one is available.
// io.EOF marks the end of the demo.
func (s *Stream) Next() (model.Decoded, error) {
	for len(s.queue) == 0 {
		if s.done {
			return model.Decoded{}, io.EOF
		}
		more, err := s.p.ParseNextFrame()
		if err != nil {
			return model.Decoded{}, fmt.Errorf("parse demo: %w", err)
		}
		if !more {
			s.finish()
			s.done = true
		}
	}
	d := s.queue[0]
	s.queue = s.queue[1:]
	return d, nil
}

// finish emits the header metadata once the demo is exhausted.
func (s *Stream) finish() {
	header := s.p.Header()
	interval := 0.0
	if rate := s.p.TickRate(); rate > 0 {
		interval = 1 / rate
	}
	s.push(model.ServerInfo{MapName: header.MapName, TickInterval: interval})
}

// push queues p at the current ingame tick. Ticks never go backwards: the
// ledger rejects regressions, so late ticks are pinned to the last one seen.
func (s *Stream) push(p model.Payload) {
	tick := float64(s.p.GameState().IngameTick())
	if tick < s.lastTick {
		tick = s.lastTick
	}
	s.lastTick = tick
	s.queue = append(s.queue, model.Decoded{Tick: tick, Payload: p})
}

func (s *Stream) register() {
	p := s.p

	p.RegisterEventHandler(func(e events.RoundStart) {
		if p.GameState().IsWarmupPeriod() {
			return
		}
		s.live = true
		s.push(model.RoundStart{})
	})

	// Freeze end is the buy cutoff: announce who is alive, bring held items
	// in line with the game state, then mark the cutoff itself.
	p.RegisterEventHandler(func(e events.RoundFreezetimeEnd) {
		if !s.live {
			return
		}
		for _, pl := range p.GameState().Participants().Playing() {
			if pl == nil || !pl.IsAlive() {
				continue
			}
			ref := playerRef(pl)
			s.push(model.PlayerSpawn{Player: ref})
			s.syncItems(ref, heldItems(pl))
			s.syncMoney(ref, pl.Money())
		}
		s.push(model.FreezetimeEnd{})
	})

	p.RegisterEventHandler(func(e events.RoundEnd) {
		if !s.live {
			return
		}
		s.push(model.RoundEnd{Winner: teamFromCommon(e.Winner), Reason: fmt.Sprint(e.Reason)})
		for _, pl := range p.GameState().Participants().Playing() {
			if pl != nil {
				s.syncMoney(playerRef(pl), pl.Money())
			}
		}
	})

	p.RegisterEventHandler(func(e events.Kill) {
		if !s.live {
			return
		}
		victim := playerRef(e.Victim)
		s.push(model.PlayerDeath{
			Killer:        playerRef(e.Killer),
			Victim:        victim,
			Assister:      playerRef(e.Assister),
			Weapon:        weaponName(e.Weapon),
			Headshot:      e.IsHeadshot,
			AssistedFlash: e.AssistedFlash,
		})
		delete(s.held, victim.Raw())
	})

	p.RegisterEventHandler(func(e events.WeaponFire) {
		if !s.live {
			return
		}
		s.push(model.WeaponFire{Player: playerRef(e.Shooter), Weapon: weaponName(e.Weapon)})
	})

	p.RegisterEventHandler(func(e events.PlayerHurt) {
		if !s.live {
			return
		}
		s.push(model.PlayerHurt{
			Attacker:        playerRef(e.Attacker),
			Victim:          playerRef(e.Player),
			Weapon:          weaponName(e.Weapon),
			Damage:          e.HealthDamage,
			ArmorDamage:     e.ArmorDamage,
			HealthRemaining: e.Health,
		})
	})

	p.RegisterEventHandler(func(e events.PlayerFlashed) {
		if !s.live {
			return
		}
		dur := e.FlashDuration()
		if dur <= 0 {
			return
		}
		s.push(model.PlayerBlind{Victim: playerRef(e.Player), Attacker: playerRef(e.Attacker), Duration: dur})
	})

	p.RegisterEventHandler(func(e events.FlashExplode) {
		if !s.live {
			return
		}
		s.push(model.FlashbangDetonate{
			Thrower:  playerRef(e.Thrower),
			Position: model.Vec3{X: e.Position.X, Y: e.Position.Y, Z: e.Position.Z},
		})
	})

	p.RegisterEventHandler(func(e events.ItemPickup) {
		if !s.live || e.Player == nil {
			return
		}
		s.pickup(playerRef(e.Player), weaponName(e.Weapon))
	})

	p.RegisterEventHandler(func(e events.ItemDrop) {
		if !s.live || e.Player == nil {
			return
		}
		s.drop(playerRef(e.Player), weaponName(e.Weapon))
	})

	p.RegisterEventHandler(func(e events.ItemEquip) {
		if !s.live {
			return
		}
		s.push(model.ItemEquip{Player: playerRef(e.Player), Item: weaponName(e.Weapon)})
	})

	p.RegisterEventHandler(func(e events.PlayerTeamChange) {
		if !s.live || e.Player == nil {
			return
		}
		s.push(model.PlayerTeam{Player: playerRef(e.Player), NewTeam: teamFromCommon(e.NewTeam)})
	})

	p.RegisterEventHandler(func(e events.PlayerDisconnected) {
		if !s.live || e.Player == nil {
			return
		}
		ref := playerRef(e.Player)
		s.push(model.PlayerDisconnect{Player: ref})
		delete(s.held, ref.Raw())
		delete(s.money, ref.Raw())
	})
}

func (s *Stream) pickup(ref model.PlayerRef, item string) {
	if item == "" {
		return
	}
	items := s.held[ref.Raw()]
	if items == nil {
		items = make(map[string]int)
		s.held[ref.Raw()] = items
	}
	items[item]++
	s.push(model.ItemPickup{Player: ref, Item: item})
}

func (s *Stream) drop(ref model.PlayerRef, item string) {
	if item == "" {
		return
	}
	if items := s.held[ref.Raw()]; items[item] > 0 {
		items[item]--
	}
	s.push(model.ItemDrop{Player: ref, Item: item})
}

// syncItems emits the pickups and drops that turn the tracked inventory of
// ref into want. Pickup events are not fired reliably for purchases, so the
// inventory is reconciled at every buy cutoff.
func (s *Stream) syncItems(ref model.PlayerRef, want map[string]int) {
	have := s.held[ref.Raw()]
	for item, n := range have {
		for range n - want[item] {
			s.drop(ref, item)
		}
	}
	for item, n := range want {
		for range n - have[item] {
			s.pickup(ref, item)
		}
	}
}

func (s *Stream) syncMoney(ref model.PlayerRef, money int) {
	prev, seen := s.money[ref.Raw()]
	s.money[ref.Raw()] = money
	if seen && money != prev {
		s.push(model.MoneyAdjust{Player: ref, Amount: money - prev})
	}
}

func heldItems(pl *common.Player) map[string]int {
	items := make(map[string]int)
	for _, w := range pl.Weapons() {
		if w != nil {
			items[w.Type.String()]++
		}
	}
	switch {
	case pl.HasHelmet() && pl.Armor() > 0:
		items[common.EqHelmet.String()]++
	case pl.Armor() > 0:
		items[common.EqKevlar.String()]++
	}
	if pl.HasDefuseKit() {
		items[common.EqDefuseKit.String()]++
	}
	return items
}

func playerRef(pl *common.Player) model.PlayerRef {
	if pl == nil {
		return model.PlayerRef{}
	}
	return model.PlayerRef{
		SteamID64: pl.SteamID64,
		UserID:    pl.UserID,
		Name:      pl.Name,
		IsBot:     pl.IsBot,
		Team:      teamFromCommon(pl.Team),
	}
}

func weaponName(w *common.Equipment) string {
	if w == nil {
		return ""
	}
	return w.Type.String()
}

func teamFromCommon(t common.Team) model.Team {
	switch t {
	case common.TeamTerrorists:
		return model.TeamT
	case common.TeamCounterTerrorists:
		return model.TeamCT
	case common.TeamSpectators:
		return model.TeamSpectators
	default:
		return model.TeamUnknown
	}
}
