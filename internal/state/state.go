// Package state holds the canonical mutable snapshot of one simulated playthrough.
//
// A GameState is created once per run and exclusively owned by the run's
// orchestrator. Systems and process handlers receive it by reference for the
// duration of one call and mutate it only through the methods in this package,
// which keep every bounded resource inside [0, capacity] and record overflow,
// clamping and invariant problems as events.
package state

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/samdwyer/farmbalance/internal/gamedata"
)

var (
	// ErrResourceInsufficient is returned when a spend would take a counter below zero.
	ErrResourceInsufficient = errors.New("resource insufficient")
	// ErrInvariantViolation marks internal consistency failures that must abort a run.
	ErrInvariantViolation = errors.New("invariant violation")
)

// BaseCaps are the capacities in effect before any upgrade is unlocked.
type BaseCaps struct {
	Energy    int
	Water     int
	Gold      int
	Seeds     int
	Materials int
}

// DefaultBaseCaps returns the stock capacities.
func DefaultBaseCaps() BaseCaps {
	return BaseCaps{Energy: 100, Water: 20, Gold: 5000, Seeds: 20, Materials: 100}
}

// Start describes the starting resources and progression of a run.
type Start struct {
	Energy    int
	Water     int
	Gold      int
	Seeds     map[string]int
	Materials map[string]int
	Plots     int
	Items     []string
	Upgrades  []string
	HeroLevel int
}

// Options configures a new GameState.
type Options struct {
	Seed    uint64
	Catalog *gamedata.Catalog
	Caps    BaseCaps
	Start   Start
}

// GameState is the single shared state of one run.
type GameState struct {
	Clock       Clock
	Bounded     map[ResourceKind]*Counter
	Seeds       map[string]int
	Materials   map[string]int
	Progression Progression
	Inventory   Inventory
	Hero        Hero
	ForgeHeat   int
	Processes   *ProcessTable
	Location    Location
	Events      *EventLog
	RNG         *rand.Rand

	catalog  *gamedata.Catalog
	caps     BaseCaps
	revision uint64
}

// New creates the state for a fresh run from a catalog and starting conditions.
func New(opts Options) (*GameState, error) {
	if opts.Catalog == nil {
		return nil, errors.New("state requires a catalog")
	}
	caps := opts.Caps
	defaults := DefaultBaseCaps()
	if caps.Energy <= 0 {
		caps.Energy = defaults.Energy
	}
	if caps.Water <= 0 {
		caps.Water = defaults.Water
	}
	if caps.Gold <= 0 {
		caps.Gold = defaults.Gold
	}
	if caps.Seeds <= 0 {
		caps.Seeds = defaults.Seeds
	}
	if caps.Materials <= 0 {
		caps.Materials = defaults.Materials
	}

	s := &GameState{
		Bounded: map[ResourceKind]*Counter{
			Energy: {Capacity: caps.Energy},
			Water:  {Capacity: caps.Water},
			Gold:   {Capacity: caps.Gold},
		},
		Seeds:       make(map[string]int),
		Materials:   make(map[string]int),
		Progression: newProgression(),
		Hero:        NewHero(1),
		Processes:   NewProcessTable(),
		Location:    Location{Area: DomainFarm, Reason: "start"},
		Events:      NewEventLog(),
		RNG:         rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		catalog:     opts.Catalog,
		caps:        caps,
	}

	start := opts.Start
	if start.HeroLevel > 1 {
		s.Hero = NewHero(start.HeroLevel)
	}
	s.Progression.Plots = start.Plots

	for _, id := range start.Upgrades {
		def, err := opts.Catalog.Lookup(id)
		if err != nil {
			return nil, fmt.Errorf("starting upgrade: %w", err)
		}
		if def.Kind != gamedata.KindUpgrade {
			return nil, fmt.Errorf("starting upgrade %q is a %s", id, def.Kind)
		}
		s.UnlockUpgrade(id)
	}
	for _, id := range start.Items {
		def, err := opts.Catalog.Lookup(id)
		if err != nil {
			return nil, fmt.Errorf("starting item: %w", err)
		}
		if !def.Kind.IsEquipment() {
			return nil, fmt.Errorf("starting item %q is a %s, not equipment", id, def.Kind)
		}
		s.Inventory.Add(def)
	}

	s.Add(Energy, start.Energy)
	s.Add(Water, start.Water)
	s.Add(Gold, start.Gold)
	for _, crop := range sortedKeys(start.Seeds) {
		def, err := opts.Catalog.Lookup(crop)
		if err != nil {
			return nil, fmt.Errorf("starting seeds: %w", err)
		}
		if def.Kind != gamedata.KindCrop {
			return nil, fmt.Errorf("starting seeds %q is not a crop", crop)
		}
		s.AddSeeds(crop, start.Seeds[crop])
	}
	for _, name := range sortedKeys(start.Materials) {
		s.AddMaterial(gamedata.NormalizeName(name), start.Materials[name])
	}
	return s, nil
}

// Catalog returns the read-only catalog the run was created with.
func (s *GameState) Catalog() *gamedata.Catalog {
	return s.catalog
}

// Revision increases on every state mutation. Equal revisions mean nothing changed.
func (s *GameState) Revision() uint64 {
	return s.revision
}

func (s *GameState) touch() {
	s.revision++
}

// Emit appends an event stamped with the current clock.
func (s *GameState) Emit(t EventType, importance Importance, domain Domain, format string, args ...any) Event {
	return s.Events.Append(Event{
		Type:        t,
		Description: fmt.Sprintf(format, args...),
		Minute:      s.Clock.Minute,
		Day:         s.Clock.Day(),
		Importance:  importance,
		Domain:      string(domain),
	})
}

// Fingerprint summarizes every resource quantity. Two equal fingerprints mean
// no resource changed in between.
func (s *GameState) Fingerprint() string {
	var b strings.Builder
	for _, kind := range BoundedKinds {
		fmt.Fprintf(&b, "%s=%d;", kind, s.Bounded[kind].Current)
	}
	for _, crop := range sortedKeys(s.Seeds) {
		fmt.Fprintf(&b, "seed:%s=%d;", crop, s.Seeds[crop])
	}
	for _, name := range sortedKeys(s.Materials) {
		fmt.Fprintf(&b, "%s=%d;", name, s.Materials[name])
	}
	return b.String()
}

// Milestones counts permanent progress: unlocks, completions, plots, levels,
// owned items, helper levels and mine depth bands.
func (s *GameState) Milestones() int {
	p := &s.Progression
	n := len(p.Upgrades.List()) + len(p.Completed.List()) + p.Plots + s.Hero.Level + len(s.Inventory.Items)
	for _, level := range p.Helpers {
		n += level
	}
	n += p.MaxDepth / 50
	return n
}

// Audit enforces 0 <= current <= capacity on every bounded resource and
// non-negative keyed quantities, clamping and logging each violation.
// It returns the number of corrections made.
func (s *GameState) Audit() int {
	fixed := 0
	for _, kind := range BoundedKinds {
		c := s.Bounded[kind]
		switch {
		case c.Current < 0:
			s.Emit(EventResourceClamped, ImportanceWarning, "", "%s was %d, clamped to 0", kind, c.Current)
			c.Current = 0
			fixed++
		case c.Current > c.Capacity:
			s.Emit(EventResourceClamped, ImportanceWarning, "", "%s was %d, clamped to capacity %d", kind, c.Current, c.Capacity)
			c.Current = c.Capacity
			fixed++
		}
	}
	for _, crop := range sortedKeys(s.Seeds) {
		if s.Seeds[crop] < 0 {
			s.Emit(EventResourceClamped, ImportanceWarning, "", "%s seeds were %d, clamped to 0", crop, s.Seeds[crop])
			delete(s.Seeds, crop)
			fixed++
		}
	}
	for _, name := range sortedKeys(s.Materials) {
		if s.Materials[name] < 0 {
			s.Emit(EventResourceClamped, ImportanceWarning, "", "%s was %d, clamped to 0", name, s.Materials[name])
			delete(s.Materials, name)
			fixed++
		}
	}
	if s.Hero.HP < 0 || s.Hero.HP > s.Hero.MaxHP {
		s.Hero.HP = clamp(s.Hero.HP, 0, s.Hero.MaxHP)
		fixed++
	}
	if fixed > 0 {
		s.touch()
	}
	return fixed
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
