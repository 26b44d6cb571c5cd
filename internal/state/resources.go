package state

import (
	"fmt"
	"strings"

	"github.com/samdwyer/farmbalance/internal/gamedata"
)

// ResourceKind names a bounded counter.
type ResourceKind string

const (
	Energy ResourceKind = "energy"
	Water  ResourceKind = "water"
	Gold   ResourceKind = "gold"
)

// BoundedKinds lists the bounded counters in a stable order.
var BoundedKinds = []ResourceKind{Energy, Water, Gold}

// Counter is a bounded quantity with 0 <= Current <= Capacity.
type Counter struct {
	Current  int `json:"current"`
	Capacity int `json:"capacity"`
}

// Free returns the remaining room before the counter is full.
func (c Counter) Free() int {
	if c.Capacity <= c.Current {
		return 0
	}
	return c.Capacity - c.Current
}

// Storage classes used for keyed storage caps.
const (
	StorageSeeds     = "seeds"
	StorageMaterials = "materials"
)

// SeedPrefix marks seed entries in a cost or shortfall map ("seed:carrot").
const SeedPrefix = "seed:"

// SeedKey returns the cost key used for a crop's seeds.
func SeedKey(crop string) string {
	return SeedPrefix + crop
}

// Resource returns a copy of a bounded counter.
func (s *GameState) Resource(kind ResourceKind) Counter {
	if c, ok := s.Bounded[kind]; ok {
		return *c
	}
	return Counter{}
}

// Capacity returns the current cap of a bounded resource. Among unlocked
// upgrades declaring a capacity for kind the highest tier wins; without one
// the base capacity applies. Every system reads caps through this lookup.
func (s *GameState) Capacity(kind ResourceKind) int {
	best, bestTier := 0, -1
	for _, id := range s.Progression.Upgrades.List() {
		def, ok := s.catalog.Get(id)
		if !ok || def.CapacityKind != string(kind) || def.Capacity <= 0 {
			continue
		}
		if def.Tier > bestTier || (def.Tier == bestTier && def.Capacity > best) {
			best, bestTier = def.Capacity, def.Tier
		}
	}
	if bestTier >= 0 {
		return best
	}
	switch kind {
	case Energy:
		return s.caps.Energy
	case Water:
		return s.caps.Water
	case Gold:
		return s.caps.Gold
	default:
		return 0
	}
}

// StorageCap returns the per-key cap for keyed storage of the given class
// ("seeds" or "materials"). An upgrade naming the exact key beats one naming
// the class at equal tier; the highest tier wins otherwise.
func (s *GameState) StorageCap(class, key string) int {
	best, bestTier, bestExact := 0, -1, false
	for _, id := range s.Progression.Upgrades.List() {
		def, ok := s.catalog.Get(id)
		if !ok || def.StorageCap <= 0 {
			continue
		}
		exact := def.StorageKind == key
		if !exact && def.StorageKind != class {
			continue
		}
		better := def.Tier > bestTier ||
			(def.Tier == bestTier && exact && !bestExact) ||
			(def.Tier == bestTier && exact == bestExact && def.StorageCap > best)
		if better {
			best, bestTier, bestExact = def.StorageCap, def.Tier, exact
		}
	}
	if bestTier >= 0 {
		return best
	}
	if class == StorageSeeds {
		return s.caps.Seeds
	}
	return s.caps.Materials
}

// RefreshCapacities recomputes every bounded capacity from progression.
func (s *GameState) RefreshCapacities() {
	for _, kind := range BoundedKinds {
		c := s.Bounded[kind]
		capacity := s.Capacity(kind)
		if capacity == c.Capacity {
			continue
		}
		c.Capacity = capacity
		if c.Current > capacity {
			s.Emit(EventResourceClamped, ImportanceWarning, "", "%s capacity fell to %d, discarded %d", kind, capacity, c.Current-capacity)
			c.Current = capacity
		}
		s.touch()
	}
}

// Spend removes n from a bounded counter, failing rather than going negative.
func (s *GameState) Spend(kind ResourceKind, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative spend of %s", ErrInvariantViolation, kind)
	}
	if n == 0 {
		return nil
	}
	c, ok := s.Bounded[kind]
	if !ok {
		return fmt.Errorf("%w: unknown resource %q", ErrInvariantViolation, kind)
	}
	if c.Current < n {
		return fmt.Errorf("%w: %s needs %d, have %d", ErrResourceInsufficient, kind, n, c.Current)
	}
	c.Current -= n
	s.touch()
	return nil
}

// Add increases a bounded counter, clamping at capacity. The discarded amount
// is returned and recorded as an overflow warning.
func (s *GameState) Add(kind ResourceKind, n int) int {
	if n <= 0 {
		return 0
	}
	c, ok := s.Bounded[kind]
	if !ok {
		return 0
	}
	overflow := 0
	c.Current += n
	if c.Current > c.Capacity {
		overflow = c.Current - c.Capacity
		c.Current = c.Capacity
		s.Emit(EventResourceOverflow, ImportanceWarning, "", "%s at capacity %d, discarded %d", kind, c.Capacity, overflow)
	}
	if overflow < n {
		s.touch()
	}
	return overflow
}

// AddSeeds stores seeds for a crop up to its storage cap.
func (s *GameState) AddSeeds(crop string, n int) int {
	return s.addKeyed(s.Seeds, StorageSeeds, crop, n, crop+" seeds")
}

// SpendSeeds removes seeds for a crop.
func (s *GameState) SpendSeeds(crop string, n int) error {
	return s.spendKeyed(s.Seeds, crop, n, crop+" seeds")
}

// AddMaterial stores a normalized material up to its storage cap.
func (s *GameState) AddMaterial(name string, n int) int {
	return s.addKeyed(s.Materials, StorageMaterials, name, n, name)
}

// SpendMaterial removes a normalized material.
func (s *GameState) SpendMaterial(name string, n int) error {
	return s.spendKeyed(s.Materials, name, n, name)
}

func (s *GameState) addKeyed(store map[string]int, class, key string, n int, label string) int {
	if n <= 0 || key == "" {
		return 0
	}
	capacity := s.StorageCap(class, key)
	have := store[key]
	room := capacity - have
	if room < 0 {
		room = 0
	}
	added := n
	if added > room {
		added = room
	}
	if added > 0 {
		store[key] = have + added
		s.touch()
	}
	overflow := n - added
	if overflow > 0 {
		s.Emit(EventResourceOverflow, ImportanceWarning, "", "%s storage full at %d, discarded %d", label, capacity, overflow)
	}
	return overflow
}

func (s *GameState) spendKeyed(store map[string]int, key string, n int, label string) error {
	if n < 0 {
		return fmt.Errorf("%w: negative spend of %s", ErrInvariantViolation, label)
	}
	if n == 0 {
		return nil
	}
	have := store[key]
	if have < n {
		return fmt.Errorf("%w: %s needs %d, have %d", ErrResourceInsufficient, label, n, have)
	}
	if have == n {
		delete(store, key)
	} else {
		store[key] = have - n
	}
	s.touch()
	return nil
}

// Amount returns the held quantity for a cost key: a bounded resource name,
// a seed key, or a material name.
func (s *GameState) Amount(key string) int {
	switch key {
	case gamedata.CostEnergy:
		return s.Bounded[Energy].Current
	case gamedata.CostWater:
		return s.Bounded[Water].Current
	case gamedata.CostGold:
		return s.Bounded[Gold].Current
	}
	if crop, ok := strings.CutPrefix(key, SeedPrefix); ok {
		return s.Seeds[crop]
	}
	return s.Materials[key]
}

// Shortfalls returns, per cost key, how much is missing to pay cost.
// An empty result means the cost is affordable.
func (s *GameState) Shortfalls(cost gamedata.Cost) map[string]int {
	var missing map[string]int
	for _, key := range cost.Names() {
		need := cost[key]
		if have := s.Amount(key); have < need {
			if missing == nil {
				missing = make(map[string]int)
			}
			missing[key] = need - have
		}
	}
	return missing
}

// Pay spends every component of cost, or nothing if any component is short.
func (s *GameState) Pay(cost gamedata.Cost) error {
	if missing := s.Shortfalls(cost); len(missing) > 0 {
		parts := make([]string, 0, len(missing))
		for _, key := range sortedKeys(missing) {
			parts = append(parts, fmt.Sprintf("%s short %d", key, missing[key]))
		}
		return fmt.Errorf("%w: %s", ErrResourceInsufficient, strings.Join(parts, ", "))
	}
	for _, key := range cost.Names() {
		if err := s.spendKey(key, cost[key]); err != nil {
			return err
		}
	}
	return nil
}

func (s *GameState) spendKey(key string, n int) error {
	switch key {
	case gamedata.CostEnergy:
		return s.Spend(Energy, n)
	case gamedata.CostWater:
		return s.Spend(Water, n)
	case gamedata.CostGold:
		return s.Spend(Gold, n)
	}
	if crop, ok := strings.CutPrefix(key, SeedPrefix); ok {
		return s.SpendSeeds(crop, n)
	}
	return s.SpendMaterial(key, n)
}

// Grant adds every component of a reward. Equipment names become owned items;
// everything else is stored as a material, seed or bounded resource.
func (s *GameState) Grant(reward gamedata.Cost) {
	for _, key := range reward.Names() {
		n := reward[key]
		switch key {
		case gamedata.CostEnergy:
			s.Add(Energy, n)
			continue
		case gamedata.CostWater:
			s.Add(Water, n)
			continue
		case gamedata.CostGold:
			s.Add(Gold, n)
			continue
		}
		if crop, ok := strings.CutPrefix(key, SeedPrefix); ok {
			s.AddSeeds(crop, n)
			continue
		}
		if def, ok := s.catalog.Get(key); ok && def.Kind.IsEquipment() {
			if !s.Inventory.Owns(key) {
				s.Inventory.Add(def)
				s.touch()
			}
			continue
		}
		s.AddMaterial(key, n)
	}
}
