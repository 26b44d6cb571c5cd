package state

import (
	"fmt"
	"sort"

	"github.com/samdwyer/farmbalance/internal/gamedata"
)

// IDSet is an append-only set that remembers insertion order.
type IDSet struct {
	order []string
	has   map[string]bool
}

func newIDSet() IDSet {
	return IDSet{has: make(map[string]bool)}
}

// Add inserts id and reports whether it was new.
func (s *IDSet) Add(id string) bool {
	if s.has == nil {
		s.has = make(map[string]bool)
	}
	if s.has[id] {
		return false
	}
	s.has[id] = true
	s.order = append(s.order, id)
	return true
}

// Has reports membership.
func (s IDSet) Has(id string) bool {
	return s.has[id]
}

// List returns members in insertion order. Callers must not modify it.
func (s IDSet) List() []string {
	return s.order
}

// Len returns the number of members.
func (s IDSet) Len() int {
	return len(s.order)
}

// Progression is permanent, monotonic player progress.
type Progression struct {
	Upgrades   IDSet
	Completed  IDSet
	Plots      int
	MaxDepth   int
	TowerLevel int
	Helpers    map[string]int
}

func newProgression() Progression {
	return Progression{
		Upgrades:  newIDSet(),
		Completed: newIDSet(),
		Helpers:   make(map[string]int),
	}
}

// HelperIDs returns hired helper ids sorted for deterministic iteration.
func (p *Progression) HelperIDs() []string {
	ids := make([]string, 0, len(p.Helpers))
	for id := range p.Helpers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UnlockUpgrade records an upgrade and applies its passive effects. It returns
// false when the upgrade was already unlocked.
func (s *GameState) UnlockUpgrade(id string) bool {
	if !s.Progression.Upgrades.Add(id) {
		return false
	}
	if def, ok := s.catalog.Get(id); ok && def.TowerLevel > s.Progression.TowerLevel {
		s.Progression.TowerLevel = def.TowerLevel
	}
	s.touch()
	s.RefreshCapacities()
	s.Emit(EventUpgradeUnlocked, ImportanceHigh, DomainTown, "unlocked %s", id)
	return true
}

// HasUpgrade reports whether an upgrade is unlocked.
func (s *GameState) HasUpgrade(id string) bool {
	return s.Progression.Upgrades.Has(id)
}

// CompleteOneShot records a completed one-shot action such as a cleanup or a
// won boss adventure.
func (s *GameState) CompleteOneShot(id string) bool {
	if !s.Progression.Completed.Add(id) {
		return false
	}
	s.touch()
	return true
}

// IsCompleted reports whether a one-shot has been completed.
func (s *GameState) IsCompleted(id string) bool {
	return s.Progression.Completed.Has(id)
}

// AddPlots increases the plot count. Plots never decrease.
func (s *GameState) AddPlots(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: plot count cannot decrease by %d", ErrInvariantViolation, -n)
	}
	if n == 0 {
		return nil
	}
	s.Progression.Plots += n
	s.touch()
	s.Emit(EventPlotsAdded, ImportanceHigh, DomainFarm, "+%d plots (total %d)", n, s.Progression.Plots)
	return nil
}

// RecordDepth raises the maximum mine depth reached.
func (s *GameState) RecordDepth(depth int) {
	if depth > s.Progression.MaxDepth {
		s.Progression.MaxDepth = depth
		s.touch()
	}
}

// HelperLevel returns the level of a hired helper, zero when not hired.
func (s *GameState) HelperLevel(id string) int {
	return s.Progression.Helpers[id]
}

// SetHelperLevel hires a helper or raises its level. Levels never decrease.
func (s *GameState) SetHelperLevel(id string, level int) error {
	if level < s.Progression.Helpers[id] {
		return fmt.Errorf("%w: helper %s level cannot drop to %d", ErrInvariantViolation, id, level)
	}
	if level == s.Progression.Helpers[id] {
		return nil
	}
	s.Progression.Helpers[id] = level
	s.touch()
	return nil
}

// Hero base stats at level one and the gains per level.
const (
	BaseHeroHP      = 30
	BaseHeroAttack  = 2
	BaseHeroDefense = 1

	HPPerLevel      = 5
	AttackPerLevel  = 1
	DefensePerLevel = 1
)

// Hero is the player's adventurer.
type Hero struct {
	Level      int `json:"level"`
	Experience int `json:"experience"`
	HP         int `json:"hp"`
	MaxHP      int `json:"maxHp"`
	Attack     int `json:"attack"`
	Defense    int `json:"defense"`
}

// NewHero creates a full-health hero at the given level.
func NewHero(level int) Hero {
	if level < 1 {
		level = 1
	}
	maxHP := BaseHeroHP + HPPerLevel*(level-1)
	return Hero{
		Level:   level,
		HP:      maxHP,
		MaxHP:   maxHP,
		Attack:  BaseHeroAttack + AttackPerLevel*(level-1),
		Defense: BaseHeroDefense + DefensePerLevel*(level-1),
	}
}

// ExperienceToNext returns the experience needed to leave the given level.
func ExperienceToNext(level int) int {
	return 100 * level
}

// HealthFraction returns HP / MaxHP.
func (h Hero) HealthFraction() float64 {
	if h.MaxHP <= 0 {
		return 0
	}
	return float64(h.HP) / float64(h.MaxHP)
}

// GainExperience adds experience and applies any level-ups. Returns levels gained.
func (s *GameState) GainExperience(n int) int {
	if n <= 0 {
		return 0
	}
	h := &s.Hero
	h.Experience += n
	gained := 0
	for h.Experience >= ExperienceToNext(h.Level) {
		h.Experience -= ExperienceToNext(h.Level)
		h.Level++
		h.MaxHP += HPPerLevel
		h.HP += HPPerLevel
		h.Attack += AttackPerLevel
		h.Defense += DefensePerLevel
		gained++
		s.Emit(EventLevelUp, ImportanceHigh, DomainAdventure, "hero reached level %d", h.Level)
	}
	s.touch()
	return gained
}

// HealHero restores HP up to the maximum and returns the amount healed.
func (s *GameState) HealHero(n int) int {
	if n <= 0 {
		return 0
	}
	actual := n
	if s.Hero.HP+actual > s.Hero.MaxHP {
		actual = s.Hero.MaxHP - s.Hero.HP
	}
	if actual > 0 {
		s.Hero.HP += actual
		s.touch()
	}
	return actual
}

// DamageHero removes HP down to zero and returns the damage taken.
func (s *GameState) DamageHero(n int) int {
	if n <= 0 {
		return 0
	}
	actual := n
	if actual > s.Hero.HP {
		actual = s.Hero.HP
	}
	if actual > 0 {
		s.Hero.HP -= actual
		s.touch()
	}
	return actual
}

// PrerequisiteMet resolves one parsed prerequisite against unlocked upgrades,
// completed one-shots, owned items, hired helpers and progression thresholds.
func (s *GameState) PrerequisiteMet(p gamedata.Prerequisite) bool {
	if p.IsThreshold() {
		return s.thresholdValue(p.Threshold) >= p.Min
	}
	return s.Progression.Upgrades.Has(p.ID) ||
		s.Progression.Completed.Has(p.ID) ||
		s.Inventory.Owns(p.ID) ||
		s.Progression.Helpers[p.ID] > 0
}

func (s *GameState) thresholdValue(key string) int {
	switch key {
	case gamedata.ThresholdHeroLevel:
		return s.Hero.Level
	case gamedata.ThresholdPlots:
		return s.Progression.Plots
	case gamedata.ThresholdMaxDepth:
		return s.Progression.MaxDepth
	case gamedata.ThresholdTowerLevel:
		return s.Progression.TowerLevel
	case gamedata.ThresholdDay:
		return s.Clock.Day()
	default:
		return 0
	}
}

// MissingPrerequisites returns the raw prerequisite strings of def that are not met.
func (s *GameState) MissingPrerequisites(def *gamedata.ItemDef) []string {
	var missing []string
	for _, raw := range def.Prerequisites {
		p, err := gamedata.ParsePrerequisite(raw)
		if err != nil || !s.PrerequisiteMet(p) {
			missing = append(missing, raw)
		}
	}
	return missing
}
