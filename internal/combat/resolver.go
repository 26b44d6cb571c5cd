// Package combat resolves adventure runs with a deterministic formula over
// weapon/enemy advantage, wave sizes and boss special modifiers.
package combat

import (
	"fmt"
	"math"
)

// Combatant is the interface for any entity that can participate in combat.
// Both the hero and enemies implement this interface.
type Combatant interface {
	GetName() string
	IsAlive() bool

	GetHP() int
	GetMaxHP() int
	GetAttack() int
	GetDefense() int

	TakeDamage(amount int) int // Returns actual damage taken
	Heal(amount int) int       // Returns actual amount healed
}

// Special is a boss modifier.
type Special string

const (
	SpecialNone   Special = ""
	SpecialShell  Special = "shell"  // halves hero damage unless countered
	SpecialEnrage Special = "enrage" // +50% attack below half HP
	SpecialRegen  Special = "regen"  // heals 5% max HP per round unless countered
)

// Modifier constants for boss specials.
const (
	ShellFactor  = 0.5
	EnrageFactor = 1.5
	RegenFactor  = 0.05
)

// Foe is one enemy in an encounter.
type Foe struct {
	Combatant
	Type    EnemyType
	Special Special
	Counter WeaponType
	Boss    bool
}

// Countered reports whether the weapon negates the foe's special.
func (f Foe) Countered(weapon WeaponType) bool {
	return f.Counter != "" && f.Counter == weapon
}

// Encounter is the full set of enemies of one adventure run.
type Encounter struct {
	Waves [][]Foe
	Boss  *Foe
}

// Outcome is the result of a resolved run. There are no partial outcomes:
// either every wave and the boss fell, or the hero did.
type Outcome struct {
	Success      bool
	HPRemaining  int
	HPLost       int
	Rounds       int
	WavesCleared int
	BossDefeated bool
	Log          []string
}

// DefaultMaxRounds bounds a run; hitting the bound counts as a defeat.
const DefaultMaxRounds = 500

// Resolver runs the deterministic combat formula.
type Resolver struct {
	MaxRounds int
}

// NewResolver creates a resolver with the default round cap.
func NewResolver() *Resolver {
	return &Resolver{MaxRounds: DefaultMaxRounds}
}

// HeroDamage is the damage the hero deals to a foe with the given weapon:
// attack scaled by the pentagon multiplier, halved by an uncountered shell, minimum 1.
func (r *Resolver) HeroDamage(hero Combatant, weapon WeaponType, foe Foe) int {
	damage := float64(hero.GetAttack()-foe.GetDefense()) * Advantage(weapon, foe.Type)
	if foe.Special == SpecialShell && !foe.Countered(weapon) {
		damage *= ShellFactor
	}
	return max(1, int(math.Floor(damage)))
}

// FoeDamage is the damage a foe deals to the hero: attack minus defense, minimum 1.
// An enraged boss below half health hits 50% harder.
func (r *Resolver) FoeDamage(foe Foe, hero Combatant) int {
	attack := float64(foe.GetAttack())
	if foe.Special == SpecialEnrage && foe.GetHP()*2 < foe.GetMaxHP() {
		attack *= EnrageFactor
	}
	return max(1, int(math.Floor(attack))-hero.GetDefense())
}

// RegenAmount is the HP a regenerating boss recovers each round.
func (r *Resolver) RegenAmount(foe Foe, weapon WeaponType) int {
	if foe.Special != SpecialRegen || foe.Countered(weapon) {
		return 0
	}
	return max(1, int(math.Floor(float64(foe.GetMaxHP())*RegenFactor)))
}

// Run fights every wave in order, then the boss. Each round the hero strikes
// the first living foe, then every living foe strikes the hero.
func (r *Resolver) Run(hero Combatant, weapon WeaponType, enc Encounter) Outcome {
	maxRounds := r.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	start := hero.GetHP()
	out := Outcome{}

	fight := func(foes []Foe) bool {
		for anyAlive(foes) {
			if !hero.IsAlive() || out.Rounds >= maxRounds {
				return false
			}
			out.Rounds++
			target := firstAlive(foes)
			target.TakeDamage(r.HeroDamage(hero, weapon, *target))
			for i := range foes {
				if foes[i].IsAlive() {
					hero.TakeDamage(r.FoeDamage(foes[i], hero))
				}
			}
			for i := range foes {
				if foes[i].IsAlive() {
					foes[i].Heal(r.RegenAmount(foes[i], weapon))
				}
			}
		}
		return hero.IsAlive()
	}

	for i, wave := range enc.Waves {
		if !fight(wave) {
			out.Log = append(out.Log, waveLog(i+1, false))
			return r.finish(out, hero, start)
		}
		out.WavesCleared++
		out.Log = append(out.Log, waveLog(i+1, true))
	}
	if enc.Boss != nil {
		if !fight([]Foe{*enc.Boss}) {
			out.Log = append(out.Log, enc.Boss.GetName()+" prevailed")
			return r.finish(out, hero, start)
		}
		out.BossDefeated = true
		out.Log = append(out.Log, enc.Boss.GetName()+" defeated")
	}
	out.Success = true
	return r.finish(out, hero, start)
}

func (r *Resolver) finish(out Outcome, hero Combatant, start int) Outcome {
	if !out.Success {
		out.BossDefeated = false
	}
	out.HPRemaining = hero.GetHP()
	out.HPLost = start - hero.GetHP()
	return out
}

func anyAlive(foes []Foe) bool {
	return firstAlive(foes) != nil
}

func firstAlive(foes []Foe) *Foe {
	for i := range foes {
		if foes[i].IsAlive() {
			return &foes[i]
		}
	}
	return nil
}

func waveLog(n int, cleared bool) string {
	if cleared {
		return fmt.Sprintf("wave %d cleared", n)
	}
	return fmt.Sprintf("defeated in wave %d", n)
}
