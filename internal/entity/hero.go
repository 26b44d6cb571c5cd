// Package entity provides combatants built from the run state and catalog.
package entity

import (
	"github.com/samdwyer/farmbalance/internal/combat"
	"github.com/samdwyer/farmbalance/internal/state"
)

// Hero is a combat copy of the player's adventurer with equipment applied.
// Damage taken by a Hero never touches the run state directly.
type Hero struct {
	Name      string
	HP, MaxHP int
	Attack    int
	Defense   int
	Weapon    combat.WeaponType
}

// NewHero snapshots the hero and equipped gear from state.
func NewHero(st *state.GameState) *Hero {
	h := &Hero{
		Name:    "Hero",
		HP:      st.Hero.HP,
		MaxHP:   st.Hero.MaxHP,
		Attack:  st.Hero.Attack,
		Defense: st.Hero.Defense,
	}
	if w := st.Inventory.Equipped("weapon"); w != nil {
		h.Attack += w.Attack
		h.Weapon = combat.WeaponType(w.WeaponType)
	}
	if a := st.Inventory.Equipped("armor"); a != nil {
		h.Defense += a.Defense
	}
	return h
}

// GetName returns the hero's name.
func (h *Hero) GetName() string { return h.Name }

// IsAlive returns true if the hero has HP remaining.
func (h *Hero) IsAlive() bool { return h.HP > 0 }

// GetHP returns current HP.
func (h *Hero) GetHP() int { return h.HP }

// GetMaxHP returns maximum HP.
func (h *Hero) GetMaxHP() int { return h.MaxHP }

// GetAttack returns attack including the equipped weapon.
func (h *Hero) GetAttack() int { return h.Attack }

// GetDefense returns defense including equipped armor.
func (h *Hero) GetDefense() int { return h.Defense }

// TakeDamage reduces HP and returns actual damage taken.
func (h *Hero) TakeDamage(amount int) int {
	return takeDamage(&h.HP, amount)
}

// Heal restores HP and returns actual amount healed.
func (h *Hero) Heal(amount int) int {
	return heal(&h.HP, h.MaxHP, amount)
}

func takeDamage(hp *int, amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := amount
	if actual > *hp {
		actual = *hp
	}
	*hp -= actual
	return actual
}

func heal(hp *int, maxHP, amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := amount
	if *hp+actual > maxHP {
		actual = maxHP - *hp
	}
	*hp += actual
	return actual
}

// Ensure Hero implements combat.Combatant
var _ combat.Combatant = (*Hero)(nil)
