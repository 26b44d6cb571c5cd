package entity

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/combat"
	"github.com/samdwyer/farmbalance/internal/gamedata"
)

// Enemy is a hostile combatant in an adventure wave or boss phase.
type Enemy struct {
	ID        string
	Name      string
	Type      combat.EnemyType
	HP, MaxHP int
	Attack    int
	Defense   int
}

// NewEnemy creates an enemy with full health.
func NewEnemy(id, name string, enemyType combat.EnemyType, hp, attack int) *Enemy {
	return &Enemy{
		ID:     id,
		Name:   name,
		Type:   enemyType,
		HP:     hp,
		MaxHP:  hp,
		Attack: attack,
	}
}

// NewWaveEnemy creates the n-th enemy of a wave from an adventure record.
func NewWaveEnemy(adv *gamedata.ItemDef, wave, n int) *Enemy {
	hp := adv.EnemyHP
	if hp <= 0 {
		hp = DefaultEnemyHP
	}
	attack := adv.EnemyAttack
	if attack <= 0 {
		attack = DefaultEnemyAttack
	}
	return NewEnemy(
		adv.ID,
		fmt.Sprintf("%s w%d#%d", adv.Name, wave, n),
		combat.EnemyType(adv.EnemyType),
		hp,
		attack,
	)
}

// GetName returns the enemy's name.
func (e *Enemy) GetName() string { return e.Name }

// IsAlive returns true if the enemy has HP remaining.
func (e *Enemy) IsAlive() bool { return e.HP > 0 }

// GetHP returns current HP.
func (e *Enemy) GetHP() int { return e.HP }

// GetMaxHP returns maximum HP.
func (e *Enemy) GetMaxHP() int { return e.MaxHP }

// GetAttack returns attack power.
func (e *Enemy) GetAttack() int { return e.Attack }

// GetDefense returns defense.
func (e *Enemy) GetDefense() int { return e.Defense }

// TakeDamage reduces HP and returns actual damage taken.
func (e *Enemy) TakeDamage(amount int) int {
	return takeDamage(&e.HP, amount)
}

// Heal restores HP and returns actual amount healed.
func (e *Enemy) Heal(amount int) int {
	return heal(&e.HP, e.MaxHP, amount)
}

// Ensure Enemy implements combat.Combatant
var _ combat.Combatant = (*Enemy)(nil)
