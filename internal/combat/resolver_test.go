package combat

import (
	"testing"
)

// mockCombatant is a test implementation of the Combatant interface.
type mockCombatant struct {
	name      string
	hp, maxHP int
	attack    int
	defense   int
}

func newMockCombatant(name string, hp, attack, defense int) *mockCombatant {
	return &mockCombatant{
		name:    name,
		hp:      hp,
		maxHP:   hp,
		attack:  attack,
		defense: defense,
	}
}

func (m *mockCombatant) GetName() string { return m.name }
func (m *mockCombatant) IsAlive() bool   { return m.hp > 0 }
func (m *mockCombatant) GetHP() int      { return m.hp }
func (m *mockCombatant) GetMaxHP() int   { return m.maxHP }
func (m *mockCombatant) GetAttack() int  { return m.attack }
func (m *mockCombatant) GetDefense() int { return m.defense }

func (m *mockCombatant) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := amount
	if actual > m.hp {
		actual = m.hp
	}
	m.hp -= actual
	return actual
}

func (m *mockCombatant) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := amount
	if m.hp+actual > m.maxHP {
		actual = m.maxHP - m.hp
	}
	m.hp += actual
	return actual
}

func foe(name string, t EnemyType, hp, attack int) Foe {
	return Foe{Combatant: newMockCombatant(name, hp, attack, 0), Type: t}
}

func TestAdvantagePentagon(t *testing.T) {
	tests := []struct {
		weapon WeaponType
		enemy  EnemyType
		want   float64
	}{
		{WeaponCrossbow, EnemyArmored, 1.5},
		{WeaponCrossbow, EnemyMagical, 0.5},
		{WeaponSword, EnemyBeast, 1.5},
		{WeaponSword, EnemyArmored, 0.5},
		{WeaponBow, EnemyFlying, 1.5},
		{WeaponBow, EnemyBeast, 0.5},
		{WeaponSpear, EnemyInsect, 1.5},
		{WeaponSpear, EnemyFlying, 0.5},
		{WeaponWand, EnemyMagical, 1.5},
		{WeaponWand, EnemyInsect, 0.5},
		{WeaponSword, EnemyFlying, 1.0},
		{"", EnemyBeast, 1.0},
		{WeaponWand, "dragon", 1.0},
	}

	for _, tt := range tests {
		if got := Advantage(tt.weapon, tt.enemy); got != tt.want {
			t.Errorf("Advantage(%s, %s): expected %.1f, got %.1f", tt.weapon, tt.enemy, tt.want, got)
		}
	}
}

func TestEveryEnemyTypeHasOneCounter(t *testing.T) {
	weapons := []WeaponType{WeaponCrossbow, WeaponSword, WeaponBow, WeaponSpear, WeaponWand}
	for _, e := range []EnemyType{EnemyArmored, EnemyBeast, EnemyFlying, EnemyInsect, EnemyMagical} {
		counters := 0
		for _, w := range weapons {
			if Advantage(w, e) == StrongMultiplier {
				counters++
			}
		}
		if counters != 1 {
			t.Errorf("Expected one counter for %s, got %d", e, counters)
		}
	}
}

func TestHeroDamage(t *testing.T) {
	r := NewResolver()
	hero := newMockCombatant("Hero", 30, 10, 0)

	if got := r.HeroDamage(hero, WeaponSword, foe("Wolf", EnemyBeast, 10, 1)); got != 15 {
		t.Errorf("Expected 15 damage with advantage, got %d", got)
	}
	if got := r.HeroDamage(hero, WeaponSword, foe("Knight", EnemyArmored, 10, 1)); got != 5 {
		t.Errorf("Expected 5 damage with disadvantage, got %d", got)
	}

	lich := foe("Lich", EnemyMagical, 100, 10)
	lich.Special = SpecialShell
	lich.Counter = WeaponWand
	if got := r.HeroDamage(hero, WeaponSword, lich); got != 5 {
		t.Errorf("Expected shell to halve damage to 5, got %d", got)
	}
	if got := r.HeroDamage(hero, WeaponWand, lich); got != 15 {
		t.Errorf("Expected counter weapon to ignore shell for 15, got %d", got)
	}

	weak := newMockCombatant("Weak", 10, 0, 0)
	if got := r.HeroDamage(weak, WeaponSword, foe("Knight", EnemyArmored, 10, 1)); got != 1 {
		t.Errorf("Expected minimum 1 damage, got %d", got)
	}
}

func TestEnrage(t *testing.T) {
	r := NewResolver()
	hero := newMockCombatant("Hero", 30, 5, 2)
	chief := foe("Chief", EnemyArmored, 60, 7)
	chief.Special = SpecialEnrage

	if got := r.FoeDamage(chief, hero); got != 5 {
		t.Errorf("Expected 5 damage at full health, got %d", got)
	}
	chief.TakeDamage(30)
	if got := r.FoeDamage(chief, hero); got != 5 {
		t.Errorf("Expected no enrage at exactly half health, got %d", got)
	}
	chief.TakeDamage(1)
	if got := r.FoeDamage(chief, hero); got != 8 {
		t.Errorf("Expected enraged damage 8, got %d", got)
	}
}

func TestRegen(t *testing.T) {
	r := NewResolver()
	queen := foe("Queen", EnemyInsect, 120, 10)
	queen.Special = SpecialRegen
	queen.Counter = WeaponSpear

	if got := r.RegenAmount(queen, WeaponSword); got != 6 {
		t.Errorf("Expected 6 regen per round, got %d", got)
	}
	if got := r.RegenAmount(queen, WeaponSpear); got != 0 {
		t.Errorf("Expected counter weapon to stop regen, got %d", got)
	}
}

func TestRunClearsWavesInOrder(t *testing.T) {
	r := NewResolver()
	hero := newMockCombatant("Hero", 30, 5, 1)
	enc := Encounter{Waves: [][]Foe{
		{foe("Wolf 1", EnemyBeast, 8, 2)},
		{foe("Wolf 2", EnemyBeast, 8, 2), foe("Wolf 3", EnemyBeast, 8, 2)},
	}}

	out := r.Run(hero, WeaponSword, enc)

	if !out.Success {
		t.Fatalf("Expected success, got %v", out.Log)
	}
	if out.Rounds != 6 {
		t.Errorf("Expected 6 rounds, got %d", out.Rounds)
	}
	if out.HPRemaining != 25 || out.HPLost != 5 {
		t.Errorf("Expected 25 HP remaining and 5 lost, got %d and %d", out.HPRemaining, out.HPLost)
	}
	if out.WavesCleared != 2 {
		t.Errorf("Expected 2 waves cleared, got %d", out.WavesCleared)
	}
}

func TestRunDefeatIsNeverPartial(t *testing.T) {
	r := NewResolver()
	hero := newMockCombatant("Hero", 5, 1, 0)
	boss := foe("Ogre", EnemyBeast, 100, 10)
	boss.Boss = true

	out := r.Run(hero, WeaponBow, Encounter{Boss: &boss})

	if out.Success || out.BossDefeated {
		t.Fatal("Expected defeat")
	}
	if out.HPRemaining != 0 {
		t.Errorf("Expected 0 HP remaining, got %d", out.HPRemaining)
	}
}

func TestRunRoundCapIsDefeat(t *testing.T) {
	r := &Resolver{MaxRounds: 3}
	hero := newMockCombatant("Hero", 1000, 2, 0)

	out := r.Run(hero, WeaponSword, Encounter{Waves: [][]Foe{{foe("Wall", EnemyArmored, 100, 1)}}})

	if out.Success {
		t.Fatal("Expected defeat at round cap")
	}
	if out.Rounds != 3 {
		t.Errorf("Expected 3 rounds, got %d", out.Rounds)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	build := func() (Combatant, Encounter) {
		boss := foe("Queen", EnemyInsect, 50, 6)
		boss.Special = SpecialRegen
		return newMockCombatant("Hero", 80, 9, 3), Encounter{
			Waves: [][]Foe{{foe("Ant", EnemyInsect, 12, 3), foe("Ant", EnemyInsect, 12, 3)}},
			Boss:  &boss,
		}
	}

	r := NewResolver()
	h1, e1 := build()
	h2, e2 := build()
	a := r.Run(h1, WeaponSword, e1)
	b := r.Run(h2, WeaponSword, e2)

	if a.Success != b.Success || a.Rounds != b.Rounds || a.HPRemaining != b.HPRemaining {
		t.Errorf("Expected identical outcomes, got %+v and %+v", a, b)
	}
}
