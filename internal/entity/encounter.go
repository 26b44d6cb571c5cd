package entity

import (
	"github.com/samdwyer/farmbalance/internal/combat"
	"github.com/samdwyer/farmbalance/internal/gamedata"
)

// Defaults used only when an adventure record leaves a field at zero.
const (
	DefaultWaves       = 3
	DefaultBaseEnemies = 1
	DefaultEnemyHP     = 10
	DefaultEnemyAttack = 2
)

// BossStats is a fallback boss definition.
type BossStats struct {
	Name    string
	HP      int
	Attack  int
	Type    combat.EnemyType
	Special combat.Special
	Counter combat.WeaponType
}

// fallbackBosses fills in boss fields the catalog leaves empty. Catalog values
// always win over this table.
var fallbackBosses = map[string]BossStats{
	"goblin_chief": {Name: "Goblin Chief", HP: 60, Attack: 7, Type: combat.EnemyArmored, Special: combat.SpecialEnrage, Counter: combat.WeaponCrossbow},
	"spider_queen": {Name: "Spider Queen", HP: 120, Attack: 10, Type: combat.EnemyInsect, Special: combat.SpecialRegen, Counter: combat.WeaponSpear},
	"arch_lich":    {Name: "Arch Lich", HP: 220, Attack: 14, Type: combat.EnemyMagical, Special: combat.SpecialShell, Counter: combat.WeaponWand},
}

// WaveSize returns the enemy count of a one-based wave index.
func WaveSize(baseEnemies, wave int) int {
	return baseEnemies + (wave - 1)
}

// BuildEncounter creates the waves and boss of an adventure. Missing catalog
// fields fall back to defaults; the returned notes name each fallback used.
func BuildEncounter(adv *gamedata.ItemDef, catalog *gamedata.Catalog) (combat.Encounter, []string) {
	var notes []string
	waves := adv.Waves
	if waves <= 0 {
		waves = DefaultWaves
		notes = append(notes, adv.ID+": default wave count")
	}
	base := adv.BaseEnemies
	if base <= 0 {
		base = DefaultBaseEnemies
		notes = append(notes, adv.ID+": default base enemies")
	}

	enc := combat.Encounter{Waves: make([][]combat.Foe, 0, waves)}
	for w := 1; w <= waves; w++ {
		size := WaveSize(base, w)
		foes := make([]combat.Foe, 0, size)
		for n := 1; n <= size; n++ {
			e := NewWaveEnemy(adv, w, n)
			foes = append(foes, combat.Foe{Combatant: e, Type: e.Type})
		}
		enc.Waves = append(enc.Waves, foes)
	}

	if adv.HasBoss() {
		boss, bossNotes := buildBoss(adv.Boss, catalog)
		notes = append(notes, bossNotes...)
		enc.Boss = boss
	}
	return enc, notes
}

func buildBoss(id string, catalog *gamedata.Catalog) (*combat.Foe, []string) {
	var notes []string
	stats := fallbackBosses[id]
	def, ok := catalog.Get(id)
	if !ok || def.Kind != gamedata.KindBoss {
		notes = append(notes, id+": boss not in catalog, fallback stats used")
		def = &gamedata.ItemDef{ID: id}
	}

	name := def.Name
	if name == "" {
		name = stats.Name
	}
	if name == "" {
		name = id
	}
	hp := def.HP
	if hp <= 0 {
		hp = stats.HP
		notes = append(notes, id+": fallback hp")
	}
	if hp <= 0 {
		hp = DefaultEnemyHP * 5
	}
	attack := def.Attack
	if attack <= 0 {
		attack = stats.Attack
		notes = append(notes, id+": fallback attack")
	}
	if attack <= 0 {
		attack = DefaultEnemyAttack * 3
	}
	enemyType := combat.EnemyType(def.EnemyType)
	if enemyType == "" {
		enemyType = stats.Type
	}
	special := combat.Special(def.Special)
	if special == combat.SpecialNone {
		special = stats.Special
	}
	counter := combat.WeaponType(def.CounterWeapon)
	if counter == "" {
		counter = stats.Counter
	}

	return &combat.Foe{
		Combatant: NewEnemy(id, name, enemyType, hp, attack),
		Type:      enemyType,
		Special:   special,
		Counter:   counter,
		Boss:      true,
	}, notes
}
