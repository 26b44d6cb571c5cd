package combat

// WeaponType is a weapon family.
type WeaponType string

const (
	WeaponCrossbow WeaponType = "crossbow"
	WeaponSword    WeaponType = "sword"
	WeaponBow      WeaponType = "bow"
	WeaponSpear    WeaponType = "spear"
	WeaponWand     WeaponType = "wand"
)

// EnemyType is an enemy family.
type EnemyType string

const (
	EnemyArmored EnemyType = "armored"
	EnemyBeast   EnemyType = "beast"
	EnemyFlying  EnemyType = "flying"
	EnemyInsect  EnemyType = "insect"
	EnemyMagical EnemyType = "magical"
)

// Advantage multipliers.
const (
	StrongMultiplier  = 1.5
	WeakMultiplier    = 0.5
	NeutralMultiplier = 1.0
)

// The pentagon: every weapon beats one enemy type and struggles against another.
var (
	strongAgainst = map[WeaponType]EnemyType{
		WeaponCrossbow: EnemyArmored,
		WeaponSword:    EnemyBeast,
		WeaponBow:      EnemyFlying,
		WeaponSpear:    EnemyInsect,
		WeaponWand:     EnemyMagical,
	}
	weakAgainst = map[WeaponType]EnemyType{
		WeaponCrossbow: EnemyMagical,
		WeaponSword:    EnemyArmored,
		WeaponBow:      EnemyBeast,
		WeaponSpear:    EnemyFlying,
		WeaponWand:     EnemyInsect,
	}
)

// Advantage returns the damage multiplier for a weapon against an enemy type.
// Unknown weapons or enemies are neutral.
func Advantage(weapon WeaponType, enemy EnemyType) float64 {
	if e, ok := strongAgainst[weapon]; ok && e == enemy {
		return StrongMultiplier
	}
	if e, ok := weakAgainst[weapon]; ok && e == enemy {
		return WeakMultiplier
	}
	return NeutralMultiplier
}
