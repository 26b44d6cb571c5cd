// Package gamedata loads the item catalog that drives the simulator.
package gamedata

// =============================================================================
// CATALOG FORMAT
// =============================================================================
//
// Every action or item the simulator knows about is one record in items.json.
// Records share a single flat shape; each kind only fills the fields it uses.
//
// Kinds:
// ------
//   - crop:      plantable; duration is growth time, energyValue is granted on harvest
//   - cleanup:   one-shot farm expansion; plotsAdded plots on completion
//   - upgrade:   town purchase; may raise a capacity, a storage cap, or unlock a building
//   - tool:      owned equipment with a slot and toolTier (axe, pickaxe, net)
//   - weapon:    equipment with weaponType and attack
//   - armor:     equipment with defense
//   - recipe:    forge job; cost is consumed at start, output is granted on completion
//   - material:  keyed resource; mineable materials appear at minDepth and below
//   - adventure: combat run; waves of enemyType enemies, optional boss
//   - boss:      boss stats and special modifier for adventures
//   - helper:    hireable automation with a role; duration is the training time
//   - activity:  repeatable timed activity such as seed catching
//
// Text fields parsed once at load time:
// -------------------------------------
//   cost:     "Gold x50;Copper Ore x2"  -> Cost{"gold": 50, "copper_ore": 2}
//   duration: "6 min" / "2 hours"       -> minutes
//   output:   same grammar as cost
//   loot:     same grammar as cost
//
// Prerequisites:
// --------------
//   Plain ids resolve against unlocked upgrades, completed one-shots and owned
//   items. Thresholds use "key:N" with keys hero_level, plots, max_depth,
//   tower_level and day. Prerequisite graphs must be acyclic; cycles are load errors.

// Kind identifies what a catalog record describes.
type Kind string

const (
	KindCrop      Kind = "crop"
	KindCleanup   Kind = "cleanup"
	KindUpgrade   Kind = "upgrade"
	KindTool      Kind = "tool"
	KindWeapon    Kind = "weapon"
	KindArmor     Kind = "armor"
	KindRecipe    Kind = "recipe"
	KindMaterial  Kind = "material"
	KindAdventure Kind = "adventure"
	KindBoss      Kind = "boss"
	KindHelper    Kind = "helper"
	KindActivity  Kind = "activity"
)

// IsEquipment reports whether records of this kind live in the inventory.
func (k Kind) IsEquipment() bool {
	return k == KindTool || k == KindWeapon || k == KindArmor
}

// ItemDef defines one catalog record loaded from JSON.
type ItemDef struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Kind          Kind     `json:"kind"`
	Prerequisites []string `json:"prerequisites,omitempty"`
	CostText      string   `json:"cost,omitempty"`
	DurationText  string   `json:"duration,omitempty"`
	Tier          int      `json:"tier,omitempty"`

	// Crops
	EnergyValue int `json:"energyValue,omitempty"`
	SeedPrice   int `json:"seedPrice,omitempty"`
	WaterNeeded int `json:"waterNeeded,omitempty"`

	// Cleanups
	PlotsAdded       int    `json:"plotsAdded,omitempty"`
	RequiresTool     string `json:"requiresTool,omitempty"`
	RequiresToolTier int    `json:"requiresToolTier,omitempty"`

	// Equipment
	Slot       string `json:"slot,omitempty"`
	ToolTier   int    `json:"toolTier,omitempty"`
	WeaponType string `json:"weaponType,omitempty"`
	Attack     int    `json:"attack,omitempty"`
	Defense    int    `json:"defense,omitempty"`
	HP         int    `json:"hp,omitempty"`

	// Upgrades
	CapacityKind string `json:"capacityKind,omitempty"`
	Capacity     int    `json:"capacity,omitempty"`
	StorageKind  string `json:"storageKind,omitempty"`
	StorageCap   int    `json:"storageCap,omitempty"`
	RegenPerHour int    `json:"regenPerHour,omitempty"`
	PumpBonus    int    `json:"pumpBonus,omitempty"`
	TowerLevel   int    `json:"towerLevel,omitempty"`

	// Recipes
	OutputText string `json:"output,omitempty"`
	MinHeat    int    `json:"minHeat,omitempty"`

	// Materials
	SellPrice int  `json:"sellPrice,omitempty"`
	Mineable  bool `json:"mineable,omitempty"`
	MinDepth  int  `json:"minDepth,omitempty"`

	// Adventures and bosses
	EnemyType     string  `json:"enemyType,omitempty"`
	EnemyHP       int     `json:"enemyHP,omitempty"`
	EnemyAttack   int     `json:"enemyAttack,omitempty"`
	Waves         int     `json:"waves,omitempty"`
	BaseEnemies   int     `json:"baseEnemies,omitempty"`
	Boss          string  `json:"boss,omitempty"`
	GoldReward    int     `json:"goldReward,omitempty"`
	ExpReward     int     `json:"expReward,omitempty"`
	LootText      string  `json:"loot,omitempty"`
	LootChance    float64 `json:"lootChance,omitempty"`
	Special       string  `json:"special,omitempty"`
	CounterWeapon string  `json:"counterWeapon,omitempty"`

	// Helpers
	Role string `json:"role,omitempty"`

	// Parsed at load time.
	Cost     Cost `json:"-"`
	Duration int  `json:"-"` // minutes
	Output   Cost `json:"-"`
	Loot     Cost `json:"-"`
}

// IsOneShot reports whether completing the record is recorded permanently.
func (d *ItemDef) IsOneShot() bool {
	return d.Kind == KindCleanup || d.Kind == KindUpgrade
}

// HasBoss reports whether an adventure ends with a boss phase.
func (d *ItemDef) HasBoss() bool {
	return d.Kind == KindAdventure && d.Boss != ""
}

// CatalogFile represents the structure of items.json.
type CatalogFile struct {
	Items []ItemDef `json:"items"`
}
