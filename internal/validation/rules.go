package validation

import "github.com/samdwyer/farmbalance/internal/state"

// Fixed game rules shared by validation, systems and process handlers.
const (
	// MineEntrance must be unlocked before mining.
	MineEntrance = "mine_entrance"
	// ForgeBuilding must be unlocked before stoking the forge.
	ForgeBuilding = "forge_building"
	// SeedCatchActivity is the catalog record for tower seed catching.
	SeedCatchActivity = "seed_catch"

	// PumpBase is the water gained per manual pump before upgrades.
	PumpBase = 5
	// StokeHeat is the heat added per stoke.
	StokeHeat = 25
	// StokeFuel is the material burned per stoke.
	StokeFuel = "wood"

	// MinAdventureHealth is the hero health fraction required to start an adventure.
	MinAdventureHealth = 0.5
	// MaxHelperLevel caps helper training.
	MaxHelperLevel = 5
)

// Limits is the maximum number of simultaneously active processes per category.
// Growth is always bounded by the current plot count instead.
type Limits map[state.Category]int

// DefaultLimits allows one active process in every non-growth category.
func DefaultLimits() Limits {
	return Limits{
		state.CategoryCrafting:  1,
		state.CategoryMining:    1,
		state.CategoryCombat:    1,
		state.CategoryTraining:  1,
		state.CategorySeedCatch: 1,
	}
}

// Max returns the concurrency limit for a category given the current state.
func (l Limits) Max(category state.Category, st *state.GameState) int {
	if category == state.CategoryGrowth {
		return st.Progression.Plots
	}
	if n, ok := l[category]; ok && n > 0 {
		return n
	}
	return 1
}

// SlotFree reports whether a new process of the category may start.
func (l Limits) SlotFree(category state.Category, st *state.GameState) bool {
	return st.Processes.Occupying(category) < l.Max(category, st)
}

// TrainingCost returns the gold needed to train a helper from level to level+1.
func TrainingCost(hireGold, level int) int {
	cost := hireGold / 2 * level
	if cost < 1 {
		cost = 1
	}
	return cost
}

// PumpAmount returns the water gained per pump with the unlocked upgrades.
func PumpAmount(st *state.GameState) int {
	amount := PumpBase
	for _, id := range st.Progression.Upgrades.List() {
		if def, ok := st.Catalog().Get(id); ok {
			amount += def.PumpBonus
		}
	}
	return amount
}

// DryCrops returns growing crops that need water, in planting order.
func DryCrops(st *state.GameState) []*state.Process {
	var result []*state.Process
	for _, p := range st.Processes.Growth() {
		g, ok := p.Payload.(*state.GrowthPayload)
		if ok && p.Status.Active() && g.NeedsWater() {
			result = append(result, p)
		}
	}
	return result
}

// ReadyCrops returns grown crops waiting for harvest, in planting order.
func ReadyCrops(st *state.GameState) []*state.Process {
	var result []*state.Process
	for _, p := range st.Processes.Growth() {
		if g, ok := p.Payload.(*state.GrowthPayload); ok && g.Ready {
			result = append(result, p)
		}
	}
	return result
}
