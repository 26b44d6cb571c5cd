// Package validation answers whether an action is legal against a state.
//
// The decision engine and the execution path call the same CanPerform, and
// execution pays exactly the cost reported by Plan, so the two never disagree.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
)

// ErrUnsupportedAction is returned for action types the rules do not know.
var ErrUnsupportedAction = errors.New("unsupported action")

// Result is the outcome of a legality check.
type Result struct {
	CanPerform           bool           `json:"canPerform"`
	Reasons              []string       `json:"reasons,omitempty"`
	MissingPrerequisites []string       `json:"missingPrerequisites,omitempty"`
	ResourceShortfalls   map[string]int `json:"resourceShortfalls,omitempty"`
	ConcurrencyLimited   bool           `json:"concurrencyLimited,omitempty"`
	MissingTool          string         `json:"missingTool,omitempty"`
	CatalogMiss          bool           `json:"catalogMiss,omitempty"`
}

// Allowed returns a passing result.
func Allowed() Result {
	return Result{CanPerform: true}
}

// Blocked returns a failing result with one reason.
func Blocked(reason string) Result {
	return Result{Reasons: []string{reason}}
}

// Reason joins the failure reasons into one line.
func (r Result) Reason() string {
	return strings.Join(r.Reasons, "; ")
}

// Plan is everything the rules say about one action against one state:
// its catalog record, what it costs, what slot it needs and which
// conditions currently fail.
type Plan struct {
	Action        action.Action
	Def           *gamedata.ItemDef
	Prerequisites []string
	Tool          string
	ToolTier      int
	// Cost is paid when the action executes.
	Cost gamedata.Cost
	// Required must be held but is not paid up front.
	Required gamedata.Cost
	// Category is the process slot the action occupies, empty for instant actions.
	Category   state.Category
	Conditions []string
}

// Service validates actions.
type Service struct {
	limits Limits
}

// NewService creates a validation service with the given concurrency limits.
func NewService(limits Limits) *Service {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Service{limits: limits}
}

// Limits returns the concurrency limits in effect.
func (v *Service) Limits() Limits {
	return v.limits
}

// CanPerform checks, in order, prerequisites, tool, resources, the concurrency
// slot and action-specific conditions. It never mutates st.
func (v *Service) CanPerform(a action.Action, st *state.GameState) Result {
	plan, err := v.Plan(a, st)
	if err != nil {
		return Result{
			Reasons:     []string{err.Error()},
			CatalogMiss: errors.Is(err, gamedata.ErrUnknownItem),
		}
	}

	result := Result{CanPerform: true}

	for _, raw := range plan.Prerequisites {
		p, perr := gamedata.ParsePrerequisite(raw)
		if perr != nil || !st.PrerequisiteMet(p) {
			result.MissingPrerequisites = append(result.MissingPrerequisites, raw)
		}
	}
	if len(result.MissingPrerequisites) > 0 {
		result.CanPerform = false
		result.Reasons = append(result.Reasons, "missing prerequisites: "+strings.Join(result.MissingPrerequisites, ", "))
	}

	if plan.Tool != "" && !hasTool(st, plan.Tool, plan.ToolTier) {
		result.CanPerform = false
		result.MissingTool = plan.Tool
		if plan.ToolTier > 0 {
			result.Reasons = append(result.Reasons, fmt.Sprintf("requires %s tier %d", plan.Tool, plan.ToolTier))
		} else {
			result.Reasons = append(result.Reasons, "requires a "+plan.Tool)
		}
	}

	need := plan.Cost.Clone()
	for k, n := range plan.Required {
		if n > need[k] {
			need[k] = n
		}
	}
	if missing := st.Shortfalls(need); len(missing) > 0 {
		result.CanPerform = false
		result.ResourceShortfalls = missing
		parts := make([]string, 0, len(missing))
		for _, k := range gamedata.Cost(missing).Names() {
			parts = append(parts, fmt.Sprintf("%s %d", k, missing[k]))
		}
		result.Reasons = append(result.Reasons, "insufficient resources: "+strings.Join(parts, ", "))
	}

	if plan.Category != "" && !v.limits.SlotFree(plan.Category, st) {
		result.CanPerform = false
		result.ConcurrencyLimited = true
		result.Reasons = append(result.Reasons, fmt.Sprintf("concurrency limit reached for %s (%d active)",
			plan.Category, st.Processes.Occupying(plan.Category)))
	}

	if len(plan.Conditions) > 0 {
		result.CanPerform = false
		result.Reasons = append(result.Reasons, plan.Conditions...)
	}
	return result
}

// Plan resolves an action against the catalog and state. A catalog miss is
// returned as an error wrapping gamedata.ErrUnknownItem.
func (v *Service) Plan(a action.Action, st *state.GameState) (Plan, error) {
	catalog := st.Catalog()
	plan := Plan{Action: a, Cost: gamedata.Cost{}}

	lookup := func(id string, kinds ...gamedata.Kind) (*gamedata.ItemDef, error) {
		def, err := catalog.Lookup(id)
		if err != nil {
			return nil, err
		}
		for _, k := range kinds {
			if def.Kind == k {
				return def, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is a %s", gamedata.ErrUnknownItem, id, def.Kind)
	}
	fromDef := func(def *gamedata.ItemDef) {
		plan.Def = def
		plan.Prerequisites = def.Prerequisites
		plan.Cost = def.Cost.Clone()
		plan.Tool = def.RequiresTool
		plan.ToolTier = def.RequiresToolTier
		if plan.Tool != "" && plan.ToolTier == 0 {
			plan.ToolTier = 1
		}
	}
	fail := func(format string, args ...any) {
		plan.Conditions = append(plan.Conditions, fmt.Sprintf(format, args...))
	}

	switch act := a.(type) {
	case action.PlantSeed:
		def, err := lookup(act.Crop, gamedata.KindCrop)
		if err != nil {
			return plan, err
		}
		plan.Def = def
		plan.Prerequisites = def.Prerequisites
		plan.Cost = gamedata.Cost{state.SeedKey(act.Crop): 1}
		plan.Category = state.CategoryGrowth

	case action.WaterCrops:
		dry := len(DryCrops(st))
		if dry == 0 {
			fail("no crop needs water")
			break
		}
		water := st.Resource(state.Water).Current
		if water > dry {
			water = dry
		}
		if water < 1 {
			water = 1
		}
		plan.Cost = gamedata.Cost{gamedata.CostWater: water}

	case action.HarvestCrops:
		if len(ReadyCrops(st)) == 0 {
			fail("no crop is ready to harvest")
		}

	case action.PumpWater:
		if st.Resource(state.Water).Free() == 0 {
			fail("water tank is full")
		}

	case action.ClearArea:
		def, err := lookup(act.Cleanup, gamedata.KindCleanup)
		if err != nil {
			return plan, err
		}
		fromDef(def)
		if st.IsCompleted(def.ID) {
			fail("%s already cleared", def.ID)
		}

	case action.BuyUpgrade:
		def, err := lookup(act.Upgrade, gamedata.KindUpgrade)
		if err != nil {
			return plan, err
		}
		fromDef(def)
		if st.HasUpgrade(def.ID) {
			fail("%s already unlocked", def.ID)
		}

	case action.BuySeeds:
		def, err := lookup(act.Crop, gamedata.KindCrop)
		if err != nil {
			return plan, err
		}
		plan.Def = def
		plan.Prerequisites = def.Prerequisites
		if act.Quantity <= 0 {
			fail("seed quantity must be positive")
			break
		}
		plan.Cost = gamedata.Cost{gamedata.CostGold: def.SeedPrice * act.Quantity}
		if room := st.StorageCap(state.StorageSeeds, act.Crop) - st.Seeds[act.Crop]; room < act.Quantity {
			fail("%s seed storage has room for %d", act.Crop, max(room, 0))
		}

	case action.SellMaterial:
		def, err := lookup(act.Material, gamedata.KindMaterial)
		if err != nil {
			return plan, err
		}
		plan.Def = def
		if act.Quantity <= 0 {
			fail("sell quantity must be positive")
			break
		}
		plan.Cost = gamedata.Cost{def.ID: act.Quantity}
		if def.SellPrice <= 0 {
			fail("%s cannot be sold", def.ID)
		}
		if st.Resource(state.Gold).Free() == 0 {
			fail("gold is at capacity")
		}

	case action.BuyItem:
		def, err := lookup(act.Item, gamedata.KindTool, gamedata.KindWeapon, gamedata.KindArmor)
		if err != nil {
			return plan, err
		}
		fromDef(def)
		if def.CostText == "" {
			fail("%s is not sold in town", def.ID)
		}
		if st.Inventory.Owns(def.ID) {
			fail("%s already owned", def.ID)
		}

	case action.Equip:
		def, err := lookup(act.Item, gamedata.KindTool, gamedata.KindWeapon, gamedata.KindArmor)
		if err != nil {
			return plan, err
		}
		plan.Def = def
		item := st.Inventory.Get(def.ID)
		switch {
		case item == nil:
			fail("%s not owned", def.ID)
		case item.Equipped:
			fail("%s already equipped", def.ID)
		}

	case action.StartAdventure:
		def, err := lookup(act.Adventure, gamedata.KindAdventure)
		if err != nil {
			return plan, err
		}
		fromDef(def)
		plan.Category = state.CategoryCombat
		if plan.Tool == "" {
			plan.Tool, plan.ToolTier = "weapon", 0
		}
		if st.Hero.HealthFraction() < MinAdventureHealth {
			fail("hero health %d/%d below %.0f%%", st.Hero.HP, st.Hero.MaxHP, MinAdventureHealth*100)
		}

	case action.StartMining:
		plan.Prerequisites = prerequisiteIfDefined(catalog, MineEntrance)
		plan.Tool, plan.ToolTier = "pickaxe", 1
		plan.Category = state.CategoryMining
		plan.Required = gamedata.Cost{gamedata.CostEnergy: 1}
		if act.EnergyBudget <= 0 {
			fail("mining energy budget must be positive")
		}

	case action.StartCraft:
		def, err := lookup(act.Recipe, gamedata.KindRecipe)
		if err != nil {
			return plan, err
		}
		fromDef(def)
		plan.Category = state.CategoryCrafting
		if len(def.Output) == 0 {
			fail("%s has no output", def.ID)
		}

	case action.StokeForge:
		plan.Prerequisites = prerequisiteIfDefined(catalog, ForgeBuilding)
		plan.Cost = gamedata.Cost{StokeFuel: 1}
		if st.Processes.Occupying(state.CategoryCrafting) == 0 {
			fail("no active craft job to stoke for")
		}
		if st.ForgeHeat >= state.MaxForgeHeat {
			fail("forge is at full heat")
		}

	case action.HireHelper:
		def, err := lookup(act.Helper, gamedata.KindHelper)
		if err != nil {
			return plan, err
		}
		fromDef(def)
		if st.HelperLevel(def.ID) > 0 {
			fail("%s already hired", def.ID)
		}

	case action.TrainHelper:
		def, err := lookup(act.Helper, gamedata.KindHelper)
		if err != nil {
			return plan, err
		}
		plan.Def = def
		plan.Category = state.CategoryTraining
		level := st.HelperLevel(def.ID)
		if level == 0 {
			fail("%s not hired", def.ID)
			break
		}
		if level >= MaxHelperLevel {
			fail("%s is at max level %d", def.ID, MaxHelperLevel)
			break
		}
		plan.Cost = gamedata.Cost{gamedata.CostGold: TrainingCost(def.Cost.Get(gamedata.CostGold), level)}

	case action.CatchSeeds:
		def, err := lookup(SeedCatchActivity, gamedata.KindActivity)
		if err != nil {
			return plan, err
		}
		fromDef(def)
		plan.Tool, plan.ToolTier = "net", 1
		plan.Category = state.CategorySeedCatch

	default:
		return plan, fmt.Errorf("%w: %T", ErrUnsupportedAction, a)
	}

	if plan.Cost == nil {
		plan.Cost = gamedata.Cost{}
	}
	return plan, nil
}

// hasTool reports whether any owned item in slot reaches tier. Tools are
// usable whether or not they are equipped.
func hasTool(st *state.GameState, slot string, tier int) bool {
	for _, item := range st.Inventory.InSlot(slot) {
		if item.Tier >= tier {
			return true
		}
	}
	return false
}

func prerequisiteIfDefined(catalog *gamedata.Catalog, id string) []string {
	if _, ok := catalog.Get(id); ok {
		return []string{id}
	}
	return nil
}
