// Package action defines the closed set of actions a player or helper can take.
//
// Each action type carries only the fields its handler needs. Validation and
// execution dispatch with a type switch over these types; there is no
// string-keyed action payload anywhere in the simulator.
package action

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/state"
)

// Kind names an action type.
type Kind string

const (
	KindPlantSeed      Kind = "plant_seed"
	KindWaterCrops     Kind = "water_crops"
	KindHarvestCrops   Kind = "harvest_crops"
	KindPumpWater      Kind = "pump_water"
	KindClearArea      Kind = "clear_area"
	KindBuyUpgrade     Kind = "buy_upgrade"
	KindBuySeeds       Kind = "buy_seeds"
	KindSellMaterial   Kind = "sell_material"
	KindBuyItem        Kind = "buy_item"
	KindEquip          Kind = "equip"
	KindStartAdventure Kind = "start_adventure"
	KindStartMining    Kind = "start_mining"
	KindStartCraft     Kind = "start_craft"
	KindStokeForge     Kind = "stoke_forge"
	KindHireHelper     Kind = "hire_helper"
	KindTrainHelper    Kind = "train_helper"
	KindCatchSeeds     Kind = "catch_seeds"
)

// Action is implemented only by the types in this package.
type Action interface {
	Kind() Kind
	Domain() state.Domain
	// Key identifies the action and its arguments, e.g. "plant_seed:carrot".
	Key() string
	// Target is the catalog id the action refers to, empty when it has none.
	Target() string
	Describe() string
	sealed()
}

// PlantSeed plants one seed of Crop on a free plot.
type PlantSeed struct{ Crop string }

// WaterCrops waters every dry crop, one water each.
type WaterCrops struct{}

// HarvestCrops harvests every ready crop.
type HarvestCrops struct{}

// PumpWater refills the water tank by hand.
type PumpWater struct{}

// ClearArea performs a one-shot cleanup that adds plots.
type ClearArea struct{ Cleanup string }

// BuyUpgrade purchases a town upgrade.
type BuyUpgrade struct{ Upgrade string }

// BuySeeds purchases Quantity seeds of Crop.
type BuySeeds struct {
	Crop     string
	Quantity int
}

// SellMaterial sells Quantity units of Material.
type SellMaterial struct {
	Material string
	Quantity int
}

// BuyItem purchases a tool, weapon or armor.
type BuyItem struct{ Item string }

// Equip equips an owned item.
type Equip struct{ Item string }

// StartAdventure starts a combat run.
type StartAdventure struct{ Adventure string }

// StartMining starts a mining session that stops after EnergyBudget energy.
type StartMining struct{ EnergyBudget int }

// StartCraft starts a forge recipe.
type StartCraft struct{ Recipe string }

// StokeForge adds heat to the forge for one wood.
type StokeForge struct{}

// HireHelper hires a helper.
type HireHelper struct{ Helper string }

// TrainHelper trains a hired helper to the next level.
type TrainHelper struct{ Helper string }

// CatchSeeds starts a seed-catching session at the tower.
type CatchSeeds struct{}

func (PlantSeed) Kind() Kind      { return KindPlantSeed }
func (WaterCrops) Kind() Kind     { return KindWaterCrops }
func (HarvestCrops) Kind() Kind   { return KindHarvestCrops }
func (PumpWater) Kind() Kind      { return KindPumpWater }
func (ClearArea) Kind() Kind      { return KindClearArea }
func (BuyUpgrade) Kind() Kind     { return KindBuyUpgrade }
func (BuySeeds) Kind() Kind       { return KindBuySeeds }
func (SellMaterial) Kind() Kind   { return KindSellMaterial }
func (BuyItem) Kind() Kind        { return KindBuyItem }
func (Equip) Kind() Kind          { return KindEquip }
func (StartAdventure) Kind() Kind { return KindStartAdventure }
func (StartMining) Kind() Kind    { return KindStartMining }
func (StartCraft) Kind() Kind     { return KindStartCraft }
func (StokeForge) Kind() Kind     { return KindStokeForge }
func (HireHelper) Kind() Kind     { return KindHireHelper }
func (TrainHelper) Kind() Kind    { return KindTrainHelper }
func (CatchSeeds) Kind() Kind     { return KindCatchSeeds }

func (PlantSeed) Domain() state.Domain      { return state.DomainFarm }
func (WaterCrops) Domain() state.Domain     { return state.DomainFarm }
func (HarvestCrops) Domain() state.Domain   { return state.DomainFarm }
func (PumpWater) Domain() state.Domain      { return state.DomainFarm }
func (ClearArea) Domain() state.Domain      { return state.DomainFarm }
func (BuyUpgrade) Domain() state.Domain     { return state.DomainTown }
func (BuySeeds) Domain() state.Domain       { return state.DomainTown }
func (SellMaterial) Domain() state.Domain   { return state.DomainTown }
func (BuyItem) Domain() state.Domain        { return state.DomainTown }
func (Equip) Domain() state.Domain          { return state.DomainAdventure }
func (StartAdventure) Domain() state.Domain { return state.DomainAdventure }
func (StartMining) Domain() state.Domain    { return state.DomainMine }
func (StartCraft) Domain() state.Domain     { return state.DomainForge }
func (StokeForge) Domain() state.Domain     { return state.DomainForge }
func (HireHelper) Domain() state.Domain     { return state.DomainHelpers }
func (TrainHelper) Domain() state.Domain    { return state.DomainHelpers }
func (CatchSeeds) Domain() state.Domain     { return state.DomainTower }

func (a PlantSeed) Target() string      { return a.Crop }
func (WaterCrops) Target() string       { return "" }
func (HarvestCrops) Target() string     { return "" }
func (PumpWater) Target() string        { return "" }
func (a ClearArea) Target() string      { return a.Cleanup }
func (a BuyUpgrade) Target() string     { return a.Upgrade }
func (a BuySeeds) Target() string       { return a.Crop }
func (a SellMaterial) Target() string   { return a.Material }
func (a BuyItem) Target() string        { return a.Item }
func (a Equip) Target() string          { return a.Item }
func (a StartAdventure) Target() string { return a.Adventure }
func (StartMining) Target() string      { return "" }
func (a StartCraft) Target() string     { return a.Recipe }
func (StokeForge) Target() string       { return "" }
func (a HireHelper) Target() string     { return a.Helper }
func (a TrainHelper) Target() string    { return a.Helper }
func (CatchSeeds) Target() string       { return "" }

func (a PlantSeed) Key() string      { return key(a) }
func (a WaterCrops) Key() string     { return key(a) }
func (a HarvestCrops) Key() string   { return key(a) }
func (a PumpWater) Key() string      { return key(a) }
func (a ClearArea) Key() string      { return key(a) }
func (a BuyUpgrade) Key() string     { return key(a) }
func (a BuySeeds) Key() string       { return fmt.Sprintf("%s:%s:%d", a.Kind(), a.Crop, a.Quantity) }
func (a SellMaterial) Key() string   { return fmt.Sprintf("%s:%s:%d", a.Kind(), a.Material, a.Quantity) }
func (a BuyItem) Key() string        { return key(a) }
func (a Equip) Key() string          { return key(a) }
func (a StartAdventure) Key() string { return key(a) }
func (a StartMining) Key() string    { return fmt.Sprintf("%s:%d", a.Kind(), a.EnergyBudget) }
func (a StartCraft) Key() string     { return key(a) }
func (a StokeForge) Key() string     { return key(a) }
func (a HireHelper) Key() string     { return key(a) }
func (a TrainHelper) Key() string    { return key(a) }
func (a CatchSeeds) Key() string     { return key(a) }

func key(a Action) string {
	if t := a.Target(); t != "" {
		return string(a.Kind()) + ":" + t
	}
	return string(a.Kind())
}

func (a PlantSeed) Describe() string      { return "plant " + a.Crop }
func (WaterCrops) Describe() string       { return "water crops" }
func (HarvestCrops) Describe() string     { return "harvest crops" }
func (PumpWater) Describe() string        { return "pump water" }
func (a ClearArea) Describe() string      { return "clear " + a.Cleanup }
func (a BuyUpgrade) Describe() string     { return "buy upgrade " + a.Upgrade }
func (a BuySeeds) Describe() string       { return fmt.Sprintf("buy %d %s seeds", a.Quantity, a.Crop) }
func (a SellMaterial) Describe() string   { return fmt.Sprintf("sell %d %s", a.Quantity, a.Material) }
func (a BuyItem) Describe() string        { return "buy " + a.Item }
func (a Equip) Describe() string          { return "equip " + a.Item }
func (a StartAdventure) Describe() string { return "start adventure " + a.Adventure }
func (a StartMining) Describe() string {
	return fmt.Sprintf("start mining (budget %d energy)", a.EnergyBudget)
}
func (a StartCraft) Describe() string  { return "craft " + a.Recipe }
func (StokeForge) Describe() string    { return "stoke forge" }
func (a HireHelper) Describe() string  { return "hire " + a.Helper }
func (a TrainHelper) Describe() string { return "train " + a.Helper }
func (CatchSeeds) Describe() string    { return "catch seeds" }

func (PlantSeed) sealed()      {}
func (WaterCrops) sealed()     {}
func (HarvestCrops) sealed()   {}
func (PumpWater) sealed()      {}
func (ClearArea) sealed()      {}
func (BuyUpgrade) sealed()     {}
func (BuySeeds) sealed()       {}
func (SellMaterial) sealed()   {}
func (BuyItem) sealed()        {}
func (Equip) sealed()          {}
func (StartAdventure) sealed() {}
func (StartMining) sealed()    {}
func (StartCraft) sealed()     {}
func (StokeForge) sealed()     {}
func (HireHelper) sealed()     {}
func (TrainHelper) sealed()    {}
func (CatchSeeds) sealed()     {}

// Ensure every action type implements Action.
var (
	_ Action = PlantSeed{}
	_ Action = WaterCrops{}
	_ Action = HarvestCrops{}
	_ Action = PumpWater{}
	_ Action = ClearArea{}
	_ Action = BuyUpgrade{}
	_ Action = BuySeeds{}
	_ Action = SellMaterial{}
	_ Action = BuyItem{}
	_ Action = Equip{}
	_ Action = StartAdventure{}
	_ Action = StartMining{}
	_ Action = StartCraft{}
	_ Action = StokeForge{}
	_ Action = HireHelper{}
	_ Action = TrainHelper{}
	_ Action = CatchSeeds{}
)
