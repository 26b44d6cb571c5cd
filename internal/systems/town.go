package systems

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// Town trading constants.
const (
	// KeepReserve is how many units of each material the town never sells.
	KeepReserve = 10
	// SeedBatch is the largest seed purchase proposed at once.
	SeedBatch = 5
)

// Town handles purchases and sales.
type Town struct {
	env *Env
}

// NewTown creates the town system.
func NewTown(env *Env) *Town {
	return &Town{env: env}
}

func (t *Town) Domain() state.Domain { return state.DomainTown }

func (t *Town) EvaluateActions(st *state.GameState) []Candidate {
	var out []Candidate
	catalog := st.Catalog()
	gold := st.Resource(state.Gold).Current

	for _, def := range catalog.ByKind(gamedata.KindUpgrade) {
		if st.HasUpgrade(def.ID) || !available(st, def) {
			continue
		}
		c := candidate(st, action.BuyUpgrade{Upgrade: def.ID}, 5, affordability(def.Cost, gold))
		switch {
		case def.CapacityKind == gamedata.CostWater || def.PumpBonus > 0:
			c.Resolves = []Bottleneck{BottleneckWater}
		case def.StorageKind == state.StorageSeeds || def.TowerLevel > 0:
			c.Resolves = []Bottleneck{BottleneckSeeds}
		}
		out = append(out, c)
	}

	short := SeedShortage(st)
	spend := gold
	if !short {
		spend = max(gold-ToolReserve(st), 0)
	}
	want := st.Progression.Plots - TotalSeeds(st)
	for _, def := range catalog.ByKind(gamedata.KindCrop) {
		if def.SeedPrice <= 0 || !available(st, def) {
			continue
		}
		room := st.StorageCap(state.StorageSeeds, def.ID) - st.Seeds[def.ID]
		qty := min(room, spend/def.SeedPrice, SeedBatch, want)
		if qty <= 0 {
			continue
		}
		c := candidate(st, action.BuySeeds{Crop: def.ID, Quantity: qty}, 3, cropEfficiency(def))
		if short {
			c.Priority = 7
			c.Resolves = []Bottleneck{BottleneckSeeds}
		}
		out = append(out, c)
	}

	for _, name := range sortedMaterials(st) {
		def, ok := catalog.Get(name)
		if !ok || def.SellPrice <= 0 {
			continue
		}
		if qty := st.Materials[name] - KeepReserve; qty > 0 {
			out = append(out, candidate(st, action.SellMaterial{Material: name, Quantity: qty}, 2, float64(def.SellPrice)/30))
		}
	}

	needed := NeededTools(st)
	for _, def := range forSale(st) {
		c := candidate(st, action.BuyItem{Item: def.ID}, 4, affordability(def.Cost, gold))
		if meetsNeed(def, needed) {
			c.Priority = 6
			c.Resolves = []Bottleneck{BottleneckTool}
		}
		if def.Kind == gamedata.KindWeapon && st.Inventory.Equipped("weapon") == nil {
			c.Priority = 6
		}
		out = append(out, c)
	}
	return out
}

// forSale lists the equipment the town sells that is not yet owned.
func forSale(st *state.GameState) []*gamedata.ItemDef {
	var out []*gamedata.ItemDef
	for _, kind := range []gamedata.Kind{gamedata.KindTool, gamedata.KindWeapon, gamedata.KindArmor} {
		for _, def := range st.Catalog().ByKind(kind) {
			if def.CostText == "" || st.Inventory.Owns(def.ID) || !available(st, def) {
				continue
			}
			out = append(out, def)
		}
	}
	return out
}

func meetsNeed(def *gamedata.ItemDef, needed map[string]int) bool {
	tier, ok := needed[def.Slot]
	return ok && def.ToolTier >= tier
}

// ToolReserve is the gold held back from seed purchases: the price of the
// cheapest item on sale that covers a needed tool, or 0 when nothing is needed.
func ToolReserve(st *state.GameState) int {
	needed := NeededTools(st)
	if len(needed) == 0 {
		return 0
	}
	reserve := 0
	for _, def := range forSale(st) {
		if !meetsNeed(def, needed) {
			continue
		}
		if price := def.Cost.Get(gamedata.CostGold); reserve == 0 || price < reserve {
			reserve = price
		}
	}
	return reserve
}

// NeededTools maps tool slots to the tier the next cleanup, the mine or the
// next adventure needs but the inventory lacks. Any weapon will do.
func NeededTools(st *state.GameState) map[string]int {
	needed := make(map[string]int)
	if def := nextCleanup(st); def != nil && def.RequiresTool != "" {
		tier := max(def.RequiresToolTier, 1)
		if st.Inventory.BestTier(def.RequiresTool) < tier {
			needed[def.RequiresTool] = tier
		}
	}
	if st.HasUpgrade(validation.MineEntrance) && st.Inventory.BestTier("pickaxe") < 1 {
		needed["pickaxe"] = 1
	}
	if len(st.Inventory.InSlot("weapon")) == 0 {
		if adv := nextAdventure(st); adv != nil && !st.IsCompleted(adv.ID) && available(st, adv) {
			needed["weapon"] = 0
		}
	}
	return needed
}

// affordability is the share of a cost's gold already held.
func affordability(cost gamedata.Cost, gold int) float64 {
	price := cost.Get(gamedata.CostGold)
	if price <= 0 {
		return 1
	}
	return float64(gold) / float64(price)
}

func sortedMaterials(st *state.GameState) []string {
	return gamedata.Cost(st.Materials).Names()
}

func (t *Town) Execute(a action.Action, st *state.GameState) ActionResult {
	switch act := a.(type) {
	case action.BuyUpgrade:
		plan, err := t.env.pay(act, st)
		if err != nil {
			return fail(err.Error())
		}
		st.UnlockUpgrade(plan.Def.ID)
		return done("bought " + plan.Def.ID)

	case action.BuySeeds:
		if _, err := t.env.pay(act, st); err != nil {
			return fail(err.Error())
		}
		n := act.Quantity - st.AddSeeds(act.Crop, act.Quantity)
		return done(fmt.Sprintf("bought %d %s seeds", n, act.Crop))

	case action.SellMaterial:
		plan, err := t.env.pay(act, st)
		if err != nil {
			return fail(err.Error())
		}
		price := plan.Def.SellPrice * act.Quantity
		earned := price - st.Add(state.Gold, price)
		return done(fmt.Sprintf("sold %d %s for %d gold", act.Quantity, act.Material, earned))

	case action.BuyItem:
		plan, err := t.env.pay(act, st)
		if err != nil {
			return fail(err.Error())
		}
		item := st.AcquireItem(plan.Def)
		return done(fmt.Sprintf("bought %s (%s)", item.ID, item.Slot))
	}
	return fail(fmt.Sprintf("town cannot execute %s", a.Kind()))
}

// Tick applies passive energy regeneration.
func (t *Town) Tick(dt int, st *state.GameState) {
	n := min(perHour(regenRate(st, gamedata.CostEnergy), st.Clock.Minute, dt), st.Resource(state.Energy).Free())
	if n > 0 {
		st.Add(state.Energy, n)
	}
}
