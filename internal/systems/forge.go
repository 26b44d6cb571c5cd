package systems

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/process"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// HeatDecayInterval is the minutes per point of forge heat lost.
const HeatDecayInterval = 2

// Forge handles crafting and keeping the forge hot.
type Forge struct {
	env *Env
}

// NewForge creates the forge system.
func NewForge(env *Env) *Forge {
	return &Forge{env: env}
}

func (f *Forge) Domain() state.Domain { return state.DomainForge }

func (f *Forge) EvaluateActions(st *state.GameState) []Candidate {
	var out []Candidate
	jobs := process.Active(st, state.CategoryCrafting)

	if len(jobs) > 0 {
		job := jobs[0].Payload.(*state.CraftPayload)
		if st.ForgeHeat < job.MinHeat && st.Materials[validation.StokeFuel] > 0 {
			out = append(out, candidate(st, action.StokeForge{}, 8, 1))
		}
		return out
	}

	needed := NeededTools(st)
	for _, def := range st.Catalog().ByKind(gamedata.KindRecipe) {
		if !available(st, def) || len(st.Shortfalls(def.Cost)) > 0 || producesOwned(st, def) {
			continue
		}
		c := candidate(st, action.StartCraft{Recipe: def.ID}, 5, outputValue(st, def))
		for _, name := range def.Output.Names() {
			if item, ok := st.Catalog().Get(name); ok {
				if tier, need := needed[item.Slot]; need && item.ToolTier >= tier {
					c.Priority = 7
					c.Resolves = []Bottleneck{BottleneckTool}
				}
			}
		}
		out = append(out, c)
	}
	return out
}

// producesOwned reports whether a recipe only makes equipment already owned.
func producesOwned(st *state.GameState, def *gamedata.ItemDef) bool {
	for _, name := range def.Output.Names() {
		if !st.Inventory.Owns(name) {
			return false
		}
	}
	return len(def.Output) > 0
}

// outputValue compares the sale value of the output with that of the inputs.
func outputValue(st *state.GameState, def *gamedata.ItemDef) float64 {
	price := func(c gamedata.Cost) int {
		total := 0
		for _, name := range c.Names() {
			if d, ok := st.Catalog().Get(name); ok {
				total += d.SellPrice * c[name]
			}
		}
		return total
	}
	in := price(def.Cost)
	if in <= 0 {
		return 1
	}
	return float64(price(def.Output)) / float64(in)
}

func (f *Forge) Execute(a action.Action, st *state.GameState) ActionResult {
	switch act := a.(type) {
	case action.StartCraft:
		return f.env.start(state.CategoryCrafting, act, st)
	case action.StokeForge:
		if _, err := f.env.pay(act, st); err != nil {
			return fail(err.Error())
		}
		st.SetForgeHeat(st.ForgeHeat + validation.StokeHeat)
		return done(fmt.Sprintf("forge heat %d", st.ForgeHeat))
	}
	return fail(fmt.Sprintf("forge cannot execute %s", a.Kind()))
}

// Tick cools the forge.
func (f *Forge) Tick(dt int, st *state.GameState) {
	if n := crossed(st.Clock.Minute, dt, HeatDecayInterval); n > 0 && st.ForgeHeat > 0 {
		st.SetForgeHeat(st.ForgeHeat - n)
	}
}
