package systems

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/process"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// Farm handles planting, watering, harvesting, pumping and clearing land.
type Farm struct {
	env *Env
}

// NewFarm creates the farm system.
func NewFarm(env *Env) *Farm {
	return &Farm{env: env}
}

func (f *Farm) Domain() state.Domain { return state.DomainFarm }

func (f *Farm) EvaluateActions(st *state.GameState) []Candidate {
	var out []Candidate
	water := st.Resource(state.Water)
	dry := len(validation.DryCrops(st))

	if ready := validation.ReadyCrops(st); len(ready) > 0 {
		out = append(out, candidate(st, action.HarvestCrops{}, 9, float64(len(ready))/float64(max(st.Progression.Plots, 1))))
	}
	if dry > 0 && water.Current > 0 {
		out = append(out, candidate(st, action.WaterCrops{}, 8, float64(min(dry, water.Current))/float64(dry)))
	}
	if water.Free() > 0 {
		short := water.Current < dry || water.Current*4 < water.Capacity
		priority := 2.0
		if short {
			priority = 6
		}
		c := candidate(st, action.PumpWater{}, priority, float64(validation.PumpAmount(st))/float64(max(water.Free(), 1)))
		if short {
			c.Resolves = []Bottleneck{BottleneckWater}
		}
		out = append(out, c)
	}

	if st.FreePlots() > 0 {
		for _, def := range st.Catalog().ByKind(gamedata.KindCrop) {
			if st.Seeds[def.ID] > 0 {
				out = append(out, candidate(st, action.PlantSeed{Crop: def.ID}, 7, cropEfficiency(def)))
			}
		}
	}

	if def := nextCleanup(st); def != nil {
		energy := max(def.Cost.Get(gamedata.CostEnergy), 1)
		out = append(out, candidate(st, action.ClearArea{Cleanup: def.ID}, 5,
			float64(def.PlotsAdded)*10/float64(energy), BottleneckPlots))
	}
	return out
}

// cropEfficiency rates energy per hour of growth against ten per hour.
func cropEfficiency(def *gamedata.ItemDef) float64 {
	if def.Duration <= 0 {
		return 1
	}
	return float64(def.EnergyValue) * 60 / float64(def.Duration) / 10
}

// nextCleanup returns the first cleanup in catalog order not yet done.
func nextCleanup(st *state.GameState) *gamedata.ItemDef {
	for _, def := range st.Catalog().ByKind(gamedata.KindCleanup) {
		if !st.IsCompleted(def.ID) {
			return def
		}
	}
	return nil
}

func (f *Farm) Execute(a action.Action, st *state.GameState) ActionResult {
	switch act := a.(type) {
	case action.PlantSeed:
		return f.env.start(state.CategoryGrowth, act, st)

	case action.WaterCrops:
		plan, err := f.env.pay(act, st)
		if err != nil {
			return fail(err.Error())
		}
		water := plan.Cost.Get(gamedata.CostWater)
		watered := 0
		for _, p := range validation.DryCrops(st) {
			if watered == water {
				break
			}
			if process.Water(p) {
				watered++
			}
		}
		return done(fmt.Sprintf("watered %d crops", watered))

	case action.HarvestCrops:
		return f.harvest(st)

	case action.PumpWater:
		amount := validation.PumpAmount(st)
		gained := amount - st.Add(state.Water, amount)
		return done(fmt.Sprintf("pumped %d water", gained))

	case action.ClearArea:
		plan, err := f.env.pay(act, st)
		if err != nil {
			return fail(err.Error())
		}
		st.CompleteOneShot(plan.Def.ID)
		if err := st.AddPlots(plan.Def.PlotsAdded); err != nil {
			return fail(err.Error())
		}
		return done(fmt.Sprintf("cleared %s for %d plots", plan.Def.ID, plan.Def.PlotsAdded))
	}
	return fail(fmt.Sprintf("farm cannot execute %s", a.Kind()))
}

// harvest collects every ready crop, freeing its plot.
func (f *Farm) harvest(st *state.GameState) ActionResult {
	energy, crops := 0, 0
	for _, p := range validation.ReadyCrops(st) {
		crop := p.Payload.(*state.GrowthPayload)
		def, ok := st.Catalog().Get(crop.Crop)
		if !ok {
			st.Emit(state.EventCatalogMiss, state.ImportanceWarning, state.DomainFarm, "harvest of unknown crop %s dropped", crop.Crop)
			st.Processes.Remove(p.Handle)
			continue
		}
		st.Processes.Remove(p.Handle)
		energy += def.EnergyValue - st.Add(state.Energy, def.EnergyValue)
		crops++
	}
	st.Emit(state.EventHarvest, state.ImportanceInfo, state.DomainFarm, "harvested %d crops for %d energy", crops, energy)
	return done(fmt.Sprintf("harvested %d crops", crops))
}

// Tick refills water from wells.
func (f *Farm) Tick(dt int, st *state.GameState) {
	n := min(perHour(regenRate(st, gamedata.CostWater), st.Clock.Minute, dt), st.Resource(state.Water).Free())
	if n > 0 {
		st.Add(state.Water, n)
	}
}
