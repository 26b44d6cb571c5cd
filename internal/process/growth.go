package process

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// Growth grows planted crops. A crop only grows while it has moisture;
// one watering lasts ceil(duration / waterNeeded) minutes.
type Growth struct {
	rules *validation.Service
}

func (g *Growth) Category() state.Category { return state.CategoryGrowth }

func (g *Growth) CanStart(data action.Action, st *state.GameState) validation.Result {
	_, ok := data.(action.PlantSeed)
	return base{g.rules}.check(data, ok, st)
}

func (g *Growth) Initialize(handle string, data action.Action, st *state.GameState) (InitResult, error) {
	def, _, err := base{g.rules}.reserve(data, st)
	if err != nil {
		return InitResult{}, err
	}
	return InitResult{Payload: &state.GrowthPayload{
		Crop:             def.ID,
		Duration:         def.Duration,
		MoisturePerWater: MoisturePerWater(def),
	}}, nil
}

// MoisturePerWater returns the growing minutes one watering buys.
func MoisturePerWater(def *gamedata.ItemDef) int {
	need := max(def.WaterNeeded, 1)
	return max((def.Duration+need-1)/need, 1)
}

// Water gives a dry crop one watering.
func Water(p *state.Process) bool {
	g, ok := p.Payload.(*state.GrowthPayload)
	if !ok || !g.NeedsWater() {
		return false
	}
	g.Moisture += g.MoisturePerWater
	g.Waterings++
	return true
}

func (g *Growth) Update(p *state.Process, dt int, st *state.GameState, _ *gamedata.Catalog) UpdateResult {
	crop := p.Payload.(*state.GrowthPayload)
	for i := 0; i < dt && crop.Progress < crop.Duration && crop.Moisture > 0; i++ {
		crop.Moisture--
		crop.Progress++
	}
	return UpdateResult{Complete: crop.Progress >= crop.Duration}
}

func (g *Growth) Complete(p *state.Process, st *state.GameState) CompletionEffects {
	crop := p.Payload.(*state.GrowthPayload)
	crop.Ready = true
	crop.Moisture = 0
	return CompletionEffects{
		Keep: true,
		Events: []Note{{
			Type:       state.EventCropReady,
			Importance: state.ImportanceInfo,
			Text:       fmt.Sprintf("%s ready to harvest (%s)", crop.Crop, p.Handle),
		}},
	}
}

// Cancel discards the crop. The planted seed is not returned.
func (g *Growth) Cancel(p *state.Process, st *state.GameState) {}
