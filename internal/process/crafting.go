package process

import (
	"fmt"
	"strings"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// ColdForgeRate is the crafting speed while the forge is below a recipe's minimum heat.
const ColdForgeRate = 0.5

// Crafting runs forge jobs. Inputs are consumed at start and refunded on cancel.
type Crafting struct {
	rules *validation.Service
}

func (c *Crafting) Category() state.Category { return state.CategoryCrafting }

func (c *Crafting) CanStart(data action.Action, st *state.GameState) validation.Result {
	_, ok := data.(action.StartCraft)
	return base{c.rules}.check(data, ok, st)
}

func (c *Crafting) Initialize(handle string, data action.Action, st *state.GameState) (InitResult, error) {
	def, paid, err := base{c.rules}.reserve(data, st)
	if err != nil {
		return InitResult{}, err
	}
	return InitResult{Payload: &state.CraftPayload{
		Recipe:   def.ID,
		Duration: def.Duration,
		MinHeat:  def.MinHeat,
		Heat:     st.ForgeHeat,
		Reserved: paid,
		Output:   def.Output.Clone(),
	}}, nil
}

// CraftRate returns progress per minute at the given heat.
func CraftRate(heat, minHeat int) float64 {
	if heat >= minHeat {
		return 1
	}
	return ColdForgeRate
}

func (c *Crafting) Update(p *state.Process, dt int, st *state.GameState, _ *gamedata.Catalog) UpdateResult {
	job := p.Payload.(*state.CraftPayload)
	job.Heat = st.ForgeHeat
	job.Progress += CraftRate(job.Heat, job.MinHeat) * float64(dt)
	if job.Progress > float64(job.Duration) {
		job.Progress = float64(job.Duration)
	}
	return UpdateResult{Complete: job.Progress >= float64(job.Duration)}
}

func (c *Crafting) Complete(p *state.Process, st *state.GameState) CompletionEffects {
	job := p.Payload.(*state.CraftPayload)
	return CompletionEffects{
		Grant: job.Output.Clone(),
		Events: []Note{{
			Type:       state.EventItemCrafted,
			Importance: state.ImportanceInfo,
			Text:       fmt.Sprintf("%s produced %s", job.Recipe, describeCost(job.Output)),
		}},
	}
}

func (c *Crafting) Cancel(p *state.Process, st *state.GameState) {
	job := p.Payload.(*state.CraftPayload)
	st.Grant(job.Reserved)
}

func describeCost(c gamedata.Cost) string {
	parts := make([]string, 0, len(c))
	for _, name := range c.Names() {
		parts = append(parts, fmt.Sprintf("%s x%d", name, c[name]))
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}
