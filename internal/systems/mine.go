package systems

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/process"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// MinMiningEnergy is the least energy worth taking into the mine.
const MinMiningEnergy = 10

// miningPlans offers budgets as a share of current energy; deeper budgets are riskier.
var miningPlans = []struct {
	share, risk float64
}{
	{0.10, 0.2},
	{0.25, 0.5},
	{0.50, 0.8},
}

// Mine handles mining sessions.
type Mine struct {
	env *Env
}

// NewMine creates the mine system.
func NewMine(env *Env) *Mine {
	return &Mine{env: env}
}

func (m *Mine) Domain() state.Domain { return state.DomainMine }

func (m *Mine) EvaluateActions(st *state.GameState) []Candidate {
	energy := st.Resource(state.Energy).Current
	if energy < MinMiningEnergy || !st.HasUpgrade(validation.MineEntrance) ||
		st.Inventory.BestTier("pickaxe") < 1 || len(process.Active(st, state.CategoryMining)) > 0 {
		return nil
	}

	priority := 4.0
	if st.Progression.MaxDepth == 0 {
		priority = 6 // first descent
	}
	var out []Candidate
	seen := make(map[int]bool)
	for _, plan := range miningPlans {
		budget := max(int(float64(energy)*plan.share), 1)
		if seen[budget] {
			continue
		}
		seen[budget] = true
		minutes := budget // one energy per minute in the first band
		depth := process.DescentSpeed(st.Inventory.BestTier("pickaxe")) * float64(minutes)
		c := candidate(st, action.StartMining{EnergyBudget: budget}, priority, depth/1000)
		c.Risk = plan.risk
		out = append(out, c)
	}
	return out
}

func (m *Mine) Execute(a action.Action, st *state.GameState) ActionResult {
	if act, ok := a.(action.StartMining); ok {
		return m.env.start(state.CategoryMining, act, st)
	}
	return fail(fmt.Sprintf("mine cannot execute %s", a.Kind()))
}

func (m *Mine) Tick(dt int, st *state.GameState) {}
