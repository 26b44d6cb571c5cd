// Package systems implements the game rules for each area of the game.
//
// A System proposes candidate actions, executes validated actions and
// applies its passive effects once per tick. Systems hold no run state of
// their own: everything they change lives in the state.GameState passed in,
// and passive rates are derived from the clock so repeated runs replay exactly.
package systems

import (
	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/process"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// Bottleneck is a shortage that stalls progress.
type Bottleneck string

const (
	BottleneckNone  Bottleneck = ""
	BottleneckWater Bottleneck = "water"
	BottleneckTool  Bottleneck = "tool"
	BottleneckSeeds Bottleneck = "seeds"
	BottleneckPlots Bottleneck = "plots"
)

// Candidate is an action a system considers worth taking now.
type Candidate struct {
	Action action.Action
	// Priority is the intrinsic value of the action, roughly 1 to 10.
	Priority float64
	// Efficiency in [0, 1] rates payoff against cost.
	Efficiency float64
	// Risk in [0, 1]; personas drop candidates above their tolerance.
	Risk float64
	// Order is the catalog position of the action's target for tie breaks.
	Order int
	// Resolves lists the bottlenecks this action relieves.
	Resolves []Bottleneck
}

// ResolvesBottleneck reports whether the candidate relieves b.
func (c Candidate) ResolvesBottleneck(b Bottleneck) bool {
	if b == BottleneckNone {
		return false
	}
	for _, r := range c.Resolves {
		if r == b {
			return true
		}
	}
	return false
}

// ActionResult reports one executed action.
type ActionResult struct {
	Success     bool
	Description string
	Events      []state.Event
	Validation  validation.Result
	Process     string
}

// System is one area of game rules.
type System interface {
	Domain() state.Domain
	EvaluateActions(st *state.GameState) []Candidate
	Execute(a action.Action, st *state.GameState) ActionResult
	Tick(dt int, st *state.GameState)
}

// Env is shared by every system of one run.
type Env struct {
	Rules     *validation.Service
	Processes *process.Registry
}

// NewEnv creates the shared rules and process registry.
func NewEnv(limits validation.Limits) *Env {
	rules := validation.NewService(limits)
	return &Env{Rules: rules, Processes: process.NewRegistry(rules, nil)}
}

func candidate(st *state.GameState, a action.Action, priority, efficiency float64, resolves ...Bottleneck) Candidate {
	return Candidate{
		Action:     a,
		Priority:   priority,
		Efficiency: clamp01(efficiency),
		Order:      st.Catalog().Order(a.Target()),
		Resolves:   resolves,
	}
}

// pay charges the planned cost of a.
func (e *Env) pay(a action.Action, st *state.GameState) (validation.Plan, error) {
	plan, err := e.Rules.Plan(a, st)
	if err != nil {
		return plan, err
	}
	return plan, st.Pay(plan.Cost)
}

// start launches the process a starts and reports it.
func (e *Env) start(category state.Category, a action.Action, st *state.GameState) ActionResult {
	p, err := e.Processes.Start(category, a, st)
	if err != nil {
		return fail(err.Error())
	}
	return ActionResult{Success: true, Description: a.Describe(), Process: p.Handle}
}

func fail(reason string) ActionResult {
	return ActionResult{Description: reason}
}

func done(description string) ActionResult {
	return ActionResult{Success: true, Description: description}
}

// available reports whether def's prerequisites are met.
func available(st *state.GameState, def *gamedata.ItemDef) bool {
	return len(st.MissingPrerequisites(def)) == 0
}

// crossed counts multiples of every minutes passed in the last dt minutes.
func crossed(minute, dt, every int) int {
	if every <= 0 || dt <= 0 {
		return 0
	}
	return minute/every - (minute-dt)/every
}

// perHour returns the whole units a rate per hour yields over the last dt
// minutes. Fractions carry implicitly through the clock.
func perHour(rate, minute, dt int) int {
	if rate <= 0 || dt <= 0 {
		return 0
	}
	return rate*minute/60 - rate*(minute-dt)/60
}

// regenRate sums regenPerHour over unlocked upgrades feeding capacity kind.
func regenRate(st *state.GameState, kind string) int {
	total := 0
	for _, id := range st.Progression.Upgrades.List() {
		if def, ok := st.Catalog().Get(id); ok && def.CapacityKind == kind {
			total += def.RegenPerHour
		}
	}
	return total
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
