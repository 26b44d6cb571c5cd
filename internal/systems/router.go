package systems

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/state"
)

// Router owns the systems of one run and is the only path from an action
// to a state change: validate, then execute in the action's domain.
type Router struct {
	env      *Env
	systems  []System
	byDomain map[state.Domain]System
}

// NewRouter creates the standard set of systems in tick order.
func NewRouter(env *Env) *Router {
	helper := NewHelper(env)
	r := &Router{
		env: env,
		systems: []System{
			NewFarm(env),
			NewTown(env),
			NewAdventure(env),
			NewMine(env),
			NewForge(env),
			helper,
			NewTower(env),
		},
		byDomain: make(map[state.Domain]System),
	}
	for _, s := range r.systems {
		r.byDomain[s.Domain()] = s
	}
	helper.automate = r.Automate
	return r
}

// Env returns the shared rules and process registry.
func (r *Router) Env() *Env {
	return r.env
}

// Systems returns every system in tick order.
func (r *Router) Systems() []System {
	return r.systems
}

// System returns the system owning a domain.
func (r *Router) System(d state.Domain) (System, bool) {
	s, ok := r.byDomain[d]
	return s, ok
}

// Evaluate gathers every system's candidates in tick order.
func (r *Router) Evaluate(st *state.GameState) []Candidate {
	var out []Candidate
	for _, s := range r.systems {
		out = append(out, s.EvaluateActions(st)...)
	}
	return out
}

// Dispatch validates and executes a player action, moving the player to the
// action's area.
func (r *Router) Dispatch(a action.Action, st *state.GameState) ActionResult {
	return r.run(a, st, "player")
}

// Automate validates and executes an action on behalf of a helper. The
// player's location does not change.
func (r *Router) Automate(a action.Action, st *state.GameState, actor string) ActionResult {
	return r.run(a, st, actor)
}

func (r *Router) run(a action.Action, st *state.GameState, actor string) ActionResult {
	before := st.Events.Len()
	check := r.env.Rules.CanPerform(a, st)
	if !check.CanPerform {
		eventType, importance := state.EventActionBlocked, state.ImportanceInfo
		if check.CatalogMiss {
			eventType, importance = state.EventCatalogMiss, state.ImportanceWarning
		}
		st.Emit(eventType, importance, a.Domain(), "%s blocked %s: %s", actor, a.Describe(), check.Reason())
		return ActionResult{Description: check.Reason(), Validation: check, Events: slices.Clone(st.Events.Since(before))}
	}

	sys, ok := r.byDomain[a.Domain()]
	if !ok {
		st.Emit(state.EventSystemError, state.ImportanceHigh, a.Domain(), "no system for %s", a.Domain())
		return ActionResult{Description: fmt.Sprintf("no system for %s", a.Domain()), Validation: check}
	}
	if actor == "player" {
		st.Navigate(a.Domain(), a.Describe())
	}

	res := sys.Execute(a, st)
	res.Validation = check
	if res.Success {
		st.Emit(state.EventActionExecuted, state.ImportanceInfo, a.Domain(), "%s: %s", actor, res.Description)
	} else {
		st.Emit(state.EventActionBlocked, state.ImportanceInfo, a.Domain(), "%s failed %s: %s", actor, a.Describe(), res.Description)
	}
	res.Events = slices.Clone(st.Events.Since(before))
	return res
}

// ErrSystemPanic wraps a panic recovered from a system tick.
var ErrSystemPanic = errors.New("system panic")

// TickReport summarises one pass of passive ticks.
type TickReport struct {
	// Events counts the events each domain emitted during its tick.
	Events map[state.Domain]int
	Errors []error
}

// TickAll runs every system's passive tick. A panicking system is reported
// and skipped for this tick; the others still run.
func (r *Router) TickAll(dt int, st *state.GameState) TickReport {
	report := TickReport{Events: make(map[state.Domain]int)}
	for _, s := range r.systems {
		before := st.Events.Len()
		if err := safeTick(s, dt, st); err != nil {
			st.Emit(state.EventSystemError, state.ImportanceHigh, s.Domain(), "%v", err)
			report.Errors = append(report.Errors, err)
		}
		if n := st.Events.Len() - before; n > 0 {
			report.Events[s.Domain()] += n
		}
	}
	return report
}

func safeTick(s System, dt int, st *state.GameState) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s tick: %v", ErrSystemPanic, s.Domain(), rec)
		}
	}()
	s.Tick(dt, st)
	return nil
}
