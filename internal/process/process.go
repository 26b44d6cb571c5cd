// Package process runs every activity that takes simulated time.
//
// Each category (growth, crafting, mining, combat, training, seed catching)
// has one Handler implementing the same lifecycle:
//
//	CanStart -> Initialize -> Update(dt)... -> Complete | Cancel
//
// The Registry enforces per-category concurrency limits, advances running
// processes once per tick in creation order and merges every handler's
// Delta into the shared state additively.
package process

import (
	"errors"
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/combat"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

var (
	// ErrConcurrencyLimit is returned when a category has no free slot.
	ErrConcurrencyLimit = errors.New("concurrency limit reached")
	// ErrNoHandler is returned for a category without a registered handler.
	ErrNoHandler = errors.New("no handler for category")
	// ErrCannotStart is returned when a handler's CanStart check fails.
	ErrCannotStart = errors.New("process cannot start")
)

// Note is an event a handler asks the registry to record.
type Note struct {
	Type       state.EventType
	Importance state.Importance
	Text       string
}

// InitResult is what a handler produces when a process starts.
type InitResult struct {
	Payload state.Payload
	Notes   []Note
}

// UpdateResult is the outcome of advancing a process by dt minutes.
type UpdateResult struct {
	Delta    state.Delta
	Events   []Note
	Complete bool
}

// CompletionEffects are the rewards of a finished process.
type CompletionEffects struct {
	Delta state.Delta
	// Grant adds items, materials or seeds by cost key.
	Grant gamedata.Cost
	// OneShots are recorded as completed milestones.
	OneShots []string
	// Depth is recorded as the deepest point reached, if larger.
	Depth int
	// Helper is set to Level when non-empty.
	Helper string
	Level  int
	Events []Note
	// Keep leaves the process in the table after completion.
	Keep bool
}

// Handler owns one process category.
type Handler interface {
	Category() state.Category
	CanStart(data action.Action, st *state.GameState) validation.Result
	Initialize(handle string, data action.Action, st *state.GameState) (InitResult, error)
	Update(p *state.Process, dt int, st *state.GameState, catalog *gamedata.Catalog) UpdateResult
	Complete(p *state.Process, st *state.GameState) CompletionEffects
	Cancel(p *state.Process, st *state.GameState)
}

// Registry dispatches processes to their handlers.
type Registry struct {
	handlers map[state.Category]Handler
	limits   validation.Limits
}

// NewRegistry creates a registry with the standard handlers. Validation and
// the registry share the same limits.
func NewRegistry(rules *validation.Service, resolver *combat.Resolver) *Registry {
	if resolver == nil {
		resolver = combat.NewResolver()
	}
	r := &Registry{
		handlers: make(map[state.Category]Handler),
		limits:   rules.Limits(),
	}
	r.Register(&Growth{rules: rules})
	r.Register(&Crafting{rules: rules})
	r.Register(&Mining{rules: rules})
	r.Register(&Combat{rules: rules, resolver: resolver})
	r.Register(&Training{rules: rules})
	r.Register(&SeedCatch{rules: rules})
	return r
}

// Register installs or replaces the handler for its category.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Category()] = h
}

// Handler returns the handler of a category.
func (r *Registry) Handler(category state.Category) (Handler, bool) {
	h, ok := r.handlers[category]
	return h, ok
}

// Limits returns the concurrency limits the registry enforces.
func (r *Registry) Limits() validation.Limits {
	return r.limits
}

// Start validates and initializes a new process of the given category.
func (r *Registry) Start(category state.Category, data action.Action, st *state.GameState) (*state.Process, error) {
	h, ok := r.handlers[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, category)
	}
	if limit := r.limits.Max(category, st); st.Processes.Occupying(category) >= limit {
		return nil, fmt.Errorf("%w: %s allows %d", ErrConcurrencyLimit, category, limit)
	}
	if res := h.CanStart(data, st); !res.CanPerform {
		if res.ConcurrencyLimited {
			return nil, fmt.Errorf("%w: %s", ErrConcurrencyLimit, res.Reason())
		}
		return nil, fmt.Errorf("%w: %s", ErrCannotStart, res.Reason())
	}

	p := st.Processes.Create(category, nil, st.Clock.Minute)
	init, err := h.Initialize(p.Handle, data, st)
	if err != nil {
		st.Processes.Remove(p.Handle)
		return nil, fmt.Errorf("start %s: %w", category, err)
	}
	p.Payload = init.Payload
	p.Status = state.StatusRunning

	domain := DomainOf(category)
	record(st, domain, init.Notes)
	st.Emit(state.EventProcessStarted, state.ImportanceDebug, domain, "%s started: %s", p.Handle, p.Payload.Summary())
	return p, nil
}

// Tick advances every running process by dt minutes in creation order.
// A delta that would take a resource below zero aborts with
// state.ErrInvariantViolation.
func (r *Registry) Tick(dt int, st *state.GameState) error {
	for _, p := range st.Processes.Ordered() {
		if p.Status != state.StatusRunning {
			continue
		}
		h, ok := r.handlers[p.Category]
		if !ok {
			st.Emit(state.EventSystemError, state.ImportanceHigh, DomainOf(p.Category), "%s has no handler, dropped", p.Handle)
			st.Processes.Remove(p.Handle)
			continue
		}

		res := h.Update(p, dt, st, st.Catalog())
		if err := st.ApplyDelta(res.Delta); err != nil {
			st.Emit(state.EventInvariantViolation, state.ImportanceFatal, DomainOf(p.Category), "%s: %v", p.Handle, err)
			return fmt.Errorf("process %s: %w", p.Handle, err)
		}
		record(st, DomainOf(p.Category), res.Events)
		if res.Complete {
			if err := r.complete(h, p, st); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) complete(h Handler, p *state.Process, st *state.GameState) error {
	domain := DomainOf(p.Category)
	eff := h.Complete(p, st)
	p.Status = state.StatusCompleted

	if err := st.ApplyDelta(eff.Delta); err != nil {
		st.Emit(state.EventInvariantViolation, state.ImportanceFatal, domain, "%s completion: %v", p.Handle, err)
		return fmt.Errorf("complete %s: %w", p.Handle, err)
	}
	st.Grant(eff.Grant)
	for _, id := range eff.OneShots {
		st.CompleteOneShot(id)
	}
	if eff.Depth > 0 {
		st.RecordDepth(eff.Depth)
	}
	if eff.Helper != "" {
		if err := st.SetHelperLevel(eff.Helper, eff.Level); err != nil {
			st.Emit(state.EventInvariantViolation, state.ImportanceFatal, domain, "%s completion: %v", p.Handle, err)
			return fmt.Errorf("complete %s: %w", p.Handle, err)
		}
	}
	record(st, domain, eff.Events)
	st.Emit(state.EventProcessCompleted, state.ImportanceDebug, domain, "%s completed", p.Handle)

	if !eff.Keep {
		st.Processes.Remove(p.Handle)
	}
	return nil
}

// Cancel stops a process and releases what it reserved.
func (r *Registry) Cancel(handle string, st *state.GameState) error {
	p, ok := st.Processes.Get(handle)
	if !ok {
		return fmt.Errorf("cancel %s: %w", handle, gamedata.ErrUnknownItem)
	}
	h, ok := r.handlers[p.Category]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, p.Category)
	}
	if p.Status.Active() {
		h.Cancel(p, st)
	}
	p.Status = state.StatusCancelled
	st.Processes.Remove(handle)
	st.Emit(state.EventProcessCancelled, state.ImportanceInfo, DomainOf(p.Category), "%s cancelled", handle)
	return nil
}

// Active returns running processes of a category in creation order.
func Active(st *state.GameState, category state.Category) []*state.Process {
	var result []*state.Process
	for _, p := range st.Processes.ByCategory(category) {
		if p.Status == state.StatusRunning {
			result = append(result, p)
		}
	}
	return result
}

// DomainOf maps a process category to the area that owns it.
func DomainOf(category state.Category) state.Domain {
	switch category {
	case state.CategoryGrowth:
		return state.DomainFarm
	case state.CategoryCrafting:
		return state.DomainForge
	case state.CategoryMining:
		return state.DomainMine
	case state.CategoryCombat:
		return state.DomainAdventure
	case state.CategoryTraining:
		return state.DomainHelpers
	case state.CategorySeedCatch:
		return state.DomainTower
	default:
		return state.DomainFarm
	}
}

func record(st *state.GameState, domain state.Domain, notes []Note) {
	for _, n := range notes {
		st.Emit(n.Type, n.Importance, domain, "%s", n.Text)
	}
}

// base carries the shared validation service and the start-time helpers.
type base struct {
	rules *validation.Service
}

// check validates data as the action this handler starts.
func (b base) check(data action.Action, ok bool, st *state.GameState) validation.Result {
	if !ok {
		return validation.Blocked(fmt.Sprintf("%T does not start this process", data))
	}
	return b.rules.CanPerform(data, st)
}

// reserve pays the planned cost of data and returns what was paid.
func (b base) reserve(data action.Action, st *state.GameState) (*gamedata.ItemDef, gamedata.Cost, error) {
	plan, err := b.rules.Plan(data, st)
	if err != nil {
		return nil, nil, err
	}
	cost := plan.Cost.Clone()
	if err := st.Pay(cost); err != nil {
		return nil, nil, err
	}
	return plan.Def, cost, nil
}
