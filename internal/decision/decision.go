// Package decision chooses what a persona does at each check-in.
//
// A check-in moves through fixed phases: candidates are gathered from every
// system, filtered by legality and persona behavior, scored, and the top
// few are handed back for dispatch. Scoring is pure and ties break by
// catalog order, so a run replays exactly.
package decision

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/persona"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/systems"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// Phase is the engine's position in a check-in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEvaluating
	PhaseFiltered
	PhaseScored
	PhaseDispatched
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseFiltered:
		return "filtered"
	case PhaseScored:
		return "scored"
	case PhaseDispatched:
		return "dispatched"
	default:
		return "unknown"
	}
}

// BottleneckBonus multiplies the score of a candidate that relieves the
// detected bottleneck.
const BottleneckBonus = 2.0

// Evaluator proposes candidate actions.
type Evaluator interface {
	Evaluate(st *state.GameState) []systems.Candidate
}

// Validator checks whether an action is legal.
type Validator interface {
	CanPerform(a action.Action, st *state.GameState) validation.Result
}

// Scored is a candidate with its final score.
type Scored struct {
	systems.Candidate
	Score float64
}

// Decision is the outcome of one check-in.
type Decision struct {
	Minute     int
	Bottleneck systems.Bottleneck
	Considered int
	Eligible   int
	Selected   []Scored
}

// Actions returns the selected actions in dispatch order.
func (d Decision) Actions() []action.Action {
	out := make([]action.Action, len(d.Selected))
	for i, s := range d.Selected {
		out[i] = s.Action
	}
	return out
}

// Engine makes decisions for one persona in one run.
type Engine struct {
	persona *persona.Persona
	source  Evaluator
	rules   Validator
	tracer  trace.Tracer

	phase   Phase
	next    int
	started bool
	// blocked remembers the state revision at which an action last failed.
	blocked map[string]uint64
}

// New creates a decision engine.
func New(p *persona.Persona, source Evaluator, rules Validator, tracer trace.Tracer) *Engine {
	return &Engine{
		persona: p,
		source:  source,
		rules:   rules,
		tracer:  tracer,
		blocked: make(map[string]uint64),
	}
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// NextCheckIn returns the earliest minute of the next scheduled check-in.
func (e *Engine) NextCheckIn() int {
	return e.next
}

// Due reports whether a check-in should happen now. The first check-in
// always happens at the start of a run, asleep or not. A dispatched engine
// returns to idle here.
func (e *Engine) Due(st *state.GameState) bool {
	if e.phase == PhaseDispatched {
		e.phase = PhaseIdle
	}
	if !e.started {
		return true
	}
	return st.Clock.Minute >= e.next && e.persona.Awake(st.Clock)
}

// CheckIn evaluates, filters and scores the candidates and schedules the
// next check-in. The engine stays in the scored phase until Dispatched.
func (e *Engine) CheckIn(ctx context.Context, st *state.GameState) Decision {
	_, span := e.tracer.Start(ctx, "checkin")
	defer span.End()

	e.started = true
	e.next = st.Clock.Minute + e.persona.Interval(st.Clock)

	e.phase = PhaseEvaluating
	candidates := e.source.Evaluate(st)

	eligible := e.filter(candidates, st)
	e.phase = PhaseFiltered

	bottleneck := DetectBottleneck(st)
	scored := Rank(eligible, e.persona, bottleneck)
	if n := e.persona.ActionsPerCheckIn; len(scored) > n {
		scored = scored[:n]
	}
	e.phase = PhaseScored

	span.SetAttributes(
		attribute.String("persona", e.persona.ID),
		attribute.Int("minute", st.Clock.Minute),
		attribute.Int("candidates", len(candidates)),
		attribute.Int("eligible", len(eligible)),
		attribute.Int("selected", len(scored)),
		attribute.String("bottleneck", string(bottleneck)),
	)
	return Decision{
		Minute:     st.Clock.Minute,
		Bottleneck: bottleneck,
		Considered: len(candidates),
		Eligible:   len(eligible),
		Selected:   scored,
	}
}

// Dispatched closes the check-in after its actions were executed.
func (e *Engine) Dispatched() {
	e.phase = PhaseDispatched
}

// Blocked records that a selected action failed at execution time. It is
// not proposed again until the state changes.
func (e *Engine) Blocked(a action.Action, st *state.GameState) {
	e.blocked[a.Key()] = st.Revision()
}

func (e *Engine) filter(candidates []systems.Candidate, st *state.GameState) []systems.Candidate {
	seen := make(map[string]bool, len(candidates))
	var out []systems.Candidate
	for _, c := range candidates {
		key := c.Action.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		if rev, ok := e.blocked[key]; ok {
			if rev == st.Revision() {
				continue
			}
			delete(e.blocked, key)
		}
		if e.persona.Preference(c.Action.Domain()) == 0 || c.Risk > e.persona.RiskTolerance {
			continue
		}
		if !e.rules.CanPerform(c.Action, st).CanPerform {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Score rates one candidate for a persona.
func Score(c systems.Candidate, p *persona.Persona, b systems.Bottleneck) float64 {
	s := c.Priority * (1 + p.Efficiency*c.Efficiency) * p.Preference(c.Action.Domain())
	if c.ResolvesBottleneck(b) {
		s *= BottleneckBonus
	}
	return s
}

// Rank scores candidates and sorts them best first. Equal scores fall back to
// catalog order, then to the action key.
func Rank(candidates []systems.Candidate, p *persona.Persona, b systems.Bottleneck) []Scored {
	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		out[i] = Scored{Candidate: c, Score: Score(c, p, b)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Action.Key() < out[j].Action.Key()
	})
	return out
}
