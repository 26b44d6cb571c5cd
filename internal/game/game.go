package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samdwyer/farmbalance/internal/config"
	"github.com/samdwyer/farmbalance/internal/decision"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/persona"
	"github.com/samdwyer/farmbalance/internal/sink"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/systems"
	"github.com/samdwyer/farmbalance/internal/telemetry"
)

// Result summarizes a finished run.
type Result struct {
	RunID   string  `json:"runId"`
	Persona string  `json:"persona"`
	Seed    uint64  `json:"seed"`
	Outcome Outcome `json:"outcome"`
	Days    int     `json:"days"`
	Minute  int     `json:"minute"`
	// VictoryMinute is when the victory conditions first held, or -1.
	VictoryMinute int            `json:"victoryMinute"`
	Milestones    int            `json:"milestones"`
	Final         state.Snapshot `json:"final"`
	Events        []state.Event  `json:"-"`
}

// Game holds one run.
type Game struct {
	id      string
	cfg     *config.Config
	persona *persona.Persona
	st      *state.GameState
	router  *systems.Router
	engine  *decision.Engine
	sink    sink.Sink
	logger  *log.Logger
	tracer  trace.Tracer
	observe Observer

	outcome       Outcome
	victoryMinute int
	nextSnapshot  int
	// events emitted by passive system ticks since the day started
	passive map[state.Domain]int

	// stuck detection, sampled at day boundaries
	fingerprint string
	milestones  int
	quietDays   int

	sinkFailures int
}

// New creates a run from validated options.
func New(opts Options) (*Game, error) {
	if opts.Config == nil || opts.Persona == nil {
		return nil, errors.New("game needs a config and a persona")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	catalog := opts.Catalog
	if catalog == nil {
		var err error
		if catalog, err = gamedata.LoadCatalog(); err != nil {
			return nil, err
		}
	}
	stateOpts := opts.Config.StateOptions()
	stateOpts.Catalog = catalog
	st, err := state.New(stateOpts)
	if err != nil {
		return nil, fmt.Errorf("building initial state: %w", err)
	}

	g := &Game{
		id:            opts.RunID,
		cfg:           opts.Config,
		persona:       opts.Persona,
		st:            st,
		sink:          opts.Sink,
		logger:        opts.Logger,
		tracer:        opts.Tracer,
		observe:       opts.Observer,
		victoryMinute: -1,
		passive:       make(map[state.Domain]int),
	}
	if g.id == "" {
		g.id = uuid.NewString()
	}
	if g.sink == nil {
		g.sink = sink.Nop{}
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	g.logger = g.logger.With("run", g.id[:min(8, len(g.id))], "persona", g.persona.ID)
	if g.tracer == nil {
		g.tracer = telemetry.Tracer("game")
	}

	g.router = systems.NewRouter(systems.NewEnv(opts.Config.ProcessLimits()))
	g.engine = decision.New(g.persona, g.router, g.router.Env().Rules, g.tracer)
	st.Events.SetListener(g.forward)
	return g, nil
}

// ID returns the run id.
func (g *Game) ID() string {
	return g.id
}

// State exposes the run state for inspection between ticks.
func (g *Game) State() *state.GameState {
	return g.st
}

// Outcome returns the current outcome.
func (g *Game) Outcome() Outcome {
	return g.outcome
}

// Run simulates until a termination condition holds. The returned error is
// non-nil only for a fatal invariant violation.
func (g *Game) Run(ctx context.Context) (*Result, error) {
	run := g.cfg.Run
	ctx, span := g.tracer.Start(ctx, "run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", g.id),
		attribute.String("persona", g.persona.ID),
		attribute.Int64("seed", int64(run.Seed)),
		attribute.String("termination", run.Termination),
	)

	g.st.Emit(state.EventRunStarted, state.ImportanceInfo, "", "%s started, seed %d, %s up to %d days",
		g.persona.Name, run.Seed, run.Termination, run.MaxDays)
	g.logger.Info("run started", "seed", run.Seed, "termination", run.Termination, "maxDays", run.MaxDays)

	g.fingerprint, g.milestones = g.st.Fingerprint(), g.st.Milestones()
	g.snapshot()
	g.checkIn(ctx)

	_, daySpan := g.tracer.Start(ctx, "day", trace.WithAttributes(attribute.Int("day", 1)))
	var fatal error
	for g.outcome == OutcomeRunning {
		if ctx.Err() != nil {
			g.outcome = OutcomeCancelled
			break
		}
		day := g.st.Clock.Day()
		if err := g.Step(ctx); err != nil {
			fatal = err
		}
		if d := g.st.Clock.Day(); d != day {
			g.endDay(daySpan, day)
			_, daySpan = g.tracer.Start(ctx, "day", trace.WithAttributes(attribute.Int("day", d)))
		}
	}
	g.endDay(daySpan, g.st.Clock.Day())

	res := g.finish()
	span.SetAttributes(
		attribute.String("outcome", res.Outcome.String()),
		attribute.Int("minute", res.Minute),
		attribute.Int("milestones", res.Milestones),
	)
	return res, fatal
}

// Step advances the run by one tick: the clock, every system, the process
// engine, the persona's check-in, the invariant audit and the termination
// checks, in that order.
func (g *Game) Step(ctx context.Context) error {
	if g.outcome != OutcomeRunning {
		return nil
	}
	dt := g.cfg.Run.TickMinutes
	before := g.st.Events.Len()
	day := g.st.Clock.Day()

	g.st.Clock.Advance(dt)
	if d := g.st.Clock.Day(); d != day {
		g.st.Emit(state.EventDayStarted, state.ImportanceDebug, "", "day %d (%s)", d, g.st.Clock.Weekday())
	}

	tick := g.router.TickAll(dt, g.st)
	for _, err := range tick.Errors {
		g.logger.Error("system tick failed", "minute", g.st.Clock.Minute, "err", err)
	}
	for d, n := range tick.Events {
		g.passive[d] += n
	}

	if err := g.router.Env().Processes.Tick(dt, g.st); err != nil {
		g.outcome = OutcomeFatal
		g.logger.Error("run aborted", "minute", g.st.Clock.Minute, "err", err)
		return err
	}

	if g.engine.Due(g.st) {
		g.checkIn(ctx)
	}

	if n := g.st.Audit(); n > 0 {
		g.logger.Warn("audit clamped resources", "minute", g.st.Clock.Minute, "corrections", n)
	}

	g.checkVictory()
	if g.outcome == OutcomeRunning && g.st.Clock.Day() != day {
		g.checkStuck()
	}
	if g.outcome == OutcomeRunning && g.st.Clock.Minute >= g.cfg.Run.MaxDays*state.MinutesPerDay {
		g.outcome = OutcomeMaxDays
	}

	if every := g.cfg.Run.SnapshotEveryMinutes; every > 0 && g.st.Clock.Minute >= g.nextSnapshot {
		g.snapshot()
	}
	if g.observe != nil && !g.observe(g.st.Snapshot(), slices.Clone(g.st.Events.Since(before))) {
		g.outcome = OutcomeCancelled
	}
	return nil
}

func (g *Game) checkIn(ctx context.Context) {
	d := g.engine.CheckIn(ctx, g.st)
	bottleneck := string(d.Bottleneck)
	if bottleneck == "" {
		bottleneck = "none"
	}
	g.st.Emit(state.EventCheckIn, state.ImportanceDebug, "", "%d candidates, %d eligible, %d chosen, bottleneck %s",
		d.Considered, d.Eligible, len(d.Selected), bottleneck)

	for _, a := range d.Actions() {
		res := g.router.Dispatch(a, g.st)
		if !res.Success {
			g.engine.Blocked(a, g.st)
		}
	}
	g.engine.Dispatched()
}

func (g *Game) checkVictory() {
	if g.victoryMinute >= 0 || !g.victorious() {
		return
	}
	g.victoryMinute = g.st.Clock.Minute
	g.st.Emit(state.EventVictory, state.ImportanceHigh, "", "victory conditions met on day %d at %02d:%02d",
		g.st.Clock.Day(), g.st.Clock.Hour(), g.st.Clock.MinuteOfDay()%60)
	g.logger.Info("victory", "day", g.st.Clock.Day(), "minute", g.st.Clock.Minute)
	if g.cfg.Run.Termination == config.TerminateFirstVictory {
		g.outcome = OutcomeVictory
	}
}

// victorious reports whether every configured condition holds.
func (g *Game) victorious() bool {
	v := g.cfg.Victory
	if v.Empty() {
		return false
	}
	st := g.st
	p := &st.Progression
	if p.Plots < v.Plots || st.Hero.Level < v.HeroLevel || p.MaxDepth < v.MaxDepth ||
		st.Resource(state.Gold).Current < v.Gold {
		return false
	}
	for _, id := range v.Completed {
		if !st.IsCompleted(id) {
			return false
		}
	}
	for _, id := range v.Upgrades {
		if !st.HasUpgrade(id) {
			return false
		}
	}
	return true
}

func (g *Game) checkStuck() {
	fp, ms := g.st.Fingerprint(), g.st.Milestones()
	if fp != g.fingerprint || ms != g.milestones {
		g.fingerprint, g.milestones, g.quietDays = fp, ms, 0
		return
	}
	g.quietDays++
	if limit := g.cfg.Run.StuckDays; limit > 0 && g.quietDays >= limit {
		g.outcome = OutcomeStuck
		g.st.Emit(state.EventStuck, state.ImportanceHigh, "", "no progress for %d days", g.quietDays)
		g.logger.Warn("run stuck", "day", g.st.Clock.Day(), "quietDays", g.quietDays)
	}
}

func (g *Game) endDay(span trace.Span, day int) {
	attrs := []attribute.KeyValue{
		attribute.Int("events", len(g.st.Events.ByDay(day))),
		attribute.Int("milestones", g.st.Milestones()),
	}
	for d, n := range g.passive {
		attrs = append(attrs, attribute.Int("passive_events."+string(d), n))
	}
	span.SetAttributes(attrs...)
	span.End()
	clear(g.passive)
}

func (g *Game) snapshot() {
	if err := g.sink.Snapshot(g.id, g.st.Snapshot()); err != nil {
		g.sinkFailed(err)
	}
	if every := g.cfg.Run.SnapshotEveryMinutes; every > 0 {
		g.nextSnapshot = (g.st.Clock.Minute/every + 1) * every
	}
}

// forward passes each appended event to the sink.
func (g *Game) forward(e state.Event) {
	if err := g.sink.Event(g.id, e); err != nil {
		g.sinkFailed(err)
	}
}

func (g *Game) sinkFailed(err error) {
	g.sinkFailures++
	if g.sinkFailures == 1 {
		g.logger.Error("sink write failed, further failures are counted only", "err", err)
	}
}

func (g *Game) finish() *Result {
	g.st.Emit(state.EventRunFinished, state.ImportanceInfo, "", "run ended: %s on day %d", g.outcome, g.st.Clock.Day())
	final := g.st.Snapshot()
	if err := g.sink.Snapshot(g.id, final); err != nil {
		g.sinkFailed(err)
	}

	res := &Result{
		RunID:         g.id,
		Persona:       g.persona.ID,
		Seed:          g.cfg.Run.Seed,
		Outcome:       g.outcome,
		Days:          g.st.Clock.Day(),
		Minute:        g.st.Clock.Minute,
		VictoryMinute: g.victoryMinute,
		Milestones:    g.st.Milestones(),
		Final:         final,
		Events:        slices.Clone(g.st.Events.All()),
	}
	g.logger.Info("run finished",
		"outcome", res.Outcome,
		"day", res.Days,
		"milestones", res.Milestones,
		"events", len(res.Events),
		"sinkFailures", g.sinkFailures,
	)
	return res
}
