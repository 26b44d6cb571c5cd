package game

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/samdwyer/farmbalance/internal/config"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/persona"
	"github.com/samdwyer/farmbalance/internal/sink"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/telemetry"
)

func loadPersona(t *testing.T, id string) *persona.Persona {
	t.Helper()
	set, err := persona.LoadDefault()
	require.NoError(t, err)
	p, err := set.Get(id)
	require.NoError(t, err)
	return p
}

// idle never wants anything outside town, and starts too poor for town.
func idle() *persona.Persona {
	return &persona.Persona{
		ID:                "idle",
		Name:              "Idle",
		CheckIn:           persona.CheckIn{WeekdayMinutes: 30, WeekendMinutes: 30},
		SleepHour:         24,
		RiskTolerance:     0.5,
		Efficiency:        1,
		ActionsPerCheckIn: 2,
		Preferences: map[string]float64{
			persona.Farming: 0, persona.Adventuring: 0, persona.Crafting: 0,
			persona.Mining: 0, persona.Helpers: 0,
		},
	}
}

func idleConfig() *config.Config {
	cfg := config.Default()
	cfg.Run.Termination = config.TerminateMaxDays
	cfg.Run.MaxDays = 10
	cfg.Run.StuckDays = 2
	cfg.Start.Energy, cfg.Start.Gold, cfg.Start.Water = 0, 0, 0
	cfg.Start.Seeds = nil
	return cfg
}

func newGame(t *testing.T, cfg *config.Config, p *persona.Persona, s sink.Sink) *Game {
	t.Helper()
	g, err := New(Options{
		Config:  cfg,
		Persona: p,
		Catalog: gamedata.MustLoadCatalog(),
		Sink:    s,
		Tracer:  telemetry.NoopTracer(),
		RunID:   "test-run",
	})
	require.NoError(t, err)
	return g
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{OutcomeRunning, "running"},
		{OutcomeVictory, "victory"},
		{OutcomeStuck, "stuck"},
		{OutcomeMaxDays, "max_days"},
		{OutcomeCancelled, "cancelled"},
		{OutcomeFatal, "fatal"},
		{Outcome(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

func TestNewRequiresConfigAndPersona(t *testing.T) {
	if _, err := New(Options{Config: config.Default()}); err == nil {
		t.Error("Expected an error without a persona")
	}
	if _, err := New(Options{Persona: idle()}); err == nil {
		t.Error("Expected an error without a config")
	}

	cfg := config.Default()
	cfg.Run.MaxDays = 0
	if _, err := New(Options{Config: cfg, Persona: idle()}); err == nil {
		t.Error("Expected an invalid config to be rejected")
	}
}

func TestFirstCheckInAtMinuteZero(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Termination = config.TerminateMaxDays
	cfg.Run.MaxDays = 1
	g := newGame(t, cfg, loadPersona(t, "casual"), nil)

	res, err := g.Run(context.Background())
	require.NoError(t, err)

	var checkIns []state.Event
	for _, e := range res.Events {
		if e.Type == state.EventCheckIn {
			checkIns = append(checkIns, e)
		}
	}
	require.NotEmpty(t, checkIns)
	assert.Equal(t, 0, checkIns[0].Minute)
	assert.Equal(t, state.EventRunStarted, res.Events[0].Type)
	assert.Equal(t, state.EventRunFinished, res.Events[len(res.Events)-1].Type)
}

func TestStuckRun(t *testing.T) {
	g := newGame(t, idleConfig(), idle(), nil)

	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeStuck, res.Outcome)
	assert.Equal(t, 2*state.MinutesPerDay, res.Minute)
	assert.Len(t, g.State().Events.ByType(state.EventStuck), 1)
}

func TestStuckDetectionDisabled(t *testing.T) {
	cfg := idleConfig()
	cfg.Run.StuckDays = 0
	cfg.Run.MaxDays = 3
	g := newGame(t, cfg, idle(), nil)

	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeMaxDays, res.Outcome)
	assert.Equal(t, 3*state.MinutesPerDay, res.Minute)
	assert.Equal(t, 4, res.Days)
}

func TestFirstVictoryStopsTheRun(t *testing.T) {
	cfg := config.Default()
	cfg.Victory = config.VictoryConfig{Plots: 3}
	g := newGame(t, cfg, loadPersona(t, "balanced"), nil)

	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeVictory, res.Outcome)
	assert.Equal(t, cfg.Run.TickMinutes, res.Minute)
	assert.Equal(t, res.Minute, res.VictoryMinute)
}

func TestVictoryInMaxDaysModeKeepsRunning(t *testing.T) {
	cfg := idleConfig()
	cfg.Run.StuckDays = 0
	cfg.Run.MaxDays = 1
	cfg.Victory = config.VictoryConfig{Plots: 3}
	g := newGame(t, cfg, idle(), nil)

	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeMaxDays, res.Outcome)
	assert.Equal(t, 1, res.VictoryMinute)
	assert.Len(t, g.State().Events.ByType(state.EventVictory), 1)
}

func TestUnmetVictoryConditions(t *testing.T) {
	cfg := idleConfig()
	cfg.Victory = config.VictoryConfig{Plots: 3, Completed: []string{"goblin_camp"}}
	g := newGame(t, cfg, idle(), nil)

	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeStuck, res.Outcome)
	assert.Equal(t, -1, res.VictoryMinute)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := newGame(t, config.Default(), loadPersona(t, "balanced"), nil)

	res, err := g.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Equal(t, 0, res.Minute)
}

func TestObserverCanStopTheRun(t *testing.T) {
	calls := 0
	g, err := New(Options{
		Config:  config.Default(),
		Persona: loadPersona(t, "balanced"),
		Tracer:  telemetry.NoopTracer(),
		Observer: func(snap state.Snapshot, _ []state.Event) bool {
			calls++
			if snap.Minute != calls {
				t.Errorf("Expected snapshot at minute %d, got %d", calls, snap.Minute)
			}
			return calls < 10
		},
	})
	require.NoError(t, err)

	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Equal(t, 10, res.Minute)
	assert.NotEmpty(t, res.RunID)
}

func deterministicConfig(seed uint64) *config.Config {
	cfg := config.Default()
	cfg.Run.Seed = seed
	cfg.Run.Termination = config.TerminateMaxDays
	cfg.Run.MaxDays = 2
	cfg.Run.StuckDays = 0
	return cfg
}

func TestSameSeedReplaysExactly(t *testing.T) {
	p := loadPersona(t, "speedrunner")
	first, err := newGame(t, deterministicConfig(7), p, nil).Run(context.Background())
	require.NoError(t, err)
	second, err := newGame(t, deterministicConfig(7), p, nil).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(first.Events), len(second.Events))
	assert.Equal(t, first.Events, second.Events)
	assert.Equal(t, first.Final, second.Final)
	assert.Equal(t, first.Milestones, second.Milestones)
}

func TestSinkReceivesEveryEventInOrder(t *testing.T) {
	mem := sink.NewMemory()
	g := newGame(t, deterministicConfig(3), loadPersona(t, "balanced"), mem)

	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, res.Events, mem.Events("test-run"))

	snaps := mem.Snapshots("test-run")
	require.Len(t, snaps, 4)
	assert.Equal(t, 0, snaps[0].Minute)
	assert.Equal(t, state.MinutesPerDay, snaps[1].Minute)
	assert.Equal(t, res.Final, snaps[len(snaps)-1])
}

func TestResourcesStayWithinBounds(t *testing.T) {
	cfg := deterministicConfig(11)
	g := newGame(t, cfg, loadPersona(t, "speedrunner"), nil)
	ctx := context.Background()

	// drive the loop by hand to look at every tick
	for i := 0; i < state.MinutesPerDay && g.Outcome() == OutcomeRunning; i++ {
		require.NoError(t, g.Step(ctx))
		st := g.State()
		for _, kind := range state.BoundedKinds {
			c := st.Resource(kind)
			if c.Current < 0 || c.Current > c.Capacity {
				t.Fatalf("Expected %s within [0, %d] at minute %d, got %d", kind, c.Capacity, st.Clock.Minute, c.Current)
			}
		}
		if st.FreePlots() < 0 || st.Processes.Occupying(state.CategoryGrowth) > st.Progression.Plots {
			t.Fatalf("Expected crops to fit the plots at minute %d", st.Clock.Minute)
		}
	}
	assert.Empty(t, g.State().Events.ByType(state.EventInvariantViolation))
}

func TestProcessLimitsHoldForEveryPersona(t *testing.T) {
	ctx := context.Background()
	for _, id := range []string{"balanced", "casual", "speedrunner", "weekend_warrior"} {
		for seed := uint64(1); seed <= 3; seed++ {
			t.Run(fmt.Sprintf("%s/seed-%d", id, seed), func(t *testing.T) {
				cfg := deterministicConfig(seed)
				cfg.Run.MaxDays = 10
				limits := cfg.ProcessLimits()
				g := newGame(t, cfg, loadPersona(t, id), nil)

				for g.Outcome() == OutcomeRunning {
					require.NoError(t, g.Step(ctx))
					st := g.State()
					for _, c := range state.Categories {
						if n, limit := st.Processes.Occupying(c), limits.Max(c, st); n > limit {
							t.Fatalf("Expected at most %d %s processes at minute %d, got %d", limit, c, st.Clock.Minute, n)
						}
					}
				}
				// validated actions must not fail on execution
				for _, e := range g.State().Events.ByType(state.EventActionBlocked) {
					if strings.Contains(e.Description, " failed ") {
						t.Errorf("Expected no execution failure, got %q at minute %d", e.Description, e.Minute)
					}
				}
			})
		}
	}
}

func TestDefaultPersonasKeepProgressing(t *testing.T) {
	tests := []struct {
		persona string
		crafts  bool
	}{
		{"balanced", true},
		// casual never saves up for a forge this early
		{"casual", false},
		{"speedrunner", true},
		{"weekend_warrior", true},
	}
	for _, tt := range tests {
		t.Run(tt.persona, func(t *testing.T) {
			cfg := config.Default()
			cfg.Run.Termination = config.TerminateMaxDays
			cfg.Run.MaxDays = 20
			res, err := newGame(t, cfg, loadPersona(t, tt.persona), nil).Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, OutcomeMaxDays, res.Outcome, "run should not get stuck")
			seen := make(map[state.EventType]int)
			for _, e := range res.Events {
				seen[e.Type]++
			}
			assert.NotZero(t, seen[state.EventCombatResult], "combat")
			assert.NotZero(t, seen[state.EventMiningResult], "mining")
			if tt.crafts {
				assert.NotZero(t, seen[state.EventItemCrafted], "crafting")
			}
			assert.Greater(t, res.Final.Plots, cfg.Start.Plots)
		})
	}
}

func TestDaySpansCountPassiveEvents(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	cfg := idleConfig()
	cfg.Run.StuckDays = 0
	cfg.Run.MaxDays = 1
	cfg.Start.Upgrades = []string{"helper_hut"}
	g, err := New(Options{Config: cfg, Persona: idle(), Tracer: tp.Tracer("test"), RunID: "test-run"})
	require.NoError(t, err)
	require.NoError(t, g.State().SetHelperLevel("pump_operator", 1))

	_, err = g.Run(context.Background())
	require.NoError(t, err)

	counts := make(map[int]int64)
	for _, span := range rec.Ended() {
		if span.Name() != "day" {
			continue
		}
		var day int64
		for _, kv := range span.Attributes() {
			switch kv.Key {
			case "day":
				day = kv.Value.AsInt64()
			case "passive_events.helpers":
				counts[int(day)] += kv.Value.AsInt64()
			}
		}
	}
	// four pumps fill the tank, each executed and reported
	assert.Equal(t, map[int]int64{1: 8}, counts)
}

func TestRunBatch(t *testing.T) {
	catalog := gamedata.MustLoadCatalog()
	cfg := deterministicConfig(5)
	cfg.Run.MaxDays = 1
	ids := []string{"balanced", "casual", "weekend_warrior"}

	var runs []Options
	for _, id := range ids {
		runs = append(runs, Options{Config: cfg, Persona: loadPersona(t, id), Catalog: catalog, Tracer: telemetry.NoopTracer()})
	}
	results, err := RunBatch(context.Background(), runs, 2)
	require.NoError(t, err)
	require.Len(t, results, len(ids))

	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, ids[i], res.Persona)
		assert.Equal(t, OutcomeMaxDays, res.Outcome)
	}

	single, err := newGame(t, cfg, loadPersona(t, "casual"), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, single.Events, results[1].Events, "a batch run must match the same run alone")
}

func TestRunBatchReportsBadOptions(t *testing.T) {
	runs := []Options{{Config: config.Default()}}
	_, err := RunBatch(context.Background(), runs, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no persona")
}
