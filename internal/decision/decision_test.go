package decision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/persona"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/systems"
	"github.com/samdwyer/farmbalance/internal/telemetry"
	"github.com/samdwyer/farmbalance/internal/validation"
)

type stubEvaluator struct {
	candidates []systems.Candidate
}

func (s stubEvaluator) Evaluate(*state.GameState) []systems.Candidate {
	return s.candidates
}

type stubValidator struct {
	illegal map[string]bool
}

func (s stubValidator) CanPerform(a action.Action, _ *state.GameState) validation.Result {
	if s.illegal[a.Key()] {
		return validation.Blocked("not now")
	}
	return validation.Allowed()
}

func testPersona(interval int) *persona.Persona {
	return &persona.Persona{
		ID:                "tester",
		CheckIn:           persona.CheckIn{WeekdayMinutes: interval, WeekendMinutes: interval},
		WakeHour:          0,
		SleepHour:         24,
		RiskTolerance:     0.5,
		Efficiency:        1,
		ActionsPerCheckIn: 3,
		Preferences:       map[string]float64{persona.Farming: 1.2, persona.Mining: 0},
	}
}

func newState(t *testing.T, start state.Start) *state.GameState {
	t.Helper()
	if start.Plots == 0 {
		start.Plots = 3
	}
	st, err := state.New(state.Options{Seed: 3, Catalog: gamedata.MustLoadCatalog(), Start: start})
	require.NoError(t, err)
	return st
}

func TestScore(t *testing.T) {
	p := testPersona(5)
	c := systems.Candidate{
		Action:     action.PumpWater{},
		Priority:   5,
		Efficiency: 0.5,
		Resolves:   []systems.Bottleneck{systems.BottleneckWater},
	}

	tests := []struct {
		name       string
		bottleneck systems.Bottleneck
		want       float64
	}{
		{"resolves detected bottleneck", systems.BottleneckWater, 18},
		{"other bottleneck", systems.BottleneckSeeds, 9},
		{"no bottleneck", systems.BottleneckNone, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(c, p, tt.bottleneck)
			if got < tt.want-1e-9 || got > tt.want+1e-9 {
				t.Errorf("Expected score %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRankTieBreaks(t *testing.T) {
	p := testPersona(5)
	candidates := []systems.Candidate{
		{Action: action.BuySeeds{Crop: "radish", Quantity: 2}, Priority: 3, Order: 1},
		{Action: action.BuySeeds{Crop: "carrot", Quantity: 5}, Priority: 3, Order: 0},
		{Action: action.BuySeeds{Crop: "carrot", Quantity: 2}, Priority: 3, Order: 0},
		{Action: action.BuyUpgrade{Upgrade: "well"}, Priority: 4, Order: 20},
	}

	ranked := Rank(candidates, p, systems.BottleneckNone)
	keys := make([]string, len(ranked))
	for i, s := range ranked {
		keys[i] = s.Action.Key()
	}
	assert.Equal(t, []string{
		action.BuyUpgrade{Upgrade: "well"}.Key(),
		action.BuySeeds{Crop: "carrot", Quantity: 2}.Key(),
		action.BuySeeds{Crop: "carrot", Quantity: 5}.Key(),
		action.BuySeeds{Crop: "radish", Quantity: 2}.Key(),
	}, keys)
}

func TestFilter(t *testing.T) {
	st := newState(t, state.Start{})
	candidates := []systems.Candidate{
		{Action: action.PumpWater{}, Priority: 2},
		{Action: action.PumpWater{}, Priority: 9},
		{Action: action.StartMining{EnergyBudget: 5}, Priority: 4},
		{Action: action.StartAdventure{Adventure: "meadow_patrol"}, Priority: 6, Risk: 0.9},
		{Action: action.HarvestCrops{}, Priority: 9},
		{Action: action.BuySeeds{Crop: "carrot", Quantity: 1}, Priority: 3},
	}
	rules := stubValidator{illegal: map[string]bool{action.HarvestCrops{}.Key(): true}}
	e := New(testPersona(5), stubEvaluator{candidates}, rules, telemetry.NoopTracer())

	d := e.CheckIn(context.Background(), st)
	require.Len(t, d.Selected, 2)
	assert.Equal(t, 6, d.Considered)
	assert.Equal(t, 2, d.Eligible)
	for _, s := range d.Selected {
		if _, ok := s.Action.(action.PumpWater); ok {
			assert.Equal(t, 2.0, s.Priority, "first occurrence of a duplicate key wins")
		}
	}
}

func TestBlockedMemoryLastsUntilStateChanges(t *testing.T) {
	st := newState(t, state.Start{Gold: 100})
	pump := systems.Candidate{Action: action.PumpWater{}, Priority: 2}
	e := New(testPersona(5), stubEvaluator{[]systems.Candidate{pump}}, stubValidator{}, telemetry.NoopTracer())

	e.Blocked(pump.Action, st)
	d := e.CheckIn(context.Background(), st)
	assert.Empty(t, d.Selected)

	st.Add(state.Water, 1)
	d = e.CheckIn(context.Background(), st)
	assert.Len(t, d.Selected, 1)
}

func TestCheckInRespectsActionLimit(t *testing.T) {
	st := newState(t, state.Start{})
	var candidates []systems.Candidate
	for _, crop := range []string{"carrot", "radish", "potato", "tomato", "corn"} {
		candidates = append(candidates, systems.Candidate{Action: action.BuySeeds{Crop: crop, Quantity: 1}, Priority: 3})
	}
	e := New(testPersona(5), stubEvaluator{candidates}, stubValidator{}, telemetry.NoopTracer())

	d := e.CheckIn(context.Background(), st)
	assert.Len(t, d.Selected, 3)
	assert.Len(t, d.Actions(), 3)
	assert.Equal(t, PhaseScored, e.Phase())

	e.Dispatched()
	assert.Equal(t, PhaseDispatched, e.Phase())
	e.Due(st)
	assert.Equal(t, PhaseIdle, e.Phase())
}

func TestFirstCheckInAtMinuteZeroEvenAsleep(t *testing.T) {
	st := newState(t, state.Start{})
	p := testPersona(5)
	p.WakeHour, p.SleepHour = 8, 22
	e := New(p, stubEvaluator{}, stubValidator{}, telemetry.NoopTracer())

	require.True(t, e.Due(st))
	e.CheckIn(context.Background(), st)
	e.Dispatched()

	st.Clock.Advance(5)
	assert.False(t, e.Due(st), "asleep at 00:05")

	st.Clock.Advance(8*60 - 5)
	assert.True(t, e.Due(st), "awake at 08:00")
}

func checkInMinutes(t *testing.T, p *persona.Persona, until int) []int {
	t.Helper()
	st := newState(t, state.Start{})
	e := New(p, stubEvaluator{}, stubValidator{}, telemetry.NoopTracer())
	var minutes []int
	for st.Clock.Minute <= until {
		if e.Due(st) {
			minutes = append(minutes, e.CheckIn(context.Background(), st).Minute)
			e.Dispatched()
		}
		st.Clock.Advance(1)
	}
	return minutes
}

func TestCheckInCadenceDiffersByPersona(t *testing.T) {
	fast := checkInMinutes(t, testPersona(5), 60)
	slow := checkInMinutes(t, testPersona(15), 60)

	assert.Equal(t, []int{0, 15, 30, 45, 60}, slow)
	assert.Len(t, fast, 13)
	require.Greater(t, len(fast), 1)
	assert.Equal(t, 0, fast[0])
	assert.Equal(t, 0, slow[0])
	if fast[1] == slow[1] {
		t.Errorf("Expected first action after the start to differ, both at minute %d", fast[1])
	}
}

func TestDetectBottleneckOrder(t *testing.T) {
	t.Run("water before everything", func(t *testing.T) {
		st := newState(t, state.Start{Seeds: map[string]int{"carrot": 1}, Upgrades: []string{"mine_entrance"}})
		r := systems.NewRouter(systems.NewEnv(nil))
		require.True(t, r.Dispatch(action.PlantSeed{Crop: "carrot"}, st).Success)
		assert.Equal(t, systems.BottleneckWater, DetectBottleneck(st))
	})
	t.Run("tool before seeds", func(t *testing.T) {
		st := newState(t, state.Start{Upgrades: []string{"mine_entrance"}})
		assert.Equal(t, systems.BottleneckTool, DetectBottleneck(st))
	})
	t.Run("unarmed with an adventure available", func(t *testing.T) {
		st := newState(t, state.Start{Seeds: map[string]int{"carrot": 10}})
		assert.Equal(t, systems.BottleneckTool, DetectBottleneck(st))
		assert.Equal(t, map[string]int{"weapon": 0}, systems.NeededTools(st))
	})
	t.Run("seeds", func(t *testing.T) {
		st := newState(t, state.Start{Items: []string{"wooden_sword"}})
		assert.Equal(t, systems.BottleneckSeeds, DetectBottleneck(st))
	})
	t.Run("plots", func(t *testing.T) {
		st := newState(t, state.Start{Water: 10, Seeds: map[string]int{"carrot": 3}, Items: []string{"wooden_sword"}})
		r := systems.NewRouter(systems.NewEnv(nil))
		for i := 0; i < 3; i++ {
			require.True(t, r.Dispatch(action.PlantSeed{Crop: "carrot"}, st).Success)
		}
		assert.Equal(t, systems.BottleneckPlots, DetectBottleneck(st))
	})
	t.Run("none", func(t *testing.T) {
		st := newState(t, state.Start{Plots: 6, Seeds: map[string]int{"carrot": 10}, Items: []string{"wooden_sword"}})
		assert.Equal(t, systems.BottleneckNone, DetectBottleneck(st))
	})
}

func TestEngineWithRealSystemsRelievesSeedShortage(t *testing.T) {
	st := newState(t, state.Start{
		Energy: 3,
		Water:  10,
		Gold:   75,
		Seeds:  map[string]int{"carrot": 1, "radish": 1},
		Items:  []string{"wooden_sword"},
	})
	r := systems.NewRouter(systems.NewEnv(nil))
	set, err := persona.LoadDefault()
	require.NoError(t, err)
	p, err := set.Get("balanced")
	require.NoError(t, err)
	e := New(p, r, r.Env().Rules, telemetry.NoopTracer())

	d := e.CheckIn(context.Background(), st)
	require.NotEmpty(t, d.Selected)
	for _, s := range d.Selected {
		assert.True(t, r.Env().Rules.CanPerform(s.Action, st).CanPerform, s.Action.Describe())
	}
	assert.Equal(t, systems.BottleneckSeeds, d.Bottleneck)
	assert.True(t, d.Selected[0].ResolvesBottleneck(systems.BottleneckSeeds), d.Selected[0].Action.Describe())
	for i := 1; i < len(d.Selected); i++ {
		assert.GreaterOrEqual(t, d.Selected[i-1].Score, d.Selected[i].Score)
	}
}
