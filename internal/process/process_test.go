package process

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

func setup(t *testing.T, start state.Start) (*Registry, *state.GameState) {
	t.Helper()
	if start.Plots == 0 {
		start.Plots = 3
	}
	st, err := state.New(state.Options{Seed: 7, Catalog: gamedata.MustLoadCatalog(), Start: start})
	require.NoError(t, err)
	return NewRegistry(validation.NewService(nil), nil), st
}

func tick(t *testing.T, r *Registry, st *state.GameState, minutes int) {
	t.Helper()
	for i := 0; i < minutes; i++ {
		st.Clock.Advance(1)
		require.NoError(t, r.Tick(1, st))
	}
}

func TestMiningDescentAtTierOne(t *testing.T) {
	r, st := setup(t, state.Start{
		Energy:   100,
		Items:    []string{"pickaxe"},
		Upgrades: []string{"mine_entrance"},
	})

	p, err := r.Start(state.CategoryMining, action.StartMining{EnergyBudget: 50}, st)
	require.NoError(t, err)
	tick(t, r, st, 10)

	session := p.Payload.(*state.MiningPayload)
	assert.Equal(t, 100.0, session.Depth)
	assert.Equal(t, 90, st.Resource(state.Energy).Current)
	assert.Equal(t, 10, session.EnergySpent)
	assert.Equal(t, state.StatusRunning, p.Status)
	assert.GreaterOrEqual(t, session.Found["stone"], 3)
	assert.GreaterOrEqual(t, session.Found["copper_ore"], 1)
}

func TestMiningStopsWhenBudgetSpent(t *testing.T) {
	r, st := setup(t, state.Start{
		Energy:   100,
		Items:    []string{"pickaxe"},
		Upgrades: []string{"mine_entrance"},
	})

	p, err := r.Start(state.CategoryMining, action.StartMining{EnergyBudget: 5}, st)
	require.NoError(t, err)
	tick(t, r, st, 6)

	session := p.Payload.(*state.MiningPayload)
	assert.Equal(t, StopBudgetSpent, session.StopReason)
	assert.Equal(t, 0, st.Processes.Len())
	assert.Equal(t, 95, st.Resource(state.Energy).Current)
	assert.Equal(t, 50, st.Progression.MaxDepth)
	assert.GreaterOrEqual(t, st.Materials["stone"], 2)
	assert.NotEmpty(t, st.Events.ByType(state.EventMiningResult))
}

func TestMiningStopsWhenOutOfEnergy(t *testing.T) {
	r, st := setup(t, state.Start{
		Energy:   3,
		Items:    []string{"pickaxe"},
		Upgrades: []string{"mine_entrance"},
	})

	p, err := r.Start(state.CategoryMining, action.StartMining{EnergyBudget: 50}, st)
	require.NoError(t, err)
	tick(t, r, st, 5)

	session := p.Payload.(*state.MiningPayload)
	assert.Equal(t, StopOutOfEnergy, session.StopReason)
	assert.Equal(t, 30.0, session.Depth)
	assert.Equal(t, 0, st.Resource(state.Energy).Current)
	assert.Empty(t, st.Events.ByType(state.EventInvariantViolation))
}

func TestMiningFormulas(t *testing.T) {
	tests := []struct {
		depth float64
		tier  int
		drain float64
		speed float64
	}{
		{0, 1, 1.0, 10},
		{499, 1, 1.0, 10},
		{500, 1, 1.6, 10},
		{1000, 1, 2.56, 10},
		{0, 2, 0.8, 12},
		{500, 3, 1.6 / 1.5, 14},
	}

	for _, tt := range tests {
		if got := DrainPerMinute(tt.depth, tt.tier); math.Abs(got-tt.drain) > 1e-9 {
			t.Errorf("DrainPerMinute(%.0f, %d): expected %.4f, got %.4f", tt.depth, tt.tier, tt.drain, got)
		}
		if got := DescentSpeed(tt.tier); math.Abs(got-tt.speed) > 1e-9 {
			t.Errorf("DescentSpeed(%d): expected %.1f, got %.1f", tt.tier, tt.speed, got)
		}
	}
}

func TestMoisturePerWater(t *testing.T) {
	catalog := gamedata.MustLoadCatalog()
	tests := map[string]int{"carrot": 6, "radish": 10, "potato": 15, "tomato": 30, "corn": 40}

	for id, want := range tests {
		def, _ := catalog.Get(id)
		if got := MoisturePerWater(def); got != want {
			t.Errorf("%s: expected %d minutes per watering, got %d", id, want, got)
		}
	}
}

func TestCropOnlyGrowsWhenWatered(t *testing.T) {
	r, st := setup(t, state.Start{Seeds: map[string]int{"carrot": 1}})

	p, err := r.Start(state.CategoryGrowth, action.PlantSeed{Crop: "carrot"}, st)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Seeds["carrot"])

	tick(t, r, st, 3)
	crop := p.Payload.(*state.GrowthPayload)
	assert.Equal(t, 0, crop.Progress)
	assert.True(t, crop.NeedsWater())

	require.True(t, Water(p))
	assert.False(t, Water(p), "watered crop should not take more water")
	tick(t, r, st, 6)

	assert.True(t, crop.Ready)
	assert.Equal(t, state.StatusCompleted, p.Status)
	assert.Equal(t, 1, st.Processes.Occupying(state.CategoryGrowth), "ready crop keeps its plot")
	assert.Len(t, st.Events.ByType(state.EventCropReady), 1)
}

func TestGrowthLimitIsPlotCount(t *testing.T) {
	r, st := setup(t, state.Start{Plots: 1, Seeds: map[string]int{"carrot": 2}})

	_, err := r.Start(state.CategoryGrowth, action.PlantSeed{Crop: "carrot"}, st)
	require.NoError(t, err)
	_, err = r.Start(state.CategoryGrowth, action.PlantSeed{Crop: "carrot"}, st)

	assert.True(t, errors.Is(err, ErrConcurrencyLimit), "got %v", err)
	assert.Equal(t, 1, st.Seeds["carrot"], "rejected start must not spend")
}

func craftStart() state.Start {
	return state.Start{
		Upgrades:  []string{"forge_building"},
		Materials: map[string]int{"copper_ore": 6, "wood": 2},
	}
}

func TestSecondCraftJobRejected(t *testing.T) {
	r, st := setup(t, craftStart())

	_, err := r.Start(state.CategoryCrafting, action.StartCraft{Recipe: "smelt_copper"}, st)
	require.NoError(t, err)
	_, err = r.Start(state.CategoryCrafting, action.StartCraft{Recipe: "smelt_copper"}, st)

	assert.True(t, errors.Is(err, ErrConcurrencyLimit), "got %v", err)
	assert.Equal(t, 3, st.Materials["copper_ore"])
}

func TestCraftingSpeedDependsOnHeat(t *testing.T) {
	r, st := setup(t, craftStart())

	p, err := r.Start(state.CategoryCrafting, action.StartCraft{Recipe: "smelt_copper"}, st)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Materials["copper_ore"])
	assert.Equal(t, 1, st.Materials["wood"])

	tick(t, r, st, 10)
	job := p.Payload.(*state.CraftPayload)
	assert.Equal(t, 5.0, job.Progress)

	st.SetForgeHeat(100)
	tick(t, r, st, 5)

	assert.Equal(t, 0, st.Processes.Len())
	assert.Equal(t, 1, st.Materials["copper_bar"])
	assert.Len(t, st.Events.ByType(state.EventItemCrafted), 1)
}

func TestCancelCraftRefundsMaterials(t *testing.T) {
	r, st := setup(t, craftStart())

	p, err := r.Start(state.CategoryCrafting, action.StartCraft{Recipe: "smelt_copper"}, st)
	require.NoError(t, err)
	require.NoError(t, r.Cancel(p.Handle, st))

	assert.Equal(t, 6, st.Materials["copper_ore"])
	assert.Equal(t, 2, st.Materials["wood"])
	assert.Equal(t, 0, st.Processes.Len())
	assert.Equal(t, state.StatusCancelled, p.Status)
	assert.Len(t, st.Events.ByType(state.EventProcessCancelled), 1)
}

func TestCombatRunPaysOutAtCompletion(t *testing.T) {
	r, st := setup(t, state.Start{Energy: 20, Items: []string{"wooden_sword"}})

	p, err := r.Start(state.CategoryCombat, action.StartAdventure{Adventure: "meadow_patrol"}, st)
	require.NoError(t, err)
	assert.Equal(t, 15, st.Resource(state.Energy).Current)

	run := p.Payload.(*state.CombatPayload)
	require.True(t, run.Outcome.Success)
	assert.Equal(t, state.BaseHeroHP, st.Hero.HP, "damage lands when the run returns")

	tick(t, r, st, 19)
	assert.Equal(t, 0, st.Resource(state.Gold).Current)
	tick(t, r, st, 1)

	assert.Equal(t, 20, st.Resource(state.Gold).Current)
	assert.Equal(t, 15, st.Hero.Experience)
	assert.Equal(t, state.BaseHeroHP-run.Outcome.HPLost, st.Hero.HP)
	assert.True(t, st.IsCompleted("meadow_patrol"))
	assert.Equal(t, 0, st.Processes.Len())
}

func TestCombatResolveIsPure(t *testing.T) {
	r, st := setup(t, state.Start{Energy: 20, Items: []string{"wooden_sword"}})
	h, _ := r.Handler(state.CategoryCombat)
	def, _ := st.Catalog().Get("goblin_camp")

	a, _ := Resolve(h.(*Combat).resolver, def, st)
	b, _ := Resolve(h.(*Combat).resolver, def, st)

	assert.Equal(t, a, b)
	assert.False(t, a.Success, "starter sword should not beat the goblin camp")
	assert.Equal(t, state.BaseHeroHP, st.Hero.HP)
}

func TestTrainingRaisesHelperLevel(t *testing.T) {
	r, st := setup(t, state.Start{Gold: 100})
	require.NoError(t, st.SetHelperLevel("farmhand_waterer", 1))

	_, err := r.Start(state.CategoryTraining, action.TrainHelper{Helper: "farmhand_waterer"}, st)
	require.NoError(t, err)
	assert.Equal(t, 50, st.Resource(state.Gold).Current)

	tick(t, r, st, 30)
	assert.Equal(t, 2, st.HelperLevel("farmhand_waterer"))
}

func TestSeedCatchYield(t *testing.T) {
	r, st := setup(t, state.Start{
		Energy:   5,
		Upgrades: []string{"tower_1"},
		Items:    []string{"butterfly_net"},
	})

	_, err := r.Start(state.CategorySeedCatch, action.CatchSeeds{}, st)
	require.NoError(t, err)
	tick(t, r, st, 15)

	caught := st.Seeds["carrot"] + st.Seeds["radish"]
	assert.Contains(t, []int{4, 8}, caught)
	assert.Equal(t, 4, CatchSize(1, 1))
	assert.Len(t, st.Events.ByType(state.EventSeedsCaught), 1)
}

func TestStartErrors(t *testing.T) {
	r, st := setup(t, state.Start{})

	_, err := r.Start(state.Category("fishing"), action.CatchSeeds{}, st)
	assert.True(t, errors.Is(err, ErrNoHandler))

	_, err = r.Start(state.CategoryGrowth, action.PumpWater{}, st)
	assert.True(t, errors.Is(err, ErrCannotStart))

	_, err = r.Start(state.CategoryGrowth, action.PlantSeed{Crop: "carrot"}, st)
	assert.True(t, errors.Is(err, ErrCannotStart))
	assert.Equal(t, 0, st.Processes.Len())
}

// stubHandler records update order and returns a fixed delta.
type stubHandler struct {
	delta   state.Delta
	updates *[]string
}

func (h *stubHandler) Category() state.Category { return "stub" }

func (h *stubHandler) CanStart(action.Action, *state.GameState) validation.Result {
	return validation.Allowed()
}

func (h *stubHandler) Initialize(string, action.Action, *state.GameState) (InitResult, error) {
	return InitResult{Payload: &state.SeedCatchPayload{Duration: 100}}, nil
}

func (h *stubHandler) Update(p *state.Process, _ int, _ *state.GameState, _ *gamedata.Catalog) UpdateResult {
	*h.updates = append(*h.updates, p.Handle)
	return UpdateResult{Delta: h.delta}
}

func (h *stubHandler) Complete(*state.Process, *state.GameState) CompletionEffects {
	return CompletionEffects{}
}

func (h *stubHandler) Cancel(*state.Process, *state.GameState) {}

func TestTickMergesDeltasAdditively(t *testing.T) {
	r, st := setup(t, state.Start{Energy: 10})
	r.limits = validation.Limits{"stub": 3}
	var updates []string
	stub := &stubHandler{updates: &updates}
	stub.delta.AddResource(state.Energy, 2)
	r.Register(stub)

	for i := 0; i < 3; i++ {
		_, err := r.Start("stub", action.PumpWater{}, st)
		require.NoError(t, err)
	}
	require.NoError(t, r.Tick(1, st))

	assert.Equal(t, []string{"stub-1", "stub-2", "stub-3"}, updates)
	assert.Equal(t, 16, st.Resource(state.Energy).Current)

	_, err := r.Start("stub", action.PumpWater{}, st)
	assert.True(t, errors.Is(err, ErrConcurrencyLimit))
}

func TestTickUnderflowIsInvariantViolation(t *testing.T) {
	r, st := setup(t, state.Start{Energy: 10})
	var updates []string
	stub := &stubHandler{updates: &updates}
	stub.delta.AddResource(state.Energy, -50)
	r.Register(stub)

	_, err := r.Start("stub", action.PumpWater{}, st)
	require.NoError(t, err)
	err = r.Tick(1, st)

	assert.True(t, errors.Is(err, state.ErrInvariantViolation))
	assert.Equal(t, 10, st.Resource(state.Energy).Current)
	assert.Len(t, st.Events.ByType(state.EventInvariantViolation), 1)
}
