package systems

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
)

func newRun(t *testing.T, start state.Start) (*Router, *state.GameState) {
	t.Helper()
	if start.Plots == 0 {
		start.Plots = 3
	}
	st, err := state.New(state.Options{Seed: 11, Catalog: gamedata.MustLoadCatalog(), Start: start})
	require.NoError(t, err)
	return NewRouter(NewEnv(nil)), st
}

// advance runs whole minutes the way the orchestrator does: clock, systems, processes.
func advance(t *testing.T, r *Router, st *state.GameState, minutes int) {
	t.Helper()
	for i := 0; i < minutes; i++ {
		st.Clock.Advance(1)
		require.Empty(t, r.TickAll(1, st).Errors)
		require.NoError(t, r.Env().Processes.Tick(1, st))
	}
}

func TestPlantWaterGrowHarvest(t *testing.T) {
	r, st := newRun(t, state.Start{
		Energy: 3,
		Water:  10,
		Gold:   75,
		Seeds:  map[string]int{"carrot": 1, "radish": 1},
	})

	res := r.Dispatch(action.PlantSeed{Crop: "carrot"}, st)
	require.True(t, res.Success, res.Description)
	assert.NotEmpty(t, res.Process)
	assert.Equal(t, 0, st.Seeds["carrot"])

	res = r.Dispatch(action.WaterCrops{}, st)
	require.True(t, res.Success, res.Description)
	assert.Equal(t, 9, st.Resource(state.Water).Current)

	advance(t, r, st, 6)
	assert.NotEmpty(t, st.Events.ByType(state.EventCropReady))

	res = r.Dispatch(action.HarvestCrops{}, st)
	require.True(t, res.Success, res.Description)

	if st.Resource(state.Energy).Current != 4 {
		t.Errorf("Expected energy 4 after harvest, got %d", st.Resource(state.Energy).Current)
	}
	if st.Processes.Len() != 0 {
		t.Errorf("Expected the plot to be free, got %d processes", st.Processes.Len())
	}
	harvests := st.Events.ByType(state.EventHarvest)
	require.Len(t, harvests, 1)
	assert.Equal(t, "harvested 1 crops for 1 energy", harvests[0].Description)
}

func TestHarvestAtFullEnergyReportsNoGain(t *testing.T) {
	r, st := newRun(t, state.Start{
		Energy: 100,
		Water:  10,
		Seeds:  map[string]int{"carrot": 1},
	})
	require.True(t, r.Dispatch(action.PlantSeed{Crop: "carrot"}, st).Success)
	require.True(t, r.Dispatch(action.WaterCrops{}, st).Success)
	advance(t, r, st, 6)

	require.True(t, r.Dispatch(action.HarvestCrops{}, st).Success)
	harvests := st.Events.ByType(state.EventHarvest)
	require.Len(t, harvests, 1)
	assert.Equal(t, "harvested 1 crops for 0 energy", harvests[0].Description)
	assert.Equal(t, 100, st.Resource(state.Energy).Current)
	assert.NotEmpty(t, st.Events.ByType(state.EventResourceOverflow))
}

func TestTradesReportWhatWasGained(t *testing.T) {
	r, st := newRun(t, state.Start{
		Gold:      4990,
		Materials: map[string]int{"copper_ore": 5},
	})

	res := r.Dispatch(action.BuySeeds{Crop: "carrot", Quantity: 3}, st)
	require.True(t, res.Success, res.Description)
	assert.Equal(t, "bought 3 carrot seeds", res.Description)
	assert.Equal(t, 3, st.Seeds["carrot"])

	gold := st.Resource(state.Gold).Current
	res = r.Dispatch(action.SellMaterial{Material: "copper_ore", Quantity: 5}, st)
	require.True(t, res.Success, res.Description)
	want := min(20, 5000-gold)
	assert.Equal(t, fmt.Sprintf("sold 5 copper_ore for %d gold", want), res.Description)
	assert.Equal(t, 5000, st.Resource(state.Gold).Current)
}

func TestUnwateredCropNeverReady(t *testing.T) {
	r, st := newRun(t, state.Start{Seeds: map[string]int{"carrot": 1}})

	require.True(t, r.Dispatch(action.PlantSeed{Crop: "carrot"}, st).Success)
	advance(t, r, st, 30)

	assert.Empty(t, st.Events.ByType(state.EventCropReady))
	res := r.Dispatch(action.HarvestCrops{}, st)
	assert.False(t, res.Success)
	assert.Equal(t, 1, st.Processes.Len())
}

func TestDispatchNavigatesPlayer(t *testing.T) {
	r, st := newRun(t, state.Start{Gold: 100})
	st.Clock.Advance(15)

	res := r.Dispatch(action.BuyItem{Item: "wooden_sword"}, st)
	require.True(t, res.Success, res.Description)
	assert.Equal(t, state.DomainTown, st.Location.Area)
	assert.Equal(t, 15, st.Location.Since)
	assert.Equal(t, 75, st.Resource(state.Gold).Current)
	assert.True(t, st.Inventory.Owns("wooden_sword"))

	var executed bool
	for _, e := range res.Events {
		if e.Type == state.EventActionExecuted {
			executed = true
		}
	}
	assert.True(t, executed, "result should carry its action_executed event")
}

func TestBlockedActionChangesNothing(t *testing.T) {
	r, st := newRun(t, state.Start{Gold: 10})
	before := st.Fingerprint()
	revision := st.Revision()

	res := r.Dispatch(action.BuyItem{Item: "pickaxe"}, st)
	assert.False(t, res.Success)
	assert.False(t, res.Validation.CanPerform)
	assert.Equal(t, map[string]int{gamedata.CostGold: 40}, res.Validation.ResourceShortfalls)
	assert.Equal(t, before, st.Fingerprint())
	assert.Equal(t, revision, st.Revision())
	assert.Equal(t, state.DomainFarm, st.Location.Area)
	assert.Len(t, st.Events.ByType(state.EventActionBlocked), 1)
}

func TestUnknownTargetIsCatalogMiss(t *testing.T) {
	r, st := newRun(t, state.Start{Seeds: map[string]int{"carrot": 1}})

	res := r.Dispatch(action.PlantSeed{Crop: "dragonfruit"}, st)
	assert.False(t, res.Success)
	assert.True(t, res.Validation.CatalogMiss)
	misses := st.Events.ByType(state.EventCatalogMiss)
	require.Len(t, misses, 1)
	assert.Equal(t, state.ImportanceWarning, misses[0].Importance)
}

func TestClearAreaPlotsOnlyGrow(t *testing.T) {
	r, st := newRun(t, state.Start{Energy: 10})

	res := r.Dispatch(action.ClearArea{Cleanup: "clear_weeds_1"}, st)
	require.True(t, res.Success, res.Description)
	assert.Equal(t, 4, st.Progression.Plots)
	assert.Equal(t, 8, st.Resource(state.Energy).Current)

	res = r.Dispatch(action.ClearArea{Cleanup: "clear_weeds_1"}, st)
	assert.False(t, res.Success)
	assert.Equal(t, 4, st.Progression.Plots)

	res = r.Dispatch(action.ClearArea{Cleanup: "clear_stumps_1"}, st)
	assert.False(t, res.Success)
	assert.Contains(t, res.Validation.MissingPrerequisites, "clear_weeds_3")
	assert.Equal(t, "axe", res.Validation.MissingTool)
}

func TestPumpAddsWaterUpToCapacity(t *testing.T) {
	r, st := newRun(t, state.Start{Water: 17})

	res := r.Dispatch(action.PumpWater{}, st)
	require.True(t, res.Success)
	assert.Equal(t, 20, st.Resource(state.Water).Current)

	assert.Equal(t, "pumped 3 water", res.Description)

	res = r.Dispatch(action.PumpWater{}, st)
	assert.False(t, res.Success)
	assert.Contains(t, res.Description, "full")
}

func TestPumpHandleRaisesPumpAmount(t *testing.T) {
	r, st := newRun(t, state.Start{Upgrades: []string{"pump_handle"}})

	require.True(t, r.Dispatch(action.PumpWater{}, st).Success)
	assert.Equal(t, 10, st.Resource(state.Water).Current)
}

func TestForgeHeatDecays(t *testing.T) {
	r, st := newRun(t, state.Start{})
	st.SetForgeHeat(10)

	advance(t, r, st, 6)
	assert.Equal(t, 7, st.ForgeHeat)

	advance(t, r, st, 30)
	assert.Equal(t, 0, st.ForgeHeat)
}

func TestStokeNeedsActiveJob(t *testing.T) {
	r, st := newRun(t, state.Start{
		Upgrades:  []string{"mine_entrance", "forge_building"},
		Materials: map[string]int{"wood": 5, "copper_ore": 3},
	})

	res := r.Dispatch(action.StokeForge{}, st)
	assert.False(t, res.Success)

	require.True(t, r.Dispatch(action.StartCraft{Recipe: "smelt_copper"}, st).Success)
	res = r.Dispatch(action.StokeForge{}, st)
	require.True(t, res.Success, res.Description)
	assert.Equal(t, 25, st.ForgeHeat)
	assert.Equal(t, 3, st.Materials["wood"])
	assert.Equal(t, state.DomainForge, st.Location.Area)
}

func TestWindmillRegeneratesEnergy(t *testing.T) {
	r, st := newRun(t, state.Start{Upgrades: []string{"energy_storage_1", "windmill"}})

	advance(t, r, st, 60)
	assert.Equal(t, 4, st.Resource(state.Energy).Current)
	assert.Equal(t, 150, st.Resource(state.Energy).Capacity)
}

func TestWellNeverOverfills(t *testing.T) {
	r, st := newRun(t, state.Start{Water: 19, Upgrades: []string{"well"}})

	advance(t, r, st, 120)
	assert.Equal(t, 20, st.Resource(state.Water).Current)
	assert.Empty(t, st.Events.ByType(state.EventResourceOverflow))
}

func TestHeroRegenFasterWhenIdle(t *testing.T) {
	r, st := newRun(t, state.Start{})
	st.DamageHero(20)

	advance(t, r, st, 10)
	assert.Equal(t, 13, st.Hero.HP)
}

func TestHelperWatersThroughValidation(t *testing.T) {
	r, st := newRun(t, state.Start{
		Water:    5,
		Seeds:    map[string]int{"radish": 1},
		Upgrades: []string{"helper_hut"},
	})
	require.NoError(t, st.SetHelperLevel("farmhand_waterer", 1))
	require.True(t, r.Dispatch(action.PlantSeed{Crop: "radish"}, st).Success)

	interval := HelperInterval(1)
	advance(t, r, st, interval-1)
	assert.Equal(t, 5, st.Resource(state.Water).Current)

	advance(t, r, st, 1)
	assert.Equal(t, 4, st.Resource(state.Water).Current)
	assert.NotEmpty(t, st.Events.ByType(state.EventHelperAction))
	assert.Equal(t, state.DomainFarm, st.Location.Area)
}

func TestTickReportCountsPassiveEventsByDomain(t *testing.T) {
	r, st := newRun(t, state.Start{
		Water:    5,
		Seeds:    map[string]int{"radish": 1},
		Upgrades: []string{"helper_hut"},
	})
	require.NoError(t, st.SetHelperLevel("farmhand_waterer", 1))
	require.True(t, r.Dispatch(action.PlantSeed{Crop: "radish"}, st).Success)
	advance(t, r, st, HelperInterval(1)-1)

	st.Clock.Advance(1)
	report := r.TickAll(1, st)
	assert.Empty(t, report.Errors)
	if report.Events[state.DomainHelpers] < 2 {
		t.Errorf("Expected the helper's action and its report, got %d helper events", report.Events[state.DomainHelpers])
	}
	assert.NotContains(t, report.Events, state.DomainFarm)

	st.Clock.Advance(1)
	assert.Empty(t, r.TickAll(1, st).Events)
}

func TestHelperSkipsQuietlyWhenNothingToDo(t *testing.T) {
	r, st := newRun(t, state.Start{Upgrades: []string{"helper_hut"}})
	require.NoError(t, st.SetHelperLevel("farmhand_harvester", 1))

	advance(t, r, st, 60)
	assert.Empty(t, st.Events.ByType(state.EventHelperAction))
	assert.Empty(t, st.Events.ByType(state.EventActionBlocked))
}

func TestHelperInterval(t *testing.T) {
	tests := []struct {
		level, want int
	}{
		{1, 25},
		{2, 20},
		{5, 5},
		{9, 5},
	}
	for _, tt := range tests {
		if got := HelperInterval(tt.level); got != tt.want {
			t.Errorf("Expected interval %d at level %d, got %d", tt.want, tt.level, got)
		}
	}
}

func TestEvaluateOffersOnlyLegalPlanting(t *testing.T) {
	r, st := newRun(t, state.Start{
		Water: 10,
		Gold:  75,
		Seeds: map[string]int{"carrot": 1, "radish": 1},
	})

	var plants []string
	for _, c := range r.Evaluate(st) {
		if p, ok := c.Action.(action.PlantSeed); ok {
			plants = append(plants, p.Crop)
		}
		assert.GreaterOrEqual(t, c.Efficiency, 0.0)
		assert.LessOrEqual(t, c.Efficiency, 1.0)
	}
	assert.Equal(t, []string{"carrot", "radish"}, plants)
}

func TestEvaluateOffersWeaponWhenUnarmed(t *testing.T) {
	r, st := newRun(t, state.Start{Gold: 100})

	var found bool
	for _, c := range r.Evaluate(st) {
		if b, ok := c.Action.(action.BuyItem); ok && b.Item == "wooden_sword" {
			found = true
			assert.Equal(t, 6.0, c.Priority)
		}
	}
	assert.True(t, found)
}

func TestTowerOffersCatchWhenSeedsLow(t *testing.T) {
	r, st := newRun(t, state.Start{
		Energy:   5,
		Items:    []string{"butterfly_net"},
		Upgrades: []string{"tower_1"},
	})

	var catch *Candidate
	for _, c := range r.Evaluate(st) {
		if _, ok := c.Action.(action.CatchSeeds); ok {
			catch = &c
		}
	}
	require.NotNil(t, catch)
	assert.True(t, catch.ResolvesBottleneck(BottleneckSeeds))

	require.True(t, r.Dispatch(action.CatchSeeds{}, st).Success)
	for _, c := range r.Evaluate(st) {
		_, ok := c.Action.(action.CatchSeeds)
		assert.False(t, ok, "no second catch while one is running")
	}
}

type panicSystem struct{}

func (panicSystem) Domain() state.Domain                                { return state.DomainTower }
func (panicSystem) EvaluateActions(*state.GameState) []Candidate        { return nil }
func (panicSystem) Execute(action.Action, *state.GameState) ActionResult { return ActionResult{} }
func (panicSystem) Tick(int, *state.GameState)                          { panic("boom") }

func TestPanickingSystemIsIsolated(t *testing.T) {
	r, st := newRun(t, state.Start{Upgrades: []string{"energy_storage_1", "windmill"}})
	r.systems = append(r.systems, panicSystem{})

	var errs []error
	for i := 0; i < 60; i++ {
		st.Clock.Advance(1)
		errs = r.TickAll(1, st).Errors
	}
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrSystemPanic))
	assert.Equal(t, 4, st.Resource(state.Energy).Current)
	assert.NotEmpty(t, st.Events.ByType(state.EventSystemError))
}

func TestCrossedAndPerHour(t *testing.T) {
	assert.Equal(t, 1, crossed(10, 1, 10))
	assert.Equal(t, 0, crossed(11, 1, 10))
	assert.Equal(t, 3, crossed(30, 30, 10))
	assert.Equal(t, 0, crossed(30, 0, 10))

	total := 0
	for m := 1; m <= 60; m++ {
		total += perHour(6, m, 1)
	}
	assert.Equal(t, 6, total)
}
