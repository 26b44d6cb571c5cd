package systems

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/process"
	"github.com/samdwyer/farmbalance/internal/state"
)

// LowSeedStock is the seed count below which catching seeds relieves a shortage.
const LowSeedStock = 3

// Tower handles seed catching.
type Tower struct {
	env *Env
}

// NewTower creates the tower system.
func NewTower(env *Env) *Tower {
	return &Tower{env: env}
}

func (t *Tower) Domain() state.Domain { return state.DomainTower }

func (t *Tower) EvaluateActions(st *state.GameState) []Candidate {
	if st.Progression.TowerLevel == 0 || st.Inventory.BestTier("net") < 1 ||
		len(process.Active(st, state.CategorySeedCatch)) > 0 {
		return nil
	}
	size := process.CatchSize(st.Progression.TowerLevel, st.Inventory.BestTier("net"))
	c := candidate(st, action.CatchSeeds{}, 3, float64(size)/10)
	if TotalSeeds(st) < LowSeedStock {
		c.Priority = 6
		c.Resolves = []Bottleneck{BottleneckSeeds}
	}
	return []Candidate{c}
}

// TotalSeeds counts seeds of every crop.
func TotalSeeds(st *state.GameState) int {
	total := 0
	for _, n := range st.Seeds {
		total += n
	}
	return total
}

func (t *Tower) Execute(a action.Action, st *state.GameState) ActionResult {
	if act, ok := a.(action.CatchSeeds); ok {
		return t.env.start(state.CategorySeedCatch, act, st)
	}
	return fail(fmt.Sprintf("tower cannot execute %s", a.Kind()))
}

func (t *Tower) Tick(dt int, st *state.GameState) {}

// SeedShortage reports whether free plots outnumber the seeds in store.
func SeedShortage(st *state.GameState) bool {
	free := st.FreePlots()
	return free > 0 && TotalSeeds(st) < free
}
