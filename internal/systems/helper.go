package systems

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/process"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// Helper roles.
const (
	RoleWaterer   = "waterer"
	RoleHarvester = "harvester"
	RolePlanter   = "planter"
	RolePumper    = "pumper"
)

// Automation cadence.
const (
	BaseHelperInterval   = 30
	HelperIntervalPerLvl = 5
	MinHelperInterval    = 5
)

// HelperInterval returns the minutes between automated actions at a level.
func HelperInterval(level int) int {
	return max(MinHelperInterval, BaseHelperInterval-HelperIntervalPerLvl*level)
}

// Helper handles hiring and training helpers and runs their automation.
type Helper struct {
	env      *Env
	automate func(a action.Action, st *state.GameState, actor string) ActionResult
}

// NewHelper creates the helper system. Automation stays off until the
// router connects it.
func NewHelper(env *Env) *Helper {
	return &Helper{env: env}
}

func (h *Helper) Domain() state.Domain { return state.DomainHelpers }

func (h *Helper) EvaluateActions(st *state.GameState) []Candidate {
	var out []Candidate
	training := len(process.Active(st, state.CategoryTraining)) > 0
	for _, def := range st.Catalog().ByKind(gamedata.KindHelper) {
		level := st.HelperLevel(def.ID)
		switch {
		case level == 0 && available(st, def):
			c := candidate(st, action.HireHelper{Helper: def.ID}, 4, 1)
			if def.Role == RoleWaterer || def.Role == RolePumper {
				c.Resolves = []Bottleneck{BottleneckWater}
			}
			out = append(out, c)
		case level > 0 && level < validation.MaxHelperLevel && !training:
			gain := float64(HelperInterval(level)-HelperInterval(level+1)) / float64(HelperInterval(level))
			out = append(out, candidate(st, action.TrainHelper{Helper: def.ID}, 2, gain*4))
		}
	}
	return out
}

func (h *Helper) Execute(a action.Action, st *state.GameState) ActionResult {
	switch act := a.(type) {
	case action.HireHelper:
		plan, err := h.env.pay(act, st)
		if err != nil {
			return fail(err.Error())
		}
		if err := st.SetHelperLevel(plan.Def.ID, 1); err != nil {
			return fail(err.Error())
		}
		return done("hired " + plan.Def.ID)
	case action.TrainHelper:
		return h.env.start(state.CategoryTraining, act, st)
	}
	return fail(fmt.Sprintf("helpers cannot execute %s", a.Kind()))
}

// roleAction is what a helper with role would do right now, nil if nothing.
func roleAction(role string, st *state.GameState) action.Action {
	switch role {
	case RoleWaterer:
		return action.WaterCrops{}
	case RoleHarvester:
		return action.HarvestCrops{}
	case RolePumper:
		return action.PumpWater{}
	case RolePlanter:
		for _, def := range st.Catalog().ByKind(gamedata.KindCrop) {
			if st.Seeds[def.ID] > 0 {
				return action.PlantSeed{Crop: def.ID}
			}
		}
	}
	return nil
}

// Tick runs each hired helper whose interval elapsed, in id order. Helper
// actions go through the same validation and execution as player actions and
// are skipped quietly when not currently legal.
func (h *Helper) Tick(dt int, st *state.GameState) {
	if h.automate == nil {
		return
	}
	for _, id := range st.Progression.HelperIDs() {
		level := st.HelperLevel(id)
		if level <= 0 || crossed(st.Clock.Minute, dt, HelperInterval(level)) == 0 {
			continue
		}
		def, ok := st.Catalog().Get(id)
		if !ok {
			continue
		}
		act := roleAction(def.Role, st)
		if act == nil || !h.env.Rules.CanPerform(act, st).CanPerform {
			continue
		}
		res := h.automate(act, st, id)
		if res.Success {
			st.Emit(state.EventHelperAction, state.ImportanceDebug, state.DomainHelpers, "%s: %s", id, res.Description)
		}
	}
}
