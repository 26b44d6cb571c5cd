package process

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// DefaultTrainingMinutes applies when a helper record has no duration.
const DefaultTrainingMinutes = 30

// Training raises a hired helper by one level.
type Training struct {
	rules *validation.Service
}

func (t *Training) Category() state.Category { return state.CategoryTraining }

func (t *Training) CanStart(data action.Action, st *state.GameState) validation.Result {
	_, ok := data.(action.TrainHelper)
	return base{t.rules}.check(data, ok, st)
}

func (t *Training) Initialize(handle string, data action.Action, st *state.GameState) (InitResult, error) {
	def, paid, err := base{t.rules}.reserve(data, st)
	if err != nil {
		return InitResult{}, err
	}
	duration := def.Duration
	if duration <= 0 {
		duration = DefaultTrainingMinutes
	}
	return InitResult{Payload: &state.TrainingPayload{
		Helper:      def.ID,
		Duration:    duration,
		TargetLevel: st.HelperLevel(def.ID) + 1,
		Reserved:    paid,
	}}, nil
}

func (t *Training) Update(p *state.Process, dt int, st *state.GameState, _ *gamedata.Catalog) UpdateResult {
	job := p.Payload.(*state.TrainingPayload)
	job.Progress = min(job.Progress+dt, job.Duration)
	return UpdateResult{Complete: job.Progress >= job.Duration}
}

func (t *Training) Complete(p *state.Process, st *state.GameState) CompletionEffects {
	job := p.Payload.(*state.TrainingPayload)
	return CompletionEffects{
		Helper: job.Helper,
		Level:  job.TargetLevel,
		Events: []Note{{
			Type:       state.EventHelperAction,
			Importance: state.ImportanceInfo,
			Text:       fmt.Sprintf("%s trained to level %d", job.Helper, job.TargetLevel),
		}},
	}
}

func (t *Training) Cancel(p *state.Process, st *state.GameState) {
	job := p.Payload.(*state.TrainingPayload)
	st.Grant(job.Reserved)
}
