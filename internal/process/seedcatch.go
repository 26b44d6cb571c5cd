package process

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// Seed catching constants.
const (
	BaseSeedCatch        = 2
	SeedCatchBonusChance = 0.15
)

// SeedCatch catches seeds at the tower. The crop is drawn when the session
// ends, from crops the player could plant, favouring earlier catalog entries.
type SeedCatch struct {
	rules *validation.Service
}

func (s *SeedCatch) Category() state.Category { return state.CategorySeedCatch }

func (s *SeedCatch) CanStart(data action.Action, st *state.GameState) validation.Result {
	_, ok := data.(action.CatchSeeds)
	return base{s.rules}.check(data, ok, st)
}

func (s *SeedCatch) Initialize(handle string, data action.Action, st *state.GameState) (InitResult, error) {
	def, _, err := base{s.rules}.reserve(data, st)
	if err != nil {
		return InitResult{}, err
	}
	return InitResult{Payload: &state.SeedCatchPayload{
		Duration:   def.Duration,
		NetTier:    st.Inventory.BestTier("net"),
		TowerLevel: st.Progression.TowerLevel,
	}}, nil
}

// CatchSize returns the seeds caught in one session before the bonus roll.
func CatchSize(towerLevel, netTier int) int {
	return BaseSeedCatch + towerLevel + netTier
}

func (s *SeedCatch) Update(p *state.Process, dt int, st *state.GameState, _ *gamedata.Catalog) UpdateResult {
	session := p.Payload.(*state.SeedCatchPayload)
	session.Progress = min(session.Progress+dt, session.Duration)
	return UpdateResult{Complete: session.Progress >= session.Duration}
}

func (s *SeedCatch) Complete(p *state.Process, st *state.GameState) CompletionEffects {
	session := p.Payload.(*state.SeedCatchPayload)
	crop := drawCrop(st)
	if crop == "" {
		return CompletionEffects{Events: []Note{{
			Type:       state.EventSeedsCaught,
			Importance: state.ImportanceWarning,
			Text:       "no plantable crop to catch",
		}}}
	}

	n := CatchSize(session.TowerLevel, session.NetTier)
	bonus := st.RNG.Float64() < SeedCatchBonusChance
	if bonus {
		n *= 2
	}
	eff := CompletionEffects{}
	eff.Delta.AddSeeds(crop, n)
	text := fmt.Sprintf("caught %d %s seeds", n, crop)
	if bonus {
		text += " (bonus)"
	}
	eff.Events = []Note{{Type: state.EventSeedsCaught, Importance: state.ImportanceInfo, Text: text}}
	return eff
}

// drawCrop picks a crop whose prerequisites are met. The i-th of n eligible
// crops has weight n-i.
func drawCrop(st *state.GameState) string {
	var eligible []string
	for _, def := range st.Catalog().ByKind(gamedata.KindCrop) {
		if len(st.MissingPrerequisites(def)) == 0 {
			eligible = append(eligible, def.ID)
		}
	}
	n := len(eligible)
	if n == 0 {
		return ""
	}
	roll := st.RNG.IntN(n * (n + 1) / 2)
	for i, id := range eligible {
		weight := n - i
		if roll < weight {
			return id
		}
		roll -= weight
	}
	return eligible[n-1]
}

func (s *SeedCatch) Cancel(p *state.Process, st *state.GameState) {}
