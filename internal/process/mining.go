package process

import (
	"fmt"
	"math"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// Mining descent constants.
const (
	DescentRate       = 10.0 // metres per minute at pickaxe tier 1
	DescentTierBonus  = 0.2
	BaseDrain         = 1.0 // energy per minute in the first depth tier
	DrainGrowth       = 1.6
	DrainTierRelief   = 0.25
	DepthTierSize     = 500
	MarkerInterval    = 50
	MiningBonusChance = 0.10
)

// Stop reasons recorded on a finished session.
const (
	StopOutOfEnergy = "out of energy"
	StopBudgetSpent = "budget spent"
)

// Mining runs one descent. Energy is drained minute by minute; found
// materials are held by the session and granted when it ends.
type Mining struct {
	rules *validation.Service
}

func (m *Mining) Category() state.Category { return state.CategoryMining }

func (m *Mining) CanStart(data action.Action, st *state.GameState) validation.Result {
	_, ok := data.(action.StartMining)
	return base{m.rules}.check(data, ok, st)
}

func (m *Mining) Initialize(handle string, data action.Action, st *state.GameState) (InitResult, error) {
	start := data.(action.StartMining)
	if _, _, err := (base{m.rules}).reserve(data, st); err != nil {
		return InitResult{}, err
	}
	return InitResult{Payload: &state.MiningPayload{
		PickaxeTier:  max(st.Inventory.BestTier("pickaxe"), 1),
		EnergyBudget: start.EnergyBudget,
		NextMarker:   MarkerInterval,
		Found:        gamedata.Cost{},
	}}, nil
}

// DescentSpeed returns metres per minute for a pickaxe tier.
func DescentSpeed(tier int) float64 {
	return DescentRate * (1 + DescentTierBonus*float64(tier-1))
}

// DepthTier returns the one-based depth band of a depth in metres.
func DepthTier(depth float64) int {
	return int(depth)/DepthTierSize + 1
}

// DrainPerMinute returns the energy cost of one minute at depth.
func DrainPerMinute(depth float64, tier int) float64 {
	return BaseDrain * math.Pow(DrainGrowth, float64(DepthTier(depth)-1)) / (1 + DrainTierRelief*float64(tier-1))
}

func (m *Mining) Update(p *state.Process, dt int, st *state.GameState, catalog *gamedata.Catalog) UpdateResult {
	session := p.Payload.(*state.MiningPayload)
	var res UpdateResult
	available := st.Resource(state.Energy).Current

	for i := 0; i < dt; i++ {
		owed := session.DrainCarry + DrainPerMinute(session.Depth, session.PickaxeTier)
		whole := int(math.Floor(owed + 1e-9))
		if session.EnergySpent+whole > session.EnergyBudget {
			session.StopReason = StopBudgetSpent
			break
		}
		if whole > available {
			session.StopReason = StopOutOfEnergy
			break
		}
		session.DrainCarry = owed - float64(whole)
		session.EnergySpent += whole
		available -= whole
		res.Delta.AddResource(state.Energy, -whole)

		session.Depth += DescentSpeed(session.PickaxeTier)
		session.Minutes++
		for float64(session.NextMarker) <= session.Depth {
			m.dig(session, session.NextMarker, catalog, st)
			session.NextMarker += MarkerInterval
		}
	}

	res.Complete = session.StopReason != ""
	return res
}

// dig yields the deepest eligible material and one stone at a depth marker,
// plus a seeded bonus unit of the deepest material.
func (m *Mining) dig(session *state.MiningPayload, depth int, catalog *gamedata.Catalog, st *state.GameState) {
	var deepest *gamedata.ItemDef
	for _, def := range catalog.Mineable() {
		if def.MinDepth <= depth {
			deepest = def
		}
	}
	if deepest == nil {
		return
	}
	session.Found[deepest.ID]++
	session.Found["stone"]++
	if st.RNG.Float64() < MiningBonusChance {
		session.Found[deepest.ID]++
	}
}

func (m *Mining) Complete(p *state.Process, st *state.GameState) CompletionEffects {
	session := p.Payload.(*state.MiningPayload)
	return CompletionEffects{
		Grant: session.Found.Clone(),
		Depth: int(session.Depth),
		Events: []Note{{
			Type:       state.EventMiningResult,
			Importance: state.ImportanceInfo,
			Text: fmt.Sprintf("reached %.0fm in %d min for %d energy (%s), found %s",
				session.Depth, session.Minutes, session.EnergySpent, session.StopReason, describeCost(session.Found)),
		}},
	}
}

// Cancel abandons the session. Energy already drained is not returned.
func (m *Mining) Cancel(p *state.Process, st *state.GameState) {}
