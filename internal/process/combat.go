package process

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/combat"
	"github.com/samdwyer/farmbalance/internal/entity"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// Combat runs adventures. The fight is resolved when the run starts; the
// process only waits out the adventure's duration before paying out.
type Combat struct {
	rules    *validation.Service
	resolver *combat.Resolver
}

func (c *Combat) Category() state.Category { return state.CategoryCombat }

func (c *Combat) CanStart(data action.Action, st *state.GameState) validation.Result {
	_, ok := data.(action.StartAdventure)
	return base{c.rules}.check(data, ok, st)
}

func (c *Combat) Initialize(handle string, data action.Action, st *state.GameState) (InitResult, error) {
	def, _, err := base{c.rules}.reserve(data, st)
	if err != nil {
		return InitResult{}, err
	}
	outcome, notes := Resolve(c.resolver, def, st)
	outcome = rollRewards(outcome, def, st)

	init := InitResult{Payload: &state.CombatPayload{
		Adventure: def.ID,
		Duration:  def.Duration,
		Outcome:   outcome,
	}}
	for _, n := range notes {
		init.Notes = append(init.Notes, Note{Type: state.EventCatalogMiss, Importance: state.ImportanceWarning, Text: n})
	}
	return init, nil
}

// Resolve fights an adventure against a snapshot of the hero. It draws no
// random numbers and does not touch st, so it can also preview a run.
func Resolve(resolver *combat.Resolver, def *gamedata.ItemDef, st *state.GameState) (state.CombatOutcome, []string) {
	hero := entity.NewHero(st)
	enc, notes := entity.BuildEncounter(def, st.Catalog())
	out := resolver.Run(hero, hero.Weapon, enc)
	return state.CombatOutcome{
		Success:      out.Success,
		HPRemaining:  out.HPRemaining,
		HPLost:       out.HPLost,
		Rounds:       out.Rounds,
		WavesCleared: out.WavesCleared,
		Boss:         def.Boss,
		BossDefeated: out.BossDefeated,
	}, notes
}

// rollRewards fills in gold, experience and seeded loot for a won run.
func rollRewards(out state.CombatOutcome, def *gamedata.ItemDef, st *state.GameState) state.CombatOutcome {
	if !out.Success {
		return out
	}
	out.Gold = def.GoldReward
	out.Experience = def.ExpReward
	if len(def.Loot) > 0 && st.RNG.Float64() < def.LootChance {
		out.Loot = def.Loot.Clone()
	}
	return out
}

func (c *Combat) Update(p *state.Process, dt int, st *state.GameState, _ *gamedata.Catalog) UpdateResult {
	run := p.Payload.(*state.CombatPayload)
	run.Elapsed = min(run.Elapsed+dt, run.Duration)
	return UpdateResult{Complete: run.Elapsed >= run.Duration}
}

func (c *Combat) Complete(p *state.Process, st *state.GameState) CompletionEffects {
	run := p.Payload.(*state.CombatPayload)
	out := run.Outcome

	// HP recovered while the run was away is kept; the loss never exceeds current HP.
	eff := CompletionEffects{}
	eff.Delta.HeroHP = -min(out.HPLost, st.Hero.HP)
	if out.Success {
		eff.Delta.AddResource(state.Gold, out.Gold)
		eff.Delta.Experience = out.Experience
		eff.Grant = out.Loot
		eff.OneShots = []string{run.Adventure}
	}

	text := fmt.Sprintf("%s failed after %d rounds, lost %d HP", run.Adventure, out.Rounds, out.HPLost)
	importance := state.ImportanceWarning
	if out.Success {
		text = fmt.Sprintf("%s cleared in %d rounds: +%d gold, +%d exp, loot %s, lost %d HP",
			run.Adventure, out.Rounds, out.Gold, out.Experience, describeCost(out.Loot), out.HPLost)
		importance = state.ImportanceInfo
		if out.BossDefeated {
			importance = state.ImportanceHigh
		}
	}
	eff.Events = []Note{{Type: state.EventCombatResult, Importance: importance, Text: text}}
	return eff
}

// Cancel abandons the run. The energy spent to start it is not returned.
func (c *Combat) Cancel(p *state.Process, st *state.GameState) {}
