package systems

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/action"
	"github.com/samdwyer/farmbalance/internal/combat"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/process"
	"github.com/samdwyer/farmbalance/internal/state"
)

// Hero recovery.
const (
	HeroRegenInterval = 10 // minutes per HP
	IdleRegenFactor   = 3
)

// Adventure handles adventure runs and hero equipment.
type Adventure struct {
	env      *Env
	resolver *combat.Resolver
}

// NewAdventure creates the adventure system.
func NewAdventure(env *Env) *Adventure {
	return &Adventure{env: env, resolver: combat.NewResolver()}
}

func (a *Adventure) Domain() state.Domain { return state.DomainAdventure }

func (a *Adventure) EvaluateActions(st *state.GameState) []Candidate {
	var out []Candidate
	next := nextAdventure(st)

	if w := bestWeaponFor(st, next); w != nil && !w.Equipped {
		out = append(out, candidate(st, action.Equip{Item: w.ID}, 6, 1))
	}
	if armor := bestArmor(st); armor != nil && !armor.Equipped {
		out = append(out, candidate(st, action.Equip{Item: armor.ID}, 6, 1))
	}

	if len(process.Active(st, state.CategoryCombat)) > 0 {
		return out
	}
	for _, def := range st.Catalog().ByKind(gamedata.KindAdventure) {
		if !available(st, def) {
			continue
		}
		outcome, _ := process.Resolve(a.resolver, def, st)
		risk := 1.0
		if outcome.Success && st.Hero.MaxHP > 0 {
			risk = float64(outcome.HPLost) / float64(st.Hero.MaxHP)
		}
		energy := max(def.Cost.Get(gamedata.CostEnergy), 1)
		c := candidate(st, action.StartAdventure{Adventure: def.ID}, 5,
			float64(def.GoldReward+def.ExpReward)/float64(energy*10))
		c.Risk = clamp01(risk)
		if !st.IsCompleted(def.ID) {
			c.Priority = 6
		}
		out = append(out, c)
	}
	return out
}

// nextAdventure is the first adventure not yet won, or the last one.
func nextAdventure(st *state.GameState) *gamedata.ItemDef {
	adventures := st.Catalog().ByKind(gamedata.KindAdventure)
	for _, def := range adventures {
		if !st.IsCompleted(def.ID) {
			return def
		}
	}
	if len(adventures) == 0 {
		return nil
	}
	return adventures[len(adventures)-1]
}

// bestWeaponFor picks the owned weapon with the most effective attack against
// the adventure's enemies, preferring the boss counter on ties.
func bestWeaponFor(st *state.GameState, adv *gamedata.ItemDef) *state.Item {
	var best *state.Item
	bestScore := -1.0
	for _, w := range st.Inventory.InSlot("weapon") {
		score := float64(w.Attack)
		if adv != nil {
			score *= combat.Advantage(combat.WeaponType(w.WeaponType), combat.EnemyType(adv.EnemyType))
			if boss, ok := st.Catalog().Get(adv.Boss); ok && boss.CounterWeapon == w.WeaponType {
				score += 0.5
			}
		}
		if score > bestScore {
			best, bestScore = w, score
		}
	}
	return best
}

func bestArmor(st *state.GameState) *state.Item {
	var best *state.Item
	for _, item := range st.Inventory.InSlot("armor") {
		if best == nil || item.Defense > best.Defense {
			best = item
		}
	}
	return best
}

func (a *Adventure) Execute(act action.Action, st *state.GameState) ActionResult {
	switch act := act.(type) {
	case action.StartAdventure:
		return a.env.start(state.CategoryCombat, act, st)
	case action.Equip:
		if err := st.EquipItem(act.Item); err != nil {
			return fail(err.Error())
		}
		return done("equipped " + act.Item)
	}
	return fail(fmt.Sprintf("adventure cannot execute %s", act.Kind()))
}

// Tick regenerates hero HP, faster while no run is underway.
func (a *Adventure) Tick(dt int, st *state.GameState) {
	n := crossed(st.Clock.Minute, dt, HeroRegenInterval)
	if len(process.Active(st, state.CategoryCombat)) == 0 {
		n *= IdleRegenFactor
	}
	st.HealHero(n)
}
