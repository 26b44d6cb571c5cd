package state

import (
	"fmt"
	"strings"
)

// MaxForgeHeat is the hottest the forge can get.
const MaxForgeHeat = 100

// Delta is an additive change produced by a process update. Deltas from
// several handlers in one tick are merged by summing, never by overwriting.
type Delta struct {
	Resources  map[ResourceKind]int
	Seeds      map[string]int
	Materials  map[string]int
	HeroHP     int
	Experience int
	ForgeHeat  int
}

// AddResource accumulates a bounded resource change.
func (d *Delta) AddResource(kind ResourceKind, n int) {
	if n == 0 {
		return
	}
	if d.Resources == nil {
		d.Resources = make(map[ResourceKind]int)
	}
	d.Resources[kind] += n
}

// AddSeeds accumulates a seed change.
func (d *Delta) AddSeeds(crop string, n int) {
	if n == 0 {
		return
	}
	if d.Seeds == nil {
		d.Seeds = make(map[string]int)
	}
	d.Seeds[crop] += n
}

// AddMaterial accumulates a material change.
func (d *Delta) AddMaterial(name string, n int) {
	if n == 0 {
		return
	}
	if d.Materials == nil {
		d.Materials = make(map[string]int)
	}
	d.Materials[name] += n
}

// Merge adds another delta into d.
func (d *Delta) Merge(o Delta) {
	for k, v := range o.Resources {
		d.AddResource(k, v)
	}
	for k, v := range o.Seeds {
		d.AddSeeds(k, v)
	}
	for k, v := range o.Materials {
		d.AddMaterial(k, v)
	}
	d.HeroHP += o.HeroHP
	d.Experience += o.Experience
	d.ForgeHeat += o.ForgeHeat
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	for _, v := range d.Resources {
		if v != 0 {
			return false
		}
	}
	for _, v := range d.Seeds {
		if v != 0 {
			return false
		}
	}
	for _, v := range d.Materials {
		if v != 0 {
			return false
		}
	}
	return d.HeroHP == 0 && d.Experience == 0 && d.ForgeHeat == 0
}

// ApplyDelta merges d into the state. Negative entries that would take a
// counter below zero are invariant violations and leave the state untouched;
// positive entries clamp at capacity with overflow events.
func (s *GameState) ApplyDelta(d Delta) error {
	var problems []string
	for _, kind := range BoundedKinds {
		if n := d.Resources[kind]; n < 0 && s.Bounded[kind].Current+n < 0 {
			problems = append(problems, fmt.Sprintf("%s %d%+d", kind, s.Bounded[kind].Current, n))
		}
	}
	for _, crop := range sortedKeys(d.Seeds) {
		if n := d.Seeds[crop]; n < 0 && s.Seeds[crop]+n < 0 {
			problems = append(problems, fmt.Sprintf("%s seeds %d%+d", crop, s.Seeds[crop], n))
		}
	}
	for _, name := range sortedKeys(d.Materials) {
		if n := d.Materials[name]; n < 0 && s.Materials[name]+n < 0 {
			problems = append(problems, fmt.Sprintf("%s %d%+d", name, s.Materials[name], n))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: delta underflow: %s", ErrInvariantViolation, strings.Join(problems, ", "))
	}

	for _, kind := range BoundedKinds {
		n := d.Resources[kind]
		if n > 0 {
			s.Add(kind, n)
		} else if n < 0 {
			if err := s.Spend(kind, -n); err != nil {
				return err
			}
		}
	}
	for _, crop := range sortedKeys(d.Seeds) {
		n := d.Seeds[crop]
		if n > 0 {
			s.AddSeeds(crop, n)
		} else if err := s.SpendSeeds(crop, -n); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(d.Materials) {
		n := d.Materials[name]
		if n > 0 {
			s.AddMaterial(name, n)
		} else if err := s.SpendMaterial(name, -n); err != nil {
			return err
		}
	}
	if d.HeroHP > 0 {
		s.HealHero(d.HeroHP)
	} else if d.HeroHP < 0 {
		s.DamageHero(-d.HeroHP)
	}
	s.GainExperience(d.Experience)
	if d.ForgeHeat != 0 {
		s.SetForgeHeat(s.ForgeHeat + d.ForgeHeat)
	}
	return nil
}

// SetForgeHeat sets the forge heat, clamped to [0, MaxForgeHeat].
func (s *GameState) SetForgeHeat(heat int) {
	heat = clamp(heat, 0, MaxForgeHeat)
	if heat != s.ForgeHeat {
		s.ForgeHeat = heat
		s.touch()
	}
}
