// Package persona defines the behavioral profiles that stand in for real players.
package persona

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/samdwyer/farmbalance/data"
	"github.com/samdwyer/farmbalance/internal/state"
)

// ErrUnknownPersona is returned when a persona id is not in the set.
var ErrUnknownPersona = errors.New("unknown persona")

// Preference keys.
const (
	Farming     = "farming"
	Adventuring = "adventuring"
	Crafting    = "crafting"
	Mining      = "mining"
	Helpers     = "helpers"
)

// domainPreference maps rule domains onto the preference a persona weights
// them by. Domains without an entry are weighted 1.
var domainPreference = map[state.Domain]string{
	state.DomainFarm:      Farming,
	state.DomainTower:     Farming,
	state.DomainAdventure: Adventuring,
	state.DomainForge:     Crafting,
	state.DomainMine:      Mining,
	state.DomainHelpers:   Helpers,
}

// CheckIn is how often a persona opens the game.
type CheckIn struct {
	WeekdayMinutes int `yaml:"weekdayMinutes"`
	WeekendMinutes int `yaml:"weekendMinutes"`
}

// Persona is one parameter bundle.
type Persona struct {
	ID                string             `yaml:"id"`
	Name              string             `yaml:"name"`
	CheckIn           CheckIn            `yaml:"checkIn"`
	WakeHour          int                `yaml:"wakeHour"`
	SleepHour         int                `yaml:"sleepHour"`
	RiskTolerance     float64            `yaml:"riskTolerance"`
	Efficiency        float64            `yaml:"efficiency"`
	ActionsPerCheckIn int                `yaml:"actionsPerCheckIn"`
	Preferences       map[string]float64 `yaml:"preferences"`
}

// Validate checks the ranges of every field.
func (p *Persona) Validate() error {
	switch {
	case p.ID == "":
		return errors.New("persona has no id")
	case p.CheckIn.WeekdayMinutes <= 0 || p.CheckIn.WeekendMinutes <= 0:
		return fmt.Errorf("persona %s: check-in intervals must be positive", p.ID)
	case p.WakeHour < 0 || p.WakeHour > 23 || p.SleepHour < 1 || p.SleepHour > 24:
		return fmt.Errorf("persona %s: wake/sleep hours out of range", p.ID)
	case p.WakeHour == p.SleepHour:
		return fmt.Errorf("persona %s: never awake", p.ID)
	case p.RiskTolerance < 0 || p.RiskTolerance > 1:
		return fmt.Errorf("persona %s: risk tolerance must be within [0, 1]", p.ID)
	case p.Efficiency < 0:
		return fmt.Errorf("persona %s: efficiency weight must not be negative", p.ID)
	case p.ActionsPerCheckIn <= 0:
		return fmt.Errorf("persona %s: actions per check-in must be positive", p.ID)
	}
	for key, w := range p.Preferences {
		if w < 0 {
			return fmt.Errorf("persona %s: preference %s is negative", p.ID, key)
		}
	}
	return nil
}

// Awake reports whether the persona is up at the clock's hour. A sleep hour
// earlier than the wake hour wraps past midnight.
func (p *Persona) Awake(c state.Clock) bool {
	h := c.Hour()
	if p.WakeHour < p.SleepHour {
		return h >= p.WakeHour && h < p.SleepHour
	}
	return h >= p.WakeHour || h < p.SleepHour
}

// Interval returns the minutes until the next check-in on the clock's day.
func (p *Persona) Interval(c state.Clock) int {
	if c.IsWeekend() {
		return p.CheckIn.WeekendMinutes
	}
	return p.CheckIn.WeekdayMinutes
}

// Preference returns the weight for actions in a domain.
func (p *Persona) Preference(d state.Domain) float64 {
	key, ok := domainPreference[d]
	if !ok {
		return 1
	}
	return p.Weight(key)
}

// Weight returns the preference stored under key, 1 when unset.
func (p *Persona) Weight(key string) float64 {
	if w, ok := p.Preferences[key]; ok {
		return w
	}
	return 1
}

// Set holds personas by id.
type Set struct {
	byID map[string]*Persona
	ids  []string
}

type document struct {
	Personas []Persona `yaml:"personas"`
}

// Parse decodes and validates a personas YAML document.
func Parse(raw []byte) (*Set, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse personas: %w", err)
	}
	set := &Set{byID: make(map[string]*Persona, len(doc.Personas))}
	for i := range doc.Personas {
		p := doc.Personas[i]
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := set.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate persona %q", p.ID)
		}
		set.byID[p.ID] = &p
		set.ids = append(set.ids, p.ID)
	}
	return set, nil
}

// LoadDefault loads the embedded personas.
func LoadDefault() (*Set, error) {
	raw, err := data.FS().ReadFile(data.PersonasFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded file %s: %w", data.PersonasFile, err)
	}
	return Parse(raw)
}

// LoadFile loads personas from a YAML file on disk.
func LoadFile(path string) (*Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read personas %s: %w", path, err)
	}
	return Parse(raw)
}

// Get returns the persona with the given id.
func (s *Set) Get(id string) (*Persona, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, id)
	}
	return p, nil
}

// IDs returns persona ids in file order.
func (s *Set) IDs() []string {
	return s.ids
}

// All returns every persona sorted by id.
func (s *Set) All() []*Persona {
	ids := append([]string(nil), s.ids...)
	sort.Strings(ids)
	out := make([]*Persona, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out
}
