package gamedata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Well-known cost keys that map onto bounded resources rather than materials.
const (
	CostEnergy = "energy"
	CostGold   = "gold"
	CostWater  = "water"
)

// Cost maps a normalized material or resource name to a quantity.
type Cost map[string]int

// Names returns the cost keys in sorted order.
func (c Cost) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (c Cost) Clone() Cost {
	out := make(Cost, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Get returns the quantity for name, zero when absent.
func (c Cost) Get(name string) int {
	return c[name]
}

// NormalizeName converts a display name into its catalog key:
// lower case, trimmed, with spaces and hyphens collapsed into underscores.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		if r == ' ' || r == '-' || r == '_' || r == '\t' {
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		}
		b.WriteRune(r)
		lastUnderscore = false
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ParseCost parses "Name xN;Name xN" into a Cost. Empty input yields an empty Cost.
// Repeated names accumulate.
func ParseCost(text string) (Cost, error) {
	cost := make(Cost)
	for _, token := range strings.Split(text, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		idx := strings.LastIndexAny(token, "xX")
		if idx <= 0 || idx == len(token)-1 || token[idx-1] != ' ' {
			return nil, fmt.Errorf("invalid cost token %q: want \"Name xN\"", token)
		}

		qty, err := strconv.Atoi(strings.TrimSpace(token[idx+1:]))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in cost token %q: %w", token, err)
		}
		if qty <= 0 {
			return nil, fmt.Errorf("invalid quantity in cost token %q: must be positive", token)
		}

		name := NormalizeName(token[:idx])
		if name == "" {
			return nil, fmt.Errorf("invalid cost token %q: empty name", token)
		}
		cost[name] += qty
	}
	return cost, nil
}

// ParseDuration parses "<N> min" or "<N> hour" style strings into minutes.
// Empty input is an instant action and yields zero.
func ParseDuration(text string) (int, error) {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return 0, nil
	}

	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, fmt.Errorf("invalid duration %q: want \"<N> min\" or \"<N> hour\"", text)
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative", text)
	}

	switch fields[1] {
	case "m", "min", "mins", "minute", "minutes":
		return n, nil
	case "h", "hr", "hrs", "hour", "hours":
		return n * 60, nil
	case "d", "day", "days":
		return n * 1440, nil
	default:
		return 0, fmt.Errorf("invalid duration unit in %q", text)
	}
}

// Prerequisite is one parsed prerequisite entry.
type Prerequisite struct {
	Raw       string
	ID        string // plain id, empty for thresholds
	Threshold string // threshold key, empty for plain ids
	Min       int
}

// IsThreshold reports whether the prerequisite is a "key:N" threshold.
func (p Prerequisite) IsThreshold() bool {
	return p.Threshold != ""
}

// Threshold keys understood in prerequisites.
const (
	ThresholdHeroLevel  = "hero_level"
	ThresholdPlots      = "plots"
	ThresholdMaxDepth   = "max_depth"
	ThresholdTowerLevel = "tower_level"
	ThresholdDay        = "day"
)

var thresholdKeys = map[string]bool{
	ThresholdHeroLevel:  true,
	ThresholdPlots:      true,
	ThresholdMaxDepth:   true,
	ThresholdTowerLevel: true,
	ThresholdDay:        true,
}

// ParsePrerequisite parses either a plain id or a "key:N" threshold.
func ParsePrerequisite(raw string) (Prerequisite, error) {
	raw = strings.TrimSpace(raw)
	key, value, found := strings.Cut(raw, ":")
	if !found {
		return Prerequisite{Raw: raw, ID: raw}, nil
	}
	key = strings.TrimSpace(key)
	if !thresholdKeys[key] {
		return Prerequisite{}, fmt.Errorf("unknown prerequisite threshold %q", raw)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return Prerequisite{}, fmt.Errorf("invalid prerequisite threshold %q: %w", raw, err)
	}
	return Prerequisite{Raw: raw, Threshold: key, Min: n}, nil
}
