package gamedata

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samdwyer/farmbalance/data"
)

var (
	// ErrUnknownItem is returned when an id has no catalog definition.
	ErrUnknownItem = errors.New("unknown catalog item")
	// ErrPrerequisiteCycle is returned when prerequisites reference each other in a loop.
	ErrPrerequisiteCycle = errors.New("prerequisite cycle")
)

// Catalog holds loaded item definitions in insertion order and provides lookups.
type Catalog struct {
	items    map[string]*ItemDef
	order    []string
	index    map[string]int
	warnings []string
}

// NewCatalog parses the text fields of every record and validates the prerequisite graph.
func NewCatalog(items []ItemDef) (*Catalog, error) {
	c := &Catalog{
		items: make(map[string]*ItemDef, len(items)),
		order: make([]string, 0, len(items)),
		index: make(map[string]int, len(items)),
	}

	for i := range items {
		def := items[i]
		if def.ID == "" {
			return nil, fmt.Errorf("catalog record %d has no id", i)
		}
		if _, dup := c.items[def.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", def.ID)
		}
		if err := parseItem(&def); err != nil {
			return nil, fmt.Errorf("item %s: %w", def.ID, err)
		}
		c.items[def.ID] = &def
		c.index[def.ID] = len(c.order)
		c.order = append(c.order, def.ID)
	}

	if err := c.checkReferences(); err != nil {
		return nil, err
	}
	if err := c.checkCycles(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseItem(def *ItemDef) error {
	var err error
	if def.Cost, err = ParseCost(def.CostText); err != nil {
		return err
	}
	if def.Duration, err = ParseDuration(def.DurationText); err != nil {
		return err
	}
	if def.Output, err = ParseCost(def.OutputText); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if def.Loot, err = ParseCost(def.LootText); err != nil {
		return fmt.Errorf("loot: %w", err)
	}
	for _, raw := range def.Prerequisites {
		if _, err := ParsePrerequisite(raw); err != nil {
			return err
		}
	}
	return nil
}

// checkReferences records warnings for prerequisites that name no catalog item
// and fails on dangling boss and recipe output references.
func (c *Catalog) checkReferences() error {
	for _, id := range c.order {
		def := c.items[id]
		for _, raw := range def.Prerequisites {
			p, _ := ParsePrerequisite(raw)
			if p.IsThreshold() {
				continue
			}
			if _, ok := c.items[p.ID]; !ok {
				c.warnings = append(c.warnings, fmt.Sprintf("%s: prerequisite %q is not in the catalog", id, p.ID))
			}
		}
		if def.HasBoss() {
			boss, ok := c.items[def.Boss]
			if !ok || boss.Kind != KindBoss {
				c.warnings = append(c.warnings, fmt.Sprintf("%s: boss %q is not a catalog boss, fallback stats apply", id, def.Boss))
			}
		}
		for _, name := range def.Output.Names() {
			if _, ok := c.items[name]; !ok {
				return fmt.Errorf("%w: %s output %q", ErrUnknownItem, id, name)
			}
		}
	}
	return nil
}

// checkCycles walks the plain-id prerequisite graph depth first.
func (c *Catalog) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	color := make(map[string]int, len(c.items))
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case visiting:
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), id)
			return fmt.Errorf("%w: %s", ErrPrerequisiteCycle, strings.Join(cycle, " -> "))
		case done:
			return nil
		}
		color[id] = visiting
		path = append(path, id)
		def := c.items[id]
		for _, raw := range def.Prerequisites {
			p, _ := ParsePrerequisite(raw)
			if p.IsThreshold() {
				continue
			}
			if _, ok := c.items[p.ID]; !ok {
				continue
			}
			if err := visit(p.ID); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[id] = done
		return nil
	}

	for _, id := range c.order {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// LoadCatalog loads, schema-validates and parses the embedded items.json.
func LoadCatalog() (*Catalog, error) {
	raw, err := data.FS().ReadFile(data.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded file %s: %w", data.CatalogFile, err)
	}
	return ParseCatalog(raw)
}

// MustLoadCatalog loads the embedded catalog, panicking on error.
func MustLoadCatalog() *Catalog {
	catalog, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return catalog
}

// Get returns the definition with the given id.
func (c *Catalog) Get(id string) (*ItemDef, bool) {
	def, ok := c.items[id]
	return def, ok
}

// Lookup returns the definition with the given id or ErrUnknownItem.
func (c *Catalog) Lookup(id string) (*ItemDef, error) {
	def, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	return def, nil
}

// ByKind returns definitions of one kind in catalog order.
func (c *Catalog) ByKind(kind Kind) []*ItemDef {
	var result []*ItemDef
	for _, id := range c.order {
		if def := c.items[id]; def.Kind == kind {
			result = append(result, def)
		}
	}
	return result
}

// All returns every definition in catalog order.
func (c *Catalog) All() []*ItemDef {
	result := make([]*ItemDef, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.items[id])
	}
	return result
}

// Order returns the insertion index of id, or len(catalog) for unknown ids
// so they sort after everything known.
func (c *Catalog) Order(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return len(c.order)
}

// Count returns the number of definitions in the catalog.
func (c *Catalog) Count() int {
	return len(c.order)
}

// Warnings returns non-fatal problems found while loading.
func (c *Catalog) Warnings() []string {
	return c.warnings
}

// Mineable returns mineable materials sorted by minDepth ascending.
func (c *Catalog) Mineable() []*ItemDef {
	var result []*ItemDef
	for _, def := range c.ByKind(KindMaterial) {
		if def.Mineable {
			result = append(result, def)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].MinDepth < result[j].MinDepth
	})
	return result
}
