package state

import "maps"

// ProcessSummary is a read-only view of one process for reports.
type ProcessSummary struct {
	Handle    string   `json:"handle"`
	Category  Category `json:"category"`
	Status    string   `json:"status"`
	StartedAt int      `json:"startedAt"`
	Detail    string   `json:"detail"`
}

// Snapshot is a deep copy of the state for sinks and final reports.
type Snapshot struct {
	Minute     int                      `json:"minute"`
	Day        int                      `json:"day"`
	Hour       int                      `json:"hour"`
	Resources  map[ResourceKind]Counter `json:"resources"`
	Seeds      map[string]int           `json:"seeds"`
	Materials  map[string]int           `json:"materials"`
	Upgrades   []string                 `json:"upgrades"`
	Completed  []string                 `json:"completed"`
	Plots      int                      `json:"plots"`
	MaxDepth   int                      `json:"maxDepth"`
	TowerLevel int                      `json:"towerLevel"`
	Helpers    map[string]int           `json:"helpers"`
	Hero       Hero                     `json:"hero"`
	Items      []Item                   `json:"items"`
	ForgeHeat  int                      `json:"forgeHeat"`
	Processes  []ProcessSummary         `json:"processes"`
	Location   Location                 `json:"location"`
	EventCount int                      `json:"eventCount"`
	Revision   uint64                   `json:"revision"`
}

// Snapshot copies the current state.
func (s *GameState) Snapshot() Snapshot {
	snap := Snapshot{
		Minute:     s.Clock.Minute,
		Day:        s.Clock.Day(),
		Hour:       s.Clock.Hour(),
		Resources:  make(map[ResourceKind]Counter, len(s.Bounded)),
		Seeds:      maps.Clone(s.Seeds),
		Materials:  maps.Clone(s.Materials),
		Upgrades:   append([]string{}, s.Progression.Upgrades.List()...),
		Completed:  append([]string{}, s.Progression.Completed.List()...),
		Plots:      s.Progression.Plots,
		MaxDepth:   s.Progression.MaxDepth,
		TowerLevel: s.Progression.TowerLevel,
		Helpers:    maps.Clone(s.Progression.Helpers),
		Hero:       s.Hero,
		ForgeHeat:  s.ForgeHeat,
		Location:   s.Location,
		EventCount: s.Events.Len(),
		Revision:   s.revision,
	}
	for kind, c := range s.Bounded {
		snap.Resources[kind] = *c
	}
	for _, item := range s.Inventory.Items {
		snap.Items = append(snap.Items, *item)
	}
	for _, p := range s.Processes.Ordered() {
		snap.Processes = append(snap.Processes, ProcessSummary{
			Handle:    p.Handle,
			Category:  p.Category,
			Status:    p.Status.String(),
			StartedAt: p.StartedAt,
			Detail:    p.Payload.Summary(),
		})
	}
	return snap
}

// FreePlots returns plots not holding a crop.
func (s *GameState) FreePlots() int {
	free := s.Progression.Plots - s.Processes.Occupying(CategoryGrowth)
	if free < 0 {
		return 0
	}
	return free
}
