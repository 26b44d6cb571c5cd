package decision

import (
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/systems"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// NearFullShare is the share of plots in use at which plots count as a bottleneck.
const NearFullShare = 0.8

// DetectBottleneck returns the first shortage found, checking water, then
// tools, then seeds, then plots.
func DetectBottleneck(st *state.GameState) systems.Bottleneck {
	switch {
	case waterShort(st):
		return systems.BottleneckWater
	case len(systems.NeededTools(st)) > 0:
		return systems.BottleneckTool
	case systems.SeedShortage(st):
		return systems.BottleneckSeeds
	case plotsNearFull(st):
		return systems.BottleneckPlots
	}
	return systems.BottleneckNone
}

// waterShort reports whether the tank cannot water every dry crop.
func waterShort(st *state.GameState) bool {
	dry := len(validation.DryCrops(st))
	return dry > 0 && st.Resource(state.Water).Current < dry
}

func plotsNearFull(st *state.GameState) bool {
	plots := st.Progression.Plots
	if plots == 0 {
		return true
	}
	used := plots - st.FreePlots()
	return float64(used) >= NearFullShare*float64(plots)
}
