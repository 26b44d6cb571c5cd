package ui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/farmbalance/internal/state"
)

// Tone selects the style of a line.
type Tone int

const (
	ToneNormal Tone = iota
	ToneHeader
	ToneDim
	ToneWarning
	ToneHigh
)

// Line is one row of the status panel.
type Line struct {
	Text string
	Tone Tone
}

// Renderer handles drawing the status panel to the screen.
type Renderer struct {
	screen *Screen
	title  string
}

// NewRenderer creates a renderer for the given screen.
func NewRenderer(screen *Screen, title string) *Renderer {
	return &Renderer{screen: screen, title: title}
}

// Render draws the panel for a snapshot and the most recent events.
func (r *Renderer) Render(snap state.Snapshot, recent []state.Event) {
	r.screen.Clear()
	_, height := r.screen.Size()
	for y, line := range Layout(r.title, snap, recent) {
		if y >= height-1 {
			break
		}
		r.screen.DrawText(1, y, line.Text, toneStyle(line.Tone))
	}
	r.RenderMessage("q / esc: stop", height-1)
	r.screen.Show()
}

// RenderMessage displays a message at row y.
func (r *Renderer) RenderMessage(msg string, y int) {
	r.screen.DrawText(1, y, msg, toneStyle(ToneDim))
}

func toneStyle(t Tone) tcell.Style {
	switch t {
	case ToneHeader:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	case ToneDim:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	case ToneWarning:
		return tcell.StyleDefault.Foreground(tcell.ColorOrange)
	case ToneHigh:
		return tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorWhite)
	}
}

// Layout builds the panel text. It does not touch the terminal.
func Layout(title string, snap state.Snapshot, recent []state.Event) []Line {
	res := func(kind state.ResourceKind) string {
		c := snap.Resources[kind]
		return fmt.Sprintf("%s %d/%d", kind, c.Current, c.Capacity)
	}
	lines := []Line{
		{Text: fmt.Sprintf("%s  day %d %02d:%02d", title, snap.Day, snap.Hour, snap.Minute%60), Tone: ToneHeader},
		{Text: strings.Join([]string{res(state.Energy), res(state.Water), res(state.Gold)}, "   ")},
		{Text: fmt.Sprintf("plots %d   hero L%d %d/%d HP   depth %d m   tower %d   forge %d",
			snap.Plots, snap.Hero.Level, snap.Hero.HP, snap.Hero.MaxHP, snap.MaxDepth, snap.TowerLevel, snap.ForgeHeat)},
		{Text: "seeds: " + counts(snap.Seeds)},
		{Text: "materials: " + counts(snap.Materials)},
	}
	if len(snap.Helpers) > 0 {
		lines = append(lines, Line{Text: "helpers: " + counts(snap.Helpers)})
	}
	where := string(snap.Location.Area)
	if snap.Location.Reason != "" {
		where += " (" + snap.Location.Reason + ")"
	}
	lines = append(lines, Line{Text: "at " + where, Tone: ToneDim}, Line{})

	lines = append(lines, Line{Text: fmt.Sprintf("processes (%d)", len(snap.Processes)), Tone: ToneHeader})
	for _, p := range snap.Processes {
		lines = append(lines, Line{Text: fmt.Sprintf("  %-12s %-9s %s", p.Handle, p.Status, p.Detail)})
	}
	lines = append(lines, Line{}, Line{Text: "recent", Tone: ToneHeader})
	for _, e := range recent {
		tone := ToneNormal
		switch {
		case e.Importance >= state.ImportanceHigh:
			tone = ToneHigh
		case e.Importance == state.ImportanceWarning:
			tone = ToneWarning
		}
		m := e.Minute % state.MinutesPerDay
		lines = append(lines, Line{
			Text: fmt.Sprintf("  d%d %02d:%02d %-10s %s", e.Day, m/60, m%60, e.Type, e.Description),
			Tone: tone,
		})
	}
	return lines
}

func counts(m map[string]int) string {
	if len(m) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(m))
	for _, key := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, fmt.Sprintf("%s %d", key, m[key]))
	}
	return strings.Join(parts, ", ")
}
