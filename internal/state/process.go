package state

import (
	"fmt"
	"sort"

	"github.com/samdwyer/farmbalance/internal/gamedata"
)

// Category identifies the kind of long-running process.
type Category string

const (
	CategoryGrowth    Category = "growth"
	CategoryCrafting  Category = "crafting"
	CategoryMining    Category = "mining"
	CategoryCombat    Category = "combat"
	CategoryTraining  Category = "training"
	CategorySeedCatch Category = "seed_catching"
)

// Categories lists every process category.
var Categories = []Category{
	CategoryGrowth,
	CategoryCrafting,
	CategoryMining,
	CategoryCombat,
	CategoryTraining,
	CategorySeedCatch,
}

// Status is a process lifecycle state: pending -> running -> completed | cancelled.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusCancelled
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Active reports whether the process still needs updates.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusRunning
}

// Payload is the category-specific data carried by a process.
type Payload interface {
	Category() Category
	Summary() string
}

// Process is one long-running activity owned by exactly one handler.
type Process struct {
	Handle    string   `json:"handle"`
	Category  Category `json:"category"`
	Status    Status   `json:"status"`
	StartedAt int      `json:"startedAt"`
	Seq       int      `json:"seq"`
	Payload   Payload  `json:"payload"`
}

// GrowthPayload tracks one planted crop.
type GrowthPayload struct {
	Crop             string `json:"crop"`
	Duration         int    `json:"duration"`
	Progress         int    `json:"progress"`
	Moisture         int    `json:"moisture"`
	MoisturePerWater int    `json:"moisturePerWater"`
	Waterings        int    `json:"waterings"`
	Ready            bool   `json:"ready"`
}

func (p *GrowthPayload) Category() Category { return CategoryGrowth }

func (p *GrowthPayload) Summary() string {
	if p.Ready {
		return p.Crop + " ready"
	}
	return fmt.Sprintf("%s %d/%d min, moisture %d", p.Crop, p.Progress, p.Duration, p.Moisture)
}

// NeedsWater reports whether a growing crop has run dry.
func (p *GrowthPayload) NeedsWater() bool {
	return !p.Ready && p.Moisture <= 0
}

// CraftPayload tracks one forge job.
type CraftPayload struct {
	Recipe   string        `json:"recipe"`
	Duration int           `json:"duration"`
	Progress float64       `json:"progress"`
	MinHeat  int           `json:"minHeat"`
	Heat     int           `json:"heat"`
	Reserved gamedata.Cost `json:"reserved"`
	Output   gamedata.Cost `json:"output"`
}

func (p *CraftPayload) Category() Category { return CategoryCrafting }

func (p *CraftPayload) Summary() string {
	return fmt.Sprintf("%s %.1f/%d min, heat %d", p.Recipe, p.Progress, p.Duration, p.Heat)
}

// MiningPayload tracks one descent into the mine.
type MiningPayload struct {
	StartDepth   float64       `json:"startDepth"`
	Depth        float64       `json:"depth"`
	PickaxeTier  int           `json:"pickaxeTier"`
	EnergyBudget int           `json:"energyBudget"`
	EnergySpent  int           `json:"energySpent"`
	DrainCarry   float64       `json:"drainCarry"`
	NextMarker   int           `json:"nextMarker"`
	Minutes      int           `json:"minutes"`
	Found        gamedata.Cost `json:"found"`
	StopReason   string        `json:"stopReason,omitempty"`
}

func (p *MiningPayload) Category() Category { return CategoryMining }

func (p *MiningPayload) Summary() string {
	return fmt.Sprintf("depth %.0fm, energy %d/%d", p.Depth, p.EnergySpent, p.EnergyBudget)
}

// CombatOutcome is the fully resolved result of an adventure run.
type CombatOutcome struct {
	Success      bool          `json:"success"`
	HPRemaining  int           `json:"hpRemaining"`
	HPLost       int           `json:"hpLost"`
	Gold         int           `json:"gold"`
	Experience   int           `json:"experience"`
	Loot         gamedata.Cost `json:"loot,omitempty"`
	Rounds       int           `json:"rounds"`
	WavesCleared int           `json:"wavesCleared"`
	Boss         string        `json:"boss,omitempty"`
	BossDefeated bool          `json:"bossDefeated"`
}

// CombatPayload tracks an adventure run whose outcome was decided at start.
type CombatPayload struct {
	Adventure string        `json:"adventure"`
	Duration  int           `json:"duration"`
	Elapsed   int           `json:"elapsed"`
	Outcome   CombatOutcome `json:"outcome"`
}

func (p *CombatPayload) Category() Category { return CategoryCombat }

func (p *CombatPayload) Summary() string {
	return fmt.Sprintf("%s %d/%d min", p.Adventure, p.Elapsed, p.Duration)
}

// TrainingPayload tracks a helper training session.
type TrainingPayload struct {
	Helper      string        `json:"helper"`
	Duration    int           `json:"duration"`
	Progress    int           `json:"progress"`
	TargetLevel int           `json:"targetLevel"`
	Reserved    gamedata.Cost `json:"reserved,omitempty"`
}

func (p *TrainingPayload) Category() Category { return CategoryTraining }

func (p *TrainingPayload) Summary() string {
	return fmt.Sprintf("%s -> L%d %d/%d min", p.Helper, p.TargetLevel, p.Progress, p.Duration)
}

// SeedCatchPayload tracks a seed-catching session at the tower.
type SeedCatchPayload struct {
	Duration   int `json:"duration"`
	Progress   int `json:"progress"`
	NetTier    int `json:"netTier"`
	TowerLevel int `json:"towerLevel"`
}

func (p *SeedCatchPayload) Category() Category { return CategorySeedCatch }

func (p *SeedCatchPayload) Summary() string {
	return fmt.Sprintf("catching %d/%d min", p.Progress, p.Duration)
}

// ProcessTable holds every live process keyed by handle.
type ProcessTable struct {
	procs   map[string]*Process
	nextSeq int
}

// NewProcessTable creates an empty process table.
func NewProcessTable() *ProcessTable {
	return &ProcessTable{procs: make(map[string]*Process)}
}

// Create registers a new pending process with a deterministic handle.
func (t *ProcessTable) Create(category Category, payload Payload, minute int) *Process {
	t.nextSeq++
	p := &Process{
		Handle:    fmt.Sprintf("%s-%d", category, t.nextSeq),
		Category:  category,
		Status:    StatusPending,
		StartedAt: minute,
		Seq:       t.nextSeq,
		Payload:   payload,
	}
	t.procs[p.Handle] = p
	return p
}

// Get returns the process with the given handle.
func (t *ProcessTable) Get(handle string) (*Process, bool) {
	p, ok := t.procs[handle]
	return p, ok
}

// Remove deletes a process from the table.
func (t *ProcessTable) Remove(handle string) {
	delete(t.procs, handle)
}

// Len returns the number of processes in the table.
func (t *ProcessTable) Len() int {
	return len(t.procs)
}

// Ordered returns all processes sorted by Seq ascending.
func (t *ProcessTable) Ordered() []*Process {
	result := make([]*Process, 0, len(t.procs))
	for _, p := range t.procs {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result
}

// ByCategory returns the processes of one category in Seq order.
func (t *ProcessTable) ByCategory(category Category) []*Process {
	var result []*Process
	for _, p := range t.Ordered() {
		if p.Category == category {
			result = append(result, p)
		}
	}
	return result
}

// Occupying counts the processes of a category that hold a concurrency slot.
// Completed crops waiting for harvest still hold their plot.
func (t *ProcessTable) Occupying(category Category) int {
	n := 0
	for _, p := range t.procs {
		if p.Category == category && p.Status != StatusCancelled {
			n++
		}
	}
	return n
}

// Growth returns planted crops in Seq order.
func (t *ProcessTable) Growth() []*Process {
	return t.ByCategory(CategoryGrowth)
}
