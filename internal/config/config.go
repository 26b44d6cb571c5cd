// Package config loads run configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/validation"
)

// Termination modes.
const (
	// TerminateFirstVictory stops as soon as every victory condition holds.
	TerminateFirstVictory = "first_victory"
	// TerminateMaxDays always simulates the full day budget.
	TerminateMaxDays = "max_days"
)

// Sink kinds.
const (
	SinkNone   = "none"
	SinkMemory = "memory"
	SinkJSONL  = "jsonl"
	SinkSQLite = "sqlite"
)

// Config is the complete configuration of one run.
type Config struct {
	Run        RunConfig       `yaml:"run"`
	Start      StartConfig     `yaml:"start"`
	Capacities CapacityConfig  `yaml:"capacities"`
	Limits     map[string]int  `yaml:"limits,omitempty"`
	Victory    VictoryConfig   `yaml:"victory"`
	Sink       SinkConfig      `yaml:"sink"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
	Logging    LoggingConfig   `yaml:"logging"`
	// PersonasFile replaces the embedded personas when set.
	PersonasFile string `yaml:"personasFile,omitempty"`
}

// RunConfig controls the tick loop.
type RunConfig struct {
	Persona     string `yaml:"persona"`
	Seed        uint64 `yaml:"seed"`
	Termination string `yaml:"termination"`
	MaxDays     int    `yaml:"maxDays"`
	// StuckDays is how many whole days without progress end a run as stuck.
	StuckDays   int `yaml:"stuckDays"`
	TickMinutes int `yaml:"tickMinutes"`
	// Speed is simulated minutes per wall-clock second in watch mode; 0 runs unpaced.
	Speed                float64 `yaml:"speed"`
	SnapshotEveryMinutes int     `yaml:"snapshotEveryMinutes"`
}

// StartConfig is the starting bundle of a run.
type StartConfig struct {
	Energy    int            `yaml:"energy"`
	Water     int            `yaml:"water"`
	Gold      int            `yaml:"gold"`
	Seeds     map[string]int `yaml:"seeds,omitempty"`
	Materials map[string]int `yaml:"materials,omitempty"`
	Plots     int            `yaml:"plots"`
	Items     []string       `yaml:"items,omitempty"`
	Upgrades  []string       `yaml:"upgrades,omitempty"`
	HeroLevel int            `yaml:"heroLevel,omitempty"`
}

// CapacityConfig holds base capacities before upgrades.
type CapacityConfig struct {
	Energy    int `yaml:"energy"`
	Water     int `yaml:"water"`
	Gold      int `yaml:"gold"`
	Seeds     int `yaml:"seeds"`
	Materials int `yaml:"materials"`
}

// VictoryConfig lists the conditions that must all hold for a victory.
// Zero values are not checked.
type VictoryConfig struct {
	Plots     int      `yaml:"plots,omitempty"`
	HeroLevel int      `yaml:"heroLevel,omitempty"`
	MaxDepth  int      `yaml:"maxDepth,omitempty"`
	Gold      int      `yaml:"gold,omitempty"`
	Completed []string `yaml:"completed,omitempty"`
	Upgrades  []string `yaml:"upgrades,omitempty"`
}

// Empty reports whether no condition is configured.
func (v VictoryConfig) Empty() bool {
	return v.Plots == 0 && v.HeroLevel == 0 && v.MaxDepth == 0 && v.Gold == 0 &&
		len(v.Completed) == 0 && len(v.Upgrades) == 0
}

// SinkConfig selects where events and snapshots go.
type SinkConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path,omitempty"`
}

// TelemetryConfig toggles OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// LoggingConfig sets the operational log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Persona:              "balanced",
			Seed:                 1,
			Termination:          TerminateFirstVictory,
			MaxDays:              30,
			StuckDays:            3,
			TickMinutes:          1,
			SnapshotEveryMinutes: state.MinutesPerDay,
		},
		Start: StartConfig{
			Energy: 3,
			Water:  10,
			Gold:   75,
			Seeds:  map[string]int{"carrot": 1, "radish": 1},
			Plots:  3,
		},
		Capacities: CapacityConfig{
			Energy:    100,
			Water:     20,
			Gold:      5000,
			Seeds:     20,
			Materials: 100,
		},
		Victory: VictoryConfig{
			Plots:     8,
			Completed: []string{"goblin_camp"},
		},
		Sink:    SinkConfig{Kind: SinkMemory},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. Fields missing from the file keep
// their default values; map sections such as start.seeds merge with them.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv applies FARMBALANCE_* environment overrides.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("FARMBALANCE_PERSONA"); v != "" {
		c.Run.Persona = v
	}
	if v := os.Getenv("FARMBALANCE_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FARMBALANCE_SEED: %w", err)
		}
		c.Run.Seed = n
	}
	if v := os.Getenv("FARMBALANCE_MAX_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FARMBALANCE_MAX_DAYS: %w", err)
		}
		c.Run.MaxDays = n
	}
	if v := os.Getenv("FARMBALANCE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FARMBALANCE_SINK"); v != "" {
		c.Sink.Kind = v
	}
	return nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	r := c.Run
	switch {
	case r.Persona == "":
		return fmt.Errorf("run.persona is required")
	case r.Termination != TerminateFirstVictory && r.Termination != TerminateMaxDays:
		return fmt.Errorf("invalid termination mode: %s (valid: %s, %s)", r.Termination, TerminateFirstVictory, TerminateMaxDays)
	case r.MaxDays <= 0:
		return fmt.Errorf("run.maxDays must be positive, got %d", r.MaxDays)
	case r.StuckDays < 0:
		return fmt.Errorf("run.stuckDays must not be negative, got %d", r.StuckDays)
	case r.TickMinutes <= 0 || r.TickMinutes > 60:
		return fmt.Errorf("run.tickMinutes must be within [1, 60], got %d", r.TickMinutes)
	case r.Speed < 0:
		return fmt.Errorf("run.speed must not be negative, got %v", r.Speed)
	case r.SnapshotEveryMinutes < 0:
		return fmt.Errorf("run.snapshotEveryMinutes must not be negative, got %d", r.SnapshotEveryMinutes)
	}
	if r.Termination == TerminateFirstVictory && c.Victory.Empty() {
		return fmt.Errorf("termination %s needs at least one victory condition", TerminateFirstVictory)
	}

	s := c.Start
	if s.Energy < 0 || s.Water < 0 || s.Gold < 0 || s.Plots < 0 {
		return fmt.Errorf("starting resources must not be negative")
	}
	for key, n := range s.Seeds {
		if n < 0 {
			return fmt.Errorf("starting seeds %s must not be negative", key)
		}
	}
	for key, n := range s.Materials {
		if n < 0 {
			return fmt.Errorf("starting material %s must not be negative", key)
		}
	}

	for key, n := range c.Limits {
		if !validCategory(state.Category(key)) {
			return fmt.Errorf("limits: unknown process category %q", key)
		}
		if n <= 0 {
			return fmt.Errorf("limits: %s must be positive, got %d", key, n)
		}
	}

	switch c.Sink.Kind {
	case SinkNone, SinkMemory, "":
	case SinkJSONL, SinkSQLite:
		if c.Sink.Path == "" {
			return fmt.Errorf("sink %s needs a path", c.Sink.Kind)
		}
	default:
		return fmt.Errorf("invalid sink kind: %s", c.Sink.Kind)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}
	return nil
}

func validCategory(c state.Category) bool {
	switch c {
	case state.CategoryCrafting, state.CategoryMining, state.CategoryCombat,
		state.CategoryTraining, state.CategorySeedCatch:
		return true
	}
	return false
}

// StateOptions converts the starting bundle and capacities for state.New.
func (c *Config) StateOptions() state.Options {
	return state.Options{
		Seed: c.Run.Seed,
		Caps: state.BaseCaps{
			Energy:    c.Capacities.Energy,
			Water:     c.Capacities.Water,
			Gold:      c.Capacities.Gold,
			Seeds:     c.Capacities.Seeds,
			Materials: c.Capacities.Materials,
		},
		Start: state.Start{
			Energy:    c.Start.Energy,
			Water:     c.Start.Water,
			Gold:      c.Start.Gold,
			Seeds:     c.Start.Seeds,
			Materials: c.Start.Materials,
			Plots:     c.Start.Plots,
			Items:     c.Start.Items,
			Upgrades:  c.Start.Upgrades,
			HeroLevel: c.Start.HeroLevel,
		},
	}
}

// ProcessLimits returns the per-category concurrency limits, defaults
// overridden by the limits section.
func (c *Config) ProcessLimits() validation.Limits {
	limits := validation.DefaultLimits()
	for key, n := range c.Limits {
		limits[state.Category(key)] = n
	}
	return limits
}
