package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/samdwyer/farmbalance/internal/config"
	"github.com/samdwyer/farmbalance/internal/game"
	"github.com/samdwyer/farmbalance/internal/sink"
	"github.com/samdwyer/farmbalance/internal/state"
	"github.com/samdwyer/farmbalance/internal/telemetry"
	"github.com/samdwyer/farmbalance/internal/ui"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one persona",
		Long: `Simulate one persona until victory, a stall, or the day limit.

Examples:
  farmbalance run                              # balanced persona, built-in config
  farmbalance run --persona casual --seed 42
  farmbalance run --watch --speed 120          # two simulated hours per second
  farmbalance run --sink sqlite --sink-path runs/run.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			watch, _ := cmd.Flags().GetBool("watch")
			jsonOut, _ := cmd.Flags().GetBool("json")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var logWriter io.Writer = cmd.ErrOrStderr()
			if watch {
				logWriter = io.Discard
			}
			logger := newLogger(logWriter, cfg.Logging.Level)

			res, err := runOne(ctx, cfg, logger, watch)
			if res != nil {
				if jsonOut {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if encErr := enc.Encode(res); encErr != nil {
						return encErr
					}
				} else {
					printResult(cmd.OutOrStdout(), res)
				}
			}
			return err
		},
	}

	cmd.Flags().String("persona", "", "Persona id (overrides config)")
	cmd.Flags().Uint64("seed", 0, "Random seed (overrides config)")
	cmd.Flags().Int("max-days", 0, "Day limit (overrides config)")
	cmd.Flags().String("termination", "", "first_victory or max_days (overrides config)")
	cmd.Flags().String("sink", "", "Event sink: none, memory, jsonl, sqlite (overrides config)")
	cmd.Flags().String("sink-path", "", "File for the jsonl or sqlite sink")
	cmd.Flags().Bool("telemetry", false, "Export OpenTelemetry traces over OTLP/HTTP")
	cmd.Flags().Bool("watch", false, "Show a live status panel")
	cmd.Flags().Float64("speed", 0, "Simulated minutes per second in watch mode (0 = unpaced)")
	return cmd
}

// applyRunFlags copies explicitly set flags over the config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("persona") {
		cfg.Run.Persona, _ = f.GetString("persona")
	}
	if f.Changed("seed") {
		cfg.Run.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("max-days") {
		cfg.Run.MaxDays, _ = f.GetInt("max-days")
	}
	if f.Changed("termination") {
		cfg.Run.Termination, _ = f.GetString("termination")
	}
	if f.Changed("sink") {
		cfg.Sink.Kind, _ = f.GetString("sink")
	}
	if f.Changed("sink-path") {
		cfg.Sink.Path, _ = f.GetString("sink-path")
	}
	if f.Changed("telemetry") {
		cfg.Telemetry.Enabled, _ = f.GetBool("telemetry")
	}
	if f.Changed("speed") {
		cfg.Run.Speed, _ = f.GetFloat64("speed")
	}
}

func runOne(ctx context.Context, cfg *config.Config, logger *log.Logger, watch bool) (*game.Result, error) {
	personas, err := loadPersonas(cfg)
	if err != nil {
		return nil, err
	}
	p, err := personas.Get(cfg.Run.Persona)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
	})
	if err != nil {
		logger.Warn("telemetry setup failed, running without traces", "err", err)
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("telemetry shutdown failed", "err", err)
			}
		}()
	}

	out, err := sink.Open(cfg.Sink.Kind, cfg.Sink.Path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Error("closing sink", "err", err)
		}
	}()

	opts := game.Options{
		Config:  cfg,
		Persona: p,
		Sink:    out,
		Logger:  logger,
	}
	if watch {
		w, err := ui.NewWatch(fmt.Sprintf("farmbalance %s seed %d", p.ID, cfg.Run.Seed), cfg.Run.Speed)
		if err != nil {
			return nil, fmt.Errorf("opening terminal: %w", err)
		}
		defer w.Close()
		opts.Observer = w.Observe
	}

	g, err := game.New(opts)
	if err != nil {
		return nil, err
	}
	return g.Run(ctx)
}

func printResult(w io.Writer, res *game.Result) {
	fmt.Fprintf(w, "run %s: persona %s, seed %d\n", res.RunID, res.Persona, res.Seed)
	fmt.Fprintf(w, "  outcome     %s\n", res.Outcome)
	fmt.Fprintf(w, "  ended       %s\n", clockAt(res.Minute))
	if res.VictoryMinute >= 0 {
		fmt.Fprintf(w, "  victory     %s\n", clockAt(res.VictoryMinute))
	}
	fmt.Fprintf(w, "  milestones  %d\n", res.Milestones)
	fmt.Fprintf(w, "  plots       %d, hero level %d, max depth %d m\n", res.Final.Plots, res.Final.Hero.Level, res.Final.MaxDepth)
	fmt.Fprintf(w, "  events      %d\n", len(res.Events))
}

func clockAt(minute int) string {
	return state.Clock{Minute: minute}.String()
}
