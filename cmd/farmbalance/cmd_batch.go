package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samdwyer/farmbalance/internal/game"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/sink"
	"github.com/samdwyer/farmbalance/internal/telemetry"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Compare personas over several seeds",
		Long: `Run every selected persona over a range of seeds in parallel and print
one row per run.

Examples:
  farmbalance batch                                  # all personas, one seed
  farmbalance batch --personas casual,speedrunner --seeds 10
  farmbalance batch --parallel 2 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ids, _ := cmd.Flags().GetStringSlice("personas")
			seeds, _ := cmd.Flags().GetInt("seeds")
			parallel, _ := cmd.Flags().GetInt("parallel")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if seeds <= 0 {
				return fmt.Errorf("--seeds must be positive, got %d", seeds)
			}

			personas, err := loadPersonas(cfg)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				ids = personas.IDs()
			}
			catalog, err := gamedata.LoadCatalog()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Logging.Level)

			out, err := sink.Open(cfg.Sink.Kind, cfg.Sink.Path)
			if err != nil {
				return err
			}
			defer out.Close()

			var runs []game.Options
			for _, id := range ids {
				p, err := personas.Get(id)
				if err != nil {
					return err
				}
				for i := 0; i < seeds; i++ {
					c := *cfg
					c.Run.Seed = cfg.Run.Seed + uint64(i)
					runs = append(runs, game.Options{
						Config:  &c,
						Persona: p,
						Catalog: catalog,
						Sink:    out,
						Logger:  logger,
						Tracer:  telemetry.Tracer("batch"),
					})
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			results, err := game.RunBatch(ctx, runs, parallel)
			if jsonOut {
				if encErr := json.NewEncoder(cmd.OutOrStdout()).Encode(results); encErr != nil {
					return encErr
				}
			} else {
				printBatch(cmd.OutOrStdout(), results)
			}
			return err
		},
	}

	cmd.Flags().StringSlice("personas", nil, "Persona ids to compare (default all)")
	cmd.Flags().Int("seeds", 1, "Seeds per persona, counting up from the configured seed")
	cmd.Flags().Int("parallel", 0, "Concurrent runs (0 = no limit)")
	return cmd
}

func printBatch(w io.Writer, results []*game.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PERSONA\tSEED\tOUTCOME\tENDED\tVICTORY\tMILESTONES\tPLOTS")
	for _, res := range results {
		if res == nil {
			continue
		}
		victory := "-"
		if res.VictoryMinute >= 0 {
			victory = clockAt(res.VictoryMinute)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%d\t%d\n",
			res.Persona, res.Seed, res.Outcome, clockAt(res.Minute), victory, res.Milestones, res.Final.Plots)
	}
	tw.Flush()
}
