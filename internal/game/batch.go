package game

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunBatch runs independent simulations concurrently, at most parallel at a
// time (no limit when parallel <= 0). Results keep the order of runs. Each run
// owns its state; a shared sink must be safe for concurrent use. A fatal run
// cancels the others and its error is returned.
func RunBatch(ctx context.Context, runs []Options, parallel int) ([]*Result, error) {
	results := make([]*Result, len(runs))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, opts := range runs {
		g.Go(func() error {
			game, err := New(opts)
			if err != nil {
				return fmt.Errorf("run %d (%s): %w", i, personaID(opts), err)
			}
			res, err := game.Run(ctx)
			results[i] = res
			if err != nil {
				return fmt.Errorf("run %d (%s): %w", i, personaID(opts), err)
			}
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

func personaID(opts Options) string {
	if opts.Persona == nil {
		return "no persona"
	}
	return opts.Persona.ID
}
