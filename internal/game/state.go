// Package game runs simulations: the fixed-quantum tick loop, termination
// checks and parallel batches.
package game

// Outcome is how a run ended.
type Outcome int

const (
	// OutcomeRunning is the outcome of a run that has not ended yet.
	OutcomeRunning Outcome = iota
	// OutcomeVictory means every configured victory condition held.
	OutcomeVictory
	// OutcomeStuck means neither resources nor milestones moved for the configured number of days.
	OutcomeStuck
	// OutcomeMaxDays means the day budget ran out.
	OutcomeMaxDays
	// OutcomeCancelled means the caller stopped the run.
	OutcomeCancelled
	// OutcomeFatal means an invariant violation aborted the run.
	OutcomeFatal
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeVictory:
		return "victory"
	case OutcomeStuck:
		return "stuck"
	case OutcomeMaxDays:
		return "max_days"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
