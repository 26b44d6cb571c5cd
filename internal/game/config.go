package game

import (
	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/samdwyer/farmbalance/internal/config"
	"github.com/samdwyer/farmbalance/internal/gamedata"
	"github.com/samdwyer/farmbalance/internal/persona"
	"github.com/samdwyer/farmbalance/internal/sink"
	"github.com/samdwyer/farmbalance/internal/state"
)

// Observer is called after every tick with a copy of the state and the
// events appended during the tick. Returning false stops the run.
type Observer func(snap state.Snapshot, recent []state.Event) bool

// Options configures one run. Only Config and Persona are required.
type Options struct {
	Config  *config.Config
	Persona *persona.Persona

	// Catalog defaults to the embedded catalog.
	Catalog *gamedata.Catalog
	// Sink receives every event and the periodic snapshots.
	Sink   sink.Sink
	Logger *log.Logger
	Tracer trace.Tracer
	// Observer, if set, watches the run tick by tick.
	Observer Observer
	// RunID defaults to a random UUID.
	RunID string
}
