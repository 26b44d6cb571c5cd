// Package sink receives the events and snapshots of simulation runs.
//
// A single sink may be shared by the runs of a batch, so every
// implementation is safe for concurrent use. Records carry the run id.
package sink

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/state"
)

// Kinds accepted by Open.
const (
	KindNone   = "none"
	KindMemory = "memory"
	KindJSONL  = "jsonl"
	KindSQLite = "sqlite"
)

// Sink stores run output.
type Sink interface {
	Event(runID string, e state.Event) error
	Snapshot(runID string, snap state.Snapshot) error
	Close() error
}

// Record is one line of sink output.
type Record struct {
	Run      string          `json:"run"`
	Kind     string          `json:"kind"`
	Event    *state.Event    `json:"event,omitempty"`
	Snapshot *state.Snapshot `json:"snapshot,omitempty"`
}

// Open creates the sink for kind. File-backed sinks need a path.
func Open(kind, path string) (Sink, error) {
	switch kind {
	case KindNone, "":
		return Nop{}, nil
	case KindMemory:
		return NewMemory(), nil
	case KindJSONL:
		return NewJSONL(path)
	case KindSQLite:
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown sink kind %q", kind)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Event(string, state.Event) error       { return nil }
func (Nop) Snapshot(string, state.Snapshot) error { return nil }
func (Nop) Close() error                          { return nil }
