package sink

import (
	"sync"

	"github.com/samdwyer/farmbalance/internal/state"
)

// Memory keeps every record in arrival order.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Event(runID string, e state.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, Record{Run: runID, Kind: "event", Event: &e})
	return nil
}

func (m *Memory) Snapshot(runID string, snap state.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, Record{Run: runID, Kind: "snapshot", Snapshot: &snap})
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns the events received for one run.
func (m *Memory) Events(runID string) []state.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []state.Event
	for _, r := range m.records {
		if r.Run == runID && r.Event != nil {
			out = append(out, *r.Event)
		}
	}
	return out
}

// Snapshots returns the snapshots received for one run.
func (m *Memory) Snapshots(runID string) []state.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []state.Snapshot
	for _, r := range m.records {
		if r.Run == runID && r.Snapshot != nil {
			out = append(out, *r.Snapshot)
		}
	}
	return out
}

// Len returns the number of records of every run.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
