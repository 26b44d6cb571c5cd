package state

// EventType defines the category of a simulation event.
type EventType string

const (
	EventRunStarted         EventType = "run_started"
	EventRunFinished        EventType = "run_finished"
	EventDayStarted         EventType = "day_started"
	EventCheckIn            EventType = "check_in"
	EventActionExecuted     EventType = "action_executed"
	EventActionBlocked      EventType = "action_blocked"
	EventCatalogMiss        EventType = "catalog_miss"
	EventResourceOverflow   EventType = "resource_overflow"
	EventResourceClamped    EventType = "resource_clamped"
	EventInvariantViolation EventType = "invariant_violation"
	EventSystemError        EventType = "system_error"
	EventProcessStarted     EventType = "process_started"
	EventProcessCompleted   EventType = "process_completed"
	EventProcessCancelled   EventType = "process_cancelled"
	EventCropReady          EventType = "crop_ready"
	EventHarvest            EventType = "harvest"
	EventUpgradeUnlocked    EventType = "upgrade_unlocked"
	EventPlotsAdded         EventType = "plots_added"
	EventLevelUp            EventType = "level_up"
	EventCombatResult       EventType = "combat_result"
	EventMiningResult       EventType = "mining_result"
	EventItemCrafted        EventType = "item_crafted"
	EventSeedsCaught        EventType = "seeds_caught"
	EventHelperAction       EventType = "helper_action"
	EventVictory            EventType = "victory"
	EventStuck              EventType = "stuck"
)

// Importance ranks events for reporting collaborators.
type Importance int

const (
	ImportanceDebug Importance = iota
	ImportanceInfo
	ImportanceWarning
	ImportanceHigh
	ImportanceFatal
)

// String returns a human-readable importance name.
func (i Importance) String() string {
	switch i {
	case ImportanceDebug:
		return "debug"
	case ImportanceInfo:
		return "info"
	case ImportanceWarning:
		return "warning"
	case ImportanceHigh:
		return "high"
	case ImportanceFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Event is an immutable, time-ordered record of something that happened in a run.
type Event struct {
	Seq         int        `json:"seq"`
	Type        EventType  `json:"type"`
	Description string     `json:"description"`
	Minute      int        `json:"minute"`
	Day         int        `json:"day"`
	Importance  Importance `json:"importance"`
	Domain      string     `json:"domain,omitempty"`
}

// EventLog is the append-only log of one run. It is not safe for concurrent use;
// each run owns its own log.
type EventLog struct {
	events   []Event
	listener func(Event)
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{events: make([]Event, 0, 256)}
}

// SetListener registers a callback invoked for every appended event.
func (l *EventLog) SetListener(fn func(Event)) {
	l.listener = fn
}

// Append assigns the next sequence number and stores the event.
func (l *EventLog) Append(e Event) Event {
	e.Seq = len(l.events) + 1
	l.events = append(l.events, e)
	if l.listener != nil {
		l.listener(e)
	}
	return e
}

// All returns the full history. Callers must not modify the returned slice.
func (l *EventLog) All() []Event {
	return l.events
}

// Len returns the number of events logged so far.
func (l *EventLog) Len() int {
	return len(l.events)
}

// Since returns events with a sequence number greater than seq.
func (l *EventLog) Since(seq int) []Event {
	if seq >= len(l.events) {
		return nil
	}
	if seq < 0 {
		seq = 0
	}
	return l.events[seq:]
}

// ByType returns all events of a given type.
func (l *EventLog) ByType(t EventType) []Event {
	var result []Event
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// ByDay returns all events that occurred on a given simulated day.
func (l *EventLog) ByDay(day int) []Event {
	var result []Event
	for _, e := range l.events {
		if e.Day == day {
			result = append(result, e)
		}
	}
	return result
}

// Last returns the most recent n events.
func (l *EventLog) Last(n int) []Event {
	if n >= len(l.events) {
		return l.events
	}
	return l.events[len(l.events)-n:]
}
