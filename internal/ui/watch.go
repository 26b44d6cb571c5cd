package ui

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/farmbalance/internal/state"
)

// RecentEvents is how many events the panel keeps.
const RecentEvents = 10

// frameInterval caps the redraw rate of an unpaced run.
const frameInterval = 50 * time.Millisecond

// Watch renders a run as it happens. Speed is simulated minutes per
// wall-clock second; 0 runs as fast as possible.
type Watch struct {
	screen   *Screen
	renderer *Renderer
	pacer    *Pacer

	recent    []state.Event
	lastFrame time.Time

	quit chan struct{}
	once sync.Once
}

// NewWatch opens the terminal and starts listening for the quit keys.
func NewWatch(title string, speed float64) (*Watch, error) {
	screen, err := NewScreen()
	if err != nil {
		return nil, err
	}
	w := &Watch{
		screen:   screen,
		renderer: NewRenderer(screen, title),
		pacer:    NewPacer(speed),
		quit:     make(chan struct{}),
	}
	go w.poll()
	return w, nil
}

// Observe draws a tick and waits out the pace. It returns false once the
// user asked to stop.
func (w *Watch) Observe(snap state.Snapshot, events []state.Event) bool {
	w.recent = Remember(w.recent, events, RecentEvents)

	now := time.Now()
	if w.pacer.Paced() || now.Sub(w.lastFrame) >= frameInterval {
		w.renderer.Render(snap, w.recent)
		w.lastFrame = now
	}

	if wait := w.pacer.Wait(snap.Minute, now); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-w.quit:
			return false
		}
	}
	select {
	case <-w.quit:
		return false
	default:
		return true
	}
}

// Close restores the terminal.
func (w *Watch) Close() {
	w.stop()
	w.screen.Close()
}

func (w *Watch) stop() {
	w.once.Do(func() { close(w.quit) })
}

func (w *Watch) poll() {
	for {
		switch ev := w.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')) {
				w.stop()
			}
		case *tcell.EventResize:
			w.screen.Sync()
		}
	}
}

// Remember appends the non-debug events to recent, keeping the last n.
func Remember(recent, events []state.Event, n int) []state.Event {
	for _, e := range events {
		if e.Importance == state.ImportanceDebug {
			continue
		}
		recent = append(recent, e)
	}
	if len(recent) > n {
		recent = append(recent[:0:0], recent[len(recent)-n:]...)
	}
	return recent
}

// Pacer maps simulated minutes to wall-clock time.
type Pacer struct {
	speed       float64
	start       time.Time
	startMinute int
	started     bool
}

// NewPacer creates a pacer; speed <= 0 disables pacing.
func NewPacer(speed float64) *Pacer {
	return &Pacer{speed: speed}
}

// Paced reports whether the pacer slows the run down.
func (p *Pacer) Paced() bool {
	return p.speed > 0
}

// Wait returns how long to sleep at now so that minute is shown on time.
// The first call sets the origin.
func (p *Pacer) Wait(minute int, now time.Time) time.Duration {
	if !p.Paced() {
		return 0
	}
	if !p.started {
		p.start, p.startMinute, p.started = now, minute, true
		return 0
	}
	due := p.start.Add(time.Duration(float64(minute-p.startMinute) / p.speed * float64(time.Second)))
	if wait := due.Sub(now); wait > 0 {
		return wait
	}
	return 0
}
