package destinations

import (
	"context"
	"strings"
	"sync"
	"time"

	"travelenda/internal/liteapi"
)

const (
	// DefaultDebounce is the idle time after the last keystroke before a lookup is issued.
	DefaultDebounce = 300 * time.Millisecond
	// MinQueryLength is the shortest query that triggers a lookup.
	MinQueryLength = 2
)

// Fetcher looks up suggestions for a query.
type Fetcher func(ctx context.Context, query string) ([]liteapi.Destination, error)

// State is a snapshot of an autocomplete input.
type State struct {
	Input       string                `json:"input"`
	Suggestions []liteapi.Destination `json:"suggestions"`
	Open        bool                  `json:"open"`
	Selected    *liteapi.Destination  `json:"selected,omitempty"`
}

// Autocompleter drives one destination input: it debounces keystrokes, cancels
// superseded lookups and ignores any response that is not for the latest lookup.
type Autocompleter struct {
	mu       sync.Mutex
	fetch    Fetcher
	delay    time.Duration
	onUpdate func(State)

	timer    *time.Timer
	timerGen uint64
	issued   uint64 // sequence of the latest lookup
	cancel   context.CancelFunc
	closed   bool

	state State
}

// NewAutocompleter creates an input bound to fetch. delay <= 0 uses DefaultDebounce.
// onUpdate, if set, receives every state change and must not call back into the Autocompleter.
func NewAutocompleter(fetch Fetcher, delay time.Duration, onUpdate func(State)) *Autocompleter {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Autocompleter{
		fetch:    fetch,
		delay:    delay,
		onUpdate: onUpdate,
	}
}

// Type records a keystroke.
func (a *Autocompleter) Type(input string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	a.state.Input = input
	a.state.Selected = nil
	a.stopPendingLocked()

	query := strings.TrimSpace(input)
	if len([]rune(query)) < MinQueryLength {
		a.state.Suggestions = nil
		a.state.Open = false
		a.notifyLocked()
		return
	}

	gen := a.timerGen
	a.timer = time.AfterFunc(a.delay, func() { a.issue(gen, query) })
}

// Select fills the input with "name, country" and closes the list.
func (a *Autocompleter) Select(d liteapi.Destination) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopPendingLocked()
	a.state.Input = Label(d)
	a.state.Suggestions = nil
	a.state.Open = false
	selected := d
	a.state.Selected = &selected
	a.notifyLocked()
}

// State returns the current snapshot.
func (a *Autocompleter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Close stops pending work. Later calls are ignored.
func (a *Autocompleter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopPendingLocked()
	a.closed = true
}

func (a *Autocompleter) issue(gen uint64, query string) {
	a.mu.Lock()
	if a.closed || gen != a.timerGen {
		a.mu.Unlock()
		return
	}
	a.issued++
	seq := a.issued
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.mu.Unlock()

	results, err := a.fetch(ctx, query)
	cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	if seq != a.issued || a.closed {
		return
	}
	a.cancel = nil

	if err != nil || len(results) == 0 {
		a.state.Suggestions = []liteapi.Destination{}
		a.state.Open = false
	} else {
		a.state.Suggestions = results
		a.state.Open = true
	}
	a.notifyLocked()
}

// stopPendingLocked drops the debounce timer and invalidates any in-flight lookup.
func (a *Autocompleter) stopPendingLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.timerGen++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.issued++
}

func (a *Autocompleter) snapshotLocked() State {
	s := a.state
	if s.Suggestions != nil {
		s.Suggestions = append([]liteapi.Destination(nil), s.Suggestions...)
	}
	return s
}

func (a *Autocompleter) notifyLocked() {
	if a.onUpdate != nil {
		a.onUpdate(a.snapshotLocked())
	}
}

// Label is the text placed in the input when a destination is chosen.
func Label(d liteapi.Destination) string {
	if d.Country == "" {
		return d.Name
	}
	return d.Name + ", " + d.Country
}
