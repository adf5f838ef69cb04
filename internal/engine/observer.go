package engine

import (
	"sync"

	"github.com/froyo-dl/froyo/internal/archive"
)

// Event is the argument passed to observer callbacks. The identifier fields
// matching the event's Action are set; payload fields are filled by the
// handler that produced the event. Status is meaningful only for after-action
// events.
type Event struct {
	Action Action
	Status Status

	// Identifier fields.
	WorkID   int64
	SeriesID int64
	User     string
	URL      string
	Page     int

	// Payload fields.
	WorkItem   *WorkItem
	Series     *archive.Series
	Stubs      []archive.WorkStub
	WorkIDs    []int64
	TotalPages int
	Err        string
}

// Callback observes one side of an action or enqueue. Callbacks run on
// worker goroutines; implementations that touch a UI must marshal to it
// themselves.
type Callback func(Event)

// Callbacks is the before/after pair registered for an action. Either side
// may be nil.
type Callbacks struct {
	Before Callback
	After  Callback
}

// observerSet holds the registered callbacks for one family (enqueue or
// action), keyed by Action.
type observerSet struct {
	mu        sync.RWMutex
	callbacks map[Action]Callbacks
}

func newObserverSet() *observerSet {
	return &observerSet{callbacks: make(map[Action]Callbacks)}
}

// set replaces the callbacks for every action present in m.
func (o *observerSet) set(m map[Action]Callbacks) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for action, cb := range m {
		o.callbacks[action] = cb
	}
}

func (o *observerSet) runBefore(ev Event) {
	o.mu.RLock()
	cb := o.callbacks[ev.Action].Before
	o.mu.RUnlock()
	if cb != nil {
		cb(ev)
	}
}

func (o *observerSet) runAfter(ev Event) {
	o.mu.RLock()
	cb := o.callbacks[ev.Action].After
	o.mu.RUnlock()
	if cb != nil {
		cb(ev)
	}
}
