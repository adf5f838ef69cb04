package engine

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// initialRetryDelay is the back-off for a task's first retry; each further
// retry doubles it. There is no upper bound.
const initialRetryDelay = 10 * time.Second

// retryEntry is one armed (or fired) timer for a retry key.
type retryEntry struct {
	timer *time.Timer

	// fired is closed when the timer callback finishes, whether or not it
	// enqueued. cancelled is guarded by the retrier mutex.
	fired     chan struct{}
	cancelled bool
}

// retrier keeps, per task key, the ordered list of retry timers. Fired
// entries stay in the list until the key is cancelled so the back-off delay
// keeps growing across consecutive failures.
type retrier struct {
	mu      sync.Mutex
	pending map[task][]*retryEntry

	initial time.Duration
	enqueue func(task)
	log     *log.Logger
}

func newRetrier(initial time.Duration, enqueue func(task), logger *log.Logger) *retrier {
	if initial <= 0 {
		initial = initialRetryDelay
	}
	return &retrier{
		pending: make(map[task][]*retryEntry),
		initial: initial,
		enqueue: enqueue,
		log:     logger,
	}
}

// delay returns the back-off for the next retry of t: the initial delay
// shifted left once per timer already recorded for the key.
func (r *retrier) delay(t task) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initial << len(r.pending[t])
}

// schedule arms a timer that re-enqueues t after d.
func (r *retrier) schedule(t task, d time.Duration) {
	r.log.Info("scheduling retry", "action", t.action, "in", d)

	r.mu.Lock()
	defer r.mu.Unlock()
	e := &retryEntry{fired: make(chan struct{})}
	e.timer = time.AfterFunc(d, func() { r.fire(t, e) })
	r.pending[t] = append(r.pending[t], e)
}

// fire runs on the timer goroutine. The enqueue happens under the retrier
// mutex so that cancel, which marks entries cancelled under the same mutex,
// can guarantee no enqueue occurs after it returns.
func (r *retrier) fire(t task, e *retryEntry) {
	defer close(e.fired)

	r.mu.Lock()
	defer r.mu.Unlock()
	if e.cancelled {
		return
	}
	r.enqueue(t)
}

// cancel stops every timer for the key and forgets it. Timers that are
// already firing are awaited, so no re-enqueue for the key can happen after
// cancel returns.
func (r *retrier) cancel(t task) {
	r.mu.Lock()
	entries := r.pending[t]
	for _, e := range entries {
		e.cancelled = true
	}
	delete(r.pending, t)
	r.mu.Unlock()

	r.await(entries)
}

// cancelWork cancels retries for every work-scoped key on the given ID.
func (r *retrier) cancelWork(id int64) {
	r.mu.Lock()
	var entries []*retryEntry
	for t, es := range r.pending {
		if !t.action.workScoped() || t.workID != id {
			continue
		}
		for _, e := range es {
			e.cancelled = true
		}
		entries = append(entries, es...)
		delete(r.pending, t)
	}
	r.mu.Unlock()

	r.await(entries)
}

// cancelAll cancels every armed timer. Used on RemoveAll and shutdown.
func (r *retrier) cancelAll() {
	r.mu.Lock()
	var entries []*retryEntry
	for t, es := range r.pending {
		for _, e := range es {
			e.cancelled = true
		}
		entries = append(entries, es...)
		delete(r.pending, t)
	}
	r.mu.Unlock()

	r.await(entries)
}

func (r *retrier) await(entries []*retryEntry) {
	for _, e := range entries {
		if !e.timer.Stop() {
			<-e.fired
		}
	}
}

// size reports the number of keys with recorded timers.
func (r *retrier) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
