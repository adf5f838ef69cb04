package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/froyo-dl/froyo/internal/logging"
)

func newTestRetrier(initial time.Duration) (*retrier, chan task) {
	ch := make(chan task, 16)
	r := newRetrier(initial, func(t task) { ch <- t }, logging.Discard())
	return r, ch
}

func TestRetrierDelayDoubles(t *testing.T) {
	r, _ := newTestRetrier(10 * time.Second)
	key := task{action: ActionLoadWork, workID: 1}

	assert.Equal(t, 10*time.Second, r.delay(key))
	r.schedule(key, time.Hour)
	assert.Equal(t, 20*time.Second, r.delay(key))
	r.schedule(key, time.Hour)
	assert.Equal(t, 40*time.Second, r.delay(key))

	// Other keys are unaffected.
	assert.Equal(t, 10*time.Second, r.delay(task{action: ActionDownloadWork, workID: 1}))

	r.cancelAll()
}

func TestRetrierFiresAndReenqueues(t *testing.T) {
	r, ch := newTestRetrier(time.Millisecond)
	key := task{action: ActionLoadWork, workID: 42}

	r.schedule(key, 5*time.Millisecond)

	select {
	case got := <-ch:
		assert.Equal(t, key, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timer never fired")
	}

	// The fired entry stays recorded until the key is cancelled, so the
	// next delay keeps growing.
	assert.Equal(t, 2*time.Millisecond, r.delay(key))
	r.cancel(key)
	assert.Equal(t, time.Millisecond, r.delay(key))
	assert.Equal(t, 0, r.size())
}

func TestRetrierCancelPreventsEnqueue(t *testing.T) {
	r, ch := newTestRetrier(time.Millisecond)
	key := task{action: ActionLoadWork, workID: 7}

	r.schedule(key, 50*time.Millisecond)
	r.cancel(key)

	select {
	case <-ch:
		t.Fatal("cancelled timer still enqueued")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, 0, r.size())
}

func TestRetrierCancelWork(t *testing.T) {
	r, _ := newTestRetrier(time.Millisecond)

	r.schedule(task{action: ActionLoadWork, workID: 1}, time.Hour)
	r.schedule(task{action: ActionDownloadWork, workID: 1}, time.Hour)
	r.schedule(task{action: ActionLoadWork, workID: 2}, time.Hour)

	r.cancelWork(1)
	assert.Equal(t, 1, r.size())

	r.cancelAll()
	assert.Equal(t, 0, r.size())
}

func TestRetrierCancelAwaitsInflightFire(t *testing.T) {
	// A cancel racing an already-firing timer must not return before the
	// timer callback is done, and the callback must not enqueue once the
	// entry is marked cancelled.
	var mu sync.Mutex
	var enqueuedAfterCancel bool
	cancelled := false

	r := newRetrier(time.Millisecond, nil, logging.Discard())
	key := task{action: ActionLoadWork, workID: 9}
	r.enqueue = func(task) {
		mu.Lock()
		if cancelled {
			enqueuedAfterCancel = true
		}
		mu.Unlock()
	}

	for i := 0; i < 50; i++ {
		r.schedule(key, time.Millisecond)
		time.Sleep(time.Millisecond)
		r.cancel(key)
		mu.Lock()
		cancelled = true
		mu.Unlock()

		mu.Lock()
		bad := enqueuedAfterCancel
		cancelled = false
		mu.Unlock()
		require.False(t, bad, "enqueue observed after cancel returned")
	}
}
