package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := newActionQueue()
	for i := int64(1); i <= 5; i++ {
		q.push(task{action: ActionLoadWork, workID: i})
	}

	for i := int64(1); i <= 5; i++ {
		assert.Equal(t, i, q.pop().workID)
	}
	assert.Equal(t, 0, q.len())
}

func TestQueueBlockingPop(t *testing.T) {
	q := newActionQueue()

	done := make(chan task)
	go func() { done <- q.pop() }()

	q.push(task{action: ActionLoadSeries, seriesID: 77})
	got := <-done
	assert.Equal(t, ActionLoadSeries, got.action)
	assert.Equal(t, int64(77), got.seriesID)
}

func TestQueueConcurrentProducersConsumers(t *testing.T) {
	const producers, perProducer = 8, 100
	q := newActionQueue()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.push(task{action: ActionLoadWork, workID: int64(p*perProducer + i)})
			}
		}()
	}

	seen := make(chan int64, producers*perProducer)
	for i := 0; i < 4; i++ {
		go func() {
			for {
				t := q.pop()
				if t.action == actionSentinel {
					q.push(t)
					return
				}
				seen <- t.workID
			}
		}()
	}

	wg.Wait()
	ids := make(map[int64]bool)
	for i := 0; i < producers*perProducer; i++ {
		ids[<-seen] = true
	}
	require.Len(t, ids, producers*perProducer)

	q.push(task{action: actionSentinel})
}

func TestQueueCompaction(t *testing.T) {
	q := newActionQueue()
	for i := int64(0); i < 500; i++ {
		q.push(task{action: ActionLoadWork, workID: i})
	}
	for i := int64(0); i < 500; i++ {
		assert.Equal(t, i, q.pop().workID)
	}
	q.push(task{action: ActionLoadWork, workID: 999})
	assert.Equal(t, int64(999), q.pop().workID)
}
