package engine

import "sync"

// actionQueue is an unbounded FIFO shared by all workers. Producers never
// block; consumers block in pop until a task arrives.
type actionQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	tasks []task
	head  int
}

func newActionQueue() *actionQueue {
	q := &actionQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *actionQueue) push(t task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until a task is available and returns it.
func (q *actionQueue) pop() task {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.tasks) {
		q.cond.Wait()
	}

	t := q.tasks[q.head]
	q.tasks[q.head] = task{}
	q.head++

	// Reclaim the consumed prefix once it dominates the backing slice.
	if q.head > 64 && q.head*2 >= len(q.tasks) {
		q.tasks = append(q.tasks[:0], q.tasks[q.head:]...)
		q.head = 0
	}
	return t
}

func (q *actionQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks) - q.head
}
