package engine

import "sync"

// workCache holds the WorkItem for every work the engine has touched. The
// cache may briefly carry entries for removed works (a handler can still be
// running); the active set, not the cache, decides whether anyone cares.
// Each container has its own lock, and neither lock is held across I/O.
type workCache struct {
	mu    sync.RWMutex
	items map[int64]*WorkItem
}

func newWorkCache() *workCache {
	return &workCache{items: make(map[int64]*WorkItem)}
}

func (c *workCache) get(id int64) *WorkItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[id]
}

func (c *workCache) put(id int64, item *WorkItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[id] = item
}

func (c *workCache) remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

func (c *workCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}

func (c *workCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// activeSet tracks the work IDs the user currently has staged. Membership is
// the sole gate for whether queued or retrying work-scoped tasks are honored.
type activeSet struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func newActiveSet() *activeSet {
	return &activeSet{ids: make(map[int64]struct{})}
}

func (s *activeSet) add(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *activeSet) remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *activeSet) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

func (s *activeSet) contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// list returns a snapshot of the staged IDs.
func (s *activeSet) list() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	return ids
}
