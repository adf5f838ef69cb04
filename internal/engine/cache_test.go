package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkCache(t *testing.T) {
	c := newWorkCache()
	assert.Nil(t, c.get(1))

	item := &WorkItem{ID: 1}
	c.put(1, item)
	assert.Same(t, item, c.get(1))
	assert.Equal(t, 1, c.size())

	c.remove(1)
	assert.Nil(t, c.get(1))

	c.put(2, &WorkItem{ID: 2})
	c.put(3, &WorkItem{ID: 3})
	c.clear()
	assert.Equal(t, 0, c.size())
}

func TestActiveSet(t *testing.T) {
	s := newActiveSet()
	assert.False(t, s.contains(1))

	s.add(1)
	s.add(2)
	assert.True(t, s.contains(1))
	assert.ElementsMatch(t, []int64{1, 2}, s.list())

	s.remove(1)
	assert.False(t, s.contains(1))
	assert.True(t, s.contains(2))

	s.clear()
	assert.Empty(t, s.list())
}
