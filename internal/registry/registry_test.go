package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := New[int]()

	_, ok := r.Get("a")
	assert.False(t, ok)

	r.Add("a", 1)
	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	calls := 0
	v, existed := r.GetOrAdd("b", func() int { calls++; return 2 })
	assert.False(t, existed)
	assert.Equal(t, 2, v)
	v, existed = r.GetOrAdd("b", func() int { calls++; return 3 })
	assert.True(t, existed)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, calls)

	assert.ElementsMatch(t, []string{"a", "b"}, r.Keys())

	r.Del("a")
	assert.ElementsMatch(t, []string{"b"}, r.Keys())

	r.Clear()
	assert.Empty(t, r.Keys())
}
