package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisjointSet(t *testing.T) {
	d := NewDisjointSet(5)
	assert.Equal(t, 5, d.Count())
	assert.True(t, d.Union(0, 1))
	assert.True(t, d.Union(1, 2))
	assert.False(t, d.Union(0, 2))
	assert.Equal(t, 3, d.Count())
	assert.Equal(t, d.GetRoot(0), d.GetRoot(2))
	assert.NotEqual(t, d.GetRoot(0), d.GetRoot(3))
	assert.True(t, d.Union(3, 4))
	assert.Equal(t, 2, d.Count())
}
