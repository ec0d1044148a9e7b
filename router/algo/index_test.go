package algo_test

import (
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/sim/mobility/router/algo"
	"github.com/stretchr/testify/assert"
)

func TestLocationIndex(t *testing.T) {
	idx := algo.NewLocationIndex(10)
	// 水平线段 (0,0)-(100,0) 与竖直线段 (0,50)-(0,150)
	idx.Insert(0, 1, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 100, Y: 0})
	idx.Insert(2, 3, geometry.Point{X: 0, Y: 50}, geometry.Point{X: 0, Y: 150})
	assert.Equal(t, 2, idx.Len())

	snap, ok := idx.FindClosest(geometry.Point{X: 30, Y: 4}, 20)
	assert.True(t, ok)
	assert.Equal(t, 0, snap.From)
	assert.Equal(t, 1, snap.To)
	assert.InDelta(t, 30, snap.Point.X, 1e-9)
	assert.InDelta(t, 0, snap.Point.Y, 1e-9)
	assert.InDelta(t, 0.3, snap.Ratio, 1e-9)
	assert.InDelta(t, 4, snap.Distance, 1e-9)

	snap, ok = idx.FindClosest(geometry.Point{X: -3, Y: 100}, 20)
	assert.True(t, ok)
	assert.Equal(t, 2, snap.From)
	assert.InDelta(t, 0.5, snap.Ratio, 1e-9)
	assert.InDelta(t, 3, snap.Distance, 1e-9)

	// 投影越过端点时取端点
	snap, ok = idx.FindClosest(geometry.Point{X: 105, Y: 0}, 20)
	assert.True(t, ok)
	assert.Equal(t, 1.0, snap.Ratio)
	assert.InDelta(t, 5, snap.Distance, 1e-9)
}

func TestLocationIndexOutOfRadius(t *testing.T) {
	idx := algo.NewLocationIndex(10)
	idx.Insert(0, 1, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 100, Y: 0})
	_, ok := idx.FindClosest(geometry.Point{X: 50, Y: 40}, 20)
	assert.False(t, ok)
	_, ok = idx.FindClosest(geometry.Point{X: 5000, Y: 5000}, 20)
	assert.False(t, ok)

	empty := algo.NewLocationIndex(10)
	_, ok = empty.FindClosest(geometry.Point{}, 100)
	assert.False(t, ok)
}
