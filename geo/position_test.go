package geo_test

import (
	"math"
	"testing"

	"git.fiblab.net/sim/mobility/geo"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestPositionPointOrder(t *testing.T) {
	p := geo.NewPosition(45.1, 9.2)
	pt := p.Point()
	assert.Equal(t, 9.2, pt.Lon())
	assert.Equal(t, 45.1, pt.Lat())
	assert.Equal(t, p, geo.FromPoint(orb.Point{9.2, 45.1}))
}

func TestPositionEquality(t *testing.T) {
	m := map[geo.Position]int{geo.NewPosition(1, 2): 1}
	_, ok := m[geo.Position{Lat: 1, Lon: 2}]
	assert.True(t, ok)
	_, ok = m[geo.Position{Lat: 2, Lon: 1}]
	assert.False(t, ok)
}

func TestPositionDistance(t *testing.T) {
	a := geo.NewPosition(45, 9)
	b := geo.NewPosition(45.001, 9)
	// 0.001度纬度约111米
	assert.InDelta(t, 111.2, a.DistanceTo(b), 0.5)
	assert.Equal(t, 0.0, a.DistanceTo(a))
}

func TestPositionLerp(t *testing.T) {
	a := geo.NewPosition(0, 0)
	b := geo.NewPosition(10, 20)
	assert.Equal(t, a, a.Lerp(b, -1))
	assert.Equal(t, b, a.Lerp(b, 2))
	assert.Equal(t, geo.NewPosition(5, 10), a.Lerp(b, 0.5))
}

func TestPositionValid(t *testing.T) {
	assert.True(t, geo.NewPosition(45, 9).Valid())
	assert.False(t, geo.NewPosition(91, 0).Valid())
	assert.False(t, geo.NewPosition(0, 181).Valid())
	assert.False(t, geo.NewPosition(math.NaN(), 0).Valid())
}
