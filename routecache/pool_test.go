package routecache

import (
	"context"
	"testing"

	"git.fiblab.net/sim/mobility/geo"
	"git.fiblab.net/sim/mobility/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolLookup(t *testing.T) {
	p := router.NewPool()
	require.NoError(t, p.Initialize(context.Background(), "../router/testdata/footonly.osm", t.TempDir(), router.VEHICLES))
	c := New(PoolLookup(p))

	from, to := geo.NewPosition(45.0, 9.0001), geo.NewPosition(45.0, 9.0009)
	route, err := c.GetRoute(router.FOOT, from, to)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, router.FOOT, route.Vehicle)

	// 构建失败的出行方式始终无结果且不缓存
	for i := 0; i < 2; i++ {
		route, err = c.GetRoute(router.CAR, from, to)
		require.NoError(t, err)
		assert.Nil(t, route)
	}
	assert.Equal(t, 1, c.Len())
	assert.EqualValues(t, 1, c.Stats().Computations)
}
