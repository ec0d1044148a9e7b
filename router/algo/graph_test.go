package algo_test

import (
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/mathutil"
	"git.fiblab.net/sim/mobility/router/algo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestHeuristics struct {
}

func (h TestHeuristics) HeuristicEuclidean(p1 geometry.Point, p2 geometry.Point) float64 {
	return geometry.Distance(p1, p2)
}

type TestWeight struct {
}

func (w TestWeight) GetEdgeWeight(attr int, length float64) float64 {
	return length
}

func TestSearchGraph(t *testing.T) {
	g := algo.NewSearchGraph[int, int](TestHeuristics{}, TestWeight{})

	// 初始化点
	n1 := g.InitNode(geometry.Point{X: 0, Y: 0}, 1)
	n2 := g.InitNode(geometry.Point{X: 0, Y: 1}, 2)
	n3 := g.InitNode(geometry.Point{X: 1, Y: 0}, 3)
	n4 := g.InitNode(geometry.Point{X: 1, Y: 1}, 4)

	// 初始化边
	require.NoError(t, g.InitEdge(n1, n2, 1, 12))
	require.NoError(t, g.InitEdge(n2, n3, 1.5, 23))
	require.NoError(t, g.InitEdge(n3, n4, 1, 34))
	assert.Equal(t, 3, g.EdgeCount())

	length, attr, ok := g.GetEdge(n1, n2)
	assert.True(t, ok)
	assert.Equal(t, 1.0, length)
	assert.Equal(t, 12, attr)
	_, _, ok = g.GetEdge(n2, n1)
	assert.False(t, ok)

	// 计算最短路
	path, cost, err := g.ShortestPath(n1, n4, algo.ALGORITHM_ASTAR)
	require.NoError(t, err)
	assert.Len(t, path, 4)
	assert.Equal(t, 1, path[0].NodeAttr)
	assert.Equal(t, 12, path[0].EdgeAttr)
	assert.Equal(t, 2, path[1].NodeAttr)
	assert.Equal(t, 23, path[1].EdgeAttr)
	assert.Equal(t, 3, path[2].NodeAttr)
	assert.Equal(t, 34, path[2].EdgeAttr)
	assert.Equal(t, 4, path[3].NodeAttr)
	assert.Equal(t, n4, path[3].Node)
	assert.Equal(t, 3.5, cost)

	path, cost = g.ShortestPathAStar(n3, n3)
	assert.Len(t, path, 1)
	assert.Equal(t, 3, path[0].NodeAttr)
	assert.Equal(t, 0.0, cost)

	// 加入不可达的点
	n5 := g.InitNode(geometry.Point{X: 2, Y: 2}, 5)
	path, cost = g.ShortestPathAStar(n1, n5)
	assert.Nil(t, path)
	assert.Equal(t, mathutil.INF, cost)
}

func TestSearchGraphAlgorithmsAgree(t *testing.T) {
	g := algo.NewSearchGraph[int, int](TestHeuristics{}, TestWeight{})

	n1 := g.InitNode(geometry.Point{X: 0, Y: 0}, 1)
	n2 := g.InitNode(geometry.Point{X: 0, Y: 1}, 2)
	n3 := g.InitNode(geometry.Point{X: 1, Y: 0}, 3)

	require.NoError(t, g.InitEdge(n1, n2, 10, 12))
	require.NoError(t, g.InitEdge(n1, n3, 2, 13))
	require.NoError(t, g.InitEdge(n3, n2, 1.5, 32))

	for _, a := range []algo.Algorithm{algo.ALGORITHM_ASTAR, algo.ALGORITHM_DIJKSTRA} {
		path, cost, err := g.ShortestPath(n1, n2, a)
		require.NoError(t, err)
		assert.Len(t, path, 3, a)
		assert.Equal(t, 1, path[0].NodeAttr)
		assert.Equal(t, 13, path[0].EdgeAttr)
		assert.Equal(t, 3, path[1].NodeAttr)
		assert.Equal(t, 32, path[1].EdgeAttr)
		assert.Equal(t, 2, path[2].NodeAttr)
		assert.Equal(t, 3.5, cost)
	}
}

func TestSearchGraphDuplicateEdgeKeepsShorter(t *testing.T) {
	g := algo.NewSearchGraph[int, int](TestHeuristics{}, TestWeight{})
	n1 := g.InitNode(geometry.Point{X: 0, Y: 0}, 1)
	n2 := g.InitNode(geometry.Point{X: 0, Y: 1}, 2)
	require.NoError(t, g.InitEdge(n1, n2, 5, 1))
	require.NoError(t, g.InitEdge(n1, n2, 3, 2))
	require.NoError(t, g.InitEdge(n1, n2, 4, 3))
	length, attr, ok := g.GetEdge(n1, n2)
	assert.True(t, ok)
	assert.Equal(t, 3.0, length)
	assert.Equal(t, 2, attr)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestSearchGraphErrors(t *testing.T) {
	g := algo.NewSearchGraph[int, int](TestHeuristics{}, TestWeight{})
	n1 := g.InitNode(geometry.Point{X: 0, Y: 0}, 1)
	assert.ErrorIs(t, g.InitEdge(n1, 7, 1, 0), algo.ErrNodeOutOfRange)
	_, _, err := g.ShortestPath(n1, 7, algo.ALGORITHM_ASTAR)
	assert.ErrorIs(t, err, algo.ErrNodeOutOfRange)
	_, _, err = g.ShortestPath(n1, n1, "bfs")
	assert.ErrorIs(t, err, algo.ErrUnknownAlgorithm)
}
