package algo

import (
	"container/heap"
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
)

type node[T any] struct {
	p    geometry.Point
	attr T
}

type edge[T any] struct {
	length float64
	attr   T
}

// 只读搜索图
// 构建完成后节点与边均不再改变，因此查询时不需要加锁
type SearchGraph[NT any, ET any] struct {
	// 邻接表，in node -> out node -> edge
	edges []map[int]edge[ET]
	// 点的位置（平面坐标，单位：米）
	nodes []node[NT]
	// A Star距离预估函数
	h IHeuristics
	// edge权值提取函数
	w IEdgeWeight[ET]
	// 边数
	edgeCount int
}

type IHeuristics interface {
	HeuristicEuclidean(geometry.Point, geometry.Point) float64
}

type IEdgeWeight[ET any] interface {
	// 由边属性与边长度（米）计算边权
	GetEdgeWeight(ET, float64) float64
}

func NewSearchGraph[NT any, ET any](h IHeuristics, w IEdgeWeight[ET]) *SearchGraph[NT, ET] {
	return &SearchGraph[NT, ET]{
		edges: make([]map[int]edge[ET], 0),
		nodes: make([]node[NT], 0),
		h:     h,
		w:     w,
	}
}

func (g *SearchGraph[NT, ET]) InitNode(p geometry.Point, attr NT) int {
	g.nodes = append(g.nodes, node[NT]{p: p, attr: attr})
	g.edges = append(g.edges, make(map[int]edge[ET]))
	return len(g.nodes) - 1
}

// 初始化边，重复的边以较短者为准
func (g *SearchGraph[NT, ET]) InitEdge(from, to int, length float64, attr ET) error {
	if from < 0 || from >= len(g.nodes) || to < 0 || to >= len(g.nodes) {
		return fmt.Errorf("%w: edge %d->%d with %d nodes", ErrNodeOutOfRange, from, to, len(g.nodes))
	}
	if old, ok := g.edges[from][to]; ok {
		if old.length <= length {
			return nil
		}
	} else {
		g.edgeCount++
	}
	g.edges[from][to] = edge[ET]{length: length, attr: attr}
	return nil
}

func (g *SearchGraph[NT, ET]) NodeCount() int {
	return len(g.nodes)
}

func (g *SearchGraph[NT, ET]) EdgeCount() int {
	return g.edgeCount
}

func (g *SearchGraph[NT, ET]) NodePoint(id int) geometry.Point {
	return g.nodes[id].p
}

func (g *SearchGraph[NT, ET]) NodeAttr(id int) NT {
	return g.nodes[id].attr
}

// 获取边长度与属性，ok表示边存在
func (g *SearchGraph[NT, ET]) GetEdge(from, to int) (length float64, attr ET, ok bool) {
	e, ok := g.edges[from][to]
	return e.length, e.attr, ok
}

type PathItem[NT any, ET any] struct {
	NodeAttr NT
	// 从当前点出发的边，最后一个点为零值
	EdgeAttr ET
	// 当前点的编号
	Node int
}

func (g *SearchGraph[NT, ET]) reconstructPath(cameFrom map[int]int, curNode int) []PathItem[NT, ET] {
	pathBeforeReversed := []PathItem[NT, ET]{{NodeAttr: g.nodes[curNode].attr, Node: curNode}}
	for {
		if from, ok := cameFrom[curNode]; ok {
			attr := g.edges[from][curNode].attr
			curNode = from
			pathBeforeReversed = append(pathBeforeReversed, PathItem[NT, ET]{
				NodeAttr: g.nodes[curNode].attr,
				EdgeAttr: attr,
				Node:     curNode,
			})
		} else {
			break
		}
	}
	return lo.Reverse(pathBeforeReversed)
}

// 按指定算法求最短路，不可达时返回nil与+Inf
func (g *SearchGraph[NT, ET]) ShortestPath(start, end int, algorithm Algorithm) ([]PathItem[NT, ET], float64, error) {
	if start < 0 || start >= len(g.nodes) || end < 0 || end >= len(g.nodes) {
		return nil, math.Inf(0), fmt.Errorf("%w: %d->%d with %d nodes", ErrNodeOutOfRange, start, end, len(g.nodes))
	}
	switch algorithm {
	case ALGORITHM_ASTAR:
		path, cost := g.ShortestPathAStar(start, end)
		return path, cost, nil
	case ALGORITHM_DIJKSTRA:
		path, cost := g.ShortestPathDijkstra(start, end)
		return path, cost, nil
	default:
		return nil, math.Inf(0), fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}
}

// A Star算法求最短路
func (g *SearchGraph[NT, ET]) ShortestPathAStar(start, end int) ([]PathItem[NT, ET], float64) {
	return g.search(start, end, func(a, b geometry.Point) float64 {
		return g.h.HeuristicEuclidean(a, b)
	})
}

// Dijkstra算法求最短路
func (g *SearchGraph[NT, ET]) ShortestPathDijkstra(start, end int) ([]PathItem[NT, ET], float64) {
	return g.search(start, end, func(geometry.Point, geometry.Point) float64 {
		return 0
	})
}

func (g *SearchGraph[NT, ET]) search(start, end int, h func(geometry.Point, geometry.Point) float64) ([]PathItem[NT, ET], float64) {
	if start == end {
		return []PathItem[NT, ET]{{NodeAttr: g.nodes[start].attr, Node: start}}, 0
	}
	openSet := make(PriorityQueue, 1)
	openSetMap := make(map[int]*Item, 1) // openSet value -> openSet item
	closed := make(map[int]struct{})
	cameFrom := make(map[int]int, 0)
	gScore := make(map[int]float64, 0)
	gScore[start] = .0
	fScore := h(g.nodes[start].p, g.nodes[end].p)
	openSet[0] = &Item{Value: start, Priority: fScore, Index: 0}
	openSetMap[start] = openSet[0]
	heap.Init(&openSet)
	for openSet.Len() > 0 {
		cur := heap.Pop(&openSet).(*Item).Value
		delete(openSetMap, cur)
		if cur == end {
			return g.reconstructPath(cameFrom, cur), gScore[cur]
		}
		closed[cur] = struct{}{}
		for neighbor, edge := range g.edges[cur] {
			if _, ok := closed[neighbor]; ok {
				continue
			}
			gScoreTentative := gScore[cur] + g.w.GetEdgeWeight(edge.attr, edge.length)
			gScoreNeighbor, ok := gScore[neighbor]
			if !ok {
				gScoreNeighbor = math.Inf(0)
			}
			if gScoreTentative < gScoreNeighbor {
				cameFrom[neighbor] = cur
				gScore[neighbor] = gScoreTentative
				fScore := gScoreTentative + h(g.nodes[neighbor].p, g.nodes[end].p)
				if item, inOpen := openSetMap[neighbor]; inOpen {
					// 已在堆中的节点，修改其优先级
					item.Priority = fScore
					heap.Fix(&openSet, item.Index)
				} else {
					// 新访问的节点
					item := &Item{Value: neighbor, Priority: fScore}
					heap.Push(&openSet, item)
					openSetMap[neighbor] = item
				}
			}
		}
	}
	return nil, math.Inf(0)
}
