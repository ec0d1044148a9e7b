package router

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/sim/mobility/geo"
	"git.fiblab.net/sim/mobility/router/algo"
	"github.com/paulmach/orb"
)

type nodeAttr struct {
	OSMID int64
}

type edgeAttr struct {
	Speed float64
	WayID int64
}

type heuristics struct {
	weighting Weighting
	speed     float64
}

func (h heuristics) HeuristicEuclidean(p1 geometry.Point, p2 geometry.Point) float64 {
	if h.weighting == WEIGHTING_SHORTEST {
		return geometry.Distance(p1, p2)
	}
	return geometry.Distance(p1, p2) / h.speed
}

type edgeWeight struct {
	weighting Weighting
}

func (w edgeWeight) GetEdgeWeight(attr edgeAttr, length float64) float64 {
	if w.weighting == WEIGHTING_SHORTEST {
		return length
	}
	return length / attr.Speed
}

// Router 单一出行方式的只读路网，支持道路吸附与最短路查询
//
//	路网拓扑：
//	  o------o------o   o: OSM way上的节点
//	  |  ·   |          ·: 查询点，吸附到最近的线段上
//	  o------o
//	1. 拓扑中的点为可通行way上的所有OSM节点
//	2. 拓扑中的边为way上相邻两节点之间允许通行方向上的有向边
//	3. cost为长度/速度（fastest）或长度（shortest）
type Router struct {
	vehicle   Vehicle
	algorithm algo.Algorithm
	weight    edgeWeight
	proj      projection

	graph     *algo.SearchGraph[nodeAttr, edgeAttr]
	index     *algo.LocationIndex
	positions []geo.Position
	bound     orb.Bound

	components int
}

// 由预处理路网创建Router，使用默认算法与边权策略
func New(v Vehicle, data *GraphData) (*Router, error) {
	return NewWithPolicy(v, data, DEFAULT_ALGORITHM, DEFAULT_WEIGHTING)
}

func NewWithPolicy(v Vehicle, data *GraphData, algorithm algo.Algorithm, weighting Weighting) (*Router, error) {
	if len(data.Nodes) == 0 || len(data.Edges) == 0 {
		return nil, fmt.Errorf("%w: empty graph for %v", ErrGraphBuild, v)
	}
	r := &Router{
		vehicle:   v,
		algorithm: algorithm,
		weight:    edgeWeight{weighting: weighting},
		proj:      newProjection(data.Origin),
		graph: algo.NewSearchGraph[nodeAttr, edgeAttr](
			heuristics{weighting: weighting, speed: maxSpeed(v)},
			edgeWeight{weighting: weighting},
		),
		index:     algo.NewLocationIndex(INDEX_CELL_SIZE),
		positions: make([]geo.Position, len(data.Nodes)),
	}
	for i, n := range data.Nodes {
		p := geo.NewPosition(n.Lat, n.Lon)
		r.positions[i] = p
		r.graph.InitNode(r.proj.toPlane(p), nodeAttr{OSMID: n.OSMID})
		if i == 0 {
			r.bound = p.Point().Bound()
		} else {
			r.bound = r.bound.Extend(p.Point())
		}
	}
	// 双向道路只向索引中插入一次
	indexed := make(map[[2]int]struct{})
	components := algo.NewDisjointSet(len(data.Nodes))
	for _, e := range data.Edges {
		from, to := int(e.From), int(e.To)
		if err := r.graph.InitEdge(from, to, e.Length, edgeAttr{Speed: e.Speed, WayID: e.WayID}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGraphBuild, err)
		}
		components.Union(from, to)
		key := [2]int{min(from, to), max(from, to)}
		if _, ok := indexed[key]; ok {
			continue
		}
		indexed[key] = struct{}{}
		r.index.Insert(from, to, r.graph.NodePoint(from), r.graph.NodePoint(to))
	}
	r.components = components.Count()
	return r, nil
}

func (r *Router) Vehicle() Vehicle {
	return r.vehicle
}

func (r *Router) NodeCount() int {
	return r.graph.NodeCount()
}

func (r *Router) EdgeCount() int {
	return r.graph.EdgeCount()
}

// 忽略方向后的连通分量数，大于1时部分起终点之间无路径
func (r *Router) Components() int {
	return r.components
}

// 路网覆盖的经纬度范围
func (r *Router) Bound() orb.Bound {
	return r.bound
}

// 吸附到最近的可通行道路上，搜索半径内没有道路时ok为false
func (r *Router) Snap(p geo.Position) (geo.Position, bool) {
	s, ok := r.index.FindClosest(r.proj.toPlane(p), SNAP_RADIUS)
	if !ok {
		return geo.Position{}, false
	}
	return r.proj.toPosition(s.Point), true
}

// 吸附点沿所在线段到达某端点的代价
type anchor struct {
	node     int
	length   float64
	duration float64
	weight   float64
}

func (r *Router) partial(from, to int, ratio float64) (anchor, bool) {
	length, attr, ok := r.graph.GetEdge(from, to)
	if !ok {
		return anchor{}, false
	}
	l := length * ratio
	return anchor{
		node:     to,
		length:   l,
		duration: l / attr.Speed,
		weight:   r.weight.GetEdgeWeight(attr, l),
	}, true
}

// 起点吸附点可以离开线段到达的端点
func (r *Router) departures(s algo.Snap) []anchor {
	res := make([]anchor, 0, 2)
	if a, ok := r.partial(s.From, s.To, 1-s.Ratio); ok {
		res = append(res, a)
	}
	if a, ok := r.partial(s.To, s.From, s.Ratio); ok {
		res = append(res, a)
	}
	return res
}

// 可以沿线段进入终点吸附点的端点
func (r *Router) arrivals(s algo.Snap) []anchor {
	res := make([]anchor, 0, 2)
	if a, ok := r.partial(s.From, s.To, s.Ratio); ok {
		a.node = s.From
		res = append(res, a)
	}
	if a, ok := r.partial(s.To, s.From, 1-s.Ratio); ok {
		a.node = s.To
		res = append(res, a)
	}
	return res
}

// 最短路查询
// 起终点无法吸附或不连通时返回nil, nil（无路径）
func (r *Router) Route(from, to geo.Position) (*Route, error) {
	fs, ok := r.index.FindClosest(r.proj.toPlane(from), SNAP_RADIUS)
	if !ok {
		return nil, nil
	}
	ts, ok := r.index.FindClosest(r.proj.toPlane(to), SNAP_RADIUS)
	if !ok {
		return nil, nil
	}
	start, end := r.proj.toPosition(fs.Point), r.proj.toPosition(ts.Point)

	best := &Route{Vehicle: r.vehicle, Weight: math.Inf(0)}
	// 起终点位于同一线段上且方向允许时直接到达
	if fs.From == ts.From && fs.To == ts.To {
		if ts.Ratio >= fs.Ratio {
			if a, ok := r.partial(fs.From, fs.To, ts.Ratio-fs.Ratio); ok {
				best = &Route{Vehicle: r.vehicle, Points: []geo.Position{start, end}, Distance: a.length, Time: a.duration, Weight: a.weight}
			}
		}
		if ts.Ratio <= fs.Ratio {
			if a, ok := r.partial(fs.To, fs.From, fs.Ratio-ts.Ratio); ok && a.weight < best.Weight {
				best = &Route{Vehicle: r.vehicle, Points: []geo.Position{start, end}, Distance: a.length, Time: a.duration, Weight: a.weight}
			}
		}
	}
	for _, dep := range r.departures(fs) {
		for _, arr := range r.arrivals(ts) {
			path, cost, err := r.graph.ShortestPath(dep.node, arr.node, r.algorithm)
			if err != nil {
				return nil, err
			}
			if path == nil {
				continue
			}
			total := dep.weight + cost + arr.weight
			if total >= best.Weight {
				continue
			}
			route := &Route{
				Vehicle:  r.vehicle,
				Points:   make([]geo.Position, 0, len(path)+2),
				Distance: dep.length + arr.length,
				Time:     dep.duration + arr.duration,
				Weight:   total,
			}
			route.Points = append(route.Points, start)
			for i, item := range path {
				route.Points = append(route.Points, r.positions[item.Node])
				if i+1 < len(path) {
					length, attr, _ := r.graph.GetEdge(item.Node, path[i+1].Node)
					route.Distance += length
					route.Time += length / attr.Speed
				}
			}
			route.Points = append(route.Points, end)
			best = route
		}
	}
	if best.Points == nil {
		return nil, nil
	}
	return best, nil
}
