package router

import (
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/sim/mobility/geo"
	"github.com/paulmach/osm"
)

type NodeData struct {
	OSMID int64   `bson:"osm_id"`
	Lat   float64 `bson:"lat"`
	Lon   float64 `bson:"lon"`
}

type EdgeData struct {
	From   int32   `bson:"from"`
	To     int32   `bson:"to"`
	Length float64 `bson:"length"` // 单位：米
	Speed  float64 `bson:"speed"`  // 单位：m/s
	WayID  int64   `bson:"way_id"`
}

// 某出行方式的预处理路网，即持久化到工作目录中的内容
type GraphData struct {
	Vehicle string       `bson:"vehicle"`
	Origin  geo.Position `bson:"origin"` // 平面投影参考点
	Nodes   []NodeData   `bson:"nodes"`
	Edges   []EdgeData   `bson:"edges"`
}

// 按出行方式的通行规则从原始路网中抽取可通行的有向边
func buildGraphData(net *network, v Vehicle) (*GraphData, error) {
	origin := geo.FromPoint(net.bound.Center())
	proj := newProjection(origin)
	data := &GraphData{
		Vehicle: v.String(),
		Origin:  origin,
		Nodes:   make([]NodeData, 0),
		Edges:   make([]EdgeData, 0),
	}
	nodeIndex := make(map[osm.NodeID]int32)
	indexOf := func(id osm.NodeID) int32 {
		if i, ok := nodeIndex[id]; ok {
			return i
		}
		p := net.nodes[id]
		i := int32(len(data.Nodes))
		data.Nodes = append(data.Nodes, NodeData{OSMID: int64(id), Lat: p.Lat(), Lon: p.Lon()})
		nodeIndex[id] = i
		return i
	}
	for _, w := range net.ways {
		enc := encode(v, w.tags)
		if !enc.forward && !enc.backward {
			continue
		}
		for i := 1; i < len(w.nodes); i++ {
			a, okA := net.nodes[w.nodes[i-1]]
			b, okB := net.nodes[w.nodes[i]]
			if !okA || !okB || w.nodes[i-1] == w.nodes[i] {
				// 地图裁剪导致的缺失节点
				continue
			}
			length := geometry.Distance(proj.toPlane(geo.FromPoint(a)), proj.toPlane(geo.FromPoint(b)))
			from, to := indexOf(w.nodes[i-1]), indexOf(w.nodes[i])
			if enc.forward {
				data.Edges = append(data.Edges, EdgeData{From: from, To: to, Length: length, Speed: enc.speed, WayID: int64(w.id)})
			}
			if enc.backward {
				data.Edges = append(data.Edges, EdgeData{From: to, To: from, Length: length, Speed: enc.speed, WayID: int64(w.id)})
			}
		}
	}
	if len(data.Edges) == 0 {
		return nil, fmt.Errorf("%w: no routable road for %v", ErrGraphBuild, v)
	}
	return data, nil
}
