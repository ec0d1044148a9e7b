package router

import (
	"git.fiblab.net/sim/mobility/geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/samber/lo"
)

// 路径规划结果，生成后只读
type Route struct {
	Vehicle  Vehicle        `json:"vehicle"`
	Points   []geo.Position `json:"points"`   // 从起点吸附点到终点吸附点的折线
	Distance float64        `json:"distance"` // 单位：米
	Time     float64        `json:"time"`     // 预计用时，单位：秒
	Weight   float64        `json:"weight"`   // 边权策略下的总代价
}

func (r *Route) Start() geo.Position {
	return r.Points[0]
}

func (r *Route) End() geo.Position {
	return r.Points[len(r.Points)-1]
}

func (r *Route) LineString() orb.LineString {
	return lo.Map(r.Points, func(p geo.Position, _ int) orb.Point {
		return p.Point()
	})
}

// GeoJSON表示，便于可视化
func (r *Route) Feature() *geojson.Feature {
	f := geojson.NewFeature(r.LineString())
	f.Properties["vehicle"] = r.Vehicle.String()
	f.Properties["distance"] = r.Distance
	f.Properties["time"] = r.Time
	return f
}
