package router

import (
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/sim/mobility/geo"
)

// 地球平均半径（单位：米）
const EARTH_RADIUS = 6371008.8

// 以参考点为原点的等距圆柱投影，城市尺度下误差可忽略
type projection struct {
	origin geo.Position
	cos0   float64
}

func newProjection(origin geo.Position) projection {
	return projection{origin: origin, cos0: math.Cos(origin.Lat * math.Pi / 180)}
}

func (p projection) toPlane(pos geo.Position) geometry.Point {
	return geometry.Point{
		X: (pos.Lon - p.origin.Lon) * math.Pi / 180 * EARTH_RADIUS * p.cos0,
		Y: (pos.Lat - p.origin.Lat) * math.Pi / 180 * EARTH_RADIUS,
	}
}

func (p projection) toPosition(pt geometry.Point) geo.Position {
	return geo.Position{
		Lat: p.origin.Lat + pt.Y/EARTH_RADIUS*180/math.Pi,
		Lon: p.origin.Lon + pt.X/(EARTH_RADIUS*p.cos0)*180/math.Pi,
	}
}
