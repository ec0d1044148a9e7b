package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Position 经纬度坐标（WGS84，单位：度）
// 坐标顺序：先纬度Lat后经度Lon，与orb.Point的[lon, lat]顺序相反
// 值类型，可直接比较与作为map key
type Position struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lon float64 `json:"lon" bson:"lon"`
}

func NewPosition(lat, lon float64) Position {
	return Position{Lat: lat, Lon: lon}
}

// 从orb.Point（[lon, lat]）转换
func FromPoint(p orb.Point) Position {
	return Position{Lat: p.Lat(), Lon: p.Lon()}
}

// 转换为orb.Point（[lon, lat]）
func (p Position) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// 球面距离（单位：米）
func (p Position) DistanceTo(o Position) float64 {
	return orbgeo.DistanceHaversine(p.Point(), o.Point())
}

// 是否为合法的经纬度
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// 线性插值，ratio∈[0,1]，0返回p，1返回o
func (p Position) Lerp(o Position, ratio float64) Position {
	if ratio <= 0 {
		return p
	}
	if ratio >= 1 {
		return o
	}
	return Position{
		Lat: p.Lat + (o.Lat-p.Lat)*ratio,
		Lon: p.Lon + (o.Lon-p.Lon)*ratio,
	}
}

func (p Position) String() string {
	return fmt.Sprintf("(%.7f, %.7f)", p.Lat, p.Lon)
}
