package main

import (
	"git.fiblab.net/sim/mobility/geo"
	"git.fiblab.net/sim/mobility/router"
	"github.com/paulmach/orb/geojson"
)

const MOBILITY_SERVICE_NAME = "mobility.v1.MobilityService"

const (
	GET_ROUTE_PROCEDURE    = "/" + MOBILITY_SERVICE_NAME + "/GetRoute"
	SNAP_TO_ROAD_PROCEDURE = "/" + MOBILITY_SERVICE_NAME + "/SnapToRoad"
	ADMIT_PROCEDURE        = "/" + MOBILITY_SERVICE_NAME + "/Admit"
	GET_POSITION_PROCEDURE = "/" + MOBILITY_SERVICE_NAME + "/GetPosition"
)

type GetRouteRequest struct {
	Vehicle router.Vehicle `json:"vehicle"`
	Start   geo.Position   `json:"start"`
	End     geo.Position   `json:"end"`
	GeoJSON bool           `json:"geojson,omitempty"` // 同时返回GeoJSON表示
}

// 无路径时Route为空
type GetRouteResponse struct {
	Route   *router.Route    `json:"route,omitempty"`
	Feature *geojson.Feature `json:"feature,omitempty"`
}

type SnapToRoadRequest struct {
	Vehicle  router.Vehicle `json:"vehicle"`
	Position geo.Position   `json:"position"`
}

// 搜索半径内没有道路时Position为空
type SnapToRoadResponse struct {
	Position *geo.Position `json:"position,omitempty"`
}

type AdmitRequest struct {
	ID       int          `json:"id"`
	Position geo.Position `json:"position"`
}

type AdmitResponse struct {
	Admitted bool          `json:"admitted"`
	Position *geo.Position `json:"position,omitempty"` // 初始位置
	Reason   string        `json:"reason,omitempty"`   // 拒绝原因
}

// 位置查询类型
type PositionKind string

const (
	POSITION_AT       PositionKind = "at"
	POSITION_NEXT     PositionKind = "next"
	POSITION_PREVIOUS PositionKind = "previous"
	POSITION_EXPECTED PositionKind = "expected"
)

type GetPositionRequest struct {
	ID   int          `json:"id"`
	Time float64      `json:"time"`
	Kind PositionKind `json:"kind,omitempty"` // 默认为at
}

type GetPositionResponse struct {
	Position geo.Position `json:"position"`
	Traced   bool         `json:"traced"`
}
