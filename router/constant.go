package router

import (
	"errors"

	"git.fiblab.net/sim/mobility/router/algo"
)

// 边权计算策略
type Weighting string

const (
	// 最短时间
	WEIGHTING_FASTEST Weighting = "fastest"
	// 最短距离
	WEIGHTING_SHORTEST Weighting = "shortest"
)

const (
	// 默认最短路算法（策略常量，不随请求改变）
	DEFAULT_ALGORITHM = algo.ALGORITHM_ASTAR
	// 默认边权策略
	DEFAULT_WEIGHTING = WEIGHTING_FASTEST

	// 道路吸附的搜索半径（单位：米）
	SNAP_RADIUS = 300
	// 空间索引网格大小（单位：米）
	INDEX_CELL_SIZE = 100

	// 持久化路网文件的格式版本，变化后旧文件会被删除重建
	FORMAT_VERSION = 1
	// 持久化文件名
	META_FILE  = "meta.yaml"
	GRAPH_FILE = "graph.bson"
)

var (
	// 错误：某出行方式的路网构建失败
	ErrGraphBuild = errors.New("graph build failed")
	// 错误：持久化路网由不兼容的格式版本生成
	ErrIncompatibleFormat = errors.New("incompatible graph format version")
	// 错误：出行方式对应的路网不可用
	ErrGraphUnavailable = errors.New("graph unavailable")
	// 错误：搜索半径内没有可通行道路
	ErrSnapFailure = errors.New("no road within snap radius")
)
