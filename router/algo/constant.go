package algo

import "errors"

// 最短路算法
type Algorithm string

const (
	// A*，启发函数由图的IHeuristics提供
	ALGORITHM_ASTAR Algorithm = "astar"
	// Dijkstra，等价于启发函数恒为0的A*
	ALGORITHM_DIJKSTRA Algorithm = "dijkstra"
)

var (
	// 错误：未知的最短路算法
	ErrUnknownAlgorithm = errors.New("unknown shortest path algorithm")
	// 错误：节点编号越界
	ErrNodeOutOfRange = errors.New("node out of range")
)
