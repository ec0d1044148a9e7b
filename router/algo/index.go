package algo

import (
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
)

type cell struct {
	X, Y int
}

type segment struct {
	from, to int
	a, b     geometry.Point
}

// 吸附结果
type Snap struct {
	From, To int            // 所在线段的两端节点编号
	Point    geometry.Point // 线段上的最近点
	Ratio    float64        // 最近点在线段上的位置，0为From，1为To
	Distance float64        // 查询点到最近点的距离
}

// 基于均匀网格的线段空间索引
// 构建完成后只读
type LocationIndex struct {
	cellSize float64
	cells    map[cell][]int
	segments []segment
}

func NewLocationIndex(cellSize float64) *LocationIndex {
	if cellSize <= 0 {
		panic("cell size must be positive")
	}
	return &LocationIndex{
		cellSize: cellSize,
		cells:    make(map[cell][]int),
		segments: make([]segment, 0),
	}
}

func (idx *LocationIndex) cellOf(p geometry.Point) cell {
	return cell{X: int(math.Floor(p.X / idx.cellSize)), Y: int(math.Floor(p.Y / idx.cellSize))}
}

// 插入线段，线段覆盖的所有网格都会记录该线段
func (idx *LocationIndex) Insert(from, to int, a, b geometry.Point) {
	id := len(idx.segments)
	idx.segments = append(idx.segments, segment{from: from, to: to, a: a, b: b})
	ca, cb := idx.cellOf(a), idx.cellOf(b)
	for x := min(ca.X, cb.X); x <= max(ca.X, cb.X); x++ {
		for y := min(ca.Y, cb.Y); y <= max(ca.Y, cb.Y); y++ {
			c := cell{X: x, Y: y}
			idx.cells[c] = append(idx.cells[c], id)
		}
	}
}

func (idx *LocationIndex) Len() int {
	return len(idx.segments)
}

// 查找radius范围内距离p最近的线段上的点
func (idx *LocationIndex) FindClosest(p geometry.Point, radius float64) (Snap, bool) {
	best := Snap{Distance: math.Inf(0)}
	bestID := -1
	c := idx.cellOf(p)
	r := int(math.Ceil(radius / idx.cellSize))
	visited := make(map[int]struct{})
	for x := c.X - r; x <= c.X+r; x++ {
		for y := c.Y - r; y <= c.Y+r; y++ {
			for _, id := range idx.cells[cell{X: x, Y: y}] {
				if _, ok := visited[id]; ok {
					continue
				}
				visited[id] = struct{}{}
				s := idx.segments[id]
				q, ratio := project(p, s.a, s.b)
				d := geometry.Distance(p, q)
				// 距离相同时取编号较小者，保证结果确定
				if d < best.Distance || (d == best.Distance && id < bestID) {
					best = Snap{From: s.from, To: s.to, Point: q, Ratio: ratio, Distance: d}
					bestID = id
				}
			}
		}
	}
	if bestID < 0 || best.Distance > radius {
		return Snap{}, false
	}
	return best, true
}

// 点p在线段ab上的投影
func project(p, a, b geometry.Point) (geometry.Point, float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	len2 := dx*dx + dy*dy
	if len2 == 0 {
		return a, 0
	}
	t := lo.Clamp(((p.X-a.X)*dx+(p.Y-a.Y)*dy)/len2, 0, 1)
	return geometry.Point{X: a.X + t*dx, Y: a.Y + t*dy}, t
}
