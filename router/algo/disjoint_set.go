package algo

// 并查集，元素为[0, n)
type DisjointSet struct {
	parent []int
	count  int
}

func NewDisjointSet(n int) *DisjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &DisjointSet{parent: parent, count: n}
}

func (d *DisjointSet) GetRoot(x int) int {
	r := d.parent[x]
	if r == x {
		return r
	}
	d.parent[x] = d.GetRoot(r)
	return d.parent[x]
}

// 合并x与y所在集合，已在同一集合时返回false
func (d *DisjointSet) Union(x, y int) bool {
	rx, ry := d.GetRoot(x), d.GetRoot(y)
	if rx == ry {
		return false
	}
	d.parent[rx] = ry
	d.count--
	return true
}

// 集合数量
func (d *DisjointSet) Count() int {
	return d.count
}
