package calendar

// window is a display window in wall-clock minutes of one day.
type window struct {
	start float64
	end   float64
}

// overlaps uses half-open semantics: a window ending exactly when another
// starts does not overlap it.
func (w window) overlaps(o window) bool {
	return w.start < o.end && o.start < w.end
}

// disjointSet is a union-find over indices 0..n-1.
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	d := &disjointSet{parent: make([]int, n), rank: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

func (d *disjointSet) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}

// clusterWindows groups windows connected through pairwise overlap. Groups
// are ordered by their smallest member and list members in index order, so
// the result does not depend on how unions were applied.
func clusterWindows(ws []window) [][]int {
	ds := newDisjointSet(len(ws))
	for i := 0; i < len(ws); i++ {
		for j := i + 1; j < len(ws); j++ {
			if ws[i].overlaps(ws[j]) {
				ds.union(i, j)
			}
		}
	}
	slot := make(map[int]int, len(ws))
	groups := make([][]int, 0)
	for i := range ws {
		root := ds.find(i)
		g, ok := slot[root]
		if !ok {
			g = len(groups)
			slot[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
