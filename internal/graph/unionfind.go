package graph

// UnionFind is a disjoint-set forest over the integers [0, n) with path
// halving and union by size.
type UnionFind struct {
	parent []int
	size   []int
}

// NewUnionFind creates n singleton components.
func NewUnionFind(n int) *UnionFind {
	uf := &UnionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

// Find returns the root of the component containing i.
func (uf *UnionFind) Find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

// Union merges the components containing a and b. Returns true if they were separate.
func (uf *UnionFind) Union(a, b int) bool {
	ra, rb := uf.Find(a), uf.Find(b)
	if ra == rb {
		return false
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	return true
}

// Size returns the size of the component containing i.
func (uf *UnionFind) Size(i int) int { return uf.size[uf.Find(i)] }

// Components returns every component as a slice of members, ordered by
// smallest member.
func (uf *UnionFind) Components() [][]int {
	pos := make(map[int]int)
	var result [][]int
	for i := range uf.parent {
		root := uf.Find(i)
		p, ok := pos[root]
		if !ok {
			p = len(result)
			pos[root] = p
			result = append(result, nil)
		}
		result[p] = append(result[p], i)
	}
	return result
}
