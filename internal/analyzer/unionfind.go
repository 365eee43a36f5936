package analyzer

import (
	"sort"
)

// UnionFind is a disjoint-set structure over opaque string identifiers with
// path compression and union by rank. Elements are created lazily: the first
// Find of an unknown element makes it its own singleton root, so there is no
// explicit add operation.
type UnionFind struct {
	parent map[string]string
	rank   map[string]int
}

// NewUnionFind creates an empty union-find structure.
func NewUnionFind() *UnionFind {
	return &UnionFind{
		parent: make(map[string]string),
		rank:   make(map[string]int),
	}
}

// Find returns the root of x, creating x as a singleton on first reference.
// Every call rewrites the traversed path to point directly at the root.
func (uf *UnionFind) Find(x string) string {
	if _, ok := uf.parent[x]; !ok {
		uf.parent[x] = x
		uf.rank[x] = 0
		return x
	}
	if uf.parent[x] != x {
		uf.parent[x] = uf.Find(uf.parent[x])
	}
	return uf.parent[x]
}

// Union merges the sets containing x and y. Repeated or reversed-order calls
// on the same pair are no-ops.
func (uf *UnionFind) Union(x, y string) {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return
	}
	switch {
	case uf.rank[rx] < uf.rank[ry]:
		uf.parent[rx] = ry
	case uf.rank[rx] > uf.rank[ry]:
		uf.parent[ry] = rx
	default:
		uf.parent[ry] = rx
		uf.rank[rx]++
	}
}

// IsConnected reports whether x and y are in the same set.
func (uf *UnionFind) IsConnected(x, y string) bool {
	return uf.Find(x) == uf.Find(y)
}

// Groups returns every referenced element partitioned by root. Members are
// sorted and roots iterate deterministically through the sorted member lists.
func (uf *UnionFind) Groups() map[string][]string {
	groups := make(map[string][]string)
	for x := range uf.parent {
		root := uf.Find(x)
		groups[root] = append(groups[root], x)
	}
	for root := range groups {
		sort.Strings(groups[root])
	}
	return groups
}

// Len returns the number of referenced elements.
func (uf *UnionFind) Len() int {
	return len(uf.parent)
}
