package clustering

import (
	"math"
	"sort"

	"golang.org/x/exp/slices"
)

// densityCluster performs HDBSCAN-style density clustering: core distances
// from each point's k-th nearest neighbor, a minimum spanning tree over
// mutual-reachability distance, then component extraction with the usual
// noise label -1 for anything landing in a sub-minClusterSize component or
// an edge over the adaptive distance threshold.
func densityCluster(points [][]float64, minClusterSize int) (labels []int) {
	n := len(points)
	labels = make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	if n == 0 {
		return labels
	}
	if minClusterSize < 1 {
		minClusterSize = 1
	}

	dist := pairwiseEuclidean(points)
	core := coreDistances(dist, minClusterSize)

	mst := minimumSpanningTree(dist, core)
	threshold := adaptiveThreshold(mst)

	uf := newUnionFind(n)
	for _, e := range mst {
		if e.weight <= threshold {
			uf.union(e.a, e.b)
		}
	}

	groups := map[int][]int{}
	for i := 0; i < n; i++ {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	nextTopic := 0
	// assign deterministic topic ids by descending group size, tie-broken
	// by smallest member index, so repeated runs on identical input and
	// identical seed are reproducible.
	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(i, j int) bool {
		gi, gj := groups[roots[i]], groups[roots[j]]
		if len(gi) != len(gj) {
			return len(gi) > len(gj)
		}
		return gi[0] < gj[0]
	})
	for _, r := range roots {
		members := groups[r]
		if len(members) < minClusterSize {
			continue // stays -1 (noise)
		}
		for _, m := range members {
			labels[m] = nextTopic
		}
		nextTopic++
	}
	return labels
}

func pairwiseEuclidean(points [][]float64) [][]float64 {
	n := len(points)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sum float64
			for k := range points[i] {
				diff := points[i][k] - points[j][k]
				sum += diff * diff
			}
			v := math.Sqrt(sum)
			d[i][j] = v
			d[j][i] = v
		}
	}
	return d
}

func coreDistances(dist [][]float64, k int) []float64 {
	n := len(dist)
	core := make([]float64, n)
	for i := 0; i < n; i++ {
		row := append([]float64(nil), dist[i]...)
		slices.Sort(row)
		idx := k
		if idx >= len(row) {
			idx = len(row) - 1
		}
		if idx < 0 {
			idx = 0
		}
		core[i] = row[idx]
	}
	return core
}

type edge struct {
	a, b   int
	weight float64
}

// minimumSpanningTree builds an MST over mutual-reachability distance
// using Prim's algorithm (dense graph, O(n^2) — acceptable within the
// min_articles..max_articles compute bound of spec.md §5).
func minimumSpanningTree(dist [][]float64, core []float64) []edge {
	n := len(dist)
	if n <= 1 {
		return nil
	}
	inTree := make([]bool, n)
	minEdge := make([]float64, n)
	minFrom := make([]int, n)
	for i := range minEdge {
		minEdge[i] = math.Inf(1)
		minFrom[i] = -1
	}
	inTree[0] = true
	minEdge[0] = 0
	for i := 1; i < n; i++ {
		minEdge[i] = mutualReachability(dist, core, 0, i)
		minFrom[i] = 0
	}
	edges := make([]edge, 0, n-1)
	for count := 1; count < n; count++ {
		next := -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !inTree[i] && minEdge[i] < best {
				best = minEdge[i]
				next = i
			}
		}
		if next == -1 {
			break
		}
		inTree[next] = true
		edges = append(edges, edge{a: minFrom[next], b: next, weight: minEdge[next]})
		for i := 0; i < n; i++ {
			if !inTree[i] {
				w := mutualReachability(dist, core, next, i)
				if w < minEdge[i] {
					minEdge[i] = w
					minFrom[i] = next
				}
			}
		}
	}
	return edges
}

func mutualReachability(dist [][]float64, core []float64, a, b int) float64 {
	w := dist[a][b]
	if core[a] > w {
		w = core[a]
	}
	if core[b] > w {
		w = core[b]
	}
	return w
}

// adaptiveThreshold splits the MST at edges significantly longer than the
// surrounding ones: mean + one standard deviation of edge weights, a
// standard single-linkage cut heuristic.
func adaptiveThreshold(mst []edge) float64 {
	if len(mst) == 0 {
		return 0
	}
	var sum float64
	for _, e := range mst {
		sum += e.weight
	}
	mean := sum / float64(len(mst))
	var variance float64
	for _, e := range mst {
		d := e.weight - mean
		variance += d * d
	}
	variance /= float64(len(mst))
	return mean + math.Sqrt(variance)
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
