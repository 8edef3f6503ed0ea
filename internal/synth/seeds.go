package synth

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// seed is a Voronoi site tagged with the region id it grows.
type seed struct {
	id  int32
	pos r3.Vec
}

func coord(v r3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	default:
		panic("synth: illegal dimension")
	}
}

// Compare satisfies kdtree.Comparable.
func (s seed) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return coord(s.pos, d) - coord(c.(seed).pos, d)
}

// Dims satisfies kdtree.Comparable.
func (s seed) Dims() int { return 3 }

// Distance returns the squared Euclidean distance to c.
func (s seed) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(s.pos, c.(seed).pos))
}

// seeds satisfies kdtree.Interface.
type seeds []seed

func (s seeds) Index(i int) kdtree.Comparable         { return s[i] }
func (s seeds) Len() int                              { return len(s) }
func (s seeds) Pivot(d kdtree.Dim) int                { return seedPlane{Dim: d, seeds: s}.Pivot() }
func (s seeds) Slice(start, end int) kdtree.Interface { return s[start:end] }

// seedPlane sorts seeds along one dimension. Pivots use the median of medians so tree
// construction does not consume the global random source.
type seedPlane struct {
	kdtree.Dim
	seeds
}

func (p seedPlane) Less(i, j int) bool {
	return coord(p.seeds[i].pos, p.Dim) < coord(p.seeds[j].pos, p.Dim)
}
func (p seedPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p seedPlane) Slice(start, end int) kdtree.SortSlicer {
	p.seeds = p.seeds[start:end]
	return p
}
func (p seedPlane) Swap(i, j int) {
	p.seeds[i], p.seeds[j] = p.seeds[j], p.seeds[i]
}

// seedIndex answers nearest-seed queries.
type seedIndex struct {
	tree *kdtree.Tree
}

// newSeedIndex builds the tree. The slice is reordered in place.
func newSeedIndex(s seeds) *seedIndex {
	return &seedIndex{tree: kdtree.New(s, false)}
}

// nearest returns the id of the seed closest to p. Seeds at exactly the same distance
// resolve to the lowest id.
func (ix *seedIndex) nearest(p r3.Vec) int32 {
	q := seed{pos: p}
	best, d := ix.tree.Nearest(q)
	if best == nil {
		return 0
	}
	id := best.(seed).id
	keep := kdtree.NewDistKeeper(d)
	ix.tree.NearestSet(keep, q)
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		if other := c.Comparable.(seed).id; other < id {
			id = other
		}
	}
	return id
}
