package napari

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// indexedPoint is a point that remembers its position in the layer
type indexedPoint struct {
	Point
	i int
}

// Compare implements the kdtree.Comparable interface
func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.Point[d] - q.Point[d]
}

// Dims returns the number of dimensions for the KD-tree
func (p indexedPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	dz := p.Point[0] - q.Point[0]
	dy := p.Point[1] - q.Point[1]
	dx := p.Point[2] - q.Point[2]
	return dz*dz + dy*dy + dx*dx
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p indexedPoints) Len() int                              { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p indexedPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{indexedPoints: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{indexedPoints: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for indexedPoints
type pointPlane struct {
	indexedPoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	return p.indexedPoints[i].Point[p.Dim] < p.indexedPoints[j].Point[p.Dim]
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{indexedPoints: p.indexedPoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}

type pointIndex struct {
	tree *kdtree.Tree
	n    int
}

// Nearest returns the index of the point closest to q in data coordinates
// and the squared distance to it. It returns -1 for an empty layer. The tree is rebuilt
// when the number of points changes.
func (p *Points) Nearest(q Point) (int, float64) {
	if len(p.Coords) == 0 {
		return -1, 0
	}
	if p.index == nil || p.index.n != len(p.Coords) {
		pts := make(indexedPoints, len(p.Coords))
		for i, c := range p.Coords {
			pts[i] = indexedPoint{Point: c, i: i}
		}
		p.index = &pointIndex{tree: kdtree.New(pts, true), n: len(p.Coords)}
	}
	got, d := p.index.tree.Nearest(indexedPoint{Point: q, i: -1})
	if got == nil {
		return -1, 0
	}
	return got.(indexedPoint).i, d
}
