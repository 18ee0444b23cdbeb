// Package spatial provides the nearest-neighbour point index built over a
// model grid mesh.
package spatial

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"go.coastalobs.io/inundation-api/internal/domain"
)

// Candidate is one grid point returned by a nearest query.
type Candidate struct {
	// Dist is the Euclidean distance to the query point in degree space.
	Dist float64
	// Node is the flat cell identifier into the mesh.
	Node int
}

// Index is an immutable spatial index over a mesh's (lon, lat) points.
// Build it once per grid snapshot; queries are read-only.
type Index struct {
	tree *rtree.Rtree
	n    int
}

type gridPoint struct {
	geom.Point
	node int
}

// NewIndex builds the index from a mesh.
func NewIndex(mesh *domain.Mesh) *Index {
	tree := rtree.NewTree(25, 50)
	for i := 0; i < mesh.Len(); i++ {
		tree.Insert(&gridPoint{Point: geom.Point{X: mesh.Lon[i], Y: mesh.Lat[i]}, node: i})
	}
	return &Index{tree: tree, n: mesh.Len()}
}

// Len returns the number of indexed grid points.
func (ix *Index) Len() int { return ix.n }

// Nearest returns up to k candidates closest to (lon, lat), ascending by
// distance. Asking for more neighbours than indexed points returns every
// point.
func (ix *Index) Nearest(lon, lat float64, k int) []Candidate {
	if k <= 0 || ix.n == 0 {
		return nil
	}
	if k > ix.n {
		k = ix.n
	}
	q := geom.Point{X: lon, Y: lat}
	neighbors := ix.tree.NearestNeighbors(k, q)
	cands := make([]Candidate, 0, len(neighbors))
	for _, nb := range neighbors {
		gp, ok := nb.(*gridPoint)
		if !ok || gp == nil {
			continue
		}
		cands = append(cands, Candidate{
			Dist: math.Hypot(gp.Point.X-q.X, gp.Point.Y-q.Y),
			Node: gp.node,
		})
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].Dist < cands[b].Dist })
	return cands
}
