package domain

import "fmt"

// GridKind tags the topology of a model grid. It is resolved once when the
// mesh is built, never re-inferred per query.
type GridKind int

const (
	// Structured grids have separable 1-D longitude/latitude axes forming
	// an implicit 2-D mesh.
	Structured GridKind = iota
	// Unstructured grids specify every point's coordinates independently.
	Unstructured
)

func (k GridKind) String() string {
	switch k {
	case Structured:
		return "structured"
	case Unstructured:
		return "unstructured"
	default:
		return fmt.Sprintf("GridKind(%d)", int(k))
	}
}

// Cell identifies one grid point in a model's native coordinates.
type Cell struct {
	// Node is the flat index into the mesh. For unstructured grids it is
	// the native cell coordinate.
	Node int
	// Row and Col are the native coordinates on structured grids; both are
	// -1 on unstructured grids.
	Row int
	Col int
}

// Mesh is the flattened (lon, lat) coordinate set of a model grid. All
// longitudes are stored in the [-180, 180] convention. A Mesh is read-only
// after construction and is rebuilt whenever the grid changes.
type Mesh struct {
	Kind GridKind
	Rows int // latitude count on structured grids
	Cols int // longitude count on structured grids
	Lon  []float64
	Lat  []float64
}

// NewStructuredMesh expands 1-D longitude/latitude axes into a full mesh,
// pairing every longitude with every latitude in row-major order.
func NewStructuredMesh(lon, lat []float64) (*Mesh, error) {
	if len(lon) == 0 || len(lat) == 0 {
		return nil, fmt.Errorf("structured mesh needs non-empty axes, got %d lon x %d lat", len(lon), len(lat))
	}
	rows, cols := len(lat), len(lon)
	wrapped := WrapLon180Slice(lon)
	meshLon := make([]float64, rows*cols)
	meshLat := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			meshLon[i*cols+j] = wrapped[j]
			meshLat[i*cols+j] = lat[i]
		}
	}
	return &Mesh{Kind: Structured, Rows: rows, Cols: cols, Lon: meshLon, Lat: meshLat}, nil
}

// NewUnstructuredMesh pairs independently specified coordinate arrays.
// Unstructured grids are already paired, so no expansion happens.
func NewUnstructuredMesh(lon, lat []float64) (*Mesh, error) {
	if len(lon) != len(lat) {
		return nil, fmt.Errorf("unstructured mesh needs equal-length coordinate arrays, got %d lon and %d lat", len(lon), len(lat))
	}
	return &Mesh{
		Kind: Unstructured,
		Rows: len(lon),
		Cols: 1,
		Lon:  WrapLon180Slice(lon),
		Lat:  append([]float64(nil), lat...),
	}, nil
}

// Len returns the number of grid points in the mesh.
func (m *Mesh) Len() int { return len(m.Lon) }

// Cell unflattens a flat point index into the model's native coordinates.
func (m *Mesh) Cell(flat int) (Cell, error) {
	if flat < 0 || flat >= m.Len() {
		return Cell{}, fmt.Errorf("cell index %d out of range [0, %d)", flat, m.Len())
	}
	if m.Kind == Unstructured {
		return Cell{Node: flat, Row: -1, Col: -1}, nil
	}
	return Cell{Node: flat, Row: flat / m.Cols, Col: flat % m.Cols}, nil
}
