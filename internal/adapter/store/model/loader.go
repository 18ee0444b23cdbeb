// Package model loads a bounded time slice of a gridded water-level model
// from a NetCDF file.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.coastalobs.io/inundation-api/internal/domain"
)

// Candidate variable names tried when the caller does not name the
// water-level variable explicitly.
var waterLevelNames = []string{
	"zeta",
	"ssh",
	"surf_el",
	"elev",
	"elevation",
	"sea_surface_height_above_geoid",
	"water_surface_height_above_reference_datum",
}

var timeNames = []string{"time", "ocean_time", "t"}

// Model is a time-sliced water-level model with its grid topology resolved.
type Model struct {
	// LongName is the dataset title attribute, when present.
	LongName string
	// Source is the path or URL the model was loaded from.
	Source string
	Mesh   *domain.Mesh
	Times  []time.Time
	// values[t] holds the flattened grid at time step t. Fill and missing
	// values are mapped to NaN.
	values [][]float64
}

// New assembles a model from already-loaded parts. The loader uses it; tests
// use it to build models without a file.
func New(longName, source string, mesh *domain.Mesh, times []time.Time, values [][]float64) (*Model, error) {
	if len(values) != len(times) {
		return nil, fmt.Errorf("model has %d time steps but %d value frames", len(times), len(values))
	}
	for t, frame := range values {
		if len(frame) != mesh.Len() {
			return nil, fmt.Errorf("frame %d has %d cells, mesh has %d", t, len(frame), mesh.Len())
		}
	}
	return &Model{LongName: longName, Source: source, Mesh: mesh, Times: times, values: values}, nil
}

// SeriesAt extracts the full time series at one grid cell.
func (m *Model) SeriesAt(cell domain.Cell) (domain.Series, error) {
	if cell.Node < 0 || cell.Node >= m.Mesh.Len() {
		return nil, fmt.Errorf("cell %d out of range [0, %d)", cell.Node, m.Mesh.Len())
	}
	series := make(domain.Series, len(m.values))
	for t := range m.values {
		series[t] = m.values[t][cell.Node]
	}
	return series, nil
}

// ShortName resolves the model's display name through the configured title
// table, falling back to the dataset title and then the source.
func (m *Model) ShortName(titles map[string]string) string {
	if name, ok := titles[m.Source]; ok {
		return name
	}
	if m.LongName != "" {
		return m.LongName
	}
	return m.Source
}

// Load reads the water-level variable from a NetCDF file and slices it to
// the nearest time indices of [start, stop]. An empty varName tries the
// usual water-level names. The slice reduces the data held in memory the
// same way the download is bounded when reading over DAP.
//
//nolint:gocyclo // NetCDF variable discovery tries several naming patterns.
func Load(path, varName string, start, stop time.Time) (*Model, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	// Locate the water-level variable.
	names := waterLevelNames
	if varName != "" {
		names = []string{varName}
	}
	var dataVar netcdf.Var
	var dataFound bool
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			dataVar = v
			dataFound = true
			break
		}
	}
	if !dataFound {
		return nil, fmt.Errorf("water level variable not found (tried: %v)", names)
	}

	dims, err := dataVar.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 2 && len(dims) != 3 {
		return nil, fmt.Errorf("expected (time, node) or (time, lat, lon) data, got %dD", len(dims))
	}

	// Read the time coordinate and convert it to wall-clock times.
	times, err := readTimes(nc)
	if err != nil {
		return nil, err
	}

	// Read the spatial coordinates.
	lonData, err := readCoord(nc, []string{"longitude", "lon", "x"})
	if err != nil {
		return nil, fmt.Errorf("longitude variable not found: %w", err)
	}
	latData, err := readCoord(nc, []string{"latitude", "lat", "y"})
	if err != nil {
		return nil, fmt.Errorf("latitude variable not found: %w", err)
	}

	// Resolve topology once: 3-D data over 1-D axes is structured, 2-D
	// data over paired coordinates is unstructured.
	var mesh *domain.Mesh
	if len(dims) == 3 {
		mesh, err = domain.NewStructuredMesh(lonData, latData)
	} else {
		mesh, err = domain.NewUnstructuredMesh(lonData, latData)
	}
	if err != nil {
		return nil, err
	}

	// Slice [start, stop] to the nearest time indices.
	istart := nearestTimeIndex(times, start)
	istop := nearestTimeIndex(times, stop)
	if istart == istop {
		return nil, fmt.Errorf("empty time slice: start and stop both resolve to index %d", istart)
	}
	if istart > istop {
		istart, istop = istop, istart
	}

	nt := len(times)
	cells := mesh.Len()
	if len(dims) == 3 {
		// Check (time, lat, lon) orientation.
		if err := checkDims(dims, nt, mesh.Rows, mesh.Cols); err != nil {
			return nil, err
		}
	} else {
		if err := checkDims(dims, nt, cells); err != nil {
			return nil, err
		}
	}

	flat, err := readFloat64s(dataVar, nt*cells)
	if err != nil {
		return nil, fmt.Errorf("failed to read water level data: %w", err)
	}

	// Map fill/missing values to NaN so the resolver can screen them.
	if fv, ok := fillValue(dataVar); ok {
		for i, v := range flat {
			if v == fv {
				flat[i] = math.NaN()
			}
		}
	}

	// Convert centimetres to metres when the variable says so.
	if units, err := attrString(dataVar, "units"); err == nil {
		switch strings.ToLower(strings.TrimSpace(units)) {
		case "cm", "centimeter", "centimeters":
			for i := range flat {
				flat[i] /= 100.0
			}
		}
	}

	values := make([][]float64, 0, istop-istart)
	for t := istart; t < istop; t++ {
		values = append(values, flat[t*cells:(t+1)*cells])
	}

	longName, _ := globalAttrString(nc, "title")

	return New(longName, path, mesh, times[istart:istop], values)
}

// readTimes reads the time coordinate. Aggregated model runs sometimes carry
// two time coordinates; the first variable that parses wins.
func readTimes(nc netcdf.Dataset) ([]time.Time, error) {
	for _, name := range timeNames {
		v, err := nc.Var(name)
		if err != nil {
			continue
		}
		raw, err := readFloat64Var(v)
		if err != nil {
			continue
		}
		units, err := attrString(v, "units")
		if err != nil {
			continue
		}
		step, base, err := parseTimeUnits(units)
		if err != nil {
			return nil, fmt.Errorf("time variable %s: %w", name, err)
		}
		times := make([]time.Time, len(raw))
		for i, val := range raw {
			times[i] = base.Add(time.Duration(val * float64(step)))
		}
		return times, nil
	}
	return nil, fmt.Errorf("time variable not found (tried: %v)", timeNames)
}

// parseTimeUnits parses CF-style units like "hours since 2000-01-01 00:00:00".
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	parts := strings.SplitN(units, " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("unsupported time units %q", units)
	}

	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "seconds", "second", "sec", "s":
		step = time.Second
	case "minutes", "minute", "min":
		step = time.Minute
	case "hours", "hour", "hr", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("unsupported time unit %q", parts[0])
	}

	base := strings.TrimSpace(parts[1])
	base = strings.TrimSuffix(base, " UTC")
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, base); err == nil {
			return step, t.UTC(), nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("unsupported time base %q", base)
}

// nearestTimeIndex returns the index of the time closest to target.
func nearestTimeIndex(times []time.Time, target time.Time) int {
	best := 0
	bestDiff := time.Duration(math.MaxInt64)
	for i, t := range times {
		diff := t.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

// checkDims verifies the data variable's dimension lengths match the
// expected shape.
func checkDims(dims []netcdf.Dim, want ...int) error {
	if len(dims) != len(want) {
		return fmt.Errorf("expected %dD data, got %dD", len(want), len(dims))
	}
	for i, dim := range dims {
		n, err := dim.Len()
		if err != nil {
			return fmt.Errorf("failed to get dim %d length: %w", i, err)
		}
		if n != uint64(want[i]) {
			return fmt.Errorf("dimension %d mismatch: data has %d, coordinates have %d", i, n, want[i])
		}
	}
	return nil
}

// readCoord reads the first 1-D coordinate variable matching one of names.
func readCoord(nc netcdf.Dataset, names []string) ([]float64, error) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			data, err := readFloat64Var(v)
			if err == nil {
				return data, nil
			}
		}
	}
	return nil, fmt.Errorf("no 1-D variable among %v", names)
}

// readFloat64Var reads a 1-D float64 array from a NetCDF variable.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	return readFloat64s(v, int(length))
}

// readFloat64s reads total values from a variable of any supported numeric
// type, widening to float64.
func readFloat64s(v netcdf.Var, total int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, total)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, total)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, total)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, total)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

// fillValue returns the _FillValue or missing_value attribute if present.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if n, err := a.Len(); err == nil && n > 0 {
			buf64 := make([]float64, 1)
			if err := a.ReadFloat64s(buf64); err == nil {
				return buf64[0], true
			}
			buf32 := make([]float32, 1)
			if err := a.ReadFloat32s(buf32); err == nil {
				return float64(buf32[0]), true
			}
			bufi := make([]int32, 1)
			if err := a.ReadInt32s(bufi); err == nil {
				return float64(bufi[0]), true
			}
		}
	}
	return 0, false
}

// attrString reads a character attribute from a variable.
func attrString(v netcdf.Var, name string) (string, error) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

// globalAttrString reads a character attribute from the dataset itself.
func globalAttrString(nc netcdf.Dataset, name string) (string, error) {
	a := nc.Attr(name)
	n, err := a.Len()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}
