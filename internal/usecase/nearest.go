// Package usecase orchestrates nearest-water resolution over a loaded model.
package usecase

import (
	"errors"
	"fmt"

	"go.coastalobs.io/inundation-api/internal/adapter/spatial"
	"go.coastalobs.io/inundation-api/internal/domain"
)

// ErrNoData reports that no usable grid point exists for a query point,
// either because the index returned nothing or because nothing fell within
// the acceptance radius.
var ErrNoData = errors.New("no data found")

// SeriesSource extracts the full model time series at one grid cell.
type SeriesSource interface {
	SeriesAt(cell domain.Cell) (domain.Series, error)
}

// Options tune the nearest-water search.
type Options struct {
	// K is the number of neighbours examined.
	K int
	// MaxDist is the acceptance radius in the same degree units as the
	// mesh coordinates.
	MaxDist float64
	// MinStd is the minimum standard deviation a candidate series must
	// show to count as water. Flat series from land points that should
	// have carried missing values fall below it.
	MinStd float64
}

// DefaultOptions mirrors the search parameters used in the notebooks:
// 10 neighbours, 0.04 degrees, 1 cm of variance.
func DefaultOptions() Options {
	return Options{K: 10, MaxDist: 0.04, MinStd: 0.01}
}

// Result is the resolved nearest water point.
type Result struct {
	Series domain.Series
	Dist   float64
	Cell   domain.Cell
	// Degenerate is set when no candidate met the variance threshold and
	// the farthest examined candidate was returned as the least-bad
	// fallback.
	Degenerate bool
}

// FindNearestWater finds the closest grid point to (lon, lat) whose time
// series is not degenerate, examining up to opts.K neighbours within
// opts.MaxDist. Candidates are consumed in ascending distance order; the
// first whose zero-filled series shows a standard deviation of at least
// opts.MinStd wins. When every candidate in range fails the variance screen
// the farthest examined one is returned with Degenerate set instead of an
// error.
func FindNearestWater(ix *spatial.Index, mesh *domain.Mesh, src SeriesSource, lon, lat float64, opts Options) (*Result, error) {
	if opts.K <= 0 {
		opts.K = DefaultOptions().K
	}

	cands := ix.Nearest(lon, lat, opts.K)
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w near (%g, %g)", ErrNoData, lon, lat)
	}

	within := make([]spatial.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Dist <= opts.MaxDist {
			within = append(within, c)
		}
	}
	if len(within) == 0 {
		return nil, fmt.Errorf("%w for (%g, %g) using max_dist=%g", ErrNoData, lon, lat, opts.MaxDist)
	}

	var last *Result
	for _, c := range within {
		cell, err := mesh.Cell(c.Node)
		if err != nil {
			return nil, err
		}
		series, err := src.SeriesAt(cell)
		if err != nil {
			return nil, fmt.Errorf("failed to extract series at cell %d: %w", c.Node, err)
		}
		last = &Result{Series: series, Dist: c.Dist, Cell: cell}
		if series.FilledStd() >= opts.MinStd {
			return last, nil
		}
	}

	// Every candidate in range looked like land. Hand back the farthest
	// examined one, flagged, rather than failing outright.
	last.Degenerate = true
	return last, nil
}
