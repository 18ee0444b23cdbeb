// Package main resolves the nearest valid water point in a model for one
// station coordinate.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"go.coastalobs.io/inundation-api/internal/adapter/spatial"
	"go.coastalobs.io/inundation-api/internal/adapter/store/model"
	"go.coastalobs.io/inundation-api/internal/domain"
	"go.coastalobs.io/inundation-api/internal/usecase"
)

func main() {
	modelPath := flag.String("model", "", "NetCDF model file (required)")
	varName := flag.String("var", "", "water level variable name (default: auto-detect)")
	lon := flag.Float64("lon", 0, "station longitude in degrees")
	lat := flag.Float64("lat", 0, "station latitude in degrees")
	k := flag.Int("k", 10, "number of neighbours to examine")
	maxDist := flag.Float64("max-dist", 0.04, "acceptance radius in degrees")
	minStd := flag.Float64("min-std", 0.01, "minimum series standard deviation")
	startStr := flag.String("start", "", "start of the time slice (RFC3339, default: 7 days ago)")
	endStr := flag.String("end", "", "end of the time slice (RFC3339, default: now)")
	flag.Parse()

	if *modelPath == "" {
		log.Fatal("-model is required")
	}

	stop := time.Now().UTC()
	start := stop.Add(-7 * 24 * time.Hour)
	if *startStr != "" {
		t, err := time.Parse(time.RFC3339, *startStr)
		if err != nil {
			log.Fatalf("invalid -start: %v", err)
		}
		start = t
	}
	if *endStr != "" {
		t, err := time.Parse(time.RFC3339, *endStr)
		if err != nil {
			log.Fatalf("invalid -end: %v", err)
		}
		stop = t
	}

	m, err := model.Load(*modelPath, *varName, start, stop)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}
	log.Printf("loaded %s: %s grid, %d points, %d time steps",
		*modelPath, m.Mesh.Kind, m.Mesh.Len(), len(m.Times))

	index := spatial.NewIndex(m.Mesh)

	opts := usecase.Options{K: *k, MaxDist: *maxDist, MinStd: *minStd}
	result, err := usecase.FindNearestWater(index, m.Mesh, m, domain.WrapLon180(*lon), *lat, opts)
	if err != nil {
		log.Fatalf("no water point: %v", err)
	}

	fmt.Printf("distance:   %.6f degrees\n", result.Dist)
	if m.Mesh.Kind == domain.Structured {
		fmt.Printf("cell:       row=%d col=%d (node %d)\n", result.Cell.Row, result.Cell.Col, result.Cell.Node)
	} else {
		fmt.Printf("cell:       node %d\n", result.Cell.Node)
	}
	fmt.Printf("series std: %.4f m\n", result.Series.FilledStd())
	if result.Degenerate {
		fmt.Println("warning:    no candidate met the variance threshold; farthest examined returned")
	}
	for i, t := range m.Times {
		if i >= 5 {
			fmt.Printf("... %d more samples\n", len(m.Times)-i)
			break
		}
		fmt.Printf("%s  %8.3f\n", t.UTC().Format(time.RFC3339), result.Series[i])
	}
}
