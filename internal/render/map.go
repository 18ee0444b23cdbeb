// Package render builds small HTML fragments for embedding interactive maps
// in notebook frontends.
package render

import (
	"fmt"
	"strings"
)

// BoundingBoxRing converts a two-corner [lon, lat] bounding box into a
// closed ring of (lat, lon) vertices for drawing the search region on a
// map. Map layers take latitude first.
func BoundingBoxRing(box [2][2]float64) [][2]float64 {
	return [][2]float64{
		{box[0][1], box[0][0]},
		{box[0][1], box[1][0]},
		{box[1][1], box[1][0]},
		{box[1][1], box[0][0]},
		{box[0][1], box[0][0]},
	}
}

// InlineMap wraps rendered map HTML in an iframe srcdoc so notebook
// frontends that strip direct script tags still display the map.
func InlineMap(mapHTML string) string {
	srcdoc := strings.ReplaceAll(mapHTML, `"`, "&quot;")
	return fmt.Sprintf(`<iframe srcdoc="%s" style="width: 100%%; height: 500px; border: none"></iframe>`, srcdoc)
}
