package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.coastalobs.io/inundation-api/internal/adapter/catalog"
	"go.coastalobs.io/inundation-api/internal/adapter/sos"
	"go.coastalobs.io/inundation-api/internal/adapter/spatial"
	"go.coastalobs.io/inundation-api/internal/adapter/store/model"
	"go.coastalobs.io/inundation-api/internal/config"
	"go.coastalobs.io/inundation-api/internal/domain"
	"go.coastalobs.io/inundation-api/internal/usecase"
)

// Handler handles HTTP requests for the inundation toolkit.
type Handler struct {
	cfg     *config.Config
	model   *model.Model
	index   *spatial.Index
	sos     *sos.Client
	catalog *catalog.Client
}

// NewHandler creates a new HTTP handler. The model and index may be nil when
// no model file is configured; the nearest-water endpoint then answers 503.
func NewHandler(cfg *config.Config, m *model.Model, ix *spatial.Index, sosClient *sos.Client, catalogClient *catalog.Client) *Handler {
	return &Handler{cfg: cfg, model: m, index: ix, sos: sosClient, catalog: catalogClient}
}

// GetNearestWater handles GET /v1/models/nearest-water.
func (h *Handler) GetNearestWater(c *gin.Context) {
	if h.model == nil || h.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no model loaded"})
		return
	}

	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}

	opts := usecase.Options{
		K:       h.cfg.Search.K,
		MaxDist: h.cfg.Search.MaxDist,
		MinStd:  h.cfg.Search.MinStd,
	}
	if s := c.Query("k"); s != "" {
		k, err := strconv.Atoi(s)
		if err != nil || k <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid k: %q", s)})
			return
		}
		opts.K = k
	}
	if s := c.Query("max_dist"); s != "" {
		d, err := strconv.ParseFloat(s, 64)
		if err != nil || d < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid max_dist: %q", s)})
			return
		}
		opts.MaxDist = d
	}
	if s := c.Query("min_std"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid min_std: %q", s)})
			return
		}
		opts.MinStd = v
	}

	result, err := usecase.FindNearestWater(h.index, h.model.Mesh, h.model, domain.WrapLon180(lon), lat, opts)
	if err != nil {
		if errors.Is(err, usecase.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	times := make([]string, len(h.model.Times))
	for i, t := range h.model.Times {
		times[i] = t.UTC().Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, gin.H{
		"model":      h.model.ShortName(h.cfg.Titles),
		"grid":       h.model.Mesh.Kind.String(),
		"distance":   result.Dist,
		"degenerate": result.Degenerate,
		"cell": gin.H{
			"node": result.Cell.Node,
			"row":  result.Cell.Row,
			"col":  result.Cell.Col,
		},
		"times":  times,
		"series": result.Series,
	})
}

// GetObservations handles GET /v1/observations.
func (h *Handler) GetObservations(c *gin.Context) {
	station := c.Query("station")
	if station == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "station parameter is required"})
		return
	}
	variable := c.Query("variable")

	var start, stop time.Time
	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start time (expected RFC3339): %v", err)})
			return
		}
		start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end time (expected RFC3339): %v", err)})
			return
		}
		stop = t
	}

	series, err := h.sos.FetchObservations(station, variable, start, stop)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, series)
}

// GetCatalogs handles GET /v1/catalogs.
func (h *Handler) GetCatalogs(c *gin.Context) {
	names := h.catalog.Catalogs()
	catalogs := make([]gin.H, 0, len(names))
	for _, name := range names {
		url, _ := h.catalog.Endpoint(name)
		catalogs = append(catalogs, gin.H{"name": name, "url": url})
	}
	c.JSON(http.StatusOK, gin.H{"catalogs": catalogs, "count": len(catalogs)})
}

// SearchCatalog handles GET /v1/catalogs/search.
func (h *Handler) SearchCatalog(c *gin.Context) {
	name := c.Query("catalog")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "catalog parameter is required"})
		return
	}

	req := catalog.SearchRequest{}
	if keyword := c.Query("q"); keyword != "" {
		req.Keywords = []string{keyword}
	}

	startStr, endStr := c.Query("start"), c.Query("end")
	if startStr != "" && endStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start time (expected RFC3339): %v", err)})
			return
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end time (expected RFC3339): %v", err)})
			return
		}
		constraint := catalog.Overlaps
		if s := c.Query("constraint"); s != "" {
			constraint = catalog.TemporalConstraint(s)
		}
		filter, err := catalog.NewTemporalFilter(start, end, constraint)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.Filter = &filter
	}

	records, err := h.catalog.Search(name, req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{"records": records, "count": len(records)}
	if service := c.Query("service"); service != "" {
		response["service_urls"] = catalog.ServiceURLs(records, service)
	}
	c.JSON(http.StatusOK, response)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
