package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go.coastalobs.io/inundation-api/internal/adapter/catalog"
	"go.coastalobs.io/inundation-api/internal/adapter/sos"
	"go.coastalobs.io/inundation-api/internal/adapter/spatial"
	"go.coastalobs.io/inundation-api/internal/adapter/store/model"
	"go.coastalobs.io/inundation-api/internal/config"
	"go.coastalobs.io/inundation-api/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testModel builds a three-node unstructured model where every node carries
// an oscillating water level series.
func testModel(t *testing.T) (*model.Model, *spatial.Index) {
	t.Helper()
	mesh, err := domain.NewUnstructuredMesh(
		[]float64{0.005, 0.010, 0.020},
		[]float64{0.0, 0.0, 0.0},
	)
	if err != nil {
		t.Fatalf("NewUnstructuredMesh: %v", err)
	}

	base := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour), base.Add(3 * time.Hour)}
	values := [][]float64{
		{0.0, 0.0, 0.0},
		{0.4, 0.4, 0.4},
		{-0.4, -0.4, -0.4},
		{0.2, 0.2, 0.2},
	}
	m, err := model.New("Test Forecast", "test://model", mesh, times, values)
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	return m, spatial.NewIndex(mesh)
}

func testRouter(t *testing.T, m *model.Model, ix *spatial.Index) *gin.Engine {
	t.Helper()
	cfg := config.Default()
	handler := NewHandler(cfg, m, ix, sos.NewClient(), catalog.NewClient(cfg.Catalogs))
	return SetupRouter(handler)
}

func doRequest(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetNearestWater(t *testing.T) {
	m, ix := testModel(t)
	router := testRouter(t, m, ix)

	w := doRequest(router, "/v1/models/nearest-water?lon=0&lat=0")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Model      string    `json:"model"`
		Grid       string    `json:"grid"`
		Distance   float64   `json:"distance"`
		Degenerate bool      `json:"degenerate"`
		Cell       struct {
			Node int `json:"node"`
			Row  int `json:"row"`
			Col  int `json:"col"`
		} `json:"cell"`
		Times  []string  `json:"times"`
		Series []float64 `json:"series"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Model != "Test Forecast" {
		t.Errorf("model = %q", resp.Model)
	}
	if resp.Grid != "unstructured" {
		t.Errorf("grid = %q", resp.Grid)
	}
	if resp.Cell.Node != 0 || resp.Cell.Row != -1 || resp.Cell.Col != -1 {
		t.Errorf("cell = %+v, want node 0 without row/col", resp.Cell)
	}
	if resp.Degenerate {
		t.Error("active series flagged degenerate")
	}
	if len(resp.Times) != 4 || len(resp.Series) != 4 {
		t.Errorf("got %d times and %d samples, want 4 each", len(resp.Times), len(resp.Series))
	}
}

func TestGetNearestWater_NormalizesLongitude(t *testing.T) {
	m, ix := testModel(t)
	router := testRouter(t, m, ix)

	// 360.005 east is the same meridian as node 0.
	w := doRequest(router, "/v1/models/nearest-water?lon=360.005&lat=0")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestGetNearestWater_NotFoundOutsideRadius(t *testing.T) {
	m, ix := testModel(t)
	router := testRouter(t, m, ix)

	w := doRequest(router, "/v1/models/nearest-water?lon=10&lat=10")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", w.Code, w.Body.String())
	}
}

func TestGetNearestWater_BadParameters(t *testing.T) {
	m, ix := testModel(t)
	router := testRouter(t, m, ix)

	for _, path := range []string{
		"/v1/models/nearest-water?lat=0",
		"/v1/models/nearest-water?lon=abc&lat=0",
		"/v1/models/nearest-water?lon=0&lat=0&k=-1",
		"/v1/models/nearest-water?lon=0&lat=0&max_dist=-0.5",
	} {
		if w := doRequest(router, path); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestGetNearestWater_NoModelLoaded(t *testing.T) {
	router := testRouter(t, nil, nil)
	w := doRequest(router, "/v1/models/nearest-water?lon=0&lat=0")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestGetObservations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("request") {
		case "DescribeSensor":
			io.WriteString(w, `<SensorML><member><System><identification><IdentifierList>
<identifier name="longName"><Term><value>Woods Hole, MA</value></Term></identifier>
</IdentifierList></identification></System></member></SensorML>`)
		case "GetObservation":
			io.WriteString(w, "station_id,date_time,water_surface_height_above_reference_datum (m)\n"+
				"urn:ioos:station:NOAA.NOS.CO-OPS:8447930,2013-01-01T00:00:00Z,0.511\n")
		}
	}))
	defer server.Close()

	cfg := config.Default()
	handler := NewHandler(cfg, nil, nil,
		sos.NewClientWithHTTP(server.URL, server.Client()),
		catalog.NewClient(cfg.Catalogs))
	router := SetupRouter(handler)

	w := doRequest(router, "/v1/observations?station=8447930")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var series sos.ObservationSeries
	if err := json.Unmarshal(w.Body.Bytes(), &series); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if series.LongName != "Woods Hole, MA" || len(series.Values) != 1 {
		t.Fatalf("series = %+v", series)
	}
}

func TestGetObservations_RequiresStation(t *testing.T) {
	m, ix := testModel(t)
	router := testRouter(t, m, ix)
	if w := doRequest(router, "/v1/observations"); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetCatalogs(t *testing.T) {
	m, ix := testModel(t)
	router := testRouter(t, m, ix)

	w := doRequest(router, "/v1/catalogs")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Count    int `json:"count"`
		Catalogs []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"catalogs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 12 || len(resp.Catalogs) != 12 {
		t.Fatalf("count = %d, catalogs = %d, want 12", resp.Count, len(resp.Catalogs))
	}
}

func TestSearchCatalog_RequiresCatalog(t *testing.T) {
	m, ix := testModel(t)
	router := testRouter(t, m, ix)
	if w := doRequest(router, "/v1/catalogs/search?q=water"); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	m, ix := testModel(t)
	router := testRouter(t, m, ix)

	w := doRequest(router, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("status field = %q", resp["status"])
	}
}
