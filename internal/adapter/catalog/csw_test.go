package catalog

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewTemporalFilter_Overlaps(t *testing.T) {
	start := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	stop := time.Date(2013, 1, 8, 0, 0, 0, 0, time.UTC)

	filter, err := NewTemporalFilter(start, stop, Overlaps)
	if err != nil {
		t.Fatalf("NewTemporalFilter: %v", err)
	}

	// A record overlaps the window when it begins before the window ends
	// and ends after the window begins.
	if filter.Begin.Operator != "PropertyIsLessThanOrEqualTo" || filter.Begin.Property != "apiso:TempExtent_begin" || filter.Begin.Literal != "2013-01-08" {
		t.Errorf("begin comparison = %+v", filter.Begin)
	}
	if filter.End.Operator != "PropertyIsGreaterThanOrEqualTo" || filter.End.Property != "apiso:TempExtent_end" || filter.End.Literal != "2013-01-01" {
		t.Errorf("end comparison = %+v", filter.End)
	}
}

func TestNewTemporalFilter_Within(t *testing.T) {
	start := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	stop := time.Date(2013, 1, 8, 0, 0, 0, 0, time.UTC)

	filter, err := NewTemporalFilter(start, stop, Within)
	if err != nil {
		t.Fatalf("NewTemporalFilter: %v", err)
	}
	if filter.Begin.Operator != "PropertyIsGreaterThanOrEqualTo" || filter.Begin.Literal != "2013-01-01" {
		t.Errorf("begin comparison = %+v", filter.Begin)
	}
	if filter.End.Operator != "PropertyIsLessThanOrEqualTo" || filter.End.Literal != "2013-01-08" {
		t.Errorf("end comparison = %+v", filter.End)
	}
}

func TestNewTemporalFilter_UnknownConstraint(t *testing.T) {
	_, err := NewTemporalFilter(time.Now(), time.Now(), TemporalConstraint("sometime"))
	if err == nil {
		t.Fatal("expected error for unknown constraint")
	}
}

func TestServiceURLs(t *testing.T) {
	records := []Record{
		{
			Title: "Model A",
			References: []Reference{
				{Scheme: "urn:x-esri:specification:ServiceType:odp:url", URL: "http://example.org/dodsC/a"},
				{Scheme: "urn:x-esri:specification:ServiceType:wms:url", URL: "http://example.org/wms/a"},
			},
		},
		{
			Title: "Station B",
			References: []Reference{
				{Scheme: "urn:x-esri:specification:ServiceType:sos:url", URL: "http://example.org/sos/b"},
			},
		},
		{Title: "No references"},
	}

	dap := ServiceURLs(records, "odp:url")
	if len(dap) != 1 || dap[0] != "http://example.org/dodsC/a" {
		t.Fatalf("odp urls = %v", dap)
	}
	sos := ServiceURLs(records, "sos:url")
	if len(sos) != 1 || sos[0] != "http://example.org/sos/b" {
		t.Fatalf("sos urls = %v", sos)
	}
	if none := ServiceURLs(records, "wcs:url"); len(none) != 0 {
		t.Fatalf("wcs urls = %v, want none", none)
	}
}

const getRecordsResponseXML = `<?xml version="1.0" encoding="UTF-8"?>
<csw:GetRecordsResponse xmlns:csw="http://www.opengis.net/cat/csw/2.0.2" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dct="http://purl.org/dc/terms/">
  <csw:SearchResults numberOfRecordsMatched="2">
    <csw:Record>
      <dc:identifier>dataset-1</dc:identifier>
      <dc:title>Coastal Forecast A</dc:title>
      <dct:references scheme="urn:x-esri:specification:ServiceType:odp:url">http://example.org/dodsC/a</dct:references>
    </csw:Record>
    <csw:Record>
      <dc:identifier>dataset-2</dc:identifier>
      <dc:title>Coastal Forecast B</dc:title>
      <dct:references scheme="urn:x-esri:specification:ServiceType:sos:url">http://example.org/sos/b</dct:references>
    </csw:Record>
  </csw:SearchResults>
</csw:GetRecordsResponse>`

func TestSearch_ParsesRecords(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, getRecordsResponseXML)
	}))
	defer server.Close()

	client := NewClientWithHTTP(map[string]string{"test": server.URL}, server.Client())

	start := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	stop := time.Date(2013, 1, 8, 0, 0, 0, 0, time.UTC)
	filter, _ := NewTemporalFilter(start, stop, Overlaps)

	records, err := client.Search("test", SearchRequest{
		Keywords: []string{"water level"},
		Filter:   &filter,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Title != "Coastal Forecast A" || records[0].Identifier != "dataset-1" {
		t.Fatalf("record[0] = %+v", records[0])
	}
	if len(records[0].References) != 1 || records[0].References[0].URL != "http://example.org/dodsC/a" {
		t.Fatalf("record[0] references = %+v", records[0].References)
	}

	// Request carries the keyword and both temporal comparisons.
	for _, want := range []string{
		"water level",
		"apiso:AnyText",
		"apiso:TempExtent_begin",
		"apiso:TempExtent_end",
		"<ogc:And>",
	} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body missing %q:\n%s", want, gotBody)
		}
	}
}

func TestSearch_ExceptionReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<?xml version="1.0"?>
<ows:ExceptionReport xmlns:ows="http://www.opengis.net/ows">
  <ows:Exception exceptionCode="InvalidParameterValue">
    <ows:ExceptionText>bad query</ows:ExceptionText>
  </ows:Exception>
</ows:ExceptionReport>`)
	}))
	defer server.Close()

	client := NewClientWithHTTP(map[string]string{"test": server.URL}, server.Client())
	_, err := client.Search("test", SearchRequest{Keywords: []string{"x"}})
	if err == nil {
		t.Fatal("expected error from exception report")
	}
	if !strings.Contains(err.Error(), "InvalidParameterValue") {
		t.Fatalf("error %q should carry the exception code", err)
	}
}

func TestSearch_UnknownCatalog(t *testing.T) {
	client := NewClient(map[string]string{})
	if _, err := client.Search("nope", SearchRequest{Keywords: []string{"x"}}); err == nil {
		t.Fatal("expected error for unknown catalog")
	}
}

func TestSearch_NeedsConstraint(t *testing.T) {
	client := NewClient(map[string]string{"test": "http://example.org/csw"})
	if _, err := client.Search("test", SearchRequest{}); err == nil {
		t.Fatal("expected error for empty search request")
	}
}

func TestCatalogs_Sorted(t *testing.T) {
	client := NewClient(map[string]string{"b": "http://b", "a": "http://a"})
	names := client.Catalogs()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("catalogs = %v", names)
	}
}
