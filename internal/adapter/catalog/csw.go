// Package catalog searches CSW metadata catalogs for dataset endpoints.
package catalog

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// esriSchemePrefix is the scheme ESRI geoportals attach to service
// references in search records.
const esriSchemePrefix = "urn:x-esri:specification:ServiceType:"

// TemporalConstraint selects how a record's time extent must relate to the
// requested window.
type TemporalConstraint string

const (
	// Overlaps matches records whose extent intersects the window.
	Overlaps TemporalConstraint = "overlaps"
	// Within matches records whose extent lies inside the window.
	Within TemporalConstraint = "within"
)

// PropertyComparison is a single ogc property comparison against a CSW
// queryable.
type PropertyComparison struct {
	Operator string
	Property string
	Literal  string
}

// TemporalFilter pairs the begin/end comparisons for a search window.
type TemporalFilter struct {
	Begin PropertyComparison
	End   PropertyComparison
}

// NewTemporalFilter builds the comparisons against the apiso time-extent
// queryables for a search window.
func NewTemporalFilter(start, stop time.Time, constraint TemporalConstraint) (TemporalFilter, error) {
	const layout = "2006-01-02"
	switch constraint {
	case Overlaps:
		return TemporalFilter{
			Begin: PropertyComparison{"PropertyIsLessThanOrEqualTo", "apiso:TempExtent_begin", stop.Format(layout)},
			End:   PropertyComparison{"PropertyIsGreaterThanOrEqualTo", "apiso:TempExtent_end", start.Format(layout)},
		}, nil
	case Within:
		return TemporalFilter{
			Begin: PropertyComparison{"PropertyIsGreaterThanOrEqualTo", "apiso:TempExtent_begin", start.Format(layout)},
			End:   PropertyComparison{"PropertyIsLessThanOrEqualTo", "apiso:TempExtent_end", stop.Format(layout)},
		}, nil
	default:
		return TemporalFilter{}, fmt.Errorf("unknown temporal constraint %q", constraint)
	}
}

// Reference is one service reference attached to a catalog record.
type Reference struct {
	Scheme string `json:"scheme"`
	URL    string `json:"url"`
}

// Record is one dataset record returned by a catalog search.
type Record struct {
	Identifier string      `json:"identifier"`
	Title      string      `json:"title"`
	References []Reference `json:"references"`
}

// SearchRequest describes one GetRecords query.
type SearchRequest struct {
	Keywords   []string
	Filter     *TemporalFilter
	MaxRecords int
}

// Client talks to a registry of CSW endpoints.
type Client struct {
	endpoints  map[string]string
	httpClient *http.Client
}

// NewClient creates a catalog client over the configured endpoint registry.
func NewClient(endpoints map[string]string) *Client {
	return NewClientWithHTTP(endpoints, &http.Client{Timeout: 30 * time.Second})
}

// NewClientWithHTTP creates a catalog client with a custom HTTP client.
func NewClientWithHTTP(endpoints map[string]string, httpClient *http.Client) *Client {
	return &Client{endpoints: endpoints, httpClient: httpClient}
}

// Catalogs returns the configured catalog names, sorted.
func (c *Client) Catalogs() []string {
	names := make([]string, 0, len(c.endpoints))
	for name := range c.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Endpoint returns the URL registered under a catalog name.
func (c *Client) Endpoint(name string) (string, bool) {
	url, ok := c.endpoints[name]
	return url, ok
}

// Search runs a GetRecords query against one named catalog.
func (c *Client) Search(catalog string, req SearchRequest) ([]Record, error) {
	endpoint, ok := c.endpoints[catalog]
	if !ok {
		return nil, fmt.Errorf("unknown catalog %q", catalog)
	}

	body, err := buildGetRecords(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/xml")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog %s: %w", catalog, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog %s returned status %d: %s", catalog, resp.StatusCode, string(raw))
	}

	return parseGetRecordsResponse(raw)
}

// ServiceURLs extracts endpoint URLs of one service type (e.g. "odp:url",
// "sos:url") from search records. The first matching reference per record
// wins.
func ServiceURLs(records []Record, service string) []string {
	scheme := esriSchemePrefix + service
	urls := make([]string, 0, len(records))
	for _, rec := range records {
		for _, ref := range rec.References {
			if ref.Scheme == scheme && ref.URL != "" {
				urls = append(urls, ref.URL)
				break
			}
		}
	}
	return urls
}

// buildGetRecords renders the GetRecords request document. Keyword terms are
// AnyText matches; the temporal filter contributes its two comparisons. All
// constraints are joined with a logical And.
func buildGetRecords(req SearchRequest) ([]byte, error) {
	maxRecords := req.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 1000
	}

	var comparisons []PropertyComparison
	for _, kw := range req.Keywords {
		comparisons = append(comparisons, PropertyComparison{"PropertyIsLike", "apiso:AnyText", kw})
	}
	if req.Filter != nil {
		comparisons = append(comparisons, req.Filter.Begin, req.Filter.End)
	}
	if len(comparisons) == 0 {
		return nil, fmt.Errorf("search needs at least one keyword or temporal filter")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(&buf, `<csw:GetRecords xmlns:csw="http://www.opengis.net/cat/csw/2.0.2" xmlns:ogc="http://www.opengis.net/ogc" service="CSW" version="2.0.2" resultType="results" maxRecords="%d" outputSchema="http://www.opengis.net/cat/csw/2.0.2">`, maxRecords)
	buf.WriteString(`<csw:Query typeNames="csw:Record"><csw:ElementSetName>full</csw:ElementSetName>`)
	buf.WriteString(`<csw:Constraint version="1.1.0"><ogc:Filter>`)
	if len(comparisons) > 1 {
		buf.WriteString(`<ogc:And>`)
	}
	for _, cmp := range comparisons {
		if err := writeComparison(&buf, cmp); err != nil {
			return nil, err
		}
	}
	if len(comparisons) > 1 {
		buf.WriteString(`</ogc:And>`)
	}
	buf.WriteString(`</ogc:Filter></csw:Constraint></csw:Query></csw:GetRecords>`)
	return buf.Bytes(), nil
}

func writeComparison(buf *bytes.Buffer, cmp PropertyComparison) error {
	if cmp.Operator == "PropertyIsLike" {
		fmt.Fprintf(buf, `<ogc:PropertyIsLike wildCard="*" singleChar="?" escapeChar="\">`)
	} else {
		fmt.Fprintf(buf, "<ogc:%s>", cmp.Operator)
	}
	buf.WriteString("<ogc:PropertyName>")
	if err := xml.EscapeText(buf, []byte(cmp.Property)); err != nil {
		return err
	}
	buf.WriteString("</ogc:PropertyName><ogc:Literal>")
	if err := xml.EscapeText(buf, []byte(cmp.Literal)); err != nil {
		return err
	}
	buf.WriteString("</ogc:Literal>")
	fmt.Fprintf(buf, "</ogc:%s>", cmp.Operator)
	return nil
}

// XML shapes for GetRecordsResponse and OWS ExceptionReport. Namespace
// prefixes are ignored; local element names are matched.
type getRecordsResponse struct {
	XMLName xml.Name    `xml:"GetRecordsResponse"`
	Records []recordXML `xml:"SearchResults>Record"`
}

type recordXML struct {
	Identifier string         `xml:"identifier"`
	Title      string         `xml:"title"`
	References []referenceXML `xml:"references"`
}

type referenceXML struct {
	Scheme string `xml:"scheme,attr"`
	URL    string `xml:",chardata"`
}

type exceptionReport struct {
	XMLName    xml.Name    `xml:"ExceptionReport"`
	Exceptions []exception `xml:"Exception"`
}

type exception struct {
	Code string   `xml:"exceptionCode,attr"`
	Text []string `xml:"ExceptionText"`
}

func parseGetRecordsResponse(raw []byte) ([]Record, error) {
	var report exceptionReport
	if err := xml.Unmarshal(raw, &report); err == nil && len(report.Exceptions) > 0 {
		exc := report.Exceptions[0]
		msg := fmt.Sprintf("catalog error [%s]", exc.Code)
		if len(exc.Text) > 0 {
			msg += ": " + exc.Text[0]
		}
		return nil, fmt.Errorf("%s", msg)
	}

	var parsed getRecordsResponse
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse GetRecords response: %w", err)
	}

	records := make([]Record, 0, len(parsed.Records))
	for _, rec := range parsed.Records {
		out := Record{Identifier: rec.Identifier, Title: rec.Title}
		for _, ref := range rec.References {
			out.References = append(out.References, Reference{Scheme: ref.Scheme, URL: ref.URL})
		}
		records = append(records, out)
	}
	return records, nil
}
