// Package sos fetches CO-OPS sensor observation service data and converts
// the CSV responses into tabular time series.
package sos

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://opendap.co-ops.nos.noaa.gov/ioos-dif-sos/SOS"

// stationURNPrefix identifies CO-OPS stations in SOS procedures/offerings.
const stationURNPrefix = "urn:ioos:station:NOAA.NOS.CO-OPS:"

// WaterLevelVariable is the observed property used for water level queries.
const WaterLevelVariable = "water_surface_height_above_reference_datum"

// waterLevelColumn is the value column emitted by the CO-OPS CSV encoder.
const waterLevelColumn = "water_surface_height_above_reference_datum (m)"

// ObservationSeries is a station observation time series.
type ObservationSeries struct {
	Station  string      `json:"station"`
	LongName string      `json:"long_name"`
	Variable string      `json:"variable"`
	Times    []time.Time `json:"times"`
	Values   []float64   `json:"values"`
}

// Client talks to a CO-OPS SOS endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against the CO-OPS production endpoint.
func NewClient() *Client {
	return NewClientWithHTTP(defaultBaseURL, &http.Client{Timeout: 30 * time.Second})
}

// NewClientWithHTTP creates a client with a custom endpoint and HTTP client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// StationLongName fetches the human-readable station name via a
// DescribeSensor request. When the response carries no longName identifier
// the station id itself is returned.
func (c *Client) StationLongName(station string) (string, error) {
	params := url.Values{}
	params.Set("service", "SOS")
	params.Set("request", "DescribeSensor")
	params.Set("version", "1.0.0")
	params.Set("outputFormat", `text/xml;subtype="sensorML/1.0.1"`)
	params.Set("procedure", stationURNPrefix+station)

	resp, err := c.httpClient.Get(c.baseURL + "?" + params.Encode())
	if err != nil {
		return "", fmt.Errorf("failed to describe sensor %s: %w", station, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("DescribeSensor returned status %d: %s", resp.StatusCode, string(body))
	}

	var doc sensorMLDoc
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("failed to parse sensorML response: %w", err)
	}

	for _, id := range doc.Identifiers {
		if id.Name == "longName" && id.Value != "" {
			return id.Value, nil
		}
	}
	return station, nil
}

// FetchObservations requests a CSV GetObservation response for one station
// and variable and converts it into an observation series. Zero start/stop
// times leave the event time unconstrained.
func (c *Client) FetchObservations(station, variable string, start, stop time.Time) (*ObservationSeries, error) {
	if variable == "" {
		variable = WaterLevelVariable
	}

	longName, err := c.StationLongName(station)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("service", "SOS")
	params.Set("request", "GetObservation")
	params.Set("version", "1.0.0")
	params.Set("offering", stationURNPrefix+station)
	params.Set("observedProperty", variable)
	params.Set("responseFormat", "text/csv")
	if !start.IsZero() && !stop.IsZero() {
		params.Set("eventTime", start.UTC().Format(time.RFC3339)+"/"+stop.UTC().Format(time.RFC3339))
	}

	resp, err := c.httpClient.Get(c.baseURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch observations for station %s: %w", station, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GetObservation returned status %d: %s", resp.StatusCode, string(body))
	}

	series, err := parseObservationCSV(resp.Body, variable)
	if err != nil {
		return nil, err
	}
	series.Station = station
	series.LongName = longName
	return series, nil
}

// parseObservationCSV reads the CO-OPS CSV layout: a date_time column plus a
// value column named after the observed property with its unit suffix.
func parseObservationCSV(r io.Reader, variable string) (*ObservationSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	timeCol, valueCol := -1, -1
	for i, h := range header {
		name := strings.TrimSpace(h)
		switch {
		case name == "date_time":
			timeCol = i
		case name == waterLevelColumn && variable == WaterLevelVariable:
			valueCol = i
		case strings.HasPrefix(name, variable+" ("):
			valueCol = i
		}
	}
	if timeCol < 0 {
		return nil, fmt.Errorf("CSV response has no date_time column: %v", header)
	}
	if valueCol < 0 {
		return nil, fmt.Errorf("CSV response has no %s column: %v", variable, header)
	}

	series := &ObservationSeries{Variable: variable}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if valueCol >= len(record) || timeCol >= len(record) {
			return nil, fmt.Errorf("short CSV record: %v", record)
		}

		t, err := parseObservationTime(record[timeCol])
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[valueCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid observation value %q: %w", record[valueCol], err)
		}

		series.Times = append(series.Times, t)
		series.Values = append(series.Values, v)
	}

	if len(series.Times) == 0 {
		return nil, fmt.Errorf("observation response contained no rows")
	}
	return series, nil
}

func parseObservationTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date_time %q", s)
}

// sensorML response shapes; namespace prefixes are ignored.
type sensorMLDoc struct {
	XMLName     xml.Name           `xml:"SensorML"`
	Identifiers []sensorIdentifier `xml:"member>System>identification>IdentifierList>identifier"`
}

type sensorIdentifier struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"Term>value"`
}
