// Package config loads the toolkit configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Server ServerConfig `yaml:"server"`
	// Catalogs maps catalog display names to CSW endpoint URLs.
	Catalogs map[string]string `yaml:"catalogs"`
	// Titles maps dataset endpoint URLs to short display names.
	Titles map[string]string `yaml:"titles"`
	Search SearchConfig `yaml:"search"`
	SOS    SOSConfig    `yaml:"sos"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// SearchConfig holds the nearest-water search defaults.
type SearchConfig struct {
	K       int     `yaml:"k"`
	MaxDist float64 `yaml:"max_dist"`
	MinStd  float64 `yaml:"min_std"`
}

// SOSConfig holds the observation service settings.
type SOSConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Default returns the built-in configuration: the known CSW geoportals and
// the endpoint-to-short-name table used when labelling models.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Catalogs: map[string]string{
			"NGDC Geoportal":                   "https://www.ngdc.noaa.gov/geoportal/csw",
			"USGS WHSC Geoportal":              "https://geoport.whoi.edu/geoportal/csw",
			"NODC Geoportal: granule level":    "https://www.nodc.noaa.gov/geoportal/csw",
			"NODC Geoportal: collection level": "https://data.nodc.noaa.gov/geoportal/csw",
			"NRCAN CUSTOM":                     "https://geodiscover.cgdi.ca/wes/serviceManagerCSW/csw",
			"USGS Woods Hole GI_CAT":           "https://geoport.whoi.edu/gi-cat/services/cswiso",
			"USGS CIDA Geonetwork":             "https://cida.usgs.gov/gdp/geonetwork/srv/en/csw",
			"USGS Coastal and Marine Program":  "https://cmgds.marine.usgs.gov/geonetwork/srv/en/csw",
			"USGS Woods Hole Geoportal":        "https://geoport.whoi.edu/geoportal/csw",
			"CKAN testing site for new Data.gov": "https://geo.gov.ckan.org/csw",
			"EPA":  "https://edg.epa.gov/metadata/csw",
			"CWIC": "https://cwic.csiss.gmu.edu/cwicv1/discovery",
		},
		Titles: map[string]string{
			"http://omgsrv1.meas.ncsu.edu:8080/thredds/dodsC/fmrc/sabgom/SABGOM_Forecast_Model_Run_Collection_best.ncd":               "SABGOM",
			"http://geoport.whoi.edu/thredds/dodsC/coawst_4/use/fmrc/coawst_4_use_best.ncd":                                           "COAWST_4",
			"http://tds.marine.rutgers.edu/thredds/dodsC/roms/espresso/2013_da/his_Best/ESPRESSO_Real-Time_v2_History_Best_Available_best.ncd": "ESPRESSO",
			"http://oos.soest.hawaii.edu/thredds/dodsC/hioos/tide_pac":                                                                "BTMPB",
			"http://opendap.co-ops.nos.noaa.gov/thredds/dodsC/TBOFS/fmrc/Aggregated_7_day_TBOFS_Fields_Forecast_best.ncd":             "TBOFS",
			"http://oos.soest.hawaii.edu/thredds/dodsC/pacioos/hycom/global":                                                          "HYCOM",
			"http://opendap.co-ops.nos.noaa.gov/thredds/dodsC/CBOFS/fmrc/Aggregated_7_day_CBOFS_Fields_Forecast_best.ncd":             "CBOFS",
			"http://geoport-dev.whoi.edu/thredds/dodsC/estofs/atlantic":                                                               "ESTOFS",
			"http://www.smast.umassd.edu:8080/thredds/dodsC/FVCOM/NECOFS/Forecasts/NECOFS_GOM3_FORECAST.nc":                           "NECOFS_GOM3_FVCOM",
			"http://www.smast.umassd.edu:8080/thredds/dodsC/FVCOM/NECOFS/Forecasts/NECOFS_WAVE_FORECAST.nc":                           "NECOFS_GOM3_WAVE",
		},
		Search: SearchConfig{K: 10, MaxDist: 0.04, MinStd: 0.01},
		SOS:    SOSConfig{BaseURL: "https://opendap.co-ops.nos.noaa.gov/ioos-dif-sos/SOS"},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration for values the toolkit cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Search.K <= 0 {
		return fmt.Errorf("search.k must be positive, got %d", c.Search.K)
	}
	if c.Search.MaxDist < 0 {
		return fmt.Errorf("search.max_dist must be non-negative, got %g", c.Search.MaxDist)
	}
	if c.Search.MinStd < 0 {
		return fmt.Errorf("search.min_std must be non-negative, got %g", c.Search.MinStd)
	}
	if c.SOS.BaseURL == "" {
		return fmt.Errorf("sos.base_url is required")
	}
	return nil
}
