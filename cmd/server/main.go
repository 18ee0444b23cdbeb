// Package main provides the inundation toolkit HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go.coastalobs.io/inundation-api/internal/adapter/catalog"
	"go.coastalobs.io/inundation-api/internal/adapter/sos"
	"go.coastalobs.io/inundation-api/internal/adapter/spatial"
	"go.coastalobs.io/inundation-api/internal/adapter/store/model"
	"go.coastalobs.io/inundation-api/internal/config"
	httpHandler "go.coastalobs.io/inundation-api/internal/http"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("inundation-api version %s\n", version)
		return
	}

	// Load configuration: built-in defaults, optionally overridden by file.
	cfg := config.Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", path, err)
		}
		cfg = loaded
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}

	log.Printf("Starting inundation toolkit server...")
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Catalogs configured: %d", len(cfg.Catalogs))

	// Load the model, if one is configured. The server runs without it;
	// the nearest-water endpoint then reports the model as unavailable.
	var m *model.Model
	var index *spatial.Index
	if path := os.Getenv("MODEL_PATH"); path != "" {
		start, stop, err := modelWindow()
		if err != nil {
			log.Fatalf("Invalid model time window: %v", err)
		}
		log.Printf("Loading model %s (%s to %s)", path,
			start.Format(time.RFC3339), stop.Format(time.RFC3339))
		m, err = model.Load(path, os.Getenv("MODEL_VAR"), start, stop)
		if err != nil {
			log.Fatalf("Failed to load model: %v", err)
		}
		index = spatial.NewIndex(m.Mesh)
		log.Printf("Model loaded: %s (%s grid, %d points, %d time steps)",
			m.ShortName(cfg.Titles), m.Mesh.Kind, m.Mesh.Len(), len(m.Times))
	} else {
		log.Printf("No MODEL_PATH configured; nearest-water queries disabled")
	}

	// Initialize clients.
	sosClient := sos.NewClientWithHTTP(cfg.SOS.BaseURL, &http.Client{Timeout: 30 * time.Second})
	catalogClient := catalog.NewClient(cfg.Catalogs)

	// Setup router.
	handler := httpHandler.NewHandler(cfg, m, index, sosClient, catalogClient)
	router := httpHandler.SetupRouter(handler)

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/models/nearest-water")
	log.Printf("  - GET /v1/observations")
	log.Printf("  - GET /v1/catalogs")
	log.Printf("  - GET /v1/catalogs/search")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// modelWindow resolves the model time slice from the environment, defaulting
// to the last seven days.
func modelWindow() (time.Time, time.Time, error) {
	stop := time.Now().UTC()
	start := stop.Add(-7 * 24 * time.Hour)
	if s := os.Getenv("MODEL_START"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid MODEL_START: %w", err)
		}
		start = t
	}
	if s := os.Getenv("MODEL_END"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid MODEL_END: %w", err)
		}
		stop = t
	}
	if !start.Before(stop) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is not before end %s", start, stop)
	}
	return start, stop, nil
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Inundation Toolkit Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  inundation-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT           Server port (default: 8080)")
	fmt.Println("  CONFIG_PATH    YAML configuration file (optional)")
	fmt.Println("  MODEL_PATH     NetCDF model file to serve (optional)")
	fmt.Println("  MODEL_VAR      Water level variable name (default: auto-detect)")
	fmt.Println("  MODEL_START    Start of the model time slice, RFC3339 (default: 7 days ago)")
	fmt.Println("  MODEL_END      End of the model time slice, RFC3339 (default: now)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                    Health check")
	fmt.Println("  GET /v1/models/nearest-water   Nearest valid water point for a station location")
	fmt.Println("  GET /v1/observations           Station observations via CO-OPS SOS")
	fmt.Println("  GET /v1/catalogs               Configured metadata catalogs")
	fmt.Println("  GET /v1/catalogs/search        CSW catalog search")
	fmt.Println()
}
