package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"strom_dashboard/internal/api"
	"strom_dashboard/internal/config"
	"strom_dashboard/internal/dashboard"
	"strom_dashboard/internal/fetch"
	"strom_dashboard/internal/log"
	"strom_dashboard/internal/store"
	"strom_dashboard/internal/ws"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	source := flag.String("source", "", "data source: http, files or sqlite (overrides config)")
	backendURL := flag.String("backend-url", "", "meter backend base URL (overrides config)")
	dataDir := flag.String("data-dir", "", "directory with history/ and strom.json (overrides config)")
	frontendDir := flag.String("frontend-dir", "", "directory containing frontend build (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := loadConfig(*configFile, flagOverrides{
		Addr:        *addr,
		Source:      *source,
		BackendURL:  *backendURL,
		DataDir:     *dataDir,
		FrontendDir: *frontendDir,
		Debug:       *debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

type flagOverrides struct {
	Addr        string
	Source      string
	BackendURL  string
	DataDir     string
	FrontendDir string
	Debug       bool
}

// loadConfig reads the config file, applies flags on top and only then
// validates, so a flag can fix a bad value from the file.
func loadConfig(path string, f flagOverrides) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides config values with the flags that were given.
func applyFlags(cfg *config.Config, f flagOverrides) {
	if f.Addr != "" {
		cfg.Server.Addr = f.Addr
	}
	if f.Source != "" {
		cfg.Backend.Source = f.Source
	}
	if f.BackendURL != "" {
		cfg.Backend.BaseURL = f.BackendURL
	}
	if f.DataDir != "" {
		cfg.Backend.DataDir = f.DataDir
	}
	if f.FrontendDir != "" {
		cfg.Server.FrontendDir = f.FrontendDir
	}
	if f.Debug {
		cfg.Debug = true
	}
}

// dataSource bundles what the configured source offers.
type dataSource struct {
	fetch.Source
	days   api.DayLister
	closer io.Closer
}

func (d *dataSource) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

func openSource(cfg *config.Config, loc *time.Location) (*dataSource, error) {
	switch cfg.Backend.Source {
	case config.SourceHTTP:
		log.Infof("Reading meter documents from %s", cfg.Backend.BaseURL)
		return &dataSource{Source: fetch.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)}, nil
	case config.SourceFiles:
		log.Infof("Reading meter documents from %s", cfg.Backend.DataDir)
		files := store.NewFiles(cfg.Backend.DataDir, loc)
		return &dataSource{Source: files, days: files}, nil
	case config.SourceSQLite:
		log.Infof("Reading readings from %s", cfg.Backend.SQLitePath)
		db, err := store.OpenSQLite(cfg.Backend.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &dataSource{Source: db, days: db, closer: db}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Backend.Source)
	}
}

// newHandler assembles the full HTTP surface for cfg and src.
func newHandler(cfg *config.Config, src *dataSource, loc *time.Location) http.Handler {
	pipeline := dashboard.NewPipeline(fetch.NewLoader(src), dashboard.Options{
		Location:      loc,
		GaugeCeilingW: cfg.Dashboard.GaugeCeilingW,
	})

	hub := ws.NewHub()
	bridge := ws.NewBridge(hub, pipeline)

	deps := api.Deps{
		Dashboard:   pipeline,
		Source:      src,
		WS:          ws.NewHandler(hub, bridge),
		FrontendDir: cfg.Server.FrontendDir,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	if src.days != nil {
		deps.Days = src.days
	}
	if cfg.Server.ServeBackend {
		deps.BackendDir = cfg.Backend.DataDir
	}
	return api.NewRouter(deps)
}

func run(ctx context.Context, cfg *config.Config) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	src, err := openSource(cfg, loc)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer src.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newHandler(cfg, src, loc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
