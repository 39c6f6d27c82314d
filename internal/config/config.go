package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Source kinds for day documents.
const (
	SourceHTTP   = "http"
	SourceFiles  = "files"
	SourceSQLite = "sqlite"
)

type BackendConfig struct {
	// Source selects where day documents come from: http, files or sqlite.
	Source     string        `yaml:"source"`
	BaseURL    string        `yaml:"baseUrl"`
	Timeout    time.Duration `yaml:"timeout"`
	DataDir    string        `yaml:"dataDir"`
	SQLitePath string        `yaml:"sqlitePath"`
}

type DashboardConfig struct {
	GaugeCeilingW float64 `yaml:"gaugeCeilingW"`
	// Location is an IANA zone name; empty means the host's local zone.
	Location string `yaml:"location"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	FrontendDir string   `yaml:"frontendDir"`
	CORSOrigins []string `yaml:"corsOrigins"`
	// ServeBackend exposes /history/ and /strom.json from DataDir.
	ServeBackend bool `yaml:"serveBackend"`
}

type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Server    ServerConfig    `yaml:"server"`
	Debug     bool            `yaml:"debug"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Source:     SourceHTTP,
			BaseURL:    "http://localhost:8000",
			Timeout:    10 * time.Second,
			DataDir:    "data",
			SQLitePath: "data/strom.sqlite",
		},
		Dashboard: DashboardConfig{
			GaugeCeilingW: 5000,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
	}
}

// Load reads .env (if present), then the YAML file (if present), then
// environment overrides. A missing file is not an error. The result is not
// validated, so that command-line flags can still be applied; call Validate
// afterwards.
func Load(filename string) (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	c := Default()
	buf, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(buf, c); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("STROM_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("STROM_SOURCE"); v != "" {
		c.Backend.Source = v
	}
	if v := os.Getenv("STROM_DATA_DIR"); v != "" {
		c.Backend.DataDir = v
	}
	if v := os.Getenv("STROM_SQLITE_PATH"); v != "" {
		c.Backend.SQLitePath = v
	}
	if v := os.Getenv("STROM_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STROM_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing STROM_DEBUG: %w", err)
		}
		c.Debug = debug
	}
	return nil
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	switch c.Backend.Source {
	case SourceHTTP:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend.baseUrl is required for source %q", SourceHTTP)
		}
	case SourceFiles:
		if c.Backend.DataDir == "" {
			return fmt.Errorf("backend.dataDir is required for source %q", SourceFiles)
		}
	case SourceSQLite:
		if c.Backend.SQLitePath == "" {
			return fmt.Errorf("backend.sqlitePath is required for source %q", SourceSQLite)
		}
	default:
		return fmt.Errorf("unknown backend.source %q (want http, files or sqlite)", c.Backend.Source)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %s", c.Backend.Timeout)
	}
	if c.Dashboard.GaugeCeilingW <= 0 {
		return fmt.Errorf("dashboard.gaugeCeilingW must be positive, got %v", c.Dashboard.GaugeCeilingW)
	}
	if c.Server.ServeBackend && c.Backend.DataDir == "" {
		return errors.New("server.serveBackend requires backend.dataDir")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the calendar used for day arithmetic.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Dashboard.Location)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading dashboard.location %q: %w", name, err)
	}
	return loc, nil
}
