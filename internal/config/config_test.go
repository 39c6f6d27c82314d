package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := Load("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, SourceHTTP, c.Backend.Source)
	assert.Equal(t, "http://localhost:8000", c.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, c.Backend.Timeout)
	assert.Equal(t, 5000.0, c.Dashboard.GaugeCeilingW)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.False(t, c.Debug)
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", `
backend:
  source: files
  dataDir: /srv/strom
  timeout: 3s
dashboard:
  gaugeCeilingW: 7000
  location: UTC
server:
  addr: 127.0.0.1:9000
  serveBackend: true
  corsOrigins:
    - http://localhost:5173
debug: true
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceFiles, c.Backend.Source)
	assert.Equal(t, "/srv/strom", c.Backend.DataDir)
	assert.Equal(t, 3*time.Second, c.Backend.Timeout)
	assert.Equal(t, 7000.0, c.Dashboard.GaugeCeilingW)
	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)
	assert.True(t, c.Server.ServeBackend)
	assert.Equal(t, []string{"http://localhost:5173"}, c.Server.CORSOrigins)
	assert.True(t, c.Debug)

	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STROM_BACKEND_URL", "http://pi.local")
	t.Setenv("STROM_ADDR", ":9999")
	t.Setenv("STROM_DEBUG", "true")

	c, err := Load("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "http://pi.local", c.Backend.BaseURL)
	assert.Equal(t, ":9999", c.Server.Addr)
	assert.True(t, c.Debug)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "# local overrides\nSTROM_SOURCE=sqlite\nSTROM_SQLITE_PATH=/tmp/strom.sqlite\n")
	// Registered so the values loaded from .env are removed after the test.
	t.Setenv("STROM_SOURCE", "")
	t.Setenv("STROM_SQLITE_PATH", "")
	os.Unsetenv("STROM_SOURCE")
	os.Unsetenv("STROM_SQLITE_PATH")

	c, err := Load("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, c.Backend.Source)
	assert.Equal(t, "/tmp/strom.sqlite", c.Backend.SQLitePath)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", "backend: [unterminated")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing yaml")
}

func TestLoad_InvalidDebugEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STROM_DEBUG", "maybe")

	_, err := Load("config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STROM_DEBUG")
}

func TestLoad_LeavesValidationToCaller(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", "dashboard:\n  gaugeCeilingW: -1\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, -1.0, c.Dashboard.GaugeCeilingW)

	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gaugeCeilingW")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown source", func(c *Config) { c.Backend.Source = "ftp" }, "unknown backend.source"},
		{"http without url", func(c *Config) { c.Backend.BaseURL = "" }, "baseUrl"},
		{"files without dir", func(c *Config) { c.Backend.Source = SourceFiles; c.Backend.DataDir = "" }, "dataDir"},
		{"sqlite without path", func(c *Config) { c.Backend.Source = SourceSQLite; c.Backend.SQLitePath = "" }, "sqlitePath"},
		{"zero timeout", func(c *Config) { c.Backend.Timeout = 0 }, "timeout"},
		{"zero ceiling", func(c *Config) { c.Dashboard.GaugeCeilingW = 0 }, "gaugeCeilingW"},
		{"bad location", func(c *Config) { c.Dashboard.Location = "Mars/Olympus" }, "dashboard.location"},
		{"serve backend without dir", func(c *Config) { c.Server.ServeBackend = true; c.Backend.DataDir = "" }, "serveBackend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocation_LocalByDefault(t *testing.T) {
	c := Default()
	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}
