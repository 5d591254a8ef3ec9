package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaIA/identity-ocr-service/internal/idparse"
)

var configEnv = []string{
	"PORT", "HOST", "NATIONALITY_TABLE", "NATIONALITY_OUTPUT", "PARSER_CURRENT_YEAR",
	"SESSION_TTL", "AUTH_ENABLED", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
port: 9090
host: 127.0.0.1
parser:
  current_year: 2024
  output: code
session:
  ttl: 10m
auth:
  enabled: false
log:
  level: debug
  development: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 2024, cfg.Parser.CurrentYear)
	assert.Equal(t, idparse.OutputCode, cfg.Parser.Output)
	assert.Equal(t, 10*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval, "unset keys keep defaults")
	assert.False(t, cfg.Auth.Enabled)
	assert.True(t, cfg.Log.Development)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "port: 9090\nparser:\n  output: code\n")
	t.Setenv("PORT", "7000")
	t.Setenv("NATIONALITY_OUTPUT", "Country")
	t.Setenv("PARSER_CURRENT_YEAR", "2030")
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("NATIONALITY_TABLE", "/etc/table.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, idparse.OutputCountry, cfg.Parser.Output)
	assert.Equal(t, 2030, cfg.Parser.CurrentYear)
	assert.Equal(t, 90*time.Second, cfg.Session.TTL)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, "/etc/table.yaml", cfg.Parser.NationalityTable)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "port: [1"},
		{name: "bad output", file: "parser:\n  output: flag\n"},
		{name: "bad port env", env: map[string]string{"PORT": "http"}},
		{name: "port range", file: "port: 70000"},
		{name: "bad ttl env", env: map[string]string{"SESSION_TTL": "soon"}},
		{name: "bad output env", env: map[string]string{"NATIONALITY_OUTPUT": "iso"}},
		{name: "negative ttl", file: "session:\n  ttl: -1m\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}
