package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	for _, key := range []string{"PORT", "HOST", "NATIONALITY_TABLE", "AUTH_ENABLED", "LOG_LEVEL", "DATABASE_URL", "DB_HOST", "MINIO_ENDPOINT"} {
		t.Setenv(key, "")
	}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRootCmdConfigFlag(t *testing.T) {
	flag := newRootCmd().Flags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "config.yaml", flag.DefValue)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	err := execute(t, "--config", writeConfig(t, "port: 70000\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")

	err = execute(t, "-c", writeConfig(t, "port: [\n"))
	assert.Error(t, err)
}

func TestRunRejectsMissingNationalityTable(t *testing.T) {
	path := writeConfig(t, `
auth:
  enabled: false
parser:
  nationality_table: `+filepath.Join(t.TempDir(), "missing.yaml")+`
log:
  level: error
`)
	err := execute(t, "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nationality table")
}

func TestRunRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	err := execute(t, "--config", writeConfig(t, "log:\n  level: error\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth")
}

func TestRootCmdRejectsArgs(t *testing.T) {
	assert.Error(t, execute(t, "extra"))
}
