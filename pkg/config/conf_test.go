package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, DefaultArtifacts, c.Artifacts)
	assert.Equal(t, DefaultPort, c.Server.Port)
	assert.Empty(t, c.History.DB)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
artifacts: https://models.example.com/fraud/v3
server:
  port: 9090
  rate_limit: 2.5
history:
  db: /var/lib/scorecard/history.db
log:
  format: json
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://models.example.com/fraud/v3", c.Artifacts)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, DefaultAddress, c.Server.Address)
	assert.Equal(t, 2.5, c.Server.RateLimit)
	assert.Equal(t, 3, c.Server.Burst())
	assert.Equal(t, "/var/lib/scorecard/history.db", c.History.DB)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, DefaultLogLevel, c.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server:\n  port: 70000\n"))
	assert.ErrorContains(t, err, "port")

	_, err = Load(writeConfig(t, "artifacts: ''\n"))
	assert.ErrorContains(t, err, "artifacts")
}

func TestValidate(t *testing.T) {
	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())

	c := Default()
	c.Server.RateLimit = -1
	assert.Error(t, c.Validate())

	c = Default()
	c.Server.RateBurst = -1
	assert.Error(t, c.Validate())

	assert.NoError(t, Default().Validate())
}

func TestServer_Burst(t *testing.T) {
	assert.Equal(t, 1, Server{}.Burst())
	assert.Equal(t, 1, Server{RateLimit: 0.5}.Burst())
	assert.Equal(t, 10, Server{RateLimit: 10}.Burst())
	assert.Equal(t, 25, Server{RateLimit: 10, RateBurst: 25}.Burst())
}
