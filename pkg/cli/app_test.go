package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mchmarny/scorecard/pkg/artifact"
	"github.com/mchmarny/scorecard/pkg/auth"
	"github.com/mchmarny/scorecard/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

var testDocs = map[string]string{
	artifact.SelectedVarsFile: `["Make"]`,
	artifact.WoeMappingsFile:  `{"Make": {"Toyota": 0.5}}`,
	artifact.CoefficientsFile: `{"Make": -1.0}`,
	artifact.InterceptFile:    `{"intercept": 0.0}`,
	artifact.ScoreParamsFile:  `{"PDO": 20, "BASE_SCORE": 600, "BASE_ODDS": 50, "factor": 20, "offset": 600, "intercept_points": 0}`,
}

// setupTest isolates HOME and the artifacts env var and returns an
// artifacts directory.
func setupTest(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(artifactsEnvVar, "")
	require.NoError(t, os.Unsetenv(artifactsEnvVar))
	keyring.MockInit()

	dir := t.TempDir()
	for name, content := range testDocs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	return dir
}

func run(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.Reader = strings.NewReader(stdin)
	err := app.Run(ctx, append([]string{appName}, args...))
	return out.String(), err
}

func TestValidate(t *testing.T) {
	dir := setupTest(t)

	out, err := run(t, t.Context(), "", "--artifacts", dir, "validate")
	require.NoError(t, err)

	var s artifact.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, artifact.DefaultModelVersion, s.ModelVersion)
	assert.Equal(t, []string{"Make"}, s.Variables)
	assert.Equal(t, 1, s.Categories["Make"])
}

func TestValidate_MissingArtifacts(t *testing.T) {
	setupTest(t)

	_, err := run(t, t.Context(), "", "--artifacts", t.TempDir(), "validate")
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrMissingArtifact)
}

func TestValidate_EnvVar(t *testing.T) {
	dir := setupTest(t)
	t.Setenv(artifactsEnvVar, dir)

	out, err := run(t, t.Context(), "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, dir)
}

func TestValidate_ConfigFile(t *testing.T) {
	dir := setupTest(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("artifacts: "+dir+"\n"), 0600))

	out, err := run(t, t.Context(), "", "--config", path, "--format", "yaml", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "model_version: v1.0")
}

func TestScore_File(t *testing.T) {
	dir := setupTest(t)
	payload := filepath.Join(t.TempDir(), "payload.json")
	require.NoError(t, os.WriteFile(payload, []byte(`{"data":{"Make":"Toyota"}}`), 0600))

	out, err := run(t, t.Context(), "", "--artifacts", dir, "score", "--data", payload)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, 610.0, m["score"])
	assert.Equal(t, 0.377541, m["probability_fraud"])
	assert.Equal(t, -0.5, m["log_odds"])
}

func TestScore_Stdin(t *testing.T) {
	dir := setupTest(t)

	out, err := run(t, t.Context(), `{"data":{"Make":"VW"}}`, "--artifacts", dir, "--format", "yaml", "score", "--data", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "score: 600")
	assert.Contains(t, out, "Make: Volkswagen")
}

func TestScore_InvalidPayload(t *testing.T) {
	dir := setupTest(t)

	_, err := run(t, t.Context(), `{"data":"x"}`, "--artifacts", dir, "score", "--data", "-")
	assert.ErrorContains(t, err, "'data' must be an object")

	_, err = run(t, t.Context(), "", "--artifacts", dir, "score", "--data", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestInvalidFlags(t *testing.T) {
	dir := setupTest(t)

	_, err := run(t, t.Context(), "", "--artifacts", dir, "--format", "xml", "validate")
	assert.ErrorContains(t, err, "output format")

	_, err = run(t, t.Context(), "", "--artifacts", dir, "--log-format", "xml", "validate")
	assert.ErrorContains(t, err, "log format")
}

func TestHistory(t *testing.T) {
	setupTest(t)

	_, err := run(t, t.Context(), "", "history")
	assert.ErrorContains(t, err, "--db")

	db := filepath.Join(t.TempDir(), "history.db")
	out, err := run(t, t.Context(), "", "--db", db, "history", "--limit", "5")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestHistory_DefaultFile(t *testing.T) {
	setupTest(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	out, err := run(t, t.Context(), "", "--history", "history")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
	assert.FileExists(t, filepath.Join(home, "."+appName, data.DataFileName))
}

func TestOpenHistory(t *testing.T) {
	db, err := openHistory(t.Context(), "")
	require.NoError(t, err)
	assert.Nil(t, db)

	db, err = openHistory(t.Context(), filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer db.Close()

	v, err := data.SchemaVersion(t.Context(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestAuth(t *testing.T) {
	setupTest(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	stateDir := filepath.Join(home, "."+appName)

	out, err := run(t, t.Context(), "", "auth", "--token", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Token saved")

	token, err := auth.GetToken(stateDir)
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	out, err = run(t, t.Context(), "", "auth", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Token removed")

	_, err = auth.GetToken(stateDir)
	assert.ErrorIs(t, err, auth.ErrNoToken)

	_, err = run(t, t.Context(), "from-stdin\n", "auth")
	require.NoError(t, err)
	token, err = auth.GetToken(stateDir)
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", token)
}

func TestServer_Shutdown(t *testing.T) {
	dir := setupTest(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()

	_, err = run(t, ctx, "", "--artifacts", dir, "--db", filepath.Join(t.TempDir(), "history.db"),
		"server", "--port", strconv.Itoa(port), "--rate-limit", "5")
	assert.NoError(t, err)
}

func TestServer_MissingArtifacts(t *testing.T) {
	setupTest(t)

	_, err := run(t, t.Context(), "", "--artifacts", t.TempDir(), "serve")
	assert.ErrorIs(t, err, artifact.ErrMissingArtifact)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"json", formatJSON, false},
		{"", formatJSON, false},
		{"YAML", formatYAML, false},
		{"yml", formatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := parseFormat(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
