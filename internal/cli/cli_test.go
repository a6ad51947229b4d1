package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claim-risk/internal/api"
	"claim-risk/internal/client"
	"claim-risk/internal/scoring"
)

type fixedRoll int

func (f fixedRoll) Intn(int) int { return int(f) }

func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	server, err := api.NewServer(api.Config{Random: fixedRoll(0), DisableFeed: true})
	require.NoError(t, err)
	router, err := server.Router()
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeText(t *testing.T) {
	url := startServer(t)

	out, err := run(t, "analyze", "--server", url, "--amount", "1000", "--diag-code", "A01", "--provider-id", "PROV12345")
	require.NoError(t, err)
	assert.Contains(t, out, "Risk score:  15")
	assert.Contains(t, out, "Decision:    Legitimate (legit)")
	assert.Contains(t, out, "Confidence:  85.0")
	assert.Contains(t, out, "  - Provider has high trust score")
}

func TestAnalyzeJSON(t *testing.T) {
	url := startServer(t)

	out, err := run(t, "analyze", "--server", url, "--amount", "15000", "--diag-code", "X12", "--provider-id", "PR001", "--json")
	require.NoError(t, err)

	var p scoring.Prediction
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "fraud", p.DecisionClass)
	assert.Equal(t, 90, p.Score)
}

func TestAnalyzeServerFromEnv(t *testing.T) {
	url := startServer(t)
	t.Setenv("CLAIMRISK_SERVER", url)

	out, err := run(t, "analyze", "--amount", "6000", "--diag-code", "A01", "--provider-id", "PROV12345")
	require.NoError(t, err)
	assert.Contains(t, out, "Claim amount exceeds standard threshold")
}

func TestAnalyzeServerFromConfigFile(t *testing.T) {
	url := startServer(t)
	path := filepath.Join(t.TempDir(), "claimctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: "+url+"\n"), 0o600))

	out, err := run(t, "analyze", "--config", path, "--amount", "10", "--diag-code", "A01", "--provider-id", "PROV12345")
	require.NoError(t, err)
	assert.Contains(t, out, "legit")
}

func TestAnalyzeMissingFieldFails(t *testing.T) {
	url := startServer(t)

	_, err := run(t, "analyze", "--server", url, "--amount", "10", "--diag-code", "A01")
	assert.ErrorIs(t, err, client.ErrAnalysisFailed)

	_, err = run(t, "analyze", "--server", url, "--diag-code", "A01", "--provider-id", "PROV12345")
	assert.Error(t, err)
}
