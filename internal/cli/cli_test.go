package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/concierge/internal/config"
	"github.com/aretw0/concierge/pkg/adapters/file"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() config.Config {
	return config.Config{
		Store:         config.StoreMemory,
		FileDir:       file.DefaultDir,
		SessionTTL:    time.Hour,
		Oracle:        config.OracleLexical,
		OracleTimeout: time.Second,
		ToolTimeout:   time.Second,
		HistoryWindow: 10,
		LogLevel:      "error",
	}
}

func newApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	app, err := NewApp(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })
	return app
}

func TestNewApp_DemoAgent(t *testing.T) {
	app := newApp(t, defaultConfig())
	assert.Equal(t, "Healthcare Agent", app.Engine.Agent().Name)

	_, err := app.Engine.HandleTurn(context.Background(), "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(app.Metrics.Turns))
}

func TestNewApp_AgentFile(t *testing.T) {
	cfg := defaultConfig()
	cfg.Agent = "../../examples/healthcare/agent.yaml"
	app := newApp(t, cfg)
	assert.Len(t, app.Engine.Agent().Journeys, 2)
}

func TestNewApp_Stores(t *testing.T) {
	mr := miniredis.RunT(t)
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	tests := []struct {
		name   string
		modify func(cfg *config.Config, dir string)
	}{
		{"file", func(cfg *config.Config, dir string) {
			cfg.Store = config.StoreFile
			cfg.FileDir = dir
		}},
		{"sqlite", func(cfg *config.Config, dir string) {
			cfg.Store = config.StoreSQLite
			cfg.SQLitePath = filepath.Join(dir, "sessions.db")
		}},
		{"redis", func(cfg *config.Config, dir string) {
			cfg.Store = config.StoreRedis
			cfg.RedisURL = "redis://" + mr.Addr()
		}},
		{"encrypted file with masking", func(cfg *config.Config, dir string) {
			cfg.Store = config.StoreFile
			cfg.FileDir = dir
			cfg.EncryptionKey = key
			cfg.PIIPatterns = []string{"(?i)phone"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(&cfg, t.TempDir())
			app := newApp(t, cfg)
			ctx := context.Background()

			_, err := app.Engine.HandleTurn(ctx, "patient-1", "hello")
			require.NoError(t, err)

			ids, err := app.Engine.Sessions(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"patient-1"}, ids)

			s, err := app.Engine.Session(ctx, "patient-1")
			require.NoError(t, err)
			assert.Equal(t, 1, s.Turns)
		})
	}
}

func TestNewApp_EncryptedAtRest(t *testing.T) {
	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.Store = config.StoreFile
	cfg.FileDir = dir
	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))
	app := newApp(t, cfg)

	_, err := app.Engine.HandleTurn(context.Background(), "patient-1", "my secret symptoms")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "patient-1.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret symptoms")
}

func TestNewApp_Errors(t *testing.T) {
	cfg := defaultConfig()
	cfg.LogLevel = "loud"
	_, err := NewApp(context.Background(), cfg, RunOptions{})
	assert.ErrorContains(t, err, "unknown log level")

	cfg = defaultConfig()
	cfg.Agent = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewApp(context.Background(), cfg, RunOptions{})
	assert.ErrorContains(t, err, "failed to read agent file")

	cfg = defaultConfig()
	cfg.PIIPatterns = []string{"("}
	_, err = NewApp(context.Background(), cfg, RunOptions{})
	assert.ErrorContains(t, err, "invalid PII pattern")

	cfg = defaultConfig()
	cfg.Store = "tape"
	_, err = NewApp(context.Background(), cfg, RunOptions{})
	assert.ErrorContains(t, err, "unknown store")
}

func TestLoadAgent_CommandTools(t *testing.T) {
	dir := t.TempDir()
	tools := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(tools, []byte("tools:\n  - name: get_lab_results\n    command: sh\n    args: [\"-c\", \"echo '{}'\"]\n"), 0o644))

	agent, err := LoadAgent(context.Background(), defaultConfig(), tools)
	require.NoError(t, err)
	var names []string
	for _, tool := range agent.Tools {
		names = append(names, tool.Name())
	}
	assert.Contains(t, names, "get_lab_results")
	assert.Len(t, names, 5, "the command tool replaces the built-in one")
}

func TestRunChat(t *testing.T) {
	app := newApp(t, defaultConfig())
	var out bytes.Buffer

	err := RunChat(context.Background(), app, ChatOptions{
		SessionID: "chat-1",
		In:        strings.NewReader("hello\n/reset\n/quit\n"),
		Out:       &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), ">>> Type /reset to start over or /quit to leave.")
	assert.Contains(t, out.String(), ">>> Session reset.")

	_, err = app.Engine.Session(context.Background(), "chat-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRunChat_JSON(t *testing.T) {
	app := newApp(t, defaultConfig())
	var out bytes.Buffer

	err := RunChat(context.Background(), app, ChatOptions{
		SessionID: "chat-1",
		JSON:      true,
		In:        strings.NewReader(`{"utterance": "hello"}` + "\n"),
		Out:       &out,
	})
	require.NoError(t, err)

	var res domain.TurnResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.NotEmpty(t, res.Response)
}

func TestHTTPHandler_Metrics(t *testing.T) {
	app := newApp(t, defaultConfig())
	srv := httptest.NewServer(NewHTTPHandler(app))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions/s1/turns", "application/json", strings.NewReader(`{"utterance": "hello"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(metrics.Body)
	assert.Contains(t, body.String(), "concierge_turns_total 1")
}

func TestRunValidateAndGraph(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunValidate(context.Background(), defaultConfig(), "", &out))
	assert.Contains(t, out.String(), `Agent "Healthcare Agent"`)
	assert.Contains(t, out.String(), "journey schedule-an-appointment")
	assert.NotContains(t, out.String(), "warning")

	out.Reset()
	require.NoError(t, RunGraph(context.Background(), defaultConfig(), "", "lab-results", &out))
	assert.True(t, strings.HasPrefix(out.String(), "graph TD\n"))
	assert.Contains(t, out.String(), `[["results"]]`)

	err := RunGraph(context.Background(), defaultConfig(), "", "nope", &out)
	assert.ErrorContains(t, err, `unknown journey "nope"`)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.Error(t, handleExecutionError(assert.AnError))
}
