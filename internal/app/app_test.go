package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mathursrus/LinkedIn-Network/internal/config"
	"github.com/mathursrus/LinkedIn-Network/internal/search"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.AuthStore = "file"
	cfg.AuthStatePath = filepath.Join(dir, "auth.json")
	cfg.LogLevel = "error"
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close(context.Background())

	if a.Store.Root() != cfg.CacheDir {
		t.Errorf("Expected store under %s, got %s", cfg.CacheDir, a.Store.Root())
	}
	if a.Jobs.StaleAfter() != cfg.StaleAfter {
		t.Errorf("Expected stale after %s, got %s", cfg.StaleAfter, a.Jobs.StaleAfter())
	}
	if a.Uptime() < 0 {
		t.Error("Uptime should not be negative")
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Error("Expected an error without config")
	}
}

func TestNew_UnknownAuthStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthStore = "vault"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("Expected unknown auth store to fail")
	}
}

func TestNew_StaleDetectionDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.StaleAfter = 0

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close(context.Background())

	if a.Jobs.StaleAfter() > 0 {
		t.Errorf("Expected stale detection off, got %s", a.Jobs.StaleAfter())
	}
}

func TestNewJob(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close(context.Background())

	params := map[string]string{"person": "Jane Roe", "company": "Acme"}
	job := a.NewJob(search.MutualConnections{
		Searcher: a.Searcher,
		Target:   search.Target{Person: "Jane Roe", Company: "Acme"},
	}, params)

	if job.Query != search.QueryMutual {
		t.Errorf("Expected %s, got %s", search.QueryMutual, job.Query)
	}
	if job.ResultField != models.FieldMutualConnections {
		t.Errorf("Expected mutual_connections field, got %s", job.ResultField)
	}
	if job.Params["person"] != "Jane Roe" || job.Run == nil {
		t.Errorf("Unexpected job %+v", job)
	}
}

func TestServer_Health(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close(context.Background())

	rec := httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["status"] != "ok" {
		t.Errorf("Unexpected body %v (%v)", body, err)
	}
}

func TestSetupLogging_JSON(t *testing.T) {
	cfg := config.Default()
	cfg.JSONLog = true
	cfg.LogLevel = "debug"

	var buf bytes.Buffer
	logger := SetupLogging(cfg, &buf)
	logger.Debug().Str("component", "test").Msg("hello")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Expected a JSON log line, got %q", buf.String())
	}
	if line["message"] != "hello" || line["level"] != "debug" || line["component"] != "test" {
		t.Errorf("Unexpected log line %v", line)
	}
	if _, err := time.Parse(time.RFC3339, line["time"].(string)); err != nil {
		t.Errorf("Expected a timestamp, got %v", line["time"])
	}
}

func TestSetupLogging_Level(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger := SetupLogging(cfg, &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("Unexpected output %q", out)
	}
}
