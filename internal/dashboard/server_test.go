package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradewatch/config"
	"tradewatch/logger"
	"tradewatch/models"
)

func TestNormalizeAddress(t *testing.T) {
	cases := map[string]string{
		"":                               "0.0.0.0:8080",
		"  :9090  ":                      "0.0.0.0:9090",
		"localhost":                      "localhost:8080",
		"0.0.0.0:80":                     "0.0.0.0:80",
		"[::1]:443":                      "[::1]:443",
		"::1":                            "[::1]:8080",
		"*:8080":                         "0.0.0.0:8080",
		"http://13.200.112.203:8080":     "13.200.112.203:8080",
		"https://13.200.112.203":         "13.200.112.203:8080",
		"http://:7070":                   "0.0.0.0:7070",
		"tcp://localhost:5050":           "localhost:5050",
		"https://dashboard.example.com/": "dashboard.example.com:8080",
	}

	for input, want := range cases {
		if got := normalizeAddress(input); got != want {
			t.Fatalf("normalizeAddress(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNewServerDisabled(t *testing.T) {
	srv, err := NewServer(config.DashboardConfig{Enabled: false}, logger.Logger())
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	if srv != nil {
		t.Fatal("expected nil server when dashboard is disabled")
	}
	// Nil receivers must be safe for the callers that skip the enabled check.
	srv.SetSnapshot(&models.Snapshot{})
	if addr := srv.Address(); addr != "" {
		t.Errorf("nil server address = %q", addr)
	}
}

func newTestRouter(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	srv, err := NewServer(config.DashboardConfig{Enabled: true, Address: ":9000"}, logger.Logger())
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	if got := srv.Address(); got != "0.0.0.0:9000" {
		t.Fatalf("server address = %q, want 0.0.0.0:9000", got)
	}
	router, err := srv.buildRouter("TradeWatch")
	if err != nil {
		t.Fatalf("buildRouter: %v", err)
	}
	return srv, router
}

func TestSnapshotEndpoint(t *testing.T) {
	srv, router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/competition_data.json", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("before first pass: status %d, want 404", rec.Code)
	}

	srv.SetSnapshot(&models.Snapshot{
		Competition: "test-competition",
		RunID:       "run-1",
		ScrapedAt:   time.Now().UTC(),
		ActivityFeed: []models.ActivityItem{
			{Symbol: "AAPL", PlayerName: "Alice", Action: "Buy"},
		},
	})

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/competition_data.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("after pass: status %d, want 200", rec.Code)
	}
	var snapshot models.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.RunID != "run-1" || len(snapshot.ActivityFeed) != 1 {
		t.Errorf("unexpected snapshot: %+v", snapshot)
	}
}

func TestStatusAndHealthEndpoints(t *testing.T) {
	srv, router := newTestRouter(t)
	srv.SetSnapshot(&models.Snapshot{RunID: "run-1", Competition: "test-competition", ScrapedAt: time.Now().UTC()})
	srv.SetSnapshot(&models.Snapshot{RunID: "run-2", Competition: "test-competition", ScrapedAt: time.Now().UTC()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var status map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status["run_id"] != "run-2" {
		t.Errorf("status run_id = %v, want run-2", status["run_id"])
	}
	if status["runs"] != float64(2) {
		t.Errorf("status runs = %v, want 2", status["runs"])
	}
}
