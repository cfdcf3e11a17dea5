package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wbb_scrooper/config"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
)

func TestURLCheckerStatuses(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/sports/womens-basketball", http.StatusMovedPermanently)
		case "/sports/womens-basketball":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	clients := httputil.NewClients(config.HTTPConfig{UserAgent: "wbb-test", Timeout: 5 * time.Second})
	teams := []models.Team{
		{NcaaID: 255, Name: "Georgia Tech", URL: srv.URL + "/old"},
		{NcaaID: 193, Name: "Duke"},
		{NcaaID: 457, Name: "North Carolina", URL: srv.URL + "/missing"},
		{NcaaID: 1, Name: "Offline", URL: "http://127.0.0.1:1/wbb"},
	}

	checks := NewURLChecker(clients, 0).Check(context.Background(), teams)
	if len(checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(checks))
	}

	if checks[0].StatusCode != http.StatusOK || !checks[0].OK() {
		t.Fatalf("expected redirect followed to 200, got %+v", checks[0])
	}
	if checks[1].TeamID != 457 || checks[1].StatusCode != http.StatusNotFound || checks[1].OK() {
		t.Fatalf("expected 404 for North Carolina, got %+v", checks[1])
	}
	if checks[2].StatusCode != 0 || checks[2].Err == "" {
		t.Fatalf("expected transport error, got %+v", checks[2])
	}
	mu.Lock()
	defer mu.Unlock()
	for _, m := range methods {
		if m != http.MethodHead {
			t.Fatalf("expected only HEAD requests, got %s", m)
		}
	}
}

func TestURLCheckerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	teams := []models.Team{{NcaaID: 8, Name: "Alabama", URL: "https://rolltide.com/sports/womens-basketball"}}
	checks := NewURLChecker(httputil.NewClients(config.HTTPConfig{}), 0).Check(ctx, teams)
	if len(checks) != 0 {
		t.Fatalf("expected no checks after cancel, got %d", len(checks))
	}
}

func TestURLCheckCSVRow(t *testing.T) {
	c := URLCheck{TeamID: 8, Team: "Alabama", URL: "https://rolltide.com", StatusCode: 503}
	row := c.CSVRow()
	if len(row) != len(URLCheckCSVHeader) {
		t.Fatalf("expected %d columns, got %d", len(URLCheckCSVHeader), len(row))
	}
	if row[3] != "503" {
		t.Fatalf("expected status 503, got %s", row[3])
	}
}
