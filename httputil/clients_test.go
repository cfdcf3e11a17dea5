package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wbb_scrooper/config"
)

func testClients(cacheDir string) *Clients {
	return NewClients(config.HTTPConfig{
		UserAgent: "wbb-test",
		Timeout:   5 * time.Second,
		CacheDir:  cacheDir,
	})
}

func TestGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	resp, err := testClients("").Get(context.Background(), srv.URL+"/roster/2025-26")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response alongside error, got %+v", resp)
	}
}

func TestGetSendsUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	if _, err := testClients("").Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ua != "wbb-test" {
		t.Fatalf("expected user agent wbb-test, got %q", ua)
	}
}

func TestGetCachedServesFromDisk(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("boxscore"))
	}))
	defer srv.Close()

	c := testClients(t.TempDir())
	for i := 0; i < 2; i++ {
		body, err := c.GetCached(context.Background(), srv.URL+"/game/1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if string(body) != "boxscore" {
			t.Fatalf("unexpected body %q", body)
		}
	}
	if hits != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", hits)
	}
}

func TestResolveRedirectRelative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/en/events/old/games/1-a-b" {
			w.Header().Set("Location", "/en/events/new/games/1-a-b")
			w.WriteHeader(http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClients("")
	got, err := c.ResolveRedirect(context.Background(), srv.URL+"/en/events/old/games/1-a-b")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != srv.URL+"/en/events/new/games/1-a-b" {
		t.Fatalf("unexpected resolved url %s", got)
	}

	same, err := c.ResolveRedirect(context.Background(), srv.URL+"/en/events/new/games/1-a-b")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if same != srv.URL+"/en/events/new/games/1-a-b" {
		t.Fatalf("expected unchanged url, got %s", same)
	}
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("ocp-apim-subscription-key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"games":[1,2]}`))
	}))
	defer srv.Close()

	var out struct {
		Games []int `json:"games"`
	}
	err := testClients("").GetJSON(context.Background(), srv.URL, map[string]string{"ocp-apim-subscription-key": "k"}, &out)
	if err != nil {
		t.Fatalf("get json failed: %v", err)
	}
	if len(out.Games) != 2 {
		t.Fatalf("expected 2 games, got %v", out.Games)
	}
}
