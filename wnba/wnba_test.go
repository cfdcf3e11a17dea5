package wnba

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/config"
	"wbb_scrooper/httputil"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "wnba.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testClients() *httputil.Clients {
	return httputil.NewClients(config.HTTPConfig{UserAgent: "wbb-test", Timeout: 5 * time.Second})
}

func TestLoadRosters(t *testing.T) {
	aces := loadFixture(t, "aces_roster.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2024/teams/aces_roster.json":
			w.Write(aces)
		case "/2024/teams/storm_roster.json":
			http.NotFound(w, r)
		default:
			w.Write([]byte(`{"t": {"tid": 1, "pl": []}}`))
		}
	}))
	defer srv.Close()

	store := newTestStore(t)
	client := NewClient(testClients(), srv.URL)

	n, err := client.LoadRosters(context.Background(), store, "2024")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 players, got %d", n)
	}

	// Loading twice upserts by pid.
	if _, err := client.LoadRosters(context.Background(), store, "2024"); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if count, _ := store.Count("rosters"); count != 2 {
		t.Fatalf("expected 2 roster rows after reload, got %d", count)
	}

	players, err := store.TeamRoster(1611661319)
	if err != nil {
		t.Fatalf("roster query failed: %v", err)
	}
	var got []string
	for _, p := range players {
		got = append(got, p.FirstName+" "+p.LastName+" #"+p.Jersey.String()+" "+p.Weight.String())
	}
	want := []string{"Chelsea Gray #12 170", "A'ja Wilson #22 195"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("roster mismatch (-want +got):\n%s", diff)
	}

	var data map[string]any
	if err := json.Unmarshal(players[0].Data, &data); err != nil {
		t.Fatalf("stored data is not json: %v", err)
	}
	if data["team_id"] != float64(1611661319) {
		t.Fatalf("expected team_id in stored data, got %v", data["team_id"])
	}
}

func TestFetchPlayerIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2019/players/10_player_info.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"pls":{"pl":[{"pid":1,"fn":"Sue","ln":"Bird"}]}}`))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "wnba_players.json")
	if err := NewClient(testClients(), srv.URL).FetchPlayerIndex(context.Background(), "2019", out); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if !json.Valid(data) || data[0] != '{' {
		t.Fatalf("expected json object, got %s", data)
	}
}

func TestLoadTeams(t *testing.T) {
	store := newTestStore(t)
	n, err := LoadTeams(store, filepath.Join("testdata", "teams.json"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 teams, got %d", n)
	}
	var name string
	err = store.DB().QueryRow(`SELECT json_extract(data, '$.name') FROM teams WHERE id = ?`, 1611661330).Scan(&name)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if name != "Atlanta Dream" {
		t.Fatalf("expected Atlanta Dream, got %s", name)
	}
}

func TestLoadFollowing(t *testing.T) {
	store := newTestStore(t)

	n, err := LoadFollowingCSV(store, "testdata", "hoopsfan")
	if err != nil {
		t.Fatalf("csv load failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 csv rows, got %d", n)
	}

	n, err = LoadFollowingJSON(store, "testdata", "hoopsfan")
	if err != nil {
		t.Fatalf("json load failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 json rows, got %d", n)
	}

	// 101 appears in both exports and is upserted once.
	if count, _ := store.Count("following"); count != 3 {
		t.Fatalf("expected 3 following rows, got %d", count)
	}

	rows, err := store.DB().Query(`SELECT id, join_date FROM following WHERE account_name = ? ORDER BY id`, "hoopsfan")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()
	var got []string
	for rows.Next() {
		var id, date string
		if err := rows.Scan(&id, &date); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		got = append(got, id+" "+date)
	}
	want := []string{"101 2019-03-05", "102 2021-01-01", "103 2022-11-30"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("following mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinDateRejectsGarbage(t *testing.T) {
	if _, err := joinDate("2019-03-05"); err == nil {
		t.Fatalf("expected error for iso date")
	}
}

func TestCountUnknownTable(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Count("sqlite_master; DROP TABLE teams"); err == nil {
		t.Fatalf("expected error for unknown table")
	}
}
