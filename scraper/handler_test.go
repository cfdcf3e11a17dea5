package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/config"
	"wbb_scrooper/export"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
	"wbb_scrooper/services"
)

func TestNewHandler(t *testing.T) {
	for _, id := range []string{
		HandlerRosters, HandlerFIBAGames, HandlerFIBABoxscores, HandlerFIBAPlayers,
		HandlerWNBARosters, HandlerShowbuzz, HandlerNCAAGames, HandlerNCAAExports,
		HandlerNCAAPbp, HandlerOfficials, HandlerCoachBios, HandlerURLCheck,
	} {
		h, err := NewHandler(&config.JobConfig{ID: "job", Handler: id}, Deps{})
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if h.ID() != id {
			t.Fatalf("expected handler %s, got %s", id, h.ID())
		}
	}

	if _, err := NewHandler(&config.JobConfig{ID: "job", Handler: "zillow"}, Deps{}); err == nil {
		t.Fatalf("expected error for unknown handler")
	}
}

func TestJobParamHelpers(t *testing.T) {
	cfg := &config.Config{DataDir: "data", Scraper: config.ScraperConfig{Season: "2025-26"}}
	job := &config.JobConfig{ID: "fiba_games", Params: map[string]string{
		"events":     " world-cup-2026 , ,asia-cup-2025",
		"start_year": "2023",
		"bad":        "twenty",
		"publish":    "true",
	}}

	if got := outputDir(cfg, job); got != filepath.Join("data", "fiba_games") {
		t.Fatalf("expected data/fiba_games, got %s", got)
	}
	job.Output = "out"
	if got := outputDir(cfg, job); got != "out" {
		t.Fatalf("expected out, got %s", got)
	}

	if diff := cmp.Diff([]string{"2025-26"}, jobSeasons(cfg, job)); diff != "" {
		t.Fatalf("default seasons mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"world-cup-2026", "asia-cup-2025"}, listParam(job, "events", "")); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if got := listParam(job, "missing", ""); got != nil {
		t.Fatalf("expected nil list, got %v", got)
	}

	if n, err := intParam(job, "start_year", 0); err != nil || n != 2023 {
		t.Fatalf("expected 2023, got %d, %v", n, err)
	}
	if n, err := intParam(job, "end_year", 2026); err != nil || n != 2026 {
		t.Fatalf("expected default 2026, got %d, %v", n, err)
	}
	if _, err := intParam(job, "bad", 0); err == nil {
		t.Fatalf("expected error for non-numeric param")
	}
	if !boolParam(job, "publish") || boolParam(job, "sqlite") {
		t.Fatalf("unexpected bool params")
	}
}

func TestURLCheckHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out := t.TempDir()
	deps := Deps{
		Config: &config.Config{},
		HTTP:   httputil.NewClients(config.HTTPConfig{UserAgent: "wbb-test", Timeout: 5 * time.Second}),
		Teams: []models.Team{
			{NcaaID: 8, Name: "Alabama", URL: srv.URL + "/wbball"},
			{NcaaID: 9, Name: "No Site"},
			{NcaaID: 31, Name: "Arizona", URL: srv.URL + "/gone"},
		},
	}
	job := &config.JobConfig{ID: "url_check", Handler: HandlerURLCheck, Output: out}
	run := &models.ScrapeRun{}

	n, err := (&URLCheckHandler{deps: deps}).Run(context.Background(), job, run)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 checks, got %d", n)
	}
	if run.ErrorsCount != 1 {
		t.Fatalf("expected 1 failing url, got %d", run.ErrorsCount)
	}

	path := filepath.Join(out, services.URLChecksFile)
	if diff := cmp.Diff([]string{path}, run.Outputs); diff != "" {
		t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
	}
	header, rows, err := export.ReadCSV(path)
	if err != nil {
		t.Fatalf("read checks: %v", err)
	}
	if diff := cmp.Diff(services.URLCheckCSVHeader, header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	want := [][]string{
		{"8", "Alabama", srv.URL + "/wbball", "200", ""},
		{"31", "Arizona", srv.URL + "/gone", "410", ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestShowbuzzHandlerRejectsBadDate(t *testing.T) {
	job := &config.JobConfig{ID: "showbuzz", Params: map[string]string{"start": "03/14/2025"}}
	_, err := (&ShowbuzzHandler{deps: Deps{Config: &config.Config{}}}).Run(context.Background(), job, &models.ScrapeRun{})
	if err == nil {
		t.Fatalf("expected error for bad start date")
	}
}

func TestFIBABoxscoresHandlerNeedsEvents(t *testing.T) {
	job := &config.JobConfig{ID: "fiba_boxscores"}
	_, err := (&FIBABoxscoresHandler{deps: Deps{Config: &config.Config{}}}).Run(context.Background(), job, &models.ScrapeRun{})
	if err == nil {
		t.Fatalf("expected error without events")
	}
}

func TestOfficialsHandler(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	header := models.OfficialGameCSVHeader
	row := func(id, date, officials string) []string {
		r := make([]string, len(header))
		for i, col := range header {
			switch col {
			case "game_id":
				r[i] = id
			case "date":
				r[i] = date
			case "officials":
				r[i] = officials
			default:
				r[i] = "0"
			}
		}
		return r
	}
	rows := [][]string{
		row("1", "11/7/2023", "Amy Adams, Beth Brown, Cara Cole"),
		row("2", "11/9/2023", "Amy Adams, Beth Brown, Dana Dunn"),
	}
	if err := export.WriteCSV(filepath.Join(src, "officials_2023-24.csv"), header, rows); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cfg := &config.Config{DataDir: t.TempDir(), Scraper: config.ScraperConfig{Season: "2023-24"}}
	job := &config.JobConfig{ID: "officials", Output: out, Params: map[string]string{
		"source_dir":       src,
		"min_games":        "1",
		"top_partnerships": "3",
	}}
	run := &models.ScrapeRun{}

	n, err := (&OfficialsHandler{deps: Deps{Config: cfg}}).Run(context.Background(), job, run)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 officials compared, got %d", n)
	}
	if len(run.Outputs) == 0 {
		t.Fatalf("expected report files")
	}
}
