package rosters

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/export"
	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

func TestManagerScrapeWriteAndPersist(t *testing.T) {
	roster := loadFixture(t, "sidearm_roster.html")
	stale := []byte(strings.ReplaceAll(string(roster), "2025-26", "2024-25"))
	srv := serve(t, map[string][]byte{
		"/a" + rosterPath + "/roster/2025-26": roster,
		"/c" + rosterPath + "/roster/2025-26": stale,
	})

	teams := []models.Team{
		{NcaaID: 46, Name: "Dayton", URL: srv.URL + "/a" + rosterPath, State: "OH"},
		{NcaaID: 9001, Name: "Gone", URL: srv.URL + "/b" + rosterPath},
		{NcaaID: 9002, Name: "Stale", URL: srv.URL + "/c" + rosterPath},
		{NcaaID: 9003, Name: "No Site"},
	}

	out := t.TempDir()
	m := NewManager(teams, NewRegistry(), testDeps(), out, 0)
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "rosters.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	m.SetStores(store, nil)

	sum, err := m.ScrapeTeams(context.Background(), "2025-26", nil, EntityPlayer)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	if len(sum.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(sum.Players))
	}
	if sum.Players[0].Hometown != "Dayton, OH" {
		t.Fatalf("expected team state appended, got %q", sum.Players[0].Hometown)
	}
	if sum.Players[1].Hometown != "Columbus, Ohio" {
		t.Fatalf("expected hometown with state left alone, got %q", sum.Players[1].Hometown)
	}
	if len(sum.ZeroTeams) != 1 || sum.ZeroTeams[0].TeamID != 9001 {
		t.Fatalf("expected team 9001 as the only zero team, got %+v", sum.ZeroTeams)
	}
	if len(sum.FailedYearCheck) != 1 || sum.FailedYearCheck[0].TeamID != 9002 {
		t.Fatalf("expected team 9002 to fail the year check, got %+v", sum.FailedYearCheck)
	}

	paths, err := m.Write(sum, nil)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	want := []string{"rosters_2025-26.csv", "rosters_2025-26_zero_players.csv", "rosters_2025-26_failed_year_check.csv"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("written files mismatch (-want +got):\n%s", diff)
	}

	header, rows, err := export.ReadCSV(filepath.Join(out, "rosters_2025-26.csv"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if diff := cmp.Diff(models.PlayerCSVHeader, header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if len(rows) != 2 || rows[0][4] != "Jane Doe" {
		t.Fatalf("unexpected rows %v", rows)
	}

	failed, err := export.ReadCSVMaps(filepath.Join(out, "rosters_2025-26_failed_year_check.csv"))
	if err != nil {
		t.Fatalf("read failures: %v", err)
	}
	if failed[0]["team_name"] != "Stale" || failed[0]["url"] == "" {
		t.Fatalf("unexpected failed-year row %v", failed[0])
	}

	n, err := m.Persist(context.Background(), sum)
	if err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows persisted, got %d", n)
	}
	saved, err := store.GetPlayers(46, "2025-26")
	if err != nil {
		t.Fatalf("get players: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("expected 2 saved players, got %d", len(saved))
	}
}

func TestOutputPathSingleTeam(t *testing.T) {
	m := NewManager(nil, nil, Deps{}, "data", 0)
	if got := m.OutputPath("2025-26", EntityCoach, []int{164}); got != filepath.Join("data", "coaches_2025-26_team_164.csv") {
		t.Fatalf("unexpected path %s", got)
	}
	if got := m.OutputPath("2025-26", EntityPlayer, []int{1, 2}); got != filepath.Join("data", "rosters_2025-26.csv") {
		t.Fatalf("unexpected path %s", got)
	}
}

func TestScrapeTeamsNoMatch(t *testing.T) {
	m := NewManager([]models.Team{{NcaaID: 1, Name: "A"}}, nil, Deps{}, t.TempDir(), 0)
	if _, err := m.ScrapeTeams(context.Background(), "2025-26", []int{1}, EntityPlayer); err == nil {
		t.Fatalf("expected error when no team has a url")
	}
}

func TestParseEntities(t *testing.T) {
	got, err := ParseEntities("all")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Entity{EntityPlayer, EntityCoach}, got); diff != "" {
		t.Fatalf("entities mismatch (-want +got):\n%s", diff)
	}
	if _, err := ParseEntities("mascot"); err == nil {
		t.Fatalf("expected error for unknown entity")
	}
}

func TestWriteSkipsEmptyFiles(t *testing.T) {
	out := t.TempDir()
	m := NewManager(nil, nil, Deps{}, out, 0)
	paths, err := m.Write(&Summary{Season: "2025-26", Entity: EntityCoach}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected nothing written, got %v", paths)
	}
	if _, err := os.Stat(filepath.Join(out, "coaches_2025-26.csv")); !os.IsNotExist(err) {
		t.Fatalf("expected no coaches file, got %v", err)
	}
}
