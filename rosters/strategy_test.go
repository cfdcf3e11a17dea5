package rosters

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/config"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

func testDeps() Deps {
	return Deps{HTTP: httputil.NewClients(config.HTTPConfig{UserAgent: "wbb-test", Timeout: 5 * time.Second})}
}

// serve maps request paths to fixture bodies; anything else is a 404.
func serve(t *testing.T, pages map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const rosterPath = "/sports/womens-basketball"

func TestStandardStrategyPlayers(t *testing.T) {
	srv := serve(t, map[string][]byte{rosterPath + "/roster/2025-26": loadFixture(t, "sidearm_roster.html")})
	team := models.Team{NcaaID: 1, Name: "State", URL: srv.URL + rosterPath}

	res, err := NewStrategy(TeamConfig{Type: KindStandard, URLFormat: FormatDefault}, testDeps()).
		Scrape(context.Background(), team, "2025-26", EntityPlayer)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}

	want := []models.Player{
		{
			TeamID: 1, Team: "State", Season: "2025-26", PlayerID: "5011", Name: "Jane Doe", Jersey: "3",
			Position: "G", Height: `5'9"`, AcademicYear: "Junior", Hometown: "Dayton", HighSchool: "Chaminade Julienne",
			URL: srv.URL + rosterPath + "/roster/jane-doe/5011",
		},
		{
			TeamID: 1, Team: "State", Season: "2025-26", PlayerID: "5012", Name: "Mary Smith", Jersey: "24",
			Position: "F", Height: `6'2"`, AcademicYear: "Sophomore", Hometown: "Columbus, Ohio", HighSchool: "Africentric",
			PreviousSchool: "Ohio State", URL: srv.URL + rosterPath + "/roster/mary-smith/5012",
		},
	}
	if diff := cmp.Diff(want, res.Players); diff != "" {
		t.Fatalf("players mismatch (-want +got):\n%s", diff)
	}
}

func TestStandardStrategySeasonFirstFallback(t *testing.T) {
	srv := serve(t, map[string][]byte{rosterPath + "/2025-26/roster": loadFixture(t, "sidearm_roster.html")})
	team := models.Team{NcaaID: 1, Name: "State", URL: srv.URL + rosterPath}

	res, err := NewStrategy(TeamConfig{Type: KindStandard, URLFormat: FormatDefault}, testDeps()).
		Scrape(context.Background(), team, "2025-26", EntityPlayer)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	if !strings.HasSuffix(res.URL, "/2025-26/roster") {
		t.Fatalf("expected season-first url, got %s", res.URL)
	}
	if len(res.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(res.Players))
	}
}

func TestStandardStrategySeasonMismatch(t *testing.T) {
	stale := strings.ReplaceAll(string(loadFixture(t, "sidearm_roster.html")), "2025-26", "2024-25")
	srv := serve(t, map[string][]byte{rosterPath + "/roster/2025-26": []byte(stale)})
	team := models.Team{NcaaID: 1, Name: "State", URL: srv.URL + rosterPath}

	_, err := NewStrategy(TeamConfig{Type: KindStandard, URLFormat: FormatDefault}, testDeps()).
		Scrape(context.Background(), team, "2025-26", EntityPlayer)
	if !errors.Is(err, ErrSeasonMismatch) {
		t.Fatalf("expected ErrSeasonMismatch, got %v", err)
	}
}

func TestStandardStrategyCoaches(t *testing.T) {
	srv := serve(t, map[string][]byte{rosterPath + "/coaches/2025-26": loadFixture(t, "sidearm_coaches.html")})
	team := models.Team{NcaaID: 1, Name: "State", URL: srv.URL + rosterPath}

	res, err := NewStrategy(TeamConfig{Type: KindStandard, URLFormat: FormatDefault}, testDeps()).
		Scrape(context.Background(), team, "2025-26", EntityCoach)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	if len(res.Coaches) != 2 {
		t.Fatalf("expected duplicate coach dropped leaving 2, got %d", len(res.Coaches))
	}
	head := res.Coaches[0]
	if head.Name != "Kim Lee" || head.Title != "Head Coach" {
		t.Fatalf("unexpected head coach %+v", head)
	}
	if head.Experience != "6th Season" || head.AlmaMater != "Purdue '02" {
		t.Fatalf("expected experience and alma mater, got %q %q", head.Experience, head.AlmaMater)
	}
	if head.URL != srv.URL+rosterPath+"/roster/coaches/kim-lee/100" {
		t.Fatalf("unexpected coach url %s", head.URL)
	}
}

func TestTableStrategyPlayers(t *testing.T) {
	srv := serve(t, map[string][]byte{rosterPath + "/roster/2025-26": loadFixture(t, "table_roster.html")})
	team := models.Team{NcaaID: 2, Name: "Table U", URL: srv.URL + rosterPath}

	res, err := NewStrategy(TeamConfig{Type: KindTable, URLFormat: FormatDefault}, testDeps()).
		Scrape(context.Background(), team, "2025-26", EntityPlayer)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	if len(res.Players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(res.Players))
	}

	type row struct{ Jersey, Name, Position, Year, Hometown, HighSchool, Previous string }
	var got []row
	for _, p := range res.Players {
		got = append(got, row{p.Jersey, p.Name, p.Position, p.AcademicYear, p.Hometown, p.HighSchool, p.PreviousSchool})
	}
	want := []row{
		{"5", "Ana Ruiz", "G", "Freshman", "Madrid, Spain", "Colegio Estudiantes", ""},
		{"11", "Tia Brooks", "F", "Graduate Student", "Tulsa, Okla.", "Booker T. Washington", ""},
		{"22", "Kay Long", "C", "Senior", "Dallas, TX", "Hillcrest", "University of Tulsa"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("players mismatch (-want +got):\n%s", diff)
	}
	if res.Players[0].URL != srv.URL+rosterPath+"/roster/ana-ruiz/6001" {
		t.Fatalf("unexpected player url %s", res.Players[0].URL)
	}
}

func TestTableStrategyCoaches(t *testing.T) {
	srv := serve(t, map[string][]byte{rosterPath + "/coaches/2025-26": loadFixture(t, "table_roster.html")})
	team := models.Team{NcaaID: 2, Name: "Table U", URL: srv.URL + rosterPath}

	res, err := NewStrategy(TeamConfig{Type: KindTable, URLFormat: FormatDefault}, testDeps()).
		Scrape(context.Background(), team, "2025-26", EntityCoach)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	if len(res.Coaches) != 2 {
		t.Fatalf("expected 2 coaches, got %d", len(res.Coaches))
	}
	if res.Coaches[0].Name != "Dana Hill" || res.Coaches[0].Title != "Head Coach" {
		t.Fatalf("unexpected first coach %+v", res.Coaches[0])
	}
	if res.Coaches[1].Title != "Director of Operations" || res.Coaches[1].URL != res.URL {
		t.Fatalf("expected staff row without link to use the page url, got %+v", res.Coaches[1])
	}
}

func TestVueDataStrategy(t *testing.T) {
	srv := serve(t, map[string][]byte{rosterPath + "/roster/2025-26": loadFixture(t, "vue_roster.html")})
	team := models.Team{NcaaID: 72, Name: "Vue State", URL: srv.URL + rosterPath}

	res, err := NewStrategy(TeamConfig{Type: KindVueData, URLFormat: FormatDefault}, testDeps()).
		Scrape(context.Background(), team, "2025-26", EntityPlayer)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	if len(res.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(res.Players))
	}

	lia := res.Players[0]
	if lia.PlayerID != "101" || lia.Jersey != "12" || lia.Height != `6'1"` || lia.AcademicYear != "Sophomore" {
		t.Fatalf("unexpected first player %+v", lia)
	}
	if lia.URL != srv.URL+"/sports/womens-basketball/roster/lia-park/101" {
		t.Fatalf("unexpected slug url %s", lia.URL)
	}
	if eve := res.Players[1]; eve.Height != "" || eve.Jersey != "4" || eve.PlayerID != "102" {
		t.Fatalf("expected no height and numeric jersey for second player, got %+v", eve)
	}
}

func TestParseVueRosterCoachesAndMissing(t *testing.T) {
	roster, err := ParseVueRoster(loadFixture(t, "vue_roster.html"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(roster.Coaches) != 1 || roster.Coaches[0].Title != "Head Coach" {
		t.Fatalf("unexpected coaches %+v", roster.Coaches)
	}

	roster, err = ParseVueRoster([]byte("<html><body>no data</body></html>"))
	if err != nil || roster != nil {
		t.Fatalf("expected nil roster without error, got %v %v", roster, err)
	}
}
