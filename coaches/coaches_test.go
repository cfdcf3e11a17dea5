package coaches

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/config"
	"wbb_scrooper/export"
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

func testClients() *httputil.Clients {
	return httputil.NewClients(config.HTTPConfig{UserAgent: "wbb-test", Timeout: 5 * time.Second})
}

// fakeCompleter answers from a function and records every prompt.
type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string
	systems []string
	reply   func(prompt string) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, system)
	f.mu.Unlock()
	return f.reply(prompt)
}

func intp(v int) *int { return &v }

// ============================================================================
// Histories
// ============================================================================

func TestCleanResponse(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\": 1}\n```":          `{"a": 1}`,
		"Sure! {\"a\": {\"b\": 2}} Thanks.": `{"a": {"b": 2}}`,
		"  {\"a\": 1}  ":                    `{"a": 1}`,
		"no json here":                      "no json here",
	}
	for in, want := range cases {
		if got := CleanResponse(in); got != want {
			t.Errorf("CleanResponse(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestParseHistoryResponse(t *testing.T) {
	ext, err := ParseHistoryResponse(string(loadFixture(t, "history_reply.txt")))
	if err != nil {
		t.Fatalf("ParseHistoryResponse: %v", err)
	}
	want := Extraction{
		Positions: []models.Position{
			{College: "Nowhere College", Title: "Head Coach", StartYear: intp(2019)},
			{College: "Georgia Tech", Title: "Asst. Coach", StartYear: intp(2015), EndYear: intp(2019)},
		},
		Education:     []models.Education{{College: "Mercer University", Degree: "B.A. in History", Year: intp(2010)}},
		PlayingCareer: []models.PlayingCareer{{Team: "Mercer University", Level: "college", StartYear: intp(2006), EndYear: intp(2010)}},
	}
	if diff := cmp.Diff(want, ext); diff != "" {
		t.Fatalf("extraction mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseHistoryResponse(`{"positions": []}`); !errors.Is(err, ErrIncompleteHistory) {
		t.Fatalf("expected ErrIncompleteHistory, got %v", err)
	}
	if _, err := ParseHistoryResponse("I could not find a biography."); err == nil {
		t.Fatal("expected an error for a reply without JSON")
	}
}

func TestExtractHistoriesResume(t *testing.T) {
	bios := []models.CoachBio{
		{TeamID: 255, Team: "Georgia Tech", Name: "Done Coach", Title: "Head Coach", Text: "bio one"},
		{TeamID: 255, Team: "Georgia Tech", Name: "Jane Coach", Title: "Assistant Coach", Text: "bio two"},
	}
	existing := []models.CoachHistory{
		{Name: "Done Coach", Team: "Georgia Tech", Positions: []models.Position{{College: "Georgia Tech", Title: "Head Coach"}}},
		{Name: "Jane Coach", Team: "Georgia Tech", Positions: []models.Position{}},
	}
	reply := string(loadFixture(t, "history_reply.txt"))
	fake := &fakeCompleter{reply: func(string) (string, error) { return reply, nil }}

	out, err := ExtractHistories(context.Background(), fake, bios, existing, HistoryOptions{Resume: true})
	if err != nil {
		t.Fatalf("ExtractHistories: %v", err)
	}
	if len(fake.prompts) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(fake.prompts))
	}
	if !strings.Contains(fake.prompts[0], "**Name:** Jane Coach") || !strings.Contains(fake.prompts[0], "bio two") {
		t.Fatalf("prompt missing coach details: %s", fake.prompts[0])
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 histories, got %d", len(out))
	}
	if out[0].Positions[0].Title != "Head Coach" || len(out[0].Positions) != 1 {
		t.Fatalf("expected existing record kept, got %+v", out[0].Positions)
	}
	if len(out[1].Positions) != 2 || len(out[1].Education) != 1 || out[1].TeamID != 255 {
		t.Fatalf("expected extracted record, got %+v", out[1])
	}
}

func TestExtractHistoriesFailuresAndTestMode(t *testing.T) {
	var bios []models.CoachBio
	for i := range 7 {
		bios = append(bios, models.CoachBio{Name: fmt.Sprintf("Coach %d", i), Team: "Mercer"})
	}
	fake := &fakeCompleter{reply: func(p string) (string, error) {
		if strings.Contains(p, "Coach 1\n") {
			return "", errors.New("overloaded")
		}
		return "not json", nil
	}}

	out, err := ExtractHistories(context.Background(), fake, bios, nil, HistoryOptions{Test: true})
	if err != nil {
		t.Fatalf("ExtractHistories: %v", err)
	}
	if len(out) != 5 || len(fake.prompts) != 5 {
		t.Fatalf("expected 5 processed coaches, got %d (%d calls)", len(out), len(fake.prompts))
	}
	for _, h := range out {
		if h.Positions == nil || len(h.Positions) != 0 || h.HasData() {
			t.Fatalf("expected empty lists for %s, got %+v", h.Name, h)
		}
	}

	if _, err := ExtractHistories(context.Background(), fake, bios, nil, HistoryOptions{Resume: true}); err == nil {
		t.Fatal("expected resume without existing histories to fail")
	}
}

// ============================================================================
// Bios
// ============================================================================

func TestSelectRows(t *testing.T) {
	var rows []map[string]string
	for i := range 8 {
		rows = append(rows, map[string]string{"name": fmt.Sprintf("C%d", i), "url": "https://x/" + fmt.Sprint(i)})
	}
	rows = append(rows, map[string]string{"name": "No Url", "url": ""})

	if got := SelectRows(rows, BioOptions{Demo: true, Limit: 7}); len(got) != 5 {
		t.Fatalf("expected demo to keep 5 rows, got %d", len(got))
	}
	if got := SelectRows(rows, BioOptions{Limit: 3}); len(got) != 3 {
		t.Fatalf("expected limit 3, got %d", len(got))
	}
	if got := SelectRows(rows, BioOptions{}); len(got) != 8 {
		t.Fatalf("expected rows without url dropped, got %d", len(got))
	}
	got := SelectRows(rows, BioOptions{Names: []string{"C2", "c3", "No Url"}})
	if len(got) != 1 || got[0]["name"] != "C2" {
		t.Fatalf("expected exact name match on C2, got %v", got)
	}
}

func TestFetchBios(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/staff/jane-coach" {
			w.Write(loadFixture(t, "coach_bio.html"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "coaches.csv")
	err := export.WriteCSV(csvPath, models.CoachCSVHeader, [][]string{
		{"255", "Georgia Tech", "Jane Coach", "Assistant Coach", srv.URL + "/staff/jane-coach", "2024-25"},
		{"255", "Georgia Tech", "Gone Coach", "Head Coach", srv.URL + "/staff/gone", "2024-25"},
	})
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, BiosFile)
	bios, err := FetchBios(context.Background(), testClients(), csvPath, BioOptions{}, out)
	if err != nil {
		t.Fatalf("FetchBios: %v", err)
	}
	if len(bios) != 1 {
		t.Fatalf("expected 1 bio, got %d", len(bios))
	}

	loaded, err := LoadBios(out)
	if err != nil {
		t.Fatal(err)
	}
	got := loaded[0]
	if got.TeamID != 255 || got.Name != "Jane Coach" || got.Season != "2024-25" {
		t.Fatalf("unexpected bio %+v", got)
	}
	if !strings.HasPrefix(got.Text, "Jane Coach is in her first season") || strings.Contains(got.Text, "Tickets") {
		t.Fatalf("unexpected bio text %q", got.Text)
	}
}

// ============================================================================
// Gender
// ============================================================================

func TestClassifyGender(t *testing.T) {
	cases := map[string]string{"F": "F", "M": "M", "N": "N", "None": "", "Female": ""}
	for reply, want := range cases {
		fake := &fakeCompleter{reply: func(string) (string, error) { return reply, nil }}
		got, err := ClassifyGender(context.Background(), fake, "Jane Coach", "She led the team.")
		if err != nil {
			t.Fatalf("ClassifyGender: %v", err)
		}
		if got != want {
			t.Errorf("reply %q: expected %q, got %q", reply, want, got)
		}
	}
}

func TestClassifyBiosAndGenderColumn(t *testing.T) {
	bios := []models.CoachBio{{Name: "Jane Coach", Text: "she"}, {Name: "John Coach", Text: "he"}, {Name: "Staff", Text: ""}}
	fake := &fakeCompleter{reply: func(p string) (string, error) {
		switch {
		case strings.Contains(p, "Coach Name: Jane Coach"):
			return "F", nil
		case strings.Contains(p, "Coach Name: John Coach"):
			return "M", nil
		}
		return "None", nil
	}}

	gendered, err := ClassifyBios(context.Background(), fake, bios)
	if err != nil {
		t.Fatalf("ClassifyBios: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"F": 1, "M": 1, "": 1}, GenderCounts(gendered)); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}

	dir := t.TempDir()
	merged := filepath.Join(dir, MergedFile)
	err = export.WriteCSV(merged, []string{"coach", "college"}, [][]string{
		{"Jane Coach", "Georgia Tech"},
		{"John Coach", "Mercer"},
		{"Unknown", "Stanford"},
	})
	if err != nil {
		t.Fatal(err)
	}
	matched, err := AddGenderColumn(merged, merged, gendered)
	if err != nil {
		t.Fatalf("AddGenderColumn: %v", err)
	}
	if matched != 2 {
		t.Fatalf("expected 2 matched rows, got %d", matched)
	}
	header, rows, err := export.ReadCSV(merged)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"coach", "college", "gender"}, header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if rows[0][2] != "F" || rows[1][2] != "M" || rows[2][2] != "" {
		t.Fatalf("unexpected gender column %v", rows)
	}
}

// ============================================================================
// Coaching changes
// ============================================================================

func TestExtractCoachingChanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 42030, "content": {"rendered": "<p>Air Force: Chris Gobrecht retires</p>"}}`)
	}))
	defer srv.Close()

	reply := "```csv\n" + string(loadFixture(t, "changes_reply.csv")) + "```"
	fake := &fakeCompleter{reply: func(string) (string, error) { return reply, nil }}

	changes, err := ExtractCoachingChanges(context.Background(), testClients(), fake, srv.URL+"/wp-json/wp/v2/posts/42030")
	if err != nil {
		t.Fatalf("ExtractCoachingChanges: %v", err)
	}
	if fake.systems[0] != changesSystem {
		t.Fatalf("expected system instruction, got %q", fake.systems[0])
	}
	if !strings.Contains(fake.prompts[0], "Chris Gobrecht retires") {
		t.Fatalf("expected post JSON in prompt, got %s", fake.prompts[0])
	}

	want := []models.CoachingChange{
		{Team: "Air Force", Conference: "Mountain West", Coach: "Chris Gobrecht", Status: "retires", URL: "https://goairforcefalcons.com/news/2024/4/1/retirement", Date: "2024-04-01"},
		{Team: "Boston College", Conference: "ACC", Coach: "Joanna Bernabei-McNamee", Status: "fired", URL: "https://bceagles.com/news/2024/3/20/coach", Date: "2024-03-20"},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// Colleges
// ============================================================================

func copyFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, loadFixture(t, name), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckColleges(t *testing.T) {
	path := copyFixture(t, "distinct_colleges.csv")
	histories := []models.CoachHistory{
		{Name: "A", Positions: []models.Position{{College: " Zeta State "}, {College: "Georgia Tech"}, {College: ""}}},
		{Name: "B", Positions: []models.Position{{College: "Alpha College"}, {College: "Zeta State"}}},
	}

	added, err := CheckColleges(histories, path)
	if err != nil {
		t.Fatalf("CheckColleges: %v", err)
	}
	if diff := cmp.Diff([]string{"Alpha College", "Zeta State"}, added); diff != "" {
		t.Fatalf("added mismatch (-want +got):\n%s", diff)
	}

	_, rows, err := export.ReadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 college rows, got %d", len(rows))
	}
	if diff := cmp.Diff([]string{"Zeta State", "", "Zeta State", ""}, rows[4]); diff != "" {
		t.Fatalf("new row mismatch (-want +got):\n%s", diff)
	}

	added, err = CheckColleges(histories, path)
	if err != nil || len(added) != 0 {
		t.Fatalf("expected nothing added on a second pass, got %v, %v", added, err)
	}
}

func TestMergeCoachingData(t *testing.T) {
	colleges, err := LoadColleges(filepath.Join("testdata", "distinct_colleges.csv"))
	if err != nil {
		t.Fatal(err)
	}
	std, err := LoadStandardization(filepath.Join("testdata", "positions_standardized.csv"))
	if err != nil {
		t.Fatal(err)
	}
	teams := []models.Team{{NcaaID: 255, Name: "Georgia Tech", State: "GA", Conference: "ACC", Division: "I"}}
	histories := []models.CoachHistory{{
		Name: "Jane Coach",
		Positions: []models.Position{
			{College: "Georgia Tech", Title: "Asst. Coach", StartYear: intp(2015), EndYear: intp(2019)},
			{College: "Mercer University", Title: "Graduate Assistant", StartYear: intp(2010), EndYear: intp(2012)},
			{College: "Georgia Techh", Title: "Video Coordinator", StartYear: intp(2013)},
			{College: "Stanford", Title: "Assistant Coach"},
			{College: "Nowhere College", Title: "Head Coach", StartYear: intp(2019)},
		},
	}}

	merged := MergeCoachingData(histories, colleges, teams, std)
	var got [][]string
	for _, m := range merged {
		got = append(got, m.CSVRow())
	}
	want := [][]string{
		{"Jane Coach", "Georgia Tech", "Asst. Coach", "255", "2015", "2019", "Assistant Coach", "Georgia Tech", "D1", "GA", "ACC", "I"},
		{"Jane Coach", "Mercer University", "Graduate Assistant", "", "2010", "2012", "", "Mercer", "D1", "", "", ""},
		{"Jane Coach", "Georgia Techh", "Video Coordinator", "255", "2013", "", "", "Georgia Tech", "D1", "GA", "ACC", "I"},
		{"Jane Coach", "Stanford", "Assistant Coach", "697", "", "", "", "Stanford University", "D1", "", "", ""},
		{"Jane Coach", "Nowhere College", "Head Coach", "", "2019", "", "Head Coach", "Nowhere College", "", "", "", ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged rows mismatch (-want +got):\n%s", diff)
	}

	out := filepath.Join(t.TempDir(), MergedFile)
	if err := WriteMerged(out, merged); err != nil {
		t.Fatalf("WriteMerged: %v", err)
	}
	header, _, err := export.ReadCSV(out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(MergedCSVHeader, header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// DB
// ============================================================================

func TestBuildCoachDB(t *testing.T) {
	ext, err := ParseHistoryResponse(string(loadFixture(t, "history_reply.txt")))
	if err != nil {
		t.Fatal(err)
	}
	h := ext.apply(models.CoachHistory{TeamID: 255, Team: "Georgia Tech", Name: "Jane Coach", Title: "Assistant Coach"})
	other := models.CoachHistory{Name: "Empty Coach", Team: "Mercer"}

	dbPath := filepath.Join(t.TempDir(), "coaches.db")
	for range 2 {
		counts, err := BuildCoachDB(dbPath, []models.CoachHistory{h, other})
		if err != nil {
			t.Fatalf("BuildCoachDB: %v", err)
		}
		want := &CoachDBCounts{Coaches: 2, Positions: 2, Education: 1, Playing: 1}
		if diff := cmp.Diff(want, counts); diff != "" {
			t.Fatalf("counts mismatch (-want +got):\n%s", diff)
		}
	}
}
