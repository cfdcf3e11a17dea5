package officials

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/export"
	"wbb_scrooper/models"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// game builds a game with the given home and visitor fouls.
func game(season string, home, visitor int, officials ...string) models.OfficiatedGame {
	return models.OfficiatedGame{
		Season:       season,
		HomeFouls:    home,
		VisitorFouls: visitor,
		Officials:    officials,
	}
}

const (
	amy  = "Amy Adams"
	beth = "Beth Brown"
	cara = "Cara Cole"
)

// pairGames has Amy with Beth three times (totals 10, 12, 14) and Amy
// with Cara three times (totals 20 each, all home fouls).
func pairGames() []models.OfficiatedGame {
	return []models.OfficiatedGame{
		game("2023", 5, 5, beth, amy),
		game("2023", 6, 6, amy, beth),
		game("2023", 7, 7, amy, beth),
		game("2024", 20, 0, amy, cara),
		game("2024", 20, 0, cara, amy),
		game("2024", 20, 0, amy, cara),
	}
}

// ============================================================================
// Conversion
// ============================================================================

func TestConvertCSV(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "officials_202324.json")
	games, err := ConvertCSV(filepath.Join("testdata", "officials_202324.csv"), jsonPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 4 {
		t.Fatalf("expected 4 games, got %d", len(games))
	}

	first := games[0]
	if first.Date != "2023-11-07" {
		t.Fatalf("expected ISO date, got %q", first.Date)
	}
	if first.GameID != 1001 || first.HomeFouls != 10 || first.VisitorTechnicals != 1 {
		t.Fatalf("unexpected numbers: %+v", first)
	}
	if diff := cmp.Diff([]string{amy, beth, cara}, first.Officials); diff != "" {
		t.Fatalf("officials mismatch (-want +got):\n%s", diff)
	}
	if games[3].HomeTechnicals != 0 || games[3].Location != "" {
		t.Fatalf("expected blank cells to stay zero, got %+v", games[3])
	}

	loaded, err := LoadGames(jsonPath)
	if err != nil {
		t.Fatalf("failed to load converted json: %v", err)
	}
	if diff := cmp.Diff(games, loaded); diff != "" {
		t.Fatalf("json round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertCSVBadNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "officials_bad.csv")
	content := strings.Join(models.OfficialGameCSVHeader, ",") + "\n" +
		"255,1,11/7/2023,7:00 PM,Arena,A,x,0,B,1,0,\"Amy Adams\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := ConvertCSV(path, "")
	if err == nil {
		t.Fatal("expected error for non-numeric fouls")
	}
	if !strings.Contains(err.Error(), "row 2") || !strings.Contains(err.Error(), "home_fouls") {
		t.Fatalf("expected row and field in error, got %v", err)
	}
}

func TestISODate(t *testing.T) {
	tests := map[string]string{
		"11/7/2023":  "2023-11-07",
		"1/15/2024":  "2024-01-15",
		"2024-01-15": "2024-01-15",
		"":           "",
	}
	for in, want := range tests {
		got, err := ISODate(in)
		if err != nil {
			t.Fatalf("ISODate(%q): unexpected error %v", in, err)
		}
		if got != want {
			t.Fatalf("ISODate(%q): expected %q, got %q", in, want, got)
		}
	}
	if _, err := ISODate("11/7"); err == nil {
		t.Fatal("expected error for partial date")
	}
}

func TestLoadSeasonsSkipsMissing(t *testing.T) {
	files := []string{
		filepath.Join("testdata", "officials_202324.csv"),
		filepath.Join("testdata", "officials_202223.json"),
		filepath.Join("testdata", "officials_202425.csv"),
	}
	games, err := LoadSeasons(files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 6 {
		t.Fatalf("expected 6 games, got %d", len(games))
	}
	if games[0].Season != "202324" || games[5].Season != "202425" {
		t.Fatalf("unexpected seasons %q and %q", games[0].Season, games[5].Season)
	}

	if _, err := LoadSeasons([]string{filepath.Join("testdata", "nope_2020.json")}); err == nil {
		t.Fatal("expected error when nothing loads")
	}
}

func TestOfficialDays(t *testing.T) {
	games, err := ConvertCSV(filepath.Join("testdata", "officials_202324.csv"), "")
	if err != nil {
		t.Fatal(err)
	}
	// duplicate appearance collapses
	games = append(games, games[1])

	days := OfficialDays(games)
	if len(days) != 9 {
		t.Fatalf("expected 9 official days, got %d", len(days))
	}
	want := Day{Date: "2023-11-07", StartTime: "7:00 PM", Location: "McCamish Pavilion", Official: amy}
	if days[0] != want {
		t.Fatalf("expected %+v first, got %+v", want, days[0])
	}
	for _, d := range days {
		if d.Location == "" {
			t.Fatalf("expected games without a location to be dropped, got %+v", d)
		}
	}
}

// ============================================================================
// Individual officials
// ============================================================================

func TestPercentilesAndZScores(t *testing.T) {
	pct := percentiles([]float64{1, 1, 2})
	if diff := cmp.Diff([]float64{50, 50, 100}, pct); diff != "" {
		t.Fatalf("percentile mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0}, zScores([]float64{5, 5})); diff != "" {
		t.Fatalf("expected zero z-scores for zero deviation:\n%s", diff)
	}
}

func TestCompareOfficials(t *testing.T) {
	games := []models.OfficiatedGame{
		game("", 5, 5, amy, beth),
		game("", 10, 10, amy, beth),
		game("", 15, 15, amy, cara),
		game("", 20, 20, beth, cara),
	}
	got := CompareOfficials(games, nil, 2)
	if len(got) != 3 {
		t.Fatalf("expected 3 officials, got %d", len(got))
	}
	order := []string{got[0].Official, got[1].Official, got[2].Official}
	if diff := cmp.Diff([]string{cara, beth, amy}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	a := got[2]
	if a.Games != 3 || !approx(a.Mean, 20) || a.Min != 10 || a.Max != 30 || !approx(a.Std, 10) {
		t.Fatalf("unexpected stats for %s: %+v", amy, a.FoulStats)
	}
	if !approx(a.Percentile, 100.0/3) || !approx(got[0].Percentile, 100) {
		t.Fatalf("unexpected percentiles %v and %v", a.Percentile, got[0].Percentile)
	}
	if a.ZScore >= 0 || got[0].ZScore <= 0 {
		t.Fatalf("expected lowest mean below zero and highest above, got %v and %v", a.ZScore, got[0].ZScore)
	}

	if only := CompareOfficials(games, []string{cara}, 3); len(only) != 0 {
		t.Fatalf("expected minimum games to filter, got %+v", only)
	}
}

func TestAnalyzePartners(t *testing.T) {
	got := AnalyzePartners(append(pairGames(), game("", 1, 1, amy, "Dee Dunn")), amy)
	want := []PartnerStats{
		{Partner: cara, Games: 3, AvgFouls: 20},
		{Partner: beth, Games: 3, AvgFouls: 12},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d partners, got %+v", len(want), got)
	}
	// overall mean is 98/7
	overall := 98.0 / 7
	for i := range want {
		if got[i].Partner != want[i].Partner || got[i].Games != want[i].Games || !approx(got[i].AvgFouls, want[i].AvgFouls) {
			t.Fatalf("partner %d: expected %+v, got %+v", i, want[i], got[i])
		}
		if !approx(got[i].DiffFromAvg, want[i].AvgFouls-overall) {
			t.Fatalf("partner %d: expected diff %v, got %v", i, want[i].AvgFouls-overall, got[i].DiffFromAvg)
		}
	}
}

// ============================================================================
// Partnerships
// ============================================================================

func TestAnalyzePartnerships(t *testing.T) {
	got := AnalyzePartnerships(pairGames(), 3, false)
	if len(got) != 2 {
		t.Fatalf("expected 2 partnerships, got %d", len(got))
	}
	if got[0].Signature != amy+" & "+cara || got[1].Signature != amy+" & "+beth {
		t.Fatalf("unexpected order %q, %q", got[0].Signature, got[1].Signature)
	}
	if got[1].Official1 != amy || got[1].Official2 != beth || got[1].Season != AllSeasons {
		t.Fatalf("unexpected partnership %+v", got[1])
	}
	if !approx(got[0].ZScore, math.Sqrt2/2) || !approx(got[1].ZScore, -math.Sqrt2/2) {
		t.Fatalf("unexpected z-scores %v, %v", got[0].ZScore, got[1].ZScore)
	}
	if !approx(got[0].HomeVisitorDiff, 20) {
		t.Fatalf("expected home bias of 20, got %v", got[0].HomeVisitorDiff)
	}

	bySeason := AnalyzePartnerships(pairGames(), 3, true)
	seasons := map[string]string{}
	for _, p := range bySeason {
		seasons[p.Signature] = p.Season
	}
	if diff := cmp.Diff(map[string]string{amy + " & " + beth: "2023", amy + " & " + cara: "2024"}, seasons); diff != "" {
		t.Fatalf("season mismatch (-want +got):\n%s", diff)
	}

	if none := AnalyzePartnerships(pairGames(), 4, false); len(none) != 0 {
		t.Fatalf("expected no partnerships over 4 games, got %d", len(none))
	}
}

func TestMostFrequentPartnerships(t *testing.T) {
	got := MostFrequentPartnerships(pairGames(), 0)
	want := []PartnershipCount{
		{Signature: amy + " & " + beth, Official1: amy, Official2: beth, Games: 3},
		{Signature: amy + " & " + cara, Official1: amy, Official2: cara, Games: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	if top := MostFrequentPartnerships(pairGames(), 1); len(top) != 1 || top[0].Official2 != beth {
		t.Fatalf("expected the alphabetical tie winner, got %+v", top)
	}
}

func TestPartnershipsCountRepeatedNamesOnce(t *testing.T) {
	games := []models.OfficiatedGame{
		game("2024", 8, 8, amy, beth, amy),
		game("2024", 10, 10, amy, " "+beth),
	}
	got := MostFrequentPartnerships(games, 0)
	want := []PartnershipCount{{Signature: amy + " & " + beth, Official1: amy, Official2: beth, Games: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}

	stats := AnalyzePartnerships(games, 2, false)
	if len(stats) != 1 || stats[0].Games != 2 || !approx(stats[0].Mean, 18) {
		t.Fatalf("expected one partnership over 2 games averaging 18 fouls, got %+v", stats)
	}
}

func TestCompareIndividualVsPartnership(t *testing.T) {
	games := pairGames()
	got := CompareIndividualVsPartnership(games, AnalyzePartnerships(games, 3, false))
	if len(got) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(got))
	}
	// Amy averages 16, Beth 12, Cara 20
	first := got[0]
	if first.Signature != amy+" & "+cara || !approx(first.IndividualAvg, 18) || !approx(first.Difference, 2) {
		t.Fatalf("unexpected first comparison %+v", first)
	}
	if !approx(got[1].Difference, -2) || !approx(got[1].Official2Individual, 12) {
		t.Fatalf("unexpected second comparison %+v", got[1])
	}
}

func TestPartnershipTrends(t *testing.T) {
	var games []models.OfficiatedGame
	for _, s := range []struct {
		season string
		fouls  int
	}{{"2025", 10}, {"2023", 5}, {"2024", 8}} {
		for range 3 {
			games = append(games, game(s.season, s.fouls, s.fouls, amy, beth))
		}
	}
	// one season only
	for range 3 {
		games = append(games, game("2023", 9, 9, amy, cara))
	}

	rows, summaries := PartnershipTrends(games, 3)
	if len(rows) != 3 {
		t.Fatalf("expected 3 trend rows, got %d", len(rows))
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	s := summaries[0]
	if diff := cmp.Diff([]string{"2023", "2024", "2025"}, s.Seasons); diff != "" {
		t.Fatalf("season mismatch (-want +got):\n%s", diff)
	}
	if s.TotalGames != 9 || !approx(s.FirstAvg, 10) || !approx(s.LastAvg, 20) || !approx(s.Slope, 5) {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.CSVRow()[8] != "2023, 2024, 2025" {
		t.Fatalf("unexpected seasons cell %q", s.CSVRow()[8])
	}
}

func TestPartnershipChemistry(t *testing.T) {
	got := PartnershipChemistry(pairGames(), 3)
	if len(got) != 2 {
		t.Fatalf("expected 2 partnerships, got %d", len(got))
	}
	if got[0].Official2 != beth || got[0].Rank != 1 || !approx(got[0].Score, 4) || got[0].Range != 4 {
		t.Fatalf("unexpected best chemistry %+v", got[0])
	}
	if got[1].Official2 != cara || got[1].Rank != 2 || !approx(got[1].Score, 40) {
		t.Fatalf("unexpected second chemistry %+v", got[1])
	}
}

func TestPartnershipNetworks(t *testing.T) {
	got := PartnershipNetworks(pairGames(), 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 officials, got %d", len(got))
	}
	want := Network{
		Official:                 amy,
		UniquePartners:           2,
		TotalPartnershipGames:    6,
		AvgGamesPerPartner:       3,
		MostFrequentPartner:      beth,
		MostFrequentPartnerGames: 3,
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Fatalf("network mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// Report
// ============================================================================

func TestAnalyzeWritesReports(t *testing.T) {
	outDir := t.TempDir()
	opts := ReportOptions{
		MinGames:            1,
		PartnershipMinGames: 1,
		SeasonMinGames:      1,
		TrendMinGames:       1,
		ChemistryMinGames:   1,
		NetworkMinGames:     1,
		TopPartnerships:     15,
	}
	files := []string{
		filepath.Join("testdata", "officials_202324.csv"),
		filepath.Join("testdata", "officials_202425.csv"),
	}
	report, written, err := Analyze(files, outDir, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(written) != 10 {
		t.Fatalf("expected 10 reports, got %d: %v", len(written), written)
	}
	if len(report.Officials) != 4 {
		t.Fatalf("expected 4 officials, got %d", len(report.Officials))
	}

	header, rows, err := export.ReadCSV(filepath.Join(outDir, "official_comparison.csv"))
	if err != nil {
		t.Fatalf("failed to read comparison: %v", err)
	}
	if diff := cmp.Diff(ComparisonCSVHeader, header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
}

func TestAnalyzeSkipsEmptyReports(t *testing.T) {
	outDir := t.TempDir()
	_, written, err := Analyze([]string{filepath.Join("testdata", "officials_202425.csv")}, outDir, DefaultReportOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// two games meet no threshold besides days and frequency
	want := []string{
		filepath.Join(outDir, "official_days.csv"),
		filepath.Join(outDir, "most_frequent_partnerships_all_seasons.csv"),
	}
	if diff := cmp.Diff(want, written); diff != "" {
		t.Fatalf("written mismatch (-want +got):\n%s", diff)
	}
}
