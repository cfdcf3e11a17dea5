package officials

import (
	"fmt"
	"log"
	"path/filepath"

	"wbb_scrooper/export"
	"wbb_scrooper/models"
)

// ReportOptions sets the game thresholds of each report.
type ReportOptions struct {
	MinGames            int // individual comparison
	PartnershipMinGames int // all seasons combined
	SeasonMinGames      int // partnerships per season
	TrendMinGames       int // per season, for trends
	ChemistryMinGames   int
	NetworkMinGames     int
	TopPartnerships     int
}

func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		MinGames:            DefaultMinGames,
		PartnershipMinGames: 10,
		SeasonMinGames:      5,
		TrendMinGames:       3,
		ChemistryMinGames:   12,
		NetworkMinGames:     8,
		TopPartnerships:     15,
	}
}

type csvRower interface {
	CSVRow() []string
}

func writeRows[T csvRower](path string, header []string, items []T) error {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, it.CSVRow())
	}
	return export.WriteCSV(path, header, rows)
}

// Report holds every analysis of one run.
type Report struct {
	Days                  []Day
	Officials             []OfficialComparison
	Partnerships          []PartnershipStats
	SeasonPartnerships    []PartnershipStats
	Trends                []TrendRow
	TrendSummaries        []TrendSummary
	Frequent              []PartnershipCount
	Networks              []Network
	IndividualVsPartnered []PartnershipComparison
	Chemistry             []Chemistry
}

// BuildReport runs every analysis over games.
func BuildReport(games []models.OfficiatedGame, opts ReportOptions) *Report {
	r := &Report{
		Days:               OfficialDays(games),
		Officials:          CompareOfficials(games, nil, opts.MinGames),
		Partnerships:       AnalyzePartnerships(games, opts.PartnershipMinGames, false),
		SeasonPartnerships: AnalyzePartnerships(games, opts.SeasonMinGames, true),
		Frequent:           MostFrequentPartnerships(games, opts.TopPartnerships),
		Networks:           PartnershipNetworks(games, opts.NetworkMinGames),
		Chemistry:          PartnershipChemistry(games, opts.ChemistryMinGames),
	}
	r.Trends, r.TrendSummaries = PartnershipTrends(games, opts.TrendMinGames)
	r.IndividualVsPartnered = CompareIndividualVsPartnership(games, r.Partnerships)
	return r
}

// Write saves each non-empty analysis under outDir and returns the paths.
func (r *Report) Write(outDir string) ([]string, error) {
	var written []string
	save := func(name string, n int, write func(string) error) error {
		if n == 0 {
			return nil
		}
		path := filepath.Join(outDir, name)
		if err := write(path); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	steps := []struct {
		name  string
		n     int
		write func(string) error
	}{
		{"official_days.csv", len(r.Days), func(p string) error { return writeRows(p, DayCSVHeader, r.Days) }},
		{"official_comparison.csv", len(r.Officials), func(p string) error { return writeRows(p, ComparisonCSVHeader, r.Officials) }},
		{"two_official_partnership_analysis_all_seasons.csv", len(r.Partnerships), func(p string) error {
			return writeRows(p, PartnershipCSVHeader, r.Partnerships)
		}},
		{"two_official_partnership_analysis_by_season.csv", len(r.SeasonPartnerships), func(p string) error {
			return writeRows(p, PartnershipCSVHeader, r.SeasonPartnerships)
		}},
		{"partnership_trends_over_time.csv", len(r.Trends), func(p string) error { return writeRows(p, TrendCSVHeader, r.Trends) }},
		{"partnership_trend_summary.csv", len(r.TrendSummaries), func(p string) error {
			return writeRows(p, TrendSummaryCSVHeader, r.TrendSummaries)
		}},
		{"most_frequent_partnerships_all_seasons.csv", len(r.Frequent), func(p string) error {
			return writeRows(p, PartnershipCountCSVHeader, r.Frequent)
		}},
		{"official_partnership_networks.csv", len(r.Networks), func(p string) error { return writeRows(p, NetworkCSVHeader, r.Networks) }},
		{"partnership_vs_individual_performance_all_seasons.csv", len(r.IndividualVsPartnered), func(p string) error {
			return writeRows(p, PartnershipComparisonCSVHeader, r.IndividualVsPartnered)
		}},
		{"partnership_chemistry_analysis_all_seasons.csv", len(r.Chemistry), func(p string) error {
			return writeRows(p, ChemistryCSVHeader, r.Chemistry)
		}},
	}
	for _, s := range steps {
		if err := save(s.name, s.n, s.write); err != nil {
			return written, err
		}
	}
	return written, nil
}

// Analyze loads the season files, builds the report and writes it to
// outDir.
func Analyze(files []string, outDir string, opts ReportOptions) (*Report, []string, error) {
	games, err := LoadSeasons(files)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Officials: analyzing %d games from %d files", len(games), len(files))

	r := BuildReport(games, opts)
	written, err := r.Write(outDir)
	if err != nil {
		return r, written, err
	}
	log.Printf("Officials: %d officials and %d partnerships compared, wrote %d files",
		len(r.Officials), len(r.Partnerships), len(written))
	return r, written, nil
}
