package officials

import (
	"math"
	"sort"
	"strconv"

	"wbb_scrooper/models"
)

const (
	DefaultMinGames = 5
	minPartnerGames = 3
)

// FoulStats summarizes the fouls called in a set of games. Std is the
// sample standard deviation and is 0 for fewer than two games.
type FoulStats struct {
	Games           int
	Mean            float64
	Min             int
	Max             int
	Std             float64
	HomeMean        float64
	VisitorMean     float64
	HomeVisitorDiff float64
	TechnicalsMean  float64
}

func summarize(games []models.OfficiatedGame) FoulStats {
	s := FoulStats{Games: len(games)}
	if len(games) == 0 {
		return s
	}

	totals := make([]float64, len(games))
	var home, visitor, techs float64
	s.Min, s.Max = games[0].TotalFouls(), games[0].TotalFouls()
	for i, g := range games {
		t := g.TotalFouls()
		totals[i] = float64(t)
		s.Min = min(s.Min, t)
		s.Max = max(s.Max, t)
		home += float64(g.HomeFouls)
		visitor += float64(g.VisitorFouls)
		techs += float64(g.Technicals())
	}
	n := float64(len(games))
	s.Mean = mean(totals)
	s.Std = sampleStd(totals)
	s.HomeMean = home / n
	s.VisitorMean = visitor / n
	s.HomeVisitorDiff = s.HomeMean - s.VisitorMean
	s.TechnicalsMean = techs / n
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return ss / float64(len(xs)-1)
}

func sampleStd(xs []float64) float64 {
	return math.Sqrt(sampleVariance(xs))
}

// zScores standardizes xs against their own mean and sample deviation. A
// zero deviation gives all zeros.
func zScores(xs []float64) []float64 {
	z := make([]float64, len(xs))
	m, sd := mean(xs), sampleStd(xs)
	if sd == 0 {
		return z
	}
	for i, x := range xs {
		z[i] = (x - m) / sd
	}
	return z
}

// percentiles ranks xs ascending as a percentage of len(xs); ties share
// the average of their ranks.
func percentiles(xs []float64) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	pct := make([]float64, len(xs))
	n := float64(len(xs))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		// ranks are 1-based
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			pct[idx[k]] = avg / n * 100
		}
		i = j + 1
	}
	return pct
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (s FoulStats) cells() []string {
	return []string{
		strconv.Itoa(s.Games), formatFloat(s.Mean), strconv.Itoa(s.Min), strconv.Itoa(s.Max),
		formatFloat(s.Std), formatFloat(s.HomeMean), formatFloat(s.VisitorMean),
		formatFloat(s.HomeVisitorDiff), formatFloat(s.TechnicalsMean),
	}
}

var foulStatsHeader = []string{
	"games_worked", "avg_fouls_per_game", "min_fouls", "max_fouls", "std_fouls",
	"avg_home_fouls", "avg_visitor_fouls", "home_visitor_diff", "avg_technicals",
}

// ============================================================================
// Individual officials
// ============================================================================

// AllOfficials lists every official named in games, sorted.
func AllOfficials(games []models.OfficiatedGame) []string {
	seen := make(map[string]bool)
	var names []string
	for _, g := range games {
		for _, o := range g.Officials {
			if o != "" && !seen[o] {
				seen[o] = true
				names = append(names, o)
			}
		}
	}
	sort.Strings(names)
	return names
}

func gamesWith(games []models.OfficiatedGame, names ...string) []models.OfficiatedGame {
	var out []models.OfficiatedGame
	for _, g := range games {
		all := true
		for _, n := range names {
			if !g.HasOfficial(n) {
				all = false
				break
			}
		}
		if all {
			out = append(out, g)
		}
	}
	return out
}

// CommonGames returns the games both officials worked.
func CommonGames(games []models.OfficiatedGame, a, b string) []models.OfficiatedGame {
	return gamesWith(games, a, b)
}

type OfficialComparison struct {
	Official string
	FoulStats
	ZScore     float64
	Percentile float64
}

var ComparisonCSVHeader = append(append([]string{"official"}, foulStatsHeader...), "z_score", "percentile")

func (c OfficialComparison) CSVRow() []string {
	row := append([]string{c.Official}, c.cells()...)
	return append(row, formatFloat(c.ZScore), formatFloat(c.Percentile))
}

// CompareOfficials computes foul statistics for each official with at
// least minGames games, then places each mean against the others. Results
// are ordered by mean fouls, highest first. A nil officials list compares
// everyone in games.
func CompareOfficials(games []models.OfficiatedGame, officials []string, minGames int) []OfficialComparison {
	if officials == nil {
		officials = AllOfficials(games)
	}

	var out []OfficialComparison
	for _, o := range officials {
		s := summarize(gamesWith(games, o))
		if s.Games < minGames || s.Games == 0 {
			continue
		}
		out = append(out, OfficialComparison{Official: o, FoulStats: s})
	}

	means := make([]float64, len(out))
	for i, c := range out {
		means[i] = c.Mean
	}
	z, pct := zScores(means), percentiles(means)
	for i := range out {
		out[i].ZScore = z[i]
		out[i].Percentile = pct[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out
}

// PartnerStats is how an official's games go with one partner.
type PartnerStats struct {
	Partner     string
	Games       int
	AvgFouls    float64
	DiffFromAvg float64
}

var PartnerCSVHeader = []string{"partner", "games", "avg_fouls", "diff_from_avg"}

func (p PartnerStats) CSVRow() []string {
	return []string{p.Partner, strconv.Itoa(p.Games), formatFloat(p.AvgFouls), formatFloat(p.DiffFromAvg)}
}

// AnalyzePartners compares an official's mean fouls with each partner
// against their overall mean, keeping partners with at least three games
// together. Results are ordered by mean fouls, highest first.
func AnalyzePartners(games []models.OfficiatedGame, official string) []PartnerStats {
	worked := gamesWith(games, official)
	overall := summarize(worked).Mean

	fouls := make(map[string][]float64)
	var order []string
	for _, g := range worked {
		for _, p := range g.Officials {
			if p == official {
				continue
			}
			if _, ok := fouls[p]; !ok {
				order = append(order, p)
			}
			fouls[p] = append(fouls[p], float64(g.TotalFouls()))
		}
	}

	var out []PartnerStats
	for _, p := range order {
		xs := fouls[p]
		if len(xs) < minPartnerGames {
			continue
		}
		avg := mean(xs)
		out = append(out, PartnerStats{Partner: p, Games: len(xs), AvgFouls: avg, DiffFromAvg: avg - overall})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgFouls > out[j].AvgFouls })
	return out
}
