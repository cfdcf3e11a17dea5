package officials

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"wbb_scrooper/identity"
	"wbb_scrooper/models"
)

// AllSeasons labels partnership stats computed over every season at once.
const AllSeasons = "All Seasons"

// gamePartnerships returns the key of every pair of distinct officials in a
// game, each key once even when a name is listed twice.
func gamePartnerships(officials []string) []string {
	var keys []string
	seen := make(map[string]bool)
	for i := 0; i < len(officials); i++ {
		for j := i + 1; j < len(officials); j++ {
			a, b := strings.TrimSpace(officials[i]), strings.TrimSpace(officials[j])
			if a == b {
				continue
			}
			key := identity.PartnershipKey(a, b)
			if seen[key] {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

func splitKey(key string) (string, string) {
	a, b, _ := strings.Cut(key, " & ")
	return a, b
}

// groupByPartnership collects each partnership's games, keeping keys in
// first-seen order.
func groupByPartnership(games []models.OfficiatedGame) ([]string, map[string][]models.OfficiatedGame) {
	grouped := make(map[string][]models.OfficiatedGame)
	var order []string
	for _, g := range games {
		for _, key := range gamePartnerships(g.Officials) {
			if _, ok := grouped[key]; !ok {
				order = append(order, key)
			}
			grouped[key] = append(grouped[key], g)
		}
	}
	return order, grouped
}

// seasonsOf lists the distinct seasons in first-seen order.
func seasonsOf(games []models.OfficiatedGame) []string {
	seen := make(map[string]bool)
	var seasons []string
	for _, g := range games {
		if !seen[g.Season] {
			seen[g.Season] = true
			seasons = append(seasons, g.Season)
		}
	}
	return seasons
}

func inSeason(games []models.OfficiatedGame, season string) []models.OfficiatedGame {
	var out []models.OfficiatedGame
	for _, g := range games {
		if g.Season == season {
			out = append(out, g)
		}
	}
	return out
}

// ============================================================================
// Partnership statistics
// ============================================================================

type PartnershipStats struct {
	Season    string
	Signature string
	Official1 string
	Official2 string
	FoulStats
	ZScore     float64
	Percentile float64
}

var PartnershipCSVHeader = append(append([]string{"season", "partnership_signature", "official_1", "official_2"}, foulStatsHeader...), "z_score", "percentile")

func (p PartnershipStats) CSVRow() []string {
	row := append([]string{p.Season, p.Signature, p.Official1, p.Official2}, p.cells()...)
	return append(row, formatFloat(p.ZScore), formatFloat(p.Percentile))
}

// AnalyzePartnerships computes foul statistics for every pair of officials
// who worked at least minGames games together, either per season or over
// all games. The z-score and percentile place each pair against every
// other pair in the result. Results are ordered by mean fouls, highest
// first.
func AnalyzePartnerships(games []models.OfficiatedGame, minGames int, bySeason bool) []PartnershipStats {
	var out []PartnershipStats
	if bySeason {
		for _, season := range seasonsOf(games) {
			out = append(out, partnershipsFor(inSeason(games, season), minGames, season)...)
		}
	} else {
		out = partnershipsFor(games, minGames, AllSeasons)
	}

	means := make([]float64, len(out))
	for i, p := range out {
		means[i] = p.Mean
	}
	z, pct := zScores(means), percentiles(means)
	for i := range out {
		out[i].ZScore = z[i]
		out[i].Percentile = pct[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out
}

func partnershipsFor(games []models.OfficiatedGame, minGames int, label string) []PartnershipStats {
	order, grouped := groupByPartnership(games)
	var out []PartnershipStats
	for _, key := range order {
		pg := grouped[key]
		if len(pg) < minGames {
			continue
		}
		a, b := splitKey(key)
		out = append(out, PartnershipStats{
			Season:    label,
			Signature: key,
			Official1: a,
			Official2: b,
			FoulStats: summarize(pg),
		})
	}
	return out
}

// PartnershipCount is how often a pair worked together.
type PartnershipCount struct {
	Signature string
	Official1 string
	Official2 string
	Games     int
}

var PartnershipCountCSVHeader = []string{"partnership_signature", "official_1", "official_2", "games_together"}

func (p PartnershipCount) CSVRow() []string {
	return []string{p.Signature, p.Official1, p.Official2, strconv.Itoa(p.Games)}
}

// MostFrequentPartnerships returns the topN pairs by games together. Ties
// are broken by signature.
func MostFrequentPartnerships(games []models.OfficiatedGame, topN int) []PartnershipCount {
	order, grouped := groupByPartnership(games)
	counts := make([]PartnershipCount, 0, len(order))
	for _, key := range order {
		a, b := splitKey(key)
		counts = append(counts, PartnershipCount{Signature: key, Official1: a, Official2: b, Games: len(grouped[key])})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Games != counts[j].Games {
			return counts[i].Games > counts[j].Games
		}
		return counts[i].Signature < counts[j].Signature
	})
	if topN > 0 && len(counts) > topN {
		counts = counts[:topN]
	}
	return counts
}

// ============================================================================
// Individual vs partnership
// ============================================================================

type PartnershipComparison struct {
	Signature           string
	Games               int
	PartnershipAvg      float64
	IndividualAvg       float64
	Difference          float64
	Official1           string
	Official2           string
	Official1Individual float64
	Official2Individual float64
}

var PartnershipComparisonCSVHeader = []string{
	"partnership_signature", "games_worked", "partnership_avg_fouls", "individual_avg_fouls",
	"performance_difference", "official_1", "official_2", "official_1_individual", "official_2_individual",
}

func (c PartnershipComparison) CSVRow() []string {
	return []string{
		c.Signature, strconv.Itoa(c.Games), formatFloat(c.PartnershipAvg), formatFloat(c.IndividualAvg),
		formatFloat(c.Difference), c.Official1, c.Official2,
		formatFloat(c.Official1Individual), formatFloat(c.Official2Individual),
	}
}

// CompareIndividualVsPartnership sets each partnership's mean fouls against
// the average of its two officials' overall means. Results are ordered by
// the difference, largest first.
func CompareIndividualVsPartnership(games []models.OfficiatedGame, partnerships []PartnershipStats) []PartnershipComparison {
	individual := make(map[string]float64)
	for _, o := range AllOfficials(games) {
		name := strings.TrimSpace(o)
		if name == "" {
			continue
		}
		if worked := gamesWith(games, name); len(worked) > 0 {
			individual[name] = summarize(worked).Mean
		}
	}

	var out []PartnershipComparison
	for _, p := range partnerships {
		a, okA := individual[p.Official1]
		b, okB := individual[p.Official2]
		if !okA || !okB {
			continue
		}
		avg := (a + b) / 2
		out = append(out, PartnershipComparison{
			Signature:           p.Signature,
			Games:               p.Games,
			PartnershipAvg:      p.Mean,
			IndividualAvg:       avg,
			Difference:          p.Mean - avg,
			Official1:           p.Official1,
			Official2:           p.Official2,
			Official1Individual: a,
			Official2Individual: b,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Difference > out[j].Difference })
	return out
}

// ============================================================================
// Trends
// ============================================================================

// TrendRow is one partnership's numbers in one season.
type TrendRow struct {
	Signature       string
	Official1       string
	Official2       string
	Season          string
	Games           int
	AvgFouls        float64
	StdFouls        float64
	HomeVisitorDiff float64
}

var TrendCSVHeader = []string{
	"partnership_signature", "official_1", "official_2", "season", "games_worked",
	"avg_fouls_per_game", "std_fouls", "home_visitor_diff",
}

func (r TrendRow) CSVRow() []string {
	return []string{
		r.Signature, r.Official1, r.Official2, r.Season, strconv.Itoa(r.Games),
		formatFloat(r.AvgFouls), formatFloat(r.StdFouls), formatFloat(r.HomeVisitorDiff),
	}
}

// TrendSummary is a partnership's change from its first to last season.
type TrendSummary struct {
	Signature     string
	Official1     string
	Official2     string
	SeasonsActive int
	TotalGames    int
	FirstAvg      float64
	LastAvg       float64
	Slope         float64
	Seasons       []string
}

var TrendSummaryCSVHeader = []string{
	"partnership_signature", "official_1", "official_2", "seasons_active", "total_games",
	"first_season_avg", "last_season_avg", "trend_slope", "seasons_list",
}

func (s TrendSummary) CSVRow() []string {
	return []string{
		s.Signature, s.Official1, s.Official2, strconv.Itoa(s.SeasonsActive), strconv.Itoa(s.TotalGames),
		formatFloat(s.FirstAvg), formatFloat(s.LastAvg), formatFloat(s.Slope), strings.Join(s.Seasons, ", "),
	}
}

// PartnershipTrends follows each pair across seasons. A season counts when
// the pair worked at least minPerSeason games in it, and only pairs with
// more than one counted season are reported. The slope is the change in
// mean fouls per season between the first and last counted seasons.
// Summaries are ordered by slope, steepest increase first.
func PartnershipTrends(games []models.OfficiatedGame, minPerSeason int) ([]TrendRow, []TrendSummary) {
	seasons := seasonsOf(games)
	sort.Strings(seasons)

	bySeason := make(map[string]map[string][]models.OfficiatedGame, len(seasons))
	var keys []string
	seenKey := make(map[string]bool)
	for _, season := range seasons {
		order, grouped := groupByPartnership(inSeason(games, season))
		bySeason[season] = grouped
		for _, k := range order {
			if !seenKey[k] {
				seenKey[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	var (
		rows      []TrendRow
		summaries []TrendSummary
	)
	for _, key := range keys {
		a, b := splitKey(key)
		var pr []TrendRow
		for _, season := range seasons {
			pg := bySeason[season][key]
			if len(pg) < minPerSeason || len(pg) == 0 {
				continue
			}
			s := summarize(pg)
			pr = append(pr, TrendRow{
				Signature:       key,
				Official1:       a,
				Official2:       b,
				Season:          season,
				Games:           s.Games,
				AvgFouls:        s.Mean,
				StdFouls:        s.Std,
				HomeVisitorDiff: s.HomeVisitorDiff,
			})
		}
		if len(pr) < 2 {
			continue
		}
		rows = append(rows, pr...)

		sum := TrendSummary{
			Signature:     key,
			Official1:     a,
			Official2:     b,
			SeasonsActive: len(pr),
			FirstAvg:      pr[0].AvgFouls,
			LastAvg:       pr[len(pr)-1].AvgFouls,
		}
		for _, r := range pr {
			sum.TotalGames += r.Games
			sum.Seasons = append(sum.Seasons, r.Season)
		}
		sum.Slope = (sum.LastAvg - sum.FirstAvg) / float64(len(pr)-1)
		summaries = append(summaries, sum)
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].Slope > summaries[j].Slope })
	return rows, summaries
}

// ============================================================================
// Chemistry and networks
// ============================================================================

// Chemistry scores how consistent a pair's games are: the variance of
// total fouls plus twice the home/visitor imbalance. Lower is steadier.
type Chemistry struct {
	Signature          string
	Official1          string
	Official2          string
	Games              int
	AvgFouls           float64
	Variance           float64
	Range              int
	HomeVisitorBalance float64
	Score              float64
	StdFouls           float64
	Rank               int
}

var ChemistryCSVHeader = []string{
	"partnership_signature", "official_1", "official_2", "games_worked", "avg_fouls", "foul_variance",
	"foul_range", "home_visitor_balance", "chemistry_score", "std_fouls", "chemistry_rank",
}

func (c Chemistry) CSVRow() []string {
	return []string{
		c.Signature, c.Official1, c.Official2, strconv.Itoa(c.Games), formatFloat(c.AvgFouls),
		formatFloat(c.Variance), strconv.Itoa(c.Range), formatFloat(c.HomeVisitorBalance),
		formatFloat(c.Score), formatFloat(c.StdFouls), strconv.Itoa(c.Rank),
	}
}

// PartnershipChemistry ranks pairs with at least minGames games by their
// chemistry score, best first.
func PartnershipChemistry(games []models.OfficiatedGame, minGames int) []Chemistry {
	order, grouped := groupByPartnership(games)
	var out []Chemistry
	for _, key := range order {
		pg := grouped[key]
		if len(pg) < minGames || len(pg) == 0 {
			continue
		}
		totals := make([]float64, len(pg))
		for i, g := range pg {
			totals[i] = float64(g.TotalFouls())
		}
		s := summarize(pg)
		variance := sampleVariance(totals)
		balance := math.Abs(s.HomeVisitorDiff)
		a, b := splitKey(key)
		out = append(out, Chemistry{
			Signature:          key,
			Official1:          a,
			Official2:          b,
			Games:              s.Games,
			AvgFouls:           s.Mean,
			Variance:           variance,
			Range:              s.Max - s.Min,
			HomeVisitorBalance: balance,
			Score:              variance + balance*2,
			StdFouls:           s.Std,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Network summarizes an official's regular partners.
type Network struct {
	Official                 string
	UniquePartners           int
	TotalPartnershipGames    int
	AvgGamesPerPartner       float64
	MostFrequentPartner      string
	MostFrequentPartnerGames int
}

var NetworkCSVHeader = []string{
	"official", "unique_partners", "total_partnership_games", "avg_games_per_partner",
	"most_frequent_partner", "most_frequent_partner_games",
}

func (n Network) CSVRow() []string {
	return []string{
		n.Official, strconv.Itoa(n.UniquePartners), strconv.Itoa(n.TotalPartnershipGames),
		formatFloat(n.AvgGamesPerPartner), n.MostFrequentPartner, strconv.Itoa(n.MostFrequentPartnerGames),
	}
}

// PartnershipNetworks counts, per official, the partners they worked at
// least minGames games with. Ordered by total games with those partners.
func PartnershipNetworks(games []models.OfficiatedGame, minGames int) []Network {
	byOfficial := make(map[string]*Network)
	var order []string
	add := func(official, partner string, n int) {
		net, ok := byOfficial[official]
		if !ok {
			net = &Network{Official: official}
			byOfficial[official] = net
			order = append(order, official)
		}
		net.UniquePartners++
		net.TotalPartnershipGames += n
		if n > net.MostFrequentPartnerGames {
			net.MostFrequentPartner = partner
			net.MostFrequentPartnerGames = n
		}
	}
	for _, pc := range MostFrequentPartnerships(games, 0) {
		if pc.Games < minGames {
			continue
		}
		add(pc.Official1, pc.Official2, pc.Games)
		add(pc.Official2, pc.Official1, pc.Games)
	}

	out := make([]Network, 0, len(order))
	for _, name := range order {
		net := byOfficial[name]
		net.AvgGamesPerPartner = float64(net.TotalPartnershipGames) / float64(net.UniquePartners)
		out = append(out, *net)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalPartnershipGames > out[j].TotalPartnershipGames })
	return out
}
