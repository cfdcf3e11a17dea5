package fiba

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"wbb_scrooper/export"
	"wbb_scrooper/models"
)

var (
	spaceRun  = regexp.MustCompile(`\s+`)
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]`)
	hyphenRun = regexp.MustCompile(`-+`)
)

// SlugifyCompetition builds the event slug used in fiba.basketball URLs,
// e.g. "FIBA Women's AmeriCup" in 2025 becomes "fiba-womens-americup-2025".
func SlugifyCompetition(name, year string) string {
	slug := strings.ToLower(name)
	slug = spaceRun.ReplaceAllString(slug, " ")
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = nonSlug.ReplaceAllString(slug, "")
	slug = hyphenRun.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	return slug + "-" + year
}

func boxscoreURL(base, gameID, competition, year, teamA, teamB string) string {
	return fmt.Sprintf("%s/en/events/%s/games/%s-%s-%s#boxscore", base, SlugifyCompetition(competition, year), gameID, teamA, teamB)
}

// GameRef is one game from the flattened games CSV.
type GameRef struct {
	GameID      string
	Competition string
	TeamACode   string
	TeamBCode   string
	Year        string
	DateTime    string
}

// LoadGameList reads a games CSV written by WriteGames, skipping rows
// without an id, competition or team codes. Games are sorted latest first.
func LoadGameList(path string) ([]GameRef, error) {
	rows, err := export.ReadCSVMaps(path)
	if err != nil {
		return nil, err
	}

	var games []GameRef
	for _, r := range rows {
		g := GameRef{
			GameID:      r["Game ID"],
			Competition: r["Competition Official Name"],
			TeamACode:   r["Team A Code"],
			TeamBCode:   r["Team B Code"],
			DateTime:    r["Game Date Time"],
			Year:        "2025",
		}
		if g.GameID == "" || g.Competition == "" || g.TeamACode == "" || g.TeamBCode == "" {
			continue
		}
		if len(g.DateTime) >= 4 {
			g.Year = g.DateTime[:4]
		}
		games = append(games, g)
	}

	sort.SliceStable(games, func(i, j int) bool { return games[i].DateTime > games[j].DateTime })
	log.Printf("FIBA: loaded %d games from %s", len(games), path)
	return games, nil
}

// PlayerScraper fetches game pages and parses the player tables.
type PlayerScraper struct {
	http  Fetcher
	base  string
	delay time.Duration
}

func NewPlayerScraper(http Fetcher, baseURL string, delay time.Duration) *PlayerScraper {
	if baseURL == "" {
		baseURL = DefaultSiteURL
	}
	return &PlayerScraper{http: http, base: strings.TrimRight(baseURL, "/"), delay: delay}
}

// ScrapeGame resolves the game's redirect and parses its boxscore.
func (s *PlayerScraper) ScrapeGame(ctx context.Context, gameURL string) ([]models.FIBAPlayerStat, error) {
	base := strings.TrimSuffix(gameURL, "#boxscore")
	final, err := s.http.ResolveRedirect(ctx, base)
	if err != nil {
		log.Printf("FIBA: redirect check for %s: %v", base, err)
		final = base
	}
	if final != base {
		log.Printf("FIBA: following redirect to %s", final)
	}

	body, err := s.http.GetCached(ctx, final)
	if err != nil {
		return nil, err
	}
	return ParsePlayerStats(body, final+"#boxscore")
}

// ScrapeAll scrapes every game in order. Games without data are logged.
func (s *PlayerScraper) ScrapeAll(ctx context.Context, games []GameRef) ([]models.FIBAPlayerStat, error) {
	var all []models.FIBAPlayerStat
	for i, g := range games {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		log.Printf("FIBA: processing game %d/%d: %s", i+1, len(games), g.GameID)
		stats, err := s.ScrapeGame(ctx, boxscoreURL(s.base, g.GameID, g.Competition, g.Year, g.TeamACode, g.TeamBCode))
		if err != nil {
			log.Printf("FIBA: game %s: %v", g.GameID, err)
			continue
		}
		if len(stats) == 0 {
			log.Printf("FIBA: no player data found for game %s", g.GameID)
			continue
		}

		year, _ := strconv.Atoi(g.Year)
		for j := range stats {
			stats[j].GameID = g.GameID
			stats[j].CompetitionName = g.Competition
			stats[j].TeamACode = g.TeamACode
			stats[j].TeamBCode = g.TeamBCode
			stats[j].Year = year
		}
		all = append(all, stats...)
	}
	return all, nil
}

// ParsePlayerStats reads the player tables inside the page's boxscore
// section, keyed by each table's header cells.
func ParsePlayerStats(body []byte, gameURL string) ([]models.FIBAPlayerStat, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	section := doc.Find("div#boxscore").First()
	if section.Length() == 0 {
		section = doc.Find("section.boxscore").First()
	}
	if section.Length() == 0 {
		return nil, nil
	}

	tables := section.Find("table.statistics")
	if tables.Length() == 0 {
		tables = section.Find("table")
	}

	var out []models.FIBAPlayerStat
	tables.Each(func(_ int, table *goquery.Selection) {
		team := teamHeader(doc, table)

		var headers []string
		table.Find("thead").First().Find("th, td").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(th.Text()))
		})

		table.Find("tbody").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td, th")
			if cells.Length() < len(headers) {
				return
			}
			stat := models.FIBAPlayerStat{
				Team:    team,
				GameURL: gameURL,
				Columns: headers,
				Stats:   make(map[string]string, len(headers)),
			}
			cells.Slice(0, len(headers)).Each(func(i int, cell *goquery.Selection) {
				stat.Stats[headers[i]] = strings.TrimSpace(cell.Text())
			})
			out = append(out, stat)
		})
	})
	return out, nil
}

// teamHeader finds the closest .team-name or .team-title element that
// precedes the table in document order.
func teamHeader(doc *goquery.Document, table *goquery.Selection) string {
	all := doc.Find("*")
	tablePos := all.IndexOfSelection(table)
	name := "Unknown"
	doc.Find(".team-name, .team-title").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if all.IndexOfSelection(h) > tablePos {
			return false
		}
		name = strings.TrimSpace(h.Text())
		return true
	})
	return name
}

// ============================================================================
// Output
// ============================================================================

// WritePlayerStats writes one row per player line. Stat columns follow the
// order they first appear in.
func WritePlayerStats(path string, stats []models.FIBAPlayerStat) error {
	if len(stats) == 0 {
		log.Printf("FIBA: no player data to save")
		return nil
	}

	var statCols []string
	seen := make(map[string]bool)
	for _, s := range stats {
		for _, h := range s.Columns {
			if !seen[h] {
				seen[h] = true
				statCols = append(statCols, h)
			}
		}
	}

	header := append([]string{"team", "game_url"}, statCols...)
	header = append(header, "game_id", "competition_name", "team_a_code", "team_b_code", "year")

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		row := []string{s.Team, s.GameURL}
		for _, h := range statCols {
			row = append(row, s.Stats[h])
		}
		year := ""
		if s.Year != 0 {
			year = strconv.Itoa(s.Year)
		}
		rows = append(rows, append(row, s.GameID, s.CompetitionName, s.TeamACode, s.TeamBCode, year))
	}
	if err := export.WriteCSV(path, header, rows); err != nil {
		return err
	}
	log.Printf("FIBA: saved %d player records to %s", len(stats), path)
	return nil
}
