package ncaa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"wbb_scrooper/models"
)

const DefaultWMTBaseURL = "https://api.wmt.games"

// WMTTeams are the schools whose boxscores link to WMT stats.
var WMTTeams = []int{31, 147, 234, 255, 312, 334, 365, 428, 463, 513, 523, 539, 328, 473, 626, 674, 736, 742, 519, 746, 415, 648, 697}

// directScheduleTeams have no boxscore link class; any /boxscore/ link counts.
var directScheduleTeams = map[int]bool{539: true, 463: true, 365: true, 77: true, 127: true, 234: true, 742: true, 312: true, 559: true}

// linkHosts overrides the prefix for relative boxscore links.
var linkHosts = map[int]string{463: "https://huskers.com"}

var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
}

var wmtMatchPattern = regexp.MustCompile(`/stats/match/(?:full/)?(\d+)`)

// WMTScraper saves WMT play-by-play games next to the livestats files.
type WMTScraper struct {
	http    Fetcher
	apiBase string
	dataDir string
	delay   time.Duration
}

func NewWMTScraper(http Fetcher, apiBase, dataDir string, delay time.Duration) *WMTScraper {
	if apiBase == "" {
		apiBase = DefaultWMTBaseURL
	}
	return &WMTScraper{http: http, apiBase: strings.TrimRight(apiBase, "/"), dataDir: dataDir, delay: delay}
}

// siteRoot is the part of a team url before /sports/.
func siteRoot(teamURL string) string {
	root, _, _ := strings.Cut(teamURL, "/sports/")
	return root
}

// ParseBoxscoreLinks reads a schedule page for the team's boxscore links.
func ParseBoxscoreLinks(team models.Team, body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	prefix := siteRoot(team.URL)
	if host, ok := linkHosts[team.ID()]; ok {
		prefix = host
	}

	var links []string
	if directScheduleTeams[team.ID()] {
		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			if href := a.AttrOr("href", ""); strings.Contains(href, "/boxscore/") {
				links = append(links, prefix+href)
			}
		})
		return links, nil
	}

	doc.Find("a.schedule-event-link--boxscore").Each(func(_ int, a *goquery.Selection) {
		links = append(links, prefix+a.AttrOr("href", ""))
	})
	return links, nil
}

// ParseWMTID finds the WMT game id on a boxscore page, first in a
// wmt.games stats link, then anywhere in the page source.
func ParseWMTID(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var id string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if strings.Contains(href, "wmt.games") && strings.Contains(href, "/stats/match/full/") {
			parts := strings.Split(strings.TrimRight(href, "/"), "/")
			id = parts[len(parts)-1]
			return false
		}
		return true
	})
	if id != "" {
		return id, nil
	}

	if m := wmtMatchPattern.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	return "", ErrNoGameID
}

func (s *WMTScraper) gameURL(id string) string {
	return fmt.Sprintf("%s/api/statistics/games/%s?with[0]=actions&with[1]=players&with[2]=plays&with[3]=drives&with[4]=penalties", s.apiBase, id)
}

// hasPlays reports whether data.plays carries a data key.
func hasPlays(body []byte) bool {
	var game struct {
		Data struct {
			Plays map[string]json.RawMessage `json:"plays"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &game); err != nil {
		return false
	}
	_, ok := game.Data.Plays["data"]
	return ok
}

// FetchGame saves one WMT game. It reports false when the game has no plays.
func (s *WMTScraper) FetchGame(ctx context.Context, team models.Team, season, id string) (bool, error) {
	resp, err := s.http.Get(ctx, s.gameURL(id))
	if err != nil {
		return false, err
	}
	if !hasPlays(resp.Body) {
		return false, nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, resp.Body, "", "    "); err != nil {
		return false, err
	}
	dir := SeasonDir(s.dataDir, team, season)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}
	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return false, err
	}
	log.Printf("NCAA: saved %s", path)
	return true, nil
}

// ScrapeTeam walks a team's schedule and saves every WMT game it links to.
// Boxscores without an id or plays are logged and skipped.
func (s *WMTScraper) ScrapeTeam(ctx context.Context, team models.Team, season string) (int, error) {
	if err := ValidateSeason(season); err != nil {
		return 0, err
	}
	resp, err := s.http.GetWithHeaders(ctx, team.URL+"/schedule/season/"+season+"/", browserHeaders)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != 200 {
		return 0, fmt.Errorf("schedule for %s: status %d", team.Name, resp.StatusCode)
	}
	links, err := ParseBoxscoreLinks(team, resp.Body)
	if err != nil {
		return 0, err
	}
	log.Printf("NCAA: found %d games for %s", len(links), team.Name)

	saved := 0
	for i, link := range links {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return saved, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		page, err := s.http.GetWithHeaders(ctx, link, browserHeaders)
		if err != nil {
			log.Printf("NCAA: error processing %s: %v", link, err)
			continue
		}
		id, err := ParseWMTID(page.Body)
		if err != nil {
			log.Printf("NCAA: no game id found for %s", link)
			continue
		}
		ok, err := s.FetchGame(ctx, team, season, id)
		if err != nil {
			log.Printf("NCAA: error fetching WMT game %s: %v", id, err)
			continue
		}
		if ok {
			saved++
		}
	}
	return saved, nil
}

// ScrapeSeason runs ScrapeTeam for each id found in teams.
func (s *WMTScraper) ScrapeSeason(ctx context.Context, teams []models.Team, season string, ids []int) int {
	byID := make(map[int]models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID()] = t
	}
	if len(ids) == 0 {
		ids = WMTTeams
	}

	total := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		team, ok := byID[id]
		if !ok {
			log.Printf("NCAA: team ID %d not found in teams.json", id)
			continue
		}
		n, err := s.ScrapeTeam(ctx, team, season)
		if err != nil {
			log.Printf("NCAA: error processing team %s: %v", team.Name, err)
			continue
		}
		total += n
	}
	return total
}
