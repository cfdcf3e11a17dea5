package ncaa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"wbb_scrooper/browser"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
)

// ErrNoGameID is returned when a page yields no game ids.
var ErrNoGameID = errors.New("no game id found")

type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*httputil.Response, error)
	GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string) (*httputil.Response, error)
}

// scheduleTeams list their games only on the schedule page.
var scheduleTeams = map[int]bool{539: true}

const browserWaitMs = 3000

// GameFetcher saves Sidearm livestats game files under
// {dataDir}/{slug}/{season}/{id}.json.
type GameFetcher struct {
	http    Fetcher
	browser browser.Renderer
	dataDir string
	delay   time.Duration
	scheme  string // of livestats api urls
}

func NewGameFetcher(http Fetcher, renderer browser.Renderer, dataDir string, delay time.Duration) *GameFetcher {
	return &GameFetcher{http: http, browser: renderer, dataDir: dataDir, delay: delay, scheme: "https"}
}

// ParseGameIDs reads the game ids from a stats page's game-by-game section.
func ParseGameIDs(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	section := doc.Find("section#game-team")
	if section.Length() == 0 {
		return nil, fmt.Errorf("%w: no game-team section", ErrNoGameID)
	}

	var ids []string
	section.Find("a").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		_, id, ok := strings.Cut(href, "id=")
		if !ok {
			return
		}
		ids = append(ids, strings.ReplaceAll(id, "&path=wbball", ""))
	})
	return ids, nil
}

// FetchGameIDs reads {url}/stats/{season} over plain HTTP.
func (f *GameFetcher) FetchGameIDs(ctx context.Context, team models.Team, season string) ([]string, error) {
	resp, err := f.http.GetWithHeaders(ctx, team.URL+"/stats/"+season+"#game", map[string]string{"User-Agent": "Mozilla/5.0"})
	if err != nil {
		return nil, err
	}
	return ParseGameIDs(resp.Body)
}

// FetchGameIDsBrowser renders the stats page, opens the Game-By-Game tab and
// collects boxscore link ids. Schedule teams use their schedule page instead.
func (f *GameFetcher) FetchGameIDsBrowser(ctx context.Context, team models.Team, season string) ([]string, error) {
	if f.browser == nil {
		return nil, errors.New("browser fallback requires a browser session")
	}

	pageURL, click := team.URL+"/stats/"+season, "Game-By-Game"
	if scheduleTeams[team.ID()] {
		pageURL, click = team.URL+"/schedule/season/"+season, ""
	}

	hrefs, err := f.browser.CollectLinks(ctx, pageURL, click, "a[href*='boxscore']", browserWaitMs)
	if err != nil {
		return nil, err
	}
	return BoxscoreHrefIDs(hrefs), nil
}

// BoxscoreHrefIDs takes the trailing numeric segment of each boxscore link,
// or the id= query value for older links.
func BoxscoreHrefIDs(hrefs []string) []string {
	var ids []string
	for _, href := range hrefs {
		parts := strings.Split(strings.TrimRight(href, "/"), "/")
		if last := parts[len(parts)-1]; isDigits(last) {
			ids = append(ids, last)
			continue
		}
		if _, after, ok := strings.Cut(href, "="); ok {
			id, _, _ := strings.Cut(after, "&path")
			if isDigits(id) {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// origin is the livestats API root for a team site: the site's host under
// scheme, whatever scheme the team url itself uses.
func origin(siteURL, scheme string) (string, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("bad team url %q", siteURL)
	}
	return scheme + "://" + u.Host, nil
}

// FetchGameJSON returns the livestats payload, or nil when the game is not
// available or the body is not JSON.
func (f *GameFetcher) FetchGameJSON(ctx context.Context, site, gameID string) []byte {
	u := fmt.Sprintf("%s/api/livestats?game_id=%s&detail=full", site, gameID)
	resp, err := f.http.GetWithHeaders(ctx, u, map[string]string{"User-Agent": "Mozilla/5.0"})
	if err != nil || resp.StatusCode != 200 || !json.Valid(resp.Body) {
		return nil
	}
	return resp.Body
}

// SaveGame writes an indented game file. A nil game is written as null so
// the id is not fetched again.
func SaveGame(dir, gameID string, body []byte) (string, error) {
	id, _, _ := strings.Cut(gameID, "&")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	out := []byte("null")
	if body != nil {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "    "); err != nil {
			return "", fmt.Errorf("indent game %s: %w", id, err)
		}
		out = buf.Bytes()
	}

	path := filepath.Join(dir, id+".json")
	return path, os.WriteFile(path, out, 0644)
}

// FetchSeason saves every game of a team's season. Plain HTTP is tried
// first and the rendered page is the fallback.
func (f *GameFetcher) FetchSeason(ctx context.Context, team models.Team, season string) (int, error) {
	if err := ValidateSeason(season); err != nil {
		return 0, err
	}
	site, err := origin(team.URL, f.scheme)
	if err != nil {
		return 0, err
	}

	var ids []string
	if scheduleTeams[team.ID()] {
		ids, err = f.FetchGameIDsBrowser(ctx, team, season)
	} else {
		ids, err = f.FetchGameIDs(ctx, team, season)
		if err != nil {
			log.Printf("NCAA: %s %s game list: %v, trying browser", team.Name, season, err)
			ids, err = f.FetchGameIDsBrowser(ctx, team, season)
		}
	}
	if err != nil {
		return 0, err
	}

	dir := SeasonDir(f.dataDir, team, season)
	saved := 0
	for i, id := range ids {
		if i > 0 && f.delay > 0 {
			select {
			case <-ctx.Done():
				return saved, ctx.Err()
			case <-time.After(f.delay):
			}
		}
		body := f.FetchGameJSON(ctx, site, id)
		if _, err := SaveGame(dir, id, body); err != nil {
			return saved, err
		}
		if body != nil {
			saved++
		}
	}
	log.Printf("NCAA: %s %s saved %d of %d games", team.Name, season, saved, len(ids))
	return saved, nil
}

// FetchTeams runs FetchSeason for each team and season, logging failures.
func (f *GameFetcher) FetchTeams(ctx context.Context, teams []models.Team, seasons []string) (int, int) {
	var saved, failed int
	for _, team := range teams {
		for _, season := range seasons {
			if ctx.Err() != nil {
				return saved, failed
			}
			n, err := f.FetchSeason(ctx, team, season)
			if err != nil {
				log.Printf("NCAA: %s (%d) %s: %v", team.Name, team.ID(), season, err)
				failed++
			}
			saved += n
		}
	}
	return saved, failed
}
