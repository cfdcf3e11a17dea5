package rosters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"wbb_scrooper/browser"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
)

// ErrSeasonMismatch means the page headings name a different season, which
// usually means the site silently served the current roster.
var ErrSeasonMismatch = errors.New("season not found on roster page")

type Entity string

const (
	EntityPlayer Entity = "player"
	EntityCoach  Entity = "coach"
)

func (e Entity) Label() string {
	if e == EntityCoach {
		return "coaches"
	}
	return "players"
}

// Result holds whatever one strategy extracted for a team.
type Result struct {
	URL     string
	Players []models.Player
	Coaches []models.Coach
}

func (r *Result) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Players) + len(r.Coaches)
}

type Strategy interface {
	Scrape(ctx context.Context, team models.Team, season string, entity Entity) (*Result, error)
}

// Fetcher is the HTTP surface the strategies need.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*httputil.Response, error)
}

type Deps struct {
	HTTP    Fetcher
	Browser browser.Renderer
}

// NewStrategy picks the implementation for a team config.
func NewStrategy(cfg TeamConfig, deps Deps) Strategy {
	switch cfg.Type {
	case KindTable:
		return &TableStrategy{cfg: cfg, deps: deps}
	case KindJavaScript:
		return &JavaScriptStrategy{cfg: cfg, deps: deps}
	case KindVueData:
		return &VueDataStrategy{cfg: cfg, deps: deps}
	default:
		return &StandardStrategy{cfg: cfg, deps: deps}
	}
}

// ============================================================================
// Shared page loading
// ============================================================================

// fetchDocument loads the roster page, falling back to the season-first URL
// when the default format 404s. Sidearm pages are checked for the season.
func fetchDocument(ctx context.Context, deps Deps, cfg TeamConfig, team models.Team, season string, entity Entity) (*goquery.Document, string, error) {
	pageURL := BuildURL(team.URL, season, cfg.URLFormat, entity)

	var body []byte
	if cfg.Rendered && deps.Browser != nil {
		html, err := deps.Browser.Render(ctx, pageURL, 3000)
		if err != nil {
			log.Printf("Rosters: render %s failed, falling back to plain fetch: %v", pageURL, err)
		} else {
			body = []byte(html)
		}
	}

	if body == nil {
		resp, err := deps.HTTP.Get(ctx, pageURL)
		if errors.Is(err, httputil.ErrNotFound) && cfg.URLFormat == FormatDefault {
			pageURL = BuildURL(team.URL, season, FormatSeasonFirst, entity)
			log.Printf("Rosters: %s 404, trying %s", team.Name, pageURL)
			resp, err = deps.HTTP.Get(ctx, pageURL)
		}
		if err != nil {
			return nil, pageURL, fmt.Errorf("fetch %s: %w", pageURL, err)
		}
		body = resp.Body
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, pageURL, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	if IsSidearmSite(doc) {
		want := verificationSeason(team.ID(), team.URL, cfg.URLFormat, season)
		if !VerifySeason(doc, want, entity, team.ID()) {
			return doc, pageURL, ErrSeasonMismatch
		}
	}
	return doc, pageURL, nil
}

// absoluteURL resolves href against base. Empty input stays empty.
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

func newPlayer(team models.Team, season string) models.Player {
	return models.Player{TeamID: team.ID(), Team: team.Name, Season: season}
}

func newCoach(team models.Team, season string) models.Coach {
	return models.Coach{TeamID: team.ID(), Team: team.Name, Season: season}
}
