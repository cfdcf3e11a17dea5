package fiba

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"wbb_scrooper/models"
)

const DefaultSiteURL = "https://www.fiba.basketball"

// BoxscoreCrawler walks an event's game list and pulls each game's
// boxscore fragment.
type BoxscoreCrawler struct {
	BaseURL   string
	UserAgent string
	Delay     time.Duration
}

func NewBoxscoreCrawler(baseURL, userAgent string) *BoxscoreCrawler {
	if baseURL == "" {
		baseURL = DefaultSiteURL
	}
	return &BoxscoreCrawler{BaseURL: strings.TrimRight(baseURL, "/"), UserAgent: userAgent, Delay: 3 * time.Second}
}

func (c *BoxscoreCrawler) collector() (*colly.Collector, error) {
	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if c.UserAgent != "" {
		opts = append(opts, colly.UserAgent(c.UserAgent))
	}
	col := colly.NewCollector(opts...)
	if err := col.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 1, Delay: c.Delay}); err != nil {
		return nil, fmt.Errorf("limit rule: %w", err)
	}
	return col, nil
}

// fetch returns the body of one page.
func (c *BoxscoreCrawler) fetch(col *colly.Collector, url string) ([]byte, error) {
	var (
		body   []byte
		reqErr error
	)
	col = col.Clone()
	col.OnResponse(func(r *colly.Response) { body = r.Body })
	col.OnError(func(r *colly.Response, err error) { reqErr = err })
	if err := col.Visit(url); err != nil {
		return nil, err
	}
	return body, reqErr
}

// GameLinks lists the game page hrefs on an event's games page.
func (c *BoxscoreCrawler) GameLinks(eventSlug string) ([]string, error) {
	col, err := c.collector()
	if err != nil {
		return nil, err
	}

	var links []string
	col.OnHTML("div.game_item", func(e *colly.HTMLElement) {
		if href := e.ChildAttr("a", "href"); href != "" {
			links = append(links, href)
		}
	})
	var reqErr error
	col.OnError(func(r *colly.Response, err error) { reqErr = err })

	if err := col.Visit(c.BaseURL + eventSlug); err != nil {
		return nil, fmt.Errorf("visit %s: %w", eventSlug, err)
	}
	return links, reqErr
}

// Crawl scrapes every completed game of an event. Games that fail are
// logged and skipped.
func (c *BoxscoreCrawler) Crawl(ctx context.Context, eventSlug string) ([]string, []models.FIBABoxscoreRow, error) {
	links, err := c.GameLinks(eventSlug)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("FIBA: %d games listed for %s", len(links), eventSlug)

	col, err := c.collector()
	if err != nil {
		return nil, nil, err
	}

	var (
		header []string
		rows   []models.FIBABoxscoreRow
	)
	for _, href := range links {
		if err := ctx.Err(); err != nil {
			return header, rows, err
		}
		gameURL := c.BaseURL + href

		page, err := c.fetch(col, gameURL)
		if err != nil {
			log.Printf("FIBA: problem with %s: %v", gameURL, err)
			continue
		}
		ajax, err := BoxscoreFragmentURL(page)
		if err != nil {
			log.Printf("FIBA: %s: %v", gameURL, err)
			continue
		}
		fragment, err := c.fetch(col, c.BaseURL+ajax)
		if err != nil {
			log.Printf("FIBA: boxscore fragment for %s: %v", gameURL, err)
			continue
		}

		cols, gameRows, err := ParseBoxscore(gameURL, page, fragment)
		if err != nil {
			log.Printf("FIBA: parse %s: %v", gameURL, err)
			continue
		}
		if gameRows == nil {
			log.Printf("FIBA: %s not completed, skipping", gameURL)
			continue
		}
		if header == nil {
			header = cols
		}
		rows = append(rows, gameRows...)
	}
	return header, rows, nil
}

// BoxscoreFragmentURL reads the boxscore tab's ajax url from a game page.
func BoxscoreFragmentURL(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", err
	}
	u, ok := doc.Find(`li[data-tab-content="boxscore"]`).First().Attr("data-ajax-url")
	if !ok || u == "" {
		return "", fmt.Errorf("no boxscore tab")
	}
	return u, nil
}

// Filler for stat cells a short (DNP) row leaves out.
var dnpPadding = append(append([]string{"0:0", "0"}, repeat("0/0", 4)...), repeat("0", 10)...)

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// ParseBoxscore turns a game page and its boxscore fragment into player
// rows. It returns nil rows for a game with no boxscore yet.
func ParseBoxscore(gameURL string, page, fragment []byte) ([]string, []models.FIBABoxscoreRow, error) {
	box, err := goquery.NewDocumentFromReader(bytes.NewReader(fragment))
	if err != nil {
		return nil, nil, err
	}
	bodies := box.Find("tbody")
	if bodies.Length() == 0 {
		return nil, nil, nil
	}
	if bodies.Length() < 2 {
		return nil, nil, fmt.Errorf("expected two team tables, got %d", bodies.Length())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, nil, err
	}
	var scores []string
	for _, line := range strings.Split(doc.Find("div.final-score").First().Text(), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			scores = append(scores, s)
		}
	}
	for len(scores) < 2 {
		scores = append(scores, "")
	}

	var colnames []string
	box.Find("thead").First().Find("th").Each(func(_ int, th *goquery.Selection) {
		colnames = append(colnames, th.Text())
	})

	segments := strings.Split(strings.TrimRight(gameURL, "/"), "/")
	date := ""
	if len(segments) >= 2 {
		date = segments[len(segments)-2]
	}
	teams := SplitTeams(segments[len(segments)-1])

	var rows []models.FIBABoxscoreRow
	bodies.Slice(0, 2).Each(func(i int, tbody *goquery.Selection) {
		tbody.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("td").Each(func(_ int, td *goquery.Selection) {
				first, _, _ := strings.Cut(strings.TrimSpace(td.Text()), "\n")
				cells = append(cells, strings.TrimSpace(first))
			})
			if len(cells) < len(colnames) {
				if len(cells) > 0 {
					cells = cells[:len(cells)-1]
				}
				cells = append(cells, dnpPadding...)
			}
			if len(cells) > len(colnames) {
				cells = cells[:len(colnames)]
			}
			rows = append(rows, models.FIBABoxscoreRow{
				Cells:     cells,
				Country:   teams[i],
				Vs:        teams[1-i],
				TeamScore: scores[i],
				VsScore:   scores[1-i],
				Date:      date,
			})
		})
	})

	header := append(append([]string{}, colnames...), "country", "vs", "team_score", "vs_score", "date")
	return header, rows, nil
}

// Country names that span several hyphen-separated slug words.
var multiWordCountries = [][]string{
	{"Papua", "New", "Guinea"},
	{"Bosnia", "and", "Herzegovina"},
	{"US", "Virgin", "Islands"},
	{"Dominican", "Republic"},
	{"El", "Salvador"},
	{"Puerto", "Rico"},
	{"Virgin", "Islands"},
	{"Chinese", "Taipei"},
	{"New", "Zealand"},
	{"Great", "Britain"},
	{"North", "Macedonia"},
	{"Cook", "Islands"},
	{"New", "Caledonia"},
	{"Marshall", "Islands"},
}

var countryDisplay = map[string]string{
	"Bosnia and Herzegovina": "Bosnia & Herzegovina",
	"US Virgin Islands":      "Virgin Islands",
}

// SplitTeams recovers the two country names from a "Team-A-Team-B" slug.
func SplitTeams(slug string) [2]string {
	words := strings.Split(slug, "-")
	var names []string
	for i := 0; i < len(words); {
		matched := false
		for _, phrase := range multiWordCountries {
			if i+len(phrase) > len(words) {
				continue
			}
			ok := true
			for j, w := range phrase {
				if !strings.EqualFold(words[i+j], w) {
					ok = false
					break
				}
			}
			if ok {
				name := strings.Join(phrase, " ")
				if d, found := countryDisplay[name]; found {
					name = d
				}
				names = append(names, name)
				i += len(phrase)
				matched = true
				break
			}
		}
		if !matched {
			names = append(names, words[i])
			i++
		}
	}

	var out [2]string
	copy(out[:], names)
	return out
}
