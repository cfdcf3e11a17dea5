package showbuzz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"wbb_scrooper/export"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
)

const DefaultBaseURL = "http://www.showbuzzdaily.com/articles/"

const chartSize = 150

// ErrNoChart is returned when none of a day's candidate pages has a table.
var ErrNoChart = errors.New("no ratings chart found")

type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*httputil.Response, error)
}

type Scraper struct {
	http    Fetcher
	baseURL string
	delay   time.Duration
}

func NewScraper(http Fetcher, baseURL string, delay time.Duration) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Scraper{http: http, baseURL: baseURL, delay: delay}
}

// Pages published under a different date or slug than the usual pattern.
var misdatedPages = map[string]string{
	"3-5-2018":  "showbuzzdailys-top-150-monday-cable-originals-network-finals-3-d-2018.html",
	"5-22-2019": "showbuzzdailys-top-150-wednesday-cable-originals-network-finals-5-23-2019.html",
}

// URLCandidates lists the pages to try for a day's cable chart, primary
// first. Article slugs changed over the years so the fallbacks cover each
// variant seen.
func URLCandidates(date time.Time) []string {
	return candidates(DefaultBaseURL, date)
}

func candidates(base string, date time.Time) []string {
	d := fmt.Sprintf("%d-%d-%d", int(date.Month()), date.Day(), date.Year())
	day := strings.ToLower(date.Weekday().String())
	prefix := base + "showbuzzdailys-top-150-" + day + "-cable-originals-"

	urls := []string{prefix + "network-finals-" + d + ".html"}
	if page, ok := misdatedPages[d]; ok {
		urls = append(urls, base+page)
	}
	return append(urls,
		prefix+"network-update-"+d+".html",
		prefix+"a-network-finals-"+d+".html",
		prefix+"network-finals-to-come-"+d+".html",
		prefix+"network-finals-coming-soon-"+d+".html",
		prefix+"coming-soon-network-finals-"+d+".html",
		base+"preliminary-showbuzzdailys-top-150-"+day+"-cable-originals-network-finals-"+d+".html",
		prefix+d+"-broadcast-finals-available-friday.html",
		prefix+d+"-broadcast-finals-available-monday.html",
		prefix+"network-finals-coming-monday-"+d+".html",
		prefix+"network-finals-final-charts-to-follow-"+d+".html",
	)
}

// ScrapeDay tries each candidate page until one has a chart.
func (s *Scraper) ScrapeDay(ctx context.Context, date time.Time) ([]models.ShowRating, error) {
	for _, u := range candidates(s.baseURL, date) {
		resp, err := s.http.Get(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		ratings, err := ParseRatings(resp.Body, date)
		if errors.Is(err, ErrNoChart) {
			continue
		}
		return ratings, err
	}
	return nil, fmt.Errorf("%s: %w", date.Format("2006-01-02"), ErrNoChart)
}

// ParseRatings reads a chart page. The first row sits above the header; the
// chart itself is the last 150 rows.
func ParseRatings(body []byte, date time.Time) ([]models.ShowRating, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var rows [][]string
	doc.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		var cells []string
		tr.Children().Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, cells)
	})
	if len(rows) == 0 {
		return nil, ErrNoChart
	}

	width := len(rows[0])
	data := rows[1:]
	if len(data) > chartSize {
		data = data[len(data)-chartSize:]
	}

	day := date.Format("2006-01-02")
	out := make([]models.ShowRating, 0, len(data))
	for i, cells := range data {
		// Some days carry per-demo breakdowns; keep the core columns and total viewers.
		if width == 17 && len(cells) >= 17 {
			cells = append(cells[:6:6], cells[16])
		}
		if len(cells) < 7 {
			return nil, fmt.Errorf("%s row %d: expected 7 columns, got %d", day, i+1, len(cells))
		}
		out = append(out, models.ShowRating{
			Rank:     cells[0],
			Program:  cells[1],
			Network:  cells[2],
			Time:     cells[3],
			Duration: numericCell(cells[4]),
			Rating:   cells[5],
			Viewers:  numericCell(cells[6]),
			Date:     day,
		})
	}
	return out, nil
}

// numericCell drops thousands separators from a numeric cell and leaves
// anything else as written.
func numericCell(s string) string {
	if n, err := strconv.Atoi(strings.ReplaceAll(s, ",", "")); err == nil {
		return strconv.Itoa(n)
	}
	return s
}

// ScrapeRange writes one {date}.csv per day, start and end inclusive. Days
// without a chart are logged and skipped.
func (s *Scraper) ScrapeRange(ctx context.Context, start, end time.Time, outDir string) ([]string, error) {
	var written []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.After(start) && s.delay > 0 {
			select {
			case <-ctx.Done():
				return written, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		ratings, err := s.ScrapeDay(ctx, d)
		if err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			log.Printf("Showbuzz: error on %s: %v", d.Format("2006-01-02"), err)
			continue
		}

		path := filepath.Join(outDir, d.Format("2006-01-02")+".csv")
		rows := make([][]string, 0, len(ratings))
		for _, r := range ratings {
			rows = append(rows, r.CSVRow())
		}
		if err := export.WriteCSV(path, models.ShowRatingCSVHeader, rows); err != nil {
			return written, err
		}
		log.Printf("Showbuzz: saved %d programs to %s", len(ratings), path)
		written = append(written, path)
	}
	return written, nil
}
