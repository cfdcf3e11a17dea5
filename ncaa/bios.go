package ncaa

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"wbb_scrooper/export"
	"wbb_scrooper/storage"
)

// ErrNoArticle is returned when a page has no readable body text.
var ErrNoArticle = errors.New("no article text")

const boilerplate = "script, style, noscript, nav, header, footer, aside, form, iframe, svg"

// articleContainers are tried in order; the first with text wins.
var articleContainers = []string{
	".sidearm-roster-player-bio",
	".s-person-details__bio",
	".sidearm-staff-member-bio",
	"#sidearm-roster-player-bio",
	"article",
	".bio",
	"#bio",
	"main",
	"body",
}

// ArticleText extracts the readable body of a bio page: the paragraphs of
// the main content block, one per line pair.
func ArticleText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find(boilerplate).Remove()

	for _, sel := range articleContainers {
		block := doc.Find(sel).First()
		if block.Length() == 0 {
			continue
		}
		if text := paragraphs(block); text != "" {
			return text, nil
		}
	}
	return "", ErrNoArticle
}

func paragraphs(block *goquery.Selection) string {
	var parts []string
	block.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.Join(strings.Fields(p.Text()), " "); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}
	return strings.Join(strings.Fields(block.Text()), " ")
}

// ============================================================================
// Player bios
// ============================================================================

// BioStats counts the outcome of a FetchPlayerBios run.
type BioStats struct {
	Saved    int
	NotFound int
}

func openBiosDB(path string) (*sql.DB, error) {
	db, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS bios (
		season TEXT,
		url TEXT PRIMARY KEY,
		text TEXT
	);
	CREATE TABLE IF NOT EXISTS not_found (
		url TEXT PRIMARY KEY
	);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// loadRosterRows reads a roster CSV from a path or an http(s) url.
func loadRosterRows(ctx context.Context, http Fetcher, source string) ([]map[string]string, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return export.ReadCSVMaps(source)
	}
	resp, err := http.Get(ctx, source)
	if err != nil {
		return nil, err
	}
	return export.ParseCSVMaps(bytes.NewReader(resp.Body))
}

// FetchPlayerBios extracts the bio text of every url in a roster CSV into
// the bios table of dbPath. Pages that fail are recorded in not_found.
func FetchPlayerBios(ctx context.Context, http Fetcher, source, season, dbPath string, delay time.Duration) (*BioStats, error) {
	rows, err := loadRosterRows(ctx, http, source)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", source, err)
	}

	db, err := openBiosDB(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	stats := &BioStats{}
	for i, row := range rows {
		u := strings.TrimSpace(row["url"])
		if u == "" {
			continue
		}
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(delay):
			}
		}
		log.Printf("NCAA: bio %s", u)

		text, err := fetchArticle(ctx, http, u)
		if err != nil {
			if _, err := db.Exec(`INSERT OR IGNORE INTO not_found (url) VALUES (?)`, u); err != nil {
				return stats, err
			}
			stats.NotFound++
			continue
		}
		_, err = db.Exec(`INSERT INTO bios (season, url, text) VALUES (?, ?, ?)
			ON CONFLICT(url) DO UPDATE SET season = excluded.season, text = excluded.text`, season, u, text)
		if err != nil {
			return stats, err
		}
		stats.Saved++
	}
	return stats, nil
}

func fetchArticle(ctx context.Context, http Fetcher, u string) (string, error) {
	resp, err := http.Get(ctx, u)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	return ArticleText(resp.Body)
}
