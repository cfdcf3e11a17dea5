package coaches

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"wbb_scrooper/export"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
	"wbb_scrooper/ncaa"
)

const (
	BiosFile  = "coach_bios.json"
	demoLimit = 5
	bioDelay  = 100 * time.Millisecond
)

// Getter is the slice of httputil.Clients the bio fetcher needs.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*httputil.Response, error)
}

// BioOptions selects which coaches.csv rows to fetch. Names match exactly;
// Demo wins over Limit.
type BioOptions struct {
	Names   []string
	Shuffle bool
	Limit   int
	Demo    bool
}

// SelectRows applies the name filter, shuffle and limit to coaches.csv rows.
// Rows without a url are dropped first.
func SelectRows(rows []map[string]string, opts BioOptions) []map[string]string {
	var selected []map[string]string
	for _, row := range rows {
		if row["url"] != "" {
			selected = append(selected, row)
		}
	}

	if len(opts.Names) > 0 {
		names := make(map[string]bool, len(opts.Names))
		for _, n := range opts.Names {
			names[n] = true
		}
		var matched []map[string]string
		for _, row := range selected {
			if names[row["name"]] {
				matched = append(matched, row)
			}
		}
		log.Printf("Coaches: %d rows match the requested names", len(matched))
		selected = matched
	}

	if opts.Shuffle {
		rand.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	}

	switch {
	case opts.Demo && len(selected) > demoLimit:
		selected = selected[:demoLimit]
	case !opts.Demo && opts.Limit > 0 && len(selected) > opts.Limit:
		selected = selected[:opts.Limit]
	}
	return selected
}

func bioFromRow(row map[string]string) models.CoachBio {
	id, _ := strconv.Atoi(strings.TrimSpace(row["team_id"]))
	return models.CoachBio{
		TeamID: id,
		Team:   row["team"],
		Name:   row["name"],
		Title:  row["title"],
		URL:    row["url"],
		Season: row["season"],
	}
}

// FetchBios downloads the bio page of every selected coach and writes the
// extracted text to outPath. Failed pages are logged and left out.
func FetchBios(ctx context.Context, http Getter, csvPath string, opts BioOptions, outPath string) ([]models.CoachBio, error) {
	rows, err := export.ReadCSVMaps(csvPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", csvPath, err)
	}
	rows = SelectRows(rows, opts)
	if len(rows) == 0 {
		log.Printf("Coaches: no rows selected from %s", csvPath)
		return nil, nil
	}

	bios := make([]models.CoachBio, 0, len(rows))
	for i, row := range rows {
		if i > 0 {
			select {
			case <-ctx.Done():
				return bios, ctx.Err()
			case <-time.After(bioDelay):
			}
		}

		bio := bioFromRow(row)
		text, err := fetchBioText(ctx, http, bio.URL)
		if err != nil {
			log.Printf("Coaches: %d/%d failed for %s: %v", i+1, len(rows), bio.Name, err)
			continue
		}
		bio.Text = text
		bios = append(bios, bio)
		log.Printf("Coaches: %d/%d fetched %s", i+1, len(rows), bio.Name)
	}

	if err := export.WriteJSON(outPath, bios); err != nil {
		return bios, err
	}
	log.Printf("Coaches: saved %d bios to %s", len(bios), outPath)
	return bios, nil
}

func fetchBioText(ctx context.Context, http Getter, u string) (string, error) {
	resp, err := http.Get(ctx, u)
	if err != nil {
		return "", err
	}
	return ncaa.ArticleText(resp.Body)
}

// LoadBios reads a coach_bios.json file.
func LoadBios(path string) ([]models.CoachBio, error) {
	var bios []models.CoachBio
	if err := export.ReadJSON(path, &bios); err != nil {
		return nil, err
	}
	return bios, nil
}
