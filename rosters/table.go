package rosters

import (
	"context"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"wbb_scrooper/models"
)

// TableStrategy parses rosters laid out as an HTML table.
type TableStrategy struct {
	cfg  TeamConfig
	deps Deps
}

// Oregon and Arkansas: #, name, pos, ht, yr, hometown, high school, previous.
var fixedColumnTeams = map[int]bool{529: true, 31: true}

var droppedColumns = map[string]bool{"Social": true, "Pronounciation": true, "Pronouns": true}

var staffKeywords = []string{"head coach", "assistant coach", "director", "coordinator"}

func (s *TableStrategy) Scrape(ctx context.Context, team models.Team, season string, entity Entity) (*Result, error) {
	doc, pageURL, err := fetchDocument(ctx, s.deps, s.cfg, team, season, entity)
	if err != nil {
		return nil, err
	}

	result := &Result{URL: pageURL}
	if entity == EntityCoach {
		result.Coaches = scrapeCoachTables(doc, team, season, pageURL)
		return result, nil
	}

	table := rosterTable(doc)
	if table.Length() == 0 {
		log.Printf("Rosters: no table found for %s at %s", team.Name, pageURL)
		return result, nil
	}

	headers, rows := parseTable(table)
	if len(headers) == 0 || rows.Length() == 0 {
		log.Printf("Rosters: could not parse headers or rows for %s", team.Name)
		return result, nil
	}

	fields := MapHeaders(headers)
	rows.Each(func(_ int, row *goquery.Selection) {
		if p, ok := tablePlayer(row, fields, team, season); ok {
			result.Players = append(result.Players, p)
		}
	})
	return result, nil
}

func rosterTable(doc *goquery.Document) *goquery.Selection {
	if t := doc.Find("table#players-table__general").First(); t.Length() > 0 {
		return t
	}
	return doc.Find("table").First()
}

// parseTable returns the kept header labels and the body rows. Empty headers
// become placeholders so cells stay aligned.
func parseTable(table *goquery.Selection) ([]string, *goquery.Selection) {
	headerCells := table.Find("thead th")
	if table.Find("thead").Length() == 0 {
		headerCells = table.Find("tr").First().Find("th, td")
	}

	var headers []string
	headerCells.Each(func(_ int, th *goquery.Selection) {
		h := strings.TrimSpace(th.Text())
		if h == "" {
			h = "_empty_"
		}
		if !droppedColumns[h] {
			headers = append(headers, h)
		}
	})

	// The parser always adds a tbody, so without a thead the header row sits
	// inside it.
	rows := table.Find("tbody tr")
	if table.Find("thead").Length() == 0 {
		all := table.Find("tr")
		if all.Length() < 2 {
			return headers, all.Slice(0, 0)
		}
		rows = all.Slice(1, goquery.ToEnd)
	}
	return headers, rows
}

func visibleCells(row *goquery.Selection) []*goquery.Selection {
	var cells []*goquery.Selection
	row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		if IsVisibleCell(cell) {
			cells = append(cells, cell)
		}
	})
	return cells
}

func tablePlayer(row *goquery.Selection, fields []string, team models.Team, season string) (models.Player, bool) {
	p := newPlayer(team, season)
	cells := visibleCells(row)
	if len(cells) < len(fields) {
		return p, false
	}

	if link := row.Find("a").First(); link.Length() > 0 {
		p.URL = absoluteURL(team.URL, link.AttrOr("href", ""))
	}

	if fixedColumnTeams[team.ID()] {
		if len(cells) < 6 {
			return p, false
		}
		p.Jersey = cleanSelection(cells[0])
		p.Name = cleanSelection(cells[1])
		p.Position = cleanSelection(cells[2])
		p.Height = cleanSelection(cells[3])
		p.AcademicYear = cleanSelection(cells[4])
		p.Hometown = cleanSelection(cells[5])
		if len(cells) > 6 {
			p.HighSchool = cleanSelection(cells[6])
		}
		if len(cells) > 7 {
			p.PreviousSchool = cleanSelection(cells[7])
		}
		return p, true
	}

	data := make(map[string]string, len(fields))
	for i, f := range fields {
		if i < len(cells) {
			data[f] = cleanSelection(cells[i])
		}
	}

	town := ParseHometownSchool(data["town"])
	if town.Hometown == "" {
		town.Hometown = data["hometown"]
		town.HighSchool = data["high_school"]
	}

	p.Name = data["name"]
	p.Jersey = data["jersey"]
	p.Position = data["position"]
	p.Height = data["height"]
	p.Major = data["major"]
	p.AcademicYear = NormalizeAcademicYear(data["academic_year"])
	p.Hometown = town.Hometown
	p.HighSchool = town.HighSchool
	p.PreviousSchool = town.PreviousSchool
	if p.PreviousSchool == "" {
		p.PreviousSchool = data["previous_school"]
	}
	return p, true
}

// ============================================================================
// Coaches
// ============================================================================

// scrapeCoachTables looks for a table following a "coach" heading, then for
// staff rows mixed into the roster table.
func scrapeCoachTables(doc *goquery.Document, team models.Team, season, pageURL string) []models.Coach {
	var coaches []models.Coach

	doc.Find("h2, h3, h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(h.Text()), "coach") {
			return true
		}
		table := nextTable(h)
		if table.Length() == 0 {
			return true
		}
		_, rows := parseTable(table)
		rows.Each(func(_ int, row *goquery.Selection) {
			if c, ok := coachFromRow(row, team, season, pageURL); ok {
				coaches = append(coaches, c)
			}
		})
		return len(coaches) == 0
	})
	if len(coaches) > 0 {
		return coaches
	}

	table := rosterTable(doc)
	if table.Length() == 0 {
		return nil
	}
	_, rows := parseTable(table)
	rows.Each(func(_ int, row *goquery.Selection) {
		if row.Find("td, th").Length() < 2 {
			return
		}
		text := strings.ToLower(row.Text())
		if !containsAny(text, staffKeywords) {
			return
		}
		if c, ok := coachFromRow(row, team, season, pageURL); ok {
			coaches = append(coaches, c)
		}
	})
	return coaches
}

// nextTable finds the first table after a heading, looking through its
// following siblings and then its parent's.
func nextTable(h *goquery.Selection) *goquery.Selection {
	for _, scope := range []*goquery.Selection{h, h.Parent()} {
		for sib := scope.Next(); sib.Length() > 0; sib = sib.Next() {
			if goquery.NodeName(sib) == "table" {
				return sib
			}
			if t := sib.Find("table").First(); t.Length() > 0 {
				return t
			}
		}
	}
	return h.Slice(0, 0)
}

func coachFromRow(row *goquery.Selection, team models.Team, season, pageURL string) (models.Coach, bool) {
	c := newCoach(team, season)
	cells := row.Find("td, th")
	if cells.Length() < 2 {
		return c, false
	}

	c.URL = pageURL
	if link := row.Find("a").First(); link.Length() > 0 {
		c.Name = cleanSelection(link)
		c.URL = absoluteURL(team.URL, link.AttrOr("href", ""))
	} else {
		c.Name = cleanSelection(cells.First())
	}

	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := cleanSelection(cell)
		lower := strings.ToLower(text)
		if strings.Contains(lower, "coach") || strings.Contains(lower, "director") || strings.Contains(lower, "coordinator") {
			c.Title = text
			return false
		}
		return true
	})

	if c.Name == "" || c.Title == "" {
		return c, false
	}
	return c, true
}
