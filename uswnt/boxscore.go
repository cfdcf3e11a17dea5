// Package uswnt reads FIBA-format box score PDFs from USA Basketball
// games.
package uswnt

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"wbb_scrooper/export"
)

// Fixed positions of the header runs on the first page.
const (
	headerTeam1     = 10
	headerTeam2     = 12
	headerDate      = 13
	headerLocation1 = 17
	headerLocation2 = 18
	headerScore     = 20
)

// StatColumns are the cells that follow each player's name and the
// Totals label, in order.
var StatColumns = []string{
	"min", "fg", "3p", "ft", "oreb", "dreb", "reb", "ast", "to", "stl", "blk", "pf", "pts",
}

var (
	ErrTooShort   = errors.New("box score text is too short")
	statCellRegex = regexp.MustCompile(`^[\d:/.+-]+$|^DNP$`)
	jerseyRegex   = regexp.MustCompile(`^\d{1,2}$`)
)

type BoxScore struct {
	Date     string
	Location string
	Teams    [2]TeamBox
}

type TeamBox struct {
	Name           string
	Score          string
	Players        []PlayerLine
	Totals         []string
	TechnicalFouls string
	// Periods holds the quarter scores followed by the final.
	Periods []string
}

type PlayerLine struct {
	Number  string
	Name    string
	Starter bool
	Stats   []string
}

// ExtractTexts returns the text runs of the first page in reading order,
// top to bottom and left to right.
func ExtractTexts(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return nil, fmt.Errorf("%s has no pages", path)
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return nil, fmt.Errorf("%s: first page is empty", path)
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("read text of %s: %w", path, err)
	}

	var texts []string
	for _, row := range rows {
		for _, word := range row.Content {
			if word.S == "" {
				continue
			}
			texts = append(texts, word.S)
		}
	}
	return texts, nil
}

// ParseFile extracts and parses a box score PDF.
func ParseFile(path string) (*BoxScore, error) {
	texts, err := ExtractTexts(path)
	if err != nil {
		return nil, err
	}
	bs, err := ParseBoxScore(texts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("USWNT: %s vs %s on %s, %d and %d players", bs.Teams[0].Name, bs.Teams[1].Name,
		bs.Date, len(bs.Teams[0].Players), len(bs.Teams[1].Players))
	return bs, nil
}

// find returns the index of the first run at or after from whose trimmed
// text is target, or -1.
func find(texts []string, target string, from int) int {
	for i := max(from, 0); i < len(texts); i++ {
		if strings.TrimSpace(texts[i]) == target {
			return i
		}
	}
	return -1
}

// ParseBoxScore reads the ordered text runs of a box score page. The
// header sits at fixed positions; each team's section starts after its
// "Min" column label, lists players until the "Team" row and ends with a
// "Totals" row.
func ParseBoxScore(texts []string) (*BoxScore, error) {
	if len(texts) <= headerScore {
		return nil, ErrTooShort
	}
	bs := &BoxScore{
		Date:     strings.TrimSpace(texts[headerDate]),
		Location: strings.TrimSpace(texts[headerLocation1]) + " " + strings.TrimSpace(texts[headerLocation2]),
	}
	bs.Teams[0].Name = strings.TrimSpace(texts[headerTeam1])
	bs.Teams[1].Name = strings.TrimSpace(texts[headerTeam2])
	bs.Teams[0].Score = strings.TrimSpace(texts[headerScore])

	pos := headerScore + 1
	for i := range bs.Teams {
		next, err := parseTeamSection(texts, pos, &bs.Teams[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", bs.Teams[i].Name, err)
		}
		pos = next
	}

	tech := find(texts, "Technical", pos)
	if tech < 0 || tech+3 >= len(texts) {
		return nil, errors.New("technical fouls row not found")
	}
	bs.Teams[0].TechnicalFouls = strings.TrimSpace(texts[tech+2])
	bs.Teams[1].TechnicalFouls = strings.TrimSpace(texts[tech+3])

	for i := range bs.Teams {
		t := &bs.Teams[i]
		at := find(texts, t.Name, tech)
		if at < 0 || at+6 > len(texts) {
			return nil, fmt.Errorf("%s: period scores not found", t.Name)
		}
		for _, s := range texts[at+1 : at+6] {
			t.Periods = append(t.Periods, strings.TrimSpace(s))
		}
		if t.Score == "" {
			t.Score = t.Periods[len(t.Periods)-1]
		}
	}
	return bs, nil
}

// parseTeamSection fills t from the section starting at or after from and
// returns the position just past its totals.
func parseTeamSection(texts []string, from int, t *TeamBox) (int, error) {
	start := find(texts, "Min", from)
	if start < 0 {
		return 0, errors.New("player table not found")
	}

	i := start + 1
	for i < len(texts) {
		cell := strings.TrimSpace(texts[i])
		if cell == "Team" || cell == "Totals" {
			break
		}
		p, next, err := parsePlayer(texts, i)
		if err != nil {
			return 0, err
		}
		t.Players = append(t.Players, p)
		i = next
	}

	totals := find(texts, "Totals", i)
	if totals < 0 || totals+len(StatColumns) >= len(texts) {
		return 0, errors.New("totals row not found")
	}
	for _, s := range texts[totals+1 : totals+1+len(StatColumns)] {
		t.Totals = append(t.Totals, strings.TrimSpace(s))
	}
	return totals + 1 + len(StatColumns), nil
}

// parsePlayer reads one player row: jersey number, name runs with an
// optional starter asterisk, then the stat cells. Names may span several
// runs.
func parsePlayer(texts []string, i int) (PlayerLine, int, error) {
	var p PlayerLine
	number := strings.TrimSpace(texts[i])
	if !jerseyRegex.MatchString(number) {
		return p, 0, fmt.Errorf("expected jersey number at run %d, got %q", i, texts[i])
	}
	p.Number = number
	i++

	var name strings.Builder
	for i < len(texts) {
		cell := strings.TrimSpace(texts[i])
		if statCellRegex.MatchString(cell) {
			break
		}
		i++
		switch {
		case cell == "*":
			p.Starter = true
		case cell == "":
		default:
			if name.Len() > 0 {
				name.WriteString(" ")
			}
			name.WriteString(cell)
		}
	}
	p.Name = name.String()
	if p.Name == "" {
		return p, 0, fmt.Errorf("player #%s has no name", p.Number)
	}

	if i+len(StatColumns) > len(texts) {
		return p, 0, fmt.Errorf("player %s: %w", p.Name, ErrTooShort)
	}
	for _, s := range texts[i : i+len(StatColumns)] {
		p.Stats = append(p.Stats, strings.TrimSpace(s))
	}
	return p, i + len(StatColumns), nil
}

// BoxScoreCSVHeader heads the per-player export; each team's totals follow
// its players with the name "Totals".
var BoxScoreCSVHeader = append([]string{"date", "location", "team", "number", "player", "starter"}, StatColumns...)

func (bs *BoxScore) CSVRows() [][]string {
	var rows [][]string
	for _, t := range bs.Teams {
		for _, p := range t.Players {
			row := []string{bs.Date, bs.Location, t.Name, p.Number, p.Name, strconv.FormatBool(p.Starter)}
			rows = append(rows, append(row, p.Stats...))
		}
		row := []string{bs.Date, bs.Location, t.Name, "", "Totals", ""}
		rows = append(rows, append(row, t.Totals...))
	}
	return rows
}

func WriteBoxScore(path string, bs *BoxScore) error {
	return export.WriteCSV(path, BoxScoreCSVHeader, bs.CSVRows())
}
