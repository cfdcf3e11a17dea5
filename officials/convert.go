package officials

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"wbb_scrooper/export"
	"wbb_scrooper/identity"
	"wbb_scrooper/models"
)

// ConvertCSV reads an officials_{season}.csv export into games and writes
// them as JSON to jsonPath when it is set.
func ConvertCSV(csvPath, jsonPath string) ([]models.OfficiatedGame, error) {
	rows, err := export.ReadCSVMaps(csvPath)
	if err != nil {
		return nil, err
	}

	games := make([]models.OfficiatedGame, 0, len(rows))
	for i, row := range rows {
		g, err := gameFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", csvPath, i+2, err)
		}
		games = append(games, g)
	}

	if jsonPath != "" {
		if err := export.WriteJSON(jsonPath, games); err != nil {
			return nil, err
		}
		log.Printf("Officials: converted %d games to %s", len(games), jsonPath)
	}
	return games, nil
}

func gameFromRow(row map[string]string) (models.OfficiatedGame, error) {
	g := models.OfficiatedGame{
		StartTime: row["start_time"],
		Location:  row["location"],
		Home:      row["home"],
		Visitor:   row["visitor"],
		Officials: identity.SplitOfficials(row["officials"]),
	}

	ints := []struct {
		field string
		dst   *int
	}{
		{"ncaa_id", &g.NcaaID},
		{"game_id", &g.GameID},
		{"home_fouls", &g.HomeFouls},
		{"home_technicals", &g.HomeTechnicals},
		{"visitor_fouls", &g.VisitorFouls},
		{"visitor_technicals", &g.VisitorTechnicals},
	}
	for _, f := range ints {
		v := strings.TrimSpace(row[f.field])
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return g, fmt.Errorf("%s: %w", f.field, err)
		}
		*f.dst = n
	}

	date, err := ISODate(row["date"])
	if err != nil {
		return g, err
	}
	g.Date = date
	return g, nil
}

// ISODate turns m/d/yyyy into yyyy-mm-dd. Empty and already converted dates
// pass through.
func ISODate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, "/") {
		return s, nil
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("bad date %q", s)
	}
	month, err1 := strconv.Atoi(parts[0])
	day, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return "", fmt.Errorf("bad date %q", s)
	}
	return fmt.Sprintf("%s-%02d-%02d", parts[2], month, day), nil
}

// LoadGames reads a converted officials JSON file.
func LoadGames(path string) ([]models.OfficiatedGame, error) {
	var games []models.OfficiatedGame
	if err := export.ReadJSON(path, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// SeasonFromPath takes the season from the last "_" separated part of a
// file name: officials_202425.json is 202425.
func SeasonFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// LoadSeasons loads several season files and tags each game with its
// season. Missing or unreadable files are logged and skipped.
func LoadSeasons(files []string) ([]models.OfficiatedGame, error) {
	var all []models.OfficiatedGame
	loaded := 0
	for _, path := range files {
		var (
			games []models.OfficiatedGame
			err   error
		)
		if filepath.Ext(path) == ".csv" {
			games, err = ConvertCSV(path, "")
		} else {
			games, err = LoadGames(path)
		}
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Printf("Officials: %s not found, skipping", path)
			} else {
				log.Printf("Officials: failed to load %s: %v", path, err)
			}
			continue
		}

		season := SeasonFromPath(path)
		for i := range games {
			games[i].Season = season
		}
		log.Printf("Officials: loaded %d games from %s", len(games), season)
		all = append(all, games...)
		loaded++
	}
	if loaded == 0 {
		return nil, errors.New("no officials files could be loaded")
	}
	return all, nil
}

// ============================================================================
// Official days
// ============================================================================

// Day is one official working one game.
type Day struct {
	Date      string
	StartTime string
	Location  string
	Official  string
}

var DayCSVHeader = []string{"date", "start_time", "location", "official"}

func (d Day) CSVRow() []string {
	return []string{d.Date, d.StartTime, d.Location, d.Official}
}

// OfficialDays lists each official's game appearances once, dropping games
// with no location. Rows are ordered by date and start time.
func OfficialDays(games []models.OfficiatedGame) []Day {
	seen := make(map[Day]bool)
	var days []Day
	for _, g := range games {
		if strings.TrimSpace(g.Location) == "" {
			continue
		}
		for _, o := range g.Officials {
			if strings.TrimSpace(o) == "" {
				continue
			}
			d := Day{Date: g.Date, StartTime: g.StartTime, Location: g.Location, Official: o}
			if seen[d] {
				continue
			}
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.SliceStable(days, func(i, j int) bool {
		if days[i].Date != days[j].Date {
			return days[i].Date < days[j].Date
		}
		return days[i].StartTime < days[j].StartTime
	})
	return days
}
