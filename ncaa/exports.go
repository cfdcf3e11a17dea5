package ncaa

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"wbb_scrooper/export"
	"wbb_scrooper/models"
)

// Export kinds, each written to {kind}_{season}.csv.
const (
	ExportPlays     = "plays"
	ExportTurnovers = "turnovers"
	ExportLayups    = "layups"
	ExportOfficials = "officials"
)

var AllExports = []string{ExportPlays, ExportTurnovers, ExportLayups, ExportOfficials}

// playSide resolves the acting side: the player's team when a player is
// attached, else the play's team.
func playSide(p models.LivePlay) (side, uniform string) {
	if p.Player == nil {
		return p.Team, ""
	}
	return p.Player.Team, p.Player.UniformNumber.String()
}

func playRow(team models.Team, gameID string, g *Game, p models.LivePlay) models.PlayRow {
	side, uniform := playSide(p)
	return models.PlayRow{
		NcaaID:   team.ID(),
		GameID:   gameID,
		Date:     g.Game.Date,
		Team:     g.TeamName(side),
		Opponent: g.TeamName(Opponent(side)),
		Type:     p.Type,
		Action:   p.Action,
		Period:   p.Period.String(),
		Seconds:  p.ClockSeconds.String(),
		Player:   uniform,
		PlayID:   p.ID.String(),
	}
}

// Plays flattens every play of a game.
func Plays(team models.Team, gameID string, g *Game) []models.PlayRow {
	if g == nil || !g.HasPlays {
		return nil
	}
	rows := make([]models.PlayRow, 0, len(g.Plays))
	for _, p := range g.Plays {
		rows = append(rows, playRow(team, gameID, g, p))
	}
	return rows
}

func Turnovers(team models.Team, gameID string, g *Game) []models.TurnoverRow {
	var rows []models.TurnoverRow
	for _, r := range Plays(team, gameID, g) {
		if r.Type == "TURNOVER" {
			rows = append(rows, models.TurnoverRow{PlayRow: r})
		}
	}
	return rows
}

// Layups keeps LAYUP plays made by the team itself, matched on its
// stats_name. Teams without a stats_name produce none.
func Layups(team models.Team, gameID string, g *Game) []models.LayupRow {
	if team.StatsName == "" {
		return nil
	}
	var rows []models.LayupRow
	for _, r := range Plays(team, gameID, g) {
		if r.Type == "LAYUP" && r.Team == team.StatsName {
			rows = append(rows, models.LayupRow{PlayRow: r})
		}
	}
	return rows
}

// OfficialsRow summarizes officials and team fouls. Games without officials
// or without both team totals are skipped.
func OfficialsRow(team models.Team, gameID string, g *Game) (models.OfficialGameRow, bool) {
	if g == nil || !g.HasGame || strings.TrimSpace(g.Game.Officials) == "" {
		return models.OfficialGameRow{}, false
	}
	if g.Totals(HomeTeam) == nil || g.Totals(VisitingTeam) == nil {
		return models.OfficialGameRow{}, false
	}
	return models.OfficialGameRow{
		NcaaID:            team.ID(),
		GameID:            gameID,
		Date:              g.Game.Date,
		StartTime:         g.Game.StartTime,
		Location:          g.Game.Location,
		Home:              g.Game.HomeTeam.Name,
		HomeFouls:         g.Total(HomeTeam, "PersonalFouls"),
		HomeTechnicals:    g.Total(HomeTeam, "TechnicalFouls"),
		Visitor:           g.Game.VisitingTeam.Name,
		VisitorFouls:      g.Total(VisitingTeam, "PersonalFouls"),
		VisitorTechnicals: g.Total(VisitingTeam, "TechnicalFouls"),
		Officials:         g.Game.Officials,
	}, true
}

// GameFiles lists the saved game ids in a season directory.
func GameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// ============================================================================
// Season exports
// ============================================================================

// Exporter writes the derived CSVs from the saved game files.
type Exporter struct {
	teams   []models.Team
	dataDir string
	outDir  string
}

func NewExporter(teams []models.Team, dataDir, outDir string) *Exporter {
	return &Exporter{teams: teams, dataDir: dataDir, outDir: outDir}
}

func (e *Exporter) OutputPath(kind, season string) string {
	return filepath.Join(e.outDir, fmt.Sprintf("%s_%s.csv", kind, season))
}

// Export walks every team's season directory once and writes the requested
// kinds. Teams without a directory are skipped. It returns the paths written.
func (e *Exporter) Export(season string, kinds ...string) ([]string, error) {
	if err := ValidateSeason(season); err != nil {
		return nil, err
	}
	if len(kinds) == 0 {
		kinds = AllExports
	}

	rows := make(map[string][][]string, len(kinds))
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		switch k {
		case ExportPlays, ExportTurnovers, ExportLayups, ExportOfficials:
			want[k] = true
		default:
			return nil, fmt.Errorf("unknown export %q", k)
		}
	}

	for _, team := range e.teams {
		dir := SeasonDir(e.dataDir, team, season)
		ids, err := GameFiles(dir)
		if err != nil {
			continue
		}
		for _, id := range ids {
			g, err := LoadGame(filepath.Join(dir, id+".json"))
			if err != nil {
				log.Printf("NCAA: skipping %v", err)
				continue
			}
			if g == nil {
				continue
			}
			if want[ExportPlays] {
				for _, r := range Plays(team, id, g) {
					rows[ExportPlays] = append(rows[ExportPlays], r.CSVRow())
				}
			}
			if want[ExportTurnovers] {
				for _, r := range Turnovers(team, id, g) {
					rows[ExportTurnovers] = append(rows[ExportTurnovers], r.CSVRow())
				}
			}
			if want[ExportLayups] {
				for _, r := range Layups(team, id, g) {
					rows[ExportLayups] = append(rows[ExportLayups], r.CSVRow())
				}
			}
			if want[ExportOfficials] {
				if r, ok := OfficialsRow(team, id, g); ok {
					rows[ExportOfficials] = append(rows[ExportOfficials], r.CSVRow())
				}
			}
		}
	}

	var written []string
	for _, k := range kinds {
		path := e.OutputPath(k, season)
		if err := export.WriteCSV(path, exportHeader(k), rows[k]); err != nil {
			return written, err
		}
		log.Printf("NCAA: wrote %d rows to %s", len(rows[k]), path)
		written = append(written, path)
	}
	return written, nil
}

func exportHeader(kind string) []string {
	switch kind {
	case ExportTurnovers:
		return models.TurnoverCSVHeader
	case ExportLayups:
		return models.LayupCSVHeader
	case ExportOfficials:
		return models.OfficialGameCSVHeader
	}
	return models.PlayCSVHeader
}

// ============================================================================
// Counts
// ============================================================================

const CountsFile = "game_file_counts_all_seasons.csv"

var seasonDirPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// CountGameFiles writes one row per team with the number of saved game files
// in each season found on disk.
func CountGameFiles(teams []models.Team, dataDir, outPath string) error {
	seasons := make(map[string]bool)
	counts := make(map[string]map[string]int)

	for _, team := range teams {
		slug := Slugify(team)
		entries, err := os.ReadDir(filepath.Join(dataDir, slug))
		if err != nil {
			continue
		}
		counts[slug] = make(map[string]int)
		for _, e := range entries {
			if !e.IsDir() || !seasonDirPattern.MatchString(e.Name()) {
				continue
			}
			seasons[e.Name()] = true
			ids, err := GameFiles(filepath.Join(dataDir, slug, e.Name()))
			if err != nil {
				log.Printf("NCAA: error reading %s/%s: %v", slug, e.Name(), err)
			}
			counts[slug][e.Name()] = len(ids)
		}
	}

	ordered := make([]string, 0, len(seasons))
	for s := range seasons {
		ordered = append(ordered, s)
	}
	sort.Strings(ordered)

	header := append([]string{"ncaa_id", "team_name"}, ordered...)
	rows := make([][]string, 0, len(teams))
	for _, team := range teams {
		row := []string{strconv.Itoa(team.ID()), team.Name}
		for _, s := range ordered {
			row = append(row, strconv.Itoa(counts[Slugify(team)][s]))
		}
		rows = append(rows, row)
	}
	return export.WriteCSV(outPath, header, rows)
}

// TeamsWithZeroGames reads a counts file and names the teams with no games
// in the season.
func TeamsWithZeroGames(path, season string) ([]string, error) {
	header, rows, err := export.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	col := -1
	for i, h := range header {
		if h == season {
			col = i
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("season %q not found in %s", season, path)
	}

	var teams []string
	for _, row := range rows {
		if col < len(row) && len(row) > 1 && row[col] == "0" {
			teams = append(teams, row[1])
		}
	}
	return teams, nil
}
