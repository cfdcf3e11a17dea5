package ncaa

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

// statKind says how a team total is converted into a games column.
type statKind int

const (
	statInt statKind = iota
	statMade
	statAttempted
	statPercent
	statText
	statFirstWord
)

type statColumn struct {
	name string // suffix after home_team_ / visiting_team_
	key  string // Totals.Values key
	kind statKind
}

var statColumns = []statColumn{
	{"fgm", "Fgam", statMade},
	{"fga", "Fgam", statAttempted},
	{"fgpct", "ShootingPercentage", statPercent},
	{"3ptm", "Tpam", statMade},
	{"3pta", "Tpam", statAttempted},
	{"3ptpct", "Tppercentage", statPercent},
	{"ftm", "Ftma", statMade},
	{"fta", "Ftma", statAttempted},
	{"ftpct", "Ftp", statPercent},
	{"rebounds", "TotalRebounds", statInt},
	{"rebounds_off", "OffensiveRebounds", statInt},
	{"rebounds_def", "DefensiveRebounds", statInt},
	{"leads", "Leads", statInt},
	{"lead_time", "TimeWithLead", statText},
	{"percent_lead", "PercentLead", statPercent},
	{"largest_lead", "LargestLead", statInt},
	{"largest_lead_score", "LargestLeadScores", statText},
	{"largest_lead_time", "LargestLeadTime", statFirstWord},
	{"assists", "Assists", statInt},
	{"turnovers", "Turnovers", statInt},
	{"bench_points", "PointsFromBench", statInt},
	{"blocks", "Blocks", statInt},
	{"fast_break_points", "PointsOffFastBreak", statInt},
	{"steals", "Steals", statInt},
	{"points_off_turnovers", "PointsOffTurnovers", statInt},
	{"points_paint", "PointsInPaint", statInt},
	{"points_second_chance", "PointsOffSecondChance", statInt},
	{"personal_fouls", "PersonalFouls", statInt},
	{"technical_fouls", "TechnicalFouls", statInt},
}

func (c statColumn) sqlType() string {
	switch c.kind {
	case statPercent:
		return "REAL"
	case statText, statFirstWord:
		return "TEXT"
	}
	return "INTEGER"
}

// value converts a total. Missing or malformed numbers become 0.
func (c statColumn) value(raw string) any {
	raw = strings.TrimSpace(raw)
	switch c.kind {
	case statText:
		return raw
	case statFirstWord:
		first, _, _ := strings.Cut(raw, " ")
		return first
	case statPercent:
		f, _ := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
		return f
	case statMade, statAttempted:
		made, attempted, _ := strings.Cut(raw, "-")
		if c.kind == statAttempted {
			return atoi(attempted)
		}
		return atoi(made)
	}
	return atoi(raw)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

var gameBaseColumns = []struct{ name, typ string }{
	{"season", "TEXT"},
	{"home_team", "TEXT"},
	{"home_team_id", "INTEGER REFERENCES teams(ncaa_id)"},
	{"visiting_team", "TEXT"},
	{"visiting_team_id", "INTEGER REFERENCES teams(ncaa_id)"},
	{"location", "TEXT"},
	{"date", "TEXT"},
	{"time", "TEXT"},
	{"officials", "TEXT"},
	{"attendance", "INTEGER"},
	{"home_team_score", "INTEGER"},
	{"visiting_team_score", "INTEGER"},
}

var sidePrefixes = []struct{ side, prefix string }{
	{HomeTeam, "home_team_"},
	{VisitingTeam, "visiting_team_"},
}

// GameColumnNames lists the games table columns after id, in insert order.
func GameColumnNames() []string {
	names := make([]string, 0, len(gameBaseColumns)+2*len(statColumns))
	for _, c := range gameBaseColumns {
		names = append(names, c.name)
	}
	for _, s := range sidePrefixes {
		for _, c := range statColumns {
			names = append(names, s.prefix+c.name)
		}
	}
	return names
}

func gamesSchema() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS games (\n\t\tid TEXT PRIMARY KEY")
	for _, c := range gameBaseColumns {
		fmt.Fprintf(&b, ",\n\t\t%s %s", c.name, c.typ)
	}
	for _, s := range sidePrefixes {
		for _, c := range statColumns {
			fmt.Fprintf(&b, ",\n\t\t%s%s %s", s.prefix, c.name, c.sqlType())
		}
	}
	b.WriteString("\n\t);")
	return b.String()
}

const gamesDBSchema = `
	CREATE TABLE IF NOT EXISTS teams (
		ncaa_id INTEGER PRIMARY KEY,
		team TEXT,
		url TEXT,
		stats_name TEXT,
		team_state TEXT,
		conference TEXT,
		division TEXT,
		twitter TEXT
	);

	CREATE TABLE IF NOT EXISTS officials (
		game_id TEXT REFERENCES games(id),
		official TEXT,
		PRIMARY KEY (game_id, official)
	);

	CREATE TABLE IF NOT EXISTS period_scores (
		game_id TEXT REFERENCES games(id),
		team TEXT,
		team_id INTEGER,
		period INTEGER,
		score INTEGER,
		PRIMARY KEY (game_id, team, period)
	);
	`

// BuildStats reports what BuildGamesDB loaded.
type BuildStats struct {
	Games   int
	Skipped int
}

// BuildGamesDB loads every saved livestats file under dataDir into a
// SQLite database. A game seen from both teams' directories is stored once
// with both team ids.
func BuildGamesDB(dbPath, dataDir string, teams []models.Team) (*BuildStats, error) {
	db, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := db.Exec(gamesSchema() + gamesDBSchema); err != nil {
		return nil, fmt.Errorf("games schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := insertTeams(tx, teams); err != nil {
		return nil, err
	}

	gameStmt, err := tx.Prepare(gameUpsertSQL())
	if err != nil {
		return nil, err
	}
	defer gameStmt.Close()

	byID := make(map[int]models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID()] = t
	}

	dirs, err := filepath.Glob(filepath.Join(dataDir, "*-*"))
	if err != nil {
		return nil, err
	}

	stats := &BuildStats{}
	for _, dir := range dirs {
		prefix, _, _ := strings.Cut(filepath.Base(dir), "-")
		id, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		team, ok := byID[id]
		if !ok {
			log.Printf("NCAA: no team %d for %s", id, dir)
			continue
		}

		seasons, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, s := range seasons {
			if !s.IsDir() {
				continue
			}
			files, err := filepath.Glob(filepath.Join(dir, s.Name(), "*.json"))
			if err != nil {
				return nil, err
			}
			for _, path := range files {
				if fi, err := os.Stat(path); err != nil || fi.Size() == 4 {
					stats.Skipped++
					continue
				}
				g, err := LoadGame(path)
				if err != nil || g == nil || !g.HasGame {
					log.Printf("NCAA: skipping %s: %v", path, err)
					stats.Skipped++
					continue
				}
				if err := insertGame(tx, gameStmt, g, s.Name(), team); err != nil {
					return nil, fmt.Errorf("%s: %w", path, err)
				}
				stats.Games++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stats, nil
}

func insertTeams(tx *sql.Tx, teams []models.Team) error {
	stmt, err := tx.Prepare(`INSERT INTO teams (ncaa_id, team, url, stats_name, team_state, conference, division, twitter)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ncaa_id) DO UPDATE SET team = excluded.team, url = excluded.url, stats_name = excluded.stats_name`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, t := range teams {
		if _, err := stmt.Exec(t.ID(), t.Name, t.URL, t.StatsName, t.State, t.Conference, t.Division, t.Twitter); err != nil {
			return fmt.Errorf("team %d: %w", t.ID(), err)
		}
	}
	return nil
}

func gameUpsertSQL() string {
	cols := GameColumnNames()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)+1), ", ")

	var updates []string
	for _, c := range cols {
		switch c {
		case "home_team_id", "visiting_team_id":
			updates = append(updates, fmt.Sprintf("%s = COALESCE(excluded.%s, games.%s)", c, c, c))
		default:
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	return fmt.Sprintf("INSERT INTO games (id, %s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "))
}

// sideTeamIDs assigns the directory's team to whichever side's name
// contains it.
func sideTeamIDs(g *Game, team models.Team) (home, visiting any) {
	switch {
	case strings.Contains(g.Game.HomeTeam.Name, team.Name):
		return team.ID(), nil
	case strings.Contains(g.Game.VisitingTeam.Name, team.Name):
		return nil, team.ID()
	}
	return nil, nil
}

func insertGame(tx *sql.Tx, stmt *sql.Stmt, g *Game, season string, team models.Team) error {
	id := g.ID()
	homeID, visitingID := sideTeamIDs(g, team)

	date := g.Game.Date
	if t, err := ParseDate(date); err == nil {
		date = t.Format("2006-01-02")
	}

	officials := g.Officials()
	args := []any{
		id, season,
		g.Game.HomeTeam.Name, homeID,
		g.Game.VisitingTeam.Name, visitingID,
		g.Game.Location, date, g.Game.StartTime,
		strings.Join(officials, ", "),
		g.Game.Attendance.Int(),
		g.Score(HomeTeam), g.Score(VisitingTeam),
	}
	for _, s := range sidePrefixes {
		totals := g.Totals(s.side)
		for _, c := range statColumns {
			args = append(args, c.value(totals[c.key].String()))
		}
	}
	if _, err := stmt.Exec(args...); err != nil {
		return err
	}

	for _, o := range officials {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO officials (game_id, official) VALUES (?, ?)`, id, o); err != nil {
			return err
		}
	}

	teamIDs := map[string]any{HomeTeam: homeID, VisitingTeam: visitingID}
	for _, s := range sidePrefixes {
		for i, score := range g.PeriodScores(s.side) {
			_, err := tx.Exec(`INSERT INTO period_scores (game_id, team, team_id, period, score) VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(game_id, team, period) DO UPDATE SET score = excluded.score,
					team_id = COALESCE(excluded.team_id, period_scores.team_id)`,
				id, g.TeamName(s.side), teamIDs[s.side], i+1, score)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
