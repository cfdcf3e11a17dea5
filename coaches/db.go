package coaches

import (
	"fmt"
	"log"

	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

const coachDBSchema = `
CREATE TABLE IF NOT EXISTS coaches (
	name TEXT PRIMARY KEY,
	team_id INTEGER,
	team TEXT,
	title TEXT,
	url TEXT,
	season TEXT
);

CREATE TABLE IF NOT EXISTS positions (
	coach_name TEXT REFERENCES coaches(name),
	college TEXT,
	title TEXT,
	start_year INTEGER,
	end_year INTEGER
);

CREATE TABLE IF NOT EXISTS education (
	coach_name TEXT REFERENCES coaches(name),
	college TEXT,
	degree TEXT,
	year INTEGER
);

CREATE TABLE IF NOT EXISTS playing (
	coach_name TEXT REFERENCES coaches(name),
	team TEXT,
	level TEXT,
	start_year INTEGER,
	end_year INTEGER
);

CREATE INDEX IF NOT EXISTS idx_positions_coach ON positions(coach_name);
CREATE INDEX IF NOT EXISTS idx_education_coach ON education(coach_name);
CREATE INDEX IF NOT EXISTS idx_playing_coach ON playing(coach_name);
`

// CoachDBCounts is the row count of each coach table after a build.
type CoachDBCounts struct {
	Coaches   int
	Positions int
	Education int
	Playing   int
}

// BuildCoachDB loads histories into dbPath. A coach that appears again
// replaces the earlier row and its child rows.
func BuildCoachDB(dbPath string, histories []models.CoachHistory) (*CoachDBCounts, error) {
	db, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := db.Exec(coachDBSchema); err != nil {
		return nil, fmt.Errorf("coach schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	coachStmt, err := tx.Prepare(`
		INSERT INTO coaches (name, team_id, team, title, url, season)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			team_id = excluded.team_id,
			team = excluded.team,
			title = excluded.title,
			url = excluded.url,
			season = excluded.season
	`)
	if err != nil {
		return nil, err
	}
	defer coachStmt.Close()

	posStmt, err := tx.Prepare(`INSERT INTO positions (coach_name, college, title, start_year, end_year) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer posStmt.Close()

	eduStmt, err := tx.Prepare(`INSERT INTO education (coach_name, college, degree, year) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer eduStmt.Close()

	playStmt, err := tx.Prepare(`INSERT INTO playing (coach_name, team, level, start_year, end_year) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer playStmt.Close()

	for _, h := range histories {
		if _, err := coachStmt.Exec(h.Name, h.TeamID, h.Team, h.Title, h.URL, h.Season); err != nil {
			return nil, fmt.Errorf("insert coach %s: %w", h.Name, err)
		}
		for _, table := range []string{"positions", "education", "playing"} {
			if _, err := tx.Exec(`DELETE FROM `+table+` WHERE coach_name = ?`, h.Name); err != nil {
				return nil, err
			}
		}

		for _, p := range h.Positions {
			if _, err := posStmt.Exec(h.Name, p.College, p.Title, p.StartYear, p.EndYear); err != nil {
				return nil, fmt.Errorf("insert position for %s: %w", h.Name, err)
			}
		}
		for _, e := range h.Education {
			if _, err := eduStmt.Exec(h.Name, e.College, e.Degree, e.Year); err != nil {
				return nil, fmt.Errorf("insert education for %s: %w", h.Name, err)
			}
		}
		for _, pc := range h.PlayingCareer {
			if _, err := playStmt.Exec(h.Name, pc.Team, pc.Level, pc.StartYear, pc.EndYear); err != nil {
				return nil, fmt.Errorf("insert playing career for %s: %w", h.Name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	counts := &CoachDBCounts{}
	for table, dst := range map[string]*int{
		"coaches":   &counts.Coaches,
		"positions": &counts.Positions,
		"education": &counts.Education,
		"playing":   &counts.Playing,
	} {
		if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(dst); err != nil {
			return nil, err
		}
	}
	log.Printf("Coaches: %s has %d coaches, %d positions, %d education, %d playing",
		dbPath, counts.Coaches, counts.Positions, counts.Education, counts.Playing)
	return counts, nil
}
