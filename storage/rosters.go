package storage

import (
	"database/sql"
	"time"

	"wbb_scrooper/models"
)

// SavePlayers upserts a scraped roster.
func (s *SQLiteStore) SavePlayers(players []models.Player) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO players (team_id, team, season, player_id, name, jersey, position, height,
			academic_year, hometown, high_school, previous_school, major, url, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(team_id, season, name) DO UPDATE SET
			jersey = excluded.jersey,
			position = excluded.position,
			height = excluded.height,
			academic_year = excluded.academic_year,
			hometown = COALESCE(NULLIF(excluded.hometown, ''), hometown),
			high_school = COALESCE(NULLIF(excluded.high_school, ''), high_school),
			previous_school = COALESCE(NULLIF(excluded.previous_school, ''), previous_school),
			major = COALESCE(NULLIF(excluded.major, ''), major),
			url = COALESCE(NULLIF(excluded.url, ''), url),
			scraped_at = excluded.scraped_at`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range players {
		if _, err := stmt.Exec(p.TeamID, p.Team, p.Season, p.PlayerID, p.Name, p.Jersey, p.Position, p.Height,
			p.AcademicYear, p.Hometown, p.HighSchool, p.PreviousSchool, p.Major, p.URL, now); err != nil {
			return 0, err
		}
	}
	return len(players), tx.Commit()
}

func (s *SQLiteStore) SaveCoaches(coaches []models.Coach) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO coaches (team_id, team, season, name, title, url, experience, alma_mater, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(team_id, season, name, title) DO UPDATE SET
			url = COALESCE(NULLIF(excluded.url, ''), url),
			experience = COALESCE(NULLIF(excluded.experience, ''), experience),
			alma_mater = COALESCE(NULLIF(excluded.alma_mater, ''), alma_mater),
			scraped_at = excluded.scraped_at`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range coaches {
		if _, err := stmt.Exec(c.TeamID, c.Team, c.Season, c.Name, c.Title, c.URL, c.Experience, c.AlmaMater, now); err != nil {
			return 0, err
		}
	}
	return len(coaches), tx.Commit()
}

func (s *SQLiteStore) GetPlayers(teamID int, season string) ([]models.Player, error) {
	rows, err := s.db.Query(`
		SELECT team_id, team, season, player_id, name, jersey, position, height, academic_year,
			hometown, high_school, previous_school, major, url
		FROM players WHERE team_id = ? AND season = ? ORDER BY name`, teamID, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.TeamID, &p.Team, &p.Season, &p.PlayerID, &p.Name, &p.Jersey, &p.Position,
			&p.Height, &p.AcademicYear, &p.Hometown, &p.HighSchool, &p.PreviousSchool, &p.Major, &p.URL); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// GetCoachesWithURL returns coaches of the most recent scraped season that
// have a bio link. Never-checked bios come first, then the least recently
// checked, so successive batches cycle through every coach.
func (s *SQLiteStore) GetCoachesWithURL(limit int) ([]models.Coach, error) {
	rows, err := s.db.Query(`
		SELECT c.team_id, c.team, c.season, c.name, c.title, c.url
		FROM coaches c
		LEFT JOIN bio_snapshots b ON b.url = c.url
		WHERE c.url != '' AND c.season = (SELECT MAX(season) FROM coaches)
		ORDER BY b.checked_at IS NOT NULL, b.checked_at, c.team_id, c.name
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coaches []models.Coach
	for rows.Next() {
		var c models.Coach
		if err := rows.Scan(&c.TeamID, &c.Team, &c.Season, &c.Name, &c.Title, &c.URL); err != nil {
			return nil, err
		}
		coaches = append(coaches, c)
	}
	return coaches, rows.Err()
}

// GetBioHash returns the last stored content hash for a bio url, or "" if unseen.
func (s *SQLiteStore) GetBioHash(url string) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRow(`SELECT content_hash FROM bio_snapshots WHERE url = ?`, url).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash.String, err
}

func (s *SQLiteStore) SaveBioSnapshot(url, hash, s3Key string, changed bool) error {
	now := time.Now()
	var changedAt any
	if changed {
		changedAt = now
	}
	_, err := s.db.Exec(`
		INSERT INTO bio_snapshots (url, content_hash, s3_key, checked_at, changed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			content_hash = excluded.content_hash,
			s3_key = COALESCE(NULLIF(excluded.s3_key, ''), s3_key),
			checked_at = excluded.checked_at,
			changed_at = COALESCE(excluded.changed_at, changed_at)`,
		url, hash, s3Key, now, changedAt)
	return err
}
