package wnba

import (
	"database/sql"
	"fmt"

	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

// Store is the wnba.db database. Each table keeps a few typed columns for
// joins and the full source object in data.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS teams (
		id INTEGER PRIMARY KEY,
		data TEXT
	);

	CREATE TABLE IF NOT EXISTS rosters (
		pid INTEGER PRIMARY KEY,
		team_id INTEGER REFERENCES teams(id),
		fn TEXT,
		ln TEXT,
		num TEXT,
		pos TEXT,
		ht TEXT,
		wt TEXT,
		data TEXT
	);

	CREATE TABLE IF NOT EXISTS following (
		id TEXT,
		account_name TEXT,
		join_date TEXT,
		data TEXT,
		PRIMARY KEY (id, account_name)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) UpsertTeams(teams []models.WNBATeam) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO teams (id, data) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET data = excluded.data`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, t := range teams {
			if _, err := stmt.Exec(t.ID, string(t.Data)); err != nil {
				return fmt.Errorf("team %d: %w", t.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) UpsertPlayers(players []models.WNBAPlayer) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO rosters (pid, team_id, fn, ln, num, pos, ht, wt, data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(pid) DO UPDATE SET
				team_id = excluded.team_id, fn = excluded.fn, ln = excluded.ln,
				num = excluded.num, pos = excluded.pos, ht = excluded.ht,
				wt = excluded.wt, data = excluded.data`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range players {
			_, err := stmt.Exec(p.PID, p.TeamID, p.FirstName, p.LastName,
				p.Jersey.String(), p.Position.String(), p.Height.String(), p.Weight.String(), string(p.Data))
			if err != nil {
				return fmt.Errorf("player %d: %w", p.PID, err)
			}
		}
		return nil
	})
}

func (s *Store) UpsertFollowing(rows []models.Following) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO following (id, account_name, join_date, data)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id, account_name) DO UPDATE SET
				join_date = excluded.join_date, data = excluded.data`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range rows {
			if _, err := stmt.Exec(f.ID, f.AccountName, f.JoinDate, string(f.Data)); err != nil {
				return fmt.Errorf("following %s: %w", f.ID, err)
			}
		}
		return nil
	})
}

// TeamRoster returns the players stored for a team, ordered by last name.
func (s *Store) TeamRoster(teamID int) ([]models.WNBAPlayer, error) {
	rows, err := s.db.Query(`SELECT pid, team_id, fn, ln, num, pos, ht, wt, data
		FROM rosters WHERE team_id = ? ORDER BY ln, fn`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WNBAPlayer
	for rows.Next() {
		var (
			p                models.WNBAPlayer
			num, pos, ht, wt string
			data             string
		)
		if err := rows.Scan(&p.PID, &p.TeamID, &p.FirstName, &p.LastName, &num, &pos, &ht, &wt, &data); err != nil {
			return nil, err
		}
		p.Jersey, p.Position, p.Height, p.Weight = models.Scalar(num), models.Scalar(pos), models.Scalar(ht), models.Scalar(wt)
		p.Data = []byte(data)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count returns the number of rows in one of the store's tables.
func (s *Store) Count(table string) (int, error) {
	switch table {
	case "teams", "rosters", "following":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	return n, err
}

func (s *Store) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
