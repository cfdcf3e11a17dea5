package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"wbb_scrooper/models"
)

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens a single-writer database file with WAL and a busy timeout.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		job_id TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		records_found INTEGER,
		records_written INTEGER,
		errors_count INTEGER
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		job_id TEXT
	);

	CREATE TABLE IF NOT EXISTS job_stats (
		job_id TEXT PRIMARY KEY,
		last_run_at DATETIME,
		last_run_status TEXT,
		total_runs INTEGER,
		total_records INTEGER,
		success_rate REAL,
		avg_run_duration_sec INTEGER
	);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY,
		command TEXT,
		params JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY,
		team_id INTEGER NOT NULL,
		team TEXT,
		season TEXT NOT NULL,
		player_id TEXT,
		name TEXT NOT NULL,
		jersey TEXT,
		position TEXT,
		height TEXT,
		academic_year TEXT,
		hometown TEXT,
		high_school TEXT,
		previous_school TEXT,
		major TEXT,
		url TEXT,
		scraped_at DATETIME,
		UNIQUE(team_id, season, name)
	);

	CREATE TABLE IF NOT EXISTS coaches (
		id INTEGER PRIMARY KEY,
		team_id INTEGER NOT NULL,
		team TEXT,
		season TEXT NOT NULL,
		name TEXT NOT NULL,
		title TEXT,
		url TEXT,
		experience TEXT,
		alma_mater TEXT,
		scraped_at DATETIME,
		UNIQUE(team_id, season, name, title)
	);

	CREATE TABLE IF NOT EXISTS bio_snapshots (
		url TEXT PRIMARY KEY,
		content_hash TEXT,
		s3_key TEXT,
		checked_at DATETIME,
		changed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_commands_pending ON commands(processed_at) WHERE processed_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON scrape_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_players_team ON players(team_id, season);
	CREATE INDEX IF NOT EXISTS idx_coaches_team ON coaches(team_id, season);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Runs and logs
// =============================================================================

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO scrape_runs (job_id, started_at, status, records_found, records_written, errors_count)
		VALUES (?, ?, ?, 0, 0, 0)`,
		run.JobID, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, status = ?, records_found = ?,
			records_written = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.RecordsFound, run.RecordsWritten, run.ErrorsCount, run.ID)
	return err
}

func (s *SQLiteStore) GetRun(id int64) (*models.ScrapeRun, error) {
	var run models.ScrapeRun
	err := s.db.QueryRow(`
		SELECT id, job_id, started_at, finished_at, status, records_found, records_written, errors_count
		FROM scrape_runs WHERE id = ?`, id).Scan(
		&run.ID, &run.JobID, &run.StartedAt, &run.FinishedAt, &run.Status,
		&run.RecordsFound, &run.RecordsWritten, &run.ErrorsCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, jobID string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, job_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, jobID)
	return err
}

func (s *SQLiteStore) GetRunLogs(runID int64) ([]models.ScrapeLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message, job_id
		FROM scrape_logs WHERE run_id = ? ORDER BY timestamp, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ScrapeLog
	for rows.Next() {
		var l models.ScrapeLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message, &l.JobID); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) UpdateJobStats(jobID string) error {
	_, err := s.db.Exec(`
		INSERT INTO job_stats (job_id, last_run_at, last_run_status, total_runs,
			total_records, success_rate, avg_run_duration_sec)
		SELECT
			?,
			(SELECT started_at FROM scrape_runs WHERE job_id = ? ORDER BY started_at DESC LIMIT 1),
			(SELECT status FROM scrape_runs WHERE job_id = ? ORDER BY started_at DESC LIMIT 1),
			(SELECT COUNT(*) FROM scrape_runs WHERE job_id = ?),
			(SELECT COALESCE(SUM(records_written), 0) FROM scrape_runs WHERE job_id = ?),
			(SELECT CAST(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS REAL) /
				NULLIF(COUNT(*), 0) FROM scrape_runs WHERE job_id = ?),
			(SELECT AVG(CAST((julianday(finished_at) - julianday(started_at)) * 86400 AS INTEGER))
				FROM scrape_runs WHERE job_id = ? AND finished_at IS NOT NULL)
		ON CONFLICT(job_id) DO UPDATE SET
			last_run_at = excluded.last_run_at,
			last_run_status = excluded.last_run_status,
			total_runs = excluded.total_runs,
			total_records = excluded.total_records,
			success_rate = excluded.success_rate,
			avg_run_duration_sec = excluded.avg_run_duration_sec`,
		jobID, jobID, jobID, jobID, jobID, jobID, jobID)
	return err
}

func (s *SQLiteStore) GetJobStats(jobID string) (*models.JobStats, error) {
	var st models.JobStats
	var lastStatus sql.NullString
	var successRate sql.NullFloat64
	var avgDur sql.NullInt64
	err := s.db.QueryRow(`
		SELECT job_id, last_run_at, last_run_status, total_runs, total_records, success_rate, avg_run_duration_sec
		FROM job_stats WHERE job_id = ?`, jobID).Scan(
		&st.JobID, &st.LastRunAt, &lastStatus, &st.TotalRuns, &st.TotalRecords, &successRate, &avgDur)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.LastRunStatus = lastStatus.String
	st.SuccessRate = successRate.Float64
	st.AvgRunDurationSec = int(avgDur.Int64)
	return &st, nil
}

// ListJobStats returns the stats row of every job that has run.
func (s *SQLiteStore) ListJobStats() ([]models.JobStats, error) {
	rows, err := s.db.Query(`
		SELECT job_id, last_run_at, last_run_status, total_runs, total_records, success_rate, avg_run_duration_sec
		FROM job_stats ORDER BY job_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.JobStats
	for rows.Next() {
		var st models.JobStats
		var lastStatus sql.NullString
		var successRate sql.NullFloat64
		var avgDur sql.NullInt64
		if err := rows.Scan(&st.JobID, &st.LastRunAt, &lastStatus, &st.TotalRuns, &st.TotalRecords, &successRate, &avgDur); err != nil {
			return nil, err
		}
		st.LastRunStatus = lastStatus.String
		st.SuccessRate = successRate.Float64
		st.AvgRunDurationSec = int(avgDur.Int64)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) RecentRuns(limit int) ([]models.ScrapeRun, error) {
	rows, err := s.db.Query(`
		SELECT id, job_id, started_at, finished_at, status, records_found, records_written, errors_count
		FROM scrape_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		var run models.ScrapeRun
		if err := rows.Scan(&run.ID, &run.JobID, &run.StartedAt, &run.FinishedAt, &run.Status,
			&run.RecordsFound, &run.RecordsWritten, &run.ErrorsCount); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecentLogs returns the newest log lines first. An empty level matches all.
func (s *SQLiteStore) RecentLogs(limit int, level models.LogLevel) ([]models.ScrapeLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message, job_id
		FROM scrape_logs WHERE (? = '' OR level = ?)
		ORDER BY timestamp DESC, id DESC LIMIT ?`, level, level, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ScrapeLog
	for rows.Next() {
		var l models.ScrapeLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message, &l.JobID); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// =============================================================================
// Commands
// =============================================================================

func (s *SQLiteStore) EnqueueCommand(cmd models.CommandType, params *models.CommandParams) (int64, error) {
	var raw any
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return 0, fmt.Errorf("marshal params: %w", err)
		}
		raw = string(b)
	}
	result, err := s.db.Exec(`INSERT INTO commands (command, params) VALUES (?, ?)`, cmd, raw)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) GetPendingCommands() ([]models.Command, error) {
	rows, err := s.db.Query(`
		SELECT id, command, params, created_at, processed_at
		FROM commands WHERE processed_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []models.Command
	for rows.Next() {
		var cmd models.Command
		var params sql.NullString
		if err := rows.Scan(&cmd.ID, &cmd.Command, &params, &cmd.CreatedAt, &cmd.ProcessedAt); err != nil {
			return nil, err
		}
		if params.Valid {
			cmd.Params = json.RawMessage(params.String)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

func (s *SQLiteStore) MarkCommandProcessed(id int64) error {
	_, err := s.db.Exec(`UPDATE commands SET processed_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

func (s *SQLiteStore) ParseCommandParams(cmd *models.Command) (*models.CommandParams, error) {
	if cmd.Params == nil || string(cmd.Params) == "null" {
		return &models.CommandParams{}, nil
	}
	var params models.CommandParams
	if err := json.Unmarshal(cmd.Params, &params); err != nil {
		return nil, err
	}
	return &params, nil
}
