package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun is one execution of a configured job.
type ScrapeRun struct {
	ID             int64      `json:"id" db:"id"`
	JobID          string     `json:"job_id" db:"job_id"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at" db:"finished_at"`
	Status         RunStatus  `json:"status" db:"status"`
	RecordsFound   int        `json:"records_found" db:"records_found"`
	RecordsWritten int        `json:"records_written" db:"records_written"`
	ErrorsCount    int        `json:"errors_count" db:"errors_count"`
	Outputs        []string   `json:"outputs,omitempty" db:"-"`
}

// AddOutput records a file written during the run.
func (r *ScrapeRun) AddOutput(path string) {
	r.Outputs = append(r.Outputs, path)
}

type JobStats struct {
	JobID             string     `json:"job_id" db:"job_id"`
	LastRunAt         *time.Time `json:"last_run_at" db:"last_run_at"`
	LastRunStatus     string     `json:"last_run_status" db:"last_run_status"`
	TotalRuns         int        `json:"total_runs" db:"total_runs"`
	TotalRecords      int        `json:"total_records" db:"total_records"`
	SuccessRate       float64    `json:"success_rate" db:"success_rate"`
	AvgRunDurationSec int        `json:"avg_run_duration_sec" db:"avg_run_duration_sec"`
}
