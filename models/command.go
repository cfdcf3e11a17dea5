package models

import (
	"encoding/json"
	"time"
)

type CommandType string

const (
	CmdScrapeNow CommandType = "scrape_now"
	CmdRunJob    CommandType = "run_job"
	CmdPause     CommandType = "pause"
	CmdResume    CommandType = "resume"
	CmdRunBios   CommandType = "run_bios"
)

type Command struct {
	ID          int64           `json:"id" db:"id"`
	Command     CommandType     `json:"command" db:"command"`
	Params      json.RawMessage `json:"params" db:"params"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at" db:"processed_at"`
}

type CommandParams struct {
	Job    string `json:"job,omitempty"`
	Season string `json:"season,omitempty"`
	Teams  []int  `json:"teams,omitempty"`
}
