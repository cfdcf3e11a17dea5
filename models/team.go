package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexInt decodes a JSON number or a numeric string. teams.json mixes both.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// Team is one entry of teams.json.
type Team struct {
	NcaaID     FlexInt `json:"ncaa_id"`
	Name       string  `json:"team"`
	URL        string  `json:"url"`
	StatsName  string  `json:"stats_name,omitempty"`
	State      string  `json:"team_state,omitempty"`
	Conference string  `json:"conference,omitempty"`
	Division   string  `json:"division,omitempty"`
	Twitter    string  `json:"twitter,omitempty"`
}

func (t Team) ID() int {
	return int(t.NcaaID)
}

// TeamFailure records a team that produced no usable roster.
type TeamFailure struct {
	TeamID int    `json:"team_id"`
	Team   string `json:"team"`
	URL    string `json:"url,omitempty"`
	Reason string `json:"reason,omitempty"`
}
