package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Scalar decodes any JSON scalar into its string form. Sidearm feeds
// send the same field as a number in one game and a string in the next.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*s = ""
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Scalar(v)
	default:
		*s = Scalar(b)
	}
	return nil
}

func (s Scalar) String() string { return string(s) }

// Int returns the scalar as an int, or 0 if it is not numeric.
func (s Scalar) Int() int {
	n, err := strconv.Atoi(string(s))
	if err != nil {
		f, ferr := strconv.ParseFloat(string(s), 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

// LiveGame is the decoded /api/livestats?detail=full payload.
type LiveGame struct {
	Game    LiveGameInfo                          `json:"Game"`
	Stats   map[string]LiveTeamStats              `json:"Stats"`
	Leaders map[string]map[string]json.RawMessage `json:"Leaders"`
	Plays   []LivePlay                            `json:"Plays"`
}

type LiveGameInfo struct {
	Date         string       `json:"Date"`
	StartTime    string       `json:"StartTime"`
	Location     string       `json:"Location"`
	Officials    string       `json:"Officials"`
	Attendance   Scalar       `json:"Attendance"`
	HomeTeam     LiveTeamInfo `json:"HomeTeam"`
	VisitingTeam LiveTeamInfo `json:"VisitingTeam"`
}

type LiveTeamInfo struct {
	Name           string   `json:"Name"`
	Score          Scalar   `json:"Score"`
	PeriodScores   []Scalar `json:"PeriodScores"`
	PeriodTimeouts []Scalar `json:"PeriodTimeouts"`
}

type LiveTeamStats struct {
	Totals struct {
		Values map[string]Scalar `json:"Values"`
	} `json:"Totals"`
	PlayerGroups struct {
		Players struct {
			Values []map[string]json.RawMessage `json:"Values"`
		} `json:"Players"`
	} `json:"PlayerGroups"`
	PeriodStats []struct {
		Values map[string]Scalar `json:"Values"`
	} `json:"PeriodStats"`
}

type LivePlay struct {
	ID           Scalar      `json:"Id"`
	Type         string      `json:"Type"`
	Action       string      `json:"Action"`
	Period       Scalar      `json:"Period"`
	ClockSeconds Scalar      `json:"ClockSeconds"`
	Team         string      `json:"Team"`
	Player       *LivePlayer `json:"Player"`
}

type LivePlayer struct {
	Team          string `json:"Team"`
	UniformNumber Scalar `json:"UniformNumber"`
}

// PlayRow is one play flattened for CSV export.
type PlayRow struct {
	NcaaID   int
	GameID   string
	Date     string
	Team     string
	Opponent string
	Type     string
	Action   string
	Period   string
	Seconds  string
	Player   string
	PlayID   string
}

var PlayCSVHeader = []string{
	"ncaa_id", "game_id", "date", "team", "opponent", "type", "action",
	"period", "seconds", "player", "play_id",
}

func (r PlayRow) CSVRow() []string {
	return []string{
		itoa(r.NcaaID), r.GameID, r.Date, r.Team, r.Opponent, r.Type, r.Action,
		r.Period, r.Seconds, r.Player, r.PlayID,
	}
}

// TurnoverRow is a TURNOVER play.
type TurnoverRow struct {
	PlayRow
}

var TurnoverCSVHeader = []string{
	"ncaa_id", "game_id", "date", "team", "opponent", "period", "seconds", "player", "play_id",
}

func (r TurnoverRow) CSVRow() []string {
	return []string{
		itoa(r.NcaaID), r.GameID, r.Date, r.Team, r.Opponent, r.Period, r.Seconds, r.Player, r.PlayID,
	}
}

// LayupRow is a LAYUP play by the scraped team itself.
type LayupRow struct {
	PlayRow
}

var LayupCSVHeader = []string{
	"ncaa_id", "game_id", "date", "team", "opponent", "action", "period", "seconds", "player", "play_id",
}

func (r LayupRow) CSVRow() []string {
	return []string{
		itoa(r.NcaaID), r.GameID, r.Date, r.Team, r.Opponent, r.Action, r.Period, r.Seconds, r.Player, r.PlayID,
	}
}

// OfficialGameRow is the per-game officials and fouls summary.
type OfficialGameRow struct {
	NcaaID            int
	GameID            string
	Date              string
	StartTime         string
	Location          string
	Home              string
	HomeFouls         string
	HomeTechnicals    string
	Visitor           string
	VisitorFouls      string
	VisitorTechnicals string
	Officials         string
}

var OfficialGameCSVHeader = []string{
	"ncaa_id", "game_id", "date", "start_time", "location", "home", "home_fouls", "home_technicals",
	"visitor", "visitor_fouls", "visitor_technicals", "officials",
}

func (r OfficialGameRow) CSVRow() []string {
	return []string{
		itoa(r.NcaaID), r.GameID, r.Date, r.StartTime, r.Location, r.Home, r.HomeFouls, r.HomeTechnicals,
		r.Visitor, r.VisitorFouls, r.VisitorTechnicals, r.Officials,
	}
}

// OfficiatedGame is an officials row after conversion to JSON.
type OfficiatedGame struct {
	NcaaID            int      `json:"ncaa_id"`
	GameID            int      `json:"game_id"`
	Date              string   `json:"date"`
	StartTime         string   `json:"start_time,omitempty"`
	Location          string   `json:"location,omitempty"`
	Home              string   `json:"home"`
	HomeFouls         int      `json:"home_fouls"`
	HomeTechnicals    int      `json:"home_technicals"`
	Visitor           string   `json:"visitor"`
	VisitorFouls      int      `json:"visitor_fouls"`
	VisitorTechnicals int      `json:"visitor_technicals"`
	Officials         []string `json:"officials"`
	Season            string   `json:"season,omitempty"`
}

func (g OfficiatedGame) TotalFouls() int {
	return g.HomeFouls + g.VisitorFouls
}

func (g OfficiatedGame) Technicals() int {
	return g.HomeTechnicals + g.VisitorTechnicals
}

func (g OfficiatedGame) HasOfficial(name string) bool {
	for _, o := range g.Officials {
		if o == name {
			return true
		}
	}
	return false
}
