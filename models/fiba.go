package models

import "strconv"

// FIBAGame is one game from the GDAP feed flattened to named columns.
type FIBAGame map[string]string

// FIBABoxscoreRow is a player line scraped from an event boxscore fragment.
type FIBABoxscoreRow struct {
	Cells     []string
	Country   string
	Vs        string
	TeamScore string
	VsScore   string
	Date      string
}

func (r FIBABoxscoreRow) CSVRow() []string {
	out := make([]string, 0, len(r.Cells)+5)
	out = append(out, r.Cells...)
	return append(out, r.Country, r.Vs, r.TeamScore, r.VsScore, r.Date)
}

// FIBAPlayerStat is a player line from a game page, keyed by the table's headers.
type FIBAPlayerStat struct {
	Team            string
	GameURL         string
	GameID          string
	CompetitionName string
	TeamACode       string
	TeamBCode       string
	Year            int
	Columns         []string // table header order
	Stats           map[string]string
}

// Shot is one attempt from a shot-chart export.
type Shot struct {
	Team  string
	X     float64
	Y     float64
	Made  bool
	Three bool
}

// ShotSummary aggregates shots per team.
type ShotSummary struct {
	Team      string
	Attempts  int
	Makes     int
	FGPct     float64
	ThreeAtt  int
	ThreeMade int
	ThreePct  float64
}

func (s ShotSummary) CSVRow() []string {
	return []string{
		s.Team, itoa(s.Attempts), itoa(s.Makes), pct(s.FGPct),
		itoa(s.ThreeAtt), itoa(s.ThreeMade), pct(s.ThreePct),
	}
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
