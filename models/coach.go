package models

// CoachBio is a coaches.csv row with the bio page's extracted text.
type CoachBio struct {
	TeamID int    `json:"team_id"`
	Team   string `json:"team"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Season string `json:"season"`
	Text   string `json:"text"`
}

type Position struct {
	College   string `json:"college"`
	Title     string `json:"title"`
	StartYear *int   `json:"start_year"`
	EndYear   *int   `json:"end_year"`

	// Filled in by the college merge step.
	NcaaID       string `json:"ncaa_id,omitempty"`
	CollegeClean string `json:"college_clean,omitempty"`
	Category     string `json:"category,omitempty"`
	Conference   string `json:"conference,omitempty"`
	Division     string `json:"division,omitempty"`
}

type Education struct {
	College string `json:"college"`
	Degree  string `json:"degree"`
	Year    *int   `json:"year"`
}

type PlayingCareer struct {
	Team      string `json:"team"`
	Level     string `json:"level"`
	StartYear *int   `json:"start_year"`
	EndYear   *int   `json:"end_year"`
}

// CoachHistory is the structured career extracted from a bio.
type CoachHistory struct {
	TeamID        int             `json:"team_id"`
	Team          string          `json:"team"`
	Name          string          `json:"name"`
	Title         string          `json:"title"`
	URL           string          `json:"url"`
	Season        string          `json:"season"`
	Positions     []Position      `json:"positions"`
	Education     []Education     `json:"education"`
	PlayingCareer []PlayingCareer `json:"playing_career"`
}

// HasData reports whether a previous extraction produced anything worth keeping.
func (h CoachHistory) HasData() bool {
	return len(h.Positions) > 0 || len(h.Education) > 0 || len(h.PlayingCareer) > 0
}

type CoachingChange struct {
	Team       string
	Conference string
	Coach      string
	Status     string
	URL        string
	Date       string
}

var CoachingChangeCSVHeader = []string{"team", "conference", "coach", "status", "url", "date"}

func (c CoachingChange) CSVRow() []string {
	return []string{c.Team, c.Conference, c.Coach, c.Status, c.URL, c.Date}
}
