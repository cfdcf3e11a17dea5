package models

// Player is one roster row.
type Player struct {
	TeamID         int    `json:"team_id" db:"team_id"`
	Team           string `json:"team" db:"team"`
	Season         string `json:"season" db:"season"`
	PlayerID       string `json:"player_id,omitempty" db:"player_id"`
	Name           string `json:"name" db:"name"`
	Jersey         string `json:"jersey" db:"jersey"`
	Position       string `json:"position" db:"position"`
	Height         string `json:"height" db:"height"`
	AcademicYear   string `json:"academic_year" db:"academic_year"`
	Hometown       string `json:"hometown" db:"hometown"`
	HighSchool     string `json:"high_school" db:"high_school"`
	PreviousSchool string `json:"previous_school" db:"previous_school"`
	Major          string `json:"major,omitempty" db:"major"`
	URL            string `json:"url" db:"url"`
}

var PlayerCSVHeader = []string{
	"team", "team_id", "season", "jersey", "name", "position", "height",
	"academic_year", "hometown", "high_school", "previous_school", "url",
}

func (p Player) CSVRow() []string {
	return []string{
		p.Team, itoa(p.TeamID), p.Season, p.Jersey, p.Name, p.Position, p.Height,
		p.AcademicYear, p.Hometown, p.HighSchool, p.PreviousSchool, p.URL,
	}
}

// Coach is one coaching-staff row.
type Coach struct {
	TeamID     int    `json:"team_id" db:"team_id"`
	Team       string `json:"team" db:"team"`
	Season     string `json:"season" db:"season"`
	Name       string `json:"name" db:"name"`
	Title      string `json:"title" db:"title"`
	URL        string `json:"url" db:"url"`
	Experience string `json:"experience,omitempty" db:"experience"`
	AlmaMater  string `json:"alma_mater,omitempty" db:"alma_mater"`
}

var CoachCSVHeader = []string{"team_id", "team", "name", "title", "url", "season"}

func (c Coach) CSVRow() []string {
	return []string{itoa(c.TeamID), c.Team, c.Name, c.Title, c.URL, c.Season}
}
