package coaches

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"wbb_scrooper/config"
	"wbb_scrooper/export"
	"wbb_scrooper/identity"
	"wbb_scrooper/models"
)

const (
	CollegesFile = "distinct_colleges.csv"
	MergedFile   = "coaching_histories_merged.csv"
)

var CollegeCSVHeader = []string{"college", "ncaa_id", "college_clean", "category"}

// CheckColleges appends every position college missing from the distinct
// colleges file, with the name as its clean name and no id or category. It
// returns the added names in sorted order.
func CheckColleges(histories []models.CoachHistory, collegesPath string) ([]string, error) {
	rows, err := export.ReadCSVMaps(collegesPath)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(rows))
	for _, row := range rows {
		if name := strings.TrimSpace(row["college"]); name != "" {
			known[name] = true
		}
	}

	missing := make(map[string]bool)
	for _, h := range histories {
		for _, p := range h.Positions {
			name := strings.TrimSpace(p.College)
			if name != "" && !known[name] {
				missing[name] = true
			}
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	added := make([]string, 0, len(missing))
	for name := range missing {
		added = append(added, name)
	}
	sort.Strings(added)

	out := make([][]string, 0, len(rows)+len(added))
	for _, row := range rows {
		out = append(out, []string{row["college"], row["ncaa_id"], row["college_clean"], row["category"]})
	}
	for _, name := range added {
		log.Printf("Coaches: adding college %s", name)
		out = append(out, []string{name, "", name, ""})
	}
	return added, export.WriteCSV(collegesPath, CollegeCSVHeader, out)
}

// LoadColleges reads distinct_colleges.csv into an index.
func LoadColleges(path string) (*identity.CollegeIndex, error) {
	rows, err := export.ReadCSVMaps(path)
	if err != nil {
		return nil, err
	}
	colleges := make([]identity.College, 0, len(rows))
	for _, row := range rows {
		id, _ := strconv.Atoi(strings.TrimSpace(row["ncaa_id"]))
		colleges = append(colleges, identity.College{
			Name:   strings.TrimSpace(row["college"]),
			Clean:  row["college_clean"],
			NcaaID: id,
			Extra:  map[string]string{"category": row["category"]},
		})
	}
	return identity.NewCollegeIndex(colleges), nil
}

// ============================================================================
// Title standardization
// ============================================================================

type titleKey struct {
	coach, college, title, start, end string
}

// Standardization maps a coach's position to its standardized title.
type Standardization map[titleKey]string

// LoadStandardization reads positions_standardized.csv. "NA" years are
// treated as missing.
func LoadStandardization(path string) (Standardization, error) {
	rows, err := export.ReadCSVMaps(path)
	if err != nil {
		return nil, err
	}
	std := make(Standardization, len(rows))
	for _, row := range rows {
		key := titleKey{
			coach:   row["name"],
			college: row["position_college"],
			title:   row["position_title"],
			start:   naBlank(row["position_start"]),
			end:     naBlank(row["position_end"]),
		}
		std[key] = row["position_title_standardized"]
	}
	return std, nil
}

func naBlank(s string) string {
	if s == "NA" {
		return ""
	}
	return s
}

func yearString(y *int) string {
	if y == nil || *y == 0 {
		return ""
	}
	return strconv.Itoa(*y)
}

func (s Standardization) lookup(coach string, p models.Position) string {
	return s[titleKey{coach, p.College, p.Title, yearString(p.StartYear), yearString(p.EndYear)}]
}

// ============================================================================
// Merge
// ============================================================================

// MergedPosition is one row of coaching_histories_merged.csv.
type MergedPosition struct {
	Coach             string
	College           string
	Title             string
	TeamID            int
	StartYear         *int
	EndYear           *int
	TitleStandardized string
	CollegeClean      string
	Category          string
	TeamState         string
	Conference        string
	Division          string
}

var MergedCSVHeader = []string{
	"coach", "college", "title", "team_id", "start_year", "end_year",
	"position_title_standardized", "college_clean", "category", "team_state", "conference", "division",
}

func (m MergedPosition) CSVRow() []string {
	teamID := ""
	if m.TeamID != 0 {
		teamID = strconv.Itoa(m.TeamID)
	}
	return []string{
		m.Coach, m.College, m.Title, teamID, yearString(m.StartYear), yearString(m.EndYear),
		m.TitleStandardized, m.CollegeClean, m.Category, m.TeamState, m.Conference, m.Division,
	}
}

// MergeCoachingData flattens each coach's positions and resolves the college
// to a team: by the matched college's NCAA id first, then by the college
// row itself. Unresolved colleges keep their own name as the clean name.
func MergeCoachingData(histories []models.CoachHistory, colleges *identity.CollegeIndex, teams []models.Team, std Standardization) []MergedPosition {
	byID := config.TeamByID(teams)

	var merged []MergedPosition
	for _, h := range histories {
		for _, p := range h.Positions {
			m := MergedPosition{
				Coach:     h.Name,
				College:   p.College,
				Title:     p.Title,
				StartYear: p.StartYear,
				EndYear:   p.EndYear,
			}
			if std != nil {
				m.TitleStandardized = std.lookup(h.Name, p)
			}

			college, _, found := colleges.Match(p.College)
			if found && college.NcaaID != 0 {
				m.TeamID = college.NcaaID
				if row, ok := colleges.ByID(m.TeamID); ok {
					m.Category = row.Extra["category"]
				}
				if team, ok := byID[m.TeamID]; ok {
					m.CollegeClean = team.Name
					m.setTeam(team)
				}
			}

			if m.CollegeClean == "" && found {
				m.CollegeClean = college.Clean
				m.Category = college.Extra["category"]
				if team, ok := byID[college.NcaaID]; ok && college.NcaaID != 0 {
					m.setTeam(team)
				}
			}
			if m.CollegeClean == "" {
				m.CollegeClean = p.College
			}
			merged = append(merged, m)
		}
	}
	return merged
}

func (m *MergedPosition) setTeam(team models.Team) {
	m.TeamState = team.State
	m.Conference = team.Conference
	m.Division = team.Division
}

// WriteMerged saves the merged rows and logs the match coverage.
func WriteMerged(path string, merged []MergedPosition) error {
	if len(merged) == 0 {
		return fmt.Errorf("no merged positions to save")
	}
	rows := make([][]string, 0, len(merged))
	withID, withState := 0, 0
	for _, m := range merged {
		rows = append(rows, m.CSVRow())
		if m.TeamID != 0 {
			withID++
		}
		if m.TeamState != "" {
			withState++
		}
	}
	log.Printf("Coaches: %d merged positions, %d with team_id, %d with team_state", len(merged), withID, withState)
	return export.WriteCSV(path, MergedCSVHeader, rows)
}
