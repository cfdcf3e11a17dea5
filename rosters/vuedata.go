package rosters

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/titanous/json5"
	"wbb_scrooper/models"
)

var (
	vueRosterPattern = regexp.MustCompile(`(?s)roster:\s*({.*?}),\s*roster_settings:`)
	slugSpace        = regexp.MustCompile(`\s+`)
	slugStrip        = regexp.MustCompile(`[^\w\-]+`)
)

type VueRoster struct {
	Players []VuePerson `json:"players"`
	Coaches []VuePerson `json:"coaches"`
}

// Numeric fields arrive as numbers or strings depending on the site build.
type VuePerson struct {
	RPID              any    `json:"rp_id"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Title             string `json:"title"`
	AcademicYearShort string `json:"academic_year_short"`
	Hometown          string `json:"hometown"`
	HighSchool        string `json:"highschool"`
	PreviousSchool    string `json:"previous_school"`
	HeightFeet        any    `json:"height_feet"`
	HeightInches      any    `json:"height_inches"`
	PositionShort     string `json:"position_short"`
	JerseyNumber      any    `json:"jersey_number"`
}

// VueDataStrategy reads the roster object literal a Vue app boots from.
type VueDataStrategy struct {
	cfg  TeamConfig
	deps Deps
}

func (s *VueDataStrategy) Scrape(ctx context.Context, team models.Team, season string, entity Entity) (*Result, error) {
	pageURL := BuildURL(team.URL, season, s.cfg.URLFormat, entity)
	resp, err := s.deps.HTTP.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	result := &Result{URL: pageURL}
	roster, err := ParseVueRoster(resp.Body)
	if err != nil {
		return nil, err
	}
	if roster == nil {
		log.Printf("Rosters: no Vue roster data for %s", team.Name)
		return result, nil
	}

	people := roster.Players
	if entity == EntityCoach {
		people = roster.Coaches
	}
	if len(people) == 0 {
		log.Printf("Rosters: no %s in Vue roster data for %s", entity.Label(), team.Name)
		return result, nil
	}

	for _, person := range people {
		name := strings.TrimSpace(person.FirstName + " " + person.LastName)
		rpID := scalarString(person.RPID)
		slug := slugStrip.ReplaceAllString(slugSpace.ReplaceAllString(strings.ToLower(name), "-"), "")

		if entity == EntityCoach {
			c := newCoach(team, season)
			c.Name = name
			c.Title = person.Title
			c.URL = absoluteURL(team.URL, fmt.Sprintf("/sports/womens-basketball/roster/coaches/%s/%s", slug, rpID))
			result.Coaches = append(result.Coaches, c)
			continue
		}

		p := newPlayer(team, season)
		p.PlayerID = rpID
		p.Name = name
		p.AcademicYear = NormalizeAcademicYear(person.AcademicYearShort)
		p.Hometown = person.Hometown
		p.HighSchool = person.HighSchool
		p.PreviousSchool = person.PreviousSchool
		p.Position = person.PositionShort
		p.Jersey = scalarString(person.JerseyNumber)
		if person.HeightFeet != nil && person.HeightInches != nil {
			p.Height = fmt.Sprintf(`%s'%s"`, scalarString(person.HeightFeet), scalarString(person.HeightInches))
		}
		p.URL = absoluteURL(team.URL, fmt.Sprintf("/sports/womens-basketball/roster/%s/%s", slug, rpID))
		result.Players = append(result.Players, p)
	}
	return result, nil
}

// ParseVueRoster extracts and decodes the `roster: {...}` literal. It returns
// nil when the page has none.
func ParseVueRoster(html []byte) (*VueRoster, error) {
	m := vueRosterPattern.FindSubmatch(html)
	if m == nil {
		return nil, nil
	}
	var roster VueRoster
	if err := json5.Unmarshal(m[1], &roster); err != nil {
		return nil, fmt.Errorf("parse vue roster: %w", err)
	}
	return &roster, nil
}
