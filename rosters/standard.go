package rosters

import (
	"context"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"wbb_scrooper/models"
)

// StandardStrategy parses Sidearm (and PrestoSports) card layouts.
type StandardStrategy struct {
	cfg  TeamConfig
	deps Deps
}

type entitySelectors struct {
	cards     []string
	container string
	panels    string
}

var playerSelectors = entitySelectors{
	cards:     []string{".sidearm-roster-player", ".sidearm-roster-list-item", ".s-person-card", ".player-card"},
	container: ".sidearm-roster-players",
	panels:    "#cardPanel, #listPanel, #tablePanel",
}

var coachSelectors = entitySelectors{
	cards:     []string{".sidearm-roster-coach", ".sidearm-roster-coaches-card", ".sidearm-roster-staff-item", ".s-person-card--list", ".s-person-card"},
	container: ".sidearm-roster-coaches",
	panels:    "#coaching-staff, #roster-staff",
}

var (
	playerNameSelectors = []string{".sidearm-roster-player-name", "h3 a", ".sidearm-roster-player-name-link", ".name"}
	coachNameSelectors  = []string{".sidearm-roster-coach-name", ".sidearm-roster-staff-name", ".s-person-details__personal-single-line", "h3", "h4", "strong a", "a"}
	coachTitleSelectors = []string{".sidearm-roster-coach-title", ".sidearm-roster-staff-title", ".sidearm-roster-coach-position", ".s-person-details__position", ".title"}
	coachExpSelectors   = []string{".sidearm-roster-coach-seasons", ".sidearm-roster-coach-experience"}
	coachAlmaSelectors  = []string{".sidearm-roster-coach-college", ".sidearm-roster-coach-alma-mater"}
)

func (s *StandardStrategy) Scrape(ctx context.Context, team models.Team, season string, entity Entity) (*Result, error) {
	doc, pageURL, err := fetchDocument(ctx, s.deps, s.cfg, team, season, entity)
	if err != nil {
		return nil, err
	}

	result := &Result{URL: pageURL}
	elements := s.findElements(doc, entity)
	log.Printf("Rosters: found %d %s elements for %s", elements.Length(), entity.Label(), team.Name)

	if entity == EntityCoach {
		seen := make(map[string]bool)
		elements.Each(func(_ int, el *goquery.Selection) {
			c, ok := s.extractCoach(el, team, season)
			if !ok {
				return
			}
			key := strings.ToLower(c.URL) + "|" + strings.ToLower(c.Name) + "|" + strings.ToLower(c.Title)
			if seen[key] {
				return
			}
			seen[key] = true
			result.Coaches = append(result.Coaches, c)
		})
		return result, nil
	}

	elements.Each(func(_ int, el *goquery.Selection) {
		if p, ok := s.extractPlayer(el, team, season); ok {
			result.Players = append(result.Players, p)
		}
	})
	return result, nil
}

func (s *StandardStrategy) findElements(doc *goquery.Document, entity Entity) *goquery.Selection {
	if s.cfg.PlayerSelector != "" {
		if found := doc.Find(s.cfg.PlayerSelector); found.Length() > 0 {
			return found
		}
	}

	sel := playerSelectors
	if entity == EntityCoach {
		sel = coachSelectors
	}

	scope := doc.Selection
	if panel := doc.Find(sel.panels).First(); panel.Length() > 0 {
		scope = panel
	} else if container := doc.Find(sel.container).First(); container.Length() > 0 {
		scope = container
	}

	for _, card := range sel.cards {
		if found := scope.Find(card); found.Length() > 0 {
			return found
		}
	}

	if entity == EntityPlayer {
		// South Carolina style: li > div.text-wrapper
		return scope.Find("li > div.text-wrapper").Parent()
	}
	return scope.Slice(0, 0)
}

// ============================================================================
// Players
// ============================================================================

func (s *StandardStrategy) extractPlayer(el *goquery.Selection, team models.Team, season string) (models.Player, bool) {
	p := newPlayer(team, season)

	link := el.Find("a").First()
	href := link.AttrOr("href", "")
	if strings.Contains(href, "/coaches/") || strings.Contains(href, "/staff/") {
		return p, false
	}

	p.Name = s.playerName(el, link)
	if p.Name == "" || strings.Contains(p.Name, "Instagram") {
		return p, false
	}

	if s.cfg.Flipcard {
		p.Jersey = strings.ReplaceAll(strings.TrimSpace(el.Find(".player-card .card-back-head .number").First().Text()), "#", "")
		p.PreviousSchool = flipcardField(el, "Previous School")
		p.HighSchool = flipcardField(el, "Highschool")
		p.Height = flipcardField(el, "Height")
		p.Hometown = flipcardField(el, "Hometown")
		p.AcademicYear = flipcardField(el, "Class")
		p.Position = flipcardField(el, "Position")
	} else {
		p.PreviousSchool = s.field(el, "previous_school", "sidearm-roster-player-previous-school")
		p.HighSchool = s.field(el, "high_school", "sidearm-roster-player-highschool")
		p.Height = s.field(el, "height", "sidearm-roster-player-height")
		p.Hometown = s.field(el, "hometown", "sidearm-roster-player-hometown")
		p.Jersey = s.field(el, "jersey", "sidearm-roster-player-jersey-number")
		p.AcademicYear = s.field(el, "academic_year", "sidearm-roster-player-academic-year")
		p.Position = s.position(el)
	}

	// Card layouts without field classes still carry "#12" and "6-1" in the text.
	if p.Jersey == "" || p.Height == "" {
		text := CleanText(el.Text())
		if p.Jersey == "" {
			p.Jersey = ExtractJersey(text)
		}
		if p.Height == "" {
			p.Height = ExtractHeight(text)
		}
	}

	p.PlayerID = el.AttrOr("data-player-id", "")
	p.URL = absoluteURL(team.URL, href)
	return p, true
}

func (s *StandardStrategy) playerName(el, link *goquery.Selection) string {
	for _, sel := range playerNameSelectors {
		nameEl := el.Find(sel).First()
		if nameEl.Length() == 0 {
			continue
		}
		// Some sites nest the jersey number inside the name block.
		if strings.Contains(sel, "sidearm-roster-player-name") {
			if nested := nameEl.Find(`h3 a, a[href*="/roster/"]`).First(); nested.Length() > 0 {
				if name := cleanSelection(nested); name != "" {
					return name
				}
			}
		}
		if name := cleanSelection(nameEl); name != "" {
			return name
		}
	}

	aria, ok := link.Attr("aria-label")
	if !ok || strings.Contains(strings.ToLower(aria), "image thumbnail") {
		return ""
	}
	if before, _, found := strings.Cut(aria, " - "); found {
		return strings.TrimSpace(before)
	}
	name := strings.TrimSpace(strings.ReplaceAll(aria, " full bio", ""))
	if before, _, found := strings.Cut(name, " jersey number "); found {
		name = strings.TrimSpace(before)
	}
	return name
}

// field tries the team's custom selectors, then the default Sidearm class.
func (s *StandardStrategy) field(el *goquery.Selection, name, defaultClass string) string {
	for _, sel := range s.cfg.FieldSelectors[name] {
		found := el.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		text := cleanSelection(found)
		if sr := found.Find("span.sr-only").First(); sr.Length() > 0 {
			text = strings.TrimSpace(strings.ReplaceAll(text, sr.Text(), ""))
		}
		if text != "" {
			if name == "academic_year" {
				return NormalizeAcademicYear(text)
			}
			return text
		}
	}

	if defaultClass == "" {
		return ""
	}
	text := cleanSelection(el.Find("." + defaultClass).First())
	if text != "" && name == "academic_year" {
		return NormalizeAcademicYear(text)
	}
	return text
}

func (s *StandardStrategy) position(el *goquery.Selection) string {
	if bold := el.Find(".sidearm-roster-player-position .text-bold").First(); bold.Length() > 0 {
		if text := cleanSelection(bold); text != "" {
			return ExtractPosition(text)
		}
	}
	if text := s.field(el, "position", "sidearm-roster-player-position"); text != "" {
		return ExtractPosition(text)
	}
	return ""
}

// flipcardField reads "Label: value" list items from a PrestoSports card back.
func flipcardField(el *goquery.Selection, label string) string {
	prefix := label + ":"
	value := ""
	el.Find(".player-card .card-back .bio-data li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		text := strings.Join(strings.Fields(li.Text()), " ")
		if strings.HasPrefix(text, prefix) {
			value = strings.TrimSpace(strings.Replace(text, prefix, "", 1))
			return false
		}
		return true
	})
	return value
}

// ============================================================================
// Coaches
// ============================================================================

func (s *StandardStrategy) extractCoach(el *goquery.Selection, team models.Team, season string) (models.Coach, bool) {
	c := newCoach(team, season)

	// Some sites reuse the player card for staff.
	if strings.Contains(el.Text(), "Jersey Number") {
		return c, false
	}

	c.Name = firstText(el, coachNameSelectors)
	if c.Name == "" {
		return c, false
	}
	c.Title = firstText(el, coachTitleSelectors)
	c.Experience = firstText(el, coachExpSelectors)
	c.AlmaMater = firstText(el, coachAlmaSelectors)

	if link := el.Find("a").First(); link.Length() > 0 {
		c.URL = absoluteURL(team.URL, link.AttrOr("href", ""))
	}
	return c, true
}

// firstText returns the cleaned text of the first selector that matches.
func firstText(el *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if found := el.Find(sel).First(); found.Length() > 0 {
			return cleanSelection(found)
		}
	}
	return ""
}
