package rosters

import (
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Teams whose headings only carry the starting year ("2025 Roster").
var startYearTeams = map[int]bool{377: true, 8530: true}

// Teams whose pages print the season as 2025-2026.
var fourDigitSeasonTeams = map[int]bool{
	209: true, 339: true, 340: true, 77: true, 670: true, 1013: true, 11403: true, 11504: true,
}

// SeasonVariants expands "2025-26" into the spellings found in page headings.
func SeasonVariants(season string, teamID int) []string {
	variants := []string{season}
	parts := strings.Split(season, "-")
	if len(parts) != 2 || len(parts[0]) < 2 {
		return variants
	}
	full := parts[0][:2] + parts[1]
	variants = append(variants, parts[0]+" - "+full, parts[0]+"-"+full)
	if startYearTeams[teamID] {
		variants = append(variants, parts[0])
	}
	return variants
}

// VerifySeason checks h1, h2 and title for the expected season. Player
// pages must also say "roster"; staff pages often do not.
func VerifySeason(doc *goquery.Document, season string, entity Entity, teamID int) bool {
	if doc == nil {
		return true
	}
	variants := SeasonVariants(season, teamID)

	found := false
	doc.Find("h1, h2, title").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !containsAny(text, variants) {
			return true
		}
		if entity == EntityCoach || strings.Contains(strings.ToLower(text), "roster") {
			found = true
			return false
		}
		return true
	})

	if !found {
		log.Printf("Rosters: season %s not found in page headings", season)
	}
	return found
}

// IsSidearmSite detects the Sidearm CMS markup. Only those pages reliably
// carry a season heading.
func IsSidearmSite(doc *goquery.Document) bool {
	if doc.Find("li.sidearm-roster-player, div.sidearm-roster-list-item, span.sidearm-roster-player-name").Length() > 0 {
		return true
	}
	return doc.Find(`div[class*="sidearm"]`).Length() > 0
}

// verificationSeason returns the season spelling used in headings for teams
// on the four-digit format.
func verificationSeason(teamID int, teamURL, format, season string) string {
	if fourDigitSeasonTeams[teamID] || format == FormatFourDigitYear ||
		strings.HasPrefix(teamURL, "https://hawaiiathletics.com") {
		return fourDigitSeason(season)
	}
	return season
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
