package rosters

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	jerseyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Jersey Number (\d+)`),
		regexp.MustCompile(`#(\d{1,2})\b`),
		regexp.MustCompile(`\b(\d{1,2})\s+\w`),
	}
	heightPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+'\s*\d+")`),
		regexp.MustCompile(`(\d+[′']\s*\d+[″"])`),
		regexp.MustCompile(`Height:\s*([^,\n]+)`),
	}
	positionPattern = regexp.MustCompile(`\b([A-Z]{1,2}(?:/[A-Z]{1,2})?)\b`)

	whitespace    = regexp.MustCompile(`\s+`)
	socialSuffix  = regexp.MustCompile(`\s*(Instagram|Twitter|Opens in a new window).*$`)
	bioSuffix     = regexp.MustCompile(`\s*(Full Bio|Instagram|Twitter|Opens in a new window).*$`)
	cityStateRest = regexp.MustCompile(`^(.+?),\s*([A-Z][a-z]+\.?|[A-Z]{2})\s+(.*)`)
)

// Order matters: the longer labels have to be stripped before their prefixes.
var labelPatterns = compileLabels(
	`^\s*Hometown / Previous School / High School:\s*`, `\bHometown / Previous School / High School:\s*`,
	`^Hometown / Previous School /\s*`, `\bHometown / Previous School /\s*`,
	`^Hometown/High School \(Former School\):\s*`, `\bHometown/High School \(Former School\):\s*`,
	`^Hometown / High School:\s*`, `\bHometown / High School:\s*`,
	`^High School/Previous School:\s*`, `\bHigh School/Previous School:\s*`,
	`^High School/\s*`, `\bHigh School/\s*`,
	`^Hometown/\s*`, `\bHometown/\s*`,
	`\bClass:\s*`, `\bPrevious College:\s*`,
	`\bPrevious School:\s*`, `\bHt\.:\s*`, `\bPos\.:\s*`, `^High school:\s*`,
	`\bNo\.:\s*`, `\bYr\.:\s*`, `^No\.:\s*`, `^Yr\.:\s*`,
	`\bCl\.:\s*`, `^Cl\.:\s*`,
	`^\s*Hometown\s*:?\s*$`,
	`\bHigh school:\s*`, `\bHometown:\s*`, `^Hometown:\s*`,
)

func compileLabels(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

var academicYears = map[string]string{
	"Fr": "Freshman", "Fr.": "Freshman",
	"So": "Sophomore", "So.": "Sophomore",
	"Jr": "Junior", "Jr.": "Junior",
	"Sr": "Senior", "Sr.": "Senior",
	"Gr": "Graduate", "Gr.": "Graduate Student",
	"R-Fr": "Redshirt Freshman", "R-Fr.": "Redshirt Freshman",
	"R-So": "Redshirt Sophomore", "R-So.": "Redshirt Sophomore",
	"R-Jr": "Redshirt Junior", "R-Jr.": "Redshirt Junior",
	"R-Sr": "Redshirt Senior", "R-Sr.": "Redshirt Senior",
}

var collegeIndicators = []string{"University", "College", "State", "Tech"}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func ExtractJersey(text string) string {
	return firstMatch(jerseyPatterns, text)
}

func ExtractHeight(text string) string {
	return firstMatch(heightPatterns, text)
}

// ExtractPosition returns the first short uppercase code (G, PG, G/F), or a
// letter derived from a spelled-out position.
func ExtractPosition(text string) string {
	if m := positionPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "GUARD"):
		return "G"
	case strings.Contains(upper, "FORWARD"):
		return "F"
	case strings.Contains(upper, "CENTER"):
		return "C"
	}
	return ""
}

// NormalizeAcademicYear expands class abbreviations. Unknown values pass
// through untouched.
func NormalizeAcademicYear(text string) string {
	if text == "" {
		return ""
	}
	if full, ok := academicYears[strings.TrimSpace(text)]; ok {
		return full
	}
	return text
}

type HometownSchool struct {
	Hometown       string
	HighSchool     string
	PreviousSchool string
}

// ParseHometownSchool splits the combined "town" column found on many table
// rosters.
func ParseHometownSchool(text string) HometownSchool {
	var hs HometownSchool
	if text == "" {
		return hs
	}

	text = socialSuffix.ReplaceAllString(text, "")
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))

	if strings.Contains(text, " / ") {
		parts := strings.Split(text, " / ")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		hs.Hometown = parts[0]
		if len(parts) >= 2 {
			hs.HighSchool = parts[1]
		}
		if len(parts) >= 3 {
			hs.PreviousSchool = parts[2]
		}
		return hs
	}

	m := cityStateRest.FindStringSubmatch(text)
	if m == nil {
		hs.Hometown = text
		return hs
	}

	hs.Hometown = strings.TrimSpace(m[1]) + ", " + strings.TrimSpace(m[2])
	school := m[3]
	for _, indicator := range collegeIndicators {
		if idx := strings.Index(school, indicator); idx >= 0 {
			hs.HighSchool = strings.TrimSpace(school[:idx])
			hs.PreviousSchool = strings.TrimSpace(school[idx:])
			return hs
		}
	}
	hs.HighSchool = strings.TrimSpace(school)
	return hs
}

// CleanText collapses whitespace, drops trailing social/bio link text and
// strips field labels.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := whitespace.ReplaceAllString(strings.TrimSpace(text), " ")
	cleaned = bioSuffix.ReplaceAllString(cleaned, "")
	return CleanFieldLabels(cleaned)
}

// CleanFieldLabels removes label prefixes such as "Class:" or "Hometown/"
// and collapses a value that repeats itself ("Jo Smith Jo Smith").
func CleanFieldLabels(text string) string {
	if text == "" {
		return text
	}
	for _, re := range labelPatterns {
		text = strings.TrimSpace(re.ReplaceAllString(text, ""))
	}

	words := strings.Fields(text)
	if len(words) >= 4 {
		half := len(words) / 2
		if strings.Join(words[:half], " ") == strings.Join(words[half:half*2], " ") {
			text = strings.Join(words[:half], " ")
		}
	}
	return text
}

// IsVisibleCell reports whether a table cell is shown at desktop width
// under Bootstrap's responsive display classes.
func IsVisibleCell(cell *goquery.Selection) bool {
	classes := strings.Fields(cell.AttrOr("class", ""))
	has := func(names ...string) bool {
		for _, c := range classes {
			for _, n := range names {
				if c == n {
					return true
				}
			}
		}
		return false
	}

	if has("d-none") {
		return has("d-md-table-cell", "d-lg-table-cell", "d-xl-table-cell", "d-md-block", "d-lg-block", "d-xl-block")
	}
	return !has("d-md-none", "d-lg-none", "d-xl-none")
}

func cleanSelection(s *goquery.Selection) string {
	return CleanText(s.Text())
}
