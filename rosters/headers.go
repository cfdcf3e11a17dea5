package rosters

import "strings"

// HeaderMap maps the column headings seen across table rosters to field
// names. "town" marks a combined hometown/school column.
var HeaderMap = map[string]string{
	"No.": "jersey", "No": "jersey", "NO": "jersey", "NO.": "jersey", "Num": "jersey",
	"Number": "jersey", "#": "jersey", "#Jersey Number": "jersey", "NumberJersey Number": "jersey",

	"Name": "name", "Full Name": "name", "NAME": "name", "Player": "name",

	"Cl.": "academic_year", "Cl": "academic_year", "Cl.:": "academic_year", "Cl.-Exp.": "academic_year",
	"Class": "academic_year", "Academic Year": "academic_year", "Academic Yr.": "academic_year",
	"Yr": "academic_year", "Yr.": "academic_year", "YR": "academic_year", "YR.": "academic_year",
	"Year": "academic_year", "YEAR": "academic_year", "Exp.": "academic_year",

	"Pos": "position", "Pos.": "position", "POS": "position", "POS.": "position",
	"Position": "position", "POSITION": "position",

	"Ht": "height", "Ht.": "height", "HT": "height", "HT.": "height", "Hgt.": "height", "Height": "height",

	"Hometown": "hometown", "HOMETOWN": "hometown",

	"High school": "high_school", "High School": "high_school", "HIGH SCHOOL": "high_school",
	"LAST SCHOOL": "high_school", "High School/Previous School": "high_school",

	"Previous School": "previous_school", "Previous College": "previous_school", "Prev. Coll.": "previous_school",

	"Hometown/High School":                     "town",
	"Hometown / High School":                   "town",
	"Hometown/ High School":                    "town",
	"HOMETOWN/HIGH SCHOOL":                     "town",
	"Hometown/Last School":                     "town",
	"Hometown/Previous School":                 "town",
	"Hometown / Previous School":               "town",
	"Hometown/High School/Last School":         "town",
	"Hometown/High School/Previous School":     "town",
	"Hometown / High School / Last College":    "town",
	"Hometown / Previous School / High School": "town",
	"Hometown/High School (Former School)":     "town",

	"Major": "major",
	"Wt.":   "weight",
	"Ltrs.": "letters",
}

// MapHeaders translates raw headings; unknown ones become lower_snake_case.
func MapHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		if mapped, ok := HeaderMap[h]; ok {
			out[i] = mapped
			continue
		}
		out[i] = strings.ReplaceAll(strings.ToLower(h), " ", "_")
	}
	return out
}
