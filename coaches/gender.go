package coaches

import (
	"context"
	"fmt"
	"log"
	"slices"

	"wbb_scrooper/export"
	"wbb_scrooper/models"
)

const (
	GenderFemale    = "F"
	GenderMale      = "M"
	GenderNonBinary = "N"
)

const genderPrompt = `Analyze this coach biography and determine the gender based on pronouns used.

Coach Name: %s

Biography Text:
%s

Instructions:
- If the text uses she/her/hers pronouns when referring to this coach, respond with: F
- If the text uses he/him/his pronouns when referring to this coach, respond with: M
- If the text uses they/them/their pronouns when referring to this coach, respond with: N
- If there are no pronouns referring to this coach, or this is not an actual biography, respond with: None

Only respond with one of these four values: F, M, N, or None
Do not provide any explanation, just the single value.`

// ClassifyGender infers a coach's gender from the pronouns in their bio.
// It returns "" when the model finds none or answers something else.
func ClassifyGender(ctx context.Context, c Completer, name, text string) (string, error) {
	reply, err := c.Complete(ctx, "", fmt.Sprintf(genderPrompt, name, text))
	if err != nil {
		return "", err
	}
	switch reply {
	case GenderFemale, GenderMale, GenderNonBinary:
		return reply, nil
	case "None":
		return "", nil
	}
	log.Printf("Coaches: unexpected gender reply %q for %s", reply, name)
	return "", nil
}

// GenderedBio is a bio with its classified gender.
type GenderedBio struct {
	models.CoachBio
	Gender *string `json:"gender"`
}

// ClassifyBios classifies every bio. Model errors leave the gender unset.
func ClassifyBios(ctx context.Context, c Completer, bios []models.CoachBio) ([]GenderedBio, error) {
	out := make([]GenderedBio, 0, len(bios))
	for i, bio := range bios {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		g := GenderedBio{CoachBio: bio}
		gender, err := ClassifyGender(ctx, c, bio.Name, bio.Text)
		if err != nil {
			log.Printf("Coaches: gender for %s: %v", bio.Name, err)
		}
		if gender != "" {
			g.Gender = &gender
		}
		log.Printf("Coaches: [%d/%d] %s -> %s", i+1, len(bios), bio.Name, genderLabel(g.Gender))
		out = append(out, g)
	}
	return out, nil
}

func genderLabel(g *string) string {
	if g == nil {
		return "None"
	}
	return *g
}

// GenderCounts tallies genders; unknown is counted under "".
func GenderCounts(bios []GenderedBio) map[string]int {
	counts := make(map[string]int)
	for _, b := range bios {
		if b.Gender == nil {
			counts[""]++
			continue
		}
		counts[*b.Gender]++
	}
	return counts
}

// AddGenderColumn appends a gender column to the merged histories CSV,
// matching on the coach column. Unmatched rows get "". It returns the number
// of rows with a gender.
func AddGenderColumn(mergedPath, outPath string, bios []GenderedBio) (int, error) {
	byName := make(map[string]string, len(bios))
	for _, b := range bios {
		if b.Name != "" && b.Gender != nil {
			byName[b.Name] = *b.Gender
		}
	}

	header, rows, err := export.ReadCSV(mergedPath)
	if err != nil {
		return 0, err
	}
	coachCol := slices.Index(header, "coach")
	if coachCol < 0 {
		return 0, fmt.Errorf("%s has no coach column", mergedPath)
	}
	genderCol := slices.Index(header, "gender")
	if genderCol < 0 {
		header = append(header, "gender")
		genderCol = len(header) - 1
	}

	matched := 0
	for i, row := range rows {
		for len(row) < len(header) {
			row = append(row, "")
		}
		gender := ""
		if coachCol < len(row) {
			gender = byName[row[coachCol]]
		}
		row[genderCol] = gender
		if gender != "" {
			matched++
		}
		rows[i] = row
	}
	return matched, export.WriteCSV(outPath, header, rows)
}
