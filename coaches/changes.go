package coaches

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strings"

	"wbb_scrooper/models"
)

// DefaultChangesURL is the wbbblog coaching carousel post for 2023-24.
const DefaultChangesURL = "https://wbbblog.com/wp-json/wp/v2/posts/42030"

const changesSystem = "Return only a CSV file with all fields quoted, no yapping."

const changesPrompt = `Please parse the following json to extract information about women college basketball coaching changes, producing a CSV file based on the following example: team,conference,coach,status,url,date
Air Force,Mountain West,Chris Gobrecht,retires,https://goairforcefalcons.com/news/2024/4/1/womens-basketball-womens-basketball-head-coach-chris-gobrecht-announces-retirement,2024-04-1. Please complete all of the teams in the JSON, and remember to quote all fields. Here is the JSON:
%s`

// ExtractCoachingChanges fetches a WordPress post and has the model turn its
// coaching carousel into rows.
func ExtractCoachingChanges(ctx context.Context, http Getter, c Completer, postURL string) ([]models.CoachingChange, error) {
	if postURL == "" {
		postURL = DefaultChangesURL
	}
	resp, err := http.Get(ctx, postURL)
	if err != nil {
		return nil, err
	}

	reply, err := c.Complete(ctx, changesSystem, fmt.Sprintf(changesPrompt, resp.Body))
	if err != nil {
		return nil, err
	}
	changes, err := ParseChangesCSV(reply)
	if err != nil {
		return nil, err
	}
	log.Printf("Coaches: parsed %d coaching changes from %s", len(changes), postURL)
	return changes, nil
}

// ParseChangesCSV reads the model's CSV reply. A header row and rows with
// the wrong field count are skipped.
func ParseChangesCSV(reply string) ([]models.CoachingChange, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		if _, rest, ok := strings.Cut(text, "\n"); ok {
			text = rest
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse coaching changes: %w", err)
	}

	var changes []models.CoachingChange
	for _, rec := range records {
		if len(rec) != len(models.CoachingChangeCSVHeader) {
			continue
		}
		if strings.EqualFold(rec[0], "team") && strings.EqualFold(rec[2], "coach") {
			continue
		}
		changes = append(changes, models.CoachingChange{
			Team:       rec[0],
			Conference: rec[1],
			Coach:      rec[2],
			Status:     rec[3],
			URL:        rec[4],
			Date:       rec[5],
		})
	}
	return changes, nil
}
