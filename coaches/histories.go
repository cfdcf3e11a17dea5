package coaches

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"wbb_scrooper/export"
	"wbb_scrooper/models"
)

//go:embed prompts/extraction.md
var extractionPrompt string

const (
	HistoriesFile = "coaching_histories.json"
	chunkSize     = 10
	testLimit     = 5
)

// ErrIncompleteHistory is returned when a model reply lacks the positions or
// education list.
var ErrIncompleteHistory = errors.New("response missing positions or education")

type HistoryOptions struct {
	// Resume keeps existing records and only processes coaches whose
	// positions list is still empty.
	Resume bool
	Test   bool
}

type historyKey struct {
	name, team string
}

func emptyHistory(bio models.CoachBio) models.CoachHistory {
	return models.CoachHistory{
		TeamID:        bio.TeamID,
		Team:          bio.Team,
		Name:          bio.Name,
		Title:         bio.Title,
		URL:           bio.URL,
		Season:        bio.Season,
		Positions:     []models.Position{},
		Education:     []models.Education{},
		PlayingCareer: []models.PlayingCareer{},
	}
}

// ExtractHistories asks the model for the career of each coach. A coach whose
// reply cannot be parsed gets empty lists so a later resume run picks it up.
func ExtractHistories(ctx context.Context, c Completer, bios []models.CoachBio, existing []models.CoachHistory, opts HistoryOptions) ([]models.CoachHistory, error) {
	if opts.Resume && existing == nil {
		return nil, errors.New("resume requires existing coaching histories")
	}

	prior := make(map[historyKey]models.CoachHistory, len(existing))
	for _, h := range existing {
		prior[historyKey{h.Name, h.Team}] = h
	}

	merged := make([]models.CoachHistory, len(bios))
	var todo []int
	for i, bio := range bios {
		h := emptyHistory(bio)
		if old, ok := prior[historyKey{bio.Name, bio.Team}]; ok && opts.Resume {
			h.Positions = old.Positions
			h.Education = old.Education
			h.PlayingCareer = old.PlayingCareer
		}
		merged[i] = h
		if !opts.Resume || len(h.Positions) == 0 {
			todo = append(todo, i)
		}
	}
	if opts.Test && len(todo) > testLimit {
		todo = todo[:testLimit]
	}
	if len(todo) == 0 {
		log.Printf("Coaches: no coaches to process")
		return merged, nil
	}
	log.Printf("Coaches: extracting histories for %d coaches", len(todo))

	for start := 0; start < len(todo); start += chunkSize {
		end := min(start+chunkSize, len(todo))
		for n, i := range todo[start:end] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			done := start + n + 1
			bio := bios[i]
			log.Printf("Coaches: processing %d/%d: %s (%s)", done, len(todo), bio.Name, bio.Team)

			ext, err := extractHistory(ctx, c, bio)
			if err != nil {
				log.Printf("Coaches: extraction failed for %s: %v", bio.Name, err)
				ext = Extraction{}
			}
			merged[i] = ext.apply(emptyHistory(bio))

			if done%50 == 0 {
				log.Printf("Coaches: progress %d/%d (%d%%)", done, len(todo), done*100/len(todo))
			}
		}
	}

	if opts.Resume {
		return merged, nil
	}
	out := make([]models.CoachHistory, 0, len(todo))
	for _, i := range todo {
		out = append(out, merged[i])
	}
	return out, nil
}

// Extraction is the career lists a model returns for one bio.
type Extraction struct {
	Positions     []models.Position      `json:"positions"`
	Education     []models.Education     `json:"education"`
	PlayingCareer []models.PlayingCareer `json:"playing_career"`
}

func (e Extraction) apply(h models.CoachHistory) models.CoachHistory {
	if e.Positions != nil {
		h.Positions = e.Positions
	}
	if e.Education != nil {
		h.Education = e.Education
	}
	if e.PlayingCareer != nil {
		h.PlayingCareer = e.PlayingCareer
	}
	return h
}

func historyPrompt(bio models.CoachBio) string {
	return fmt.Sprintf(`%s

## Coach Biography to Process

**Name:** %s
**Current Team:** %s
**Current Title:** %s

**Biography Text:**
%s

Extract the coaching positions, education history, and playing career for this coach and return ONLY a valid JSON object with "positions", "education", and "playing_career" arrays. Do not include any markdown formatting or code blocks.`,
		extractionPrompt, bio.Name, bio.Team, bio.Title, bio.Text)
}

func extractHistory(ctx context.Context, c Completer, bio models.CoachBio) (Extraction, error) {
	reply, err := c.Complete(ctx, "", historyPrompt(bio))
	if err != nil {
		return Extraction{}, err
	}
	return ParseHistoryResponse(reply)
}

// ParseHistoryResponse decodes a model reply into the three career lists.
func ParseHistoryResponse(reply string) (Extraction, error) {
	text := CleanResponse(reply)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return Extraction{}, fmt.Errorf("parse response: %w", err)
	}
	if _, ok := fields["positions"]; !ok {
		return Extraction{}, ErrIncompleteHistory
	}
	if _, ok := fields["education"]; !ok {
		return Extraction{}, ErrIncompleteHistory
	}

	var ext Extraction
	if err := json.Unmarshal([]byte(text), &ext); err != nil {
		return Extraction{}, fmt.Errorf("parse response: %w", err)
	}
	return ext, nil
}

// CleanResponse strips markdown fences and anything outside the outermost
// JSON object.
func CleanResponse(reply string) string {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 2 {
			text = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		text = text[start : end+1]
	}
	return text
}

// HistorySummary counts how many records carry each list.
type HistorySummary struct {
	Total         int
	WithPositions int
	WithEducation int
	WithPlaying   int
}

func Summarize(histories []models.CoachHistory) HistorySummary {
	s := HistorySummary{Total: len(histories)}
	for _, h := range histories {
		if len(h.Positions) > 0 {
			s.WithPositions++
		}
		if len(h.Education) > 0 {
			s.WithEducation++
		}
		if len(h.PlayingCareer) > 0 {
			s.WithPlaying++
		}
	}
	return s
}

func LoadHistories(path string) ([]models.CoachHistory, error) {
	var histories []models.CoachHistory
	if err := export.ReadJSON(path, &histories); err != nil {
		return nil, err
	}
	return histories, nil
}

func SaveHistories(path string, histories []models.CoachHistory) error {
	return export.WriteJSON(path, histories)
}
