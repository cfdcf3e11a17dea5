package rosters

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"wbb_scrooper/models"
)

//go:embed js/*.js
var scripts embed.FS

// Script returns an embedded extraction template by name.
func Script(name string) (string, bool) {
	b, err := scripts.ReadFile("js/" + name + ".js")
	if err != nil {
		return "", false
	}
	return string(b), true
}

const jsWaitMs = 2000

// Record is the object shape every extraction template returns.
type Record struct {
	ID             models.Scalar `json:"id"`
	Name           string        `json:"name"`
	Jersey         models.Scalar `json:"jersey"`
	Position       string        `json:"position"`
	Year           string        `json:"year"`
	Height         string        `json:"height"`
	Hometown       string        `json:"hometown"`
	HighSchool     string        `json:"high_school"`
	PreviousSchool string        `json:"previous_school"`
	URL            string        `json:"url"`
	Title          string        `json:"title"`
	Experience     string        `json:"experience"`
	AlmaMater      string        `json:"alma_mater"`
}

// JavaScriptStrategy runs an extraction template inside a rendered page.
type JavaScriptStrategy struct {
	cfg  TeamConfig
	deps Deps
}

func (s *JavaScriptStrategy) Scrape(ctx context.Context, team models.Team, season string, entity Entity) (*Result, error) {
	if s.deps.Browser == nil {
		return nil, errors.New("javascript roster requires a browser session")
	}

	pageURL := BuildURL(team.URL, season, s.cfg.URLFormat, entity)
	base := s.cfg.BaseURL
	if base == "" {
		base = team.URL
	}

	selector := s.cfg.Selector
	if selector == "" {
		selector = nuxtSelector
	}

	var (
		records []Record
		err     error
	)
	switch {
	case selector == nuxtSelector && entity == EntityPlayer:
		records, err = s.nuxtPlayers(ctx, pageURL)
	case selector == nuxtSelector:
		records, err = s.run(ctx, pageURL, "coaching_staff", season)
		if err == nil && len(records) == 0 {
			log.Printf("Rosters: no #coaching-staff for %s, trying staff table rows", team.Name)
			records, err = s.run(ctx, pageURL, "nuxt_table_coaches", season)
		}
	default:
		names := []string{selector}
		if entity == EntityCoach {
			names = []string{selector + "_coaches", selector}
		}
		name, ok := firstScript(names)
		if !ok {
			return nil, fmt.Errorf("no extraction template for %s", selector)
		}
		records, err = s.run(ctx, pageURL, name, season)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{URL: pageURL}
	for _, rec := range records {
		recURL := rec.URL
		if strings.HasPrefix(recURL, "/") {
			recURL = absoluteURL(base, recURL)
		}

		if entity == EntityCoach {
			c := newCoach(team, season)
			c.Name = rec.Name
			c.Title = rec.Title
			c.Experience = rec.Experience
			c.AlmaMater = rec.AlmaMater
			c.URL = recURL
			result.Coaches = append(result.Coaches, c)
			continue
		}

		p := newPlayer(team, season)
		p.PlayerID = rec.ID.String()
		p.Name = rec.Name
		p.Jersey = rec.Jersey.String()
		if rec.Position != "" {
			p.Position = ExtractPosition(rec.Position)
		}
		p.AcademicYear = rec.Year
		p.Height = rec.Height
		p.Hometown = rec.Hometown
		p.HighSchool = rec.HighSchool
		p.PreviousSchool = rec.PreviousSchool
		p.URL = recURL
		result.Players = append(result.Players, p)
	}
	return result, nil
}

func firstScript(names []string) (string, bool) {
	for _, n := range names {
		if _, ok := Script(n); ok {
			return n, true
		}
	}
	return "", false
}

func (s *JavaScriptStrategy) run(ctx context.Context, pageURL, name, season string) ([]Record, error) {
	script, ok := Script(name)
	if !ok {
		return nil, fmt.Errorf("no extraction template %s", name)
	}
	script = strings.ReplaceAll(script, "{{SEASON}}", season)

	raw, err := s.deps.Browser.Evaluate(ctx, pageURL, script, jsWaitMs)
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

func (s *JavaScriptStrategy) nuxtPlayers(ctx context.Context, pageURL string) ([]Record, error) {
	script, _ := Script("nuxt_data")
	raw, err := s.deps.Browser.Evaluate(ctx, pageURL, script, jsWaitMs)
	if err != nil {
		return nil, err
	}
	payload, _ := raw.(string)
	if payload == "" {
		return nil, nil
	}
	return ResolveNuxtPlayers(payload)
}

// decodeRecords converts the evaluation result (maps and slices from the
// browser bridge) into records.
func decodeRecords(raw any) ([]Record, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode script result: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode script result: %w", err)
	}
	return records, nil
}
