package config

import (
	"encoding/json"
	"fmt"
	"os"

	"wbb_scrooper/models"
)

// LoadTeams reads teams.json.
func LoadTeams(path string) ([]models.Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read teams: %w", err)
	}

	var teams []models.Team
	if err := json.Unmarshal(data, &teams); err != nil {
		return nil, fmt.Errorf("parse teams: %w", err)
	}
	return teams, nil
}

// FilterTeams keeps teams with a URL, restricted to ids when any are given.
func FilterTeams(teams []models.Team, ids []int) []models.Team {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []models.Team
	for _, t := range teams {
		if t.URL == "" {
			continue
		}
		if len(want) > 0 && !want[t.ID()] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TeamByID indexes teams by NCAA id.
func TeamByID(teams []models.Team) map[int]models.Team {
	m := make(map[int]models.Team, len(teams))
	for _, t := range teams {
		m[t.ID()] = t
	}
	return m
}
