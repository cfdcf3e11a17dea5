package fiba

import (
	"fmt"
	"strconv"
	"strings"

	"wbb_scrooper/export"
	"wbb_scrooper/models"
)

var shotColumns = []string{"team", "coord_x", "coord_y", "outcome", "three_pointer"}

// LoadShots reads a shot-chart export.
func LoadShots(path string) ([]models.Shot, error) {
	rows, err := export.ReadCSVMaps(path)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		for _, col := range shotColumns {
			if _, ok := rows[0][col]; !ok {
				return nil, fmt.Errorf("%s: missing column %q", path, col)
			}
		}
	}

	shots := make([]models.Shot, 0, len(rows))
	for i, r := range rows {
		x, errX := strconv.ParseFloat(r["coord_x"], 64)
		y, errY := strconv.ParseFloat(r["coord_y"], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%s row %d: bad coordinates", path, i+2)
		}
		shots = append(shots, models.Shot{
			Team:  r["team"],
			X:     x,
			Y:     y,
			Made:  strings.EqualFold(r["outcome"], "made"),
			Three: truthy(r["three_pointer"]),
		})
	}
	return shots, nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

// Summarize aggregates shots per team in first-seen order.
func Summarize(shots []models.Shot) []models.ShotSummary {
	index := make(map[string]int)
	var out []models.ShotSummary
	for _, s := range shots {
		i, ok := index[s.Team]
		if !ok {
			i = len(out)
			index[s.Team] = i
			out = append(out, models.ShotSummary{Team: s.Team})
		}
		sum := &out[i]
		sum.Attempts++
		if s.Made {
			sum.Makes++
		}
		if s.Three {
			sum.ThreeAtt++
			if s.Made {
				sum.ThreeMade++
			}
		}
	}
	for i := range out {
		out[i].FGPct = percent(out[i].Makes, out[i].Attempts)
		out[i].ThreePct = percent(out[i].ThreeMade, out[i].ThreeAtt)
	}
	return out
}

func percent(made, att int) float64 {
	if att == 0 {
		return 0
	}
	return float64(made) / float64(att) * 100
}

// SummarizeShots loads a shot-chart CSV and summarizes it per team.
func SummarizeShots(path string) ([]models.ShotSummary, error) {
	shots, err := LoadShots(path)
	if err != nil {
		return nil, err
	}
	return Summarize(shots), nil
}

var ShotSummaryHeader = []string{"team", "attempts", "makes", "fg_pct", "three_att", "three_made", "three_pct"}
