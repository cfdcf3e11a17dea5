package ncaa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"wbb_scrooper/identity"
	"wbb_scrooper/models"
)

// Sides of a livestats game.
const (
	HomeTeam     = "HomeTeam"
	VisitingTeam = "VisitingTeam"
)

// Opponent returns the other side.
func Opponent(side string) string {
	if side == VisitingTeam {
		return HomeTeam
	}
	return VisitingTeam
}

// Game wraps a decoded livestats payload with typed accessors.
type Game struct {
	models.LiveGame
	HasGame  bool // the Game object was present
	HasPlays bool
}

// ParseLiveGame decodes a saved game file. A null file returns nil. The feed
// sends "" for Game or Plays when they are unavailable; those sections are
// left empty.
func ParseLiveGame(data []byte) (*Game, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}

	g := &Game{}
	if b, ok := present(raw, "Game"); ok {
		if err := json.Unmarshal(b, &g.Game); err != nil {
			return nil, fmt.Errorf("decode Game: %w", err)
		}
		g.HasGame = true
	}
	if b, ok := present(raw, "Stats"); ok {
		if err := json.Unmarshal(b, &g.Stats); err != nil {
			return nil, fmt.Errorf("decode Stats: %w", err)
		}
	}
	if b, ok := present(raw, "Leaders"); ok {
		if err := json.Unmarshal(b, &g.LiveGame.Leaders); err != nil {
			return nil, fmt.Errorf("decode Leaders: %w", err)
		}
	}
	if b, ok := present(raw, "Plays"); ok {
		if err := json.Unmarshal(b, &g.Plays); err != nil {
			return nil, fmt.Errorf("decode Plays: %w", err)
		}
		g.HasPlays = true
	}
	return g, nil
}

func present(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	b, ok := raw[key]
	if !ok {
		return nil, false
	}
	switch strings.TrimSpace(string(b)) {
	case "", `""`, "null":
		return nil, false
	}
	return b, true
}

// LoadGame reads and parses a saved game file.
func LoadGame(path string) (*Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := ParseLiveGame(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Team returns the game info for a side.
func (g *Game) Team(side string) models.LiveTeamInfo {
	if side == VisitingTeam {
		return g.Game.VisitingTeam
	}
	return g.Game.HomeTeam
}

// TeamName returns the side's name, or "" for an unknown side.
func (g *Game) TeamName(side string) string {
	if side != HomeTeam && side != VisitingTeam {
		return ""
	}
	return g.Team(side).Name
}

func (g *Game) Officials() []string {
	var out []string
	for _, o := range strings.Split(g.Game.Officials, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (g *Game) Score(side string) int {
	return g.Team(side).Score.Int()
}

func (g *Game) PeriodScores(side string) []int {
	return ints(g.Team(side).PeriodScores)
}

func (g *Game) PeriodTimeouts(side string) []int {
	return ints(g.Team(side).PeriodTimeouts)
}

func ints(values []models.Scalar) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = v.Int()
	}
	return out
}

// Leader categories in the feed.
var LeaderCategories = []string{
	"Points", "Rebounds", "Assists", "Blocks", "Steals",
	"Personal Fouls", "Efficiency", "Usage Percentage",
}

// Leaders returns the raw leader entry for a side and category.
func (g *Game) Leaders(side, category string) json.RawMessage {
	return g.LiveGame.Leaders[side][category]
}

// Totals returns the side's team totals.
func (g *Game) Totals(side string) map[string]models.Scalar {
	return g.Stats[side].Totals.Values
}

// Total returns one team total, or "" if it is missing.
func (g *Game) Total(side, key string) string {
	return g.Totals(side)[key].String()
}

func (g *Game) PlayerStats(side string) []map[string]json.RawMessage {
	return g.Stats[side].PlayerGroups.Players.Values
}

func (g *Game) PeriodStats(side string) []map[string]models.Scalar {
	stats := g.Stats[side].PeriodStats
	out := make([]map[string]models.Scalar, len(stats))
	for i, p := range stats {
		out[i] = p.Values
	}
	return out
}

var dateLayouts = []string{
	"1/2/2006", "01/02/2006", "2006-01-02", "January 2, 2006", "Jan 2, 2006",
	"Monday, January 2, 2006", "2006-01-02T15:04:05",
}

// ParseDate reads the feed's Game.Date, which varies by site.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized game date %q", s)
}

// ID is a stable fingerprint of the matchup, used as the games table key.
func (g *Game) ID() string {
	return identity.Fingerprint(g.Game.HomeTeam.Name, g.Game.VisitingTeam.Name, g.Game.Date, g.Game.StartTime)
}
