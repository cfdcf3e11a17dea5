package wnba

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"wbb_scrooper/export"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
)

const DefaultDataURL = "https://data.wnba.com/data/5s/v2015/json/mobile_teams/wnba"

// RosterTeams are the team slugs of the mobile roster feeds.
var RosterTeams = []string{
	"dream", "mystics", "sky", "sun", "fever", "liberty",
	"wings", "aces", "sparks", "lynx", "mercury", "storm",
}

type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*httputil.Response, error)
}

// Client reads the WNBA mobile data feeds.
type Client struct {
	http    Fetcher
	baseURL string
}

func NewClient(http Fetcher, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultDataURL
	}
	return &Client{http: http, baseURL: baseURL}
}

type rosterFeed struct {
	T struct {
		TID int               `json:"tid"`
		PL  []json.RawMessage `json:"pl"`
	} `json:"t"`
}

// FetchRoster returns one team's players tagged with the feed's team id.
func (c *Client) FetchRoster(ctx context.Context, season, team string) ([]models.WNBAPlayer, error) {
	url := fmt.Sprintf("%s/%s/teams/%s_roster.json", c.baseURL, season, team)
	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var feed rosterFeed
	if err := json.Unmarshal(resp.Body, &feed); err != nil {
		return nil, fmt.Errorf("decode %s roster: %w", team, err)
	}

	players := make([]models.WNBAPlayer, 0, len(feed.T.PL))
	for _, raw := range feed.T.PL {
		var p models.WNBAPlayer
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s player: %w", team, err)
		}
		p.TeamID = feed.T.TID
		p.Data = withField(raw, "team_id", feed.T.TID)
		players = append(players, p)
	}
	return players, nil
}

// LoadRosters fetches every team's roster for a season into the store. A
// team whose feed fails is logged and skipped.
func (c *Client) LoadRosters(ctx context.Context, store *Store, season string) (int, error) {
	var total int
	for _, team := range RosterTeams {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		players, err := c.FetchRoster(ctx, season, team)
		if err != nil {
			log.Printf("WNBA: %s roster: %v", team, err)
			continue
		}
		if err := store.UpsertPlayers(players); err != nil {
			return total, fmt.Errorf("save %s roster: %w", team, err)
		}
		log.Printf("WNBA: loaded %d players for %s", len(players), team)
		total += len(players)
	}
	return total, nil
}

// FetchPlayerIndex saves the season's player info feed as indented JSON.
func (c *Client) FetchPlayerIndex(ctx context.Context, season, outPath string) error {
	url := fmt.Sprintf("%s/%s/players/10_player_info.json", c.baseURL, season)
	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return fmt.Errorf("decode player index: %w", err)
	}
	return export.WriteJSON(outPath, v)
}

// LoadTeams upserts a teams.json array keyed by id.
func LoadTeams(store *Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}

	teams := make([]models.WNBATeam, 0, len(raws))
	for _, raw := range raws {
		var t models.WNBATeam
		if err := json.Unmarshal(raw, &t); err != nil {
			return 0, fmt.Errorf("decode team: %w", err)
		}
		t.Data = raw
		teams = append(teams, t)
	}
	return len(teams), store.UpsertTeams(teams)
}

// ============================================================================
// Following exports
// ============================================================================

// joinDate converts "02 Jan 2006" to "2006-01-02".
func joinDate(s string) (string, error) {
	t, err := time.Parse("2 Jan 2006", s)
	if err != nil {
		return "", fmt.Errorf("join_date %q: %w", s, err)
	}
	return t.Format("2006-01-02"), nil
}

// LoadFollowingCSV loads {dir}/{account}.csv.
func LoadFollowingCSV(store *Store, dir, account string) (int, error) {
	rows, err := export.ReadCSVMaps(filepath.Join(dir, account+".csv"))
	if err != nil {
		return 0, err
	}

	out := make([]models.Following, 0, len(rows))
	for _, row := range rows {
		f, err := following(row, account)
		if err != nil {
			return 0, err
		}
		out = append(out, f)
	}
	return len(out), store.UpsertFollowing(out)
}

// LoadFollowingJSON loads {dir}/{account}.json, one object per line.
func LoadFollowingJSON(store *Store, dir, account string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, account+".json"))
	if err != nil {
		return 0, err
	}

	var out []models.Following
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return 0, fmt.Errorf("decode line %d: %w", len(out)+1, err)
		}
		f, err := following(row, account)
		if err != nil {
			return 0, err
		}
		out = append(out, f)
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return len(out), store.UpsertFollowing(out)
}

func following[V any](row map[string]V, account string) (models.Following, error) {
	m := make(map[string]any, len(row)+1)
	for k, v := range row {
		m[k] = v
	}
	date, err := joinDate(fmt.Sprint(m["join_date"]))
	if err != nil {
		return models.Following{}, err
	}
	m["join_date"] = date
	m["account_name"] = account

	data, err := json.Marshal(m)
	if err != nil {
		return models.Following{}, err
	}
	return models.Following{
		ID:          fmt.Sprint(m["id"]),
		AccountName: account,
		JoinDate:    date,
		Data:        data,
	}, nil
}

// withField returns obj with one extra key set.
func withField(obj json.RawMessage, key string, value any) json.RawMessage {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(obj, &m); err != nil {
		return obj
	}
	v, err := json.Marshal(value)
	if err != nil {
		return obj
	}
	m[key] = v
	out, err := json.Marshal(m)
	if err != nil {
		return obj
	}
	return out
}
