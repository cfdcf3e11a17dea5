package fiba

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"wbb_scrooper/export"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
)

const (
	DefaultGamesAPI = "https://digital-api.fiba.basketball/hapi/getgdapgamesbetweentwodates"
	// Public key the fiba.basketball front end sends with every API call.
	DefaultSubscriptionKey = "c7616771331d48dd9262fa001b4c10be"
)

// Fetcher is the HTTP surface the FIBA scrapers use.
type Fetcher interface {
	GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string) (*httputil.Response, error)
	GetCached(ctx context.Context, rawURL string) ([]byte, error)
	ResolveRedirect(ctx context.Context, rawURL string) (string, error)
}

// GamesClient pulls the GDAP game feed one calendar month at a time.
type GamesClient struct {
	http   Fetcher
	apiURL string
	key    string
	delay  time.Duration
}

func NewGamesClient(http Fetcher, apiURL, key string, delay time.Duration) *GamesClient {
	if apiURL == "" {
		apiURL = DefaultGamesAPI
	}
	if key == "" {
		key = DefaultSubscriptionKey
	}
	return &GamesClient{http: http, apiURL: apiURL, key: key, delay: delay}
}

func (c *GamesClient) headers() map[string]string {
	return map[string]string{
		"Accept":                    "*/*",
		"Accept-Language":           "en-US,en;q=0.9",
		"Origin":                    "https://www.fiba.basketball",
		"Referer":                   "https://www.fiba.basketball/",
		"Sec-Fetch-Dest":            "empty",
		"Sec-Fetch-Mode":            "cors",
		"Sec-Fetch-Site":            "same-site",
		"Content-Type":              "application/json",
		"Ocp-Apim-Subscription-Key": c.key,
	}
}

// MonthWindow is one dateFrom/dateTo request range.
type MonthWindow struct {
	From string
	To   string
}

// MonthWindows returns one window per month, January of startYear through
// December of endYear.
func MonthWindows(startYear, endYear int) []MonthWindow {
	const layout = "2006-01-02T15:04:05.000Z"
	var out []MonthWindow
	for y := startYear; y <= endYear; y++ {
		for m := time.January; m <= time.December; m++ {
			from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
			out = append(out, MonthWindow{From: from.Format(layout), To: from.AddDate(0, 1, 0).Format(layout)})
		}
	}
	return out
}

// FetchGames aggregates the raw game objects for the year range.
func (c *GamesClient) FetchGames(ctx context.Context, startYear, endYear int) ([]map[string]any, error) {
	var all []map[string]any
	for i, w := range MonthWindows(startYear, endYear) {
		if i > 0 && c.delay > 0 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(c.delay):
			}
		}

		q := url.Values{}
		q.Set("dateFrom", w.From)
		q.Set("dateTo", w.To)
		log.Printf("FIBA: fetching games %s", w.From[:7])

		resp, err := c.http.GetWithHeaders(ctx, c.apiURL+"?"+q.Encode(), c.headers())
		if err != nil {
			return all, fmt.Errorf("fetch games %s: %w", w.From[:7], err)
		}
		games, err := decodeGames(resp.Body)
		if err != nil {
			return all, fmt.Errorf("games %s: %w", w.From[:7], err)
		}
		all = append(all, games...)
	}
	return all, nil
}

func decodeGames(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var games []map[string]any
	if err := dec.Decode(&games); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return games, nil
}

// ============================================================================
// Flattening
// ============================================================================

type gameColumn struct {
	name string
	path []string
	// nested values follow the feed's lookup rule: falsy becomes empty.
	nested bool
}

func top(name, key string) gameColumn { return gameColumn{name: name, path: []string{key}} }

func nested(name string, keys ...string) gameColumn {
	return gameColumn{name: name, path: keys, nested: true}
}

var gameColumns = []gameColumn{
	top("Game ID", "gameId"),
	top("Game Name", "gameName"),
	top("Game Number", "gameNumber"),
	top("Status Code", "statusCode"),
	nested("Team A ID", "teamA", "teamId"),
	nested("Team A Organisation ID", "teamA", "organisationId"),
	nested("Team A Code", "teamA", "code"),
	nested("Team A Official Name", "teamA", "officialName"),
	nested("Team A Short Name", "teamA", "shortName"),
	nested("Team B ID", "teamB", "teamId"),
	nested("Team B Organisation ID", "teamB", "organisationId"),
	nested("Team B Code", "teamB", "code"),
	nested("Team B Official Name", "teamB", "officialName"),
	nested("Team B Short Name", "teamB", "shortName"),
	top("Team A Score", "teamAScore"),
	top("Team B Score", "teamBScore"),
	top("Is Live", "isLive"),
	top("Current Period", "currentPeriod"),
	top("Chrono", "chrono"),
	top("Live Game Status", "liveGameStatus"),
	top("Current Period Status", "currentPeriodStatus"),
	top("Host City", "hostCity"),
	top("Host Country", "hostCountry"),
	top("Host Country Code", "hostCountryCode"),
	top("Venue ID", "venueId"),
	top("Venue Name", "venueName"),
	top("Game Date Time", "gameDateTime"),
	top("Game Date Time UTC", "gameDateTimeUTC"),
	top("Has Time Game Date Time", "hasTimeGameDateTime"),
	top("IANA Time Zone", "ianaTimeZone"),
	top("UTC Offset", "utcOffset"),
	top("Is Postponed", "isPostponed"),
	top("Is Played Behind Closed Doors", "isPlayedBehindClosedDoors"),
	top("Venue Capacity", "venueCapacity"),
	top("Spectators", "spectators"),
	top("Statistic System", "statisticSystem"),
	top("Group ID", "groupId"),
	top("Group Pairing Code", "groupPairingCode"),
	nested("Round ID", "round", "roundId"),
	nested("Round Code", "round", "roundCode"),
	nested("Round Name", "round", "roundName"),
	nested("Round Number", "round", "roundNumber"),
	nested("Round Type", "round", "roundType"),
	nested("Round Status Code", "round", "roundStatusCode"),
	nested("Competition ID", "competition", "competitionId"),
	nested("Competition Code", "competition", "competitionCode"),
	nested("Competition Official Name", "competition", "officialName"),
	nested("Competition Start", "competition", "start"),
	nested("Competition End", "competition", "end"),
	nested("Competition Status", "competition", "status"),
	nested("Competition Age Category", "competition", "ageCategory"),
	nested("Competition Gender", "competition", "gender"),
	nested("Competition FIBA Zone", "competition", "fibaZone"),
	nested("Competition Zone Code", "competition", "zoneInformation", "zoneCode"),
	nested("Competition Type", "competition", "competitionType"),
	nested("Competition Category Code", "competition", "competitionCategory", "code"),
	nested("Competition Category Name", "competition", "competitionCategory", "name"),
}

// GameColumns is the header of the flattened games CSV.
func GameColumns() []string {
	out := make([]string, len(gameColumns))
	for i, c := range gameColumns {
		out[i] = c.name
	}
	return out
}

// FlattenGames keeps valid women's games and flattens each to named columns.
func FlattenGames(games []map[string]any) []models.FIBAGame {
	var out []models.FIBAGame
	for _, g := range games {
		row := make(models.FIBAGame, len(gameColumns))
		for _, col := range gameColumns {
			if col.nested {
				row[col.name] = lookupNested(g, col.path)
			} else {
				row[col.name] = scalar(g[col.path[0]])
			}
		}
		if row["Status Code"] == "VALID" && row["Competition Gender"] == "Women" {
			out = append(out, row)
		}
	}
	return out
}

func lookupNested(m map[string]any, path []string) string {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
		if falsy(cur) {
			return ""
		}
	}
	return scalar(cur)
}

func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// GamesCSVName is fiba_games_{year}.csv or fiba_games_{start}-{end}.csv.
func GamesCSVName(startYear, endYear int) string {
	if startYear == endYear {
		return fmt.Sprintf("fiba_games_%d.csv", startYear)
	}
	return fmt.Sprintf("fiba_games_%d-%d.csv", startYear, endYear)
}

func WriteGames(path string, games []models.FIBAGame) error {
	header := GameColumns()
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		row := make([]string, len(header))
		for i, h := range header {
			row[i] = g[h]
		}
		rows = append(rows, row)
	}
	return export.WriteCSV(path, header, rows)
}
