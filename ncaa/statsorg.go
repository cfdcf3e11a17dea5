package ncaa

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"wbb_scrooper/export"
)

const DefaultStatsBaseURL = "https://stats.ncaa.org"

// YearCodes maps a season's ending year to its stats.ncaa.org roster code.
// Earlier seasons have no game lists.
var YearCodes = map[int]int{
	2025: 16720,
	2024: 16500,
	2023: 16061,
	2022: 15866,
	2021: 15500,
	2020: 15002,
	2019: 14320,
	2018: 12911,
	2017: 12500,
	2016: 12280,
	2015: 12021,
	2014: 11560,
	2013: 11240,
	2012: 10760,
	2011: 10420,
	2010: 10261,
	2009: 10140,
}

var (
	teamIDPattern   = regexp.MustCompile(`/teams/(\d+)`)
	playerIDPattern = regexp.MustCompile(`/(\d+)$`)
)

// StatsTeam is one team from a saved stats.ncaa.org teams page.
type StatsTeam struct {
	Name   string
	URL    string
	Season string
	NcaaID string
}

var StatsTeamCSVHeader = []string{"team_name", "url", "season", "ncaa_id"}

func (t StatsTeam) CSVRow() []string {
	return []string{t.Name, t.URL, t.Season, t.NcaaID}
}

// DivisionTeam is one team from the inst_team_list page.
type DivisionTeam struct {
	Season   int
	Division int
	TeamID   string
	Team     string
	URL      string
}

var DivisionTeamCSVHeader = []string{"season", "division", "team_id", "team", "url"}

func (t DivisionTeam) CSVRow() []string {
	return []string{strconv.Itoa(t.Season), strconv.Itoa(t.Division), t.TeamID, t.Team, t.URL}
}

// StatsPlayer is a roster row; MasterID is filled in from the player page.
type StatsPlayer struct {
	Season   string
	TeamID   string
	Name     string
	PlayerID string
	URL      string
	MasterID string
}

var (
	StatsPlayerCSVHeader = []string{"season", "team_id", "player_name", "player_id", "player_url"}
	MasterIDCSVHeader    = []string{"season", "team_id", "player_name", "player_id", "player_url", "master_id"}
)

func (p StatsPlayer) CSVRow() []string {
	return []string{p.Season, p.TeamID, p.Name, p.PlayerID, p.URL}
}

func (p StatsPlayer) MasterCSVRow() []string {
	return append(p.CSVRow(), p.MasterID)
}

func parseHTML(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// ParseTeamsPage reads team links from a saved teams page.
func ParseTeamsPage(body []byte, season string) ([]StatsTeam, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return nil, err
	}
	var teams []StatsTeam
	doc.Find("tr[role=row]").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.skipMask").First()
		if link.Length() == 0 {
			return
		}
		href := link.AttrOr("href", "")
		t := StatsTeam{
			Name:   strings.TrimSpace(link.Text()),
			URL:    DefaultStatsBaseURL + href,
			Season: season,
		}
		if m := teamIDPattern.FindStringSubmatch(href); m != nil {
			t.NcaaID = m[1]
		}
		teams = append(teams, t)
	})
	return teams, nil
}

// ParseTeamList reads the inst_team_list page for one season and division.
func ParseTeamList(body []byte, year, division int) ([]DivisionTeam, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return nil, err
	}
	var teams []DivisionTeam
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !teamIDPattern.MatchString(href) {
			return
		}
		parts := strings.Split(href, "/")
		teams = append(teams, DivisionTeam{
			Season:   year,
			Division: division,
			TeamID:   parts[len(parts)-1],
			Team:     strings.TrimSpace(a.Text()),
			URL:      DefaultStatsBaseURL + href,
		})
	})
	return teams, nil
}

// ParseMasterTeamID reads the id segment of the team's history link.
func ParseMasterTeamID(body []byte) string {
	doc, err := parseHTML(body)
	if err != nil {
		return ""
	}
	var id string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, "/history/") {
			return true
		}
		if parts := strings.Split(href, "/"); len(parts) > 4 {
			id = parts[4]
		}
		return false
	})
	return id
}

// ParseRosterPlayers reads the season's roster table. The season is the
// ending year used by YearCodes.
func ParseRosterPlayers(body []byte, season, teamID string) ([]StatsPlayer, error) {
	year, err := strconv.Atoi(season)
	if err != nil {
		return nil, fmt.Errorf("roster season %q: %w", season, err)
	}
	code, ok := YearCodes[year]
	if !ok {
		return nil, fmt.Errorf("no roster code for %d", year)
	}

	doc, err := parseHTML(body)
	if err != nil {
		return nil, err
	}
	table := doc.Find(fmt.Sprintf("table#rosters_form_players_%d_data_table", code))
	if table.Length() == 0 {
		return nil, fmt.Errorf("no roster table found for team ID %s", teamID)
	}

	var players []StatsPlayer
	table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		link := cells.Eq(3).Find("a").First()
		if link.Length() == 0 {
			return
		}
		href := link.AttrOr("href", "")
		p := StatsPlayer{
			Season: season,
			TeamID: teamID,
			Name:   strings.TrimSpace(link.Text()),
			URL:    DefaultStatsBaseURL + href,
		}
		if m := playerIDPattern.FindStringSubmatch(href); m != nil {
			p.PlayerID = m[1]
		}
		players = append(players, p)
	})
	return players, nil
}

// ParseMasterID reads the player sequence id from a player page.
func ParseMasterID(body []byte) string {
	doc, err := parseHTML(body)
	if err != nil {
		return ""
	}
	return doc.Find("form#sit_stat_form_id input#stats_player_seq_field_id").First().AttrOr("value", "")
}

// ============================================================================
// Client
// ============================================================================

// StatsClient fetches stats.ncaa.org pages one at a time with a delay.
type StatsClient struct {
	http  Fetcher
	base  string
	delay time.Duration
}

func NewStatsClient(http Fetcher, baseURL string, delay time.Duration) *StatsClient {
	if baseURL == "" {
		baseURL = DefaultStatsBaseURL
	}
	return &StatsClient{http: http, base: strings.TrimRight(baseURL, "/"), delay: delay}
}

func (c *StatsClient) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.delay):
		return nil
	}
}

func (c *StatsClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.http.GetWithHeaders(ctx, rawURL, map[string]string{"User-Agent": "Mozilla/5.0"})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

// TeamList scrapes every division for the years from end down to start.
func (c *StatsClient) TeamList(ctx context.Context, start, end int, divisions []int) ([]DivisionTeam, error) {
	var all []DivisionTeam
	for year := end; year >= start; year-- {
		for _, div := range divisions {
			if len(all) > 0 {
				if err := c.wait(ctx); err != nil {
					return all, err
				}
			}
			q := url.Values{
				"academic_year": {strconv.Itoa(year)},
				"conf_id":       {"-1"},
				"division":      {strconv.Itoa(div)},
				"sport_code":    {"WBB"},
			}
			body, err := c.get(ctx, c.base+"/team/inst_team_list?"+q.Encode())
			if err != nil {
				log.Printf("NCAA: error fetching Division %d, %d: %v", div, year, err)
				continue
			}
			teams, err := ParseTeamList(body, year, div)
			if err != nil {
				return all, err
			}
			log.Printf("NCAA: found %d teams for Division %d, %d", len(teams), div, year)
			all = append(all, teams...)
		}
	}
	return all, nil
}

// Rosters reads a teams CSV (season, ncaa_id) and scrapes each roster page.
func (c *StatsClient) Rosters(ctx context.Context, teamsCSV string) ([]StatsPlayer, error) {
	rows, err := export.ReadCSVMaps(teamsCSV)
	if err != nil {
		return nil, err
	}
	var players []StatsPlayer
	for i, row := range rows {
		if i > 0 {
			if err := c.wait(ctx); err != nil {
				return players, err
			}
		}
		teamID := row["ncaa_id"]
		rosterURL := fmt.Sprintf("%s/teams/%s/roster", c.base, teamID)
		body, err := c.get(ctx, rosterURL)
		if err != nil {
			log.Printf("NCAA: failed to fetch roster for team ID %s: %v", teamID, err)
			continue
		}
		found, err := ParseRosterPlayers(body, row["season"], teamID)
		if err != nil {
			log.Printf("NCAA: %v", err)
			continue
		}
		players = append(players, found...)
	}
	return players, nil
}

// MasterIDs fetches each player page for its master id. Players whose page
// fails are returned separately.
func (c *StatsClient) MasterIDs(ctx context.Context, players []StatsPlayer) (found, failed []StatsPlayer, err error) {
	for i, p := range players {
		if i > 0 {
			if err := c.wait(ctx); err != nil {
				return found, failed, err
			}
		}
		body, err := c.get(ctx, p.URL)
		if err != nil {
			log.Printf("NCAA: failed to fetch page for %s: %v", p.Name, err)
			failed = append(failed, p)
			continue
		}
		p.MasterID = ParseMasterID(body)
		found = append(found, p)
	}
	return found, failed, nil
}

// MasterTeamIDs adds master_team_id and div to each team row, leaving the id
// blank when the page fails.
func (c *StatsClient) MasterTeamIDs(ctx context.Context, teams []DivisionTeam) ([][]string, error) {
	rows := make([][]string, 0, len(teams))
	for i, t := range teams {
		if i > 0 {
			if err := c.wait(ctx); err != nil {
				return rows, err
			}
		}
		id := ""
		if body, err := c.get(ctx, t.URL); err != nil {
			log.Printf("NCAA: error processing %s: %v", t.URL, err)
		} else {
			id = ParseMasterTeamID(body)
		}
		rows = append(rows, append(t.CSVRow(), id, strconv.Itoa(t.Division)))
	}
	return rows, nil
}

// ============================================================================
// Writers
// ============================================================================

func WriteStatsTeams(path string, teams []StatsTeam) error {
	rows := make([][]string, len(teams))
	for i, t := range teams {
		rows[i] = t.CSVRow()
	}
	return export.WriteCSV(path, StatsTeamCSVHeader, rows)
}

func WriteDivisionTeams(path string, teams []DivisionTeam) error {
	rows := make([][]string, len(teams))
	for i, t := range teams {
		rows[i] = t.CSVRow()
	}
	return export.WriteCSV(path, DivisionTeamCSVHeader, rows)
}

func WriteMasterTeamIDs(path string, rows [][]string) error {
	return export.WriteCSV(path, append(append([]string{}, DivisionTeamCSVHeader...), "master_team_id", "div"), rows)
}

func WriteStatsPlayers(path string, players []StatsPlayer) error {
	rows := make([][]string, len(players))
	for i, p := range players {
		rows[i] = p.CSVRow()
	}
	return export.WriteCSV(path, StatsPlayerCSVHeader, rows)
}

// WriteMasterIDs writes the players with master ids and the failures, each
// with the same header.
func WriteMasterIDs(path, errPath string, found, failed []StatsPlayer) error {
	for _, f := range []struct {
		path    string
		players []StatsPlayer
	}{{path, found}, {errPath, failed}} {
		rows := make([][]string, len(f.players))
		for i, p := range f.players {
			rows[i] = p.MasterCSVRow()
		}
		if err := export.WriteCSV(f.path, MasterIDCSVHeader, rows); err != nil {
			return err
		}
	}
	return nil
}
