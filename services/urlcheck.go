package services

import (
	"context"
	"log"
	"strconv"
	"time"

	"wbb_scrooper/export"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
)

const (
	URLChecksFile   = "team_url_checks.csv"
	urlCheckTimeout = 30 * time.Second
)

// Header issues HEAD requests following redirects.
type Header interface {
	Head(ctx context.Context, rawURL string) (*httputil.Response, error)
}

// URLCheck is the final status of one team's athletics url. Requests that
// fail outright record StatusCode 0 and the error.
type URLCheck struct {
	TeamID     int
	Team       string
	URL        string
	StatusCode int
	Err        string
}

func (c URLCheck) OK() bool {
	return c.StatusCode >= 200 && c.StatusCode < 400
}

var URLCheckCSVHeader = []string{"ncaa_id", "team", "URL", "Status Code", "error"}

func (c URLCheck) CSVRow() []string {
	return []string{strconv.Itoa(c.TeamID), c.Team, c.URL, strconv.Itoa(c.StatusCode), c.Err}
}

// URLChecker confirms that every team url in teams.json still resolves.
type URLChecker struct {
	http    Header
	timeout time.Duration
	delay   time.Duration
}

func NewURLChecker(http Header, delay time.Duration) *URLChecker {
	return &URLChecker{http: http, timeout: urlCheckTimeout, delay: delay}
}

// Check sends one HEAD per team with a url, in teams order.
func (c *URLChecker) Check(ctx context.Context, teams []models.Team) []URLCheck {
	var out []URLCheck
	for _, team := range teams {
		if team.URL == "" {
			continue
		}
		if len(out) > 0 && c.delay > 0 {
			select {
			case <-ctx.Done():
				return out
			case <-time.After(c.delay):
			}
		}
		if ctx.Err() != nil {
			return out
		}
		out = append(out, c.check(ctx, team))
	}
	return out
}

func (c *URLChecker) check(ctx context.Context, team models.Team) URLCheck {
	res := URLCheck{TeamID: team.ID(), Team: team.Name, URL: team.URL}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.http.Head(reqCtx, team.URL)
	if err != nil {
		res.Err = err.Error()
		log.Printf("URLCheck: %s: %v", team.URL, err)
		return res
	}
	res.StatusCode = resp.StatusCode
	if !res.OK() {
		log.Printf("URLCheck: %s returned %d", team.URL, resp.StatusCode)
	}
	return res
}

func WriteURLChecks(path string, checks []URLCheck) error {
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		rows = append(rows, c.CSVRow())
	}
	return export.WriteCSV(path, URLCheckCSVHeader, rows)
}
