package showbuzz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/config"
	"wbb_scrooper/export"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestURLCandidates(t *testing.T) {
	urls := URLCandidates(day("2019-03-22"))
	want := DefaultBaseURL + "showbuzzdailys-top-150-friday-cable-originals-network-finals-3-22-2019.html"
	if urls[0] != want {
		t.Fatalf("expected primary %s, got %s", want, urls[0])
	}
	if len(urls) != 11 {
		t.Fatalf("expected 11 candidates, got %d", len(urls))
	}
	if !strings.Contains(urls[6], "preliminary-showbuzzdailys-top-150-friday") {
		t.Fatalf("expected preliminary page at index 6, got %s", urls[6])
	}
}

func TestURLCandidatesMisdatedPages(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2018-03-05", "network-finals-3-d-2018.html"},
		{"2019-05-22", "wednesday-cable-originals-network-finals-5-23-2019.html"},
	}
	for _, c := range cases {
		urls := URLCandidates(day(c.date))
		if len(urls) != 12 {
			t.Fatalf("%s: expected 12 candidates, got %d", c.date, len(urls))
		}
		if !strings.HasSuffix(urls[1], c.want) {
			t.Fatalf("%s: expected second candidate ending %s, got %s", c.date, c.want, urls[1])
		}
	}
}

func TestParseRatingsKeepsLast150(t *testing.T) {
	ratings, err := ParseRatings(loadFixture(t, "chart_2019-03-22.html"), day("2019-03-22"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(ratings) != 150 {
		t.Fatalf("expected 150 programs, got %d", len(ratings))
	}
	want := models.ShowRating{
		Rank: "1", Program: "NCAA WOMENS BASKETBALL", Network: "TNT", Time: "20:00",
		Duration: "90", Rating: "0.99", Viewers: "2871", Date: "2019-03-22",
	}
	if diff := cmp.Diff(want, ratings[0]); diff != "" {
		t.Fatalf("first program mismatch (-want +got):\n%s", diff)
	}
	if ratings[149].Rank != "150" {
		t.Fatalf("expected last rank 150, got %s", ratings[149].Rank)
	}
}

func TestParseRatingsDetailedColumns(t *testing.T) {
	ratings, err := ParseRatings(loadFixture(t, "chart_detailed.html"), day("2020-08-06"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(ratings) != 2 {
		t.Fatalf("expected 2 programs, got %d", len(ratings))
	}
	if ratings[0].Rating != "0.31" || ratings[0].Viewers != "1204" {
		t.Fatalf("expected rating 0.31 and 1204 viewers, got %+v", ratings[0])
	}
	if ratings[1].Viewers != "4102" {
		t.Fatalf("expected total viewers from last column, got %s", ratings[1].Viewers)
	}
}

func TestParseRatingsKeepsNonNumericCells(t *testing.T) {
	page := `<table>
<tr><td>Top 150 Friday Cable Originals</td></tr>
<tr><th>Rank</th><th>Program</th><th>Net</th><th>Time</th><th>Dur</th><th>P18-49</th><th>P2+ (000s)</th></tr>
<tr><td>T5</td><td>NCAA WOMENS BASKETBALL</td><td>ESPN2</td><td>19:00</td><td>1,440</td><td>0.20</td><td>n/a</td></tr>
</table>`
	ratings, err := ParseRatings([]byte(page), day("2019-03-22"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []models.ShowRating{{
		Rank: "T5", Program: "NCAA WOMENS BASKETBALL", Network: "ESPN2", Time: "19:00",
		Duration: "1440", Rating: "0.20", Viewers: "n/a", Date: "2019-03-22",
	}}
	if diff := cmp.Diff(want, ratings); diff != "" {
		t.Fatalf("ratings mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRatingsNoTable(t *testing.T) {
	_, err := ParseRatings([]byte("<html><body><p>Not found</p></body></html>"), day("2019-03-23"))
	if !errors.Is(err, ErrNoChart) {
		t.Fatalf("expected ErrNoChart, got %v", err)
	}
}

func TestScrapeRange(t *testing.T) {
	chart := loadFixture(t, "chart_2019-03-22.html")
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/articles/showbuzzdailys-top-150-friday-cable-originals-network-finals-3-22-2019.html",
			"/articles/showbuzzdailys-top-150-saturday-cable-originals-network-update-3-23-2019.html":
			w.Write(chart)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	clients := httputil.NewClients(config.HTTPConfig{UserAgent: "wbb-test", Timeout: 5 * time.Second})
	s := NewScraper(clients, srv.URL+"/articles", 0)
	out := t.TempDir()

	written, err := s.ScrapeRange(context.Background(), day("2019-03-22"), day("2019-03-24"), out)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	want := []string{filepath.Join(out, "2019-03-22.csv"), filepath.Join(out, "2019-03-23.csv")}
	if diff := cmp.Diff(want, written); diff != "" {
		t.Fatalf("written files mismatch (-want +got):\n%s", diff)
	}

	header, rows, err := export.ReadCSV(written[1])
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if diff := cmp.Diff(models.ShowRatingCSVHeader, header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if len(rows) != 150 || rows[0][7] != "2019-03-23" {
		t.Fatalf("unexpected rows: %d, first %v", len(rows), rows[0])
	}

	// One request for the 22nd, two for the 23rd, all eleven for the 24th.
	if n := requests.Load(); n != 14 {
		t.Fatalf("expected every candidate for the 24th to be tried, got %d requests", n)
	}
}
