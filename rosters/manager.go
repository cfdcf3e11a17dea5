package rosters

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wbb_scrooper/config"
	"wbb_scrooper/export"
	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

// Manager runs the per-team strategies over teams.json and writes the
// season files.
type Manager struct {
	teams    []models.Team
	registry *Registry
	deps     Deps
	delay    time.Duration
	outDir   string

	store   *storage.SQLiteStore
	pgStore *storage.PostgresStore
}

func NewManager(teams []models.Team, registry *Registry, deps Deps, outDir string, delay time.Duration) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		teams:    teams,
		registry: registry,
		deps:     deps,
		delay:    delay,
		outDir:   outDir,
	}
}

// SetStores enables persistence. Either store may be nil.
func (m *Manager) SetStores(store *storage.SQLiteStore, pgStore *storage.PostgresStore) {
	m.store = store
	m.pgStore = pgStore
}

// Summary is the outcome of one ScrapeTeams call.
type Summary struct {
	Season          string
	Entity          Entity
	Players         []models.Player
	Coaches         []models.Coach
	ZeroTeams       []models.TeamFailure
	FailedYearCheck []models.TeamFailure
	Errors          int
}

func (s *Summary) Count() int {
	return len(s.Players) + len(s.Coaches)
}

// ScrapeTeams scrapes one entity kind for the selected teams. A team that
// errors is logged and counted as a zero team; a season mismatch is recorded
// separately and its records are discarded.
func (m *Manager) ScrapeTeams(ctx context.Context, season string, ids []int, entity Entity) (*Summary, error) {
	teams := config.FilterTeams(m.teams, ids)
	if len(teams) == 0 {
		return nil, fmt.Errorf("no teams with roster urls match %v", ids)
	}

	sum := &Summary{Season: season, Entity: entity}
	for i, team := range teams {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if i > 0 && m.delay > 0 {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			case <-time.After(m.delay):
			}
		}

		result, err := m.ScrapeTeam(ctx, team, season, entity)
		switch {
		case errors.Is(err, ErrSeasonMismatch):
			log.Printf("Rosters: year verification failed for %s (ID: %d)", team.Name, team.ID())
			sum.FailedYearCheck = append(sum.FailedYearCheck, models.TeamFailure{
				TeamID: team.ID(), Team: team.Name, URL: team.URL, Reason: err.Error(),
			})
			continue
		case err != nil:
			log.Printf("Rosters: failed to scrape %s: %v", team.Name, err)
			sum.Errors++
			sum.ZeroTeams = append(sum.ZeroTeams, models.TeamFailure{
				TeamID: team.ID(), Team: team.Name, URL: team.URL, Reason: err.Error(),
			})
			continue
		}

		if result.Count() == 0 {
			log.Printf("Rosters: no %s scraped from %s (ID: %d)", entity.Label(), team.Name, team.ID())
			sum.ZeroTeams = append(sum.ZeroTeams, models.TeamFailure{TeamID: team.ID(), Team: team.Name, URL: result.URL})
			continue
		}

		log.Printf("Rosters: scraped %d %s from %s", result.Count(), entity.Label(), team.Name)
		sum.Players = append(sum.Players, result.Players...)
		sum.Coaches = append(sum.Coaches, result.Coaches...)
	}
	return sum, nil
}

// ScrapeTeam runs the configured strategy for one team and cleans the result.
func (m *Manager) ScrapeTeam(ctx context.Context, team models.Team, season string, entity Entity) (*Result, error) {
	cfg := m.registry.Lookup(team.ID())
	log.Printf("Rosters: scraping %s (ID: %d) for %s with %s/%s", team.Name, team.ID(), season, cfg.Type, cfg.URLFormat)

	result, err := NewStrategy(cfg, m.deps).Scrape(ctx, team, season, entity)
	if err != nil {
		return nil, err
	}

	for i := range result.Players {
		cleanPlayer(&result.Players[i], cfg.AddState, team.State)
	}
	for i := range result.Coaches {
		c := &result.Coaches[i]
		c.Name = CleanFieldLabels(c.Name)
		c.Title = CleanFieldLabels(c.Title)
	}
	return result, nil
}

func cleanPlayer(p *models.Player, addState bool, state string) {
	p.Name = CleanFieldLabels(p.Name)
	p.Hometown = CleanFieldLabels(p.Hometown)
	p.HighSchool = CleanFieldLabels(p.HighSchool)
	p.PreviousSchool = CleanFieldLabels(p.PreviousSchool)
	p.AcademicYear = CleanFieldLabels(p.AcademicYear)

	if addState && state != "" && p.Hometown != "" && !strings.Contains(p.Hometown, ",") {
		p.Hometown = p.Hometown + ", " + state
	}
}

// ============================================================================
// Output
// ============================================================================

// OutputPath names the season file, with a team suffix for single-team runs.
func (m *Manager) OutputPath(season string, entity Entity, ids []int) string {
	prefix := "rosters"
	if entity == EntityCoach {
		prefix = "coaches"
	}
	name := fmt.Sprintf("%s_%s", prefix, season)
	if len(ids) == 1 {
		name += "_team_" + strconv.Itoa(ids[0])
	}
	return filepath.Join(m.outDir, name+".csv")
}

// Write saves the summary's CSV files and returns the paths written.
func (m *Manager) Write(sum *Summary, ids []int) ([]string, error) {
	out := m.OutputPath(sum.Season, sum.Entity, ids)
	var written []string

	if sum.Count() == 0 {
		log.Printf("Rosters: no %s to save", sum.Entity.Label())
	} else {
		var rows [][]string
		header := models.PlayerCSVHeader
		if sum.Entity == EntityCoach {
			header = models.CoachCSVHeader
			for _, c := range sum.Coaches {
				rows = append(rows, c.CSVRow())
			}
		} else {
			for _, p := range sum.Players {
				rows = append(rows, p.CSVRow())
			}
		}
		if err := export.WriteCSV(out, header, rows); err != nil {
			return written, err
		}
		log.Printf("Rosters: saved %d %s to %s", len(rows), sum.Entity.Label(), out)
		written = append(written, out)
	}

	if len(sum.ZeroTeams) > 0 {
		suffix := "_zero_players.csv"
		if sum.Entity == EntityCoach {
			suffix = "_zero_coaches.csv"
		}
		path := strings.TrimSuffix(out, ".csv") + suffix
		if err := writeFailures(path, sum.ZeroTeams, false); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if len(sum.FailedYearCheck) > 0 {
		path := strings.TrimSuffix(out, ".csv") + "_failed_year_check.csv"
		if err := writeFailures(path, sum.FailedYearCheck, true); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFailures(path string, teams []models.TeamFailure, withURL bool) error {
	header := []string{"team_id", "team_name"}
	if withURL {
		header = append(header, "url")
	}
	rows := make([][]string, 0, len(teams))
	for _, t := range teams {
		row := []string{strconv.Itoa(t.TeamID), t.Team}
		if withURL {
			row = append(row, t.URL)
		}
		rows = append(rows, row)
	}
	return export.WriteCSV(path, header, rows)
}

// Persist writes the summary to the SQLite store and mirrors it to Postgres
// when configured. It returns the number of rows written locally.
func (m *Manager) Persist(ctx context.Context, sum *Summary) (int, error) {
	var written int
	if m.store != nil {
		var err error
		if sum.Entity == EntityCoach {
			written, err = m.store.SaveCoaches(sum.Coaches)
		} else {
			written, err = m.store.SavePlayers(sum.Players)
		}
		if err != nil {
			return 0, fmt.Errorf("save %s: %w", sum.Entity.Label(), err)
		}
	}

	if m.pgStore != nil {
		var err error
		if sum.Entity == EntityCoach {
			err = m.pgStore.UpsertCoaches(ctx, sum.Coaches)
		} else {
			err = m.pgStore.UpsertPlayers(ctx, sum.Players)
		}
		if err != nil {
			log.Printf("Rosters: postgres mirror failed: %v", err)
		}
	}
	return written, nil
}

// ParseEntities turns "player", "coach" or "all" into the kinds to scrape.
func ParseEntities(s string) ([]Entity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "player", "players":
		return []Entity{EntityPlayer}, nil
	case "coach", "coaches":
		return []Entity{EntityCoach}, nil
	case "all":
		return []Entity{EntityPlayer, EntityCoach}, nil
	}
	return nil, fmt.Errorf("unknown entity type %q", s)
}
