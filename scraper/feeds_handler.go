package scraper

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"wbb_scrooper/config"
	"wbb_scrooper/models"
	"wbb_scrooper/services"
	"wbb_scrooper/showbuzz"
	"wbb_scrooper/wnba"
)

// WNBAHandler loads the team roster feeds into wnba.db, plus the optional
// teams file and following exports.
type WNBAHandler struct {
	deps Deps
}

func (h *WNBAHandler) ID() string { return HandlerWNBARosters }

func (h *WNBAHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	out := outputDir(h.deps.Config, job)
	dbPath := job.Param("db", filepath.Join(out, "wnba.db"))
	store, err := wnba.OpenStore(dbPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer store.Close()

	season := job.Param("season", strconv.Itoa(time.Now().Year()))
	client := wnba.NewClient(h.deps.HTTP, job.Param("data_url", ""))
	total, err := client.LoadRosters(ctx, store, season)
	if err != nil {
		return total, err
	}

	if teams := job.Param("teams_json", ""); teams != "" {
		n, err := wnba.LoadTeams(store, teams)
		if err != nil {
			log.Printf("WNBA: teams %s: %v", teams, err)
			run.ErrorsCount++
		}
		total += n
	}

	dir := job.Param("following_dir", out)
	for _, account := range listParam(job, "following", "") {
		n, err := wnba.LoadFollowingCSV(store, dir, account)
		if errors.Is(err, fs.ErrNotExist) {
			n, err = wnba.LoadFollowingJSON(store, dir, account)
		}
		if err != nil {
			log.Printf("WNBA: following %s: %v", account, err)
			run.ErrorsCount++
			continue
		}
		log.Printf("WNBA: loaded %d following rows for %s", n, account)
		total += n
	}

	if boolParam(job, "player_index") {
		path := filepath.Join(out, "wnba_players.json")
		if err := client.FetchPlayerIndex(ctx, season, path); err != nil {
			log.Printf("WNBA: player index: %v", err)
			run.ErrorsCount++
		} else {
			run.AddOutput(path)
		}
	}

	run.AddOutput(dbPath)
	run.RecordsWritten = total
	return total, nil
}

// ShowbuzzHandler saves the daily cable ratings charts for a date range.
// Without dates it fetches yesterday's chart.
type ShowbuzzHandler struct {
	deps Deps
}

func (h *ShowbuzzHandler) ID() string { return HandlerShowbuzz }

func (h *ShowbuzzHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	yesterday := time.Now().AddDate(0, 0, -1).Format(time.DateOnly)
	start, err := time.Parse(time.DateOnly, job.Param("start", yesterday))
	if err != nil {
		return 0, fmt.Errorf("param start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, job.Param("end", start.Format(time.DateOnly)))
	if err != nil {
		return 0, fmt.Errorf("param end: %w", err)
	}

	s := showbuzz.NewScraper(h.deps.HTTP, job.Param("base_url", ""), jobDelay(h.deps.Config, job))
	paths, err := s.ScrapeRange(ctx, start, end, outputDir(h.deps.Config, job))
	for _, p := range paths {
		run.AddOutput(p)
	}
	return len(paths), err
}

// URLCheckHandler records the HEAD status of every team url.
type URLCheckHandler struct {
	deps Deps
}

func (h *URLCheckHandler) ID() string { return HandlerURLCheck }

func (h *URLCheckHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	teams := config.FilterTeams(h.deps.Teams, job.Teams)
	checks := services.NewURLChecker(h.deps.HTTP, jobDelay(h.deps.Config, job)).Check(ctx, teams)
	for _, c := range checks {
		if !c.OK() {
			run.ErrorsCount++
		}
	}

	path := filepath.Join(outputDir(h.deps.Config, job), services.URLChecksFile)
	if err := services.WriteURLChecks(path, checks); err != nil {
		return len(checks), err
	}
	run.AddOutput(path)
	return len(checks), ctx.Err()
}
