package scraper

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"wbb_scrooper/config"
	"wbb_scrooper/models"
	"wbb_scrooper/ncaa"
	"wbb_scrooper/officials"
)

// NCAAGamesHandler saves livestats JSON for every team and season into the
// game data directory.
type NCAAGamesHandler struct {
	deps Deps
}

func (h *NCAAGamesHandler) ID() string { return HandlerNCAAGames }

func (h *NCAAGamesHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	teams := config.FilterTeams(h.deps.Teams, job.Teams)
	if len(teams) == 0 {
		return 0, fmt.Errorf("no teams with a url match %v", job.Teams)
	}
	seasons := jobSeasons(h.deps.Config, job)
	for _, s := range seasons {
		if err := ncaa.ValidateSeason(s); err != nil {
			return 0, err
		}
	}

	dataDir := h.deps.Config.GameDataDir
	f := ncaa.NewGameFetcher(h.deps.HTTP, h.deps.Browser, dataDir, jobDelay(h.deps.Config, job))
	saved, failed := f.FetchTeams(ctx, teams, seasons)
	run.ErrorsCount += failed
	run.RecordsWritten = saved

	if boolParam(job, "count") {
		path := filepath.Join(outputDir(h.deps.Config, job), ncaa.CountsFile)
		if err := ncaa.CountGameFiles(teams, dataDir, path); err != nil {
			return saved, err
		}
		run.AddOutput(path)
		for _, s := range seasons {
			zero, err := ncaa.TeamsWithZeroGames(path, s)
			if err != nil {
				continue
			}
			if len(zero) > 0 {
				log.Printf("NCAA: %d teams have no %s games: %s", len(zero), s, strings.Join(zero, ", "))
			}
		}
	}
	return saved, ctx.Err()
}

// NCAAExportsHandler turns saved livestats into the per-season CSV exports,
// and optionally the games database and the Postgres officials table.
type NCAAExportsHandler struct {
	deps Deps
}

func (h *NCAAExportsHandler) ID() string { return HandlerNCAAExports }

func (h *NCAAExportsHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	teams := config.FilterTeams(h.deps.Teams, job.Teams)
	dataDir := h.deps.Config.GameDataDir
	out := outputDir(h.deps.Config, job)
	kinds := listParam(job, "exports", strings.Join(ncaa.AllExports, ","))

	exporter := ncaa.NewExporter(teams, dataDir, out)
	written := 0
	for _, season := range jobSeasons(h.deps.Config, job) {
		paths, err := exporter.Export(season, kinds...)
		for _, p := range paths {
			run.AddOutput(p)
		}
		if err != nil {
			return written, fmt.Errorf("export %s: %w", season, err)
		}
		written += len(paths)

		if h.deps.PG == nil || !boolParam(job, "postgres") {
			continue
		}
		games, err := officials.ConvertCSV(exporter.OutputPath(ncaa.ExportOfficials, season), "")
		if err != nil {
			log.Printf("NCAA: officials %s: %v", season, err)
			run.ErrorsCount++
			continue
		}
		if err := h.deps.PG.UpsertOfficialGames(ctx, games); err != nil {
			return written, err
		}
		run.RecordsWritten += len(games)
	}

	if dbPath := job.Param("games_db", ""); dbPath != "" {
		stats, err := ncaa.BuildGamesDB(dbPath, dataDir, teams)
		if err != nil {
			return written, err
		}
		log.Printf("NCAA: games db has %d games, skipped %d", stats.Games, stats.Skipped)
		run.AddOutput(dbPath)
		run.RecordsWritten += stats.Games
	}
	return written, nil
}

// NCAAPbpHandler pulls play-by-play from WMT for Sidearm teams.
type NCAAPbpHandler struct {
	deps Deps
}

func (h *NCAAPbpHandler) ID() string { return HandlerNCAAPbp }

func (h *NCAAPbpHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	dataDir := job.Param("data_dir", filepath.Join(h.deps.Config.DataDir, "wmt"))
	s := ncaa.NewWMTScraper(h.deps.HTTP, job.Param("api_url", ""), dataDir, jobDelay(h.deps.Config, job))

	total := 0
	for _, season := range jobSeasons(h.deps.Config, job) {
		total += s.ScrapeSeason(ctx, h.deps.Teams, season, job.Teams)
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
	run.RecordsWritten = total
	return total, nil
}
