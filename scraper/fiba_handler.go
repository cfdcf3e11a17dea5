package scraper

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"time"

	"wbb_scrooper/config"
	"wbb_scrooper/export"
	"wbb_scrooper/fiba"
	"wbb_scrooper/models"
)

// FIBAGamesHandler pulls the GDAP game feed for a range of years.
type FIBAGamesHandler struct {
	deps Deps
}

func (h *FIBAGamesHandler) ID() string { return HandlerFIBAGames }

func (h *FIBAGamesHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	year := time.Now().Year()
	start, err := intParam(job, "start_year", year)
	if err != nil {
		return 0, err
	}
	end, err := intParam(job, "end_year", start)
	if err != nil {
		return 0, err
	}

	client := fiba.NewGamesClient(h.deps.HTTP, job.Param("api_url", ""), job.Param("subscription_key", ""), jobDelay(h.deps.Config, job))
	raw, err := client.FetchGames(ctx, start, end)
	if err != nil {
		return 0, err
	}
	games := fiba.FlattenGames(raw)

	path := filepath.Join(outputDir(h.deps.Config, job), fiba.GamesCSVName(start, end))
	if err := fiba.WriteGames(path, games); err != nil {
		return len(games), err
	}
	run.AddOutput(path)
	log.Printf("FIBA: kept %d of %d games", len(games), len(raw))
	return len(games), nil
}

// FIBABoxscoresHandler crawls the boxscores of one or more events.
type FIBABoxscoresHandler struct {
	deps Deps
}

func (h *FIBABoxscoresHandler) ID() string { return HandlerFIBABoxscores }

func (h *FIBABoxscoresHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	events := listParam(job, "events", "")
	if len(events) == 0 {
		return 0, errors.New("fiba_boxscores needs an events param")
	}

	crawler := fiba.NewBoxscoreCrawler(job.Param("base_url", ""), h.deps.Config.HTTP.UserAgent)
	if job.RateLimitMS > 0 {
		crawler.Delay = job.Delay()
	}

	total := 0
	for _, event := range events {
		header, rows, err := crawler.Crawl(ctx, event)
		if err != nil {
			log.Printf("FIBA: %s: %v", event, err)
			run.ErrorsCount++
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
		}
		if len(rows) == 0 {
			continue
		}

		csvRows := make([][]string, 0, len(rows))
		for _, r := range rows {
			csvRows = append(csvRows, r.CSVRow())
		}
		path := filepath.Join(outputDir(h.deps.Config, job), event+"_boxscores.csv")
		if err := export.WriteCSV(path, header, csvRows); err != nil {
			return total, err
		}
		run.AddOutput(path)
		total += len(rows)
	}
	return total, nil
}

// FIBAPlayersHandler scrapes player lines for every game in a games CSV.
type FIBAPlayersHandler struct {
	deps Deps
}

func (h *FIBAPlayersHandler) ID() string { return HandlerFIBAPlayers }

func (h *FIBAPlayersHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	out := outputDir(h.deps.Config, job)
	games, err := fiba.LoadGameList(job.Param("games", filepath.Join(out, "fiba_games.csv")))
	if err != nil {
		return 0, err
	}
	if limit, err := intParam(job, "limit", 0); err != nil {
		return 0, err
	} else if limit > 0 && len(games) > limit {
		games = games[:limit]
	}

	delay := job.Delay()
	if delay == 0 {
		delay = time.Second
	}
	stats, err := fiba.NewPlayerScraper(h.deps.HTTP, job.Param("base_url", ""), delay).ScrapeAll(ctx, games)
	if err != nil && len(stats) == 0 {
		return 0, err
	}
	if err != nil {
		log.Printf("FIBA: player scrape stopped early: %v", err)
		run.ErrorsCount++
	}

	path := filepath.Join(out, "fiba_player_stats.csv")
	if err := fiba.WritePlayerStats(path, stats); err != nil {
		return len(stats), err
	}
	run.AddOutput(path)
	return len(stats), nil
}
