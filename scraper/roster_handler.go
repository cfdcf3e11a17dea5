package scraper

import (
	"context"
	"fmt"
	"log"

	"wbb_scrooper/config"
	"wbb_scrooper/models"
	"wbb_scrooper/rosters"
)

const defaultRosterOverrides = "config/rosters.yaml"

// RostersHandler scrapes player and coach rosters for every team in
// teams.json, or for the job's team ids.
type RostersHandler struct {
	deps Deps
}

func (h *RostersHandler) ID() string { return HandlerRosters }

func (h *RostersHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	entities, err := rosters.ParseEntities(job.Param("entity", "all"))
	if err != nil {
		return 0, err
	}

	registry := rosters.NewRegistry()
	if err := registry.LoadOverrides(job.Param("overrides", defaultRosterOverrides)); err != nil {
		return 0, err
	}

	m := rosters.NewManager(h.deps.Teams, registry,
		rosters.Deps{HTTP: h.deps.HTTP, Browser: h.deps.Browser},
		outputDir(h.deps.Config, job), jobDelay(h.deps.Config, job))
	persist := boolParam(job, "sqlite")
	if persist {
		m.SetStores(h.deps.Store, h.deps.PG)
	}

	total := 0
	for _, season := range jobSeasons(h.deps.Config, job) {
		for _, entity := range entities {
			sum, err := m.ScrapeTeams(ctx, season, job.Teams, entity)
			if err != nil {
				return total, fmt.Errorf("%s %s: %w", season, entity.Label(), err)
			}
			total += sum.Count()
			run.ErrorsCount += sum.Errors

			paths, err := m.Write(sum, job.Teams)
			for _, p := range paths {
				run.AddOutput(p)
			}
			if err != nil {
				return total, err
			}

			if persist {
				n, err := m.Persist(ctx, sum)
				if err != nil {
					log.Printf("Rosters: persist %s %s: %v", season, entity.Label(), err)
					run.ErrorsCount++
					continue
				}
				run.RecordsWritten += n
			}
		}
	}
	return total, nil
}
