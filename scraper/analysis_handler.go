package scraper

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"wbb_scrooper/coaches"
	"wbb_scrooper/config"
	"wbb_scrooper/models"
	"wbb_scrooper/officials"
)

// OfficialsHandler runs the officiating analyses over the officials exports.
type OfficialsHandler struct {
	deps Deps
}

func (h *OfficialsHandler) ID() string { return HandlerOfficials }

func (h *OfficialsHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	files := listParam(job, "files", "")
	if len(files) == 0 {
		dir := job.Param("source_dir", filepath.Join(h.deps.Config.DataDir, "ncaa_exports"))
		for _, season := range jobSeasons(h.deps.Config, job) {
			files = append(files, filepath.Join(dir, fmt.Sprintf("officials_%s.csv", season)))
		}
	}

	opts := officials.DefaultReportOptions()
	for key, dst := range map[string]*int{
		"min_games":             &opts.MinGames,
		"partnership_min_games": &opts.PartnershipMinGames,
		"season_min_games":      &opts.SeasonMinGames,
		"trend_min_games":       &opts.TrendMinGames,
		"chemistry_min_games":   &opts.ChemistryMinGames,
		"network_min_games":     &opts.NetworkMinGames,
		"top_partnerships":      &opts.TopPartnerships,
	} {
		n, err := intParam(job, key, *dst)
		if err != nil {
			return 0, err
		}
		*dst = n
	}

	report, paths, err := officials.Analyze(files, outputDir(h.deps.Config, job), opts)
	for _, p := range paths {
		run.AddOutput(p)
	}
	if err != nil {
		return 0, err
	}
	return len(report.Officials), nil
}

// CoachBiosHandler fetches coach bios and, when asked, extracts career
// histories with the model and loads them into the coach database.
type CoachBiosHandler struct {
	deps Deps
}

func (h *CoachBiosHandler) ID() string { return HandlerCoachBios }

func (h *CoachBiosHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	out := outputDir(h.deps.Config, job)
	limit, err := intParam(job, "limit", 0)
	if err != nil {
		return 0, err
	}
	opts := coaches.BioOptions{
		Names:   listParam(job, "names", ""),
		Shuffle: boolParam(job, "shuffle"),
		Limit:   limit,
		Demo:    boolParam(job, "demo"),
	}

	biosPath := filepath.Join(out, coaches.BiosFile)
	bios, err := coaches.FetchBios(ctx, h.deps.HTTP, job.Param("csv", "coaches.csv"), opts, biosPath)
	if err != nil {
		return 0, err
	}
	run.AddOutput(biosPath)
	if !boolParam(job, "histories") {
		return len(bios), nil
	}

	completer, err := coaches.NewAnthropicCompleter(h.deps.Config.Anthropic.APIKey, h.deps.Config.Anthropic.Model)
	if err != nil {
		return len(bios), err
	}

	histPath := filepath.Join(out, coaches.HistoriesFile)
	resume := boolParam(job, "resume")
	var existing []models.CoachHistory
	if resume {
		existing, err = coaches.LoadHistories(histPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return len(bios), err
		}
	}

	histories, err := coaches.ExtractHistories(ctx, completer, bios, existing,
		coaches.HistoryOptions{Resume: resume, Test: boolParam(job, "test")})
	if err != nil {
		return len(bios), err
	}
	if err := coaches.SaveHistories(histPath, histories); err != nil {
		return len(bios), err
	}
	run.AddOutput(histPath)

	if dbPath := job.Param("db", ""); dbPath != "" {
		counts, err := coaches.BuildCoachDB(dbPath, histories)
		if err != nil {
			return len(bios), err
		}
		log.Printf("Coaches: db has %d coaches, %d positions", counts.Coaches, counts.Positions)
		run.AddOutput(dbPath)
		run.RecordsWritten = counts.Coaches
	}

	if collegesPath := job.Param("colleges", ""); collegesPath != "" {
		if err := h.merge(job, histories, collegesPath, out, run); err != nil {
			log.Printf("Coaches: merge: %v", err)
			run.ErrorsCount++
		}
	}
	return len(bios), nil
}

// merge appends unseen colleges to the colleges file, then joins the
// histories with colleges, teams and standardized titles.
func (h *CoachBiosHandler) merge(job *config.JobConfig, histories []models.CoachHistory, collegesPath, out string, run *models.ScrapeRun) error {
	added, err := coaches.CheckColleges(histories, collegesPath)
	if err != nil {
		return err
	}
	if len(added) > 0 {
		log.Printf("Coaches: added %d colleges to %s", len(added), collegesPath)
	}

	colleges, err := coaches.LoadColleges(collegesPath)
	if err != nil {
		return err
	}
	var std coaches.Standardization
	if p := job.Param("standardization", ""); p != "" {
		if std, err = coaches.LoadStandardization(p); err != nil {
			return err
		}
	}

	path := filepath.Join(out, coaches.MergedFile)
	if err := coaches.WriteMerged(path, coaches.MergeCoachingData(histories, colleges, h.deps.Teams, std)); err != nil {
		return err
	}
	run.AddOutput(path)
	return nil
}
