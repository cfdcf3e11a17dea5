package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"wbb_scrooper/config"
	"wbb_scrooper/export"
	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

type Orchestrator struct {
	cfg       *config.Config
	store     *storage.SQLiteStore
	deps      Deps
	handlers  map[string]Handler
	factory   func(*config.JobConfig, Deps) (Handler, error)
	publisher *export.Publisher

	mu      sync.Mutex
	paused  bool
	running map[string]bool
}

// NewOrchestrator builds a handler for every configured job. deps.Store is
// where runs and logs are recorded.
func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	handlers := make(map[string]Handler)
	for id, job := range deps.Config.Jobs {
		h, err := NewHandler(job, deps)
		if err != nil {
			return nil, err
		}
		handlers[id] = h
	}

	return &Orchestrator{
		cfg:      deps.Config,
		store:    deps.Store,
		deps:     deps,
		handlers: handlers,
		factory:  NewHandler,
		running:  make(map[string]bool),
	}, nil
}

// SetPublisher uploads the outputs of each successful run.
func (o *Orchestrator) SetPublisher(p *export.Publisher) {
	o.publisher = p
}

func (o *Orchestrator) RunAll(ctx context.Context) error {
	if o.IsPaused() {
		log.Println("Scraper is paused, skipping run")
		return nil
	}

	for _, id := range o.JobIDs() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := o.RunJob(ctx, id); err != nil {
			log.Printf("Error running job %s: %v", id, err)
		}
	}
	return nil
}

// RunJob runs a configured job by id.
func (o *Orchestrator) RunJob(ctx context.Context, jobID string) (*models.ScrapeRun, error) {
	job, ok := o.cfg.Jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("unknown job: %s", jobID)
	}
	handler, ok := o.handlers[jobID]
	if !ok {
		return nil, fmt.Errorf("no handler for job: %s", jobID)
	}
	return o.run(ctx, job, handler)
}

// RunJobConfig runs a job that need not be in the config, such as one
// assembled from command line flags.
func (o *Orchestrator) RunJobConfig(ctx context.Context, job *config.JobConfig) (*models.ScrapeRun, error) {
	handler, err := o.factory(job, o.deps)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, job, handler)
}

func (o *Orchestrator) run(ctx context.Context, job *config.JobConfig, handler Handler) (*models.ScrapeRun, error) {
	o.mu.Lock()
	if o.running[job.ID] {
		o.mu.Unlock()
		return nil, fmt.Errorf("job %s is already running", job.ID)
	}
	o.running[job.ID] = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.running, job.ID)
		o.mu.Unlock()
	}()

	run := &models.ScrapeRun{
		JobID:     job.ID,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	runID, err := o.store.CreateRun(run)
	if err != nil {
		return nil, err
	}
	run.ID = runID

	name := job.Name
	if name == "" {
		name = job.ID
	}
	o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Starting %s (%s)", name, handler.ID()), job.ID)

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if err := o.store.UpdateRun(run); err != nil {
			log.Printf("Warning: failed to update run %d: %v", run.ID, err)
		}
		if err := o.store.UpdateJobStats(job.ID); err != nil {
			log.Printf("Warning: failed to update stats for %s: %v", job.ID, err)
		}
	}()

	found, err := handler.Run(ctx, job, run)
	run.RecordsFound = found
	if run.RecordsWritten == 0 {
		run.RecordsWritten = found
	}
	if err != nil {
		run.ErrorsCount++
		run.Status = models.RunStatusFailed
		o.log(run.ID, models.LogLevelError, fmt.Sprintf("Failed: %v", err), job.ID)
		return run, err
	}

	run.Status = models.RunStatusCompleted
	o.log(run.ID, models.LogLevelInfo,
		fmt.Sprintf("Completed: %d found, %d written, %d errors", run.RecordsFound, run.RecordsWritten, run.ErrorsCount), job.ID)
	for _, p := range run.Outputs {
		o.log(run.ID, models.LogLevelInfo, "Wrote "+p, job.ID)
	}

	if o.publisher.Enabled() && boolParam(job, "publish") {
		urls, err := o.publisher.Publish(ctx, run.Outputs)
		if err != nil {
			o.log(run.ID, models.LogLevelWarn, fmt.Sprintf("Publish failed: %v", err), job.ID)
		} else if len(urls) > 0 {
			o.log(run.ID, models.LogLevelInfo, "Published "+strings.Join(urls, ", "), job.ID)
		}
	}
	return run, nil
}

func (o *Orchestrator) HandleCommand(ctx context.Context, cmd *models.Command) error {
	params, err := o.store.ParseCommandParams(cmd)
	if err != nil {
		return err
	}

	switch cmd.Command {
	case models.CmdScrapeNow:
		return o.RunAll(ctx)
	case models.CmdRunJob:
		if params.Job == "" {
			return o.RunAll(ctx)
		}
		job, ok := o.cfg.Jobs[params.Job]
		if !ok {
			return fmt.Errorf("unknown job: %s", params.Job)
		}
		if params.Season == "" && len(params.Teams) == 0 {
			_, err := o.RunJob(ctx, params.Job)
			return err
		}
		_, err := o.RunJobConfig(ctx, withOverrides(job, params))
		return err
	case models.CmdPause:
		o.setPaused(true)
		log.Println("Scraper paused")
	case models.CmdResume:
		o.setPaused(false)
		log.Println("Scraper resumed")
	default:
		return fmt.Errorf("unsupported command: %s", cmd.Command)
	}
	return nil
}

// withOverrides copies job with the season and teams of a run_job command.
func withOverrides(job *config.JobConfig, params *models.CommandParams) *config.JobConfig {
	c := *job
	if params.Season != "" {
		c.Seasons = []string{params.Season}
	}
	if len(params.Teams) > 0 {
		c.Teams = params.Teams
	}
	return &c
}

func (o *Orchestrator) IsPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

func (o *Orchestrator) setPaused(p bool) {
	o.mu.Lock()
	o.paused = p
	o.mu.Unlock()
}

func (o *Orchestrator) log(runID int64, level models.LogLevel, message, jobID string) {
	log.Printf("[%s] %s: %s", level, jobID, message)
	o.store.Log(&runID, level, message, jobID)
}

func (o *Orchestrator) JobIDs() []string {
	ids := make([]string, 0, len(o.cfg.Jobs))
	for id := range o.cfg.Jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (o *Orchestrator) MarshalStatus() ([]byte, error) {
	status := map[string]any{
		"paused": o.IsPaused(),
		"jobs":   o.JobIDs(),
	}
	return json.Marshal(status)
}
