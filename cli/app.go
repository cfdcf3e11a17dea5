package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"wbb_scrooper/browser"
	"wbb_scrooper/config"
	"wbb_scrooper/export"
	"wbb_scrooper/httputil"
	"wbb_scrooper/logging"
	"wbb_scrooper/models"
	"wbb_scrooper/scraper"
	"wbb_scrooper/storage"
)

// app holds the clients and stores a command needs. Postgres and S3 are
// only connected when configured.
type app struct {
	cfg     *config.Config
	clients *httputil.Clients
	store   *storage.SQLiteStore
	pg      *storage.PostgresStore
	s3      *storage.S3Uploader
	browser *browser.Session
	teams   []models.Team
	logFile *logging.RotatingWriter
}

func newApp(ctx context.Context) (*app, error) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if delayMS > 0 {
		cfg.Scraper.DelayMS = delayMS
	}

	a := &app{cfg: cfg}
	if a.logFile, err = logging.Setup(cfg.LogPath); err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	}

	a.teams, err = config.LoadTeams(cfg.TeamsPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.close()
			return nil, err
		}
		log.Printf("Warning: %s not found, team commands will have no teams", cfg.TeamsPath)
	}

	a.clients = httputil.NewClients(cfg.HTTP)
	if cfg.HTTP.ProxyURL != "" {
		log.Printf("Proxy: %s", maskConnectionString(cfg.HTTP.ProxyURL))
	}

	a.store, err = storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if cfg.Postgres.URL != "" {
		a.pg, err = storage.NewPostgresStore(ctx, cfg.Postgres.URL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := a.pg.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Postgres.URL))
	}

	if cfg.S3.Bucket != "" {
		a.s3, err = storage.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("s3: %w", err)
		}
		log.Printf("Publishing to bucket %s", cfg.S3.Bucket)
	}

	a.browser = browser.NewSession(cfg.Scraper.BrowserHeadless, cfg.HTTP.UserAgent)
	return a, nil
}

func (a *app) close() {
	if a.browser != nil {
		a.browser.Close()
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func (a *app) deps() scraper.Deps {
	return scraper.Deps{
		Config:  a.cfg,
		HTTP:    a.clients,
		Browser: a.browser,
		Store:   a.store,
		PG:      a.pg,
		Teams:   a.teams,
	}
}

func (a *app) orchestrator() (*scraper.Orchestrator, error) {
	o, err := scraper.NewOrchestrator(a.deps())
	if err != nil {
		return nil, err
	}
	if a.s3 != nil {
		o.SetPublisher(export.NewPublisher(a.s3))
	}
	return o, nil
}

// withApp wraps a command body with app setup and teardown.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, a, args)
	}
}

// runJob runs job through the orchestrator so it is recorded like a
// scheduled run, then prints a summary.
func runJob(ctx context.Context, a *app, job *config.JobConfig) error {
	o, err := a.orchestrator()
	if err != nil {
		return err
	}
	run, err := o.RunJobConfig(ctx, job)
	if run != nil {
		printRun(run)
	}
	return err
}

func printRun(run *models.ScrapeRun) {
	t := newTable()
	t.AppendHeader(table.Row{"Run", "Job", "Status", "Found", "Written", "Errors", "Duration"})
	dur := ""
	if run.FinishedAt != nil {
		dur = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
	}
	t.AppendRow(table.Row{run.ID, run.JobID, run.Status, run.RecordsFound, run.RecordsWritten, run.ErrorsCount, dur})
	t.Render()

	if len(run.Outputs) > 0 {
		fmt.Println("Outputs:")
		for _, p := range run.Outputs {
			fmt.Println("  " + p)
		}
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// maskConnectionString hides the password of a url-style connection string.
func maskConnectionString(connStr string) string {
	start := strings.Index(connStr, "://")
	if start < 0 {
		return connStr
	}
	start += 3
	at := strings.LastIndex(connStr, "@")
	if at < start {
		return connStr
	}
	colon := strings.Index(connStr[start:at], ":")
	if colon < 0 {
		return connStr
	}
	return connStr[:start+colon+1] + "****" + connStr[at:]
}
