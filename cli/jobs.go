package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"wbb_scrooper/models"
	"wbb_scrooper/monitor"
	"wbb_scrooper/scheduler"
	"wbb_scrooper/workers"
)

var (
	scrapeOnce   bool
	runNow       bool
	bioBatch     int
	bioInterval  time.Duration
	enqueueJob   string
	enqueueTeams []int
)

func init() {
	daemonCmd.Flags().BoolVar(&scrapeOnce, "scrape", false, "Run every job once and exit")
	daemonCmd.Flags().BoolVar(&runNow, "now", false, "Run every job once at startup, then keep the schedule")
	daemonCmd.Flags().IntVar(&bioBatch, "bio-batch", 50, "Coach bios checked per bio worker pass")
	daemonCmd.Flags().DurationVar(&bioInterval, "bio-interval", 6*time.Hour, "Time between bio worker passes")

	enqueueCmd.Flags().StringVar(&enqueueJob, "job", "", "Job id for run_job")
	enqueueCmd.Flags().IntSliceVar(&enqueueTeams, "teams", nil, "Team ids for run_job")

	rootCmd.AddCommand(daemonCmd, runCmd, jobsCmd, logsCmd, enqueueCmd, monitorCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon [--scrape | --now]",
	Short: "Runs configured jobs on the SCRAPE_CRON or SCRAPE_INTERVAL schedule and polls for commands.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		ctx := cmd.Context()
		log.Println("Starting wbb_scrooper...")
		log.Printf("Loaded %d job configs", len(a.cfg.Jobs))
		for id, job := range a.cfg.Jobs {
			log.Printf("  - %s (%s)", job.Name, id)
		}

		o, err := a.orchestrator()
		if err != nil {
			return err
		}

		if scrapeOnce {
			log.Println("Running scrape...")
			if err := o.RunAll(ctx); err != nil {
				return fmt.Errorf("scrape failed: %w", err)
			}
			log.Println("Scrape complete!")
			if status, err := o.MarshalStatus(); err == nil {
				log.Printf("Status: %s", status)
			}
			return nil
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		sched := scheduler.New(a.cfg, o, a.store)
		var up workers.S3Uploader
		if a.s3 != nil {
			up = a.s3
		}
		bioWorker := workers.NewBioWorker(a.store, a.clients, up)
		bioWorker.SetLogger(func(level models.LogLevel, source, message string) {
			a.store.Log(nil, level, message, source)
		})
		sched.SetWorkers(bioWorker)

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		go bioWorker.Run(ctx, bioBatch, bioInterval)
		log.Println("Bio worker started")

		if runNow {
			go func() {
				if err := sched.TriggerNow(ctx); err != nil {
					log.Printf("Startup scrape failed: %v", err)
				}
			}()
		}

		log.Println("Daemon running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		log.Println("Shutting down...")
		cancel()
		sched.Stop()
		log.Println("Goodbye!")
		return nil
	}),
}

var runCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Runs one configured job now. --season and --team override the job's own.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		job, ok := a.cfg.Jobs[args[0]]
		if !ok {
			return fmt.Errorf("unknown job %q, see \"jobs\"", args[0])
		}
		c := *job
		if len(seasons) > 0 {
			c.Seasons = seasons
		}
		if len(teamIDs) > 0 {
			c.Teams = teamIDs
		}
		if outDir != "" {
			c.Output = outDir
		}
		return runJob(cmd.Context(), a, &c)
	}),
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Lists configured jobs and their run stats.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		ids := make([]string, 0, len(a.cfg.Jobs))
		for id := range a.cfg.Jobs {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		t := newTable()
		t.AppendHeader(table.Row{"Job", "Handler", "Last Run", "Status", "Runs", "Records", "Success", "Avg Sec"})
		for _, id := range ids {
			job := a.cfg.Jobs[id]
			row := table.Row{id, job.Handler, "-", "-", 0, 0, "-", "-"}
			st, err := a.store.GetJobStats(id)
			if err != nil {
				return err
			}
			if st != nil {
				last := "-"
				if st.LastRunAt != nil {
					last = st.LastRunAt.Local().Format("2006-01-02 15:04")
				}
				row = table.Row{id, job.Handler, last, st.LastRunStatus, st.TotalRuns, st.TotalRecords,
					fmt.Sprintf("%.0f%%", st.SuccessRate*100), st.AvgRunDurationSec}
			}
			t.AppendRow(row)
		}
		t.Render()
		return nil
	}),
}

var logsCmd = &cobra.Command{
	Use:   "logs <run-id>",
	Short: "Prints the log lines of a run.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad run id %q", args[0])
		}
		run, err := a.store.GetRun(id)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %d not found", id)
		}
		printRun(run)

		logs, err := a.store.GetRunLogs(id)
		if err != nil {
			return err
		}
		t := newTable()
		t.AppendHeader(table.Row{"Time", "Level", "Message"})
		for _, l := range logs {
			t.AppendRow(table.Row{l.Timestamp.Local().Format("15:04:05"), l.Level, l.Message})
		}
		t.Render()
		return nil
	}),
}

var enqueueCmd = &cobra.Command{
	Use:       "enqueue <scrape_now|run_job|pause|resume|run_bios>",
	Short:     "Queues a command for a running daemon.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(models.CmdScrapeNow), string(models.CmdRunJob), string(models.CmdPause), string(models.CmdResume), string(models.CmdRunBios)},
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		ct := models.CommandType(args[0])
		switch ct {
		case models.CmdScrapeNow, models.CmdRunJob, models.CmdPause, models.CmdResume, models.CmdRunBios:
		default:
			return fmt.Errorf("unknown command %q", args[0])
		}

		var params *models.CommandParams
		if ct == models.CmdRunJob {
			params = &models.CommandParams{Job: enqueueJob, Teams: enqueueTeams}
			if len(seasons) > 0 {
				params.Season = seasons[0]
			}
		}
		id, err := a.store.EnqueueCommand(ct, params)
		if err != nil {
			return err
		}
		fmt.Printf("Queued %s as command %d\n", ct, id)
		return nil
	}),
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Terminal dashboard of job stats, recent runs and logs.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		return monitor.Run(a.store)
	}),
}
