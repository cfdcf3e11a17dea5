package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"wbb_scrooper/config"
	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

// Runner is the orchestrator surface the scheduler drives.
type Runner interface {
	RunAll(ctx context.Context) error
	HandleCommand(ctx context.Context, cmd *models.Command) error
}

// CommandStore is the command queue in SQLite.
type CommandStore interface {
	GetPendingCommands() ([]models.Command, error)
	MarkCommandProcessed(id int64) error
}

var _ CommandStore = (*storage.SQLiteStore)(nil)

const commandPollInterval = 2 * time.Second

type Scheduler struct {
	cfg       *config.Config
	runner    Runner
	store     CommandStore
	cron      *cron.Cron
	ticker    *time.Ticker
	stopCh    chan struct{}
	pollEvery time.Duration

	bioWorker Triggerable
}

func New(cfg *config.Config, runner Runner, store CommandStore) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		runner:    runner,
		store:     store,
		cron:      cron.New(),
		stopCh:    make(chan struct{}),
		pollEvery: commandPollInterval,
	}
}

// SetWorkers registers background workers for manual triggering
func (s *Scheduler) SetWorkers(bios Triggerable) {
	s.bioWorker = bios
}

func (s *Scheduler) Start(ctx context.Context) error {
	go s.pollCommands(ctx)

	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			if err := s.runner.RunAll(ctx); err != nil {
				log.Printf("Scheduled run error: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					if err := s.runner.RunAll(ctx); err != nil {
						log.Printf("Scheduled run error: %v", err)
					}
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, daemon will only respond to commands")
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) pollCommands(ctx context.Context) {
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processCommands(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// processCommands handles every pending command in queue order. A command
// is marked processed even when it fails.
func (s *Scheduler) processCommands(ctx context.Context) int {
	cmds, err := s.store.GetPendingCommands()
	if err != nil {
		log.Printf("Error getting commands: %v", err)
		return 0
	}

	for _, cmd := range cmds {
		log.Printf("Processing command: %s", cmd.Command)
		if err := s.handleCommand(ctx, &cmd); err != nil {
			log.Printf("Command error: %v", err)
		}
		if err := s.store.MarkCommandProcessed(cmd.ID); err != nil {
			log.Printf("Error marking command processed: %v", err)
		}
	}
	return len(cmds)
}

func (s *Scheduler) handleCommand(ctx context.Context, cmd *models.Command) error {
	switch cmd.Command {
	case models.CmdRunBios:
		if s.bioWorker != nil {
			s.bioWorker.Trigger()
			log.Println("Bio worker triggered via command")
		}
		return nil
	default:
		return s.runner.HandleCommand(ctx, cmd)
	}
}

func (s *Scheduler) TriggerNow(ctx context.Context) error {
	return s.runner.RunAll(ctx)
}
