package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/config"
	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

type fakeRunner struct {
	runs     int
	commands []models.CommandType
	err      error
}

func (r *fakeRunner) RunAll(ctx context.Context) error {
	r.runs++
	return nil
}

func (r *fakeRunner) HandleCommand(ctx context.Context, cmd *models.Command) error {
	r.commands = append(r.commands, cmd.Command)
	return r.err
}

type fakeWorker struct {
	triggers int
}

func (w *fakeWorker) Trigger() { w.triggers++ }

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "scraper.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestProcessCommands(t *testing.T) {
	store := newTestStore(t)
	runner := &fakeRunner{err: errors.New("job failed")}
	worker := &fakeWorker{}
	s := New(&config.Config{}, runner, store)
	s.SetWorkers(worker)

	for _, c := range []models.CommandType{models.CmdPause, models.CmdRunBios, models.CmdRunJob} {
		if _, err := store.EnqueueCommand(c, &models.CommandParams{Job: "rosters"}); err != nil {
			t.Fatalf("enqueue %s: %v", c, err)
		}
	}

	if n := s.processCommands(context.Background()); n != 3 {
		t.Fatalf("expected 3 commands, got %d", n)
	}
	if worker.triggers != 1 {
		t.Fatalf("expected bio worker triggered once, got %d", worker.triggers)
	}
	if diff := cmp.Diff([]models.CommandType{models.CmdPause, models.CmdRunJob}, runner.commands); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}

	pending, err := store.GetPendingCommands()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected failed commands marked processed, %d pending", len(pending))
	}
}

func TestRunBiosWithoutWorker(t *testing.T) {
	runner := &fakeRunner{}
	s := New(&config.Config{}, runner, newTestStore(t))
	if err := s.handleCommand(context.Background(), &models.Command{Command: models.CmdRunBios}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(runner.commands) != 0 {
		t.Fatalf("expected run_bios not forwarded, got %v", runner.commands)
	}
}

func TestStartRejectsBadCron(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{Cron: "every tuesday"}}
	s := New(cfg, &fakeRunner{}, newTestStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err == nil {
		t.Fatalf("expected invalid cron error")
	}
}

func TestTriggerNow(t *testing.T) {
	runner := &fakeRunner{}
	s := New(&config.Config{}, runner, newTestStore(t))
	if err := s.TriggerNow(context.Background()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if runner.runs != 1 {
		t.Fatalf("expected 1 run, got %d", runner.runs)
	}
}
