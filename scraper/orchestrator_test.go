package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/config"
	"wbb_scrooper/export"
	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

type fakeHandler struct {
	found   int
	written int
	outputs []string
	err     error
	calls   []*config.JobConfig
}

func (f *fakeHandler) ID() string { return "fake" }

func (f *fakeHandler) Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error) {
	f.calls = append(f.calls, job)
	for _, p := range f.outputs {
		run.AddOutput(p)
	}
	run.RecordsWritten = f.written
	return f.found, f.err
}

type fakeUploader struct {
	keys []string
}

func (u *fakeUploader) UploadFile(ctx context.Context, key, path string) error {
	u.keys = append(u.keys, key)
	return nil
}

func (u *fakeUploader) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func newTestOrchestrator(t *testing.T, handlers map[string]*fakeHandler) (*Orchestrator, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "scraper.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{DataDir: t.TempDir(), Jobs: map[string]*config.JobConfig{}}
	for id := range handlers {
		cfg.Jobs[id] = &config.JobConfig{ID: id, Name: id, Handler: HandlerURLCheck}
	}

	o, err := NewOrchestrator(Deps{Config: cfg, Store: store})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	for id, h := range handlers {
		o.handlers[id] = h
	}
	o.factory = func(job *config.JobConfig, deps Deps) (Handler, error) {
		h, ok := handlers[job.ID]
		if !ok {
			return nil, errors.New("no fake for " + job.ID)
		}
		return h, nil
	}
	return o, store
}

func TestNewOrchestratorRejectsUnknownHandler(t *testing.T) {
	cfg := &config.Config{Jobs: map[string]*config.JobConfig{
		"bad": {ID: "bad", Handler: "realtor_ca"},
	}}
	if _, err := NewOrchestrator(Deps{Config: cfg}); err == nil {
		t.Fatalf("expected error for unknown handler")
	}
}

func TestRunJobRecordsRun(t *testing.T) {
	h := &fakeHandler{found: 12, written: 10, outputs: []string{"out/rosters_2025-26.csv"}}
	o, store := newTestOrchestrator(t, map[string]*fakeHandler{"rosters": h})

	run, err := o.RunJob(context.Background(), "rosters")
	if err != nil {
		t.Fatalf("run job: %v", err)
	}

	saved, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if saved.Status != models.RunStatusCompleted {
		t.Fatalf("expected completed, got %s", saved.Status)
	}
	if saved.RecordsFound != 12 || saved.RecordsWritten != 10 {
		t.Fatalf("expected 12 found 10 written, got %d/%d", saved.RecordsFound, saved.RecordsWritten)
	}
	if saved.FinishedAt == nil {
		t.Fatalf("expected finished_at to be set")
	}

	logs, err := store.GetRunLogs(run.ID)
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	var msgs []string
	for _, l := range logs {
		msgs = append(msgs, l.Message)
	}
	want := []string{
		"Starting rosters (fake)",
		"Completed: 12 found, 10 written, 0 errors",
		"Wrote out/rosters_2025-26.csv",
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Fatalf("logs mismatch (-want +got):\n%s", diff)
	}

	stats, err := store.GetJobStats("rosters")
	if err != nil || stats == nil {
		t.Fatalf("expected job stats, got %v, %v", stats, err)
	}
	if stats.TotalRuns != 1 || stats.TotalRecords != 10 {
		t.Fatalf("expected 1 run and 10 records, got %d/%d", stats.TotalRuns, stats.TotalRecords)
	}
}

func TestRunJobWrittenDefaultsToFound(t *testing.T) {
	o, _ := newTestOrchestrator(t, map[string]*fakeHandler{"fiba": {found: 7}})

	run, err := o.RunJob(context.Background(), "fiba")
	if err != nil {
		t.Fatalf("run job: %v", err)
	}
	if run.RecordsWritten != 7 {
		t.Fatalf("expected 7 written, got %d", run.RecordsWritten)
	}
}

func TestRunJobFailure(t *testing.T) {
	h := &fakeHandler{found: 3, err: errors.New("feed unavailable")}
	o, store := newTestOrchestrator(t, map[string]*fakeHandler{"wnba": h})

	run, err := o.RunJob(context.Background(), "wnba")
	if err == nil {
		t.Fatalf("expected handler error")
	}
	saved, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if saved.Status != models.RunStatusFailed || saved.ErrorsCount != 1 {
		t.Fatalf("expected failed run with 1 error, got %s/%d", saved.Status, saved.ErrorsCount)
	}
}

func TestRunJobUnknown(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)
	if _, err := o.RunJob(context.Background(), "missing"); err == nil {
		t.Fatalf("expected unknown job error")
	}
}

func TestPauseResumeCommands(t *testing.T) {
	h := &fakeHandler{}
	o, store := newTestOrchestrator(t, map[string]*fakeHandler{"rosters": h})
	ctx := context.Background()

	if err := o.HandleCommand(ctx, &models.Command{Command: models.CmdPause}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !o.IsPaused() {
		t.Fatalf("expected paused")
	}
	if err := o.HandleCommand(ctx, &models.Command{Command: models.CmdScrapeNow}); err != nil {
		t.Fatalf("scrape now: %v", err)
	}
	if len(h.calls) != 0 {
		t.Fatalf("expected no runs while paused, got %d", len(h.calls))
	}

	if err := o.HandleCommand(ctx, &models.Command{Command: models.CmdResume}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := store.EnqueueCommand(models.CmdScrapeNow, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	cmds, err := store.GetPendingCommands()
	if err != nil || len(cmds) != 1 {
		t.Fatalf("expected 1 pending command, got %d, %v", len(cmds), err)
	}
	if err := o.HandleCommand(ctx, &cmds[0]); err != nil {
		t.Fatalf("scrape now: %v", err)
	}
	if len(h.calls) != 1 {
		t.Fatalf("expected 1 run after resume, got %d", len(h.calls))
	}
}

func TestRunJobCommandOverrides(t *testing.T) {
	h := &fakeHandler{}
	o, _ := newTestOrchestrator(t, map[string]*fakeHandler{"ncaa_games": h})
	o.cfg.Jobs["ncaa_games"].Seasons = []string{"2025-26"}

	params, _ := json.Marshal(models.CommandParams{Job: "ncaa_games", Season: "2024-25", Teams: []int{457}})
	cmd := &models.Command{Command: models.CmdRunJob, Params: params}
	if err := o.HandleCommand(context.Background(), cmd); err != nil {
		t.Fatalf("run_job: %v", err)
	}

	if len(h.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(h.calls))
	}
	got := h.calls[0]
	if diff := cmp.Diff([]string{"2024-25"}, got.Seasons); diff != "" {
		t.Fatalf("seasons mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{457}, got.Teams); diff != "" {
		t.Fatalf("teams mismatch (-want +got):\n%s", diff)
	}
	if seasons := o.cfg.Jobs["ncaa_games"].Seasons; seasons[0] != "2025-26" {
		t.Fatalf("expected configured job untouched, got %v", seasons)
	}
}

func TestRunJobCommandUnknownJob(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)
	params, _ := json.Marshal(models.CommandParams{Job: "nope"})
	err := o.HandleCommand(context.Background(), &models.Command{Command: models.CmdRunJob, Params: params})
	if err == nil || !strings.Contains(err.Error(), "unknown job") {
		t.Fatalf("expected unknown job error, got %v", err)
	}
}

func TestRunJobPublishesOutputs(t *testing.T) {
	h := &fakeHandler{found: 1, outputs: []string{"data/officials/official_days.csv"}}
	o, _ := newTestOrchestrator(t, map[string]*fakeHandler{"officials": h})
	o.cfg.Jobs["officials"].Params = map[string]string{"publish": "true"}
	up := &fakeUploader{}
	o.SetPublisher(export.NewPublisher(up))

	if _, err := o.RunJob(context.Background(), "officials"); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if len(up.keys) != 1 || !strings.HasSuffix(up.keys[0], "/official_days.csv") {
		t.Fatalf("expected official_days.csv uploaded, got %v", up.keys)
	}
}

func TestMarshalStatus(t *testing.T) {
	o, _ := newTestOrchestrator(t, map[string]*fakeHandler{"wnba": {}, "fiba": {}, "rosters": {}})

	data, err := o.MarshalStatus()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var status struct {
		Paused bool     `json:"paused"`
		Jobs   []string `json:"jobs"`
	}
	if err := json.Unmarshal(data, &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status.Paused {
		t.Fatalf("expected not paused")
	}
	if diff := cmp.Diff([]string{"fiba", "rosters", "wnba"}, status.Jobs); diff != "" {
		t.Fatalf("jobs mismatch (-want +got):\n%s", diff)
	}
}
