package monitor

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/models"
)

type fakeStore struct {
	stats      []models.JobStats
	runs       []models.ScrapeRun
	logs       []models.ScrapeLog
	levels     []models.LogLevel
	queued     []models.CommandType
	enqueueErr error
}

func (f *fakeStore) ListJobStats() ([]models.JobStats, error) { return f.stats, nil }

func (f *fakeStore) RecentRuns(limit int) ([]models.ScrapeRun, error) { return f.runs, nil }

func (f *fakeStore) RecentLogs(limit int, level models.LogLevel) ([]models.ScrapeLog, error) {
	f.levels = append(f.levels, level)
	var out []models.ScrapeLog
	for _, l := range f.logs {
		if level == "" || l.Level == level {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) EnqueueCommand(cmd models.CommandType, params *models.CommandParams) (int64, error) {
	if f.enqueueErr != nil {
		return 0, f.enqueueErr
	}
	f.queued = append(f.queued, cmd)
	return int64(len(f.queued)), nil
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestDashboardShowsJobsAndRuns(t *testing.T) {
	last := time.Now().Add(-2 * time.Hour)
	store := &fakeStore{
		stats: []models.JobStats{
			{JobID: "rosters", LastRunAt: &last, LastRunStatus: "completed", TotalRuns: 3, TotalRecords: 1200, SuccessRate: 1},
			{JobID: "fiba_games", LastRunStatus: "failed", TotalRuns: 1},
		},
		runs: []models.ScrapeRun{
			{ID: 7, JobID: "rosters", StartedAt: last, Status: models.RunStatusCompleted, RecordsFound: 400, RecordsWritten: 400},
		},
	}

	m := New(store)
	m, _ = update(t, m, m.dashboard.Refresh()())

	view := m.View()
	for _, want := range []string{"rosters", "fiba_games", "✗ failed", "2h ago", "Recent Runs", "1200"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected dashboard to contain %q, got:\n%s", want, view)
		}
	}
}

func TestCommandKeysQueueCommands(t *testing.T) {
	store := &fakeStore{}
	m := New(store)

	for _, k := range []string{"s", "b", "p", "u"} {
		m, _ = update(t, m, key(k))
	}

	want := []models.CommandType{models.CmdScrapeNow, models.CmdRunBios, models.CmdPause, models.CmdResume}
	if diff := cmp.Diff(want, store.queued); diff != "" {
		t.Fatalf("queued mismatch (-want +got):\n%s", diff)
	}
	if m.notification != "Queued resume" {
		t.Fatalf("expected notification for last command, got %q", m.notification)
	}
}

func TestCommandKeyReportsQueueError(t *testing.T) {
	store := &fakeStore{enqueueErr: errors.New("database is locked")}
	m, _ := update(t, New(store), key("s"))
	if !strings.Contains(m.notification, "database is locked") {
		t.Fatalf("expected error notification, got %q", m.notification)
	}
}

func TestLogsLevelFilter(t *testing.T) {
	now := time.Now()
	store := &fakeStore{logs: []models.ScrapeLog{
		{ID: 2, Timestamp: now, Level: models.LogLevelError, Message: "Bio fetch failed", JobID: "bios"},
		{ID: 1, Timestamp: now, Level: models.LogLevelInfo, Message: "Starting Rosters", JobID: "rosters"},
	}}

	m := New(store)
	m, _ = update(t, m, key("l"))
	if m.activeTab != tabLogs {
		t.Fatalf("expected logs tab, got %v", m.activeTab)
	}
	m, _ = update(t, m, m.logs.Refresh()())
	if len(m.logs.logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(m.logs.logs))
	}

	// info, warn, error
	var cmd tea.Cmd
	for range 3 {
		m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
		if cmd == nil {
			t.Fatal("expected a refresh when the filter changes")
		}
		m, _ = update(t, m, cmd())
	}
	if m.logs.Level() != models.LogLevelError {
		t.Fatalf("expected error filter, got %q", m.logs.Level())
	}
	if len(m.logs.logs) != 1 || m.logs.logs[0].Message != "Bio fetch failed" {
		t.Fatalf("expected only the error line, got %+v", m.logs.logs)
	}

	// Already at the last level.
	if _, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRight}); cmd != nil {
		t.Fatal("expected no refresh past the last level")
	}

	want := []models.LogLevel{"", models.LogLevelInfo, models.LogLevelWarn, models.LogLevelError}
	if diff := cmp.Diff(want, store.levels); diff != "" {
		t.Fatalf("levels mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(m.View(), "[ERROR]") {
		t.Fatalf("expected active filter in view, got:\n%s", m.View())
	}
}

func TestQuit(t *testing.T) {
	_, cmd := update(t, New(&fakeStore{}), key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
