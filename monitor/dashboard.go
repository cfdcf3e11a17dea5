package monitor

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"wbb_scrooper/models"
)

const recentRuns = 10

type dashboardDataMsg struct {
	stats []models.JobStats
	runs  []models.ScrapeRun
	err   error
}

// Dashboard shows a card per job and the latest runs.
type Dashboard struct {
	store         Store
	width, height int
	stats         []models.JobStats
	runs          []models.ScrapeRun
	err           error
}

func NewDashboard(store Store) Dashboard {
	return Dashboard{store: store}
}

func (d Dashboard) Init() tea.Cmd {
	return d.Refresh()
}

func (d Dashboard) Refresh() tea.Cmd {
	return func() tea.Msg {
		stats, err := d.store.ListJobStats()
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		runs, err := d.store.RecentRuns(recentRuns)
		return dashboardDataMsg{stats: stats, runs: runs, err: err}
	}
}

func (d Dashboard) SetSize(w, h int) Dashboard {
	d.width = w
	d.height = h
	return d
}

func (d Dashboard) Update(msg tea.Msg) (Dashboard, tea.Cmd) {
	if msg, ok := msg.(dashboardDataMsg); ok {
		d.err = msg.err
		if msg.err == nil {
			d.stats = msg.stats
			d.runs = msg.runs
		}
	}
	return d, nil
}

func (d Dashboard) View() string {
	parts := []string{
		titleStyle.Render("Dashboard"),
		d.renderStatCards(),
		"",
		d.renderJobCards(),
		"",
		titleStyle.Render("Recent Runs"),
		d.renderRunsTable(),
	}
	if d.err != nil {
		parts = append(parts, statusError.Render("Error: "+d.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (d Dashboard) renderStatCards() string {
	var runs, records, failed int
	for _, s := range d.stats {
		runs += s.TotalRuns
		records += s.TotalRecords
		if s.LastRunStatus == string(models.RunStatusFailed) {
			failed++
		}
	}
	cards := []string{
		renderStatCard("Jobs", len(d.stats)),
		renderStatCard("Runs", runs),
		renderStatCard("Records", records),
		renderStatCard("Failing", failed),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func renderStatCard(label string, value int) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		statValue.Render(fmt.Sprintf("%d", value)),
		statLabel.Render(label),
	)
	return cardBorder.Width(16).Render(content)
}

func (d Dashboard) renderJobCards() string {
	if len(d.stats) == 0 {
		return mutedStyle.Render("No jobs have run")
	}

	var cards []string
	for _, s := range d.stats {
		cards = append(cards, renderJobCard(s))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func renderJobCard(s models.JobStats) string {
	status := "○ never run"
	switch models.RunStatus(s.LastRunStatus) {
	case models.RunStatusCompleted:
		status = "✓ completed"
	case models.RunStatusFailed:
		status = "✗ failed"
	case models.RunStatusRunning:
		status = "◐ running"
	}

	lastRun := "never"
	if s.LastRunAt != nil {
		lastRun = relativeTime(*s.LastRunAt)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		statValue.Render(s.JobID),
		statusStyle(s.LastRunStatus).Render(status),
		statLabel.Render("Last: "+lastRun),
		statLabel.Render(fmt.Sprintf("Records: %d", s.TotalRecords)),
		statLabel.Render(fmt.Sprintf("Rate: %.0f%%", s.SuccessRate*100)),
		statLabel.Render(fmt.Sprintf("Avg: %ds", s.AvgRunDurationSec)),
	)
	return jobCardBorder.Width(24).Render(content)
}

func (d Dashboard) renderRunsTable() string {
	if len(d.runs) == 0 {
		return mutedStyle.Render("No runs yet")
	}

	header := fmt.Sprintf("%-6s %-16s %-10s %-10s %7s %7s %6s",
		"Run", "Job", "Status", "Started", "Found", "Written", "Errors")
	rows := tableHeader.Render(header) + "\n"

	for _, r := range d.runs {
		rows += fmt.Sprintf("%-6d %-16s %s %-10s %7d %7d %6d\n",
			r.ID,
			truncate(r.JobID, 16),
			statusStyle(string(r.Status)).Render(fmt.Sprintf("%-10s", r.Status)),
			r.StartedAt.Local().Format("15:04:05"),
			r.RecordsFound,
			r.RecordsWritten,
			r.ErrorsCount,
		)
	}
	return rows
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
