// Package monitor is a terminal dashboard over the scrape runs, job stats
// and logs in the SQLite store. It drives a running daemon by queueing
// commands.
package monitor

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"wbb_scrooper/models"
)

// Store is the slice of storage.SQLiteStore the monitor reads and writes.
type Store interface {
	ListJobStats() ([]models.JobStats, error)
	RecentRuns(limit int) ([]models.ScrapeRun, error)
	RecentLogs(limit int, level models.LogLevel) ([]models.ScrapeLog, error)
	EnqueueCommand(cmd models.CommandType, params *models.CommandParams) (int64, error)
}

type tab int

const (
	tabDashboard tab = iota
	tabLogs
)

const (
	refreshInterval = 30 * time.Second
	logInterval     = 2 * time.Second
	notifyFor       = 2 * time.Second
)

type Model struct {
	store         Store
	activeTab     tab
	width, height int
	notification  string
	notifyUntil   time.Time

	dashboard Dashboard
	logs      Logs
}

type tickMsg time.Time
type logTickMsg time.Time

func New(store Store) Model {
	return Model{
		store:     store,
		activeTab: tabDashboard,
		dashboard: NewDashboard(store),
		logs:      NewLogs(store),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.dashboard.Init(),
		m.logs.Init(),
		tickCmd(),
		logTickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func logTickCmd() tea.Cmd {
	return tea.Tick(logInterval, func(t time.Time) tea.Msg {
		return logTickMsg(t)
	})
}

var commandKeys = map[string]models.CommandType{
	"s": models.CmdScrapeNow,
	"b": models.CmdRunBios,
	"p": models.CmdPause,
	"u": models.CmdResume,
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "d":
			m.activeTab = tabDashboard
			return m, nil
		case "l":
			m.activeTab = tabLogs
			return m, nil
		case "tab":
			m.activeTab = (m.activeTab + 1) % 2
			return m, nil
		case "r":
			m.notify("Refreshed")
			return m, m.refreshActive()
		}
		if ct, ok := commandKeys[key]; ok {
			if _, err := m.store.EnqueueCommand(ct, nil); err != nil {
				m.notify("Queue failed: " + err.Error())
			} else {
				m.notify("Queued " + string(ct))
			}
			return m, nil
		}
		if m.activeTab == tabLogs {
			var cmd tea.Cmd
			m.logs, cmd = m.logs.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.dashboard = m.dashboard.SetSize(msg.Width, msg.Height-4)
		m.logs = m.logs.SetSize(msg.Width, msg.Height-4)

	case tickMsg:
		cmds = append(cmds, m.dashboard.Refresh(), tickCmd())

	case logTickMsg:
		if m.activeTab == tabLogs {
			cmds = append(cmds, m.logs.Refresh())
		}
		cmds = append(cmds, logTickCmd())
	}

	// Data messages go to every view.
	var cmd tea.Cmd
	m.dashboard, cmd = m.dashboard.Update(msg)
	cmds = append(cmds, cmd)
	m.logs, cmd = m.logs.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) notify(text string) {
	m.notification = text
	m.notifyUntil = time.Now().Add(notifyFor)
}

func (m Model) refreshActive() tea.Cmd {
	if m.activeTab == tabLogs {
		return m.logs.Refresh()
	}
	return m.dashboard.Refresh()
}

func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), m.renderContent(), m.renderStatusBar())
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, name := range []string{"Dashboard", "Logs"} {
		if tab(i) == m.activeTab {
			rendered = append(rendered, tabActive.Render(name))
		} else {
			rendered = append(rendered, tabInactive.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n"
}

func (m Model) renderContent() string {
	if m.activeTab == tabLogs {
		return m.logs.View()
	}
	return m.dashboard.View()
}

func (m Model) renderStatusBar() string {
	left := "d Dash  l Logs  r Refresh  s Scrape  b Bios  p Pause  u Resume  q Quit"
	right := ""
	if time.Now().Before(m.notifyUntil) {
		right = notificationStyle.Render(m.notification)
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 0)
	return statusBarStyle.Render(left) + lipgloss.NewStyle().Width(gap).Render("") + right
}

// Run blocks until the user quits.
func Run(store Store) error {
	_, err := tea.NewProgram(New(store), tea.WithAltScreen()).Run()
	return err
}
