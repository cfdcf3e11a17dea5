package monitor

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"wbb_scrooper/models"
)

const logLimit = 200

// "" shows every level.
var logLevels = []models.LogLevel{"", models.LogLevelInfo, models.LogLevelWarn, models.LogLevelError}

type logsMsg struct {
	logs []models.ScrapeLog
	err  error
}

// Logs lists the newest scrape log lines, filterable by level.
type Logs struct {
	store         Store
	width, height int
	logs          []models.ScrapeLog
	err           error
	levelIndex    int
	scrollOffset  int
}

func NewLogs(store Store) Logs {
	return Logs{store: store}
}

func (l Logs) Init() tea.Cmd {
	return l.Refresh()
}

func (l Logs) Refresh() tea.Cmd {
	level := logLevels[l.levelIndex]
	return func() tea.Msg {
		logs, err := l.store.RecentLogs(logLimit, level)
		return logsMsg{logs: logs, err: err}
	}
}

func (l Logs) SetSize(w, h int) Logs {
	l.width = w
	l.height = h
	return l
}

func (l Logs) Update(msg tea.Msg) (Logs, tea.Cmd) {
	switch msg := msg.(type) {
	case logsMsg:
		l.err = msg.err
		if msg.err == nil {
			l.logs = msg.logs
			l.scrollOffset = min(l.scrollOffset, l.maxScroll())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if l.levelIndex > 0 {
				l.levelIndex--
				l.scrollOffset = 0
				return l, l.Refresh()
			}
		case "right":
			if l.levelIndex < len(logLevels)-1 {
				l.levelIndex++
				l.scrollOffset = 0
				return l, l.Refresh()
			}
		case "up", "k":
			if l.scrollOffset > 0 {
				l.scrollOffset--
			}
		case "down", "j":
			if l.scrollOffset < l.maxScroll() {
				l.scrollOffset++
			}
		case "g":
			l.scrollOffset = 0
		case "G":
			l.scrollOffset = l.maxScroll()
		}
	}
	return l, nil
}

func (l Logs) Level() models.LogLevel {
	return logLevels[l.levelIndex]
}

func (l Logs) visibleLines() int {
	if n := l.height - 6; n > 0 {
		return n
	}
	return 10
}

func (l Logs) maxScroll() int {
	return max(len(l.logs)-l.visibleLines(), 0)
}

func (l Logs) View() string {
	parts := []string{
		titleStyle.Render("Logs"),
		l.renderFilter(),
		"",
		l.renderLogs(),
	}
	if l.err != nil {
		parts = append(parts, statusError.Render("Error: "+l.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (l Logs) renderFilter() string {
	var parts []string
	for i, level := range logLevels {
		name := strings.ToUpper(string(level))
		if level == "" {
			name = "ALL"
		}
		if i == l.levelIndex {
			parts = append(parts, tabActive.Render("["+name+"]"))
		} else {
			parts = append(parts, tabInactive.Render(name))
		}
	}
	return "Filter: " + strings.Join(parts, " ") + "  (←/→ to change)"
}

func (l Logs) renderLogs() string {
	if len(l.logs) == 0 {
		return mutedStyle.Render("No logs")
	}

	start := l.scrollOffset
	end := min(start+l.visibleLines(), len(l.logs))

	lines := make([]string, 0, end-start)
	for _, entry := range l.logs[start:end] {
		lines = append(lines, l.formatLog(entry))
	}

	header := mutedStyle.Render(fmt.Sprintf("  [%d-%d of %d]", start+1, end, len(l.logs)))
	return header + "\n" + strings.Join(lines, "\n")
}

func (l Logs) formatLog(entry models.ScrapeLog) string {
	levelStyle := lipgloss.NewStyle()
	switch entry.Level {
	case models.LogLevelInfo:
		levelStyle = statusSuccess
	case models.LogLevelWarn:
		levelStyle = statusPending
	case models.LogLevelError:
		levelStyle = statusError
	}

	job := ""
	if entry.JobID != "" {
		job = fmt.Sprintf("[%s] ", entry.JobID)
	}

	msg := entry.Message
	if maxLen := l.width - 25; maxLen > 3 && len(msg) > maxLen {
		msg = msg[:maxLen-3] + "..."
	}

	return fmt.Sprintf("%s %s %s%s",
		mutedStyle.Render(entry.Timestamp.Local().Format("15:04:05")),
		levelStyle.Render(fmt.Sprintf("%-5s", strings.ToUpper(string(entry.Level)))),
		mutedStyle.Render(job),
		msg,
	)
}
