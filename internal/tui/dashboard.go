package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/sadopc/fitfeast/internal/diary"
)

const recentLimit = 5

type dashboardModel struct {
	diary  *diary.Diary
	width  int
	height int

	summary diary.Summary
	recent  []diary.FoodEntry

	lastSynced time.Time
	syncErr    error

	bar progress.Model

	tipsEnabled bool
	tipsPending bool
	tips        string
	tipsView    string
}

func newDashboardModel(d *diary.Diary, tipsEnabled bool) dashboardModel {
	m := dashboardModel{
		diary:       d,
		bar:         progress.New(progress.WithSolidFill(string(colorPrimary)), progress.WithoutPercentage()),
		tipsEnabled: tipsEnabled,
	}
	m.refresh()
	return m
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.bar.Width = max(10, w-40)
	d.renderTips()
}

// refresh pulls the current numbers out of the diary.
func (d *dashboardModel) refresh() {
	d.summary = d.diary.Summary()
	entries := d.diary.Entries()
	d.recent = entries[:min(recentLimit, len(entries))]
	d.lastSynced = d.diary.LastSynced()
	d.syncErr = d.diary.SyncErr()
}

func (d *dashboardModel) setTips(text string) {
	d.tips = text
	d.tipsPending = false
	d.renderTips()
}

func (d *dashboardModel) renderTips() {
	if d.tips == "" {
		d.tipsView = ""
		return
	}
	wrap := max(20, d.width-12)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		d.tipsView = d.tips
		return
	}
	out, err := r.Render(d.tips)
	if err != nil {
		d.tipsView = d.tips
		return
	}
	d.tipsView = strings.Trim(out, "\n")
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg.(type) {
	case stateChangedMsg, tickMsg:
		d.refresh()
	}
	return d, nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderCards(contentWidth),
		d.renderProgressPanel(contentWidth),
		d.renderRecentPanel(contentWidth),
		d.renderTipsPanel(contentWidth),
	)
}

func (d dashboardModel) renderCards(w int) string {
	s := d.summary
	cardW := max(14, w/4-2)

	card := func(label, value string, style lipgloss.Style) string {
		return style.Width(cardW).Render(lipgloss.JoinVertical(lipgloss.Center,
			mutedStyle.Render(label),
			cardValueStyle.Render(value),
		))
	}

	remainingStyle := cardStyle
	remaining := formatGoal(s.Remaining)
	if s.Over {
		remainingStyle = overCardStyle
		remaining = errorStyle.Render("Over by " + formatGoal(float64(s.Total)-s.Goal))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Consumed", formatKcal(s.Total), cardStyle),
		card("Goal", formatGoal(s.Goal), cardStyle),
		card("Remaining", remaining, remainingStyle),
		card("Entries", fmt.Sprintf("%d", s.Count), cardStyle),
	)
}

func (d dashboardModel) renderProgressPanel(w int) string {
	s := d.summary
	bar := d.bar
	pct := highlightStyle.Render(formatPercent(s.Percentage))
	if s.Over {
		bar.FullColor = string(colorError)
		pct = errorStyle.Render(formatPercent(s.Percentage) + " (over goal)")
	}

	sync := mutedStyle.Render("Not saved yet")
	switch {
	case d.syncErr != nil:
		sync = errorStyle.Render("Save failed: " + d.syncErr.Error())
	case !d.lastSynced.IsZero():
		sync = successStyle.Render("Saved " + humanize.Time(d.lastSynced))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Daily Progress"),
		bar.ViewAs(s.Percentage/100)+"  "+pct,
		sync,
	)
	style := panelStyle
	if s.Over {
		style = style.BorderForeground(colorError)
	}
	return style.Width(w).Render(content)
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Nothing logged yet. Press 2 then n to add a meal."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, e := range d.recent {
		dot := lipgloss.NewStyle().Foreground(categoryColor(e.Category)).Render("●")
		row := fmt.Sprintf("  %s %s  %-24s %s",
			dot,
			e.LoggedAt().Local().Format("15:04"),
			truncate(e.FoodItem, 24),
			formatKcal(e.TotalCalories),
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderTipsPanel(w int) string {
	title := titleStyle.Render("AI Tips")

	var body string
	switch {
	case !d.tipsEnabled:
		body = mutedStyle.Render("Set GEMINI_API_KEY to get tips.")
	case d.summary.Count == 0:
		body = mutedStyle.Render("Log a meal to get tips.")
	case d.tipsPending && d.tips == "":
		body = mutedStyle.Render("Thinking...")
	case d.tipsView == "":
		body = mutedStyle.Render("No tips right now.")
	default:
		body = d.tipsView
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}
