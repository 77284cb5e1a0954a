package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/fitfeast/internal/diary"
	"github.com/sadopc/fitfeast/internal/estimator"
)

type logForm int

const (
	formNone logForm = iota
	formManual
	formSmart
)

type logModel struct {
	diary  *diary.Diary
	est    *estimator.Guarded // nil when no API key is configured
	width  int
	height int

	entries []diary.FoodEntry
	cursor  int

	formActive bool
	form       *huh.Form
	formType   logForm

	// Form field pointers (survive value copies)
	formFood     *string
	formCategory *diary.Category
	formServing  *string
	formUnit     *string
	formRate     *string
	formQuery    *string

	estimating bool
	spinner    spinner.Model
}

func newLogModel(d *diary.Diary, est *estimator.Guarded) logModel {
	food, serving, unit, rate, query := "", "1", diary.DefaultUnit, "", ""
	cat := diary.Other

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = highlightStyle

	m := logModel{
		diary:        d,
		est:          est,
		formFood:     &food,
		formCategory: &cat,
		formServing:  &serving,
		formUnit:     &unit,
		formRate:     &rate,
		formQuery:    &query,
		spinner:      sp,
	}
	m.refresh()
	return m
}

func (l *logModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

func (l *logModel) refresh() {
	l.entries = l.diary.Entries()
	if l.cursor >= len(l.entries) {
		l.cursor = max(0, len(l.entries)-1)
	}
}

func (l logModel) update(msg tea.Msg) (logModel, tea.Cmd) {
	switch msg := msg.(type) {
	case estimateDoneMsg:
		return l.finishEstimate(msg)

	case spinner.TickMsg:
		if !l.estimating {
			return l, nil
		}
		var cmd tea.Cmd
		l.spinner, cmd = l.spinner.Update(msg)
		return l, cmd

	case stateChangedMsg:
		l.refresh()
		return l, nil
	}

	if l.formActive && l.form != nil {
		return l.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return l.updateList(msg)
	}
	return l, nil
}

func (l logModel) updateList(msg tea.KeyMsg) (logModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(msg, keys.Down):
		if l.cursor < len(l.entries)-1 {
			l.cursor++
		}
	case key.Matches(msg, keys.New):
		return l.showManualForm()
	case key.Matches(msg, keys.Smart):
		if l.est == nil {
			return l, statusCmd("AI entry needs an API key. Use manual entry (n).", true)
		}
		if l.estimating {
			return l, statusCmd("Still estimating the last meal...", false)
		}
		return l.showSmartForm()
	case key.Matches(msg, keys.Delete):
		if len(l.entries) > 0 {
			e := l.entries[l.cursor]
			if l.diary.Remove(e.ID) {
				l.refresh()
				return l, tea.Batch(
					changed,
					statusCmd("Removed "+e.FoodItem, false),
				)
			}
		}
	}
	return l, nil
}

func (l logModel) showManualForm() (logModel, tea.Cmd) {
	*l.formFood = ""
	*l.formCategory = diary.Other
	*l.formServing = "1"
	*l.formUnit = diary.DefaultUnit
	*l.formRate = ""
	l.formType = formManual

	catOptions := make([]huh.Option[diary.Category], len(diary.Categories))
	for i, c := range diary.Categories {
		catOptions[i] = huh.NewOption(string(c), c)
	}

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Food item").Value(l.formFood).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("food item is required")
					}
					return nil
				}),
			huh.NewSelect[diary.Category]().Title("Category").Options(catOptions...).Value(l.formCategory),
			huh.NewInput().Title("Serving size").Value(l.formServing).
				Validate(func(s string) error { _, err := parsePositive(s); return err }),
			huh.NewInput().Title("Unit").Placeholder(diary.DefaultUnit).Value(l.formUnit),
			huh.NewInput().Title("Calories per unit").Value(l.formRate).
				Validate(func(s string) error { _, err := parseNonNegative(s); return err }),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l logModel) showSmartForm() (logModel, tea.Cmd) {
	*l.formQuery = ""
	l.formType = formSmart

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Describe your meal").
				Placeholder("2 boiled eggs and a slice of toast").
				Value(l.formQuery).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("describe what you ate")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l logModel) updateForm(msg tea.Msg) (logModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			l.formActive = false
			l.form = nil
			return l, nil
		}
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		l.formActive = false
		l.form = nil
		switch l.formType {
		case formManual:
			return l.addManual()
		case formSmart:
			return l.startEstimate(*l.formQuery)
		}
	}

	return l, cmd
}

func (l logModel) addManual() (logModel, tea.Cmd) {
	serving, err := parsePositive(*l.formServing)
	if err != nil {
		return l, statusCmd("Serving size: "+err.Error(), true)
	}
	rate, err := parseNonNegative(*l.formRate)
	if err != nil {
		return l, statusCmd("Calories per unit: "+err.Error(), true)
	}
	return l.add(diary.Draft{
		FoodItem:        *l.formFood,
		Category:        *l.formCategory,
		ServingSize:     serving,
		Unit:            *l.formUnit,
		CaloriesPerUnit: rate,
	})
}

func (l logModel) add(draft diary.Draft) (logModel, tea.Cmd) {
	e, err := l.diary.Add(draft)
	if err != nil {
		return l, statusCmd(fmt.Sprintf("Not added: %v", err), true)
	}
	l.refresh()
	l.cursor = 0
	return l, tea.Batch(
		changed,
		statusCmd(fmt.Sprintf("Added %s (%s)", e.FoodItem, formatKcal(e.TotalCalories)), false),
	)
}

// startEstimate runs the estimator off the UI goroutine. The entry is
// added when estimateDoneMsg comes back.
func (l logModel) startEstimate(description string) (logModel, tea.Cmd) {
	if l.estimating || l.est.Busy() {
		return l, statusCmd("Still estimating the last meal...", false)
	}
	l.estimating = true
	est := l.est
	return l, tea.Batch(
		l.spinner.Tick,
		func() tea.Msg {
			draft, err := est.Estimate(context.Background(), description)
			return estimateDoneMsg{description: description, draft: draft, err: err}
		},
	)
}

func (l logModel) finishEstimate(msg estimateDoneMsg) (logModel, tea.Cmd) {
	if errors.Is(msg.err, estimator.ErrBusy) {
		// the running estimate still owns the flag
		return l, statusCmd("Still estimating the last meal...", false)
	}
	l.estimating = false
	if msg.err != nil {
		return l, statusCmd(estimateFailedText, true)
	}
	return l.add(msg.draft)
}

func (l logModel) view() string {
	w := l.width - 4

	if l.formActive && l.form != nil {
		title := titleStyle.Render("New Entry")
		if l.formType == formSmart {
			title = titleStyle.Render("AI Entry")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", l.form.View())
		return panelStyle.Width(w).Render(content)
	}

	return l.renderList(w)
}

func (l logModel) renderList(w int) string {
	title := titleStyle.Render("Food Log")
	if l.estimating {
		title += "  " + l.spinner.View() + mutedStyle.Render(" estimating...")
	}

	if len(l.entries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No entries yet. Press n for manual entry or a to describe a meal."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-6s %-22s %-11s %-16s %12s",
		"", "Time", "Food", "Category", "Serving", "Calories"))
	rows = append(rows, header)

	// keep the cursor visible in short terminals
	visible := max(3, l.height-12)
	start := 0
	if l.cursor >= visible {
		start = l.cursor - visible + 1
	}
	end := min(len(l.entries), start+visible)

	for i := start; i < end; i++ {
		e := l.entries[i]
		dot := lipgloss.NewStyle().Foreground(categoryColor(e.Category)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == l.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		serving := truncate(formatNumber(e.ServingSize)+" "+e.Unit, 16)
		row := style.Render(fmt.Sprintf("%s%s %-6s %-22s %-11s %-16s %12s",
			cursor, dot,
			e.LoggedAt().Local().Format("15:04"),
			truncate(e.FoodItem, 22),
			string(e.Category),
			serving,
			formatKcal(e.TotalCalories),
		))
		rows = append(rows, row)
	}
	if end < len(l.entries) {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d more", len(l.entries)-end)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  a: ai add  d: delete  ↑/↓: move"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func changed() tea.Msg { return stateChangedMsg{} }

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}
