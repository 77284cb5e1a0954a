package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/fitfeast/internal/diary"
)

type settingsModel struct {
	diary  *diary.Diary
	info   Info
	width  int
	height int

	goal       float64
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	goalInput *string
}

func newSettingsModel(d *diary.Diary, info Info) settingsModel {
	g := ""
	s := settingsModel{
		diary:     d,
		info:      info,
		goalInput: &g,
	}
	s.refresh()
	return s
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *settingsModel) refresh() {
	s.goal = s.diary.Goal()
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case stateChangedMsg:
		s.refresh()
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Goal):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.goalInput = formatNumber(s.goal)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (kcal)").Value(s.goalInput).
				Validate(func(v string) error { _, err := parsePositive(v); return err }),
		).Title("Goal"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s.saveGoal()
	}

	return s, cmd
}

func (s settingsModel) saveGoal() (settingsModel, tea.Cmd) {
	v, err := parsePositive(*s.goalInput)
	if err == nil {
		err = s.diary.SetGoal(v)
	}
	if err != nil {
		return s, statusCmd("Goal not changed: "+err.Error(), true)
	}
	s.refresh()
	return s, tea.Batch(changed, statusCmd("Goal set to "+formatGoal(v), false))
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter or g to change the daily goal")

	ai := "disabled (no API key)"
	if s.info.AIEnabled {
		ai = "enabled, model " + s.info.Model
	}

	settings := []struct{ k, v string }{
		{"Daily goal", formatGoal(s.goal)},
		{"Entries", strconv.Itoa(s.diary.Len())},
		{"Database", s.info.DBPath},
		{"Export folder", s.info.ExportDir},
		{"AI", ai},
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for _, setting := range settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.k)
		value := highlightStyle.Render(setting.v)
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
