package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/fitfeast/internal/diary"
	"github.com/sadopc/fitfeast/internal/estimator"
	"github.com/sadopc/fitfeast/internal/export"
	"go.uber.org/zap"
)

const refreshInterval = 15 * time.Second

var exportChoices = []string{"CSV", "Backup (JSON)", "Restore from backup"}

const (
	exportCSV = iota
	exportBackup
	exportRestore
)

// Options wires the app to its collaborators. A nil Estimator disables
// AI entry and a nil Advisor disables tips.
type Options struct {
	Estimator estimator.Estimator
	Advisor   estimator.Advisor
	TipsDelay time.Duration
	ExportDir string
	DBPath    string
	Model     string
	Logger    *zap.Logger
	Now       func() time.Time
}

// Info is what the settings view shows about the environment.
type Info struct {
	DBPath    string
	ExportDir string
	Model     string
	AIEnabled bool
}

// App is the root Bubble Tea model.
type App struct {
	diary     *diary.Diary
	logger    *zap.Logger
	now       func() time.Time
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	restoring   bool
	restoreForm *huh.Form
	restorePath *string

	dashboard dashboardModel
	logView   logModel
	reports   reportsModel
	settings  settingsModel

	tips *tipFeed

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(d *diary.Diary, opts Options) App {
	h := help.New()
	h.ShowAll = false

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	var guarded *estimator.Guarded
	if opts.Estimator != nil {
		guarded = estimator.Guard(opts.Estimator)
	}
	var tips *tipFeed
	if opts.Advisor != nil {
		tips = newTipFeed(opts.Advisor, opts.TipsDelay, opts.Logger)
	}

	info := Info{
		DBPath:    opts.DBPath,
		ExportDir: opts.ExportDir,
		Model:     opts.Model,
		AIEnabled: opts.Estimator != nil,
	}

	path := ""
	a := App{
		diary:       d,
		logger:      opts.Logger,
		now:         opts.Now,
		exportDir:   opts.ExportDir,
		activeView:  viewDashboard,
		restorePath: &path,
		dashboard:   newDashboardModel(d, tips != nil),
		logView:     newLogModel(d, guarded),
		reports:     newReportsModel(d),
		settings:    newSettingsModel(d, info),
		tips:        tips,
		help:        h,
	}
	a.dashboard.tipsPending = tips != nil && d.Len() > 0
	return a
}

func (a App) Init() tea.Cmd {
	a.tips.schedule(a.diary.Entries())
	return tea.Batch(
		tickCmd(),
		a.tips.wait(),
	)
}

// Close stops background advice and retries a failed save.
func (a App) Close() {
	a.tips.stop()
	if a.diary.SyncErr() == nil {
		return
	}
	if err := a.diary.Sync(); err != nil {
		a.logger.Warn("final save failed", zap.Error(err))
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.logView.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.restoring {
			return a.updateRestoreForm(msg)
		}

		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			a.dashboard.refresh()
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewLog
			a.logView.refresh()
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			a.reports.refresh()
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			a.settings.refresh()
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		case key.Matches(msg, keys.Goal):
			a.activeView = viewSettings
			var cmd tea.Cmd
			a.settings, cmd = a.settings.showForm()
			return a, cmd
		}

	case tickMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		if msg.isError {
			a.logger.Debug("status error", zap.String("text", msg.text))
		}
		return a, nil

	case stateChangedMsg:
		a.dashboard.refresh()
		a.logView.refresh()
		a.reports.refresh()
		a.settings.refresh()
		a.tips.schedule(a.diary.Entries())
		a.dashboard.tipsPending = a.tips.pending()
		return a, nil

	case tipsMsg:
		a.dashboard.setTips(msg.text)
		return a, a.tips.wait()

	case estimateDoneMsg, spinner.TickMsg:
		// estimates finish in the log view whatever is on screen
		var cmd tea.Cmd
		a.logView, cmd = a.logView.update(msg)
		return a, cmd

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case backupLoadedMsg:
		a.diary.Restore(msg.restore.Entries, msg.restore.Goal)
		a.status = fmt.Sprintf("Imported %d entries from %s", len(msg.restore.Entries), msg.path)
		a.statusErr = false
		a.logger.Info("backup imported",
			zap.String("path", msg.path),
			zap.Int("entries", len(msg.restore.Entries)))
		return a, changed
	}

	if a.restoring {
		return a.updateRestoreForm(msg)
	}
	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewLog:
		a.logView, cmd = a.logView.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewLog:
		return a.logView.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewLog:
		content = a.logView.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	switch {
	case a.restoring:
		content = a.renderRestoreForm()
	case a.exportPicking:
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("fitfeast")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	busy := ""
	if a.logView.estimating {
		busy = a.logView.spinner.View() + highlightStyle.Render(" estimating ")
	}

	left := footerStyle.Render(helpView)
	right := busy + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export / Import")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportChoices {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  files go to "+a.exportDir))
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportChoices)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		if a.exportCursor == exportRestore {
			return a.showRestoreForm()
		}
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport snapshots the diary on the UI goroutine and writes the file in
// a command.
func (a App) doExport(format int) tea.Cmd {
	st := a.diary.Snapshot()
	at := a.now()
	dir := a.exportDir

	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		var path string
		if format == exportCSV {
			path = filepath.Join(dir, export.CSVFileName(at))
			if err := export.ToCSV(st.Entries, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, export.BackupFileName(at))
			if err := export.ToBackup(st, path, at); err != nil {
				return statusMsg{text: fmt.Sprintf("Backup error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}

func (a App) showRestoreForm() (tea.Model, tea.Cmd) {
	*a.restorePath = ""
	a.restoreForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Backup file").
				Placeholder("fitfeast_dashboard_backup_2025-01-31.json").
				Value(a.restorePath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("enter a file path")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)
	a.restoring = true
	return a, a.restoreForm.Init()
}

func (a App) updateRestoreForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		a.restoring = false
		a.restoreForm = nil
		return a, nil
	}

	form, cmd := a.restoreForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.restoreForm = f
	}

	if a.restoreForm.State == huh.StateCompleted {
		a.restoring = false
		a.restoreForm = nil
		return a, loadBackup(expandHome(strings.TrimSpace(*a.restorePath)))
	}
	return a, cmd
}

func (a App) renderRestoreForm() string {
	title := titleStyle.Render("Restore from backup")
	warn := warningStyle.Render("This replaces every entry currently logged.")
	return activePanelStyle.Width(a.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, warn, "", a.restoreForm.View()),
	)
}

// loadBackup reads and validates a backup off the UI goroutine. Nothing
// is applied unless the whole file is valid.
func loadBackup(path string) tea.Cmd {
	return func() tea.Msg {
		r, err := export.FromBackup(path)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import failed: %v", err), isError: true}
		}
		return backupLoadedMsg{path: path, restore: r}
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
