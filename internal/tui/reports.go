package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/fitfeast/internal/diary"
)

type reportsModel struct {
	diary  *diary.Diary
	width  int
	height int

	totals  []diary.CategoryTotal
	summary diary.Summary

	chart barchart.Model
}

func newReportsModel(d *diary.Diary) reportsModel {
	r := reportsModel{
		diary: d,
		chart: barchart.New(60, 12),
	}
	r.refresh()
	return r
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

func (r *reportsModel) refresh() {
	r.totals = diary.ByCategory(r.diary.Entries())
	r.summary = r.diary.Summary()
	r.buildChart()
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	if _, ok := msg.(stateChangedMsg); ok {
		r.refresh()
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, t := range r.totals {
		style := lipgloss.NewStyle().Foreground(categoryColor(t.Category))
		if t.Calories == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: shortLabel(t.Category),
			Values: []barchart.BarValue{{
				Name:  string(t.Category),
				Value: float64(t.Calories),
				Style: style,
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

// shortLabel keeps bar labels narrow enough for eight bars.
func shortLabel(c diary.Category) string {
	s := string(c)
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

func (r reportsModel) view() string {
	w := r.width - 4

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Calories by Category"), "  ",
		mutedStyle.Render(fmt.Sprintf("%s across %d entries", formatKcal(r.summary.Total), r.summary.Count)),
	)

	if r.summary.Count == 0 {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render("  No data yet")),
		)
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTable(w),
		),
	)
}

func (r reportsModel) renderTable(w int) string {
	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-14s %8s %14s %8s", "Category", "Entries", "Calories", "Share"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 47)))))

	for _, t := range r.totals {
		if t.Count == 0 {
			continue
		}
		share := 0.0
		if r.summary.Total > 0 {
			share = float64(t.Calories) / float64(r.summary.Total) * 100
		}
		dot := lipgloss.NewStyle().Foreground(categoryColor(t.Category)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-12s %8d %14s %8s",
			dot, t.Category, t.Count, formatKcal(t.Calories), formatPercent(share),
		))
	}

	return strings.Join(rows, "\n")
}
