package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sadopc/fitfeast/internal/diary"
	"github.com/sadopc/fitfeast/internal/export"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewLog
	viewReports
	viewSettings
)

var viewNames = []string{"Dashboard", "Log", "Reports", "Settings"}

const estimateFailedText = "Failed to estimate nutrition. Please try manual entry."

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// stateChangedMsg is sent after any diary mutation.
type stateChangedMsg struct{}

type estimateDoneMsg struct {
	description string
	draft       diary.Draft
	err         error
}

type tipsMsg struct {
	text string
}

type exportDoneMsg struct {
	path string
}

type backupLoadedMsg struct {
	path    string
	restore export.Restore
}

// --- Helpers ---

func formatKcal(n int) string {
	return humanize.Comma(int64(n)) + " kcal"
}

func formatGoal(g float64) string {
	if g == math.Trunc(g) && math.Abs(g) < 1e15 {
		return humanize.Comma(int64(g)) + " kcal"
	}
	return strconv.FormatFloat(g, 'f', 1, 64) + " kcal"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// parsePositive parses a strictly positive finite number.
func parsePositive(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("enter a number greater than 0")
	}
	return v, nil
}

// parseNonNegative parses a finite number >= 0.
func parseNonNegative(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("enter a number of 0 or more")
	}
	return v, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
