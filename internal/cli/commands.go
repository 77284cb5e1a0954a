package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/sadopc/fitfeast/internal/config"
	"github.com/sadopc/fitfeast/internal/diary"
	"github.com/sadopc/fitfeast/internal/export"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) addCmd() *cobra.Command {
	var (
		category string
		serving  float64
		unit     string
		kcal     float64
	)
	cmd := &cobra.Command{
		Use:   "add <food...>",
		Short: "Log a food entry by hand",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := diary.ParseCategory(category)
			if err != nil {
				return err
			}
			e, err := a.diary.Add(diary.Draft{
				FoodItem:        strings.Join(args, " "),
				Category:        c,
				ServingSize:     serving,
				Unit:            unit,
				CaloriesPerUnit: kcal,
			})
			if err != nil {
				return err
			}
			if err := a.diary.SyncErr(); err != nil {
				return fmt.Errorf("save: %w", err)
			}
			printEntry(cmd.OutOrStdout(), "Added", e)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", string(diary.Other), "Category ("+categoryList()+")")
	cmd.Flags().Float64VarP(&serving, "serving", "s", 1, "Serving size")
	cmd.Flags().StringVarP(&unit, "unit", "u", diary.DefaultUnit, "Serving unit")
	cmd.Flags().Float64VarP(&kcal, "kcal", "k", 0, "Calories per unit")
	_ = cmd.MarkFlagRequired("kcal")
	return cmd
}

func (a *app) estimateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "estimate <description...>",
		Short: "Estimate nutrition with Gemini and log the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.ai(cmd.Context())
			if err != nil {
				return err
			}
			desc := strings.Join(args, " ")
			draft, err := client.Estimate(cmd.Context(), desc)
			if err != nil {
				a.log.Warn("estimate failed", zap.String("description", desc), zap.Error(err))
				return fmt.Errorf("failed to estimate nutrition, try `fitfeast add` instead: %w", err)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "Estimate: %s (%s) %s %s x %s kcal = %s kcal\n",
					draft.FoodItem, draft.Category,
					formatFloat(draft.ServingSize), draft.Unit,
					formatFloat(draft.CaloriesPerUnit),
					humanize.Comma(int64(draft.TotalCalories())))
				return nil
			}

			e, err := a.diary.Add(draft)
			if err != nil {
				return err
			}
			if err := a.diary.SyncErr(); err != nil {
				return fmt.Errorf("save: %w", err)
			}
			printEntry(out, "Added", e)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the estimate without logging it")
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id...>",
		Aliases: []string{"delete"},
		Short:   "Delete entries by id or unique id prefix",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				id, err := a.resolveID(arg)
				if err != nil {
					return err
				}
				if id == "" || !a.diary.Remove(id) {
					fmt.Fprintf(out, "No entry %s\n", arg)
					continue
				}
				fmt.Fprintf(out, "Deleted %s\n", id)
			}
			if err := a.diary.SyncErr(); err != nil {
				return fmt.Errorf("save: %w", err)
			}
			return nil
		},
	}
}

// resolveID returns the id matching ref exactly or by unique prefix, or
// "" when nothing matches.
func (a *app) resolveID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("entry id must not be empty")
	}
	entries := a.diary.Entries()
	for _, e := range entries {
		if e.ID == ref {
			return e.ID, nil
		}
	}

	var match string
	for _, e := range entries {
		if !strings.HasPrefix(e.ID, ref) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("id prefix %q is ambiguous", ref)
		}
		match = e.ID
	}
	return match, nil
}

func (a *app) goalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goal [kcal]",
		Short: "Show or set the daily calorie goal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintf(out, "Daily goal: %s kcal\n", formatFloat(a.diary.Goal()))
				return nil
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil {
				return fmt.Errorf("%w: %q", diary.ErrInvalidGoal, args[0])
			}
			if err := a.diary.SetGoal(v); err != nil {
				return err
			}
			if err := a.diary.SyncErr(); err != nil {
				return fmt.Errorf("save: %w", err)
			}
			fmt.Fprintf(out, "Daily goal set to %s kcal\n", formatFloat(v))
			return nil
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show today's totals and logged entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s := a.diary.Summary()

			fmt.Fprintf(out, "Consumed:  %s kcal\n", humanize.Comma(int64(s.Total)))
			fmt.Fprintf(out, "Goal:      %s kcal\n", formatFloat(s.Goal))
			if s.Over {
				fmt.Fprintf(out, "Over by:   %s kcal\n", formatFloat(float64(s.Total)-s.Goal))
			} else {
				fmt.Fprintf(out, "Remaining: %s kcal\n", formatFloat(s.Remaining))
			}
			fmt.Fprintf(out, "Progress:  %.1f%%\n", s.Percentage)

			entries := a.diary.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "\nNo entries logged.")
				return nil
			}
			if limit > 0 && limit < len(entries) {
				entries = entries[:limit]
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					shortID(e.ID),
					e.LoggedAt().Local().Format("15:04"),
					e.FoodItem,
					string(e.Category),
					formatFloat(e.ServingSize) + " " + e.Unit,
					humanize.Comma(int64(e.TotalCalories)),
				})
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "Time", "Food", "Category", "Serving", "kcal").
				Rows(rows...)
			fmt.Fprintf(out, "\n%s\n", t.String())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n entries (0 shows all)")
	return cmd
}

func (a *app) tipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tips",
		Short: "Ask Gemini for tips about today's log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			entries := a.diary.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Log a meal to get tips.")
				return nil
			}
			client, err := a.ai(cmd.Context())
			if err != nil {
				return err
			}
			text, err := client.Advise(cmd.Context(), entries)
			if err != nil {
				return fmt.Errorf("get tips: %w", err)
			}
			if text == "" {
				fmt.Fprintln(out, "No tips right now.")
				return nil
			}
			fmt.Fprintln(out, text)
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:       "export <csv|backup>",
		Short:     "Write the log as CSV or a JSON backup",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"csv", "backup"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Export.Dir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			st := a.diary.Snapshot()
			at := a.now()
			var path string
			switch args[0] {
			case "csv":
				path = filepath.Join(dir, export.CSVFileName(at))
				if err := export.ToCSV(st.Entries, path); err != nil {
					return err
				}
			case "backup", "json":
				path = filepath.Join(dir, export.BackupFileName(at))
				if err := export.ToBackup(st, path, at); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown export format %q (want csv or backup)", args[0])
			}

			a.log.Info("exported", zap.String("format", args[0]), zap.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(st.Entries), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "out", "o", "", "Output folder (default: export.dir from config)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <backup.json>",
		Short: "Replace the log with the contents of a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := export.FromBackup(args[0])
			if err != nil {
				return err
			}
			a.diary.Restore(r.Entries, r.Goal)
			if err := a.diary.SyncErr(); err != nil {
				return fmt.Errorf("save: %w", err)
			}
			a.log.Info("restored backup", zap.String("path", args[0]), zap.Int("entries", len(r.Entries)))
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d entries (goal %s kcal)\n",
				len(r.Entries), formatFloat(a.diary.Goal()))
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.cfgPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", a.cfgPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.DefaultConfig().Save(a.cfgPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", a.cfgPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config and database paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:   %s\n", a.cfgPath)
			fmt.Fprintf(out, "database: %s\n", a.dbPath)
			fmt.Fprintf(out, "log:      %s\n", a.cfg.LogPath(a.dbPath))
			return nil
		},
	}

	cmd.AddCommand(initCmd, pathCmd)
	return cmd
}

func printEntry(w io.Writer, verb string, e diary.FoodEntry) {
	fmt.Fprintf(w, "%s %s: %s (%s) %s %s = %s kcal\n",
		verb, shortID(e.ID), e.FoodItem, e.Category,
		formatFloat(e.ServingSize), e.Unit,
		humanize.Comma(int64(e.TotalCalories)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func categoryList() string {
	names := make([]string, len(diary.Categories))
	for i, c := range diary.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
