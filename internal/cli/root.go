// Package cli wires configuration, storage and the estimator into the
// fitfeast command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/fitfeast/internal/config"
	"github.com/sadopc/fitfeast/internal/diary"
	"github.com/sadopc/fitfeast/internal/estimator"
	"github.com/sadopc/fitfeast/internal/store"
	"github.com/sadopc/fitfeast/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// aiClient is what the Gemini client offers: estimates and advice.
type aiClient interface {
	estimator.Estimator
	estimator.Advisor
}

type app struct {
	// Flags
	cfgPath string
	dbPath  string
	verbose bool

	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
	diary *diary.Diary

	now    func() time.Time
	newAI  func(ctx context.Context, cfg *config.Config, log *zap.Logger) (aiClient, error)
	runTUI func(cmd *cobra.Command) error
}

func newApp() *app {
	a := &app{
		now:   time.Now,
		newAI: newGemini,
	}
	a.runTUI = a.startTUI
	return a
}

// Execute runs the fitfeast command tree.
func Execute() error {
	a := newApp()
	defer a.close()
	return a.rootCmd().Execute()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fitfeast",
		Short: "fitfeast - calorie tracking dashboard",
		Long: `fitfeast logs what you eat against a daily calorie goal.

Entries can be typed in by hand or estimated from a short description
by Gemini when GEMINI_API_KEY is set. Data lives in a local SQLite file.

Run without arguments to start the interactive dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Config file (default: <config dir>/fitfeast/config.yaml)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "Database file (or set FITFEAST_DB)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		a.addCmd(),
		a.estimateCmd(),
		a.rmCmd(),
		a.goalCmd(),
		a.statusCmd(),
		a.tipsCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.configCmd(),
	)
	return root
}

// setup loads config, builds the logger and opens the store. Fields that
// are already set are kept.
func (a *app) setup(cmd *cobra.Command) error {
	if a.cfg == nil {
		path := a.cfgPath
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
		if a.cfgPath == "" {
			a.cfgPath = path
		}
	}

	if a.dbPath == "" {
		a.dbPath = a.cfg.Storage.DatabasePath
	}
	if a.dbPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return err
		}
		a.dbPath = p
	}

	if a.log == nil {
		// The dashboard owns the terminal, so it logs to a file.
		logPath := ""
		if !cmd.HasParent() {
			logPath = a.cfg.LogPath(a.dbPath)
		}
		log, err := buildLogger(a.cfg.Logging.Level, a.verbose, logPath)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.log = log
	}

	// config subcommands work without a database
	if isConfigCmd(cmd) {
		return nil
	}

	if a.store == nil {
		s, err := store.New(a.dbPath, a.log)
		if err != nil {
			return fmt.Errorf("open database %s: %w", a.dbPath, err)
		}
		a.store = s
	}
	if a.diary == nil {
		opts := []diary.Option{diary.WithLogger(a.log), diary.WithClock(a.now)}
		if saved, err := a.store.UpdatedAt(store.StateKey); err == nil {
			opts = append(opts, diary.WithLastSynced(saved))
		}
		a.diary = diary.New(a.store.Load(), a.store, opts...)
	}
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.log != nil {
			a.log.Warn("close database", zap.Error(err))
		}
		a.store = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func isConfigCmd(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" && c.HasParent() {
			return true
		}
	}
	return false
}

func buildLogger(level string, verbose bool, path string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return nil, err
		}
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		config.OutputPaths = []string{path}
		config.ErrorOutputPaths = []string{path}
	}
	return config.Build()
}

func newGemini(ctx context.Context, cfg *config.Config, log *zap.Logger) (aiClient, error) {
	if !cfg.HasAPIKey() {
		return nil, estimator.ErrNoAPIKey
	}
	g, err := estimator.NewGemini(ctx, cfg.AI.APIKey, cfg.AI.Model,
		estimator.WithTimeout(cfg.GetTimeout()),
		estimator.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (a *app) ai(ctx context.Context) (aiClient, error) {
	client, err := a.newAI(ctx, a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("AI features unavailable (set GEMINI_API_KEY): %w", err)
	}
	return client, nil
}

func (a *app) startTUI(cmd *cobra.Command) error {
	opts := tui.Options{
		TipsDelay: a.cfg.GetTipsDelay(),
		ExportDir: a.cfg.Export.Dir,
		DBPath:    a.dbPath,
		Model:     a.cfg.AI.Model,
		Logger:    a.log,
		Now:       a.now,
	}
	client, err := a.newAI(cmd.Context(), a.cfg, a.log)
	if err != nil {
		a.log.Info("AI features disabled", zap.Error(err))
	} else {
		opts.Estimator = client
		opts.Advisor = client
	}

	model := tui.NewApp(a.diary, opts)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
