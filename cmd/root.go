package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/stresslens/internal/app"
	"github.com/abhisek/stresslens/internal/config"
	"github.com/abhisek/stresslens/internal/logging"
	"github.com/abhisek/stresslens/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "stresslens",
	Short: "Stress level prediction from wearable metrics",
	Long: "stresslens predicts a Low / Moderate / High stress level from heart rate, HRV, " +
		"activity and sleep metrics, explains it with threshold rules and, when a language " +
		"model is configured, with generated insight.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file")
	pf.String("env-file", "", "Path to a .env file (default: ./.env if present)")
	pf.String("db", "", "Path to SQLite audit database (overrides STRESSLENS_DB env var)")
	pf.String("model", "", "Path to a forest artifact (default: embedded model)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.BoolP("verbose", "v", false, "Human-readable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(insightCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration from the .env file, the YAML file,
// the environment and finally command-line flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if p, _ := cmd.Flags().GetString("model"); p != "" {
		cfg.Model.Path = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	return cfg, nil
}

type buildOpts struct {
	// quiet logs at warn unless a level was asked for, so one-shot output
	// stays readable.
	quiet bool
	// offline skips the audit store and the LLM provider.
	offline bool
}

// buildApp loads configuration and constructs the application context.
func buildApp(cmd *cobra.Command, opts buildOpts) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if opts.quiet && !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("verbose") {
		cfg.Logging.Level = "warn"
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	dbPath, _ := cmd.Flags().GetString("db")
	a, err := app.New(cmd.Context(), app.Options{
		Config:  cfg,
		Logger:  logger,
		DBPath:  dbPath,
		Offline: opts.offline,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return a, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Logging.Level, cfg.Logging.Development)
}

// closeApp flushes logs and releases the store.
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Warn("close store", zap.Error(err))
	}
	_ = a.Logger.Sync()
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the config file, then STRESSLENS_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.Store.Path != "" {
		return cfg.Store.Path, store.EnsureDir(cfg.Store.Path)
	}
	return store.DefaultDBPath()
}
