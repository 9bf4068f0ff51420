// Package app wires the classifier, rule engine, insight composer and audit
// store into one context that is built at startup and shared by the HTTP
// server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/stresslens/internal/config"
	"github.com/abhisek/stresslens/internal/features"
	"github.com/abhisek/stresslens/internal/forest"
	"github.com/abhisek/stresslens/internal/insight"
	"github.com/abhisek/stresslens/internal/llm"
	"github.com/abhisek/stresslens/internal/rules"
	"github.com/abhisek/stresslens/internal/store"
	"github.com/abhisek/stresslens/internal/stress"
)

// ErrInsightDisabled is returned by insight operations when no text
// generation provider is configured.
var ErrInsightDisabled = errors.New("insight generation is not configured")

// App holds the long-lived, read-only collaborators. All fields are set by
// New and never reassigned, so an *App is safe for concurrent use.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Forest     *forest.Forest
	Classifier *stress.Classifier
	Rules      *rules.Engine
	// Composer is nil when no provider is configured.
	Composer *insight.Composer
	// Store is nil when auditing is disabled.
	Store *store.Store
}

// Options customizes New. Zero values fall back to the configuration.
type Options struct {
	Config *config.Config
	Logger *zap.Logger
	// Provider replaces the configured provider.
	Provider llm.Provider
	// DBPath overrides the configured store path.
	DBPath string
	// Offline skips the store and the provider, for commands that only
	// classify or analyze.
	Offline bool
}

// New loads the model, opens the audit store and builds the provider chain.
// A provider that cannot be built is logged and leaves insight disabled;
// every other failure is returned.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := stress.LoadForestFile(cfg.Model.Path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Forest:     f,
		Classifier: stress.NewClassifier(f),
		Rules:      rules.NewEngine(),
	}

	if opts.Offline {
		logger.Debug("offline mode; store and insight disabled")
		return a, nil
	}

	var eventRepo store.EventRepo
	if cfg.Store.Enabled {
		st, err := openStore(cfg.Store.Path, opts.DBPath)
		if err != nil {
			return nil, err
		}
		a.Store = st
		eventRepo = st.EventRepo()
		if cfg.Store.Retention > 0 {
			n, err := eventRepo.PruneLLMEvents(ctx, time.Now().Add(-cfg.Store.Retention))
			if err != nil {
				logger.Warn("audit retention failed", zap.Error(err))
			} else if n > 0 {
				logger.Info("pruned audit log", zap.Int64("deleted", n), zap.Duration("retention", cfg.Store.Retention))
			}
		}
	}

	provider := opts.Provider
	if provider == nil {
		pc, ok := cfg.ProviderConfig()
		if ok {
			provider, err = llm.NewProvider(ctx, pc, eventRepo, logger)
			if err != nil {
				logger.Warn("LLM provider not configured; insight features are unavailable", zap.Error(err))
				provider = nil
			}
		} else {
			logger.Info("no LLM provider configured; insight features are unavailable")
		}
	}
	if provider != nil {
		a.Composer = insight.NewComposer(provider, cfg.Insight())
		logger.Info("insight enabled", zap.String("model", provider.ModelID()))
	}

	logger.Info("model loaded",
		zap.String("version", f.Version()),
		zap.Int("trees", f.Size()),
	)
	return a, nil
}

func openStore(cfgPath, override string) (*store.Store, error) {
	path := override
	if path == "" {
		path = cfgPath
	}
	var err error
	if path == "" {
		path, err = store.DefaultDBPath()
	} else {
		err = store.EnsureDir(path)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// Close releases the audit store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// InsightEnabled reports whether a provider is available.
func (a *App) InsightEnabled() bool {
	return a.Composer != nil
}

// Assessment is the model and rule view of one feature vector.
type Assessment struct {
	Prediction stress.Result
	Finding    rules.Finding
}

// Assess runs the classifier and the rule engine. They do not consult each
// other.
func (a *App) Assess(v features.Vector) (Assessment, error) {
	pred, err := a.Classifier.Predict(v)
	if err != nil {
		return Assessment{}, err
	}
	return Assessment{Prediction: pred, Finding: a.Rules.Analyze(v)}, nil
}

// Explain assesses v and asks the composer for the given mode. The
// structured prediction mode sees only the raw features so the model forms
// its own estimate.
func (a *App) Explain(ctx context.Context, v features.Vector, mode insight.Mode, message string) (*insight.Insight, Assessment, error) {
	if a.Composer == nil {
		return nil, Assessment{}, ErrInsightDisabled
	}

	as, err := a.Assess(v)
	if err != nil {
		return nil, Assessment{}, err
	}

	in := insight.Input{Features: v, Mode: mode, Message: message}
	if mode != insight.ModeStructuredPrediction {
		in.Prediction = &as.Prediction
		in.Finding = &as.Finding
	}

	out, err := a.Composer.Compose(ctx, in)
	if err != nil {
		return nil, as, err
	}
	return out, as, nil
}
