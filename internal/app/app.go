package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/config"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/engine"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/registry"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/stage"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/statestore"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	settings   settings
	model      *config.Model
	store      statestore.Store
	closeStore func() error
	registry   *registry.Registry
	engine     *engine.Engine
	clock      func() time.Time
}

// NewApp is the constructor for the main application. Reports go to outW
// and logs to logW. It loads the flow file, opens the state backend and
// registers one stage node per stage block. Structural problems in the
// flow (unknown dependencies, cycles) are not reported here; the commands
// check them.
func NewApp(ctx context.Context, outW, logW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(firstNonEmpty(cfg.LogLevel, DefaultLogLevel), firstNonEmpty(cfg.LogFormat, DefaultLogFormat), logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.", "stages", len(model.Stages))

	baseDir := baseDirOf(cfg.ConfigPath)
	resolved, err := cfg.resolve(model.Settings, baseDir)
	if err != nil {
		return nil, err
	}
	if resolved.logLevel != cfg.LogLevel || resolved.logFormat != cfg.LogFormat {
		logger = newLogger(resolved.logLevel, resolved.logFormat, logW)
		ctx = ctxlog.WithLogger(ctx, logger)
	}

	store, closeStore, err := openStore(ctx, resolved.stateBackend, resolved.stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	reg := registry.New()
	for _, sc := range model.Stages {
		if err := reg.Register(ctx, stage.New(sc, store, stage.WithBaseDir(baseDir))); err != nil {
			_ = closeStore()
			return nil, fmt.Errorf("failed to register stage %q: %w", sc.Name, err)
		}
	}
	logger.Debug("All stages registered.", "count", reg.Len())

	eng, err := engine.New(reg, engine.WithLogger(logger))
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	return &App{
		outW:       outW,
		logger:     logger,
		config:     cfg,
		settings:   resolved,
		model:      model,
		store:      store,
		closeStore: closeStore,
		registry:   reg,
		engine:     eng,
		clock:      time.Now,
	}, nil
}

// Close releases the state backend.
func (a *App) Close() error {
	return a.closeStore()
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Store returns the change-detector state backend.
func (a *App) Store() statestore.Store {
	return a.store
}

func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// baseDirOf is the directory relative stage paths resolve against: the
// config path itself when it is a directory, otherwise its parent.
func baseDirOf(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Clean(path)
	}
	return filepath.Dir(path)
}
