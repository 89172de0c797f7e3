package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/vk/chatgear/internal/bus"
	"github.com/vk/chatgear/internal/ctxlog"
	"github.com/vk/chatgear/internal/domwatch"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/lifecycle"
	"github.com/vk/chatgear/internal/navigation"
	"github.com/vk/chatgear/internal/page"
	"github.com/vk/chatgear/internal/profile"
	"github.com/vk/chatgear/internal/registry"
	"github.com/vk/chatgear/internal/settings"
)

// App encapsulates one page-attachment context: its logger, registry,
// activation state machine, settings sync, navigation detector, content
// watcher and relay connection. Constructed once per attached page; tests
// build several independent instances freely.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	pg     page.Page
	bus    bus.Bus
	prof   *profile.Profile

	registry *registry.Registry
	act      *lifecycle.Activator
	sync     *settings.Sync
	store    *settings.Store
	detector *navigation.Detector
	watcher  *domwatch.Watcher

	mu       sync.Mutex
	snapshot settings.Snapshot
	started  sync.Once
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and registry.
// Passing no features registers the compiled-in core set.
func NewApp(outW io.Writer, cfg *Config, pg page.Page, b bus.Bus, features ...feature.Feature) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	prof, err := profile.Load(ctx, cfg.ProfilePath)
	if err != nil {
		// A failure to load the site profile is a fatal startup error.
		panic(fmt.Errorf("failed to load site profile: %w", err))
	}
	logger.Debug("Site profile loaded.", "path", cfg.ProfilePath)

	reg := registry.New()
	if len(features) == 0 {
		features = coreFeatures(pg, cfg.DataDir)
	}
	for _, f := range features {
		reg.Register(f)
	}
	logger.Debug("All feature modules registered.", "count", len(features))

	act := lifecycle.New(reg)

	a := &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		pg:       pg,
		bus:      b,
		prof:     prof,
		registry: reg,
		act:      act,
		sync:     settings.NewSync(act, prof.Options),
		store:    settings.NewStore(cfg.DataDir, settings.Default(prof.FeatureDefaults)),
	}

	a.watcher = domwatch.New(pg, act, domwatch.Options{
		Selector:    prof.ContainerSelector,
		BaseDelay:   prof.BaseDelay,
		MaxDelay:    prof.MaxDelay,
		MaxAttempts: prof.MaxAttempts,
		Debounce:    prof.Debounce,
		OnFound:     func() { a.onContainerFound(ctx) },
	})

	pollInterval := prof.PollInterval
	if !prof.Polling {
		pollInterval = 0
	}
	a.detector = navigation.New(pg, act, navigation.Options{
		ConversationPrefix: prof.ConversationPrefix,
		SettleDelay:        prof.SettleDelay,
		PollInterval:       pollInterval,
		Rearm:              func() { a.watcher.Rearm(ctx) },
	})

	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Activator returns the activation state machine. Primarily for testing.
func (a *App) Activator() *lifecycle.Activator {
	return a.act
}

// Watcher returns the content watcher. Primarily for testing.
func (a *App) Watcher() *domwatch.Watcher {
	return a.watcher
}
