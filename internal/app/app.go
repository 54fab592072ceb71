package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nfrund/bosstracker/internal/config"
	"github.com/nfrund/bosstracker/internal/domain"
	"github.com/nfrund/bosstracker/internal/events"
	"github.com/nfrund/bosstracker/internal/fight"
	"github.com/nfrund/bosstracker/internal/formula"
	"github.com/nfrund/bosstracker/internal/gamedata"
	"github.com/nfrund/bosstracker/internal/persist"
	"github.com/nfrund/bosstracker/internal/store"
)

// SQLiteFile is the database file created under the state directory by the
// sqlite backend.
const SQLiteFile = "tracker.db"

// App holds the wired services of the tracker. It is built once by the
// entrypoint and handed to commands.
type App struct {
	Config   *config.Config
	Catalog  *gamedata.Live
	Reducer  *fight.Reducer
	Store    *store.Store
	Formulas *formula.Engine
	Bus      *events.Bus
	Bridge   *events.Bridge

	logger  *slog.Logger
	watcher *gamedata.Watcher
	closers []func() error
}

// Option configures New.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	storage persist.Storage
	clock   store.Clock
}

// WithLogger sets the logger passed to every service.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStorage overrides the backend selected by the configuration.
func WithStorage(st persist.Storage) Option {
	return func(o *options) { o.storage = st }
}

// WithClock sets the clock the store schedules writes with.
func WithClock(c store.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New loads game data, opens the configured storage backend, hydrates the
// store and attaches the event bridge.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, logger: o.logger}

	catalog, err := loadCatalog(cfg.GameDataPath)
	if err != nil {
		return nil, err
	}
	a.Catalog = gamedata.NewLive(catalog)
	a.Reducer = fight.NewReducer(a.Catalog)

	storage := o.storage
	if storage == nil {
		storage, err = a.openStorage(cfg)
		if err != nil {
			return nil, err
		}
	}

	storeOpts := []store.Option{
		store.WithStorage(storage),
		store.WithKey(cfg.StorageKey),
		store.WithDebounce(cfg.PersistDebounce),
		store.WithMinInterval(cfg.PersistMinInterval),
		store.WithLogger(o.logger),
	}
	if o.clock != nil {
		storeOpts = append(storeOpts, store.WithClock(o.clock))
	}
	a.Store = store.New(ctx, a.Reducer, DefaultState(catalog), storeOpts...)

	a.Formulas = formula.NewEngine(formula.WithLogger(o.logger))
	a.Bus = events.NewBus(o.logger)
	a.Bridge = events.Attach(a.Store, a.Bus)

	if cfg.HotReload && cfg.GameDataPath != "" {
		a.watcher = gamedata.NewWatcher(cfg.GameDataPath, a.Catalog,
			gamedata.WithWatcherLogger(o.logger),
			gamedata.WithReloadHook(a.rebase),
		)
		if err := a.watcher.Start(ctx); err != nil {
			o.logger.Warn("Game data hot reload disabled", "path", cfg.GameDataPath, "error", err)
			a.watcher = nil
		}
	}

	o.logger.Debug("Tracker initialised",
		"storage", cfg.StorageBackend,
		"key", cfg.StorageKey,
		"target", a.Store.State().SelectedBossID,
	)
	return a, nil
}

// DefaultState is the state a fresh install starts from: the first boss of
// the catalog with the weakest nail.
func DefaultState(c *gamedata.Catalog) *fight.State {
	target := fight.CustomTargetID
	if bosses := c.Bosses(); len(bosses) > 0 {
		target = bosses[0].ID
	}
	return fight.NewState(target, c.DefaultNailUpgrade())
}

func loadCatalog(path string) (*gamedata.Catalog, error) {
	if path == "" {
		return gamedata.Default(), nil
	}
	c, err := gamedata.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load game data: %w", err)
	}
	return c, nil
}

func (a *App) openStorage(cfg *config.Config) (persist.Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return persist.NewMemoryStorage(), nil
	case config.StorageSQLite:
		if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		db, err := persist.OpenSQLite(filepath.Join(cfg.StateDir, SQLiteFile))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return db, nil
	default:
		return persist.NewFileStorage(cfg.StateDir), nil
	}
}

// Reload puts c in effect and re-validates the fight state against it.
func (a *App) Reload(c *gamedata.Catalog) {
	a.rebase(a.Catalog.Swap(c), c)
}

func (a *App) rebase(prev, next *gamedata.Catalog) {
	s := a.Store.Rebase(prev)
	a.logger.Info("Game data reloaded",
		"bosses", len(next.Bosses()),
		"presets", len(next.Presets()),
		"target", s.SelectedBossID,
		"sequence", s.ActiveSequenceID,
	)
}

// Preset evaluates the named attack preset against the current build.
func (a *App) Preset(ctx context.Context, id string) (formula.Attack, error) {
	preset, ok := a.Catalog.Preset(id)
	if !ok {
		return formula.Attack{}, fmt.Errorf("preset %q: %w", id, domain.ErrUnknownPreset)
	}
	return a.Formulas.Evaluate(ctx, preset, a.Store.State().Build, a.Catalog)
}

// Close stops the watcher, writes any pending state and releases the
// storage backend.
func (a *App) Close(ctx context.Context) error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.Bridge.Detach()

	var errs []error
	if err := a.Store.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	a.Store.Close()
	if err := a.Bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bus: %w", err))
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
