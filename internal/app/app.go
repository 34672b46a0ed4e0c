package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dori/taskdeck/internal/config"
	"github.com/dori/taskdeck/internal/health"
	"github.com/dori/taskdeck/internal/logging"
	"github.com/dori/taskdeck/internal/notify"
	"github.com/dori/taskdeck/internal/remote"
	"github.com/dori/taskdeck/internal/syncer"
	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service names, as shown to the user
const (
	TodoService  = "todo service"
	UserService  = "user service"
	StatsService = "stats service"
)

// App holds the application state and dependencies
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Notifier *notify.Notifier
	Registry *prometheus.Registry

	TodoAPI  *remote.TodoAPI
	UserAPI  *remote.UserAPI
	StatsAPI *remote.StatsAPI

	TodoHealth  *health.Tracker
	UserHealth  *health.Tracker
	StatsHealth *health.Tracker

	logCloser     io.Closer
	lockFile      *flock.Flock
	metricsServer *http.Server
}

// New wires clients, trackers and notifications from cfg
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		var err error
		cfg, err = config.Load(config.Overrides{})
		if err != nil {
			return nil, err
		}
	}

	logger, closer, err := logging.Open(cfg.DebugLog)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := remote.NewMetrics(reg)

	opts := []remote.Option{
		remote.WithTimeouts(cfg.RequestTimeout, cfg.HealthTimeout),
		remote.WithLogger(logger),
		remote.WithMetrics(metrics),
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Notifier: notify.NewNotifier(),
		Registry: reg,

		TodoAPI:  remote.NewTodoAPI(remote.New(TodoService, cfg.TodoURL, opts...)),
		UserAPI:  remote.NewUserAPI(remote.New(UserService, cfg.UserURL, opts...)),
		StatsAPI: remote.NewStatsAPI(remote.New(StatsService, cfg.StatsURL, opts...)),

		TodoHealth:  health.NewTracker(TodoService),
		UserHealth:  health.NewTracker(UserService),
		StatsHealth: health.NewTracker(StatsService),

		logCloser: closer,
	}

	logger.Info("starting", "todo", cfg.TodoURL, "user", cfg.UserURL, "stats", cfg.StatsURL)

	// Only one running instance announces outages
	a.Notifier.SetEnabled(cfg.Notify && a.acquireLock())
	logger.Debug("notifications", "enabled", a.Notifier.IsEnabled())
	watch := a.Notifier.Watch(func(err error) {
		logger.Debug("notification failed", "err", err)
	})
	for _, t := range a.trackers() {
		t.OnChange(watch)
		t.OnChange(func(service string, from, to health.Status) {
			logger.Info("connectivity", "service", service, "from", from, "to", to)
		})
	}

	if cfg.MetricsAddr != "" {
		a.serveMetrics(cfg.MetricsAddr)
	}

	return a, nil
}

// NewTaskList returns a task list owned by the caller
func (a *App) NewTaskList() *syncer.TaskList {
	return syncer.NewTaskList(a.TodoAPI, a.TodoHealth)
}

// NewUserList returns a user list owned by the caller
func (a *App) NewUserList() *syncer.UserList {
	return syncer.NewUserList(a.UserAPI, a.UserHealth)
}

// NewStatsBoard returns a stats board owned by the caller
func (a *App) NewStatsBoard() *syncer.StatsBoard {
	return syncer.NewStatsBoard(a.StatsAPI, a.StatsHealth)
}

func (a *App) trackers() []*health.Tracker {
	return []*health.Tracker{a.TodoHealth, a.UserHealth, a.StatsHealth}
}

// acquireLock takes the per-user notification lock. Losing the race is
// not an error; this instance just stays quiet.
func (a *App) acquireLock() bool {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	a.lockFile = flock.New(filepath.Join(dir, "taskdeck.lock"))

	locked, err := a.lockFile.TryLock()
	if err != nil {
		a.Logger.Debug("failed to acquire lock", "err", err)
		return false
	}
	if !locked {
		a.Logger.Info("another instance holds the notification lock")
	}
	return locked
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

func (a *App) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	a.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}

	a.releaseLock()

	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close debug log: %w", err))
		}
	}

	return errors.Join(errs...)
}
