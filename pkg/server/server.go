// Package server assembles a Quarry instance: it owns the stores and domain
// services, wires them into the HTTP surface, and plugs the whole thing into
// the lifecycle controller as its configurer.
package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/spf13/afero"

	"github.com/quarryhq/quarry/internal/logger"
	"github.com/quarryhq/quarry/pkg/auth"
	"github.com/quarryhq/quarry/pkg/config"
	"github.com/quarryhq/quarry/pkg/console"
	"github.com/quarryhq/quarry/pkg/executor"
	"github.com/quarryhq/quarry/pkg/failure"
	"github.com/quarryhq/quarry/pkg/lifecycle"
	"github.com/quarryhq/quarry/pkg/metrics"
	"github.com/quarryhq/quarry/pkg/repository"
	"github.com/quarryhq/quarry/pkg/stats"
	"github.com/quarryhq/quarry/pkg/web"
)

// Quarry is one server instance. It implements lifecycle.Configurer: the
// controller calls Initialize during Load and Dispose during Shutdown.
type Quarry struct {
	cfg     *config.Config
	version string

	failures   *failure.Service
	exec       *executor.Executor
	controller *lifecycle.Controller

	db        *badgerdb.DB
	webServer *web.Server
	closeOnce sync.Once
}

// New creates an unstarted instance from a validated configuration.
func New(cfg *config.Config, version string) *Quarry {
	failures := failure.NewService(failure.DefaultCapacity)
	exec := executor.New(failures)

	q := &Quarry{
		cfg:      cfg,
		version:  version,
		failures: failures,
		exec:     exec,
	}
	q.controller = lifecycle.NewController(lifecycle.Options{
		Executor:         exec,
		Configurer:       q,
		Hook:             lifecycle.NewSignalHook(),
		Version:          version,
		BootstrapCommand: cfg.BootstrapCommand,
		StopTimeout:      cfg.Server.ShutdownTimeout,
	})
	return q
}

// Controller exposes the lifecycle controller.
func (q *Quarry) Controller() *lifecycle.Controller {
	return q.controller
}

// Addr returns the address of the web server, empty before Initialize.
func (q *Quarry) Addr() string {
	if q.webServer == nil {
		return ""
	}
	return q.webServer.Addr()
}

// Initialize builds the stores and services and attaches the facades to the
// controller. Called by the controller during Load.
func (q *Quarry) Initialize(c *lifecycle.Controller) error {
	if q.cfg.Metrics.Enabled {
		metrics.Init()
		logger.Info("Metrics enabled")
	}

	reposDir := filepath.Join(q.cfg.Storage.DataDir, "repositories")
	stateDir := filepath.Join(q.cfg.Storage.DataDir, "state")
	for _, dir := range []string{reposDir, stateDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	db, err := badgerdb.Open(badgerdb.DefaultOptions(stateDir).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	q.db = db

	repoOpts := make([]repository.Options, 0, len(q.cfg.Repositories))
	for _, rc := range q.cfg.Repositories {
		repoOpts = append(repoOpts, repository.Options{
			Name:       rc.Name,
			Visibility: repository.Visibility(rc.Visibility),
			Deploy:     rc.Deploy,
		})
	}

	repos, err := repository.NewService(afero.NewBasePathFs(afero.NewOsFs(), reposDir), repoOpts)
	if err != nil {
		return fmt.Errorf("failed to build repositories: %w", err)
	}

	statsService := stats.NewService(stats.NewStore(db), q.exec, q.cfg.Stats.Enabled)

	tokens := auth.NewTokenStore(db)
	adminSecret, err := tokens.EnsureAdminToken()
	if err != nil {
		return fmt.Errorf("failed to ensure admin token: %w", err)
	}
	if adminSecret != "" {
		// Shown once on first run; only the hash is stored.
		logger.Warn("Generated initial admin token", logger.KeyAlias, "admin", "secret", adminSecret)
	}

	sessions, err := auth.NewSessionService(q.cfg.Auth.JWTSecret, q.cfg.Auth.SessionDuration)
	if err != nil {
		return fmt.Errorf("failed to create session service: %w", err)
	}

	cons := console.New()
	console.RegisterDefaults(cons, c, q.failures)

	router := web.NewRouter(web.Deps{
		Status:    c,
		Repos:     repos,
		Stats:     statsService,
		Failures:  q.failures,
		Tokens:    tokens,
		Sessions:  sessions,
		Console:   cons,
		Scheduler: q.exec,
		Metrics:   metrics.NewHTTPMetrics(),
	})

	q.webServer = web.NewServer(web.Config{
		Host:         q.cfg.Server.Host,
		Port:         q.cfg.Server.Port,
		ReadTimeout:  q.cfg.Server.ReadTimeout,
		WriteTimeout: q.cfg.Server.WriteTimeout,
		IdleTimeout:  q.cfg.Server.IdleTimeout,
	}, router, q.failures)

	c.Attach(q.webServer, cons, repos)
	return nil
}

// Dispose stops the consumer loop. Called by the controller during Shutdown;
// pending tasks still run in the final drain before Await returns, so the
// state store stays open until Run finishes.
func (q *Quarry) Dispose(c *lifecycle.Controller) {
	q.exec.Stop()
}

// Run boots the instance and parks the calling goroutine until shutdown.
func (q *Quarry) Run(ctx context.Context) error {
	defer q.close()

	if err := q.controller.Load(ctx); err != nil {
		return err
	}
	if err := q.controller.Start(ctx); err != nil {
		return err
	}

	q.controller.Await(nil)
	return nil
}

// close releases the state store. Idempotent.
func (q *Quarry) close() {
	q.closeOnce.Do(func() {
		if q.db != nil {
			if err := q.db.Close(); err != nil {
				logger.Warn("Failed to close state store", "error", err)
			}
		}
	})
}
