package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dixel/internal/cachemanager"
	"github.com/zjrosen/dixel/internal/engine"
	"github.com/zjrosen/dixel/internal/infrastructure/sqlite"
	"github.com/zjrosen/dixel/internal/log"
	"github.com/zjrosen/dixel/internal/render"
	"github.com/zjrosen/dixel/internal/tracing"
)

// env is the per-command wiring: the database, the engine over it, and the
// tracing provider.
type env struct {
	db      *sqlite.DB
	engine  *engine.Engine
	tracing *tracing.Provider
	closers []func()
}

// openEnv validates the config and opens everything a command needs.
func openEnv(ctx context.Context) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &env{}
	if cfg.Log.Enabled {
		cleanup, err := log.Init(cfg.Log.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing logging: %w", err)
		}
		log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
		e.closers = append(e.closers, cleanup)
	}

	tp, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		e.close()
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	e.tracing = tp

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	e.db = db

	opts := []engine.Option{
		engine.WithStore(db.WorldRepository()),
		engine.WithTracer(tp.Tracer()),
	}
	if cfg.RenderCache.Enabled {
		cache := cachemanager.NewInMemoryCacheManager[string, string]("render", cfg.RenderCache.TTL, cachemanager.DefaultCleanupInterval)
		opts = append(opts, engine.WithRenderer(render.NewCachedRenderer(cache, cfg.RenderCache.TTL)))
	}

	eng, err := engine.Open(ctx, opts...)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	e.engine = eng
	log.Debug(log.CatCLI, "environment ready", "db", cfg.DBPath)
	return e, nil
}

func (e *env) close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			log.ErrorErr(log.CatDB, "closing database", err)
		}
	}
	if e.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.tracing.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: flushing traces: %v\n", err)
		}
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// withEnv runs fn with an opened environment and closes it afterwards.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(ctx, e)
}
