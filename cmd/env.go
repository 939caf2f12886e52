package main

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/extractor"
	"github.com/sells-group/catalog-cli/internal/metrics"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/runner"
	"github.com/sells-group/catalog-cli/internal/store"
)

// runtimeEnv wires the pipeline dependencies for a command invocation.
type runtimeEnv struct {
	Pool    *pgxpool.Pool
	Sources extractor.SourceStore
	Store   store.Store
	Manager *runner.Manager
	Metrics *metrics.Metrics
}

// initRuntime builds the full dependency graph from config.
func initRuntime(ctx context.Context) (*runtimeEnv, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("store.database_url is required")
	}

	pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "connect postgres")
	}

	srcStore := extractor.NewPostgresSourceStore(pool)
	registry := extractor.NewRegistry(srcStore, extractor.Config{
		MaxCandidates:   cfg.Extraction.MaxPerSource,
		LiveFetch:       cfg.Extraction.LiveFetch,
		FetchRatePerSec: cfg.Extraction.FetchRatePerSec,
		SeedListPath:    cfg.Extraction.SeedListPath,
	})

	cat := catalog.NewPostgres(pool)
	reconciler := catalog.NewReconciler(cat)
	runLog := runner.NewRunLog(pool)
	m := metrics.New()

	var st store.Store
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			pool.Close()
			return nil, err
		}
	case "postgres", "":
		st = store.NewPostgres(pool)
	default:
		pool.Close()
		return nil, eris.Errorf("unknown store driver %q (valid: postgres, sqlite)", cfg.Store.Driver)
	}

	r := runner.New(registry, srcStore, reconciler, runLog, m)

	return &runtimeEnv{
		Pool:    pool,
		Sources: srcStore,
		Store:   st,
		Manager: runner.NewManager(r, st),
		Metrics: m,
	}, nil
}

// Close releases the runtime's resources.
func (e *runtimeEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
}

// sourcesFromConfig builds the enablement map, optionally narrowed by a
// comma-separated --sources flag.
func sourcesFromConfig(override string) (map[model.CandidateSource]bool, error) {
	enabled := map[model.CandidateSource]bool{
		model.SourceUVP:     cfg.Sources.UVP,
		model.SourceWebsite: cfg.Sources.Website,
		model.SourceReview:  cfg.Sources.Review,
		model.SourceKeyword: cfg.Sources.Keyword,
	}
	if override == "" {
		return enabled, nil
	}

	selected := make(map[model.CandidateSource]bool, len(enabled))
	for _, part := range strings.Split(override, ",") {
		src, err := model.ParseSource(part)
		if err != nil {
			return nil, err
		}
		selected[src] = true
	}
	return selected, nil
}
