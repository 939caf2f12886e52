// Package runner orchestrates extraction runs: it drives the source
// adapters, owns the run progress state, hands the combined candidates to
// the dedup engine, derives statistics, and optionally reconciles the
// merged list against the catalog.
package runner

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/dedup"
	"github.com/sells-group/catalog-cli/internal/extractor"
	"github.com/sells-group/catalog-cli/internal/metrics"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/stats"
)

// ProgressFunc receives a snapshot of run progress after every transition.
// Called from the runner goroutine only, so observers never see concurrent
// updates.
type ProgressFunc func(model.RunProgress)

// Options configures one extraction run.
type Options struct {
	// Sources is the enablement map, read once per run. A disabled source
	// is skipped entirely: not invoked, not counted.
	Sources map[model.CandidateSource]bool

	// AutoPersist reconciles merged candidates into the catalog when set.
	AutoPersist bool

	// SimilarityThreshold for dedup clustering. Zero means the default.
	SimilarityThreshold float64

	// Concurrency bounds the adapter worker pool. Zero means one worker
	// per enabled source (at most four).
	Concurrency int
}

// AllSources returns an enablement map with every extractable source on.
func AllSources() map[model.CandidateSource]bool {
	m := make(map[model.CandidateSource]bool, len(model.SourcePriority))
	for _, s := range model.SourcePriority {
		m[s] = true
	}
	return m
}

// Runner executes extraction runs. It is the single writer of RunProgress
// for the lifetime of each run: adapters run in a worker pool but their
// results are buffered and folded by the runner in fixed priority order, so
// progress counters and merge seeding are deterministic regardless of
// completion order.
type Runner struct {
	registry   *extractor.Registry
	sources    extractor.SourceStore
	reconciler *catalog.Reconciler
	runLog     *RunLog
	metrics    *metrics.Metrics
}

// New creates a Runner. runLog and m may be nil.
func New(reg *extractor.Registry, sources extractor.SourceStore, rec *catalog.Reconciler, runLog *RunLog, m *metrics.Metrics) *Runner {
	return &Runner{
		registry:   reg,
		sources:    sources,
		reconciler: rec,
		runLog:     runLog,
		metrics:    m,
	}
}

// Run executes one extraction run. It never returns an error: every
// failure mode is captured in the returned RunResult so the caller can
// review partial results.
func (r *Runner) Run(ctx context.Context, runID, tenantID string, opts Options, onProgress ProgressFunc) *model.RunResult {
	start := time.Now()
	log := zap.L().With(
		zap.String("component", "runner"),
		zap.String("run_id", runID),
		zap.String("tenant", tenantID),
	)

	result := &model.RunResult{
		RunID:     runID,
		TenantID:  tenantID,
		StartedAt: start.UTC(),
	}
	progress := model.RunProgress{RunID: runID, Status: model.RunStatusRunning}
	emit := func() {
		if onProgress != nil {
			onProgress(progress)
		}
	}
	finish := func(status model.RunStatus) *model.RunResult {
		result.Status = status
		result.DurationMs = time.Since(start).Milliseconds()
		progress.Status = status
		progress.Error = result.Error
		emit()
		logFinish(r.runLog, result)
		r.metrics.ObserveRun(string(status), time.Since(start))
		return result
	}

	// Cancelled before any work started: terminal with zero results. This
	// must precede the tenant lookup, which would otherwise fail the run
	// with a context error against a real store.
	if ctx.Err() != nil {
		return finish(model.RunStatusCancelled)
	}

	// Configuration faults refuse the run before any adapter is invoked.
	if strings.TrimSpace(tenantID) == "" {
		result.Error = "runner: tenant id is required"
		return finish(model.RunStatusFailed)
	}
	if _, ok, err := r.sources.Tenant(ctx, tenantID); err != nil {
		if ctx.Err() != nil {
			return finish(model.RunStatusCancelled)
		}
		result.Error = eris.Wrap(err, "runner: look up tenant").Error()
		return finish(model.RunStatusFailed)
	} else if !ok {
		result.Error = "runner: unknown tenant " + tenantID
		return finish(model.RunStatusFailed)
	}

	adapters := r.registry.Enabled(opts.Sources)
	if len(adapters) == 0 {
		result.Error = "runner: no sources enabled"
		return finish(model.RunStatusFailed)
	}

	progress.TotalSources = len(adapters)
	emit()
	logStart(ctx, r.runLog, runID, tenantID)

	log.Info("runner: starting extraction", zap.Int("sources", len(adapters)))

	// Worker pool. Each slot holds one adapter's outcome; the fold below
	// consumes slots in priority order.
	type slot struct {
		res *model.SingleSourceResult
		err error
	}
	slots := make([]slot, len(adapters))

	limit := opts.Concurrency
	if limit <= 0 || limit > len(adapters) {
		limit = len(adapters)
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, ad := range adapters {
		g.Go(func() error {
			res, err := ad.Extract(ctx, tenantID)
			slots[i] = slot{res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	// Fold results in priority order. An adapter failure is recorded, not
	// fatal: partial results are valuable.
	for i, ad := range adapters {
		res := slots[i].res
		if res == nil {
			msg := "extractor returned no result"
			if slots[i].err != nil {
				msg = slots[i].err.Error()
			}
			res = &model.SingleSourceResult{Source: ad.Source(), Success: false, Error: msg}
		}
		result.Sources = append(result.Sources, *res)

		progress.CurrentSource = res.Source
		progress.SourcesCompleted++
		progress.CandidatesFound += len(res.Candidates)
		emit()

		r.metrics.AddCandidates(string(res.Source), len(res.Candidates))
		if !res.Success {
			log.Warn("runner: source failed",
				zap.String("source", string(res.Source)),
				zap.String("error", res.Error),
			)
		}
	}

	cancelled := ctx.Err() != nil

	// Merge whatever was collected, even on cancellation: the partial
	// result is still reviewable. Sources list is in priority order, so
	// the merge input order is deterministic.
	progress.Status = model.RunStatusMerging
	progress.CurrentSource = ""
	emit()

	var raw []model.ExtractedCandidate
	for _, sr := range result.Sources {
		raw = append(raw, sr.Candidates...)
	}
	result.Merged = dedup.NewMerger(opts.SimilarityThreshold).Merge(raw)
	result.Stats = stats.Calculate(result.Sources, result.Merged)
	r.metrics.AddDuplicates(result.Stats.DuplicatesRemoved)

	if cancelled {
		log.Info("runner: run cancelled", zap.Int("sources_done", progress.SourcesCompleted))
		return finish(model.RunStatusCancelled)
	}

	if opts.AutoPersist && r.reconciler != nil {
		progress.Status = model.RunStatusSaving
		emit()

		// Writes already issued must complete even if the run is
		// cancelled mid-save; the reconciler does not roll back.
		recResult, err := r.reconciler.Reconcile(context.WithoutCancel(ctx), tenantID, result.Merged)
		if err != nil {
			log.Warn("runner: reconcile failed", zap.Error(err))
			result.Error = err.Error()
		} else {
			result.Created = recResult.Created
			result.Updated = recResult.Updated
			r.metrics.AddCatalogWrites("create", recResult.Created)
			r.metrics.AddCatalogWrites("update", recResult.Updated)
		}
	}

	log.Info("runner: extraction complete",
		zap.Int("total_extracted", result.Stats.TotalExtracted),
		zap.Int("unique", result.Stats.UniqueProducts),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return finish(model.RunStatusCompleted)
}
