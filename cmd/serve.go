package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/runner"
	"github.com/sells-group/catalog-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction HTTP API",
	Long:  "Serves endpoints to start and cancel extraction runs, review stored results, and scrape metrics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initRuntime(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Handle("/metrics", promhttp.HandlerFor(env.Metrics.Registry, promhttp.HandlerOpts{}))

		r.Post("/runs", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				TenantID  string   `json:"tenant_id"`
				Sources   []string `json:"sources"`
				Persist   bool     `json:"persist"`
				Threshold float64  `json:"threshold"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.TenantID == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tenant_id is required"})
				return
			}

			sources, err := sourcesFromConfig("")
			if err == nil && len(body.Sources) > 0 {
				sources = make(map[model.CandidateSource]bool, len(body.Sources))
				for _, s := range body.Sources {
					src, perr := model.ParseSource(s)
					if perr != nil {
						writeJSON(w, http.StatusBadRequest, map[string]string{"error": perr.Error()})
						return
					}
					sources[src] = true
				}
			}

			threshold := body.Threshold
			if threshold == 0 {
				threshold = cfg.Extraction.SimilarityThreshold
			}

			// The run outlives the request; it is bound to the server
			// lifetime and cancellable through its run id.
			runID := env.Manager.StartRun(ctx, body.TenantID, runner.Options{
				Sources:             sources,
				AutoPersist:         body.Persist || cfg.Extraction.AutoPersist,
				SimilarityThreshold: threshold,
				Concurrency:         cfg.Extraction.Concurrency,
			}, nil)

			writeJSON(w, http.StatusAccepted, map[string]string{
				"run_id": runID,
				"status": string(model.RunStatusRunning),
			})
		})

		r.Post("/runs/{id}/cancel", func(w http.ResponseWriter, req *http.Request) {
			runID := chi.URLParam(req, "id")
			if !env.Manager.Cancel(runID) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active run " + runID})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"run_id": runID, "status": "cancelling"})
		})

		r.Get("/tenants/{tenant}/runs/last", func(w http.ResponseWriter, req *http.Request) {
			tenant := chi.URLParam(req, "tenant")
			result, err := env.Manager.Last(req.Context(), tenant)
			if err != nil {
				zap.L().Error("serve: last run lookup failed", zap.String("tenant", tenant), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
				return
			}
			if result == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no runs for tenant " + tenant})
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Get("/tenants/{tenant}/runs", func(w http.ResponseWriter, req *http.Request) {
			tenant := chi.URLParam(req, "tenant")
			results, err := env.Store.ListResults(req.Context(), store.Filter{TenantID: tenant, Limit: 50})
			if err != nil {
				zap.L().Error("serve: list runs failed", zap.String("tenant", tenant), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
				return
			}
			writeJSON(w, http.StatusOK, results)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			// A fresh context: the signal context is already cancelled and
			// would abort in-flight requests instead of draining them.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("serve: shutdown incomplete", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
