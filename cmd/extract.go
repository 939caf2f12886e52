package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/runner"
)

var (
	extractTenant    string
	extractSources   string
	extractPersist   bool
	extractThreshold float64
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run catalog extraction for a tenant",
	Long:  "Runs the enabled source extractors for a tenant, deduplicates the candidates, and prints a summary. Ctrl-C cancels the run; partial results are still reported.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initRuntime(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sources, err := sourcesFromConfig(extractSources)
		if err != nil {
			return err
		}

		threshold := extractThreshold
		if threshold == 0 {
			threshold = cfg.Extraction.SimilarityThreshold
		}
		opts := runner.Options{
			Sources:             sources,
			AutoPersist:         extractPersist || cfg.Extraction.AutoPersist,
			SimilarityThreshold: threshold,
			Concurrency:         cfg.Extraction.Concurrency,
		}

		result := env.Manager.Run(ctx, extractTenant, opts, func(p model.RunProgress) {
			if p.CurrentSource != "" {
				zap.L().Info("extract: source done",
					zap.String("source", string(p.CurrentSource)),
					zap.Int("completed", p.SourcesCompleted),
					zap.Int("total", p.TotalSources),
					zap.Int("candidates", p.CandidatesFound),
				)
			}
		})

		printSummary(cmd, result)
		if result.Status == model.RunStatusFailed {
			return fmt.Errorf("run %s failed: %s", result.RunID, result.Error)
		}
		return nil
	},
}

func printSummary(cmd *cobra.Command, r *model.RunResult) {
	cmd.Printf("run %s  status=%s  duration=%dms\n", r.RunID, r.Status, r.DurationMs)
	for _, sr := range r.Sources {
		if sr.Success {
			cmd.Printf("  %-8s ok     %3d candidates  %dms\n", sr.Source, len(sr.Candidates), sr.DurationMs)
		} else {
			cmd.Printf("  %-8s failed %s\n", sr.Source, sr.Error)
		}
	}
	cmd.Printf("extracted=%d unique=%d duplicates=%d avg_confidence=%.2f\n",
		r.Stats.TotalExtracted, r.Stats.UniqueProducts, r.Stats.DuplicatesRemoved, r.Stats.AverageConfidence)
	if r.Created > 0 || r.Updated > 0 {
		cmd.Printf("catalog: created=%d updated=%d\n", r.Created, r.Updated)
	}
}

func init() {
	extractCmd.Flags().StringVar(&extractTenant, "tenant", "", "tenant id to extract for (required)")
	extractCmd.Flags().StringVar(&extractSources, "sources", "", "comma-separated source override (uvp,website,review,keyword)")
	extractCmd.Flags().BoolVar(&extractPersist, "persist", false, "reconcile merged candidates into the catalog")
	extractCmd.Flags().Float64Var(&extractThreshold, "threshold", 0, "similarity threshold override (0 uses config)")
	_ = extractCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(extractCmd)
}
