package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/extractor"
	"github.com/sells-group/catalog-cli/internal/runner"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initRuntime(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		migrations := []struct {
			name string
			sql  string
		}{
			{"source_cache", extractor.SourceCacheMigration},
			{"products", catalog.Migration},
			{"extraction_log", runner.Migration},
		}
		for _, m := range migrations {
			if _, err := env.Pool.Exec(ctx, m.sql); err != nil {
				return eris.Wrapf(err, "migrate %s", m.name)
			}
			zap.L().Info("migrate: applied", zap.String("migration", m.name))
		}

		if err := env.Store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate run results store")
		}
		zap.L().Info("migrate: applied", zap.String("migration", "run_results"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
