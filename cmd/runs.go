package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/store"
)

var (
	runsTenant string
	runsStatus string
	runsLimit  int
	runsJSON   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored extraction runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare `runs` behaves like `runs list`.
		return runsListCmd.RunE(cmd, args)
	},
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored run results, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Store.ListResults(cmd.Context(), store.Filter{
			TenantID: runsTenant,
			Status:   model.RunStatus(runsStatus),
			Limit:    runsLimit,
		})
		if err != nil {
			return err
		}
		if runsJSON {
			return printJSON(cmd, results)
		}
		for _, r := range results {
			cmd.Printf("%s  %-10s tenant=%s  unique=%d  created=%d updated=%d  %s\n",
				r.RunID, r.Status, r.TenantID, r.Stats.UniqueProducts, r.Created, r.Updated,
				r.StartedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var runsLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the most recent run for a tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if runsTenant == "" {
			return fmt.Errorf("--tenant is required")
		}
		result, err := env.Store.LastResult(cmd.Context(), runsTenant)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("no runs recorded for tenant %s", runsTenant)
		}
		if runsJSON {
			return printJSON(cmd, result)
		}
		printSummary(cmd, result)
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsTenant, "tenant", "", "tenant id")
	runsCmd.PersistentFlags().BoolVar(&runsJSON, "json", false, "print full results as JSON")
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "filter by run status")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum results to list")

	runsCmd.AddCommand(runsListCmd, runsLastCmd)
	rootCmd.AddCommand(runsCmd)
}
