package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/orplan/core/history"
	"github.com/kilianp07/orplan/report"
)

var historyOpts struct {
	category string
	limit    int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past planning runs",
	RunE:  listHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyOpts.category, "category", "", "only show runs of this category")
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 20, "number of most recent runs to show")
	rootCmd.AddCommand(historyCmd)
}

func listHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()
	recs, err := store.Query(cmd.Context(), history.Query{Category: historyOpts.category, Limit: historyOpts.limit})
	if err != nil {
		return err
	}
	return report.RenderHistory(cmd.OutOrStdout(), recs)
}
