package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/orplan/app"
	"github.com/kilianp07/orplan/core/model"
	"github.com/kilianp07/orplan/infra/logger"
	"github.com/kilianp07/orplan/ingest"
	"github.com/kilianp07/orplan/pkg/export"
	"github.com/kilianp07/orplan/report"
)

var solveOpts struct {
	categories    []string
	byCategory    bool
	out           string
	skipPricing   bool
	maxIterations int
	quiet         bool
	costs         string
}

var solveCmd = &cobra.Command{
	Use:   "solve <tasks file or url>",
	Short: "Plan the tasks of a CSV, JSON or YAML file or HTTP feed",
	Args:  cobra.ExactArgs(1),
	RunE:  solve,
}

func init() {
	f := solveCmd.Flags()
	f.StringSliceVar(&solveOpts.categories, "category", nil, "only plan these categories (repeatable)")
	f.BoolVar(&solveOpts.byCategory, "by-category", false, "plan every category independently")
	f.StringVarP(&solveOpts.out, "out", "o", "", "write room assignments to a .json or .csv file")
	f.BoolVar(&solveOpts.skipPricing, "skip-pricing", false, "solve over the seeded plans only")
	f.IntVar(&solveOpts.maxIterations, "max-iterations", 0, "override the pricing iteration cap")
	f.BoolVarP(&solveOpts.quiet, "quiet", "q", false, "do not print the plan")
	f.StringVar(&solveOpts.costs, "costs", "", "room by operation cost matrix (CSV) used as task weights")
	rootCmd.AddCommand(solveCmd)
}

func solve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(solveOpts.categories) > 0 {
		cfg.Input.Categories = solveOpts.categories
	}
	if solveOpts.skipPricing {
		cfg.Optimizer.SkipPricing = true
	}
	if solveOpts.maxIterations > 0 {
		cfg.Optimizer.MaxIterations = solveOpts.maxIterations
	}
	if solveOpts.costs != "" {
		cfg.Input.Costs = solveOpts.costs
	}

	source := args[0]
	var tasks []model.Task
	if ingest.IsRemote(source) {
		tasks, err = ingest.NewRemote(cfg.Input.Remote).Fetch(ctx, source, cfg.Input.Options())
	} else {
		tasks, err = ingest.Load(source, cfg.Input.Options())
		source = filepath.Base(source)
	}
	if err != nil {
		return err
	}
	if cfg.Input.Costs != "" {
		costs, err := ingest.LoadCosts(cfg.Input.Costs)
		if err != nil {
			return err
		}
		if tasks, err = ingest.ApplyCosts(tasks, costs); err != nil {
			return fmt.Errorf("%s: %w", cfg.Input.Costs, err)
		}
		cfg.Optimizer.Cost.TaskWeighted = true
		logger.New("solve").Infof("weighted %d tasks by the mean cost over rooms %s",
			len(tasks), strings.Join(costs.Rooms(), ", "))
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("solve").Errorf("service close: %v", err)
		}
	}()
	svc.Start(ctx)

	results, err := svc.Plan(ctx, tasks, solveOpts.byCategory, source)
	if err != nil {
		return err
	}
	if !solveOpts.quiet {
		if err := report.Render(cmd.OutOrStdout(), tasks, results); err != nil {
			return err
		}
	}
	if solveOpts.out != "" {
		return writeAssignments(solveOpts.out, export.Entries(tasks, results))
	}
	return nil
}

func writeAssignments(path string, entries []export.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = export.WriteCSV(f, entries)
	case ".json":
		err = export.WriteJSON(f, entries)
	default:
		return fmt.Errorf("unsupported export format: %s", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return f.Close()
}
