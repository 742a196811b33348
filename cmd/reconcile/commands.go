package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	reconcileapp "github.com/adplan/backend/internal/application/reconcile"
	"github.com/adplan/backend/internal/domain/media"
	"github.com/adplan/backend/internal/domain/reconcile"
	"github.com/adplan/backend/internal/interfaces/console"
	"github.com/spf13/cobra"
)

func newBackfillCmd(opts *options, stdout io.Writer) *cobra.Command {
	var (
		dryRun bool
		steps  []string
	)
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Link supports, themes and alternatives to media and contracts",
		Long: `backfill runs the reconciliation steps in order:

  supports      assign a media to supports that have none
  themes        ensure a contract for every campaign client and theme media
  alternatives  link alternatives to the contract of their client and media
  shares        recompute alternative cost shares per plan

Only one run executes at a time. Exit status is 2 when items failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				selected := steps
				if len(selected) == 0 {
					selected = a.cfg.Reconcile.Steps
				}
				parsed, err := parseSteps(selected)
				if err != nil {
					return err
				}

				runLock, err := a.runLock(ctx, opts.timeout)
				if err != nil {
					return err
				}

				driver := reconcileapp.NewBackfillDriver(a.repos, runLock, media.NewClassifier(), a.metrics, a.log,
					reconcileapp.Options{Steps: parsed, DryRun: dryRun || a.cfg.Reconcile.DryRun})
				report, runErr := driver.Run(ctx)
				if report != nil {
					if err := newRenderer(stdout, opts).Report(report); err != nil {
						return err
					}
				}
				if runErr != nil {
					return runErr
				}
				if report.HasFailures() {
					return errFailedItems
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the report without writing")
	cmd.Flags().StringSliceVar(&steps, "steps", nil, "Steps to run (supports,themes,alternatives,shares)")
	return cmd
}

func newDiagnoseCmd(opts *options, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "List broken links without writing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				diag, err := reconcileapp.NewDiagnostics(a.repos, nil).Diagnose(ctx)
				if err != nil {
					return err
				}
				return newRenderer(stdout, opts).Diagnosis(diag)
			})
		},
	}
}

func newClassifyCmd(opts *options, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Preview the media the heuristic picks for every support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				cs, err := reconcileapp.PreviewClassification(ctx, a.repos, media.NewClassifier())
				if err != nil {
					return err
				}
				return newRenderer(stdout, opts).Classifications(cs)
			})
		},
	}
}

func newRunsCmd(opts *options, stdout io.Writer) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the most recent backfill runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				runs, err := a.repos.Runs.FindRecent(ctx, limit)
				if err != nil {
					return err
				}
				return newRenderer(stdout, opts).Runs(runs)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

// newRenderer builds the console renderer the global flags ask for
func newRenderer(stdout io.Writer, opts *options) *console.Renderer {
	ro := []console.Option{console.WithVerbose(opts.verbose)}
	if opts.plain {
		ro = append(ro, console.WithStyles(console.PlainStyles()))
	}
	return console.NewRenderer(stdout, ro...)
}

// parseSteps validates step names; empty selects every step
func parseSteps(names []string) ([]reconcile.Step, error) {
	out := make([]reconcile.Step, 0, len(names))
	for _, n := range names {
		step, ok := reconcile.ParseStep(strings.TrimSpace(n))
		if !ok {
			return nil, fmt.Errorf("unknown step %q", n)
		}
		out = append(out, step)
	}
	return out, nil
}
