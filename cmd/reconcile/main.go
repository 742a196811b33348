// Command reconcile repairs the relationships between clients, media,
// contracts, campaigns and orders of the agency database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const (
	exitOK     = 0
	exitError  = 1
	exitFailed = 2
)

// errFailedItems marks a run that finished but left failed items behind
var errFailedItems = errors.New("run finished with failed items")

type options struct {
	configPath string
	logLevel   string
	timeout    time.Duration
	verbose    bool
	plain      bool
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and maps the outcome to the process exit status
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errFailedItems):
		fmt.Fprintln(stderr, "Error:", err)
		return exitFailed
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "reconcile",
		Short: "Backfill and diagnose agency relationships",
		Long: `reconcile walks the agency data graph, synthesizes the contracts that
campaigns and alternatives imply, backfills missing media and contract
links, and recomputes alternative cost shares.

Every run is idempotent: a second run reports the links as existing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: search config.toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Minute, "Overall operation timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "List every changed or broken item")
	root.PersistentFlags().BoolVar(&opts.plain, "plain", false, "Render without colors")

	root.AddCommand(
		newBackfillCmd(opts, stdout),
		newDiagnoseCmd(opts, stdout),
		newClassifyCmd(opts, stdout),
		newRunsCmd(opts, stdout),
	)
	return root
}

// withApp loads the configuration, opens the store and runs fn under the
// global timeout. The app is closed before returning.
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
