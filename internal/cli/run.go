package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Filter   string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>...",
		Short: "Run scenarios against the cluster",
		Long: `Run replication flow scenarios against the configured cluster.

Each argument is a scenario file or a directory of scenario files. Every run
is recorded with its status polls in the ledger database.

Examples:
  diqa run scenarios/
  diqa run --filter abap --db /tmp/diqa.db scenarios/
  diqa run --format json scenarios/abap_to_hana.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the ledger database (default from store.path)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name contains this string")

	return cmd
}

func runScenarios(opts *RunOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	paths, err := harness.CollectScenarios(args)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to collect scenarios", err)
	}
	f.VerboseLog("found %d scenario file(s)", len(paths))

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := opts.connect(ctx, cmd, f, sessionOptions{ledger: true, database: opts.Database})
	if err != nil {
		return err
	}
	defer s.Close()

	hopts := []harness.Option{
		harness.WithLedger(s.ledger),
		harness.WithLogger(s.logger),
		harness.WithTableSuffix(s.cfg.TableSuffix),
	}
	if opts.IDs != nil {
		hopts = append(hopts, harness.WithIDGenerator(opts.IDs))
	}
	h := harness.New(s.modeler, hopts...)

	suite, err := h.RunSuite(ctx, paths, opts.Filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to record run", err)
	}

	render := func(w io.Writer) { writeSuite(w, suite, opts.Verbose) }
	if !suite.Pass() {
		if err := f.Failed(suite, render); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", suite.Failed, suite.Total))
	}
	return f.Success(suite, render)
}

func writeSuite(w io.Writer, suite *harness.SuiteResult, verbose bool) {
	for _, r := range suite.Results {
		verdict := "PASS"
		if !r.Pass {
			verdict = "FAIL"
		}
		fmt.Fprintf(w, "%s %s (%s, run %s)\n", verdict, r.Scenario, r.Replication, r.RunID)
		if verbose || !r.Pass {
			for _, e := range r.Trace {
				fmt.Fprintf(w, "  %-16s %-10s %s\n", e.Step, e.Status, e.Detail)
			}
		}
		for _, msg := range r.Errors {
			fmt.Fprintf(w, "  error: %s\n", msg)
		}
	}
	for _, failure := range suite.Failures {
		if failure.Scenario == "" {
			fmt.Fprintf(w, "FAIL %s\n  error: %s\n", failure.Path, failure.Error)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped\n", suite.Passed, suite.Failed, suite.Skipped)
}
