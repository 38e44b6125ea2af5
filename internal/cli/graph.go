package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/graph"
)

// GraphResult is the state of one graph instance.
type GraphResult struct {
	Handle string       `json:"handle"`
	Src    string       `json:"src,omitempty"`
	Status graph.Status `json:"status"`
}

// MassTransferResult carries the mass transfer id of a graph.
type MassTransferResult struct {
	Handle         string `json:"handle"`
	MassTransferID string `json:"massTransferId"`
}

func graphResult(g *graph.Graph) GraphResult {
	return GraphResult{Handle: g.Handle(), Src: g.Src(), Status: g.Status()}
}

func writeGraph(r GraphResult) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Handle, r.Status, r.Src)
	}
}

// GraphRunOptions holds the flags of graph run.
type GraphRunOptions struct {
	*RootOptions
	Name           string
	Substitutions  map[string]string
	SnapshotPeriod int
	Wait           bool
}

// NewGraphCommand creates the graph command and its subcommands.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Run pipeline graphs and read their status",
		Long: `Start pipeline graphs on the cluster's modeler, follow their status and
read the mass transfer id a graph publishes as its MT_ID substitution.`,
	}
	cmd.AddCommand(newGraphRunCommand(rootOpts))
	cmd.AddCommand(newGraphStatusCommand(rootOpts))
	cmd.AddCommand(newGraphMassTransferCommand(rootOpts))
	return cmd
}

func newGraphRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphRunOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "run <graph>",
		Short: "Start a graph",
		Long: `Start the graph with the given source name. With --wait, poll until the
instance finishes; a dead instance exits with status 1.

Examples:
  diqa graph run qa.slt.slt_reader_initial_load --name slt --set MT_ID=73H
  diqa graph run qa.cds.pipeline --wait`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "instance name (default is the graph name)")
	cmd.Flags().StringToStringVar(&opts.Substitutions, "set", nil, "configuration substitution KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&opts.SnapshotPeriod, "snapshot-period", 0, "enable snapshots every N seconds")
	cmd.Flags().BoolVar(&opts.Wait, "wait", false, "wait until the instance finishes")
	return cmd
}

func runGraph(opts *GraphRunOptions, src string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.SnapshotPeriod < 0 {
		return f.Fail(ExitCommandError, ErrCodeInput, "--snapshot-period must not be negative", nil)
	}
	name := opts.Name
	if name == "" {
		name = src
	}

	s, err := opts.connect(ctx, cmd, f, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	run := graph.RunOptions{Substitutions: opts.Substitutions}
	if opts.SnapshotPeriod > 0 {
		run.Snapshot = graph.SnapshotConfig{Enabled: true, PeriodSeconds: opts.SnapshotPeriod}
	}
	g, err := s.graphs.Run(ctx, src, name, run)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeFailed, fmt.Sprintf("failed to run graph %s", src), err)
	}
	f.VerboseLog("graph %s started with handle %s", src, g.Handle())

	if !opts.Wait {
		r := graphResult(g)
		return f.Success(r, writeGraph(r))
	}

	status, err := g.Wait(ctx)
	r := graphResult(g)
	var message string
	switch {
	case errors.Is(err, graph.ErrWaitTimeout):
		message = fmt.Sprintf("graph %s is still %s", g.Handle(), status)
	case err != nil:
		return f.Fail(ExitCommandError, ErrCodeCluster, "failed to read graph status", err)
	case status != graph.StatusCompleted:
		message = fmt.Sprintf("graph %s ended %s", g.Handle(), status)
	}
	if message != "" {
		render := func(w io.Writer) {
			writeGraph(r)(w)
			fmt.Fprintf(w, "  error: %s\n", message)
		}
		if err := f.Failed(r, render); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}
	return f.Success(r, writeGraph(r))
}

func newGraphStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "status [handle]",
		Short: "Show the status of a graph instance",
		Long: `Show the status of the instance with the given handle, or of the
top-level instance called --name.

Examples:
  diqa graph status 4f1d2e6c8a9b4c0d9e1f2a3b4c5d6e7f
  diqa graph status --name slt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			if (len(args) == 1) == (name != "") {
				return f.Fail(ExitCommandError, ErrCodeInput, "give either a handle or --name", nil)
			}
			ctx := cmd.Context()
			s, err := rootOpts.connect(ctx, cmd, f, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			var g *graph.Graph
			if name != "" {
				g, err = s.graphs.StatusByName(ctx, name)
			} else {
				g = s.graphs.Graph(args[0])
				_, err = g.Refresh(ctx)
			}
			if errors.Is(err, graph.ErrGraphNotFound) {
				return f.Fail(ExitFailure, ErrCodeNotFound, "graph not found", err)
			}
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeCluster, "failed to read graph status", err)
			}
			r := graphResult(g)
			return f.Success(r, writeGraph(r))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "look the instance up by name")
	return cmd
}

func newGraphMassTransferCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mtid <handle>",
		Short: "Show the mass transfer id of a graph instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()
			s, err := rootOpts.connect(ctx, cmd, f, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.graphs.Graph(args[0]).MassTransferID(ctx)
			switch {
			case errors.Is(err, graph.ErrGraphNotFound):
				return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("graph %s not found", args[0]), err)
			case errors.Is(err, graph.ErrNoMassTransferID):
				return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("graph %s has no %s substitution", args[0], graph.MassTransferKey), err)
			case err != nil:
				return f.Fail(ExitCommandError, ErrCodeCluster, "failed to read graph", err)
			}
			r := MassTransferResult{Handle: args[0], MassTransferID: id}
			return f.Success(r, func(w io.Writer) { fmt.Fprintln(w, id) })
		},
	}
}
