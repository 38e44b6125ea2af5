package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/monitoring"
)

// FlowMonitorResult is one flow with its task monitors.
type FlowMonitorResult struct {
	Monitor *monitoring.ReplicationMonitor `json:"monitor"`
	Tasks   []monitoring.TaskMonitor       `json:"tasks"`
}

// NewMonitorCommand creates the monitor command.
func NewMonitorCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor [name]",
		Short: "Show replication flow monitors",
		Long: `Without a name, list the monitors of all replication flows.
With a name, show the monitor of that flow and the state of its tasks.

Examples:
  diqa monitor
  diqa monitor ABAP_CDS_S4H_to_HC`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runMonitor(rootOpts, name, cmd)
		},
	}
}

func runMonitor(opts *RootOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	s, err := opts.connect(ctx, cmd, f, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	if name == "" {
		monitors, err := s.monitors.Monitors(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeCluster, "failed to list monitors", err)
		}
		return f.Success(monitors, func(w io.Writer) {
			for _, m := range monitors {
				fmt.Fprintln(w, m.String())
			}
		})
	}

	monitor, err := s.monitors.Monitor(ctx, name)
	if errors.Is(err, monitoring.ErrMonitorNotFound) {
		return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no monitor for %s", name), err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCluster, "failed to get monitor", err)
	}
	tasks, err := s.monitors.TaskMonitors(ctx, name)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCluster, "failed to get task monitors", err)
	}

	return f.Success(FlowMonitorResult{Monitor: monitor, Tasks: tasks}, func(w io.Writer) {
		fmt.Fprintln(w, monitor.String())
		for _, t := range tasks {
			fmt.Fprintf(w, "  %s\t%s\t%d records\t%d partition(s)\n", t.Name, t.Status, t.NumberOfRecordsTransferred, len(t.Partitions))
			if t.StatusInfo != "" {
				fmt.Fprintf(w, "    %s\n", t.StatusInfo)
			}
		}
	})
}
