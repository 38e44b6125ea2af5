package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/rms"
)

// UndeployResult is the outcome of an undeploy.
type UndeployResult struct {
	Flow    string                    `json:"flow"`
	Status  rms.Status                `json:"status"`
	Objects []rms.ChangeRequestObject `json:"failed_objects,omitempty"`
}

// NewUndeployCommand creates the undeploy command.
func NewUndeployCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undeploy <name>",
		Short: "Undeploy a replication flow",
		Long: `Undeploy a replication flow and wait while its change request is busy.

Exits with status 1 when the change request does not end COMPLETED.

Example:
  diqa undeploy ABAP_CDS_S4H_to_HC`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndeploy(rootOpts, args[0], cmd)
		},
	}
}

func runUndeploy(opts *RootOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	s, err := opts.connect(ctx, cmd, f, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	flow, err := s.rms.DeleteReplicationFlow(ctx, name)
	if errors.Is(err, rms.ErrRejected) {
		return f.Fail(ExitFailure, ErrCodeFailed, fmt.Sprintf("undeploy of %s was rejected", name), err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCluster, "failed to undeploy", err)
	}

	status, err := flow.WaitWhileBusy(ctx)
	if errors.Is(err, rms.ErrWaitTimeout) {
		return f.Fail(ExitFailure, ErrCodeFailed, fmt.Sprintf("undeploy of %s is still busy", name), err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCluster, "failed to poll change request", err)
	}

	result := UndeployResult{Flow: name, Status: status.Status, Objects: status.FailedObjects()}
	render := func(w io.Writer) {
		fmt.Fprintf(w, "%s: %s\n", name, status.Status)
		for _, o := range result.Objects {
			fmt.Fprintf(w, "  %s %s: %s\n", o.Type, o.Name, o.Error)
		}
	}
	if status.Status != rms.StatusCompleted {
		if err := f.Failed(result, render); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("undeploy of %s ended %s", name, status.Status))
	}
	return f.Success(result, render)
}
