package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// RunRecord is one ledger run.
type RunRecord struct {
	ID          string     `json:"id"`
	Scenario    string     `json:"scenario"`
	Replication string     `json:"replication"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Pass        *bool      `json:"pass,omitempty"`
	Errors      []string   `json:"errors,omitempty"`
	TraceHash   string     `json:"trace_hash,omitempty"`
}

// PollRecord is one status poll of a run.
type PollRecord struct {
	Flow       string          `json:"flow"`
	Operation  string          `json:"operation"`
	Attempt    int             `json:"attempt"`
	Status     string          `json:"status"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	ObservedAt time.Time       `json:"observed_at"`
}

// RunDetail is a run with its polls.
type RunDetail struct {
	Run   RunRecord    `json:"run"`
	Polls []PollRecord `json:"polls"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `Show the runs recorded in the ledger database, newest first.

With a run id, show that run and every change request status polled
during it.

Examples:
  diqa history
  diqa history --limit 5 --db /tmp/diqa.db
  diqa history --format json 01920c1e-7d5a-7b6c-9c1f-2d4e6f8a0b1c`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runHistory(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the ledger database (default from store.path)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list")

	return cmd
}

func runHistory(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.Limit < 1 {
		return f.Fail(ExitCommandError, ErrCodeInput, fmt.Sprintf("invalid limit %d: must be at least 1", opts.Limit), nil)
	}

	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, opts.Database, f)
	if err != nil {
		return err
	}
	defer st.Close()

	if id != "" {
		return showRun(f, st, cmd, id)
	}

	runs, err := st.Runs(ctx, opts.Limit)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}
	records := make([]RunRecord, 0, len(runs))
	for _, r := range runs {
		records = append(records, runRecord(r))
	}

	return f.Success(records, func(w io.Writer) {
		if len(records) == 0 {
			fmt.Fprintln(w, "no runs recorded")
			return
		}
		for _, r := range records {
			fmt.Fprintf(w, "%s  %-7s %s  %s (%s)\n", r.StartedAt.Format(time.RFC3339), verdict(r.Pass), r.ID, r.Scenario, r.Replication)
		}
	})
}

func showRun(f *OutputFormatter, st *store.Store, cmd *cobra.Command, id string) error {
	ctx := cmd.Context()

	run, err := st.Run(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("run %s not found", id), err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to get run", err)
	}
	polls, err := st.Polls(ctx, id)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to get polls", err)
	}

	detail := RunDetail{Run: runRecord(*run), Polls: make([]PollRecord, 0, len(polls))}
	for _, p := range polls {
		detail.Polls = append(detail.Polls, PollRecord{
			Flow:       p.Flow,
			Operation:  p.Operation,
			Attempt:    p.Attempt,
			Status:     p.Status,
			Payload:    p.Payload,
			ObservedAt: p.ObservedAt,
		})
	}

	return f.Success(detail, func(w io.Writer) {
		r := detail.Run
		fmt.Fprintf(w, "Run:         %s\n", r.ID)
		fmt.Fprintf(w, "Scenario:    %s\n", r.Scenario)
		fmt.Fprintf(w, "Replication: %s\n", r.Replication)
		fmt.Fprintf(w, "Started:     %s\n", r.StartedAt.Format(time.RFC3339))
		if r.FinishedAt != nil {
			fmt.Fprintf(w, "Finished:    %s\n", r.FinishedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(w, "Result:      %s\n", verdict(r.Pass))
		if r.TraceHash != "" {
			fmt.Fprintf(w, "Trace hash:  %s\n", r.TraceHash)
		}
		for _, msg := range r.Errors {
			fmt.Fprintf(w, "  error: %s\n", msg)
		}
		if len(detail.Polls) > 0 {
			fmt.Fprintln(w, "\nPolls:")
		}
		for _, p := range detail.Polls {
			fmt.Fprintf(w, "  %s %-8s %-20s #%-3d %s\n", p.ObservedAt.Format(time.RFC3339), p.Operation, p.Flow, p.Attempt, p.Status)
		}
	})
}

func runRecord(r store.Run) RunRecord {
	return RunRecord{
		ID:          r.ID,
		Scenario:    r.Scenario,
		Replication: r.Replication,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Pass:        r.Pass,
		Errors:      r.Errors,
		TraceHash:   r.TraceHash,
	}
}

// verdict renders an unfinished run as RUNNING.
func verdict(pass *bool) string {
	switch {
	case pass == nil:
		return "RUNNING"
	case *pass:
		return "PASS"
	default:
		return "FAIL"
	}
}
