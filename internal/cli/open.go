package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/repository"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/store"
)

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open <name>",
		Short: "Print a stored replication document",
		Long: `Print the replication document stored for a replication flow.

Examples:
  diqa open ABAP_CDS_S4H_to_HC
  diqa open --format json ABAP_CDS_S4H_to_HC`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(rootOpts, args[0], cmd)
		},
	}
}

func runOpen(opts *RootOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	s, err := opts.connect(ctx, cmd, f, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := s.modeler.ReadDocument(ctx, name)
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, store.ErrDocumentNotFound) {
		return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("replication %s not found", name), err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCluster, "failed to read replication", err)
	}

	// The document is decoded as a check only; the stored bytes are printed.
	if _, err := s.modeler.Decode(data); err != nil {
		return f.Fail(ExitFailure, ErrCodeFailed, "stored document is malformed", err)
	}

	return f.Success(json.RawMessage(data), func(w io.Writer) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			w.Write(data)
		} else {
			buf.WriteTo(w)
		}
		fmt.Fprintln(w)
	})
}
