package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/harness"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/replication"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	File        string             `json:"file"`
	Replication string             `json:"replication,omitempty"`
	Valid       bool               `json:"valid"`
	Violations  []schema.Violation `json:"violations,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a scenario or replication document offline",
		Long: `Check a scenario or a replication document without contacting a cluster.

A scenario (.yaml, .yml) is built into its replication document. A document
(.json, .replication) is decoded. Either way the document is then checked
against the replication schema contract.

Examples:
  diqa validate scenarios/abap_to_hana.yaml
  diqa validate --format json exported/orders.replication`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var (
		name string
		data []byte
		err  error
	)
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		name, data, err = buildScenario(path)
	case ".json", ".replication":
		name, data, err = decodeDocument(path)
	default:
		return f.Fail(ExitCommandError, ErrCodeInput, fmt.Sprintf("unsupported file type %q", filepath.Ext(path)), nil)
	}
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return f.Fail(exitErr.Code, ErrCodeInput, exitErr.Message, exitErr.Err)
		}
		return f.Fail(ExitFailure, ErrCodeFailed, "invalid document", err)
	}
	f.VerboseLog("validating %s (%d bytes)", name, len(data))

	violations, err := schema.Validate(data)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to load schema", err)
	}

	result := ValidationResult{File: path, Replication: name, Valid: len(violations) == 0, Violations: violations}
	if !result.Valid {
		if err := f.Failed(result, func(w io.Writer) {
			fmt.Fprintf(w, "%s: %d violation(s)\n", path, len(violations))
			for _, v := range violations {
				fmt.Fprintf(w, "  %s\n", v)
			}
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d schema violation(s)", len(violations)))
	}

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s: ok (%s)\n", path, name)
	})
}

// buildScenario loads a scenario and returns its replication document.
func buildScenario(path string) (string, []byte, error) {
	sc, err := harness.LoadScenario(path)
	if err != nil {
		return "", nil, WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	r, err := sc.Build("")
	if err != nil {
		return sc.ReplicationName(), nil, err
	}
	data, err := replication.Marshal(r)
	if err != nil {
		return r.Name(), nil, err
	}
	return r.Name(), data, nil
}

// decodeDocument reads a replication document and checks that it decodes.
func decodeDocument(path string) (string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, WrapExitError(ExitCommandError, "failed to read file", err)
	}
	r, err := replication.Unmarshal(data)
	if err != nil {
		return "", nil, err
	}
	return r.Name(), data, nil
}
