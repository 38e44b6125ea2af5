package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// DocumentsOptions holds flags for the documents command.
type DocumentsOptions struct {
	*RootOptions
	Database string
	Space    string
}

// NewDocumentsCommand creates the documents command.
func NewDocumentsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DocumentsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List documents saved in the local store",
		Long: `List the documents the local repository backend has saved, ordered by
path, with their content hash and the time of the last save. A document
saved again with the same content keeps its hash.

Examples:
  diqa documents
  diqa documents --space tenant --db /tmp/diqa.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocuments(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the database (default from store.path)")
	cmd.Flags().StringVar(&opts.Space, "space", "", "repository space (default from repository.space)")

	return cmd
}

func runDocuments(opts *DocumentsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}
	space := opts.Space
	if space == "" {
		space = cfg.Repository.Space
	}
	st, err := openStore(cfg, opts.Database, f)
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.Documents().List(cmd.Context(), space)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to list documents", err)
	}

	return f.Success(docs, func(w io.Writer) {
		if len(docs) == 0 {
			fmt.Fprintf(w, "no documents in space %s\n", space)
			return
		}
		for _, d := range docs {
			fmt.Fprintf(w, "%s  %s  %s\n", d.UpdatedAt.Format(time.RFC3339), shortHash(d.ContentHash), d.Path)
		}
	})
}

// shortHash trims a hash to 12 characters for text output.
func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}
