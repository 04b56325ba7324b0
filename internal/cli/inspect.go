package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	sigsyaml "sigs.k8s.io/yaml"

	"jsonlprune/internal/logging"
	"jsonlprune/internal/prune"
)

type inspectOptions struct {
	format string
}

func newInspectCommand() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Report what a prune pass would find, without writing",
		Long: `Inspect scans data/code-summarization/*.jsonl read-only and reports,
per file: line counts, parseable records, malformed lines, and which
non-whitelisted keys are present. No file is modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table, json, yaml")

	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts *inspectOptions) error {
	logger := logging.FromContext(ctx)

	pruneOpts := prune.DefaultOptions()
	pruneOpts.Logger = logger

	result, err := prune.New(pruneOpts).Survey(ctx)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	w := cmd.OutOrStdout()

	switch opts.format {
	case "json":
		return renderJSON(w, result)
	case "yaml":
		return renderYAML(w, result)
	case "table":
		renderTable(w, result)
		return nil
	default:
		return &ExitError{Code: 2, Err: fmt.Errorf("unknown format %q: expected table, json, yaml", opts.format)}
	}
}

func renderJSON(w io.Writer, result *prune.SurveyResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(result)
}

func renderYAML(w io.Writer, result *prune.SurveyResult) error {
	data, err := sigsyaml.Marshal(result)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

func renderTable(w io.Writer, result *prune.SurveyResult) {
	_, _ = fmt.Fprintf(w, "\n--- Dataset Files (%d) ---\n", len(result.Files))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PATH\tLINES\tRECORDS\tMALFORMED\tWITH-EXTRAS\tEXTRA KEYS")

	for _, f := range result.Files {
		extras := strings.Join(f.ExtraKeys, ",")
		if extras == "" {
			extras = "(none)"
		}

		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
			f.Path, f.Lines, f.Records, f.Malformed, f.WithExtras, extras)
	}

	_ = tw.Flush()
}
