package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jsonlprune/internal/config"
	"jsonlprune/internal/diff"
	"jsonlprune/internal/logging"
	"jsonlprune/internal/prune"
)

type pruneOptions struct {
	dryRun      bool
	diffContext int
}

func newPruneCommand() *cobra.Command {
	opts := &pruneOptions{}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Rewrite dataset files keeping only whitelisted fields",
		Long: `Prune scans data/code-summarization/*.jsonl and rewrites each file
in place, keeping only the whitelisted top-level fields per record.

Each file is fully read into memory before the rewrite begins, and the
rewrite goes through a temporary file and an atomic rename, so an
interrupted run never leaves a half-written file. Lines that fail to
parse as JSON are logged and dropped.

Use --dry-run to preview the rewrite as a unified diff without touching
any file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrune(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.dryRun, "dry-run", false, "preview changes without rewriting files")
	f.IntVar(&opts.diffContext, "diff-context", 3, "context lines in --dry-run diffs")

	return cmd
}

func runPrune(ctx context.Context, cmd *cobra.Command, opts *pruneOptions) error {
	logger := logging.FromContext(ctx)
	cfg := config.FromContext(ctx)

	pruneOpts := prune.DefaultOptions()
	pruneOpts.DryRun = opts.dryRun
	pruneOpts.Logger = logger

	result, err := prune.New(pruneOpts).Run(ctx)
	if err != nil {
		return &ExitError{Code: 6, Err: err}
	}

	if opts.dryRun {
		if err := printDiffs(cmd.OutOrStdout(), result, opts.diffContext, !cfg.NoColor); err != nil {
			return &ExitError{Code: 1, Err: err}
		}
	}

	printPruneSummary(cmd.ErrOrStderr(), result, opts.dryRun)

	return nil
}

// printDiffs writes a unified diff per changed file in dry-run mode.
func printDiffs(w io.Writer, result *prune.Result, contextLines int, color bool) error {
	for _, f := range result.Files {
		diffOpts := diff.DefaultOptions(f.Path)
		diffOpts.Context = contextLines

		unified, err := diff.Unified(string(f.Before), string(f.After), diffOpts)
		if err != nil {
			return fmt.Errorf("diffing %s: %w", f.Path, err)
		}

		if unified == "" {
			continue
		}

		diff.Write(w, unified, color)
	}

	return nil
}

// printPruneSummary prints a human-readable summary of the pass.
func printPruneSummary(w io.Writer, result *prune.Result, dryRun bool) {
	rewritten := 0
	for _, f := range result.Files {
		if f.Rewritten {
			rewritten++
		}
	}

	_, _ = fmt.Fprintf(w, "\n--- Prune Summary ---\n")
	_, _ = fmt.Fprintf(w, "Files:     %d\n", len(result.Files))
	_, _ = fmt.Fprintf(w, "Kept:      %d record(s)\n", result.TotalKept())
	_, _ = fmt.Fprintf(w, "Dropped:   %d malformed line(s)\n", result.TotalDropped())

	if dryRun {
		_, _ = fmt.Fprintf(w, "Rewritten: 0 (dry-run)\n")
	} else {
		_, _ = fmt.Fprintf(w, "Rewritten: %d\n", rewritten)
	}

	_, _ = fmt.Fprintf(w, "---------------------\n")
}
