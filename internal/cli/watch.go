package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"jsonlprune/internal/dataset"
	"jsonlprune/internal/logging"
	"jsonlprune/internal/prune"
	"jsonlprune/internal/watch"
)

type watchOptions struct {
	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the dataset directory and re-prune on changes",
		Long: `Watch monitors data/code-summarization/ for file changes and re-runs
the prune pass when JSONL files are created or modified.

File events are debounced to avoid rapid re-runs. Re-runs skip files
whose pruned content is already identical, so the watcher does not
re-trigger on its own writes. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "debounce interval for file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *watchOptions) error {
	logger := logging.FromContext(ctx)

	pruneOpts := prune.DefaultOptions()
	pruneOpts.SkipUnchanged = true
	pruneOpts.Logger = logger

	processor := prune.New(pruneOpts)

	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		result, err := processor.Run(fnCtx)
		if err != nil {
			return nil, err
		}

		rewritten := 0
		for _, f := range result.Files {
			if f.Rewritten {
				rewritten++
			}
		}

		return &watch.RunResult{
			Files:     len(result.Files),
			Kept:      result.TotalKept(),
			Dropped:   result.TotalDropped(),
			Rewritten: rewritten,
		}, nil
	}

	watchOpts := watch.DefaultOptions()
	watchOpts.Dir = dataset.Dir
	watchOpts.Pattern = dataset.Pattern
	watchOpts.Debounce = opts.debounce
	watchOpts.Logger = logger
	watchOpts.Out = cmd.ErrOrStderr()

	return watch.Run(ctx, watchOpts, runFn)
}
