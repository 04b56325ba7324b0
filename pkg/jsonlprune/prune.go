// Package jsonlprune provides a public Go API for pruning the
// code-summarization JSONL dataset to its whitelisted record fields.
//
// This package exposes the prune pipeline as a library, allowing
// programmatic use without the CLI.
//
// Basic usage:
//
//	result, err := jsonlprune.Prune(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("kept %d records\n", result.Kept)
//
// With options:
//
//	result, err := jsonlprune.Prune(ctx,
//	    jsonlprune.WithDryRun(),
//	    jsonlprune.WithLogger(logger),
//	)
package jsonlprune

import (
	"context"
	"io"
	"log/slog"

	"jsonlprune/internal/dataset"
	"jsonlprune/internal/prune"
)

// Fields returns the whitelist of record keys retained by Prune, in
// output order.
func Fields() []string {
	return dataset.Fields()
}

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Option configures the prune pipeline. Use the With* functions to
// create Options.
type Option func(*options)

type options struct {
	dryRun        bool
	skipUnchanged bool
	logger        *slog.Logger
}

// WithDryRun computes results without rewriting any file.
func WithDryRun() Option {
	return func(o *options) {
		o.dryRun = true
	}
}

// WithSkipUnchanged suppresses rewrites of files whose pruned content is
// byte-identical to their current content.
func WithSkipUnchanged() Option {
	return func(o *options) {
		o.skipUnchanged = true
	}
}

// WithLogger sets the logger used for progress and per-line
// diagnostics. By default all log output is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// FileResult describes the outcome of pruning a single file.
type FileResult struct {
	// Path is the file's location on disk.
	Path string

	// Lines is the number of non-empty input lines.
	Lines int

	// Kept is the number of records written.
	Kept int

	// Dropped is the number of malformed lines removed.
	Dropped int

	// Rewritten reports whether the file on disk was replaced.
	Rewritten bool
}

// Result summarises one prune pass.
type Result struct {
	// Files holds the per-file outcomes, in processing order.
	Files []FileResult

	// Kept is the total number of records written.
	Kept int

	// Dropped is the total number of malformed lines removed.
	Dropped int
}

// Prune runs the field-pruning pass over the fixed dataset directory.
// Files already pruned are rewritten to identical content, so the
// operation is idempotent. A directory with no matching files yields an
// empty Result and no error.
func Prune(ctx context.Context, opts ...Option) (*Result, error) {
	o := &options{logger: discardLogger()}

	for _, opt := range opts {
		opt(o)
	}

	pruneOpts := prune.DefaultOptions()
	pruneOpts.DryRun = o.dryRun
	pruneOpts.SkipUnchanged = o.skipUnchanged
	pruneOpts.Logger = o.logger

	internal, err := prune.New(pruneOpts).Run(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Kept:    internal.TotalKept(),
		Dropped: internal.TotalDropped(),
	}

	for _, f := range internal.Files {
		result.Files = append(result.Files, FileResult{
			Path:      f.Path,
			Lines:     f.Lines,
			Kept:      f.Kept,
			Dropped:   f.Dropped,
			Rewritten: f.Rewritten,
		})
	}

	return result, nil
}
