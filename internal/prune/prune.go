// Package prune implements the core JSONL field-pruning pass: glob the
// dataset directory, and rewrite every matching file keeping only the
// whitelisted top-level keys per record.
package prune

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"jsonlprune/internal/dataset"
	"jsonlprune/internal/jsonl"
	"jsonlprune/internal/output"
)

// Scanner limit for a single record. Generation transcripts routinely
// exceed bufio's 64 KiB default.
const maxLineSize = 16 * 1024 * 1024

// Options configures a Processor.
type Options struct {
	// Dir is the directory scanned for files.
	Dir string

	// Pattern is the filename glob matched inside Dir.
	Pattern string

	// Fields are the record keys that survive the prune, in output order.
	Fields []string

	// DryRun computes per-file results, including before/after content,
	// without rewriting anything.
	DryRun bool

	// SkipUnchanged suppresses the rewrite when the pruned content is
	// byte-identical to the current content. Watch mode relies on this so
	// that re-running on our own write events converges instead of
	// looping.
	SkipUnchanged bool

	// Logger is used for progress and per-line diagnostics.
	Logger *slog.Logger
}

// DefaultOptions returns options targeting the fixed dataset layout.
func DefaultOptions() Options {
	return Options{
		Dir:     dataset.Dir,
		Pattern: dataset.Pattern,
		Fields:  dataset.Fields(),
		Logger:  slog.Default(),
	}
}

// FileResult describes the outcome of pruning a single file.
type FileResult struct {
	Path    string `json:"path"`
	Lines   int    `json:"lines"`   // non-empty input lines
	Kept    int    `json:"kept"`    // records written
	Dropped int    `json:"dropped"` // malformed lines removed

	// Rewritten reports whether the file on disk was replaced. False in
	// dry-run mode and for skipped unchanged files.
	Rewritten bool `json:"rewritten"`

	// Before and After hold the file content either side of the prune.
	// Populated only in dry-run mode, for diff previews.
	Before []byte `json:"-"`
	After  []byte `json:"-"`
}

// Result aggregates per-file outcomes of one prune pass.
type Result struct {
	Files []FileResult `json:"files"`
}

// TotalKept returns the number of records written across all files.
func (r *Result) TotalKept() int {
	n := 0
	for _, f := range r.Files {
		n += f.Kept
	}

	return n
}

// TotalDropped returns the number of malformed lines removed across all
// files.
func (r *Result) TotalDropped() int {
	n := 0
	for _, f := range r.Files {
		n += f.Dropped
	}

	return n
}

// Processor runs the prune pass. Construct with New.
type Processor struct {
	opts Options
}

// New creates a Processor. Zero-valued option fields fall back to
// DefaultOptions.
func New(opts Options) *Processor {
	def := DefaultOptions()

	if opts.Dir == "" {
		opts.Dir = def.Dir
	}

	if opts.Pattern == "" {
		opts.Pattern = def.Pattern
	}

	if len(opts.Fields) == 0 {
		opts.Fields = def.Fields
	}

	if opts.Logger == nil {
		opts.Logger = def.Logger
	}

	return &Processor{opts: opts}
}

// Run prunes every matching file, one file at a time, one line at a
// time. A directory with no matches is a successful no-op. Malformed
// lines are logged and dropped; any I/O error aborts the pass, leaving
// files already rewritten in their rewritten state.
func (p *Processor) Run(ctx context.Context) (*Result, error) {
	paths, err := filepath.Glob(filepath.Join(p.opts.Dir, p.opts.Pattern))
	if err != nil {
		return nil, fmt.Errorf("globbing %s/%s: %w", p.opts.Dir, p.opts.Pattern, err)
	}

	result := &Result{}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fr, err := p.processFile(path)
		if err != nil {
			return result, err
		}

		result.Files = append(result.Files, fr)
	}

	return result, nil
}

// processFile fully reads path into memory, prunes every record, and
// replaces the file. The read completes before any write begins, so an
// interruption never corrupts an individual file.
func (p *Processor) processFile(path string) (FileResult, error) {
	logger := p.opts.Logger
	logger.Info("processing file", slog.String("path", path))

	src, err := os.ReadFile(path) //nolint:gosec // path comes from the dataset glob
	if err != nil {
		return FileResult{}, fmt.Errorf("reading %s: %w", path, err)
	}

	res := FileResult{Path: path}

	var out bytes.Buffer

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		res.Lines++

		rec, decErr := jsonl.Decode(line)
		if decErr != nil {
			logger.Warn("dropping malformed line",
				slog.String("path", path),
				slog.Int("line", lineNo),
				slog.String("error", decErr.Error()),
			)

			res.Dropped++

			continue
		}

		encoded, encErr := jsonl.Encode(rec, p.opts.Fields)
		if encErr != nil {
			return res, fmt.Errorf("encoding %s line %d: %w", path, lineNo, encErr)
		}

		out.Write(encoded)
		out.WriteByte('\n')

		res.Kept++
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return res, fmt.Errorf("scanning %s: %w", path, scanErr)
	}

	if p.opts.DryRun {
		res.Before = src
		res.After = out.Bytes()

		logger.Info("dry-run, file not modified",
			slog.String("path", path),
			slog.Int("kept", res.Kept),
			slog.Int("dropped", res.Dropped),
		)

		return res, nil
	}

	if p.opts.SkipUnchanged && bytes.Equal(src, out.Bytes()) {
		logger.Debug("content unchanged, skipping rewrite", slog.String("path", path))
		return res, nil
	}

	perm := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}

	w := output.NewFileWriter(path, output.WithPermissions(perm), output.WithLogger(logger))
	if err := w.Write(out.Bytes()); err != nil {
		return res, err
	}

	res.Rewritten = true

	logger.Info("completed processing",
		slog.String("path", path),
		slog.Int("kept", res.Kept),
		slog.Int("dropped", res.Dropped),
	)

	return res, nil
}
