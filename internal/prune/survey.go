package prune

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"jsonlprune/internal/jsonl"
)

// FileSurvey summarises one file without modifying it.
type FileSurvey struct {
	Path      string `json:"path"`
	Lines     int    `json:"lines"`     // non-empty input lines
	Records   int    `json:"records"`   // parseable records
	Malformed int    `json:"malformed"` // lines that fail to parse

	// WithExtras counts records carrying at least one key outside the
	// whitelist, i.e. records a prune pass would shrink.
	WithExtras int `json:"withExtras"`

	// ExtraKeys lists the distinct non-whitelisted keys seen, sorted.
	ExtraKeys []string `json:"extraKeys,omitempty"`
}

// SurveyResult is the read-only report over the dataset.
type SurveyResult struct {
	Files []FileSurvey `json:"files"`
}

// Survey scans every matching file and reports what a prune pass would
// find, without writing anything.
func (p *Processor) Survey(ctx context.Context) (*SurveyResult, error) {
	paths, err := filepath.Glob(filepath.Join(p.opts.Dir, p.opts.Pattern))
	if err != nil {
		return nil, fmt.Errorf("globbing %s/%s: %w", p.opts.Dir, p.opts.Pattern, err)
	}

	result := &SurveyResult{}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fs, err := p.surveyFile(path)
		if err != nil {
			return result, err
		}

		result.Files = append(result.Files, fs)
	}

	return result, nil
}

func (p *Processor) surveyFile(path string) (FileSurvey, error) {
	p.opts.Logger.Debug("surveying file", slog.String("path", path))

	src, err := os.ReadFile(path) //nolint:gosec // path comes from the dataset glob
	if err != nil {
		return FileSurvey{}, fmt.Errorf("reading %s: %w", path, err)
	}

	fs := FileSurvey{Path: path}
	extras := map[string]struct{}{}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		fs.Lines++

		rec, decErr := jsonl.Decode(line)
		if decErr != nil {
			fs.Malformed++
			continue
		}

		fs.Records++

		hasExtra := false

		for k := range rec {
			if !slices.Contains(p.opts.Fields, k) {
				extras[k] = struct{}{}

				hasExtra = true
			}
		}

		if hasExtra {
			fs.WithExtras++
		}
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return fs, fmt.Errorf("scanning %s: %w", path, scanErr)
	}

	for k := range extras {
		fs.ExtraKeys = append(fs.ExtraKeys, k)
	}

	sort.Strings(fs.ExtraKeys)

	return fs, nil
}
