package prune

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsonlprune/internal/dataset"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestProcessor returns a Processor targeting dir with the real
// dataset whitelist and a silent logger.
func newTestProcessor(dir string) *Processor {
	opts := DefaultOptions()
	opts.Dir = dir
	opts.Logger = testLogger()

	return New(opts)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	return p
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return nil
	}

	return strings.Split(content, "\n")
}

// ---------------------------------------------------------------------------
// Run — core pruning behaviour
// ---------------------------------------------------------------------------

func TestRun_WhitelistClosure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl",
		`{"task": "sum", "lang": "py", "extra": 1, "url": "u1", "generation": "long text"}`+"\n")

	result, err := newTestProcessor(dir).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, 1, result.Files[0].Kept)
	assert.True(t, result.Files[0].Rewritten)

	lines := readLines(t, filepath.Join(dir, "a.jsonl"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))

	whitelist := dataset.Fields()
	for k := range rec {
		assert.Contains(t, whitelist, k, "key %q escaped the whitelist", k)
	}

	// keys(out) == keys(in) ∩ whitelist: present fields kept, absent not filled.
	assert.Equal(t, "sum", rec["task"])
	assert.Equal(t, "py", rec["lang"])
	assert.Equal(t, "u1", rec["url"])
	assert.NotContains(t, rec, "extra")
	assert.NotContains(t, rec, "metrics")
}

func TestRun_ValuesCopiedVerbatim(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl",
		`{"task": "sum", "metrics": {"bleu": 0.42, "rouge": [1, 2]}, "junk": true}`+"\n")

	_, err := newTestProcessor(dir).Run(context.Background())
	require.NoError(t, err)

	lines := readLines(t, filepath.Join(dir, "a.jsonl"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))

	metrics, ok := rec["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.42, metrics["bleu"])
	assert.Equal(t, []any{1.0, 2.0}, metrics["rouge"])
}

func TestRun_MalformedLinesDropped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl", strings.Join([]string{
		`{"task": "one"}`,
		`not valid json`,
		`{"task": "two"}`,
		`{broken`,
		`{"task": "three"}`,
	}, "\n")+"\n")

	result, err := newTestProcessor(dir).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, 5, result.Files[0].Lines)
	assert.Equal(t, 3, result.Files[0].Kept)
	assert.Equal(t, 2, result.Files[0].Dropped)

	// N-M lines survive, in their original relative order.
	lines := readLines(t, filepath.Join(dir, "a.jsonl"))
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "one")
	assert.Contains(t, lines[1], "two")
	assert.Contains(t, lines[2], "three")
}

func TestRun_SpecExample(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl",
		`{"task": "sum", "lang": "py", "extra": 1, "url": "u1"}`+"\n"+
			"not valid json\n")

	result, err := newTestProcessor(dir).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalKept())
	assert.Equal(t, 1, result.TotalDropped())

	lines := readLines(t, filepath.Join(dir, "a.jsonl"))
	require.Len(t, lines, 1)
	assert.Equal(t, `{"task":"sum","lang":"py","url":"u1"}`, lines[0])
}

func TestRun_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.jsonl", strings.Join([]string{
		`{"task": "sum", "lang": "py", "extra": 1}`,
		`{"url": "u2", "junk": [1, 2, 3]}`,
	}, "\n")+"\n")

	p := newTestProcessor(dir)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestRun_EmptyMatchNoOp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "not a dataset file\n")

	result, err := newTestProcessor(dir).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Files)

	// Non-matching files are untouched.
	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "not a dataset file\n", string(data))
}

func TestRun_MissingDirectoryIsNoOp(t *testing.T) {
	opts := DefaultOptions()
	opts.Dir = filepath.Join(t.TempDir(), "does-not-exist")
	opts.Logger = testLogger()

	result, err := New(opts).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Files)
}

func TestRun_EmptyAndWhitespaceLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl", "\n   \n"+`{"task": "sum"}`+"\n\n")

	result, err := newTestProcessor(dir).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, 1, result.Files[0].Lines)
	assert.Equal(t, 1, result.Files[0].Kept)
	assert.Equal(t, 0, result.Files[0].Dropped)

	lines := readLines(t, filepath.Join(dir, "a.jsonl"))
	assert.Len(t, lines, 1)
}

func TestRun_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl", `{"task": "a", "x": 1}`+"\n")
	writeFile(t, dir, "b.jsonl", `{"task": "b", "y": 2}`+"\n")

	result, err := newTestProcessor(dir).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Files, 2)
	assert.Equal(t, 2, result.TotalKept())
}

func TestRun_PreservesFilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"task": "sum", "x": 1}`+"\n"), 0o600))

	_, err := newTestProcessor(dir).Run(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRun_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl", `{"task": "sum"}`+"\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestProcessor(dir).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// Run — dry-run and skip-unchanged
// ---------------------------------------------------------------------------

func TestRun_DryRunLeavesFilesUntouched(t *testing.T) {
	dir := t.TempDir()
	original := `{"task": "sum", "extra": 1}` + "\n"
	path := writeFile(t, dir, "a.jsonl", original)

	opts := DefaultOptions()
	opts.Dir = dir
	opts.DryRun = true
	opts.Logger = testLogger()

	result, err := New(opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)

	fr := result.Files[0]
	assert.False(t, fr.Rewritten)
	assert.Equal(t, original, string(fr.Before))
	assert.Equal(t, `{"task":"sum"}`+"\n", string(fr.After))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestRun_SkipUnchanged(t *testing.T) {
	dir := t.TempDir()
	// Already in pruned form: whitelist-ordered keys, no extras.
	writeFile(t, dir, "a.jsonl", `{"task":"sum","lang":"py"}`+"\n")

	opts := DefaultOptions()
	opts.Dir = dir
	opts.SkipUnchanged = true
	opts.Logger = testLogger()

	result, err := New(opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.False(t, result.Files[0].Rewritten)
	assert.Equal(t, 1, result.Files[0].Kept)
}

// ---------------------------------------------------------------------------
// New — defaults
// ---------------------------------------------------------------------------

func TestNew_FillsDefaults(t *testing.T) {
	p := New(Options{})
	assert.Equal(t, dataset.Dir, p.opts.Dir)
	assert.Equal(t, dataset.Pattern, p.opts.Pattern)
	assert.Equal(t, dataset.Fields(), p.opts.Fields)
	assert.NotNil(t, p.opts.Logger)
}
