package prune

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurvey_CountsAndExtras(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl", strings.Join([]string{
		`{"task": "one", "extra": 1}`,
		`not valid json`,
		`{"task": "two", "lang": "py"}`,
		`{"task": "three", "generation": "x", "extra": 2}`,
	}, "\n")+"\n")

	result, err := newTestProcessor(dir).Survey(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)

	fs := result.Files[0]
	assert.Equal(t, 4, fs.Lines)
	assert.Equal(t, 3, fs.Records)
	assert.Equal(t, 1, fs.Malformed)
	assert.Equal(t, 2, fs.WithExtras)
	assert.Equal(t, []string{"extra", "generation"}, fs.ExtraKeys)
}

func TestSurvey_CleanFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl", `{"task":"sum","lang":"py"}`+"\n")

	result, err := newTestProcessor(dir).Survey(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)

	fs := result.Files[0]
	assert.Equal(t, 0, fs.WithExtras)
	assert.Empty(t, fs.ExtraKeys)
}

func TestSurvey_DoesNotModifyFiles(t *testing.T) {
	dir := t.TempDir()
	original := `{"task": "sum", "extra": 1}` + "\n"
	path := writeFile(t, dir, "a.jsonl", original)

	_, err := newTestProcessor(dir).Survey(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestSurvey_EmptyMatch(t *testing.T) {
	result, err := newTestProcessor(t.TempDir()).Survey(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Files)
}

func TestSurvey_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl", `{"task": "sum"}`+"\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestProcessor(dir).Survey(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
