// Package output writes pruned JSONL content back to disk.
package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileWriter replaces a file's content via a temporary file in the same
// directory followed by a rename, so an interrupted write never leaves a
// half-written target behind.
type FileWriter struct {
	path   string
	perm   os.FileMode
	logger *slog.Logger
}

// FileWriterOption configures a FileWriter.
type FileWriterOption func(*FileWriter)

// WithPermissions overrides the default file permissions (0644).
func WithPermissions(perm os.FileMode) FileWriterOption {
	return func(fw *FileWriter) {
		fw.perm = perm
	}
}

// WithLogger sets a logger for the FileWriter.
func WithLogger(logger *slog.Logger) FileWriterOption {
	return func(fw *FileWriter) {
		fw.logger = logger
	}
}

// NewFileWriter creates a writer that replaces the file at path.
func NewFileWriter(path string, opts ...FileWriterOption) *FileWriter {
	fw := &FileWriter{
		path:   path,
		perm:   0o644,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(fw)
	}

	return fw
}

// Write stages data in a temporary file and renames it over the target.
// The temporary file is removed on any failure.
func (fw *FileWriter) Write(data []byte) error {
	dir := filepath.Dir(fw.path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fw.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}

	// CreateTemp uses 0600; restore the intended target permissions.
	if err := os.Chmod(tmpPath, fw.perm); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("setting permissions on %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, fw.path); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("replacing %s: %w", fw.path, err)
	}

	fw.logger.Debug("file replaced", slog.String("path", fw.path), slog.Int("bytes", len(data)))

	return nil
}

// Path returns the target file path.
func (fw *FileWriter) Path() string {
	return fw.path
}
