// Package logging configures the shared logger. Output goes to log.txt in
// the base directory and is mirrored to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// FileName is the log file, resolved against the base directory.
const FileName = "log.txt"

// New opens the log file under baseDir and returns a logger writing to it
// and to stderr. The returned closer flushes and closes the file.
func New(baseDir string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating base directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(baseDir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	logger := log.NewWithOptions(io.MultiWriter(f, os.Stderr), log.Options{
		ReportTimestamp: true,
		Prefix:          "froyo",
	})
	return logger, f, nil
}

// Discard returns a logger that drops everything, for tests and for embedding
// the engine without log output.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
