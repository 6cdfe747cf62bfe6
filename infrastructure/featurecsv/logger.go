package featurecsv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"panson/domain/feature"
	"panson/pkg/log"
)

// Logger implements feature.FrameLogger, appending frames to a CSV file.
// The header is written together with the first frame, so columns added by
// a preprocessor before the first Log call still make it into the file.
type Logger struct {
	mu            sync.Mutex
	file          *os.File
	writer        *csv.Writer
	headerWritten bool
	path          string
}

// NewLogger creates a stopped Logger
func NewLogger() *Logger {
	return &Logger{}
}

// Start implements feature.FrameLogger
func (l *Logger) Start(path string, overwrite bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return fmt.Errorf("logger already running (writing %s)", l.path)
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file %s already exists: pass overwrite to replace it", path)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", path, err)
	}

	l.file = f
	l.writer = csv.NewWriter(f)
	l.headerWritten = false
	l.path = path
	log.Logger().WithField("path", path).Info("Data logging started")
	return nil
}

// Log implements feature.FrameLogger
func (l *Logger) Log(f feature.Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("logger is not running")
	}

	if !l.headerWritten {
		if err := l.writer.Write(f.Header()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		l.headerWritten = true
	}

	values := f.Values()
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if err := l.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Stop implements feature.FrameLogger
func (l *Logger) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("logger is not running")
	}

	l.writer.Flush()
	flushErr := l.writer.Error()
	closeErr := l.file.Close()

	log.Logger().WithField("path", l.path).Info("Data logging stopped")
	l.file = nil
	l.writer = nil
	l.path = ""

	if flushErr != nil {
		return fmt.Errorf("failed to flush log file: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close log file: %w", closeErr)
	}
	return nil
}

// Logging implements feature.FrameLogger
func (l *Logger) Logging() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil
}

// Ensure Logger implements feature.FrameLogger
var _ feature.FrameLogger = (*Logger)(nil)
