package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// Fields is re-exported so callers do not import logrus directly
type Fields = logrus.Fields

// Logger returns the shared application logger, creating it on first use
func Logger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&formatter.Formatter{
			NoColors:        false,
			HideKeys:        false,
			TimestampFormat: "15:04:05.000",
		})
		logger.SetOutput(os.Stderr)
	})
	return logger
}

// Configure applies the log level and optional rotating file output.
// An empty filePath keeps stderr-only logging.
func Configure(level string, filePath string) error {
	l := Logger()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.SetLevel(parsed)

	if filePath != "" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return err
		}
		fileWriter := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		l.SetOutput(io.MultiWriter(os.Stderr, fileWriter))
	}

	return nil
}
