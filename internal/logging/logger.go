// Package logging builds the logrus logger shared by the binaries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hr-digital/surat-izin/internal/domain"
)

// NewLogger creates a logger from configuration. Output goes to stderr so that the
// MCP server can keep stdout for protocol traffic.
func NewLogger(config domain.LoggingConfig) *logrus.Logger {
	return NewLoggerWithOutput(config, os.Stderr)
}

// NewLoggerWithOutput creates a logger writing to out.
func NewLoggerWithOutput(config domain.LoggingConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(config.Format) {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	return logger
}
