package utils

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogger configures the global logrus logger from LOG_LEVEL, LOG_FORMAT
// (text|json) and LOG_FILE. The file sink is rotated and mirrors stdout.
func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		logger.SetFormatter(&logger.JSONFormatter{})
	} else {
		logger.SetFormatter(&logger.TextFormatter{
			FullTimestamp: true,
		})
	}

	path := os.Getenv("LOG_FILE")
	if path == "" {
		logger.SetOutput(os.Stdout)
		return
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.WithError(err).Warn("cannot create log directory, logging to stdout only")
		logger.SetOutput(os.Stdout)
		return
	}

	logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}))
}
