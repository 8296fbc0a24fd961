// Package utils provides utility functions for the modelhub CLI.
//
// This file implements a debug logger that writes log messages to
// ~/.modelhub/debug.log for troubleshooting sandbox sessions.
package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

var debugLogger *log.Logger

// InitLogger initializes the debug logger
func InitLogger() error {
	logDir := filepath.Join(os.Getenv("HOME"), ".modelhub")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	logFile := filepath.Join(logDir, "debug.log")
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	debugLogger = log.New(file, "", log.LstdFlags|log.Lshortfile)
	debugLogger.Printf("=== modelhub started ===")
	return nil
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	if debugLogger != nil {
		debugLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

// Logger returns the debug logger for library code, or a discarding logger
// when InitLogger has not succeeded
func Logger() *log.Logger {
	if debugLogger != nil {
		return debugLogger
	}
	return log.New(io.Discard, "", 0)
}
