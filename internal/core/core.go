// Package core provides the logging helpers shared by the command and the git adapter.
//
// All output goes to stderr so that stdout only ever carries results.
package core

import (
	"io"
	"os"
	"sync"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
)

var (
	mu     sync.Mutex
	logger = &log.Logger{
		Handler: cli.New(os.Stderr),
		Level:   log.InfoLevel,
	}
)

// SetOutput redirects log output to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.Handler = cli.New(w)
}

// SetHandler replaces the log handler, mainly so tests can capture entries.
func SetHandler(h log.Handler) {
	mu.Lock()
	defer mu.Unlock()
	logger.Handler = h
}

// SetDebug enables or disables debug output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	if enabled {
		logger.Level = log.DebugLevel
	} else {
		logger.Level = log.InfoLevel
	}
}

func Debug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Warning(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}
