// Package log provides the process-wide zap logger.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

// log discards everything until Init or SetLogger replaces it.
var log = zap.NewNop().Sugar()

// Init builds the package-level logger. Debug selects zap's development
// config (console encoder, debug level). Call it before starting goroutines
// that log.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	log = zapLogger.Sugar()
	return nil
}

// SetLogger replaces the package-level logger, e.g. with zaptest's observer.
// Nil restores the no-op logger.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	log = l
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = log.Sync()
}

func Debugf(template string, args ...any) {
	log.Debugf(template, args...)
}

func Infof(template string, args ...any) {
	log.Infof(template, args...)
}

func Warnf(template string, args ...any) {
	log.Warnf(template, args...)
}

func Errorf(template string, args ...any) {
	log.Errorf(template, args...)
}

// Fatalf logs and exits the process.
func Fatalf(template string, args ...any) {
	log.Fatalf(template, args...)
}
