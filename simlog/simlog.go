// Package simlog provides the process-global structured logger for the
// simulator core. All components log through here rather than the
// standard library's log package, matching the logging discipline of
// the engine this core was adapted from.
package simlog

import (
	"github.com/simonlingoogle/go-simplelogger"
)

func Debugf(format string, args ...interface{}) {
	simplelogger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	simplelogger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	simplelogger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	simplelogger.Errorf(format, args...)
}

// Fatalf logs at error level and terminates the process. Reserved for
// scene-load failures and other conditions that must abort before the
// event loop starts (see simerrors.KindSceneInvalid).
func Fatalf(format string, args ...interface{}) {
	simplelogger.Panicf(format, args...)
}

// FatalIfError panics with err if it is non-nil, after logging it.
func FatalIfError(err error, args ...interface{}) {
	simplelogger.FatalIfError(err, args...)
}

func AssertTrue(cond bool) {
	simplelogger.AssertTrue(cond)
}

func AssertNil(v interface{}) {
	simplelogger.AssertNil(v)
}

func AssertNotNil(v interface{}) {
	simplelogger.AssertNotNil(v)
}

// SetLevel sets the process-wide minimum log level from a name such as
// "debug", "info", "warn", or "error", matching the -log flag the
// teacher's entrypoint exposes.
func SetLevel(levelName string) {
	simplelogger.SetLevel(simplelogger.ParseLevel(levelName))
}
