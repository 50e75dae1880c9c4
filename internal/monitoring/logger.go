// Package monitoring provides a swappable package-level diagnostic logger
// so pipeline stages can report progress without binding callers to a
// particular sink.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf;
// tests or embedding programs can redirect or mute it with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Elapsed starts a timer and returns a func that logs the duration under
// the given label when invoked, usually via defer:
//
//	defer monitoring.Elapsed("generate batch")()
func Elapsed(label string) func() {
	start := time.Now()
	return func() {
		Logf("%s took %s", label, time.Since(start).Round(time.Millisecond))
	}
}
