// Package log provides the kernel's logging and fatal-assertion facility.
//
// It wraps logrus the way gvisor's pkg/v2/service.go wires it into a
// larger system: one process-wide *logrus.Logger, formatted as text,
// with leveled helpers that the rest of the kernel calls by name.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetDebug turns on Debugf output; the boot CLI exposes this as -debug.
func SetDebug(on bool) {
	if on {
		std.SetLevel(logrus.DebugLevel)
	} else {
		std.SetLevel(logrus.InfoLevel)
	}
}

func Debugf(format string, args ...any) { std.Debugf(format, args...) }
func Infof(format string, args ...any)  { std.Infof(format, args...) }
func Warningf(format string, args ...any) { std.Warnf(format, args...) }

// Assert terminates the kernel if cond is false. It is the Go
// expression of a classic ASSERT macro: for programmer errors only,
// never a path error or a user-program fault, both of which must be
// reported as a return value instead.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		std.Fatalf(format, args...)
	}
}

// Assertf always terminates the kernel; used where reaching the call is
// itself the bug (e.g. an unreachable switch branch).
func Assertf(format string, args ...any) {
	std.Fatalf(format, args...)
}
