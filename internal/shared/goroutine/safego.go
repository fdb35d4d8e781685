// Package goroutine provides utilities for safely launching goroutines with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"allocmgr/internal/shared/logger"
)

// CrashReporter receives panics caught in background goroutines, typically
// to notify administrators out of band.
type CrashReporter interface {
	ReportPanic(name string, recovered any, stack []byte)
}

var reporter CrashReporter

// SetCrashReporter installs a process-wide reporter for background panics.
// Call once at startup before launching workers.
func SetCrashReporter(r CrashReporter) {
	reporter = r
}

// SafeGo launches a goroutine with panic recovery. If the goroutine panics,
// the panic is caught and logged with stack trace instead of crashing the
// process, and forwarded to the crash reporter when one is installed.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				log.Errorw("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(stack),
				)
				if reporter != nil {
					reporter.ReportPanic(name, r, stack)
				}
			}
		}()
		fn()
	}()
}
