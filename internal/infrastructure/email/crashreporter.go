package email

import (
	"fmt"

	"allocmgr/internal/shared/logger"
)

// CrashReporter emails administrators when a background job panics, with
// the recovered value and stack trace in the body.
type CrashReporter struct {
	notifier *Notifier
	logger   logger.Interface
}

func NewCrashReporter(notifier *Notifier, log logger.Interface) *CrashReporter {
	return &CrashReporter{notifier: notifier, logger: log}
}

func (r *CrashReporter) ReportPanic(name string, recovered any, stack []byte) {
	subject := fmt.Sprintf("Background job %q crashed", name)
	body := fmt.Sprintf("The background job %q panicked.\n\nPanic: %v\n\nStack trace:\n%s\n",
		name, recovered, stack)

	if err := r.notifier.SendAdminAlert(subject, body); err != nil {
		// The panic is already logged; the failed alert only gets a log line.
		r.logger.Errorw("failed to email crash report", "job", name, "error", err)
	}
}
