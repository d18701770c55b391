package worker

import (
	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartAuditWorker launches the audit writer and returns its shutdown hook,
// which drains queued entries.
func StartAuditWorker(recorder *audit.Recorder) func() {
	if recorder == nil {
		return func() {}
	}
	recorder.Start()
	return recorder.Close
}
