package service

import (
	"context"
	"time"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
)

// AuditLogService exposes the read side of the audit log.
type AuditLogService struct {
	recorder *audit.Recorder
	now      func() time.Time
}

// AuditLogPage is a page of recent entries with summary stats.
type AuditLogPage struct {
	Logs  []domain.AuditLogEntry
	Stats domain.AuditStats
}

// NewAuditLogService constructs the service.
func NewAuditLogService(recorder *audit.Recorder, now func() time.Time) *AuditLogService {
	return &AuditLogService{recorder: recorder, now: clockOrDefault(now)}
}

// Recent returns the newest entries, newest first, with stats.
func (s *AuditLogService) Recent(ctx context.Context, actor Actor, limit int) (*AuditLogPage, error) {
	if err := actor.authorize(auth.OpViewAuditLog); err != nil {
		return nil, err
	}
	logs, err := s.recorder.Recent(ctx, limit)
	if err != nil {
		return nil, storeError(err, "audit log")
	}
	stats, err := s.recorder.Stats(ctx, s.now())
	if err != nil {
		return nil, storeError(err, "audit log")
	}
	return &AuditLogPage{Logs: logs, Stats: stats}, nil
}
