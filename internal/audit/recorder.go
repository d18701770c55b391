// Package audit records administrative actions without blocking the
// request that triggered them.
package audit

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/observability"
	"github.com/spec-kit/backoffice/internal/repository"
)

const (
	// DefaultListLimit applies when the caller does not pass a limit.
	DefaultListLimit = 100
	// MaxListLimit caps a single audit log page.
	MaxListLimit = 500

	writeTimeout = 5 * time.Second
)

// Action names written to the log.
const (
	ActionLogin            = "login"
	ActionCreateDeal       = "create_deal"
	ActionUpdateDeal       = "update_deal"
	ActionChangeDealStatus = "change_deal_status"
	ActionReopenDeal       = "reopen_deal"
	ActionArchiveDeal      = "archive_deal"
	ActionDeleteDeal       = "delete_deal"
	ActionExportDeals      = "export_deals"
	ActionCreateUser       = "create_user"
	ActionUpdateUser       = "update_user"
	ActionDeleteUser       = "delete_user"
	ActionCreateSubscriber = "create_subscriber"
	ActionUpdateSubscriber = "update_subscriber"
	ActionDeleteSubscriber = "delete_subscriber"
)

// Entry is the caller-facing shape of an audit record.
type Entry struct {
	ActorEmail string
	Action     string
	Resource   string
	Details    string
	Meta       domain.ClientMeta
}

// Recorder queues entries and persists them on a background goroutine.
// Failures are logged and dropped; they never reach the caller.
type Recorder struct {
	repo    repository.AuditRepository
	logger  *zap.Logger
	metrics *observability.Metrics

	queue chan domain.AuditLogEntry
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewRecorder builds a recorder with a queue of the given size.
func NewRecorder(repo repository.AuditRepository, logger *zap.Logger, metrics *observability.Metrics, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan domain.AuditLogEntry, queueSize),
	}
}

// Start launches the writer goroutine.
func (r *Recorder) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for entry := range r.queue {
			r.persist(entry)
		}
	}()
}

// Record enqueues an entry. It drops the entry when the queue is full or
// the recorder is closed.
func (r *Recorder) Record(entry Entry) {
	if r == nil {
		return
	}
	record := domain.AuditLogEntry{
		ActorEmail: entry.ActorEmail,
		Action:     entry.Action,
		Resource:   entry.Resource,
		Details:    entry.Details,
		IPAddress:  optional(entry.Meta.IPAddress),
		UserAgent:  optional(entry.Meta.UserAgent),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drop(record, "recorder closed")
		return
	}
	select {
	case r.queue <- record:
	default:
		r.drop(record, "queue full")
	}
}

// Close stops accepting entries and waits until queued ones are written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
}

// Recent returns the newest entries, clamping limit to [1, MaxListLimit].
func (r *Recorder) Recent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	return r.repo.ListRecent(ctx, ClampLimit(limit))
}

// Stats summarizes the log relative to now.
func (r *Recorder) Stats(ctx context.Context, now time.Time) (domain.AuditStats, error) {
	return r.repo.Stats(ctx, now.Add(-24*time.Hour))
}

// ClampLimit applies the default and maximum page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

func (r *Recorder) persist(entry domain.AuditLogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.repo.Create(ctx, &entry); err != nil {
		r.metrics.RecordAuditDropped()
		r.logger.Error("audit write failed",
			zap.String("action", entry.Action),
			zap.String("actor", entry.ActorEmail),
			zap.Error(err))
	}
}

func (r *Recorder) drop(entry domain.AuditLogEntry, reason string) {
	r.metrics.RecordAuditDropped()
	r.logger.Warn("audit entry dropped",
		zap.String("reason", reason),
		zap.String("action", entry.Action),
		zap.String("actor", entry.ActorEmail))
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
