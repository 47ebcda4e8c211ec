package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/pkg/jobs"
)

// AuditJobType tags audit jobs on the background queue.
const AuditJobType = "audit_log"

type auditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog)
}

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// AuditService records audit entries off the request path.
type AuditService struct {
	repo    auditWriter
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs an AuditService. Until a queue is attached entries are written inline.
func NewAuditService(repo auditWriter, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger}
}

// AttachQueue routes subsequent entries through queue, whose handler should be Handle.
func (s *AuditService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Record enqueues the entry. Audit failures never fail the caller.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) {
	if s == nil || entry == nil {
		return
	}
	if s.queue == nil {
		if err := s.write(ctx, entry); err != nil {
			s.logger.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
		}
		return
	}
	if err := s.queue.TryEnqueue(jobs.Job{Type: AuditJobType, Payload: entry}); err != nil {
		s.metrics.RecordAuditEvent("dropped")
		s.logger.Warn("audit event dropped", zap.String("action", entry.Action), zap.Error(err))
		return
	}
	s.metrics.RecordAuditEvent("queued")
}

// Handle is the queue handler persisting one audit job.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	return s.write(ctx, entry)
}

func (s *AuditService) write(ctx context.Context, entry *models.AuditLog) error {
	if err := s.repo.Create(ctx, entry); err != nil {
		s.metrics.RecordAuditEvent("failed")
		return err
	}
	s.metrics.RecordAuditEvent("written")
	return nil
}
