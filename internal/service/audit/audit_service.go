package audit

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Domenick1991/barberbooking/internal/kafka"
	"github.com/Domenick1991/barberbooking/internal/repository"
)

// AuditService turns reschedule events into audit rows and expires old ones.
type AuditService struct {
	attempts  repository.AuditRepository
	retention time.Duration
	logger    *zap.Logger
}

func NewAuditService(attempts repository.AuditRepository, retention time.Duration, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{attempts: attempts, retention: retention, logger: logger}
}

// HandleMessage records one event. Undecodable messages are logged and
// skipped; store failures are returned so the message is not committed.
func (s *AuditService) HandleMessage(ctx context.Context, msg kafkago.Message) error {
	event, err := kafka.DecodeRescheduleEvent(msg.Value)
	if err != nil {
		s.logger.Warn("skipping malformed reschedule event",
			zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}
	attempt, err := event.Attempt()
	if err != nil {
		s.logger.Warn("skipping reschedule event without id",
			zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}

	if err := s.attempts.Record(ctx, attempt); err != nil {
		return fmt.Errorf("record reschedule attempt %s: %w", attempt.ID, err)
	}
	s.logger.Debug("reschedule attempt recorded",
		zap.String("attempt_id", attempt.ID.String()),
		zap.Int64("booking_id", attempt.BookingID),
		zap.Bool("success", attempt.Success))
	return nil
}

// Prune deletes attempts older than the retention period.
func (s *AuditService) Prune(ctx context.Context, now time.Time) (int64, error) {
	deleted, err := s.attempts.PruneBefore(ctx, now.Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("prune reschedule attempts: %w", err)
	}
	return deleted, nil
}
