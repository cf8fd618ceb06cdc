package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

type AuditRepository interface {
	Record(ctx context.Context, attempt domain.RescheduleAttempt) error
	PruneBefore(ctx context.Context, deadline time.Time) (int64, error)
}

type PGAuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) AuditRepository {
	return &PGAuditRepository{db: db}
}

// Record is idempotent on the attempt id so redelivered events are harmless.
func (r *PGAuditRepository) Record(ctx context.Context, a domain.RescheduleAttempt) error {
	_, err := r.db.Exec(ctx, `INSERT INTO reschedule_attempts
		(id, booking_id, resource_id, cascade, success, old_start, old_end, new_start, new_end,
		 delta_seconds, affected_booking_ids, failure_reason, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`,
		a.ID, a.BookingID, a.ResourceID, a.Cascade, a.Success, a.OldStart, a.OldEnd, a.NewStart, a.NewEnd,
		int64(a.Delta/time.Second), a.AffectedBookingIDs, a.FailureReason, a.AttemptedAt)
	return err
}

func (r *PGAuditRepository) PruneBefore(ctx context.Context, deadline time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM reschedule_attempts WHERE attempted_at < $1`, deadline)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ AuditRepository = (*PGAuditRepository)(nil)
