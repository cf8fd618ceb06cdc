package domain

import (
	"time"

	"github.com/google/uuid"
)

// RescheduleAttempt is the audit record of one commit attempt.
type RescheduleAttempt struct {
	ID                 uuid.UUID
	BookingID          int64
	ResourceID         int64
	Cascade            bool
	Success            bool
	OldStart           time.Time
	OldEnd             time.Time
	NewStart           time.Time
	NewEnd             time.Time
	Delta              time.Duration
	AffectedBookingIDs []int64
	FailureReason      string
	AttemptedAt        time.Time
}
