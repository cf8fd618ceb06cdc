package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

const (
	EventBookingRescheduled = "booking_rescheduled"
	EventRescheduleRejected = "reschedule_rejected"
)

type ShiftedBooking struct {
	BookingID int64     `json:"booking_id"`
	OldStart  time.Time `json:"old_start"`
	OldEnd    time.Time `json:"old_end"`
	NewStart  time.Time `json:"new_start"`
	NewEnd    time.Time `json:"new_end"`
}

type EventConflict struct {
	BookingID     int64  `json:"booking_id"`
	WithBookingID int64  `json:"with_booking_id,omitempty"`
	Reason        string `json:"reason"`
	Message       string `json:"message"`
}

// RescheduleEvent is published for every commit attempt, successful or not.
type RescheduleEvent struct {
	ID                 string           `json:"id"`
	Type               string           `json:"type"`
	BookingID          int64            `json:"booking_id"`
	ResourceID         int64            `json:"resource_id"`
	Cascade            bool             `json:"cascade"`
	DeltaSeconds       int64            `json:"delta_seconds"`
	Target             ShiftedBooking   `json:"target"`
	Dependents         []ShiftedBooking `json:"dependents,omitempty"`
	AffectedBookingIDs []int64          `json:"affected_booking_ids"`
	Conflicts          []EventConflict  `json:"conflicts,omitempty"`
	OccurredAt         time.Time        `json:"occurred_at"`
}

func (e RescheduleEvent) Key() string {
	return strconv.FormatInt(e.BookingID, 10)
}

func NewRescheduleEvent(result *domain.CommitResult, occurredAt time.Time) RescheduleEvent {
	plan := result.Plan
	event := RescheduleEvent{
		ID:           uuid.NewString(),
		Type:         EventRescheduleRejected,
		BookingID:    plan.Booking.ID,
		ResourceID:   plan.Booking.ResourceID,
		Cascade:      plan.Request.Cascade,
		DeltaSeconds: int64(plan.Delta / time.Second),
		Target: ShiftedBooking{
			BookingID: plan.Booking.ID,
			OldStart:  plan.Booking.Start,
			OldEnd:    plan.Booking.End,
			NewStart:  plan.NewStart,
			NewEnd:    plan.NewEnd,
		},
		AffectedBookingIDs: result.AffectedBookingIDs,
		OccurredAt:         occurredAt,
	}
	if result.Success {
		event.Type = EventBookingRescheduled
	}
	for _, d := range plan.Dependents {
		event.Dependents = append(event.Dependents, ShiftedBooking{
			BookingID: d.BookingID,
			OldStart:  d.OriginalStart,
			OldEnd:    d.OriginalEnd,
			NewStart:  d.NewStart,
			NewEnd:    d.NewEnd,
		})
	}
	for _, c := range result.Conflicts {
		event.Conflicts = append(event.Conflicts, EventConflict{
			BookingID:     c.BookingID,
			WithBookingID: c.WithBookingID,
			Reason:        string(c.Reason),
			Message:       c.Message,
		})
	}
	if event.AffectedBookingIDs == nil {
		event.AffectedBookingIDs = []int64{}
	}
	return event
}

func DecodeRescheduleEvent(data []byte) (RescheduleEvent, error) {
	var event RescheduleEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return RescheduleEvent{}, fmt.Errorf("decode reschedule event: %w", err)
	}
	return event, nil
}

// Attempt converts the event into its audit record.
func (e RescheduleEvent) Attempt() (domain.RescheduleAttempt, error) {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return domain.RescheduleAttempt{}, fmt.Errorf("event id: %w", err)
	}
	attempt := domain.RescheduleAttempt{
		ID:                 id,
		BookingID:          e.BookingID,
		ResourceID:         e.ResourceID,
		Cascade:            e.Cascade,
		Success:            e.Type == EventBookingRescheduled,
		OldStart:           e.Target.OldStart,
		OldEnd:             e.Target.OldEnd,
		NewStart:           e.Target.NewStart,
		NewEnd:             e.Target.NewEnd,
		Delta:              time.Duration(e.DeltaSeconds) * time.Second,
		AffectedBookingIDs: e.AffectedBookingIDs,
		AttemptedAt:        e.OccurredAt,
	}
	if !attempt.Success && len(e.Conflicts) > 0 {
		attempt.FailureReason = e.Conflicts[0].Message
		if n := len(e.Conflicts); n > 1 {
			attempt.FailureReason = fmt.Sprintf("%s (and %d more)", attempt.FailureReason, n-1)
		}
	}
	return attempt, nil
}
