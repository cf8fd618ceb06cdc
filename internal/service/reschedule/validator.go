package reschedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

const messageTimeLayout = "2006-01-02 15:04"

// Validate checks proposed windows against the current schedule and against
// each other. Bookings that are themselves being moved are checked only at
// their proposed position. The result is never nil.
func Validate(now time.Time, candidates []domain.Window, schedule []domain.Booking) []domain.Conflict {
	moving := make(map[int64]struct{}, len(candidates))
	for _, c := range candidates {
		moving[c.BookingID] = struct{}{}
	}

	fixed := make([]domain.Booking, 0, len(schedule))
	for _, b := range schedule {
		if _, ok := moving[b.ID]; ok || !b.Active() {
			continue
		}
		fixed = append(fixed, b)
	}
	sort.SliceStable(fixed, func(i, j int) bool {
		if !fixed[i].Start.Equal(fixed[j].Start) {
			return fixed[i].Start.Before(fixed[j].Start)
		}
		return fixed[i].ID < fixed[j].ID
	})

	conflicts := []domain.Conflict{}
	for i, c := range candidates {
		if !c.End.After(c.Start) {
			conflicts = append(conflicts, domain.Conflict{
				BookingID: c.BookingID,
				Reason:    domain.ConflictReasonInvalidWindow,
				Message:   fmt.Sprintf("booking %d would end at or before its start", c.BookingID),
			})
			continue
		}
		if c.Start.Before(now) {
			conflicts = append(conflicts, domain.Conflict{
				BookingID: c.BookingID,
				Reason:    domain.ConflictReasonInPast,
				Message: fmt.Sprintf("booking %d would start at %s, which is in the past",
					c.BookingID, c.Start.Format(messageTimeLayout)),
			})
		}
		for _, b := range fixed {
			if b.ResourceID != c.ResourceID || !c.Overlaps(b.Window()) {
				continue
			}
			conflicts = append(conflicts, overlap(c, b.Window()))
		}
		for _, other := range candidates[i+1:] {
			if other.ResourceID != c.ResourceID || !other.End.After(other.Start) || !c.Overlaps(other) {
				continue
			}
			conflicts = append(conflicts, overlap(c, other))
		}
	}
	return conflicts
}

func overlap(c, with domain.Window) domain.Conflict {
	return domain.Conflict{
		BookingID:     c.BookingID,
		WithBookingID: with.BookingID,
		Reason:        domain.ConflictReasonOverlap,
		Message: fmt.Sprintf("booking %d at %s-%s would overlap booking %d at %s-%s",
			c.BookingID, c.Start.Format(messageTimeLayout), c.End.Format("15:04"),
			with.BookingID, with.Start.Format(messageTimeLayout), with.End.Format("15:04")),
	}
}
