package reschedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

func window(id, resourceID int64, sh, sm, eh, em int) domain.Window {
	return domain.Window{BookingID: id, ResourceID: resourceID, Start: at(sh, sm), End: at(eh, em)}
}

func TestValidate_TouchingWindowsAreFine(t *testing.T) {
	schedule := []domain.Booking{booking(2, 1, at(10, 30), 30)}

	got := Validate(testNow, []domain.Window{window(1, 1, 10, 0, 10, 30)}, schedule)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestValidate_OverlapWithFixedBooking(t *testing.T) {
	schedule := []domain.Booking{booking(2, 1, at(11, 0), 30)}

	got := Validate(testNow, []domain.Window{window(1, 1, 10, 45, 11, 15)}, schedule)

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].BookingID)
	assert.Equal(t, int64(2), got[0].WithBookingID)
	assert.Equal(t, domain.ConflictReasonOverlap, got[0].Reason)
	assert.Contains(t, got[0].Message, "booking 2")
}

func TestValidate_MovingBookingsAreNotFixed(t *testing.T) {
	schedule := []domain.Booking{
		booking(1, 1, at(10, 0), 30),
		booking(2, 1, at(10, 30), 30),
	}
	candidates := []domain.Window{
		window(1, 1, 10, 15, 10, 45),
		window(2, 1, 10, 45, 11, 15),
	}

	assert.Empty(t, Validate(testNow, candidates, schedule))
}

func TestValidate_CandidatesOverlapEachOther(t *testing.T) {
	candidates := []domain.Window{
		window(1, 1, 10, 0, 10, 30),
		window(2, 1, 10, 15, 10, 45),
		window(3, 2, 10, 15, 10, 45),
	}

	got := Validate(testNow, candidates, nil)

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].BookingID)
	assert.Equal(t, int64(2), got[0].WithBookingID)
}

func TestValidate_IgnoresOtherResourcesAndInactiveBookings(t *testing.T) {
	cancelled := booking(3, 1, at(10, 0), 30)
	cancelled.Status = domain.BookingStatusCancelled
	schedule := []domain.Booking{booking(2, 2, at(10, 0), 30), cancelled}

	assert.Empty(t, Validate(testNow, []domain.Window{window(1, 1, 10, 0, 10, 30)}, schedule))
}

func TestValidate_InPast(t *testing.T) {
	got := Validate(at(12, 0), []domain.Window{window(1, 1, 11, 0, 11, 30)}, nil)

	require.Len(t, got, 1)
	assert.Equal(t, domain.ConflictReasonInPast, got[0].Reason)
	assert.Zero(t, got[0].WithBookingID)
}

func TestValidate_InvalidWindow(t *testing.T) {
	schedule := []domain.Booking{booking(2, 1, at(9, 0), 120)}

	got := Validate(testNow, []domain.Window{window(1, 1, 10, 0, 10, 0)}, schedule)

	require.Len(t, got, 1)
	assert.Equal(t, domain.ConflictReasonInvalidWindow, got[0].Reason)
}

func TestValidate_ReportsEveryConflict(t *testing.T) {
	schedule := []domain.Booking{
		booking(2, 1, at(10, 0), 30),
		booking(3, 1, at(10, 30), 30),
	}

	got := Validate(testNow, []domain.Window{window(1, 1, 10, 15, 10, 45)}, schedule)

	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].WithBookingID)
	assert.Equal(t, int64(3), got[1].WithBookingID)
}
