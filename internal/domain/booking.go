package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// DayLayout is the format of Booking.Day and of the day part of lock keys.
const DayLayout = "2006-01-02"

type Booking struct {
	ID           int64
	ResourceID   int64
	CustomerName string
	Start        time.Time
	End          time.Time
	Status       BookingStatus
	Day          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the booking still occupies its window.
func (b Booking) Active() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

func (b Booking) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

func (b Booking) Window() Window {
	return Window{BookingID: b.ID, ResourceID: b.ResourceID, Start: b.Start, End: b.End}
}

// DayLockKey names the lock serialising schedule changes of one barber on one day.
func DayLockKey(resourceID int64, day string) string {
	return fmt.Sprintf("resource:%d:day:%s", resourceID, day)
}
