package domain

import "time"

// PlanRequest asks to move one booking to NewStart, optionally cascading the
// same shift to the later bookings of that barber on the same day. It is a
// value object and is passed unchanged through preview and commit.
type PlanRequest struct {
	BookingID int64
	NewStart  time.Time
	Cascade   bool
}

type PlanState string

const (
	PlanStateDraft     PlanState = "draft"
	PlanStatePreviewed PlanState = "previewed"
	PlanStateCommitted PlanState = "committed"
	PlanStateAbandoned PlanState = "abandoned"
)

type ConflictReason string

const (
	ConflictReasonOverlap       ConflictReason = "overlap"
	ConflictReasonInPast        ConflictReason = "in_past"
	ConflictReasonInvalidWindow ConflictReason = "invalid_window"
)

// Conflict explains why a proposed window cannot be applied. WithBookingID is
// zero when the conflict does not involve a second booking.
type Conflict struct {
	BookingID     int64
	WithBookingID int64
	Reason        ConflictReason
	Message       string
}

type DependentShift struct {
	BookingID     int64
	OriginalStart time.Time
	OriginalEnd   time.Time
	NewStart      time.Time
	NewEnd        time.Time
}

func (d DependentShift) Proposed(resourceID int64) Window {
	return Window{BookingID: d.BookingID, ResourceID: resourceID, Start: d.NewStart, End: d.NewEnd}
}

type ReschedulePlan struct {
	Request      PlanRequest
	Booking      Booking
	NewStart     time.Time
	NewEnd       time.Time
	Delta        time.Duration
	Dependents   []DependentShift
	Alternatives []Window
	Valid        bool
	Conflicts    []Conflict
	State        PlanState
}

// Windows returns every proposed window of the plan, target first.
func (p *ReschedulePlan) Windows() []Window {
	out := make([]Window, 0, len(p.Dependents)+1)
	out = append(out, Window{BookingID: p.Booking.ID, ResourceID: p.Booking.ResourceID, Start: p.NewStart, End: p.NewEnd})
	for _, d := range p.Dependents {
		out = append(out, d.Proposed(p.Booking.ResourceID))
	}
	return out
}

// AffectedBookingIDs lists the bookings a commit of this plan writes.
func (p *ReschedulePlan) AffectedBookingIDs() []int64 {
	if p.Delta == 0 {
		return []int64{}
	}
	ids := make([]int64, 0, len(p.Dependents)+1)
	ids = append(ids, p.Booking.ID)
	for _, d := range p.Dependents {
		ids = append(ids, d.BookingID)
	}
	return ids
}

type CommitResult struct {
	Success            bool
	AffectedBookingIDs []int64
	Conflicts          []Conflict
	Plan               *ReschedulePlan
}
