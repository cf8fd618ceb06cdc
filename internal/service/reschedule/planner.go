package reschedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/barberbooking/internal/domain"
	"github.com/Domenick1991/barberbooking/internal/repository"
)

// Planner computes what a reschedule would do without writing anything.
type Planner struct {
	loc     *time.Location
	ownStep time.Duration
	now     func() time.Time
}

type PlannerOption func(*Planner)

func WithPlannerClock(now func() time.Time) PlannerOption {
	return func(p *Planner) {
		p.now = now
	}
}

// NewPlanner returns a planner cutting calendar days in loc. ownStep is the
// grid used to offer alternative starts inside a booking's own window.
func NewPlanner(loc *time.Location, ownStep time.Duration, opts ...PlannerOption) *Planner {
	if loc == nil {
		loc = time.UTC
	}
	p := &Planner{loc: loc, ownStep: ownStep, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan builds a draft plan for req from what reader currently holds. Errors
// are domain errors; conflicts are reported on the plan, not as errors.
func (p *Planner) Plan(ctx context.Context, reader repository.BookingReader, req domain.PlanRequest) (*domain.ReschedulePlan, error) {
	if req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: booking id must be positive", domain.ErrValidation)
	}
	if req.NewStart.IsZero() {
		return nil, fmt.Errorf("%w: new start is required", domain.ErrValidation)
	}

	booking, err := reader.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil, err
		}
		return nil, domain.Upstream("booking store", err)
	}
	if !booking.Active() {
		return nil, fmt.Errorf("%w: booking %d is %s", domain.ErrBookingNotActive, booking.ID, booking.Status)
	}

	delta := req.NewStart.Sub(booking.Start)
	plan := &domain.ReschedulePlan{
		Request:      req,
		Booking:      *booking,
		NewStart:     req.NewStart,
		NewEnd:       req.NewStart.Add(booking.Duration()),
		Delta:        delta,
		Dependents:   []domain.DependentShift{},
		Alternatives: []domain.Window{},
		Conflicts:    []domain.Conflict{},
		State:        domain.PlanStateDraft,
	}

	onOrAfter := booking.Start
	if req.NewStart.Before(onOrAfter) {
		onOrAfter = req.NewStart
	}
	schedule, err := reader.GetActiveBookings(ctx, booking.ResourceID, onOrAfter)
	if err != nil {
		return nil, domain.Upstream("booking store", err)
	}

	if req.Cascade && delta != 0 {
		plan.Dependents = p.dependents(*booking, schedule, delta)
	}
	if delta != 0 {
		plan.Conflicts = Validate(p.now(), plan.Windows(), schedule)
	}
	plan.Valid = len(plan.Conflicts) == 0
	plan.Alternatives = p.alternatives(*booking, schedule)
	return plan, nil
}

// dependents are the later bookings of the same barber on the booking's
// calendar day. They keep their durations and move by delta.
func (p *Planner) dependents(target domain.Booking, schedule []domain.Booking, delta time.Duration) []domain.DependentShift {
	day := target.Start.In(p.loc).Format(domain.DayLayout)
	later := make([]domain.Booking, 0, len(schedule))
	for _, b := range schedule {
		if b.ID == target.ID || !b.Active() || b.ResourceID != target.ResourceID {
			continue
		}
		if !b.Start.After(target.Start) || b.Start.In(p.loc).Format(domain.DayLayout) != day {
			continue
		}
		later = append(later, b)
	}
	sort.SliceStable(later, func(i, j int) bool { return later[i].Start.Before(later[j].Start) })

	out := make([]domain.DependentShift, 0, len(later))
	for _, b := range later {
		out = append(out, domain.DependentShift{
			BookingID:     b.ID,
			OriginalStart: b.Start,
			OriginalEnd:   b.End,
			NewStart:      b.Start.Add(delta),
			NewEnd:        b.End.Add(delta),
		})
	}
	return out
}

// alternatives are starts on the ownStep grid strictly inside the booking's
// current window that fit without conflict. The booking's current position
// is not held against it.
func (p *Planner) alternatives(target domain.Booking, schedule []domain.Booking) []domain.Window {
	out := []domain.Window{}
	if p.ownStep <= 0 {
		return out
	}
	now := p.now()
	for start := target.Start.Add(p.ownStep); start.Before(target.End); start = start.Add(p.ownStep) {
		w := domain.Window{
			BookingID:  target.ID,
			ResourceID: target.ResourceID,
			Start:      start,
			End:        start.Add(target.Duration()),
		}
		if len(Validate(now, []domain.Window{w}, schedule)) == 0 {
			out = append(out, w)
		}
	}
	return out
}
