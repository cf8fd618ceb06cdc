package reschedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Domenick1991/barberbooking/internal/domain"
	"github.com/Domenick1991/barberbooking/internal/kafka"
	"github.com/Domenick1991/barberbooking/internal/metrics"
	"github.com/Domenick1991/barberbooking/internal/repository"
)

type RescheduleUseCase interface {
	Preview(ctx context.Context, req domain.PlanRequest) (*domain.ReschedulePlan, error)
	Commit(ctx context.Context, req domain.PlanRequest) (*domain.CommitResult, error)
}

// DayLocker is a short-lived lock on one barber's day shared by all
// instances. It only keeps concurrent commits from piling onto the database.
// Release must present the token returned by the matching acquire.
type DayLocker interface {
	AcquireDayLock(ctx context.Context, resourceID int64, day string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseDayLock(ctx context.Context, resourceID int64, day, token string) error
}

type SlotInvalidator interface {
	InvalidateDay(ctx context.Context, resourceID int64, day string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type RescheduleService struct {
	bookings    repository.BookingRepository
	planner     *Planner
	locker      DayLocker
	lockTTL     time.Duration
	invalidator SlotInvalidator
	producer    Producer
	topic       string
	loc         *time.Location
	now         func() time.Time
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

type Option func(*RescheduleService)

func WithDayLocker(locker DayLocker, ttl time.Duration) Option {
	return func(s *RescheduleService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithSlotInvalidator(invalidator SlotInvalidator) Option {
	return func(s *RescheduleService) {
		s.invalidator = invalidator
	}
}

// WithEvents publishes one event per commit attempt to topic.
func WithEvents(producer Producer, topic string) Option {
	return func(s *RescheduleService) {
		s.producer = producer
		s.topic = topic
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *RescheduleService) {
		s.now = now
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *RescheduleService) {
		s.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *RescheduleService) {
		s.metrics = m
	}
}

func NewRescheduleService(bookings repository.BookingRepository, planner *Planner, opts ...Option) *RescheduleService {
	s := &RescheduleService{
		bookings: bookings,
		planner:  planner,
		loc:      planner.loc,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errPlanRejected rolls back a commit whose fresh plan has conflicts.
var errPlanRejected = errors.New("plan rejected")

// Preview plans req against the current schedule. It writes nothing, so
// repeating it against an unchanged schedule yields an equal plan.
func (s *RescheduleService) Preview(ctx context.Context, req domain.PlanRequest) (*domain.ReschedulePlan, error) {
	plan, err := s.planner.Plan(ctx, s.bookings, req)
	if err != nil {
		return nil, err
	}
	plan.State = domain.PlanStatePreviewed
	s.metrics.ObservePreview(plan.Conflicts)
	return plan, nil
}

// Commit re-plans req inside one transaction and applies it only if the
// fresh plan is still valid. Nothing from an earlier preview is reused.
func (s *RescheduleService) Commit(ctx context.Context, req domain.PlanRequest) (*domain.CommitResult, error) {
	if req.BookingID <= 0 || req.NewStart.IsZero() {
		return nil, fmt.Errorf("%w: booking id and new start are required", domain.ErrValidation)
	}
	// The lock set comes from a plan against the unlocked schedule. The plan
	// made under the locks must not touch any other day.
	draft, err := s.planner.Plan(ctx, s.bookings, req)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return nil, s.failed(err)
		}
		return nil, err
	}
	resourceID := draft.Booking.ResourceID

	days := s.planDays(draft)
	release, err := s.lockDaysOf(ctx, resourceID, days)
	if err != nil {
		return nil, s.failed(err)
	}
	defer release()

	keys := make([]string, 0, len(days))
	for _, day := range days {
		keys = append(keys, domain.DayLockKey(resourceID, day))
	}

	var plan *domain.ReschedulePlan
	err = s.bookings.InTx(ctx, keys, func(ctx context.Context, tx repository.BookingTx) error {
		p, err := s.planner.Plan(ctx, tx, req)
		if err != nil {
			return err
		}
		plan = p
		if p.Booking.ResourceID != resourceID || !coversDays(days, s.planDays(p)) {
			return domain.ErrScheduleBusy
		}
		if !p.Valid {
			return errPlanRejected
		}
		if p.Delta == 0 {
			return nil
		}
		for _, w := range p.Windows() {
			if err := tx.UpdateBookingWindow(ctx, w.BookingID, w.Start, w.End); err != nil {
				return fmt.Errorf("move booking %d: %w", w.BookingID, err)
			}
		}
		return nil
	})

	switch {
	case err == nil:
		plan.State = domain.PlanStateCommitted
		result := &domain.CommitResult{
			Success:            true,
			AffectedBookingIDs: plan.AffectedBookingIDs(),
			Conflicts:          []domain.Conflict{},
			Plan:               plan,
		}
		s.invalidate(ctx, plan)
		s.finish(ctx, result, "committed")
		return result, nil

	case errors.Is(err, errPlanRejected):
		return s.reject(ctx, plan, plan.Conflicts), nil

	case errors.Is(err, repository.ErrOverlapViolation):
		plan.Valid = false
		return s.reject(ctx, plan, []domain.Conflict{{
			BookingID: plan.Booking.ID,
			Reason:    domain.ConflictReasonOverlap,
			Message:   fmt.Sprintf("booking %d: the schedule changed while this reschedule was being applied", plan.Booking.ID),
		}}), nil

	default:
		return nil, s.failed(storeError(err))
	}
}

func (s *RescheduleService) reject(ctx context.Context, plan *domain.ReschedulePlan, conflicts []domain.Conflict) *domain.CommitResult {
	plan.State = domain.PlanStateAbandoned
	plan.Conflicts = conflicts
	result := &domain.CommitResult{
		Success:            false,
		AffectedBookingIDs: []int64{},
		Conflicts:          conflicts,
		Plan:               plan,
	}
	s.finish(ctx, result, "rejected")
	return result
}

func (s *RescheduleService) finish(ctx context.Context, result *domain.CommitResult, outcome string) {
	s.metrics.ObserveCommit(outcome, result.Conflicts)
	s.logger.Info("reschedule commit",
		zap.Int64("booking_id", result.Plan.Booking.ID),
		zap.String("outcome", outcome),
		zap.Duration("delta", result.Plan.Delta),
		zap.Int64s("affected_booking_ids", result.AffectedBookingIDs),
		zap.Int("conflicts", len(result.Conflicts)),
	)

	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.NewRescheduleEvent(result, s.now())
	if err := s.producer.Publish(ctx, s.topic, event.Key(), event); err != nil {
		s.logger.Warn("failed to publish reschedule event",
			zap.String("event_id", event.ID), zap.String("type", event.Type), zap.Error(err))
	}
}

func (s *RescheduleService) failed(err error) error {
	s.metrics.ObserveCommit("failed", nil)
	return err
}

// lockDaysOf takes the shared day locks in order and returns a func releasing
// them. A lock held elsewhere yields domain.ErrScheduleBusy.
func (s *RescheduleService) lockDaysOf(ctx context.Context, resourceID int64, days []string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	type heldLock struct {
		day   string
		token string
	}
	var held []heldLock
	release := func() {
		for _, l := range held {
			if err := s.locker.ReleaseDayLock(context.WithoutCancel(ctx), resourceID, l.day, l.token); err != nil {
				s.logger.Warn("failed to release day lock",
					zap.Int64("resource_id", resourceID), zap.String("day", l.day), zap.Error(err))
			}
		}
	}
	for _, day := range days {
		token, ok, err := s.locker.AcquireDayLock(ctx, resourceID, day, s.lockTTL)
		if err != nil {
			release()
			return nil, domain.Upstream("day lock", err)
		}
		if !ok {
			release()
			return nil, domain.ErrScheduleBusy
		}
		held = append(held, heldLock{day: day, token: token})
	}
	return release, nil
}

// invalidate drops cached open slots of every day the commit touched.
func (s *RescheduleService) invalidate(ctx context.Context, plan *domain.ReschedulePlan) {
	if s.invalidator == nil || plan.Delta == 0 {
		return
	}
	for _, day := range s.planDays(plan) {
		if err := s.invalidator.InvalidateDay(ctx, plan.Booking.ResourceID, day); err != nil {
			s.logger.Warn("failed to invalidate slot cache",
				zap.Int64("resource_id", plan.Booking.ResourceID), zap.String("day", day), zap.Error(err))
		}
	}
}

// planDays returns the sorted distinct days occupied by every window the
// plan reads or writes, before and after the move.
func (s *RescheduleService) planDays(plan *domain.ReschedulePlan) []string {
	seen := map[string]struct{}{}
	add := func(start, end time.Time) {
		seen[s.dayOf(start)] = struct{}{}
		if end.After(start) {
			seen[s.dayOf(end.Add(-time.Nanosecond))] = struct{}{}
		}
	}
	add(plan.Booking.Start, plan.Booking.End)
	for _, w := range plan.Windows() {
		add(w.Start, w.End)
	}
	for _, d := range plan.Dependents {
		add(d.OriginalStart, d.OriginalEnd)
	}

	days := make([]string, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

func (s *RescheduleService) dayOf(t time.Time) string {
	return t.In(s.loc).Format(domain.DayLayout)
}

// coversDays reports whether every day of want is in the sorted locked set.
func coversDays(locked, want []string) bool {
	for _, day := range want {
		i := sort.SearchStrings(locked, day)
		if i == len(locked) || locked[i] != day {
			return false
		}
	}
	return true
}

// storeError keeps domain errors and marks everything else as a store outage.
func storeError(err error) error {
	for _, known := range []error{
		domain.ErrBookingNotFound,
		domain.ErrBookingNotActive,
		domain.ErrValidation,
		domain.ErrScheduleBusy,
		domain.ErrUpstreamUnavailable,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return domain.Upstream("booking store", err)
}

var _ RescheduleUseCase = (*RescheduleService)(nil)
