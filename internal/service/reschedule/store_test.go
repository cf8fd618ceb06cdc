package reschedule

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Domenick1991/barberbooking/internal/domain"
	"github.com/Domenick1991/barberbooking/internal/repository"
)

// memStore is an in-memory booking store with transactional rollback. InTx
// runs one transaction at a time.
type memStore struct {
	mu        sync.Mutex
	bookings  map[int64]domain.Booking
	readErr   error
	updateErr map[int64]error
	commitErr error
	beforeTx  func(s *memStore)
	lockKeys  [][]string
	writes    int
}

func newMemStore(bookings ...domain.Booking) *memStore {
	s := &memStore{bookings: map[int64]domain.Booking{}, updateErr: map[int64]error{}}
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
	return s
}

func (s *memStore) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *memStore) GetActiveBookings(_ context.Context, resourceID int64, onOrAfter time.Time) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active(resourceID, onOrAfter)
}

func (s *memStore) InTx(ctx context.Context, lockKeys []string, fn func(ctx context.Context, tx repository.BookingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lockKeys = append(s.lockKeys, lockKeys)
	if s.beforeTx != nil {
		s.beforeTx(s)
	}

	snapshot := maps.Clone(s.bookings)
	writes := s.writes
	err := fn(ctx, &memTx{s: s})
	if err == nil {
		err = s.commitErr
	}
	if err != nil {
		s.bookings = snapshot
		s.writes = writes
	}
	return err
}

func (s *memStore) get(id int64) (*domain.Booking, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}

func (s *memStore) active(resourceID int64, onOrAfter time.Time) ([]domain.Booking, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.ResourceID == resourceID && b.Active() && b.End.After(onOrAfter) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// all returns every booking ordered by id.
func (s *memStore) all() []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) put(b domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b
}

type memTx struct {
	s *memStore
}

func (t *memTx) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	return t.s.get(id)
}

func (t *memTx) GetActiveBookings(_ context.Context, resourceID int64, onOrAfter time.Time) ([]domain.Booking, error) {
	return t.s.active(resourceID, onOrAfter)
}

func (t *memTx) UpdateBookingWindow(_ context.Context, id int64, start, end time.Time) error {
	if err := t.s.updateErr[id]; err != nil {
		return err
	}
	b, ok := t.s.bookings[id]
	if !ok || !b.Active() {
		return domain.ErrBookingNotFound
	}
	b.Start, b.End = start, end
	b.Day = start.UTC().Format(domain.DayLayout)
	t.s.bookings[id] = b
	t.s.writes++
	return nil
}

var _ repository.BookingRepository = (*memStore)(nil)

type MockDayLocker struct {
	mock.Mock
}

func (m *MockDayLocker) AcquireDayLock(ctx context.Context, resourceID int64, day string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, resourceID, day, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockDayLocker) ReleaseDayLock(ctx context.Context, resourceID int64, day, token string) error {
	args := m.Called(ctx, resourceID, day, token)
	return args.Error(0)
}

type MockSlotInvalidator struct {
	mock.Mock
}

func (m *MockSlotInvalidator) InvalidateDay(ctx context.Context, resourceID int64, day string) error {
	args := m.Called(ctx, resourceID, day)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// at returns hh:mm on 6 May 2030 UTC.
func at(h, m int) time.Time {
	return time.Date(2030, time.May, 6, h, m, 0, 0, time.UTC)
}

var testNow = at(8, 0)

func clock() time.Time {
	return testNow
}

func booking(id, resourceID int64, start time.Time, minutes int) domain.Booking {
	return domain.Booking{
		ID:           id,
		ResourceID:   resourceID,
		CustomerName: "customer",
		Start:        start,
		End:          start.Add(time.Duration(minutes) * time.Minute),
		Status:       domain.BookingStatusConfirmed,
		Day:          start.Format(domain.DayLayout),
	}
}

func newTestPlanner() *Planner {
	return NewPlanner(time.UTC, 15*time.Minute, WithPlannerClock(clock))
}
