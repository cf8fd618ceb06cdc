package availability

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

type MockResourceRepository struct {
	mock.Mock
}

func (m *MockResourceRepository) ListPooled(ctx context.Context) ([]domain.Resource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Resource), args.Error(1)
}

func (m *MockResourceRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Resource, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Resource), args.Error(1)
}

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceRequirement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceRequirement), args.Error(1)
}

type MockSlotCache struct {
	mock.Mock
}

func (m *MockSlotCache) GetSlots(ctx context.Context, resourceID int64, day string, duration time.Duration) ([]domain.Slot, bool, error) {
	args := m.Called(ctx, resourceID, day, duration)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.Slot), args.Bool(1), args.Error(2)
}

func (m *MockSlotCache) SetSlots(ctx context.Context, resourceID int64, day string, duration time.Duration, slots []domain.Slot) error {
	args := m.Called(ctx, resourceID, day, duration, slots)
	return args.Error(0)
}

type sourceCall struct {
	ResourceIDs []int64
	From        time.Time
	To          time.Time
}

// fakeSource answers every query from a fixed list of slots and records the
// queries it received. Slots with a decimal ref are only reported for that
// resource id.
type fakeSource struct {
	mu    sync.Mutex
	slots []domain.Slot
	err   error
	calls []sourceCall
}

func (s *fakeSource) ListOpenSlots(_ context.Context, resourceIDs []int64, from, to time.Time, duration time.Duration) ([]domain.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sourceCall{ResourceIDs: resourceIDs, From: from, To: to})
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Slot
	for _, slot := range s.slots {
		if id, err := strconv.ParseInt(slot.ResourceRef, 10, 64); err == nil && !slices.Contains(resourceIDs, id) {
			continue
		}
		if !slot.Start.Before(from) && slot.Start.Before(to) && slot.Duration >= duration {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// day2030 returns hh:mm on 6 May 2030 plus the given number of days, in UTC.
func day2030(days, h, m int) time.Time {
	return time.Date(2030, time.May, 6+days, h, m, 0, 0, time.UTC)
}

func slot(ref string, start time.Time, minutes int) domain.Slot {
	return domain.Slot{ResourceRef: ref, Start: start, Duration: time.Duration(minutes) * time.Minute}
}
