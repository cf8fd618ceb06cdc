package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

func TestCachedSource_Hit(t *testing.T) {
	inner := &fakeSource{}
	cache := &MockSlotCache{}
	cache.On("GetSlots", mock.Anything, int64(1), "2030-05-06", 30*time.Minute).
		Return([]domain.Slot{
			slot("1", day2030(0, 9, 0), 30),
			slot("1", day2030(0, 14, 0), 30),
		}, true, nil)

	s := NewCachedSource(inner, cache, time.UTC, nil)
	got, err := s.ListOpenSlots(context.Background(), []int64{1}, day2030(0, 12, 0), day2030(1, 0, 0), 30*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, []domain.Slot{slot("1", day2030(0, 14, 0), 30)}, got)
	assert.Zero(t, inner.callCount())
	cache.AssertExpectations(t)
}

func TestCachedSource_MissFillsWholeDay(t *testing.T) {
	inner := &fakeSource{slots: []domain.Slot{
		slot("1", day2030(0, 9, 0), 30),
		slot("2", day2030(0, 15, 0), 30),
	}}
	cache := &MockSlotCache{}
	cache.On("GetSlots", mock.Anything, mock.Anything, "2030-05-06", 30*time.Minute).Return(nil, false, nil)
	cache.On("SetSlots", mock.Anything, int64(1), "2030-05-06", 30*time.Minute, mock.Anything).Return(nil)
	cache.On("SetSlots", mock.Anything, int64(2), "2030-05-06", 30*time.Minute, mock.Anything).Return(nil)

	s := NewCachedSource(inner, cache, time.UTC, nil)
	got, err := s.ListOpenSlots(context.Background(), []int64{1, 2}, day2030(0, 12, 0), day2030(1, 0, 0), 30*time.Minute)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, inner.callCount())
	for _, call := range inner.calls {
		assert.Equal(t, day2030(0, 0, 0), call.From)
		assert.Equal(t, day2030(1, 0, 0), call.To)
	}
	cache.AssertExpectations(t)
}

func TestCachedSource_CacheFailureFallsBackToSource(t *testing.T) {
	inner := &fakeSource{slots: []domain.Slot{slot("1", day2030(0, 13, 0), 30)}}
	cache := &MockSlotCache{}
	cache.On("GetSlots", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(nil, false, errors.New("redis down"))
	cache.On("SetSlots", mock.Anything, int64(1), mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	s := NewCachedSource(inner, cache, time.UTC, nil)
	got, err := s.ListOpenSlots(context.Background(), []int64{1}, day2030(0, 8, 0), day2030(1, 0, 0), 30*time.Minute)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCachedSource_SourceFailure(t *testing.T) {
	boom := errors.New("calendar down")
	cache := &MockSlotCache{}
	cache.On("GetSlots", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, false, nil)

	s := NewCachedSource(&fakeSource{err: boom}, cache, time.UTC, nil)
	_, err := s.ListOpenSlots(context.Background(), []int64{1, 2}, day2030(0, 8, 0), day2030(1, 0, 0), 30*time.Minute)

	assert.ErrorIs(t, err, boom)
	cache.AssertNotCalled(t, "SetSlots", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedSource_MultiDayRangeBypassesCache(t *testing.T) {
	inner := &fakeSource{}
	cache := &MockSlotCache{}

	s := NewCachedSource(inner, cache, time.UTC, nil)
	_, err := s.ListOpenSlots(context.Background(), []int64{1}, day2030(0, 8, 0), day2030(2, 0, 0), 30*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, 1, inner.callCount())
	cache.AssertNotCalled(t, "GetSlots", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
