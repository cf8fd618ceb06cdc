package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2030, 5, 6, h, m, 0, 0, time.UTC)
}

func TestWindow_Overlaps(t *testing.T) {
	base := Window{Start: at(10, 0), End: at(10, 30)}

	testCases := []struct {
		name  string
		other Window
		want  bool
	}{
		{"identical", Window{Start: at(10, 0), End: at(10, 30)}, true},
		{"touching after", Window{Start: at(10, 30), End: at(11, 0)}, false},
		{"touching before", Window{Start: at(9, 30), End: at(10, 0)}, false},
		{"inside", Window{Start: at(10, 10), End: at(10, 20)}, true},
		{"straddles start", Window{Start: at(9, 45), End: at(10, 15)}, true},
		{"disjoint", Window{Start: at(12, 0), End: at(12, 30)}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base))
		})
	}
}

func TestWindow_Shift(t *testing.T) {
	w := Window{Start: at(10, 0), End: at(10, 30)}.Shift(-15 * time.Minute)
	assert.Equal(t, at(9, 45), w.Start)
	assert.Equal(t, 30*time.Minute, w.Duration())
}

func TestReschedulePlan_AffectedBookingIDs(t *testing.T) {
	plan := &ReschedulePlan{
		Booking:    Booking{ID: 1},
		Delta:      15 * time.Minute,
		Dependents: []DependentShift{{BookingID: 2}, {BookingID: 3}},
	}
	assert.Equal(t, []int64{1, 2, 3}, plan.AffectedBookingIDs())

	plan.Delta = 0
	assert.Empty(t, plan.AffectedBookingIDs())
}

func TestUpstream(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Upstream("availability source", cause)

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, err, Upstream("booking store", err))
	assert.NoError(t, Upstream("x", nil))
}
