package domain

import "time"

// Window is a half-open [Start, End) interval a booking occupies or is
// proposed to occupy.
type Window struct {
	BookingID  int64
	ResourceID int64
	Start      time.Time
	End        time.Time
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether two windows share any instant. Touching endpoints
// do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

func (w Window) Shift(d time.Duration) Window {
	w.Start = w.Start.Add(d)
	w.End = w.End.Add(d)
	return w
}
