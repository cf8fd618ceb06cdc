package repository

import (
	"sort"
	"time"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

// subtractBusy returns the free windows of [open, close) left after removing
// the busy windows. Busy windows may be unsorted and may overlap.
func subtractBusy(open, close time.Time, busy []domain.Window) []domain.Window {
	if !close.After(open) {
		return nil
	}
	if len(busy) == 0 {
		return []domain.Window{{Start: open, End: close}}
	}

	sorted := append([]domain.Window(nil), busy...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := make([]domain.Window, 0, len(sorted))
	for _, s := range sorted {
		if !s.End.After(open) || !s.Start.Before(close) {
			continue
		}
		if s.Start.Before(open) {
			s.Start = open
		}
		if s.End.After(close) {
			s.End = close
		}

		if len(merged) == 0 {
			merged = append(merged, s)
			continue
		}
		last := &merged[len(merged)-1]
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
		} else {
			merged = append(merged, s)
		}
	}

	cur := open
	out := make([]domain.Window, 0, len(merged)+1)
	for _, b := range merged {
		if b.Start.After(cur) {
			out = append(out, domain.Window{Start: cur, End: b.Start})
		}
		if b.End.After(cur) {
			cur = b.End
		}
	}
	if cur.Before(close) {
		out = append(out, domain.Window{Start: cur, End: close})
	}
	return out
}

// cutSlots lays a grid of step starting at anchor over each free window and
// returns every grid start where a duration-long appointment still fits.
func cutSlots(free []domain.Window, anchor time.Time, step, duration time.Duration) []time.Time {
	if step <= 0 || duration <= 0 {
		return nil
	}
	starts := make([]time.Time, 0)
	for _, w := range free {
		start := anchor
		if w.Start.After(anchor) {
			offset := w.Start.Sub(anchor)
			steps := offset / step
			if offset%step != 0 {
				steps++
			}
			start = anchor.Add(steps * step)
		}
		for ; !start.Add(duration).After(w.End); start = start.Add(step) {
			starts = append(starts, start)
		}
	}
	return starts
}
