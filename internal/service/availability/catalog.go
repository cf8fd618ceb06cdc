package availability

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

// Source is the external availability calendar. It must return an error
// rather than an empty result when it cannot answer.
type Source interface {
	ListOpenSlots(ctx context.Context, resourceIDs []int64, from, to time.Time, duration time.Duration) ([]domain.Slot, error)
}

// SlotQuery selects open slots in [From, To) long enough for Duration.
type SlotQuery struct {
	ResourceIDs []int64
	From        time.Time
	To          time.Time
	Duration    time.Duration
}

// Catalog turns raw source answers into one ordered stream of slots.
type Catalog struct {
	source Source
	loc    *time.Location
}

func NewCatalog(source Source, loc *time.Location) *Catalog {
	if loc == nil {
		loc = time.UTC
	}
	return &Catalog{source: source, loc: loc}
}

// Slots yields open slots ordered by day, start time and resource ref. The
// source is asked one calendar day at a time, so a consumer that stops early
// never triggers queries for later days. A source error is yielded once,
// unchanged, and ends the sequence.
func (c *Catalog) Slots(ctx context.Context, q SlotQuery) iter.Seq2[domain.Slot, error] {
	return func(yield func(domain.Slot, error) bool) {
		if err := q.validate(); err != nil {
			yield(domain.Slot{}, err)
			return
		}

		for day := startOfDay(q.From, c.loc); day.Before(q.To); day = day.AddDate(0, 0, 1) {
			if err := ctx.Err(); err != nil {
				yield(domain.Slot{}, err)
				return
			}

			lo, hi := day, day.AddDate(0, 0, 1)
			if lo.Before(q.From) {
				lo = q.From
			}
			if hi.After(q.To) {
				hi = q.To
			}

			raw, err := c.source.ListOpenSlots(ctx, q.ResourceIDs, lo, hi, q.Duration)
			if err != nil {
				yield(domain.Slot{}, err)
				return
			}
			for _, s := range normalize(raw, lo, hi, q.Duration) {
				if !yield(s, nil) {
					return
				}
			}
		}
	}
}

func (q SlotQuery) validate() error {
	switch {
	case len(q.ResourceIDs) == 0:
		return fmt.Errorf("%w: at least one resource is required", domain.ErrValidation)
	case q.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", domain.ErrValidation)
	case !q.To.After(q.From):
		return fmt.Errorf("%w: empty date range", domain.ErrValidation)
	}
	return nil
}

// normalize drops slots outside [lo, hi) or shorter than duration, collapses
// duplicates and sorts by start then resource ref. Kept slots carry exactly
// the requested duration.
func normalize(raw []domain.Slot, lo, hi time.Time, duration time.Duration) []domain.Slot {
	type key struct {
		ref   string
		start int64
	}
	seen := make(map[key]struct{}, len(raw))
	out := make([]domain.Slot, 0, len(raw))
	for _, s := range raw {
		if s.Duration < duration || s.Start.Before(lo) || !s.Start.Before(hi) {
			continue
		}
		k := key{ref: s.ResourceRef, start: s.Start.UnixNano()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		s.Duration = duration
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ResourceRef < out[j].ResourceRef
	})
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
