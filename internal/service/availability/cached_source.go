package availability

import (
	"context"
	"time"

	"github.com/Domenick1991/barberbooking/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type SlotCache interface {
	GetSlots(ctx context.Context, resourceID int64, day string, duration time.Duration) ([]domain.Slot, bool, error)
	SetSlots(ctx context.Context, resourceID int64, day string, duration time.Duration, slots []domain.Slot) error
}

// CachedSource keeps whole-day answers of the inner source per resource.
// Cache failures degrade to a direct query; source failures are returned.
type CachedSource struct {
	inner  Source
	cache  SlotCache
	loc    *time.Location
	logger *zap.Logger
}

func NewCachedSource(inner Source, cache SlotCache, loc *time.Location, logger *zap.Logger) *CachedSource {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{inner: inner, cache: cache, loc: loc, logger: logger}
}

func (s *CachedSource) ListOpenSlots(ctx context.Context, resourceIDs []int64, from, to time.Time, duration time.Duration) ([]domain.Slot, error) {
	dayStart := startOfDay(from, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	if s.cache == nil || to.After(dayEnd) {
		return s.inner.ListOpenSlots(ctx, resourceIDs, from, to, duration)
	}
	day := dayStart.Format(domain.DayLayout)

	perResource := make([][]domain.Slot, len(resourceIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range resourceIDs {
		g.Go(func() error {
			slots, ok, err := s.cache.GetSlots(gctx, id, day, duration)
			if err != nil {
				s.logger.Warn("slot cache read failed",
					zap.Int64("resource_id", id), zap.String("day", day), zap.Error(err))
			}
			if !ok {
				slots, err = s.inner.ListOpenSlots(gctx, []int64{id}, dayStart, dayEnd, duration)
				if err != nil {
					return err
				}
				if err := s.cache.SetSlots(gctx, id, day, duration, slots); err != nil {
					s.logger.Warn("slot cache write failed",
						zap.Int64("resource_id", id), zap.String("day", day), zap.Error(err))
				}
			}
			perResource[i] = slots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Slot
	for _, slots := range perResource {
		for _, slot := range slots {
			if slot.Start.Before(from) || !slot.Start.Before(to) {
				continue
			}
			out = append(out, slot)
		}
	}
	return out, nil
}
