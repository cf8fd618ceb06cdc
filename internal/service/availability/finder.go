package availability

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/Domenick1991/barberbooking/config"
	"github.com/Domenick1991/barberbooking/internal/domain"
	"github.com/Domenick1991/barberbooking/internal/metrics"
	"github.com/Domenick1991/barberbooking/internal/repository"
	"go.uber.org/zap"
)

// Finder answers "what is the earliest open slot for this service among
// these barbers".
type Finder struct {
	catalog   *Catalog
	resources repository.ResourceRepository
	horizon   time.Duration
	fallback  string
	intN      func(n int) int
	now       func() time.Time
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

type FinderOption func(*Finder)

// WithFallback selects what happens when the availability source fails:
// config.FallbackRandomResource or config.FallbackError.
func WithFallback(policy string) FinderOption {
	return func(f *Finder) {
		f.fallback = policy
	}
}

// WithRandom replaces the generator used to pick the degraded resource.
func WithRandom(r *rand.Rand) FinderOption {
	return func(f *Finder) {
		f.intN = r.IntN
	}
}

func WithClock(now func() time.Time) FinderOption {
	return func(f *Finder) {
		f.now = now
	}
}

func WithLogger(l *zap.Logger) FinderOption {
	return func(f *Finder) {
		f.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) FinderOption {
	return func(f *Finder) {
		f.metrics = m
	}
}

func NewFinder(catalog *Catalog, resources repository.ResourceRepository, horizon time.Duration, opts ...FinderOption) *Finder {
	f := &Finder{
		catalog:   catalog,
		resources: resources,
		horizon:   horizon,
		fallback:  config.FallbackRandomResource,
		intN:      rand.IntN,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindEarliest returns the first slot of the catalog whose resource ref maps
// to an eligible resource. An empty eligibleIDs means every pooled barber.
func (f *Finder) FindEarliest(ctx context.Context, svc domain.ServiceRequirement, eligibleIDs []int64) (*domain.EarliestSlotResult, error) {
	if svc.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: service %d has no duration", domain.ErrValidation, svc.ID)
	}

	pool, err := f.pool(ctx, eligibleIDs)
	if err != nil {
		if isContextError(err) {
			return nil, err
		}
		return nil, domain.Upstream("resource repository", err)
	}
	if len(pool) == 0 {
		return f.done(&domain.EarliestSlotResult{Outcome: domain.SearchOutcomeNotFound}), nil
	}

	index := newResourceIndex(pool)
	now := f.now()
	query := SlotQuery{
		ResourceIDs: index.ids,
		From:        now,
		To:          now.Add(f.horizon),
		Duration:    svc.Duration(),
	}

	for slot, err := range f.catalog.Slots(ctx, query) {
		if err != nil {
			return f.degrade(pool, err)
		}
		res, ok := index.resolve(slot.ResourceRef)
		if !ok {
			f.logger.Debug("skipping slot of unknown resource", zap.String("resource_ref", slot.ResourceRef))
			continue
		}
		return f.done(&domain.EarliestSlotResult{
			Outcome:  domain.SearchOutcomeFound,
			Slot:     &slot,
			Resource: &res,
		}), nil
	}

	return f.done(&domain.EarliestSlotResult{Outcome: domain.SearchOutcomeNotFound}), nil
}

func (f *Finder) pool(ctx context.Context, eligibleIDs []int64) ([]domain.Resource, error) {
	if len(eligibleIDs) == 0 {
		return f.resources.ListPooled(ctx)
	}
	listed, err := f.resources.ListByIDs(ctx, eligibleIDs)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Resource, 0, len(listed))
	for _, r := range listed {
		if r.Active() {
			active = append(active, r)
		}
	}
	return active, nil
}

func (f *Finder) degrade(pool []domain.Resource, cause error) (*domain.EarliestSlotResult, error) {
	if isContextError(cause) || errors.Is(cause, domain.ErrValidation) {
		return nil, cause
	}
	if f.fallback == config.FallbackError {
		f.metrics.ObserveSearch("error")
		return nil, domain.Upstream("availability source", cause)
	}

	picked := pool[f.intN(len(pool))]
	f.logger.Warn("availability source failed, assigning random resource",
		zap.Int64("resource_id", picked.ID), zap.Error(cause))
	return f.done(&domain.EarliestSlotResult{
		Outcome:  domain.SearchOutcomeDegraded,
		Resource: &picked,
	}), nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (f *Finder) done(res *domain.EarliestSlotResult) *domain.EarliestSlotResult {
	f.metrics.ObserveSearch(res.Outcome)
	return res
}

// resourceIndex maps a slot's resource ref back to a resource. A ref is
// tried as a decimal id first and as an external calendar id second.
type resourceIndex struct {
	ids        []int64
	byID       map[string]domain.Resource
	byExternal map[string]domain.Resource
}

func newResourceIndex(pool []domain.Resource) resourceIndex {
	idx := resourceIndex{
		ids:        make([]int64, 0, len(pool)),
		byID:       make(map[string]domain.Resource, len(pool)),
		byExternal: make(map[string]domain.Resource, len(pool)),
	}
	for _, r := range pool {
		idx.ids = append(idx.ids, r.ID)
		idx.byID[strconv.FormatInt(r.ID, 10)] = r
		if r.ExternalID != "" {
			idx.byExternal[r.ExternalID] = r
		}
	}
	return idx
}

func (idx resourceIndex) resolve(ref string) (domain.Resource, bool) {
	if r, ok := idx.byID[ref]; ok {
		return r, true
	}
	r, ok := idx.byExternal[ref]
	return r, ok
}
