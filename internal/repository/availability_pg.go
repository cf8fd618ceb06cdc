package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

// AvailabilityOptions shapes the slots the Postgres availability source emits.
// Default hours apply to resources that have no working_hours rows at all.
type AvailabilityOptions struct {
	Location        *time.Location
	Step            time.Duration
	DefaultOpensAt  time.Duration
	DefaultClosesAt time.Duration
}

// PGAvailabilitySource derives open slots from working hours minus active
// bookings. Slots reference their resource by external calendar id when one
// is set, by decimal id otherwise.
type PGAvailabilitySource struct {
	db   *pgxpool.Pool
	opts AvailabilityOptions
}

func NewAvailabilitySource(db *pgxpool.Pool, opts AvailabilityOptions) *PGAvailabilitySource {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &PGAvailabilitySource{db: db, opts: opts}
}

type workingHours struct {
	opens  time.Duration
	closes time.Duration
}

type resourceCalendar struct {
	ref   string
	hours map[time.Weekday]workingHours
	busy  []domain.Window
}

func (s *PGAvailabilitySource) ListOpenSlots(ctx context.Context, resourceIDs []int64, from, to time.Time, duration time.Duration) ([]domain.Slot, error) {
	calendars, err := s.loadCalendars(ctx, resourceIDs, from, to)
	if err != nil {
		return nil, err
	}

	slots := make([]domain.Slot, 0)
	loc := s.opts.Location
	f := from.In(loc)
	for d := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, loc); d.Before(to); d = d.AddDate(0, 0, 1) {
		for _, id := range resourceIDs {
			cal, ok := calendars[id]
			if !ok {
				continue
			}
			wh, ok := s.hoursFor(cal, d.Weekday())
			if !ok {
				continue
			}
			open := atOffset(d, wh.opens)
			close := atOffset(d, wh.closes)
			lo, hi := open, close
			if lo.Before(from) {
				lo = from
			}
			if hi.After(to) {
				hi = to
			}
			if !hi.After(lo) {
				continue
			}
			for _, start := range cutSlots(subtractBusy(lo, hi, cal.busy), open, s.opts.Step, duration) {
				slots = append(slots, domain.Slot{ResourceRef: cal.ref, Start: start, Duration: duration})
			}
		}
	}
	return slots, nil
}

func (s *PGAvailabilitySource) hoursFor(cal *resourceCalendar, wd time.Weekday) (workingHours, bool) {
	if len(cal.hours) == 0 {
		return workingHours{opens: s.opts.DefaultOpensAt, closes: s.opts.DefaultClosesAt}, true
	}
	wh, ok := cal.hours[wd]
	return wh, ok && wh.closes > wh.opens
}

func (s *PGAvailabilitySource) loadCalendars(ctx context.Context, resourceIDs []int64, from, to time.Time) (map[int64]*resourceCalendar, error) {
	calendars := make(map[int64]*resourceCalendar, len(resourceIDs))

	rows, err := s.db.Query(ctx, `SELECT id, coalesce(external_id, '') FROM resources WHERE id = ANY($1) AND status = 'active'`, resourceIDs)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var ext string
		if err := rows.Scan(&id, &ext); err != nil {
			rows.Close()
			return nil, err
		}
		ref := ext
		if ref == "" {
			ref = strconv.FormatInt(id, 10)
		}
		calendars[id] = &resourceCalendar{ref: ref, hours: map[time.Weekday]workingHours{}}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `SELECT resource_id, weekday,
		extract(epoch FROM opens_at)::bigint, extract(epoch FROM closes_at)::bigint
		FROM working_hours WHERE resource_id = ANY($1)`, resourceIDs)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id, opens, closes int64
		var weekday int
		if err := rows.Scan(&id, &weekday, &opens, &closes); err != nil {
			rows.Close()
			return nil, err
		}
		if cal, ok := calendars[id]; ok {
			cal.hours[time.Weekday(weekday)] = workingHours{opens: time.Duration(opens) * time.Second, closes: time.Duration(closes) * time.Second}
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `SELECT id, resource_id, starts_at, ends_at FROM bookings
		WHERE resource_id = ANY($1) AND starts_at < $3 AND ends_at > $2 AND status IN ('pending', 'confirmed')`,
		resourceIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var w domain.Window
		if err := rows.Scan(&w.BookingID, &w.ResourceID, &w.Start, &w.End); err != nil {
			return nil, err
		}
		if cal, ok := calendars[w.ResourceID]; ok {
			cal.busy = append(cal.busy, w)
		}
	}
	return calendars, rows.Err()
}

func atOffset(day time.Time, offset time.Duration) time.Time {
	minutes := int(offset / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
}
