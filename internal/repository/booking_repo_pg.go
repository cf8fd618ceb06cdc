package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// GetActiveBookings returns the active bookings of a resource whose end is
	// after onOrAfter, ordered by start.
	GetActiveBookings(ctx context.Context, resourceID int64, onOrAfter time.Time) ([]domain.Booking, error)
}

// BookingTx is the view of the booking store inside one transaction. Reads
// lock the returned rows until the transaction ends.
type BookingTx interface {
	BookingReader
	UpdateBookingWindow(ctx context.Context, id int64, start, end time.Time) error
}

type BookingRepository interface {
	BookingReader
	// InTx runs fn in a single transaction holding an advisory lock for every
	// key. Any error returned by fn rolls back all writes.
	InTx(ctx context.Context, lockKeys []string, fn func(ctx context.Context, tx BookingTx) error) error
}

type PGBookingRepository struct {
	db  *pgxpool.Pool
	loc *time.Location
}

// NewBookingRepository returns the Postgres booking store. loc is the shop
// time zone used to derive each booking's calendar day.
func NewBookingRepository(db *pgxpool.Pool, loc *time.Location) BookingRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &PGBookingRepository{db: db, loc: loc}
}

const bookingColumns = `id, resource_id, customer_name, starts_at, ends_at, status, to_char(day, 'YYYY-MM-DD'), created_at, updated_at`

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return getBooking(ctx, r.db, id, false)
}

func (r *PGBookingRepository) GetActiveBookings(ctx context.Context, resourceID int64, onOrAfter time.Time) ([]domain.Booking, error) {
	return activeBookings(ctx, r.db, resourceID, onOrAfter, false)
}

func (r *PGBookingRepository) InTx(ctx context.Context, lockKeys []string, fn func(ctx context.Context, tx BookingTx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Sorted order keeps two transactions locking overlapping key sets from
	// deadlocking each other.
	keys := append([]string(nil), lockKeys...)
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
	}

	if err := fn(ctx, &pgBookingTx{tx: tx, loc: r.loc}); err != nil {
		return err
	}
	return translateError(tx.Commit(ctx))
}

type pgBookingTx struct {
	tx  pgx.Tx
	loc *time.Location
}

func (t *pgBookingTx) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return getBooking(ctx, t.tx, id, true)
}

func (t *pgBookingTx) GetActiveBookings(ctx context.Context, resourceID int64, onOrAfter time.Time) ([]domain.Booking, error) {
	return activeBookings(ctx, t.tx, resourceID, onOrAfter, true)
}

func (t *pgBookingTx) UpdateBookingWindow(ctx context.Context, id int64, start, end time.Time) error {
	cmd, err := t.tx.Exec(ctx, `
        UPDATE bookings
        SET starts_at = $1,
            ends_at = $2,
            day = $3::date,
            updated_at = now()
        WHERE id = $4
        AND status IN ('pending', 'confirmed')
    `, start, end, start.In(t.loc).Format(domain.DayLayout), id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update booking %d: %w", id, domain.ErrBookingNotFound)
	}
	return nil
}

func getBooking(ctx context.Context, q querier, id int64, forUpdate bool) (*domain.Booking, error) {
	sql := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=$1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	b, err := scanBooking(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func activeBookings(ctx context.Context, q querier, resourceID int64, onOrAfter time.Time, forUpdate bool) ([]domain.Booking, error) {
	sql := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE resource_id=$1 AND ends_at > $2 AND status IN ('pending', 'confirmed')
		ORDER BY starts_at, id`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	rows, err := q.Query(ctx, sql, resourceID, onOrAfter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.ResourceID, &b.CustomerName, &b.Start, &b.End, &b.Status, &b.Day, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
var _ BookingTx = (*pgBookingTx)(nil)
