package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool, nil)
	assert.NotNil(t, repo)
	assert.Equal(t, time.UTC, repo.(*PGBookingRepository).loc)
}

func TestNewRepositories(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewResourceRepository(pool))
	assert.NotNil(t, NewServiceRepository(pool))
	assert.NotNil(t, NewAuditRepository(pool))
	assert.NotNil(t, NewAvailabilitySource(pool, AvailabilityOptions{}))
}

func TestTranslateError(t *testing.T) {
	overlap := &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"}
	assert.ErrorIs(t, translateError(overlap), ErrOverlapViolation)

	other := &pgconn.PgError{Code: "23505", ConstraintName: "bookings_pkey"}
	assert.Same(t, other, translateError(other))

	plain := errors.New("boom")
	assert.Equal(t, plain, translateError(plain))
	assert.NoError(t, translateError(nil))
	assert.NotErrorIs(t, translateError(plain), domain.ErrBookingNotFound)
}
