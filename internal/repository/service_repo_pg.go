package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

type ServiceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.ServiceRequirement, error)
}

type PGServiceRepository struct {
	db *pgxpool.Pool
}

func NewServiceRepository(db *pgxpool.Pool) ServiceRepository {
	return &PGServiceRepository{db: db}
}

func (r *PGServiceRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceRequirement, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, duration_minutes FROM services WHERE id=$1`, id)
	var s domain.ServiceRequirement
	if err := row.Scan(&s.ID, &s.Name, &s.DurationMinutes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

var _ ServiceRepository = (*PGServiceRepository)(nil)
