package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Domenick1991/barberbooking/internal/domain"
)

type ResourceRepository interface {
	// ListPooled returns the active resources open to "any barber" search.
	ListPooled(ctx context.Context) ([]domain.Resource, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Resource, error)
}

type PGResourceRepository struct {
	db *pgxpool.Pool
}

func NewResourceRepository(db *pgxpool.Pool) ResourceRepository {
	return &PGResourceRepository{db: db}
}

func (r *PGResourceRepository) ListPooled(ctx context.Context) ([]domain.Resource, error) {
	return r.list(ctx, `SELECT id, coalesce(external_id, ''), name, pooled, status FROM resources
		WHERE pooled AND status = 'active' ORDER BY id`)
}

func (r *PGResourceRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Resource, error) {
	return r.list(ctx, `SELECT id, coalesce(external_id, ''), name, pooled, status FROM resources
		WHERE id = ANY($1) ORDER BY id`, ids)
}

func (r *PGResourceRepository) list(ctx context.Context, sql string, args ...any) ([]domain.Resource, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resources := make([]domain.Resource, 0)
	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(&res.ID, &res.ExternalID, &res.Name, &res.Pooled, &res.Status); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

var _ ResourceRepository = (*PGResourceRepository)(nil)
