package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventticketing/internal/domain"
)

const resourceColumns = `id, name, type, description, location, total_capacity, available_capacity, status, allocated_to, created_at, updated_at`

// reserveResourceQuery takes the whole venue or quantity units of equipment in
// one conditional write. $3 is the venue type tag set.
const reserveResourceQuery = `
	UPDATE resources SET
		available_capacity = CASE WHEN lower(type) = ANY($3) THEN 0 ELSE available_capacity - $2 END,
		status = CASE WHEN lower(type) = ANY($3) OR available_capacity - $2 = 0 THEN 'allocated' ELSE 'available' END,
		allocated_to = CASE WHEN lower(type) = ANY($3) THEN $4::uuid ELSE allocated_to END,
		updated_at = NOW()
	WHERE id = $1
		AND CASE WHEN lower(type) = ANY($3) THEN status = 'available' ELSE $2 > 0 AND available_capacity >= $2 END
	RETURNING ` + resourceColumns

// releaseResourceQuery restores capacity, never above the total.
const releaseResourceQuery = `
	UPDATE resources SET
		available_capacity = CASE WHEN lower(type) = ANY($3) THEN total_capacity ELSE LEAST(available_capacity + $2, total_capacity) END,
		status = CASE WHEN lower(type) = ANY($3) OR LEAST(available_capacity + $2, total_capacity) > 0 THEN 'available' ELSE status END,
		allocated_to = NULL,
		updated_at = NOW()
	WHERE id = $1
	RETURNING ` + resourceColumns

type resourceRepository struct {
	DB *sql.DB
}

func NewResourceRepository(db *sql.DB) domain.ResourceRepository {
	return &resourceRepository{
		DB: db,
	}
}

func scanResource(s scanner) (*domain.Resource, error) {
	r := &domain.Resource{}
	var desc, loc, allocatedTo sql.NullString
	var status string
	if err := s.Scan(&r.ID, &r.Name, &r.Type, &desc, &loc, &r.TotalCapacity, &r.AvailableCapacity,
		&status, &allocatedTo, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Description = stringPtr(desc)
	r.Location = stringPtr(loc)
	r.AllocatedTo = stringPtr(allocatedTo)
	r.Status = domain.ResourceStatus(status)
	r.Kind = domain.KindOf(r.Type)
	return r, nil
}

func (r *resourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	query := `
		INSERT INTO resources (name, type, description, location, total_capacity, available_capacity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, res.Name, res.Type, nullString(res.Description), nullString(res.Location),
		res.TotalCapacity, res.AvailableCapacity, string(res.Status), res.CreatedAt, res.UpdatedAt).Scan(&res.ID)
}

func (r *resourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	res, err := scanResource(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *resourceRepository) List(ctx context.Context, onlyAvailable bool) ([]*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE ($1 = FALSE OR status = 'available') ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, query, onlyAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	resources := make([]*domain.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *resourceRepository) Update(ctx context.Context, id string, u *domain.ResourceUpdate) (*domain.Resource, error) {
	query := `
		UPDATE resources SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			location = COALESCE($4, location),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + resourceColumns
	res, err := scanResource(r.DB.QueryRowContext(ctx, query, id, nullString(u.Name), nullString(u.Description), nullString(u.Location)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *resourceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// reserveResource and releaseResource only run inside allocation ledger
// transactions, so every capacity change has a matching ledger row.
func reserveResource(ctx context.Context, q querier, id string, quantity int, eventID string) (*domain.Resource, error) {
	res, err := scanResource(q.QueryRowContext(ctx, reserveResourceQuery, id, quantity, pq.Array(domain.VenueTypeTags), nullStringFrom(eventID)))
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM resources WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrCapacityExceeded
}

func releaseResource(ctx context.Context, q querier, id string, quantity int) (*domain.Resource, error) {
	res, err := scanResource(q.QueryRowContext(ctx, releaseResourceQuery, id, quantity, pq.Array(domain.VenueTypeTags)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}
