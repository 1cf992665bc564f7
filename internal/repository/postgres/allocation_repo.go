package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventticketing/internal/domain"
)

const allocationColumns = `id, resource_id, event_id, quantity, notes, organizer_id, allocated_at`

type allocationRepository struct {
	DB *sql.DB
}

func NewAllocationRepository(db *sql.DB) domain.AllocationRepository {
	return &allocationRepository{
		DB: db,
	}
}

func scanAllocation(s scanner) (*domain.Allocation, error) {
	a := &domain.Allocation{}
	var resourceID, notes sql.NullString
	if err := s.Scan(&a.ID, &resourceID, &a.EventID, &a.Quantity, &notes, &a.OrganizerID, &a.AllocatedAt); err != nil {
		return nil, err
	}
	a.ResourceID = resourceID.String
	a.Notes = stringPtr(notes)
	return a, nil
}

func scanAllocations(rows *sql.Rows) ([]*domain.Allocation, error) {
	defer rows.Close()
	allocations := make([]*domain.Allocation, 0)
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

func (r *allocationRepository) Allocate(ctx context.Context, a *domain.Allocation) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := reserveResource(ctx, tx, a.ResourceID, a.Quantity, a.EventID); err != nil {
			if errors.Is(err, domain.ErrCapacityExceeded) {
				return domain.ErrInsufficientCapacity
			}
			return err
		}
		query := `
			INSERT INTO resource_allocations (resource_id, event_id, quantity, notes, organizer_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, allocated_at
		`
		return tx.QueryRowContext(ctx, query, a.ResourceID, a.EventID, a.Quantity, nullString(a.Notes), a.OrganizerID).
			Scan(&a.ID, &a.AllocatedAt)
	})
}

func (r *allocationRepository) GetByID(ctx context.Context, id string) (*domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM resource_allocations WHERE id = $1`
	a, err := scanAllocation(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *allocationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM resource_allocations WHERE event_id = $1 ORDER BY allocated_at`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return scanAllocations(rows)
}

// Release deletes the row first so concurrent releases of the same allocation
// cannot both restore capacity.
func (r *allocationRepository) Release(ctx context.Context, id string) (*domain.Allocation, error) {
	var released *domain.Allocation
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		query := `DELETE FROM resource_allocations WHERE id = $1 RETURNING ` + allocationColumns
		a, err := scanAllocation(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if a.ResourceID != "" {
			if _, err := releaseResource(ctx, tx, a.ResourceID, a.Quantity); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		released = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

func (r *allocationRepository) ReleaseAll(ctx context.Context, eventID string) (*domain.ReleaseReport, error) {
	report := &domain.ReleaseReport{Released: []*domain.Allocation{}, Skipped: []*domain.Allocation{}}
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		query := `DELETE FROM resource_allocations WHERE event_id = $1 RETURNING ` + allocationColumns
		rows, err := tx.QueryContext(ctx, query, eventID)
		if err != nil {
			return err
		}
		deleted, err := scanAllocations(rows)
		if err != nil {
			return err
		}
		for _, a := range deleted {
			if a.ResourceID == "" {
				report.Skipped = append(report.Skipped, a)
				continue
			}
			if _, err := releaseResource(ctx, tx, a.ResourceID, a.Quantity); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					report.Skipped = append(report.Skipped, a)
					continue
				}
				return err
			}
			report.Released = append(report.Released, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *allocationRepository) FindPrimaryForEvent(ctx context.Context, eventID string) (*domain.Allocation, error) {
	query := `
		SELECT a.id, a.resource_id, a.event_id, a.quantity, a.notes, a.organizer_id, a.allocated_at
		FROM resource_allocations a
		JOIN resources r ON r.id = a.resource_id
		WHERE a.event_id = $1
		ORDER BY (lower(r.type) = ANY($2)) DESC, a.allocated_at ASC
		LIMIT 1
	`
	a, err := scanAllocation(r.DB.QueryRowContext(ctx, query, eventID, pq.Array(domain.VenueTypeTags)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}
