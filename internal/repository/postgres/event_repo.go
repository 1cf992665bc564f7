package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventticketing/internal/domain"
)

const eventColumns = `id, title, description, start_ts, end_ts, capacity, override_capacity, venue_id, organizer_id, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(s scanner) (*domain.Event, error) {
	e := &domain.Event{}
	var desc, venueID sql.NullString
	var capacity sql.NullInt64
	if err := s.Scan(&e.ID, &e.Title, &desc, &e.StartTS, &e.EndTS, &capacity, &e.OverrideCapacity,
		&venueID, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Description = stringPtr(desc)
	e.Capacity = intPtr(capacity)
	e.VenueID = stringPtr(venueID)
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, start_ts, end_ts, capacity, override_capacity, venue_id, organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, e.Title, nullString(e.Description), e.StartTS, e.EndTS, nullInt(e.Capacity),
		e.OverrideCapacity, nullString(e.VenueID), e.OrganizerID, e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOrganizerID(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = $1 ORDER BY start_ts`
	rows, err := r.DB.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	query := `
		UPDATE events SET title = $2, description = $3, start_ts = $4, end_ts = $5, capacity = $6,
			override_capacity = $7, venue_id = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns
	updated, err := scanEvent(r.DB.QueryRowContext(ctx, query, e.ID, e.Title, nullString(e.Description), e.StartTS, e.EndTS,
		nullInt(e.Capacity), e.OverrideCapacity, nullString(e.VenueID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
