package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventticketing/internal/domain"
)

const ticketTypeColumns = `id, event_id, name, description, kind, price, capacity, sold_count, created_at`

type ticketTypeRepository struct {
	DB *sql.DB
}

func NewTicketTypeRepository(db *sql.DB) domain.TicketTypeRepository {
	return &ticketTypeRepository{DB: db}
}

func scanTicketType(s scanner) (*domain.TicketType, error) {
	t := &domain.TicketType{}
	var desc sql.NullString
	var capacity sql.NullInt64
	var kind string
	if err := s.Scan(&t.ID, &t.EventID, &t.Name, &desc, &kind, &t.Price, &capacity, &t.SoldCount, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Description = stringPtr(desc)
	t.Capacity = intPtr(capacity)
	t.Kind = domain.TicketKind(kind)
	return t, nil
}

func (r *ticketTypeRepository) Create(ctx context.Context, t *domain.TicketType) error {
	query := `
		INSERT INTO ticket_types (event_id, name, description, kind, price, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, t.EventID, t.Name, nullString(t.Description), string(t.Kind), t.Price,
		nullInt(t.Capacity), t.CreatedAt).Scan(&t.ID)
}

func (r *ticketTypeRepository) GetByID(ctx context.Context, id string) (*domain.TicketType, error) {
	query := `SELECT ` + ticketTypeColumns + ` FROM ticket_types WHERE id = $1`
	t, err := scanTicketType(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *ticketTypeRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	query := `SELECT ` + ticketTypeColumns + ` FROM ticket_types WHERE event_id = $1 ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	types := make([]*domain.TicketType, 0)
	for rows.Next() {
		t, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
