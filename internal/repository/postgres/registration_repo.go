package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventticketing/internal/domain"
)

const registrationColumns = `id, event_id, user_id, ticket_type_id, status, checked_in_at, created_at, updated_at`

// lockEventCapacityQuery serialises every capacity decision of one event.
const lockEventCapacityQuery = `
	SELECT e.capacity, e.override_capacity, v.total_capacity
	FROM events e
	LEFT JOIN resources v ON v.id = e.venue_id
	WHERE e.id = $1
	FOR UPDATE OF e
`

const countConfirmedQuery = `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'confirmed'`

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

func scanRegistration(s scanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var status string
	var checkedIn sql.NullTime
	if err := s.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.TicketTypeID, &status, &checkedIn, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		return nil, err
	}
	reg.Status = domain.RegistrationStatus(status)
	reg.CheckedInAt = timePtr(checkedIn)
	return reg, nil
}

func scanRegistrations(rows *sql.Rows) ([]*domain.Registration, error) {
	defer rows.Close()
	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// lockEventCapacity locks the event row and returns its capacity snapshot
// including the current confirmed count.
func lockEventCapacity(ctx context.Context, tx *sql.Tx, eventID string) (domain.CapacitySnapshot, error) {
	var snap domain.CapacitySnapshot
	var eventCap, venueCap sql.NullInt64
	if err := tx.QueryRowContext(ctx, lockEventCapacityQuery, eventID).Scan(&eventCap, &snap.OverrideCapacity, &venueCap); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return snap, domain.ErrNotFound
		}
		return snap, err
	}
	snap.EventCapacity = intPtr(eventCap)
	snap.VenueCapacity = intPtr(venueCap)
	if err := tx.QueryRowContext(ctx, countConfirmedQuery, eventID).Scan(&snap.ConfirmedCount); err != nil {
		return snap, err
	}
	return snap, nil
}

func incrementSoldCount(ctx context.Context, q querier, ticketTypeID string) error {
	_, err := q.ExecContext(ctx, `UPDATE ticket_types SET sold_count = sold_count + 1 WHERE id = $1`, ticketTypeID)
	return err
}

func (r *registrationRepository) Register(ctx context.Context, reg *domain.Registration) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		snap, err := lockEventCapacity(ctx, tx, reg.EventID)
		if err != nil {
			return err
		}

		var ticketCap sql.NullInt64
		err = tx.QueryRowContext(ctx, `SELECT capacity, sold_count FROM ticket_types WHERE id = $1 AND event_id = $2 FOR UPDATE`,
			reg.TicketTypeID, reg.EventID).Scan(&ticketCap, &snap.TicketSoldCount)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		snap.TicketCapacity = intPtr(ticketCap)

		var exists bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM registrations
				WHERE user_id = $1 AND event_id = $2 AND ticket_type_id = $3 AND status <> 'cancelled'
			)`, reg.UserID, reg.EventID, reg.TicketTypeID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateRegistration
		}

		reg.Status = snap.Decide()
		query := `
			INSERT INTO registrations (event_id, user_id, ticket_type_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		err = tx.QueryRowContext(ctx, query, reg.EventID, reg.UserID, reg.TicketTypeID, string(reg.Status), reg.CreatedAt, reg.UpdatedAt).
			Scan(&reg.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateRegistration
			}
			return err
		}
		if reg.Status == domain.RegistrationConfirmed {
			return incrementSoldCount(ctx, tx, reg.TicketTypeID)
		}
		return nil
	})
}

func (r *registrationRepository) Cancel(ctx context.Context, id string) (*domain.CancelResult, error) {
	var result *domain.CancelResult
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var prev string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM registrations WHERE id = $1 FOR UPDATE`, id).Scan(&prev); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if domain.RegistrationStatus(prev) == domain.RegistrationCancelled {
			return domain.ErrNotFound
		}

		query := `UPDATE registrations SET status = 'cancelled', updated_at = NOW() WHERE id = $1 RETURNING ` + registrationColumns
		reg, err := scanRegistration(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			return err
		}
		if domain.RegistrationStatus(prev) == domain.RegistrationConfirmed {
			_, err := tx.ExecContext(ctx, `UPDATE ticket_types SET sold_count = GREATEST(sold_count - 1, 0) WHERE id = $1`, reg.TicketTypeID)
			if err != nil {
				return err
			}
		}
		result = &domain.CancelResult{Registration: reg, PreviousStatus: domain.RegistrationStatus(prev)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *registrationRepository) PromoteNext(ctx context.Context, eventID string) (*domain.Registration, error) {
	var promoted *domain.Registration
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		snap, err := lockEventCapacity(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !snap.HasEventSlot() {
			return nil
		}

		query := `
			UPDATE registrations SET status = 'confirmed', updated_at = NOW()
			WHERE id = (
				SELECT r.id FROM registrations r
				JOIN ticket_types tt ON tt.id = r.ticket_type_id
				WHERE r.event_id = $1 AND r.status = 'waitlisted'
					AND (tt.capacity IS NULL OR tt.sold_count < tt.capacity)
				ORDER BY r.created_at ASC, r.id ASC
				LIMIT 1
				FOR UPDATE OF r SKIP LOCKED
			)
			RETURNING ` + registrationColumns
		reg, err := scanRegistration(tx.QueryRowContext(ctx, query, eventID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		if err := incrementSoldCount(ctx, tx, reg.TicketTypeID); err != nil {
			return err
		}
		promoted = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) ListByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Registration, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT NULLIF($2, 0) OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	regs, err := scanRegistrations(rows)
	if err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}

func (r *registrationRepository) ListWaitlist(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND status = 'waitlisted'
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return scanRegistrations(rows)
}

func (r *registrationRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanRegistrations(rows)
}

func (r *registrationRepository) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, countConfirmedQuery, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

const registrationStatsQuery = `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'confirmed'),
		COUNT(*) FILTER (WHERE status = 'waitlisted'),
		COUNT(*) FILTER (WHERE status = 'cancelled'),
		COUNT(checked_in_at)
	FROM registrations
	WHERE event_id = $1
`

func (r *registrationRepository) Stats(ctx context.Context, eventID string) (*domain.RegistrationStats, error) {
	stats := &domain.RegistrationStats{EventID: eventID}
	err := r.DB.QueryRowContext(ctx, registrationStatsQuery, eventID).
		Scan(&stats.Total, &stats.Confirmed, &stats.Waitlisted, &stats.Cancelled, &stats.CheckedIn)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
