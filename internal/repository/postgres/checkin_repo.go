package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventticketing/internal/domain"
)

type checkInRepository struct {
	DB *sql.DB
}

func NewCheckInRepository(db *sql.DB) domain.CheckInRepository {
	return &checkInRepository{
		DB: db,
	}
}

func (r *checkInRepository) Record(ctx context.Context, reg *domain.Registration, resourceID *string, at time.Time) (*domain.CheckIn, error) {
	var checkIn *domain.CheckIn
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var stamped time.Time
		err := tx.QueryRowContext(ctx, `
			UPDATE registrations SET checked_in_at = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'confirmed' AND checked_in_at IS NULL
				AND NOT EXISTS (SELECT 1 FROM checkins WHERE registration_id = $1)
			RETURNING checked_in_at
		`, reg.ID, at).Scan(&stamped)
		if errors.Is(err, sql.ErrNoRows) {
			return explainCheckInMiss(ctx, tx, reg.ID)
		}
		if err != nil {
			return err
		}

		checkIn = &domain.CheckIn{
			RegistrationID: reg.ID,
			ParticipantID:  reg.UserID,
			EventID:        reg.EventID,
			ResourceID:     resourceID,
			Status:         domain.CheckInStatusCheckedIn,
			CheckedInAt:    stamped,
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO checkins (registration_id, participant_id, event_id, resource_id, status, checked_in_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (registration_id) DO NOTHING
			RETURNING id
		`, reg.ID, reg.UserID, reg.EventID, nullString(resourceID), checkIn.Status, stamped).Scan(&checkIn.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return checkIn, nil
}

// explainCheckInMiss turns a conditional update that matched nothing into the
// matching domain error.
func explainCheckInMiss(ctx context.Context, tx *sql.Tx, registrationID string) error {
	var status string
	var checkedIn sql.NullTime
	err := tx.QueryRowContext(ctx, `
		SELECT r.status, COALESCE(r.checked_in_at, c.checked_in_at)
		FROM registrations r
		LEFT JOIN checkins c ON c.registration_id = r.id
		WHERE r.id = $1
	`, registrationID).Scan(&status, &checkedIn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if checkedIn.Valid {
		return &domain.AlreadyCheckedInError{CheckedInAt: checkedIn.Time}
	}
	if domain.RegistrationStatus(status) != domain.RegistrationConfirmed {
		return domain.ErrInvalidOrUnregisteredToken
	}
	return domain.ErrAlreadyCheckedIn
}

func (r *checkInRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.CheckIn, error) {
	query := `
		SELECT id, registration_id, participant_id, event_id, resource_id, status, checked_in_at
		FROM checkins
		WHERE event_id = $1
		ORDER BY checked_in_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	checkIns := make([]*domain.CheckIn, 0)
	for rows.Next() {
		c := &domain.CheckIn{}
		var resourceID sql.NullString
		if err := rows.Scan(&c.ID, &c.RegistrationID, &c.ParticipantID, &c.EventID, &resourceID, &c.Status, &c.CheckedInAt); err != nil {
			return nil, err
		}
		c.ResourceID = stringPtr(resourceID)
		checkIns = append(checkIns, c)
	}
	return checkIns, rows.Err()
}
