package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
)

func TestCheckInRepository_Record(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 18, 5, 0, 0, time.UTC)
	earlier := at.Add(-10 * time.Minute)
	reg := &domain.Registration{ID: "reg-1", EventID: "ev-1", UserID: "user-1", TicketTypeID: "tt-1", Status: domain.RegistrationConfirmed}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
		wantAt  time.Time
	}{
		{
			name: "first scan",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`UPDATE registrations SET checked_in_at = \$2.*checked_in_at IS NULL.*NOT EXISTS`).
					WithArgs("reg-1", at).
					WillReturnRows(sqlmock.NewRows([]string{"checked_in_at"}).AddRow(at))
				mock.ExpectQuery(`INSERT INTO checkins .* ON CONFLICT \(registration_id\) DO NOTHING`).
					WithArgs("reg-1", "user-1", "ev-1", "res-1", domain.CheckInStatusCheckedIn, at).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("chk-1"))
				mock.ExpectCommit()
			},
			wantAt: at,
		},
		{
			name: "second scan reports the first timestamp",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`UPDATE registrations SET checked_in_at`).
					WillReturnError(sql.ErrNoRows)
				mock.ExpectQuery(`SELECT r\.status, COALESCE\(r\.checked_in_at, c\.checked_in_at\)`).
					WithArgs("reg-1").
					WillReturnRows(sqlmock.NewRows([]string{"status", "checked_in_at"}).AddRow("confirmed", earlier))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrAlreadyCheckedIn,
			wantAt:  earlier,
		},
		{
			name: "cancelled registration",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`UPDATE registrations SET checked_in_at`).
					WillReturnError(sql.ErrNoRows)
				mock.ExpectQuery(`SELECT r\.status`).
					WillReturnRows(sqlmock.NewRows([]string{"status", "checked_in_at"}).AddRow("cancelled", nil))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrInvalidOrUnregisteredToken,
		},
		{
			name: "registration vanished",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`UPDATE registrations SET checked_in_at`).
					WillReturnError(sql.ErrNoRows)
				mock.ExpectQuery(`SELECT r\.status`).
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewCheckInRepository(db).Record(ctx, reg, strPtr("res-1"), at)
			require.NoError(t, mock.ExpectationsWereMet())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var already *domain.AlreadyCheckedInError
				if errors.As(err, &already) {
					require.True(t, already.CheckedInAt.Equal(tt.wantAt))
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, "chk-1", got.ID)
			require.True(t, got.CheckedInAt.Equal(tt.wantAt))
			require.Equal(t, "res-1", *got.ResourceID)
		})
	}
}

func TestCheckInRepository_ListByEventID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM checkins\s+WHERE event_id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "registration_id", "participant_id", "event_id", "resource_id", "status", "checked_in_at"}).
			AddRow("chk-1", "reg-1", "user-1", "ev-1", nil, "checked_in", fixedTime))

	got, err := NewCheckInRepository(db).ListByEventID(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Nil(t, got[0].ResourceID)
	require.NoError(t, mock.ExpectationsWereMet())
}
