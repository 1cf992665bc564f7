package domain

import (
	"context"
	"time"
)

const CheckInStatusCheckedIn = "checked_in"

// CheckIn is an append-only record of a participant entering an event.
// The record is authoritative; Registration.CheckedInAt is written in the same transaction.
// swagger:model CheckIn
type CheckIn struct {
	ID             string    `json:"id"`
	RegistrationID string    `json:"registration_id"`
	ParticipantID  string    `json:"participant_id"`
	EventID        string    `json:"event_id"`
	ResourceID     *string   `json:"resource_id"`
	Status         string    `json:"status"`
	CheckedInAt    time.Time `json:"checked_in_at"`
}

// CheckInResult is reported back to the scanning device.
// swagger:model CheckInResult
type CheckInResult struct {
	Registration     *Registration `json:"registration"`
	CheckIn          *CheckIn      `json:"check_in"`
	ParticipantName  string        `json:"participant_name"`
	ParticipantEmail string        `json:"participant_email"`
}

// CheckInRepository persists check-ins.
type CheckInRepository interface {
	// Record sets checked_in_at only if it is still null and inserts the log
	// entry if absent, in one transaction. Returns *AlreadyCheckedInError when
	// the registration was checked in before.
	Record(ctx context.Context, reg *Registration, resourceID *string, at time.Time) (*CheckIn, error)
	ListByEventID(ctx context.Context, eventID string) ([]*CheckIn, error)
}

// CheckInService resolves scanned tokens and checks participants in.
type CheckInService interface {
	ResolveToken(ctx context.Context, raw string) (*Registration, error)
	CheckIn(ctx context.Context, reg *Registration) (*CheckInResult, error)
	// Scan resolves and checks in as one logical step for the event's organizer.
	Scan(ctx context.Context, eventID, organizerID, raw string) (*CheckInResult, error)
	ListCheckIns(ctx context.Context, eventID, organizerID string) ([]*CheckIn, error)
}
