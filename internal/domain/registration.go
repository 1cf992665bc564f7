package domain

import (
	"context"
	"time"
)

// RegistrationStatus is the lifecycle state of a registration.
type RegistrationStatus string

const (
	RegistrationConfirmed  RegistrationStatus = "confirmed"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationCancelled  RegistrationStatus = "cancelled"
)

// Registration ties a participant to an event through one ticket type.
// swagger:model Registration
type Registration struct {
	ID           string             `json:"id"`
	EventID      string             `json:"event_id"`
	UserID       string             `json:"user_id"`
	TicketTypeID string             `json:"ticket_type_id"`
	Status       RegistrationStatus `json:"status"`
	CheckedInAt  *time.Time         `json:"checked_in_at"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewRegistration creates a registration attempt. The status is decided by the repository.
func NewRegistration(eventID, userID, ticketTypeID string, now time.Time) *Registration {
	return &Registration{
		EventID:      eventID,
		UserID:       userID,
		TicketTypeID: ticketTypeID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsActive reports whether the registration is not cancelled.
func (r *Registration) IsActive() bool {
	return r.Status != RegistrationCancelled
}

// CancelResult carries the cancelled registration and the status it had before.
type CancelResult struct {
	Registration   *Registration
	PreviousStatus RegistrationStatus
}

// RegistrationStats counts the registrations of one event by state.
// CheckedIn is a subset of Confirmed.
type RegistrationStats struct {
	EventID    string `json:"event_id"`
	Total      int    `json:"total"`
	Confirmed  int    `json:"confirmed"`
	Waitlisted int    `json:"waitlisted"`
	Cancelled  int    `json:"cancelled"`
	CheckedIn  int    `json:"checked_in"`
}

// RegistrationRepository defines registration storage. Register, Cancel and
// PromoteNext are single transactions.
type RegistrationRepository interface {
	// Register locks the event, rejects duplicates with ErrDuplicateRegistration,
	// decides confirmed or waitlisted and inserts the row.
	Register(ctx context.Context, reg *Registration) error
	// Cancel moves an active registration to cancelled. ErrNotFound when missing or already cancelled.
	Cancel(ctx context.Context, id string) (*CancelResult, error)
	// PromoteNext confirms the oldest waitlisted registration of the event if a
	// slot is free. Returns nil without error when nothing was promoted.
	PromoteNext(ctx context.Context, eventID string) (*Registration, error)
	GetByID(ctx context.Context, id string) (*Registration, error)
	ListByEventID(ctx context.Context, eventID string, params PaginationParams) ([]*Registration, int, error)
	ListWaitlist(ctx context.Context, eventID string) ([]*Registration, error)
	ListByUserID(ctx context.Context, userID string) ([]*Registration, error)
	CountConfirmed(ctx context.Context, eventID string) (int, error)
	Stats(ctx context.Context, eventID string) (*RegistrationStats, error)
}

// RegistrationService drives the registration state machine.
type RegistrationService interface {
	Register(ctx context.Context, eventID, userID, ticketTypeID string) (*Registration, error)
	// Cancel is allowed for the participant and the event organizer. A freed
	// confirmed slot triggers one promotion; its failure does not undo the cancel.
	Cancel(ctx context.Context, registrationID, callerID string) (*Registration, error)
	ListRegistrations(ctx context.Context, eventID, organizerID string, params PaginationParams) ([]*Registration, int, error)
	ListWaitlist(ctx context.Context, eventID, organizerID string) ([]*Registration, error)
	ListMyRegistrations(ctx context.Context, userID string) ([]*Registration, error)
	// Ticket returns the QR token of a confirmed registration owned by userID.
	Ticket(ctx context.Context, registrationID, userID string) (string, error)
	Stats(ctx context.Context, eventID, organizerID string) (*RegistrationStats, error)
}

// WaitlistService is the only writer that moves waitlisted registrations to confirmed.
type WaitlistService interface {
	PromoteNext(ctx context.Context, eventID string) (*Registration, error)
	// PromoteForOrganizer checks event ownership first.
	PromoteForOrganizer(ctx context.Context, eventID, organizerID string) (*Registration, error)
}
