package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Change feed event types, emitted after the transition has committed.
const (
	ChangeRegistrationConfirmed  = "registration.confirmed"
	ChangeRegistrationWaitlisted = "registration.waitlisted"
	ChangeRegistrationCancelled  = "registration.cancelled"
	ChangeRegistrationPromoted   = "registration.promoted"
	ChangePaymentCompleted       = "payment.completed"
	ChangePaymentFailed          = "payment.failed"
	ChangeCheckInRecorded        = "checkin.recorded"
	ChangeAllocationCreated      = "allocation.created"
	ChangeAllocationReleased     = "allocation.released"
)

// ChangeEvent is one committed state transition observed by reporting consumers.
type ChangeEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	EventID    string    `json:"event_id"`
	EntityID   string    `json:"entity_id"`
	UserID     string    `json:"user_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewChangeEvent stamps a change with a fresh id and the current time.
func NewChangeEvent(changeType, eventID, entityID string) *ChangeEvent {
	return &ChangeEvent{
		ID:         uuid.NewString(),
		Type:       changeType,
		EventID:    eventID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

// Stream is the first segment of the type, e.g. "registration".
func (c *ChangeEvent) Stream() string {
	stream, _, _ := strings.Cut(c.Type, ".")
	return stream
}

// ChangePublisher pushes committed transitions to external observers.
type ChangePublisher interface {
	Publish(ctx context.Context, change *ChangeEvent) error
}

// Locker serialises work on one key across processes. The returned unlock
// must be called once the critical section ends.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
