package domain

import (
	"context"
	"time"
)

// Event is a scheduled happening participants register for.
// swagger:model Event
type Event struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description,omitempty"`
	StartTS          time.Time `json:"start_ts"`
	EndTS            time.Time `json:"end_ts"`
	Capacity         *int      `json:"capacity"`
	OverrideCapacity bool      `json:"override_capacity"`
	VenueID          *string   `json:"venue_id,omitempty"`
	OrganizerID      string    `json:"organizer_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewEvent returns a new Event. ID is typically set by the repository on create.
func NewEvent(title, organizerID string, start, end time.Time, capacity *int) *Event {
	return &Event{
		Title:       title,
		OrganizerID: organizerID,
		StartTS:     start,
		EndTS:       end,
		Capacity:    capacity,
	}
}

// Validate checks the invariants an event must hold before it is stored.
func (e *Event) Validate() error {
	if e.Title == "" {
		return InvalidInputf("title is required")
	}
	if !e.EndTS.After(e.StartTS) {
		return InvalidInputf("end must be after start")
	}
	if e.Capacity != nil && *e.Capacity < 0 {
		return InvalidInputf("capacity must be >= 0")
	}
	return nil
}

// EventUpdate carries the fields of a partial event update. Nil means unchanged.
type EventUpdate struct {
	Title            *string
	Description      *string
	StartTS          *time.Time
	EndTS            *time.Time
	Capacity         *int
	ClearCapacity    bool
	OverrideCapacity *bool
	VenueID          *string
}

// Apply returns a copy of e with the update applied.
func (u *EventUpdate) Apply(e *Event) *Event {
	out := *e
	if u.Title != nil {
		out.Title = *u.Title
	}
	if u.Description != nil {
		out.Description = u.Description
	}
	if u.StartTS != nil {
		out.StartTS = *u.StartTS
	}
	if u.EndTS != nil {
		out.EndTS = *u.EndTS
	}
	if u.ClearCapacity {
		out.Capacity = nil
	} else if u.Capacity != nil {
		out.Capacity = u.Capacity
	}
	if u.OverrideCapacity != nil {
		out.OverrideCapacity = *u.OverrideCapacity
	}
	if u.VenueID != nil {
		out.VenueID = u.VenueID
		if *u.VenueID == "" {
			out.VenueID = nil
		}
	}
	return &out
}

// TicketKind is the pricing model of a ticket type.
type TicketKind string

const (
	TicketKindFree     TicketKind = "free"
	TicketKindPaid     TicketKind = "paid"
	TicketKindDonation TicketKind = "donation"
)

// TicketType belongs to exactly one event and optionally caps its own sales.
// swagger:model TicketType
type TicketType struct {
	ID          string     `json:"id"`
	EventID     string     `json:"event_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Kind        TicketKind `json:"kind"`
	Price       float64    `json:"price"`
	Capacity    *int       `json:"capacity"`
	SoldCount   int        `json:"sold_count"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Validate checks kind and price consistency: price is zero iff the kind is free.
func (t *TicketType) Validate() error {
	if t.Name == "" {
		return InvalidInputf("name is required")
	}
	switch t.Kind {
	case TicketKindFree:
		if t.Price != 0 {
			return InvalidInputf("free tickets must have price 0")
		}
	case TicketKindPaid, TicketKindDonation:
		if t.Price <= 0 {
			return InvalidInputf("%s tickets must have a positive price", t.Kind)
		}
	default:
		return InvalidInputf("kind must be one of free, paid, donation")
	}
	if t.Capacity != nil && *t.Capacity < 0 {
		return InvalidInputf("capacity must be >= 0")
	}
	return nil
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOrganizerID(ctx context.Context, organizerID string) ([]*Event, error)
	Update(ctx context.Context, event *Event) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// TicketTypeRepository defines the interface for ticket type storage.
type TicketTypeRepository interface {
	Create(ctx context.Context, tt *TicketType) error
	GetByID(ctx context.Context, id string) (*TicketType, error)
	ListByEventID(ctx context.Context, eventID string) ([]*TicketType, error)
}

// EventService defines organizer operations on events and their ticket types.
type EventService interface {
	// CreateEvent books the venue, when set, through the allocation ledger.
	// ErrInsufficientCapacity when another event holds it.
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListMyEvents(ctx context.Context, organizerID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, organizerID string, update *EventUpdate) (*Event, error)
	// DeleteEvent releases every allocation held by the event before removing it.
	DeleteEvent(ctx context.Context, eventID, organizerID string) error
	CreateTicketType(ctx context.Context, organizerID string, tt *TicketType) error
	ListTicketTypes(ctx context.Context, eventID string) ([]*TicketType, error)
}
