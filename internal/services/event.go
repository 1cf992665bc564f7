package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventticketing/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	ticketTypeRepo domain.TicketTypeRepository
	resourceRepo   domain.ResourceRepository
	allocationRepo domain.AllocationRepository
	notifier       *Notifier
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	ticketTypeRepo domain.TicketTypeRepository,
	resourceRepo domain.ResourceRepository,
	allocationRepo domain.AllocationRepository,
	notifier *Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		ticketTypeRepo: ticketTypeRepo,
		resourceRepo:   resourceRepo,
		allocationRepo: allocationRepo,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OrganizerID == "" {
		return domain.InvalidInputf("event organizer is required")
	}
	event.Title = strings.TrimSpace(event.Title)
	if err := event.Validate(); err != nil {
		return err
	}
	venue, err := s.checkVenue(ctx, event.VenueID)
	if err != nil {
		return err
	}
	if venue != nil && venue.Status != domain.ResourceAvailable {
		return fmt.Errorf("venue %s: %w", venue.ID, domain.ErrInsufficientCapacity)
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if event.VenueID == nil {
		return nil
	}
	if err := s.bookVenue(ctx, event.ID, event.OrganizerID, *event.VenueID); err != nil {
		if delErr := s.eventRepo.Delete(ctx, event.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove event after venue booking failed",
				"event_id", event.ID, "venue_id", *event.VenueID, "error", delErr)
		}
		event.ID = ""
		return err
	}
	return nil
}

// bookVenue takes the whole venue for the event through the allocation ledger.
// A venue already booked elsewhere yields ErrInsufficientCapacity.
func (s *eventService) bookVenue(ctx context.Context, eventID, organizerID, venueID string) error {
	notes := "venue"
	a := &domain.Allocation{
		ResourceID:  venueID,
		EventID:     eventID,
		Quantity:    1,
		Notes:       &notes,
		OrganizerID: organizerID,
	}
	if err := s.allocationRepo.Allocate(ctx, a); err != nil {
		return passDomain("book venue", err)
	}
	s.notifier.publish(ctx, domain.NewChangeEvent(domain.ChangeAllocationCreated, eventID, a.ID))
	return nil
}

// releaseVenue gives back the ledger rows the event holds on one venue.
func (s *eventService) releaseVenue(ctx context.Context, eventID, venueID string) error {
	held, err := s.allocationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return passDomain("list allocations", err)
	}
	for _, a := range held {
		if a.ResourceID != venueID {
			continue
		}
		if _, err := s.allocationRepo.Release(ctx, a.ID); err != nil {
			return passDomain("release venue", err)
		}
		s.notifier.publish(ctx, domain.NewChangeEvent(domain.ChangeAllocationReleased, eventID, a.ID))
	}
	return nil
}

// holdsVenue reports whether the event already has a ledger row on the venue.
func (s *eventService) holdsVenue(ctx context.Context, eventID, venueID string) (bool, error) {
	held, err := s.allocationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return false, passDomain("list allocations", err)
	}
	for _, a := range held {
		if a.ResourceID == venueID {
			return true, nil
		}
	}
	return false, nil
}

// checkVenue accepts a nil venue or an existing resource classified as a venue.
func (s *eventService) checkVenue(ctx context.Context, venueID *string) (*domain.Resource, error) {
	if venueID == nil {
		return nil, nil
	}
	venue, err := s.resourceRepo.GetByID(ctx, *venueID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.InvalidInputf("venue %s does not exist", *venueID)
		}
		return nil, fmt.Errorf("get venue: %w", err)
	}
	if venue.Kind != domain.ResourceKindVenue {
		return nil, domain.InvalidInputf("resource %s is not a venue", *venueID)
	}
	return venue, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, passDomain("get event", err)
	}
	return event, nil
}

func (s *eventService) ListMyEvents(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOrganizerID(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// UpdateEvent applies a partial update. Moving the event to another venue
// books the new venue before releasing the old one; equipment stays allocated.
func (s *eventService) UpdateEvent(ctx context.Context, eventID, organizerID string, update *domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := ownedEvent(ctx, s.eventRepo, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	next := update.Apply(current)
	next.Title = strings.TrimSpace(next.Title)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if sameVenue(current.VenueID, next.VenueID) {
		next.UpdatedAt = time.Now()
		updated, err := s.eventRepo.Update(ctx, next)
		if err != nil {
			return nil, passDomain("update event", err)
		}
		return updated, nil
	}

	if _, err := s.checkVenue(ctx, next.VenueID); err != nil {
		return nil, err
	}
	booked := false
	if next.VenueID != nil {
		held, err := s.holdsVenue(ctx, eventID, *next.VenueID)
		if err != nil {
			return nil, err
		}
		if !held {
			if err := s.bookVenue(ctx, eventID, organizerID, *next.VenueID); err != nil {
				return nil, err
			}
			booked = true
		}
	}

	next.UpdatedAt = time.Now()
	updated, err := s.eventRepo.Update(ctx, next)
	if err != nil {
		if booked {
			if relErr := s.releaseVenue(ctx, eventID, *next.VenueID); relErr != nil {
				s.logger.ErrorContext(ctx, "failed to release new venue after event update failed",
					"event_id", eventID, "venue_id", *next.VenueID, "error", relErr)
			}
		}
		return nil, passDomain("update event", err)
	}
	if current.VenueID != nil {
		if err := s.releaseVenue(ctx, eventID, *current.VenueID); err != nil {
			s.logger.WarnContext(ctx, "old venue still booked after venue change",
				"event_id", eventID, "venue_id", *current.VenueID, "error", err)
		}
	}
	return updated, nil
}

func sameVenue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, organizerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedEvent(ctx, s.eventRepo, eventID, organizerID); err != nil {
		return err
	}
	if _, err := releaseEventAllocations(ctx, s.allocationRepo, s.notifier, s.logger, eventID); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		return passDomain("delete event", err)
	}
	return nil
}

func (s *eventService) CreateTicketType(ctx context.Context, organizerID string, tt *domain.TicketType) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedEvent(ctx, s.eventRepo, tt.EventID, organizerID); err != nil {
		return err
	}
	tt.Name = strings.TrimSpace(tt.Name)
	tt.Kind = domain.TicketKind(strings.ToLower(string(tt.Kind)))
	if err := tt.Validate(); err != nil {
		return err
	}
	tt.SoldCount = 0
	tt.CreatedAt = time.Now()
	if err := s.ticketTypeRepo.Create(ctx, tt); err != nil {
		return passDomain("create ticket type", err)
	}
	return nil
}

func (s *eventService) ListTicketTypes(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, passDomain("get event", err)
	}
	types, err := s.ticketTypeRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ticket types: %w", err)
	}
	return types, nil
}
