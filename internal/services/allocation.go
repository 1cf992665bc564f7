package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"eventticketing/internal/domain"
)

type allocationService struct {
	allocationRepo domain.AllocationRepository
	eventRepo      domain.EventRepository
	notifier       *Notifier
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewAllocationService(allocationRepo domain.AllocationRepository, eventRepo domain.EventRepository, notifier *Notifier, logger *slog.Logger, timeout time.Duration) domain.AllocationService {
	return &allocationService{
		allocationRepo: allocationRepo,
		eventRepo:      eventRepo,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *allocationService) Allocate(ctx context.Context, organizerID string, a *domain.Allocation) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if a.Quantity <= 0 {
		return domain.InvalidInputf("quantity must be positive")
	}
	if a.ResourceID == "" {
		return domain.InvalidInputf("resource_id is required")
	}
	if _, err := ownedEvent(ctx, s.eventRepo, a.EventID, organizerID); err != nil {
		return err
	}
	a.OrganizerID = organizerID
	if err := s.allocationRepo.Allocate(ctx, a); err != nil {
		return passDomain("allocate resource", err)
	}

	change := domain.NewChangeEvent(domain.ChangeAllocationCreated, a.EventID, a.ID)
	change.Status = strconv.Itoa(a.Quantity)
	s.notifier.publish(ctx, change)
	return nil
}

func (s *allocationService) ListAllocations(ctx context.Context, eventID, organizerID string) ([]*domain.Allocation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedEvent(ctx, s.eventRepo, eventID, organizerID); err != nil {
		return nil, err
	}
	allocations, err := s.allocationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, passDomain("list allocations", err)
	}
	return allocations, nil
}

func (s *allocationService) ReleaseAllocation(ctx context.Context, allocationID, organizerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	a, err := s.allocationRepo.GetByID(ctx, allocationID)
	if err != nil {
		return passDomain("get allocation", err)
	}
	event, err := ownedEvent(ctx, s.eventRepo, a.EventID, organizerID)
	if err != nil {
		return err
	}
	if event.VenueID != nil && *event.VenueID == a.ResourceID {
		return domain.InvalidInputf("allocation %s books the event venue; change or clear the venue instead", allocationID)
	}
	released, err := s.allocationRepo.Release(ctx, allocationID)
	if err != nil {
		return passDomain("release allocation", err)
	}
	s.notifier.publish(ctx, domain.NewChangeEvent(domain.ChangeAllocationReleased, released.EventID, released.ID))
	return nil
}

func (s *allocationService) ReleaseAll(ctx context.Context, eventID, organizerID string) (*domain.ReleaseReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := ownedEvent(ctx, s.eventRepo, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	report, err := releaseEventAllocations(ctx, s.allocationRepo, s.notifier, s.logger, eventID)
	if err != nil {
		return nil, err
	}
	// The venue booking went with everything else, so the event no longer has one.
	if event.VenueID != nil {
		event.VenueID = nil
		event.UpdatedAt = time.Now()
		if _, err := s.eventRepo.Update(ctx, event); err != nil {
			return nil, passDomain("clear event venue", err)
		}
	}
	return report, nil
}

func (s *allocationService) FindResourceForEvent(ctx context.Context, eventID string) (*domain.Allocation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	a, err := s.allocationRepo.FindPrimaryForEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, passDomain("find resource for event", err)
	}
	return a, nil
}

// releaseEventAllocations gives back everything the event holds. Allocations
// whose resource was deleted out of band are logged and skipped.
func releaseEventAllocations(ctx context.Context, repo domain.AllocationRepository, notifier *Notifier, logger *slog.Logger, eventID string) (*domain.ReleaseReport, error) {
	report, err := repo.ReleaseAll(ctx, eventID)
	if err != nil {
		return nil, passDomain("release allocations", err)
	}
	for _, a := range report.Skipped {
		logger.WarnContext(ctx, "allocation released without restoring capacity, resource no longer exists",
			"allocation_id", a.ID, "event_id", eventID, "quantity", a.Quantity)
	}
	for _, a := range append(report.Released, report.Skipped...) {
		notifier.publish(ctx, domain.NewChangeEvent(domain.ChangeAllocationReleased, eventID, a.ID))
	}
	return report, nil
}
