package services

import (
	"context"
	"log/slog"
	"time"

	"eventticketing/internal/domain"
)

type waitlistService struct {
	regRepo        domain.RegistrationRepository
	eventRepo      domain.EventRepository
	notifier       *Notifier
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewWaitlistService(regRepo domain.RegistrationRepository, eventRepo domain.EventRepository, notifier *Notifier, logger *slog.Logger, timeout time.Duration) domain.WaitlistService {
	return &waitlistService{
		regRepo:        regRepo,
		eventRepo:      eventRepo,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// PromoteNext confirms the oldest waitlisted registration when a slot is free.
// It returns nil, nil when the waitlist is empty or the event is still full.
func (s *waitlistService) PromoteNext(ctx context.Context, eventID string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.regRepo.PromoteNext(ctx, eventID)
	if err != nil {
		return nil, passDomain("promote waitlist", err)
	}
	if reg == nil {
		return nil, nil
	}
	s.logger.InfoContext(ctx, "waitlist promoted", "registration_id", reg.ID, "event_id", eventID)
	s.notifier.registrationChanged(ctx, domain.ChangeRegistrationPromoted, reg)
	s.notifier.sendTicket(ctx, reg, registrationToken(ctx, s.logger, reg))
	return reg, nil
}

func (s *waitlistService) PromoteForOrganizer(ctx context.Context, eventID, organizerID string) (*domain.Registration, error) {
	if _, err := ownedEvent(ctx, s.eventRepo, eventID, organizerID); err != nil {
		return nil, err
	}
	return s.PromoteNext(ctx, eventID)
}
