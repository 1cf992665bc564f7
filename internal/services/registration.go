package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventticketing/internal/domain"
)

type registrationService struct {
	regRepo        domain.RegistrationRepository
	eventRepo      domain.EventRepository
	ticketTypeRepo domain.TicketTypeRepository
	waitlist       domain.WaitlistService
	notifier       *Notifier
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewRegistrationService(regRepo domain.RegistrationRepository,
	eventRepo domain.EventRepository,
	ticketTypeRepo domain.TicketTypeRepository,
	waitlist domain.WaitlistService,
	notifier *Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		regRepo:        regRepo,
		eventRepo:      eventRepo,
		ticketTypeRepo: ticketTypeRepo,
		waitlist:       waitlist,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// Register records a direct registration for a free or donation ticket.
// Paid tickets go through the order flow.
func (s *registrationService) Register(ctx context.Context, eventID, userID, ticketTypeID string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tt, err := s.ticketTypeRepo.GetByID(ctx, ticketTypeID)
	if err != nil {
		return nil, passDomain("get ticket type", err)
	}
	if tt.EventID != eventID {
		return nil, domain.InvalidInputf("ticket type %s does not belong to event %s", ticketTypeID, eventID)
	}
	if tt.Kind == domain.TicketKindPaid {
		return nil, domain.InvalidInputf("paid tickets require an order")
	}

	reg := domain.NewRegistration(eventID, userID, ticketTypeID, time.Now().UTC())
	if err := s.regRepo.Register(ctx, reg); err != nil {
		return nil, passDomain("register", err)
	}
	s.logger.InfoContext(ctx, "registration created", "registration_id", reg.ID, "event_id", eventID, "status", reg.Status)

	if reg.Status == domain.RegistrationConfirmed {
		s.notifier.registrationChanged(ctx, domain.ChangeRegistrationConfirmed, reg)
		s.notifier.sendTicket(ctx, reg, registrationToken(ctx, s.logger, reg))
	} else {
		s.notifier.registrationChanged(ctx, domain.ChangeRegistrationWaitlisted, reg)
		s.notifier.sendTicket(ctx, reg, "")
	}
	return reg, nil
}

// registrationToken encodes the QR token of a confirmed registration, or returns "" after logging.
func registrationToken(ctx context.Context, logger *slog.Logger, reg *domain.Registration) string {
	token, err := domain.NewRegistrationTicketToken(reg).Encode()
	if err != nil {
		logger.ErrorContext(ctx, "encode ticket token", "registration_id", reg.ID, "err", err)
		return ""
	}
	return token
}

func (s *registrationService) Cancel(ctx context.Context, registrationID, callerID string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, passDomain("get registration", err)
	}
	if reg.UserID != callerID {
		if _, err := ownedEvent(ctx, s.eventRepo, reg.EventID, callerID); err != nil {
			return nil, err
		}
	}

	result, err := s.regRepo.Cancel(ctx, registrationID)
	if err != nil {
		return nil, passDomain("cancel registration", err)
	}
	cancelled := result.Registration
	s.notifier.registrationChanged(ctx, domain.ChangeRegistrationCancelled, cancelled)

	if result.PreviousStatus == domain.RegistrationConfirmed {
		if _, err := s.waitlist.PromoteNext(ctx, cancelled.EventID); err != nil {
			s.logger.WarnContext(ctx, "promotion after cancel failed", "event_id", cancelled.EventID, "err", err)
		}
	}
	return cancelled, nil
}

func (s *registrationService) ListRegistrations(ctx context.Context, eventID, organizerID string, params domain.PaginationParams) ([]*domain.Registration, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedEvent(ctx, s.eventRepo, eventID, organizerID); err != nil {
		return nil, 0, err
	}
	regs, total, err := s.regRepo.ListByEventID(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	return regs, total, nil
}

func (s *registrationService) ListWaitlist(ctx context.Context, eventID, organizerID string) ([]*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedEvent(ctx, s.eventRepo, eventID, organizerID); err != nil {
		return nil, err
	}
	regs, err := s.regRepo.ListWaitlist(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return regs, nil
}

func (s *registrationService) Stats(ctx context.Context, eventID, organizerID string) (*domain.RegistrationStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedEvent(ctx, s.eventRepo, eventID, organizerID); err != nil {
		return nil, err
	}
	stats, err := s.regRepo.Stats(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("registration stats: %w", err)
	}
	return stats, nil
}

func (s *registrationService) ListMyRegistrations(ctx context.Context, userID string) ([]*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	regs, err := s.regRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *registrationService) Ticket(ctx context.Context, registrationID, userID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return "", passDomain("get registration", err)
	}
	if reg.UserID != userID {
		return "", domain.ErrForbidden
	}
	if reg.Status != domain.RegistrationConfirmed {
		return "", domain.InvalidInputf("registration is %s, only confirmed registrations have a ticket", reg.Status)
	}
	token, err := domain.NewRegistrationTicketToken(reg).Encode()
	if err != nil {
		return "", fmt.Errorf("encode ticket token: %w", err)
	}
	return token, nil
}
