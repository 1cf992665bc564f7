package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eventticketing/internal/domain"
)

// tokenStrategy maps a scanned identifier to a registration. ok is false on a
// miss so the next strategy runs; err is reserved for infrastructure faults.
type tokenStrategy struct {
	name    string
	resolve func(ctx context.Context, id string) (reg *domain.Registration, ok bool, err error)
}

type checkInService struct {
	checkInRepo    domain.CheckInRepository
	regRepo        domain.RegistrationRepository
	orderRepo      domain.OrderRepository
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	allocations    domain.AllocationService
	locker         domain.Locker
	notifier       *Notifier
	logger         *slog.Logger
	contextTimeout time.Duration
	strategies     []tokenStrategy
	now            func() time.Time
}

func NewCheckInService(checkInRepo domain.CheckInRepository,
	regRepo domain.RegistrationRepository,
	orderRepo domain.OrderRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	allocations domain.AllocationService,
	locker domain.Locker,
	notifier *Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) domain.CheckInService {
	s := &checkInService{
		checkInRepo:    checkInRepo,
		regRepo:        regRepo,
		orderRepo:      orderRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		allocations:    allocations,
		locker:         locker,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
	s.strategies = []tokenStrategy{
		{name: "registration", resolve: s.byRegistration},
		{name: "order", resolve: s.byOrder},
	}
	return s
}

func (s *checkInService) byRegistration(ctx context.Context, id string) (*domain.Registration, bool, error) {
	reg, err := s.regRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get registration: %w", err)
	}
	return reg, true, nil
}

func (s *checkInService) byOrder(ctx context.Context, id string) (*domain.Registration, bool, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get order: %w", err)
	}
	if order.PaymentStatus != domain.PaymentCompleted || order.RegistrationID == nil {
		return nil, false, nil
	}
	return s.byRegistration(ctx, *order.RegistrationID)
}

// ResolveToken tries each strategy in order and accepts the first hit. The
// registration it returns is always confirmed.
func (s *checkInService) ResolveToken(ctx context.Context, raw string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, _, err := s.resolve(ctx, raw)
	return reg, err
}

func (s *checkInService) resolve(ctx context.Context, raw string) (*domain.Registration, domain.ScannedIdentifier, error) {
	ident := domain.ParseScannedPayload(raw)
	if _, err := uuid.Parse(ident.Value); err != nil {
		return nil, ident, domain.ErrInvalidOrUnregisteredToken
	}
	for _, strategy := range s.strategies {
		reg, ok, err := strategy.resolve(ctx, ident.Value)
		if err != nil {
			return nil, ident, err
		}
		if !ok {
			continue
		}
		if reg.Status != domain.RegistrationConfirmed {
			s.logger.DebugContext(ctx, "token resolved to an inactive registration", "strategy", strategy.name, "status", reg.Status)
			return nil, ident, domain.ErrInvalidOrUnregisteredToken
		}
		return reg, ident, nil
	}
	return nil, ident, domain.ErrInvalidOrUnregisteredToken
}

// CheckIn moves a confirmed registration to checked in exactly once.
func (s *checkInService) CheckIn(ctx context.Context, reg *domain.Registration) (*domain.CheckInResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if reg.CheckedInAt != nil {
		return nil, &domain.AlreadyCheckedInError{CheckedInAt: *reg.CheckedInAt}
	}
	if reg.Status != domain.RegistrationConfirmed {
		return nil, domain.ErrInvalidOrUnregisteredToken
	}

	var resourceID *string
	alloc, err := s.allocations.FindResourceForEvent(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if alloc != nil && alloc.ResourceID != "" {
		id := alloc.ResourceID
		resourceID = &id
	}

	at := s.now().UTC()
	record, err := s.checkInRepo.Record(ctx, reg, resourceID, at)
	if err != nil {
		return nil, passDomain("record check-in", err)
	}
	checkedIn := *reg
	checkedIn.CheckedInAt = &record.CheckedInAt

	result := &domain.CheckInResult{Registration: &checkedIn, CheckIn: record}
	user, err := s.userRepo.GetByID(ctx, reg.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "load participant for check-in", "user_id", reg.UserID, "err", err)
	} else {
		result.ParticipantName = user.Name
		result.ParticipantEmail = user.Email
	}

	change := domain.NewChangeEvent(domain.ChangeCheckInRecorded, reg.EventID, reg.ID)
	change.UserID = reg.UserID
	change.Status = domain.CheckInStatusCheckedIn
	s.notifier.publish(ctx, change)
	return result, nil
}

// Scan resolves and checks in one physical ticket. Concurrent scans of the
// same identifier run one after another; the conditional write decides the winner.
func (s *checkInService) Scan(ctx context.Context, eventID, organizerID, raw string) (*domain.CheckInResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedEvent(ctx, s.eventRepo, eventID, organizerID); err != nil {
		return nil, err
	}
	unlock, err := s.locker.Lock(ctx, "checkin:"+domain.ParseScannedPayload(raw).Value)
	if err != nil {
		return nil, fmt.Errorf("lock token: %w", err)
	}
	defer unlock()

	reg, ident, err := s.resolve(ctx, raw)
	if err != nil {
		return nil, err
	}
	if reg.EventID != eventID || (ident.EventID != "" && ident.EventID != eventID) {
		return nil, domain.ErrInvalidOrUnregisteredToken
	}
	result, err := s.CheckIn(ctx, reg)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "participant checked in", "registration_id", reg.ID, "event_id", eventID)
	return result, nil
}

func (s *checkInService) ListCheckIns(ctx context.Context, eventID, organizerID string) ([]*domain.CheckIn, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedEvent(ctx, s.eventRepo, eventID, organizerID); err != nil {
		return nil, err
	}
	checkIns, err := s.checkInRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	return checkIns, nil
}
