package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"eventticketing/internal/domain"
)

type orderService struct {
	orderRepo      domain.OrderRepository
	ticketTypeRepo domain.TicketTypeRepository
	eventRepo      domain.EventRepository
	resourceRepo   domain.ResourceRepository
	regRepo        domain.RegistrationRepository
	gateway        domain.PaymentGateway
	locker         domain.Locker
	notifier       *Notifier
	currency       string
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewOrderService(orderRepo domain.OrderRepository,
	ticketTypeRepo domain.TicketTypeRepository,
	eventRepo domain.EventRepository,
	resourceRepo domain.ResourceRepository,
	regRepo domain.RegistrationRepository,
	gateway domain.PaymentGateway,
	locker domain.Locker,
	notifier *Notifier,
	currency string,
	logger *slog.Logger,
	timeout time.Duration,
) domain.OrderService {
	return &orderService{
		orderRepo:      orderRepo,
		ticketTypeRepo: ticketTypeRepo,
		eventRepo:      eventRepo,
		resourceRepo:   resourceRepo,
		regRepo:        regRepo,
		gateway:        gateway,
		locker:         locker,
		notifier:       notifier,
		currency:       strings.ToUpper(currency),
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// BeginPaidOrder opens a pending order for one paid or donation ticket and
// returns what the client needs to start the gateway checkout.
func (s *orderService) BeginPaidOrder(ctx context.Context, eventID, userID, ticketTypeID string, amount float64) (*domain.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tt, err := s.ticketTypeRepo.GetByID(ctx, ticketTypeID)
	if err != nil {
		return nil, passDomain("get ticket type", err)
	}
	if tt.EventID != eventID {
		return nil, domain.InvalidInputf("ticket type %s does not belong to event %s", ticketTypeID, eventID)
	}
	if err := checkOrderAmount(tt, amount); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, passDomain("get event", err)
	}
	if err := s.checkNotRegistered(ctx, userID, eventID, ticketTypeID); err != nil {
		return nil, err
	}
	snap, err := s.capacitySnapshot(ctx, event, tt)
	if err != nil {
		return nil, err
	}
	if !snap.HasEventSlot() || !snap.HasTicketSlot() {
		return nil, domain.ErrCapacityExceeded
	}

	now := s.now()
	order := &domain.Order{
		UserID:        userID,
		EventID:       eventID,
		TicketTypeID:  ticketTypeID,
		Amount:        amount,
		Currency:      s.currency,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.GatewayOrderID, err = s.gateway.CreateOrder(ctx, amount, s.currency, fmt.Sprintf("%s:%s", eventID, userID))
	if err != nil {
		return nil, passDomain("create gateway order", err)
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.logger.InfoContext(ctx, "order created", "order_id", order.ID, "gateway_order_id", order.GatewayOrderID, "amount", amount)

	return &domain.CheckoutSession{
		OrderID:        order.ID,
		GatewayOrderID: order.GatewayOrderID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

// checkOrderAmount requires the exact price for paid tickets and any positive amount for donations.
func checkOrderAmount(tt *domain.TicketType, amount float64) error {
	switch tt.Kind {
	case domain.TicketKindPaid:
		if math.Abs(amount-tt.Price) > 0.005 {
			return domain.InvalidInputf("amount must equal the ticket price %.2f", tt.Price)
		}
	case domain.TicketKindDonation:
		if amount <= 0 {
			return domain.InvalidInputf("donation amount must be positive")
		}
	default:
		return domain.InvalidInputf("free tickets are registered directly")
	}
	return nil
}

// checkNotRegistered rejects buying a ticket the user already holds. A
// waitlisted registration may still be paid for.
func (s *orderService) checkNotRegistered(ctx context.Context, userID, eventID, ticketTypeID string) error {
	regs, err := s.regRepo.ListByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("list registrations: %w", err)
	}
	for _, r := range regs {
		if r.EventID == eventID && r.TicketTypeID == ticketTypeID && r.Status == domain.RegistrationConfirmed {
			return domain.ErrDuplicateRegistration
		}
	}
	return nil
}

func (s *orderService) capacitySnapshot(ctx context.Context, event *domain.Event, tt *domain.TicketType) (domain.CapacitySnapshot, error) {
	snap := domain.CapacitySnapshot{
		EventCapacity:    event.Capacity,
		OverrideCapacity: event.OverrideCapacity,
		TicketCapacity:   tt.Capacity,
		TicketSoldCount:  tt.SoldCount,
	}
	if event.VenueID != nil {
		venue, err := s.resourceRepo.GetByID(ctx, *event.VenueID)
		switch {
		case err == nil:
			seats := venue.TotalCapacity
			snap.VenueCapacity = &seats
		case !errors.Is(err, domain.ErrNotFound):
			return snap, fmt.Errorf("get venue: %w", err)
		}
	}
	confirmed, err := s.regRepo.CountConfirmed(ctx, event.ID)
	if err != nil {
		return snap, fmt.Errorf("count confirmed: %w", err)
	}
	snap.ConfirmedCount = confirmed
	return snap, nil
}

// ConfirmPayment verifies the gateway proof and binds the order to a confirmed
// registration. Repeating the call for a completed order returns the stored
// order and token without side effects.
func (s *orderService) ConfirmPayment(ctx context.Context, orderID, userID string, proof domain.PaymentProof) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, "order:"+orderID)
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	defer unlock()

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, passDomain("get order", err)
	}
	if order.UserID != userID {
		return nil, domain.ErrForbidden
	}
	switch order.PaymentStatus {
	case domain.PaymentCompleted:
		return order, nil
	case domain.PaymentFailed:
		return nil, domain.ErrPaymentVerificationFailed
	case domain.PaymentRefunded:
		return nil, domain.InvalidInputf("order was refunded")
	}

	if proof.GatewayPaymentID == "" || !s.gateway.VerifySignature(order.GatewayOrderID, proof.GatewayPaymentID, proof.Signature) {
		if err := s.orderRepo.MarkFailed(ctx, order.ID); err != nil {
			s.logger.ErrorContext(ctx, "mark order failed", "order_id", order.ID, "err", err)
		}
		s.logger.WarnContext(ctx, "payment signature rejected", "order_id", order.ID)
		change := domain.NewChangeEvent(domain.ChangePaymentFailed, order.EventID, order.ID)
		change.UserID = order.UserID
		change.Status = string(domain.PaymentFailed)
		s.notifier.publish(ctx, change)
		return nil, domain.ErrPaymentVerificationFailed
	}

	token, err := domain.NewOrderTicketToken(order, s.now()).Encode()
	if err != nil {
		return nil, fmt.Errorf("encode ticket token: %w", err)
	}
	completion, err := s.orderRepo.Complete(ctx, order.ID, proof, token)
	if err != nil {
		return nil, passDomain("complete order", err)
	}
	if completion.AlreadyCompleted {
		return completion.Order, nil
	}

	s.logger.InfoContext(ctx, "payment completed", "order_id", order.ID, "registration_id", completion.Registration.ID, "promoted", completion.Promoted)
	change := domain.NewChangeEvent(domain.ChangePaymentCompleted, order.EventID, order.ID)
	change.UserID = order.UserID
	change.Status = string(domain.PaymentCompleted)
	s.notifier.publish(ctx, change)
	if completion.Promoted {
		s.notifier.registrationChanged(ctx, domain.ChangeRegistrationPromoted, completion.Registration)
	} else {
		s.notifier.registrationChanged(ctx, domain.ChangeRegistrationConfirmed, completion.Registration)
	}
	s.notifier.sendTicket(ctx, completion.Registration, token)
	return completion.Order, nil
}

func (s *orderService) ListMyOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
