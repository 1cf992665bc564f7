package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventticketing/internal/domain"
)

// Notifier runs the secondary effects of a committed transition: the change
// feed and the ticket email. Failures are logged and never returned.
type Notifier struct {
	publisher domain.ChangePublisher
	email     domain.EmailService
	users     domain.UserRepository
	events    domain.EventRepository
	logger    *slog.Logger
}

// NewNotifier accepts nil publisher or email service to disable that effect.
func NewNotifier(publisher domain.ChangePublisher, email domain.EmailService, users domain.UserRepository, events domain.EventRepository, logger *slog.Logger) *Notifier {
	return &Notifier{publisher: publisher, email: email, users: users, events: events, logger: logger}
}

func (n *Notifier) publish(ctx context.Context, change *domain.ChangeEvent) {
	if n == nil || n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, change); err != nil {
		n.logger.WarnContext(ctx, "publish change failed", "type", change.Type, "entity_id", change.EntityID, "err", err)
	}
}

// registrationChanged publishes a registration transition.
func (n *Notifier) registrationChanged(ctx context.Context, changeType string, reg *domain.Registration) {
	change := domain.NewChangeEvent(changeType, reg.EventID, reg.ID)
	change.UserID = reg.UserID
	change.Status = string(reg.Status)
	n.publish(ctx, change)
}

// sendTicket emails the participant. token is empty for waitlisted registrations.
func (n *Notifier) sendTicket(ctx context.Context, reg *domain.Registration, token string) {
	if n == nil || n.email == nil {
		return
	}
	if err := n.deliverTicket(ctx, reg, token); err != nil {
		n.logger.WarnContext(ctx, "ticket email not sent", "registration_id", reg.ID, "err", err)
	}
}

func (n *Notifier) deliverTicket(ctx context.Context, reg *domain.Registration, token string) error {
	user, err := n.users.GetByID(ctx, reg.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	event, err := n.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	return n.email.SendTicket(ctx, &domain.TicketEmailData{
		Email:      user.Email,
		Name:       user.Name,
		EventTitle: event.Title,
		Status:     reg.Status,
		Token:      token,
	})
}

// ownedEvent loads the event and checks organizerID owns it.
func ownedEvent(ctx context.Context, events domain.EventRepository, eventID, organizerID string) (*domain.Event, error) {
	event, err := events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

// passDomain returns err unchanged when it is one of the domain sentinels and
// wraps it with op otherwise.
func passDomain(op string, err error) error {
	for _, sentinel := range []error{
		domain.ErrNotFound,
		domain.ErrForbidden,
		domain.ErrInvalidInput,
		domain.ErrDuplicateRegistration,
		domain.ErrCapacityExceeded,
		domain.ErrInsufficientCapacity,
		domain.ErrInvalidOrUnregisteredToken,
		domain.ErrAlreadyCheckedIn,
		domain.ErrPaymentVerificationFailed,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
