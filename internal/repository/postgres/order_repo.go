package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventticketing/internal/domain"
)

const orderColumns = `id, user_id, event_id, ticket_type_id, amount, currency, gateway_order_id, gateway_payment_id, payment_status, qr_code_data, registration_id, created_at, updated_at`

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) domain.OrderRepository {
	return &orderRepository{
		DB: db,
	}
}

func scanOrder(s scanner) (*domain.Order, error) {
	o := &domain.Order{}
	var paymentID, qr, regID sql.NullString
	var status string
	if err := s.Scan(&o.ID, &o.UserID, &o.EventID, &o.TicketTypeID, &o.Amount, &o.Currency, &o.GatewayOrderID,
		&paymentID, &status, &qr, &regID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.GatewayPaymentID = stringPtr(paymentID)
	o.QRCodeData = stringPtr(qr)
	o.RegistrationID = stringPtr(regID)
	o.PaymentStatus = domain.PaymentStatus(status)
	return o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	query := `
		INSERT INTO orders (user_id, event_id, ticket_type_id, amount, currency, gateway_order_id, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, o.UserID, o.EventID, o.TicketTypeID, o.Amount, o.Currency, o.GatewayOrderID,
		string(o.PaymentStatus), o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *orderRepository) MarkFailed(ctx context.Context, id string) error {
	query := `UPDATE orders SET payment_status = 'failed', updated_at = NOW() WHERE id = $1 AND payment_status = 'pending'`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

func (r *orderRepository) Complete(ctx context.Context, orderID string, proof domain.PaymentProof, token string) (*domain.PaymentCompletion, error) {
	var out *domain.PaymentCompletion
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		order, err := scanOrder(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}

		switch order.PaymentStatus {
		case domain.PaymentCompleted:
			out = &domain.PaymentCompletion{Order: order, AlreadyCompleted: true}
			if order.RegistrationID != nil {
				reg, err := scanRegistration(tx.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, *order.RegistrationID))
				if err != nil {
					return err
				}
				out.Registration = reg
			}
			return nil
		case domain.PaymentRefunded:
			return domain.InvalidInputf("order %s was refunded", order.ID)
		}

		reg, promoted, err := confirmRegistrationForOrder(ctx, tx, order)
		if err != nil {
			return err
		}

		query := `
			UPDATE orders SET payment_status = 'completed', gateway_payment_id = $2, gateway_signature = $3,
				qr_code_data = $4, registration_id = $5, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + orderColumns
		order, err = scanOrder(tx.QueryRowContext(ctx, query, orderID, proof.GatewayPaymentID, proof.Signature, token, reg.ID))
		if err != nil {
			return err
		}
		out = &domain.PaymentCompletion{Order: order, Registration: reg, Promoted: promoted}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// confirmRegistrationForOrder finds the active registration of the order's
// triple or creates one. Paid registrations are always confirmed.
func confirmRegistrationForOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) (*domain.Registration, bool, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1 AND event_id = $2 AND ticket_type_id = $3 AND status <> 'cancelled'
		FOR UPDATE
	`
	reg, err := scanRegistration(tx.QueryRowContext(ctx, query, order.UserID, order.EventID, order.TicketTypeID))
	switch {
	case err == nil && reg.Status == domain.RegistrationConfirmed:
		return reg, false, nil
	case err == nil:
		update := `UPDATE registrations SET status = 'confirmed', updated_at = NOW() WHERE id = $1 RETURNING ` + registrationColumns
		reg, err = scanRegistration(tx.QueryRowContext(ctx, update, reg.ID))
		if err != nil {
			return nil, false, err
		}
		return reg, true, incrementSoldCount(ctx, tx, reg.TicketTypeID)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, err
	}

	now := time.Now()
	reg = domain.NewRegistration(order.EventID, order.UserID, order.TicketTypeID, now)
	reg.Status = domain.RegistrationConfirmed
	insert := `
		INSERT INTO registrations (event_id, user_id, ticket_type_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, insert, reg.EventID, reg.UserID, reg.TicketTypeID, string(reg.Status), reg.CreatedAt, reg.UpdatedAt).
		Scan(&reg.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, false, domain.ErrDuplicateRegistration
		}
		return nil, false, err
	}
	return reg, false, incrementSoldCount(ctx, tx, reg.TicketTypeID)
}
