package domain

import (
	"context"
	"time"
)

// PaymentStatus is the state of a payment attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Order is a payment attempt for one ticket of a paid or donation ticket type.
// swagger:model Order
type Order struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	EventID          string        `json:"event_id"`
	TicketTypeID     string        `json:"ticket_type_id"`
	Amount           float64       `json:"amount"`
	Currency         string        `json:"currency"`
	GatewayOrderID   string        `json:"gateway_order_id"`
	GatewayPaymentID *string       `json:"gateway_payment_id,omitempty"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	QRCodeData       *string       `json:"qr_code_data,omitempty"`
	RegistrationID   *string       `json:"registration_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// PaymentProof is the signed success callback of the payment gateway.
type PaymentProof struct {
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// CheckoutSession is handed to the client to open the gateway checkout.
// swagger:model CheckoutSession
type CheckoutSession struct {
	OrderID        string  `json:"order_id"`
	GatewayOrderID string  `json:"gateway_order_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	KeyID          string  `json:"key_id"`
}

// PaymentCompletion is the result of linking a verified payment to a registration.
type PaymentCompletion struct {
	Order        *Order
	Registration *Registration
	// AlreadyCompleted is set when another call completed the order first.
	AlreadyCompleted bool
	// Promoted is set when an existing waitlisted registration was confirmed by the payment.
	Promoted bool
}

// PaymentGateway is the external payment processor.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (gatewayOrderID string, err error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
	KeyID() string
}

// OrderRepository defines order storage.
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUserID(ctx context.Context, userID string) ([]*Order, error)
	// MarkFailed moves a pending order to failed.
	MarkFailed(ctx context.Context, id string) error
	// Complete finds or creates the confirmed registration, stores token and
	// proof and marks the order completed, all in one transaction. A second
	// call returns the stored state with AlreadyCompleted set.
	Complete(ctx context.Context, orderID string, proof PaymentProof, token string) (*PaymentCompletion, error)
}

// OrderService binds payments to registrations.
type OrderService interface {
	BeginPaidOrder(ctx context.Context, eventID, userID, ticketTypeID string, amount float64) (*CheckoutSession, error)
	ConfirmPayment(ctx context.Context, orderID, userID string, proof PaymentProof) (*Order, error)
	ListMyOrders(ctx context.Context, userID string) ([]*Order, error)
}
