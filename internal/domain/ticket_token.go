package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// tokenTimeLayout matches the millisecond ISO-8601 form scanners already print.
const tokenTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// TicketToken is the JSON payload embedded in a ticket QR code.
type TicketToken struct {
	OrderID        string `json:"order_id,omitempty"`
	RegistrationID string `json:"registration_id,omitempty"`
	EventID        string `json:"event_id"`
	UserID         string `json:"user_id"`
	TicketTypeID   string `json:"ticket_type_id"`
	Timestamp      string `json:"timestamp"`
}

// NewOrderTicketToken builds the token minted when an order is paid.
func NewOrderTicketToken(o *Order, issuedAt time.Time) TicketToken {
	return TicketToken{
		OrderID:      o.ID,
		EventID:      o.EventID,
		UserID:       o.UserID,
		TicketTypeID: o.TicketTypeID,
		Timestamp:    issuedAt.UTC().Format(tokenTimeLayout),
	}
}

// NewRegistrationTicketToken builds the token of a directly registered ticket.
// It only depends on stored fields, so repeated calls yield the same string.
func NewRegistrationTicketToken(r *Registration) TicketToken {
	return TicketToken{
		RegistrationID: r.ID,
		EventID:        r.EventID,
		UserID:         r.UserID,
		TicketTypeID:   r.TicketTypeID,
		Timestamp:      r.CreatedAt.UTC().Format(tokenTimeLayout),
	}
}

// Encode serialises the token. Field order is fixed by the struct.
func (t TicketToken) Encode() (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ScannedIdentifier is the identifier extracted from a scanned payload.
type ScannedIdentifier struct {
	Value string
	// Structured is false when the raw payload was used as is.
	Structured bool
	// EventID is the event the token claims to belong to, if any.
	EventID string
}

// ParseScannedPayload extracts the identifier to resolve. JSON payloads yield
// registration_id, then order_id, then id; anything else falls back to the raw text.
func ParseScannedPayload(raw string) ScannedIdentifier {
	raw = strings.TrimSpace(raw)
	var payload struct {
		RegistrationID string `json:"registration_id"`
		OrderID        string `json:"order_id"`
		ID             string `json:"id"`
		EventID        string `json:"event_id"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		for _, v := range []string{payload.RegistrationID, payload.OrderID, payload.ID} {
			if v = strings.TrimSpace(v); v != "" {
				return ScannedIdentifier{Value: v, Structured: true, EventID: payload.EventID}
			}
		}
	}
	return ScannedIdentifier{Value: raw}
}
