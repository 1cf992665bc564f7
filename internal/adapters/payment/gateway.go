// Package payment talks to the hosted checkout of the payment gateway.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"eventticketing/internal/domain"
)

// Config holds the merchant credentials.
type Config struct {
	KeyID     string
	KeySecret string
}

// Gateway issues checkout references and verifies the signed success callback.
// The callback signature is hex(HMAC-SHA256(secret, "<gateway order id>|<payment id>")).
type Gateway struct {
	keyID  string
	secret []byte
	logger *slog.Logger
}

func NewGateway(cfg Config, logger *slog.Logger) (*Gateway, error) {
	if cfg.KeySecret == "" {
		return nil, fmt.Errorf("payment gateway: key secret is required")
	}
	return &Gateway{keyID: cfg.KeyID, secret: []byte(cfg.KeySecret), logger: logger}, nil
}

func (g *Gateway) KeyID() string {
	return g.keyID
}

func (g *Gateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error) {
	if amount <= 0 {
		return "", domain.InvalidInputf("amount must be positive")
	}
	gatewayOrderID := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	g.logger.InfoContext(ctx, "checkout order created",
		"gateway_order_id", gatewayOrderID, "amount", amount, "currency", currency, "receipt", receipt)
	return gatewayOrderID, nil
}

// Sign returns the signature the gateway attaches to a successful payment.
func (g *Gateway) Sign(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *Gateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(g.Sign(gatewayOrderID, paymentID))
	return hmac.Equal(got, want)
}

var _ domain.PaymentGateway = (*Gateway)(nil)
