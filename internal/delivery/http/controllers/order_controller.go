package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// BeginOrderRequest is the request body for POST /orders.
type BeginOrderRequest struct {
	EventID      string  `json:"event_id"`
	TicketTypeID string  `json:"ticket_type_id"`
	Amount       float64 `json:"amount"`
}

// Validate implements Validator.
func (b BeginOrderRequest) Validate() []string {
	var errs []string
	if uuid.Validate(b.EventID) != nil {
		errs = append(errs, "event_id must be a UUID")
	}
	if uuid.Validate(b.TicketTypeID) != nil {
		errs = append(errs, "ticket_type_id must be a UUID")
	}
	if b.Amount <= 0 {
		errs = append(errs, "amount must be positive")
	}
	return errs
}

// ConfirmPaymentRequest is the signed gateway callback forwarded by the client.
type ConfirmPaymentRequest struct {
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// Validate implements Validator.
func (c ConfirmPaymentRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.GatewayPaymentID) == "" {
		errs = append(errs, "gateway_payment_id is required")
	}
	if strings.TrimSpace(c.Signature) == "" {
		errs = append(errs, "signature is required")
	}
	return errs
}

// CheckoutSuccessResponse is the success envelope for POST /orders (201).
type CheckoutSuccessResponse struct {
	Data  *domain.CheckoutSession `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// OrderSuccessResponse is the success envelope for POST /orders/{orderID}/confirm (200).
type OrderSuccessResponse struct {
	Data  *domain.Order     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// OrderListSuccessResponse is the success envelope for GET /me/orders (200).
type OrderListSuccessResponse struct {
	Data  []*domain.Order   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type OrderController struct {
	Logger  *slog.Logger
	Service domain.OrderService
}

func NewOrderController(logger *slog.Logger, svc domain.OrderService) *OrderController {
	return &OrderController{
		Logger:  logger,
		Service: svc,
	}
}

// BeginOrder godoc
// @Summary Start a paid or donation order
// @Description Creates a pending order and a gateway order. Paid amounts must equal the ticket price. Rejected with conflict when the event has no free slot.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BeginOrderRequest true "Order"
// @Success 201 {object} controllers.CheckoutSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (full or already registered)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orders [post]
func (c *OrderController) BeginOrder(w http.ResponseWriter, r *http.Request) {
	var req BeginOrderRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	session, err := c.Service.BeginPaidOrder(r.Context(), req.EventID, userID, req.TicketTypeID, req.Amount)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, session)
}

// ConfirmPayment godoc
// @Summary Confirm a payment
// @Description Verifies the gateway signature and confirms the registration. Repeating the call returns the completed order.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orderID path string true "Order ID (UUID)"
// @Param body body ConfirmPaymentRequest true "Gateway proof"
// @Success 200 {object} controllers.OrderSuccessResponse "data.qr_code_data holds the ticket token"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 402 {object} helpers.APIResponse "error.code: payment_failed"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orders/{orderID}/confirm [post]
func (c *OrderController) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := helpers.PathUUID(w, r, "orderID")
	if !ok {
		return
	}
	var req ConfirmPaymentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	proof := domain.PaymentProof{
		GatewayPaymentID: strings.TrimSpace(req.GatewayPaymentID),
		Signature:        strings.TrimSpace(req.Signature),
	}
	order, err := c.Service.ConfirmPayment(r.Context(), orderID, userID, proof)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, order)
}

// ListMine godoc
// @Summary List my orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.OrderListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/orders [get]
func (c *OrderController) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	orders, err := c.Service.ListMyOrders(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, orders)
}
