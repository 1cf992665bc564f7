package controllers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// RegisterRequest is the request body for POST /events/{eventID}/registrations.
type RegisterRequest struct {
	TicketTypeID string `json:"ticket_type_id"`
}

// Validate implements Validator.
func (req RegisterRequest) Validate() []string {
	if req.TicketTypeID == "" {
		return []string{"ticket_type_id is required"}
	}
	if uuid.Validate(req.TicketTypeID) != nil {
		return []string{"ticket_type_id must be a UUID"}
	}
	return nil
}

// RegistrationSuccessResponse is the success envelope for endpoints returning one registration.
type RegistrationSuccessResponse struct {
	Data  *domain.Registration `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// RegistrationListSuccessResponse is the success envelope for unpaginated registration lists.
type RegistrationListSuccessResponse struct {
	Data  []*domain.Registration `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// ListRegistrationsResponse is the data payload for GET /events/{eventID}/registrations (200).
type ListRegistrationsResponse struct {
	Items      []*domain.Registration `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListRegistrationsSuccessResponse is the success envelope for GET /events/{eventID}/registrations (200).
type ListRegistrationsSuccessResponse struct {
	Data  ListRegistrationsResponse `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// TicketResponse carries the QR token of a confirmed registration.
type TicketResponse struct {
	RegistrationID string `json:"registration_id"`
	Token          string `json:"token"`
}

// TicketSuccessResponse is the success envelope for GET /registrations/{registrationID}/ticket (200).
type TicketSuccessResponse struct {
	Data  TicketResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type RegistrationController struct {
	Logger   *slog.Logger
	Service  domain.RegistrationService
	Waitlist domain.WaitlistService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService, waitlist domain.WaitlistService) *RegistrationController {
	return &RegistrationController{
		Logger:   logger,
		Service:  svc,
		Waitlist: waitlist,
	}
}

// Register godoc
// @Summary Register for an event
// @Description Free and donation ticket types only; paid tickets go through POST /orders. The registration is confirmed when a slot is free, otherwise waitlisted.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body RegisterRequest true "Ticket type"
// @Success 201 {object} controllers.RegistrationSuccessResponse "data.status is confirmed or waitlisted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already registered)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/registrations [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	reg, err := c.Service.Register(r.Context(), eventID, userID, req.TicketTypeID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reg)
}

// Cancel godoc
// @Summary Cancel a registration
// @Description Allowed for the participant and the event organizer. A freed confirmed slot promotes the oldest waitlisted registration.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID (UUID)"
// @Success 200 {object} controllers.RegistrationSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{registrationID}/cancel [post]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	registrationID, ok := helpers.PathUUID(w, r, "registrationID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	reg, err := c.Service.Cancel(r.Context(), registrationID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// Ticket godoc
// @Summary Get the QR token of my registration
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID (UUID)"
// @Success 200 {object} controllers.TicketSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (not confirmed)"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{registrationID}/ticket [get]
func (c *RegistrationController) Ticket(w http.ResponseWriter, r *http.Request) {
	registrationID, ok := helpers.PathUUID(w, r, "registrationID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	token, err := c.Service.Ticket(r.Context(), registrationID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, TicketResponse{RegistrationID: registrationID, Token: token})
}

// ListRegistrations godoc
// @Summary List the registrations of an event
// @Description Paginated, oldest first. Only the event organizer can list.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListRegistrationsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/registrations [get]
func (c *RegistrationController) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	list, total, err := c.Service.ListRegistrations(r.Context(), eventID, userID, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if list == nil {
		list = []*domain.Registration{}
	}
	meta := helpers.NewPaginationMeta(params, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListRegistrationsResponse{Items: list, Pagination: meta})
}

// ListWaitlist godoc
// @Summary List the waitlist of an event
// @Description Waitlisted registrations in promotion order.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.RegistrationListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist [get]
func (c *RegistrationController) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	list, err := c.Service.ListWaitlist(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if list == nil {
		list = []*domain.Registration{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// RegistrationStatsSuccessResponse is the success envelope for GET /events/{eventID}/stats (200).
type RegistrationStatsSuccessResponse struct {
	Data  *domain.RegistrationStats `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// Stats godoc
// @Summary Registration counts of an event
// @Description Counts by state. checked_in is a subset of confirmed.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.RegistrationStatsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/stats [get]
func (c *RegistrationController) Stats(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	stats, err := c.Service.Stats(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}

// PromoteNext godoc
// @Summary Promote the next waitlisted registration
// @Description Confirms the oldest waitlisted registration if a slot is free. data is null when nobody was promoted.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.RegistrationSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist/promote [post]
func (c *RegistrationController) PromoteNext(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	reg, err := c.Waitlist.PromoteForOrganizer(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// ListMine godoc
// @Summary List my registrations
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.RegistrationListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/registrations [get]
func (c *RegistrationController) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	list, err := c.Service.ListMyRegistrations(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if list == nil {
		list = []*domain.Registration{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}
