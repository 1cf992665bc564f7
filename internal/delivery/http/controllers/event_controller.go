package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title            string    `json:"title"`
	Description      *string   `json:"description"`
	StartTS          time.Time `json:"start_ts"`
	EndTS            time.Time `json:"end_ts"`
	Capacity         *int      `json:"capacity"`
	OverrideCapacity bool      `json:"override_capacity"`
	VenueID          *string   `json:"venue_id"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.StartTS.IsZero() || c.EndTS.IsZero() {
		errs = append(errs, "start_ts and end_ts are required")
	} else if !c.EndTS.After(c.StartTS) {
		errs = append(errs, "end_ts must be after start_ts")
	}
	if c.Capacity != nil && *c.Capacity < 0 {
		errs = append(errs, "capacity must be >= 0")
	}
	if c.VenueID != nil && uuid.Validate(*c.VenueID) != nil {
		errs = append(errs, "venue_id must be a UUID")
	}
	return errs
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All fields optional; omitted fields are unchanged.
// Send clear_capacity=true to remove the capacity limit and venue_id="" to unbind the venue.
type UpdateEventRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	StartTS          *time.Time `json:"start_ts"`
	EndTS            *time.Time `json:"end_ts"`
	Capacity         *int       `json:"capacity"`
	ClearCapacity    bool       `json:"clear_capacity"`
	OverrideCapacity *bool      `json:"override_capacity"`
	VenueID          *string    `json:"venue_id"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.Capacity != nil && *u.Capacity < 0 {
		errs = append(errs, "capacity must be >= 0")
	}
	if u.Capacity != nil && u.ClearCapacity {
		errs = append(errs, "capacity and clear_capacity are mutually exclusive")
	}
	if u.VenueID != nil && *u.VenueID != "" && uuid.Validate(*u.VenueID) != nil {
		errs = append(errs, "venue_id must be a UUID")
	}
	return errs
}

// CreateTicketTypeRequest is the request body for POST /events/{eventID}/ticket-types.
type CreateTicketTypeRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Kind        string  `json:"kind"`
	Price       float64 `json:"price"`
	Capacity    *int    `json:"capacity"`
}

// Validate implements Validator. Kind and price rules are checked by the service.
func (c CreateTicketTypeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(c.Kind) == "" {
		errs = append(errs, "kind is required")
	}
	return errs
}

// EventSuccessResponse is the success envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success envelope for GET /events/mine (200).
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// TicketTypeSuccessResponse is the success envelope for POST /events/{eventID}/ticket-types (201).
type TicketTypeSuccessResponse struct {
	Data  *domain.TicketType `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// TicketTypeListSuccessResponse is the success envelope for GET /events/{eventID}/ticket-types (200).
type TicketTypeListSuccessResponse struct {
	Data  []*domain.TicketType `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description The authenticated organizer becomes the event owner. A null capacity means unlimited unless a venue bounds it. A venue_id books that venue for the event.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (venue already booked)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	event := domain.NewEvent(req.Title, userID, req.StartTS, req.EndTS, req.Capacity)
	event.Description = req.Description
	event.OverrideCapacity = req.OverrideCapacity
	event.VenueID = req.VenueID
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListMyEvents godoc
// @Summary List my events
// @Description Events owned by the authenticated organizer.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/mine [get]
func (c *EventController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	events, err := c.Service.ListMyEvents(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partial update. Changing the venue books the new one and frees the old one; equipment allocations stay.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to change"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (venue already booked)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	update := &domain.EventUpdate{
		Title:            req.Title,
		Description:      req.Description,
		StartTS:          req.StartTS,
		EndTS:            req.EndTS,
		Capacity:         req.Capacity,
		ClearCapacity:    req.ClearCapacity,
		OverrideCapacity: req.OverrideCapacity,
		VenueID:          req.VenueID,
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, userID, update)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Releases every resource allocation of the event, then deletes it.
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTicketType godoc
// @Summary Add a ticket type to an event
// @Description Kind is free, paid or donation. Price must be 0 for free and positive otherwise.
// @Tags ticket-types
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body CreateTicketTypeRequest true "Ticket type"
// @Success 201 {object} controllers.TicketTypeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/ticket-types [post]
func (c *EventController) CreateTicketType(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req CreateTicketTypeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	tt := &domain.TicketType{
		EventID:     eventID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Kind:        domain.TicketKind(req.Kind),
		Price:       req.Price,
		Capacity:    req.Capacity,
	}
	if err := c.Service.CreateTicketType(r.Context(), userID, tt); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, tt)
}

// ListTicketTypes godoc
// @Summary List the ticket types of an event
// @Tags ticket-types
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.TicketTypeListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/ticket-types [get]
func (c *EventController) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	types, err := c.Service.ListTicketTypes(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if types == nil {
		types = []*domain.TicketType{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, types)
}
