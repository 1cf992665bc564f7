package controllers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// AllocateRequest is the request body for POST /events/{eventID}/allocations.
type AllocateRequest struct {
	ResourceID string  `json:"resource_id"`
	Quantity   int     `json:"quantity"`
	Notes      *string `json:"notes"`
}

// Validate implements Validator.
func (a AllocateRequest) Validate() []string {
	var errs []string
	if a.ResourceID == "" {
		errs = append(errs, "resource_id is required")
	} else if uuid.Validate(a.ResourceID) != nil {
		errs = append(errs, "resource_id must be a UUID")
	}
	if a.Quantity <= 0 {
		errs = append(errs, "quantity must be positive")
	}
	return errs
}

// AllocationSuccessResponse is the success envelope for POST /events/{eventID}/allocations (201).
type AllocationSuccessResponse struct {
	Data  *domain.Allocation `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// AllocationListSuccessResponse is the success envelope for GET /events/{eventID}/allocations (200).
type AllocationListSuccessResponse struct {
	Data  []*domain.Allocation `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ReleaseReportSuccessResponse is the success envelope for DELETE /events/{eventID}/allocations (200).
type ReleaseReportSuccessResponse struct {
	Data  *domain.ReleaseReport `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type AllocationController struct {
	Logger  *slog.Logger
	Service domain.AllocationService
}

func NewAllocationController(logger *slog.Logger, svc domain.AllocationService) *AllocationController {
	return &AllocationController{
		Logger:  logger,
		Service: svc,
	}
}

// Allocate godoc
// @Summary Allocate a resource to an event
// @Description Reserves the quantity and records the allocation in one step. Venues are allocated whole.
// @Tags allocations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body AllocateRequest true "Allocation"
// @Success 201 {object} controllers.AllocationSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (insufficient capacity)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/allocations [post]
func (c *AllocationController) Allocate(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req AllocateRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	a := &domain.Allocation{
		ResourceID: req.ResourceID,
		EventID:    eventID,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
	}
	if err := c.Service.Allocate(r.Context(), userID, a); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, a)
}

// ListAllocations godoc
// @Summary List the allocations of an event
// @Tags allocations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.AllocationListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/allocations [get]
func (c *AllocationController) ListAllocations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	allocations, err := c.Service.ListAllocations(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if allocations == nil {
		allocations = []*domain.Allocation{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, allocations)
}

// ReleaseAll godoc
// @Summary Release every allocation of an event
// @Description Allocations whose resource was deleted are reported as skipped.
// @Tags allocations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ReleaseReportSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/allocations [delete]
func (c *AllocationController) ReleaseAll(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	report, err := c.Service.ReleaseAll(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report)
}

// ReleaseAllocation godoc
// @Summary Release one allocation
// @Tags allocations
// @Security BearerAuth
// @Param allocationID path string true "Allocation ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /allocations/{allocationID} [delete]
func (c *AllocationController) ReleaseAllocation(w http.ResponseWriter, r *http.Request) {
	allocationID, ok := helpers.PathUUID(w, r, "allocationID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.ReleaseAllocation(r.Context(), allocationID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
