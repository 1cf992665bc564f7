package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// CreateResourceRequest is the request body for POST /resources.
type CreateResourceRequest struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	TotalCapacity int     `json:"total_capacity"`
	Description   *string `json:"description"`
	Location      *string `json:"location"`
}

// Validate implements Validator.
func (c CreateResourceRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(c.Type) == "" {
		errs = append(errs, "type is required")
	}
	if c.TotalCapacity < 0 {
		errs = append(errs, "total_capacity must be >= 0")
	}
	return errs
}

// UpdateResourceRequest is the request body for PATCH /resources/{resourceID}.
type UpdateResourceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

// Validate implements Validator.
func (u UpdateResourceRequest) Validate() []string {
	var errs []string
	if u.Name == nil && u.Description == nil && u.Location == nil {
		errs = append(errs, "at least one of name, description, location is required")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	return errs
}

// ResourceSuccessResponse is the success envelope for endpoints returning one resource.
type ResourceSuccessResponse struct {
	Data  *domain.Resource  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ResourceListSuccessResponse is the success envelope for GET /resources (200).
type ResourceListSuccessResponse struct {
	Data  []*domain.Resource `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type ResourceController struct {
	Logger  *slog.Logger
	Service domain.InventoryService
}

func NewResourceController(logger *slog.Logger, svc domain.InventoryService) *ResourceController {
	return &ResourceController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateResource godoc
// @Summary Create a resource
// @Description Venue-like type tags (venue, room, hall, outdoor, outdoor space, auditorium, other) are booked whole; any other tag is divisible equipment.
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateResourceRequest true "Resource"
// @Success 201 {object} controllers.ResourceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources [post]
func (c *ResourceController) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req CreateResourceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res := domain.NewResource(req.Name, req.Type, req.TotalCapacity)
	res.Description = req.Description
	res.Location = req.Location
	if err := c.Service.CreateResource(r.Context(), res); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, res)
}

// ListResources godoc
// @Summary List resources
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param available query bool false "Only resources with free capacity"
// @Success 200 {object} controllers.ResourceListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources [get]
func (c *ResourceController) ListResources(w http.ResponseWriter, r *http.Request) {
	onlyAvailable := false
	if s := r.URL.Query().Get("available"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "available must be a boolean")
			return
		}
		onlyAvailable = v
	}
	resources, err := c.Service.ListResources(r.Context(), onlyAvailable)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if resources == nil {
		resources = []*domain.Resource{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, resources)
}

// GetResource godoc
// @Summary Get a resource
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param resourceID path string true "Resource ID (UUID)"
// @Success 200 {object} controllers.ResourceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources/{resourceID} [get]
func (c *ResourceController) GetResource(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := helpers.PathUUID(w, r, "resourceID")
	if !ok {
		return
	}
	res, err := c.Service.GetResource(r.Context(), resourceID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// UpdateResource godoc
// @Summary Update a resource
// @Description Name, description and location only. Type and capacity stay fixed so the allocation ledger keeps matching.
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param resourceID path string true "Resource ID (UUID)"
// @Param body body UpdateResourceRequest true "Fields to change"
// @Success 200 {object} controllers.ResourceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources/{resourceID} [patch]
func (c *ResourceController) UpdateResource(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := helpers.PathUUID(w, r, "resourceID")
	if !ok {
		return
	}
	var req UpdateResourceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Service.UpdateResource(r.Context(), resourceID, &domain.ResourceUpdate{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// DeleteResource godoc
// @Summary Delete a resource
// @Description Allocations that pointed at the resource keep existing without it.
// @Tags resources
// @Security BearerAuth
// @Param resourceID path string true "Resource ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources/{resourceID} [delete]
func (c *ResourceController) DeleteResource(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := helpers.PathUUID(w, r, "resourceID")
	if !ok {
		return
	}
	if err := c.Service.DeleteResource(r.Context(), resourceID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
