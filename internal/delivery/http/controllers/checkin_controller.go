package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// ScanRequest is the request body for POST /events/{eventID}/checkins.
// Token is the raw QR payload: a JSON ticket token or a bare registration or order id.
type ScanRequest struct {
	Token string `json:"token"`
}

// Validate implements Validator.
func (s ScanRequest) Validate() []string {
	if strings.TrimSpace(s.Token) == "" {
		return []string{"token is required"}
	}
	return nil
}

// CheckInSuccessResponse is the success envelope for POST /events/{eventID}/checkins (200).
type CheckInSuccessResponse struct {
	Data  *domain.CheckInResult `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// CheckInListSuccessResponse is the success envelope for GET /events/{eventID}/checkins (200).
type CheckInListSuccessResponse struct {
	Data  []*domain.CheckIn `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type CheckInController struct {
	Logger  *slog.Logger
	Service domain.CheckInService
}

func NewCheckInController(logger *slog.Logger, svc domain.CheckInService) *CheckInController {
	return &CheckInController{
		Logger:  logger,
		Service: svc,
	}
}

// Scan godoc
// @Summary Check a participant in
// @Description Resolves the scanned token to a confirmed registration of this event and records the check-in. A second scan answers already_checked_in with the first timestamp.
// @Tags checkins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body ScanRequest true "Scanned token"
// @Success 200 {object} controllers.CheckInSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_checked_in"
// @Failure 422 {object} helpers.APIResponse "error.code: invalid_token"
// @Failure 429 {object} helpers.APIResponse "error.code: rate_limited"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/checkins [post]
func (c *CheckInController) Scan(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req ScanRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	result, err := c.Service.Scan(r.Context(), eventID, userID, req.Token)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// ListCheckIns godoc
// @Summary List the check-ins of an event
// @Tags checkins
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.CheckInListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/checkins [get]
func (c *CheckInController) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	list, err := c.Service.ListCheckIns(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if list == nil {
		list = []*domain.CheckIn{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}
