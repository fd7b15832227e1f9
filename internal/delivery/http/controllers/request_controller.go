package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"afisha/internal/delivery/http/helpers"
	"afisha/internal/domain"
)

// AddRequestRequest is the request body for POST /users/{userID}/requests.
type AddRequestRequest struct {
	EventID string `json:"event_id"`
}

// Validate implements Validator.
func (a AddRequestRequest) Validate() []string {
	if a.EventID == "" {
		return []string{"event_id is required"}
	}
	return nil
}

// ChangeRequestStatusRequest is the request body for
// PATCH /users/{userID}/events/{eventID}/requests.
type ChangeRequestStatusRequest struct {
	RequestIDs []string `json:"request_ids"`
	Status     string   `json:"status"`
}

// Validate implements Validator.
func (c ChangeRequestStatusRequest) Validate() []string {
	var errs []string
	if len(c.RequestIDs) == 0 {
		errs = append(errs, "request_ids is required")
	}
	switch domain.RequestStatus(c.Status) {
	case domain.RequestStatusConfirmed, domain.RequestStatusRejected:
	default:
		errs = append(errs, "status must be CONFIRMED or REJECTED")
	}
	return errs
}

// RequestSuccessResponse is the success envelope for endpoints returning a single request.
type RequestSuccessResponse struct {
	Data  *domain.ParticipationRequest `json:"data"`
	Error *helpers.APIError            `json:"error"`
}

// RequestListSuccessResponse is the success envelope for endpoints returning a list of requests.
type RequestListSuccessResponse struct {
	Data  []*domain.ParticipationRequest `json:"data"`
	Error *helpers.APIError              `json:"error"`
}

// StatusUpdateSuccessResponse is the success envelope for the bulk moderation endpoint.
type StatusUpdateSuccessResponse struct {
	Data  *domain.StatusUpdateResult `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

type RequestController struct {
	Logger  *slog.Logger
	Service domain.ParticipationService
}

func NewRequestController(logger *slog.Logger, svc domain.ParticipationService) *RequestController {
	return &RequestController{
		Logger:  logger,
		Service: svc,
	}
}

// AddRequest godoc
// @Summary Request participation in an event
// @Description Creates a participation request for the path user. The request is auto-confirmed when the event has no moderation or no participant limit; otherwise it starts PENDING. Duplicate active requests, own events, unpublished events, and full events respond 409.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Requester user ID"
// @Param body body AddRequestRequest true "Target event"
// @Success 201 {object} controllers.RequestSuccessResponse "data contains the created request"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (path user is not the caller)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (user or event)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/requests [post]
func (c *RequestController) AddRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserMatchesCaller(w, r)
	if !ok {
		return
	}
	var req AddRequestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	created, err := c.Service.AddRequest(r.Context(), userID, req.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
			return
		}
		if errors.Is(err, domain.ErrConflict) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, created)
}

// ListMyRequests godoc
// @Summary List the path user's participation requests
// @Description Returns every participation request the user has made, across all events.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Requester user ID"
// @Success 200 {object} controllers.RequestListSuccessResponse "data is an array of requests"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (user)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/requests [get]
func (c *RequestController) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserMatchesCaller(w, r)
	if !ok {
		return
	}
	requests, err := c.Service.ListUserRequests(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if requests == nil {
		requests = []*domain.ParticipationRequest{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, requests)
}

// CancelRequest godoc
// @Summary Cancel one of the path user's participation requests
// @Description Moves the request to CANCELED. Only the requester can cancel; a CONFIRMED request cannot be canceled.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Requester user ID"
// @Param requestID path string true "Request ID"
// @Success 200 {object} controllers.RequestSuccessResponse "data contains the canceled request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not requester)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already confirmed)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/requests/{requestID}/cancel [patch]
func (c *RequestController) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserMatchesCaller(w, r)
	if !ok {
		return
	}
	requestID := r.PathValue("requestID")
	if requestID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing requestID")
		return
	}
	canceled, err := c.Service.CancelRequest(r.Context(), userID, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "request not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		if errors.Is(err, domain.ErrConflict) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, canceled)
}

// ListEventRequests godoc
// @Summary List participation requests for one of the path user's events
// @Description Returns all requests for the event. Only the event initiator can list.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Initiator user ID"
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.RequestListSuccessResponse "data is an array of requests"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not initiator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/events/{eventID}/requests [get]
func (c *RequestController) ListEventRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserMatchesCaller(w, r)
	if !ok {
		return
	}
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	requests, err := c.Service.ListEventRequests(r.Context(), userID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if requests == nil {
		requests = []*domain.ParticipationRequest{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, requests)
}

// ChangeRequestStatus godoc
// @Summary Confirm or reject pending requests for one of the path user's events
// @Description Bulk moderation: moves the given PENDING requests to CONFIRMED or REJECTED in the supplied order, honoring the participant limit. When the limit fills, every remaining PENDING request of the event is rejected. Responds 409 when any listed request is not PENDING or the event is already full.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Initiator user ID"
// @Param eventID path string true "Event ID"
// @Param body body ChangeRequestStatusRequest true "Request IDs and target status"
// @Success 200 {object} controllers.StatusUpdateSuccessResponse "data contains confirmed and rejected requests"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not initiator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/events/{eventID}/requests [patch]
func (c *RequestController) ChangeRequestStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserMatchesCaller(w, r)
	if !ok {
		return
	}
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req ChangeRequestStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.ChangeRequestStatus(r.Context(), userID, eventID, req.RequestIDs, domain.RequestStatus(req.Status))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		if errors.Is(err, domain.ErrConflict) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
