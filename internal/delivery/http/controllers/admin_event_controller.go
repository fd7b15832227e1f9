package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"afisha/internal/delivery/http/helpers"
	"afisha/internal/domain"
)

// AdminUpdateEventRequest is the request body for PATCH /admin/events/{eventID}.
// All fields are optional. StateAction may be PUBLISH_EVENT or REJECT_EVENT.
type AdminUpdateEventRequest struct {
	UpdateEventRequest
}

// Validate implements Validator.
func (a AdminUpdateEventRequest) Validate() []string {
	var errs []string
	if a.Title != nil && *a.Title == "" {
		errs = append(errs, "title cannot be empty")
	}
	if a.StateAction != nil {
		switch domain.AdminStateAction(*a.StateAction) {
		case domain.ActionPublishEvent, domain.ActionRejectEvent:
		default:
			errs = append(errs, "state_action must be PUBLISH_EVENT or REJECT_EVENT")
		}
	}
	return errs
}

type AdminEventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewAdminEventController(logger *slog.Logger, svc domain.EventService) *AdminEventController {
	return &AdminEventController{
		Logger:  logger,
		Service: svc,
	}
}

// SearchEvents godoc
// @Summary Search events (admin)
// @Description Full event search across all states. Filters: users (comma-separated initiator IDs), states, categories, range_start/range_end (RFC3339). Results ordered by id, paged with from/size.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param users query string false "Comma-separated initiator IDs"
// @Param states query string false "Comma-separated states (PENDING, PUBLISHED, CANCELED)"
// @Param categories query string false "Comma-separated category IDs"
// @Param range_start query string false "Earliest event date (RFC3339)"
// @Param range_end query string false "Latest event date (RFC3339)"
// @Param from query int false "Number of results to skip (default 0)"
// @Param size query int false "Page size (default 10)"
// @Success 200 {object} controllers.EventListSuccessResponse "data is an array of events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events [get]
func (c *AdminEventController) SearchEvents(w http.ResponseWriter, r *http.Request) {
	rangeStart, ok := parseTimeQuery(r, "range_start")
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "range_start must be RFC3339")
		return
	}
	rangeEnd, ok := parseTimeQuery(r, "range_end")
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "range_end must be RFC3339")
		return
	}
	filter := domain.AdminSearchFilter{
		InitiatorIDs: splitCSVQuery(r, "users"),
		CategoryIDs:  splitCSVQuery(r, "categories"),
		RangeStart:   rangeStart,
		RangeEnd:     rangeEnd,
		From:         parseIntQuery(r, "from", 0),
		Size:         parseIntQuery(r, "size", 10),
	}
	for _, s := range splitCSVQuery(r, "states") {
		filter.States = append(filter.States, domain.EventState(s))
	}

	events, err := c.Service.SearchAdminEvents(r.Context(), filter)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if events == nil {
		events = []*domain.EventWithCounts{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// UpdateEvent godoc
// @Summary Update an event (admin)
// @Description Edits event fields and/or applies a moderation action. PUBLISH_EVENT requires PENDING state and sets published_on; REJECT_EVENT fails on PUBLISHED events.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body AdminUpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (state does not allow the action)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events/{eventID} [patch]
func (c *AdminEventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req AdminUpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var action *domain.AdminStateAction
	if req.StateAction != nil {
		a := domain.AdminStateAction(*req.StateAction)
		action = &a
	}
	event, err := c.Service.UpdateEventByAdmin(r.Context(), eventID, req.toDomain(), action)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
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
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// parseIntQuery parses an optional non-negative integer query parameter,
// falling back to def on absence or invalid input.
func parseIntQuery(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return def
	}
	return v
}
