package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"afisha/internal/delivery/http/helpers"
	"afisha/internal/delivery/http/middleware"
	"afisha/internal/domain"
)

// pathUserMatchesCaller reads the userID path value and checks it against the
// authenticated caller. Writes the error response and returns false on
// mismatch or missing auth.
func pathUserMatchesCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	pathUserID := r.PathValue("userID")
	if pathUserID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return "", false
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	if callerID != pathUserID {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		return "", false
	}
	return pathUserID, true
}

// parseTimeQuery parses an optional RFC3339 query parameter. The bool result
// is false when the value is present but malformed.
func parseTimeQuery(r *http.Request, name string) (*time.Time, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// splitCSVQuery returns the non-empty comma-separated values of a query parameter.
func splitCSVQuery(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CreateEventRequest is the request body for POST /users/{userID}/events.
type CreateEventRequest struct {
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	CategoryID        string     `json:"category_id"`
	EventDate         time.Time  `json:"event_date"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participant_limit"`
	RequestModeration *bool      `json:"request_moderation"`
	LocationLat       *float64   `json:"location_lat"`
	LocationLon       *float64   `json:"location_lon"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(c.Annotation) == "" {
		errs = append(errs, "annotation is required")
	}
	if c.CategoryID == "" {
		errs = append(errs, "category_id is required")
	}
	if c.EventDate.IsZero() {
		errs = append(errs, "event_date is required")
	}
	if c.ParticipantLimit < 0 {
		errs = append(errs, "participant_limit must be non-negative")
	}
	if c.LocationLat != nil && (*c.LocationLat < -90 || *c.LocationLat > 90) {
		errs = append(errs, "location_lat must be between -90 and 90")
	}
	if c.LocationLon != nil && (*c.LocationLon < -180 || *c.LocationLon > 180) {
		errs = append(errs, "location_lon must be between -180 and 180")
	}
	return errs
}

// UpdateEventRequest is the request body for PATCH /users/{userID}/events/{eventID}.
// All fields are optional; omitted fields are unchanged. StateAction may be
// SEND_TO_REVIEW or CANCEL_REVIEW.
type UpdateEventRequest struct {
	Title             *string    `json:"title"`
	Annotation        *string    `json:"annotation"`
	Description       *string    `json:"description"`
	CategoryID        *string    `json:"category_id"`
	EventDate         *time.Time `json:"event_date"`
	Paid              *bool      `json:"paid"`
	ParticipantLimit  *int       `json:"participant_limit"`
	RequestModeration *bool      `json:"request_moderation"`
	LocationLat       *float64   `json:"location_lat"`
	LocationLon       *float64   `json:"location_lon"`
	StateAction       *string    `json:"state_action"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.CategoryID != nil && *u.CategoryID == "" {
		errs = append(errs, "category_id cannot be empty")
	}
	if u.LocationLat != nil && (*u.LocationLat < -90 || *u.LocationLat > 90) {
		errs = append(errs, "location_lat must be between -90 and 90")
	}
	if u.LocationLon != nil && (*u.LocationLon < -180 || *u.LocationLon > 180) {
		errs = append(errs, "location_lon must be between -180 and 180")
	}
	if u.StateAction != nil {
		switch domain.OwnerStateAction(*u.StateAction) {
		case domain.ActionSendToReview, domain.ActionCancelReview:
		default:
			errs = append(errs, "state_action must be SEND_TO_REVIEW or CANCEL_REVIEW")
		}
	}
	return errs
}

func (u UpdateEventRequest) toDomain() domain.EventUpdate {
	return domain.EventUpdate{
		Title:             u.Title,
		Annotation:        u.Annotation,
		Description:       u.Description,
		CategoryID:        u.CategoryID,
		EventDate:         u.EventDate,
		Paid:              u.Paid,
		ParticipantLimit:  u.ParticipantLimit,
		RequestModeration: u.RequestModeration,
		LocationLat:       u.LocationLat,
		LocationLon:       u.LocationLon,
	}
}

// EventSuccessResponse is the success envelope for endpoints returning a single event.
type EventSuccessResponse struct {
	Data  *domain.EventWithCounts `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// EventListSuccessResponse is the success envelope for endpoints returning a list of events.
type EventListSuccessResponse struct {
	Data  []*domain.EventWithCounts `json:"data"`
	Error *helpers.APIError         `json:"error"`
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
// @Description Create an event owned by the path user. The event starts in PENDING state and must be at least 2 hours in the future. request_moderation defaults to true.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Initiator user ID"
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (path user is not the caller)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (user or category)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserMatchesCaller(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), userID, domain.NewEventInput{
		Title:             req.Title,
		Annotation:        req.Annotation,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		EventDate:         req.EventDate,
		Paid:              req.Paid,
		ParticipantLimit:  req.ParticipantLimit,
		RequestModeration: req.RequestModeration,
		LocationLat:       req.LocationLat,
		LocationLon:       req.LocationLon,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListMyEvents godoc
// @Summary List events owned by the path user
// @Description Returns the user's events with confirmed-request and view counts. Use page and page_size query params.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Initiator user ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse "data is an array of events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/events [get]
func (c *EventController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserMatchesCaller(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	events, err := c.Service.ListOwnerEvents(r.Context(), userID, params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if events == nil {
		events = []*domain.EventWithCounts{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetMyEvent godoc
// @Summary Get one of the path user's events
// @Description Returns the event with counts. Only the initiator can access.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Initiator user ID"
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not initiator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/events/{eventID} [get]
func (c *EventController) GetMyEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserMatchesCaller(w, r)
	if !ok {
		return
	}
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Service.GetOwnerEvent(r.Context(), userID, eventID)
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
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateMyEvent godoc
// @Summary Update one of the path user's events
// @Description Edits event fields and/or applies a state action (SEND_TO_REVIEW, CANCEL_REVIEW). A PUBLISHED event cannot be edited by its owner; a CANCELED event cannot be resubmitted for review.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Initiator user ID"
// @Param eventID path string true "Event ID"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not initiator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (published or canceled state)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/events/{eventID} [patch]
func (c *EventController) UpdateMyEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserMatchesCaller(w, r)
	if !ok {
		return
	}
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var action *domain.OwnerStateAction
	if req.StateAction != nil {
		a := domain.OwnerStateAction(*req.StateAction)
		action = &a
	}
	event, err := c.Service.UpdateEventByOwner(r.Context(), eventID, userID, req.toDomain(), action)
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
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
