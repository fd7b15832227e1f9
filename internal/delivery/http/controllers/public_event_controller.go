package controllers

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"afisha/internal/delivery/http/helpers"
	"afisha/internal/domain"
)

// clientIP extracts the caller's IP, preferring the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type PublicEventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewPublicEventController(logger *slog.Logger, svc domain.EventService) *PublicEventController {
	return &PublicEventController{
		Logger:  logger,
		Service: svc,
	}
}

// SearchEvents godoc
// @Summary Search published events
// @Description Public search over PUBLISHED events. Filters: text (case-insensitive over annotation and description), categories, paid, range_start/range_end (RFC3339; defaults to upcoming events when both omitted), only_available. Sort by EVENT_DATE (default) or VIEWS. Each call is recorded as a hit in the stats service.
// @Tags public
// @Produce json
// @Param text query string false "Text filter over annotation and description"
// @Param categories query string false "Comma-separated category IDs"
// @Param paid query bool false "Filter by paid flag"
// @Param range_start query string false "Earliest event date (RFC3339)"
// @Param range_end query string false "Latest event date (RFC3339)"
// @Param only_available query bool false "Only events with remaining capacity"
// @Param sort query string false "EVENT_DATE or VIEWS (default EVENT_DATE)"
// @Param from query int false "Number of results to skip (default 0)"
// @Param size query int false "Page size (default 10)"
// @Success 200 {object} controllers.EventListSuccessResponse "data is an array of events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *PublicEventController) SearchEvents(w http.ResponseWriter, r *http.Request) {
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
	q := r.URL.Query()
	filter := domain.PublicSearchFilter{
		Text:          strings.TrimSpace(q.Get("text")),
		CategoryIDs:   splitCSVQuery(r, "categories"),
		RangeStart:    rangeStart,
		RangeEnd:      rangeEnd,
		OnlyAvailable: q.Get("only_available") == "true",
		Sort:          domain.SortByEventDate,
		From:          parseIntQuery(r, "from", 0),
		Size:          parseIntQuery(r, "size", 10),
	}
	if p := q.Get("paid"); p != "" {
		paid := p == "true"
		filter.Paid = &paid
	}
	switch q.Get("sort") {
	case "", string(domain.SortByEventDate):
	case string(domain.SortByViews):
		filter.Sort = domain.SortByViews
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "sort must be EVENT_DATE or VIEWS")
		return
	}

	events, err := c.Service.SearchPublicEvents(r.Context(), filter, clientIP(r))
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

// GetEvent godoc
// @Summary Get a published event
// @Description Returns a single PUBLISHED event with confirmed-request and view counts. Unpublished events respond 404. Each call is recorded as a hit in the stats service.
// @Tags public
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *PublicEventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Service.GetPublicEvent(r.Context(), eventID, clientIP(r))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
