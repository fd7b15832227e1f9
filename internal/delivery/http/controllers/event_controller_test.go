package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afisha/internal/delivery/http/helpers"
	"afisha/internal/delivery/http/middleware"
	"afisha/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createErr    error
	createResult *domain.EventWithCounts
	lastCreateID string
	lastCreateIn domain.NewEventInput

	updateOwnerErr    error
	updateOwnerResult *domain.EventWithCounts
	lastOwnerEventID  string
	lastOwnerUserID   string
	lastOwnerUpdate   domain.EventUpdate
	lastOwnerAction   *domain.OwnerStateAction

	updateAdminErr    error
	updateAdminResult *domain.EventWithCounts
	lastAdminEventID  string
	lastAdminUpdate   domain.EventUpdate
	lastAdminAction   *domain.AdminStateAction

	getOwnerErr    error
	getOwnerResult *domain.EventWithCounts

	listOwnerErr    error
	listOwnerResult []*domain.EventWithCounts
	lastListParams  domain.PaginationParams

	searchAdminErr    error
	searchAdminResult []*domain.EventWithCounts
	lastAdminFilter   domain.AdminSearchFilter

	searchPublicErr    error
	searchPublicResult []*domain.EventWithCounts
	lastPublicFilter   domain.PublicSearchFilter
	lastPublicIP       string

	getPublicErr    error
	getPublicResult *domain.EventWithCounts
	lastGetPublicID string
	lastGetPublicIP string
}

func (f *fakeEventService) CreateEvent(_ context.Context, initiatorID string, in domain.NewEventInput) (*domain.EventWithCounts, error) {
	f.lastCreateID = initiatorID
	f.lastCreateIn = in
	return f.createResult, f.createErr
}

func (f *fakeEventService) UpdateEventByOwner(_ context.Context, eventID, initiatorID string, upd domain.EventUpdate, action *domain.OwnerStateAction) (*domain.EventWithCounts, error) {
	f.lastOwnerEventID = eventID
	f.lastOwnerUserID = initiatorID
	f.lastOwnerUpdate = upd
	f.lastOwnerAction = action
	return f.updateOwnerResult, f.updateOwnerErr
}

func (f *fakeEventService) UpdateEventByAdmin(_ context.Context, eventID string, upd domain.EventUpdate, action *domain.AdminStateAction) (*domain.EventWithCounts, error) {
	f.lastAdminEventID = eventID
	f.lastAdminUpdate = upd
	f.lastAdminAction = action
	return f.updateAdminResult, f.updateAdminErr
}

func (f *fakeEventService) GetOwnerEvent(_ context.Context, _, _ string) (*domain.EventWithCounts, error) {
	return f.getOwnerResult, f.getOwnerErr
}

func (f *fakeEventService) ListOwnerEvents(_ context.Context, _ string, params domain.PaginationParams) ([]*domain.EventWithCounts, error) {
	f.lastListParams = params
	return f.listOwnerResult, f.listOwnerErr
}

func (f *fakeEventService) SearchAdminEvents(_ context.Context, filter domain.AdminSearchFilter) ([]*domain.EventWithCounts, error) {
	f.lastAdminFilter = filter
	return f.searchAdminResult, f.searchAdminErr
}

func (f *fakeEventService) SearchPublicEvents(_ context.Context, filter domain.PublicSearchFilter, clientIP string) ([]*domain.EventWithCounts, error) {
	f.lastPublicFilter = filter
	f.lastPublicIP = clientIP
	return f.searchPublicResult, f.searchPublicErr
}

func (f *fakeEventService) GetPublicEvent(_ context.Context, eventID, clientIP string) (*domain.EventWithCounts, error) {
	f.lastGetPublicID = eventID
	f.lastGetPublicIP = clientIP
	return f.getPublicResult, f.getPublicErr
}

func sampleEventWithCounts(id string) *domain.EventWithCounts {
	return &domain.EventWithCounts{
		Event: &domain.Event{
			ID:          id,
			Title:       "Go Meetup",
			Annotation:  "monthly meetup",
			CategoryID:  "cat-1",
			InitiatorID: "user-1",
			EventDate:   time.Now().Add(72 * time.Hour),
			State:       domain.EventStatePending,
		},
	}
}

// authedRequest builds a request with the given authenticated user in context
// and userID/eventID path values set.
func authedRequest(t *testing.T, method, target, callerID string, body any, pathValues map[string]string) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if callerID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), callerID))
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	return req
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope
}

func TestEventController_CreateEvent(t *testing.T) {
	validBody := CreateEventRequest{
		Title:      "Go Meetup",
		Annotation: "monthly meetup",
		CategoryID: "cat-1",
		EventDate:  time.Now().Add(72 * time.Hour).Truncate(time.Second),
	}

	tests := []struct {
		name         string
		callerID     string
		pathUserID   string
		body         any
		svc          *fakeEventService
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "success",
			callerID:   "user-1",
			pathUserID: "user-1",
			body:       validBody,
			svc:        &fakeEventService{createResult: sampleEventWithCounts("ev-1")},
			wantStatus: http.StatusCreated,
		},
		{
			name:         "unauthenticated",
			callerID:     "",
			pathUserID:   "user-1",
			body:         validBody,
			svc:          &fakeEventService{},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "path user is not the caller",
			callerID:     "user-2",
			pathUserID:   "user-1",
			body:         validBody,
			svc:          &fakeEventService{},
			wantStatus:   http.StatusForbidden,
			wantBodyCode: helpers.ErrCodeForbidden,
		},
		{
			name:         "missing title",
			callerID:     "user-1",
			pathUserID:   "user-1",
			body:         CreateEventRequest{Annotation: "a", CategoryID: "cat-1", EventDate: time.Now().Add(72 * time.Hour)},
			svc:          &fakeEventService{},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "event date too soon",
			callerID:     "user-1",
			pathUserID:   "user-1",
			body:         validBody,
			svc:          &fakeEventService{createErr: domain.ErrInvalidInput},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "unknown category",
			callerID:     "user-1",
			pathUserID:   "user-1",
			body:         validBody,
			svc:          &fakeEventService{createErr: domain.ErrNotFound},
			wantStatus:   http.StatusNotFound,
			wantBodyCode: helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEventController(testLogger, tt.svc)
			req := authedRequest(t, http.MethodPost, "http://test/users/"+tt.pathUserID+"/events", tt.callerID, tt.body, map[string]string{"userID": tt.pathUserID})
			rr := httptest.NewRecorder()

			c.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBodyCode != "" {
				envelope := decodeEnvelope(t, rr)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
			}
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, "user-1", tt.svc.lastCreateID)
				assert.Equal(t, "Go Meetup", tt.svc.lastCreateIn.Title)
			}
		})
	}
}

func TestEventController_UpdateMyEvent(t *testing.T) {
	action := string(domain.ActionSendToReview)
	title := "New title"

	tests := []struct {
		name         string
		body         UpdateEventRequest
		svc          *fakeEventService
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "field edit with state action",
			body:       UpdateEventRequest{Title: &title, StateAction: &action},
			svc:        &fakeEventService{updateOwnerResult: sampleEventWithCounts("ev-1")},
			wantStatus: http.StatusOK,
		},
		{
			name:         "published event conflict",
			body:         UpdateEventRequest{Title: &title},
			svc:          &fakeEventService{updateOwnerErr: domain.ErrConflict},
			wantStatus:   http.StatusConflict,
			wantBodyCode: helpers.ErrCodeConflict,
		},
		{
			name:         "unknown state action",
			body:         UpdateEventRequest{StateAction: strPtr("MAKE_IT_SO")},
			svc:          &fakeEventService{},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEventController(testLogger, tt.svc)
			req := authedRequest(t, http.MethodPatch, "http://test/users/user-1/events/ev-1", "user-1", tt.body,
				map[string]string{"userID": "user-1", "eventID": "ev-1"})
			rr := httptest.NewRecorder()

			c.UpdateMyEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBodyCode != "" {
				envelope := decodeEnvelope(t, rr)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
			}
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "ev-1", tt.svc.lastOwnerEventID)
				assert.Equal(t, "user-1", tt.svc.lastOwnerUserID)
				require.NotNil(t, tt.svc.lastOwnerAction)
				assert.Equal(t, domain.ActionSendToReview, *tt.svc.lastOwnerAction)
				require.NotNil(t, tt.svc.lastOwnerUpdate.Title)
				assert.Equal(t, "New title", *tt.svc.lastOwnerUpdate.Title)
			}
		})
	}
}

func TestEventController_GetMyEvent_NotFound(t *testing.T) {
	svc := &fakeEventService{getOwnerErr: domain.ErrNotFound}
	c := NewEventController(testLogger, svc)
	req := authedRequest(t, http.MethodGet, "http://test/users/user-1/events/ev-404", "user-1", nil,
		map[string]string{"userID": "user-1", "eventID": "ev-404"})
	rr := httptest.NewRecorder()

	c.GetMyEvent(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEventController_ListMyEvents_EmptyIsArray(t *testing.T) {
	svc := &fakeEventService{}
	c := NewEventController(testLogger, svc)
	req := authedRequest(t, http.MethodGet, "http://test/users/user-1/events?page=2&page_size=5", "user-1", nil,
		map[string]string{"userID": "user-1"})
	rr := httptest.NewRecorder()

	c.ListMyEvents(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[]`)
	assert.Equal(t, domain.PaginationParams{Page: 2, PageSize: 5}, svc.lastListParams)
}

func strPtr(s string) *string { return &s }
