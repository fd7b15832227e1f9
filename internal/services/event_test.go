package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"afisha/internal/domain"
)

func newTestEventService(eventRepo *mockEventRepo, requestRepo *mockRequestRepo, userRepo *mockUserRepo, categoryRepo *mockCategoryRepo, stats domain.StatsClient) domain.EventService {
	return NewEventService(eventRepo, requestRepo, userRepo, categoryRepo, stats, testLogger(), 5*time.Second)
}

func validNewEventInput() domain.NewEventInput {
	return domain.NewEventInput{
		Title:      "City marathon",
		Annotation: "annual marathon",
		CategoryID: "c1",
		EventDate:  time.Now().Add(3 * time.Hour),
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	tests := []struct {
		name        string
		initiatorID string
		mutate      func(*domain.NewEventInput)
		wantErr     error
	}{
		{
			name:        "created pending with defaults",
			initiatorID: "u1",
		},
		{
			name:        "date less than two hours ahead",
			initiatorID: "u1",
			mutate: func(in *domain.NewEventInput) {
				in.EventDate = time.Now().Add(1 * time.Hour)
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:        "unknown initiator",
			initiatorID: "ghost",
			wantErr:     domain.ErrUserNotFound,
		},
		{
			name:        "unknown category",
			initiatorID: "u1",
			mutate: func(in *domain.NewEventInput) {
				in.CategoryID = "nope"
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:        "negative participant limit",
			initiatorID: "u1",
			mutate: func(in *domain.NewEventInput) {
				in.ParticipantLimit = -1
			},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestEventService(newMockEventRepo(), newMockRequestRepo(), newMockUserRepo("u1"), newMockCategoryRepo("c1"), nil)

			in := validNewEventInput()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			got, err := svc.CreateEvent(context.Background(), tt.initiatorID, in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.State != domain.EventStatePending {
				t.Fatalf("expected PENDING, got %s", got.State)
			}
			if got.PublishedOn != nil {
				t.Fatalf("publishedOn must be unset on creation")
			}
			if !got.RequestModeration {
				t.Fatalf("request moderation must default to true")
			}
		})
	}
}

func TestEventService_PublishEvent(t *testing.T) {
	event := &domain.Event{
		ID:          "e1",
		InitiatorID: "u1",
		EventDate:   time.Now().Add(48 * time.Hour),
		State:       domain.EventStatePending,
	}
	svc := newTestEventService(newMockEventRepo(event), newMockRequestRepo(), newMockUserRepo("u1"), newMockCategoryRepo("c1"), nil)

	action := domain.ActionPublishEvent
	got, err := svc.UpdateEventByAdmin(context.Background(), "e1", domain.EventUpdate{}, &action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != domain.EventStatePublished {
		t.Fatalf("expected PUBLISHED, got %s", got.State)
	}
	if got.PublishedOn == nil {
		t.Fatalf("publishedOn must be set on publish")
	}

	// Publishing an already published event fails.
	_, err = svc.UpdateEventByAdmin(context.Background(), "e1", domain.EventUpdate{}, &action)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on second publish, got %v", err)
	}
}

func TestEventService_RejectEvent(t *testing.T) {
	tests := []struct {
		name      string
		state     domain.EventState
		wantErr   error
		wantState domain.EventState
	}{
		{name: "pending event rejected", state: domain.EventStatePending, wantState: domain.EventStateCanceled},
		{name: "canceled event rejected again", state: domain.EventStateCanceled, wantState: domain.EventStateCanceled},
		{name: "published event cannot be rejected", state: domain.EventStatePublished, wantErr: domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &domain.Event{ID: "e1", InitiatorID: "u1", State: tt.state}
			if tt.state == domain.EventStatePublished {
				now := time.Now()
				event.PublishedOn = &now
			}
			svc := newTestEventService(newMockEventRepo(event), newMockRequestRepo(), newMockUserRepo("u1"), newMockCategoryRepo("c1"), nil)

			action := domain.ActionRejectEvent
			got, err := svc.UpdateEventByAdmin(context.Background(), "e1", domain.EventUpdate{}, &action)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.State != tt.wantState {
				t.Fatalf("expected %s, got %s", tt.wantState, got.State)
			}
		})
	}
}

func TestEventService_UpdateEventByOwner(t *testing.T) {
	newTitle := "renamed"
	futureDate := time.Now().Add(72 * time.Hour)
	soonDate := time.Now().Add(30 * time.Minute)
	cancel := domain.ActionCancelReview
	resubmit := domain.ActionSendToReview

	tests := []struct {
		name     string
		state    domain.EventState
		callerID string
		upd      domain.EventUpdate
		action   *domain.OwnerStateAction
		wantErr  error
		check    func(t *testing.T, got *domain.EventWithCounts)
	}{
		{
			name:     "field edit while pending",
			state:    domain.EventStatePending,
			callerID: "u1",
			upd:      domain.EventUpdate{Title: &newTitle, EventDate: &futureDate},
			check: func(t *testing.T, got *domain.EventWithCounts) {
				if got.Title != newTitle {
					t.Fatalf("title not applied: %s", got.Title)
				}
			},
		},
		{
			name:     "published event is immutable to owner",
			state:    domain.EventStatePublished,
			callerID: "u1",
			upd:      domain.EventUpdate{Title: &newTitle},
			wantErr:  domain.ErrConflict,
		},
		{
			name:     "non-initiator is rejected",
			state:    domain.EventStatePending,
			callerID: "u2",
			upd:      domain.EventUpdate{Title: &newTitle},
			wantErr:  domain.ErrForbidden,
		},
		{
			name:     "event date too soon",
			state:    domain.EventStatePending,
			callerID: "u1",
			upd:      domain.EventUpdate{EventDate: &soonDate},
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "cancel review withdraws the event",
			state:    domain.EventStatePending,
			callerID: "u1",
			action:   &cancel,
			check: func(t *testing.T, got *domain.EventWithCounts) {
				if got.State != domain.EventStateCanceled {
					t.Fatalf("expected CANCELED, got %s", got.State)
				}
			},
		},
		{
			name:     "canceled event cannot be resubmitted",
			state:    domain.EventStateCanceled,
			callerID: "u1",
			action:   &resubmit,
			wantErr:  domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &domain.Event{
				ID:          "e1",
				InitiatorID: "u1",
				EventDate:   time.Now().Add(48 * time.Hour),
				State:       tt.state,
			}
			svc := newTestEventService(newMockEventRepo(event), newMockRequestRepo(), newMockUserRepo("u1", "u2"), newMockCategoryRepo("c1"), nil)

			got, err := svc.UpdateEventByOwner(context.Background(), "e1", tt.callerID, tt.upd, tt.action)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestEventService_GetPublicEvent(t *testing.T) {
	now := time.Now()
	published := &domain.Event{ID: "e1", State: domain.EventStatePublished, PublishedOn: &now, EventDate: now.Add(24 * time.Hour)}
	pending := &domain.Event{ID: "e2", State: domain.EventStatePending, EventDate: now.Add(24 * time.Hour)}
	stats := &mockStatsClient{stats: []domain.ViewStats{{URI: "/events/e1", Hits: 7}}}
	svc := newTestEventService(newMockEventRepo(published, pending), newMockRequestRepo(), newMockUserRepo(), newMockCategoryRepo(), stats)

	got, err := svc.GetPublicEvent(context.Background(), "e1", "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Views != 7 {
		t.Fatalf("expected 7 views, got %d", got.Views)
	}
	if len(stats.hits) != 1 || stats.hits[0].URI != "/events/e1" {
		t.Fatalf("expected one recorded hit for /events/e1, got %+v", stats.hits)
	}

	// Unpublished events are invisible to the public surface.
	if _, err := svc.GetPublicEvent(context.Background(), "e2", "10.0.0.1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for pending event, got %v", err)
	}
}

func TestEventService_GetPublicEvent_StatsFailureDegradesToZero(t *testing.T) {
	now := time.Now()
	published := &domain.Event{ID: "e1", State: domain.EventStatePublished, PublishedOn: &now, EventDate: now.Add(24 * time.Hour)}
	stats := &mockStatsClient{err: errors.New("stats down")}
	svc := newTestEventService(newMockEventRepo(published), newMockRequestRepo(), newMockUserRepo(), newMockCategoryRepo(), stats)

	got, err := svc.GetPublicEvent(context.Background(), "e1", "10.0.0.1")
	if err != nil {
		t.Fatalf("stats failure must not surface: %v", err)
	}
	if got.Views != 0 {
		t.Fatalf("expected 0 views on stats failure, got %d", got.Views)
	}
}

func TestEventService_SearchPublicEvents(t *testing.T) {
	now := time.Now()
	full := &domain.Event{ID: "e1", State: domain.EventStatePublished, PublishedOn: &now, EventDate: now.Add(24 * time.Hour), ParticipantLimit: 1}
	open := &domain.Event{ID: "e2", State: domain.EventStatePublished, PublishedOn: &now, EventDate: now.Add(48 * time.Hour), ParticipantLimit: 2}
	requestRepo := newMockRequestRepo(
		&domain.ParticipationRequest{ID: "r1", EventID: "e1", RequesterID: "u1", Status: domain.RequestStatusConfirmed},
	)
	stats := &mockStatsClient{stats: []domain.ViewStats{
		{URI: "/events/e1", Hits: 1},
		{URI: "/events/e2", Hits: 9},
	}}
	svc := newTestEventService(newMockEventRepo(full, open), requestRepo, newMockUserRepo(), newMockCategoryRepo(), stats)

	t.Run("invalid range", func(t *testing.T) {
		start := now.Add(time.Hour)
		end := now
		_, err := svc.SearchPublicEvents(context.Background(), domain.PublicSearchFilter{RangeStart: &start, RangeEnd: &end}, "10.0.0.1")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("only available excludes full events", func(t *testing.T) {
		got, err := svc.SearchPublicEvents(context.Background(), domain.PublicSearchFilter{OnlyAvailable: true}, "10.0.0.1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].ID != "e2" {
			t.Fatalf("expected only e2, got %+v", got)
		}
	})

	t.Run("default sort is event date ascending", func(t *testing.T) {
		got, err := svc.SearchPublicEvents(context.Background(), domain.PublicSearchFilter{}, "10.0.0.1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "e2" {
			t.Fatalf("unexpected order: %+v", got)
		}
	})

	t.Run("views sort is descending", func(t *testing.T) {
		got, err := svc.SearchPublicEvents(context.Background(), domain.PublicSearchFilter{Sort: domain.SortByViews}, "10.0.0.1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 || got[0].ID != "e2" || got[1].ID != "e1" {
			t.Fatalf("unexpected order: %+v", got)
		}
	})
}

func TestEventService_SearchAdminEvents_InvalidState(t *testing.T) {
	svc := newTestEventService(newMockEventRepo(), newMockRequestRepo(), newMockUserRepo(), newMockCategoryRepo(), nil)
	_, err := svc.SearchAdminEvents(context.Background(), domain.AdminSearchFilter{States: []domain.EventState{"BOGUS"}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEventService_GetOwnerEvent_Forbidden(t *testing.T) {
	event := &domain.Event{ID: "e1", InitiatorID: "u1", State: domain.EventStatePending}
	svc := newTestEventService(newMockEventRepo(event), newMockRequestRepo(), newMockUserRepo("u1", "u2"), newMockCategoryRepo(), nil)

	if _, err := svc.GetOwnerEvent(context.Background(), "u2", "e1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
