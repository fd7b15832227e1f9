package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"afisha/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	requestRepo    domain.RequestRepository
	userRepo       domain.UserRepository
	categoryRepo   domain.CategoryRepository
	enrich         *enricher
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewEventService creates an EventService with the given collaborators.
// stats may be nil; views then degrade to zero.
func NewEventService(
	eventRepo domain.EventRepository,
	requestRepo domain.RequestRepository,
	userRepo domain.UserRepository,
	categoryRepo domain.CategoryRepository,
	stats domain.StatsClient,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		requestRepo:    requestRepo,
		userRepo:       userRepo,
		categoryRepo:   categoryRepo,
		enrich:         &enricher{requestRepo: requestRepo, stats: stats, logger: logger},
		logger:         logger,
		contextTimeout: timeout,
	}
}

// validateEventDate enforces the minimum lead time between now and the event start.
func validateEventDate(date time.Time) error {
	if date.Before(time.Now().Add(domain.MinEventLeadTime)) {
		return fmt.Errorf("%w: event date must be at least %s in the future", domain.ErrInvalidInput, domain.MinEventLeadTime)
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, initiatorID string, in domain.NewEventInput) (*domain.EventWithCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validateEventDate(in.EventDate); err != nil {
		return nil, err
	}
	if in.ParticipantLimit < 0 {
		return nil, fmt.Errorf("%w: participant limit must not be negative", domain.ErrInvalidInput)
	}

	ok, err := s.userRepo.ExistsByID(ctx, initiatorID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	ok, err = s.categoryRepo.ExistsByID(ctx, in.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: category %s", domain.ErrNotFound, in.CategoryID)
	}

	moderation := true
	if in.RequestModeration != nil {
		moderation = *in.RequestModeration
	}
	event := &domain.Event{
		Title:             in.Title,
		Annotation:        in.Annotation,
		Description:       in.Description,
		CategoryID:        in.CategoryID,
		InitiatorID:       initiatorID,
		EventDate:         in.EventDate,
		CreatedOn:         time.Now(),
		Paid:              in.Paid,
		ParticipantLimit:  in.ParticipantLimit,
		RequestModeration: moderation,
		State:             domain.EventStatePending,
		LocationLat:       in.LocationLat,
		LocationLon:       in.LocationLon,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &domain.EventWithCounts{Event: event}, nil
}

func (s *eventService) UpdateEventByOwner(ctx context.Context, eventID, initiatorID string, upd domain.EventUpdate, action *domain.OwnerStateAction) (*domain.EventWithCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.InitiatorID != initiatorID {
		return nil, domain.ErrForbidden
	}
	if event.State == domain.EventStatePublished {
		return nil, fmt.Errorf("%w: cannot edit published event", domain.ErrConflict)
	}

	if err := s.applyUpdate(ctx, event, upd); err != nil {
		return nil, err
	}

	if action != nil {
		switch *action {
		case domain.ActionSendToReview:
			// A canceled event stays canceled; resubmission is not offered.
			if event.State == domain.EventStateCanceled {
				return nil, fmt.Errorf("%w: canceled event cannot be sent to review", domain.ErrConflict)
			}
			event.State = domain.EventStatePending
		case domain.ActionCancelReview:
			event.State = domain.EventStateCanceled
		default:
			return nil, fmt.Errorf("%w: unknown state action %q", domain.ErrInvalidInput, *action)
		}
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.enrich.enrichOne(ctx, event, nil, nil)
}

func (s *eventService) UpdateEventByAdmin(ctx context.Context, eventID string, upd domain.EventUpdate, action *domain.AdminStateAction) (*domain.EventWithCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if action != nil {
		switch *action {
		case domain.ActionPublishEvent:
			if event.State != domain.EventStatePending {
				return nil, fmt.Errorf("%w: only pending event may be published", domain.ErrConflict)
			}
			now := time.Now()
			event.State = domain.EventStatePublished
			event.PublishedOn = &now
		case domain.ActionRejectEvent:
			if event.State == domain.EventStatePublished {
				return nil, fmt.Errorf("%w: cannot reject published event", domain.ErrConflict)
			}
			event.State = domain.EventStateCanceled
		default:
			return nil, fmt.Errorf("%w: unknown state action %q", domain.ErrInvalidInput, *action)
		}
	}

	if err := s.applyUpdate(ctx, event, upd); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.enrich.enrichOne(ctx, event, nil, nil)
}

// applyUpdate applies non-nil field edits to the event, validating the event
// date and the category reference.
func (s *eventService) applyUpdate(ctx context.Context, event *domain.Event, upd domain.EventUpdate) error {
	if upd.EventDate != nil {
		if err := validateEventDate(*upd.EventDate); err != nil {
			return err
		}
		event.EventDate = *upd.EventDate
	}
	if upd.CategoryID != nil {
		ok, err := s.categoryRepo.ExistsByID(ctx, *upd.CategoryID)
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: category %s", domain.ErrNotFound, *upd.CategoryID)
		}
		event.CategoryID = *upd.CategoryID
	}
	if upd.Title != nil {
		event.Title = *upd.Title
	}
	if upd.Annotation != nil {
		event.Annotation = *upd.Annotation
	}
	if upd.Description != nil {
		event.Description = *upd.Description
	}
	if upd.Paid != nil {
		event.Paid = *upd.Paid
	}
	if upd.ParticipantLimit != nil {
		if *upd.ParticipantLimit < 0 {
			return fmt.Errorf("%w: participant limit must not be negative", domain.ErrInvalidInput)
		}
		event.ParticipantLimit = *upd.ParticipantLimit
	}
	if upd.RequestModeration != nil {
		event.RequestModeration = *upd.RequestModeration
	}
	if upd.LocationLat != nil {
		event.LocationLat = upd.LocationLat
	}
	if upd.LocationLon != nil {
		event.LocationLon = upd.LocationLon
	}
	return nil
}

func (s *eventService) GetOwnerEvent(ctx context.Context, initiatorID, eventID string) (*domain.EventWithCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.InitiatorID != initiatorID {
		return nil, domain.ErrForbidden
	}
	return s.enrich.enrichOne(ctx, event, nil, nil)
}

func (s *eventService) ListOwnerEvents(ctx context.Context, initiatorID string, params domain.PaginationParams) ([]*domain.EventWithCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ok, err := s.userRepo.ExistsByID(ctx, initiatorID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	events, err := s.eventRepo.ListByInitiator(ctx, initiatorID, params.PageSize, params.Offset())
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return s.enrich.enrichAll(ctx, events, nil, nil)
}

func (s *eventService) SearchAdminEvents(ctx context.Context, filter domain.AdminSearchFilter) ([]*domain.EventWithCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if filter.RangeStart != nil && filter.RangeEnd != nil && filter.RangeStart.After(*filter.RangeEnd) {
		return nil, fmt.Errorf("%w: range start must not be after range end", domain.ErrInvalidInput)
	}
	for _, st := range filter.States {
		if !domain.ValidEventState(st) {
			return nil, fmt.Errorf("%w: unknown event state %q", domain.ErrInvalidInput, st)
		}
	}

	events, err := s.eventRepo.SearchAdmin(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return s.enrich.enrichAll(ctx, events, nil, nil)
}

func (s *eventService) SearchPublicEvents(ctx context.Context, filter domain.PublicSearchFilter, clientIP string) ([]*domain.EventWithCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.enrich.recordHit(ctx, "/events", clientIP)

	if filter.RangeStart != nil && filter.RangeEnd != nil && filter.RangeStart.After(*filter.RangeEnd) {
		return nil, fmt.Errorf("%w: range start must not be after range end", domain.ErrInvalidInput)
	}

	// Effective window: no bounds means upcoming events for the next century;
	// a single bound defaults the other to ten years out.
	now := time.Now()
	start, end := filter.RangeStart, filter.RangeEnd
	if start == nil && end == nil {
		from := now
		to := now.AddDate(100, 0, 0)
		start, end = &from, &to
	} else if start == nil {
		from := now.AddDate(-10, 0, 0)
		start = &from
	} else if end == nil {
		to := now.AddDate(10, 0, 0)
		end = &to
	}
	filter.RangeStart, filter.RangeEnd = start, end

	events, err := s.eventRepo.SearchPublic(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}

	enriched, err := s.enrich.enrichAll(ctx, events, start, end)
	if err != nil {
		return nil, err
	}

	if filter.OnlyAvailable {
		available := enriched[:0]
		for _, e := range enriched {
			if e.ParticipantLimit == 0 || e.ConfirmedRequests < e.ParticipantLimit {
				available = append(available, e)
			}
		}
		enriched = available
	}

	if filter.Sort == domain.SortByViews {
		sort.SliceStable(enriched, func(i, j int) bool {
			if enriched[i].Views != enriched[j].Views {
				return enriched[i].Views > enriched[j].Views
			}
			return enriched[i].EventDate.Before(enriched[j].EventDate)
		})
	} else {
		sort.SliceStable(enriched, func(i, j int) bool {
			return enriched[i].EventDate.Before(enriched[j].EventDate)
		})
	}
	return enriched, nil
}

func (s *eventService) GetPublicEvent(ctx context.Context, eventID, clientIP string) (*domain.EventWithCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.enrich.recordHit(ctx, eventURI(eventID), clientIP)

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// Unpublished events are invisible to the public surface.
	if event.State != domain.EventStatePublished {
		return nil, domain.ErrNotFound
	}
	return s.enrich.enrichOne(ctx, event, nil, nil)
}
