package domain

import (
	"context"
	"time"
)

// EventState is the moderation state of an event.
type EventState string

const (
	EventStatePending   EventState = "PENDING"
	EventStatePublished EventState = "PUBLISHED"
	EventStateCanceled  EventState = "CANCELED"
)

// ValidEventState reports whether s is one of the known event states.
func ValidEventState(s EventState) bool {
	switch s {
	case EventStatePending, EventStatePublished, EventStateCanceled:
		return true
	}
	return false
}

// OwnerStateAction is a state transition requested by the event initiator.
type OwnerStateAction string

const (
	ActionSendToReview OwnerStateAction = "SEND_TO_REVIEW"
	ActionCancelReview OwnerStateAction = "CANCEL_REVIEW"
)

// AdminStateAction is a state transition requested by an administrator.
type AdminStateAction string

const (
	ActionPublishEvent AdminStateAction = "PUBLISH_EVENT"
	ActionRejectEvent  AdminStateAction = "REJECT_EVENT"
)

// MinEventLeadTime is the minimum gap between now and an event's start date.
const MinEventLeadTime = 2 * time.Hour

// Event represents a proposed or published gathering owned by an initiator.
// ParticipantLimit 0 means unlimited; RequestModeration controls whether
// participation requests need explicit initiator approval. PublishedOn is
// non-nil iff State is PUBLISHED.
// swagger:model Event
type Event struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	CategoryID        string     `json:"category_id"`
	InitiatorID       string     `json:"initiator_id"`
	EventDate         time.Time  `json:"event_date"`
	CreatedOn         time.Time  `json:"created_on"`
	PublishedOn       *time.Time `json:"published_on,omitempty"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participant_limit"`
	RequestModeration bool       `json:"request_moderation"`
	State             EventState `json:"state"`
	LocationLat       *float64   `json:"location_lat,omitempty"`
	LocationLon       *float64   `json:"location_lon,omitempty"`
}

// NewEventInput holds the fields required to create an event.
type NewEventInput struct {
	Title             string
	Annotation        string
	Description       string
	CategoryID        string
	EventDate         time.Time
	Paid              bool
	ParticipantLimit  int
	RequestModeration *bool
	LocationLat       *float64
	LocationLon       *float64
}

// EventUpdate holds optional field edits for an event. Nil fields are left
// unchanged.
type EventUpdate struct {
	Title             *string
	Annotation        *string
	Description       *string
	CategoryID        *string
	EventDate         *time.Time
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
	LocationLat       *float64
	LocationLon       *float64
}

// EventWithCounts is an event enriched with its live confirmed-request and
// view counts for presentation.
// swagger:model EventWithCounts
type EventWithCounts struct {
	*Event
	ConfirmedRequests int   `json:"confirmed_requests"`
	Views             int64 `json:"views"`
}

// EventSort selects the ordering of public search results.
type EventSort string

const (
	SortByEventDate EventSort = "EVENT_DATE"
	SortByViews     EventSort = "VIEWS"
)

// PublicSearchFilter holds the public event search parameters.
type PublicSearchFilter struct {
	Text          string
	CategoryIDs   []string
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          EventSort
	From          int
	Size          int
}

// AdminSearchFilter holds the administrator event search parameters.
type AdminSearchFilter struct {
	InitiatorIDs []string
	States       []EventState
	CategoryIDs  []string
	RangeStart   *time.Time
	RangeEnd     *time.Time
	From         int
	Size         int
}

// EventRepository defines durable storage for events.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	ListByInitiator(ctx context.Context, initiatorID string, limit, offset int) ([]*Event, error)
	SearchAdmin(ctx context.Context, filter AdminSearchFilter) ([]*Event, error)
	// SearchPublic returns PUBLISHED events matching the filter, ordered by
	// event_date ascending. Availability filtering and VIEWS ordering happen
	// in the service, which has the live counts.
	SearchPublic(ctx context.Context, filter PublicSearchFilter) ([]*Event, error)
}

// EventService owns the event publication lifecycle and the enriched read side.
type EventService interface {
	CreateEvent(ctx context.Context, initiatorID string, in NewEventInput) (*EventWithCounts, error)
	UpdateEventByOwner(ctx context.Context, eventID, initiatorID string, upd EventUpdate, action *OwnerStateAction) (*EventWithCounts, error)
	UpdateEventByAdmin(ctx context.Context, eventID string, upd EventUpdate, action *AdminStateAction) (*EventWithCounts, error)
	GetOwnerEvent(ctx context.Context, initiatorID, eventID string) (*EventWithCounts, error)
	ListOwnerEvents(ctx context.Context, initiatorID string, params PaginationParams) ([]*EventWithCounts, error)
	SearchAdminEvents(ctx context.Context, filter AdminSearchFilter) ([]*EventWithCounts, error)
	SearchPublicEvents(ctx context.Context, filter PublicSearchFilter, clientIP string) ([]*EventWithCounts, error)
	GetPublicEvent(ctx context.Context, eventID, clientIP string) (*EventWithCounts, error)
}
