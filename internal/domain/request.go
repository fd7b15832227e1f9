package domain

import (
	"context"
	"time"
)

// RequestStatus is the status of a participation request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusConfirmed RequestStatus = "CONFIRMED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusCanceled  RequestStatus = "CANCELED"
)

// ParticipationRequest represents a user's request to attend an event.
// At most one non-canceled request exists per (event, requester) pair.
// swagger:model ParticipationRequest
type ParticipationRequest struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event_id"`
	RequesterID string        `json:"requester_id"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// StatusUpdateResult reports the outcome of a bulk moderation call.
// swagger:model StatusUpdateResult
type StatusUpdateResult struct {
	Confirmed []*ParticipationRequest `json:"confirmed_requests"`
	Rejected  []*ParticipationRequest `json:"rejected_requests"`
}

// RequestRepository defines durable storage for participation requests.
type RequestRepository interface {
	Create(ctx context.Context, req *ParticipationRequest) error
	GetByID(ctx context.Context, id string) (*ParticipationRequest, error)
	Update(ctx context.Context, req *ParticipationRequest) error
	// UpdateAll persists status changes for all given requests in a single
	// transaction: either every row is written or none.
	UpdateAll(ctx context.Context, reqs []*ParticipationRequest) error
	CountByEventAndStatus(ctx context.Context, eventID string, status RequestStatus) (int, error)
	ListByEvent(ctx context.Context, eventID string) ([]*ParticipationRequest, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*ParticipationRequest, error)
	ListByIDs(ctx context.Context, ids []string) ([]*ParticipationRequest, error)
	// ExistsActiveByEventAndRequester reports whether a non-canceled request
	// exists for the pair.
	ExistsActiveByEventAndRequester(ctx context.Context, eventID, requesterID string) (bool, error)
}

// ParticipationService owns request creation, cancellation, and
// capacity-bounded bulk moderation.
type ParticipationService interface {
	AddRequest(ctx context.Context, requesterID, eventID string) (*ParticipationRequest, error)
	CancelRequest(ctx context.Context, requesterID, requestID string) (*ParticipationRequest, error)
	ListUserRequests(ctx context.Context, requesterID string) ([]*ParticipationRequest, error)
	ListEventRequests(ctx context.Context, initiatorID, eventID string) ([]*ParticipationRequest, error)
	// ChangeRequestStatus moves the given PENDING requests of the event to
	// target (CONFIRMED or REJECTED), honoring the participant limit.
	// Requests are processed in the order supplied by the caller.
	ChangeRequestStatus(ctx context.Context, initiatorID, eventID string, requestIDs []string, target RequestStatus) (*StatusUpdateResult, error)
}
