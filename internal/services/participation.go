package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"afisha/internal/domain"
	"afisha/internal/keylock"
)

type participationService struct {
	requestRepo    domain.RequestRepository
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	eventLocks     *keylock.KeyLock
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewParticipationService creates a ParticipationService. Capacity-affecting
// writes are serialized per event through an internal key lock, so concurrent
// calls can never confirm past the participant limit. emailService may be
// nil; decision notifications are then skipped.
func NewParticipationService(
	requestRepo domain.RequestRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ParticipationService {
	return &participationService{
		requestRepo:    requestRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		eventLocks:     keylock.New(),
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *participationService) AddRequest(ctx context.Context, requesterID, eventID string) (*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ok, err := s.userRepo.ExistsByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.InitiatorID == requesterID {
		return nil, fmt.Errorf("%w: initiator cannot request participation in own event", domain.ErrConflict)
	}
	if event.State != domain.EventStatePublished {
		return nil, fmt.Errorf("%w: cannot participate in unpublished event", domain.ErrConflict)
	}

	exists, err := s.requestRepo.ExistsActiveByEventAndRequester(ctx, eventID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("check duplicate request: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: duplicate participation request", domain.ErrConflict)
	}

	// The capacity check and the insert must not interleave with other
	// capacity-affecting writes for this event.
	s.eventLocks.Lock(eventID)
	defer s.eventLocks.Unlock(eventID)

	if event.ParticipantLimit > 0 {
		confirmed, err := s.requestRepo.CountByEventAndStatus(ctx, eventID, domain.RequestStatusConfirmed)
		if err != nil {
			return nil, fmt.Errorf("count confirmed requests: %w", err)
		}
		if confirmed >= event.ParticipantLimit {
			return nil, fmt.Errorf("%w: the participant limit has been reached", domain.ErrConflict)
		}
	}

	status := domain.RequestStatusPending
	if !event.RequestModeration || event.ParticipantLimit == 0 {
		status = domain.RequestStatusConfirmed
	}
	req := &domain.ParticipationRequest{
		EventID:     eventID,
		RequesterID: requesterID,
		Status:      status,
		CreatedAt:   time.Now(),
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

func (s *participationService) CancelRequest(ctx context.Context, requesterID, requestID string) (*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req.RequesterID != requesterID {
		return nil, domain.ErrForbidden
	}
	// A confirmed seat cannot be withdrawn.
	if req.Status == domain.RequestStatusConfirmed {
		return nil, fmt.Errorf("%w: cannot cancel confirmed request", domain.ErrConflict)
	}
	req.Status = domain.RequestStatusCanceled
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}
	return req, nil
}

func (s *participationService) ListUserRequests(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ok, err := s.userRepo.ExistsByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	reqs, err := s.requestRepo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if reqs == nil {
		reqs = []*domain.ParticipationRequest{}
	}
	return reqs, nil
}

func (s *participationService) ListEventRequests(ctx context.Context, initiatorID, eventID string) ([]*domain.ParticipationRequest, error) {
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
	reqs, err := s.requestRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if reqs == nil {
		reqs = []*domain.ParticipationRequest{}
	}
	return reqs, nil
}

func (s *participationService) ChangeRequestStatus(ctx context.Context, initiatorID, eventID string, requestIDs []string, target domain.RequestStatus) (*domain.StatusUpdateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if target != domain.RequestStatusConfirmed && target != domain.RequestStatusRejected {
		return nil, fmt.Errorf("%w: target status must be CONFIRMED or REJECTED", domain.ErrInvalidInput)
	}

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

	result := &domain.StatusUpdateResult{
		Confirmed: []*domain.ParticipationRequest{},
		Rejected:  []*domain.ParticipationRequest{},
	}

	// Without moderation every request was auto-confirmed at creation; there
	// is nothing to moderate.
	if !event.RequestModeration {
		return result, nil
	}

	if err := s.applyStatusChange(ctx, event, requestIDs, target, result); err != nil {
		return nil, err
	}

	s.notifyDecisions(ctx, event, result)
	return result, nil
}

// applyStatusChange runs the moderation decision under the event's capacity
// lock and commits every status change of the call, including the
// reject-remaining-pending sweep, in one UpdateAll.
func (s *participationService) applyStatusChange(ctx context.Context, event *domain.Event, requestIDs []string, target domain.RequestStatus, result *domain.StatusUpdateResult) error {
	eventID := event.ID

	s.eventLocks.Lock(eventID)
	defer s.eventLocks.Unlock(eventID)

	found, err := s.requestRepo.ListByIDs(ctx, requestIDs)
	if err != nil {
		return fmt.Errorf("list requests: %w", err)
	}
	byID := make(map[string]*domain.ParticipationRequest, len(found))
	for _, r := range found {
		if r.EventID == eventID {
			byID[r.ID] = r
		}
	}
	// Keep the caller-supplied order; it decides who gets the last seats.
	requests := make([]*domain.ParticipationRequest, 0, len(byID))
	inBatch := make(map[string]struct{}, len(byID))
	for _, id := range requestIDs {
		if r, ok := byID[id]; ok {
			requests = append(requests, r)
			inBatch[id] = struct{}{}
			delete(byID, id)
		}
	}
	if len(requests) == 0 {
		return nil
	}
	for _, r := range requests {
		if r.Status != domain.RequestStatusPending {
			return fmt.Errorf("%w: only pending requests can be changed", domain.ErrConflict)
		}
	}

	confirmed, err := s.requestRepo.CountByEventAndStatus(ctx, eventID, domain.RequestStatusConfirmed)
	if err != nil {
		return fmt.Errorf("count confirmed requests: %w", err)
	}
	limit := event.ParticipantLimit

	if target == domain.RequestStatusRejected {
		for _, r := range requests {
			r.Status = domain.RequestStatusRejected
			result.Rejected = append(result.Rejected, r)
		}
		if err := s.requestRepo.UpdateAll(ctx, requests); err != nil {
			return fmt.Errorf("update requests: %w", err)
		}
		return nil
	}

	if limit > 0 && confirmed >= limit {
		return fmt.Errorf("%w: the participant limit has been reached", domain.ErrConflict)
	}

	updates := requests
	for _, r := range requests {
		if limit > 0 && confirmed >= limit {
			r.Status = domain.RequestStatusRejected
			result.Rejected = append(result.Rejected, r)
			continue
		}
		r.Status = domain.RequestStatusConfirmed
		confirmed++
		result.Confirmed = append(result.Confirmed, r)
	}

	// Once the event is full, every still-pending request loses its turn,
	// including ones outside the input batch. The sweep joins the batch so the
	// whole decision commits in one transaction.
	if limit > 0 && confirmed >= limit {
		all, err := s.requestRepo.ListByEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("list requests: %w", err)
		}
		for _, r := range all {
			if _, ok := inBatch[r.ID]; ok {
				continue
			}
			if r.Status == domain.RequestStatusPending {
				r.Status = domain.RequestStatusRejected
				updates = append(updates, r)
				result.Rejected = append(result.Rejected, r)
			}
		}
	}

	if err := s.requestRepo.UpdateAll(ctx, updates); err != nil {
		return fmt.Errorf("update requests: %w", err)
	}
	return nil
}

// notifyDecisions emails each affected requester about the moderation
// outcome. Best-effort: lookup and send failures are logged, never surfaced.
func (s *participationService) notifyDecisions(ctx context.Context, event *domain.Event, result *domain.StatusUpdateResult) {
	if s.emailService == nil {
		return
	}
	send := func(req *domain.ParticipationRequest, confirmed bool) {
		user, err := s.userRepo.GetByID(ctx, req.RequesterID)
		if err != nil {
			s.logger.DebugContext(ctx, "lookup requester for notification failed", "requester_id", req.RequesterID, "err", err)
			return
		}
		data := &domain.RequestDecisionEmailData{
			Email:      user.Email,
			EventTitle: event.Title,
			Confirmed:  confirmed,
		}
		if err := s.emailService.SendRequestDecision(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "request decision email failed", "requester_id", req.RequesterID, "err", err)
		}
	}
	for _, r := range result.Confirmed {
		send(r, true)
	}
	for _, r := range result.Rejected {
		send(r, false)
	}
}
