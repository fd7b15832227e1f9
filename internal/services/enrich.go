package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"afisha/internal/domain"
)

// statsAppName identifies this service in recorded endpoint hits.
const statsAppName = "afisha-main"

// statsTimeout bounds every call to the analytics collaborator. Stats are
// best-effort and must never block the enclosing request for long.
const statsTimeout = 2 * time.Second

// enricher computes the read-side counts for events: confirmed participation
// requests from the request store and view counts from the analytics
// collaborator. Analytics failures degrade to zero views.
type enricher struct {
	requestRepo domain.RequestRepository
	stats       domain.StatsClient
	logger      *slog.Logger
}

func eventURI(eventID string) string {
	return "/events/" + eventID
}

func (e *enricher) confirmedCount(ctx context.Context, eventID string) (int, error) {
	n, err := e.requestRepo.CountByEventAndStatus(ctx, eventID, domain.RequestStatusConfirmed)
	if err != nil {
		return 0, fmt.Errorf("count confirmed requests: %w", err)
	}
	return n, nil
}

func (e *enricher) confirmedCounts(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventIDs))
	for _, id := range eventIDs {
		n, err := e.confirmedCount(ctx, id)
		if err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, nil
}

// views returns the view count per event id for the given window. A nil bound
// defaults to ten years around now. Collaborator failures are logged and
// every id gets zero views.
func (e *enricher) views(ctx context.Context, eventIDs []string, start, end *time.Time) map[string]int64 {
	result := make(map[string]int64, len(eventIDs))
	for _, id := range eventIDs {
		result[id] = 0
	}
	if len(eventIDs) == 0 || e.stats == nil {
		return result
	}

	now := time.Now()
	from := now.AddDate(-10, 0, 0)
	to := now.AddDate(10, 0, 0)
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}

	uris := make([]string, 0, len(eventIDs))
	for _, id := range eventIDs {
		uris = append(uris, eventURI(id))
	}

	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()
	stats, err := e.stats.QueryStats(ctx, from, to, uris, true)
	if err != nil {
		e.logger.DebugContext(ctx, "stats query failed", "err", err)
		return result
	}

	hitsByURI := make(map[string]int64, len(stats))
	for _, s := range stats {
		hitsByURI[s.URI] = s.Hits
	}
	for _, id := range eventIDs {
		result[id] = hitsByURI[eventURI(id)]
	}
	return result
}

// recordHit reports a public endpoint hit to the analytics collaborator.
// Failures are swallowed.
func (e *enricher) recordHit(ctx context.Context, uri, clientIP string) {
	if e.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()
	hit := domain.EndpointHit{
		App:       statsAppName,
		URI:       uri,
		IP:        clientIP,
		Timestamp: time.Now(),
	}
	if err := e.stats.RecordHit(ctx, hit); err != nil {
		e.logger.DebugContext(ctx, "record hit failed", "uri", uri, "err", err)
	}
}

// enrichOne bundles a single event with its live counts.
func (e *enricher) enrichOne(ctx context.Context, event *domain.Event, start, end *time.Time) (*domain.EventWithCounts, error) {
	confirmed, err := e.confirmedCount(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	views := e.views(ctx, []string{event.ID}, start, end)
	return &domain.EventWithCounts{
		Event:             event,
		ConfirmedRequests: confirmed,
		Views:             views[event.ID],
	}, nil
}

// enrichAll bundles each event with its live counts, preserving order.
func (e *enricher) enrichAll(ctx context.Context, events []*domain.Event, start, end *time.Time) ([]*domain.EventWithCounts, error) {
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	confirmed, err := e.confirmedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := e.views(ctx, ids, start, end)

	result := make([]*domain.EventWithCounts, 0, len(events))
	for _, ev := range events {
		result = append(result, &domain.EventWithCounts{
			Event:             ev,
			ConfirmedRequests: confirmed[ev.ID],
			Views:             views[ev.ID],
		})
	}
	return result, nil
}
