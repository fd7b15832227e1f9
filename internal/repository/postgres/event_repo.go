package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"afisha/internal/domain"
)

const eventColumns = `id, title, annotation, description, category_id, initiator_id,
	event_date, created_on, published_on, paid, participant_limit,
	request_moderation, state, location_lat, location_lon`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (title, annotation, description, category_id, initiator_id,
			event_date, created_on, paid, participant_limit, request_moderation,
			state, location_lat, location_lon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		event.Title, event.Annotation, event.Description, event.CategoryID,
		event.InitiatorID, event.EventDate, event.CreatedOn, event.Paid,
		event.ParticipantLimit, event.RequestModeration, string(event.State),
		event.LocationLat, event.LocationLon,
	).Scan(&event.ID)
}

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	event := &domain.Event{}
	var state string
	err := row.Scan(
		&event.ID, &event.Title, &event.Annotation, &event.Description,
		&event.CategoryID, &event.InitiatorID, &event.EventDate,
		&event.CreatedOn, &event.PublishedOn, &event.Paid,
		&event.ParticipantLimit, &event.RequestModeration, &state,
		&event.LocationLat, &event.LocationLon,
	)
	if err != nil {
		return nil, err
	}
	event.State = domain.EventState(state)
	return event, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, annotation = $2, description = $3, category_id = $4,
			event_date = $5, published_on = $6, paid = $7, participant_limit = $8,
			request_moderation = $9, state = $10, location_lat = $11, location_lon = $12
		WHERE id = $13
	`
	res, err := r.DB.ExecContext(ctx, query,
		event.Title, event.Annotation, event.Description, event.CategoryID,
		event.EventDate, event.PublishedOn, event.Paid, event.ParticipantLimit,
		event.RequestModeration, string(event.State), event.LocationLat,
		event.LocationLon, event.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListByInitiator(ctx context.Context, initiatorID string, limit, offset int) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE initiator_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, initiatorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *eventRepository) SearchAdmin(ctx context.Context, filter domain.AdminSearchFilter) ([]*domain.Event, error) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.InitiatorIDs) > 0 {
		conds = append(conds, "initiator_id = ANY("+next(pq.Array(filter.InitiatorIDs))+")")
	}
	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, s := range filter.States {
			states = append(states, string(s))
		}
		conds = append(conds, "state = ANY("+next(pq.Array(states))+")")
	}
	if len(filter.CategoryIDs) > 0 {
		conds = append(conds, "category_id = ANY("+next(pq.Array(filter.CategoryIDs))+")")
	}
	if filter.RangeStart != nil {
		conds = append(conds, "event_date >= "+next(*filter.RangeStart))
	}
	if filter.RangeEnd != nil {
		conds = append(conds, "event_date <= "+next(*filter.RangeEnd))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id LIMIT " + next(filter.Size) + " OFFSET " + next(filter.From)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *eventRepository) SearchPublic(ctx context.Context, filter domain.PublicSearchFilter) ([]*domain.Event, error) {
	conds := []string{"state = 'PUBLISHED'"}
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Text != "" {
		p := next("%" + strings.ToLower(filter.Text) + "%")
		conds = append(conds, "(lower(annotation) LIKE "+p+" OR lower(description) LIKE "+p+")")
	}
	if len(filter.CategoryIDs) > 0 {
		conds = append(conds, "category_id = ANY("+next(pq.Array(filter.CategoryIDs))+")")
	}
	if filter.Paid != nil {
		conds = append(conds, "paid = "+next(*filter.Paid))
	}
	if filter.RangeStart != nil {
		conds = append(conds, "event_date >= "+next(*filter.RangeStart))
	}
	if filter.RangeEnd != nil {
		conds = append(conds, "event_date <= "+next(*filter.RangeEnd))
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + strings.Join(conds, " AND ") +
		" ORDER BY event_date LIMIT " + next(filter.Size) + " OFFSET " + next(filter.From)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}
