package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"afisha/internal/domain"
)

type requestRepository struct {
	DB *sql.DB
}

func NewRequestRepository(db *sql.DB) domain.RequestRepository {
	return &requestRepository{
		DB: db,
	}
}

func (r *requestRepository) Create(ctx context.Context, req *domain.ParticipationRequest) error {
	query := `
		INSERT INTO participation_requests (event_id, requester_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, req.EventID, req.RequesterID, string(req.Status), req.CreatedAt).
		Scan(&req.ID)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ParticipationRequest, error) {
	query := `
		SELECT id, event_id, requester_id, status, created_at
		FROM participation_requests
		WHERE id = $1
	`
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) Update(ctx context.Context, req *domain.ParticipationRequest) error {
	query := `UPDATE participation_requests SET status = $1 WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, string(req.Status), req.ID)
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

// UpdateAll writes the status of every given request in one transaction.
func (r *requestRepository) UpdateAll(ctx context.Context, reqs []*domain.ParticipationRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE participation_requests SET status = $1 WHERE id = $2`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, req := range reqs {
		res, err := stmt.ExecContext(ctx, string(req.Status), req.ID)
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
	}
	return tx.Commit()
}

func (r *requestRepository) CountByEventAndStatus(ctx context.Context, eventID string, status domain.RequestStatus) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM participation_requests
		WHERE event_id = $1 AND status = $2
	`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, eventID, string(status)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *requestRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT id, event_id, requester_id, status, created_at
		FROM participation_requests
		WHERE event_id = $1
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT id, event_id, requester_id, status, created_at
		FROM participation_requests
		WHERE requester_id = $1
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *requestRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.ParticipationRequest, error) {
	if len(ids) == 0 {
		return []*domain.ParticipationRequest{}, nil
	}
	query := `
		SELECT id, event_id, requester_id, status, created_at
		FROM participation_requests
		WHERE id = ANY($1)
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *requestRepository) ExistsActiveByEventAndRequester(ctx context.Context, eventID, requesterID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM participation_requests
			WHERE event_id = $1 AND requester_id = $2 AND status <> 'CANCELED'
		)
	`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, eventID, requesterID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanRequest(row interface{ Scan(...any) error }) (*domain.ParticipationRequest, error) {
	req := &domain.ParticipationRequest{}
	var status string
	if err := row.Scan(&req.ID, &req.EventID, &req.RequesterID, &status, &req.CreatedAt); err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatus(status)
	return req, nil
}

func collectRequests(rows *sql.Rows) ([]*domain.ParticipationRequest, error) {
	var reqs []*domain.ParticipationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []*domain.ParticipationRequest{}
	}
	return reqs, nil
}
