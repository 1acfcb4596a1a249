package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/suar-net/suar-reactive/internal/model"
)

// requestRepository is the implementation of IRequestRepository.
type requestRepository struct {
	db *sql.DB
}

// NewRequestRepository is the constructor for requestRepository.
func NewRequestRepository(db *sql.DB) IRequestRepository {
	return &requestRepository{db: db}
}

// Create inserts a new execution record into the database.
func (r *requestRepository) Create(ctx context.Context, request *model.Request) error {
	query := `
		INSERT INTO request_history (executed_at, request_method, request_url, request_headers, response_status_code, response_body, error_message, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, executed_at`

	if request.ExecutedAt.IsZero() {
		request.ExecutedAt = time.Now()
	}
	return r.db.QueryRowContext(ctx, query,
		request.ExecutedAt,
		request.RequestMethod,
		request.RequestURL,
		request.RequestHeaders,
		request.ResponseStatusCode,
		request.ResponseBody,
		request.ErrorMessage,
		request.DurationMs,
	).Scan(&request.ID, &request.ExecutedAt)
}

// ListRecent retrieves the most recent executions, newest first.
func (r *requestRepository) ListRecent(ctx context.Context, limit int) ([]*model.Request, error) {
	query := `
		SELECT id, executed_at, request_method, request_url, request_headers, response_status_code, response_body, error_message, duration_ms
		FROM request_history
		ORDER BY executed_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*model.Request
	for rows.Next() {
		var req model.Request
		if err := rows.Scan(
			&req.ID,
			&req.ExecutedAt,
			&req.RequestMethod,
			&req.RequestURL,
			&req.RequestHeaders,
			&req.ResponseStatusCode,
			&req.ResponseBody,
			&req.ErrorMessage,
			&req.DurationMs,
		); err != nil {
			return nil, err
		}
		requests = append(requests, &req)
	}

	return requests, rows.Err()
}

// Schema creates the history table when it does not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS request_history (
	id                   SERIAL PRIMARY KEY,
	executed_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	request_method       TEXT NOT NULL,
	request_url          TEXT NOT NULL,
	request_headers      JSONB,
	response_status_code INTEGER,
	response_body        TEXT,
	error_message        TEXT,
	duration_ms          INTEGER NOT NULL
)`
