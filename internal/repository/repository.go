package repository

import (
	"context"
	"database/sql"

	"github.com/suar-net/suar-reactive/internal/model"
)

type IRequestRepository interface {
	Create(ctx context.Context, request *model.Request) error
	ListRecent(ctx context.Context, limit int) ([]*model.Request, error)
}

type IRepository interface {
	Request() IRequestRepository
}

type Repository struct {
	request IRequestRepository
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		request: NewRequestRepository(db),
	}
}

func (r *Repository) Request() IRequestRepository {
	return r.request
}
