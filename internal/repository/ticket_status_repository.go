package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketStatusRepository persists the open status catalog.
type TicketStatusRepository interface {
	Create(ctx context.Context, status *domain.TicketStatus) error
	GetByID(ctx context.Context, id string) (*domain.TicketStatus, error)
	GetAll(ctx context.Context) ([]domain.TicketStatus, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type ticketStatusRepository struct {
	pool *pgxpool.Pool
}

// NewTicketStatusRepository instantiates repository.
func NewTicketStatusRepository(pool *pgxpool.Pool) TicketStatusRepository {
	return &ticketStatusRepository{pool: pool}
}

func (r *ticketStatusRepository) Create(ctx context.Context, status *domain.TicketStatus) error {
	const query = `
        INSERT INTO ticket_statuses (name)
        VALUES ($1)
        RETURNING id`
	if err := r.pool.QueryRow(ctx, query, status.Name).Scan(&status.ID); err != nil {
		return translateError(err)
	}
	return nil
}

func (r *ticketStatusRepository) GetByID(ctx context.Context, id string) (*domain.TicketStatus, error) {
	const query = `SELECT id, name FROM ticket_statuses WHERE id=$1`
	var status domain.TicketStatus
	if err := r.pool.QueryRow(ctx, query, id).Scan(&status.ID, &status.Name); err != nil {
		return nil, translateError(err)
	}
	return &status, nil
}

func (r *ticketStatusRepository) GetAll(ctx context.Context) ([]domain.TicketStatus, error) {
	const query = `SELECT id, name FROM ticket_statuses`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.TicketStatus
	for rows.Next() {
		var status domain.TicketStatus
		if err := rows.Scan(&status.ID, &status.Name); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

func (r *ticketStatusRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM ticket_statuses WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketStatusRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM ticket_statuses WHERE id=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, translateError(err)
	}
	return exists, nil
}
