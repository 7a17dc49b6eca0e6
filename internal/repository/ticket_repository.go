package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketUpdate captures a partial ticket update. Only Set fields are applied;
// StatusID may be explicitly set to nil to detach the ticket from its status.
type TicketUpdate struct {
	Title       Field[string]
	Description Field[string]
	StatusID    Field[*string]
}

// TicketRepository encapsulates ticket persistence. Owner existence is not
// checked here; the service layer pre-validates it and the owner foreign key
// only acts as a backstop against races.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetAll(ctx context.Context) ([]domain.Ticket, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error)
	Update(ctx context.Context, id string, update TicketUpdate) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, owner_id, status_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.OwnerID,
		ticket.StatusID,
	).Scan(&ticket.ID, &ticket.CreatedAt); err != nil {
		return translateError(err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, description, owner_id, status_id, created_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.OwnerID,
		&ticket.StatusID,
		&ticket.CreatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) GetAll(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT id, title, description, owner_id, status_id, created_at
        FROM tickets`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	const query = `
        SELECT id, title, description, owner_id, status_id, created_at
        FROM tickets WHERE owner_id=$1`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Update(ctx context.Context, id string, update TicketUpdate) (*domain.Ticket, error) {
	sets := []string{}
	args := []any{}

	if update.Title.Set {
		args = append(args, update.Title.Value)
		sets = append(sets, fmt.Sprintf("title=$%d", len(args)))
	}
	if update.Description.Set {
		args = append(args, update.Description.Value)
		sets = append(sets, fmt.Sprintf("description=$%d", len(args)))
	}
	if update.StatusID.Set {
		args = append(args, update.StatusID.Value)
		sets = append(sets, fmt.Sprintf("status_id=$%d", len(args)))
	}

	if len(sets) == 0 {
		ticket, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return ticket, nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d`,
		strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	// Re-read the row so callers observe exactly what was persisted.
	return r.GetByID(ctx, id)
}

// Delete removes the ticket and its messages. The cascade is explicit:
// messages first, then the ticket, inside one transaction.
func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return translateError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE ticket_id=$1`, id); err != nil {
		return translateError(err)
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, translateError(err)
	}
	return exists, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.OwnerID,
			&ticket.StatusID,
			&ticket.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
