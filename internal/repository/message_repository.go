package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// MessageRepository manages the append-only message log per ticket.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error)
	// LastCustomerMessage returns the most recent is_ai=false message, or nil
	// without error when the ticket has none.
	LastCustomerMessage(ctx context.Context, ticketID string) (*domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (ticket_id, content, is_ai)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.Content,
		msg.IsAI,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return translateError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	const query = `
        SELECT id, ticket_id, content, is_ai, created_at
        FROM messages WHERE id=$1`
	var msg domain.Message
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.TicketID,
		&msg.Content,
		&msg.IsAI,
		&msg.CreatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &msg, nil
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	const query = `
        SELECT id, ticket_id, content, is_ai, created_at
        FROM messages WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.Content,
			&msg.IsAI,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) LastCustomerMessage(ctx context.Context, ticketID string) (*domain.Message, error) {
	const query = `
        SELECT id, ticket_id, content, is_ai, created_at
        FROM messages WHERE ticket_id=$1 AND is_ai=FALSE
        ORDER BY created_at DESC LIMIT 1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&msg.ID,
		&msg.TicketID,
		&msg.Content,
		&msg.IsAI,
		&msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return &msg, nil
}
