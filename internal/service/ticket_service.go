package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// UserLookup resolves user existence and the superuser flag. It is the only
// view of the user store the ticket service holds; credentials are never
// touched here.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// TicketService is the authorization and orchestration boundary for tickets,
// statuses, and messages. All mutation and read paths funnel through it.
type TicketService struct {
	tickets    repository.TicketRepository
	statuses   repository.TicketStatusRepository
	messages   repository.MessageRepository
	users      UserLookup
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	StatusRepo  repository.TicketStatusRepository
	MessageRepo repository.MessageRepository
	UserLookup  UserLookup
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	OwnerID     string
	StatusID    *string
}

// TicketUpdateInput carries explicitly-provided fields for a partial update.
// A field set to its zero or null value is still applied.
type TicketUpdateInput struct {
	Title       repository.Field[string]
	Description repository.Field[string]
	StatusID    repository.Field[*string]
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		statuses:   deps.StatusRepo,
		messages:   deps.MessageRepo,
		users:      deps.UserLookup,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket validates references and creates a ticket. Authorization of
// "may this caller create for this owner" belongs to the handler, which must
// run it before calling here.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	if _, err := s.users.GetByID(ctx, input.OwnerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, err
	}

	if input.StatusID != nil {
		exists, err := s.statuses.Exists(ctx, *input.StatusID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NewNotFound("Ticket status not found")
		}
	}

	ticket := &domain.Ticket{
		Title:       input.Title,
		Description: input.Description,
		OwnerID:     input.OwnerID,
		StatusID:    input.StatusID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		// A status or owner deleted between validation and insert surfaces
		// here through the foreign key.
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, apperrors.NewNotFound("Ticket status not found")
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			OwnerID:  ticket.OwnerID,
			StatusID: ticket.StatusID,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket by id. No authorization is performed here;
// callers enforcing ownership must invoke IsTicketAccessible first.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Ticket not found")
		}
		return nil, err
	}
	return ticket, nil
}

// IsTicketAccessible is the single authorization gate for ticket access.
// The user is resolved before the ticket, so an unknown user reports
// "User not found" even when the ticket is also absent.
func (s *TicketService) IsTicketAccessible(ctx context.Context, ticketID, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("User not found")
		}
		return err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Ticket not found")
		}
		return err
	}

	if ticket.OwnerID != userID && !user.IsSuperuser {
		return apperrors.NewForbidden("You do not have permission to access this ticket.")
	}
	return nil
}

// ListTicketsByOwner returns the tickets owned by a user. An owner with no
// tickets yields an empty list, not an error.
func (s *TicketService) ListTicketsByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, err
	}
	tickets, err := s.tickets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// ListAllTickets returns every ticket in the system.
func (s *TicketService) ListAllTickets(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// UpdateTicket applies only the explicitly-provided fields and returns the
// just-written row.
func (s *TicketService) UpdateTicket(ctx context.Context, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	exists, err := s.tickets.Exists(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewNotFound("Ticket not found")
	}

	if input.StatusID.Set && input.StatusID.Value != nil {
		statusExists, err := s.statuses.Exists(ctx, *input.StatusID.Value)
		if err != nil {
			return nil, err
		}
		if !statusExists {
			return nil, apperrors.NewNotFound("Ticket status not found")
		}
	}

	ticket, err := s.tickets.Update(ctx, ticketID, repository.TicketUpdate{
		Title:       input.Title,
		Description: input.Description,
		StatusID:    input.StatusID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Ticket not found")
		}
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, apperrors.NewNotFound("Ticket status not found")
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
	})
	return ticket, nil
}

// DeleteTicket removes a ticket and cascades to its messages.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID string) error {
	exists, err := s.tickets.Exists(ctx, ticketID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFound("Ticket not found")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Ticket not found")
		}
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
	})
	return nil
}

// CreateTicketStatus adds a status to the catalog. Names are normalized
// (trimmed, lowercased) before the uniqueness check.
func (s *TicketService) CreateTicketStatus(ctx context.Context, name string) (*domain.TicketStatus, error) {
	normalized := domain.NormalizeStatusName(name)
	if normalized == "" {
		return nil, apperrors.NewValidationError("status name required", nil)
	}
	status := &domain.TicketStatus{Name: normalized}
	if err := s.statuses.Create(ctx, status); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("Ticket status with this name already exists", nil)
		}
		return nil, err
	}
	return status, nil
}

// GetTicketStatus fetches a status by id.
func (s *TicketService) GetTicketStatus(ctx context.Context, statusID string) (*domain.TicketStatus, error) {
	status, err := s.statuses.GetByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Ticket status not found")
		}
		return nil, err
	}
	return status, nil
}

// ListTicketStatuses returns the whole catalog; order is unspecified.
func (s *TicketService) ListTicketStatuses(ctx context.Context) ([]domain.TicketStatus, error) {
	statuses, err := s.statuses.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if statuses == nil {
		statuses = []domain.TicketStatus{}
	}
	return statuses, nil
}

// DeleteTicketStatus removes a status. Tickets referencing it keep existing
// with a null status (SET NULL foreign-key action).
func (s *TicketService) DeleteTicketStatus(ctx context.Context, statusID string) error {
	exists, err := s.statuses.Exists(ctx, statusID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFound("Ticket status not found")
	}
	if err := s.statuses.Delete(ctx, statusID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Ticket status not found")
		}
		return err
	}
	return nil
}

// CreateMessage appends a message to a ticket's thread. AI-authored messages
// may only originate from the streaming finalization path; the handler
// rejects caller-supplied is_ai before this point.
func (s *TicketService) CreateMessage(ctx context.Context, ticketID, content string, isAI bool) (*domain.Message, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Ticket not found")
		}
		return nil, err
	}

	msg := &domain.Message{
		TicketID: ticket.ID,
		Content:  content,
		IsAI:     isAI,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, apperrors.NewNotFound("Ticket not found")
		}
		return nil, err
	}

	eventType := events.EventTicketMessageAdded
	if isAI {
		eventType = events.EventAIResponseRecorded
	}
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		TicketID: ticket.ID,
		Payload: events.TicketMessageAddedPayload{
			MessageID:      msg.ID,
			IsAI:           msg.IsAI,
			ContentPreview: contentPreview(msg.Content, 120),
		},
	})
	return msg, nil
}

// ListTicketMessages returns the thread ascending by creation time.
func (s *TicketService) ListTicketMessages(ctx context.Context, ticketID string) ([]domain.Message, error) {
	if err := s.requireTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// LastCustomerMessage returns the most recent non-AI message, or nil when the
// thread has none. A thread with zero messages and a thread holding only AI
// messages both yield nil; callers cannot distinguish the two cases.
func (s *TicketService) LastCustomerMessage(ctx context.Context, ticketID string) (*domain.Message, error) {
	if err := s.requireTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.messages.LastCustomerMessage(ctx, ticketID)
}

func (s *TicketService) requireTicket(ctx context.Context, ticketID string) error {
	_, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Ticket not found")
		}
		return err
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func contentPreview(content string, max int) string {
	content = strings.TrimSpace(content)
	if len(content) <= max {
		return content
	}
	if max <= 3 {
		return content[:max]
	}
	return content[:max-3] + "..."
}
