package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket and message endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets. Owner defaults to the caller; creating for
// another owner requires superuser privilege. The ownership check runs
// before the service call so a hostile caller cannot create tickets for
// arbitrary owners.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	ownerID := user.ID
	if req.OwnerID != nil {
		ownerID = *req.OwnerID
	}
	if ownerID != user.ID && !user.IsSuperuser {
		return apperrors.NewForbidden("You do not have permission to create tickets for other users.")
	}

	ticket, err := h.service.CreateTicket(c.Context(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     ownerID,
		StatusID:    req.StatusID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets returns the caller's own tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	tickets, err := h.service.ListTicketsByOwner(c.Context(), user.ID)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticketID, err := h.accessibleTicket(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.Context(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PUT /tickets/:id applies only explicitly-provided fields.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	ticketID, err := h.accessibleTicket(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{}
	if req.Title.Set {
		input.Title = repository.Provided(req.Title.Value)
	}
	if req.Description.Set {
		input.Description = repository.Provided(req.Description.Value)
	}
	if req.StatusID.Set {
		input.StatusID = repository.Provided(req.StatusID.Value)
	}

	ticket, err := h.service.UpdateTicket(c.Context(), ticketID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	ticketID, err := h.accessibleTicket(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.Context(), ticketID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateMessage POST /tickets/:id/messages. Caller-supplied AI messages are
// rejected before the service is reached.
func (h *TicketsHandler) CreateMessage(c *fiber.Ctx) error {
	ticketID, err := h.accessibleTicket(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.IsAI {
		return apperrors.NewValidationError("AI messages cannot be created manually.", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("content required", nil)
	}

	msg, err := h.service.CreateMessage(c.Context(), ticketID, req.Content, false)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// accessibleTicket validates the path id and runs the single authorization
// gate shared by the get/update/delete/message paths.
func (h *TicketsHandler) accessibleTicket(c *fiber.Ctx) (string, error) {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized("user required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return "", err
	}
	if err := h.service.IsTicketAccessible(c.Context(), ticketID, user.ID); err != nil {
		return "", err
	}
	return ticketID, nil
}

func parseID(c *fiber.Ctx, param string) (string, error) {
	raw := c.Params(param)
	if _, err := uuid.Parse(raw); err != nil {
		return "", apperrors.NewUnprocessable("malformed identifier")
	}
	return raw, nil
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		OwnerID:     ticket.OwnerID,
		StatusID:    ticket.StatusID,
		CreatedAt:   ticket.CreatedAt,
	}
}

func messageResponse(msg *domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:        msg.ID,
		TicketID:  msg.TicketID,
		Content:   msg.Content,
		IsAI:      msg.IsAI,
		CreatedAt: msg.CreatedAt,
	}
}
