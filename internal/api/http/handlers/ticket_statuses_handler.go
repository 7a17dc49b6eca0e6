package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketStatusesHandler manages the shared status catalog.
type TicketStatusesHandler struct {
	service *service.TicketService
}

// NewTicketStatusesHandler constructs handler.
func NewTicketStatusesHandler(ticketService *service.TicketService) *TicketStatusesHandler {
	return &TicketStatusesHandler{service: ticketService}
}

// Create POST /tickets/statuses (superuser only).
func (h *TicketStatusesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	status, err := h.service.CreateTicketStatus(c.Context(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": statusResponse(status)})
}

// List GET /tickets/statuses.
func (h *TicketStatusesHandler) List(c *fiber.Ctx) error {
	statuses, err := h.service.ListTicketStatuses(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.TicketStatusResponse, 0, len(statuses))
	for i := range statuses {
		items = append(items, statusResponse(&statuses[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/statuses/:status_id.
func (h *TicketStatusesHandler) Get(c *fiber.Ctx) error {
	statusID, err := parseID(c, "status_id")
	if err != nil {
		return err
	}
	status, err := h.service.GetTicketStatus(c.Context(), statusID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statusResponse(status)})
}

// Delete DELETE /tickets/statuses/:status_id (superuser only). Tickets
// referencing the status keep existing with a cleared status.
func (h *TicketStatusesHandler) Delete(c *fiber.Ctx) error {
	statusID, err := parseID(c, "status_id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicketStatus(c.Context(), statusID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func statusResponse(status *domain.TicketStatus) dto.TicketStatusResponse {
	return dto.TicketStatusResponse{ID: status.ID, Name: status.Name}
}
