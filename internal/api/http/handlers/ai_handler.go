package handlers

import (
	"bufio"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/ai"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AIHandler streams generated support replies over SSE.
type AIHandler struct {
	responder *ai.Responder
	tickets   *service.TicketService
	logger    *zap.Logger
}

// NewAIHandler constructs handler.
func NewAIHandler(responder *ai.Responder, ticketService *service.TicketService, logger *zap.Logger) *AIHandler {
	return &AIHandler{responder: responder, tickets: ticketService, logger: logger}
}

// StreamResponse GET /tickets/:id/ai-response. Fragments are written as SSE
// data frames as they arrive. The reply is persisted by the responder even if
// the client disconnects mid-stream, so the stream is started before the body
// writer takes over and is driven by the connection's own context.
func (h *AIHandler) StreamResponse(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tickets.IsTicketAccessible(c.Context(), ticketID, user.ID); err != nil {
		return err
	}

	// The fasthttp request context is cancelled when the client goes away;
	// the responder keeps accumulating past that point and persists the
	// full reply regardless.
	fragments, err := h.responder.Respond(c.Context(), ticketID)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set(fiber.HeaderTransferEncoding, "chunked")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for fragment := range fragments {
			if _, err := fmt.Fprintf(w, "data: %s\n\n", fragment); err != nil {
				h.logger.Debug("ai stream write failed",
					zap.String("ticket_id", ticketID), zap.Error(err))
				break
			}
			if err := w.Flush(); err != nil {
				break
			}
		}
		// Drain so the responder never blocks on a gone consumer.
		for range fragments {
		}
	}))
	return nil
}
