package ai

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketReader is the slice of the ticket service the responder consumes for
// prompt context and final persistence.
type TicketReader interface {
	GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	ListTicketMessages(ctx context.Context, ticketID string) ([]domain.Message, error)
	LastCustomerMessage(ctx context.Context, ticketID string) (*domain.Message, error)
	CreateMessage(ctx context.Context, ticketID, content string, isAI bool) (*domain.Message, error)
}

// Responder drives one streamed AI reply per call: it builds the prompt from
// the ticket thread, relays generated fragments to the caller, and persists
// the accumulated text as a single is_ai message once the stream ends.
type Responder struct {
	service         TicketReader
	generator       Generator
	logger          *zap.Logger
	persistPartial  bool
	finalizeTimeout time.Duration
}

// ResponderOptions tunes finalization behavior.
type ResponderOptions struct {
	// PersistPartial stores the buffer accumulated so far when generation
	// fails mid-stream instead of discarding it.
	PersistPartial bool
	// FinalizeTimeout bounds the persistence write that runs after the
	// stream ends.
	FinalizeTimeout time.Duration
}

// NewResponder constructs the streaming coordinator.
func NewResponder(service TicketReader, generator Generator, logger *zap.Logger, opts ResponderOptions) *Responder {
	if opts.FinalizeTimeout <= 0 {
		opts.FinalizeTimeout = 10 * time.Second
	}
	return &Responder{
		service:         service,
		generator:       generator,
		logger:          logger,
		persistPartial:  opts.PersistPartial,
		finalizeTimeout: opts.FinalizeTimeout,
	}
}

// Respond starts a streamed reply for the ticket. Fragments arrive on the
// returned channel, which closes when the stream ends or aborts. The
// accumulated reply is persisted after the last fragment regardless of
// whether the caller keeps reading: a cancelled ctx stops forwarding but
// never finalization.
func (r *Responder) Respond(ctx context.Context, ticketID string) (<-chan string, error) {
	ticket, err := r.service.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	history, err := r.service.ListTicketMessages(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	lastCustomer, err := r.service.LastCustomerMessage(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(ticket, history, lastCustomer)

	// The generation stream must outlive the request context so a client
	// disconnect cannot cancel it before finalization.
	streamCtx := context.WithoutCancel(ctx)
	stream, err := r.generator.Stream(streamCtx, prompt)
	if err != nil {
		return nil, err
	}

	out := make(chan string)
	go r.run(ctx, stream, ticketID, out)
	return out, nil
}

func (r *Responder) run(ctx context.Context, stream FragmentStream, ticketID string, out chan<- string) {
	defer close(out)
	defer stream.Close() //nolint:errcheck

	var buf strings.Builder
	forwarding := true

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.abort(ctx, ticketID, buf.String(), err)
			return
		}
		// An empty sentinel fragment ends the stream early without error.
		if fragment == "" {
			break
		}

		buf.WriteString(fragment)

		if forwarding {
			select {
			case out <- fragment:
			case <-ctx.Done():
				// Caller is gone; keep draining and accumulating so the
				// reply is still persisted in full.
				forwarding = false
				r.logger.Debug("ai response consumer disconnected",
					zap.String("ticket_id", ticketID))
			}
		}
	}

	r.finalize(ctx, ticketID, buf.String())
}

// finalize persists the accumulated reply exactly once per stream. It runs
// under a detached context so transport cancellation cannot skip it.
func (r *Responder) finalize(ctx context.Context, ticketID, content string) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.finalizeTimeout)
	defer cancel()

	msg, err := r.service.CreateMessage(persistCtx, ticketID, content, true)
	if err != nil {
		r.logger.Error("failed to persist ai response",
			zap.String("ticket_id", ticketID),
			zap.Error(err))
		return
	}
	r.logger.Info("ai response persisted",
		zap.String("ticket_id", ticketID),
		zap.String("message_id", msg.ID),
		zap.Int("length", len(content)))
}

// abort handles a mid-stream generation failure. No retry is attempted; the
// partial buffer is discarded unless the persist-partial policy is enabled.
func (r *Responder) abort(ctx context.Context, ticketID, partial string, cause error) {
	r.logger.Warn("ai response stream aborted",
		zap.String("ticket_id", ticketID),
		zap.Int("buffered", len(partial)),
		zap.Error(cause))

	if r.persistPartial && partial != "" {
		r.finalize(ctx, ticketID, partial)
	}
}
