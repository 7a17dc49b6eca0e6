package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type fakeUserStore struct {
	users map[string]*domain.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", f.seq)
	ticket.CreatedAt = time.Now()
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) GetAll(_ context.Context) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Ticket, 0, len(f.tickets))
	for _, t := range f.tickets {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTicketRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) Update(_ context.Context, id string, update repository.TicketUpdate) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Title.Set {
		ticket.Title = update.Title.Value
	}
	if update.Description.Set {
		ticket.Description = update.Description.Value
	}
	if update.StatusID.Set {
		ticket.StatusID = update.StatusID.Value
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.tickets, id)
	return nil
}

func (f *fakeTicketRepo) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tickets[id]
	return ok, nil
}

type fakeStatusRepo struct {
	mu       sync.Mutex
	seq      int
	statuses map[string]*domain.TicketStatus
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{statuses: map[string]*domain.TicketStatus{}}
}

func (f *fakeStatusRepo) Create(_ context.Context, status *domain.TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.statuses {
		if existing.Name == status.Name {
			return repository.ErrDuplicate
		}
	}
	f.seq++
	status.ID = fmt.Sprintf("status-%d", f.seq)
	copied := *status
	f.statuses[status.ID] = &copied
	return nil
}

func (f *fakeStatusRepo) GetByID(_ context.Context, id string) (*domain.TicketStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *status
	return &copied, nil
}

func (f *fakeStatusRepo) GetAll(_ context.Context) ([]domain.TicketStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.TicketStatus, 0, len(f.statuses))
	for _, s := range f.statuses {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStatusRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.statuses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.statuses, id)
	return nil
}

func (f *fakeStatusRepo) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.statuses[id]
	return ok, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	seq      int
	messages map[string]*domain.Message
	clock    time.Time
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: map[string]*domain.Message{}, clock: time.Now()}
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	// Strictly increasing timestamps so ordering is deterministic.
	f.clock = f.clock.Add(time.Millisecond)
	msg.ID = fmt.Sprintf("msg-%d", f.seq)
	msg.CreatedAt = f.clock
	copied := *msg
	f.messages[msg.ID] = &copied
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *msg
	return &copied, nil
}

func (f *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.messages {
		if m.TicketID == ticketID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMessageRepo) LastCustomerMessage(ctx context.Context, ticketID string) (*domain.Message, error) {
	msgs, _ := f.ListByTicket(ctx, ticketID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsAI {
			copied := msgs[i]
			return &copied, nil
		}
	}
	return nil, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) recorded() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}

type serviceFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	statuses   *fakeStatusRepo
	messages   *fakeMessageRepo
	users      *fakeUserStore
	dispatcher *recordingDispatcher
}

func newFixture() *serviceFixture {
	tickets := newFakeTicketRepo()
	statuses := newFakeStatusRepo()
	messages := newFakeMessageRepo()
	users := &fakeUserStore{users: map[string]*domain.User{
		"owner-1": {ID: "owner-1", Name: "Alice", IsActive: true},
		"other-1": {ID: "other-1", Name: "Bob", IsActive: true},
		"admin-1": {ID: "admin-1", Name: "Root", IsActive: true, IsSuperuser: true},
	}}
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		StatusRepo:  statuses,
		MessageRepo: messages,
		UserLookup:  users,
		Dispatcher:  dispatcher,
	})
	return &serviceFixture{service: svc, tickets: tickets, statuses: statuses, messages: messages, users: users, dispatcher: dispatcher}
}

func (f *serviceFixture) createTicket(t *testing.T, ownerID string) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.CreateTicket(context.Background(), TicketCreateInput{
		Title:       "Cannot log in",
		Description: "Login button does nothing",
		OwnerID:     ownerID,
	})
	require.NoError(t, err)
	return ticket
}

func statusOf(err error) int {
	return apperrors.ToDomainError(err).HTTPStatus
}

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds for existing owner", func(t *testing.T) {
		f := newFixture()
		ticket, err := f.service.CreateTicket(ctx, TicketCreateInput{
			Title:   "Printer on fire",
			OwnerID: "owner-1",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, ticket.ID)
		assert.Equal(t, "owner-1", ticket.OwnerID)
		assert.Nil(t, ticket.StatusID)

		recorded := f.dispatcher.recorded()
		require.Len(t, recorded, 1)
		assert.Equal(t, events.EventTicketCreated, recorded[0].Type)
	})

	t.Run("rejects blank title", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.CreateTicket(ctx, TicketCreateInput{Title: "   ", OwnerID: "owner-1"})
		require.Error(t, err)
		assert.Equal(t, 400, statusOf(err))
	})

	t.Run("unknown owner reports user not found", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.CreateTicket(ctx, TicketCreateInput{Title: "x", OwnerID: "nobody"})
		require.Error(t, err)
		assert.Equal(t, 404, statusOf(err))
		assert.Equal(t, "User not found", apperrors.ToDomainError(err).Message)
		assert.Empty(t, f.tickets.tickets, "no ticket row may exist after a failed create")
	})

	t.Run("unknown status reports status not found and persists nothing", func(t *testing.T) {
		f := newFixture()
		missing := "status-999"
		_, err := f.service.CreateTicket(ctx, TicketCreateInput{
			Title:    "x",
			OwnerID:  "owner-1",
			StatusID: &missing,
		})
		require.Error(t, err)
		assert.Equal(t, 404, statusOf(err))
		assert.Equal(t, "Ticket status not found", apperrors.ToDomainError(err).Message)
		assert.Empty(t, f.tickets.tickets)
	})

	t.Run("valid status is attached", func(t *testing.T) {
		f := newFixture()
		status, err := f.service.CreateTicketStatus(ctx, "open")
		require.NoError(t, err)

		ticket, err := f.service.CreateTicket(ctx, TicketCreateInput{
			Title:    "x",
			OwnerID:  "owner-1",
			StatusID: &status.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, ticket.StatusID)
		assert.Equal(t, status.ID, *ticket.StatusID)
	})
}

func TestIsTicketAccessible(t *testing.T) {
	ctx := context.Background()

	t.Run("owner may access", func(t *testing.T) {
		f := newFixture()
		ticket := f.createTicket(t, "owner-1")
		assert.NoError(t, f.service.IsTicketAccessible(ctx, ticket.ID, "owner-1"))
	})

	t.Run("superuser may access any ticket", func(t *testing.T) {
		f := newFixture()
		ticket := f.createTicket(t, "owner-1")
		assert.NoError(t, f.service.IsTicketAccessible(ctx, ticket.ID, "admin-1"))
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		f := newFixture()
		ticket := f.createTicket(t, "owner-1")
		err := f.service.IsTicketAccessible(ctx, ticket.ID, "other-1")
		require.Error(t, err)
		assert.Equal(t, 403, statusOf(err))
		assert.Equal(t, "You do not have permission to access this ticket.", apperrors.ToDomainError(err).Message)
	})

	t.Run("unknown user wins over unknown ticket", func(t *testing.T) {
		f := newFixture()
		err := f.service.IsTicketAccessible(ctx, "ticket-absent", "nobody")
		require.Error(t, err)
		assert.Equal(t, "User not found", apperrors.ToDomainError(err).Message)
	})

	t.Run("known user and missing ticket reports ticket not found", func(t *testing.T) {
		f := newFixture()
		err := f.service.IsTicketAccessible(ctx, "ticket-absent", "owner-1")
		require.Error(t, err)
		assert.Equal(t, "Ticket not found", apperrors.ToDomainError(err).Message)
	})
}

func TestListTicketsByOwner(t *testing.T) {
	ctx := context.Background()

	t.Run("empty list for owner without tickets", func(t *testing.T) {
		f := newFixture()
		tickets, err := f.service.ListTicketsByOwner(ctx, "other-1")
		require.NoError(t, err)
		assert.NotNil(t, tickets)
		assert.Empty(t, tickets)
	})

	t.Run("only the owner's tickets are returned", func(t *testing.T) {
		f := newFixture()
		mine := f.createTicket(t, "owner-1")
		f.createTicket(t, "other-1")

		tickets, err := f.service.ListTicketsByOwner(ctx, "owner-1")
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, mine.ID, tickets[0].ID)
	})

	t.Run("unknown owner errors", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.ListTicketsByOwner(ctx, "nobody")
		require.Error(t, err)
		assert.Equal(t, 404, statusOf(err))
	})
}

func TestUpdateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("applies only provided fields", func(t *testing.T) {
		f := newFixture()
		ticket := f.createTicket(t, "owner-1")

		updated, err := f.service.UpdateTicket(ctx, ticket.ID, TicketUpdateInput{
			Title: repository.Provided("New title"),
		})
		require.NoError(t, err)
		assert.Equal(t, "New title", updated.Title)
		assert.Equal(t, ticket.Description, updated.Description, "omitted field must keep its value")
	})

	t.Run("explicit null detaches status", func(t *testing.T) {
		f := newFixture()
		status, err := f.service.CreateTicketStatus(ctx, "open")
		require.NoError(t, err)
		ticket, err := f.service.CreateTicket(ctx, TicketCreateInput{
			Title: "x", OwnerID: "owner-1", StatusID: &status.ID,
		})
		require.NoError(t, err)

		updated, err := f.service.UpdateTicket(ctx, ticket.ID, TicketUpdateInput{
			StatusID: repository.Provided[*string](nil),
		})
		require.NoError(t, err)
		assert.Nil(t, updated.StatusID)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		f := newFixture()
		ticket := f.createTicket(t, "owner-1")
		missing := "status-404"
		_, err := f.service.UpdateTicket(ctx, ticket.ID, TicketUpdateInput{
			StatusID: repository.Provided(&missing),
		})
		require.Error(t, err)
		assert.Equal(t, "Ticket status not found", apperrors.ToDomainError(err).Message)
	})

	t.Run("missing ticket", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.UpdateTicket(ctx, "ticket-absent", TicketUpdateInput{
			Title: repository.Provided("x"),
		})
		require.Error(t, err)
		assert.Equal(t, 404, statusOf(err))
	})
}

func TestDeleteTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the ticket", func(t *testing.T) {
		f := newFixture()
		ticket := f.createTicket(t, "owner-1")
		require.NoError(t, f.service.DeleteTicket(ctx, ticket.ID))
		_, err := f.service.GetTicket(ctx, ticket.ID)
		assert.Equal(t, 404, statusOf(err))
	})

	t.Run("missing ticket", func(t *testing.T) {
		f := newFixture()
		err := f.service.DeleteTicket(ctx, "ticket-absent")
		require.Error(t, err)
		assert.Equal(t, 404, statusOf(err))
	})
}

func TestTicketStatuses(t *testing.T) {
	ctx := context.Background()

	t.Run("name is normalized", func(t *testing.T) {
		f := newFixture()
		status, err := f.service.CreateTicketStatus(ctx, "  OPEN ")
		require.NoError(t, err)
		assert.Equal(t, "open", status.Name)
	})

	t.Run("duplicate after normalization conflicts", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.CreateTicketStatus(ctx, "open")
		require.NoError(t, err)
		_, err = f.service.CreateTicketStatus(ctx, " Open")
		require.Error(t, err)
		assert.Equal(t, 409, statusOf(err))
		assert.Equal(t, "Ticket status with this name already exists", apperrors.ToDomainError(err).Message)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.CreateTicketStatus(ctx, "   ")
		require.Error(t, err)
		assert.Equal(t, 400, statusOf(err))
	})

	t.Run("delete missing status", func(t *testing.T) {
		f := newFixture()
		err := f.service.DeleteTicketStatus(ctx, "status-absent")
		require.Error(t, err)
		assert.Equal(t, 404, statusOf(err))
	})
}

func TestMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("thread is returned in creation order", func(t *testing.T) {
		f := newFixture()
		ticket := f.createTicket(t, "owner-1")

		_, err := f.service.CreateMessage(ctx, ticket.ID, "Hello", false)
		require.NoError(t, err)
		_, err = f.service.CreateMessage(ctx, ticket.ID, "Hi there", true)
		require.NoError(t, err)
		_, err = f.service.CreateMessage(ctx, ticket.ID, "Still broken", false)
		require.NoError(t, err)

		msgs, err := f.service.ListTicketMessages(ctx, ticket.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "Hello", msgs[0].Content)
		assert.Equal(t, "Hi there", msgs[1].Content)
		assert.Equal(t, "Still broken", msgs[2].Content)
	})

	t.Run("message on missing ticket", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.CreateMessage(ctx, "ticket-absent", "Hello", false)
		require.Error(t, err)
		assert.Equal(t, "Ticket not found", apperrors.ToDomainError(err).Message)
	})

	t.Run("ai message publishes ai event", func(t *testing.T) {
		f := newFixture()
		ticket := f.createTicket(t, "owner-1")
		_, err := f.service.CreateMessage(ctx, ticket.ID, "Sure, I can help.", true)
		require.NoError(t, err)

		recorded := f.dispatcher.recorded()
		last := recorded[len(recorded)-1]
		assert.Equal(t, events.EventAIResponseRecorded, last.Type)
	})

	t.Run("last customer message skips ai replies", func(t *testing.T) {
		f := newFixture()
		ticket := f.createTicket(t, "owner-1")
		_, err := f.service.CreateMessage(ctx, ticket.ID, "Hello", false)
		require.NoError(t, err)
		_, err = f.service.CreateMessage(ctx, ticket.ID, "Hi there", true)
		require.NoError(t, err)

		last, err := f.service.LastCustomerMessage(ctx, ticket.ID)
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, "Hello", last.Content)
	})

	t.Run("no customer message yields nil for empty and ai-only threads alike", func(t *testing.T) {
		f := newFixture()
		empty := f.createTicket(t, "owner-1")
		aiOnly := f.createTicket(t, "owner-1")
		_, err := f.service.CreateMessage(ctx, aiOnly.ID, "Hi there", true)
		require.NoError(t, err)

		for _, ticket := range []*domain.Ticket{empty, aiOnly} {
			last, err := f.service.LastCustomerMessage(ctx, ticket.ID)
			require.NoError(t, err)
			assert.Nil(t, last)
		}
	})
}
