package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ondapiu/ticketdesk/internal/domain"
	"github.com/ondapiu/ticketdesk/internal/repository"
)

// memStore is an in-memory repository.Store used by service tests. Its
// WithinTx snapshots state and rolls back when fn fails, mirroring the
// transactional store.
type memStore struct {
	mu      sync.Mutex
	users   []domain.User
	tickets []domain.Ticket
	actions []domain.TicketAction
	clock   time.Time
}

func newMemStore() *memStore {
	return &memStore{clock: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)}
}

// tick returns a strictly increasing timestamp per call.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) Users() repository.UserRepository           { return (*memUsers)(m) }
func (m *memStore) Tickets() repository.TicketRepository       { return (*memTickets)(m) }
func (m *memStore) Actions() repository.TicketActionRepository { return (*memActions)(m) }

func (m *memStore) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	m.mu.Lock()
	users := append([]domain.User(nil), m.users...)
	tickets := append([]domain.Ticket(nil), m.tickets...)
	actions := append([]domain.TicketAction(nil), m.actions...)
	clock := m.clock
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.users, m.tickets, m.actions, m.clock = users, tickets, actions, clock
		m.mu.Unlock()
		return err
	}
	return nil
}

// seedUser inserts a user directly, bypassing validation.
func (m *memStore) seedUser(name, email string, isAdmin bool) domain.User {
	user := domain.User{
		ID:      uuid.NewString(),
		Name:    name,
		Email:   strings.ToLower(email),
		IsAdmin: isAdmin,
	}
	m.mu.Lock()
	user.CreatedAt = m.tick()
	user.UpdatedAt = user.CreatedAt
	m.users = append(m.users, user)
	m.mu.Unlock()
	return user
}

type memUsers memStore

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = (*memStore)(r).tick()
	user.UpdatedAt = user.CreatedAt
	r.users = append(r.users, *user)
	return nil
}

func (r *memUsers) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == user.ID {
			user.UpdatedAt = (*memStore)(r).tick()
			r.users[i] = *user
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memUsers) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			user := r.users[i]
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for i := range r.users {
		if r.users[i].Email == email {
			user := r.users[i]
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUsers) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.User(nil), r.users...), nil
}

type memTickets memStore

func (r *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = (*memStore)(r).tick()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets = append(r.tickets, *ticket)
	return nil
}

func (r *memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tickets {
		if r.tickets[i].ID == ticket.ID {
			ticket.UpdatedAt = (*memStore)(r).tick()
			r.tickets[i] = *ticket
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tickets {
		if r.tickets[i].ID == id {
			ticket := r.tickets[i]
			return &ticket, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTickets) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memTickets) CountUserReferences(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, t := range r.tickets {
		if t.CreatorID == userID || (t.AssigneeID != nil && *t.AssigneeID == userID) {
			count++
		}
	}
	return count, nil
}

type memActions memStore

func (r *memActions) Create(_ context.Context, action *domain.TicketAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	action.ID = uuid.NewString()
	action.CreatedAt = (*memStore)(r).tick()
	r.actions = append(r.actions, *action)
	return nil
}

func (r *memActions) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TicketAction, 0, 4)
	for _, a := range r.actions {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}
