package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/skphelp/pkg/domain"
)

// FAQStore implements ports.FAQStore in memory. New items are kept first.
type FAQStore struct {
	mu    sync.RWMutex
	items []domain.FAQItem
}

// NewFAQStore creates a store holding seed.
func NewFAQStore(seed ...domain.FAQItem) *FAQStore {
	return &FAQStore{items: slices.Clone(seed)}
}

func (s *FAQStore) List(ctx context.Context) ([]domain.FAQItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), nil
}

func (s *FAQStore) Get(ctx context.Context, id string) (domain.FAQItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return domain.FAQItem{}, domain.ErrNotFound
	}
	return s.items[i], nil
}

func (s *FAQStore) Upsert(ctx context.Context, item domain.FAQItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(item.ID); i >= 0 {
		s.items[i] = item
		return nil
	}
	s.items = slices.Insert(s.items, 0, item)
	return nil
}

func (s *FAQStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *FAQStore) IncrementViews(ctx context.Context, id string) (domain.FAQItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return domain.FAQItem{}, domain.ErrNotFound
	}
	s.items[i].Views++
	return s.items[i], nil
}

func (s *FAQStore) index(id string) int {
	return slices.IndexFunc(s.items, func(f domain.FAQItem) bool { return f.ID == id })
}

// TicketStore implements ports.TicketStore in memory. New tickets are kept first.
type TicketStore struct {
	mu      sync.RWMutex
	tickets []domain.Ticket
}

// NewTicketStore creates a store holding seed.
func NewTicketStore(seed ...domain.Ticket) *TicketStore {
	s := &TicketStore{}
	for _, t := range seed {
		s.tickets = append(s.tickets, cloneTicket(t))
	}
	return s
}

func (s *TicketStore) List(ctx context.Context) ([]domain.Ticket, error) {
	return s.filter(func(domain.Ticket) bool { return true }), nil
}

func (s *TicketStore) ListByNIP(ctx context.Context, nip string) ([]domain.Ticket, error) {
	return s.filter(func(t domain.Ticket) bool { return t.NIP == nip }), nil
}

func (s *TicketStore) Get(ctx context.Context, id string) (domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return domain.Ticket{}, domain.ErrNotFound
	}
	return cloneTicket(s.tickets[i]), nil
}

func (s *TicketStore) Create(ctx context.Context, ticket domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = slices.Insert(s.tickets, 0, cloneTicket(ticket))
	return nil
}

func (s *TicketStore) Respond(ctx context.Context, id, answer string, status domain.TicketStatus) (domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return domain.Ticket{}, domain.ErrNotFound
	}
	s.tickets[i].Answer = &answer
	s.tickets[i].Status = status
	return cloneTicket(s.tickets[i]), nil
}

func (s *TicketStore) filter(keep func(domain.Ticket) bool) []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if keep(t) {
			out = append(out, cloneTicket(t))
		}
	}
	return out
}

func (s *TicketStore) index(id string) int {
	return slices.IndexFunc(s.tickets, func(t domain.Ticket) bool { return t.ID == id })
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.Answer != nil {
		a := *t.Answer
		t.Answer = &a
	}
	return t
}

// UserStore implements ports.UserStore in memory, keyed by NIP.
type UserStore struct {
	mu    sync.RWMutex
	users []domain.UserAccount
}

// NewUserStore creates a store holding seed.
func NewUserStore(seed ...domain.UserAccount) *UserStore {
	return &UserStore{users: slices.Clone(seed)}
}

func (s *UserStore) List(ctx context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users), nil
}

func (s *UserStore) Get(ctx context.Context, nip string) (domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(nip)
	if i < 0 {
		return domain.UserAccount{}, domain.ErrNotFound
	}
	return s.users[i], nil
}

// Create appends account, rejecting a NIP that is already registered.
func (s *UserStore) Create(ctx context.Context, account domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(account.NIP) >= 0 {
		return domain.ErrDuplicateUser
	}
	s.users = append(s.users, account)
	return nil
}

func (s *UserStore) Delete(ctx context.Context, nip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(nip)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.users = slices.Delete(s.users, i, i+1)
	return nil
}

func (s *UserStore) index(nip string) int {
	return slices.IndexFunc(s.users, func(u domain.UserAccount) bool { return u.NIP == nip })
}
