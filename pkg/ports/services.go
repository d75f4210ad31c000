package ports

import (
	"context"

	"github.com/aretw0/skphelp/pkg/domain"
)

// Authenticator verifies employee credentials.
type Authenticator interface {
	Login(ctx context.Context, nip, secret string) (domain.UserProfile, error)
}

// FAQStore holds the knowledge base.
type FAQStore interface {
	List(ctx context.Context) ([]domain.FAQItem, error)
	Get(ctx context.Context, id string) (domain.FAQItem, error)
	// Upsert inserts the item when its ID is new and replaces it otherwise.
	Upsert(ctx context.Context, item domain.FAQItem) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (domain.FAQItem, error)
}

// TicketStore holds consultation tickets.
type TicketStore interface {
	List(ctx context.Context) ([]domain.Ticket, error)
	ListByNIP(ctx context.Context, nip string) ([]domain.Ticket, error)
	Get(ctx context.Context, id string) (domain.Ticket, error)
	Create(ctx context.Context, ticket domain.Ticket) error
	Respond(ctx context.Context, id, answer string, status domain.TicketStatus) (domain.Ticket, error)
}

// UserStore holds user accounts.
type UserStore interface {
	List(ctx context.Context) ([]domain.UserAccount, error)
	Get(ctx context.Context, nip string) (domain.UserAccount, error)
	Create(ctx context.Context, account domain.UserAccount) error
	Delete(ctx context.Context, nip string) error
}

// Assistant answers free-form questions. It may fail with domain.ErrServiceUnavailable.
type Assistant interface {
	Ask(ctx context.Context, question, extraContext string) (string, error)
}

// SyncService fetches the real-time SKP status of an employee.
// It may fail with domain.ErrSyncTimeout.
type SyncService interface {
	Sync(ctx context.Context, nip string) (domain.SKPSnapshot, error)
}
