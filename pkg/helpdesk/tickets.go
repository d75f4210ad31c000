package helpdesk

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/skphelp/internal/logging"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/go-playground/validator/v10"
)

// TicketNotifier is told about ticket changes. events.Bus implements it.
type TicketNotifier interface {
	TicketSubmitted(ctx context.Context, t domain.Ticket)
	TicketResponded(ctx context.Context, t domain.Ticket)
}

// TicketInput is the consultation form. Identity comes from the logged-in profile.
type TicketInput struct {
	Unit     string `json:"unit"`
	Category string `json:"category" validate:"required,notblank"`
	Question string `json:"question" validate:"required,notblank"`
}

// ResponseInput is the staff reply to a ticket.
type ResponseInput struct {
	Answer string              `json:"answer" validate:"required,notblank"`
	Status domain.TicketStatus `json:"status" validate:"required,oneof=pending processing resolved"`
}

// TicketStats backs the admin dashboard.
type TicketStats struct {
	Total        int                         `json:"total"`
	ByStatus     map[domain.TicketStatus]int `json:"by_status"`
	ByCategory   []domain.StatData           `json:"by_category"`
	IssueStats   []domain.StatData           `json:"issue_stats"`
	MonthlyStats []domain.StatData           `json:"monthly_stats"`
}

// TicketService handles consultation tickets.
type TicketService struct {
	store    ports.TicketStore
	validate *validator.Validate
	notifier TicketNotifier
	logger   *slog.Logger
	now      func() time.Time

	issueStats   []domain.StatData
	monthlyStats []domain.StatData

	// mu serialises id allocation.
	mu sync.Mutex
}

// TicketOption configures a TicketService.
type TicketOption func(*TicketService)

// WithNotifier publishes ticket changes to n.
func WithNotifier(n TicketNotifier) TicketOption {
	return func(s *TicketService) {
		s.notifier = n
	}
}

// WithTicketLogger sets the logger.
func WithTicketLogger(logger *slog.Logger) TicketOption {
	return func(s *TicketService) {
		s.logger = logger
	}
}

// WithTicketClock overrides the clock used for ticket dates and ids.
func WithTicketClock(now func() time.Time) TicketOption {
	return func(s *TicketService) {
		s.now = now
	}
}

// WithReferenceStats sets the historical charts reported alongside live counts.
func WithReferenceStats(issues, monthly []domain.StatData) TicketOption {
	return func(s *TicketService) {
		s.issueStats = slices.Clone(issues)
		s.monthlyStats = slices.Clone(monthly)
	}
}

// NewTicketService creates a TicketService over store.
func NewTicketService(store ports.TicketStore, opts ...TicketOption) *TicketService {
	s := &TicketService{
		store:    store,
		validate: newValidator(),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a pending ticket for the user. The unit defaults to the
// profile's unit.
func (s *TicketService) Submit(ctx context.Context, user domain.UserProfile, in TicketInput) (domain.Ticket, error) {
	if err := in.sanitize(); err != nil {
		return domain.Ticket{}, err
	}
	if err := check(s.validate, in, "Kategori dan uraian kendala wajib diisi."); err != nil {
		return domain.Ticket{}, err
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = user.UnitKerja
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id, err := s.nextID(ctx, now.Year())
	if err != nil {
		return domain.Ticket{}, err
	}
	t := domain.Ticket{
		ID:       id,
		Date:     now,
		NIP:      user.NIP,
		Name:     user.Name,
		Unit:     unit,
		Category: strings.TrimSpace(in.Category),
		Question: strings.TrimSpace(in.Question),
		Status:   domain.TicketPending,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return domain.Ticket{}, err
	}

	s.logger.Info("ticket submitted", "ticket_id", t.ID, "nip", t.NIP, "category", t.Category)
	if s.notifier != nil {
		s.notifier.TicketSubmitted(ctx, t)
	}
	return t, nil
}

// nextID returns T-<year>-<seq> with seq one past the highest used this year.
func (s *TicketService) nextID(ctx context.Context, year int) (string, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return "", err
	}
	prefix := fmt.Sprintf("T-%d-", year)
	highest := 0
	for _, t := range all {
		rest, ok := strings.CutPrefix(t.ID, prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1), nil
}

// Mine lists the tickets filed by nip, newest first.
func (s *TicketService) Mine(ctx context.Context, nip string) ([]domain.Ticket, error) {
	return s.store.ListByNIP(ctx, nip)
}

// All lists every ticket, newest first.
func (s *TicketService) All(ctx context.Context) ([]domain.Ticket, error) {
	return s.store.List(ctx)
}

// Respond records a staff answer and moves the ticket to the given status.
func (s *TicketService) Respond(ctx context.Context, id string, in ResponseInput) (domain.Ticket, error) {
	if err := in.sanitize(); err != nil {
		return domain.Ticket{}, err
	}
	if err := check(s.validate, in, "Jawaban dan status wajib diisi."); err != nil {
		return domain.Ticket{}, err
	}
	t, err := s.store.Respond(ctx, id, strings.TrimSpace(in.Answer), in.Status)
	if err != nil {
		return domain.Ticket{}, err
	}

	s.logger.Info("ticket responded", "ticket_id", t.ID, "status", t.Status)
	if s.notifier != nil {
		s.notifier.TicketResponded(ctx, t)
	}
	return t, nil
}

// Stats counts tickets by status and category.
func (s *TicketService) Stats(ctx context.Context) (TicketStats, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return TicketStats{}, err
	}

	stats := TicketStats{
		Total: len(all),
		ByStatus: map[domain.TicketStatus]int{
			domain.TicketPending:    0,
			domain.TicketProcessing: 0,
			domain.TicketResolved:   0,
		},
		IssueStats:   slices.Clone(s.issueStats),
		MonthlyStats: slices.Clone(s.monthlyStats),
	}
	categories := make(map[string]int)
	for _, t := range all {
		stats.ByStatus[t.Status]++
		categories[t.Category]++
	}
	for name, n := range categories {
		stats.ByCategory = append(stats.ByCategory, domain.StatData{Name: name, Value: n})
	}
	slices.SortFunc(stats.ByCategory, func(a, b domain.StatData) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return stats, nil
}
