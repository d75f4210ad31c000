// Package helpdesk implements the self-service portal around the troubleshooting flow:
// the FAQ knowledge base, consultation tickets, user administration and staff templates.
package helpdesk

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/skphelp/internal/logging"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Categories is the FAQ category filter, "Semua" first.
var Categories = []string{
	domain.CategoryAll,
	"Pengisian SKP",
	"Penilaian",
	"Masalah Teknis",
	"Regulasi",
	"Akun & Jabatan",
}

const (
	searchCacheTTL     = 5 * time.Minute
	searchCacheCleanup = 10 * time.Minute
)

// FAQInput is the admin form for creating or editing an FAQ entry.
type FAQInput struct {
	Category string `json:"category" validate:"required,faqcategory"`
	Question string `json:"question" validate:"required,notblank"`
	Answer   string `json:"answer" validate:"required,notblank"`
}

// FAQService serves the knowledge base. Search results are cached until the
// next mutation or view.
type FAQService struct {
	store    ports.FAQStore
	validate *validator.Validate
	logger   *slog.Logger
	newID    func() string

	mu         sync.Mutex
	searches   *cache.Cache
	generation uint64 // bumped by every invalidate
}

// FAQOption configures a FAQService.
type FAQOption func(*FAQService)

// WithFAQLogger sets the logger.
func WithFAQLogger(logger *slog.Logger) FAQOption {
	return func(s *FAQService) {
		s.logger = logger
	}
}

// NewFAQService creates a FAQService over store.
func NewFAQService(store ports.FAQStore, opts ...FAQOption) *FAQService {
	s := &FAQService{
		store:    store,
		validate: newValidator(),
		searches: cache.New(searchCacheTTL, searchCacheCleanup),
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the entries whose question or answer contains query
// (case-insensitive), restricted to category unless it is empty or "Semua".
// Results keep the store order, newest first.
func (s *FAQService) Search(ctx context.Context, query, category string) ([]domain.FAQItem, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if category == domain.CategoryAll {
		category = ""
	}

	key := category + "\x00" + query
	s.mu.Lock()
	hit, ok := s.searches.Get(key)
	generation := s.generation
	s.mu.Unlock()
	if ok {
		return slices.Clone(hit.([]domain.FAQItem)), nil
	}

	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.FAQItem, 0, len(items))
	for _, item := range items {
		if category != "" && item.Category != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(item.Question), query) &&
			!strings.Contains(strings.ToLower(item.Answer), query) {
			continue
		}
		out = append(out, item)
	}

	// A change that landed during List makes this result stale.
	s.mu.Lock()
	if s.generation == generation {
		s.searches.Set(key, slices.Clone(out), cache.DefaultExpiration)
	}
	s.mu.Unlock()
	return out, nil
}

func (s *FAQService) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.searches.Flush()
}

// Get returns one entry without counting a view.
func (s *FAQService) Get(ctx context.Context, id string) (domain.FAQItem, error) {
	return s.store.Get(ctx, id)
}

// View returns an entry and counts the read.
func (s *FAQService) View(ctx context.Context, id string) (domain.FAQItem, error) {
	item, err := s.store.IncrementViews(ctx, id)
	if err != nil {
		return domain.FAQItem{}, err
	}
	s.invalidate()
	return item, nil
}

// Create adds a new entry with zero views. New entries are listed first.
func (s *FAQService) Create(ctx context.Context, in FAQInput) (domain.FAQItem, error) {
	if err := in.sanitize(); err != nil {
		return domain.FAQItem{}, err
	}
	if err := check(s.validate, in, "Pertanyaan dan Jawaban wajib diisi."); err != nil {
		return domain.FAQItem{}, err
	}
	item := domain.FAQItem{
		ID:       s.newID(),
		Category: in.Category,
		Question: strings.TrimSpace(in.Question),
		Answer:   strings.TrimSpace(in.Answer),
	}
	if err := s.store.Upsert(ctx, item); err != nil {
		return domain.FAQItem{}, err
	}
	s.invalidate()
	s.logger.Info("faq created", "faq_id", item.ID, "category", item.Category)
	return item, nil
}

// Update replaces the editable fields of an entry and keeps its view count.
func (s *FAQService) Update(ctx context.Context, id string, in FAQInput) (domain.FAQItem, error) {
	if err := in.sanitize(); err != nil {
		return domain.FAQItem{}, err
	}
	if err := check(s.validate, in, "Pertanyaan dan Jawaban wajib diisi."); err != nil {
		return domain.FAQItem{}, err
	}
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.FAQItem{}, err
	}
	item.Category = in.Category
	item.Question = strings.TrimSpace(in.Question)
	item.Answer = strings.TrimSpace(in.Answer)
	if err := s.store.Upsert(ctx, item); err != nil {
		return domain.FAQItem{}, err
	}
	s.invalidate()
	s.logger.Info("faq updated", "faq_id", id)
	return item, nil
}

// Delete removes an entry.
func (s *FAQService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Info("faq deleted", "faq_id", id)
	return nil
}
