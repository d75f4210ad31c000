package helpdesk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/skphelp/internal/logging"
	"github.com/aretw0/skphelp/pkg/auth"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/go-playground/validator/v10"
)

// UserInput is the admin form for registering an account.
type UserInput struct {
	NIP       string      `json:"nip" validate:"required,notblank"`
	Name      string      `json:"name" validate:"required,notblank"`
	Password  string      `json:"password" validate:"required"`
	Role      domain.Role `json:"role" validate:"required,oneof=asn admin"`
	UnitKerja string      `json:"unit_kerja" validate:"required,notblank"`
}

// UserService manages accounts for the admin back-office.
type UserService struct {
	store    ports.UserStore
	validate *validator.Validate
	logger   *slog.Logger
}

// NewUserService creates a UserService over store.
func NewUserService(store ports.UserStore, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &UserService{store: store, validate: newValidator(), logger: logger}
}

// Create registers an account. Every field is required and the NIP must be new.
func (s *UserService) Create(ctx context.Context, in UserInput) (domain.UserProfile, error) {
	if err := check(s.validate, in, "Semua data wajib diisi."); err != nil {
		return domain.UserProfile{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("failed to hash password: %w", err)
	}
	account := domain.UserAccount{
		UserProfile: domain.UserProfile{
			NIP:       strings.TrimSpace(in.NIP),
			Name:      strings.TrimSpace(in.Name),
			Role:      in.Role,
			UnitKerja: strings.TrimSpace(in.UnitKerja),
		},
		PasswordHash: hash,
	}
	if err := s.store.Create(ctx, account); err != nil {
		return domain.UserProfile{}, err
	}

	s.logger.Info("user created", "nip", account.NIP, "role", account.Role)
	return account.UserProfile, nil
}

// Delete removes the account for nip.
func (s *UserService) Delete(ctx context.Context, nip string) error {
	if err := s.store.Delete(ctx, nip); err != nil {
		return err
	}
	s.logger.Info("user deleted", "nip", nip)
	return nil
}

// Search returns the profiles whose name, NIP or unit contains query
// (case-insensitive). An empty query lists everyone.
func (s *UserService) Search(ctx context.Context, query string) ([]domain.UserProfile, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.UserProfile, 0, len(accounts))
	for _, a := range accounts {
		if q == "" ||
			strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(a.NIP), q) ||
			strings.Contains(strings.ToLower(a.UnitKerja), q) {
			out = append(out, a.UserProfile)
		}
	}
	return out, nil
}
