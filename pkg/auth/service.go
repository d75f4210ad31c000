package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
	"golang.org/x/crypto/bcrypt"
)

// Session is the result of a successful login.
type Session struct {
	Profile   domain.UserProfile `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// Service checks credentials against a UserStore. It implements ports.Authenticator.
type Service struct {
	users  ports.UserStore
	issuer *Issuer
}

var _ ports.Authenticator = (*Service)(nil)

// NewService creates a Service.
func NewService(users ports.UserStore, issuer *Issuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// Login verifies nip and secret.
func (s *Service) Login(ctx context.Context, nip, secret string) (domain.UserProfile, error) {
	nip = strings.TrimSpace(nip)
	if nip == "" || secret == "" {
		return domain.UserProfile{}, domain.ErrMissingCredentials
	}

	account, err := s.users.Get(ctx, nip)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserProfile{}, domain.ErrInvalidCredentials
		}
		return domain.UserProfile{}, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(secret)); err != nil {
		return domain.UserProfile{}, domain.ErrInvalidCredentials
	}
	return account.UserProfile, nil
}

// SignIn logs in and issues a token.
func (s *Service) SignIn(ctx context.Context, nip, secret string) (*Session, error) {
	profile, err := s.Login(ctx, nip, secret)
	if err != nil {
		return nil, err
	}
	token, expires, err := s.issuer.Issue(profile)
	if err != nil {
		return nil, err
	}
	return &Session{Profile: profile, Token: token, ExpiresAt: expires}, nil
}

// Issuer returns the token issuer used by SignIn.
func (s *Service) Issuer() *Issuer {
	return s.issuer
}
