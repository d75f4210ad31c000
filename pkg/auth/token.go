// Package auth handles employee login, signed session tokens and role checks.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for missing, malformed, expired or forged tokens.
var ErrInvalidToken = errors.New("invalid token")

const issuerName = "skphelp"

// Claims identifies the logged-in employee. Subject holds the NIP.
type Claims struct {
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	UnitKerja string      `json:"unit_kerja,omitempty"`
	jwt.RegisteredClaims
}

// Profile rebuilds the user profile carried by the token.
func (c *Claims) Profile() domain.UserProfile {
	return domain.UserProfile{NIP: c.Subject, Name: c.Name, Role: c.Role, UnitKerja: c.UnitKerja}
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. ttl is the token lifetime.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for profile and returns it with its expiry.
func (i *Issuer) Issue(profile domain.UserProfile) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims := Claims{
		Name:      profile.Name,
		Role:      profile.Role,
		UnitKerja: profile.UnitKerja,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   profile.NIP,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
