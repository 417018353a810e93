package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultGrantTTL is the default lifetime for step-up grant tokens.
// Deliberately short: the grant exists only to authorize the one sensitive
// action the step-up challenge was protecting.
const DefaultGrantTTL = 5 * time.Minute

// Claims are the token claims shared across Huddle services. Keep changes
// additive to preserve compatibility.
type Claims struct {
	jwt.RegisteredClaims

	// SID carries a session identifier. For step-up grants this is the
	// step-up session the grant was minted for.
	SID string `json:"sid,omitempty"`

	// Scopes are permission scopes, e.g. "profile:write".
	Scopes []string `json:"scopes,omitempty"`

	// AMR lists Authentication Method References:
	//	"pwd": password-based authentication
	//	"otp": one-time password (e.g. TOTP)
	//	"mfa": multi-factor auth was used
	AMR []string `json:"amr,omitempty"`
}

// NewGrantClaims builds claims for a step-up grant token.
func NewGrantClaims(subject, stepUpSessionID, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID: stepUpSessionID,
		AMR: []string{"mfa"},
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
