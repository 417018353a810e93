package service

import (
	"fmt"
	"time"

	"github.com/huddlehq/twofa/pkg/jwtx"
)

// GrantService mints the short-lived step-up grants other Huddle services
// accept as proof that a sensitive action was re-authenticated.
type GrantService struct {
	Signer jwtx.Signer
	Issuer string

	// TTL is the grant lifetime. Zero means jwtx.DefaultGrantTTL.
	TTL time.Duration
}

// MintStepUpGrant signs a grant for the subject, bound to the step-up
// session it came from. Returns the token and its lifetime in seconds.
func (s *GrantService) MintStepUpGrant(subject, stepUpSessionID string) (string, int, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultGrantTTL
	}

	claims := jwtx.NewGrantClaims(subject, stepUpSessionID, s.Issuer, ttl, time.Now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign grant: %w", err)
	}
	return token, int(ttl.Seconds()), nil
}
