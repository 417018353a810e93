package jwtx_test

import (
	"testing"
	"time"

	"github.com/huddlehq/twofa/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	km, err := jwtx.NewEphemeralKeyManager(1, "huddle-twofa")
	require.NoError(t, err)

	claims := jwtx.NewGrantClaims("user-1", "stepup-1", "huddle-twofa", jwtx.DefaultGrantTTL, time.Now())
	token, err := km.ActiveSigner().Sign(claims)
	require.NoError(t, err)

	got, err := km.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "stepup-1", got.SID)
	require.Equal(t, []string{"mfa"}, got.AMR)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	t.Parallel()

	km1, err := jwtx.NewEphemeralKeyManager(1, "huddle-twofa")
	require.NoError(t, err)
	km2, err := jwtx.NewEphemeralKeyManager(1, "huddle-twofa")
	require.NoError(t, err)

	claims := jwtx.NewGrantClaims("user-1", "stepup-1", "huddle-twofa", jwtx.DefaultGrantTTL, time.Now())
	token, err := km1.ActiveSigner().Sign(claims)
	require.NoError(t, err)

	_, err = km2.Verifier.Verify(token)
	require.Error(t, err, "token signed by an unknown key must not verify")
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	km, err := jwtx.NewEphemeralKeyManager(1, "huddle-twofa")
	require.NoError(t, err)

	claims := jwtx.NewGrantClaims("user-1", "stepup-1", "huddle-twofa", time.Minute, time.Now().Add(-time.Hour))
	token, err := km.ActiveSigner().Sign(claims)
	require.NoError(t, err)

	_, err = km.Verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	t.Parallel()

	km, err := jwtx.NewEphemeralKeyManager(1, "expected-issuer")
	require.NoError(t, err)

	claims := jwtx.NewGrantClaims("user-1", "stepup-1", "other-issuer", jwtx.DefaultGrantTTL, time.Now())
	token, err := km.ActiveSigner().Sign(claims)
	require.NoError(t, err)

	_, err = km.Verifier.Verify(token)
	require.Error(t, err)
}

func TestRotateKeepsOldTokensVerifiable(t *testing.T) {
	t.Parallel()

	km, err := jwtx.NewEphemeralKeyManager(2, "huddle-twofa")
	require.NoError(t, err)

	claims := jwtx.NewGrantClaims("user-1", "stepup-1", "huddle-twofa", jwtx.DefaultGrantTTL, time.Now())
	before, err := km.ActiveSigner().Sign(claims)
	require.NoError(t, err)

	require.NoError(t, km.Rotate())

	after, err := km.ActiveSigner().Sign(claims)
	require.NoError(t, err)

	_, err = km.Verifier.Verify(before)
	require.NoError(t, err)
	_, err = km.Verifier.Verify(after)
	require.NoError(t, err)
}
