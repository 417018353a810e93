package twofa_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/huddlehq/twofa/internal/twofa/app"
	"github.com/huddlehq/twofa/pkg/jwtx"
	"github.com/huddlehq/twofa/pkg/twofasdk"
)

// TestStepUpGrant verifies the step-up happy path: a time-boxed challenge
// resolves on a valid code and returns a signed grant other services can
// verify against the published JWKS.
func TestStepUpGrant(t *testing.T) {
	env := setupService(t)
	client := env.client(t, "user-stepup-1")
	secret, _ := enrollSubject(t, client)

	challenge, err := client.StartChallenge(t.Context(), twofasdk.ModeStepUp)
	require.NoError(t, err)
	require.Equal(t, 300, challenge.ExpiresInSeconds)
	require.Equal(t, 3, challenge.AttemptsRemaining)

	resp, err := client.SubmitCode(t.Context(), challenge.ChallengeID, currentTOTP(t, secret))
	require.NoError(t, err)
	require.True(t, resp.Verified)
	require.NotEmpty(t, resp.Grant)
	require.Equal(t, 300, resp.GrantExpiresIn)

	// The grant verifies against the service's published keys.
	claims := verifyGrant(t, env.BaseURL, resp.Grant)
	require.Equal(t, "user-stepup-1", claims.Subject)
	require.Equal(t, grantIssuer, claims.Issuer)
	require.NotEmpty(t, claims.SID)
	require.Contains(t, claims.AMR, "mfa")
}

// TestStepUpWindowExpiry compresses the countdown and checks the challenge
// self-terminates: submissions after expiry are refused without reaching the
// verifier, and so are path switches.
func TestStepUpWindowExpiry(t *testing.T) {
	env := setupService(t, func(cfg *app.Config) {
		// 300 ticks at 1ms: the full window elapses in ~300ms.
		cfg.StepUpTickInterval = time.Millisecond
	})
	client := env.client(t, "user-stepup-2")
	secret, _ := enrollSubject(t, client)

	challenge, err := client.StartChallenge(t.Context(), twofasdk.ModeStepUp)
	require.NoError(t, err)

	time.Sleep(600 * time.Millisecond)

	requireAPIError(t,
		mustSubmitErr(t, client, challenge.ChallengeID, currentTOTP(t, secret)),
		twofasdk.ErrorCodeSessionExpired)

	_, err = client.SwitchPath(t.Context(), challenge.ChallengeID, twofasdk.PathBackup)
	requireAPIError(t, err, twofasdk.ErrorCodeSessionExpired)
}

// TestStepUpBackupPath checks backup codes work for step-up too and the
// grant is still minted.
func TestStepUpBackupPath(t *testing.T) {
	env := setupService(t)
	client := env.client(t, "user-stepup-3")
	_, backupCodes := enrollSubject(t, client)

	challenge, err := client.StartChallenge(t.Context(), twofasdk.ModeStepUp)
	require.NoError(t, err)

	_, err = client.SwitchPath(t.Context(), challenge.ChallengeID, twofasdk.PathBackup)
	require.NoError(t, err)

	resp, err := client.SubmitCode(t.Context(), challenge.ChallengeID, backupCodes[0])
	require.NoError(t, err)
	require.True(t, resp.Verified)
	require.NotEmpty(t, resp.Grant)
}

// TestStepUpLockoutDiscardsSession checks lockout on a step-up challenge
// closes it: a fresh challenge is needed and gets a fresh session.
func TestStepUpLockoutDiscardsSession(t *testing.T) {
	env := setupService(t)
	client := env.client(t, "user-stepup-4")
	secret, _ := enrollSubject(t, client)

	challenge, err := client.StartChallenge(t.Context(), twofasdk.ModeStepUp)
	require.NoError(t, err)

	bad := wrongTOTP(t, secret)
	for range 2 {
		requireAPIError(t,
			mustSubmitErr(t, client, challenge.ChallengeID, bad),
			twofasdk.ErrorCodeInvalidCode)
	}
	requireAPIError(t,
		mustSubmitErr(t, client, challenge.ChallengeID, bad),
		twofasdk.ErrorCodeTooManyAttempts)

	// Starting over works and the new challenge has a full attempt budget.
	fresh, err := client.StartChallenge(t.Context(), twofasdk.ModeStepUp)
	require.NoError(t, err)
	require.NotEqual(t, challenge.ChallengeID, fresh.ChallengeID)
	require.Equal(t, 3, fresh.AttemptsRemaining)
}

// verifyGrant fetches the service JWKS and verifies the grant token with it.
func verifyGrant(t *testing.T, baseURL, grant string) jwtx.Claims {
	t.Helper()

	resp, err := http.Get(baseURL + "/.well-known/jwks.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jwks jwtx.JWKS
	require.NoError(t, jsonDecode(resp.Body, &jwks))
	require.NotEmpty(t, jwks.Keys)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.ResetFromJWKS(jwks))

	claims, err := jwtx.NewVerifierEdDSA(keys, grantIssuer, nil).Verify(grant)
	require.NoError(t, err)
	return claims
}
