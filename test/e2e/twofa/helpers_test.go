package twofa_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/huddlehq/twofa/internal/twofa/app"
	"github.com/huddlehq/twofa/pkg/jwtx"
	"github.com/huddlehq/twofa/pkg/twofasdk"
)

/*
 * Common helpers for two-factor service end-to-end tests. Each test boots the
 * full application in-process on a temporary SQLite database and drives it
 * over real HTTP through the SDK client.
 */

const (
	identityIssuer = "huddle-identity"
	grantIssuer    = "huddle-twofa"
)

type testEnv struct {
	BaseURL string

	// signer holds the fake identity service key so tests can mint inbound
	// bearer tokens for arbitrary subjects.
	signer jwtx.Signer
}

// setupService boots the two-factor application in-process and returns a test
// environment pointing at it. Optional overrides tweak the config before the
// application is built.
func setupService(t *testing.T, overrides ...func(*app.Config)) *testEnv {
	t.Helper()
	dir := t.TempDir()

	signer, jwksPath := newIdentitySigner(t, dir)

	cfg := app.Config{
		Issuer:               grantIssuer,
		TOTPIssuer:           "Huddle",
		NumKeys:              1,
		GrantTTL:             5 * time.Minute,
		TrustedJWKSFile:      jwksPath,
		TrustedIssuer:        identityIssuer,
		DatabaseFile:         filepath.Join(dir, "twofa.db"),
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		ShutdownGracePeriod:  5 * time.Second,
		HousekeepingInterval: time.Minute,
	}
	for _, override := range overrides {
		override(&cfg)
	}

	application, err := app.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Router())
	t.Cleanup(func() {
		srv.Close()
		require.NoError(t, application.Shutdown())
	})

	return &testEnv{BaseURL: srv.URL, signer: signer}
}

// newIdentitySigner generates a throwaway Ed25519 key standing in for the
// identity service and writes its public JWKS where the application can load
// it as the trusted key set.
func newIdentitySigner(t *testing.T, dir string) (jwtx.Signer, string) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	signer, err := jwtx.NewSignerEdDSA("identity-test-1", pemKey)
	require.NoError(t, err)

	jwks := jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}}
	raw, err := json.Marshal(jwks)
	require.NoError(t, err)

	path := filepath.Join(dir, "identity_jwks.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	return signer, path
}

// identityToken mints a bearer token for the subject, signed with the fake
// identity service key.
func (env *testEnv) identityToken(t *testing.T, subject string, scopes ...string) string {
	t.Helper()

	now := time.Now()
	token, err := env.signer.Sign(jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    identityIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			ID:        jwtx.NewJTI(),
		},
		Scopes: scopes,
		AMR:    []string{"pwd"},
	})
	require.NoError(t, err)
	return token
}

// client returns an SDK client authenticated as the given subject.
func (env *testEnv) client(t *testing.T, subject string, scopes ...string) *twofasdk.Client {
	t.Helper()
	return twofasdk.NewClient(env.BaseURL, env.identityToken(t, subject, scopes...))
}

// enrollSubject walks the full enrollment flow for the client's subject and
// returns the TOTP secret and backup codes.
func enrollSubject(t *testing.T, client *twofasdk.Client) (string, []string) {
	t.Helper()

	start, err := client.StartEnrollment(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, start.Secret)

	code, err := totp.GenerateCode(start.Secret, time.Now())
	require.NoError(t, err)

	verify, err := client.VerifyEnrollment(t.Context(), code)
	require.NoError(t, err)
	require.NotEmpty(t, verify.BackupCodes)

	_, err = client.AckEnrollment(t.Context())
	require.NoError(t, err)

	return start.Secret, verify.BackupCodes
}

// currentTOTP returns the code an authenticator app would show right now.
func currentTOTP(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

// wrongTOTP returns a well-formed 6-digit code guaranteed not to verify
// against the secret in the current validation window.
func wrongTOTP(t *testing.T, secret string) string {
	t.Helper()

	now := time.Now()
	var valid []string
	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		code, err := totp.GenerateCode(secret, now.Add(offset))
		require.NoError(t, err)
		valid = append(valid, code)
	}

	for _, candidate := range []string{"000000", "111111", "222222", "333333"} {
		if !slices.Contains(valid, candidate) {
			return candidate
		}
	}

	t.Fatal("no invalid code candidate available")
	return ""
}

func jsonDecode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

// requireAPIError asserts err is a service error with the given code and
// returns it for further inspection.
func requireAPIError(t *testing.T, err error, code string) *twofasdk.Error {
	t.Helper()

	var apiErr *twofasdk.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}
