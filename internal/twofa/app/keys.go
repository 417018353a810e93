package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/huddlehq/twofa/pkg/jwtx"
)

// InitGrantKeys creates the KeyManager used to sign step-up grants. Keys are
// ephemeral: a restart only invalidates grants already near expiry, so there
// is no persistent mode here.
func InitGrantKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	keyManager, err := jwtx.NewEphemeralKeyManager(cfg.NumKeys, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to generate grant signing keys: %w", err)
	}

	logger.Info("grant signing keys generated",
		"num_keys", cfg.NumKeys,
		"issuer", cfg.Issuer,
	)
	return keyManager, nil
}

// InitInboundVerifier builds the verifier for inbound identity tokens. When a
// trusted JWKS file is configured its keys are authoritative; otherwise the
// service falls back to its own grant keys, which keeps single-binary dev
// setups working without an identity service.
func InitInboundVerifier(cfg Config, grantKeys *jwtx.KeyManager, logger *slog.Logger) (jwtx.Verifier, error) {
	if cfg.TrustedJWKSFile == "" {
		logger.Warn("no trusted JWKS configured, accepting tokens signed with local grant keys")
		return jwtx.NewVerifierEdDSA(grantKeys.KeySet, cfg.TrustedIssuer, nil), nil
	}

	raw, err := os.ReadFile(cfg.TrustedJWKSFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read trusted JWKS file: %w", err)
	}

	var jwks jwtx.JWKS
	if err := json.Unmarshal(raw, &jwks); err != nil {
		return nil, fmt.Errorf("failed to parse trusted JWKS file: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.ResetFromJWKS(jwks); err != nil {
		return nil, fmt.Errorf("failed to load trusted JWKS keys: %w", err)
	}

	logger.Info("trusted identity keys loaded",
		"path", cfg.TrustedJWKSFile,
		"num_keys", len(jwks.Keys),
		"issuer", cfg.TrustedIssuer,
	)
	return jwtx.NewVerifierEdDSA(keys, cfg.TrustedIssuer, nil), nil
}
