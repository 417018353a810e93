package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"
)

// KeyManager owns the signing keys for this service. Keys are ephemeral:
// generated at startup and lost on restart, which is fine for short-lived
// step-up grants (a restart only invalidates grants already near expiry).
type KeyManager struct {
	mu      sync.RWMutex
	signers []Signer
	active  int

	// KeySet holds the public halves, ready for JWKS publishing.
	KeySet *KeySet

	// Verifier validates tokens signed by any key in the set.
	Verifier Verifier
}

// NewEphemeralKeyManager generates numKeys fresh Ed25519 keypairs and wires a
// KeySet and Verifier over them. The first key is the active signer.
func NewEphemeralKeyManager(numKeys int, issuer string) (*KeyManager, error) {
	if numKeys < 1 {
		numKeys = 1
	}

	km := &KeyManager{KeySet: NewKeySet()}

	for i := 0; i < numKeys; i++ {
		signer, err := generateEdDSASigner()
		if err != nil {
			return nil, fmt.Errorf("generate signing key %d: %w", i, err)
		}
		if err := km.KeySet.AddSigner(signer); err != nil {
			return nil, err
		}
		km.signers = append(km.signers, signer)
	}

	km.Verifier = NewVerifierEdDSA(km.KeySet, issuer, nil)
	return km, nil
}

// ActiveSigner returns the signer currently used for new tokens.
func (km *KeyManager) ActiveSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.signers[km.active]
}

// Rotate advances the active signer to the next key in the set. Older keys
// stay in the KeySet so outstanding tokens remain verifiable.
func (km *KeyManager) Rotate() error {
	km.mu.Lock()
	defer km.mu.Unlock()

	if len(km.signers) < 2 {
		return errors.New("jwtx: nothing to rotate to")
	}
	km.active = (km.active + 1) % len(km.signers)
	return nil
}

// generateEdDSASigner mints a fresh Ed25519 keypair and wraps it in a Signer.
// The kid is derived from the public key so it is stable for the key's life.
func generateEdDSASigner() (Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	kid := base64.RawURLEncoding.EncodeToString(pub[:8])
	return NewSignerEdDSA(kid, pemKey)
}
