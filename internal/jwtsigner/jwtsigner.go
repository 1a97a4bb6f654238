// Package jwtsigner holds the key material bearer tokens are signed with.
// HS256 uses one shared secret; EdDSA signs with an Ed25519 private key and
// publishes the public half as a JWK so other services can verify tokens
// without sharing a secret.
package jwtsigner

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnknownKey = errors.New("unknown signing key")

// Key signs and verifies tokens with a single algorithm.
type Key struct {
	KeyID  string
	method jwt.SigningMethod
	sign   any
	verify any
	public ed25519.PublicKey
}

// HS256 returns a key for the shared secret.
func HS256(secret []byte) *Key {
	return &Key{method: jwt.SigningMethodHS256, sign: secret, verify: secret}
}

// Ed25519FromBase64 creates a key from base64 encoded ed25519 private key
// bytes. An empty privB64 generates an ephemeral key: tokens then do not
// survive a restart.
func Ed25519FromBase64(privB64, kid string) (*Key, error) {
	var priv ed25519.PrivateKey
	if privB64 == "" {
		_, p, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate ed25519 key: %w", err)
		}
		priv = p
	} else {
		raw, err := base64.StdEncoding.DecodeString(privB64)
		if err != nil {
			return nil, fmt.Errorf("decode ed25519 key: %w", err)
		}
		if len(raw) != ed25519.PrivateKeySize {
			return nil, errors.New("invalid ed25519 private key size")
		}
		priv = ed25519.PrivateKey(raw)
	}
	pub := priv.Public().(ed25519.PublicKey)
	return &Key{
		KeyID:  kid,
		method: jwt.SigningMethodEdDSA,
		sign:   priv,
		verify: pub,
		public: pub,
	}, nil
}

func (k *Key) Alg() string { return k.method.Alg() }

// Sign serializes claims and stamps the kid header when the key has one.
func (k *Key) Sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(k.method, claims)
	if k.KeyID != "" {
		t.Header["kid"] = k.KeyID
	}
	return t.SignedString(k.sign)
}

// Keyfunc is a jwt.Keyfunc. It refuses tokens naming another kid.
func (k *Key) Keyfunc(t *jwt.Token) (any, error) {
	if k.KeyID != "" {
		if kid, ok := t.Header["kid"].(string); ok && kid != k.KeyID {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
		}
	}
	return k.verify, nil
}

// PublicJWKs renders the public part as a JWK set entry list. A shared
// secret has nothing to publish.
func (k *Key) PublicJWKs() []map[string]any {
	if k.public == nil {
		return []map[string]any{}
	}
	return []map[string]any{{
		"kty": "OKP",
		"crv": "Ed25519",
		"alg": "EdDSA",
		"use": "sig",
		"kid": k.KeyID,
		"x":   base64.RawURLEncoding.EncodeToString(k.public),
	}}
}
