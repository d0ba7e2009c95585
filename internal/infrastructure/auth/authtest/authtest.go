// Package authtest provides RSA key pairs and signed tokens for tests.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const Issuer = "adaptix-auth"

type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

func NewKeyPair(t *testing.T) *KeyPair {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &KeyPair{Private: key, Public: &key.PublicKey}
}

// PublicPEM encodes the public key as a PKIX PEM block.
func (k *KeyPair) PublicPEM(t *testing.T) []byte {
	t.Helper()

	der, err := x509.MarshalPKIXPublicKey(k.Public)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

// WritePublicKey writes the PEM into a temp dir and returns its path.
func (k *KeyPair) WritePublicKey(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "public.pem")
	require.NoError(t, os.WriteFile(path, k.PublicPEM(t), 0o600))

	return path
}

// Sign issues an RS256 token. Claims override the defaults (sub, iss, exp).
func (k *KeyPair) Sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	full := jwt.MapClaims{
		"sub": "user-1",
		"iss": Issuer,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for name, value := range claims {
		full[name] = value
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, full).SignedString(k.Private)
	require.NoError(t, err)

	return token
}
