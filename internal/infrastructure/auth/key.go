package auth

import (
	"crypto"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// LoadPublicKey reads a PEM encoded public key matching the signing
// algorithm family: RSA for RS*/PS*, ECDSA for ES*, Ed25519 for EdDSA.
func LoadPublicKey(path, algorithm string) (crypto.PublicKey, error) {
	if path == "" {
		return nil, ErrNoPublicKey
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key %s: %w", path, err)
	}

	return ParsePublicKey(raw, algorithm)
}

func ParsePublicKey(pem []byte, algorithm string) (crypto.PublicKey, error) {
	var (
		key crypto.PublicKey
		err error
	)

	alg := strings.ToUpper(algorithm)
	switch {
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		key, err = jwt.ParseRSAPublicKeyFromPEM(pem)
	case strings.HasPrefix(alg, "ES"):
		key, err = jwt.ParseECPublicKeyFromPEM(pem)
	case alg == "EDDSA":
		key, err = jwt.ParseEdPublicKeyFromPEM(pem)
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return key, nil
}
