package auth

import (
	"crypto"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/domain"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoPublicKey  = fmt.Errorf("%w: no public key loaded", ErrUnauthorized)
)

// userIDClaims are checked in order for the user id; sub is the fallback.
var userIDClaims = []string{"user_id", "userId", "uid"}

type Options struct {
	Issuer    string
	Algorithm string
}

// Authenticator verifies handshake tokens against a single public key.
// A nil key rejects every token while still admitting tokenless clients.
type Authenticator struct {
	key    crypto.PublicKey
	parser *jwt.Parser
}

func NewAuthenticator(key crypto.PublicKey, opts Options) *Authenticator {
	alg := opts.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodRS256.Alg()
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	return &Authenticator{
		key:    key,
		parser: jwt.NewParser(parserOpts...),
	}
}

// Authenticate returns nil, nil for an empty token (anonymous connection).
func (a *Authenticator) Authenticate(token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	if a.key == nil {
		return nil, ErrNoPublicKey
	}

	claims := jwt.MapClaims{}
	parsed, err := a.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	return identityFromClaims(claims), nil
}

func identityFromClaims(claims jwt.MapClaims) *domain.Identity {
	identity := &domain.Identity{Claims: map[string]any(claims)}

	identity.Subject, _ = claims.GetSubject()
	identity.Issuer, _ = claims.GetIssuer()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}

	for _, name := range userIDClaims {
		if v, ok := claims[name]; ok && v != nil {
			identity.UserID = fmt.Sprint(v)
			break
		}
	}
	if identity.UserID == "" {
		identity.UserID = identity.Subject
	}

	return identity
}
