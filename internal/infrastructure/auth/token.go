package auth

import (
	"net/http"
	"strings"
)

// TokenFromRequest extracts the handshake token from the token or
// access_token query parameter, falling back to a Bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	query := r.URL.Query()
	if token := query.Get("token"); token != "" {
		return token
	}
	if token := query.Get("access_token"); token != "" {
		return token
	}

	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}

	return ""
}
