package domain

import "time"

// Identity is the verified token subject attached to a connection at
// handshake. A nil *Identity means the connection is anonymous.
type Identity struct {
	Subject   string         `json:"sub"`
	UserID    string         `json:"userId"`
	Issuer    string         `json:"iss"`
	ExpiresAt time.Time      `json:"exp"`
	Claims    map[string]any `json:"claims"`
}

func (i *Identity) IsAnonymous() bool {
	return i == nil
}

// DisplayName is what logs show for the connection.
func (i *Identity) DisplayName() string {
	if i.IsAnonymous() {
		return "anonymous"
	}
	if i.UserID != "" {
		return i.UserID
	}
	return i.Subject
}
