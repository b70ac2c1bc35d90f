package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves the verified user behind a request. Token
// verification happens upstream; this port only extracts the result.
type Authenticator interface {
	UserID(r *http.Request) (uuid.UUID, error)
}

// HeaderAuthenticator trusts a user ID header injected by a reverse proxy
// that has already verified the caller's credentials.
type HeaderAuthenticator struct {
	Header string
}

// NewHeaderAuthenticator creates an authenticator reading the given header.
func NewHeaderAuthenticator(header string) *HeaderAuthenticator {
	if header == "" {
		header = "X-Atelier-User-ID"
	}
	return &HeaderAuthenticator{Header: header}
}

// UserID extracts the user ID from the configured header.
func (a *HeaderAuthenticator) UserID(r *http.Request) (uuid.UUID, error) {
	value := r.Header.Get(a.Header)
	if value == "" {
		return uuid.Nil, ErrUnauthenticated
	}
	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return userID, nil
}
