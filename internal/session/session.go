// Package session holds the visitor's identity and bearer credential and
// drives login, registration and logout against the auth API.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// Persistence entry names for the credential and cached identity.
const (
	CredentialKey = "token"
	IdentityKey   = "user"
)

// Auth error taxonomy. The view layer matches on these with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrServer             = errors.New("server error")
)

// Identity is the authenticated user as reported by the auth API.
type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthAPI is the external authentication collaborator.
type AuthAPI interface {
	Register(ctx context.Context, name, email, password string) (Identity, string, error)
	Login(ctx context.Context, email, password string) (Identity, string, error)
}

// Persistence is the subset of the persistence capability the store needs.
type Persistence interface {
	Get(name string) (string, bool)
	Set(name, value string)
	Remove(name string)
}

// Store owns the identity and credential for one browsing session. A store
// is constructed per page load; the credential round-trips through the
// persistence capability so reloads stay logged in.
type Store struct {
	api     AuthAPI
	persist Persistence
	logger  *slog.Logger

	user       *Identity
	credential string
	loading    bool
	err        error
}

// NewStore restores any persisted credential and identity.
func NewStore(api AuthAPI, p Persistence, logger *slog.Logger) *Store {
	s := &Store{api: api, persist: p, logger: logger}

	if cred, ok := p.Get(CredentialKey); ok && cred != "" {
		s.credential = cred
	}
	if raw, ok := p.Get(IdentityKey); ok && raw != "" {
		var id Identity
		if err := json.Unmarshal([]byte(raw), &id); err != nil {
			logger.Warn("discarding unreadable persisted identity", "error", err)
		} else {
			s.user = &id
		}
	}

	return s
}

// User returns the current identity, or nil when logged out.
func (s *Store) User() *Identity { return s.user }

// Credential returns the bearer token, or "" when logged out.
func (s *Store) Credential() string { return s.credential }

// Loading reports whether an auth call is in flight.
func (s *Store) Loading() bool { return s.loading }

// Err returns the error from the last auth call, if any.
func (s *Store) Err() error { return s.err }

// IsAuthenticated is true iff a non-empty credential is held. Expiry is not
// checked locally: a stale credential counts as authenticated until the API
// rejects it.
func (s *Store) IsAuthenticated() bool { return s.credential != "" }

// Login authenticates and, on success, stores and persists the identity and
// credential.
func (s *Store) Login(ctx context.Context, email, password string) (Identity, error) {
	s.loading = true
	defer func() { s.loading = false }()

	id, cred, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.err = err
		return Identity{}, err
	}

	s.adopt(id, cred)
	return id, nil
}

// Register creates an account and logs the visitor in.
func (s *Store) Register(ctx context.Context, name, email, password string) (Identity, error) {
	s.loading = true
	defer func() { s.loading = false }()

	id, cred, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		s.err = err
		return Identity{}, err
	}

	s.adopt(id, cred)
	return id, nil
}

// Logout clears the identity and credential unconditionally. Idempotent.
func (s *Store) Logout() {
	s.user = nil
	s.credential = ""
	s.err = nil
	s.persist.Remove(CredentialKey)
	s.persist.Remove(IdentityKey)
}

func (s *Store) adopt(id Identity, cred string) {
	s.user = &id
	s.credential = cred
	s.err = nil

	s.persist.Set(CredentialKey, cred)
	if raw, err := json.Marshal(id); err == nil {
		s.persist.Set(IdentityKey, string(raw))
	} else {
		s.logger.Warn("persist identity", "error", err)
	}
}
