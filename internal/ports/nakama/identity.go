package nakama

import (
	"errors"
	"fmt"
	"sync"

	jwt "github.com/form3tech-oss/jwt-go"

	"recall/internal/domain"
)

// SessionIdentity derives the local identity from a Nakama session token.
// The durable account id lives in the token's uid claim; the session id is
// assigned by the server after the socket connects and is filled in later.
type SessionIdentity struct {
	mu        sync.RWMutex
	accountID string
	sessionID string
}

// NewSessionIdentity parses the session JWT and extracts the account id. The
// token is parsed unverified: the server holds the signing key and the client
// only reads its own claims.
func NewSessionIdentity(token string) (*SessionIdentity, error) {
	claims := jwt.MapClaims{}
	parser := new(jwt.Parser)
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	uid, _ := claims["uid"].(string)
	if uid == "" {
		return nil, errors.New("session token has no uid claim")
	}
	return &SessionIdentity{accountID: uid}, nil
}

// StaticIdentity builds an identity from already-known identifiers, e.g. in
// practice mode where no token exists.
func StaticIdentity(accountID, sessionID string) *SessionIdentity {
	return &SessionIdentity{accountID: accountID, sessionID: sessionID}
}

// SetSessionID records the transport-assigned session identifier.
func (s *SessionIdentity) SetSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = id
}

// Identity returns both identifier forms.
func (s *SessionIdentity) Identity() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Identity{AccountID: s.accountID, SessionID: s.sessionID}
}
