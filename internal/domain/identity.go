package domain

import "strings"

// practiceSessionPrefix is prepended to the durable account id to form the
// session identifier used in practice/solo games.
const practiceSessionPrefix = "practice_session_"

// Identity holds both identifier forms for the local user: the durable
// account id and, in multiplayer, the transport-assigned session id. Server
// payloads may reference the user by either form.
type Identity struct {
	AccountID string
	SessionID string
}

// IsZero reports whether no identifier form is known.
func (id Identity) IsZero() bool {
	return id.AccountID == "" && id.SessionID == ""
}

// CanonicalKey reduces any identifier form to a stable comparison key by
// stripping the practice session prefix.
func CanonicalKey(raw string) string {
	return strings.TrimPrefix(raw, practiceSessionPrefix)
}

// IsPracticeSession reports whether raw is a practice/solo session identifier.
func IsPracticeSession(raw string) bool {
	return strings.HasPrefix(raw, practiceSessionPrefix)
}

// Matches reports whether raw denotes the local user. Heuristics run in a
// fixed precedence order: exact session id, exact account id, then canonical
// key equality. The first heuristic that matches decides; later heuristics
// never override an earlier result.
func (id Identity) Matches(raw string) bool {
	if raw == "" {
		return false
	}
	if id.SessionID != "" && raw == id.SessionID {
		return true
	}
	if id.AccountID != "" && raw == id.AccountID {
		return true
	}
	key := CanonicalKey(raw)
	if id.SessionID != "" && key == CanonicalKey(id.SessionID) {
		return true
	}
	return id.AccountID != "" && key == CanonicalKey(id.AccountID)
}

// ResolveOwnership decides whether the local user owns a game room given the
// server-reported owner identifier. When the identifier cannot be resolved
// against any known identity form the prior value is preserved rather than
// guessed; resolved reports whether a real decision was made.
func ResolveOwnership(id Identity, ownerID string, prior bool) (isOwner, resolved bool) {
	if ownerID == "" || id.IsZero() {
		return prior, false
	}
	return id.Matches(ownerID), true
}
