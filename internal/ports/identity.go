package ports

import "recall/internal/domain"

// IdentityPort resolves the local user's identifier forms. The durable
// account id comes from the session token; the session id is assigned by the
// transport after connect.
type IdentityPort interface {
	Identity() domain.Identity
}
