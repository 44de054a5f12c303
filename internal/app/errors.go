package app

import (
	"errors"
	"fmt"
)

// MalformedEventError reports an inbound event whose payload is missing
// required data. The handler logs it and skips the event, leaving prior
// state untouched.
type MalformedEventError struct {
	Event  string
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event: %s", e.Event, e.Reason)
}

// ErrNoTransport is returned by Run when no transport was configured.
var ErrNoTransport = errors.New("no transport configured")
