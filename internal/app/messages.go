package app

import (
	"time"

	"github.com/google/uuid"
)

// Session message levels.
const (
	MessageLevelInfo    = "info"
	MessageLevelSuccess = "success"
	MessageLevelError   = "error"
)

// SessionMessage is a one-shot user-facing notice raised by reconciliation,
// e.g. the game-over modal text. Observers decide how long to display it.
type SessionMessage struct {
	ID     string
	Level  string
	Text   string
	GameID string
	At     time.Time
}

func newSessionMessage(level, text, gameID string, at time.Time) *SessionMessage {
	return &SessionMessage{
		ID:     uuid.NewString(),
		Level:  level,
		Text:   text,
		GameID: gameID,
		At:     at,
	}
}
