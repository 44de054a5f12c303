package app

import (
	"encoding/json"

	"recall/internal/domain"
)

// Inbound server event types handled by the router.
const (
	EventGameJoined        = "game_joined"
	EventGameStarted       = "game_started"
	EventGameStateUpdated  = "game_state_updated"
	EventGamePartialUpdate = "game_state_partial_update"
	EventTurnStarted       = "turn_started"
	EventGameEnded         = "game_ended"
	EventPlayerJoined      = "player_joined"
	EventConnectionStatus  = "connection_status"
)

// Outbound event types the coordinator sends.
const (
	EventLeaveGame = "leave_game"
)

// Server property names carried by changed_properties on partial updates.
const (
	PropPhase         = "phase"
	PropGameStatus    = "game_status"
	PropPlayers       = "players"
	PropCurrentPlayer = "current_player"
	PropDrawPile      = "draw_pile"
	PropDiscardPile   = "discard_pile"
)

// GameJoinedPayload accompanies game_joined.
type GameJoinedPayload struct {
	GameID    string            `json:"game_id"`
	PlayerID  string            `json:"player_id"`
	IsOwner   *bool             `json:"is_owner,omitempty"`
	OwnerID   string            `json:"owner_id,omitempty"`
	GameState *domain.GameState `json:"game_state,omitempty"`
}

// GameStatePayload accompanies game_started and game_state_updated.
type GameStatePayload struct {
	GameID    string            `json:"game_id"`
	OwnerID   string            `json:"owner_id,omitempty"`
	GameState *domain.GameState `json:"game_state"`
}

// PartialUpdatePayload accompanies game_state_partial_update. Only the
// properties named in ChangedProperties may be read from PartialGameState;
// the rest of the payload is not guaranteed complete.
type PartialUpdatePayload struct {
	GameID            string            `json:"game_id"`
	OwnerID           string            `json:"owner_id,omitempty"`
	ChangedProperties []string          `json:"changed_properties"`
	PartialGameState  *domain.GameState `json:"partial_game_state"`
}

// TurnStartedPayload accompanies turn_started.
type TurnStartedPayload struct {
	GameID       string `json:"game_id"`
	PlayerID     string `json:"player_id"`
	TurnTimerSec int    `json:"turn_timer_sec,omitempty"`
}

// GameEndedPayload accompanies game_ended.
type GameEndedPayload struct {
	GameID  string          `json:"game_id"`
	Winners []domain.Winner `json:"winners"`
}

// PlayerJoinedPayload accompanies player_joined roster updates.
type PlayerJoinedPayload struct {
	GameID string              `json:"game_id"`
	Player domain.PlayerRecord `json:"player"`
}

// ConnectionStatusPayload accompanies connection_status transport events.
type ConnectionStatusPayload struct {
	Connected bool   `json:"connected"`
	SessionID string `json:"session_id,omitempty"`
}

// decodePayload round-trips the generic payload map into a typed struct.
func decodePayload(payload map[string]any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
