package domain

import (
	"strings"
	"time"
)

// PlayerRecord is one element of the server game state's player list. The id
// is an opaque session identifier, not the durable account id.
type PlayerRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Hand        []Card   `json:"hand"`
	Status      string   `json:"status"`
	Score       int      `json:"score"`
	DrawnCard   *Card    `json:"drawnCard"`
	CardsToPeek []Card   `json:"cardsToPeek"`
	TurnEvents  []string `json:"turn_events,omitempty"`
}

// Active reports whether the player still participates in the game.
func (p PlayerRecord) Active() bool {
	return p.Status != "left" && p.Status != "disconnected"
}

// Winner is one entry of a game_ended event's winners list.
type Winner struct {
	ID      string `json:"id"`
	WinType string `json:"winType"`
}

// GameState is the authoritative nested game state exactly as received from
// the server. The client renders it; it never validates rules against it.
type GameState struct {
	Phase         string         `json:"phase"`
	Status        string         `json:"gameStatus,omitempty"`
	Players       []PlayerRecord `json:"players"`
	CurrentPlayer string         `json:"currentPlayer"`
	DrawPile      []Card         `json:"drawPile"`
	DiscardPile   []Card         `json:"discardPile"`
}

// FindPlayer returns the player record matching the local identity, if any.
func (gs GameState) FindPlayer(id Identity) (PlayerRecord, bool) {
	for _, p := range gs.Players {
		if id.Matches(p.ID) {
			return p, true
		}
	}
	return PlayerRecord{}, false
}

// ActivePlayerCount returns how many players still participate.
func (gs GameState) ActivePlayerCount() int {
	count := 0
	for _, p := range gs.Players {
		if p.Active() {
			count++
		}
	}
	return count
}

// IsPractice reports whether the state describes a practice/solo game, either
// via a practice-prefixed game id or a practice session player.
func (gs GameState) IsPractice(gameID string) bool {
	if strings.HasPrefix(gameID, "practice_") {
		return true
	}
	for _, p := range gs.Players {
		if IsPracticeSession(p.ID) {
			return true
		}
	}
	return false
}

// GameData wraps the server game state inside a game entry. Sibling
// transport-level fields of the server envelope live next to GameState.
type GameData struct {
	GameState GameState `json:"game_state"`
}

// GameEntry is the per-game record held in the recall_game document's games
// map. It couples the authoritative server state with the volatile
// widget-facing fields the client derives from it.
type GameEntry struct {
	GameData    GameData
	GameStatus  string
	IsRoomOwner bool
	IsInGame    bool
	// JoinedAt is set when the entry is first created and never refreshed.
	JoinedAt time.Time

	// Widget-facing fields synced from the local player's record.
	MyHandCards []Card
	MyDrawnCard *Card
	// PeekedCards protects fully revealed peek data from being clobbered by a
	// later placeholder payload before the UI has rendered it.
	PeekedCards []Card
	IsMyTurn    bool
	TurnEvents  []string

	TurnTimerSec  int
	TurnStartedAt time.Time

	Phase             Phase
	Winners           []Winner
	EndedModalVisible bool
	SameRankTriggers  int
	Pot               int64
	RevealedCount     int
}
