package app

import (
	"reflect"
	"sync/atomic"
	"testing"

	"recall/internal/domain"
)

func TestGameJoinedCreatesEntry(t *testing.T) {
	h := newHarness(t)

	h.handle(t, EventGameJoined, GameJoinedPayload{
		GameID:    "g1",
		PlayerID:  "sess-me",
		IsOwner:   boolPtr(true),
		GameState: waitingState("sess-p2"),
	})

	doc := h.gameDoc(t)
	if got := doc.String(FieldCurrentGameID); got != "g1" {
		t.Fatalf("currentGameId = %q, want g1", got)
	}
	entry := h.entry(t, "g1")
	if !entry.IsInGame || !entry.IsRoomOwner {
		t.Fatalf("entry flags = %+v, want in-game room owner", entry)
	}
	if entry.Phase != domain.PhaseWaiting {
		t.Fatalf("entry.Phase = %q, want waiting", entry.Phase)
	}
	if entry.JoinedAt.IsZero() {
		t.Fatalf("JoinedAt must be set on first creation")
	}
	if got := doc.String(FieldGamePhase); got != "waiting" {
		t.Fatalf("gamePhase = %q, want waiting", got)
	}
	if doc.Bool(FieldIsGameActive) {
		t.Fatalf("waiting game must not be active")
	}
}

func TestUnknownEventIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.handle(t, EventGameJoined, GameJoinedPayload{GameID: "g1", GameState: waitingState()})
	before := h.gameDoc(t)

	h.handle(t, "some_future_event", map[string]any{"anything": true})
	if !reflect.DeepEqual(before, h.gameDoc(t)) {
		t.Fatalf("unknown event must not mutate state")
	}
}

func TestMalformedEventLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	h.handle(t, EventGameJoined, GameJoinedPayload{GameID: "g1", GameState: waitingState()})
	before := h.gameDoc(t)

	// missing game_id
	h.handle(t, EventGameStateUpdated, map[string]any{"game_state": map[string]any{"phase": "playing"}})
	// missing game_state
	h.handle(t, EventGameStateUpdated, map[string]any{"game_id": "g1"})
	// partial without changed_properties
	h.handle(t, EventGamePartialUpdate, map[string]any{
		"game_id":            "g1",
		"partial_game_state": map[string]any{"phase": "playing"},
	})

	if !reflect.DeepEqual(before, h.gameDoc(t)) {
		t.Fatalf("malformed events must not mutate state")
	}
}

func TestDuplicateEventProducesNoSecondNotification(t *testing.T) {
	h := newHarness(t)

	payload := GameStatePayload{GameID: "g1", GameState: waitingState("sess-p2")}
	h.handle(t, EventGameStateUpdated, payload)

	var fired atomic.Int32
	defer h.coord.OnChange(ModuleRecallGame, func(string) { fired.Add(1) })()

	h.handle(t, EventGameStateUpdated, payload)
	if got := fired.Load(); got != 0 {
		t.Fatalf("duplicate delivery fired %d notifications, want 0", got)
	}

	// A real change still notifies.
	payload.GameState.Phase = "playing"
	h.handle(t, EventGameStateUpdated, payload)
	if got := fired.Load(); got == 0 {
		t.Fatalf("changed state must notify")
	}
}

func TestPhaseNormalization(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		raw  string
		want domain.Phase
	}{
		{raw: "waiting_for_players", want: domain.PhaseWaiting},
		{raw: "mystery_phase_from_the_future", want: domain.PhasePlaying},
		{raw: "ended", want: domain.PhaseGameEnded},
	}
	for _, tt := range tests {
		gs := waitingState("sess-p2")
		gs.Phase = tt.raw
		h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g-" + tt.raw, GameState: gs})
		if got := h.entry(t, "g-"+tt.raw).Phase; got != tt.want {
			t.Fatalf("phase %q normalized to %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestPartialUpdateTouchesOnlyNamedProperties(t *testing.T) {
	h := newHarness(t)

	gs := waitingState("sess-p2")
	gs.Phase = "playing"
	gs.CurrentPlayer = "sess-p2"
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", GameState: gs})

	// The partial carries a bogus empty players list, but only discard_pile
	// is named; players must survive.
	h.handle(t, EventGamePartialUpdate, PartialUpdatePayload{
		GameID:            "g1",
		ChangedProperties: []string{PropDiscardPile},
		PartialGameState: &domain.GameState{
			DiscardPile: []domain.Card{{ID: "d1", Rank: "9", Suit: "spades"}},
		},
	})

	entry := h.entry(t, "g1")
	if got := len(entry.GameData.GameState.Players); got != 2 {
		t.Fatalf("players = %d after discard-only partial, want 2", got)
	}
	if got := len(entry.GameData.GameState.DiscardPile); got != 1 {
		t.Fatalf("discard pile = %d, want 1", got)
	}
	// Phase was not named, so the unrelated empty phase must not regress it.
	if entry.Phase != domain.PhasePlaying {
		t.Fatalf("phase = %q after partial, want playing", entry.Phase)
	}
}

func TestOwnershipResolution(t *testing.T) {
	h := newHarness(t)

	h.handle(t, EventGameJoined, GameJoinedPayload{
		GameID: "g1", IsOwner: boolPtr(true), GameState: waitingState("sess-p2"),
	})
	if !h.entry(t, "g1").IsRoomOwner {
		t.Fatalf("explicit is_owner must set ownership")
	}

	// No owner field at all: preserved, never reset.
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", GameState: waitingState("sess-p2", "sess-p3")})
	if !h.entry(t, "g1").IsRoomOwner {
		t.Fatalf("ownership must survive owner-less updates")
	}

	// Owner handed to someone else.
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", OwnerID: "sess-p2", GameState: waitingState("sess-p2")})
	if h.entry(t, "g1").IsRoomOwner {
		t.Fatalf("ownership must clear when another player owns the room")
	}

	// Owner id matching the durable account id form.
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", OwnerID: "acct-me", GameState: waitingState("sess-p2")})
	if !h.entry(t, "g1").IsRoomOwner {
		t.Fatalf("ownership must resolve via the account id form")
	}
}

func TestPeekedCardsProtectedFromPlaceholders(t *testing.T) {
	h := newHarness(t)

	gs := waitingState("sess-p2")
	gs.Phase = "initial_peek"
	gs.Players[0].CardsToPeek = []domain.Card{
		{ID: "c1", Rank: "K", Suit: "hearts"},
		{ID: "c2", Rank: "3", Suit: "clubs"},
	}
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", GameState: gs})

	entry := h.entry(t, "g1")
	if got := len(entry.PeekedCards); got != 2 {
		t.Fatalf("peeked cards = %d, want 2", got)
	}

	// The server re-hides the cards; the protected copy must survive.
	hidden := waitingState("sess-p2")
	hidden.Phase = "initial_peek"
	hidden.Players[0].CardsToPeek = []domain.Card{
		{ID: "c1", Rank: "?", Suit: "?"},
		{ID: "c2", Rank: "?", Suit: "?"},
	}
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", GameState: hidden})

	entry = h.entry(t, "g1")
	if got := len(entry.PeekedCards); got != 2 {
		t.Fatalf("peeked cards = %d after placeholder payload, want 2", got)
	}
	if !entry.PeekedCards[0].Revealed() {
		t.Fatalf("protected peek lost its identity: %+v", entry.PeekedCards[0])
	}
}

func TestTurnStarted(t *testing.T) {
	h := newHarness(t)
	gs := waitingState("sess-p2")
	gs.Phase = "playing"
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", GameState: gs})

	// Opponent's turn, explicit timer.
	h.handle(t, EventTurnStarted, TurnStartedPayload{GameID: "g1", PlayerID: "sess-p2", TurnTimerSec: 45})
	entry := h.entry(t, "g1")
	if entry.IsMyTurn {
		t.Fatalf("opponent's turn flagged as mine")
	}
	if entry.TurnTimerSec != 45 {
		t.Fatalf("turn timer = %d, want 45", entry.TurnTimerSec)
	}
	if entry.GameData.GameState.CurrentPlayer != "sess-p2" {
		t.Fatalf("currentPlayer = %q, want sess-p2", entry.GameData.GameState.CurrentPlayer)
	}

	// My turn, timer omitted: config default fills in.
	h.handle(t, EventTurnStarted, TurnStartedPayload{GameID: "g1", PlayerID: "sess-me"})
	entry = h.entry(t, "g1")
	if !entry.IsMyTurn {
		t.Fatalf("my turn not flagged")
	}
	if entry.TurnTimerSec != h.cfg.TurnDurationSeconds {
		t.Fatalf("turn timer = %d, want default %d", entry.TurnTimerSec, h.cfg.TurnDurationSeconds)
	}
	if entry.TurnStartedAt.IsZero() {
		t.Fatalf("TurnStartedAt must be stamped")
	}
	if got := h.gameDoc(t).Bool(FieldIsMyTurn); !got {
		t.Fatalf("isMyTurn mirror = %v, want true", got)
	}
}

func TestSameRankTriggerCounting(t *testing.T) {
	h := newHarness(t)

	setPhase := func(phase string) {
		gs := waitingState("sess-p2")
		gs.Phase = phase
		h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", GameState: gs})
	}

	setPhase("playing")
	setPhase("same_rank_window")
	setPhase("same_rank_window") // staying in the window is not a new trigger
	setPhase("playing")
	setPhase("same_rank_window")

	if got := h.entry(t, "g1").SameRankTriggers; got != 2 {
		t.Fatalf("sameRankTriggers = %d, want 2", got)
	}
}

func TestGameEnded(t *testing.T) {
	h := newHarness(t)
	gs := waitingState("sess-p2")
	gs.Phase = "playing"
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", GameState: gs})

	winners := []domain.Winner{{ID: "sess-p2", WinType: "lowest_score"}}
	h.handle(t, EventGameEnded, GameEndedPayload{GameID: "g1", Winners: winners})

	entry := h.entry(t, "g1")
	if entry.Phase != domain.PhaseGameEnded || !entry.EndedModalVisible {
		t.Fatalf("entry = %+v, want ended with modal", entry)
	}
	if !reflect.DeepEqual(entry.Winners, winners) {
		t.Fatalf("winners = %+v, want %+v", entry.Winners, winners)
	}

	doc := h.gameDoc(t)
	msg, ok := doc[FieldSessionMessage].(*SessionMessage)
	if !ok || msg == nil {
		t.Fatalf("session message missing after game end")
	}
	if msg.Level != MessageLevelSuccess || msg.GameID != "g1" {
		t.Fatalf("session message = %+v", msg)
	}
	if got := h.economy.statsCallCount(); got != 1 {
		t.Fatalf("stats refreshed %d times, want 1", got)
	}

	// Duplicate game_ended: modal stays, but no second message or refresh.
	h.handle(t, EventGameEnded, GameEndedPayload{GameID: "g1", Winners: winners})
	doc = h.gameDoc(t)
	again, _ := doc[FieldSessionMessage].(*SessionMessage)
	if again == nil || again.ID != msg.ID {
		t.Fatalf("duplicate game_ended must not raise a new message")
	}
	if got := h.economy.statsCallCount(); got != 1 {
		t.Fatalf("stats refreshed %d times after duplicate, want 1", got)
	}

	// Login document picked up the refreshed stats.
	login := h.coord.GetDocument(ModuleLogin)
	if got := login.Int(FieldCoins); got != 475 {
		t.Fatalf("login coins = %d, want 475", got)
	}
	if got := login.Int(FieldGamesWon); got != 3 {
		t.Fatalf("login gamesWon = %d, want 3", got)
	}
}

func TestEndedModalClearsOnRematch(t *testing.T) {
	h := newHarness(t)
	gs := waitingState("sess-p2")
	gs.Phase = "playing"
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", GameState: gs})
	h.handle(t, EventGameEnded, GameEndedPayload{GameID: "g1", Winners: []domain.Winner{{ID: "sess-p2"}}})

	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", GameState: waitingState("sess-p2")})
	entry := h.entry(t, "g1")
	if entry.EndedModalVisible || entry.Winners != nil {
		t.Fatalf("modal state must clear when the game leaves the terminal phase: %+v", entry)
	}
}

func TestPlayerJoinedRoster(t *testing.T) {
	h := newHarness(t)
	h.handle(t, EventGameJoined, GameJoinedPayload{GameID: "g1", GameState: waitingState()})

	h.handle(t, EventPlayerJoined, PlayerJoinedPayload{
		GameID: "g1",
		Player: domain.PlayerRecord{ID: "sess-p2", Name: "Ada", Status: "active"},
	})
	entry := h.entry(t, "g1")
	if got := len(entry.GameData.GameState.Players); got != 2 {
		t.Fatalf("players = %d, want 2", got)
	}

	// Re-delivery with updated data replaces in place, no duplicate row.
	h.handle(t, EventPlayerJoined, PlayerJoinedPayload{
		GameID: "g1",
		Player: domain.PlayerRecord{ID: "sess-p2", Name: "Ada", Status: "disconnected"},
	})
	entry = h.entry(t, "g1")
	if got := len(entry.GameData.GameState.Players); got != 2 {
		t.Fatalf("players = %d after re-delivery, want 2", got)
	}
	if got := entry.GameData.GameState.Players[1].Status; got != "disconnected" {
		t.Fatalf("player status = %q, want disconnected", got)
	}
}

func TestPlayerUpdateNotifiesAndRecomputesPanel(t *testing.T) {
	h := newHarness(t)
	h.handle(t, EventGameJoined, GameJoinedPayload{GameID: "g1", GameState: waitingState()})
	h.handle(t, EventPlayerJoined, PlayerJoinedPayload{
		GameID: "g1",
		Player: domain.PlayerRecord{ID: "sess-p2", Name: "Ada", Status: "active"},
	})

	var fired atomic.Int32
	defer h.coord.OnChange(ModuleRecallGame, func(string) { fired.Add(1) })()

	// Re-delivery carrying changed data for a known player must commit
	// through a fresh slice: the stored document may not be written in place,
	// or the change would be judged a no-op and skip notification.
	h.handle(t, EventPlayerJoined, PlayerJoinedPayload{
		GameID: "g1",
		Player: domain.PlayerRecord{ID: "sess-p2", Name: "Ada", Status: "active", Score: 7},
	})

	if got := fired.Load(); got == 0 {
		t.Fatalf("player record changed but no notification fired")
	}
	view, ok := h.gameDoc(t)[SliceOpponentsPanel].(OpponentsPanelView)
	if !ok || len(view.Opponents) != 1 {
		t.Fatalf("opponentsPanel = %+v", view)
	}
	if got := view.Opponents[0].Score; got != 7 {
		t.Fatalf("opponent score = %d, want 7 (panel must recompute)", got)
	}
}

func TestEndedModalSurvivesUnrelatedGameUpdate(t *testing.T) {
	h := newHarness(t)
	gs := waitingState("sess-p2")
	gs.Phase = "playing"
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g1", GameState: gs})
	h.handle(t, EventGameEnded, GameEndedPayload{GameID: "g1", Winners: []domain.Winner{{ID: "sess-p2"}}})

	other := waitingState("sess-p3")
	other.Phase = "playing"
	h.handle(t, EventGameStateUpdated, GameStatePayload{GameID: "g2", GameState: other})

	entry := h.entry(t, "g1")
	if !entry.EndedModalVisible || entry.Phase != domain.PhaseGameEnded {
		t.Fatalf("g1 modal state clobbered by an unrelated game: %+v", entry)
	}
	if len(entry.Winners) != 1 {
		t.Fatalf("g1 winners = %+v, want preserved", entry.Winners)
	}
}

func TestCurrentGamePinnedToFirstJoin(t *testing.T) {
	h := newHarness(t)
	h.handle(t, EventGameJoined, GameJoinedPayload{GameID: "g1", GameState: waitingState("sess-p2")})

	gs2 := waitingState("sess-p3")
	gs2.Phase = "playing"
	h.handle(t, EventGameJoined, GameJoinedPayload{GameID: "g2", GameState: gs2})

	doc := h.gameDoc(t)
	if got := doc.String(FieldCurrentGameID); got != "g1" {
		t.Fatalf("currentGameId = %q, want g1 (first join pins)", got)
	}
	// Mirrored fields keep reflecting g1, not the newer g2.
	if got := doc.String(FieldGamePhase); got != "waiting" {
		t.Fatalf("gamePhase mirror = %q, want g1's waiting", got)
	}
}
