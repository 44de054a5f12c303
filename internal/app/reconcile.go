package app

import (
	"context"

	"recall/internal/domain"
	"recall/internal/state"
)

// gameMerge carries one event's contribution to a game entry. Exactly one of
// full/partial is set for state-bearing events; both nil means an
// entry-touching event with no game state attached.
type gameMerge struct {
	gameID  string
	isOwner *bool
	ownerID string
	full    *domain.GameState
	partial *domain.GameState
	props   []string
	// mutate runs against the entry after the game state merge, before the
	// widget sync. Used by event-specific adjustments.
	mutate func(entry *domain.GameEntry, prevPhase domain.Phase)
}

func (r *Router) handleGameJoined(payload map[string]any) error {
	var p GameJoinedPayload
	if err := decodePayload(payload, &p); err != nil {
		return &MalformedEventError{Event: EventGameJoined, Reason: err.Error()}
	}
	if p.GameID == "" {
		return &MalformedEventError{Event: EventGameJoined, Reason: "missing game_id"}
	}
	return r.mergeGame(gameMerge{
		gameID:  p.GameID,
		isOwner: p.IsOwner,
		ownerID: p.OwnerID,
		full:    p.GameState,
	})
}

func (r *Router) handleGameState(payload map[string]any) error {
	var p GameStatePayload
	if err := decodePayload(payload, &p); err != nil {
		return &MalformedEventError{Event: EventGameStateUpdated, Reason: err.Error()}
	}
	if p.GameID == "" {
		return &MalformedEventError{Event: EventGameStateUpdated, Reason: "missing game_id"}
	}
	if p.GameState == nil {
		return &MalformedEventError{Event: EventGameStateUpdated, Reason: "missing game_state"}
	}
	return r.mergeGame(gameMerge{
		gameID:  p.GameID,
		ownerID: p.OwnerID,
		full:    p.GameState,
	})
}

func (r *Router) handlePartialUpdate(payload map[string]any) error {
	var p PartialUpdatePayload
	if err := decodePayload(payload, &p); err != nil {
		return &MalformedEventError{Event: EventGamePartialUpdate, Reason: err.Error()}
	}
	if p.GameID == "" {
		return &MalformedEventError{Event: EventGamePartialUpdate, Reason: "missing game_id"}
	}
	if p.PartialGameState == nil || len(p.ChangedProperties) == 0 {
		return &MalformedEventError{Event: EventGamePartialUpdate, Reason: "missing partial_game_state or changed_properties"}
	}
	return r.mergeGame(gameMerge{
		gameID:  p.GameID,
		ownerID: p.OwnerID,
		partial: p.PartialGameState,
		props:   p.ChangedProperties,
	})
}

func (r *Router) handleTurnStarted(payload map[string]any) error {
	var p TurnStartedPayload
	if err := decodePayload(payload, &p); err != nil {
		return &MalformedEventError{Event: EventTurnStarted, Reason: err.Error()}
	}
	if p.GameID == "" || p.PlayerID == "" {
		return &MalformedEventError{Event: EventTurnStarted, Reason: "missing game_id or player_id"}
	}
	timer := p.TurnTimerSec
	if timer <= 0 {
		timer = r.cfg.TurnDurationSeconds
	}
	now := r.clock()
	myTurn := r.identity.Matches(p.PlayerID)
	return r.mergeGame(gameMerge{
		gameID: p.GameID,
		mutate: func(entry *domain.GameEntry, _ domain.Phase) {
			entry.GameData.GameState.CurrentPlayer = p.PlayerID
			entry.IsMyTurn = myTurn
			entry.TurnTimerSec = timer
			entry.TurnStartedAt = now
		},
	})
}

func (r *Router) handleGameEnded(payload map[string]any) error {
	var p GameEndedPayload
	if err := decodePayload(payload, &p); err != nil {
		return &MalformedEventError{Event: EventGameEnded, Reason: err.Error()}
	}
	if p.GameID == "" {
		return &MalformedEventError{Event: EventGameEnded, Reason: "missing game_id"}
	}
	if len(p.Winners) == 0 {
		return &MalformedEventError{Event: EventGameEnded, Reason: "missing winners"}
	}
	now := r.clock()
	var announce *SessionMessage
	err := r.mergeGame(gameMerge{
		gameID: p.GameID,
		mutate: func(entry *domain.GameEntry, prevPhase domain.Phase) {
			entry.GameData.GameState.Phase = string(domain.PhaseGameEnded)
			entry.Phase = domain.PhaseGameEnded
			entry.Winners = p.Winners
			entry.EndedModalVisible = true
			// The modal message fires once per terminal transition; repeated
			// game_ended deliveries leave the flag set without a new message.
			if prevPhase != domain.PhaseGameEnded {
				announce = newSessionMessage(MessageLevelSuccess, winnersText(p.Winners), p.GameID, now)
			}
		},
	})
	if err != nil {
		return err
	}
	if announce != nil {
		if uerr := r.updater.EnqueueUpdateSync(ModuleRecallGame, state.Document{FieldSessionMessage: announce}); uerr != nil {
			r.logger.Error("router: session message update failed: %v", uerr)
		}
		r.refreshAccountStats()
	}
	return nil
}

func (r *Router) handlePlayerJoined(payload map[string]any) error {
	var p PlayerJoinedPayload
	if err := decodePayload(payload, &p); err != nil {
		return &MalformedEventError{Event: EventPlayerJoined, Reason: err.Error()}
	}
	if p.GameID == "" || p.Player.ID == "" {
		return &MalformedEventError{Event: EventPlayerJoined, Reason: "missing game_id or player"}
	}
	return r.mergeGame(gameMerge{
		gameID: p.GameID,
		mutate: func(entry *domain.GameEntry, _ domain.Phase) {
			gs := &entry.GameData.GameState
			// The backing array is shared with the committed document, so
			// mutation always goes through a fresh copy.
			players := make([]domain.PlayerRecord, len(gs.Players), len(gs.Players)+1)
			copy(players, gs.Players)
			for i, existing := range players {
				if existing.ID == p.Player.ID {
					players[i] = p.Player
					gs.Players = players
					return
				}
			}
			gs.Players = append(players, p.Player)
		},
	})
}

func (r *Router) handleConnectionStatus(payload map[string]any) error {
	var p ConnectionStatusPayload
	if err := decodePayload(payload, &p); err != nil {
		return &MalformedEventError{Event: EventConnectionStatus, Reason: err.Error()}
	}
	update := state.Document{FieldIsConnected: p.Connected}
	if p.SessionID != "" {
		update[FieldSessionID] = p.SessionID
	}
	return r.updater.EnqueueUpdateSync(ModuleWebsocket, update)
}

// mergeGame applies one event's contribution to the game entry and commits
// the result in a single update, so the entry and the mirrored widget fields
// are never observable in a half-applied state.
func (r *Router) mergeGame(m gameMerge) error {
	doc := r.store.Get(ModuleRecallGame)
	if doc == nil {
		return &MalformedEventError{Event: "merge", Reason: "recall_game document is not registered"}
	}

	games := gamesFrom(doc)
	entry, existed := games[m.gameID]
	if !existed {
		entry = domain.GameEntry{
			JoinedAt: r.clock(),
			IsInGame: true,
			Phase:    domain.PhaseWaiting,
		}
	}
	prevPhase := entry.Phase

	gs := entry.GameData.GameState
	switch {
	case m.full != nil:
		gs = *m.full
	case m.partial != nil:
		gs = applyPartial(gs, *m.partial, m.props)
	}
	entry.GameData.GameState = gs

	// Phase normalization. Partial updates only touch the phase when the
	// server names it in changed_properties.
	if m.full != nil && gs.Phase != "" {
		entry.Phase = domain.NormalizePhase(gs.Phase)
	}
	if m.partial != nil && propListed(m.props, PropPhase) {
		entry.Phase = domain.NormalizePhase(gs.Phase)
	}
	if gs.Status != "" {
		entry.GameStatus = gs.Status
	}

	entry.IsRoomOwner = r.resolveOwnership(m, entry.IsRoomOwner)

	if m.mutate != nil {
		m.mutate(&entry, prevPhase)
	}

	r.syncLocalPlayer(m.gameID, &entry)

	// The end-of-game modal stays up only while the server keeps reporting
	// the terminal phase for this game.
	if entry.Phase != domain.PhaseGameEnded {
		entry.EndedModalVisible = false
		entry.Winners = nil
	}

	if entry.Phase == domain.PhaseSameRankWindow && prevPhase != domain.PhaseSameRankWindow {
		entry.SameRankTriggers++
	}

	r.preparePot(m.gameID, &entry)

	games[m.gameID] = entry
	update := state.Document{FieldGames: games}

	current := doc.String(FieldCurrentGameID)
	if current == "" {
		current = m.gameID
		update[FieldCurrentGameID] = current
	}
	if current == m.gameID {
		mirrorEntry(update, entry)
	}

	if err := r.updater.EnqueueUpdateSync(ModuleRecallGame, update); err != nil {
		return err
	}

	r.maybeDeduct(m.gameID, entry)
	return nil
}

// applyPartial copies only the properties the server named onto the current
// game state. The rest of the partial payload is not guaranteed complete and
// must not be read.
func applyPartial(gs domain.GameState, partial domain.GameState, props []string) domain.GameState {
	for _, prop := range props {
		switch prop {
		case PropPhase:
			gs.Phase = partial.Phase
		case PropGameStatus:
			gs.Status = partial.Status
		case PropPlayers:
			gs.Players = partial.Players
		case PropCurrentPlayer:
			gs.CurrentPlayer = partial.CurrentPlayer
		case PropDrawPile:
			gs.DrawPile = partial.DrawPile
		case PropDiscardPile:
			gs.DiscardPile = partial.DiscardPile
		}
	}
	return gs
}

func propListed(props []string, name string) bool {
	for _, p := range props {
		if p == name {
			return true
		}
	}
	return false
}

// resolveOwnership decides the entry's isRoomOwner flag. An explicit boolean
// on the event wins; a present owner id is resolved against the local
// identity; an absent owner field preserves the prior value, never resetting
// it to false.
func (r *Router) resolveOwnership(m gameMerge, prior bool) bool {
	if m.isOwner != nil {
		return *m.isOwner
	}
	if m.ownerID == "" {
		return prior
	}
	isOwner, resolved := domain.ResolveOwnership(r.identity, m.ownerID, prior)
	if !resolved {
		r.logger.Warn("router: owner %q unresolvable against local identity, preserving ownership", m.ownerID)
	}
	return isOwner
}

// syncLocalPlayer copies the local player's record into the entry's
// widget-facing fields and feeds the reveal tracker.
func (r *Router) syncLocalPlayer(gameID string, entry *domain.GameEntry) {
	gs := entry.GameData.GameState
	tracker := r.tracker(gameID)

	tracker.MarkDiscarded(gs.DiscardPile)
	for _, p := range gs.Players {
		if domain.AnyRevealed(p.CardsToPeek) {
			tracker.MarkPeeked(p.ID, domain.RevealedOnly(p.CardsToPeek))
		}
	}

	p, found := gs.FindPlayer(r.identity)
	if found {
		entry.MyHandCards = p.Hand
		entry.MyDrawnCard = p.DrawnCard
		entry.TurnEvents = p.TurnEvents
		tracker.MarkMine(p.Hand)
		// Full peek reveals are captured into a protected field: a later
		// placeholder payload must not clear them before the UI renders.
		if domain.AnyRevealed(p.CardsToPeek) {
			entry.PeekedCards = domain.RevealedOnly(p.CardsToPeek)
		}
	}
	if gs.CurrentPlayer != "" {
		entry.IsMyTurn = r.identity.Matches(gs.CurrentPlayer)
	}
	entry.RevealedCount = tracker.RevealedCount()
}

// preparePot records the display pot the first time the game reaches its
// initial peek phase.
func (r *Router) preparePot(gameID string, entry *domain.GameEntry) {
	if entry.Phase != domain.PhaseInitialPeek || entry.Pot != 0 {
		return
	}
	active := entry.GameData.GameState.ActivePlayerCount()
	if active == 0 {
		return
	}
	entry.Pot = r.cfg.CoinCostPerPlayer * int64(active)
}

// maybeDeduct issues the at-most-once coin deduction for the game's first
// observed transition into initial_peek. The deducted-games set guarantees a
// single call even under duplicate event delivery. Practice games show the
// pot but are never charged.
func (r *Router) maybeDeduct(gameID string, entry domain.GameEntry) {
	if entry.Phase != domain.PhaseInitialPeek || entry.Pot == 0 {
		return
	}
	r.mu.Lock()
	if _, done := r.deducted[gameID]; done {
		r.mu.Unlock()
		return
	}
	r.deducted[gameID] = struct{}{}
	r.mu.Unlock()

	gs := entry.GameData.GameState
	if gs.IsPractice(gameID) {
		r.logger.Info("router: practice game %s, skipping coin deduction", gameID)
		return
	}

	accountIDs := make([]string, 0, len(gs.Players))
	for _, p := range gs.Players {
		if p.Active() {
			accountIDs = append(accountIDs, domain.CanonicalKey(p.ID))
		}
	}
	pot := entry.Pot
	r.runEffect("coin deduction", func(ctx context.Context) error {
		res, err := r.economy.DeductCoins(ctx, pot, gameID, accountIDs)
		if err != nil {
			return err
		}
		if !res.Success {
			r.logger.Warn("router: coin deduction for game %s rejected", gameID)
		}
		return nil
	})
}

// refreshAccountStats re-reads the account economy snapshot into the login
// document after a game ends.
func (r *Router) refreshAccountStats() {
	now := r.clock()
	r.runEffect("account stats refresh", func(ctx context.Context) error {
		stats, err := r.economy.FetchAccountStats(ctx)
		if err != nil {
			return err
		}
		return r.updater.EnqueueUpdateSync(ModuleLogin, state.Document{
			FieldCoins:            stats.Coins,
			FieldGamesPlayed:      stats.GamesPlayed,
			FieldGamesWon:         stats.GamesWon,
			FieldLastStatsRefresh: now,
		})
	})
}

// RemoveGame drops the game entry, e.g. after an expired leave debounce or a
// closed room.
func (r *Router) RemoveGame(gameID string) {
	doc := r.store.Get(ModuleRecallGame)
	if doc == nil {
		return
	}
	games := gamesFrom(doc)
	if _, ok := games[gameID]; !ok {
		return
	}
	delete(games, gameID)
	r.dropGameSideState(gameID)

	update := state.Document{FieldGames: games}
	if doc.String(FieldCurrentGameID) == gameID {
		next := ""
		for id := range games {
			next = id
			break
		}
		update[FieldCurrentGameID] = next
		if next != "" {
			mirrorEntry(update, games[next])
		} else {
			mirrorEntry(update, domain.GameEntry{})
		}
	}
	if err := r.updater.EnqueueUpdateSync(ModuleRecallGame, update); err != nil {
		r.logger.Error("router: remove game %s failed: %v", gameID, err)
	}
}

func winnersText(winners []domain.Winner) string {
	if len(winners) == 1 {
		return "Game over! Winner: " + domain.CanonicalKey(winners[0].ID)
	}
	text := "Game over! Winners:"
	for _, w := range winners {
		text += " " + domain.CanonicalKey(w.ID)
	}
	return text
}
