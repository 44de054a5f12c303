package app

import (
	"recall/internal/domain"
	"recall/internal/state"
)

func initialRecallGameDoc() state.Document {
	return state.Document{
		FieldGames:         map[string]domain.GameEntry{},
		FieldCurrentGameID: "",
	}
}

func recallGameSchema() state.Schema {
	return state.Schema{
		Strict: true,
		Fields: map[string]state.FieldKind{
			FieldGames:             state.KindMap,
			FieldCurrentGameID:     state.KindString,
			FieldGamePhase:         state.KindString,
			FieldIsRoomOwner:       state.KindBool,
			FieldIsMyTurn:          state.KindBool,
			FieldIsGameActive:      state.KindBool,
			FieldMyHandCards:       state.KindList,
			FieldMyDrawnCard:       state.KindAny,
			FieldPeekedCards:       state.KindList,
			FieldDiscardPile:       state.KindList,
			FieldDrawPileCount:     state.KindInt,
			FieldPlayers:           state.KindList,
			FieldCurrentPlayer:     state.KindString,
			FieldTurnTimerSec:      state.KindInt,
			FieldTurnStartedAt:     state.KindAny,
			FieldTurnEvents:        state.KindList,
			FieldEndedModalVisible: state.KindBool,
			FieldWinners:           state.KindList,
			FieldSameRankTriggers:  state.KindInt,
			FieldPotCoins:          state.KindInt,
			FieldRevealedCount:     state.KindInt,
			FieldSessionMessage:    state.KindAny,
		},
	}
}

func initialLoginDoc(local domain.Identity) state.Document {
	return state.Document{
		FieldUserID:   local.AccountID,
		FieldLoggedIn: local.AccountID != "",
		FieldCoins:    int64(0),
	}
}

func loginSchema() state.Schema {
	return state.Schema{
		Strict: true,
		Fields: map[string]state.FieldKind{
			FieldUserID:           state.KindString,
			FieldUsername:         state.KindString,
			FieldLoggedIn:         state.KindBool,
			FieldCoins:            state.KindInt,
			FieldGamesPlayed:      state.KindInt,
			FieldGamesWon:         state.KindInt,
			FieldLastStatsRefresh: state.KindAny,
		},
	}
}

func initialWebsocketDoc() state.Document {
	return state.Document{
		FieldIsConnected: false,
		FieldSessionID:   "",
	}
}

func websocketSchema() state.Schema {
	return state.Schema{
		Strict: true,
		Fields: map[string]state.FieldKind{
			FieldIsConnected: state.KindBool,
			FieldSessionID:   state.KindString,
		},
	}
}

// gamesFrom copies the games map out of the document so handlers can modify
// entries without aliasing the committed value.
func gamesFrom(doc state.Document) map[string]domain.GameEntry {
	games := make(map[string]domain.GameEntry)
	if existing, ok := doc[FieldGames].(map[string]domain.GameEntry); ok {
		for id, entry := range existing {
			games[id] = entry
		}
	}
	return games
}

// mirrorEntry projects the current game's entry onto the document's
// top-level widget fields. Each slice declares dependencies against these
// fields, so only the ones that actually changed trigger recomputation.
func mirrorEntry(update state.Document, entry domain.GameEntry) {
	gs := entry.GameData.GameState
	update[FieldGamePhase] = string(entry.Phase)
	update[FieldIsRoomOwner] = entry.IsRoomOwner
	update[FieldIsMyTurn] = entry.IsMyTurn
	update[FieldIsGameActive] = entry.Phase.InProgress()
	update[FieldMyHandCards] = entry.MyHandCards
	update[FieldMyDrawnCard] = entry.MyDrawnCard
	update[FieldPeekedCards] = entry.PeekedCards
	update[FieldDiscardPile] = gs.DiscardPile
	update[FieldDrawPileCount] = len(gs.DrawPile)
	update[FieldPlayers] = gs.Players
	update[FieldCurrentPlayer] = gs.CurrentPlayer
	update[FieldTurnTimerSec] = entry.TurnTimerSec
	update[FieldTurnStartedAt] = entry.TurnStartedAt
	update[FieldTurnEvents] = entry.TurnEvents
	update[FieldEndedModalVisible] = entry.EndedModalVisible
	update[FieldWinners] = entry.Winners
	update[FieldSameRankTriggers] = entry.SameRankTriggers
	update[FieldPotCoins] = entry.Pot
	update[FieldRevealedCount] = entry.RevealedCount
}
