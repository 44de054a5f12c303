package app

import (
	"fmt"
	"time"

	"recall/internal/config"
	"recall/internal/domain"
	"recall/internal/state"
)

// ActionBarView drives the bottom action bar.
type ActionBarView struct {
	CanDraw       bool
	CanPlay       bool
	CanCallRecall bool
	Hint          string
}

// StatusBarView drives the top status line.
type StatusBarView struct {
	Phase         string
	CurrentPlayer string
	TurnTimerSec  int
	TurnStartedAt time.Time
	Message       *SessionMessage
}

// MyHandView drives the local player's hand widget.
type MyHandView struct {
	Cards      []domain.Card
	DrawnCard  *domain.Card
	Peeked     []domain.Card
	Selectable bool
}

// CenterBoardView drives the shared pile display.
type CenterBoardView struct {
	TopDiscard    *domain.Card
	DiscardCount  int
	DrawPileCount int
}

// OpponentRow is one line of the opponents panel.
type OpponentRow struct {
	ID        string
	Name      string
	CardCount int
	Score     int
	Status    string
	IsCurrent bool
}

// OpponentsPanelView drives the opponents panel.
type OpponentsPanelView struct {
	Opponents     []OpponentRow
	RevealedCount int
}

// GameInfoView drives the game header and the end-of-game modal.
type GameInfoView struct {
	GameID         string
	GameCount      int
	IsRoomOwner    bool
	PotCoins       int64
	ShowEndedModal bool
	Winners        []domain.Winner
}

// recallSlices builds the widget slice table for the recall_game document.
// Every compute function is total: with no active game it returns the zero
// view, which is the expected "no game yet" rendering, not an error.
func recallSlices(local domain.Identity, cfg *config.Config) []state.SliceSpec {
	return []state.SliceSpec{
		{
			Name: SliceActionBar,
			Deps: []string{FieldGamePhase, FieldIsMyTurn, FieldMyDrawnCard, FieldSameRankTriggers},
			Compute: func(doc state.Document) any {
				return computeActionBar(doc, cfg)
			},
		},
		{
			Name: SliceStatusBar,
			Deps: []string{FieldGamePhase, FieldCurrentPlayer, FieldTurnTimerSec, FieldTurnStartedAt, FieldSessionMessage},
			Compute: func(doc state.Document) any {
				return computeStatusBar(doc)
			},
		},
		{
			Name: SliceMyHand,
			Deps: []string{FieldMyHandCards, FieldMyDrawnCard, FieldPeekedCards, FieldIsMyTurn, FieldGamePhase},
			Compute: func(doc state.Document) any {
				return computeMyHand(doc)
			},
		},
		{
			Name: SliceCenterBoard,
			Deps: []string{FieldDiscardPile, FieldDrawPileCount, FieldGamePhase},
			Compute: func(doc state.Document) any {
				return computeCenterBoard(doc)
			},
		},
		{
			Name: SliceOpponentsPanel,
			Deps: []string{FieldPlayers, FieldCurrentPlayer, FieldRevealedCount},
			Compute: func(doc state.Document) any {
				return computeOpponentsPanel(doc, local)
			},
		},
		{
			Name: SliceGameInfo,
			Deps: []string{FieldCurrentGameID, FieldGames, FieldIsRoomOwner, FieldPotCoins, FieldEndedModalVisible, FieldWinners},
			Compute: func(doc state.Document) any {
				return computeGameInfo(doc)
			},
		},
	}
}

func computeActionBar(doc state.Document, cfg *config.Config) ActionBarView {
	phase := domain.Phase(doc.String(FieldGamePhase))
	myTurn := doc.Bool(FieldIsMyTurn)
	drawn, _ := doc[FieldMyDrawnCard].(*domain.Card)

	view := ActionBarView{
		CanDraw:       myTurn && phase == domain.PhasePlaying && drawn == nil,
		CanPlay:       myTurn && phase == domain.PhasePlaying && drawn != nil,
		CanCallRecall: myTurn && phase == domain.PhasePlaying,
	}
	switch phase {
	case domain.PhaseWaiting:
		view.Hint = "Waiting for players"
	case domain.PhaseInitialPeek:
		view.Hint = "Memorize two of your cards"
	case domain.PhaseSameRankWindow:
		if doc.Int(FieldSameRankTriggers) >= cfg.SameRankHintThreshold {
			view.Hint = "Same rank again! Anyone can throw a matching card"
		} else {
			view.Hint = "Throw a card of the same rank"
		}
	case domain.PhaseGameEnded:
		view.Hint = "Game over"
	case domain.PhasePlaying:
		if myTurn {
			view.Hint = "Your turn"
		} else {
			view.Hint = "Waiting for your turn"
		}
	}
	return view
}

func computeStatusBar(doc state.Document) StatusBarView {
	view := StatusBarView{
		Phase:         doc.String(FieldGamePhase),
		CurrentPlayer: doc.String(FieldCurrentPlayer),
		TurnTimerSec:  doc.Int(FieldTurnTimerSec),
	}
	if at, ok := doc[FieldTurnStartedAt].(time.Time); ok {
		view.TurnStartedAt = at
	}
	if msg, ok := doc[FieldSessionMessage].(*SessionMessage); ok {
		view.Message = msg
	}
	return view
}

func computeMyHand(doc state.Document) MyHandView {
	view := MyHandView{}
	if cards, ok := doc[FieldMyHandCards].([]domain.Card); ok {
		view.Cards = cards
	}
	if drawn, ok := doc[FieldMyDrawnCard].(*domain.Card); ok {
		view.DrawnCard = drawn
	}
	if peeked, ok := doc[FieldPeekedCards].([]domain.Card); ok {
		view.Peeked = peeked
	}
	view.Selectable = doc.Bool(FieldIsMyTurn) &&
		domain.Phase(doc.String(FieldGamePhase)) == domain.PhasePlaying
	return view
}

func computeCenterBoard(doc state.Document) CenterBoardView {
	view := CenterBoardView{
		DrawPileCount: doc.Int(FieldDrawPileCount),
	}
	if pile, ok := doc[FieldDiscardPile].([]domain.Card); ok && len(pile) > 0 {
		top := pile[len(pile)-1]
		view.TopDiscard = &top
		view.DiscardCount = len(pile)
	}
	return view
}

func computeOpponentsPanel(doc state.Document, local domain.Identity) OpponentsPanelView {
	view := OpponentsPanelView{
		RevealedCount: doc.Int(FieldRevealedCount),
	}
	players, ok := doc[FieldPlayers].([]domain.PlayerRecord)
	if !ok {
		return view
	}
	current := doc.String(FieldCurrentPlayer)
	for _, p := range players {
		if local.Matches(p.ID) {
			continue
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Player %s", domain.CanonicalKey(p.ID))
		}
		view.Opponents = append(view.Opponents, OpponentRow{
			ID:        p.ID,
			Name:      name,
			CardCount: len(p.Hand),
			Score:     p.Score,
			Status:    p.Status,
			IsCurrent: current != "" && current == p.ID,
		})
	}
	return view
}

func computeGameInfo(doc state.Document) GameInfoView {
	view := GameInfoView{
		GameID:         doc.String(FieldCurrentGameID),
		IsRoomOwner:    doc.Bool(FieldIsRoomOwner),
		ShowEndedModal: doc.Bool(FieldEndedModalVisible),
	}
	if pot, ok := doc[FieldPotCoins].(int64); ok {
		view.PotCoins = pot
	}
	if winners, ok := doc[FieldWinners].([]domain.Winner); ok {
		view.Winners = winners
	}
	if games, ok := doc[FieldGames].(map[string]domain.GameEntry); ok {
		view.GameCount = len(games)
	}
	return view
}
