package app

// Module names for the documents the coordinator registers at startup.
const (
	ModuleRecallGame = "recall_game"
	ModuleLogin      = "login"
	ModuleWebsocket  = "websocket"
)

// Top-level fields of the recall_game document.
const (
	FieldGames             = "games"
	FieldCurrentGameID     = "currentGameId"
	FieldGamePhase         = "gamePhase"
	FieldIsRoomOwner       = "isRoomOwner"
	FieldIsMyTurn          = "isMyTurn"
	FieldIsGameActive      = "isGameActive"
	FieldMyHandCards       = "myHandCards"
	FieldMyDrawnCard       = "myDrawnCard"
	FieldPeekedCards       = "peekedCards"
	FieldDiscardPile       = "discardPile"
	FieldDrawPileCount     = "drawPileCount"
	FieldPlayers           = "players"
	FieldCurrentPlayer     = "currentPlayer"
	FieldTurnTimerSec      = "turnTimerSec"
	FieldTurnStartedAt     = "turnStartedAt"
	FieldTurnEvents        = "turnEvents"
	FieldEndedModalVisible = "endedModalVisible"
	FieldWinners           = "winners"
	FieldSameRankTriggers  = "sameRankTriggers"
	FieldPotCoins          = "potCoins"
	FieldRevealedCount     = "revealedCount"
	FieldSessionMessage    = "sessionMessage"
)

// Widget slice names derived for the recall_game document.
const (
	SliceActionBar      = "actionBar"
	SliceStatusBar      = "statusBar"
	SliceMyHand         = "myHand"
	SliceCenterBoard    = "centerBoard"
	SliceOpponentsPanel = "opponentsPanel"
	SliceGameInfo       = "gameInfo"
)

// Fields of the login document.
const (
	FieldUserID           = "userId"
	FieldUsername         = "username"
	FieldLoggedIn         = "loggedIn"
	FieldCoins            = "coins"
	FieldGamesPlayed      = "gamesPlayed"
	FieldGamesWon         = "gamesWon"
	FieldLastStatsRefresh = "lastStatsRefresh"
)

// Fields of the websocket document.
const (
	FieldIsConnected = "isConnected"
	FieldSessionID   = "sessionId"
)
