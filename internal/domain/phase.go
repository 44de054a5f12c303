package domain

// Phase represents the server-declared lifecycle stage of a game. The client
// never initiates a transition; it only reacts to the phase the server reports.
type Phase string

const (
	// PhaseWaiting is the pre-game state where players can still join.
	PhaseWaiting Phase = "waiting"
	// PhaseInitialPeek is the opening window where players look at their own cards.
	PhaseInitialPeek Phase = "initial_peek"
	// PhaseSameRankWindow is the short window where any player may throw a matching rank.
	PhaseSameRankWindow Phase = "same_rank_window"
	// PhasePlaying is the regular in-progress state and the fallback for
	// in-progress values the client does not recognize.
	PhasePlaying Phase = "playing"
	// PhaseGameEnded is the terminal state after winners are declared.
	PhaseGameEnded Phase = "game_ended"
)

// NormalizePhase maps a raw server phase string onto the canonical phase set.
// Older backends report "waiting_for_players" which folds into waiting, and
// "ended" which folds into game_ended. Unrecognized values are treated as an
// in-progress game.
func NormalizePhase(raw string) Phase {
	switch raw {
	case string(PhaseWaiting), "waiting_for_players":
		return PhaseWaiting
	case string(PhaseInitialPeek):
		return PhaseInitialPeek
	case string(PhaseSameRankWindow):
		return PhaseSameRankWindow
	case string(PhaseGameEnded), "ended":
		return PhaseGameEnded
	case "":
		return PhaseWaiting
	default:
		return PhasePlaying
	}
}

// InProgress reports whether the phase describes a running game.
func (p Phase) InProgress() bool {
	return p != PhaseWaiting && p != PhaseGameEnded
}
