package ports

import "context"

// DeductResult reports the outcome of a coin deduction.
type DeductResult struct {
	Success        bool
	UpdatedPlayers []string
}

// AccountStats is the account economy snapshot returned by the backend.
type AccountStats struct {
	Coins       int64
	GamesPlayed int
	GamesWon    int
}

// EconomyPort exposes the account-economy side effects of reconciliation.
// Calls are invoked off the reconciliation commit path and must never block
// it.
type EconomyPort interface {
	// DeductCoins removes the game pot from the listed accounts.
	DeductCoins(ctx context.Context, amount int64, gameID string, accountIDs []string) (DeductResult, error)

	// FetchAccountStats retrieves the local account's current economy stats.
	FetchAccountStats(ctx context.Context) (AccountStats, error)
}
