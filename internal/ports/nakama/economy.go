package nakama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"recall/internal/ports"
)

// RPC ids exposed by the backend for economy operations.
const (
	rpcDeductCoins  = "deduct_coins"
	rpcAccountStats = "account_stats"
)

// RPCEconomy implements ports.EconomyPort over Nakama HTTP RPC calls
// authorized with the session token.
type RPCEconomy struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRPCEconomy creates an economy adapter. client may be nil to use the
// default HTTP client.
func NewRPCEconomy(baseURL, token string, client *http.Client) *RPCEconomy {
	if client == nil {
		client = http.DefaultClient
	}
	return &RPCEconomy{baseURL: baseURL, token: token, client: client}
}

type deductRequest struct {
	Amount     int64    `json:"amount"`
	GameID     string   `json:"game_id"`
	AccountIDs []string `json:"account_ids"`
}

type deductResponse struct {
	Success        bool     `json:"success"`
	UpdatedPlayers []string `json:"updated_players"`
}

// DeductCoins removes the game pot from the listed accounts.
func (e *RPCEconomy) DeductCoins(ctx context.Context, amount int64, gameID string, accountIDs []string) (ports.DeductResult, error) {
	var resp deductResponse
	err := e.call(ctx, rpcDeductCoins, deductRequest{
		Amount:     amount,
		GameID:     gameID,
		AccountIDs: accountIDs,
	}, &resp)
	if err != nil {
		return ports.DeductResult{}, err
	}
	return ports.DeductResult{Success: resp.Success, UpdatedPlayers: resp.UpdatedPlayers}, nil
}

type statsResponse struct {
	Coins       int64 `json:"coins"`
	GamesPlayed int   `json:"games_played"`
	GamesWon    int   `json:"games_won"`
}

// FetchAccountStats retrieves the local account's economy snapshot.
func (e *RPCEconomy) FetchAccountStats(ctx context.Context) (ports.AccountStats, error) {
	var resp statsResponse
	if err := e.call(ctx, rpcAccountStats, struct{}{}, &resp); err != nil {
		return ports.AccountStats{}, err
	}
	return ports.AccountStats{
		Coins:       resp.Coins,
		GamesPlayed: resp.GamesPlayed,
		GamesWon:    resp.GamesWon,
	}, nil
}

func (e *RPCEconomy) call(ctx context.Context, id string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", id, err)
	}
	url := fmt.Sprintf("%s/v2/rpc/%s?unwrap=true", e.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("rpc %s failed: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc %s returned status %d", id, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", id, err)
	}
	return nil
}
