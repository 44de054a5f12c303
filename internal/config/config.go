package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds client tuning for the Recall state core. Loaded once at the
// composition root and passed by reference; there is no package-level global.
type Config struct {
	// ServerURL is the base URL of the backend, e.g. "http://127.0.0.1:7350".
	ServerURL string `json:"server_url"`
	// SocketURL is the realtime websocket endpoint. Derived from ServerURL
	// when empty.
	SocketURL string `json:"socket_url"`

	// CoinCostPerPlayer is the per-seat stake deducted when a game reaches
	// its initial peek phase.
	CoinCostPerPlayer int64 `json:"coin_cost_per_player"`
	// SameRankHintThreshold selects which same-rank-window trigger swaps in
	// the alternate instructional message.
	SameRankHintThreshold int `json:"same_rank_hint_threshold"`
	// TurnDurationSeconds is the default turn timer when the server omits one.
	TurnDurationSeconds int `json:"turn_duration_seconds"`
	// LeaveDebounceSeconds is how long a leave-game request stays cancellable.
	LeaveDebounceSeconds int `json:"leave_debounce_seconds"`
	// LeaveDebounceMS overrides LeaveDebounceSeconds when set. Sub-second
	// windows are only useful in tests.
	LeaveDebounceMS int `json:"leave_debounce_ms,omitempty"`
	// EconomyTimeoutSeconds bounds how long a queued economy call may wait.
	EconomyTimeoutSeconds int `json:"economy_timeout_seconds"`
}

// Default returns a config with the stock values.
func Default() *Config {
	return &Config{
		ServerURL:             "http://127.0.0.1:7350",
		CoinCostPerPlayer:     25,
		SameRankHintThreshold: 5,
		TurnDurationSeconds:   30,
		LeaveDebounceSeconds:  30,
		EconomyTimeoutSeconds: 10,
	}
}

// Load reads the client configuration from the given path, filling unset
// fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.ServerURL == "" {
		c.ServerURL = d.ServerURL
	}
	if c.SocketURL == "" {
		ws := strings.Replace(c.ServerURL, "http", "ws", 1)
		c.SocketURL = strings.TrimSuffix(ws, "/") + "/ws"
	}
	if c.CoinCostPerPlayer <= 0 {
		c.CoinCostPerPlayer = d.CoinCostPerPlayer
	}
	if c.SameRankHintThreshold <= 0 {
		c.SameRankHintThreshold = d.SameRankHintThreshold
	}
	if c.TurnDurationSeconds <= 0 {
		c.TurnDurationSeconds = d.TurnDurationSeconds
	}
	if c.LeaveDebounceSeconds <= 0 {
		c.LeaveDebounceSeconds = d.LeaveDebounceSeconds
	}
	if c.EconomyTimeoutSeconds <= 0 {
		c.EconomyTimeoutSeconds = d.EconomyTimeoutSeconds
	}
}

// LeaveDebounce returns the leave-game debounce window.
func (c *Config) LeaveDebounce() time.Duration {
	if c.LeaveDebounceMS > 0 {
		return time.Duration(c.LeaveDebounceMS) * time.Millisecond
	}
	return time.Duration(c.LeaveDebounceSeconds) * time.Second
}

// EconomyTimeout returns the bound for economy side-effect calls.
func (c *Config) EconomyTimeout() time.Duration {
	return time.Duration(c.EconomyTimeoutSeconds) * time.Second
}
