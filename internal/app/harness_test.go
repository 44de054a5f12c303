package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"recall/internal/config"
	"recall/internal/domain"
	"recall/internal/ports"
	"recall/internal/state"
	"recall/internal/testkit"
)

// localIdentity is the identity every harness runs under.
var localIdentity = domain.Identity{AccountID: "acct-me", SessionID: "sess-me"}

type fakeIdentity struct{ id domain.Identity }

func (f *fakeIdentity) Identity() domain.Identity { return f.id }

type deductCall struct {
	Amount     int64
	GameID     string
	AccountIDs []string
}

// fakeEconomy records deduction calls and serves canned stats.
type fakeEconomy struct {
	mu         sync.Mutex
	deductions []deductCall
	stats      ports.AccountStats
	statsCalls int
}

func (f *fakeEconomy) DeductCoins(ctx context.Context, amount int64, gameID string, accountIDs []string) (ports.DeductResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deductions = append(f.deductions, deductCall{Amount: amount, GameID: gameID, AccountIDs: accountIDs})
	return ports.DeductResult{Success: true, UpdatedPlayers: accountIDs}, nil
}

func (f *fakeEconomy) FetchAccountStats(ctx context.Context) (ports.AccountStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	return f.stats, nil
}

func (f *fakeEconomy) deductCalls() []deductCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]deductCall, len(f.deductions))
	copy(out, f.deductions)
	return out
}

func (f *fakeEconomy) statsCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statsCalls
}

type sentEvent struct {
	Type    string
	Payload map[string]any
}

// fakeTransport feeds canned inbound events and records outbound sends.
type fakeTransport struct {
	mu     sync.Mutex
	events chan ports.InboundEvent
	sent   []sentEvent
	up     bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan ports.InboundEvent, 16), up: true}
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.up
}

func (f *fakeTransport) Send(ctx context.Context, eventType string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{Type: eventType, Payload: payload})
	return nil
}

func (f *fakeTransport) Events() <-chan ports.InboundEvent { return f.events }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.up = false
	return nil
}

func (f *fakeTransport) sentEvents() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEvent, len(f.sent))
	copy(out, f.sent)
	return out
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.LeaveDebounceMS = 20
	return cfg
}

type harness struct {
	coord     *Coordinator
	economy   *fakeEconomy
	transport *fakeTransport
	cfg       *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithConfig(t, testConfig())
}

func newHarnessWithConfig(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	economy := &fakeEconomy{stats: ports.AccountStats{Coins: 475, GamesPlayed: 12, GamesWon: 3}}
	transport := newFakeTransport()
	coord := New(testkit.NewQuietLogger(), cfg, economy, &fakeIdentity{id: localIdentity}, transport)
	t.Cleanup(coord.Close)
	return &harness{coord: coord, economy: economy, transport: transport, cfg: cfg}
}

// handle feeds one event and waits until its full effect is observable.
func (h *harness) handle(t *testing.T, eventType string, payload any) {
	t.Helper()
	h.coord.HandleServerEvent(eventType, asPayload(t, payload))
	h.coord.Flush()
}

func (h *harness) gameDoc(t *testing.T) state.Document {
	t.Helper()
	doc := h.coord.GetDocument(ModuleRecallGame)
	if doc == nil {
		t.Fatalf("recall_game document missing")
	}
	return doc
}

func (h *harness) entry(t *testing.T, gameID string) domain.GameEntry {
	t.Helper()
	games, ok := h.gameDoc(t)[FieldGames].(map[string]domain.GameEntry)
	if !ok {
		t.Fatalf("games map missing")
	}
	entry, ok := games[gameID]
	if !ok {
		t.Fatalf("game %q not found", gameID)
	}
	return entry
}

// asPayload converts a typed payload struct into the generic event map form.
func asPayload(t *testing.T, v any) map[string]any {
	t.Helper()
	if m, ok := v.(map[string]any); ok {
		return m
	}
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

// waitingState builds a minimal two-player lobby state with the local player.
func waitingState(others ...string) *domain.GameState {
	players := []domain.PlayerRecord{{ID: "sess-me", Status: "active"}}
	for _, id := range others {
		players = append(players, domain.PlayerRecord{ID: id, Status: "active"})
	}
	return &domain.GameState{Phase: "waiting", Players: players}
}
