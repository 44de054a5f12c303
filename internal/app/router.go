package app

import (
	"context"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"recall/internal/config"
	"recall/internal/domain"
	"recall/internal/ports"
	"recall/internal/state"
)

// Router reconciles inbound server events into the fact store. Dispatch goes
// through a handler table built once at construction; unknown event types are
// logged and ignored, and handler failures never propagate to the caller or
// block subsequent events.
type Router struct {
	logger   runtime.Logger
	cfg      *config.Config
	store    *state.Store
	updater  *state.Updater
	economy  ports.EconomyPort
	identity domain.Identity
	clock    func() time.Time

	handlers map[string]func(payload map[string]any) error

	mu       sync.Mutex
	deducted map[string]struct{}
	trackers map[string]*domain.RevealTracker

	effects sync.WaitGroup
}

// NewRouter constructs a router over the given state core and collaborators.
// clock may be nil to use the wall clock.
func NewRouter(logger runtime.Logger, cfg *config.Config, store *state.Store, updater *state.Updater, economy ports.EconomyPort, identity domain.Identity, clock func() time.Time) *Router {
	if clock == nil {
		clock = time.Now
	}
	r := &Router{
		logger:   logger,
		cfg:      cfg,
		store:    store,
		updater:  updater,
		economy:  economy,
		identity: identity,
		clock:    clock,
		deducted: make(map[string]struct{}),
		trackers: make(map[string]*domain.RevealTracker),
	}
	r.handlers = map[string]func(map[string]any) error{
		EventGameJoined:        r.handleGameJoined,
		EventGameStarted:       r.handleGameState,
		EventGameStateUpdated:  r.handleGameState,
		EventGamePartialUpdate: r.handlePartialUpdate,
		EventTurnStarted:       r.handleTurnStarted,
		EventGameEnded:         r.handleGameEnded,
		EventPlayerJoined:      r.handlePlayerJoined,
		EventConnectionStatus:  r.handleConnectionStatus,
	}
	return r
}

// HandleServerEvent dispatches one inbound server event. Idempotent with
// respect to repeated delivery of the same event.
func (r *Router) HandleServerEvent(eventType string, payload map[string]any) {
	handler, ok := r.handlers[eventType]
	if !ok {
		r.logger.Warn("router: ignoring unknown event type %q", eventType)
		return
	}
	if err := handler(payload); err != nil {
		r.logger.Error("router: %s handler failed: %v", eventType, err)
	}
}

// WaitEffects blocks until in-flight economy side effects have finished.
// Used on shutdown and by tests.
func (r *Router) WaitEffects() {
	r.effects.Wait()
}

// runEffect executes an economy side effect on its own goroutine with the
// configured bound, keeping it off the reconciliation commit path.
func (r *Router) runEffect(name string, fn func(ctx context.Context) error) {
	r.effects.Add(1)
	go func() {
		defer r.effects.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.EconomyTimeout())
		defer cancel()
		if err := fn(ctx); err != nil {
			r.logger.Error("router: %s failed: %v", name, err)
		}
	}()
}

func (r *Router) tracker(gameID string) *domain.RevealTracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[gameID]
	if !ok {
		t = domain.NewRevealTracker()
		r.trackers[gameID] = t
	}
	return t
}

// dropGameSideState forgets the per-game bookkeeping kept outside the
// document. Called when a game entry is removed.
func (r *Router) dropGameSideState(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trackers, gameID)
	delete(r.deducted, gameID)
}
