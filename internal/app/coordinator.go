package app

import (
	"context"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"recall/internal/config"
	"recall/internal/ports"
	"recall/internal/state"
)

// UpdateOptions control how UpdateDocument applies a partial update.
type UpdateOptions struct {
	// Sync applies the update before returning instead of queueing it.
	Sync bool
	// Force skips no-op suppression; implies Sync.
	Force bool
}

// Coordinator is the composition-root facade over the client state core. It
// owns the fact store, the update queue, the slice deriver, the notifier and
// the event router, plus the lifecycle pieces that must outlive transient UI
// widgets, such as the leave-game debounce timers.
type Coordinator struct {
	logger    runtime.Logger
	cfg       *config.Config
	store     *state.Store
	updater   *state.Updater
	notifier  *state.Notifier
	router    *Router
	transport ports.TransportPort

	mu          sync.Mutex
	leaveTimers map[string]*time.Timer
	closed      bool
}

// New wires the state core, registers the module documents with their
// schemas and slices, and returns the ready coordinator. transport may be nil
// when events are fed through HandleServerEvent directly.
func New(logger runtime.Logger, cfg *config.Config, economy ports.EconomyPort, identity ports.IdentityPort, transport ports.TransportPort) *Coordinator {
	local := identity.Identity()

	notifier := state.NewNotifier(logger)
	store := state.NewStore(logger, notifier)
	deriver := state.NewDeriver(logger)
	deriver.RegisterSlices(ModuleRecallGame, recallSlices(local, cfg)...)
	updater := state.NewUpdater(logger, store, deriver)

	store.Register(ModuleRecallGame, initialRecallGameDoc(), recallGameSchema())
	store.Register(ModuleLogin, initialLoginDoc(local), loginSchema())
	store.Register(ModuleWebsocket, initialWebsocketDoc(), websocketSchema())

	router := NewRouter(logger, cfg, store, updater, economy, local, nil)

	return &Coordinator{
		logger:      logger,
		cfg:         cfg,
		store:       store,
		updater:     updater,
		notifier:    notifier,
		router:      router,
		transport:   transport,
		leaveTimers: make(map[string]*time.Timer),
	}
}

// Run consumes transport events until the context ends or the stream closes.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.transport == nil {
		return ErrNoTransport
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-c.transport.Events():
			if !ok {
				return nil
			}
			c.HandleServerEvent(ev.Type, ev.Payload)
		}
	}
}

// HandleServerEvent ingests one structured server event.
func (c *Coordinator) HandleServerEvent(eventType string, payload map[string]any) {
	if eventType == EventGameJoined {
		if gameID, ok := payload["game_id"].(string); ok && gameID != "" {
			c.cancelLeave(gameID)
		}
	}
	c.router.HandleServerEvent(eventType, payload)
}

// GetDocument returns the current document for the module, or nil.
func (c *Coordinator) GetDocument(module string) state.Document {
	return c.store.Get(module)
}

// UpdateDocument applies a caller-issued partial update. Validation errors
// are surfaced synchronously so UI code can react.
func (c *Coordinator) UpdateDocument(module string, partial state.Document, opts UpdateOptions) error {
	switch {
	case opts.Force:
		return c.updater.ForceUpdateSync(module, partial)
	case opts.Sync:
		return c.updater.EnqueueUpdateSync(module, partial)
	default:
		return c.updater.EnqueueUpdate(module, partial)
	}
}

// OnChange subscribes to committed changes of the module's document. The
// callback receives only the module name; observers re-read the document.
func (c *Coordinator) OnChange(module string, cb func(module string)) func() {
	return c.notifier.Subscribe(module, cb)
}

// LeaveGame schedules departure from the game after the debounce window.
// Re-entering the same game before the timer fires cancels the departure.
// The timer is owned here, not by the UI widget, so it survives UI teardown.
func (c *Coordinator) LeaveGame(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if _, pending := c.leaveTimers[gameID]; pending {
		return
	}
	window := c.cfg.LeaveDebounce()
	c.leaveTimers[gameID] = time.AfterFunc(window, func() {
		c.completeLeave(gameID)
	})
	c.logger.Info("app: leaving game %s in %s unless re-entered", gameID, window)
}

// LeavePending reports whether a leave is scheduled for the game.
func (c *Coordinator) LeavePending(gameID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, pending := c.leaveTimers[gameID]
	return pending
}

func (c *Coordinator) cancelLeave(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer, pending := c.leaveTimers[gameID]
	if !pending {
		return
	}
	timer.Stop()
	delete(c.leaveTimers, gameID)
	c.logger.Info("app: leave of game %s cancelled", gameID)
}

func (c *Coordinator) completeLeave(gameID string) {
	c.mu.Lock()
	delete(c.leaveTimers, gameID)
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	if c.transport != nil && c.transport.IsConnected() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.EconomyTimeout())
		defer cancel()
		if err := c.transport.Send(ctx, EventLeaveGame, map[string]any{"game_id": gameID}); err != nil {
			c.logger.Warn("app: leave_game send failed: %v", err)
		}
	}
	c.router.RemoveGame(gameID)
}

// Flush drains queued updates, in-flight side effects and pending
// notifications. Primarily a test and shutdown aid.
func (c *Coordinator) Flush() {
	c.updater.Flush()
	c.router.WaitEffects()
	c.notifier.Flush()
}

// Close stops timers and background workers. Pending work is flushed first.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, timer := range c.leaveTimers {
		timer.Stop()
		delete(c.leaveTimers, id)
	}
	c.mu.Unlock()

	c.Flush()
	c.updater.Close()
	c.notifier.Close()
}
