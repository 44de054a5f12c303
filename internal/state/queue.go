package state

import (
	"reflect"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Updater validates partial updates against module schemas and serializes
// their application into store documents. Queued updates are applied strictly
// in enqueue order by a single drain goroutine; there is no reordering.
type Updater struct {
	logger  runtime.Logger
	store   *Store
	deriver *Deriver

	// applyMu serializes the read-merge-commit cycle so a synchronous update
	// cannot interleave with the drain goroutine.
	applyMu sync.Mutex

	mu       sync.Mutex
	idle     *sync.Cond
	fifo     []pendingUpdate
	draining bool
	closed   bool

	wake chan struct{}
	quit chan struct{}
}

type pendingUpdate struct {
	module  string
	partial Document
}

// NewUpdater constructs an updater and starts its drain goroutine.
func NewUpdater(logger runtime.Logger, store *Store, deriver *Deriver) *Updater {
	u := &Updater{
		logger:  logger,
		store:   store,
		deriver: deriver,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
	u.idle = sync.NewCond(&u.mu)
	go u.drain()
	return u
}

// EnqueueUpdate validates the partial update and queues it for asynchronous
// application. A validation failure is returned to the caller and nothing is
// queued or mutated.
func (u *Updater) EnqueueUpdate(module string, partial Document) error {
	if err := u.validate(module, partial); err != nil {
		return err
	}
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		u.logger.Warn("state: update for module %q dropped after close", module)
		return nil
	}
	u.fifo = append(u.fifo, pendingUpdate{module: module, partial: partial.Clone()})
	u.mu.Unlock()
	select {
	case u.wake <- struct{}{}:
	default:
	}
	return nil
}

// EnqueueUpdateSync validates, merges and commits the update before
// returning. This bypasses the queue; it is the documented race-avoidance
// escape hatch for callers whose next action on the same control path depends
// on having observed the write, not a general-purpose fast path.
func (u *Updater) EnqueueUpdateSync(module string, partial Document) error {
	if err := u.validate(module, partial); err != nil {
		return err
	}
	u.apply(module, partial, false)
	return nil
}

// ForceUpdateSync validates, merges and commits the update immediately,
// skipping the structural no-op suppression so observers are notified even
// when nothing changed.
func (u *Updater) ForceUpdateSync(module string, partial Document) error {
	if err := u.validate(module, partial); err != nil {
		return err
	}
	u.apply(module, partial, true)
	return nil
}

// Flush blocks until every queued update has been applied.
func (u *Updater) Flush() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for len(u.fifo) > 0 || u.draining {
		u.idle.Wait()
	}
}

// Close stops the drain goroutine. Remaining queued updates are dropped.
func (u *Updater) Close() {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	u.mu.Unlock()
	close(u.quit)
}

func (u *Updater) validate(module string, partial Document) error {
	schema, ok := u.store.schema(module)
	if !ok {
		return &ValidationError{Module: module, Reason: "module is not registered"}
	}
	if verr := schema.validate(module, partial); verr != nil {
		return verr
	}
	return nil
}

// apply runs the merge-derive-commit cycle for one update. Each top-level key
// of the partial fully replaces the corresponding document key; this is a
// shallow merge, never a deep one. A byte-identical repeat yields an empty
// changed set and is suppressed entirely, so duplicate delivery produces no
// second notification and no second slice recomputation.
func (u *Updater) apply(module string, partial Document, force bool) {
	u.applyMu.Lock()
	defer u.applyMu.Unlock()

	old := u.store.Get(module)
	if old == nil {
		u.logger.Warn("state: update for unregistered module %q dropped", module)
		return
	}

	merged := old.Clone()
	changed := make(map[string]struct{})
	for key, value := range partial {
		if !force && reflect.DeepEqual(old[key], value) {
			continue
		}
		merged[key] = value
		changed[key] = struct{}{}
	}
	if len(changed) == 0 {
		return
	}

	if force {
		u.deriver.RecomputeAll(module, merged)
	} else {
		u.deriver.Recompute(module, merged, changed)
	}
	u.store.Replace(module, merged, force)
}

func (u *Updater) drain() {
	for {
		select {
		case <-u.quit:
			return
		case <-u.wake:
		}
		for {
			u.mu.Lock()
			if len(u.fifo) == 0 {
				u.draining = false
				u.idle.Broadcast()
				u.mu.Unlock()
				break
			}
			next := u.fifo[0]
			u.fifo = u.fifo[1:]
			u.draining = true
			u.mu.Unlock()
			u.apply(next.module, next.partial, false)
		}
	}
}
