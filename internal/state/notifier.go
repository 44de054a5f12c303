package state

import (
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Notifier delivers document change signals to observers. Commits never
// invoke callbacks inline: pending module names are drained by a single
// dispatcher goroutine, so a mutation triggered during a render pass cannot
// re-enter rendering synchronously. Repeated commits to one module before the
// dispatcher runs collapse into a single delivery.
type Notifier struct {
	logger runtime.Logger

	mu         sync.Mutex
	idle       *sync.Cond
	observers  map[string]map[int]func(module string)
	nextToken  int
	pending    map[string]struct{}
	delivering bool
	closed     bool

	wake chan struct{}
	quit chan struct{}
}

// NewNotifier constructs a notifier and starts its dispatcher.
func NewNotifier(logger runtime.Logger) *Notifier {
	n := &Notifier{
		logger:    logger,
		observers: make(map[string]map[int]func(string)),
		pending:   make(map[string]struct{}),
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
	}
	n.idle = sync.NewCond(&n.mu)
	go n.dispatch()
	return n
}

// Subscribe registers a callback for changes to the module's document. The
// callback carries no payload; observers re-read the document. The returned
// function unsubscribes.
func (n *Notifier) Subscribe(module string, cb func(module string)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.observers[module] == nil {
		n.observers[module] = make(map[int]func(string))
	}
	token := n.nextToken
	n.nextToken++
	n.observers[module][token] = cb
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.observers[module], token)
	}
}

// Signal schedules a change notification for the module.
func (n *Notifier) Signal(module string) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.pending[module] = struct{}{}
	n.mu.Unlock()
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every pending notification has been delivered.
func (n *Notifier) Flush() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for len(n.pending) > 0 || n.delivering {
		n.idle.Wait()
	}
}

// Close stops the dispatcher. Pending notifications are dropped.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()
	close(n.quit)
}

func (n *Notifier) dispatch() {
	for {
		select {
		case <-n.quit:
			return
		case <-n.wake:
		}
		for {
			n.mu.Lock()
			if len(n.pending) == 0 {
				n.delivering = false
				n.idle.Broadcast()
				n.mu.Unlock()
				break
			}
			var module string
			for m := range n.pending {
				module = m
				break
			}
			delete(n.pending, module)
			n.delivering = true
			cbs := make([]func(string), 0, len(n.observers[module]))
			for _, cb := range n.observers[module] {
				cbs = append(cbs, cb)
			}
			n.mu.Unlock()
			for _, cb := range cbs {
				n.deliver(module, cb)
			}
		}
	}
}

// deliver invokes one observer callback, containing any panic so a broken
// observer cannot take down the dispatcher.
func (n *Notifier) deliver(module string, cb func(string)) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("state: observer for module %q panicked: %v", module, r)
		}
	}()
	cb(module)
}
