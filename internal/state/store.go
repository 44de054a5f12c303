package state

import (
	"reflect"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Store is the fact store: one document per registered module name. All
// mutation flows through it; every commit schedules an asynchronous change
// notification through the notifier, never a synchronous one.
type Store struct {
	logger   runtime.Logger
	notifier *Notifier

	mu      sync.RWMutex
	docs    map[string]Document
	schemas map[string]Schema
}

// NewStore constructs an empty store committing through the given notifier.
func NewStore(logger runtime.Logger, notifier *Notifier) *Store {
	return &Store{
		logger:   logger,
		notifier: notifier,
		docs:     make(map[string]Document),
		schemas:  make(map[string]Schema),
	}
}

// Register creates the module document with its initial value and schema.
// Registering an already-registered module logs and is a no-op; the existing
// document is never overwritten.
func (s *Store) Register(module string, initial Document, schema Schema) {
	s.mu.Lock()
	if _, ok := s.docs[module]; ok {
		s.mu.Unlock()
		s.logger.Warn("state: module %q already registered", module)
		return
	}
	s.docs[module] = initial.Clone()
	s.schemas[module] = schema
	s.mu.Unlock()
	s.notifier.Signal(module)
}

// Get returns a copy of the module document, or nil when unregistered.
func (s *Store) Get(module string) Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[module]
	if !ok {
		return nil
	}
	return doc.Clone()
}

// Registered reports whether the module has a document.
func (s *Store) Registered(module string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[module]
	return ok
}

// Replace swaps the whole module document. Without force, a structurally
// equal replacement is suppressed: nothing commits and no notification fires.
// It reports whether a commit happened.
func (s *Store) Replace(module string, doc Document, force bool) bool {
	s.mu.Lock()
	current, ok := s.docs[module]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("state: replace on unregistered module %q dropped", module)
		return false
	}
	if !force && reflect.DeepEqual(current, doc) {
		s.mu.Unlock()
		return false
	}
	s.docs[module] = doc.Clone()
	s.mu.Unlock()
	s.notifier.Signal(module)
	return true
}

// Unregister drops the module document. Rarely used outside teardown.
func (s *Store) Unregister(module string) {
	s.mu.Lock()
	if _, ok := s.docs[module]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.docs, module)
	delete(s.schemas, module)
	s.mu.Unlock()
	s.notifier.Signal(module)
}

func (s *Store) schema(module string) (Schema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.schemas[module]
	return schema, ok
}
