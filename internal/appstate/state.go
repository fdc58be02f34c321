package appstate

import (
	"sync"

	"github.com/muurk/bankconnect/internal/node"
)

// Listener receives the active bank config each time it changes (nil when cleared)
type Listener func(*node.BankConfig)

// State holds application-wide state that screens observe but do not own.
// Setters notify subscribers synchronously, outside the lock.
type State struct {
	mu              sync.RWMutex
	activeBank      *node.BankConfig
	activeValidator *node.ValidatorConfig
	listeners       map[int]Listener
	nextID          int
}

// New creates an empty state with no active bank
func New() *State {
	return &State{listeners: make(map[int]Listener)}
}

// ActiveBankConfig is the selector for the connected bank, nil when none
func (s *State) ActiveBankConfig() *node.BankConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeBank
}

// ActiveValidatorConfig returns the active bank's primary validator, if known
func (s *State) ActiveValidatorConfig() *node.ValidatorConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeValidator
}

// SetActiveBank publishes a newly connected bank.
// Each call installs a new reference, so observers see it as a change.
func (s *State) SetActiveBank(cfg *node.BankConfig, validator *node.ValidatorConfig) {
	s.mu.Lock()
	s.activeBank = cfg
	s.activeValidator = validator
	listeners := s.snapshot()
	s.mu.Unlock()

	for _, l := range listeners {
		l(cfg)
	}
}

// ClearActiveBank forgets the active bank
func (s *State) ClearActiveBank() {
	s.SetActiveBank(nil, nil)
}

// Subscribe registers l and returns a function that removes it.
// The unsubscribe function is idempotent.
func (s *State) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// SubscriberCount returns the number of registered listeners
func (s *State) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

func (s *State) snapshot() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}
