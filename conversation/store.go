package conversation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentroom/core"
)

// Store is the ordered history plus roster of one room.
type Store interface {
	// AppendMessage adds a message to the end of history.
	AppendMessage(author, text string) error
	// Reset clears history; the roster is kept.
	Reset()
	// InitRoster sets the roster once; later calls fail.
	InitRoster(agents ...*core.Agent) error
	// Agents returns the roster in insertion order.
	Agents() []*core.Agent
	// History returns a copy of the messages.
	History() []core.Message
	// Len returns the number of messages.
	Len() int
	// Last returns the latest message.
	Last() (core.Message, bool)
}

// InMemoryStore is a volatile Store. Every accessor returns copies so
// callers never alias internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	roster  *core.Roster
	history []core.Message
}

// NewInMemoryStore creates a store and initializes its roster when agents
// are given.
func NewInMemoryStore(agents ...*core.Agent) (*InMemoryStore, error) {
	s := &InMemoryStore{history: []core.Message{}}

	if len(agents) > 0 {
		if err := s.InitRoster(agents...); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// AppendMessage adds a message authored by author. It fails with
// core.ErrInvalidState before InitRoster or when author is blank.
func (s *InMemoryStore) AppendMessage(author, text string) error {
	if strings.TrimSpace(author) == "" {
		return fmt.Errorf("%w: message author is empty", core.ErrInvalidState)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roster == nil {
		return fmt.Errorf("%w: roster not initialized", core.ErrInvalidState)
	}

	s.history = append(s.history, core.Message{Author: author, Text: text})

	return nil
}

// Reset swaps history for an empty slice. Previously returned copies are
// unaffected.
func (s *InMemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = []core.Message{}
}

// InitRoster validates and installs agents. The roster is read-only once
// set: a second call fails with core.ErrInvalidState and the first roster
// stays in place.
func (s *InMemoryStore) InitRoster(agents ...*core.Agent) error {
	r, err := core.NewRoster(agents...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roster != nil {
		return fmt.Errorf("%w: roster already initialized", core.ErrInvalidState)
	}

	s.roster = r

	return nil
}

// Agents returns the roster in insertion order.
func (s *InMemoryStore) Agents() []*core.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Agents()
}

// Lookup resolves an agent name case-insensitively.
func (s *InMemoryStore) Lookup(name string) (*core.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Lookup(name)
}

// History returns a copy of all messages.
func (s *InMemoryStore) History() []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Message(nil), s.history...)
}

// Len returns the number of messages.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Last returns the latest message, if any.
func (s *InMemoryStore) Last() (core.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return core.Message{}, false
	}

	return s.history[len(s.history)-1], true
}
