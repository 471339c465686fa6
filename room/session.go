package room

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/hupe1980/agentroom/chat"
	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/internal/util"
	"github.com/hupe1980/agentroom/logging"
)

// SessionOptions configure a Session.
type SessionOptions struct {
	// ID identifies the session in logs. A random id is used when empty.
	ID     string
	Logger logging.Logger
	// ChatOptions are applied to every chat the session builds.
	ChatOptions []func(o *chat.Options)
}

type roomState struct {
	chat   *chat.Chat
	busy   bool
	cancel context.CancelFunc
	done   chan struct{}
}

// Session owns one chat per room for a single client. Each room has its own
// history; at most one loop per room runs at a time.
type Session struct {
	id       string
	registry *Registry
	logger   logging.Logger
	chatOpts []func(o *chat.Options)

	mu     sync.Mutex
	rooms  map[string]*roomState
	closed bool
}

// NewSession creates a session backed by the registry.
func (r *Registry) NewSession(optFns ...func(o *SessionOptions)) *Session {
	opts := SessionOptions{Logger: r.opts.Logger}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ID == "" {
		opts.ID = util.NewID()
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Session{
		id:       opts.ID,
		registry: r,
		logger:   opts.Logger,
		chatOpts: opts.ChatOptions,
		rooms:    map[string]*roomState{},
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// room returns the state for name, building the chat on first use.
// Callers hold s.mu.
func (s *Session) room(name string) (*roomState, error) {
	if s.closed {
		return nil, fmt.Errorf("session %s: %w: closed", s.id, core.ErrInvalidState)
	}

	def, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("room %q: %w: not found", name, core.ErrInvalidState)
	}

	key := strings.ToLower(def.Name)
	if rs, ok := s.rooms[key]; ok {
		return rs, nil
	}

	c, err := s.registry.NewChat(def.Name, s.chatOpts...)
	if err != nil {
		return nil, err
	}

	rs := &roomState{chat: c}
	s.rooms[key] = rs

	return rs, nil
}

// Chat returns the chat for the named room, building it if needed.
func (s *Session) Chat(roomName string) (*chat.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.room(roomName)
	if err != nil {
		return nil, err
	}

	return rs.chat, nil
}

// Busy reports whether a loop is running in the named room.
func (s *Session) Busy(roomName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.rooms[strings.ToLower(strings.TrimSpace(roomName))]
	return ok && rs.busy
}

// Send appends text as a user message to the room's history and returns the
// turn loop as a sequence. The room stays busy until the sequence has been
// consumed or abandoned; the sequence must be ranged over exactly once.
func (s *Session) Send(ctx context.Context, roomName, text string) (iter.Seq2[*core.Envelope, error], error) {
	s.mu.Lock()

	rs, err := s.room(roomName)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if rs.busy {
		s.mu.Unlock()
		return nil, fmt.Errorf("room %q: %w", roomName, core.ErrTurnInProgress)
	}

	if err := rs.chat.Store().AppendMessage(core.UserAuthor, text); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	rs.busy = true
	rs.cancel = cancel
	rs.done = done

	s.mu.Unlock()

	var once sync.Once

	release := func() {
		once.Do(func() {
			cancel()

			s.mu.Lock()
			rs.busy = false
			rs.cancel = nil
			rs.done = nil
			s.mu.Unlock()

			close(done)
		})
	}

	s.logger.Debug("session.send", "session", s.id, "room", roomName)

	return func(yield func(*core.Envelope, error) bool) {
		defer release()

		for env, err := range rs.chat.Stream(loopCtx) {
			if !yield(env, err) {
				return
			}
		}
	}, nil
}

// Cancel stops the running loop of the named room. It reports whether a loop
// was running.
func (s *Session) Cancel(roomName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.rooms[strings.ToLower(strings.TrimSpace(roomName))]
	if !ok || !rs.busy || rs.cancel == nil {
		return false
	}

	rs.cancel()
	s.logger.Info("session.cancel", "session", s.id, "room", roomName)

	return true
}

// Reset cancels any running loop of the room, waits for it to finish and
// clears the room's history.
func (s *Session) Reset(ctx context.Context, roomName string) error {
	s.mu.Lock()

	rs, err := s.room(roomName)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	done := rs.done
	if rs.cancel != nil {
		rs.cancel()
	}

	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	rs.chat.Store().Reset()
	s.logger.Info("session.reset", "session", s.id, "room", roomName)

	return nil
}

// Close cancels every running loop. The session rejects further use.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rs := range s.rooms {
		if rs.cancel != nil {
			rs.cancel()
		}
	}

	s.closed = true
}
