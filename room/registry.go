package room

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentroom/chat"
	"github.com/hupe1980/agentroom/conversation"
	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/logging"
	"github.com/hupe1980/agentroom/metrics"
	"github.com/hupe1980/agentroom/model"
	"github.com/hupe1980/agentroom/strategy"
)

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	// MaxIterations applies to rooms that do not set their own cap.
	MaxIterations int
	Logger        logging.Logger
	Metrics       *metrics.Collector
}

// Registry holds room definitions in registration order. It is safe for
// concurrent use.
type Registry struct {
	model model.Model
	opts  RegistryOptions

	mu    sync.RWMutex
	rooms []Definition
	index map[string]int
}

// NewRegistry creates a registry. m drives the text strategies of all rooms.
func NewRegistry(m model.Model, optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		MaxIterations: strategy.DefaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Registry{model: m, opts: opts, index: map[string]int{}}
}

// Add validates def and registers it. Names are unique ignoring case.
func (r *Registry) Add(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	if _, err := def.buildSelector(r.model); err != nil {
		return err
	}

	if _, err := def.buildTerminator(r.model, r.maxIterations(def)); err != nil {
		return err
	}

	key := strings.ToLower(def.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.index[key]; dup {
		return fmt.Errorf("room %q: %w: already registered", def.Name, core.ErrInvalidState)
	}

	r.index[key] = len(r.rooms)
	r.rooms = append(r.rooms, def)

	r.opts.Logger.Info("room.registered", "room", def.Name, "agents", len(def.Agents))

	return nil
}

// Get returns the definition registered under name, ignoring case.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Definition{}, false
	}

	return r.rooms[i], true
}

// List returns room summaries in registration order.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, len(r.rooms))
	for i, d := range r.rooms {
		out[i] = d.Summary()
	}

	return out
}

// Len returns the number of rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) maxIterations(def Definition) int {
	if def.MaxIterations > 0 {
		return def.MaxIterations
	}
	return r.opts.MaxIterations
}

// NewChat builds a fresh chat with empty history for the named room.
func (r *Registry) NewChat(name string, optFns ...func(o *chat.Options)) (*chat.Chat, error) {
	def, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("room %q: %w: not found", name, core.ErrInvalidState)
	}

	store, err := conversation.NewInMemoryStore(def.Agents...)
	if err != nil {
		return nil, err
	}

	strategyOpts := []func(o *strategy.Options){
		strategy.WithLogger(r.opts.Logger),
		strategy.WithMetrics(r.opts.Metrics),
	}

	selector, err := def.buildSelector(r.model, strategyOpts...)
	if err != nil {
		return nil, err
	}

	terminator, err := def.buildTerminator(r.model, r.maxIterations(def), strategyOpts...)
	if err != nil {
		return nil, err
	}

	chatOpts := append([]func(o *chat.Options){func(o *chat.Options) {
		o.Room = def.Name
		o.Logger = r.opts.Logger
		o.Metrics = r.opts.Metrics
	}}, optFns...)

	return chat.New(store, selector, terminator, chatOpts...)
}
