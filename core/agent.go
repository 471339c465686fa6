package core

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentroom/model"
)

// DefaultAgentEmoji is used for agents without a configured emoji.
const DefaultAgentEmoji = "🤖"

// Agent is an immutable participant descriptor. Name is unique within a room
// (case-insensitive); Instructions are appended to every prompt the agent
// receives; Model produces the agent's replies.
type Agent struct {
	Name         string
	Instructions string
	Emoji        string
	Model        model.Model
}

// Validate reports whether the descriptor is usable in a roster.
func (a *Agent) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil agent", ErrInvalidState)
	}

	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: agent name is empty", ErrInvalidState)
	}

	if strings.TrimSpace(a.Instructions) == "" {
		return fmt.Errorf("%w: agent %q has no instructions", ErrInvalidState, a.Name)
	}

	return nil
}

// DisplayEmoji returns the configured emoji or DefaultAgentEmoji.
func (a *Agent) DisplayEmoji() string {
	if a.Emoji == "" {
		return DefaultAgentEmoji
	}
	return a.Emoji
}

// Roster is an ordered set of agents with case-insensitive name lookup.
// Insertion order is preserved; it is the order used for fallbacks.
type Roster struct {
	agents []*Agent
	index  map[string]int
}

// NewRoster validates agents and builds a roster. Duplicate names
// (case-insensitive) and an empty agent list are rejected.
func NewRoster(agents ...*Agent) (*Roster, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w: roster needs at least one agent", ErrInvalidState)
	}

	r := &Roster{
		agents: make([]*Agent, 0, len(agents)),
		index:  make(map[string]int, len(agents)),
	}

	for _, a := range agents {
		if err := a.Validate(); err != nil {
			return nil, err
		}

		key := nameKey(a.Name)
		if _, dup := r.index[key]; dup {
			return nil, fmt.Errorf("%w: duplicate agent name %q", ErrInvalidState, a.Name)
		}

		r.index[key] = len(r.agents)
		r.agents = append(r.agents, a)
	}

	return r, nil
}

// Lookup finds an agent by name, ignoring case and surrounding whitespace.
func (r *Roster) Lookup(name string) (*Agent, bool) {
	if r == nil {
		return nil, false
	}

	i, ok := r.index[nameKey(name)]
	if !ok {
		return nil, false
	}

	return r.agents[i], true
}

// Agents returns a copy of the agents in insertion order.
func (r *Roster) Agents() []*Agent {
	if r == nil {
		return nil
	}
	return append([]*Agent(nil), r.agents...)
}

// Len returns the number of agents.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.agents)
}

// FindAgent resolves name against agents with the same rule as
// Roster.Lookup.
func FindAgent(agents []*Agent, name string) (*Agent, bool) {
	key := nameKey(name)
	if key == "" {
		return nil, false
	}

	for _, a := range agents {
		if nameKey(a.Name) == key {
			return a, true
		}
	}

	return nil, false
}

// nameKey is the single case-folding rule for agent names.
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
