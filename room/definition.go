package room

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/internal/util"
	"github.com/hupe1980/agentroom/model"
	"github.com/hupe1980/agentroom/strategy"
)

// Strategy types understood by StrategySpec.
const (
	StrategyText       = "text"
	StrategyRoundRobin = "round-robin"
	StrategyKeyword    = "keyword"
)

// StrategySpec declares a selection or termination strategy.
type StrategySpec struct {
	// Type is text (default), round-robin (selection) or keyword (termination).
	Type string
	// Description holds the selection criteria or the termination condition.
	Description   string
	Preconditions []string
	Filter        string
	Keywords      []string
}

// IsZero reports whether nothing was configured.
func (s StrategySpec) IsZero() bool {
	return s.Type == "" && s.Description == "" && len(s.Keywords) == 0
}

func (s StrategySpec) kind() string {
	if s.Type == "" {
		return StrategyText
	}
	return strings.ToLower(s.Type)
}

// Definition describes a room.
type Definition struct {
	Name          string
	Emoji         string
	Agents        []*core.Agent
	Selection     StrategySpec
	Termination   StrategySpec
	MaxIterations int
}

// AgentSummary is the public profile of an agent.
type AgentSummary struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// Summary is the public profile of a room.
type Summary struct {
	Name   string         `json:"name"`
	Emoji  string         `json:"emoji"`
	Agents []AgentSummary `json:"agents"`
}

// Summary returns the room profile.
func (d Definition) Summary() Summary {
	agents := make([]AgentSummary, len(d.Agents))
	for i, a := range d.Agents {
		agents[i] = AgentSummary{Name: a.Name, Emoji: a.DisplayEmoji()}
	}

	return Summary{Name: d.Name, Emoji: d.Emoji, Agents: agents}
}

// Agent finds an agent by name, ignoring case.
func (d Definition) Agent(name string) (*core.Agent, bool) {
	return core.FindAgent(d.Agents, name)
}

// Validate checks the definition without building anything.
func (d Definition) Validate() error {
	var v util.Validator

	v.NotBlank("name", d.Name)
	v.Check(len(d.Agents) > 0, "agents", len(d.Agents), "at least one agent is required")
	v.Check(!d.Selection.IsZero(), "selection", d.Selection, "selection strategy is not configured")
	v.Check(!d.Termination.IsZero(), "termination", d.Termination, "termination strategy is not configured")
	v.Check(d.MaxIterations >= 0, "max-iterations", d.MaxIterations, "must not be negative")

	if !d.Selection.IsZero() {
		v.OneOf("selection.type", d.Selection.kind(), StrategyText, StrategyRoundRobin)
		if d.Selection.kind() == StrategyText {
			v.NotBlank("selection.description", d.Selection.Description)
		}
	}

	if !d.Termination.IsZero() {
		v.OneOf("termination.type", d.Termination.kind(), StrategyText, StrategyKeyword)
		switch d.Termination.kind() {
		case StrategyText:
			v.NotBlank("termination.description", d.Termination.Description)
		case StrategyKeyword:
			v.Check(len(d.Termination.Keywords) > 0, "termination.keywords", d.Termination.Keywords, "at least one keyword is required")
		}
	}

	if len(d.Agents) > 0 {
		if _, err := core.NewRoster(d.Agents...); err != nil {
			v.Check(false, "agents", len(d.Agents), "%v", err)
		}
	}

	if err := v.Err(); err != nil {
		return fmt.Errorf("room %q: %w: %w", d.Name, core.ErrInvalidState, err)
	}

	return nil
}

func (d Definition) buildSelector(m model.Model, optFns ...func(o *strategy.Options)) (strategy.Selector, error) {
	spec := d.Selection
	optFns = append(optFns, func(o *strategy.Options) {
		o.Preconditions = spec.Preconditions
		o.Filter = spec.Filter
	})

	switch spec.kind() {
	case StrategyRoundRobin:
		return strategy.NewRoundRobinSelection(optFns...), nil
	case StrategyText:
		if m == nil {
			return nil, fmt.Errorf("room %q: %w: text selection needs a model", d.Name, core.ErrInvalidState)
		}
		return strategy.NewTextSelection(m, spec.Description, optFns...), nil
	default:
		return nil, fmt.Errorf("room %q: %w: unknown selection type %q", d.Name, core.ErrInvalidState, spec.Type)
	}
}

func (d Definition) buildTerminator(m model.Model, maxIterations int, optFns ...func(o *strategy.Options)) (strategy.Terminator, error) {
	spec := d.Termination
	optFns = append(optFns, func(o *strategy.Options) {
		o.Preconditions = spec.Preconditions
		o.Filter = spec.Filter
		o.MaxIterations = maxIterations
	})

	switch spec.kind() {
	case StrategyKeyword:
		return strategy.NewKeywordTermination(spec.Keywords, optFns...), nil
	case StrategyText:
		if m == nil {
			return nil, fmt.Errorf("room %q: %w: text termination needs a model", d.Name, core.ErrInvalidState)
		}
		return strategy.NewTextTermination(m, spec.Description, optFns...), nil
	default:
		return nil, fmt.Errorf("room %q: %w: unknown termination type %q", d.Name, core.ErrInvalidState, spec.Type)
	}
}
