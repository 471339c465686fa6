package strategy

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/hupe1980/agentroom/core"
)

// ReasonRoundRobin marks decisions taken by RoundRobinSelection.
const ReasonRoundRobin = "round-robin"

// RoundRobinSelection hands the turn to the agent after the last speaker,
// starting with the first agent after a user message.
type RoundRobinSelection struct {
	opts Options
}

// NewRoundRobinSelection creates a deterministic selector.
func NewRoundRobinSelection(optFns ...func(o *Options)) *RoundRobinSelection {
	return &RoundRobinSelection{opts: newOptions(optFns)}
}

// SelectNext implements Selector.
func (s *RoundRobinSelection) SelectNext(
	_ context.Context,
	env *core.Envelope,
	agents []*core.Agent,
	msgs []core.Message,
) iter.Seq2[*core.Agent, error] {
	return func(yield func(*core.Agent, error) bool) {
		if len(agents) == 0 {
			yield(nil, fmt.Errorf("selection: %w: no agents", core.ErrInvalidState))
			return
		}

		next := 0
		last := core.UserAuthor

		if len(msgs) > 0 {
			last = msgs[len(msgs)-1].AuthorOrUser()

			for i, a := range agents {
				if strings.EqualFold(a.Name, last) {
					next = (i + 1) % len(agents)
					break
				}
			}
		}

		selected := agents[next]

		env.SetStage(core.StageSelectDecision, core.StagePayload{
			Prompt:  core.ReasonCode,
			Content: fmt.Sprintf("%s spoke last, so %s is next.", last, selected.Name),
			Reason:  ReasonRoundRobin,
		})

		yield(selected, nil)
	}
}
