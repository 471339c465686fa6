package strategy

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/decision"
	"github.com/hupe1980/agentroom/history"
	"github.com/hupe1980/agentroom/internal/util"
	"github.com/hupe1980/agentroom/model"
)

// TextSelection asks a model which agent should speak next.
//
// Stages written: select-history (per filter snapshot), select-content
// (per decision chunk) and select-decision (once, with the rationale).
type TextSelection struct {
	model    model.Model
	criteria string
	opts     Options
}

// NewTextSelection creates a model backed selector using criteria as the
// selection rules.
func NewTextSelection(m model.Model, criteria string, optFns ...func(o *Options)) *TextSelection {
	return &TextSelection{model: m, criteria: criteria, opts: newOptions(optFns)}
}

// SelectNext implements Selector.
func (s *TextSelection) SelectNext(
	ctx context.Context,
	env *core.Envelope,
	agents []*core.Agent,
	msgs []core.Message,
) iter.Seq2[*core.Agent, error] {
	return func(yield func(*core.Agent, error) bool) {
		if len(agents) == 0 {
			yield(nil, fmt.Errorf("selection: %w: no agents", core.ErrInvalidState))
			return
		}

		historyJSON := ""

		for r, err := range history.Filter(ctx, s.model, s.opts.Preconditions, s.opts.Filter, msgs) {
			if err != nil {
				yield(nil, fmt.Errorf("selection: %w", err))
				return
			}

			env.SetStage(core.StageSelectHistory, core.StagePayload{Prompt: r.Prompt, Content: r.JSON, Reason: r.Reason})
			historyJSON = r.JSON

			if !yield(nil, nil) {
				return
			}
		}

		names := make([]string, len(agents))
		for i, a := range agents {
			names[i] = a.Name
		}

		prompt, err := util.RenderTemplate(selectionPrompt, map[string]any{
			"History":  historyJSON,
			"Agents":   names,
			"Criteria": s.criteria,
		})
		if err != nil {
			yield(nil, fmt.Errorf("selection: %w", err))
			return
		}

		decisionText := ""
		start := time.Now()

		for snap, err := range decision.Stream(ctx, s.model, prompt) {
			if err != nil {
				s.opts.Metrics.RecordModelCall("selection", time.Since(start), err)
				yield(nil, fmt.Errorf("selection: %w: %w", core.ErrUpstreamCompletion, err))

				return
			}

			env.SetStage(core.StageSelectContent, core.StagePayload{Prompt: snap.Prompt, Content: snap.Result, Reason: snap.Reasoning})
			decisionText = snap.Result

			if !yield(nil, nil) {
				return
			}
		}

		s.opts.Metrics.RecordModelCall("selection", time.Since(start), nil)

		d, ok := ParseSelection(decisionText)
		selected, found := core.FindAgent(agents, d.NextAgent)

		if !ok || !found {
			s.opts.Logger.Warn("strategy.selection.fallback",
				"error", core.ErrMalformedDecision.Error(),
				"next_agent", d.NextAgent,
				"fallback", agents[0].Name,
			)
			s.opts.Metrics.RecordMalformedDecision("selection")

			selected = agents[0]
		}

		env.SetStage(core.StageSelectDecision, core.StagePayload{
			Prompt:  decisionText,
			Content: d.Rationale,
			Reason:  core.ReasonCode,
		})

		s.opts.Logger.Debug("strategy.selection.decided", "agent", selected.Name, "rationale", d.Rationale)

		yield(selected, nil)
	}
}
