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

// TextTermination asks a model whether condition holds for the conversation.
//
// Stages written: terminate-history, terminate-content and
// terminate-decision (content prefixed "True: " or "False: ").
type TextTermination struct {
	model     model.Model
	condition string
	opts      Options
}

// NewTextTermination creates a model backed terminator.
func NewTextTermination(m model.Model, condition string, optFns ...func(o *Options)) *TextTermination {
	return &TextTermination{model: m, condition: condition, opts: newOptions(optFns)}
}

// MaxIterations implements Terminator.
func (t *TextTermination) MaxIterations() int { return t.opts.MaxIterations }

// ShouldTerminate implements Terminator.
func (t *TextTermination) ShouldTerminate(
	ctx context.Context,
	env *core.Envelope,
	agent *core.Agent,
	msgs []core.Message,
) iter.Seq2[bool, error] {
	return func(yield func(bool, error) bool) {
		historyJSON := ""

		for r, err := range history.Filter(ctx, t.model, t.opts.Preconditions, t.opts.Filter, msgs) {
			if err != nil {
				yield(false, fmt.Errorf("termination: %w", err))
				return
			}

			env.SetStage(core.StageTerminateHistory, core.StagePayload{Prompt: r.Prompt, Content: r.JSON, Reason: r.Reason})
			historyJSON = r.JSON

			if !yield(false, nil) {
				return
			}
		}

		prompt, err := util.RenderTemplate(terminationPrompt, map[string]any{
			"Condition": t.condition,
			"History":   historyJSON,
		})
		if err != nil {
			yield(false, fmt.Errorf("termination: %w", err))
			return
		}

		decisionText := ""
		start := time.Now()

		for snap, err := range decision.Stream(ctx, t.model, prompt) {
			if err != nil {
				t.opts.Metrics.RecordModelCall("termination", time.Since(start), err)
				yield(false, fmt.Errorf("termination: %w: %w", core.ErrUpstreamCompletion, err))

				return
			}

			env.SetStage(core.StageTerminateContent, core.StagePayload{Prompt: snap.Prompt, Content: snap.Result, Reason: snap.Reasoning})
			decisionText = snap.Result

			if !yield(false, nil) {
				return
			}
		}

		t.opts.Metrics.RecordModelCall("termination", time.Since(start), nil)

		d, ok := ParseTermination(decisionText)
		if !ok {
			t.opts.Logger.Warn("strategy.termination.fallback", "error", core.ErrMalformedDecision.Error(), "fallback", false)
			t.opts.Metrics.RecordMalformedDecision("termination")
		}

		env.SetStage(core.StageTerminateDecision, core.StagePayload{
			Prompt:  decisionText,
			Content: verdict(d.ShouldTerminate) + d.Reason,
			Reason:  core.ReasonCode,
		})

		name := ""
		if agent != nil {
			name = agent.Name
		}

		t.opts.Logger.Debug("strategy.termination.decided", "agent", name, "terminate", d.ShouldTerminate)

		yield(d.ShouldTerminate, nil)
	}
}

func verdict(b bool) string {
	if b {
		return "True: "
	}
	return "False: "
}
