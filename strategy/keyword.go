package strategy

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/hupe1980/agentroom/core"
)

// KeywordTermination completes the conversation once the latest message
// contains any of the configured keywords (case-insensitive).
type KeywordTermination struct {
	keywords []string
	opts     Options
}

// NewKeywordTermination creates a deterministic terminator.
func NewKeywordTermination(keywords []string, optFns ...func(o *Options)) *KeywordTermination {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, strings.ToLower(k))
		}
	}

	return &KeywordTermination{keywords: kw, opts: newOptions(optFns)}
}

// MaxIterations implements Terminator.
func (t *KeywordTermination) MaxIterations() int { return t.opts.MaxIterations }

// ShouldTerminate implements Terminator.
func (t *KeywordTermination) ShouldTerminate(
	_ context.Context,
	env *core.Envelope,
	_ *core.Agent,
	msgs []core.Message,
) iter.Seq2[bool, error] {
	return func(yield func(bool, error) bool) {
		text := ""
		if len(msgs) > 0 {
			text = msgs[len(msgs)-1].Text
		}

		lower := strings.ToLower(text)
		matched := ""

		for _, k := range t.keywords {
			if strings.Contains(lower, k) {
				matched = k
				break
			}
		}

		reason := "no keyword found in the last message"
		if matched != "" {
			reason = fmt.Sprintf("the last message contains %q", matched)
		}

		env.SetStage(core.StageTerminateDecision, core.StagePayload{
			Prompt:  text,
			Content: verdict(matched != "") + reason,
			Reason:  core.ReasonCode,
		})

		yield(matched != "", nil)
	}
}
