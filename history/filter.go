// Package history prepares a conversation snapshot for decision prompts.
//
// Filter serializes messages into a compact JSON array, optionally narrows it
// with deterministic preconditions and, when a filter instruction is given,
// lets a model reduce it further while streaming progress.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/decision"
	"github.com/hupe1980/agentroom/internal/util"
	"github.com/hupe1980/agentroom/model"
	"github.com/hupe1980/agentroom/reasoning"
)

// Precondition markers understood by Filter (case-insensitive).
const (
	PreconditionLastMessage   = "last message"
	PreconditionRemoveContent = "remove content"
)

// ReasonNoFilter is reported when neither preconditions nor an instruction apply.
const ReasonNoFilter = "no filter"

// Result is one progress snapshot of a filter run.
type Result struct {
	// Prompt is the prompt sent to the model, or "code" when no model was used.
	Prompt string
	// JSON is the (filtered) history snapshot.
	JSON string
	// Reason is the model's reasoning span or a note on what was applied.
	Reason string
}

const filterPrompt = `Task:
Given an array of messages, each with a Name and Content, process the array with the following logic:
{{.Instruction}}

Remove any message that does not meet these criteria.
Expected Output:
   1. Return a JSON array containing only the remaining messages.
   2. No code, just the json array
   3. No explanation on how you found the answer, just the json array
Messages are below:
json
'''
{{.History}}
'''
`

type entry struct {
	Order   int     `json:"Order"`
	Name    string  `json:"Name"`
	Message *string `json:"Message,omitempty"`
}

// Snapshot serializes msgs as [{"Order":n,"Name":author,"Message":text}, ...].
// Order starts at 1, empty authors become "User" and reasoning spans are
// removed from text. With removeContent the Message field is omitted.
func Snapshot(msgs []core.Message, removeContent bool) string {
	entries := make([]entry, len(msgs))

	for i, m := range msgs {
		entries[i] = entry{Order: i + 1, Name: m.AuthorOrUser()}

		if !removeContent {
			text := reasoning.Strip(m.Text)
			entries[i].Message = &text
		}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(entries); err != nil {
		// entries only hold strings and ints
		panic(fmt.Sprintf("history: encode snapshot: %v", err))
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// Filter yields history snapshots for a decision step.
//
//   - no instruction, preconditions given: one result {"code", snapshot,
//     "applied pre-condition: [...]"}
//   - no instruction, no preconditions: one result with Reason "no filter"
//   - otherwise the instruction and snapshot are streamed through m and
//     every chunk yields the answer / reasoning split of the buffer so far
//
// Model errors end the sequence wrapped in core.ErrUpstreamCompletion.
func Filter(
	ctx context.Context,
	m model.Model,
	preconditions []string,
	filterInstruction string,
	msgs []core.Message,
) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		filtered, removeContent := applyPreconditions(preconditions, msgs)
		snapshot := Snapshot(filtered, removeContent)

		if strings.TrimSpace(filterInstruction) == "" {
			reason := ReasonNoFilter
			if len(preconditions) > 0 {
				reason = "applied pre-condition: " + quoteList(preconditions)
			}

			yield(Result{Prompt: core.ReasonCode, JSON: snapshot, Reason: reason}, nil)

			return
		}

		prompt, err := util.RenderTemplate(filterPrompt, map[string]any{
			"Instruction": filterInstruction,
			"History":     snapshot,
		})
		if err != nil {
			yield(Result{}, err)
			return
		}

		for snap, err := range decision.Stream(ctx, m, prompt) {
			if err != nil {
				yield(Result{Prompt: prompt}, fmt.Errorf("history filter: %w: %w", core.ErrUpstreamCompletion, err))
				return
			}

			if !yield(Result{Prompt: prompt, JSON: snap.Result, Reason: snap.Reasoning}, nil) {
				return
			}
		}
	}
}

func applyPreconditions(preconditions []string, msgs []core.Message) ([]core.Message, bool) {
	filtered := msgs
	removeContent := false

	for _, p := range preconditions {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case PreconditionLastMessage:
			if len(msgs) > 0 {
				filtered = msgs[len(msgs)-1:]
			}
		case PreconditionRemoveContent:
			removeContent = true
		}
	}

	return filtered, removeContent
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = `"` + s + `"`
	}
	return "[" + strings.Join(quoted, ",") + "]"
}
