package decision

import (
	"context"
	"iter"
	"strings"

	"github.com/hupe1980/agentroom/model"
	"github.com/hupe1980/agentroom/reasoning"
)

// Snapshot is the state of a streamed decision after one chunk.
// Result and Reasoning are recomputed from the whole buffer.
type Snapshot struct {
	Prompt    string
	Result    string
	Reasoning string
}

// Stream sends prompt to m and yields a snapshot per received chunk.
// A model error is yielded once and ends the sequence.
func Stream(ctx context.Context, m model.Model, prompt string) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		var buf strings.Builder

		for chunk, err := range model.StreamText(ctx, m, prompt) {
			if err != nil {
				yield(Snapshot{Prompt: prompt}, err)
				return
			}

			buf.WriteString(chunk)
			answer, thought := reasoning.Split(buf.String())

			if !yield(Snapshot{Prompt: prompt, Result: answer, Reasoning: thought}, nil) {
				return
			}
		}
	}
}
