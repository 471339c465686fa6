package model

import (
	"context"
	"errors"
	"iter"
)

// ErrNoModel is returned when a nil Model is asked to generate.
var ErrNoModel = errors.New("model: no model configured")

// StreamText sends prompt as a single user message and yields the streamed
// text deltas in order. Providers that do not stream yield their final text
// once. A generation error is yielded last. Stopping the iteration early
// cancels the underlying request.
func StreamText(ctx context.Context, m Model, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if m == nil {
			yield("", ErrNoModel)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		respCh, errCh := m.Generate(ctx, Request{
			Contents: []Content{NewTextContent("user", prompt)},
			Stream:   true,
		})

		streamed := false

		for resp := range respCh {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}

			text := resp.Content.Text()

			if resp.Partial {
				if text == "" {
					continue
				}

				streamed = true

				if !yield(text, nil) {
					return
				}

				continue
			}

			if !streamed && text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}

		if err, ok := <-errCh; ok && err != nil {
			yield("", err)
		}
	}
}
