package testutil

import (
	"iter"

	"github.com/hupe1980/agentroom/core"
)

// Collect drains seq, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T

	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}

	return out, nil
}

// Iterations splits envelopes into iterations: a new group starts with
// every envelope flagged IsNewAgent.
func Iterations(envs []*core.Envelope) [][]*core.Envelope {
	var out [][]*core.Envelope

	for _, e := range envs {
		if e.IsNewAgent || len(out) == 0 {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], e)
	}

	return out
}
