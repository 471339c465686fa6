package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelope_StagesCanonicalOrder(t *testing.T) {
	env := NewEnvelope()
	env.SetStage(StageAgent, StagePayload{Content: "hi"})
	env.SetStage(StageSelectHistory, StagePayload{Prompt: "code"})
	env.SetStage(StageTerminateDecision, StagePayload{Content: "False: no"})

	assert.Equal(t, []Stage{StageSelectHistory, StageAgent, StageTerminateDecision}, env.Stages())

	p, ok := env.Stage(StageAgent)
	assert.True(t, ok)
	assert.Equal(t, "hi", p.Content)
}

func TestEnvelope_CloneIsIndependent(t *testing.T) {
	env := NewEnvelope()
	env.AgentName = "CopyWriter"
	env.SetStage(StageAgent, StagePayload{Content: "a"})

	snap := env.Clone()
	env.SetStage(StageAgent, StagePayload{Content: "ab"})
	env.SetStage(StageTerminateHistory, StagePayload{})

	p, _ := snap.Stage(StageAgent)
	assert.Equal(t, "a", p.Content)
	assert.Len(t, snap.Hints, 1)
	assert.Equal(t, "CopyWriter", snap.AgentName)
}

func TestEnvelope_ZeroValueSetStage(t *testing.T) {
	var env Envelope
	env.SetStage(StageAgent, StagePayload{})
	assert.Len(t, env.Hints, 1)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("room: %w", ErrInvalidState), "InvalidState"},
		{ErrTurnInProgress, "InvalidState"},
		{ErrNoAgentSelected, "NoAgentSelected"},
		{fmt.Errorf("agent: %w", ErrUpstreamCompletion), "UpstreamCompletionFailure"},
		{ErrMalformedDecision, "MalformedDecision"},
		{context.Canceled, "Cancelled"},
		{errors.New("x"), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}
