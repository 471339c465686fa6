package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hupe1980/agentroom/model"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "commentary", in: "Sure! {\"a\":1} hope that helps", want: `{"a":1}`},
		{name: "nested", in: `x {"a":{"b":2}} y`, want: `{"a":{"b":2}}`},
		{name: "no braces", in: "  nothing  ", want: "nothing"},
		{name: "partial", in: `{"rationale":"still`, want: `{"rationale":"still`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}

func TestExtractField(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		key    string
		want   string
		wantOK bool
	}{
		{name: "simple", text: `{"rationale":"copy is ready","nextAgent":"ArtDirector"}`, key: "nextAgent", want: "ArtDirector", wantOK: true},
		{name: "spaces", text: `{ "nextAgent" :  " CopyWriter " }`, key: "nextAgent", want: "CopyWriter", wantOK: true},
		{name: "escaped quote", text: `{"rationale":"say \"hi\""}`, key: "rationale", want: `say "hi"`, wantOK: true},
		{name: "missing key", text: `{"foo":"bar"}`, key: "nextAgent"},
		{name: "unterminated", text: `{"nextAgent":"Art`, key: "nextAgent"},
		{name: "key as value", text: `{"x":"nextAgent","nextAgent":"Bob"}`, key: "nextAgent", want: "Bob", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractField(tt.text, tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractBool(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{`{"reason":"approved","shouldTerminate":true}`, true},
		{`{"shouldTerminate": True, "reason":"ok"}`, true},
		{`{"shouldTerminate":"true"}`, true},
		{`{"shouldTerminate":false}`, false},
		{`{"shouldTerminate":maybe}`, false},
		{`{"reason":"no key"}`, false},
		{`not json at all`, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractBool(tt.text, "shouldTerminate"), tt.text)
	}

	assert.True(t, HasBool(`{"shouldTerminate":FALSE}`, "shouldTerminate"))
	assert.False(t, HasBool(`{"shouldTerminate":`, "shouldTerminate"))
}

func TestExtractField_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[A-Za-z][A-Za-z0-9]{0,12}`).Draw(rt, "name")
		noise := rapid.StringMatching(`[a-z ]{0,16}`).Draw(rt, "noise")

		text := "```json\n" + noise + `{"rationale":"` + noise + `","nextAgent":"` + name + `"}` + "\n```"

		got, ok := ExtractField(CleanJSON(text), "nextAgent")
		if !ok || got != name {
			rt.Fatalf("got %q (%v), want %q", got, ok, name)
		}
	})
}

func TestStream(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.AddResponse("decide", `<think>hm</think>{"shouldTerminate":true}`)

	var last Snapshot
	n := 0

	for snap, err := range Stream(context.Background(), m, "please decide") {
		require.NoError(t, err)
		last = snap
		n++
	}

	assert.Greater(t, n, 1)
	assert.Equal(t, "please decide", last.Prompt)
	assert.Equal(t, `{"shouldTerminate":true}`, last.Result)
	assert.Equal(t, "<think>hm</think>", last.Reasoning)
}

func TestStream_Error(t *testing.T) {
	boom := errors.New("boom")
	m := model.NewMockModel("mock", "test")
	m.AddError("decide", boom)

	var gotErr error
	for _, err := range Stream(context.Background(), m, "decide") {
		gotErr = err
	}

	assert.ErrorIs(t, gotErr, boom)
}
