package model

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, seq func(func(string, error) bool)) ([]string, error) {
	t.Helper()

	var chunks []string
	for chunk, err := range seq {
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func TestMockModel_MatchesBySubstring(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.AddResponse("nextAgent", `{"nextAgent":"Writer"}`)
	m.SetDefault("plain")

	chunks, err := collect(t, StreamText(context.Background(), m, `... reply with "nextAgent" ...`))
	require.NoError(t, err)
	assert.Equal(t, `{"nextAgent":"Writer"}`, strings.Join(chunks, ""))
	assert.Len(t, chunks, len(`{"nextAgent":"Writer"}`))

	chunks, err = collect(t, StreamText(context.Background(), m, "anything else"))
	require.NoError(t, err)
	assert.Equal(t, "plain", strings.Join(chunks, ""))
	assert.Equal(t, 2, m.CallCount())
}

func TestMockModel_ResponsesInOrder(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.AddResponses("q", "first", "second")
	m.SetChunkSize(100)

	for _, want := range []string{"first", "second", "second"} {
		chunks, err := collect(t, StreamText(context.Background(), m, "q"))
		require.NoError(t, err)
		assert.Equal(t, []string{want}, chunks)
	}
}

func TestStreamText_Error(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockModel("mock", "test")
	m.AddError("fail", boom)

	chunks, err := collect(t, StreamText(context.Background(), m, "please fail"))
	assert.Empty(t, chunks)
	assert.ErrorIs(t, err, boom)
}

func TestStreamText_NilModel(t *testing.T) {
	_, err := collect(t, StreamText(context.Background(), nil, "x"))
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestStreamText_Cancelled(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.SetDefault(strings.Repeat("a", 64))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		got    int
		gotErr error
	)

	for _, err := range StreamText(ctx, m, "x") {
		if err != nil {
			gotErr = err
			break
		}
		got++
		cancel()
	}

	assert.Equal(t, 1, got)
	assert.ErrorIs(t, gotErr, context.Canceled)
}

func TestStreamText_StopEarly(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.SetDefault("abcdef")

	var got []string
	for chunk, err := range StreamText(context.Background(), m, "x") {
		require.NoError(t, err)
		got = append(got, chunk)
		if len(got) == 2 {
			break
		}
	}

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestContent_Text(t *testing.T) {
	c := Content{Role: "assistant", Parts: []Part{TextPart{Text: "a"}, TextPart{Text: "b"}}}
	assert.Equal(t, "ab", c.Text())
}
