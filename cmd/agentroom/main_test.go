package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentroom/room"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return buf.String(), err
}

func TestRoomsCmd(t *testing.T) {
	out, err := execute(t, "rooms", "--provider", "mock", "--rooms-dir", "../../config/testdata/rooms")
	require.NoError(t, err)
	assert.Contains(t, out, "Copywriting")
	assert.Contains(t, out, "🎨 ArtDirector")

	out, err = execute(t, "rooms", "--json", "--provider", "mock", "--rooms-dir", "../../config/testdata/rooms")
	require.NoError(t, err)

	var rooms []room.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &rooms))
	require.Len(t, rooms, 2)
	assert.Equal(t, "brainstorm", rooms[0].Name)
}

func TestChatCmd(t *testing.T) {
	out, err := execute(t, "chat", "brainstorm", "Pitch", "a", "product",
		"--hints", "--provider", "mock", "--rooms-dir", "../../config/testdata/rooms")
	require.NoError(t, err)
	assert.Contains(t, out, "Optimist: Mock response to:")
	assert.Contains(t, out, "Skeptic: Mock response to:")
	assert.Contains(t, out, "[terminate-decision] False: no keyword found in the last message")
}

func TestInvalidFlags(t *testing.T) {
	_, err := execute(t, "rooms", "--provider", "skynet", "--rooms-dir", "../../config/testdata/rooms")
	assert.Error(t, err)

	_, err = execute(t, "chat", "only-room")
	assert.Error(t, err)
}
