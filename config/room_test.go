package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/model"
	"github.com/hupe1980/agentroom/room"
)

func TestLoadRoomFile(t *testing.T) {
	rf, err := LoadRoomFile("testdata/rooms/copywriting.yaml")
	require.NoError(t, err)

	assert.Equal(t, "Copywriting", rf.Name)
	assert.Equal(t, "✍️", rf.Emoji)
	require.Len(t, rf.Agents, 3)
	assert.Equal(t, []string{"CopyWriter", "ArtDirector", "Intern"},
		[]string{rf.Agents[0].Name, rf.Agents[1].Name, rf.Agents[2].Name})

	require.NotNil(t, rf.Strategies.Termination)
	assert.Equal(t, []string{"last message"}, rf.Strategies.Termination.PresetConditions)
	assert.Equal(t, 6, rf.Strategies.Termination.MaxIterations)
}

func TestRoomFile_Definition(t *testing.T) {
	rf, err := LoadRoomFile("testdata/rooms/copywriting.yaml")
	require.NoError(t, err)

	m := model.NewMockModel("kernel", "mock")
	def := rf.Definition(m)

	require.Len(t, def.Agents, 2)
	assert.Equal(t, "CopyWriter", def.Agents[0].Name)
	assert.Equal(t, core.DefaultAgentEmoji, def.Agents[0].Emoji)
	assert.Equal(t, "🎨", def.Agents[1].Emoji)
	assert.Same(t, m, def.Agents[1].Model)
	assert.Equal(t, 6, def.MaxIterations)
	assert.Equal(t, room.StrategySpec{
		Description:   "ArtDirector has approved the copy.",
		Preconditions: []string{"last message"},
	}, def.Termination)

	require.NoError(t, room.NewRegistry(m).Add(def))
}

func TestLoadRoomDir(t *testing.T) {
	rooms, err := LoadRoomDir("testdata/rooms")
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	assert.Equal(t, "brainstorm", rooms[0].Name)
	assert.Equal(t, "Copywriting", rooms[1].Name)

	def := rooms[0].Definition(nil)
	assert.Equal(t, 4, def.MaxIterations)
	assert.Equal(t, room.StrategyKeyword, def.Termination.Type)
	assert.Equal(t, []string{"agreed", "done"}, def.Termination.Keywords)
	assert.NoError(t, room.NewRegistry(nil).Add(def))
}

func TestLoadRoomDir_Errors(t *testing.T) {
	_, err := LoadRoomDir("testdata/missing")
	assert.Error(t, err)

	rooms, err := LoadRoomDir("testdata")
	require.Error(t, err)
	assert.ErrorContains(t, err, "broken.yaml")
	require.Len(t, rooms, 1)
	assert.Equal(t, "server", rooms[0].Name)
}

func TestParseRoom_EmptyAgentList(t *testing.T) {
	rf, err := ParseRoom([]byte("name: Empty\n"))
	require.NoError(t, err)
	assert.Empty(t, rf.Agents)
	assert.Nil(t, rf.Strategies.Selection)

	err = room.NewRegistry(nil).Add(rf.Definition(nil))
	assert.ErrorIs(t, err, core.ErrInvalidState)
}
