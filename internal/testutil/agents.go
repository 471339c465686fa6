package testutil

import (
	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/model"
)

// NewAgent builds an agent whose replies come from a MockModel that
// always answers reply. The mock is returned for further scripting.
func NewAgent(name, instructions, reply string) (*core.Agent, *model.MockModel) {
	m := model.NewMockModel(name+"-model", "mock")
	m.SetDefault(reply)
	m.SetChunkSize(8)

	return &core.Agent{Name: name, Instructions: instructions, Model: m}, m
}

// CopyWriterRoom returns the two agent roster used across tests: a
// CopyWriter producing slogans and an ArtDirector approving them.
func CopyWriterRoom() (writer, director *core.Agent) {
	writer, _ = NewAgent("CopyWriter", "You are a copywriter. Provide one single proposal.", "Drive the future.")
	director, _ = NewAgent("ArtDirector", "You are an art director. Approve the copy when it is good.", "This copy is approved.")

	return writer, director
}
