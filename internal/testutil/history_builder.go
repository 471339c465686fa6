package testutil

import (
	"github.com/hupe1980/agentroom/core"
)

// HistoryBuilder helps construct message histories with fluent chaining.
// Example:
//
//	msgs := NewHistory().User("brief").Agent("CopyWriter", "draft").Build()
type HistoryBuilder struct {
	msgs []core.Message
}

// NewHistory creates an empty history builder.
func NewHistory() *HistoryBuilder {
	return &HistoryBuilder{}
}

// User appends a message authored by the user (chainable).
func (b *HistoryBuilder) User(text string) *HistoryBuilder {
	b.msgs = append(b.msgs, core.NewUserMessage(text))
	return b
}

// Agent appends a message authored by name (chainable).
func (b *HistoryBuilder) Agent(name, text string) *HistoryBuilder {
	b.msgs = append(b.msgs, core.Message{Author: name, Text: text})
	return b
}

// Build returns a copy of the accumulated messages.
func (b *HistoryBuilder) Build() []core.Message {
	return append([]core.Message(nil), b.msgs...)
}
