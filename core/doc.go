// Package core provides the foundational domain types shared by agentroom:
//
//   - Message (one entry in a room's conversation history)
//   - Agent and Roster (named, instructed participants backed by a model)
//   - Envelope (the multi-stage progress record emitted during a turn)
//   - the error taxonomy used by the orchestrator and transport
//
// Implementation concerns (history storage, strategies, transport) live in
// their own packages; core only defines the shapes they exchange.
package core
