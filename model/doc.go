// Package model defines the provider-agnostic abstractions and helpers for
// interacting with language models inside agentroom.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Expose model output as a lazy sequence of text chunks (StreamText)
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI compatible endpoints such as Ollama, Anthropic) implement
// the Model interface so higher layers (strategies, chat) remain decoupled
// from vendor SDKs.
package model
