package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Request captures the normalized model input.
type Request struct {
	Instructions string    `json:"instructions"` // System level instructions
	Contents     []Content `json:"contents"`
	Stream       bool      `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a streaming model.
// A final response carries the full text; partial responses carry deltas.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Content      Content     `json:"content"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", ...
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Model is the minimal interface required by strategies and agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

type mockRule struct {
	match     string
	responses []string
	next      int
	err       error
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are chosen by the first registered rule whose match string is
// contained in the prompt; unmatched prompts get the default response.
type MockModel struct {
	info Info

	mu        sync.Mutex
	rules     []*mockRule
	fallback  string
	chunkSize int
	calls     []string
}

// NewMockModel constructs a MockModel streaming one rune per chunk.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		chunkSize: 1,
	}
}

// AddResponse registers a canned completion for prompts containing match.
func (m *MockModel) AddResponse(match, response string) { m.AddResponses(match, response) }

// AddResponses registers completions returned in order for prompts containing
// match. Once exhausted the last response repeats.
func (m *MockModel) AddResponses(match string, responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, &mockRule{match: match, responses: responses})
}

// AddError makes prompts containing match fail with err.
func (m *MockModel) AddError(match string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, &mockRule{match: match, err: err})
}

// SetDefault sets the response for prompts no rule matches.
func (m *MockModel) SetDefault(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// SetChunkSize sets the number of runes per streamed chunk.
func (m *MockModel) SetChunkSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.chunkSize = n
	}
}

// Calls returns the prompts received so far.
func (m *MockModel) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns the number of Generate invocations.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockModel) resolve(prompt string) (string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, prompt)

	for _, r := range m.rules {
		if !strings.Contains(prompt, r.match) {
			continue
		}
		if r.err != nil {
			return "", m.chunkSize, r.err
		}
		resp := r.responses[len(r.responses)-1]
		if r.next < len(r.responses) {
			resp = r.responses[r.next]
			r.next++
		}
		return resp, m.chunkSize, nil
	}

	if m.fallback != "" {
		return m.fallback, m.chunkSize, nil
	}

	return fmt.Sprintf("Mock response to: %s", prompt), m.chunkSize, nil
}

// Generate implements Model; emits optional streaming chunks then the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}

		full, size, err := m.resolve(req.Contents[len(req.Contents)-1].Text())
		if err != nil {
			errCh <- err
			return
		}

		if req.Stream {
			runes := []rune(full)
			for i := 0; i < len(runes); i += size {
				end := min(i+size, len(runes))
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Content: NewTextContent("assistant", string(runes[i:end]))}:
				}
			}
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Content: NewTextContent("assistant", full), FinishReason: "stop"}:
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
