package chat

import (
	"strings"

	"github.com/hupe1980/agentroom/core"
)

// BuildPrompt renders the generation prompt for an agent: one
// "{author}: {text}" line per message followed by the agent's instructions.
func BuildPrompt(history []core.Message, instructions string) string {
	lines := make([]string, len(history))
	for i, m := range history {
		lines[i] = m.AuthorOrUser() + ": " + m.Text
	}

	return strings.Join(lines, "\n") + "\n\nInstructions: " + instructions
}
