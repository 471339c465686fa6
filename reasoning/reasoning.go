// Package reasoning separates a model's visible answer from an embedded
// reasoning span such as "<think> ... </think>".
package reasoning

// Markers delimit a reasoning span. Matching is case-insensitive for ASCII
// letters; other bytes must match exactly.
type Markers struct {
	Start string
	End   string
}

// Default is the <think> / </think> pair emitted by reasoning models.
var Default = Markers{Start: "<think>", End: "</think>"}

// Split separates s into answer and reasoning using Default markers.
func Split(s string) (answer, reasoning string) {
	return Default.Split(s)
}

// Strip returns the answer part of s using Default markers.
func Strip(s string) string {
	answer, _ := Default.Split(s)
	return answer
}

// Split separates s into answer and reasoning text. It is stateless and is
// meant to be re-run over the whole accumulated buffer on every chunk, since
// markers may straddle chunk boundaries.
//
//   - no start marker: everything is answer
//   - start marker, no end marker yet: answer is the text before the start
//     marker, reasoning is everything from the start marker on
//   - both markers: the span including both markers is the reasoning and is
//     cut out of the answer
func (m Markers) Split(s string) (answer, reasoning string) {
	if m.Start == "" || m.End == "" {
		return s, ""
	}

	start := indexFold(s, m.Start)
	if start < 0 {
		return s, ""
	}

	rel := indexFold(s[start+len(m.Start):], m.End)
	if rel < 0 {
		return s[:start], s[start:]
	}

	end := start + len(m.Start) + rel + len(m.End)

	return s[:start] + s[end:], s[start:end]
}

// indexFold returns the byte index of the first match of sub in s, folding
// ASCII letters only. Offsets always refer to s.
func indexFold(s, sub string) int {
	n := len(sub)
	for i := 0; i+n <= len(s); i++ {
		if hasPrefixFold(s[i:], sub) {
			return i
		}
	}

	return -1
}

func hasPrefixFold(s, prefix string) bool {
	for j := 0; j < len(prefix); j++ {
		if lowerASCII(s[j]) != lowerASCII(prefix[j]) {
			return false
		}
	}

	return true
}

func lowerASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}

	return b
}
