// Package decision extracts structured decisions from free-form model output.
//
// Models asked for JSON frequently wrap it in code fences, prepend commentary
// or stop mid-object while streaming. The helpers here therefore scan for
// keys directly instead of unmarshalling, and only the final accumulated
// buffer is treated as authoritative by callers.
package decision

import (
	"strconv"
	"strings"
)

// CleanJSON trims code fences and an optional leading "json" tag, then
// narrows the text to the outermost {...} when one is present.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)

	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimSpace(s[4:])
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")

	if start >= 0 && end > start {
		return s[start : end+1]
	}

	return s
}

// valueStart returns the index just past `"key"` and the following colon.
func valueStart(text, key string) (int, bool) {
	quoted := `"` + key + `"`
	offset := 0

	for {
		i := strings.Index(text[offset:], quoted)
		if i < 0 {
			return 0, false
		}

		pos := offset + i + len(quoted)
		rest := strings.TrimLeft(text[pos:], " \t\r\n")

		if strings.HasPrefix(rest, ":") {
			return len(text) - len(rest) + 1, true
		}

		offset = pos
	}
}

// ExtractField returns the string value of key: the text between the first
// two double quotes following `"key":`, trimmed. Escaped quotes inside the
// value are honoured. ok is false when the key or a closed value is missing.
func ExtractField(text, key string) (string, bool) {
	pos, ok := valueStart(text, key)
	if !ok {
		return "", false
	}

	open := strings.Index(text[pos:], `"`)
	if open < 0 {
		return "", false
	}

	begin := pos + open + 1
	escaped := false

	for i := begin; i < len(text); i++ {
		switch {
		case escaped:
			escaped = false
		case text[i] == '\\':
			escaped = true
		case text[i] == '"':
			raw := text[begin:i]
			if unq, err := strconv.Unquote(`"` + raw + `"`); err == nil {
				raw = unq
			}
			return strings.TrimSpace(raw), true
		}
	}

	return "", false
}

// ExtractBool reads the literal following `"key":` up to the next ',' or '}'
// and parses it as true/false ignoring case and surrounding quotes. Anything
// else yields false.
func ExtractBool(text, key string) bool {
	v, ok := extractLiteral(text, key)
	if !ok {
		return false
	}

	return strings.EqualFold(v, "true")
}

// HasBool reports whether key carries a parseable boolean literal.
func HasBool(text, key string) bool {
	v, ok := extractLiteral(text, key)
	if !ok {
		return false
	}

	return strings.EqualFold(v, "true") || strings.EqualFold(v, "false")
}

func extractLiteral(text, key string) (string, bool) {
	pos, ok := valueStart(text, key)
	if !ok {
		return "", false
	}

	rest := text[pos:]
	if cut := strings.IndexAny(rest, ",}"); cut >= 0 {
		rest = rest[:cut]
	}

	return strings.Trim(strings.TrimSpace(rest), `"' `), true
}
