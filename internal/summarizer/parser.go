// File: internal/summarizer/parser.go
package summarizer

import (
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fencedBlockRegex extracts content wrapped in markdown code fences. Regex
// uses \x60 for backticks because Go raw strings cannot contain them.
var fencedBlockRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\{.*?\\})\\s*\x60\x60\x60")

// ExtractObject locates the first syntactically complete top-level JSON
// object embedded in free-form model output, tolerating explanatory prose
// before and after it. The first complete object wins; the scan never
// greedily spans multiple brace-delimited fragments. Returns false when no
// parseable object exists, in which case the caller falls back to synthesis.
func ExtractObject(raw string) (map[string]any, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	// Markdown-fenced JSON is the most common wrapping; try it first.
	if matches := fencedBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		if obj, ok := decodeObject(matches[1]); ok {
			return obj, true
		}
	}

	// Walk candidate object starts left to right. For each opening brace,
	// scan to its balanced close and attempt a decode; the first candidate
	// that both balances and parses wins.
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		if candidate := balancedObject(raw[start:]); candidate != "" {
			if obj, ok := decodeObject(candidate); ok {
				return obj, true
			}
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += 1 + next
	}
	return nil, false
}

// balancedObject returns the prefix of s that forms a balanced brace-delimited
// object, respecting string literals and escapes. Returns "" if the braces
// never balance.
func balancedObject(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

func decodeObject(candidate string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
