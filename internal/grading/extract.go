package grading

import "encoding/json"

// ExtractFirstArray returns the first balanced, well-formed JSON array found
// in text. Brackets inside string literals are ignored. Candidates that are
// balanced but not valid JSON are skipped.
func ExtractFirstArray(text string) (json.RawMessage, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '[' {
			continue
		}
		end := matchBracket(text, start)
		if end < 0 {
			continue
		}
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), true
		}
	}
	return nil, false
}

// matchBracket returns the index of the ']' closing the '[' at start, or -1.
func matchBracket(text string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				if ch == ']' {
					return i
				}
				return -1
			}
			if depth < 0 {
				return -1
			}
		}
	}
	return -1
}
