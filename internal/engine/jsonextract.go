package engine

import "encoding/json"

// extractJSONBlock locates the first well-formed JSON object or array inside
// free-form model output, tolerating leading and trailing prose. The second
// result is false when no valid block exists; callers treat that as a normal
// code path, not an exception.
func extractJSONBlock(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		open := s[i]
		if open != '{' && open != '[' {
			continue
		}
		if end, ok := scanBalanced(s, i); ok {
			candidate := s[i : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
			// Balanced but invalid (e.g. single quotes); keep scanning
			// from the next character rather than skipping the region,
			// since a valid block may start inside it.
		}
	}
	return "", false
}

// scanBalanced returns the index of the bracket closing the one at start,
// honouring string literals and escapes.
func scanBalanced(s string, start int) (int, bool) {
	open := s[start]
	var close byte
	switch open {
	case '{':
		close = '}'
	case '[':
		close = ']'
	default:
		return 0, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
