package services

import (
	"encoding/json"
	"strings"
)

// maxDecodeScan bounds how far into model output a structured value is searched for.
const maxDecodeScan = 256 * 1024

// DecodeBestEffort decodes model output into T. It tries a strict parse of
// the whole text (code fences removed), then the first bracket-balanced
// array or object found in it, and otherwise returns fallback. The boolean
// reports whether a value was decoded. It never panics on malformed input.
func DecodeBestEffort[T any](raw string, fallback T) (T, bool) {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return fallback, false
	}

	var v T
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, true
	}

	if len(text) > maxDecodeScan {
		text = text[:maxDecodeScan]
	}
	for _, open := range []byte{'[', '{'} {
		candidate, ok := balancedSubstring(text, open)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, true
		}
	}
	return fallback, false
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// balancedSubstring returns the first substring starting at open whose
// brackets balance, ignoring brackets inside JSON strings.
func balancedSubstring(s string, open byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
