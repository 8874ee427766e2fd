package llm

import (
	"errors"
	"regexp"
	"strings"
)

var errNoJSON = errors.New("no JSON value found in response")

var fenceRe = regexp.MustCompile("(?i)```[a-z]*")

// StripFences removes markdown code fences (``` or ```json) wrapping the
// model output and trims surrounding whitespace.
func StripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

// ExtractJSON returns the first complete JSON object or array in s after
// stripping fences. Brackets inside string literals are ignored.
func ExtractJSON(s string) (string, error) {
	s = StripFences(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", errNoJSON
	}

	var stack []byte
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
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return "", errNoJSON
			}
			open := stack[len(stack)-1]
			if (open == '{' && c != '}') || (open == '[' && c != ']') {
				return "", errors.New("mismatched brackets in response")
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errors.New("unterminated JSON value in response")
}
